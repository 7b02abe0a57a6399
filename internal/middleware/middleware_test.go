package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/otcheredev/medpres-client/internal/session"
	"github.com/otcheredev/medpres-client/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *memRecorder) Record(_ context.Context, e *models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })
	return session.NewManager(st, adapters.NewMockBackend(adapters.WithDelays(0, 0)))
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestSessionsIssuesCookie(t *testing.T) {
	m := newManager(t)
	var seen *session.Session
	h := Sessions(m, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.NotNil(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, seen.ID(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestSessionsReusesSignedInSession(t *testing.T) {
	m := newManager(t)
	sid := m.NewID()
	s, err := m.Get(context.Background(), sid)
	require.NoError(t, err)
	_, err = s.Login(context.Background(), adapters.MockPatientEmail, adapters.MockPatientPassword)
	require.NoError(t, err)

	var seen *session.Session
	h := Sessions(m, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Same(t, s, seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionsReplacesMalformedCookie(t *testing.T) {
	m := newManager(t)
	h := Sessions(m, false)(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "../../etc", cookies[0].Value)
}

func TestGate(t *testing.T) {
	m := newManager(t)
	signedIn := func(email, password string) *session.Session {
		s, err := m.Get(context.Background(), m.NewID())
		require.NoError(t, err)
		_, err = s.Login(context.Background(), email, password)
		require.NoError(t, err)
		return s
	}
	anonymous, err := m.Get(context.Background(), m.NewID())
	require.NoError(t, err)
	patient := signedIn(adapters.MockPatientEmail, adapters.MockPatientPassword)
	doctor := signedIn(adapters.MockDoctorEmail, adapters.MockDoctorPassword)

	tests := []struct {
		name     string
		session  *session.Session
		path     string
		wantCode int
		wantLoc  string
	}{
		{"guest on login", anonymous, "/login", http.StatusOK, ""},
		{"guest on dashboard", anonymous, "/dashboard", http.StatusSeeOther, "/login"},
		{"patient on login", patient, "/login", http.StatusSeeOther, "/dashboard"},
		{"patient on own view", patient, "/book-appointment/2", http.StatusOK, ""},
		{"patient on doctor view", patient, "/manage-appointments", http.StatusSeeOther, "/login"},
		{"doctor on admin view", doctor, "/reports", http.StatusSeeOther, "/login"},
		{"not a view", anonymous, "/health", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &memRecorder{}
			h := Gate(audit, nil)(http.HandlerFunc(okHandler))
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req = req.WithContext(WithSession(req.Context(), tt.session))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
			if tt.wantLoc != "" {
				require.Len(t, audit.entries, 1)
				assert.Equal(t, models.AuditAccessDenied, audit.entries[0].Action)
				assert.Equal(t, tt.path, audit.entries[0].Path)
				assert.Equal(t, tt.session.ID(), audit.entries[0].SessionID)
			} else {
				assert.Empty(t, audit.entries)
			}
		})
	}
}

func TestGateWithoutSessionTreatsCallerAsGuest(t *testing.T) {
	h := Gate(nil, nil)(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-prescriptions", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestLoggingPassesThrough(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

// flakyStore fails reads while down is set.
type flakyStore struct {
	store.Store
	down atomic.Bool
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if f.down.Load() {
		return "", errors.New("connection refused")
	}
	return f.Store.Get(ctx, key)
}

func TestSessionsKeepsCookieOnStorageFailure(t *testing.T) {
	st := &flakyStore{Store: store.NewMemoryStore()}
	t.Cleanup(func() { st.Close() })
	m := session.NewManager(st, adapters.NewMockBackend(adapters.WithDelays(0, 0)))

	sid := m.NewID()
	s, err := m.Get(context.Background(), sid)
	require.NoError(t, err)
	_, err = s.Login(context.Background(), adapters.MockPatientEmail, adapters.MockPatientPassword)
	require.NoError(t, err)

	var seen *session.Session
	h := Sessions(m, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
	}))
	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	st.down.Store(true)
	rec := serve()
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Nil(t, seen)

	st.down.Store(false)
	rec = serve()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	require.NotNil(t, seen)
	assert.Equal(t, sid, seen.ID())
	assert.True(t, seen.Authenticated())
}
