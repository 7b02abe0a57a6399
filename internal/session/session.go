package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/otcheredev/medpres-client/internal/store"
	"github.com/rs/zerolog/log"
)

// TokenKey is the well-known storage key of the credential of the default
// session.
const TokenKey = "token"

const userKey = "user"

// Recorder receives audit entries for session events.
type Recorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, *models.AuditLog) {}

// Session holds the credential and identity of one signed-in user and
// keeps the credential in durable storage.
type Session struct {
	id      string
	ns      string
	store   store.Store
	backend adapters.AuthService
	audit   Recorder
	ttl     time.Duration
	hooks   hooks

	mu       sync.RWMutex
	token    string
	identity *models.Identity
}

// hooks let a Manager follow sign-in state.
type hooks struct {
	onLogin  func(*Session)
	onLogout func(*Session)
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder sets where session events are audited.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.audit = r
		}
	}
}

// WithTTL bounds how long a stored credential is kept. Zero keeps it until
// logout.
func WithTTL(d time.Duration) Option {
	return func(s *Session) {
		s.ttl = d
	}
}

// New creates a session. An empty id uses the un-namespaced well-known
// keys.
func New(id string, st store.Store, backend adapters.AuthService, opts ...Option) *Session {
	s := &Session{
		id:      id,
		ns:      Namespace(id),
		store:   st,
		backend: backend,
		audit:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace is the storage key prefix of session id.
func Namespace(id string) string {
	if id == "" {
		return ""
	}
	return "medpres:" + id + ":"
}

func (s *Session) ID() string { return s.id }

// Init hydrates the session from storage: the cached identity record
// first, then the claims of the stored token. A token that yields no
// identity is discarded.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.store.Get(ctx, s.ns+TokenKey)
	if errors.Is(err, store.ErrNotFound) {
		s.set("", nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: load token: %w", err)
	}

	identity := s.cachedIdentity(ctx)
	if identity == nil {
		identity = IdentityFromToken(token)
		if identity != nil {
			s.persistIdentity(ctx, identity)
		}
	}
	if identity == nil {
		log.Warn().Str("session_id", s.id).Msg("stored credential carries no identity, clearing")
		s.set("", nil)
		s.forget(ctx)
		return nil
	}

	s.set(token, identity)
	return nil
}

// verify reconciles the in-memory credential with storage. A missing
// credential clears the session; a different one is hydrated again.
func (s *Session) verify(ctx context.Context) error {
	token, err := s.store.Get(ctx, s.ns+TokenKey)
	if errors.Is(err, store.ErrNotFound) {
		if s.Authenticated() {
			log.Info().Str("session_id", s.id).Msg("stored credential gone, signing out")
			s.set("", nil)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: load token: %w", err)
	}
	if token != s.Token() {
		return s.Init(ctx)
	}
	return nil
}

// Login authenticates and stores the credential. Nothing is stored when
// the backend refuses.
func (s *Session) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, adapters.Invalid("email", "is required")
	}
	if password == "" {
		return nil, adapters.Invalid("password", "is required")
	}

	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.record(ctx, &models.AuditLog{Action: models.AuditLoginFailed, Email: email, Outcome: "failure", Message: err.Error()})
		return nil, err
	}

	identity := IdentityFromToken(res.Token)
	if identity == nil {
		identity = &models.Identity{Email: email}
	}
	if res.Role.Valid() {
		identity.Role = res.Role
	}
	if identity.Email == "" {
		identity.Email = email
	}
	if !identity.Role.Valid() {
		return nil, &adapters.RequestFailedError{StatusCode: http.StatusOK, Message: "login response carried no role"}
	}

	if err := s.store.Set(ctx, s.ns+TokenKey, res.Token, s.ttl); err != nil {
		log.Warn().Err(err).Str("session_id", s.id).Msg("failed to persist credential")
	} else {
		s.persistIdentity(ctx, identity)
	}
	s.set(res.Token, identity)

	if s.hooks.onLogin != nil {
		s.hooks.onLogin(s)
	}
	s.record(ctx, &models.AuditLog{Action: models.AuditLogin, Email: identity.Email, Role: identity.Role.String(), Outcome: "success"})
	log.Info().Str("session_id", s.id).Str("role", identity.Role.String()).Msg("signed in")
	return identity.Clone(), nil
}

// Register validates the form and creates the account. It does not sign
// in.
func (s *Session) Register(ctx context.Context, r Registration) (*models.RegisterResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	res, err := s.backend.Register(ctx, r.Request())
	entry := &models.AuditLog{Action: models.AuditRegister, Email: strings.TrimSpace(r.Email), Role: r.Role.String(), Outcome: "success"}
	if err != nil {
		entry.Outcome = "failure"
		entry.Message = err.Error()
	}
	s.record(ctx, entry)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Logout clears the credential and identity. Storage errors are logged.
func (s *Session) Logout(ctx context.Context) {
	prev := s.CurrentIdentity()
	s.set("", nil)
	s.forget(ctx)

	if s.hooks.onLogout != nil {
		s.hooks.onLogout(s)
	}
	if prev != nil {
		s.record(ctx, &models.AuditLog{Action: models.AuditLogout, Email: prev.Email, Role: prev.Role.String(), Outcome: "success"})
	}
}

// CurrentIdentity returns a copy of the signed-in identity, or nil.
func (s *Session) CurrentIdentity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Clone()
}

// Token returns the credential, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a credential is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Context returns ctx carrying the session credential for backend calls.
func (s *Session) Context(ctx context.Context) context.Context {
	return adapters.WithToken(ctx, s.Token())
}

// Expire drops the session after the backend refused its credential.
func (s *Session) Expire(ctx context.Context) {
	if !s.Authenticated() {
		return
	}
	log.Info().Str("session_id", s.id).Msg("credential refused by backend, signing out")
	s.Logout(ctx)
}

func (s *Session) set(token string, identity *models.Identity) {
	s.mu.Lock()
	s.token = token
	s.identity = identity.Clone()
	s.mu.Unlock()
}

func (s *Session) forget(ctx context.Context) {
	if err := s.store.Delete(ctx, s.ns+TokenKey, s.ns+userKey); err != nil {
		log.Error().Err(err).Str("session_id", s.id).Msg("failed to clear stored credential")
	}
}

func (s *Session) cachedIdentity(ctx context.Context) *models.Identity {
	raw, err := s.store.Get(ctx, s.ns+userKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("session_id", s.id).Msg("failed to load cached identity")
		}
		return nil
	}
	var identity models.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil || !identity.Role.Valid() {
		return nil
	}
	return &identity
}

func (s *Session) persistIdentity(ctx context.Context, identity *models.Identity) {
	raw, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, s.ns+userKey, string(raw), s.ttl); err != nil {
		log.Warn().Err(err).Str("session_id", s.id).Msg("failed to cache identity")
	}
}

func (s *Session) record(ctx context.Context, entry *models.AuditLog) {
	entry.SessionID = s.id
	s.audit.Record(ctx, entry)
}

// IdentityFromToken reads the identity out of a JWT credential without
// verifying it. It returns nil when the token is not a JWT or names no
// known role.
func IdentityFromToken(token string) *models.Identity {
	if token == "" {
		return nil
	}
	var claims models.TokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	identity, err := claims.Identity()
	if err != nil {
		return nil
	}
	return identity
}
