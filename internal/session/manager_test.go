package session

import (
	"context"
	"testing"
	"time"

	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/otcheredev/medpres-client/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerKeepsSessionsApart(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	m := NewManager(st, newMock())
	ctx := context.Background()

	patient, err := m.Get(ctx, m.NewID())
	require.NoError(t, err)
	doctor, err := m.Get(ctx, m.NewID())
	require.NoError(t, err)

	_, err = patient.Login(ctx, adapters.MockPatientEmail, adapters.MockPatientPassword)
	require.NoError(t, err)
	_, err = doctor.Login(ctx, adapters.MockDoctorEmail, adapters.MockDoctorPassword)
	require.NoError(t, err)

	assert.NotEqual(t, patient.Token(), doctor.Token())
	assert.Equal(t, 2, m.Len())

	again, err := m.Get(ctx, patient.ID())
	require.NoError(t, err)
	assert.Same(t, patient, again)

	_, err = st.Get(ctx, Namespace(patient.ID())+TokenKey)
	assert.NoError(t, err)
}

func TestManagerHydratesFromStorage(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	backend := newMock()
	ctx := context.Background()

	first := NewManager(st, backend)
	sid := first.NewID()
	s, err := first.Get(ctx, sid)
	require.NoError(t, err)
	want, err := s.Login(ctx, adapters.MockAdminEmail, adapters.MockAdminPassword)
	require.NoError(t, err)

	second := NewManager(st, backend)
	restored, err := second.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, want, restored.CurrentIdentity())
	assert.Equal(t, 1, second.Len())
}

func TestManagerForgetsOnLogout(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), newMock())
	ctx := context.Background()

	anon, err := m.Get(ctx, m.NewID())
	require.NoError(t, err)
	assert.Zero(t, m.Len(), "anonymous sessions are not cached")

	_, err = anon.Login(ctx, adapters.MockPatientEmail, adapters.MockPatientPassword)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	anon.Logout(ctx)
	assert.Zero(t, m.Len())
}

func TestManagerRejectsMalformedID(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), newMock())
	_, err := m.Get(context.Background(), "../../etc")
	assert.Error(t, err)
}

func TestManagerSignsOutWhenCredentialExpires(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	m := NewManager(st, newMock(), WithTTL(50*time.Millisecond))
	ctx := context.Background()

	sid := m.NewID()
	s, err := m.Get(ctx, sid)
	require.NoError(t, err)
	_, err = s.Login(ctx, adapters.MockPatientEmail, adapters.MockPatientPassword)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	time.Sleep(120 * time.Millisecond)

	again, err := m.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, again.Authenticated())
	assert.Nil(t, again.CurrentIdentity())
	assert.Zero(t, m.Len())
}

func TestManagerSeesLogoutFromAnotherHost(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	backend := newMock()
	ctx := context.Background()

	hostA := NewManager(st, backend)
	hostB := NewManager(st, backend)
	sid := hostA.NewID()

	a, err := hostA.Get(ctx, sid)
	require.NoError(t, err)
	_, err = a.Login(ctx, adapters.MockDoctorEmail, adapters.MockDoctorPassword)
	require.NoError(t, err)

	b, err := hostB.Get(ctx, sid)
	require.NoError(t, err)
	require.True(t, b.Authenticated())

	a.Logout(ctx)

	b, err = hostB.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, b.Authenticated())
	assert.Zero(t, hostB.Len())
}

func TestManagerFollowsLoginFromAnotherHost(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	backend := newMock()
	ctx := context.Background()

	hostA := NewManager(st, backend)
	hostB := NewManager(st, backend)
	sid := hostA.NewID()

	a, err := hostA.Get(ctx, sid)
	require.NoError(t, err)
	_, err = a.Login(ctx, adapters.MockPatientEmail, adapters.MockPatientPassword)
	require.NoError(t, err)
	b, err := hostB.Get(ctx, sid)
	require.NoError(t, err)

	_, err = a.Login(ctx, adapters.MockAdminEmail, adapters.MockAdminPassword)
	require.NoError(t, err)

	b, err = hostB.Get(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, b.CurrentIdentity())
	assert.Equal(t, models.RoleAdmin, b.CurrentIdentity().Role)
	assert.Equal(t, a.Token(), b.Token())
}
