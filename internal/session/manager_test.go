package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptvault/api/internal/apperr"
	"scriptvault/api/internal/models"
)

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	m := NewManager(24*time.Hour, zerolog.Nop())
	now := time.Now()
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManager_CreateAndValidate(t *testing.T) {
	m, _ := newTestManager(t)

	sess, err := m.Create("alice", models.UserRoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	got, err := m.Validate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, models.UserRoleUser, got.Role)
}

func TestManager_ValidateUnknownToken(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Validate("no-such-token")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestManager_LazyExpiry(t *testing.T) {
	m, now := newTestManager(t)

	sess, err := m.Create("alice", models.UserRoleUser)
	require.NoError(t, err)

	*now = now.Add(24*time.Hour + time.Minute)

	_, err = m.Validate(sess.Token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	// The expired entry was removed on the spot.
	assert.Equal(t, 0, m.Count())
}

func TestManager_MultipleSessionsPerUser(t *testing.T) {
	m, _ := newTestManager(t)

	first, err := m.Create("alice", models.UserRoleUser)
	require.NoError(t, err)
	second, err := m.Create("alice", models.UserRoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	_, err = m.Validate(first.Token)
	assert.NoError(t, err)
	_, err = m.Validate(second.Token)
	assert.NoError(t, err)
}

func TestManager_Destroy(t *testing.T) {
	m, _ := newTestManager(t)

	sess, err := m.Create("alice", models.UserRoleUser)
	require.NoError(t, err)

	assert.True(t, m.Destroy(sess.Token))
	assert.False(t, m.Destroy(sess.Token))

	_, err = m.Validate(sess.Token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestManager_RequireRole(t *testing.T) {
	m, _ := newTestManager(t)

	admin, err := m.Create("root", models.UserRoleAdmin)
	require.NoError(t, err)
	user, err := m.Create("alice", models.UserRoleUser)
	require.NoError(t, err)

	_, err = m.RequireRole(admin.Token, models.UserRoleAdmin)
	assert.NoError(t, err)

	_, err = m.RequireRole(user.Token, models.UserRoleAdmin)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = m.RequireRole("bogus", models.UserRoleAdmin)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestManager_Sweep(t *testing.T) {
	m, now := newTestManager(t)

	_, err := m.Create("old", models.UserRoleUser)
	require.NoError(t, err)

	*now = now.Add(25 * time.Hour)

	fresh, err := m.Create("fresh", models.UserRoleUser)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Count())

	_, err = m.Validate(fresh.Token)
	assert.NoError(t, err)
}
