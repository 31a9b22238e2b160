package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptvault/api/internal/apperr"
	"scriptvault/api/internal/models"
	"scriptvault/api/internal/security"
)

func TestEnsureAdmin_ColdStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	state, err := env.auth.EnsureAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, BootstrapCreated, state)

	users, err := env.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1, "exactly one admin record")
	assert.Equal(t, "daveblunts", users[0].Username)
	assert.Equal(t, models.UserRoleAdmin, users[0].Role)
	assert.True(t, users[0].InitializedFromConfig)
}

func TestEnsureAdmin_SecondCallIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.EnsureAdmin(ctx)
	require.NoError(t, err)

	writesAfterFirst := env.store.puts.Load()

	state, err := env.auth.EnsureAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, BootstrapExists, state)
	assert.Equal(t, writesAfterFirst, env.store.puts.Load(), "exists path issues no writes")
}

func TestEnsureAdmin_SeedNeverStoresPlaintext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.EnsureAdmin(ctx)
	require.NoError(t, err)

	seed, err := env.users.ReadSeed(ctx)
	require.NoError(t, err)
	assert.NotContains(t, seed.PasswordHash, "escolar112200")
	assert.True(t, strings.Contains(seed.PasswordHash, ":"))
	assert.True(t, security.VerifyPassword("escolar112200", seed.PasswordHash))

	user, err := env.users.FindByUsername(ctx, "daveblunts")
	require.NoError(t, err)
	assert.Equal(t, seed.PasswordHash, user.PasswordHash, "user record derives from the seed")
}

func TestLogin_BootstrappedAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.EnsureAdmin(ctx)
	require.NoError(t, err)

	sess, user, err := env.auth.Login(ctx, "daveblunts", "escolar112200")
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, user.Role)
	assert.NotEmpty(t, sess.Token)

	got, err := env.sessions.Validate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "daveblunts", got.Username)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.EnsureAdmin(ctx)
	require.NoError(t, err)

	_, _, err = env.auth.Login(ctx, "daveblunts", "wrong")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, _, err = env.auth.Login(ctx, "ghost", "whatever")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err), "unknown user is indistinguishable")
}

func TestRegister_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	code, err := env.codes.Generate(ctx, env.adminSession(t), 30)
	require.NoError(t, err)

	user, err := env.auth.Register(ctx, "alice", "secret1", code.Code)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleUser, user.Role)

	stored, err := env.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, security.VerifyPassword("secret1", stored.PasswordHash))

	consumed, err := env.codeRepo.Get(ctx, code.Code)
	require.NoError(t, err)
	assert.True(t, consumed.Used)
	assert.Equal(t, "alice", consumed.UsedBy)
}

func TestRegister_CodeSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	code, err := env.codes.Generate(ctx, env.adminSession(t), 30)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, "alice", "secret1", code.Code)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, "bob", "secret2", code.Code)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = env.users.FindByUsername(ctx, "bob")
	require.Error(t, err, "failed registration creates no record")
}

func TestRegister_ExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	code, err := env.codes.Generate(ctx, env.adminSession(t), 30)
	require.NoError(t, err)

	// Age the record past its expiry.
	rec, err := env.codeRepo.Get(ctx, code.Code)
	require.NoError(t, err)
	rec.ExpiresAt = rec.CreatedAt.AddDate(0, 0, -1)
	require.NoError(t, env.codeRepo.Save(ctx, rec))

	_, err = env.auth.Register(ctx, "alice", "secret1", code.Code)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = env.users.FindByUsername(ctx, "alice")
	require.Error(t, err, "no user record on expired code")
}

func TestRegister_UnknownCode(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), "alice", "secret1", "RAC-0000000000")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, "ab", "secret1", "RAC-0000000000")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = env.auth.Register(ctx, "alice", "short", "RAC-0000000000")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegister_DuplicateUsernameKeepsCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.codes.Generate(ctx, env.adminSession(t), 30)
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, "alice", "secret1", first.Code)
	require.NoError(t, err)

	second, err := env.codes.Generate(ctx, env.adminSession(t), 30)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, "alice", "other66", second.Code)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	rec, err := env.codeRepo.Get(ctx, second.Code)
	require.NoError(t, err)
	assert.False(t, rec.Used, "conflict does not burn the code")
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminSession(t)

	user, err := env.auth.CreateUser(ctx, admin, "carol", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleUser, user.Role, "role defaults to user")
	assert.Equal(t, admin.Username, user.CreatedBy)

	_, err = env.auth.CreateUser(ctx, admin, "carol", "secret1", models.UserRoleUser)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = env.auth.CreateUser(ctx, admin, "dave2", "secret1", "superuser")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	other, err := env.auth.CreateUser(ctx, admin, "erin2", "secret1", models.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, other.Role)
}
