package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptvault/api/internal/apperr"
	"scriptvault/api/internal/models"
)

func TestGenerate_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.codes.Generate(context.Background(), env.userSession(t, "alice"), 30)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGenerate_DefaultsAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	code, err := env.codes.Generate(ctx, env.adminSession(t), 0)
	require.NoError(t, err)
	assert.Regexp(t, `^RAC-[A-Z0-9]{10}$`, code.Code)
	assert.Equal(t, 30, code.ValidDays, "zero valid_days falls back to the default")
	assert.WithinDuration(t, code.CreatedAt.AddDate(0, 0, 30), code.ExpiresAt, time.Second)

	short, err := env.codes.Generate(ctx, env.adminSession(t), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, short.ValidDays)
}

func TestRedeem_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	code, err := env.codes.Generate(ctx, env.adminSession(t), 30)
	require.NoError(t, err)

	require.NoError(t, env.codes.Redeem(ctx, code.Code, "alice"))

	err = env.codes.Redeem(ctx, code.Code, "bob")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "second redemption is rejected")

	rec, err := env.codeRepo.Get(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.UsedBy)
	require.NotNil(t, rec.UsedByAt)
}

func TestRedeem_Unknown(t *testing.T) {
	env := newTestEnv(t)

	err := env.codes.Redeem(context.Background(), "RAC-NOPENOPE00", "alice")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestList_StatusAndOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminSession(t)

	first, err := env.codes.Generate(ctx, admin, 30)
	require.NoError(t, err)
	require.NoError(t, env.codes.Redeem(ctx, first.Code, "alice"))

	// Backdate the redeemed code so ordering is deterministic.
	rec, err := env.codeRepo.Get(ctx, first.Code)
	require.NoError(t, err)
	rec.CreatedAt = rec.CreatedAt.Add(-time.Hour)
	require.NoError(t, env.codeRepo.Save(ctx, rec))

	second, err := env.codes.Generate(ctx, admin, 30)
	require.NoError(t, err)

	codes, err := env.codes.List(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, second.Code, codes[0].Code)
	assert.Equal(t, models.AccessCodeAvailable, codes[0].Status())
	assert.Equal(t, first.Code, codes[1].Code)
	assert.Equal(t, models.AccessCodeUsed, codes[1].Status())
}
