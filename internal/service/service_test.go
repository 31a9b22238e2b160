package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"scriptvault/api/internal/audit"
	"scriptvault/api/internal/config"
	"scriptvault/api/internal/models"
	"scriptvault/api/internal/repository"
	"scriptvault/api/internal/session"
	"scriptvault/api/internal/storage"
)

// countingStore wraps an ObjectStore and counts writes, so tests can
// assert the cheap bootstrap path issues none.
type countingStore struct {
	inner storage.ObjectStore
	puts  atomic.Int64
}

func (c *countingStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	c.puts.Add(1)
	return c.inner.Put(ctx, key, body, contentType)
}

func (c *countingStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return c.inner.List(ctx, prefix)
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return c.inner.Get(ctx, key)
}

type testEnv struct {
	cfg      *config.AppConfig
	store    *countingStore
	records  *storage.RecordStore
	users    *repository.UserRepository
	codeRepo *repository.AccessCodeRepository
	sessions *session.Manager
	auth     *AuthService
	codes    *AccessCodeService
	scripts  *ScriptService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			SessionTTL:     24 * time.Hour,
			AccessCodeDays: 30,
			ScriptCacheTTL: time.Minute,
		},
		Admin: config.AdminConfig{
			Username: "daveblunts",
			Password: "escolar112200",
		},
	}

	logger := zerolog.Nop()
	store := &countingStore{inner: storage.NewMemoryStore()}
	records := storage.NewRecordStore(store, time.Second, logger)
	trail := audit.NewTrail(records, logger)

	users := repository.NewUserRepository(records)
	codeRepo := repository.NewAccessCodeRepository(records)
	scriptRepo := repository.NewScriptRepository(records)

	sessions := session.NewManager(cfg.Security.SessionTTL, logger)

	codes := NewAccessCodeService(codeRepo, trail, cfg, logger)
	auth := NewAuthService(users, codes, sessions, trail, cfg, logger)
	scripts := NewScriptService(scriptRepo, nil, trail, cfg, logger)

	return &testEnv{
		cfg:      cfg,
		store:    store,
		records:  records,
		users:    users,
		codeRepo: codeRepo,
		sessions: sessions,
		auth:     auth,
		codes:    codes,
		scripts:  scripts,
	}
}

func (e *testEnv) adminSession(t *testing.T) session.Session {
	t.Helper()
	sess, err := e.sessions.Create(e.cfg.Admin.Username, models.UserRoleAdmin)
	require.NoError(t, err)
	return sess
}

func (e *testEnv) userSession(t *testing.T, username string) session.Session {
	t.Helper()
	sess, err := e.sessions.Create(username, models.UserRoleUser)
	require.NoError(t, err)
	return sess
}
