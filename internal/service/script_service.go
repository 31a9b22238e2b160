package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"scriptvault/api/internal/apperr"
	"scriptvault/api/internal/audit"
	"scriptvault/api/internal/config"
	"scriptvault/api/internal/models"
	"scriptvault/api/internal/repository"
)

type UploadInput struct {
	ScriptID    string
	APIKey      string
	Body        string
	Name        string
	Description string
}

type UploadResult struct {
	AuthKey     string
	URL         string
	MetaWritten bool
}

// ScriptService stores and serves script artifacts. Retrieval is
// deliberately unauthenticated: the auth_key is the capability, so it is
// never logged in full.
type ScriptService struct {
	scripts *repository.ScriptRepository
	cache   *redis.Client
	trail   *audit.Trail
	cfg     *config.AppConfig
	log     zerolog.Logger
}

func NewScriptService(
	scripts *repository.ScriptRepository,
	cache *redis.Client,
	trail *audit.Trail,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *ScriptService {
	return &ScriptService{scripts: scripts, cache: cache, trail: trail, cfg: cfg, log: log}
}

// AuthKey derives the capability token for a script.
func AuthKey(scriptID, apiKey string) string {
	return fmt.Sprintf("%s_%s_fetch", scriptID, apiKey)
}

// Upload writes the body, then the metadata sidecar. A failed sidecar
// write degrades the result instead of rolling back the body: the primary
// artifact stays available.
func (s *ScriptService) Upload(ctx context.Context, uploadedBy string, input UploadInput) (UploadResult, error) {
	if input.ScriptID == "" || input.APIKey == "" || input.Body == "" {
		return UploadResult{}, apperr.New(apperr.KindValidation, "script_id, api_key and script_code are required")
	}

	authKey := AuthKey(input.ScriptID, input.APIKey)

	url, err := s.scripts.PutBody(ctx, authKey, []byte(input.Body))
	if err != nil {
		return UploadResult{}, err
	}

	result := UploadResult{AuthKey: authKey, URL: url, MetaWritten: true}

	meta := models.ScriptMeta{
		AuthKey:     authKey,
		Name:        input.Name,
		Description: input.Description,
		Size:        int64(len(input.Body)),
		CreatedAt:   time.Now().UTC(),
		UploadedBy:  uploadedBy,
	}
	if err := s.scripts.PutMeta(ctx, meta); err != nil {
		s.log.Warn().Err(err).Str("script_id", input.ScriptID).Msg("metadata sidecar write failed")
		result.MetaWritten = false
	}

	s.invalidateCache(ctx, authKey)

	s.trail.Record("upload_script", uploadedBy, map[string]string{
		"script_id": input.ScriptID,
		"name":      input.Name,
	})
	return result, nil
}

// Fetch returns the exact body bytes previously uploaded for the
// auth_key. A re-upload replaces the body; the short-lived cache is
// invalidated on upload within this process.
func (s *ScriptService) Fetch(ctx context.Context, authKey string) (string, error) {
	if authKey == "" {
		return "", apperr.New(apperr.KindValidation, "auth_key is required")
	}

	if body, ok := s.cacheGet(ctx, authKey); ok {
		return body, nil
	}

	body, err := s.scripts.FetchBody(ctx, authKey)
	if err != nil {
		return "", err
	}

	s.cacheSet(ctx, authKey, string(body))
	return string(body), nil
}

// List enumerates stored scripts with their best-effort metadata join.
func (s *ScriptService) List(ctx context.Context) ([]models.ScriptListing, error) {
	return s.scripts.List(ctx)
}

func cacheKey(authKey string) string {
	return "script:" + authKey
}

func (s *ScriptService) cacheGet(ctx context.Context, authKey string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	body, err := s.cache.Get(ctx, cacheKey(authKey)).Result()
	if err != nil {
		return "", false
	}
	return body, true
}

func (s *ScriptService) cacheSet(ctx context.Context, authKey, body string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(authKey), body, s.cfg.Security.ScriptCacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Msg("script cache set failed")
	}
}

func (s *ScriptService) invalidateCache(ctx context.Context, authKey string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(authKey)).Err(); err != nil {
		s.log.Debug().Err(err).Msg("script cache invalidation failed")
	}
}
