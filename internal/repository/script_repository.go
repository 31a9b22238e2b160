package repository

import (
	"context"
	"fmt"
	"strings"

	"scriptvault/api/internal/apperr"
	"scriptvault/api/internal/models"
	"scriptvault/api/internal/storage"
)

const (
	scriptsPrefix  = "scripts/"
	metadataPrefix = "metadata/"

	scriptContentType = "text/x-lua"
)

// ScriptRepository stores script bodies and their metadata sidecars under
// parallel namespaces keyed by auth_key. Bodies are opaque text, written
// first; the sidecar follows and may be transiently or permanently absent.
type ScriptRepository struct {
	records *storage.RecordStore
}

func NewScriptRepository(records *storage.RecordStore) *ScriptRepository {
	return &ScriptRepository{records: records}
}

func scriptKey(authKey string) string {
	return fmt.Sprintf("%s%s.lua", scriptsPrefix, authKey)
}

func metadataKey(authKey string) string {
	return fmt.Sprintf("%s%s.json", metadataPrefix, authKey)
}

// PutBody overwrites the script body, returning the blob URL. Re-uploads
// replace the previous body; there is no versioning.
func (r *ScriptRepository) PutBody(ctx context.Context, authKey string, body []byte) (string, error) {
	return r.records.PutRaw(ctx, scriptKey(authKey), body, scriptContentType)
}

func (r *ScriptRepository) PutMeta(ctx context.Context, meta models.ScriptMeta) error {
	_, err := r.records.Write(ctx, metadataKey(meta.AuthKey), meta)
	return err
}

// FetchBody lists the scripts namespace and fetches the exact pathname
// match, per the capability-token retrieval contract.
func (r *ScriptRepository) FetchBody(ctx context.Context, authKey string) ([]byte, error) {
	want := scriptKey(authKey)

	infos, err := r.records.List(ctx, want)
	if err != nil {
		return nil, err
	}

	for _, info := range infos {
		if info.Key == want {
			return r.records.GetRaw(ctx, info.Key)
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "unknown auth key")
}

// GetMeta returns the sidecar, or nil when it is absent. Absence is a
// normal condition, not an error.
func (r *ScriptRepository) GetMeta(ctx context.Context, authKey string) (*models.ScriptMeta, error) {
	var meta models.ScriptMeta
	err := r.records.ReadFirst(ctx, metadataKey(authKey), &meta)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meta, nil
}

// List enumerates stored scripts, joining each entry with its metadata
// sidecar best-effort.
func (r *ScriptRepository) List(ctx context.Context) ([]models.ScriptListing, error) {
	infos, err := r.records.List(ctx, scriptsPrefix)
	if err != nil {
		return nil, err
	}

	listings := make([]models.ScriptListing, 0, len(infos))
	for _, info := range infos {
		authKey := strings.TrimSuffix(strings.TrimPrefix(info.Key, scriptsPrefix), ".lua")

		meta, err := r.GetMeta(ctx, authKey)
		if err != nil {
			// A failing sidecar read degrades the listing, it does
			// not fail it.
			meta = nil
		}

		listings = append(listings, models.ScriptListing{
			AuthKey:    authKey,
			Size:       info.Size,
			UploadedAt: info.UploadedAt,
			URL:        info.URL,
			Metadata:   meta,
		})
	}
	return listings, nil
}
