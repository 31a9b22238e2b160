package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"scriptvault/api/internal/apperr"
)

const (
	jsonContentType = "application/json"

	defaultCallTimeout = 10 * time.Second
	retryBackoff       = 250 * time.Millisecond
)

// RecordStore is the record layer over the object store: JSON records
// addressed by key, existence and first-match reads by prefix. It bounds
// every remote call with a timeout and retries a failed call exactly once.
//
// The store has no compare-and-swap, so any check-then-write sequence
// built on Exists/ReadFirst followed by Write has a race window in which
// a concurrent writer can slip in; the last write wins silently. Callers
// own that hazard.
type RecordStore struct {
	store   ObjectStore
	timeout time.Duration
	log     zerolog.Logger
}

func NewRecordStore(store ObjectStore, timeout time.Duration, log zerolog.Logger) *RecordStore {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &RecordStore{store: store, timeout: timeout, log: log}
}

// Exists reports whether any object lives under the prefix.
func (r *RecordStore) Exists(ctx context.Context, prefix string) (bool, error) {
	infos, err := r.list(ctx, prefix)
	if err != nil {
		return false, err
	}
	return len(infos) > 0, nil
}

// ReadFirst lists the prefix, fetches the first match and decodes it into
// out. Returns a not-found error when nothing lives under the prefix.
func (r *RecordStore) ReadFirst(ctx context.Context, prefix string, out any) error {
	infos, err := r.list(ctx, prefix)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return apperr.New(apperr.KindNotFound, fmt.Sprintf("no record under %s", prefix))
	}
	return r.ReadKey(ctx, infos[0].Key, out)
}

// ReadKey fetches an exact key and decodes it into out.
func (r *RecordStore) ReadKey(ctx context.Context, key string, out any) error {
	body, err := r.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Wrap(apperr.KindInternal, "corrupt record", fmt.Errorf("decode %s: %w", key, err))
	}
	return nil
}

// Write marshals the record and overwrites the key unconditionally.
// Concurrent writers to the same key interleave with last-write-wins.
func (r *RecordStore) Write(ctx context.Context, key string, rec any) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "encode record", fmt.Errorf("encode %s: %w", key, err))
	}
	return r.PutRaw(ctx, key, body, jsonContentType)
}

// PutRaw stores opaque bytes under the key, returning the blob URL.
func (r *RecordStore) PutRaw(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	var url string
	err := r.withRetry(ctx, "put "+key, func(callCtx context.Context) error {
		var putErr error
		url, putErr = r.store.Put(callCtx, key, body, contentType)
		return putErr
	})
	return url, err
}

// GetRaw fetches opaque bytes by exact key.
func (r *RecordStore) GetRaw(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := r.withRetry(ctx, "get "+key, func(callCtx context.Context) error {
		var getErr error
		body, getErr = r.store.Get(callCtx, key)
		return getErr
	})
	return body, err
}

// List returns the object infos under the prefix.
func (r *RecordStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return r.list(ctx, prefix)
}

func (r *RecordStore) list(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var infos []ObjectInfo
	err := r.withRetry(ctx, "list "+prefix, func(callCtx context.Context) error {
		var listErr error
		infos, listErr = r.store.List(callCtx, prefix)
		return listErr
	})
	return infos, err
}

// withRetry runs the call under the per-call timeout and retries once on
// failure. A canceled parent context stops the retry. Failures surface as
// storage-unavailable without leaking store internals to the wire.
func (r *RecordStore) withRetry(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperr.Wrap(apperr.KindStorageUnavailable, "storage unavailable", ctx.Err())
			case <-time.After(retryBackoff):
			}
			r.log.Warn().Str("op", op).Err(lastErr).Msg("retrying storage call")
		}

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := call(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return apperr.Wrap(apperr.KindStorageUnavailable, "storage unavailable", err)
		}
		lastErr = err
	}

	r.log.Error().Str("op", op).Err(lastErr).Msg("storage call failed")
	return apperr.Wrap(apperr.KindStorageUnavailable, "storage unavailable", lastErr)
}
