package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process ObjectStore for local development and
// tests. It mirrors the remote store's contract: overwrite-on-put, no
// delete, listing sorted by key.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	body       []byte
	uploadedAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(body))
	copy(stored, body)
	s.objects[key] = memoryObject{body: stored, uploadedAt: time.Now().UTC()}

	return s.objectURL(key), nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ObjectInfo
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, ObjectInfo{
			Key:        key,
			URL:        s.objectURL(key),
			Size:       int64(len(obj.body)),
			UploadedAt: obj.uploadedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("get object %s: no such key", key)
	}

	body := make([]byte, len(obj.body))
	copy(body, obj.body)
	return body, nil
}

func (s *MemoryStore) objectURL(key string) string {
	return "memory://" + key
}
