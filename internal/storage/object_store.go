package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"scriptvault/api/internal/config"
)

// ObjectInfo describes one stored blob as reported by a prefix listing.
type ObjectInfo struct {
	Key        string
	URL        string
	Size       int64
	UploadedAt time.Time
}

// ObjectStore is the abstract blob service every higher layer talks to:
// unconditional put, prefix listing, and get by key. There is no delete
// and no atomicity between list and put.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// minioAPI narrows *minio.Client to what MinioStore uses, so tests can
// substitute a fake without a live server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return w.c.BucketExists(ctx, bucket)
}

func (w minioClientWrapper) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucket, opts)
}

func (w minioClientWrapper) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucket, key, reader, size, opts)
}

func (w minioClientWrapper) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return w.c.ListObjects(ctx, bucket, opts)
}

func (w minioClientWrapper) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// MinioStore backs ObjectStore with an S3-compatible bucket.
type MinioStore struct {
	api     minioAPI
	bucket  string
	baseURL string
}

func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return NewMinioStoreWithAPI(minioClientWrapper{c: client}, cfg), nil
}

// NewMinioStoreWithAPI injects a mockable API. Used by tests.
func NewMinioStoreWithAPI(api minioAPI, cfg config.StorageConfig) *MinioStore {
	return &MinioStore{
		api:     api,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
	}
}

func publicBaseURL(cfg config.StorageConfig) string {
	base := strings.TrimSuffix(cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		if cfg.UseSSL {
			base = "https://" + base
		} else {
			base = "http://" + base
		}
	}
	return fmt.Sprintf("%s/%s", base, cfg.Bucket)
}

// EnsureBucket creates the bucket when missing.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.api.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), opts); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.objectURL(key), nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range s.api.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, obj.Err)
		}
		out = append(out, ObjectInfo{
			Key:        obj.Key,
			URL:        s.objectURL(obj.Key),
			Size:       obj.Size,
			UploadedAt: obj.LastModified,
		})
	}
	return out, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return body, nil
}

func (s *MinioStore) objectURL(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}
