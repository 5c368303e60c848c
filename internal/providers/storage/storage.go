// Package storage persists payment-proof artifacts. The workflow core only
// ever stores the returned reference, never binary content.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/pelletworks/pelletport/internal/config"
)

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

var ErrUnsupportedContentType = errors.New("unsupported_content_type")

// ProofStore writes an uploaded evidence object and returns the reference
// the payment row will carry.
type ProofStore interface {
	Save(ctx context.Context, key string, contentType string, r io.Reader) (string, error)
}

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger
}

// New picks GCS when a bucket is configured, local disk otherwise.
func New(p Params) (ProofStore, error) {
	if bucket := strings.TrimSpace(p.Cfg.StorageBucket); bucket != "" {
		return newGCSStore(p, bucket)
	}
	return newDiskStore(p.Cfg.StorageDir, p.Log)
}

type gcsStore struct {
	client *gcs.Client
	bucket string
	log    *zap.Logger
}

func newGCSStore(p Params, bucket string) (ProofStore, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credJSON := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_JSON")); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &gcsStore{
		client: client,
		bucket: bucket,
		log:    p.Log.Named("storage.gcs"),
	}, nil
}

func (s *gcsStore) Save(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	if !allowedContentTypes[contentType] {
		return "", ErrUnsupportedContentType
	}

	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

type diskStore struct {
	dir string
	log *zap.Logger
}

func newDiskStore(dir string, log *zap.Logger) (ProofStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &diskStore{dir: dir, log: log.Named("storage.disk")}, nil
}

func (s *diskStore) Save(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	if !allowedContentTypes[contentType] {
		return "", ErrUnsupportedContentType
	}

	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return "file://" + path, nil
}
