package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/nuitsjp/teams-board/internal/storage"
)

const (
	writeTimeout = 2 * time.Minute
	readTimeout  = 30 * time.Second
)

// Store is the production ObjectStore backed by a Google Cloud Storage
// bucket.
type Store struct {
	client *gcstorage.Client
	bucket string
}

// New opens a GCS-backed store for the given bucket.
func New(ctx context.Context, bucket string, opts ...option.ClientOption) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket name required")
	}
	opts = append(opts, option.WithScopes(gcstorage.ScopeReadWrite))
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// Write puts one object. GCS object writes are atomic per object, which is
// all the sequencer relies on.
func (s *Store) Write(ctx context.Context, path string, content []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs: writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: closing writer for %s: %w", path, err)
	}
	return nil
}

// Read fetches one whole object.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("gcs: opening reader for %s: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: reading %s: %w", path, err)
	}
	return data, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
