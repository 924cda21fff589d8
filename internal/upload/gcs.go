package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/breeze-rmm/screengrab/internal/config"
)

// gcsSink stores captures in a Google Cloud Storage bucket.
type gcsSink struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func newGCSSink(ctx context.Context, cfg *config.Config) (*gcsSink, error) {
	if cfg.GCSBucket == "" {
		return nil, errors.New("gcs_bucket is required")
	}

	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &gcsSink{
		client: client,
		bucket: client.Bucket(cfg.GCSBucket),
	}, nil
}

func (s *gcsSink) Name() string { return "gcs" }

func (s *gcsSink) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs upload failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs upload failed: %w", err)
	}
	return nil
}

func (s *gcsSink) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list failed: %w", err)
		}
		objects = append(objects, Object{
			Key:     attrs.Name,
			Size:    attrs.Size,
			ModTime: attrs.Updated,
		})
	}
	return objects, nil
}

func (s *gcsSink) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("gcs delete failed: %w", err)
	}
	return nil
}

func (s *gcsSink) Close() error { return s.client.Close() }
