package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Backblaze/blazer/b2"

	"github.com/breeze-rmm/screengrab/internal/config"
)

// b2Sink stores captures in a Backblaze B2 bucket.
type b2Sink struct {
	bucket *b2.Bucket
}

func newB2Sink(ctx context.Context, cfg *config.Config) (*b2Sink, error) {
	if cfg.B2Bucket == "" {
		return nil, errors.New("b2_bucket is required")
	}
	if cfg.B2KeyID == "" || cfg.B2AppKey == "" {
		return nil, errors.New("b2_key_id and b2_app_key are required")
	}

	client, err := b2.NewClient(ctx, cfg.B2KeyID, cfg.B2AppKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, cfg.B2Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open b2 bucket: %w", err)
	}
	return &b2Sink{bucket: bucket}, nil
}

func (s *b2Sink) Name() string { return "b2" }

func (s *b2Sink) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	w := s.bucket.Object(key).NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("b2 upload failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("b2 upload failed: %w", err)
	}
	return nil
}

func (s *b2Sink) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	it := s.bucket.List(ctx, b2.ListPrefix(prefix))
	for it.Next() {
		obj := it.Object()
		o := Object{Key: obj.Name()}
		// Attrs costs an extra call per object; sizes are advisory here.
		if attrs, err := obj.Attrs(ctx); err == nil {
			o.Size = attrs.Size
			o.ModTime = attrs.UploadTimestamp
		}
		objects = append(objects, o)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("b2 list failed: %w", err)
	}
	return objects, nil
}

func (s *b2Sink) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("b2 delete failed: %w", err)
	}
	return nil
}

func (s *b2Sink) Close() error { return nil }
