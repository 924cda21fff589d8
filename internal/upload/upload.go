// Package upload stores encoded captures in a local directory or an
// object store (S3, Azure Blob, GCS, Backblaze B2).
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/breeze-rmm/screengrab/internal/config"
)

// Object describes a stored capture.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Sink is a capture store. Implementations stream writes where the
// backing SDK allows it, so callers should prefer Put over buffering
// whole files themselves.
type Sink interface {
	// Put stores the contents of r under key. size may be -1 when the
	// length is not known up front; contentType is advisory and sinks
	// without metadata support ignore it.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// List returns the objects under prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	Name() string

	// Close releases any client resources. Sinks are safe to Close once.
	Close() error
}

// PutBytes stores an in-memory capture through s.
func PutBytes(ctx context.Context, s Sink, key string, data []byte, contentType string) error {
	return s.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

// NewSink builds the sink selected by cfg.UploadProvider. Cloud sinks
// authenticate at construction so a bad credential fails fast rather
// than on the first capture.
func NewSink(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.UploadProvider {
	case "", "local":
		return NewLocalSink(cfg.OutputDir), nil
	case "s3":
		return newS3Sink(ctx, cfg)
	case "azure":
		return newAzureSink(cfg)
	case "gcs":
		return newGCSSink(ctx, cfg)
	case "b2":
		return newB2Sink(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.UploadProvider)
	}
}

// Key returns the object key for a capture:
//
//	<prefix>/<host>/<yyyy/mm/dd>/<name>-<stamp>.jpg
//
// Slash-separated regardless of platform; object stores and the local
// sink both expect forward slashes. Keys sort lexically in capture
// order, which is what retention sweeps rely on.
func Key(prefix, host, name string, now time.Time) string {
	stamp := now.UTC().Format("20060102-150405")
	day := now.UTC().Format("2006/01/02")
	return path.Join(prefix, host, day, name+"-"+stamp+".jpg")
}
