package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalSink writes captures under a base directory on a local or
// mounted filesystem.
type LocalSink struct {
	BaseDir string
}

// NewLocalSink creates a LocalSink rooted at baseDir. An empty baseDir
// means the current directory.
func NewLocalSink(baseDir string) *LocalSink {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalSink{BaseDir: filepath.Clean(baseDir)}
}

func (s *LocalSink) Name() string { return "local" }

// Put writes r to BaseDir/key, creating intermediate directories.
func (s *LocalSink) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if key == "" {
		return fmt.Errorf("object key is required")
	}
	dest, err := containedPath(s.BaseDir, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write capture: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}
	return nil
}

// List walks BaseDir/prefix and returns the files beneath it, keyed
// relative to BaseDir with forward slashes.
func (s *LocalSink) List(_ context.Context, prefix string) ([]Object, error) {
	absBase, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	root := absBase
	if prefix != "" {
		root, err = containedPath(s.BaseDir, prefix)
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(root); err != nil {
		// A prefix with no captures yet is not an error.
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat prefix %s: %w", root, err)
	}

	var objects []Object
	walkErr := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(absBase, p)
		if err != nil {
			return err
		}
		objects = append(objects, Object{
			Key:     filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to list captures: %w", walkErr)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Delete removes BaseDir/key, pruning any directories the removal
// leaves empty. Deleting a missing key is not an error.
func (s *LocalSink) Delete(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("object key is required")
	}
	target, err := containedPath(s.BaseDir, key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete capture: %w", err)
	}
	s.cleanupEmptyDirs(filepath.Dir(target))
	return nil
}

func (s *LocalSink) Close() error { return nil }

func (s *LocalSink) cleanupEmptyDirs(startPath string) {
	base, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return
	}
	p := filepath.Clean(startPath)
	for p != base && p != "." && p != string(filepath.Separator) {
		entries, err := os.ReadDir(p)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(p); err != nil {
			return
		}
		p = filepath.Dir(p)
	}
}

// containedPath ensures that the resolved path stays within basePath.
// Returns the safe absolute path or an error if path traversal is detected.
func containedPath(basePath, untrustedPath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	joined := filepath.Join(absBase, filepath.FromSlash(untrustedPath))
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) && absJoined != absBase {
		return "", fmt.Errorf("path traversal detected: %q resolves outside base %q", untrustedPath, absBase)
	}
	return absJoined, nil
}
