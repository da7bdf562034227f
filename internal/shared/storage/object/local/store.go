package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"resume-ingest/internal/shared/storage/object"
)

// Store implements object.Store on the local filesystem. Buckets are
// directories under baseDir.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, bucket, key string) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}

	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return object.Object{}, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return object.Object{}, fmt.Errorf("local open bucket=%s key=%s: %w", bucket, key, object.ErrNotFound)
		}
		return object.Object{}, fmt.Errorf("local open bucket=%s key=%s: %w", bucket, key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return object.Object{}, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return object.Object{}, fmt.Errorf("local open bucket=%s key=%s: %w", bucket, key, object.ErrNotFound)
	}

	return object.Object{
		Body:        f,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(key))),
		Size:        info.Size(),
	}, nil
}

// Put writes r to bucket/key, creating directories as needed.
func (s *Store) Put(ctx context.Context, bucket, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	return written, nil
}

func (s *Store) resolve(bucket, key string) (string, error) {
	cleanBucket := filepath.Clean(strings.TrimSpace(bucket))
	cleanKey := filepath.Clean(strings.TrimLeft(key, "/"))
	for _, part := range []string{cleanBucket, cleanKey} {
		if part == "." || strings.HasPrefix(part, "..") || filepath.IsAbs(part) {
			return "", fmt.Errorf("invalid storage key")
		}
	}
	if strings.ContainsRune(cleanBucket, filepath.Separator) {
		return "", fmt.Errorf("invalid bucket")
	}
	return filepath.Join(s.baseDir, cleanBucket, cleanKey), nil
}

var _ object.Store = (*Store)(nil)
