package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes files below a directory on local disk.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "trade-docs-uploads")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Store(ctx context.Context, data []byte, p Policy) (string, error) {
	obj, err := p.Check(data)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dest := filepath.Join(s.dir, filepath.FromSlash(obj.Name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, obj.Data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", obj.Name, err)
	}
	return obj.Name, nil
}

// Exists reports whether ref names a regular file below the upload directory.
func (s *LocalStore) Exists(ctx context.Context, ref string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !filepath.IsLocal(filepath.FromSlash(ref)) {
		return false, nil
	}
	fi, err := os.Stat(s.Path(ref))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", ref, err)
	}
	return fi.Mode().IsRegular(), nil
}

// Path returns the on-disk location of ref.
func (s *LocalStore) Path(ref string) string {
	return filepath.Join(s.dir, filepath.FromSlash(ref))
}
