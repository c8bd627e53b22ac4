package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PublicPrefix is the URL path the local upload directory is served under.
const PublicPrefix = "/uploads/"

type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return PublicPrefix + filepath.Base(name), nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, PublicPrefix) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(ref)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
