// Package file stores key-value slots as files in a directory. Each Save
// replaces the file atomically, so a crash never leaves a partial record.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/promo-storefront/internal/cart"
)

const ext = ".json"

// Store keeps one file per key under Dir.
type Store struct {
	dir string
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "create storage dir")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", errors.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key+ext), nil
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, cart.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	return data, nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*")
	if err != nil {
		return errors.Wrap(err, "create temp")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	if err := os.Rename(tmpName, p); err != nil {
		return errors.Wrap(err, "rename")
	}
	return nil
}

// Ping checks that the directory is still accessible.
func (s *Store) Ping(context.Context) error {
	st, err := os.Stat(s.dir)
	if err != nil {
		return errors.Wrap(err, "stat")
	}
	if !st.IsDir() {
		return errors.Errorf("%s is not a directory", s.dir)
	}
	return nil
}
