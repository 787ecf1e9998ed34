package mapstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// FSStore stores map images as files in a single directory.
// This is the default backend; the directory lives under the map cache
// path from configuration and survives restarts.
type FSStore struct {
	dir string
}

// NewFSStore creates the directory if needed and returns a store over it.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mapstore.NewFSStore: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Put writes data to a temp file and renames it into place, so concurrent
// writers of the same ref never expose a half-written image.
func (s *FSStore) Put(_ context.Context, ref string, data []byte) error {
	if err := validRef(ref); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ref+".tmp-*")
	if err != nil {
		return fmt.Errorf("mapstore.FSStore.Put: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("mapstore.FSStore.Put: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("mapstore.FSStore.Put: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, ref)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("mapstore.FSStore.Put: %w", err)
	}
	return nil
}

// Open returns a reader over the stored image file. A missing ref is
// domain.ErrMapUnavailable.
func (s *FSStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if err := validRef(ref); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("mapstore.FSStore.Open: %w: %s", domain.ErrMapUnavailable, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("mapstore.FSStore.Open: %w", err)
	}
	return f, nil
}

// Exists reports whether the image file is present.
func (s *FSStore) Exists(_ context.Context, ref string) (bool, error) {
	if err := validRef(ref); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, ref))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("mapstore.FSStore.Exists: %w", err)
}

// validRef rejects refs that could escape the store directory. Open is
// reachable from the image-serving HTTP handler, which passes through
// client-supplied filenames.
func validRef(ref string) error {
	if ref == "" || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return fmt.Errorf("mapstore: invalid ref %q", ref)
	}
	return nil
}
