package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// FileStore keeps the cart snapshot in a single JSON file, for deployments
// without Redis. Writes go through a temp file and rename so a crash mid-write
// leaves the previous snapshot intact instead of a truncated one.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshot store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load restores the cart snapshot from disk.
func (s *FileStore) Load(_ context.Context) (domain.LocalCart, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("cart snapshot", s.path)
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return decode(data)
}

// Save overwrites the cart snapshot on disk.
func (s *FileStore) Save(_ context.Context, cart domain.LocalCart) error {
	data, err := encode(cart)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

// Clear removes the cart snapshot from disk. A missing file is not an error.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
