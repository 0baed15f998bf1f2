package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bytedrop/internal/storage"

	"golang.org/x/sys/unix"
)

// Store keeps one flat file per id directly under BaseDir.
type Store struct {
	BaseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

// Path resolves the on-disk location for id after validating it cannot
// escape the base directory.
func (s *Store) Path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", storage.ErrInvalidID
	}
	return filepath.Join(s.BaseDir, id), nil
}

// Size reports the blob length for id; a missing blob counts as zero bytes.
func (s *Store) Size(ctx context.Context, id string) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	path, err := s.Path(id)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat blob: %w", err)
	}
	return info.Size(), nil
}

// OpenAppend opens (creating if needed) the blob in append mode.
func (s *Store) OpenAppend(ctx context.Context, id string) (storage.BlobWriter, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open blob for append: %w", err)
	}
	return file, nil
}

// Open returns the blob content for download.
func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrBlobNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return file, nil
}

// Remove deletes the blob. Already-absent is success: the net state is the
// same as having deleted it.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	path, err := s.Path(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// FreeSpace queries the filesystem holding BaseDir for available bytes.
func (s *Store) FreeSpace() (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(s.BaseDir, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", s.BaseDir, err)
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
