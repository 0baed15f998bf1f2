package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"bytedrop/internal/fileid"
	"bytedrop/internal/repository"
	"bytedrop/internal/storage"
)

// FileService owns the file lifecycle: registration, resumable upload,
// retrieval and deletion. Blob bytes live in the blob store, metadata in
// the repository; the blob's length is always the ground truth for how
// many bytes have durably landed.
type FileService struct {
	repo      repository.FileRepository
	blobs     storage.BlobStore
	admission *AdmissionPolicy
	locks     *idLocks
	logger    *log.Logger
}

func NewFileService(repo repository.FileRepository, blobs storage.BlobStore, admission *AdmissionPolicy, logger *log.Logger) *FileService {
	return &FileService{
		repo:      repo,
		blobs:     blobs,
		admission: admission,
		locks:     newIDLocks(),
		logger:    logger,
	}
}

// FileView is the externally visible shape of a file. UploadedSize is the
// byte count durably on disk, not necessarily the declared size.
type FileView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Size         int64      `json:"size"`
	UploadedSize int64      `json:"uploadedSize"`
	UploadedAt   *time.Time `json:"uploadedAt,omitempty"`
}

// Register admits the declared size, mints an id and creates the pending
// metadata record. No blob exists yet; the client streams bytes separately.
func (s *FileService) Register(ctx context.Context, name string, declaredSize int64) (*FileView, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("file service not initialized")
	}

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if declaredSize < 0 {
		return nil, fmt.Errorf("%w: size must not be negative", ErrInvalidInput)
	}

	if err := s.admission.Admit(declaredSize); err != nil {
		return nil, err
	}

	id, err := fileid.New()
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Create(ctx, &repository.FileRecord{
		ID:           id,
		Name:         name,
		DeclaredSize: declaredSize,
	})
	if err != nil {
		// A duplicate id surfaces as a store failure; callers retry with a
		// fresh registration.
		return nil, fmt.Errorf("create file record: %w", err)
	}

	return viewWithSize(record, 0), nil
}

// List returns views for all known files.
func (s *FileService) List(ctx context.Context, params repository.ListFilesParams) ([]FileView, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("file service not initialized")
	}

	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}

	views := make([]FileView, 0, len(records))
	for i := range records {
		view, err := s.view(ctx, &records[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// Get returns the view for a single file.
func (s *FileService) Get(ctx context.Context, id string) (*FileView, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, record)
}

// Rename updates the display name. The name is never used as a storage
// key, so the blob is untouched.
func (s *FileService) Rename(ctx context.Context, id string, name string) (*FileView, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	record, err := s.repo.UpdateName(ctx, id, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update file name: %w", err)
	}
	return s.view(ctx, record)
}

// Download returns the record view and a reader over the complete blob.
// Incomplete files are not served.
func (s *FileService) Download(ctx context.Context, id string) (*FileView, io.ReadCloser, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !record.Uploaded() {
		return nil, nil, ErrNotUploaded
	}

	content, err := s.blobs.Open(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("open blob for %s: %w", id, err)
	}

	return viewWithSize(record, record.DeclaredSize), content, nil
}

// Delete removes the blob first and the metadata record second, so a crash
// in between leaves an orphaned record rather than an unowned blob. A blob
// that is already gone does not fail the delete.
func (s *FileService) Delete(ctx context.Context, id string) error {
	if s == nil || s.repo == nil {
		return errors.New("file service not initialized")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.getRecord(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove blob for %s: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}

func (s *FileService) getRecord(ctx context.Context, id string) (*repository.FileRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load file record: %w", err)
	}
	return record, nil
}

// view derives the uploaded size: the declared size for complete records,
// a blob stat for pending ones.
func (s *FileService) view(ctx context.Context, record *repository.FileRecord) (*FileView, error) {
	if record.Uploaded() {
		return viewWithSize(record, record.DeclaredSize), nil
	}

	size, err := s.blobs.Size(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("stat blob for %s: %w", record.ID, err)
	}
	return viewWithSize(record, size), nil
}

func viewWithSize(record *repository.FileRecord, uploadedSize int64) *FileView {
	return &FileView{
		ID:           record.ID,
		Name:         record.Name,
		Size:         record.DeclaredSize,
		UploadedSize: uploadedSize,
		UploadedAt:   record.UploadedAt,
	}
}
