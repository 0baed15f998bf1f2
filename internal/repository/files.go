package repository

import (
	"context"
	"time"
)

// FileRecord is the metadata row for one stored file. DeclaredSize is the
// byte count the client committed to at registration and never changes.
// UploadedAt is nil while the file is still incomplete; once set the record
// is immutable apart from deletion.
type FileRecord struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DeclaredSize int64      `json:"size"`
	UploadedAt   *time.Time `json:"uploaded_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Uploaded reports whether the record has passed its completion transition.
func (r *FileRecord) Uploaded() bool {
	return r != nil && r.UploadedAt != nil
}

// ListFilesParams pages through file records.
type ListFilesParams struct {
	Limit  int
	Offset int
}

// FileRepository is the persistence boundary for file metadata. Mutations
// are typed per field on purpose: there is no generic partial update.
type FileRepository interface {
	Create(ctx context.Context, record *FileRecord) (*FileRecord, error)
	GetByID(ctx context.Context, id string) (*FileRecord, error)
	List(ctx context.Context, params ListFilesParams) ([]FileRecord, error)
	UpdateName(ctx context.Context, id string, name string) (*FileRecord, error)
	MarkUploaded(ctx context.Context, id string, at time.Time) (*FileRecord, error)
	Delete(ctx context.Context, id string) error
}
