package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bytedrop/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// NewFileRepository returns the Postgres-backed implementation over *sql.DB.
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// FileRepository implements repository.FileRepository.
type FileRepository struct {
	db *sql.DB
}

var fileSelectColumns = []string{
	"id",
	"name",
	"declared_size",
	"uploaded_at",
	"created_at",
	"updated_at",
}

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Create inserts a file record and returns the database-populated row.
// A primary-key collision surfaces as repository.ErrDuplicateID.
func (r *FileRepository) Create(ctx context.Context, record *repository.FileRecord) (*repository.FileRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("file record is nil")
	}

	query := fmt.Sprintf(`INSERT INTO files (id, name, declared_size)
	VALUES ($1, $2, $3)
	RETURNING %s`, strings.Join(fileSelectColumns, ","))

	row := r.db.QueryRowContext(ctx, query, record.ID, record.Name, record.DeclaredSize)

	created, err := scanFileRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrDuplicateID
		}
		return nil, err
	}
	return created, nil
}

// GetByID fetches a file record by primary key.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*repository.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, strings.Join(fileSelectColumns, ","))
	row := r.db.QueryRowContext(ctx, query, id)
	file, err := scanFileRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

// List returns records newest-first with optional paging.
func (r *FileRepository) List(ctx context.Context, params repository.ListFilesParams) ([]repository.FileRecord, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	args := []any{limit}
	tail := "ORDER BY created_at DESC LIMIT $1"

	if params.Offset > 0 {
		args = append(args, params.Offset)
		tail += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	query := fmt.Sprintf(`SELECT %s FROM files %s`, strings.Join(fileSelectColumns, ","), tail)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []repository.FileRecord
	for rows.Next() {
		rec, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateName changes the display name only.
func (r *FileRepository) UpdateName(ctx context.Context, id string, name string) (*repository.FileRecord, error) {
	query := fmt.Sprintf(`UPDATE files SET name = $1, updated_at = $2 WHERE id = $3
	RETURNING %s`, strings.Join(fileSelectColumns, ","))

	row := r.db.QueryRowContext(ctx, query, name, time.Now().UTC(), id)
	rec, err := scanFileRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// MarkUploaded performs the single completion transition. The guard on
// uploaded_at keeps the transition one-way even under concurrent callers.
func (r *FileRepository) MarkUploaded(ctx context.Context, id string, at time.Time) (*repository.FileRecord, error) {
	query := fmt.Sprintf(`UPDATE files SET uploaded_at = $1, updated_at = $1
	WHERE id = $2 AND uploaded_at IS NULL
	RETURNING %s`, strings.Join(fileSelectColumns, ","))

	row := r.db.QueryRowContext(ctx, query, at.UTC(), id)
	rec, err := scanFileRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Delete removes the metadata record.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileRecord(rs rowScanner) (*repository.FileRecord, error) {
	var (
		rec        repository.FileRecord
		uploadedAt sql.NullTime
	)

	if err := rs.Scan(
		&rec.ID,
		&rec.Name,
		&rec.DeclaredSize,
		&uploadedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if uploadedAt.Valid {
		rec.UploadedAt = &uploadedAt.Time
	}

	return &rec, nil
}
