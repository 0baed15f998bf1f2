package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"bytedrop/internal/repository"
	"bytedrop/internal/storage/local"
)

// memRepo is an in-memory repository.FileRepository mirroring the Postgres
// implementation's semantics, including the one-way MarkUploaded guard.
type memRepo struct {
	mu          sync.Mutex
	records     map[string]*repository.FileRecord
	createErr   error
	markErrOnce error
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]*repository.FileRecord)}
}

func (m *memRepo) Create(ctx context.Context, record *repository.FileRecord) (*repository.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, exists := m.records[record.ID]; exists {
		return nil, repository.ErrDuplicateID
	}

	now := time.Now().UTC()
	stored := *record
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.records[record.ID] = &stored

	clone := stored
	return &clone, nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*repository.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *memRepo) List(ctx context.Context, params repository.ListFilesParams) ([]repository.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []repository.FileRecord
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (m *memRepo) UpdateName(ctx context.Context, id string, name string) (*repository.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec.Name = name
	rec.UpdatedAt = time.Now().UTC()
	clone := *rec
	return &clone, nil
}

func (m *memRepo) MarkUploaded(ctx context.Context, id string, at time.Time) (*repository.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.markErrOnce != nil {
		err := m.markErrOnce
		m.markErrOnce = nil
		return nil, err
	}

	rec, ok := m.records[id]
	if !ok || rec.UploadedAt != nil {
		return nil, repository.ErrNotFound
	}
	ts := at.UTC()
	rec.UploadedAt = &ts
	rec.UpdatedAt = ts
	clone := *rec
	return &clone, nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// fixedFree reports a constant amount of free space.
type fixedFree struct {
	n   int64
	err error
}

func (f fixedFree) FreeSpace() (int64, error) { return f.n, f.err }

func newTestService(t *testing.T, repo repository.FileRepository, free fixedFree) (*FileService, *local.Store) {
	t.Helper()
	blobs := local.NewStore(t.TempDir())
	admission := NewAdmissionPolicy(1<<30, 100, free)
	return NewFileService(repo, blobs, admission, nil), blobs
}

func TestFileService_Register_CreatesPendingRecord(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(t, repo, fixedFree{n: 1 << 40})

	view, err := svc.Register(context.Background(), "a.txt", 10)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if view.ID == "" {
		t.Fatal("expected a generated id")
	}
	if view.Size != 10 || view.UploadedSize != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.UploadedAt != nil {
		t.Fatal("fresh record must be pending")
	}
	if _, err := repo.GetByID(context.Background(), view.ID); err != nil {
		t.Fatalf("record was not persisted: %v", err)
	}
}

func TestFileService_Register_Validation(t *testing.T) {
	svc, _ := newTestService(t, newMemRepo(), fixedFree{n: 1 << 40})

	if _, err := svc.Register(context.Background(), "", 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "a", -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative size, got %v", err)
	}
}

func TestFileService_Register_DuplicateIDSurfacesStoreFailure(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = repository.ErrDuplicateID
	svc, _ := newTestService(t, repo, fixedFree{n: 1 << 40})

	_, err := svc.Register(context.Background(), "a.txt", 10)
	if !errors.Is(err, repository.ErrDuplicateID) {
		t.Fatalf("expected duplicate-id store failure, got %v", err)
	}
}

func TestAdmissionPolicy_Boundary(t *testing.T) {
	// 1000 bytes free, 100 reserved: exactly 900 is admitted, 901 is not.
	policy := NewAdmissionPolicy(1<<30, 100, fixedFree{n: 1000})

	if err := policy.Admit(900); err != nil {
		t.Fatalf("size equal to headroom must be admitted, got %v", err)
	}
	if err := policy.Admit(901); !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("expected ErrInsufficientSpace, got %v", err)
	}
}

func TestAdmissionPolicy_MaxFileSize(t *testing.T) {
	policy := NewAdmissionPolicy(50, 0, fixedFree{n: 1 << 40})

	if err := policy.Admit(50); err != nil {
		t.Fatalf("size at the ceiling must be admitted, got %v", err)
	}
	if err := policy.Admit(51); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestFileService_Rename_UpdatesNameOnly(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(t, repo, fixedFree{n: 1 << 40})

	view, err := svc.Register(context.Background(), "old.txt", 4)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	renamed, err := svc.Rename(context.Background(), view.ID, "new.txt")
	if err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	if renamed.Name != "new.txt" {
		t.Fatalf("expected renamed view, got %+v", renamed)
	}
	if renamed.Size != 4 {
		t.Fatal("declared size must not change on rename")
	}
}

func TestFileService_Rename_NotFound(t *testing.T) {
	svc, _ := newTestService(t, newMemRepo(), fixedFree{n: 1 << 40})

	if _, err := svc.Rename(context.Background(), "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileService_Download_RejectsPendingFile(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(t, repo, fixedFree{n: 1 << 40})

	view, err := svc.Register(context.Background(), "a.txt", 10)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Download(context.Background(), view.ID); !errors.Is(err, ErrNotUploaded) {
		t.Fatalf("expected ErrNotUploaded, got %v", err)
	}
}

func TestFileService_Download_StreamsCompleteBlob(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(t, repo, fixedFree{n: 1 << 40})

	payload := []byte("0123456789")
	view := mustUpload(t, svc, "a.txt", payload)

	got, content, err := svc.Download(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	defer content.Close()

	body, err := io.ReadAll(content)
	if err != nil {
		t.Fatalf("read download stream: %v", err)
	}
	if string(body) != string(payload) {
		t.Fatalf("expected %q, got %q", payload, body)
	}
	if got.UploadedSize != int64(len(payload)) {
		t.Fatalf("unexpected uploaded size %d", got.UploadedSize)
	}
}

func TestFileService_Delete_RemovesBlobAndRecord(t *testing.T) {
	repo := newMemRepo()
	svc, blobs := newTestService(t, repo, fixedFree{n: 1 << 40})

	view := mustUpload(t, svc, "a.txt", []byte("data"))

	if err := svc.Delete(context.Background(), view.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), view.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("record should be gone")
	}
	size, err := blobs.Size(context.Background(), view.ID)
	if err != nil || size != 0 {
		t.Fatalf("blob should be gone, got size=%d err=%v", size, err)
	}
}

func TestFileService_Delete_IdempotentOnMissingBlob(t *testing.T) {
	repo := newMemRepo()
	svc, blobs := newTestService(t, repo, fixedFree{n: 1 << 40})

	view := mustUpload(t, svc, "a.txt", []byte("data"))

	// The blob disappears out-of-band; delete must still succeed.
	if err := blobs.Remove(context.Background(), view.ID); err != nil {
		t.Fatalf("out-of-band remove: %v", err)
	}
	if err := svc.Delete(context.Background(), view.ID); err != nil {
		t.Fatalf("Delete should tolerate a missing blob, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), view.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("record should be gone")
	}
}

func TestFileService_Delete_NotFound(t *testing.T) {
	svc, _ := newTestService(t, newMemRepo(), fixedFree{n: 1 << 40})

	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIDLocks_SerializesSameID(t *testing.T) {
	locks := newIDLocks()

	unlock := locks.Lock("a")

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock("a")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the lock while the first still held it")
	case <-time.After(20 * time.Millisecond):
	}

	// A different id must not contend.
	otherUnlock := locks.Lock("b")
	otherUnlock()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second holder never acquired the lock")
	}
}
