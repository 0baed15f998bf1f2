package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bytedrop/internal/repository"
	"bytedrop/internal/storage"
)

const appendChunkSize = 32 * 1024

// Upload consumes the inbound byte stream for id, appending to the blob
// from its current durable offset. The offset is derived by statting the
// blob, never from persisted counters, so a resume after a partial write
// or a process restart picks up exactly where the disk says it should.
//
// A failed attempt (overflow or transport error) is rolled back to the
// offset it started from; bytes that were durable before the attempt stay
// durable. When the total reaches the declared size the record is marked
// uploaded exactly once.
func (s *FileService) Upload(ctx context.Context, id string, body io.Reader) (*FileView, error) {
	if s == nil || s.repo == nil || s.blobs == nil {
		return nil, errors.New("file service not initialized")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	activeUploads.Inc()
	defer activeUploads.Dec()

	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.Uploaded() {
		return nil, ErrAlreadyUploaded
	}

	startOffset, err := s.blobs.Size(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("stat blob for %s: %w", id, err)
	}
	if startOffset > record.DeclaredSize {
		return nil, fmt.Errorf("blob for %s is %d bytes, longer than the declared %d", id, startOffset, record.DeclaredSize)
	}

	if startOffset == record.DeclaredSize {
		// All bytes already landed; a previous attempt crashed between the
		// final write and the completion flag. Finish the transition
		// without consuming the stream.
		return s.complete(ctx, record, startOffset)
	}

	writer, err := s.blobs.OpenAppend(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open blob for %s: %w", id, err)
	}

	total, err := s.consume(ctx, writer, record.DeclaredSize, startOffset, body)
	if err != nil {
		s.rollback(ctx, writer, id, startOffset)
		return nil, err
	}

	if err := writer.Sync(); err != nil {
		s.rollback(ctx, writer, id, startOffset)
		return nil, fmt.Errorf("sync blob for %s: %w", id, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close blob for %s: %w", id, err)
	}

	if total == record.DeclaredSize {
		return s.complete(ctx, record, total)
	}

	return viewWithSize(record, total), nil
}

// consume appends the stream chunk by chunk, stopping before any chunk
// that would push the total past the declared size.
func (s *FileService) consume(ctx context.Context, writer storage.BlobWriter, declaredSize, startOffset int64, body io.Reader) (int64, error) {
	total := startOffset
	buf := make([]byte, appendChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			uploadsDiscarded.WithLabelValues(discardReasonTransport).Inc()
			return total, fmt.Errorf("upload canceled: %w", err)
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if total+int64(n) > declaredSize {
				uploadsDiscarded.WithLabelValues(discardReasonOverflow).Inc()
				return total, ErrStreamOverflow
			}
			if _, err := writer.Write(buf[:n]); err != nil {
				uploadsDiscarded.WithLabelValues(discardReasonTransport).Inc()
				return total, fmt.Errorf("append to blob: %w", err)
			}
			total += int64(n)
			uploadBytesTotal.Add(float64(n))
		}

		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			uploadsDiscarded.WithLabelValues(discardReasonTransport).Inc()
			return total, fmt.Errorf("read upload stream: %w", readErr)
		}
	}
}

// rollback restores the blob to the offset the attempt started from. A
// rollback to zero removes the blob entirely. Best effort: the next upload
// call re-derives its offset from the disk regardless.
func (s *FileService) rollback(ctx context.Context, writer storage.BlobWriter, id string, startOffset int64) {
	cleanupCtx := context.WithoutCancel(ctx)

	if err := writer.Truncate(startOffset); err != nil && s.logger != nil {
		s.logger.Printf("truncate blob %s to %d: %v", id, startOffset, err)
	}
	if err := writer.Close(); err != nil && s.logger != nil {
		s.logger.Printf("close blob %s after rollback: %v", id, err)
	}

	if startOffset == 0 {
		if err := s.blobs.Remove(cleanupCtx, id); err != nil && s.logger != nil {
			s.logger.Printf("remove blob %s after rollback: %v", id, err)
		}
	}
}

// complete flips the record to uploaded. The blob already holds the full
// declared size when this runs.
func (s *FileService) complete(ctx context.Context, record *repository.FileRecord, total int64) (*FileView, error) {
	updated, err := s.repo.MarkUploaded(ctx, record.ID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		// The bytes are durable; the client re-issues the call and the
		// zero-remaining path finishes the transition.
		return nil, fmt.Errorf("mark file %s uploaded: %w", record.ID, err)
	}

	uploadsCompleted.Inc()
	if s.logger != nil {
		s.logger.Printf("file %s uploaded (%d bytes)", record.ID, total)
	}
	return viewWithSize(updated, total), nil
}
