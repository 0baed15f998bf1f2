package storage

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound indicates no blob exists for the requested id.
var ErrBlobNotFound = errors.New("storage: blob not found")

// ErrInvalidID indicates an id that cannot be mapped to a storage path.
var ErrInvalidID = errors.New("storage: invalid blob id")

// BlobWriter is an open, append-positioned handle on one blob.
// *os.File satisfies it.
type BlobWriter interface {
	io.WriteCloser
	Truncate(size int64) error
	Sync() error
}

// BlobStore is the upload engine's view of on-disk storage. One blob per
// file id; the blob's byte length is the authoritative durable offset.
type BlobStore interface {
	// Size reports the blob's current length. A missing blob is length 0,
	// not an error: "no bytes landed yet" and "no blob" are the same state.
	Size(ctx context.Context, id string) (int64, error)
	// OpenAppend opens the blob for appending, creating it when absent.
	OpenAppend(ctx context.Context, id string) (BlobWriter, error)
	// Open returns the blob's content for reading.
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	// Remove deletes the blob. An already-absent blob is success.
	Remove(ctx context.Context, id string) error
}

// FreeSpacer reports the bytes still available to the storage root.
type FreeSpacer interface {
	FreeSpace() (int64, error)
}
