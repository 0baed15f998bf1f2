package service

import "errors"

// Stable error kinds surfaced to the request boundary. The API layer maps
// these to HTTP statuses with errors.Is; anything unrecognized is a server
// error.
var (
	// ErrNotFound: no metadata record exists for the id.
	ErrNotFound = errors.New("file not found")

	// ErrAlreadyUploaded: the record is complete; re-upload is rejected,
	// never restarted.
	ErrAlreadyUploaded = errors.New("file is already uploaded")

	// ErrNotUploaded: download requested before the completion transition.
	ErrNotUploaded = errors.New("file is not uploaded yet")

	// ErrTooLarge: declared size exceeds the configured ceiling.
	ErrTooLarge = errors.New("declared size exceeds maximum file size")

	// ErrInsufficientSpace: declared size exceeds free space minus the
	// reserved margin.
	ErrInsufficientSpace = errors.New("not enough free storage space")

	// ErrStreamOverflow: more bytes arrived than were declared.
	ErrStreamOverflow = errors.New("uploaded more bytes than declared")

	// ErrInvalidInput: a caller-supplied field failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
