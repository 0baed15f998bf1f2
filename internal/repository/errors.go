package repository

import "errors"

// ErrNotFound indicates the target record does not exist.
var ErrNotFound = errors.New("repository: record not found")

// ErrDuplicateID indicates an insert collided with an existing primary key.
// With 5 random bytes of id space this is overwhelmingly unlikely, but the
// store is the collision detector of record, so the case gets its own error.
var ErrDuplicateID = errors.New("repository: duplicate file id")
