package storage

import "errors"

var (
	// ErrClosed is returned by any operation on a disk manager whose file
	// has already been closed.
	ErrClosed = errors.New("storage: disk manager closed")

	// ErrInvalidPageID is returned when a caller passes InvalidPageID or a
	// negative page id to a read/write operation.
	ErrInvalidPageID = errors.New("storage: invalid page id")
)
