package buffer

import "errors"

var (
	// ErrNoFreeFrame is returned by Fetch/NewPage when every frame is
	// pinned and no victim can be chosen. This is a capacity condition,
	// not a fatal error: callers act on it (e.g. a full pool blocks an
	// insert that would otherwise extend a heap).
	ErrNoFreeFrame = errors.New("buffer: no free frame to evict")

	// ErrPageNotResident is returned by Unpin/Flush when the requested
	// page is not currently cached in any frame.
	ErrPageNotResident = errors.New("buffer: page not resident")

	// ErrNotPinned is returned by Unpin when the page's pin count is
	// already zero; unpinning it further would be a caller bug.
	ErrNotPinned = errors.New("buffer: page is not pinned")

	// errGuardReleased is raised (as a panic, not an error value) when a
	// Guard's Release is called more than once.
	errGuardReleased = errors.New("buffer: guard already released")
)
