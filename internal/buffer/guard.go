package buffer

import (
	"github.com/tuannm99/novasql/internal/storage"
)

// Guard is a scoped acquisition of a pinned frame. It records the page id
// and a pointer to the frame's bytes on creation; Release propagates one
// unpin, ORing in any dirty flag the holder set via MarkDirty. Guards are
// meant to be used once and released exactly once, conventionally via
// `defer g.Release()`; no reference into the frame's bytes may outlive it.
type Guard struct {
	pool     *Pool
	pageID   storage.PageID
	buf      *storage.PageBuf
	dirty    bool
	released bool
}

func newGuard(pool *Pool, id storage.PageID, buf *storage.PageBuf) *Guard {
	return &Guard{pool: pool, pageID: id, buf: buf}
}

// PageID returns the id of the page this guard holds.
func (g *Guard) PageID() storage.PageID { return g.pageID }

// Bytes returns the guarded page's bytes. The slice is only valid until
// Release is called.
func (g *Guard) Bytes() *storage.PageBuf { return g.buf }

// MarkDirty records that the holder mutated the page's bytes; the dirty
// flag is propagated to the frame when the guard is released.
func (g *Guard) MarkDirty() { g.dirty = true }

// Release unpins the underlying frame, propagating the dirty flag. Calling
// Release more than once on the same guard is a programming error and
// panics, mirroring the move-only discipline of the source guard type
// (a moved-from guard cannot be released twice).
func (g *Guard) Release() error {
	if g.released {
		panic(errGuardReleased)
	}
	g.released = true
	return g.pool.Unpin(g.pageID, g.dirty)
}
