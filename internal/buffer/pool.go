// Package buffer implements a fixed-capacity frame cache (the buffer pool)
// over storage.DiskManager: pinning, clock-hand victim selection, dirty
// write-back, and scoped page guards.
package buffer

import (
	"log/slog"
	"sync"

	"github.com/tuannm99/novasql/internal/storage"
)

// Frame is an in-memory slot holding at most one page's bytes plus
// bookkeeping. A frame with Pin > 0 is never evicted; a frame with Dirty
// set must be written back before its page mapping is discarded.
type Frame struct {
	PageID storage.PageID
	Buf    storage.PageBuf
	Pin    int
	Dirty  bool
}

// Pool is a fixed-capacity buffer pool backed by a single disk manager.
type Pool struct {
	mu       sync.Mutex
	disk     *storage.DiskManager
	frames   []Frame
	pageTbl  map[storage.PageID]int // page id -> frame index
	freeList []int                  // unused frame indices
	hand     int                    // clock hand for victim selection
}

// NewPool constructs a pool with capacity frames, all initially free.
func NewPool(disk *storage.DiskManager, capacity int) *Pool {
	p := &Pool{
		disk:     disk,
		frames:   make([]Frame, capacity),
		pageTbl:  make(map[storage.PageID]int, capacity),
		freeList: make([]int, capacity),
	}
	for i := range p.freeList {
		p.freeList[i] = i
	}
	return p
}

// Fetch pins and returns the bytes of page id, reading it from disk if it
// is not already resident. The returned pointer is valid only while the
// pin is held; callers must call Unpin exactly once per Fetch.
func (p *Pool) Fetch(id storage.PageID) (*storage.PageBuf, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx, ok := p.pageTbl[id]; ok {
		p.frames[idx].Pin++
		return &p.frames[idx].Buf, nil
	}

	idx, err := p.acquireFrameLocked()
	if err != nil {
		return nil, err
	}

	if err := p.disk.ReadPage(id, &p.frames[idx].Buf); err != nil {
		p.freeList = append(p.freeList, idx)
		return nil, err
	}

	p.frames[idx].PageID = id
	p.frames[idx].Pin = 1
	p.frames[idx].Dirty = false
	p.pageTbl[id] = idx

	slog.Debug("buffer: fetched page", "page_id", id, "frame", idx)
	return &p.frames[idx].Buf, nil
}

// NewPage allocates a fresh page id from the disk manager, pins a
// zero-initialized frame for it, and returns both the id and its bytes.
func (p *Pool) NewPage() (storage.PageID, *storage.PageBuf, error) {
	id, err := p.disk.AllocatePage()
	if err != nil {
		return storage.InvalidPageID, nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.acquireFrameLocked()
	if err != nil {
		return storage.InvalidPageID, nil, err
	}

	p.frames[idx] = Frame{PageID: id, Pin: 1, Dirty: false}
	p.pageTbl[id] = idx

	slog.Debug("buffer: allocated new page", "page_id", id, "frame", idx)
	return id, &p.frames[idx].Buf, nil
}

// acquireFrameLocked finds a frame to hold a page, draining the free list
// first and falling back to clock-hand victim selection. Caller holds mu.
func (p *Pool) acquireFrameLocked() (int, error) {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return idx, nil
	}
	return p.pickVictimLocked()
}

// pickVictimLocked scans at most len(frames) frames starting at hand,
// choosing the first with Pin == 0. Matching frames, if dirty, are
// written back before their mapping is erased.
func (p *Pool) pickVictimLocked() (int, error) {
	n := len(p.frames)
	for scanned := 0; scanned < n; scanned++ {
		idx := p.hand
		p.hand = (p.hand + 1) % n

		f := &p.frames[idx]
		if f.Pin != 0 {
			continue
		}

		if f.Dirty {
			if err := p.disk.WritePage(f.PageID, &f.Buf); err != nil {
				return 0, err
			}
		}

		delete(p.pageTbl, f.PageID)
		slog.Debug("buffer: evicted page", "page_id", f.PageID, "frame", idx)
		return idx, nil
	}
	return 0, ErrNoFreeFrame
}

// Unpin decrements the pin count of a resident page and ORs its dirty flag
// with madeDirty. It is an error to unpin a non-resident page or one whose
// pin count is already zero.
func (p *Pool) Unpin(id storage.PageID, madeDirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTbl[id]
	if !ok {
		return ErrPageNotResident
	}
	f := &p.frames[idx]
	if f.Pin <= 0 {
		return ErrNotPinned
	}
	f.Pin--
	f.Dirty = f.Dirty || madeDirty
	return nil
}

// Flush writes a resident, dirty page back to disk and clears its dirty
// flag. It is a no-op if the page is resident but clean, and an error if
// the page is not resident.
func (p *Pool) Flush(id storage.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTbl[id]
	if !ok {
		return ErrPageNotResident
	}
	f := &p.frames[idx]
	if !f.Dirty {
		return nil
	}
	if err := p.disk.WritePage(id, &f.Buf); err != nil {
		return err
	}
	f.Dirty = false
	return nil
}

// FlushAll flushes every resident dirty page.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	ids := make([]storage.PageID, 0, len(p.pageTbl))
	for id := range p.pageTbl {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		if err := p.Flush(id); err != nil {
			return err
		}
	}
	return nil
}

// FetchGuarded is Fetch wrapped in a scoped Guard.
func (p *Pool) FetchGuarded(id storage.PageID) (*Guard, error) {
	buf, err := p.Fetch(id)
	if err != nil {
		return nil, err
	}
	return newGuard(p, id, buf), nil
}

// NewPageGuarded is NewPage wrapped in a scoped Guard.
func (p *Pool) NewPageGuarded() (*Guard, error) {
	id, buf, err := p.NewPage()
	if err != nil {
		return nil, err
	}
	return newGuard(p, id, buf), nil
}
