package btree

import (
	"sort"

	"github.com/tuannm99/novasql/internal/alias/bx"
	"github.com/tuannm99/novasql/internal/storage"
)

// LeafPage is a B+tree leaf: its entries map key -> RID, and next_page_id
// chains leaves left-to-right in ascending key order.
type LeafPage struct {
	page
}

// NewLeafPage wraps an already-guarded page's bytes as a leaf view.
func NewLeafPage(buf *storage.PageBuf) *LeafPage {
	return &LeafPage{page{buf: buf}}
}

// Init resets the page to an empty leaf with the given id.
func (p *LeafPage) Init(pageID storage.PageID) {
	p.SetParentPageID(storage.InvalidPageID)
	p.setKeyCount(0)
	p.setMaxKeyCount(LeafMaxKeyCount())
	p.setPageID(pageID)
	p.SetNextPageID(storage.InvalidPageID)
	p.setIsLeaf(true)
}

func entryOffset(idx int) int {
	return headerSize + idx*leafEntrySize
}

// KeyAt returns the key of entry i.
func (p *LeafPage) KeyAt(i int) int32 {
	return bx.I32(p.buf[entryOffset(i):])
}

// ValueAt returns the RID of entry i.
func (p *LeafPage) ValueAt(i int) RID {
	off := entryOffset(i)
	pid := storage.PageID(bx.I32(p.buf[off+4:]))
	slot := bx.U16At(p.buf[:], off+8)
	return RID{PageID: pid, SlotID: slot}
}

func (p *LeafPage) setEntry(i int, key int32, value RID) {
	off := entryOffset(i)
	bx.PutU32At(p.buf[:], off, uint32(key))
	bx.PutU32At(p.buf[:], off+4, uint32(value.PageID))
	bx.PutU16At(p.buf[:], off+8, value.SlotID)
}

func (p *LeafPage) copyEntry(dst, src int) {
	srcOff, dstOff := entryOffset(src), entryOffset(dst)
	copy(p.buf[dstOff:dstOff+leafEntrySize], p.buf[srcOff:srcOff+leafEntrySize])
}

// Insert places {key, value} in sorted position, shifting later entries
// right by one. Equal keys are inserted after existing equals (stable):
// it returns false without modifying the page if the page is full.
func (p *LeafPage) Insert(key int32, value RID) bool {
	if p.IsFull() {
		return false
	}

	n := p.KeyCount()
	i := sort.Search(n, func(i int) bool { return p.KeyAt(i) > key })

	for j := n; j > i; j-- {
		p.copyEntry(j, j-1)
	}
	p.setEntry(i, key, value)
	p.setKeyCount(n + 1)
	return true
}

// Lookup binary-searches for the first entry equal to key, then walks
// right from it collecting every equal-key value. It returns true if at
// least one value was appended to out.
func (p *LeafPage) Lookup(key int32, out *[]RID) bool {
	n := p.KeyCount()
	i := sort.Search(n, func(i int) bool { return p.KeyAt(i) >= key })
	if i >= n || p.KeyAt(i) != key {
		return false
	}

	found := false
	for j := i; j < n && p.KeyAt(j) == key; j++ {
		*out = append(*out, p.ValueAt(j))
		found = true
	}
	// entries at indices < i with the same key cannot exist: Search found
	// the first index with key >= target, so nothing left of i equals key.
	return found
}

// LastKeyEquals reports whether the leaf's last entry (if any) equals key;
// the tree uses this to decide whether to keep following next_page_id
// when collecting duplicates that span leaves.
func (p *LeafPage) LastKeyEquals(key int32) bool {
	n := p.KeyCount()
	if n == 0 {
		return false
	}
	return p.KeyAt(n-1) == key
}

// Split moves the upper half of this leaf's entries into newPage
// (freshly initialized, empty), splices newPage into the leaf chain
// after this one, and returns the separator key to promote to the
// parent (the new page's first key).
func (p *LeafPage) Split(newPage *LeafPage) int32 {
	n := p.KeyCount()
	if n < 2 {
		panic("btree: split requires at least 2 entries")
	}
	half := n / 2
	moveCount := n - half

	for i := 0; i < moveCount; i++ {
		key := p.KeyAt(half + i)
		val := p.ValueAt(half + i)
		newPage.setEntry(i, key, val)
	}
	newPage.setKeyCount(moveCount)
	p.setKeyCount(half)

	newPage.SetNextPageID(p.NextPageID())
	p.SetNextPageID(newPage.PageID())

	return newPage.KeyAt(0)
}
