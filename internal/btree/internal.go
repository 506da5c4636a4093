package btree

import (
	"github.com/tuannm99/novasql/internal/alias/bx"
	"github.com/tuannm99/novasql/internal/storage"
)

// InternalPage is a B+tree internal node. Entry 0's key is an unused
// sentinel; entry i>0's key is the minimum key of the subtree rooted at
// value[i].
type InternalPage struct {
	page
}

// NewInternalPage wraps an already-guarded page's bytes as an internal view.
func NewInternalPage(buf *storage.PageBuf) *InternalPage {
	return &InternalPage{page{buf: buf}}
}

// Init resets the page to an empty internal node with the given id.
func (p *InternalPage) Init(pageID storage.PageID) {
	p.SetParentPageID(storage.InvalidPageID)
	p.setKeyCount(0)
	p.setMaxKeyCount(InternalMaxKeyCount())
	p.setPageID(pageID)
	p.SetNextPageID(storage.InvalidPageID)
	p.setIsLeaf(false)
}

func internalEntryOffset(idx int) int {
	return headerSize + idx*internalEntrySize
}

// KeyAt returns the key of entry i (meaningless for i == 0).
func (p *InternalPage) KeyAt(i int) int32 {
	return bx.I32(p.buf[internalEntryOffset(i):])
}

// ValueAt returns the child page id of entry i.
func (p *InternalPage) ValueAt(i int) storage.PageID {
	return storage.PageID(bx.I32(p.buf[internalEntryOffset(i)+4:]))
}

func (p *InternalPage) setEntry(i int, key int32, child storage.PageID) {
	off := internalEntryOffset(i)
	bx.PutU32At(p.buf[:], off, uint32(key))
	bx.PutU32At(p.buf[:], off+4, uint32(child))
}

func (p *InternalPage) copyEntry(dst, src int) {
	srcOff, dstOff := internalEntryOffset(src), internalEntryOffset(dst)
	copy(p.buf[dstOff:dstOff+internalEntrySize], p.buf[srcOff:srcOff+internalEntrySize])
}

// Insert places {key, child} in sorted position by key, shifting later
// entries right. Used only to populate a brand-new root.
func (p *InternalPage) Insert(key int32, child storage.PageID) bool {
	if p.IsFull() {
		return false
	}
	n := p.KeyCount()
	i := 0
	for i < n && p.KeyAt(i) <= key {
		i++
	}
	for j := n; j > i; j-- {
		p.copyEntry(j, j-1)
	}
	p.setEntry(i, key, child)
	p.setKeyCount(n + 1)
	return true
}

// InsertAfter locates the entry whose value equals oldChild and inserts
// {newKey, newChild} immediately after it, shifting the tail right. It
// returns false if oldChild is not found or the node is full.
func (p *InternalPage) InsertAfter(oldChild storage.PageID, newKey int32, newChild storage.PageID) bool {
	if p.IsFull() {
		return false
	}

	n := p.KeyCount()
	idx := -1
	for i := 0; i < n; i++ {
		if p.ValueAt(i) == oldChild {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	for j := n; j > idx+1; j-- {
		p.copyEntry(j, j-1)
	}
	p.setEntry(idx+1, newKey, newChild)
	p.setKeyCount(n + 1)
	return true
}

// ChildForKey returns the child page id that must contain key, using the
// separator rule: descend to value[i-1] where i is the smallest index
// with key < key[i]; if no such index exists, descend to the last child.
func (p *InternalPage) ChildForKey(key int32) storage.PageID {
	n := p.KeyCount()
	for i := 1; i < n; i++ {
		if key < p.KeyAt(i) {
			return p.ValueAt(i - 1)
		}
	}
	return p.ValueAt(n - 1)
}

// InitRootEntries writes the two root-growth entries directly, bypassing
// the sorted Insert path: entry 0 is {sentinel, leftChild} and entry 1 is
// {rightKey, rightChild}. This is the resolution spec.md's root-growth
// open question settles on, since the generic Insert's sort-by-key
// ordering cannot be trusted to place an unused sentinel key correctly at
// entry 0.
func (p *InternalPage) InitRootEntries(leftChild storage.PageID, rightKey int32, rightChild storage.PageID) {
	p.setEntry(0, 0, leftChild)
	p.setEntry(1, rightKey, rightChild)
	p.setKeyCount(2)
}

// Split moves the upper half of this node's entries into newPage
// (freshly initialized, empty) and returns the separator key to promote:
// the first key of the moved range (newPage's entry 0's key, which for an
// internal node is itself promoted further up, not used as a sentinel).
func (p *InternalPage) Split(newPage *InternalPage) int32 {
	n := p.KeyCount()
	if n < 2 {
		panic("btree: split requires at least 2 entries")
	}
	half := n / 2
	moveCount := n - half

	for i := 0; i < moveCount; i++ {
		key := p.KeyAt(half + i)
		child := p.ValueAt(half + i)
		newPage.setEntry(i, key, child)
	}
	newPage.setKeyCount(moveCount)
	p.setKeyCount(half)

	return newPage.KeyAt(0)
}
