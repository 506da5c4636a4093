// Package btree implements a B+tree index over INTEGER keys, built on the
// buffer pool: fixed-layout leaf and internal pages, recursive insert with
// split propagation and root growth, and range-walk lookup across the
// leaf sibling chain.
package btree

import (
	"github.com/tuannm99/novasql/internal/alias/bx"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/storage"
)

// Header layout (little-endian, natural alignment):
//
//	i32  parent_page_id
//	u16  key_count
//	u16  max_key_count
//	i32  page_id
//	i32  next_page_id
//	bool is_leaf
const (
	offParentPageID = 0
	offKeyCount     = 4
	offMaxKeyCount  = 6
	offPageID       = 8
	offNextPageID   = 12
	offIsLeaf       = 16
	headerSize      = 20 // padded for entry alignment

	leafEntrySize     = 4 + 4 + 2 // key i32, rid{page_id i32, slot_id u16}
	internalEntrySize = 4 + 4     // key i32, child_page_id i32
)

// page is the shared header view both leaf and internal pages embed.
type page struct {
	buf *storage.PageBuf
}

func (p *page) ParentPageID() storage.PageID {
	return storage.PageID(bx.I32(p.buf[offParentPageID:]))
}

func (p *page) SetParentPageID(id storage.PageID) {
	bx.PutU32At(p.buf[:], offParentPageID, uint32(id))
}

func (p *page) KeyCount() int {
	return int(bx.U16At(p.buf[:], offKeyCount))
}

func (p *page) setKeyCount(n int) {
	bx.PutU16At(p.buf[:], offKeyCount, uint16(n))
}

func (p *page) MaxKeyCount() int {
	return int(bx.U16At(p.buf[:], offMaxKeyCount))
}

func (p *page) setMaxKeyCount(n int) {
	bx.PutU16At(p.buf[:], offMaxKeyCount, uint16(n))
}

func (p *page) PageID() storage.PageID {
	return storage.PageID(bx.I32(p.buf[offPageID:]))
}

func (p *page) setPageID(id storage.PageID) {
	bx.PutU32At(p.buf[:], offPageID, uint32(id))
}

func (p *page) NextPageID() storage.PageID {
	return storage.PageID(bx.I32(p.buf[offNextPageID:]))
}

func (p *page) SetNextPageID(id storage.PageID) {
	bx.PutU32At(p.buf[:], offNextPageID, uint32(id))
}

func (p *page) IsLeaf() bool {
	return p.buf[offIsLeaf] != 0
}

func (p *page) setIsLeaf(v bool) {
	if v {
		p.buf[offIsLeaf] = 1
	} else {
		p.buf[offIsLeaf] = 0
	}
}

// IsFull reports whether the node has no room for another entry.
func (p *page) IsFull() bool {
	return p.KeyCount() == p.MaxKeyCount()
}

// LeafMaxKeyCount is the capacity of a freshly initialized leaf page.
func LeafMaxKeyCount() int {
	return (storage.PageSize - headerSize) / leafEntrySize
}

// InternalMaxKeyCount is the capacity of a freshly initialized internal page.
func InternalMaxKeyCount() int {
	return (storage.PageSize - headerSize) / internalEntrySize
}

// RID re-exports heap.RID so callers need only import btree for index work.
type RID = heap.RID
