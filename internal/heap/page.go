package heap

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novasql/internal/alias/bx"
	"github.com/tuannm99/novasql/internal/storage"
)

// Table page header layout (little-endian, natural alignment):
//
//	i32 next_page_id
//	u16 num_slots
//	u16 free_space_ptr
const (
	headerSize       = 8
	offNextPageID    = 0
	offNumSlots      = 4
	offFreeSpacePtr  = 6
	slotSize         = 8
	offSlotOffset    = 0
	offSlotSize      = 2
	offSlotIsDeleted = 4
)

var (
	// ErrNoSpace is returned by Insert when the page does not have room
	// for the requested payload; callers (the table heap) must allocate
	// and link a new page.
	ErrNoSpace = errors.New("heap: page has no room for tuple")
	// ErrSlotOutOfRange is returned by Get/MarkDelete for a slot id past
	// the page's current slot count.
	ErrSlotOutOfRange = errors.New("heap: slot id out of range")
	// ErrTupleTooLarge is returned when a tuple could never fit even on a
	// freshly initialized page — a schema/data error, not a capacity one.
	ErrTupleTooLarge = errors.New("heap: tuple larger than a page can ever hold")
)

// TablePage is a typed view over one page's raw bytes implementing the
// slotted-page layout: a forward-growing slot directory and a
// backward-growing record area.
type TablePage struct {
	buf *storage.PageBuf
}

// NewTablePage wraps an already-guarded page's bytes.
func NewTablePage(buf *storage.PageBuf) *TablePage {
	return &TablePage{buf: buf}
}

// Init resets the page to an empty table page.
func (p *TablePage) Init() {
	p.setNextPageID(storage.InvalidPageID)
	p.setNumSlots(0)
	p.setFreeSpacePtr(storage.PageSize)
}

func (p *TablePage) NextPageID() storage.PageID {
	return storage.PageID(bx.I32(p.buf[offNextPageID:]))
}

func (p *TablePage) setNextPageID(id storage.PageID) {
	bx.PutU32At(p.buf[:], offNextPageID, uint32(id))
}

// SetNextPageID links this page to the next page in the heap's chain.
func (p *TablePage) SetNextPageID(id storage.PageID) { p.setNextPageID(id) }

func (p *TablePage) NumSlots() uint16 {
	return bx.U16At(p.buf[:], offNumSlots)
}

func (p *TablePage) setNumSlots(n uint16) {
	bx.PutU16At(p.buf[:], offNumSlots, n)
}

func (p *TablePage) freeSpacePtr() uint16 {
	return bx.U16At(p.buf[:], offFreeSpacePtr)
}

func (p *TablePage) setFreeSpacePtr(v uint16) {
	bx.PutU16At(p.buf[:], offFreeSpacePtr, v)
}

func (p *TablePage) slotOffset(slotID uint16) int {
	return headerSize + int(slotID)*slotSize
}

func (p *TablePage) slotOffsetField(slotID uint16) uint16 {
	return bx.U16At(p.buf[:], p.slotOffset(slotID)+offSlotOffset)
}

func (p *TablePage) slotSizeField(slotID uint16) uint16 {
	return bx.U16At(p.buf[:], p.slotOffset(slotID)+offSlotSize)
}

func (p *TablePage) slotIsDeleted(slotID uint16) bool {
	return p.buf[p.slotOffset(slotID)+offSlotIsDeleted] != 0
}

func (p *TablePage) putSlot(slotID uint16, offset, size uint16, deleted bool) {
	base := p.slotOffset(slotID)
	bx.PutU16At(p.buf[:], base+offSlotOffset, offset)
	bx.PutU16At(p.buf[:], base+offSlotSize, size)
	if deleted {
		p.buf[base+offSlotIsDeleted] = 1
	} else {
		p.buf[base+offSlotIsDeleted] = 0
	}
}

// FreeSpace reports how many bytes remain for new payload-plus-slot
// allocations on this page.
func (p *TablePage) FreeSpace() int {
	used := headerSize + int(p.NumSlots())*slotSize
	return int(p.freeSpacePtr()) - used
}

// Insert appends a new record, returning its slot id. It fails (returns
// ErrNoSpace) if the page does not have size+slotSize bytes free; the
// caller must then extend the heap with a new page. It validates the full
// free-space invariant (free_space_ptr >= header + slots), not only the
// requested size, at every call.
func (p *TablePage) Insert(data []byte) (uint16, error) {
	if len(data)+slotSize > storage.PageSize-headerSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrTupleTooLarge, len(data))
	}

	fsp := int(p.freeSpacePtr())
	numSlots := p.NumSlots()
	used := headerSize + int(numSlots)*slotSize
	if fsp < used {
		panic("heap: free_space_ptr invariant violated: behind the slot directory")
	}
	if fsp-used < len(data)+slotSize {
		return 0, ErrNoSpace
	}

	newOffset := fsp - len(data)
	copy(p.buf[newOffset:newOffset+len(data)], data)

	slotID := numSlots
	p.putSlot(slotID, uint16(newOffset), uint16(len(data)), false)
	p.setNumSlots(numSlots + 1)
	p.setFreeSpacePtr(uint16(newOffset))

	return slotID, nil
}

// Get returns a copy of the payload stored at slotID, or false if the
// slot is logically deleted. An out-of-range slot yields ErrSlotOutOfRange.
func (p *TablePage) Get(slotID uint16) ([]byte, bool, error) {
	if slotID >= p.NumSlots() {
		return nil, false, ErrSlotOutOfRange
	}
	if p.slotIsDeleted(slotID) {
		return nil, false, nil
	}
	off := p.slotOffsetField(slotID)
	size := p.slotSizeField(slotID)
	out := make([]byte, size)
	copy(out, p.buf[off:off+size])
	return out, true, nil
}

// MarkDelete logically deletes slotID; subsequent Get and iteration skip
// it. Slots, once added, are never physically removed.
func (p *TablePage) MarkDelete(slotID uint16) error {
	if slotID >= p.NumSlots() {
		return ErrSlotOutOfRange
	}
	base := p.slotOffset(slotID)
	p.buf[base+offSlotIsDeleted] = 1
	return nil
}

func (p *TablePage) IsDeleted(slotID uint16) bool {
	return p.slotIsDeleted(slotID)
}
