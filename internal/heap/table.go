package heap

import (
	"fmt"
	"log/slog"

	"github.com/tuannm99/novasql/internal/buffer"
	"github.com/tuannm99/novasql/internal/storage"
)

// Table represents one heap: a linked list of slotted pages. Inserts
// always append to the last page, extending the chain when it is full.
type Table struct {
	pool        *buffer.Pool
	firstPageID storage.PageID
	lastPageID  storage.PageID
}

// Create initializes a brand-new, single-page heap.
func Create(pool *buffer.Pool) (*Table, error) {
	g, err := pool.NewPageGuarded()
	if err != nil {
		return nil, fmt.Errorf("heap: create: %w", err)
	}
	defer g.Release()

	tp := NewTablePage(g.Bytes())
	tp.Init()
	g.MarkDirty()

	return &Table{pool: pool, firstPageID: g.PageID(), lastPageID: g.PageID()}, nil
}

// Open reattaches to an existing heap given its first/last page ids (as
// recorded by the catalog).
func Open(pool *buffer.Pool, firstPageID, lastPageID storage.PageID) *Table {
	return &Table{pool: pool, firstPageID: firstPageID, lastPageID: lastPageID}
}

func (t *Table) FirstPageID() storage.PageID { return t.firstPageID }
func (t *Table) LastPageID() storage.PageID  { return t.lastPageID }

// InsertTuple appends data to the last page, extending the heap with a
// freshly allocated page if the last page has no room. A tuple larger than
// a page can ever hold is rejected up front with ErrTupleTooLarge; an
// insert that still fails on a fresh page is a fatal invariant violation.
func (t *Table) InsertTuple(data []byte) (RID, error) {
	g, err := t.pool.FetchGuarded(t.lastPageID)
	if err != nil {
		return RID{}, fmt.Errorf("heap: insert: fetch last page: %w", err)
	}

	tp := NewTablePage(g.Bytes())
	slotID, err := tp.Insert(data)
	if err == nil {
		g.MarkDirty()
		rid := RID{PageID: t.lastPageID, SlotID: slotID}
		_ = g.Release()
		return rid, nil
	}
	_ = g.Release()
	if err != ErrNoSpace {
		return RID{}, err
	}

	// Last page is full: allocate and link a new page, per spec's
	// extension rule rather than speculatively fetching last+1.
	newGuard, err := t.pool.NewPageGuarded()
	if err != nil {
		return RID{}, fmt.Errorf("heap: insert: extend heap: %w", err)
	}
	newPage := NewTablePage(newGuard.Bytes())
	newPage.Init()
	newGuard.MarkDirty()
	newPageID := newGuard.PageID()

	lastGuard, err := t.pool.FetchGuarded(t.lastPageID)
	if err != nil {
		_ = newGuard.Release()
		return RID{}, fmt.Errorf("heap: insert: relink last page: %w", err)
	}
	lastPage := NewTablePage(lastGuard.Bytes())
	lastPage.SetNextPageID(newPageID)
	lastGuard.MarkDirty()
	_ = lastGuard.Release()

	slotID, err = newPage.Insert(data)
	if err != nil {
		_ = newGuard.Release()
		panic(fmt.Sprintf("heap: insert failed on freshly allocated page: %v", err))
	}
	_ = newGuard.Release()

	t.lastPageID = newPageID
	slog.Debug("heap: extended table", "new_last_page_id", newPageID)

	return RID{PageID: newPageID, SlotID: slotID}, nil
}

// GetTuple fetches the tuple at rid. It returns false if the slot is out
// of range or logically deleted.
func (t *Table) GetTuple(rid RID) (Tuple, bool, error) {
	g, err := t.pool.FetchGuarded(rid.PageID)
	if err != nil {
		return Tuple{}, false, err
	}
	defer g.Release()

	tp := NewTablePage(g.Bytes())
	data, ok, err := tp.Get(rid.SlotID)
	if err == ErrSlotOutOfRange {
		return Tuple{}, false, nil
	}
	if err != nil || !ok {
		return Tuple{}, false, err
	}
	return Tuple{Data: data, RID: rid}, true, nil
}

// MarkDelete logically deletes the tuple at rid.
func (t *Table) MarkDelete(rid RID) error {
	g, err := t.pool.FetchGuarded(rid.PageID)
	if err != nil {
		return err
	}
	defer g.Release()

	tp := NewTablePage(g.Bytes())
	if err := tp.MarkDelete(rid.SlotID); err != nil {
		return err
	}
	g.MarkDirty()
	return nil
}

// Begin returns an iterator positioned at the first live tuple.
func (t *Table) Begin() (*Iterator, error) {
	it := &Iterator{table: t, rid: RID{PageID: t.firstPageID, SlotID: 0}}
	it.rid.SlotID = 0
	// Position "before slot 0" and advance, so the same routine that
	// skips deletions also establishes the live-tuple invariant at
	// construction time.
	it.beforeFirst = true
	if err := it.advanceToNextValid(); err != nil {
		return nil, err
	}
	return it, nil
}

// End returns the sentinel end iterator.
func (t *Table) End() *Iterator {
	return &Iterator{table: t, isEnd: true}
}

// Iterator is a forward-only cursor over a table's live tuples, skipping
// logically deleted slots and crossing page boundaries via next_page_id.
type Iterator struct {
	table       *Table
	rid         RID
	isEnd       bool
	beforeFirst bool
}

// IsEnd reports whether the iterator has exhausted the heap.
func (it *Iterator) IsEnd() bool { return it.isEnd }

// Tuple dereferences the iterator, yielding a fresh copy of the current
// live tuple. It is only valid to call when IsEnd() is false.
func (it *Iterator) Tuple() (Tuple, error) {
	if it.isEnd {
		return Tuple{}, fmt.Errorf("heap: dereference of end iterator")
	}
	tup, ok, err := it.table.GetTuple(it.rid)
	if err != nil {
		return Tuple{}, err
	}
	if !ok {
		return Tuple{}, fmt.Errorf("heap: iterator positioned on a non-live slot")
	}
	return tup, nil
}

// Next advances the iterator to the next live tuple, or to End.
func (it *Iterator) Next() error {
	if it.isEnd {
		return nil
	}
	it.rid.SlotID++
	return it.advanceToNextValid()
}

// advanceToNextValid scans forward from the current (page_id, slot_id),
// skipping deleted slots and crossing to next_page_id when a page is
// exhausted, until a live slot is found or the chain ends.
func (it *Iterator) advanceToNextValid() error {
	if it.beforeFirst {
		it.beforeFirst = false
		it.rid.SlotID = 0
	}

	pageID := it.rid.PageID
	slotID := it.rid.SlotID

	for {
		if pageID == storage.InvalidPageID {
			it.isEnd = true
			return nil
		}

		g, err := it.table.pool.FetchGuarded(pageID)
		if err != nil {
			return err
		}
		tp := NewTablePage(g.Bytes())
		numSlots := tp.NumSlots()

		for slotID < numSlots {
			if !tp.IsDeleted(slotID) {
				it.rid = RID{PageID: pageID, SlotID: slotID}
				_ = g.Release()
				return nil
			}
			slotID++
		}

		nextPageID := tp.NextPageID()
		_ = g.Release()

		pageID = nextPageID
		slotID = 0
	}
}
