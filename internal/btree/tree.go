package btree

import (
	"log/slog"

	"github.com/tuannm99/novasql/internal/buffer"
	"github.com/tuannm99/novasql/internal/storage"
)

// Tree is a B+tree index over INTEGER keys, built on top of a shared
// buffer pool. A non-owning reference to the pool is kept; the pool
// outlives every index built on it.
type Tree struct {
	pool       *buffer.Pool
	rootPageID storage.PageID
}

// NewTree constructs an empty tree.
func NewTree(pool *buffer.Pool) *Tree {
	return &Tree{pool: pool, rootPageID: storage.InvalidPageID}
}

// OpenTree reattaches to an existing tree given its root page id (as
// recorded by the catalog).
func OpenTree(pool *buffer.Pool, rootPageID storage.PageID) *Tree {
	return &Tree{pool: pool, rootPageID: rootPageID}
}

// RootPageID returns the tree's current root page id (InvalidPageID for
// an empty tree), for the catalog to persist.
func (t *Tree) RootPageID() storage.PageID { return t.rootPageID }

// splitSignal is returned upward by insertDown when a node it visited had
// to split.
type splitSignal struct {
	didSplit bool
	key      int32
	pageID   storage.PageID
}

// Insert inserts {key, value} into the tree, growing the tree if empty
// and propagating splits up to a new root if necessary. Duplicate keys
// are permitted.
func (t *Tree) Insert(key int32, value RID) error {
	if t.rootPageID == storage.InvalidPageID {
		g, err := t.pool.NewPageGuarded()
		if err != nil {
			return err
		}
		leaf := NewLeafPage(g.Bytes())
		leaf.Init(g.PageID())
		g.MarkDirty()
		t.rootPageID = g.PageID()
		if err := g.Release(); err != nil {
			return err
		}
		slog.Debug("btree: grew empty tree", "root_page_id", t.rootPageID)
	}

	sig, err := t.insertDown(t.rootPageID, key, value)
	if err != nil {
		return err
	}
	if !sig.didSplit {
		return nil
	}

	return t.growRoot(sig.key, sig.pageID)
}

// growRoot builds a fresh internal root over the current (just-split)
// root and its new sibling, per spec's resolution: the root-growth path
// writes {sentinel, left_id} and {right_min_key, right_id} directly,
// rather than going through insert_after.
func (t *Tree) growRoot(rightKey int32, rightPageID storage.PageID) error {
	oldRootID := t.rootPageID

	newRootGuard, err := t.pool.NewPageGuarded()
	if err != nil {
		return err
	}
	newRoot := NewInternalPage(newRootGuard.Bytes())
	newRoot.Init(newRootGuard.PageID())
	newRoot.InitRootEntries(oldRootID, rightKey, rightPageID)
	newRootGuard.MarkDirty()
	newRootID := newRootGuard.PageID()
	if err := newRootGuard.Release(); err != nil {
		return err
	}

	if err := t.setParent(oldRootID, newRootID); err != nil {
		return err
	}
	if err := t.setParent(rightPageID, newRootID); err != nil {
		return err
	}

	t.rootPageID = newRootID
	slog.Debug("btree: root split, grew new root", "new_root_page_id", newRootID)
	return nil
}

func (t *Tree) setParent(pageID, parentID storage.PageID) error {
	g, err := t.pool.FetchGuarded(pageID)
	if err != nil {
		return err
	}
	hdr := page{buf: g.Bytes()}
	hdr.SetParentPageID(parentID)
	g.MarkDirty()
	return g.Release()
}

// insertDown recursively descends to the leaf that must contain key,
// inserts, and propagates a split signal upward through at most one level
// per call. Every page fetched here is unpinned before this function
// returns, including on error paths.
func (t *Tree) insertDown(pageID storage.PageID, key int32, value RID) (splitSignal, error) {
	g, err := t.pool.FetchGuarded(pageID)
	if err != nil {
		return splitSignal{}, err
	}
	defer g.Release()

	hdr := page{buf: g.Bytes()}
	if hdr.IsLeaf() {
		return t.insertIntoLeaf(g, key, value)
	}
	return t.insertIntoInternal(g, pageID, key, value)
}

func (t *Tree) insertIntoLeaf(g *buffer.Guard, key int32, value RID) (splitSignal, error) {
	leaf := NewLeafPage(g.Bytes())
	if !leaf.Insert(key, value) {
		panic("btree: insert failed on a leaf expected to be non-full")
	}
	g.MarkDirty()

	if !leaf.IsFull() {
		return splitSignal{}, nil
	}

	newGuard, err := t.pool.NewPageGuarded()
	if err != nil {
		return splitSignal{}, err
	}
	defer newGuard.Release()

	newLeaf := NewLeafPage(newGuard.Bytes())
	newLeaf.Init(newGuard.PageID())
	newLeaf.SetParentPageID(leaf.ParentPageID())
	newGuard.MarkDirty()

	sepKey := leaf.Split(newLeaf)
	slog.Debug("btree: split leaf", "left", leaf.PageID(), "right", newLeaf.PageID(), "separator", sepKey)

	return splitSignal{didSplit: true, key: sepKey, pageID: newGuard.PageID()}, nil
}

func (t *Tree) insertIntoInternal(g *buffer.Guard, pageID storage.PageID, key int32, value RID) (splitSignal, error) {
	internal := NewInternalPage(g.Bytes())
	childID := internal.ChildForKey(key)

	childSig, err := t.insertDown(childID, key, value)
	if err != nil {
		return splitSignal{}, err
	}
	if !childSig.didSplit {
		return splitSignal{}, nil
	}

	if !internal.InsertAfter(childID, childSig.key, childSig.pageID) {
		panic("btree: insert_after failed on an internal node expected to be non-full")
	}
	g.MarkDirty()

	if err := t.setParent(childSig.pageID, pageID); err != nil {
		return splitSignal{}, err
	}

	if !internal.IsFull() {
		return splitSignal{}, nil
	}

	newGuard, err := t.pool.NewPageGuarded()
	if err != nil {
		return splitSignal{}, err
	}
	defer newGuard.Release()

	newInternal := NewInternalPage(newGuard.Bytes())
	newInternal.Init(newGuard.PageID())
	newInternal.SetParentPageID(internal.ParentPageID())
	newGuard.MarkDirty()

	sepKey := internal.Split(newInternal)
	slog.Debug("btree: split internal", "left", internal.PageID(), "right", newInternal.PageID(), "separator", sepKey)

	return splitSignal{didSplit: true, key: sepKey, pageID: newGuard.PageID()}, nil
}

// GetValue descends from the root choosing the child that must contain
// key, then at the leaf collects all equal values and, while the leaf's
// last key equals key, continues into next_page_id collecting further
// equal values until a strictly-greater key appears or the chain ends.
func (t *Tree) GetValue(key int32) ([]RID, error) {
	if t.rootPageID == storage.InvalidPageID {
		return nil, nil
	}

	pageID := t.rootPageID
	for {
		g, err := t.pool.FetchGuarded(pageID)
		if err != nil {
			return nil, err
		}
		hdr := page{buf: g.Bytes()}
		if hdr.IsLeaf() {
			if err := g.Release(); err != nil {
				return nil, err
			}
			break
		}
		internal := NewInternalPage(g.Bytes())
		next := internal.ChildForKey(key)
		if err := g.Release(); err != nil {
			return nil, err
		}
		pageID = next
	}

	var out []RID
	for pageID != storage.InvalidPageID {
		g, err := t.pool.FetchGuarded(pageID)
		if err != nil {
			return nil, err
		}
		leaf := NewLeafPage(g.Bytes())
		leaf.Lookup(key, &out)
		keepGoing := leaf.LastKeyEquals(key)
		next := leaf.NextPageID()
		if err := g.Release(); err != nil {
			return nil, err
		}
		if !keepGoing {
			break
		}
		pageID = next
	}

	return out, nil
}

// Remove is defined but rejected: deletion from this index is out of scope.
func (t *Tree) Remove(key int32) error {
	return ErrRemoveUnsupported
}
