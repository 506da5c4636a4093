// Package heap implements the slotted table page and the table heap: an
// append-only, linked-list-of-pages sequence of tuples with a forward
// iterator that skips logical deletions.
package heap

import "github.com/tuannm99/novasql/internal/storage"

// RID is a record identifier: the physical address of a tuple within a
// heap, a page id plus a slot id within that page.
type RID struct {
	PageID storage.PageID
	SlotID uint16
}

// Tuple is a materialized byte string plus the RID it was read from (or
// will be written to).
type Tuple struct {
	Data []byte
	RID  RID
}
