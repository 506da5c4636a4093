// Package storage owns the on-disk page format: a single random-access file
// of fixed-size pages, addressed by a monotonically allocated page id.
package storage

// PageSize is the fixed size in bytes of every page on disk and in memory.
// It is a wire-format constant, not configurable: every on-disk header
// offset in heap and btree pages is computed against it.
const PageSize = 4096

// PageID identifies a page within a single backing file. Page ids are
// allocated sequentially starting at 0 and are never reused or freed.
type PageID int32

// InvalidPageID is the sentinel meaning "no page" (empty tree root, chain
// terminator, parent of a root node).
const InvalidPageID PageID = -1

// PageBuf is the raw fixed-size byte buffer backing one page.
type PageBuf = [PageSize]byte
