package btree

import "errors"

// ErrRemoveUnsupported is returned by Tree.Remove: deletion from a B+tree
// index is out of scope and statically rejected.
var ErrRemoveUnsupported = errors.New("btree: remove is not supported")
