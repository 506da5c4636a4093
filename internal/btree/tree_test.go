package btree

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novasql/internal/buffer"
	"github.com/tuannm99/novasql/internal/storage"
)

func newTestTree(t *testing.T, poolCapacity int) *Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "btree.db")
	dm, err := storage.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })

	pool := buffer.NewPool(dm, poolCapacity)
	return NewTree(pool)
}

func rid(i int) RID { return RID{PageID: storage.PageID(i), SlotID: uint16(i)} }

func TestBTreeScenarioS4SmallSequential(t *testing.T) {
	tree := newTestTree(t, 32)

	for i := 0; i < 200; i++ {
		require.NoError(t, tree.Insert(int32(i), rid(i)))
	}

	for i := 0; i < 200; i++ {
		got, err := tree.GetValue(int32(i))
		require.NoError(t, err)
		require.Equal(t, []RID{rid(i)}, got)
	}

	got, err := tree.GetValue(200)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBTreeScenarioS5Split(t *testing.T) {
	tree := newTestTree(t, 64)

	for i := 0; i < 600; i++ {
		require.NoError(t, tree.Insert(int32(i), rid(i)))
	}

	for i := 0; i < 600; i++ {
		got, err := tree.GetValue(int32(i))
		require.NoError(t, err)
		require.Equal(t, []RID{rid(i)}, got, "key %d", i)
	}

	// Leaf-chain monotonicity: walk from the leftmost leaf and verify
	// every inserted key appears exactly once, in non-decreasing order.
	keys := walkLeafChain(t, tree)
	require.Len(t, keys, 600)
	for i := 1; i < len(keys); i++ {
		require.LessOrEqual(t, keys[i-1], keys[i])
	}
	for i := 0; i < 600; i++ {
		require.Contains(t, keys, int32(i))
	}
}

func TestBTreeScenarioS6Duplicates(t *testing.T) {
	tree := newTestTree(t, 32)

	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Insert(2, rid(100+i)))
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Insert(1, rid(200+i)))
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Insert(3, rid(300+i)))
	}

	for _, key := range []int32{1, 2, 3} {
		got, err := tree.GetValue(key)
		require.NoError(t, err)
		require.Len(t, got, 10)
	}

	total := 0
	keys := walkLeafChain(t, tree)
	total = len(keys)
	require.Equal(t, 30, total)
}

func TestBTreeInsertPermutation(t *testing.T) {
	tree := newTestTree(t, 64)

	n := 300
	perm := rand.New(rand.NewSource(1)).Perm(n)
	for _, k := range perm {
		require.NoError(t, tree.Insert(int32(k), rid(k)))
	}

	for k := 0; k < n; k++ {
		got, err := tree.GetValue(int32(k))
		require.NoError(t, err)
		require.Equal(t, []RID{rid(k)}, got)
	}
}

func TestBTreeRemoveRejected(t *testing.T) {
	tree := newTestTree(t, 8)
	require.ErrorIs(t, tree.Remove(1), ErrRemoveUnsupported)
}

// walkLeafChain fetches the leftmost leaf and follows next_page_id,
// collecting every key across the whole chain.
func walkLeafChain(t *testing.T, tree *Tree) []int32 {
	t.Helper()

	pageID := tree.rootPageID
	for {
		g, err := tree.pool.FetchGuarded(pageID)
		require.NoError(t, err)
		hdr := page{buf: g.Bytes()}
		if hdr.IsLeaf() {
			require.NoError(t, g.Release())
			break
		}
		internal := NewInternalPage(g.Bytes())
		pageID = internal.ValueAt(0)
		require.NoError(t, g.Release())
	}

	var keys []int32
	for pageID != -1 {
		g, err := tree.pool.FetchGuarded(pageID)
		require.NoError(t, err)
		leaf := NewLeafPage(g.Bytes())
		for i := 0; i < leaf.KeyCount(); i++ {
			keys = append(keys, leaf.KeyAt(i))
		}
		next := leaf.NextPageID()
		require.NoError(t, g.Release())
		pageID = next
	}
	return keys
}
