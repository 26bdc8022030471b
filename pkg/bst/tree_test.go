package bst //nolint:testpackage // tests inspect the allocator and node links.

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNewIntTree(keys ...int) *Tree[int, struct{}] {
	tree := New[int, struct{}]()

	for _, key := range keys {
		tree.Insert(key, struct{}{})
	}

	return tree
}

var sevenKeys = []int{50, 25, 75, 10, 40, 60, 90}

func TestEmpty(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, Nil, tree.Root())
	assert.Equal(t, 0, tree.Depth())
	assert.True(t, tree.Min().Limit())
	assert.True(t, tree.Max().NegativeLimit())
	assert.Empty(t, Collect(tree.InOrder()))

	_, err := tree.Minimum()
	require.ErrorIs(t, err, ErrEmptyTree)

	_, err = tree.Maximum()
	require.ErrorIs(t, err, ErrEmptyTree)

	_, found := tree.Find(10)
	assert.False(t, found)
	require.NoError(t, tree.Check())
}

func TestInsertRoundTrip(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)
	assert.Equal(t, 7, tree.Len())
	assert.Equal(t, []int{10, 25, 40, 50, 60, 75, 90}, Collect(tree.InOrder()))
	assert.Equal(t, []int{50, 25, 10, 40, 75, 60, 90}, Collect(tree.PreOrder()))
	assert.Equal(t, []int{10, 40, 25, 60, 90, 75, 50}, Collect(tree.PostOrder()))
	assert.Equal(t, 3, tree.Depth())
	require.NoError(t, tree.Check())
}

func TestInsertTiesGoRight(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(10, 10, 10)
	root := tree.Root()

	assert.Equal(t, Nil, tree.Left(root))
	require.NotEqual(t, Nil, tree.Right(root))
	assert.Equal(t, 10, tree.Key(tree.Right(root)))
	assert.Equal(t, 3, tree.Depth())
	assert.Equal(t, []int{10, 10, 10}, Collect(tree.InOrder()))
	require.NoError(t, tree.Check())
}

func TestInsertSetsParent(t *testing.T) {
	t.Parallel()

	tree := New[int, string]()
	root := tree.Insert(50, "root")
	child := tree.Insert(25, "child")

	assert.Equal(t, Nil, tree.Parent(root))
	assert.Equal(t, root, tree.Parent(child))
	assert.Equal(t, child, tree.Left(root))
	assert.Equal(t, "child", tree.Item(child).Value)
	assert.Equal(t, 1, tree.DepthOf(child))
}

func TestFind(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)

	handle, found := tree.Find(40)
	require.True(t, found)
	assert.Equal(t, 40, tree.Key(handle))
	assert.True(t, tree.Contains(90))
	assert.False(t, tree.Contains(41))
}

func TestMinimumMaximum(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)

	minimum, err := tree.Minimum()
	require.NoError(t, err)
	assert.Equal(t, 10, minimum)

	maximum, err := tree.Maximum()
	require.NoError(t, err)
	assert.Equal(t, 90, maximum)
}

func TestSpineDepths(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(50, 25, 10, 5, 75)
	assert.Equal(t, 4, tree.MinimumNodeDepth())
	assert.Equal(t, 2, tree.MaximumNodeDepth())
	assert.Equal(t, 0, testNewIntTree().MinimumNodeDepth())
}

func TestRemoveLeaf(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(10, 5, 15)
	assert.True(t, tree.Remove(5))
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, []int{10, 15}, Collect(tree.InOrder()))
	assert.Equal(t, Nil, tree.Left(tree.Root()))
	require.NoError(t, tree.Check())
}

func TestRemoveOneChildPromotes(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(50, 25, 10)
	assert.True(t, tree.Remove(25))

	promoted := tree.Left(tree.Root())
	assert.Equal(t, 10, tree.Key(promoted))
	assert.Equal(t, tree.Root(), tree.Parent(promoted))
	require.NoError(t, tree.Check())
}

func TestRemoveRootWithOneChild(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(50, 75, 60)
	assert.True(t, tree.Remove(50))
	assert.Equal(t, 75, tree.Key(tree.Root()))
	assert.Equal(t, Nil, tree.Parent(tree.Root()))
	require.NoError(t, tree.Check())
}

func TestRemoveTwoChildrenRoot(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)
	oldRoot := tree.Root()

	assert.True(t, tree.Remove(50))
	assert.Equal(t, 6, tree.Len())
	assert.Equal(t, 60, tree.Key(tree.Root()))
	assert.Equal(t, oldRoot, tree.Root(), "two-children removal substitutes the value in place")
	assert.Equal(t, []int{10, 25, 40, 60, 75, 90}, Collect(tree.InOrder()))
	require.NoError(t, tree.Check())
}

func TestRemoveAtReportsSurvivor(t *testing.T) {
	t.Parallel()

	tree := New[int, string]()
	root := tree.Insert(50, "fifty")
	tree.Insert(25, "twenty-five")
	tree.Insert(75, "seventy-five")
	tree.Insert(60, "sixty")

	survivor := tree.RemoveAt(root)
	assert.Equal(t, root, survivor)
	assert.Equal(t, Item[int, string]{Key: 60, Value: "sixty"}, *tree.Item(survivor))

	leaf, _ := tree.Find(25)
	assert.Equal(t, Nil, tree.RemoveAt(leaf))
}

func TestRemoveMissing(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)
	assert.False(t, tree.Remove(41))
	assert.Equal(t, 7, tree.Len())
	assert.False(t, testNewIntTree().Remove(1))
}

func TestSuccessorPredecessor(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)

	h40, _ := tree.Find(40)
	assert.Equal(t, 50, tree.Key(tree.Successor(h40)))

	h50, _ := tree.Find(50)
	assert.Equal(t, 60, tree.Key(tree.Successor(h50)))
	assert.Equal(t, 40, tree.Key(tree.Predecessor(h50)))

	h90, _ := tree.Find(90)
	assert.Equal(t, Nil, tree.Successor(h90))

	h10, _ := tree.Find(10)
	assert.Equal(t, Nil, tree.Predecessor(h10))
}

func TestIterator(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)

	var forward []int
	for it := tree.Min(); !it.Limit(); it = it.Next() {
		forward = append(forward, it.Item().Key)
	}

	var backward []int
	for it := tree.Max(); !it.NegativeLimit(); it = it.Prev() {
		backward = append(backward, it.Item().Key)
	}

	assert.Equal(t, []int{10, 25, 40, 50, 60, 75, 90}, forward)
	slices.Reverse(backward)
	assert.Equal(t, forward, backward)
	assert.Nil(t, tree.Limit().Item())
	assert.Equal(t, 10, tree.NegativeLimit().Next().Item().Key)
	assert.Equal(t, 90, tree.Limit().Prev().Item().Key)
}

func TestTraversalIsRestartableAndStoppable(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)
	seq := tree.InOrder()

	assert.Equal(t, Collect(seq), Collect(seq))

	var firstTwo []int

	for key := range seq {
		firstTwo = append(firstTwo, key)
		if len(firstTwo) == 2 {
			break
		}
	}

	assert.Equal(t, []int{10, 25}, firstTwo)

	tree.Insert(5, struct{}{})
	assert.Equal(t, 5, Collect(seq)[0])
}

func TestAll(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(3, 1, 2)

	var keys []int
	for handle, item := range tree.All() {
		assert.Equal(t, tree.Key(handle), item.Key)
		keys = append(keys, item.Key)
	}

	assert.Equal(t, []int{1, 2, 3}, keys)
}

func TestClear(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)
	tree.Clear()

	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, Nil, tree.Root())
	assert.Equal(t, 0, tree.Allocator().Used())

	tree.Clear()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, Nil, tree.Root())
}

func TestAllocatorReusesFreedSlots(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)
	size := tree.Allocator().Size()

	tree.Remove(10)
	tree.Insert(11, struct{}{})

	assert.Equal(t, size, tree.Allocator().Size())
	assert.Equal(t, 7, tree.Allocator().Used())
}

func TestAllocatorFreeNilPanics(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int, struct{}]()

	assert.Panics(t, func() { alloc.free(Nil) })
}

func TestCheckDetectsCorruption(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(sevenKeys...)
	h10, _ := tree.Find(10)
	tree.Item(h10).Key = 99

	require.ErrorIs(t, tree.Check(), ErrCorrupted)
}

// Randomized tests.

func TestRandomizedAgainstSortedSlice(t *testing.T) {
	t.Parallel()

	const (
		rounds = 2000
		keyMax = 50
	)

	rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data.
	tree := testNewIntTree()

	var oracle []int

	for range rounds {
		key := rng.Intn(keyMax)

		if rng.Intn(3) == 0 {
			idx, present := slices.BinarySearch(oracle, key)
			assert.Equal(t, present, tree.Remove(key))

			if present {
				oracle = slices.Delete(oracle, idx, idx+1)
			}
		} else {
			tree.Insert(key, struct{}{})

			idx, _ := slices.BinarySearch(oracle, key)
			oracle = slices.Insert(oracle, idx, key)
		}

		require.NoError(t, tree.Check())
		require.Equal(t, len(oracle), tree.Len())
	}

	inorder := Collect(tree.InOrder())
	if len(oracle) == 0 {
		assert.Empty(t, inorder)
	} else {
		assert.Equal(t, oracle, inorder)
	}
}

func TestDeleteReportsMiss(t *testing.T) {
	t.Parallel()

	tree := testNewIntTree(1, 2)
	require.NoError(t, tree.Delete(2))
	require.ErrorIs(t, tree.Delete(2), ErrKeyNotFound)
	assert.Equal(t, 1, tree.Len())
}
