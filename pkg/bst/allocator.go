// Package bst provides an unbalanced binary search tree whose nodes live in
// an arena and are addressed by handles. Each node stores a key together with
// an opaque payload, so callers can attach per-node state without the tree
// knowing anything about it.
package bst

import (
	"cmp"
	"math"

	"github.com/Sumatoshi-tech/bstviz/pkg/safeconv"
)

// Handle addresses a node inside an Allocator. The zero Handle is reserved
// and stands for "no node".
type Handle uint32

// Nil is the handle of the absent node.
const Nil Handle = 0

// negativeLimit marks an iterator positioned before the minimum element.
const negativeLimit Handle = math.MaxUint32

// Item is the object stored in each tree node.
type Item[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

type node[K cmp.Ordered, V any] struct {
	item                Item[K, V]
	parent, left, right Handle
}

// Allocator is the arena for the nodes of one or more trees.
type Allocator[K cmp.Ordered, V any] struct {
	storage []node[K, V]
	gaps    []Handle
}

// NewAllocator creates an empty node arena.
func NewAllocator[K cmp.Ordered, V any]() *Allocator[K, V] {
	return &Allocator[K, V]{
		storage: []node[K, V]{},
		gaps:    []Handle{},
	}
}

// Size returns the number of allocated slots, including the reserved one.
func (allocator *Allocator[K, V]) Size() int {
	return len(allocator.storage)
}

// Used returns the number of live nodes in the arena.
func (allocator *Allocator[K, V]) Used() int {
	if len(allocator.storage) == 0 {
		return 0
	}

	return len(allocator.storage) - len(allocator.gaps) - 1
}

func (allocator *Allocator[K, V]) malloc() Handle {
	if n := len(allocator.gaps); n > 0 {
		handle := allocator.gaps[n-1]
		allocator.gaps = allocator.gaps[:n-1]

		return handle
	}

	nodeLen := len(allocator.storage)
	if nodeLen == 0 {
		// Zero is reserved.
		allocator.storage = append(allocator.storage, node[K, V]{})
		nodeLen = 1
	}

	if Handle(safeconv.MustIntToUint32(nodeLen)) == negativeLimit {
		panic("bst: allocator exhausted the handle space")
	}

	allocator.storage = append(allocator.storage, node[K, V]{})

	return Handle(safeconv.MustIntToUint32(nodeLen))
}

func (allocator *Allocator[K, V]) free(handle Handle) {
	if handle == Nil {
		panic("bst: node #0 is special and cannot be deallocated")
	}

	allocator.storage[handle] = node[K, V]{}
	allocator.gaps = append(allocator.gaps, handle)
}
