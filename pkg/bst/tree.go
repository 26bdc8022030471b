package bst

import (
	"cmp"
	"errors"
	"fmt"
)

var (
	// ErrEmptyTree is returned by queries that need at least one node.
	ErrEmptyTree = errors.New("bst: tree is empty")
	// ErrKeyNotFound is returned by Delete when no node holds the key.
	ErrKeyNotFound = errors.New("bst: key not found")
)

// Tree is a binary search tree without rebalancing.
//
// Keys equal to an existing key are routed to its right subtree, so for every
// node the left subtree holds strictly smaller keys and the right subtree holds
// keys greater than or equal to it. Parent links are lookup-only.
type Tree[K cmp.Ordered, V any] struct {
	allocator *Allocator[K, V]
	root      Handle
	count     int
}

// NewTree creates an empty tree backed by the given allocator.
func NewTree[K cmp.Ordered, V any](allocator *Allocator[K, V]) *Tree[K, V] {
	return &Tree[K, V]{allocator: allocator}
}

// New creates an empty tree with its own allocator.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return NewTree(NewAllocator[K, V]())
}

func (tree *Tree[K, V]) storage() []node[K, V] {
	return tree.allocator.storage
}

// Allocator returns the bound nodes allocator.
func (tree *Tree[K, V]) Allocator() *Allocator[K, V] {
	return tree.allocator
}

// Len returns the number of nodes in the tree.
func (tree *Tree[K, V]) Len() int {
	return tree.count
}

// Root returns the handle of the root node, or Nil for an empty tree.
func (tree *Tree[K, V]) Root() Handle {
	return tree.root
}

// Parent returns the parent of the node, or Nil for the root.
func (tree *Tree[K, V]) Parent(handle Handle) Handle {
	return tree.storage()[handle].parent
}

// Left returns the left child of the node.
func (tree *Tree[K, V]) Left(handle Handle) Handle {
	return tree.storage()[handle].left
}

// Right returns the right child of the node.
func (tree *Tree[K, V]) Right(handle Handle) Handle {
	return tree.storage()[handle].right
}

// Key returns the key stored in the node.
func (tree *Tree[K, V]) Key(handle Handle) K {
	return tree.storage()[handle].item.Key
}

// Item returns the node's item. The pointer allows mutating the payload and is
// valid until the next Insert. Changing the key breaks the ordering.
func (tree *Tree[K, V]) Item(handle Handle) *Item[K, V] {
	return &tree.storage()[handle].item
}

// Insert attaches a new node at the first free child slot reached by descending
// from the root and returns its handle. It never fails.
func (tree *Tree[K, V]) Insert(key K, value V) Handle {
	if tree.root == Nil {
		handle := tree.allocator.malloc()
		tree.storage()[handle].item = Item[K, V]{Key: key, Value: value}
		tree.root = handle
		tree.count++

		return handle
	}

	parent := tree.root

	for {
		parentNode := tree.storage()[parent]

		if key >= parentNode.item.Key {
			if parentNode.right == Nil {
				return tree.attach(parent, key, value, false)
			}

			parent = parentNode.right

			continue
		}

		if parentNode.left == Nil {
			return tree.attach(parent, key, value, true)
		}

		parent = parentNode.left
	}
}

func (tree *Tree[K, V]) attach(parent Handle, key K, value V, asLeft bool) Handle {
	handle := tree.allocator.malloc()

	storage := tree.storage()
	newNode := &storage[handle]
	newNode.item = Item[K, V]{Key: key, Value: value}
	newNode.parent = parent

	if asLeft {
		storage[parent].left = handle
	} else {
		storage[parent].right = handle
	}

	tree.count++

	return handle
}

// Find descends from the root and returns the first node holding key.
func (tree *Tree[K, V]) Find(key K) (Handle, bool) {
	storage := tree.storage()
	cursor := tree.root

	for cursor != Nil && storage[cursor].item.Key != key {
		if key < storage[cursor].item.Key {
			cursor = storage[cursor].left
		} else {
			cursor = storage[cursor].right
		}
	}

	return cursor, cursor != Nil
}

// Contains reports whether the key is present.
func (tree *Tree[K, V]) Contains(key K) bool {
	_, found := tree.Find(key)

	return found
}

// Remove deletes one node holding key. Returns true iff such a node was found.
func (tree *Tree[K, V]) Remove(key K) bool {
	handle, found := tree.Find(key)
	if !found {
		return false
	}

	tree.RemoveAt(handle)

	return true
}

// Delete is Remove reporting a miss as ErrKeyNotFound.
func (tree *Tree[K, V]) Delete(key K) error {
	if !tree.Remove(key) {
		return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	return nil
}

// RemoveAt deletes the node addressed by handle.
//
// A node with two children is not excised: it receives the item of its in-order
// successor, and the successor's slot is unlinked instead. In that case the
// returned handle is the surviving node, now holding the successor's item;
// otherwise the result is Nil. Handles to the unlinked node become invalid.
func (tree *Tree[K, V]) RemoveAt(handle Handle) Handle {
	storage := tree.storage()
	survivor := Nil

	if storage[handle].left != Nil && storage[handle].right != Nil {
		succ := doNext(handle, storage)
		storage[handle].item = storage[succ].item
		survivor = handle
		handle = succ
	}

	child := storage[handle].left
	if child == Nil {
		child = storage[handle].right
	}

	tree.replaceNode(handle, child)
	tree.allocator.free(handle)
	tree.count--

	return survivor
}

// replaceNode puts newn into oldn's slot under oldn's parent.
func (tree *Tree[K, V]) replaceNode(oldn, newn Handle) {
	storage := tree.storage()
	parent := storage[oldn].parent

	switch {
	case parent == Nil:
		tree.root = newn
	case oldn == storage[parent].left:
		storage[parent].left = newn
	default:
		storage[parent].right = newn
	}

	if newn != Nil {
		storage[newn].parent = parent
	}
}

// Minimum returns the smallest key.
func (tree *Tree[K, V]) Minimum() (K, error) {
	if tree.root == Nil {
		var zero K

		return zero, ErrEmptyTree
	}

	return tree.Key(leftmost(tree.root, tree.storage())), nil
}

// Maximum returns the largest key.
func (tree *Tree[K, V]) Maximum() (K, error) {
	if tree.root == Nil {
		var zero K

		return zero, ErrEmptyTree
	}

	return tree.Key(rightmost(tree.root, tree.storage())), nil
}

// Depth returns the number of levels, 0 for an empty tree. It walks every node.
func (tree *Tree[K, V]) Depth() int {
	return depth(tree.root, tree.storage())
}

// DepthOf returns the number of edges between the root and the node.
func (tree *Tree[K, V]) DepthOf(handle Handle) int {
	storage := tree.storage()
	level := 0

	for parent := storage[handle].parent; parent != Nil; parent = storage[parent].parent {
		level++
	}

	return level
}

// MinimumNodeDepth returns the length of the left spine starting at the root.
func (tree *Tree[K, V]) MinimumNodeDepth() int {
	storage := tree.storage()
	levels := 0

	for cursor := tree.root; cursor != Nil; cursor = storage[cursor].left {
		levels++
	}

	return levels
}

// MaximumNodeDepth returns the length of the right spine starting at the root.
func (tree *Tree[K, V]) MaximumNodeDepth() int {
	storage := tree.storage()
	levels := 0

	for cursor := tree.root; cursor != Nil; cursor = storage[cursor].right {
		levels++
	}

	return levels
}

// Clear releases every node bottom-up. Calling it on an empty tree is a no-op.
func (tree *Tree[K, V]) Clear() {
	tree.release(tree.root)
	tree.root = Nil
	tree.count = 0
}

func (tree *Tree[K, V]) release(handle Handle) {
	if handle == Nil {
		return
	}

	left, right := tree.storage()[handle].left, tree.storage()[handle].right
	tree.release(left)
	tree.release(right)
	tree.allocator.free(handle)
}

// Successor returns the node following handle in sorted order, or Nil.
func (tree *Tree[K, V]) Successor(handle Handle) Handle {
	return doNext(handle, tree.storage())
}

// Predecessor returns the node preceding handle in sorted order, or Nil.
func (tree *Tree[K, V]) Predecessor(handle Handle) Handle {
	prev := doPrev(handle, tree.storage())
	if prev == negativeLimit {
		return Nil
	}

	return prev
}

func depth[K cmp.Ordered, V any](handle Handle, storage []node[K, V]) int {
	if handle == Nil {
		return 0
	}

	return max(depth(storage[handle].left, storage), depth(storage[handle].right, storage)) + 1
}

func leftmost[K cmp.Ordered, V any](handle Handle, storage []node[K, V]) Handle {
	for storage[handle].left != Nil {
		handle = storage[handle].left
	}

	return handle
}

func rightmost[K cmp.Ordered, V any](handle Handle, storage []node[K, V]) Handle {
	for storage[handle].right != Nil {
		handle = storage[handle].right
	}

	return handle
}

// Return the minimum node that's larger than N. Return Nil if no such
// node is found.
func doNext[K cmp.Ordered, V any](handle Handle, storage []node[K, V]) Handle {
	if storage[handle].right != Nil {
		return leftmost(storage[handle].right, storage)
	}

	for handle != Nil {
		parent := storage[handle].parent
		if parent == Nil {
			return Nil
		}

		if storage[parent].left == handle {
			return parent
		}

		handle = parent
	}

	return Nil
}

// Return the maximum node that's smaller than N. Return negativeLimit if no
// such node is found.
func doPrev[K cmp.Ordered, V any](handle Handle, storage []node[K, V]) Handle {
	if storage[handle].left != Nil {
		return rightmost(storage[handle].left, storage)
	}

	for handle != Nil {
		parent := storage[handle].parent
		if parent == Nil {
			break
		}

		if storage[parent].right == handle {
			return parent
		}

		handle = parent
	}

	return negativeLimit
}
