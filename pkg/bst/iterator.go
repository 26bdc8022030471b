package bst

import "cmp"

// Iterator allows scanning tree elements in sort order.
//
// An iterator is invalidated by any structural mutation of the tree.
type Iterator[K cmp.Ordered, V any] struct {
	tree *Tree[K, V]
	node Handle
}

// Min creates an iterator that points to the minimum item in the tree.
// If the tree is empty, returns Limit().
func (tree *Tree[K, V]) Min() Iterator[K, V] {
	if tree.root == Nil {
		return tree.Limit()
	}

	return Iterator[K, V]{tree, leftmost(tree.root, tree.storage())}
}

// Max creates an iterator that points at the maximum item in the tree.
// If the tree is empty, returns NegativeLimit().
func (tree *Tree[K, V]) Max() Iterator[K, V] {
	if tree.root == Nil {
		return tree.NegativeLimit()
	}

	return Iterator[K, V]{tree, rightmost(tree.root, tree.storage())}
}

// Limit creates an iterator that points beyond the maximum item in the tree.
func (tree *Tree[K, V]) Limit() Iterator[K, V] {
	return Iterator[K, V]{tree, Nil}
}

// NegativeLimit creates an iterator that points before the minimum item in the tree.
func (tree *Tree[K, V]) NegativeLimit() Iterator[K, V] {
	return Iterator[K, V]{tree, negativeLimit}
}

// At creates an iterator positioned on the given node.
func (tree *Tree[K, V]) At(handle Handle) Iterator[K, V] {
	return Iterator[K, V]{tree, handle}
}

// Limit checks if the iterator points beyond the max element in the tree.
func (iter Iterator[K, V]) Limit() bool {
	return iter.node == Nil
}

// NegativeLimit checks if the iterator points before the minimum element in the tree.
func (iter Iterator[K, V]) NegativeLimit() bool {
	return iter.node == negativeLimit
}

// Handle returns the node the iterator points at.
func (iter Iterator[K, V]) Handle() Handle {
	return iter.node
}

// Item returns the current element, or nil past either end.
func (iter Iterator[K, V]) Item() *Item[K, V] {
	if iter.Limit() || iter.NegativeLimit() {
		return nil
	}

	return iter.tree.Item(iter.node)
}

// Next creates a new iterator that points to the successor of the current element.
//
// REQUIRES: !iter.Limit().
func (iter Iterator[K, V]) Next() Iterator[K, V] {
	if iter.Limit() {
		panic("bst: Next called on Limit iterator")
	}

	if iter.NegativeLimit() {
		return iter.tree.Min()
	}

	return Iterator[K, V]{iter.tree, doNext(iter.node, iter.tree.storage())}
}

// Prev creates a new iterator that points to the predecessor of the current node.
//
// REQUIRES: !iter.NegativeLimit().
func (iter Iterator[K, V]) Prev() Iterator[K, V] {
	if iter.NegativeLimit() {
		panic("bst: Prev called on NegativeLimit iterator")
	}

	if iter.Limit() {
		return iter.tree.Max()
	}

	return Iterator[K, V]{iter.tree, doPrev(iter.node, iter.tree.storage())}
}
