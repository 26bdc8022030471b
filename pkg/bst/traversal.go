package bst

import (
	"cmp"
	"iter"
)

// InOrder yields the keys in sorted order. The sequence can be ranged over
// any number of times; each range walks the tree as it is at that moment.
func (tree *Tree[K, V]) InOrder() iter.Seq[K] {
	return func(yield func(K) bool) {
		tree.inorder(tree.root, yield)
	}
}

// PreOrder yields the keys node-first, then the left and right subtrees.
func (tree *Tree[K, V]) PreOrder() iter.Seq[K] {
	return func(yield func(K) bool) {
		tree.preorder(tree.root, yield)
	}
}

// PostOrder yields the keys of the left and right subtrees, then the node.
func (tree *Tree[K, V]) PostOrder() iter.Seq[K] {
	return func(yield func(K) bool) {
		tree.postorder(tree.root, yield)
	}
}

// All yields every node handle with its item in sorted order.
func (tree *Tree[K, V]) All() iter.Seq2[Handle, *Item[K, V]] {
	return func(yield func(Handle, *Item[K, V]) bool) {
		for it := tree.Min(); !it.Limit(); it = it.Next() {
			if !yield(it.node, it.Item()) {
				return
			}
		}
	}
}

// The walkers return false once the consumer stops.

func (tree *Tree[K, V]) inorder(handle Handle, yield func(K) bool) bool {
	if handle == Nil {
		return true
	}

	nd := tree.storage()[handle]

	return tree.inorder(nd.left, yield) && yield(nd.item.Key) && tree.inorder(nd.right, yield)
}

func (tree *Tree[K, V]) preorder(handle Handle, yield func(K) bool) bool {
	if handle == Nil {
		return true
	}

	nd := tree.storage()[handle]

	return yield(nd.item.Key) && tree.preorder(nd.left, yield) && tree.preorder(nd.right, yield)
}

func (tree *Tree[K, V]) postorder(handle Handle, yield func(K) bool) bool {
	if handle == Nil {
		return true
	}

	nd := tree.storage()[handle]

	return tree.postorder(nd.left, yield) && tree.postorder(nd.right, yield) && yield(nd.item.Key)
}

// Collect drains a key sequence into a slice.
func Collect[K cmp.Ordered](seq iter.Seq[K]) []K {
	var keys []K

	for key := range seq {
		keys = append(keys, key)
	}

	return keys
}
