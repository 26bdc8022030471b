package bst

import (
	"errors"
	"fmt"
)

// ErrCorrupted is returned by Check when a structural invariant does not hold.
var ErrCorrupted = errors.New("bst: tree invariant violated")

// Check verifies the ordering of every subtree, the parent back-links and the
// node counter. It walks the whole tree.
func (tree *Tree[K, V]) Check() error {
	if tree.root != Nil && tree.storage()[tree.root].parent != Nil {
		return fmt.Errorf("%w: root has a parent", ErrCorrupted)
	}

	reachable, err := tree.checkSubtree(tree.root, nil, nil)
	if err != nil {
		return err
	}

	if reachable != tree.count {
		return fmt.Errorf("%w: size %d but %d reachable nodes", ErrCorrupted, tree.count, reachable)
	}

	return nil
}

// checkSubtree enforces lower <= key < upper, where nil bounds are open.
func (tree *Tree[K, V]) checkSubtree(handle Handle, lower, upper *K) (int, error) {
	if handle == Nil {
		return 0, nil
	}

	storage := tree.storage()
	nd := storage[handle]
	key := nd.item.Key

	if lower != nil && key < *lower {
		return 0, fmt.Errorf("%w: key %v below its lower bound %v", ErrCorrupted, key, *lower)
	}

	if upper != nil && key >= *upper {
		return 0, fmt.Errorf("%w: key %v not below its upper bound %v", ErrCorrupted, key, *upper)
	}

	for _, child := range [2]Handle{nd.left, nd.right} {
		if child != Nil && storage[child].parent != handle {
			return 0, fmt.Errorf("%w: child of %v has a stale parent link", ErrCorrupted, key)
		}
	}

	left, err := tree.checkSubtree(nd.left, lower, &key)
	if err != nil {
		return 0, err
	}

	right, err := tree.checkSubtree(nd.right, &key, upper)
	if err != nil {
		return 0, err
	}

	return left + right + 1, nil
}
