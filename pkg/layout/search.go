package layout

import (
	"strconv"

	"github.com/Sumatoshi-tech/bstviz/pkg/bst"
)

// searchMachine is the state kept between ticks by the animated search.
type searchMachine struct {
	state  SearchState
	target int
	cursor bst.Handle
	// parent is the last node compared; an empty cursor is re-read from it
	// since an insert may have filled the slot.
	parent bst.Handle
	// marked is the node highlighted by the previous comparison.
	marked bst.Handle
	// timer counts down to the next comparison while searching and to the
	// return to idle once the search is over.
	timer float64
	steps int
}

// Search starts an animated lookup of key, cancelling any previous one. The
// first comparison happens on the next tick, then one per SearchStep. An empty
// tree ends the search at once with NotFound.
func (c *Controller) Search(key int) {
	c.resetSearch()

	c.search.target = key
	c.search.cursor = c.tree.Root()

	if c.search.cursor == bst.Nil {
		c.finishSearch(SearchNotFound, statusNotFound)

		return
	}

	c.search.state = SearchSearching
	c.status = statusSearching + strconv.Itoa(key)
}

// SearchState returns the phase of the animated search.
func (c *Controller) SearchState() SearchState {
	return c.search.state
}

// SearchSteps returns the number of comparisons made by the current search.
func (c *Controller) SearchSteps() int {
	return c.search.steps
}

func (c *Controller) resetSearch() {
	c.clearHighlight(HighlightSearched)
	c.search = searchMachine{}
}

func (c *Controller) stepSearch(dt float64) {
	switch c.search.state {
	case SearchIdle:
		return
	case SearchFound, SearchNotFound:
		c.search.timer -= dt
		if c.search.timer <= 0 {
			c.clearAllHighlights()
			c.search = searchMachine{}
		}

		return
	case SearchSearching:
	}

	c.search.timer -= dt
	if c.search.timer > 0 {
		return
	}

	c.search.timer = c.params.SearchStep.Seconds()

	if c.search.marked != bst.Nil {
		c.tree.Item(c.search.marked).Value.Highlight = HighlightNone
		c.search.marked = bst.Nil
	}

	cursor := c.search.cursor
	if cursor == bst.Nil && c.search.parent != bst.Nil {
		cursor = c.childToward(c.search.parent)
	}

	if cursor == bst.Nil {
		c.search.steps++
		c.finishSearch(SearchNotFound, statusNotFound)

		return
	}

	c.search.steps++
	c.tree.Item(cursor).Value.Highlight = HighlightSearched
	c.search.marked = cursor

	if c.tree.Key(cursor) == c.search.target {
		c.finishSearch(SearchFound, statusFound)

		return
	}

	c.search.parent = cursor
	c.search.cursor = c.childToward(cursor)
}

// childToward returns the child of handle on the side of the search target.
func (c *Controller) childToward(handle bst.Handle) bst.Handle {
	if c.search.target < c.tree.Key(handle) {
		return c.tree.Left(handle)
	}

	return c.tree.Right(handle)
}

func (c *Controller) finishSearch(state SearchState, prefix string) {
	c.search.state = state
	c.search.timer = c.params.SearchDecay.Seconds()
	c.status = prefix + strconv.Itoa(c.search.target)
}

func (c *Controller) clearHighlight(highlight Highlight) {
	for _, item := range c.tree.All() {
		if item.Value.Highlight == highlight {
			item.Value.Highlight = HighlightNone
		}
	}
}

func (c *Controller) clearAllHighlights() {
	for _, item := range c.tree.All() {
		item.Value.Highlight = HighlightNone
		item.Value.highlightTTL = 0
	}
}
