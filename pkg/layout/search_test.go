package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

func stepDT() float64 {
	return layout.DefaultSearchStep.Seconds()
}

func highlighted(frame layout.Frame) []int {
	var keys []int

	for _, nv := range frame.Nodes {
		if nv.Highlight == layout.HighlightSearched {
			keys = append(keys, nv.Key)
		}
	}

	return keys
}

func TestSearchFindsKeyOneLevelPerStep(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, sevenKeys...)
	ctrl.Search(40)
	assert.Equal(t, "Searching: 40", ctrl.Status())
	assert.Equal(t, layout.SearchSearching, ctrl.SearchState())

	assert.Equal(t, "Searching: 40", ctrl.Tick(stepDT()))
	assert.Equal(t, []int{50}, highlighted(ctrl.Snapshot()))

	ctrl.Tick(stepDT())
	assert.Equal(t, []int{25}, highlighted(ctrl.Snapshot()))

	assert.Equal(t, "Found: 40", ctrl.Tick(stepDT()))
	assert.Equal(t, layout.SearchFound, ctrl.SearchState())
	assert.Equal(t, 3, ctrl.SearchSteps())
	assert.Equal(t, []int{40}, highlighted(ctrl.Snapshot()))
}

func TestSearchDecaysToIdle(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, sevenKeys...)
	ctrl.Search(50)
	ctrl.Tick(stepDT())
	require.Equal(t, layout.SearchFound, ctrl.SearchState())

	ctrl.Tick(layout.DefaultSearchDecay.Seconds() / 2)
	assert.Equal(t, layout.SearchFound, ctrl.SearchState())

	ctrl.Tick(layout.DefaultSearchDecay.Seconds() / 2)
	assert.Equal(t, layout.SearchIdle, ctrl.SearchState())
	assert.Empty(t, highlighted(ctrl.Snapshot()))
	assert.Equal(t, "Found: 50", ctrl.Status())
}

func TestSearchMissUsesDepthPlusOneSteps(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, sevenKeys...)
	ctrl.Search(41)

	for range ctrl.Depth() {
		ctrl.Tick(stepDT())
		assert.Equal(t, layout.SearchSearching, ctrl.SearchState())
	}

	assert.Equal(t, "Not found: 41", ctrl.Tick(stepDT()))
	assert.Equal(t, layout.SearchNotFound, ctrl.SearchState())
	assert.Equal(t, ctrl.Depth()+1, ctrl.SearchSteps())
	assert.Empty(t, highlighted(ctrl.Snapshot()))
}

func TestSearchAtMostOneComparisonPerTick(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, 50, 40, 30, 20, 10, 5)
	ctrl.Search(5)

	previous := 0

	for range testMaxTicks {
		ctrl.Tick(0.07)

		steps := ctrl.SearchSteps()
		if ctrl.SearchState() == layout.SearchIdle {
			break
		}

		assert.LessOrEqual(t, steps-previous, 1)
		assert.LessOrEqual(t, steps, ctrl.Depth()+1)
		previous = steps
	}

	assert.Equal(t, layout.SearchIdle, ctrl.SearchState())
	assert.Equal(t, "Found: 5", ctrl.Status())
}

func TestSearchTerminatesForEveryKey(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, 8, 3, 10, 1, 6, 14, 4, 7, 13, 8)

	for key := range 16 {
		ctrl.Search(key)

		ticks := 0
		for ctrl.SearchState() == layout.SearchSearching {
			ctrl.Tick(stepDT())
			ticks++
		}

		assert.LessOrEqual(t, ctrl.SearchSteps(), ctrl.Depth()+1, "key %d", key)
		assert.Equal(t, ticks, ctrl.SearchSteps(), "key %d", key)

		if ctrl.Contains(key) {
			assert.Equal(t, layout.SearchFound, ctrl.SearchState(), "key %d", key)
		} else {
			assert.Equal(t, layout.SearchNotFound, ctrl.SearchState(), "key %d", key)
		}

		ctrl.Tick(layout.DefaultSearchDecay.Seconds())
		assert.Equal(t, layout.SearchIdle, ctrl.SearchState())
	}
}

func TestSearchEmptyTree(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t)
	ctrl.Search(7)

	assert.Equal(t, layout.SearchNotFound, ctrl.SearchState())
	assert.Equal(t, "Not found: 7", ctrl.Status())
	assert.Equal(t, 0, ctrl.SearchSteps())

	ctrl.Tick(layout.DefaultSearchDecay.Seconds())
	assert.Equal(t, layout.SearchIdle, ctrl.SearchState())
}

func TestNewSearchRestarts(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, sevenKeys...)
	ctrl.Search(90)
	ctrl.Tick(stepDT())
	ctrl.Tick(stepDT())
	require.Equal(t, []int{75}, highlighted(ctrl.Snapshot()))

	ctrl.Search(10)
	assert.Empty(t, highlighted(ctrl.Snapshot()))
	assert.Equal(t, 0, ctrl.SearchSteps())

	ctrl.Tick(stepDT())
	assert.Equal(t, []int{50}, highlighted(ctrl.Snapshot()))
}

func TestRemoveCancelsSearch(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, sevenKeys...)
	ctrl.Search(90)
	ctrl.Tick(stepDT())

	require.True(t, ctrl.Remove(75))
	assert.Equal(t, layout.SearchIdle, ctrl.SearchState())
	assert.Empty(t, highlighted(ctrl.Snapshot()))
}

func TestInsertKeepsSearchRunning(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, 50, 25)
	ctrl.Search(30)
	ctrl.Tick(stepDT())

	ctrl.Insert(30)
	assert.Equal(t, "Inserted: 30", ctrl.Status())

	ctrl.Tick(stepDT())
	assert.Equal(t, "Found: 30", ctrl.Tick(stepDT()))
}

func TestSearchSeesKeyInsertedIntoEmptySlot(t *testing.T) {
	t.Parallel()

	ctrl := newSeeded(t, sevenKeys...)
	ctrl.Search(41)

	for range ctrl.Depth() {
		ctrl.Tick(stepDT())
	}

	require.Equal(t, layout.SearchSearching, ctrl.SearchState())

	ctrl.Insert(41)

	assert.Equal(t, "Found: 41", ctrl.Tick(stepDT()))
	assert.Equal(t, layout.SearchFound, ctrl.SearchState())
	assert.Equal(t, ctrl.Depth(), ctrl.SearchSteps())
	assert.Equal(t, []int{41}, highlighted(ctrl.Snapshot()))
}
