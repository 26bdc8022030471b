package layout

import (
	"errors"
	"fmt"
	"slices"
)

// Highlight is the transient visual tag of a node. It never affects ordering.
type Highlight uint8

// Highlight values.
const (
	HighlightNone Highlight = iota
	HighlightInserted
	HighlightSearched
	HighlightDeleted
)

var highlightNames = [...]string{"none", "inserted", "searched", "deleted"}

// String returns the lower-case name of the highlight.
func (h Highlight) String() string {
	if int(h) < len(highlightNames) {
		return highlightNames[h]
	}

	return "unknown"
}

// SearchState is the phase of the animated search.
type SearchState uint8

// Search states.
const (
	SearchIdle SearchState = iota
	SearchSearching
	SearchFound
	SearchNotFound
)

var searchStateNames = [...]string{"idle", "searching", "found", "not_found"}

// String returns the snake-case name of the state.
func (s SearchState) String() string {
	if int(s) < len(searchStateNames) {
		return searchStateNames[s]
	}

	return "unknown"
}

// Visual is the per-node render state kept next to the key in the tree arena.
type Visual struct {
	Position      Vec2
	Target        Vec2
	Repositioning bool
	Highlight     Highlight

	// highlightTTL counts down the seconds left for inserted/deleted tags.
	highlightTTL float64
}

func (v *Visual) fading() bool {
	return v.Highlight == HighlightInserted || v.Highlight == HighlightDeleted
}

// ErrUnknownName is returned when decoding an unknown highlight or state name.
var ErrUnknownName = errors.New("unknown name")

// MarshalText encodes the highlight by name.
func (h Highlight) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a highlight name.
func (h *Highlight) UnmarshalText(text []byte) error {
	idx := slices.Index(highlightNames[:], string(text))
	if idx < 0 {
		return fmt.Errorf("highlight %q: %w", text, ErrUnknownName)
	}

	*h = Highlight(idx)

	return nil
}

// MarshalText encodes the state by name.
func (s SearchState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *SearchState) UnmarshalText(text []byte) error {
	idx := slices.Index(searchStateNames[:], string(text))
	if idx < 0 {
		return fmt.Errorf("search state %q: %w", text, ErrUnknownName)
	}

	*s = SearchState(idx)

	return nil
}
