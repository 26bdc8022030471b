package layout

import (
	"errors"
	"fmt"
	"time"
)

// Layout and animation defaults.
const (
	DefaultHorizontalSpacing = 15.0
	DefaultVerticalSpacing   = 80.0
	DefaultMoveSpeed         = 100.0
	DefaultEpsilon           = 1.0
	DefaultNodeRadius        = 22.0
	DefaultSearchStep        = 500 * time.Millisecond
	DefaultSearchDecay       = 1500 * time.Millisecond
	DefaultHighlightDecay    = time.Second
	DefaultCameraMargin      = 100.0
	DefaultInitialViewSize   = 150.0
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid layout parameters")

// Params configures the geometry and timing of a Controller.
type Params struct {
	// HorizontalSpacing multiplies the squared level multiplier of each branch.
	HorizontalSpacing float64
	// VerticalSpacing is the distance between two consecutive levels.
	VerticalSpacing float64
	// MoveSpeed is how far a node travels per second towards its target.
	MoveSpeed float64
	// Epsilon is the distance under which a node counts as settled.
	Epsilon    float64
	NodeRadius float64

	SearchStep     time.Duration
	SearchDecay    time.Duration
	HighlightDecay time.Duration

	CameraMargin    float64
	InitialViewSize float64

	// Anchor is the root position used when Insert gets no explicit one.
	Anchor Vec2
}

// DefaultParams returns the stock geometry.
func DefaultParams() Params {
	return Params{
		HorizontalSpacing: DefaultHorizontalSpacing,
		VerticalSpacing:   DefaultVerticalSpacing,
		MoveSpeed:         DefaultMoveSpeed,
		Epsilon:           DefaultEpsilon,
		NodeRadius:        DefaultNodeRadius,
		SearchStep:        DefaultSearchStep,
		SearchDecay:       DefaultSearchDecay,
		HighlightDecay:    DefaultHighlightDecay,
		CameraMargin:      DefaultCameraMargin,
		InitialViewSize:   DefaultInitialViewSize,
	}
}

// Validate checks that every distance, speed and duration is usable.
func (p Params) Validate() error {
	switch {
	case p.HorizontalSpacing <= 0:
		return fmt.Errorf("%w: horizontal spacing %v must be positive", ErrInvalidParams, p.HorizontalSpacing)
	case p.VerticalSpacing <= 0:
		return fmt.Errorf("%w: vertical spacing %v must be positive", ErrInvalidParams, p.VerticalSpacing)
	case p.MoveSpeed <= 0:
		return fmt.Errorf("%w: move speed %v must be positive", ErrInvalidParams, p.MoveSpeed)
	case p.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon %v must be positive", ErrInvalidParams, p.Epsilon)
	case p.NodeRadius < 0:
		return fmt.Errorf("%w: node radius %v must not be negative", ErrInvalidParams, p.NodeRadius)
	case p.SearchStep <= 0:
		return fmt.Errorf("%w: search step %v must be positive", ErrInvalidParams, p.SearchStep)
	case p.SearchDecay < 0 || p.HighlightDecay < 0:
		return fmt.Errorf("%w: decay durations must not be negative", ErrInvalidParams)
	case p.CameraMargin < 0 || p.InitialViewSize < 0:
		return fmt.Errorf("%w: camera sizes must not be negative", ErrInvalidParams)
	}

	return nil
}

// offset is the horizontal distance between a parent and its children when
// the parent sits at the given level multiplier.
func (p Params) offset(multiplier int) float64 {
	m := float64(multiplier)

	return m * m * p.HorizontalSpacing
}
