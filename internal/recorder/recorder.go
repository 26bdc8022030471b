// Package recorder keeps a bounded history of animation frames in a compact
// columnar form. Every per-node field is stored as one LZ4-compressed uint32
// column; keys are delta-encoded since frames list nodes in key order.
package recorder

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Sumatoshi-tech/bstviz/pkg/bst"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
	"github.com/Sumatoshi-tech/bstviz/pkg/safeconv"
)

// ErrInvalidCapacity is returned by New for non-positive sizes.
var ErrInvalidCapacity = errors.New("recorder: capacity and sampling period must be positive")

const repositioningFlag = 1

// Column indexes inside a packed frame.
const (
	colHandle = iota
	colParent
	colKey
	colLevel
	colPosX
	colPosY
	colTargetX
	colTargetY
	colFlags
	columnCount
)

// packedFrame is a frame whose node list has been split into columns.
type packedFrame struct {
	header  layout.Frame
	columns [columnCount]column
}

// Recorder is a ring buffer of packed frames. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	frames   []packedFrame
	start    int
	every    int
	offered  int
	recorded int
}

// New creates a recorder holding at most capacity frames and keeping one frame
// out of every offered ones.
func New(capacity, every int) (*Recorder, error) {
	if capacity <= 0 || every <= 0 {
		return nil, fmt.Errorf("%w: capacity %d, every %d", ErrInvalidCapacity, capacity, every)
	}

	return &Recorder{frames: make([]packedFrame, 0, capacity), every: every}, nil
}

// Record offers a frame. It reports whether the frame was kept. Once the ring
// is full the oldest frame is overwritten.
func (r *Recorder) Record(frame layout.Frame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.offered++
	if (r.offered-1)%r.every != 0 {
		return false
	}

	packed := pack(frame)
	r.recorded++

	if len(r.frames) < cap(r.frames) {
		r.frames = append(r.frames, packed)

		return true
	}

	r.frames[r.start] = packed
	r.start = (r.start + 1) % len(r.frames)

	return true
}

// Len returns the number of frames held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.frames)
}

// Dropped returns how many kept frames were later overwritten.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.recorded - len(r.frames)
}

// Bytes returns the packed size of the node columns.
func (r *Recorder) Bytes() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0

	for _, pf := range r.frames {
		for _, col := range pf.columns {
			total += col.size()
		}
	}

	return total
}

// Reset drops every frame and the sampling phase.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames = r.frames[:0]
	r.start = 0
	r.offered = 0
	r.recorded = 0
}

// Frames decodes the held frames, oldest first. Coordinates come back with
// float32 precision.
func (r *Recorder) Frames() ([]layout.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := make([]layout.Frame, 0, len(r.frames))

	for idx := range r.frames {
		pf := &r.frames[(r.start+idx)%len(r.frames)]

		frame, err := unpack(pf)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", idx, err)
		}

		frames = append(frames, frame)
	}

	return frames, nil
}

func pack(frame layout.Frame) packedFrame {
	var cols [columnCount][]uint32

	for idx := range cols {
		cols[idx] = make([]uint32, len(frame.Nodes))
	}

	for idx, nv := range frame.Nodes {
		cols[colHandle][idx] = uint32(nv.Handle)
		cols[colParent][idx] = uint32(nv.Parent)
		cols[colKey][idx] = uint32(int32(nv.Key)) //nolint:gosec // keys are two-digit.
		cols[colLevel][idx] = safeconv.MustIntToUint32(nv.Level)
		cols[colPosX][idx] = math.Float32bits(float32(nv.Position.X))
		cols[colPosY][idx] = math.Float32bits(float32(nv.Position.Y))
		cols[colTargetX][idx] = math.Float32bits(float32(nv.Target.X))
		cols[colTargetY][idx] = math.Float32bits(float32(nv.Target.Y))

		flags := uint32(nv.Highlight) << 1
		if nv.Repositioning {
			flags |= repositioningFlag
		}

		cols[colFlags][idx] = flags
	}

	deltaEncode(cols[colKey])

	packed := packedFrame{header: frame}
	packed.header.Nodes = nil

	for idx, values := range cols {
		packed.columns[idx] = packColumn(values)
	}

	return packed
}

func unpack(pf *packedFrame) (layout.Frame, error) {
	var cols [columnCount][]uint32

	for idx, col := range pf.columns {
		values, err := unpackColumn(col)
		if err != nil {
			return layout.Frame{}, err
		}

		cols[idx] = values
	}

	deltaDecode(cols[colKey])

	frame := pf.header
	frame.Nodes = make([]layout.NodeView, len(cols[colHandle]))
	index := make(map[bst.Handle]int, len(frame.Nodes))

	for idx := range frame.Nodes {
		key := int(int32(cols[colKey][idx])) //nolint:gosec // inverse of pack.
		flags := cols[colFlags][idx]

		frame.Nodes[idx] = layout.NodeView{
			Handle: bst.Handle(cols[colHandle][idx]),
			Parent: bst.Handle(cols[colParent][idx]),
			Key:    key,
			Label:  layout.Label(key),
			Level:  safeconv.MustUint32ToInt(cols[colLevel][idx]),
			Position: layout.Vec2{
				X: float64(math.Float32frombits(cols[colPosX][idx])),
				Y: float64(math.Float32frombits(cols[colPosY][idx])),
			},
			Target: layout.Vec2{
				X: float64(math.Float32frombits(cols[colTargetX][idx])),
				Y: float64(math.Float32frombits(cols[colTargetY][idx])),
			},
			Repositioning: flags&repositioningFlag != 0,
			Highlight:     layout.Highlight(flags >> 1), //nolint:gosec // written from a Highlight.
		}
		index[frame.Nodes[idx].Handle] = idx
	}

	linkChildren(frame.Nodes, index)

	return frame, nil
}

// linkChildren rebuilds the edge ends from parent links. Smaller keys hang on
// the left, equal and greater keys on the right.
func linkChildren(nodes []layout.NodeView, index map[bst.Handle]int) {
	for idx := range nodes {
		parentIdx, ok := index[nodes[idx].Parent]
		if !ok {
			continue
		}

		child := &layout.Child{Handle: nodes[idx].Handle, Position: nodes[idx].Position}

		if nodes[idx].Key < nodes[parentIdx].Key {
			nodes[parentIdx].Left = child
		} else {
			nodes[parentIdx].Right = child
		}
	}
}
