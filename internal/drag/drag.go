package drag

import (
	"fmt"
	"math"
)

// Offset is an accumulated translation in canvas pixels.
type Offset struct {
	X float64
	Y float64
}

// Transform renders the offset as a CSS-style translate transform.
func (o Offset) Transform() string {
	return fmt.Sprintf("translate(%gpx, %gpx)", o.X, o.Y)
}

// Target is anything that can be repositioned by dragging.
// Offset reports false when the target has never been moved.
// Update replaces the stored offset with fn applied to it as one atomic
// step and returns the result.
type Target interface {
	Offset() (Offset, bool)
	Update(fn func(Offset) Offset) Offset
}

// Move adds a frame delta to the target's stored offset.
// A target without a stored offset starts from (0,0).
func Move(t Target, dx, dy float64) Offset {
	return t.Update(func(cur Offset) Offset {
		return Offset{X: cur.X + dx, Y: cur.Y + dy}
	})
}

// FrameRate is the number of inertia frames per second.
const FrameRate = 60

// maxFrames bounds an inertial glide to ten seconds.
const maxFrames = FrameRate * 10

// Inertia continues a drag after release, decaying the release velocity
// every frame until it falls under MinSpeed.
type Inertia struct {
	Resistance float64 // fraction of velocity lost per frame, 0..1
	MinSpeed   float64 // px/s
}

// DefaultInertia mirrors the feel of a typical browser drag library.
func DefaultInertia() Inertia {
	return Inertia{Resistance: 0.1, MinSpeed: 20}
}

// Frames returns the per-frame deltas of a glide starting at (vx, vy) px/s.
func (in Inertia) Frames(vx, vy float64) []Offset {
	if in.Resistance <= 0 || in.Resistance >= 1 {
		return nil
	}
	var frames []Offset
	for i := 0; i < maxFrames; i++ {
		if math.Hypot(vx, vy) < in.MinSpeed {
			break
		}
		frames = append(frames, Offset{X: vx / FrameRate, Y: vy / FrameRate})
		vx *= 1 - in.Resistance
		vy *= 1 - in.Resistance
	}
	return frames
}

// Glide applies every inertia frame to the target as an ordinary move.
func (in Inertia) Glide(t Target, vx, vy float64) Offset {
	cur, _ := t.Offset()
	for _, f := range in.Frames(vx, vy) {
		cur = Move(t, f.X, f.Y)
	}
	return cur
}
