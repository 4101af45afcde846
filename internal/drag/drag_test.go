package drag

import (
	"math"
	"testing"
)

type box struct {
	off Offset
	set bool
}

func (b *box) Offset() (Offset, bool) { return b.off, b.set }
func (b *box) Update(fn func(Offset) Offset) Offset {
	b.off, b.set = fn(b.off), true
	return b.off
}

func TestMoveFromZero(t *testing.T) {
	b := &box{}
	got := Move(b, 5, -3)
	if got != (Offset{X: 5, Y: -3}) {
		t.Errorf("expected (5,-3), got %+v", got)
	}
	if !b.set {
		t.Error("offset should be stored after a move")
	}
}

func TestMoveAccumulates(t *testing.T) {
	b := &box{}
	Move(b, 10, 4)
	got := Move(b, 2.5, 6)

	if got != (Offset{X: 12.5, Y: 10}) {
		t.Errorf("offsets should accumulate, got %+v", got)
	}
}

func TestTransform(t *testing.T) {
	o := Offset{X: 12.5, Y: -4}
	if o.Transform() != "translate(12.5px, -4px)" {
		t.Errorf("unexpected transform %q", o.Transform())
	}
}

func TestFramesDecay(t *testing.T) {
	in := Inertia{Resistance: 0.5, MinSpeed: 10}
	frames := in.Frames(120, 0)

	// 120 -> 60 -> 30 -> 15 -> 7.5 (stops)
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}
	if frames[0].X != 2 {
		t.Errorf("first frame should move 120/60 px, got %v", frames[0].X)
	}
	if frames[3].X >= frames[2].X {
		t.Error("frames should decay")
	}
}

func TestFramesBelowMinSpeed(t *testing.T) {
	in := Inertia{Resistance: 0.1, MinSpeed: 50}
	if frames := in.Frames(10, 10); len(frames) != 0 {
		t.Errorf("expected no frames, got %d", len(frames))
	}
}

func TestFramesInvalidResistance(t *testing.T) {
	if frames := (Inertia{Resistance: 0, MinSpeed: 1}).Frames(600, 0); frames != nil {
		t.Error("zero resistance should disable inertia")
	}
	if frames := (Inertia{Resistance: 1, MinSpeed: 1}).Frames(600, 0); frames != nil {
		t.Error("full resistance should disable inertia")
	}
}

func TestGlideContinuesFromStoredOffset(t *testing.T) {
	b := &box{}
	Move(b, 100, 100)

	in := Inertia{Resistance: 0.5, MinSpeed: 10}
	got := in.Glide(b, 120, 0)

	// 2 + 1 + 0.5 + 0.25
	if math.Abs(got.X-103.75) > 1e-9 {
		t.Errorf("expected x=103.75, got %v", got.X)
	}
	if got.Y != 100 {
		t.Errorf("y should not change, got %v", got.Y)
	}
}
