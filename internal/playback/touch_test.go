package playback

import (
	"testing"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
)

func TestTouchOverlay_ActiveThenFadeOnEnd(t *testing.T) {
	o := NewTouchOverlay(0.3, 0.6)

	o.PushFrames([]TouchFrame{
		{FingerID: 1, Time: 0.0, Pos: geom.Vector{X: 0, Y: 0}},
		{FingerID: 1, Time: 0.1, Pos: geom.Vector{X: 10, Y: 0}},
	})

	rendered := o.Render(0.1)
	if len(rendered) != 1 {
		t.Fatalf("want 1 active touch, got %d", len(rendered))
	}
	if rendered[0].Alpha != 0.6 {
		t.Fatalf("active touch alpha = %v, want base TouchAlpha 0.6", rendered[0].Alpha)
	}

	// End the touch (bitwise-inverted finger id).
	o.PushFrames([]TouchFrame{{FingerID: ^int64(1), Time: 0.2}})

	mid := o.Render(0.2)
	if len(mid) != 1 || mid[0].Alpha != 0.6 {
		t.Fatalf("want full alpha at the moment of end, got %+v", mid)
	}

	faded := o.Render(0.35) // halfway through the 0.3s fade window
	if len(faded) != 1 {
		t.Fatalf("want the touch still fading, got %+v", faded)
	}
	if faded[0].Alpha <= 0 || faded[0].Alpha >= 0.6 {
		t.Fatalf("want a partially faded alpha, got %v", faded[0].Alpha)
	}

	o.Sweep(0.6) // past end_time + fade_time (0.2 + 0.3 = 0.5)
	if gone := o.Render(0.6); len(gone) != 0 {
		t.Fatalf("want the touch discarded after its fade window, got %+v", gone)
	}
}

func TestTouchOverlay_StaleSweepWithoutEndFrame(t *testing.T) {
	o := NewTouchOverlay(0.3, 0.6)
	o.PushFrames([]TouchFrame{{FingerID: 2, Time: 0.0, Pos: geom.Vector{}}})

	// No end-frame arrives; after touchStaleTimeout (2.0s) of silence the
	// overlay should sweep it to fading defensively.
	o.Sweep(2.5)
	rendered := o.Render(2.5)
	if len(rendered) != 1 {
		t.Fatalf("want the stale touch swept to fading (still rendered during its fade), got %+v", rendered)
	}
}

func TestTouchOverlayProjection(t *testing.T) {
	m := TouchOverlayProjection(16.0 / 9.0)
	p := m.Apply(geom.Vector{X: 1, Y: 1})
	wantY := -1 / (16.0 / 9.0)
	if p.X != 1 {
		t.Fatalf("X should pass through unchanged, got %v", p.X)
	}
	if p.Y != wantY {
		t.Fatalf("Y = %v, want %v", p.Y, wantY)
	}
}
