package tween

import (
	"testing"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/easing"
)

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func TestFixedAnim(t *testing.T) {
	a := Fixed[Float](42)
	if got := a.Now(); got != 42 {
		t.Errorf("Now() = %v, want 42", got)
	}
}

func TestInterpolation(t *testing.T) {
	a := New([]Keyframe[Float]{
		NewKeyframe[Float](0, 0, StaticFn(easing.Linear)),
		NewKeyframe[Float](1, 100, StaticFn(easing.Linear)),
	})

	a.SetTime(0)
	if got := a.Now(); got != 0 {
		t.Errorf("Now() at t=0 = %v, want 0", got)
	}

	a.SetTime(0.5)
	if got := a.Now(); abs(float64(got)-50) > 0.001 {
		t.Errorf("Now() at t=0.5 = %v, want ~50", got)
	}

	a.SetTime(1)
	if got := a.Now(); got != 100 {
		t.Errorf("Now() at t=1 = %v, want 100", got)
	}
}

func TestQuadEasing(t *testing.T) {
	a := New([]Keyframe[Float]{
		NewKeyframe[Float](0, 0, StaticFn(easing.QuadIn)),
		NewKeyframe[Float](1, 100, StaticFn(easing.Hold)),
	})

	a.SetTime(0.5)
	if got := a.Now(); abs(float64(got)-25) > 0.1 {
		t.Errorf("QuadIn at t=0.5 = %v, want ~25", got)
	}
}

func TestEmptyAnimNowOpt(t *testing.T) {
	a := New[Float](nil)
	if _, ok := a.NowOpt(); ok {
		t.Error("NowOpt() on empty anim should return false")
	}
	if got := a.Now(); got != 0 {
		t.Errorf("Now() on empty anim = %v, want zero value", got)
	}
}

func TestBeforeFirstAfterLast(t *testing.T) {
	a := New([]Keyframe[Float]{
		NewKeyframe[Float](1, 10, StaticFn(easing.Linear)),
		NewKeyframe[Float](2, 20, StaticFn(easing.Linear)),
	})
	a.SetTime(0)
	if got := a.Now(); got != 10 {
		t.Errorf("before first keyframe: Now() = %v, want 10", got)
	}
	a.SetTime(5)
	if got := a.Now(); got != 20 {
		t.Errorf("after last keyframe: Now() = %v, want 20", got)
	}
}

func TestCursorMonotone(t *testing.T) {
	a := New([]Keyframe[Float]{
		NewKeyframe[Float](0, 0, StaticFn(easing.Linear)),
		NewKeyframe[Float](1, 10, StaticFn(easing.Linear)),
		NewKeyframe[Float](2, 20, StaticFn(easing.Linear)),
		NewKeyframe[Float](3, 30, StaticFn(easing.Linear)),
	})
	prev := 0
	for _, t2 := range []float64{0, 0.5, 1, 1.5, 2.9, 3} {
		a.SetTime(t2)
		if a.cursor < prev {
			t.Errorf("cursor moved backward at t=%v: %d < %d", t2, a.cursor, prev)
		}
		prev = a.cursor
	}
}

func TestChainAdds(t *testing.T) {
	base := New([]Keyframe[Float]{NewKeyframe[Float](0, 10, StaticFn(easing.Hold))})
	correction := New([]Keyframe[Float]{NewKeyframe[Float](0, 5, StaticFn(easing.Hold))})
	head := Chain([]*Anim[Float]{base, correction})
	head.SetTime(0)
	if got := head.Now(); got != 15 {
		t.Errorf("chained Now() = %v, want 15", got)
	}
}

func TestStringTweenNumericToken(t *testing.T) {
	a := String("12%P%").Tween("34%P%", 0.5)
	if a != "23" {
		t.Errorf("numeric token tween = %q, want %q", a, "23")
	}
}

func TestStringTweenPrefixGrowth(t *testing.T) {
	a := String("").Tween("hello", 0.4)
	if a != "he" {
		t.Errorf("prefix growth tween = %q, want %q", a, "he")
	}
}
