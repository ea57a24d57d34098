package playback

import (
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/easing"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"
)

// TouchFrame is one sample of a finger's position at a point in time, as
// received from upstream. Upstream encodes "touch ended" by sending the
// finger id bitwise-inverted (a negative value).
type TouchFrame struct {
	FingerID int64
	Time     float64
	Pos      geom.Vector
}

// ended reports whether this frame signals the finger lifting, returning
// the real (non-inverted) finger id either way.
func (f TouchFrame) ended() (id int64, isEnd bool) {
	if f.FingerID < 0 {
		return ^f.FingerID, true
	}
	return f.FingerID, false
}

// ActiveTouch is one currently-tracked (or fading) finger.
type ActiveTouch struct {
	FingerID   int64
	Anim       *tween.Anim[tween.Vector]
	StartTime  float64
	LastUpdate float64
	EndTime    float64 // only meaningful once the touch is fading
	hasEnd     bool
}

// RenderedTouch is one touch ready to be drawn by the caller's renderer.
type RenderedTouch struct {
	FingerID int64
	Pos      geom.Vector
	Alpha    float64
}

// TouchOverlay reconstructs a player's touch overlay from a sparse frame
// feed: active fingers interpolate position via a keyframe animation,
// lifted fingers fade out over TouchFadeTime, and fingers that stop
// updating for more than 2.0s are swept to fading defensively against a
// dropped end-frame.
type TouchOverlay struct {
	active []*ActiveTouch
	fading []*ActiveTouch

	fadeTime   float64
	touchAlpha float64
}

const touchStaleTimeout = 2.0

// NewTouchOverlay builds an overlay with the given fade duration and base
// alpha (spec's TOUCH_FADE_TIME / TOUCH_ALPHA).
func NewTouchOverlay(fadeTime, touchAlpha float64) *TouchOverlay {
	return &TouchOverlay{fadeTime: fadeTime, touchAlpha: touchAlpha}
}

func (o *TouchOverlay) findActive(id int64) *ActiveTouch {
	for _, t := range o.active {
		if t.FingerID == id {
			return t
		}
	}
	return nil
}

// PushFrames folds a batch of touch frames (in arrival order) into the
// active/fading sets. target_time tracking (the forward edge of buffered
// evidence) is the caller's responsibility, driven off the same frames.
func (o *TouchOverlay) PushFrames(frames []TouchFrame) {
	for _, f := range frames {
		id, isEnd := f.ended()
		t := o.findActive(id)

		if isEnd {
			if t == nil {
				continue
			}
			t.EndTime = f.Time
			t.hasEnd = true
			o.moveToFading(t)
			continue
		}

		if t == nil {
			t = &ActiveTouch{
				FingerID:  id,
				Anim:      tween.New([]tween.Keyframe[tween.Vector]{}),
				StartTime: f.Time,
			}
			o.active = append(o.active, t)
		}
		t.Anim.Keyframes = append(t.Anim.Keyframes, tween.NewKeyframe(f.Time, tween.Vector(f.Pos), tween.StaticFn(easing.Linear)))
		t.LastUpdate = f.Time
	}
}

func (o *TouchOverlay) moveToFading(t *ActiveTouch) {
	for i, a := range o.active {
		if a == t {
			o.active = append(o.active[:i], o.active[i+1:]...)
			break
		}
	}
	o.fading = append(o.fading, t)
}

// Sweep moves any active touch that has gone silent for more than 2.0s to
// fading with a synthetic end time (safety against a dropped end-frame),
// and discards fully-faded touches whose fade window has elapsed.
func (o *TouchOverlay) Sweep(now float64) {
	var stillActive []*ActiveTouch
	for _, t := range o.active {
		if now-t.LastUpdate > touchStaleTimeout {
			t.EndTime = now
			t.hasEnd = true
			o.fading = append(o.fading, t)
			continue
		}
		stillActive = append(stillActive, t)
	}
	o.active = stillActive

	var stillFading []*ActiveTouch
	for _, t := range o.fading {
		if now > t.EndTime+o.fadeTime {
			continue
		}
		stillFading = append(stillFading, t)
	}
	o.fading = stillFading
}

// Render returns every touch that should be drawn this frame, with alpha
// already computed for fading touches.
func (o *TouchOverlay) Render(now float64) []RenderedTouch {
	out := make([]RenderedTouch, 0, len(o.active)+len(o.fading))
	for _, t := range o.active {
		t.Anim.SetTime(now)
		pos := t.Anim.Now()
		out = append(out, RenderedTouch{FingerID: t.FingerID, Pos: geom.Vector(pos), Alpha: o.touchAlpha})
	}
	for _, t := range o.fading {
		t.Anim.SetTime(now)
		pos := t.Anim.Now()
		alpha := o.touchAlpha * (1 - (now-t.EndTime)/o.fadeTime)
		if alpha < 0 {
			alpha = 0
		}
		out = append(out, RenderedTouch{FingerID: t.FingerID, Pos: geom.Vector(pos), Alpha: alpha})
	}
	return out
}

// TouchOverlayProjection builds the orthographic projection matrix the
// touch overlay renders with: upstream stores CompactPos.y pre-scaled by
// aspect ratio, so screen-space reconstruction divides by aspect and
// flips sign for the renderer's down-positive y axis.
func TouchOverlayProjection(aspect float64) geom.Matrix3 {
	return geom.Matrix3{
		1, 0, 0,
		0, -1 / aspect, 0,
		0, 0, 1,
	}
}
