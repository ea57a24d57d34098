package chart

import "github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"

// Object bundles the four animation channels every transformable chart
// element carries: alpha, scale, rotation, translation.
type Object struct {
	Alpha       *tween.Anim[tween.Float]
	ScaleX      *tween.Anim[tween.Float]
	ScaleY      *tween.Anim[tween.Float]
	Rotation    *tween.Anim[tween.Float]
	Translation *tween.Anim[tween.Vector]
}

// NewObject builds an Object whose every channel defaults to a sensible
// fixed value (alpha/scale 1, rotation/translation 0) until overridden by
// parsed keyframes.
func NewObject() *Object {
	return &Object{
		Alpha:       tween.Fixed[tween.Float](1),
		ScaleX:      tween.Fixed[tween.Float](1),
		ScaleY:      tween.Fixed[tween.Float](1),
		Rotation:    tween.Fixed[tween.Float](0),
		Translation: tween.Fixed[tween.Vector](tween.Vector{}),
	}
}

// SetTime propagates the current time to every animation channel.
func (o *Object) SetTime(t float64) {
	o.Alpha.SetTime(t)
	o.ScaleX.SetTime(t)
	o.ScaleY.SetTime(t)
	o.Rotation.SetTime(t)
	o.Translation.SetTime(t)
}
