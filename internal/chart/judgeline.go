package chart

import (
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"
)

// LineKindTag discriminates the JudgeLine visual-kind variants.
type LineKindTag int

const (
	LineNormal LineKindTag = iota
	LineTexture
	LineTextureGif
	LineText
	LinePaint
)

// LineKind is a judge line's visual representation.
type LineKind struct {
	Tag LineKindTag

	// Texture.
	TexHandle int
	TexPath   string

	// TextureGif.
	GifProgress *tween.Anim[tween.Float]
	GifFrames   int

	// Text.
	Text *tween.Anim[tween.String]

	// Paint.
	PaintAlpha *tween.Anim[tween.Float]
}

// AttachUIKind names a UI slot a line can be bound to instead of being
// drawn as ordinary chart content.
type AttachUIKind int

const (
	AttachNone AttachUIKind = iota
	AttachPause
	AttachComboNumber
	AttachCombo
	AttachScore
	AttachBar
	AttachName
	AttachLevel
)

// JudgeLine is a visual line carrying notes; its transform is animated
// over time and notes move along its normal direction.
type JudgeLine struct {
	Object *Object
	Ctrl   *CtrlObject
	Kind   LineKind

	Height  *tween.Anim[tween.Float]
	Incline *tween.Anim[tween.Float]
	Color   *tween.Anim[tween.Color]

	Notes []*Note

	Parent     int // -1 = no parent
	ZIndex     int
	ShowBelow  bool
	AttachUI   AttachUIKind

	// worldMatrix and worldMatrixValid are memoized per frame by
	// Chart.ComputeWorldMatrices to avoid recomputing a parent chain more
	// than once per render tick.
	worldMatrix      geom.Matrix3
	worldMatrixValid bool
}

// CtrlObject holds per-note control animations keyed by a derived
// distance-from-line scalar, carrying alpha/size/pos/y corrections.
type CtrlObject struct {
	Alpha *tween.Anim[tween.Float]
	Size  *tween.Anim[tween.Float]
	Pos   *tween.Anim[tween.Float]
	Y     *tween.Anim[tween.Float]
}

// NewCtrlObject builds a CtrlObject with fixed identity defaults.
func NewCtrlObject() *CtrlObject {
	return &CtrlObject{
		Alpha: tween.Fixed[tween.Float](1),
		Size:  tween.Fixed[tween.Float](1),
		Pos:   tween.Fixed[tween.Float](0),
		Y:     tween.Fixed[tween.Float](0),
	}
}

// SetTime propagates the current time to every animation the line owns
// directly (its own Object/Height/Incline/Color) and to every note's
// Object. This is the full traversal spec.md's Chart.SetTime invariant
// requires.
func (l *JudgeLine) SetTime(t float64) {
	l.Object.SetTime(t)
	l.Height.SetTime(t)
	l.Incline.SetTime(t)
	l.Color.SetTime(t)
	if l.Kind.Tag == LineTextureGif {
		l.Kind.GifProgress.SetTime(t)
	}
	if l.Kind.Tag == LineText {
		l.Kind.Text.SetTime(t)
	}
	if l.Kind.Tag == LinePaint {
		l.Kind.PaintAlpha.SetTime(t)
	}
	for _, n := range l.Notes {
		n.Object.SetTime(t)
	}
}
