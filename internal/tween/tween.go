// Package tween provides the generic keyframe animation type Anim[T] and
// the Tweenable capability that lets float, vector, color, and string
// values all plug into the same keyframe evaluator.
package tween

import (
	"strconv"
	"strings"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/easing"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
)

// Tweenable is the capability a keyframe value type must implement: linear
// interpolation toward another value at progress u, and addition for
// animation chaining.
type Tweenable[T any] interface {
	Tween(b T, u float64) T
	Add(b T) T
}

// Float is a tweenable float64.
type Float float64

func (a Float) Tween(b Float, u float64) Float { return a + (b-a)*Float(u) }
func (a Float) Add(b Float) Float              { return a + b }

// Vector is a tweenable 2D vector.
type Vector geom.Vector

func (a Vector) Tween(b Vector, u float64) Vector {
	return Vector{X: a.X + (b.X-a.X)*u, Y: a.Y + (b.Y-a.Y)*u}
}
func (a Vector) Add(b Vector) Vector { return Vector{X: a.X + b.X, Y: a.Y + b.Y} }

// Color is a tweenable RGBA color; Add is defined for interface symmetry
// but is never exercised — color animations are not chained in practice.
type Color geom.Color

func (a Color) Tween(b Color, u float64) Color {
	return Color{
		R: a.R + (b.R-a.R)*u,
		G: a.G + (b.G-a.G)*u,
		B: a.B + (b.B-a.B)*u,
		A: a.A + (b.A-a.A)*u,
	}
}
func (a Color) Add(b Color) Color {
	return Color{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B, A: a.A + b.A}
}

// String is a tweenable string following the legacy chart string-tween
// rule (see Tween for the cases).
type String string

// Tween implements the string interpolation rule: a shared "%P%" numeric
// token interpolates numerically; otherwise the shorter side is treated
// as a character-prefix of the longer and the number of visible
// characters grows/shrinks with u; failing that, the start value holds.
func (a String) Tween(b String, u float64) String {
	as, bs := string(a), string(b)

	if strings.Contains(as, "%P%") && strings.Contains(bs, "%P%") {
		aNum := strings.Replace(as, "%P%", "", 1)
		bNum := strings.Replace(bs, "%P%", "", 1)
		av, aerr := strconv.ParseFloat(aNum, 64)
		bv, berr := strconv.ParseFloat(bNum, 64)
		if aerr == nil && berr == nil {
			v := av + (bv-av)*u
			if av == float64(int64(av)) && bv == float64(int64(bv)) {
				return String(strconv.FormatInt(int64(v), 10))
			}
			return String(strconv.FormatFloat(v, 'f', 3, 64))
		}
	}

	if as == "" {
		return String(prefixChars(bs, u))
	}
	if bs == "" {
		return String(prefixChars(as, 1-u))
	}

	if strings.HasPrefix(bs, as) {
		return String(prefixChars(bs, u))
	}
	if strings.HasPrefix(as, bs) {
		return String(prefixChars(as, 1-u))
	}

	return a
}

func prefixChars(s string, u float64) string {
	runes := []rune(s)
	n := int(float64(len(runes))*u + 0.5)
	if n < 0 {
		n = 0
	}
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n])
}

// Add concatenates; defined for interface symmetry, never exercised by
// chained string animations in practice.
func (a String) Add(b String) String { return a + b }

// Fn is the tween function stored in a keyframe: one of a static table
// index, a Clamped easing, or a CubicBezier easing.
type Fn struct {
	static  *easing.ID
	clamped *easing.Clamped
	bezier  *easing.CubicBezier
}

// StaticFn builds a Fn from a static table index.
func StaticFn(id easing.ID) Fn { return Fn{static: &id} }

// ClampedFn builds a Fn from a Clamped easing.
func ClampedFn(c easing.Clamped) Fn { return Fn{clamped: &c} }

// BezierFn builds a Fn from a CubicBezier easing.
func BezierFn(b *easing.CubicBezier) Fn { return Fn{bezier: b} }

// Inspect exposes which variant a Fn holds and its parameters, for
// callers (chartcodec's wire encoder) that need to serialize it without
// re-deriving the easing table.
func (f Fn) Inspect() (kind FnKind, static easing.ID, clamped easing.Clamped, bezierP1, bezierP2 [2]float64) {
	switch {
	case f.bezier != nil:
		return FnBezier, 0, easing.Clamped{}, [2]float64{f.bezier.P1X(), f.bezier.P1Y()}, [2]float64{f.bezier.P2X(), f.bezier.P2Y()}
	case f.clamped != nil:
		return FnClamped, 0, *f.clamped, [2]float64{}, [2]float64{}
	case f.static != nil:
		return FnStatic, *f.static, easing.Clamped{}, [2]float64{}, [2]float64{}
	default:
		return FnStatic, easing.Linear, easing.Clamped{}, [2]float64{}, [2]float64{}
	}
}

// FnKind discriminates the Fn variant returned by Inspect.
type FnKind byte

const (
	FnStatic FnKind = iota
	FnClamped
	FnBezier
)

// Ease evaluates the stored tween function at progress t in [0,1].
func (f Fn) Ease(t float64) float64 {
	switch {
	case f.bezier != nil:
		return f.bezier.Y(t)
	case f.clamped != nil:
		return f.clamped.Y(t)
	case f.static != nil:
		return easing.Eval(*f.static, t)
	default:
		return easing.Eval(easing.Linear, t)
	}
}
