package easing

import "math"

// Clamped rescales a sub-interval of a base easing to [0,1]^2: evaluation
// remaps x into xRange, evaluates the base easing, then normalizes the
// result back into [0,1] using the base easing's value at the range
// endpoints.
type Clamped struct {
	Base   ID
	XStart float64
	XEnd   float64
	yStart float64
	yEnd   float64
}

// NewClamped builds a Clamped easing, precomputing yRange = (base(xStart), base(xEnd)).
func NewClamped(base ID, xStart, xEnd float64) Clamped {
	return Clamped{
		Base:   base,
		XStart: xStart,
		XEnd:   xEnd,
		yStart: Eval(base, xStart),
		yEnd:   Eval(base, xEnd),
	}
}

// Y evaluates the clamped easing at progress t in [0,1].
func (c Clamped) Y(t float64) float64 {
	x := c.XStart + (c.XEnd-c.XStart)*t
	y := Eval(c.Base, x)
	if c.yEnd == c.yStart {
		return 0
	}
	return (y - c.yStart) / (c.yEnd - c.yStart)
}

const (
	bezierSamples          = 21
	bezierNewtonMinSlope   = 1e-3
	bezierNewtonMaxIter    = 4
	bezierSubdivPrecision  = 1e-7
	bezierSubdivMaxIter    = 10
)

// CubicBezier is a two-control-point cubic bezier easing, cached with a
// 21-sample lookup table and refined by Newton-Raphson (falling back to
// binary subdivision when the local slope is too shallow to converge).
type CubicBezier struct {
	p1x, p1y float64
	p2x, p2y float64
	samples  [bezierSamples]float64
}

// NewCubicBezier builds a CubicBezier from two control points (the curve
// always runs from (0,0) to (1,1)).
func NewCubicBezier(p1x, p1y, p2x, p2y float64) *CubicBezier {
	b := &CubicBezier{p1x: p1x, p1y: p1y, p2x: p2x, p2y: p2y}
	for i := 0; i < bezierSamples; i++ {
		t := float64(i) / float64(bezierSamples-1)
		b.samples[i] = b.bezierX(t)
	}
	return b
}

func (b *CubicBezier) bezierX(t float64) float64 {
	u := 1 - t
	return 3*u*u*t*b.p1x + 3*u*t*t*b.p2x + t*t*t
}

func (b *CubicBezier) bezierY(t float64) float64 {
	u := 1 - t
	return 3*u*u*t*b.p1y + 3*u*t*t*b.p2y + t*t*t
}

func (b *CubicBezier) dxdt(t float64) float64 {
	u := 1 - t
	return 3*u*u*b.p1x + 6*u*t*(b.p2x-b.p1x) + 3*t*t*(1-b.p2x)
}

// tForX solves bezierX(t) = x for t given x in [0,1].
func (b *CubicBezier) tForX(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	// Locate the bracketing sample interval for an initial guess.
	step := 1.0 / float64(bezierSamples-1)
	idx := 0
	for idx < bezierSamples-1 && b.samples[idx+1] < x {
		idx++
	}
	intervalStart := float64(idx) * step
	dist := (x - b.samples[idx]) / (b.samples[idx+1] - b.samples[idx])
	t := intervalStart + dist*step

	// Newton-Raphson refinement.
	shallow := false
	for i := 0; i < bezierNewtonMaxIter; i++ {
		slope := b.dxdt(t)
		if math.Abs(slope) < bezierNewtonMinSlope {
			shallow = true
			break
		}
		currentX := b.bezierX(t) - x
		if math.Abs(currentX) < 1e-9 {
			return t
		}
		t -= currentX / slope
	}
	if !shallow {
		return t
	}

	// Binary subdivision fallback.
	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < bezierSubdivMaxIter; i++ {
		currentX := b.bezierX(t)
		if math.Abs(currentX-x) < bezierSubdivPrecision {
			break
		}
		if currentX < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return t
}

// P1X, P1Y, P2X, P2Y expose the control points used to construct this
// bezier, for callers that need to re-serialize it (the wire encoder).
func (b *CubicBezier) P1X() float64 { return b.p1x }
func (b *CubicBezier) P1Y() float64 { return b.p1y }
func (b *CubicBezier) P2X() float64 { return b.p2x }
func (b *CubicBezier) P2Y() float64 { return b.p2y }

// Y evaluates the bezier easing at progress t in [0,1].
func (b *CubicBezier) Y(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return b.bezierY(b.tForX(t))
}
