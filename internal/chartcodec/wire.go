// Package chartcodec implements the varint-encoded binary wire format for
// (ChartInfo, Chart) pairs: the same format the chart cache persists to
// disk and the browser client deserializes (spec's chart cache and HTTP
// chart-fetch surface). CBOR's integer encoding is itself a
// self-describing varint form, so it is used directly as the container
// format rather than hand-rolling one.
package chartcodec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/easing"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"
)

// Chart and Anim carry unexported cursor/chain state and function-valued
// tweens that are not directly CBOR-serializable, so the wire format is a
// dedicated flat DTO tree (this file) with explicit To/From conversions
// (convert.go) to and from the live chart.Chart / tween.Anim types.

// WireTween is the on-wire form of a tween.Fn: exactly one of the three
// fields is meaningful, selected by Kind.
type WireTween struct {
	Kind byte // 0 = static id, 1 = clamped, 2 = bezier
	ID   int8
	// Clamped fields.
	Base   int8
	XStart float32
	XEnd   float32
	// Bezier fields.
	P1X, P1Y, P2X, P2Y float32
}

func toWireTween(f tween.Fn) WireTween {
	kind, static, clamped, p1, p2 := f.Inspect()
	switch kind {
	case tween.FnClamped:
		return WireTween{Kind: 1, Base: int8(clamped.Base), XStart: float32(clamped.XStart), XEnd: float32(clamped.XEnd)}
	case tween.FnBezier:
		return WireTween{Kind: 2, P1X: float32(p1[0]), P1Y: float32(p1[1]), P2X: float32(p2[0]), P2Y: float32(p2[1])}
	default:
		return WireTween{Kind: 0, ID: int8(static)}
	}
}

func (w WireTween) toFn() tween.Fn {
	switch w.Kind {
	case 1:
		return tween.ClampedFn(easing.NewClamped(easing.ID(w.Base), float64(w.XStart), float64(w.XEnd)))
	case 2:
		return tween.BezierFn(easing.NewCubicBezier(float64(w.P1X), float64(w.P1Y), float64(w.P2X), float64(w.P2Y)))
	default:
		return tween.StaticFn(easing.ID(w.ID))
	}
}

// WireKeyframeFloat, WireKeyframeVector, WireKeyframeColor, WireKeyframeString
// mirror tween.Keyframe[T] for each concrete T the chart model uses.
type WireKeyframeFloat struct {
	Time  float32
	Value float32
	Tween WireTween
}

type WireKeyframeVector struct {
	Time  float32
	X, Y  float32
	Tween WireTween
}

type WireKeyframeColor struct {
	Time       float32
	R, G, B, A float32
	Tween      WireTween
}

type WireKeyframeString struct {
	Time  float32
	Value string
	Tween WireTween
}

// WireAnimFloat etc. mirror tween.Anim[T]'s chain-of-keyframe-lists shape
// flattened to a slice of segments (each segment is what was one Anim
// node in the chain).
type WireAnimFloat struct{ Segments [][]WireKeyframeFloat }
type WireAnimVector struct{ Segments [][]WireKeyframeVector }
type WireAnimColor struct{ Segments [][]WireKeyframeColor }
type WireAnimString struct{ Segments [][]WireKeyframeString }

// WireObject mirrors chart.Object.
type WireObject struct {
	Alpha       WireAnimFloat
	ScaleX      WireAnimFloat
	ScaleY      WireAnimFloat
	Rotation    WireAnimFloat
	Translation WireAnimVector
}

// WireCtrlObject mirrors chart.CtrlObject.
type WireCtrlObject struct {
	Alpha WireAnimFloat
	Size  WireAnimFloat
	Pos   WireAnimFloat
	Y     WireAnimFloat
}

// WireNote mirrors chart.Note.
type WireNote struct {
	Object       WireObject
	KindTag      byte
	EndTime      float32
	EndHeight    float32
	Time         float32
	Height       float32
	Speed        float32
	Above        bool
	MultipleHint bool
	Fake         bool
	HitSound     *byte
}

// WireLineKind mirrors chart.LineKind.
type WireLineKind struct {
	Tag         byte
	TexHandle   int32
	TexPath     string
	GifProgress WireAnimFloat
	GifFrames   int32
	Text        WireAnimString
	PaintAlpha  WireAnimFloat
}

// WireLine mirrors chart.JudgeLine.
type WireLine struct {
	Object  WireObject
	Ctrl    WireCtrlObject
	Kind    WireLineKind
	Height  WireAnimFloat
	Incline WireAnimFloat
	Color   WireAnimColor
	Notes   []WireNote
	Parent  int32
	ZIndex  int32

	ShowBelow bool
	AttachUI  byte
}

// WireBpmChange mirrors one chart.BpmChange.
type WireBpmChange struct {
	Beats float32
	Bpm   float32
}

// WireSettings mirrors chart.Settings.
type WireSettings struct {
	PEAlphaExtension bool
	HoldPartialCover bool
}

// WireInfo mirrors chart.Info.
type WireInfo struct {
	ID           string
	Name         string
	Composer     string
	Charter      string
	AspectRatio  float32
	ChartUpdated string
}

// WireHitSound is one (kind, clip reference) entry of chart.Chart.HitSounds.
type WireHitSound struct {
	Kind byte
	Clip string
}

// WireChart is the on-wire form of (chart.Info, chart.Chart) — the pair
// spec's chart cache and HTTP chart-fetch surface exchange.
type WireChart struct {
	Info      WireInfo
	Lines     []WireLine
	BpmList   []WireBpmChange
	Music     string
	Offset    float32
	Settings  WireSettings
	HitSounds []WireHitSound
}

// Encode serializes a (chart.Info, chart.Chart) pair into the varint
// (CBOR) wire format.
func Encode(info *chart.Info, c *chart.Chart) ([]byte, error) {
	w := toWireChart(info, c)
	data, err := cbor.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encoding chart: %w", err)
	}
	return data, nil
}

// Decode deserializes the wire format back into a (chart.Info,
// chart.Chart) pair.
func Decode(data []byte) (*chart.Info, *chart.Chart, error) {
	var w WireChart
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, nil, fmt.Errorf("decoding chart: %w", err)
	}
	return fromWireChart(w)
}
