package devpreview

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/playback"
)

// EbitenRenderer is the concrete body for the spec's textured-quad
// batcher contract (playback.Renderer), backed by a single ebiten.Image
// canvas. Textures are resolved to solid colors keyed by handle, since
// the preview tool has no resource-pack texture atlas to sample.
type EbitenRenderer struct {
	canvas     *ebiten.Image
	projection geom.Matrix3
	texColor   color.Color

	// viewport is the letterboxed sub-rect (set by Scene.Resize via
	// SetViewport) that clip-space coordinates map into; it defaults to
	// the full canvas until the scene computes one.
	vpX, vpY, vpW, vpH int
	w, h               int
}

var _ playback.Renderer = (*EbitenRenderer)(nil)

// NewEbitenRenderer builds a renderer with no draw target yet; the
// previewer's Draw points it at each frame's screen via Attach.
func NewEbitenRenderer() *EbitenRenderer {
	return &EbitenRenderer{projection: geom.Identity(), texColor: color.White}
}

// Attach points the renderer at this frame's draw target. Until
// SetViewport narrows it, the viewport defaults to the full canvas.
func (r *EbitenRenderer) Attach(target *ebiten.Image) {
	r.canvas = target
	r.w, r.h = target.Bounds().Dx(), target.Bounds().Dy()
	if r.vpW == 0 || r.vpH == 0 {
		r.vpW, r.vpH = r.w, r.h
	}
}

func (r *EbitenRenderer) Clear() {
	if r.canvas != nil {
		r.canvas.Fill(color.RGBA{R: 12, G: 12, B: 18, A: 255})
	}
}

func (r *EbitenRenderer) BeginFrame() {}

func (r *EbitenRenderer) SetProjection(m geom.Matrix3) { r.projection = m }

func (r *EbitenRenderer) SetViewport(x, y, w, h int) {
	r.vpX, r.vpY, r.vpW, r.vpH = x, y, w, h
}

func (r *EbitenRenderer) SetTexture(handle int) {
	// No texture atlas in the preview tool: map any handle to a stable,
	// slightly distinguishable tint so different chart elements remain
	// visually separable on screen.
	h := byte(80 + (handle*53)%160)
	r.texColor = color.RGBA{R: h, G: h, B: 255, A: 255}
}

func (r *EbitenRenderer) DrawRect(x, y, w, h float64, red, green, blue, a float64, model geom.Matrix3) {
	r.drawQuad(x, y, w, h, red, green, blue, a, model)
}

func (r *EbitenRenderer) DrawTextureRect(x, y, w, h, u, v, uw, vh float64, red, green, blue, a float64, model geom.Matrix3) {
	r.drawQuad(x, y, w, h, red, green, blue, a, model)
}

func (r *EbitenRenderer) drawQuad(x, y, w, h float64, red, green, blue, a float64, model geom.Matrix3) {
	if r.canvas == nil || a <= 0 {
		return
	}
	combined := r.projection.Mul(model)
	p0 := combined.Apply(geom.Vector{X: x, Y: y})
	p1 := combined.Apply(geom.Vector{X: x + w, Y: y + h})

	px0 := screenX(p0.X, r.vpX, r.vpW)
	py0 := screenY(p0.Y, r.vpY, r.vpH)
	px1 := screenX(p1.X, r.vpX, r.vpW)
	py1 := screenY(p1.Y, r.vpY, r.vpH)
	if px1 < px0 {
		px0, px1 = px1, px0
	}
	if py1 < py0 {
		py0, py1 = py1, py0
	}
	if px1-px0 < 1 {
		px1 = px0 + 1
	}
	if py1-py0 < 1 {
		py1 = py0 + 1
	}

	c := color.RGBA{
		R: mixByte(r.texColor, red, 0),
		G: mixByte(r.texColor, green, 1),
		B: mixByte(r.texColor, blue, 2),
		A: byte(clamp01(a) * 255),
	}
	sub := ebiten.NewImage(int(px1-px0), int(py1-py0))
	sub.Fill(c)
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Translate(px0, py0)
	r.canvas.DrawImage(sub, opts)
}

func (r *EbitenRenderer) Flush() {}

func screenX(x float64, vpX, vpW int) float64 { return float64(vpX) + (x*0.5+0.5)*float64(vpW) }
func screenY(y float64, vpY, vpH int) float64 { return float64(vpY) + (y*0.5+0.5)*float64(vpH) }

func mixByte(base color.Color, tint float64, channel int) byte {
	br, bg, bb, _ := base.RGBA()
	var baseVal uint32
	switch channel {
	case 0:
		baseVal = br
	case 1:
		baseVal = bg
	default:
		baseVal = bb
	}
	v := (float64(baseVal) / 65535.0) * clamp01(tint)
	return byte(clamp01(v) * 255)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
