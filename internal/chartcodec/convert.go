package chartcodec

import (
	"fmt"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"
)

// toWireAnimFloat flattens an *Anim[Float] chain into segments, each
// segment being one link's keyframe list.
func toWireAnimFloat(a *tween.Anim[tween.Float]) WireAnimFloat {
	var w WireAnimFloat
	for n := a; n != nil; n = n.Next() {
		seg := make([]WireKeyframeFloat, len(n.Keyframes))
		for i, kf := range n.Keyframes {
			seg[i] = WireKeyframeFloat{Time: float32(kf.Time), Value: float32(kf.Value), Tween: toWireTween(kf.Tween)}
		}
		w.Segments = append(w.Segments, seg)
	}
	return w
}

func fromWireAnimFloat(w WireAnimFloat) *tween.Anim[tween.Float] {
	if len(w.Segments) == 0 {
		return tween.New[tween.Float](nil)
	}
	links := make([]*tween.Anim[tween.Float], len(w.Segments))
	for i, seg := range w.Segments {
		kfs := make([]tween.Keyframe[tween.Float], len(seg))
		for j, kf := range seg {
			kfs[j] = tween.NewKeyframe(float64(kf.Time), tween.Float(kf.Value), kf.Tween.toFn())
		}
		links[i] = tween.New(kfs)
	}
	return tween.Chain(links)
}

func toWireAnimVector(a *tween.Anim[tween.Vector]) WireAnimVector {
	var w WireAnimVector
	for n := a; n != nil; n = n.Next() {
		seg := make([]WireKeyframeVector, len(n.Keyframes))
		for i, kf := range n.Keyframes {
			seg[i] = WireKeyframeVector{Time: float32(kf.Time), X: float32(kf.Value.X), Y: float32(kf.Value.Y), Tween: toWireTween(kf.Tween)}
		}
		w.Segments = append(w.Segments, seg)
	}
	return w
}

func fromWireAnimVector(w WireAnimVector) *tween.Anim[tween.Vector] {
	if len(w.Segments) == 0 {
		return tween.New[tween.Vector](nil)
	}
	links := make([]*tween.Anim[tween.Vector], len(w.Segments))
	for i, seg := range w.Segments {
		kfs := make([]tween.Keyframe[tween.Vector], len(seg))
		for j, kf := range seg {
			kfs[j] = tween.NewKeyframe(float64(kf.Time), tween.Vector{X: float64(kf.X), Y: float64(kf.Y)}, kf.Tween.toFn())
		}
		links[i] = tween.New(kfs)
	}
	return tween.Chain(links)
}

func toWireAnimColor(a *tween.Anim[tween.Color]) WireAnimColor {
	var w WireAnimColor
	for n := a; n != nil; n = n.Next() {
		seg := make([]WireKeyframeColor, len(n.Keyframes))
		for i, kf := range n.Keyframes {
			seg[i] = WireKeyframeColor{
				Time: float32(kf.Time),
				R:    float32(kf.Value.R), G: float32(kf.Value.G), B: float32(kf.Value.B), A: float32(kf.Value.A),
				Tween: toWireTween(kf.Tween),
			}
		}
		w.Segments = append(w.Segments, seg)
	}
	return w
}

func fromWireAnimColor(w WireAnimColor) *tween.Anim[tween.Color] {
	if len(w.Segments) == 0 {
		return tween.New[tween.Color](nil)
	}
	links := make([]*tween.Anim[tween.Color], len(w.Segments))
	for i, seg := range w.Segments {
		kfs := make([]tween.Keyframe[tween.Color], len(seg))
		for j, kf := range seg {
			kfs[j] = tween.NewKeyframe(float64(kf.Time), tween.Color{R: float64(kf.R), G: float64(kf.G), B: float64(kf.B), A: float64(kf.A)}, kf.Tween.toFn())
		}
		links[i] = tween.New(kfs)
	}
	return tween.Chain(links)
}

func toWireAnimString(a *tween.Anim[tween.String]) WireAnimString {
	var w WireAnimString
	for n := a; n != nil; n = n.Next() {
		seg := make([]WireKeyframeString, len(n.Keyframes))
		for i, kf := range n.Keyframes {
			seg[i] = WireKeyframeString{Time: float32(kf.Time), Value: string(kf.Value), Tween: toWireTween(kf.Tween)}
		}
		w.Segments = append(w.Segments, seg)
	}
	return w
}

func fromWireAnimString(w WireAnimString) *tween.Anim[tween.String] {
	if len(w.Segments) == 0 {
		return tween.New[tween.String](nil)
	}
	links := make([]*tween.Anim[tween.String], len(w.Segments))
	for i, seg := range w.Segments {
		kfs := make([]tween.Keyframe[tween.String], len(seg))
		for j, kf := range seg {
			kfs[j] = tween.NewKeyframe(float64(kf.Time), tween.String(kf.Value), kf.Tween.toFn())
		}
		links[i] = tween.New(kfs)
	}
	return tween.Chain(links)
}

func toWireObject(o *chart.Object) WireObject {
	return WireObject{
		Alpha:       toWireAnimFloat(o.Alpha),
		ScaleX:      toWireAnimFloat(o.ScaleX),
		ScaleY:      toWireAnimFloat(o.ScaleY),
		Rotation:    toWireAnimFloat(o.Rotation),
		Translation: toWireAnimVector(o.Translation),
	}
}

func fromWireObject(w WireObject) *chart.Object {
	return &chart.Object{
		Alpha:       fromWireAnimFloat(w.Alpha),
		ScaleX:      fromWireAnimFloat(w.ScaleX),
		ScaleY:      fromWireAnimFloat(w.ScaleY),
		Rotation:    fromWireAnimFloat(w.Rotation),
		Translation: fromWireAnimVector(w.Translation),
	}
}

func toWireCtrlObject(o *chart.CtrlObject) WireCtrlObject {
	return WireCtrlObject{
		Alpha: toWireAnimFloat(o.Alpha),
		Size:  toWireAnimFloat(o.Size),
		Pos:   toWireAnimFloat(o.Pos),
		Y:     toWireAnimFloat(o.Y),
	}
}

func fromWireCtrlObject(w WireCtrlObject) *chart.CtrlObject {
	return &chart.CtrlObject{
		Alpha: fromWireAnimFloat(w.Alpha),
		Size:  fromWireAnimFloat(w.Size),
		Pos:   fromWireAnimFloat(w.Pos),
		Y:     fromWireAnimFloat(w.Y),
	}
}

func toWireNote(n *chart.Note) WireNote {
	w := WireNote{
		Object:       toWireObject(n.Object),
		KindTag:      byte(n.Kind.Tag),
		EndTime:      float32(n.Kind.EndTime),
		EndHeight:    float32(n.Kind.EndHeight),
		Time:         float32(n.Time),
		Height:       float32(n.Height),
		Speed:        float32(n.Speed),
		Above:        n.Above,
		MultipleHint: n.MultipleHint,
		Fake:         n.Fake,
	}
	if n.HitSound != nil {
		b := byte(*n.HitSound)
		w.HitSound = &b
	}
	return w
}

func fromWireNote(w WireNote) *chart.Note {
	n := &chart.Note{
		Object: fromWireObject(w.Object),
		Kind: chart.NoteKind{
			Tag:       chart.NoteKindTag(w.KindTag),
			EndTime:   float64(w.EndTime),
			EndHeight: float64(w.EndHeight),
		},
		Time:         float64(w.Time),
		Height:       float64(w.Height),
		Speed:        float64(w.Speed),
		Above:        w.Above,
		MultipleHint: w.MultipleHint,
		Fake:         w.Fake,
	}
	if w.HitSound != nil {
		k := chart.HitSoundKind(*w.HitSound)
		n.HitSound = &k
	}
	return n
}

func toWireLineKind(k chart.LineKind) WireLineKind {
	w := WireLineKind{Tag: byte(k.Tag)}
	switch k.Tag {
	case chart.LineTexture:
		w.TexHandle = int32(k.TexHandle)
		w.TexPath = k.TexPath
	case chart.LineTextureGif:
		w.TexHandle = int32(k.TexHandle)
		w.TexPath = k.TexPath
		w.GifProgress = toWireAnimFloat(k.GifProgress)
		w.GifFrames = int32(k.GifFrames)
	case chart.LineText:
		w.Text = toWireAnimString(k.Text)
	case chart.LinePaint:
		w.PaintAlpha = toWireAnimFloat(k.PaintAlpha)
	}
	return w
}

func fromWireLineKind(w WireLineKind) chart.LineKind {
	k := chart.LineKind{Tag: chart.LineKindTag(w.Tag)}
	switch k.Tag {
	case chart.LineTexture:
		k.TexHandle = int(w.TexHandle)
		k.TexPath = w.TexPath
	case chart.LineTextureGif:
		k.TexHandle = int(w.TexHandle)
		k.TexPath = w.TexPath
		k.GifProgress = fromWireAnimFloat(w.GifProgress)
		k.GifFrames = int(w.GifFrames)
	case chart.LineText:
		k.Text = fromWireAnimString(w.Text)
	case chart.LinePaint:
		k.PaintAlpha = fromWireAnimFloat(w.PaintAlpha)
	}
	return k
}

func toWireLine(l *chart.JudgeLine) WireLine {
	w := WireLine{
		Object:    toWireObject(l.Object),
		Ctrl:      toWireCtrlObject(l.Ctrl),
		Kind:      toWireLineKind(l.Kind),
		Height:    toWireAnimFloat(l.Height),
		Incline:   toWireAnimFloat(l.Incline),
		Color:     toWireAnimColor(l.Color),
		Parent:    int32(l.Parent),
		ZIndex:    int32(l.ZIndex),
		ShowBelow: l.ShowBelow,
		AttachUI:  byte(l.AttachUI),
	}
	w.Notes = make([]WireNote, len(l.Notes))
	for i, n := range l.Notes {
		w.Notes[i] = toWireNote(n)
	}
	return w
}

func fromWireLine(w WireLine) *chart.JudgeLine {
	l := &chart.JudgeLine{
		Object:    fromWireObject(w.Object),
		Ctrl:      fromWireCtrlObject(w.Ctrl),
		Kind:      fromWireLineKind(w.Kind),
		Height:    fromWireAnimFloat(w.Height),
		Incline:   fromWireAnimFloat(w.Incline),
		Color:     fromWireAnimColor(w.Color),
		Parent:    int(w.Parent),
		ZIndex:    int(w.ZIndex),
		ShowBelow: w.ShowBelow,
		AttachUI:  chart.AttachUIKind(w.AttachUI),
	}
	l.Notes = make([]*chart.Note, len(w.Notes))
	for i, n := range w.Notes {
		l.Notes[i] = fromWireNote(n)
	}
	return l
}

// toWireChart flattens a (chart.Info, chart.Chart) pair into its wire DTO.
func toWireChart(info *chart.Info, c *chart.Chart) WireChart {
	w := WireChart{
		Info: WireInfo{
			ID:           info.ID,
			Name:         info.Name,
			Composer:     info.Composer,
			Charter:      info.Charter,
			AspectRatio:  float32(info.AspectRatio),
			ChartUpdated: info.ChartUpdated,
		},
		Music:  c.Music,
		Offset: float32(c.Offset),
		Settings: WireSettings{
			PEAlphaExtension: c.Settings.PEAlphaExtension,
			HoldPartialCover: c.Settings.HoldPartialCover,
		},
	}

	w.Lines = make([]WireLine, len(c.Lines))
	for i, l := range c.Lines {
		w.Lines[i] = toWireLine(l)
	}

	for _, bc := range c.BpmList.Changes() {
		w.BpmList = append(w.BpmList, WireBpmChange{Beats: float32(bc.Beats), Bpm: float32(bc.Bpm)})
	}

	for kind, clip := range c.HitSounds {
		w.HitSounds = append(w.HitSounds, WireHitSound{Kind: byte(kind), Clip: clip})
	}

	return w
}

// fromWireChart rebuilds a (chart.Info, chart.Chart) pair from its wire DTO,
// re-running chart.New so the parent-graph and render-order invariants are
// re-validated rather than trusted from the wire bytes.
func fromWireChart(w WireChart) (*chart.Info, *chart.Chart, error) {
	info := &chart.Info{
		ID:           w.Info.ID,
		Name:         w.Info.Name,
		Composer:     w.Info.Composer,
		Charter:      w.Info.Charter,
		AspectRatio:  float64(w.Info.AspectRatio),
		ChartUpdated: w.Info.ChartUpdated,
	}

	lines := make([]*chart.JudgeLine, len(w.Lines))
	for i, wl := range w.Lines {
		lines[i] = fromWireLine(wl)
	}

	changes := make([]chart.BpmChange, len(w.BpmList))
	for i, bc := range w.BpmList {
		changes[i] = chart.BpmChange{Beats: float64(bc.Beats), Bpm: float64(bc.Bpm)}
	}
	bpmList := chart.NewBpmListFromChanges(changes)

	settings := chart.Settings{
		PEAlphaExtension: w.Settings.PEAlphaExtension,
		HoldPartialCover: w.Settings.HoldPartialCover,
	}

	c, err := chart.New(lines, bpmList, float64(w.Offset), settings)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuilding chart: %w", err)
	}
	c.Music = w.Music

	for _, hs := range w.HitSounds {
		c.HitSounds[chart.HitSoundKind(hs.Kind)] = hs.Clip
	}

	return info, c, nil
}
