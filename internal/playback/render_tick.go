package playback

import (
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/respack"
)

// tintToColor converts a respack.Color (0..255 byte domain) to a
// geom.Color (0..1 float domain) for particle spawning.
func tintToColor(c respack.Color) geom.Color {
	return geom.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// RenderTick drives one frame of the scene: R1/R2/R4 resolution, reading
// current_time, the chart time-propagation + judge passes, hitsound and
// particle emission, and rendering (spec §4.3.5 steps 1-10). Callers
// drive this once per render frame; a headless scene (no renderer/audio
// attached) still advances judges and particles but skips drawing.
func (s *Scene) RenderTick() []SceneEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	now := s.wallNow()

	// R1: resolve the effective start deadline, shortened by a buffered
	// target_time so a latecomer doesn't wait through a full countdown.
	deadline := s.startWall + s.timing.StartDelaySecs
	if s.hasTarget {
		alt := s.startWall + s.targetTime
		if alt < deadline {
			deadline = alt
		}
	}
	if !s.entered {
		if now < deadline {
			if s.renderer != nil {
				s.renderer.Clear()
			}
			return nil
		}
		// R2: seek-on-start.
		s.clock = NewClock(s.wallNow)
		s.clock.Reset()
		if s.hasTarget {
			seek := s.targetTime - s.timing.SeekOffset
			if seek < 0 {
				seek = 0
			}
			s.clock.SeekTo(seek)
			if s.audio != nil {
				s.audio.Play(seek)
			}
		} else if s.audio != nil {
			s.audio.Play(0)
		}
		s.entered = true
	}

	// R4: resume-with-rewind, if paused-for-judge and new evidence signaled.
	if s.judgePauseTime != nil && s.unpauseSignal != nil {
		rewound := *s.judgePauseTime - s.timing.RewindOnResume
		if rewound < 0 {
			rewound = 0
		}
		s.clock.SeekTo(rewound)
		s.clock.Resume()
		if s.audio != nil {
			s.audio.Play(rewound)
		}
		s.chart.ClearStaleNotes(rewound, s.timing.StaleLimit)
		s.judgePauseTime = nil
		s.unpauseSignal = nil
	}

	// Step 3: read current_time.
	var currentTime float64
	if s.judgePauseTime != nil {
		currentTime = *s.judgePauseTime
	} else {
		if s.audio != nil {
			// R5: audio-authoritative clock while playing.
			s.clock.SeekTo(s.audio.GetTime())
		}
		currentTime = s.clock.Now()
	}

	dt := now - s.lastWall
	if dt < 0 {
		dt = 0
	}
	s.lastWall = now

	// Step 4.
	s.chart.SetTime(currentTime)
	s.chart.ComputeWorldMatrices(s.aspectRatio)

	// Step 5.
	events := s.updateJudges(currentTime)

	// Step 6: hitsounds.
	if s.audio != nil {
		for _, e := range events {
			if e.playsHitSound() {
				s.audio.PlayHitSound(e.HitSound)
			}
		}
	}

	// Step 7: particle spawning.
	if s.pack != nil {
		for _, e := range events {
			if !e.spawnsParticle() {
				continue
			}
			tint, ok := s.pack.TintFor(e.Judgement)
			if !ok {
				continue
			}
			origin := s.emissionPoint(e.Note)
			s.particles = append(s.particles, spawnParticles(origin, tintToColor(tint))...)
		}
	}
	s.particles = updateParticles(s.particles, dt)

	// Step 8/9: render, if a canvas is attached.
	if s.renderer != nil {
		s.renderDrawLocked(currentTime)
	}

	// Step 10: R3 — strict pause on unjudged notes.
	if s.judgePauseTime == nil && s.chart.HasUnjudged(currentTime, s.timing.UnjudgedLimit) {
		t := currentTime
		s.judgePauseTime = &t
		s.clock.Pause()
		if s.audio != nil {
			s.audio.Pause()
		}
	}

	return events
}

// emissionPoint computes a judged note's particle spawn point: the
// line's world transform applied to (note local x, 0) — the judge-line
// position, not the note's current travel y.
func (s *Scene) emissionPoint(ref NoteRef) geom.Vector {
	if ref.LineIdx < 0 || ref.LineIdx >= len(s.chart.Lines) {
		return geom.Vector{}
	}
	line := s.chart.Lines[ref.LineIdx]
	if ref.NoteIdx < 0 || ref.NoteIdx >= len(line.Notes) {
		return geom.Vector{}
	}
	n := line.Notes[ref.NoteIdx]
	x := float64(n.Object.Translation.Now().X)
	return line.WorldMatrix().Apply(geom.Vector{X: x, Y: 0})
}

// renderDrawLocked issues the draw calls for one frame: chart lines and
// notes in z-order, particles, then the touch overlay in its own
// projection. Must be called with s.mu held and s.renderer non-nil.
func (s *Scene) renderDrawLocked(currentTime float64) {
	s.renderer.Clear()
	s.renderer.BeginFrame()
	s.renderer.SetProjection(geom.Identity())

	for _, idx := range s.chart.Order {
		line := s.chart.Lines[idx]
		s.drawLine(line)
	}

	for _, p := range s.particles {
		s.renderer.DrawRect(p.Pos.X-particleSize/2, p.Pos.Y-particleSize/2, particleSize, particleSize,
			p.Color.R, p.Color.G, p.Color.B, p.Alpha(), geom.Identity())
	}

	s.renderer.Flush()

	s.touches.Sweep(currentTime)
	s.renderer.SetProjection(TouchOverlayProjection(s.aspectRatio))
	for _, t := range s.touches.Render(currentTime) {
		s.renderer.DrawRect(t.Pos.X-particleSize/2, t.Pos.Y-particleSize/2, particleSize, particleSize,
			1, 1, 1, t.Alpha, geom.Identity())
	}
	s.renderer.Flush()
}

// drawLine issues the draw calls for one judge line's body and notes.
func (s *Scene) drawLine(line *chart.JudgeLine) {
	world := line.WorldMatrix()
	alpha := float64(line.Object.Alpha.Now())
	color := line.Color.Now()
	s.renderer.SetTexture(line.Kind.TexHandle)
	s.renderer.DrawRect(0, 0, 1, 1, float64(color.R), float64(color.G), float64(color.B), alpha*float64(color.A), world)

	for _, n := range line.Notes {
		if n.Status.Kind == chart.Judged {
			continue
		}
		y := chart.NoteY(n, line, s.aspectRatio)
		x := float64(n.Object.Translation.Now().X)
		s.renderer.DrawRect(x, y, 1, 1, 1, 1, 1, float64(n.Object.Alpha.Now()), world)
	}
}
