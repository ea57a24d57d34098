package playback

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/hitsound"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/respack"
)

// Timing collects the spec §5 timing constants, overridable so tests can
// shrink them instead of sleeping real seconds.
type Timing struct {
	HoldParticleInterval float64
	UnjudgedLimit        float64
	AutoplayMissLimit    float64
	StrictMissLimit      float64
	StaleLimit           float64
	RewindOnResume       float64
	StartDelaySecs       float64
	SeekOffset           float64
	TouchFadeTime        float64
	TouchAlpha           float64
}

// DefaultTiming returns the authoritative constants table from spec §5,
// with LIMIT_BAD/LIMIT_MISS handled per the Open Question decision
// recorded in DESIGN.md (StrictMissLimit = 0.200s; stale-note cleanup
// reads StaleLimit, also 0.200s, and live mode has no per-tick miss
// cutoff).
func DefaultTiming() Timing {
	return Timing{
		HoldParticleInterval: 0.15,
		UnjudgedLimit:        0.400,
		AutoplayMissLimit:    0.160,
		StrictMissLimit:      0.200,
		StaleLimit:           0.200,
		RewindOnResume:       1.000,
		StartDelaySecs:       4.5,
		SeekOffset:           0.1,
		TouchFadeTime:        0.3,
		TouchAlpha:           0.6,
	}
}

// Mode selects how updateJudges resolves NotJudged notes: ModeLive only
// drains externally pushed judge events (it has no local miss sweep),
// ModeAutoplay judges every note automatically as it arrives.
type Mode int

const (
	ModeLive Mode = iota
	ModeAutoplay
)

// Renderer is the out-of-scope 2D textured-quad batcher contract (spec
// §6). A Scene drives it through this interface; a concrete
// ebiten-backed implementation lives in internal/devpreview.
type Renderer interface {
	Clear()
	BeginFrame()
	SetProjection(m geom.Matrix3)
	SetViewport(x, y, w, h int)
	SetTexture(handle int)
	DrawRect(x, y, w, h float64, r, g, b, a float64, model geom.Matrix3)
	DrawTextureRect(x, y, w, h, u, v, uw, vh float64, r, g, b, a float64, model geom.Matrix3)
	Flush()
}

// AudioEngine is the out-of-scope audio-device contract (spec §6).
type AudioEngine interface {
	SetMusic(clip string) error
	SetHitSound(kind chart.HitSoundKind, clip string) error
	Play(startTime float64)
	Pause()
	PlayHitSound(kind chart.HitSoundKind)
	GetTime() float64
	SetOffset(offset float64)
}

// RendererFactory builds a Renderer bound to a canvas id.
type RendererFactory func(canvasID string) (Renderer, error)

// AudioFactory builds a fresh AudioEngine.
type AudioFactory func() (AudioEngine, error)

// Scene is one player's local simulation: renderer, audio, clock, event
// queues, chart. A scene is either headless (no renderer/audio; event
// queues still accept) or attached.
type Scene struct {
	PlayerID string

	mu sync.Mutex

	chart *chart.Chart
	info  *chart.Info
	mode  Mode

	timing Timing
	wallNow func() float64

	rendererFactory RendererFactory
	audioFactory    AudioFactory
	hitsounds       *hitsound.Set
	pack            *respack.Pack

	renderer Renderer
	audio    AudioEngine

	started    bool
	startWall  float64
	entered    bool
	clock      *Clock
	targetTime float64
	hasTarget  bool

	pendingJudges  []JudgeEvent
	unpauseSignal  *float64
	judgePauseTime *float64

	touches *TouchOverlay

	particles []Particle
	lastWall  float64

	aspectRatio float64
	viewW, viewH int

	log zerolog.Logger
}

// NewScene builds a headless scene owning ch, ready to accumulate events
// before any canvas is attached.
func NewScene(playerID string, ch *chart.Chart, info *chart.Info, timing Timing, mode Mode, wallNow func() float64, rf RendererFactory, af AudioFactory, hs *hitsound.Set, pack *respack.Pack, logger zerolog.Logger) *Scene {
	return &Scene{
		PlayerID:        playerID,
		chart:           ch,
		info:            info,
		mode:            mode,
		timing:          timing,
		wallNow:         wallNow,
		rendererFactory: rf,
		audioFactory:    af,
		hitsounds:       hs,
		pack:            pack,
		touches:         NewTouchOverlay(timing.TouchFadeTime, timing.TouchAlpha),
		aspectRatio:     info.AspectRatioOrDefault(),
		log:             logger.With().Str("player_id", playerID).Logger(),
	}
}

// ReplaceChart atomically swaps the owned chart for a new one (spec's
// "loading a new chart replaces the owned one atomically").
func (s *Scene) ReplaceChart(ch *chart.Chart, info *chart.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chart = ch
	s.info = info
	s.aspectRatio = info.AspectRatioOrDefault()
	s.entered = false
	s.clock = nil
	s.judgePauseTime = nil
	s.unpauseSignal = nil
	s.pendingJudges = nil
	s.targetTime = 0
	s.hasTarget = false
	s.particles = nil
}

// Start anchors the scene's R1 wall-clock deadline at the current wall
// time. Called by the dispatcher on StateChange(Playing).
func (s *Scene) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.startWall = s.wallNow()
	s.lastWall = s.startWall
}

// PushJudges appends externally supplied judge events (spec §4.3.4):
// target_time advances to the max of the last event's time and the prior
// target_time, and unpause_signal is set to the last event's time (R4).
func (s *Scene) PushJudges(events []JudgeEvent) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingJudges = append(s.pendingJudges, events...)
	last := events[len(events)-1].Time
	if last > s.targetTime || !s.hasTarget {
		s.targetTime = last
	}
	s.hasTarget = true
	t := last
	s.unpauseSignal = &t
}

// PushTouches folds touch frames into the overlay and advances
// target_time to the forward edge of buffered evidence.
func (s *Scene) PushTouches(frames []TouchFrame) {
	if len(frames) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touches.PushFrames(frames)
	for _, f := range frames {
		if f.Time > s.targetTime || !s.hasTarget {
			s.targetTime = f.Time
		}
		s.hasTarget = true
	}
}

func (s *Scene) droppedInvariant(ref NoteRef) {
	s.log.Warn().Int("line", ref.LineIdx).Int("note", ref.NoteIdx).Msg("judge event referenced a non-existent note, dropped")
}

// AttachCanvas creates a renderer and audio engine for canvasID, syncs
// audio buffers (pack default -> chart override, latter wins), and — if
// the scene was already started — seeks the clock to mid-game so
// rendering resumes instead of restarting (spec §4.3.7).
func (s *Scene) AttachCanvas(canvasID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renderer != nil {
		return nil // idempotent re-attach
	}

	r, err := s.rendererFactory(canvasID)
	if err != nil {
		return err
	}
	a, err := s.audioFactory()
	if err != nil {
		return err
	}
	s.renderer = r
	s.audio = a
	s.syncAudioLocked()

	if s.entered {
		seek := s.targetTime - s.timing.SeekOffset
		if seek < 0 {
			seek = 0
		}
		s.clock.SeekTo(seek)
		s.audio.Play(seek)
	}

	s.resumeAudioContextLocked()
	return nil
}

// syncAudioLocked wires the chart's music and hit-sound buffers into the
// attached audio engine, pack default first and chart override last so
// the chart's own clip wins.
func (s *Scene) syncAudioLocked() {
	s.audio.SetOffset(s.chart.Offset)
	if s.chart.Music != "" {
		_ = s.audio.SetMusic(s.chart.Music)
	}
	for _, kind := range []chart.HitSoundKind{chart.HitSoundClick, chart.HitSoundDrag, chart.HitSoundFlick, chart.HitSoundHoldTick} {
		if s.pack != nil {
			if file, ok := s.pack.HitSoundFile[kind]; ok {
				_ = s.audio.SetHitSound(kind, file)
			}
		}
		if clip, ok := s.chart.HitSounds[kind]; ok {
			_ = s.audio.SetHitSound(kind, clip)
		}
	}
}

// resumeAudioContextLocked plays-then-immediately-pauses at offset 0 to
// unstick browser autoplay policy (supplemented feature, ported from the
// original's game_scene.rs::resume_audio_context).
func (s *Scene) resumeAudioContextLocked() {
	s.audio.Play(0)
	s.audio.Pause()
}

// ResumeAudioContext is the public entry the dispatcher calls right after
// an attach succeeds over the wire.
func (s *Scene) ResumeAudioContext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		s.resumeAudioContextLocked()
	}
}

// DetachCanvas pauses audio and drops the renderer/audio engine, but
// preserves the chart, event queues, and clock state.
func (s *Scene) DetachCanvas() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		s.audio.Pause()
	}
	s.renderer = nil
	s.audio = nil
}

// Resize recomputes the letterboxed viewport for a w x h window (spec
// §4.3.8) and installs it on the attached renderer, if any.
func (s *Scene) Resize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	design := s.info.AspectRatioOrDefault()
	screenRatio := float64(w) / float64(h)
	aspect := design
	if screenRatio < aspect {
		aspect = screenRatio
	}

	var vw, vh int
	if screenRatio > aspect {
		vh = h
		vw = int(float64(h)*aspect + 0.5)
	} else {
		vw = w
		vh = int(float64(w)/aspect + 0.5)
	}

	s.viewW, s.viewH = vw, vh
	s.aspectRatio = aspect
	if s.renderer != nil {
		x := (w - vw) / 2
		y := (h - vh) / 2
		s.renderer.SetViewport(x, y, vw, vh)
	}
}
