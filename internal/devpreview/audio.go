package devpreview

import (
	"bytes"
	"encoding/binary"
	"sync"

	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/hitsound"
)

// previewSampleRate matches the hit-sound synthesizer's default render
// rate; ebiten's audio.Context resamples anything that doesn't match its
// own device rate internally.
const previewSampleRate = 44100

// EbitenAudioEngine stands in for the real mobile/browser audio device
// (out of scope per §6): there is no decoded music clip in a bare
// chart-file preview, so Play/Pause/GetTime just drive a wall-clock
// stopwatch, while hit sounds are synthesized on demand from the same
// hitsound.Set the spectator relay uses and played through ebiten's
// audio context, the way sfx_preview.go auditions a single voice.
type EbitenAudioEngine struct {
	ctx   *ebaudio.Context
	voice *hitsound.Set
	clock func() float64

	mu        sync.Mutex
	playing   bool
	startWall float64
	offsetSec float64

	players []*ebaudio.Player // retained so they aren't GC'd mid-playback
}

// NewEbitenAudioEngine builds an audio engine using wallNow as its clock
// source, matching the scene's own wallNow so Play(t)/GetTime() stay in
// the same time domain.
func NewEbitenAudioEngine(ctx *ebaudio.Context, voices *hitsound.Set, wallNow func() float64) *EbitenAudioEngine {
	return &EbitenAudioEngine{ctx: ctx, voice: voices, clock: wallNow}
}

func (e *EbitenAudioEngine) SetMusic(clip string) error {
	// No real audio container decoder is wired for arbitrary chart music
	// clips; the stopwatch clock in Play/GetTime stands in for playback
	// position regardless of which clip was requested.
	return nil
}

func (e *EbitenAudioEngine) SetHitSound(kind chart.HitSoundKind, clip string) error {
	// Resource-pack hit-sound overrides name a clip file; this preview
	// always re-synthesizes the four built-in kinds instead, so the
	// override is acknowledged but not loaded.
	return nil
}

func (e *EbitenAudioEngine) Play(startTime float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offsetSec = startTime
	e.startWall = e.clock()
	e.playing = true
}

func (e *EbitenAudioEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		e.offsetSec = e.currentLocked()
		e.playing = false
	}
}

func (e *EbitenAudioEngine) GetTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentLocked()
}

func (e *EbitenAudioEngine) currentLocked() float64 {
	if !e.playing {
		return e.offsetSec
	}
	return e.offsetSec + (e.clock() - e.startWall)
}

func (e *EbitenAudioEngine) SetOffset(offset float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offsetSec += offset
}

// PlayHitSound synthesizes kind's voice and fires it through the audio
// context. Rendering happens on every hit to keep the engine stateless
// across scene reloads; it costs a few hundred microseconds per note,
// acceptable for a local preview tool.
func (e *EbitenAudioEngine) PlayHitSound(kind chart.HitSoundKind) {
	if e.ctx == nil || e.voice == nil {
		return
	}
	samples, _ := e.voice.Render(kind, previewSampleRate)
	if len(samples) == 0 {
		return
	}

	defer func() { recover() }()
	player := e.ctx.NewPlayerFromBytes(pcmStereo16(samples))
	player.Play()

	e.mu.Lock()
	e.players = append(e.players, player)
	if len(e.players) > 32 {
		e.players = e.players[len(e.players)-32:]
	}
	e.mu.Unlock()
}

// pcmStereo16 converts synthesized float64 samples in [-1,1] into
// little-endian 16-bit stereo PCM, the wire shape audio.Context expects.
func pcmStereo16(samples []float64) []byte {
	buf := make([]byte, 0, len(samples)*4)
	w := bytes.NewBuffer(buf)
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.Write(w, binary.LittleEndian, v)
		binary.Write(w, binary.LittleEndian, v)
	}
	return w.Bytes()
}
