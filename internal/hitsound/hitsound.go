// Package hitsound synthesizes the four hit-sound kinds a chart can play
// (Click, Drag, Flick, HoldTick) as short percussive ADSR+oscillator
// voices, the same way a resource pack's .sfx definitions are parsed and
// rendered, but fixed to this domain's four kinds instead of an open
// vocabulary of sound-effect names.
package hitsound

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/audio"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
)

// VoiceDef is the TOML-level definition of one hit-sound voice, mirroring
// the shape a resource pack's override file uses.
type VoiceDef struct {
	Waveform  string      `toml:"waveform"`
	DutyCycle float64     `toml:"duty_cycle"`
	Duration  float64     `toml:"duration"`
	Volume    float64     `toml:"volume"`
	Envelope  EnvelopeDef `toml:"envelope"`
	Pitch     PitchDef    `toml:"pitch"`
	Filter    *FilterDef  `toml:"filter"`
}

// EnvelopeDef is the TOML envelope section.
type EnvelopeDef struct {
	Attack  float64 `toml:"attack"`
	Decay   float64 `toml:"decay"`
	Sustain float64 `toml:"sustain"`
	Release float64 `toml:"release"`
}

// PitchDef is the TOML pitch-sweep section.
type PitchDef struct {
	Start float64 `toml:"start"`
	End   float64 `toml:"end"`
	Curve string  `toml:"curve"`
}

// FilterDef is the TOML filter section.
type FilterDef struct {
	Type      string  `toml:"type"`
	Cutoff    float64 `toml:"cutoff"`
	Resonance float64 `toml:"resonance"`
}

// defaults gives every built-in hit-sound kind a short, percussive
// character distinct enough to tell apart by ear: Click is a tight sine
// blip, Drag a soft filtered triangle, Flick a bright downward sawtooth
// sweep, HoldTick a quiet click-like tick meant to repeat every
// HOLD_PARTICLE_INTERVAL.
var defaults = map[chart.HitSoundKind]VoiceDef{
	chart.HitSoundClick: {
		Waveform: "sine", Duration: 0.05, Volume: 0.8,
		Envelope: EnvelopeDef{Attack: 0.001, Decay: 0.04, Sustain: 0, Release: 0.01},
		Pitch:    PitchDef{Start: 880, End: 660, Curve: "exponential"},
	},
	chart.HitSoundDrag: {
		Waveform: "triangle", Duration: 0.04, Volume: 0.5,
		Envelope: EnvelopeDef{Attack: 0.002, Decay: 0.03, Sustain: 0, Release: 0.01},
		Pitch:    PitchDef{Start: 520, End: 520, Curve: "linear"},
		Filter:   &FilterDef{Type: "lowpass", Cutoff: 2000, Resonance: 0.1},
	},
	chart.HitSoundFlick: {
		Waveform: "sawtooth", Duration: 0.06, Volume: 0.7,
		Envelope: EnvelopeDef{Attack: 0.001, Decay: 0.05, Sustain: 0, Release: 0.01},
		Pitch:    PitchDef{Start: 1200, End: 400, Curve: "exponential"},
	},
	chart.HitSoundHoldTick: {
		Waveform: "sine", Duration: 0.03, Volume: 0.4,
		Envelope: EnvelopeDef{Attack: 0.001, Decay: 0.02, Sustain: 0, Release: 0.01},
		Pitch:    PitchDef{Start: 1000, End: 1000, Curve: "linear"},
	},
}

// Set is a resolved table of voice definitions for all four kinds, after
// any resource-pack overrides have been merged in.
type Set struct {
	voices map[chart.HitSoundKind]VoiceDef
}

// Default builds a Set carrying only the built-in voice definitions.
func Default() *Set {
	voices := make(map[chart.HitSoundKind]VoiceDef, len(defaults))
	for k, v := range defaults {
		voices[k] = v
	}
	return &Set{voices: voices}
}

// rawOverrides is the TOML shape of a resource pack's hit-sound override
// file: zero or more of [click], [drag], [flick], [hold_tick].
type rawOverrides struct {
	Click    *VoiceDef `toml:"click"`
	Drag     *VoiceDef `toml:"drag"`
	Flick    *VoiceDef `toml:"flick"`
	HoldTick *VoiceDef `toml:"hold_tick"`
}

// LoadOverrides reads a resource pack's hit-sound override TOML file and
// returns a Set with the built-in defaults merged with whichever kinds the
// file customizes.
func LoadOverrides(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hitsound overrides: %w", err)
	}
	return ParseOverrides(data, filepath.Base(path))
}

// ParseOverrides parses hit-sound override TOML content.
func ParseOverrides(data []byte, filename string) (*Set, error) {
	var raw rawOverrides
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	s := Default()
	if raw.Click != nil {
		s.voices[chart.HitSoundClick] = *raw.Click
	}
	if raw.Drag != nil {
		s.voices[chart.HitSoundDrag] = *raw.Drag
	}
	if raw.Flick != nil {
		s.voices[chart.HitSoundFlick] = *raw.Flick
	}
	if raw.HoldTick != nil {
		s.voices[chart.HitSoundHoldTick] = *raw.HoldTick
	}
	return s, nil
}

// Render synthesizes PCM samples for the given kind at sampleRate,
// running the full audio safety chain (DC-offset removal, NaN/Inf
// sanitize, brickwall limit) before returning.
func (s *Set) Render(kind chart.HitSoundKind, sampleRate int) ([]float64, []audio.Warning) {
	vd, ok := s.voices[kind]
	if !ok {
		vd = defaults[chart.HitSoundClick]
	}

	voice := buildVoice(vd, sampleRate)
	samples := audio.RenderVoice(voice, vd.Duration, sampleRate)

	volume := vd.Volume
	if volume == 0 {
		volume = 1.0
	}
	for i := range samples {
		samples[i] *= volume
	}

	return audio.ProcessSafety(samples, sampleRate)
}

// DumpWAV renders a kind and writes it to path as a PCM WAV file, for
// offline inspection of resource-pack overrides.
func (s *Set) DumpWAV(path string, kind chart.HitSoundKind, sampleRate, bitDepth int) error {
	samples, _ := s.Render(kind, sampleRate)
	return audio.WriteWAV(path, samples, sampleRate, bitDepth)
}

func buildVoice(vd VoiceDef, sampleRate int) *audio.Voice {
	v := &audio.Voice{
		Osc: audio.NewOscillator(vd.Waveform, vd.DutyCycle),
		Env: audio.ADSR{
			Attack:  vd.Envelope.Attack,
			Decay:   vd.Envelope.Decay,
			Sustain: vd.Envelope.Sustain,
			Release: vd.Envelope.Release,
		},
		PitchStart: vd.Pitch.Start,
		PitchEnd:   vd.Pitch.End,
		PitchCurve: audio.CurveType(vd.Pitch.Curve),
	}
	if v.PitchEnd == 0 {
		v.PitchEnd = v.PitchStart
	}

	if vd.Filter != nil {
		v.Filter = audio.NewBiquadFilter(
			audio.FilterType(vd.Filter.Type),
			vd.Filter.Cutoff,
			vd.Filter.Resonance,
			sampleRate,
		)
	}

	return v
}
