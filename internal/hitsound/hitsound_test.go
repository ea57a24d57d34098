package hitsound

import (
	"math"
	"testing"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
)

func TestDefaultRenderProducesFiniteAudio(t *testing.T) {
	s := Default()
	for _, kind := range []chart.HitSoundKind{chart.HitSoundClick, chart.HitSoundDrag, chart.HitSoundFlick, chart.HitSoundHoldTick} {
		samples, warnings := s.Render(kind, 44100)
		if len(samples) == 0 {
			t.Errorf("kind %v: Render produced no samples", kind)
		}
		if len(warnings) != 0 {
			t.Errorf("kind %v: unexpected warnings: %v", kind, warnings)
		}
		for i, v := range samples {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("kind %v: sample %d is %v", kind, i, v)
			}
			if v > 1.0001 || v < -1.0001 {
				t.Errorf("kind %v: sample %d = %v, exceeds brickwall limit", kind, i, v)
			}
		}
	}
}

func TestParseOverridesMergesOnlyNamedKinds(t *testing.T) {
	data := []byte(`
[click]
waveform = "square"
duration = 0.02
volume = 1.0
[click.envelope]
attack = 0.0
decay = 0.02
sustain = 0.0
release = 0.0
[click.pitch]
start = 300
end = 300
curve = "linear"
`)
	s, err := ParseOverrides(data, "pack.toml")
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}
	if s.voices[chart.HitSoundClick].Waveform != "square" {
		t.Errorf("click waveform = %q, want square", s.voices[chart.HitSoundClick].Waveform)
	}
	if s.voices[chart.HitSoundDrag].Waveform != defaults[chart.HitSoundDrag].Waveform {
		t.Errorf("drag should remain the default, got %+v", s.voices[chart.HitSoundDrag])
	}
}

func TestParseOverridesInvalidTOML(t *testing.T) {
	if _, err := ParseOverrides([]byte("not = [valid"), "bad.toml"); err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}
