// Package respack parses resource-pack metadata: the Perfect/Good particle
// tint colors and a name→HitSoundKind lookup used to validate a resource
// pack's hit-sound file names against the four kinds a chart can play.
package respack

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/diag"
)

// Color is an RGBA tint.
type Color struct {
	R, G, B, A uint8
}

// ToRGBA converts to Go's image/color.RGBA.
func (c Color) ToRGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Pack is a parsed resource pack's metadata.
type Pack struct {
	Name         string
	PerfectTint  Color
	GoodTint     Color
	HitSoundFile map[chart.HitSoundKind]string // kind -> override file name, if any
}

var kindNames = map[string]chart.HitSoundKind{
	"click":     chart.HitSoundClick,
	"drag":      chart.HitSoundDrag,
	"flick":     chart.HitSoundFlick,
	"hold_tick": chart.HitSoundHoldTick,
}

func kindNameList() []string {
	names := make([]string, 0, len(kindNames))
	for n := range kindNames {
		names = append(names, n)
	}
	return names
}

// rawPack is the TOML-level structure of a resource pack's pack.toml.
type rawPack struct {
	Name      string            `toml:"name"`
	Perfect   string            `toml:"perfect_color"`
	Good      string            `toml:"good_color"`
	HitSounds map[string]string `toml:"hit_sounds"`
}

// Parse parses a resource pack's pack.toml content. An unrecognized
// hit_sounds key produces a diag.Diagnostic (via the returned error's
// message) suggesting the closest known kind name.
func Parse(data []byte, filename string) (*Pack, error) {
	var raw rawPack
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	p := &Pack{
		Name:         raw.Name,
		PerfectTint:  Color{R: 255, G: 223, B: 90, A: 255}, // gold, matches the genre's convention
		GoodTint:     Color{R: 120, G: 220, B: 255, A: 255},
		HitSoundFile: make(map[chart.HitSoundKind]string),
	}

	if raw.Perfect != "" {
		c, err := ParseHexColor(raw.Perfect)
		if err != nil {
			return nil, fmt.Errorf("%s: perfect_color: %w", filename, err)
		}
		p.PerfectTint = c
	}
	if raw.Good != "" {
		c, err := ParseHexColor(raw.Good)
		if err != nil {
			return nil, fmt.Errorf("%s: good_color: %w", filename, err)
		}
		p.GoodTint = c
	}

	for name, file := range raw.HitSounds {
		kind, ok := kindNames[name]
		if !ok {
			d := diag.Diagnostic{
				File:       filename,
				Severity:   diag.Error,
				Message:    fmt.Sprintf("unknown hit sound kind %q", name),
				Suggestion: diag.SuggestMatch(name, kindNameList(), 2),
			}
			return nil, fmt.Errorf("%s", d.Format())
		}
		p.HitSoundFile[kind] = file
	}

	return p, nil
}

// Load reads and parses a resource pack's pack.toml from disk.
func Load(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading resource pack: %w", err)
	}
	return Parse(data, filepath.Base(path))
}

// TintFor returns the particle tint for a judgement, or the zero Color for
// judgements that never spawn particles (Bad, Miss).
func (p *Pack) TintFor(j chart.Judgement) (Color, bool) {
	switch j {
	case chart.Perfect:
		return p.PerfectTint, true
	case chart.Good:
		return p.GoodTint, true
	default:
		return Color{}, false
	}
}

// ParseHexColor parses hex color strings: #RGB, #RRGGBB, #RRGGBBAA.
func ParseHexColor(hex string) (Color, error) {
	if !strings.HasPrefix(hex, "#") {
		return Color{}, fmt.Errorf("color must start with #, got %q", hex)
	}
	hex = hex[1:]

	expand := func(s string) string {
		if len(s) == 3 {
			return string(s[0]) + string(s[0]) + string(s[1]) + string(s[1]) + string(s[2]) + string(s[2])
		}
		return s
	}
	hex = expand(hex)

	switch len(hex) {
	case 6, 8:
		r, err := strconv.ParseUint(hex[0:2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color #%s: %w", hex, err)
		}
		g, err := strconv.ParseUint(hex[2:4], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color #%s: %w", hex, err)
		}
		b, err := strconv.ParseUint(hex[4:6], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color #%s: %w", hex, err)
		}
		a := uint64(255)
		if len(hex) == 8 {
			a, err = strconv.ParseUint(hex[6:8], 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid hex color #%s: %w", hex, err)
			}
		}
		return Color{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}, nil
	default:
		return Color{}, fmt.Errorf("invalid hex color length: #%s (expected 3, 6, or 8 hex digits)", hex)
	}
}
