// Package devpreview is a local, live-reloading chart viewer: an
// ebitengine window that drives one internal/playback.Scene against a
// chart file on disk, the same way internal/preview drove a sprite/map/
// sfx/track asset, but retargeted to a single autoplay chart-playback
// mode instead of four asset-specific ones.
package devpreview

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcodec"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/hitsound"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/playback"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/respack"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/watcher"
)

// BackgroundType enumerates preview background fills.
type BackgroundType int

const (
	BackgroundDark BackgroundType = iota
	BackgroundLight
)

// Previewer implements ebiten.Game: it owns one playback.Scene in
// ModeAutoplay, attached to an ebiten-backed renderer and a synthesized
// audio engine, hot-reloading the chart file on save.
type Previewer struct {
	filePath   string
	resPackPath string
	winW, winH int
	background BackgroundType

	audioCtx  *ebaudio.Context
	renderer  *EbitenRenderer
	hitsounds *hitsound.Set
	pack      *respack.Pack
	timing    playback.Timing
	log       zerolog.Logger

	scene *playback.Scene

	watcher  *watcher.Watcher
	reloadMu sync.Mutex
	pending  *playback.Scene
	pendErr  string

	errorMsg string
}

// NewPreviewer builds a previewer for filePath (a chartcodec-encoded
// .bin file), optionally overriding hit-sounds/colors from a
// resource-pack TOML at resPackPath.
func NewPreviewer(filePath, resPackPath string, winW, winH int, log zerolog.Logger) *Previewer {
	return &Previewer{
		filePath:    filePath,
		resPackPath: resPackPath,
		winW:        winW,
		winH:        winH,
		hitsounds:   hitsound.Default(),
		pack:        &respack.Pack{},
		timing:      playback.DefaultTiming(),
		log:         log,
	}
}

// Run starts the ebitengine window and event loop.
func (p *Previewer) Run() error {
	if st := loadState(); st != nil {
		p.background = BackgroundType(st.Background)
	}

	if p.resPackPath != "" {
		loaded, err := respack.Load(p.resPackPath)
		if err != nil {
			return fmt.Errorf("loading resource pack: %w", err)
		}
		p.pack = loaded
	}

	p.audioCtx = ebaudio.NewContext(previewSampleRate)

	if err := p.loadChart(); err != nil {
		p.errorMsg = err.Error()
	}

	p.startWatcher()
	defer p.stopWatcher()
	defer p.saveState()

	ebiten.SetWindowSize(p.winW, p.winH)
	ebiten.SetWindowTitle("phira-web-monitor chart preview — " + filepath.Base(p.filePath))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(p)
}

// loadChart decodes the chart file and builds a fresh autoplay scene.
func (p *Previewer) loadChart() error {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		return err
	}
	info, ch, err := chartcodec.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", p.filePath, err)
	}

	sc := playback.NewScene("preview", ch, info, p.timing, playback.ModeAutoplay, wallNow,
		p.newRenderer, p.newAudio, p.hitsounds, p.pack, p.log)
	if err := sc.AttachCanvas("preview"); err != nil {
		return fmt.Errorf("attaching canvas: %w", err)
	}
	sc.Start()
	p.scene = sc
	return nil
}

func (p *Previewer) newRenderer(canvasID string) (playback.Renderer, error) {
	p.renderer = NewEbitenRenderer()
	return p.renderer, nil
}

func (p *Previewer) newAudio() (playback.AudioEngine, error) {
	return NewEbitenAudioEngine(p.audioCtx, p.hitsounds, wallNow), nil
}

// Update handles input and drains a pending hot-reload.
func (p *Previewer) Update() error {
	p.reloadMu.Lock()
	if p.pending != nil {
		p.scene = p.pending
		p.errorMsg = ""
		p.pending = nil
	}
	if p.pendErr != "" {
		p.errorMsg = p.pendErr
		p.pendErr = ""
	}
	p.reloadMu.Unlock()

	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		p.background = (p.background + 1) % 2
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := p.loadChart(); err != nil {
			p.errorMsg = err.Error()
		}
	}
	return nil
}

// Draw renders one frame: background fill, then the scene's own
// RenderTick, which issues its draw calls through the attached renderer.
func (p *Previewer) Draw(screen *ebiten.Image) {
	bg := color.RGBA{R: 10, G: 10, B: 16, A: 255}
	if p.background == BackgroundLight {
		bg = color.RGBA{R: 230, G: 230, B: 235, A: 255}
	}
	screen.Fill(bg)

	if p.scene != nil && p.renderer != nil {
		p.renderer.Attach(screen)
		p.scene.RenderTick()
	}

	if p.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, "error: "+p.errorMsg, 10, 10)
	} else {
		ebitenutil.DebugPrintAt(screen, "B: background   R: restart   S: snapshot   watching "+filepath.Base(p.filePath), 10, p.winH-20)
	}

	if snap := p.maybeSnapshot(screen); snap != "" {
		p.log.Info().Str("path", snap).Msg("wrote snapshot")
	}
}

// Layout returns the outside window size unscaled; the scene's own
// Resize computes letterboxing against the chart's aspect ratio.
func (p *Previewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	p.winW = outsideWidth
	p.winH = outsideHeight
	if p.scene != nil {
		p.scene.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

func (p *Previewer) startWatcher() {
	w, err := watcher.New(150*time.Millisecond, func(changed []string) error {
		for _, f := range changed {
			if f != p.filePath {
				continue
			}
			data, err := os.ReadFile(p.filePath)
			if err != nil {
				p.reloadMu.Lock()
				p.pendErr = err.Error()
				p.reloadMu.Unlock()
				return nil
			}
			info, ch, err := chartcodec.Decode(data)
			if err != nil {
				p.reloadMu.Lock()
				p.pendErr = err.Error()
				p.reloadMu.Unlock()
				return nil
			}
			sc := playback.NewScene("preview", ch, info, p.timing, playback.ModeAutoplay, wallNow,
				p.newRenderer, p.newAudio, p.hitsounds, p.pack, p.log)
			if err := sc.AttachCanvas("preview"); err != nil {
				p.reloadMu.Lock()
				p.pendErr = err.Error()
				p.reloadMu.Unlock()
				return nil
			}
			sc.Start()
			p.reloadMu.Lock()
			p.pending = sc
			p.pendErr = ""
			p.reloadMu.Unlock()
		}
		return nil
	})
	if err != nil {
		p.log.Warn().Err(err).Msg("hot reload disabled: watcher init failed")
		return
	}
	if err := w.WatchFile(p.filePath); err != nil {
		p.log.Warn().Err(err).Msg("hot reload disabled: watch failed")
		return
	}
	p.watcher = w
	go w.Start()
}

func (p *Previewer) stopWatcher() {
	if p.watcher != nil {
		_ = p.watcher.Stop()
	}
}

func wallNow() float64 { return float64(time.Now().UnixNano()) / 1e9 }

// previewState is the persisted slice of UI state (spec's out-of-scope
// canvas/device setup has no analogue here; only the background choice
// survives between runs).
type previewState struct {
	Background int `json:"background"`
}

func stateFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "phira-web-monitor", "preview.json")
}

func loadState() *previewState {
	path := stateFilePath()
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var st previewState
	if json.Unmarshal(data, &st) != nil {
		return nil
	}
	return &st
}

func (p *Previewer) saveState() {
	path := stateFilePath()
	if path == "" {
		return
	}
	st := previewState{Background: int(p.background)}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	_ = os.WriteFile(path, data, 0644)
}
