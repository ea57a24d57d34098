package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcache"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/config"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/hitsound"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/httpapi"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/playback"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/respack"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/session"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/upstreamapi"
)

var (
	flagPort           int
	flagCacheDir       string
	flagAPIBase        string
	flagMPServer       string
	flagDebug          bool
	flagAllowedOrigins []string
	flagResourcePack   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the spectator relay: chart cache, session dispatcher, HTTP/WebSocket surface",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "HTTP listen port (default from config, else 8080)")
	serveCmd.Flags().StringVar(&flagCacheDir, "cache-dir", "", "chart cache directory (default from config, else ./cache)")
	serveCmd.Flags().StringVar(&flagAPIBase, "api-base", "", "upstream REST API base URL")
	serveCmd.Flags().StringVar(&flagMPServer, "mp-server", "", "upstream game-server TCP address (host:port)")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "verbose request/dispatcher logging")
	serveCmd.Flags().StringArrayVar(&flagAllowedOrigins, "allowed-origin", nil, "CORS/WebSocket-origin allowlist entry (repeatable; default \"*\")")
	serveCmd.Flags().StringVar(&flagResourcePack, "resource-pack", "", "path to a resource-pack TOML overriding default hit-colors/hitsounds")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cfg)

	log := newLogger(cfg.Network.Debug || flagVerbose, flagQuiet)

	upstream := upstreamapi.New(cfg.Network.APIBase)

	cache, err := chartcache.New(cfg.Cache.Dir, upstream)
	if err != nil {
		return fmt.Errorf("initializing chart cache: %w", err)
	}

	pack := respack.Pack{}
	if flagResourcePack != "" {
		loaded, err := respack.Load(flagResourcePack)
		if err != nil {
			return fmt.Errorf("loading resource pack: %w", err)
		}
		pack = *loaded
	}

	timing := timingFromConfig(cfg.Timing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rooms := httpapi.NewRoomDirectory(ctx, upstream)

	chartSource := session.CacheChartSource{Cache: cache}
	upgrader := session.NewUpgrader(cfg.Network.MPServer, cfg.Network.AllowedOrigins, chartSource, hitsound.Default(), &pack, timing, log)

	router := httpapi.NewRouter(cache, upstream, rooms, upgrader, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Network.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Network.Port).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-sigc:
		log.Info().Msg("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func loadServerConfig() (*config.ServerConfig, error) {
	if flagConfig != "" {
		return config.LoadConfig(flagConfig)
	}
	root, err := config.FindProjectRoot()
	if err != nil {
		if err == config.ErrProjectNotFound {
			cfg := &config.ServerConfig{}
			return cfg, applyDefaultsOnEmpty(cfg)
		}
		return nil, err
	}
	return config.LoadConfig(config.GetConfigPath(root))
}

// applyDefaultsOnEmpty parses an empty document so callers running with
// no monitor.toml on disk (e.g. flags-only invocations) still get a fully
// defaulted, validated config.
func applyDefaultsOnEmpty(cfg *config.ServerConfig) error {
	parsed, err := config.ParseConfig(nil)
	if err != nil {
		return err
	}
	*cfg = *parsed
	return nil
}

func applyServeFlags(cfg *config.ServerConfig) {
	if flagPort != 0 {
		cfg.Network.Port = flagPort
	}
	if flagCacheDir != "" {
		cfg.Cache.Dir = flagCacheDir
	}
	if flagAPIBase != "" {
		cfg.Network.APIBase = flagAPIBase
	}
	if flagMPServer != "" {
		cfg.Network.MPServer = flagMPServer
	}
	if flagDebug {
		cfg.Network.Debug = true
	}
	if len(flagAllowedOrigins) > 0 {
		cfg.Network.AllowedOrigins = flagAllowedOrigins
	}
	if !filepath.IsAbs(cfg.Cache.Dir) {
		if abs, err := filepath.Abs(cfg.Cache.Dir); err == nil {
			cfg.Cache.Dir = abs
		}
	}
}

func timingFromConfig(t config.TimingSection) playback.Timing {
	return playback.Timing{
		HoldParticleInterval: t.HoldParticleInterval,
		UnjudgedLimit:        t.UnjudgedLimit,
		AutoplayMissLimit:    t.AutoplayMissLimit,
		StrictMissLimit:      t.StrictMissLimit,
		StaleLimit:           t.StaleLimit,
		RewindOnResume:       t.RewindOnResume,
		StartDelaySecs:       t.StartDelaySecs,
		SeekOffset:           t.SeekOffset,
		TouchFadeTime:        t.TouchFadeTime,
		TouchAlpha:           t.TouchAlpha,
	}
}

func newLogger(debug, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case quiet:
		level = zerolog.ErrorLevel
	case debug:
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}
