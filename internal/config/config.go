// Package config loads the server's TOML configuration file, the way the
// teacher's project tool loads runefact.toml: parse, apply defaults,
// validate.
package config

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// ServerConfig is the monitor.toml configuration.
type ServerConfig struct {
	Network NetworkSection `toml:"network"`
	Cache   CacheSection   `toml:"cache"`
	Timing  TimingSection  `toml:"timing"`
}

// NetworkSection controls the HTTP/WS listener and upstream connection.
type NetworkSection struct {
	Port           int      `toml:"port"`
	APIBase        string   `toml:"api_base"`
	MPServer       string   `toml:"mp_server"`
	AllowedOrigins []string `toml:"allowed_origins"`
	Debug          bool     `toml:"debug"`
}

// CacheSection controls the on-disk chart cache.
type CacheSection struct {
	Dir         string `toml:"dir"`
	MaxEntries  int    `toml:"max_entries"`
}

// TimingSection mirrors the §5 timing constants table; every field is
// overridable so tests can shrink timeouts instead of sleeping real
// seconds.
type TimingSection struct {
	HoldParticleInterval float64 `toml:"hold_particle_interval"`
	UnjudgedLimit        float64 `toml:"unjudged_limit"`
	AutoplayMissLimit    float64 `toml:"autoplay_miss_limit"`
	StrictMissLimit      float64 `toml:"strict_miss_limit"`
	StaleLimit           float64 `toml:"stale_limit"`
	RewindOnResume       float64 `toml:"rewind_on_resume"`
	StartDelaySecs       float64 `toml:"start_delay_secs"`
	SeekOffset           float64 `toml:"seek_offset"`
	TouchFadeTime        float64 `toml:"touch_fade_time"`
	TouchAlpha           float64 `toml:"touch_alpha"`
	HeartbeatInterval    float64 `toml:"heartbeat_interval"`
	HeartbeatTimeout     float64 `toml:"heartbeat_timeout"`
}

// LoadConfig reads and parses a monitor.toml file.
func LoadConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses monitor.toml content and applies defaults.
func ParseConfig(data []byte) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *ServerConfig) {
	if cfg.Network.Port == 0 {
		cfg.Network.Port = 8080
	}
	if cfg.Network.APIBase == "" {
		cfg.Network.APIBase = "/api"
	}
	if len(cfg.Network.AllowedOrigins) == 0 {
		cfg.Network.AllowedOrigins = []string{"*"}
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "cache"
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 1000
	}

	t := &cfg.Timing
	setDefault(&t.HoldParticleInterval, 0.15)
	setDefault(&t.UnjudgedLimit, 0.400)
	setDefault(&t.AutoplayMissLimit, 0.160)
	setDefault(&t.StrictMissLimit, 0.200)
	setDefault(&t.StaleLimit, 0.200)
	setDefault(&t.RewindOnResume, 1.000)
	setDefault(&t.StartDelaySecs, 4.5)
	setDefault(&t.SeekOffset, 0.1)
	setDefault(&t.TouchFadeTime, 0.3)
	setDefault(&t.TouchAlpha, 0.6)
	setDefault(&t.HeartbeatInterval, 5.0)
	setDefault(&t.HeartbeatTimeout, 3.0)
}

func setDefault(field *float64, def float64) {
	if *field == 0 {
		*field = def
	}
}

func validate(cfg *ServerConfig) error {
	var errs []error
	if cfg.Network.Port < 1 || cfg.Network.Port > 65535 {
		errs = append(errs, fmt.Errorf("network.port must be 1-65535, got %d", cfg.Network.Port))
	}
	if cfg.Cache.MaxEntries < 1 {
		errs = append(errs, fmt.Errorf("cache.max_entries must be positive, got %d", cfg.Cache.MaxEntries))
	}
	if cfg.Timing.TouchAlpha < 0 || cfg.Timing.TouchAlpha > 1 {
		errs = append(errs, fmt.Errorf("timing.touch_alpha must be 0.0-1.0, got %f", cfg.Timing.TouchAlpha))
	}
	if cfg.Timing.HeartbeatTimeout >= cfg.Timing.HeartbeatInterval {
		errs = append(errs, fmt.Errorf("timing.heartbeat_timeout (%f) must be less than heartbeat_interval (%f)", cfg.Timing.HeartbeatTimeout, cfg.Timing.HeartbeatInterval))
	}
	return errors.Join(errs...)
}
