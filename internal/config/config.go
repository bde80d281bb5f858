// Package config provides Viper-based configuration loading for the haunted house.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode selects the presenter: "telnet" serves many explorers over TCP,
	// "console" runs a single local explorer in the terminal.
	Mode string `mapstructure:"mode"`
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener. 0 picks a free port.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxSessions caps concurrent explorers. 0 means unlimited.
	MaxSessions int `mapstructure:"max_sessions"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File redirects log output to a file. Empty means stderr.
	File string `mapstructure:"file"`
}

// GameConfig selects the house and where explorers begin.
type GameConfig struct {
	// HouseFile is a YAML house definition. Empty uses the embedded house.
	HouseFile string `mapstructure:"house_file"`
	// StartRoom overrides the house's start_room when non-empty.
	StartRoom string `mapstructure:"start_room"`
	// WrapWidth is the column at which room descriptions are wrapped.
	WrapWidth int `mapstructure:"wrap_width"`
}

// EffectsConfig holds the timings of room effects.
type EffectsConfig struct {
	// FlickerHalfCycle is the time taken to dim or brighten once.
	FlickerHalfCycle time.Duration `mapstructure:"flicker_half_cycle"`
	// FlickerCycles is the number of half cycles in one flicker.
	FlickerCycles int `mapstructure:"flicker_cycles"`
	// FlickerMinOpacity is the dimmest point of a flicker, in [0,1].
	FlickerMinOpacity float64 `mapstructure:"flicker_min_opacity"`
	// GhostFadeIn is the duration of the ghost fading in.
	GhostFadeIn time.Duration `mapstructure:"ghost_fade_in"`
	// GhostHold is how long the ghost lingers at peak opacity.
	GhostHold time.Duration `mapstructure:"ghost_hold"`
	// GhostFadeOut is the duration of the ghost fading out.
	GhostFadeOut time.Duration `mapstructure:"ghost_fade_out"`
	// GhostPeakOpacity is the ghost's maximum opacity, in (0,1].
	GhostPeakOpacity float64 `mapstructure:"ghost_peak_opacity"`
	// FrameInterval is the spacing of rendered animation frames.
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	// RoomFade is the fade-in applied to every room title. 0 disables it.
	RoomFade time.Duration `mapstructure:"room_fade"`
}

// StoreConfig selects where room visit tallies are kept.
type StoreConfig struct {
	// RedisURL is a redis:// URL. Empty keeps tallies in memory.
	RedisURL string `mapstructure:"redis_url"`
	// Key is the Redis hash holding the tallies.
	Key string `mapstructure:"key"`
	// Timeout bounds each store operation.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Telnet  TelnetConfig  `mapstructure:"telnet"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
	Effects EffectsConfig `mapstructure:"effects"`
	Store   StoreConfig   `mapstructure:"store"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateServer(c.Server),
		validateTelnet(c.Telnet),
		validateLogging(c.Logging),
		validateGame(c.Game),
		validateEffects(c.Effects),
		validateStore(c.Store),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	validModes := map[string]bool{"telnet": true, "console": true}
	if !validModes[s.Mode] {
		return fmt.Errorf("server.mode must be one of [telnet, console], got %q", s.Mode)
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 0 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 0-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	if t.MaxSessions < 0 {
		errs = append(errs, fmt.Sprintf("telnet.max_sessions must be >= 0, got %d", t.MaxSessions))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	if g.WrapWidth < 20 {
		return fmt.Errorf("game.wrap_width must be >= 20, got %d", g.WrapWidth)
	}
	return nil
}

func validateEffects(e EffectsConfig) error {
	var errs []string
	if e.FlickerHalfCycle <= 0 {
		errs = append(errs, "effects.flicker_half_cycle must be positive")
	}
	if e.FlickerCycles < 1 {
		errs = append(errs, fmt.Sprintf("effects.flicker_cycles must be >= 1, got %d", e.FlickerCycles))
	}
	if e.FlickerMinOpacity < 0 || e.FlickerMinOpacity > 1 {
		errs = append(errs, fmt.Sprintf("effects.flicker_min_opacity must be in [0,1], got %g", e.FlickerMinOpacity))
	}
	if e.GhostFadeIn < 0 || e.GhostHold < 0 || e.GhostFadeOut < 0 {
		errs = append(errs, "effects ghost durations must not be negative")
	}
	if e.GhostPeakOpacity <= 0 || e.GhostPeakOpacity > 1 {
		errs = append(errs, fmt.Sprintf("effects.ghost_peak_opacity must be in (0,1], got %g", e.GhostPeakOpacity))
	}
	if e.FrameInterval <= 0 {
		errs = append(errs, "effects.frame_interval must be positive")
	}
	if e.RoomFade < 0 {
		errs = append(errs, "effects.room_fade must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStore(s StoreConfig) error {
	var errs []string
	if s.Key == "" {
		errs = append(errs, "store.key must not be empty")
	}
	if s.Timeout <= 0 {
		errs = append(errs, "store.timeout must be positive")
	}
	if s.RedisURL != "" && !strings.HasPrefix(s.RedisURL, "redis://") && !strings.HasPrefix(s.RedisURL, "rediss://") {
		errs = append(errs, fmt.Sprintf("store.redis_url must use the redis:// or rediss:// scheme, got %q", s.RedisURL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment variables only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with HAUNT_ prefix
	v.SetEnvPrefix("HAUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "telnet")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "15m")
	v.SetDefault("telnet.write_timeout", "30s")
	v.SetDefault("telnet.max_sessions", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")

	v.SetDefault("game.house_file", "")
	v.SetDefault("game.start_room", "")
	v.SetDefault("game.wrap_width", 78)

	v.SetDefault("effects.flicker_half_cycle", "100ms")
	v.SetDefault("effects.flicker_cycles", 4)
	v.SetDefault("effects.flicker_min_opacity", 0.2)
	v.SetDefault("effects.ghost_fade_in", "2s")
	v.SetDefault("effects.ghost_hold", "2s")
	v.SetDefault("effects.ghost_fade_out", "2s")
	v.SetDefault("effects.ghost_peak_opacity", 0.6)
	v.SetDefault("effects.frame_interval", "100ms")
	v.SetDefault("effects.room_fade", "1s")

	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.key", "hauntedhouse:visits")
	v.SetDefault("store.timeout", "2s")
}
