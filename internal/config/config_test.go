package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Mode: "telnet"},
		Telnet: TelnetConfig{
			Host:         "0.0.0.0",
			Port:         4000,
			ReadTimeout:  15 * time.Minute,
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Game:    GameConfig{WrapWidth: 78},
		Effects: EffectsConfig{
			FlickerHalfCycle:  100 * time.Millisecond,
			FlickerCycles:     4,
			FlickerMinOpacity: 0.2,
			GhostFadeIn:       2 * time.Second,
			GhostHold:         2 * time.Second,
			GhostFadeOut:      2 * time.Second,
			GhostPeakOpacity:  0.6,
			FrameInterval:     100 * time.Millisecond,
			RoomFade:          time.Second,
		},
		Store: StoreConfig{Key: "hauntedhouse:visits", Timeout: 2 * time.Second},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestTelnetAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:4000", cfg.Telnet.Addr())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "telnet", cfg.Server.Mode)
	assert.Equal(t, 4000, cfg.Telnet.Port)
	assert.Equal(t, 78, cfg.Game.WrapWidth)
	assert.Empty(t, cfg.Game.HouseFile)
	assert.Equal(t, 100*time.Millisecond, cfg.Effects.FlickerHalfCycle)
	assert.Equal(t, 4, cfg.Effects.FlickerCycles)
	assert.InDelta(t, 0.6, cfg.Effects.GhostPeakOpacity, 1e-9)
	assert.Equal(t, 2*time.Second, cfg.Effects.GhostHold)
	assert.Empty(t, cfg.Store.RedisURL)
	assert.Equal(t, "hauntedhouse:visits", cfg.Store.Key)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  mode: console
telnet:
  host: 127.0.0.1
  port: 4444
  read_timeout: 1m
logging:
  level: debug
  format: console
game:
  house_file: content/house.yaml
  start_room: Front Hall
  wrap_width: 60
effects:
  ghost_fade_in: 500ms
  room_fade: 0s
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "console", cfg.Server.Mode)
	assert.Equal(t, "127.0.0.1:4444", cfg.Telnet.Addr())
	assert.Equal(t, time.Minute, cfg.Telnet.ReadTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "content/house.yaml", cfg.Game.HouseFile)
	assert.Equal(t, "Front Hall", cfg.Game.StartRoom)
	assert.Equal(t, 60, cfg.Game.WrapWidth)
	assert.Equal(t, 500*time.Millisecond, cfg.Effects.GhostFadeIn)
	assert.Equal(t, time.Duration(0), cfg.Effects.RoomFade)
	// Unset keys keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.Effects.GhostFadeOut)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HAUNT_TELNET_PORT", "5555")
	t.Setenv("HAUNT_GAME_START_ROOM", "Parlor")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5555, cfg.Telnet.Port)
	assert.Equal(t, "Parlor", cfg.Game.StartRoom)
}

func TestLoadFromViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("logging.level", "verbose")

	_, err := LoadFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_InvalidMode(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = "gui"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidate_NegativeTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Telnet.ReadTimeout = -time.Second
	cfg.Telnet.WriteTimeout = -time.Second
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read_timeout")
	assert.Contains(t, err.Error(), "write_timeout")
}

func TestValidate_NarrowWrap(t *testing.T) {
	cfg := validConfig()
	cfg.Game.WrapWidth = 10
	assert.Error(t, cfg.Validate())
}

func TestValidate_Effects(t *testing.T) {
	cfg := validConfig()
	cfg.Effects.FlickerCycles = 0
	cfg.Effects.GhostPeakOpacity = 1.5
	cfg.Effects.FrameInterval = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flicker_cycles")
	assert.Contains(t, err.Error(), "ghost_peak_opacity")
	assert.Contains(t, err.Error(), "frame_interval")
}

func TestValidate_Store(t *testing.T) {
	cfg := validConfig()
	cfg.Store.RedisURL = "redis://localhost:6379/0"
	require.NoError(t, cfg.Validate())

	cfg.Store.RedisURL = "http://localhost:6379"
	cfg.Store.Key = ""
	cfg.Store.Timeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.redis_url")
	assert.Contains(t, err.Error(), "store.key")
	assert.Contains(t, err.Error(), "store.timeout")
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = ""
	cfg.Logging.Level = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
	assert.Contains(t, err.Error(), "logging.level")
}

// Property: any port in the valid TCP range passes validation.
func TestPropertyValidPortsAccepted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		cfg.Telnet.Port = rapid.IntRange(0, 65535).Draw(t, "port")
		assert.NoError(t, cfg.Validate())
	})
}

// Property: ports outside the TCP range are always rejected.
func TestPropertyInvalidPortsRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		if rapid.Bool().Draw(t, "low") {
			cfg.Telnet.Port = rapid.IntRange(-10000, -1).Draw(t, "port")
		} else {
			cfg.Telnet.Port = rapid.IntRange(65536, 100000).Draw(t, "port")
		}
		assert.Error(t, cfg.Validate())
	})
}
