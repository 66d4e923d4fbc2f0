package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/twinflash/go/internal/game/outbox"
	"github.com/mcdev12/twinflash/go/internal/game/session"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given
const DefaultPath = "twinflash.yaml"

type Config struct {
	Game     GameConfig     `yaml:"game"`
	Server   ServerConfig   `yaml:"server"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
}

// GameConfig holds the timing constants in milliseconds and the initial mode
type GameConfig struct {
	ShowDelayMS     int    `yaml:"show_delay_ms"`
	ActivateDelayMS int    `yaml:"activate_delay_ms"`
	HideDelayMS     int    `yaml:"hide_delay_ms"`
	AutoStopMS      int    `yaml:"auto_stop_ms"`
	Mode            string `yaml:"mode"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// ResultsURL is where the results command finds the API
	ResultsURL string `yaml:"results_url"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
	// Feed broadcasts every finished game to all connected players
	Feed bool `yaml:"feed"`
}

// DatabaseConfig turns on the Postgres outbox; connection settings come from DB_* variables
type DatabaseConfig struct {
	Enabled        bool  `yaml:"enabled"`
	PollIntervalMS int   `yaml:"poll_interval_ms"`
	BatchSize      int32 `yaml:"batch_size"`
}

func Default() *Config {
	game := session.DefaultConfig()
	js := outbox.DefaultJetStreamConfig()
	relay := outbox.DefaultRelayConfig()
	return &Config{
		Game: GameConfig{
			ShowDelayMS:     int(game.ShowDelay.Milliseconds()),
			ActivateDelayMS: int(game.ActivateDelay.Milliseconds()),
			HideDelayMS:     int(game.HideDelay.Milliseconds()),
			AutoStopMS:      int(game.AutoStop.Milliseconds()),
			Mode:            string(session.ModeUniform),
		},
		Server: ServerConfig{
			Port:       8080,
			ResultsURL: "http://localhost:8080",
		},
		NATS: NATSConfig{
			URL:           js.URL,
			Stream:        js.StreamName,
			SubjectPrefix: js.SubjectPrefix,
		},
		Database: DatabaseConfig{
			PollIntervalMS: int(relay.PollInterval.Milliseconds()),
			BatchSize:      relay.BatchSize,
		},
	}
}

// Load reads path over the defaults. A missing file at the default path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Server.ResultsURL = getEnv("RESULTS_URL", c.Server.ResultsURL)
	c.Game.Mode = getEnv("GAME_MODE", c.Game.Mode)
	if url := os.Getenv("NATS_URL"); url != "" {
		c.NATS.URL = url
		c.NATS.Enabled = true
	}
	c.Database.Enabled = getEnvAsBool("DB_ENABLED", c.Database.Enabled)
}

func (c *Config) Validate() error {
	if _, err := session.ParseMode(c.Game.Mode); err != nil {
		return fmt.Errorf("game mode: %w", err)
	}
	if err := c.Session().Validate(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}

// Session converts the game section into session timings
func (c *Config) Session() session.Config {
	return session.Config{
		ShowDelay:     ms(c.Game.ShowDelayMS),
		ActivateDelay: ms(c.Game.ActivateDelayMS),
		HideDelay:     ms(c.Game.HideDelayMS),
		AutoStop:      ms(c.Game.AutoStopMS),
	}
}

// Mode is the validated initial mode
func (c *Config) Mode() session.Mode {
	mode, err := session.ParseMode(c.Game.Mode)
	if err != nil {
		return session.ModeUniform
	}
	return mode
}

func (c *Config) JetStream() outbox.JetStreamConfig {
	js := outbox.DefaultJetStreamConfig()
	js.URL = c.NATS.URL
	if c.NATS.Stream != "" {
		js.StreamName = c.NATS.Stream
	}
	if c.NATS.SubjectPrefix != "" {
		js.SubjectPrefix = c.NATS.SubjectPrefix
	}
	return js
}

func (c *Config) Relay() outbox.RelayConfig {
	relay := outbox.DefaultRelayConfig()
	if c.Database.PollIntervalMS > 0 {
		relay.PollInterval = ms(c.Database.PollIntervalMS)
	}
	if c.Database.BatchSize > 0 {
		relay.BatchSize = c.Database.BatchSize
	}
	return relay
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
