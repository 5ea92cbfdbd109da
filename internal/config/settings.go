package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds the user-tunable options read from config.yaml.
type Settings struct {
	Bridge           BridgeSettings `yaml:"bridge"`
	Log              LogSettings    `yaml:"log"`
	DefaultDirective string         `yaml:"default_directive"`
	SearchLimit      int            `yaml:"search_limit"`
}

// BridgeSettings controls bridge key generation.
type BridgeSettings struct {
	KeyLength   int `yaml:"key_length"`
	KeyAttempts int `yaml:"key_attempts"`
}

// LogSettings controls the structured logger.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	minKeyLength = 4
	maxKeyLength = 32
)

// Defaults returns the settings used when no file is present.
func Defaults() Settings {
	return Settings{
		Bridge: BridgeSettings{
			KeyLength:   8,
			KeyAttempts: 5,
		},
		Log: LogSettings{
			Level:  "warn",
			Format: "text",
		},
		DefaultDirective: "DUMP",
		SearchLimit:      50,
	}
}

// Load reads the settings file at GetConfigPath.
func Load() (Settings, error) {
	return LoadFile(GetConfigPath())
}

// LoadFile reads settings from path. A missing file yields Defaults; fields
// absent from the file keep their default values.
func LoadFile(path string) (Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	return settings, nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Bridge.KeyLength < minKeyLength || s.Bridge.KeyLength > maxKeyLength {
		return fmt.Errorf("bridge.key_length must be between %d and %d, got %d", minKeyLength, maxKeyLength, s.Bridge.KeyLength)
	}
	if s.Bridge.KeyAttempts < 1 {
		return fmt.Errorf("bridge.key_attempts must be positive, got %d", s.Bridge.KeyAttempts)
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", s.Log.Level)
	}
	switch strings.ToLower(s.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not text or json", s.Log.Format)
	}
	switch strings.ToUpper(s.DefaultDirective) {
	case "DUMP", "CRITIQUE", "GENERATE":
	default:
		return fmt.Errorf("default_directive %q is not DUMP, CRITIQUE or GENERATE", s.DefaultDirective)
	}
	if s.SearchLimit < 1 {
		return fmt.Errorf("search_limit must be positive, got %d", s.SearchLimit)
	}
	return nil
}
