// Package config loads strokebridge settings from YAML.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/strokebridge/bridge"
	"github.com/wippyai/strokebridge/engine"
	"github.com/wippyai/strokebridge/errors"
)

// Config is the top-level configuration file.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Script ScriptConfig `yaml:"script"`
	Log    LogConfig    `yaml:"log"`
	Canvas CanvasConfig `yaml:"canvas"`
}

// EngineConfig selects how scripts are executed.
type EngineConfig struct {
	// Compilation is auto, compiler or interpreter.
	Compilation string `yaml:"compilation"`

	// CacheDir persists compiled scripts. Empty caches in memory.
	CacheDir string `yaml:"cache_dir,omitempty"`

	MemoryLimitPages uint32 `yaml:"memory_limit_pages,omitempty"`
}

// ScriptConfig names the interpolation script and how it is reloaded.
type ScriptConfig struct {
	// Path to a WAT file. Empty uses the built-in identity script.
	Path string `yaml:"path,omitempty"`

	// ReloadPolicy is retain or clear.
	ReloadPolicy string `yaml:"reload_policy"`

	// InvokeTimeout bounds one call to main, e.g. "250ms". Zero disables it.
	InvokeTimeout time.Duration `yaml:"invoke_timeout,omitempty"`
}

// LogConfig configures the zap logger built by the logging package.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CanvasConfig is the coordinate space passed to main as x and y.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{Compilation: "auto"},
		Script: ScriptConfig{ReloadPolicy: "retain"},
		Log:    LogConfig{Level: "info", Format: "console"},
		Canvas: CanvasConfig{Width: 512, Height: 512},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every enumerated and ranged field.
func (c *Config) Validate() error {
	if _, err := engine.ParseMode(c.Engine.Compilation); err != nil {
		return errors.InvalidInput(errors.PhaseConfig, "engine.compilation: "+err.Error())
	}
	if _, err := bridge.ParseReloadPolicy(c.Script.ReloadPolicy); err != nil {
		return errors.InvalidInput(errors.PhaseConfig, "script.reload_policy: "+err.Error())
	}
	if c.Script.InvokeTimeout < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "script.invoke_timeout must not be negative")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return errors.InvalidInput(errors.PhaseConfig, "log.level: "+err.Error())
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("log.format: must be console or json, got %q", c.Log.Format))
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errors.InvalidInput(errors.PhaseConfig, "canvas width and height must be positive")
	}
	return nil
}

// BridgeOptions converts the file settings into bridge options.
func (c *Config) BridgeOptions(log *zap.Logger) (bridge.Options, error) {
	mode, err := engine.ParseMode(c.Engine.Compilation)
	if err != nil {
		return bridge.Options{}, err
	}
	policy, err := bridge.ParseReloadPolicy(c.Script.ReloadPolicy)
	if err != nil {
		return bridge.Options{}, err
	}
	return bridge.Options{
		Logger: log,
		Engine: engine.Config{
			Compilation:      mode,
			CacheDir:         c.Engine.CacheDir,
			MemoryLimitPages: c.Engine.MemoryLimitPages,
		},
		InvokeTimeout: c.Script.InvokeTimeout,
		ReloadPolicy:  policy,
	}, nil
}
