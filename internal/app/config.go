package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hat-editor/internal/scene"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config holds the editor configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"` // debug | info | warn | error
	Editor   EditorConfig  `yaml:"editor"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Export   ExportConfig  `yaml:"export"`
}

// EditorConfig bounds sticker scaling.
type EditorConfig struct {
	MinScale        float64 `yaml:"min_scale"`
	MaxScale        float64 `yaml:"max_scale"`
	DefaultFraction float64 `yaml:"default_fraction"` // Sticker's longer edge relative to the photo's shorter edge
}

// CatalogConfig locates the hat sprites.
type CatalogConfig struct {
	Dir           string `yaml:"dir"`
	MaxIndex      int    `yaml:"max_index"`
	Watch         bool   `yaml:"watch"`
	ThumbnailSize int    `yaml:"thumbnail_size"`
}

// ExportConfig controls downloads.
type ExportConfig struct {
	DownloadDir  string `yaml:"download_dir"` // Empty means ~/Downloads or home
	Prefix       string `yaml:"prefix"`
	TempFallback bool   `yaml:"temp_fallback"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	limits := scene.DefaultLimits()
	return &Config{
		LogLevel: "info",
		Editor: EditorConfig{
			MinScale:        limits.MinScale,
			MaxScale:        limits.MaxScale,
			DefaultFraction: limits.DefaultFraction,
		},
		Catalog: CatalogConfig{
			Dir:           "hats",
			MaxIndex:      30,
			Watch:         true,
			ThumbnailSize: 96,
		},
		Export: ExportConfig{
			Prefix:       "hat-photo",
			TempFallback: true,
		},
	}
}

// DefaultConfigPath returns ~/.config/hat-editor/config.yaml.
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "hat-editor", "config.yaml")
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.expand(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadConfigOrDefault is LoadConfig, except that a missing file yields the
// defaults.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig()
		return cfg, cfg.expand()
	}
	return cfg, err
}

func (c *Config) expand() error {
	var err error
	if c.Catalog.Dir, err = homedir.Expand(c.Catalog.Dir); err != nil {
		return fmt.Errorf("catalog.dir: %w", err)
	}
	if c.Export.DownloadDir, err = homedir.Expand(c.Export.DownloadDir); err != nil {
		return fmt.Errorf("export.download_dir: %w", err)
	}
	return nil
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	e := c.Editor
	if e.MinScale <= 0 {
		return fmt.Errorf("editor.min_scale must be > 0")
	}
	if e.MaxScale < e.MinScale {
		return fmt.Errorf("editor.max_scale must be >= min_scale")
	}
	if e.DefaultFraction <= 0 || e.DefaultFraction > 1 {
		return fmt.Errorf("editor.default_fraction must be in (0, 1]")
	}
	if c.Catalog.Dir == "" {
		return fmt.Errorf("catalog.dir is required")
	}
	if c.Catalog.MaxIndex <= 0 {
		return fmt.Errorf("catalog.max_index must be > 0")
	}
	if c.Catalog.ThumbnailSize <= 0 {
		return fmt.Errorf("catalog.thumbnail_size must be > 0")
	}
	if strings.ContainsAny(c.Export.Prefix, `/\`) {
		return fmt.Errorf("export.prefix %q must not contain path separators", c.Export.Prefix)
	}
	return nil
}

// Limits returns the scale limits for the scene.
func (c *Config) Limits() scene.Limits {
	return scene.Limits{
		MinScale:        c.Editor.MinScale,
		MaxScale:        c.Editor.MaxScale,
		DefaultFraction: c.Editor.DefaultFraction,
	}
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log_level %q (use debug, info, warn or error)", c.LogLevel)
	}
}
