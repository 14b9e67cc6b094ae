// Package config loads the YAML configuration of the wikipreview CLI.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/user/wikipreview/pkg/adapters/chromehost"
	"github.com/user/wikipreview/pkg/adapters/wikicontent"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/wikipreview"
)

// Config represents the full configuration file.
type Config struct {
	// Identity
	Version      string `yaml:"version"`
	CacheDir     string `yaml:"cache_dir"`
	ArticleTitle string `yaml:"article_title"`

	// Themes
	Themes []string `yaml:"themes"`
	Theme  string   `yaml:"theme"`

	// Geometry
	Density        float64       `yaml:"density"`
	ThemeSize      SizeConfig    `yaml:"theme_size"`
	TableSize      SizeConfig    `yaml:"table_size"`
	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
	TopBias        TopBiasConfig `yaml:"top_bias"`
	DividerColor   string        `yaml:"divider_color"`

	// Generation
	Timeouts  TimeoutConfig `yaml:"timeouts"`
	Retry     RetryConfig   `yaml:"retry"`
	HeapLimit string        `yaml:"heap_limit"` // e.g. "512MiB"; used when the runtime sets no memory limit
	Batch     bool          `yaml:"batch"`

	// Collaborators
	Chrome  ChromeConfig  `yaml:"chrome"`
	Content ContentConfig `yaml:"content"`

	// Output
	LogLevel string `yaml:"log_level"`
	Summary  string `yaml:"summary"` // Markdown run summary path
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// TopBiasConfig positions the crop in tall captures: 0 keeps the top,
// 1 keeps the bottom.
type TopBiasConfig struct {
	Theme float64 `yaml:"theme"`
	Table float64 `yaml:"table"`
}

// SizeConfig is a preview size in density-independent pixels.
type SizeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TimeoutConfig holds timeouts in milliseconds.
type TimeoutConfig struct {
	LoadMs        int `yaml:"load_ms"`
	HostMs        int `yaml:"host_ms"`
	CaptureMs     int `yaml:"capture_ms"`
	RunMs         int `yaml:"run_ms"`
	PermutationMs int `yaml:"permutation_ms"`
}

// RetryConfig configures background retries.
type RetryConfig struct {
	Attempts int `yaml:"attempts"`
	BaseMs   int `yaml:"base_ms"`
}

// ChromeConfig configures the Chrome host.
type ChromeConfig struct {
	Path      string `yaml:"path"`
	Headless  bool   `yaml:"headless"`
	NoSandbox bool   `yaml:"no_sandbox"`
	UserAgent string `yaml:"user_agent"`
}

// ContentConfig configures the article loader.
type ContentConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	UserAgent         string  `yaml:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutMs         int     `yaml:"timeout_ms"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	svc := wikipreview.NewConfigBuilder().Build()
	content := wikicontent.DefaultConfig()
	return Config{
		Version:      svc.Version,
		CacheDir:     svc.CacheDir,
		ArticleTitle: svc.ArticleTitle,

		Themes: svc.Themes,
		Theme:  svc.Theme,

		Density:        svc.Density,
		ThemeSize:      SizeConfig{Width: svc.ThemeWidthDp, Height: svc.ThemeHeightDp},
		TableSize:      SizeConfig{Width: svc.TableWidthDp, Height: svc.TableHeightDp},
		ViewportWidth:  svc.ViewportWidth,
		ViewportHeight: svc.ViewportHeight,
		TopBias:        TopBiasConfig{Theme: svc.ThemeTopBias, Table: svc.TableTopBias},
		DividerColor:   "#808080",

		Timeouts: TimeoutConfig{
			LoadMs:        int(svc.LoadTimeout / time.Millisecond),
			HostMs:        int(svc.HostTimeout / time.Millisecond),
			CaptureMs:     int(svc.CaptureTimeout / time.Millisecond),
			RunMs:         int(svc.RunTimeout / time.Millisecond),
			PermutationMs: int(svc.PermutationTimeout / time.Millisecond),
		},
		Retry: RetryConfig{
			Attempts: svc.RetryAttempts,
			BaseMs:   int(svc.RetryBase / time.Millisecond),
		},
		Batch: svc.Batch,

		Chrome: ChromeConfig{
			Headless:  true,
			NoSandbox: true,
		},
		Content: ContentConfig{
			Endpoint:          content.Endpoint,
			UserAgent:         content.UserAgent,
			RequestsPerSecond: content.RequestsPerSecond,
			TimeoutMs:         int(content.Timeout / time.Millisecond),
		},

		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ParseColor parses a "#rrggbb" hex color. Malformed input yields black.
func ParseColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.Black
	}
	return color.RGBA{
		R: hexByte(hex[0], hex[1]),
		G: hexByte(hex[2], hex[3]),
		B: hexByte(hex[4], hex[5]),
		A: 255,
	}
}

func hexByte(hi, lo byte) uint8 {
	return hexValue(hi)<<4 | hexValue(lo)
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// ParseHeapLimit parses a size such as "512MiB" or "1GB". Empty means 0.
func ParseHeapLimit(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("heap limit: %w", err)
	}
	return int64(n), nil
}

// ToServiceConfig converts Config to wikipreview.Config.
func (c Config) ToServiceConfig() (wikipreview.Config, error) {
	heap, err := ParseHeapLimit(c.HeapLimit)
	if err != nil {
		return wikipreview.Config{}, err
	}
	return wikipreview.NewConfigBuilder().
		WithVersion(c.Version).
		WithCacheDir(c.CacheDir).
		WithArticleTitle(c.ArticleTitle).
		WithThemes(c.Themes...).
		WithTheme(c.Theme).
		WithDensity(c.Density).
		WithThemeSizeDp(c.ThemeSize.Width, c.ThemeSize.Height).
		WithTableSizeDp(c.TableSize.Width, c.TableSize.Height).
		WithViewportWidth(c.ViewportWidth).
		WithViewportHeight(c.ViewportHeight).
		WithTopBias(c.TopBias.Theme, c.TopBias.Table).
		WithDividerColor(ParseColor(c.DividerColor)).
		WithLoadTimeout(millis(c.Timeouts.LoadMs)).
		WithHostTimeout(millis(c.Timeouts.HostMs)).
		WithCaptureTimeout(millis(c.Timeouts.CaptureMs)).
		WithRunTimeout(millis(c.Timeouts.RunMs)).
		WithPermutationTimeout(millis(c.Timeouts.PermutationMs)).
		WithRetry(c.Retry.Attempts, millis(c.Retry.BaseMs)).
		WithHeapLimit(heap).
		WithBatch(c.Batch).
		Build(), nil
}

// ChromeOptions returns the options of the Chrome host.
func (c Config) ChromeOptions() chromehost.Options {
	return chromehost.Options{
		ChromePath: c.Chrome.Path,
		Headless:   c.Chrome.Headless,
		NoSandbox:  c.Chrome.NoSandbox,
		UserAgent:  c.Chrome.UserAgent,
	}
}

// ContentLoaderConfig returns the article loader configuration.
func (c Config) ContentLoaderConfig() wikicontent.Config {
	return wikicontent.Config{
		Endpoint:          c.Content.Endpoint,
		UserAgent:         c.Content.UserAgent,
		RequestsPerSecond: c.Content.RequestsPerSecond,
		Timeout:           millis(c.Content.TimeoutMs),
	}
}

// Level returns the configured log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
