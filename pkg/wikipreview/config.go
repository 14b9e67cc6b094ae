package wikipreview

import (
	"image/color"
	"math"
	"time"

	"github.com/user/wikipreview/pkg/cache"
	"github.com/user/wikipreview/pkg/coordinator"
	"github.com/user/wikipreview/pkg/hostpool"
	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/preview"
	"github.com/user/wikipreview/pkg/renderer"
)

// Config represents the configuration of a preview service.
type Config struct {
	// Identity
	Version      string // App build version embedded in every key
	CacheDir     string // Root of the disk tier
	ArticleTitle string // Article shown in table previews

	// Themes
	Themes []string // Theme previews generated in the background
	Theme  string   // Active reading theme

	// Geometry
	Density        float64 // Device pixel ratio
	ThemeWidthDp   int     // Theme preview width
	ThemeHeightDp  int     // Theme preview height
	TableWidthDp   int     // Table preview width
	TableHeightDp  int     // Table preview height
	ViewportWidth  int     // Surface width in CSS pixels (min: 240)
	ViewportHeight int     // Surface height in CSS pixels (min: 240)
	ThemeTopBias   float64 // Crop position in theme captures: 0 top, 1 bottom
	TableTopBias   float64 // Crop position in table captures: 0 top, 1 bottom

	// Style
	DividerColor color.Color // Divider of split system-theme previews

	// Timing
	LoadTimeout        time.Duration // Article load
	HostTimeout        time.Duration // Waiting for a live host
	CaptureTimeout     time.Duration // One state capture
	RunTimeout         time.Duration // One background run
	PermutationTimeout time.Duration // One preview of a background run

	// Retry
	RetryAttempts int           // Attempts per permutation (min: 1)
	RetryBase     time.Duration // Linear backoff base

	// Memory
	HeapLimit int64 // Heap size assumed when no runtime memory limit is set (0: 512 MiB)

	// Batch prefetches each kind from one document load before the per-key pass.
	Batch bool
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: defaults()}
}

func defaults() Config {
	rc := renderer.DefaultConfig()
	cc := coordinator.DefaultConfig()
	return Config{
		Version:      "0",
		CacheDir:     "cache",
		ArticleTitle: rc.ArticleTitle,

		Themes: cc.Themes,
		Theme:  cc.Theme,

		Density:        rc.Density,
		ThemeWidthDp:   96,
		ThemeHeightDp:  160,
		TableWidthDp:   320,
		TableHeightDp:  180,
		ViewportWidth:  rc.ThemeViewport.Width,
		ViewportHeight: rc.ThemeViewport.Height,
		ThemeTopBias:   rc.ThemeTopBias,
		TableTopBias:   rc.TableTopBias,

		DividerColor: color.RGBA{R: rc.DividerColor[0], G: rc.DividerColor[1], B: rc.DividerColor[2], A: rc.DividerColor[3]},

		LoadTimeout:        rc.LoadTimeout,
		HostTimeout:        rc.HostTimeout,
		CaptureTimeout:     rc.CaptureTimeout,
		RunTimeout:         cc.Timeout,
		PermutationTimeout: cc.PermutationTimeout,

		RetryAttempts: cc.RetryAttempts,
		RetryBase:     cc.RetryBase,

		Batch: true,
	}
}

// Build returns the final Config, applying validation and constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	if cfg.Density <= 0 {
		cfg.Density = 1
	}
	if cfg.ViewportWidth < 240 {
		cfg.ViewportWidth = 240
	}
	if cfg.ViewportHeight < 240 {
		cfg.ViewportHeight = 240
	}
	cfg.ThemeTopBias = math.Max(0, math.Min(1, cfg.ThemeTopBias))
	cfg.TableTopBias = math.Max(0, math.Min(1, cfg.TableTopBias))
	for _, dp := range []*int{&cfg.ThemeWidthDp, &cfg.ThemeHeightDp, &cfg.TableWidthDp, &cfg.TableHeightDp} {
		if *dp < 1 {
			*dp = 1
		}
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if len(cfg.Themes) == 0 {
		cfg.Themes = coordinator.DefaultConfig().Themes
	}
	if cfg.Theme == "" {
		cfg.Theme = preview.ThemeLight
	}
	if cfg.Version == "" {
		cfg.Version = "0"
	}
	if cfg.DividerColor == nil {
		cfg.DividerColor = color.Gray{Y: 128}
	}

	cfg.Themes = append([]string(nil), cfg.Themes...)
	return cfg
}

// WithVersion sets the app build version.
func (b *ConfigBuilder) WithVersion(version string) *ConfigBuilder {
	b.config.Version = version
	return b
}

// WithCacheDir sets the disk tier root.
func (b *ConfigBuilder) WithCacheDir(dir string) *ConfigBuilder {
	b.config.CacheDir = dir
	return b
}

// WithArticleTitle sets the article shown in table previews.
func (b *ConfigBuilder) WithArticleTitle(title string) *ConfigBuilder {
	b.config.ArticleTitle = title
	return b
}

// WithThemes sets the themes generated in the background.
func (b *ConfigBuilder) WithThemes(themes ...string) *ConfigBuilder {
	b.config.Themes = themes
	return b
}

// WithTheme sets the active reading theme.
func (b *ConfigBuilder) WithTheme(theme string) *ConfigBuilder {
	b.config.Theme = theme
	return b
}

// WithDensity sets the device pixel ratio.
func (b *ConfigBuilder) WithDensity(density float64) *ConfigBuilder {
	b.config.Density = density
	return b
}

// WithThemeSizeDp sets the theme preview size.
func (b *ConfigBuilder) WithThemeSizeDp(width, height int) *ConfigBuilder {
	b.config.ThemeWidthDp, b.config.ThemeHeightDp = width, height
	return b
}

// WithTableSizeDp sets the table preview size.
func (b *ConfigBuilder) WithTableSizeDp(width, height int) *ConfigBuilder {
	b.config.TableWidthDp, b.config.TableHeightDp = width, height
	return b
}

// WithViewportWidth sets the surface width.
// Values below 240 will be forced to 240.
func (b *ConfigBuilder) WithViewportWidth(width int) *ConfigBuilder {
	b.config.ViewportWidth = width
	return b
}

// WithViewportHeight sets the surface height.
// Values below 240 will be forced to 240.
func (b *ConfigBuilder) WithViewportHeight(height int) *ConfigBuilder {
	b.config.ViewportHeight = height
	return b
}

// WithTopBias sets where the crop sits in tall captures, per kind.
// Values are clamped to [0, 1].
func (b *ConfigBuilder) WithTopBias(theme, table float64) *ConfigBuilder {
	b.config.ThemeTopBias, b.config.TableTopBias = theme, table
	return b
}

// WithDividerColor sets the divider color of split previews.
func (b *ConfigBuilder) WithDividerColor(c color.Color) *ConfigBuilder {
	b.config.DividerColor = c
	return b
}

// WithLoadTimeout sets the article load timeout.
func (b *ConfigBuilder) WithLoadTimeout(d time.Duration) *ConfigBuilder {
	b.config.LoadTimeout = d
	return b
}

// WithHostTimeout sets how long a render waits for a live host.
func (b *ConfigBuilder) WithHostTimeout(d time.Duration) *ConfigBuilder {
	b.config.HostTimeout = d
	return b
}

// WithCaptureTimeout sets the timeout of one state capture.
func (b *ConfigBuilder) WithCaptureTimeout(d time.Duration) *ConfigBuilder {
	b.config.CaptureTimeout = d
	return b
}

// WithRunTimeout sets the timeout of one background run.
func (b *ConfigBuilder) WithRunTimeout(d time.Duration) *ConfigBuilder {
	b.config.RunTimeout = d
	return b
}

// WithPermutationTimeout sets the timeout of one background preview.
func (b *ConfigBuilder) WithPermutationTimeout(d time.Duration) *ConfigBuilder {
	b.config.PermutationTimeout = d
	return b
}

// WithRetry sets the attempts per permutation and the backoff base.
// Attempts below 1 will be forced to 1.
func (b *ConfigBuilder) WithRetry(attempts int, base time.Duration) *ConfigBuilder {
	b.config.RetryAttempts, b.config.RetryBase = attempts, base
	return b
}

// WithHeapLimit sets the heap size the memory budgets derive from when the
// runtime has no memory limit set.
func (b *ConfigBuilder) WithHeapLimit(bytes int64) *ConfigBuilder {
	b.config.HeapLimit = bytes
	return b
}

// WithBatch enables or disables batch prefetching.
func (b *ConfigBuilder) WithBatch(batch bool) *ConfigBuilder {
	b.config.Batch = batch
	return b
}

// Target returns the preview size of kind in device pixels.
func (c Config) Target(kind preview.SubjectKind) preview.Dimensions {
	if kind == preview.KindTable {
		return preview.FromDp(c.TableWidthDp, c.TableHeightDp, c.Density)
	}
	return preview.FromDp(c.ThemeWidthDp, c.ThemeHeightDp, c.Density)
}

// ToRendererConfig converts Config to renderer.Config. Both kinds render
// on a device-sized surface; the capture is then cropped to each target's
// aspect ratio at the kind's top bias.
func (c Config) ToRendererConfig() renderer.Config {
	rc := renderer.DefaultConfig()
	rc.ArticleTitle = c.ArticleTitle
	rc.Density = c.Density
	surface := pipeline.Dimension{Width: c.ViewportWidth, Height: c.ViewportHeight}
	rc.ThemeViewport = surface
	rc.TableViewport = surface
	rc.ThemeTopBias = c.ThemeTopBias
	rc.TableTopBias = c.TableTopBias
	rc.ThemeTarget = c.Target(preview.KindTheme)
	rc.TableTarget = c.Target(preview.KindTable)
	if c.DividerColor != nil {
		rc.DividerColor = colorToArray(c.DividerColor)
	}
	if c.LoadTimeout > 0 {
		rc.LoadTimeout = c.LoadTimeout
	}
	if c.HostTimeout > 0 {
		rc.HostTimeout = c.HostTimeout
	}
	if c.CaptureTimeout > 0 {
		rc.CaptureTimeout = c.CaptureTimeout
	}
	return rc
}

// ToCoordinatorConfig converts Config to coordinator.Config.
func (c Config) ToCoordinatorConfig() coordinator.Config {
	return coordinator.Config{
		Themes:             append([]string(nil), c.Themes...),
		Theme:              c.Theme,
		Version:            c.Version,
		Timeout:            c.RunTimeout,
		PermutationTimeout: c.PermutationTimeout,
		RetryAttempts:      c.RetryAttempts,
		RetryBase:          c.RetryBase,
		Batch:              c.Batch,
	}
}

// ToHostPoolConfig converts Config to hostpool.Config.
func (c Config) ToHostPoolConfig() hostpool.Config {
	return hostpool.Config{Timeout: c.HostTimeout}
}

// CacheConfig returns the cache configuration of kind.
func (c Config) CacheConfig(kind preview.SubjectKind) cache.Config {
	heap := cache.HeapLimit(c.HeapLimit)
	return cache.Config{
		Kind:    kind,
		Dir:     c.CacheDir,
		Target:  c.Target(kind),
		Density: c.Density,
		Budget:  cache.MemoryBudget(kind, heap),
		Version: c.Version,
	}
}

// colorToArray converts color.Color to [4]uint8 array.
func colorToArray(c color.Color) [4]uint8 {
	r, g, b, a := c.RGBA()
	return [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}
