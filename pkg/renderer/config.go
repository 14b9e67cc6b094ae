package renderer

import (
	"time"

	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/preview"
)

// Config contains all configuration for the renderer.
type Config struct {
	// Content
	ArticleTitle string // Article shown in table previews

	// Geometry
	Density       float64            // Device pixel ratio
	ThemeViewport pipeline.Dimension // Surface size for theme previews, CSS pixels
	TableViewport pipeline.Dimension // Surface size for table previews, CSS pixels
	ThemeTarget   preview.Dimensions // Theme preview size, device pixels
	TableTarget   preview.Dimensions // Table preview size, device pixels
	ThemeTopBias  float64            // 0 keeps the top, 1 keeps the bottom
	TableTopBias  float64

	// Timing
	LoadTimeout    time.Duration // Article load
	HostTimeout    time.Duration // Waiting for a host
	CaptureTimeout time.Duration // One state capture
	ReadyTimeout   time.Duration // Ready-for-display wait after settling
	StateTimeout   time.Duration // State switch in a multi-capture session
	SettleDelay    time.Duration // Pause after load before the ready check

	DividerColor [4]uint8 // RGBA divider of split previews
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	const density = 2.0
	return Config{
		ArticleTitle: "Earth",

		Density:       density,
		ThemeViewport: pipeline.Dimension{Width: 360, Height: 640},
		TableViewport: pipeline.Dimension{Width: 360, Height: 640},
		ThemeTarget:   preview.FromDp(96, 160, density),
		TableTarget:   preview.FromDp(320, 180, density),
		ThemeTopBias:  0.1,
		TableTopBias:  0,

		LoadTimeout:    15 * time.Second,
		HostTimeout:    25 * time.Second,
		CaptureTimeout: 20 * time.Second,
		ReadyTimeout:   2 * time.Second,
		StateTimeout:   1500 * time.Millisecond,
		SettleDelay:    600 * time.Millisecond,

		DividerColor: [4]uint8{128, 128, 128, 255},
	}
}

// Target returns the preview size of kind in device pixels.
func (c Config) Target(kind preview.SubjectKind) preview.Dimensions {
	if kind == preview.KindTable {
		return c.TableTarget
	}
	return c.ThemeTarget
}

func (c Config) viewport(kind preview.SubjectKind) pipeline.Dimension {
	if kind == preview.KindTable {
		return c.TableViewport
	}
	return c.ThemeViewport
}

func (c Config) topBias(kind preview.SubjectKind) float64 {
	if kind == preview.KindTable {
		return c.TableTopBias
	}
	return c.ThemeTopBias
}
