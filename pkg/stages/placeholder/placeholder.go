// Package placeholder implements the placeholder preview stage.
package placeholder

import (
	"context"
	"fmt"

	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

const (
	labelSizeDp    = 14.0 // Label font size in density-independent pixels
	minLabelSizeDp = 8.0
	labelMargin    = 0.1 // Fraction of the width kept clear on each side
)

// Stage draws a flat theme-colored preview with a short label. It is shown
// whenever a real preview cannot be produced.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new placeholder stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("placeholder"),
	}
}

// Execute draws the placeholder.
func (s *Stage) Execute(ctx context.Context, input pipeline.PlaceholderInput) (pipeline.PlaceholderResult, error) {
	if input.Target.Width <= 0 || input.Target.Height <= 0 {
		return pipeline.PlaceholderResult{}, fmt.Errorf("invalid placeholder size %dx%d", input.Target.Width, input.Target.Height)
	}
	density := input.Density
	if density <= 0 {
		density = 1
	}

	canvas := s.renderer.CreateCanvas(input.Target.Width, input.Target.Height, input.Theme.BackgroundColor)
	if input.Label != "" {
		style := fitLabel(canvas, input.Label, float64(input.Target.Width)*(1-2*labelMargin), ports.TextStyle{
			FontSize: labelSizeDp * density,
			Color:    input.Theme.TextColor,
			Align:    ports.AlignCenter,
		}, minLabelSizeDp*density)
		canvas.DrawText(input.Label, input.Target.Width/2, input.Target.Height/2, style)
	}

	s.logger.Debug("Placeholder drawn: %q %dx%d", input.Label, input.Target.Width, input.Target.Height)
	return pipeline.PlaceholderResult{Bitmap: preview.NewBitmap(canvas.ToImage(), density)}, nil
}

// fitLabel shrinks style's font until label fits maxWidth, stopping at minSize.
func fitLabel(canvas ports.Canvas, label string, maxWidth float64, style ports.TextStyle, minSize float64) ports.TextStyle {
	w, _ := canvas.MeasureText(label, style)
	if w <= maxWidth || w == 0 {
		return style
	}
	style.FontSize = max(minSize, style.FontSize*maxWidth/w)
	return style
}

// ForKey draws the placeholder of key at target size. Errors degrade to a
// plain fill of the theme's background.
func (s *Stage) ForKey(key preview.Key, target pipeline.Dimension, density float64) preview.Bitmap {
	result, err := s.Execute(context.Background(), pipeline.PlaceholderInput{
		Target:  target,
		Density: density,
		Label:   key.Label(),
		Theme:   pipeline.PlaceholderThemeFor(key.Theme),
	})
	if err != nil {
		s.logger.Error("Failed to draw placeholder for %s, using a plain fill: %v", key, err)
		return preview.SolidBitmap(preview.Dimensions{Width: target.Width, Height: target.Height}, preview.PaletteFor(key.Theme).Background, density)
	}
	return result.Bitmap
}
