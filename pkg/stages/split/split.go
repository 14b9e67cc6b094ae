// Package split implements the split composite stage used for the
// follow-system theme: the left half of one preview beside the right half
// of another.
package split

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

// Stage composes two equally sized previews into one.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new split stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("split"),
	}
}

// Execute composes input.Left and input.Right.
func (s *Stage) Execute(ctx context.Context, input pipeline.SplitInput) (pipeline.SplitResult, error) {
	if input.Left.IsZero() || input.Right.IsZero() {
		return pipeline.SplitResult{}, errors.New("split needs two previews")
	}
	size := input.Left.Size()
	if input.Right.Size() != size {
		return pipeline.SplitResult{}, fmt.Errorf("split halves differ: %dx%d and %dx%d",
			size.Width, size.Height, input.Right.Width(), input.Right.Height())
	}

	divider := input.DividerWidth
	if divider <= 0 {
		divider = 1
	}
	var dividerColor color.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	if input.DividerColor != nil {
		dividerColor = input.DividerColor
	}

	mid := size.Width / 2
	canvas := s.renderer.CreateCanvas(size.Width, size.Height, color.Transparent)
	canvas.DrawImage(s.renderer.CropImage(input.Left.Image, image.Rect(0, 0, mid, size.Height)), 0, 0)
	canvas.DrawImage(s.renderer.CropImage(input.Right.Image, image.Rect(mid, 0, size.Width, size.Height)), mid, 0)
	canvas.DrawRect(mid-divider/2, 0, divider, size.Height, dividerColor)

	s.logger.Debug("Split composed: %dx%d", size.Width, size.Height)
	return pipeline.SplitResult{Bitmap: preview.NewBitmap(canvas.ToImage(), input.Left.Density)}, nil
}
