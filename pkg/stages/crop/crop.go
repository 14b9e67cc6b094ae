// Package crop implements the crop-and-scale stage.
package crop

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

// Stage crops a capture to the layout rectangle and scales it to the
// exact target size.
type Stage struct {
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
}

// NewStage creates a new crop stage.
func NewStage(renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("crop"),
	}
}

// Execute produces the final preview bitmap.
func (s *Stage) Execute(ctx context.Context, input pipeline.CropInput) (pipeline.CropResult, error) {
	if input.Image == nil {
		return pipeline.CropResult{}, preview.NewRenderError(preview.ErrCapture, input.Key, errors.New("no image to crop"))
	}
	if input.Target.Width <= 0 || input.Target.Height <= 0 {
		return pipeline.CropResult{}, fmt.Errorf("invalid target size %dx%d", input.Target.Width, input.Target.Height)
	}
	if input.Crop.Width <= 0 || input.Crop.Height <= 0 {
		return pipeline.CropResult{}, preview.NewRenderError(preview.ErrCapture, input.Key,
			fmt.Errorf("empty crop rectangle %+v", input.Crop))
	}

	s.logger.Debug("Cropping %s: %+v -> %dx%d", input.Key, input.Crop, input.Target.Width, input.Target.Height)

	cropped := s.renderer.CropImage(input.Image, input.Crop.Bounds())
	scaled := s.renderer.ResizeImage(cropped, input.Target.Width, input.Target.Height)
	bmp := preview.NewBitmap(scaled, input.Density)

	if got := bmp.Size(); got.Width != input.Target.Width || got.Height != input.Target.Height {
		return pipeline.CropResult{}, preview.NewRenderError(preview.ErrCapture, input.Key,
			fmt.Errorf("scaled to %dx%d, want %dx%d", got.Width, got.Height, input.Target.Width, input.Target.Height))
	}

	if s.sink.Enabled() {
		s.sink.SavePreview(input.Key.String(), bmp.Image)
	}
	return pipeline.CropResult{Bitmap: bmp}, nil
}
