package crop

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/user/wikipreview/pkg/adapters/ggrenderer"
	"github.com/user/wikipreview/pkg/adapters/logger"
	"github.com/user/wikipreview/pkg/mocks"
	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/preview"
)

func TestStage_CropsAndScales(t *testing.T) {
	// Top half red, bottom half blue.
	src := image.NewRGBA(image.Rect(0, 0, 200, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 200; x++ {
			c := color.RGBA{R: 255, A: 255}
			if y >= 200 {
				c = color.RGBA{B: 255, A: 255}
			}
			src.SetRGBA(x, y, c)
		}
	}

	sink := mocks.NewDebugSink(true)
	stage := NewStage(ggrenderer.New(), sink, logger.NewNoop())
	key := preview.NewTableKey("light", true, "1")

	result, err := stage.Execute(context.Background(), pipeline.CropInput{
		Key:     key,
		Image:   src,
		Crop:    pipeline.Rectangle{X: 0, Y: 200, Width: 200, Height: 200},
		Target:  pipeline.Dimension{Width: 50, Height: 50},
		Density: 2.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bmp := result.Bitmap
	if bmp.Width() != 50 || bmp.Height() != 50 {
		t.Fatalf("expected 50x50, got %dx%d", bmp.Width(), bmp.Height())
	}
	if bmp.Density != 2.5 {
		t.Errorf("expected density 2.5, got %v", bmp.Density)
	}
	if c := bmp.Image.RGBAAt(25, 25); c.B < 250 || c.R > 5 {
		t.Errorf("expected the blue half, got %+v", c)
	}
	if _, ok := sink.Previews[key.String()]; !ok {
		t.Error("expected preview saved to debug sink")
	}
}

func TestStage_EmptyCrop(t *testing.T) {
	stage := NewStage(ggrenderer.New(), &mocks.NullSink{}, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.CropInput{
		Image:  image.NewRGBA(image.Rect(0, 0, 10, 10)),
		Target: pipeline.Dimension{Width: 5, Height: 5},
	})
	if preview.KindOf(err) != preview.ErrCapture {
		t.Errorf("expected capture failure, got %v", err)
	}
}

func TestStage_MismatchedScaleIsRejected(t *testing.T) {
	renderer := &mocks.Renderer{
		ResizeImageFunc: func(img image.Image, width, height int) image.Image {
			return image.NewRGBA(image.Rect(0, 0, width-1, height))
		},
	}
	stage := NewStage(renderer, &mocks.NullSink{}, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.CropInput{
		Image:  image.NewRGBA(image.Rect(0, 0, 10, 10)),
		Crop:   pipeline.Rectangle{Width: 10, Height: 10},
		Target: pipeline.Dimension{Width: 5, Height: 5},
	})
	if err == nil {
		t.Error("expected error for wrong output size")
	}
}
