package split

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/user/wikipreview/pkg/adapters/ggrenderer"
	"github.com/user/wikipreview/pkg/adapters/logger"
	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/preview"
)

func solid(w, h int, c color.RGBA) preview.Bitmap {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return preview.NewBitmap(img, 2)
}

func TestStage_Execute(t *testing.T) {
	stage := NewStage(ggrenderer.New(), logger.NewNoop())
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	red := color.RGBA{R: 255, A: 255}

	result, err := stage.Execute(context.Background(), pipeline.SplitInput{
		Left:         solid(100, 60, white),
		Right:        solid(100, 60, black),
		DividerColor: red,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bmp := result.Bitmap
	if bmp.Width() != 100 || bmp.Height() != 60 {
		t.Fatalf("expected 100x60, got %dx%d", bmp.Width(), bmp.Height())
	}
	if bmp.Density != 2 {
		t.Errorf("expected density carried over, got %v", bmp.Density)
	}
	if got := bmp.Image.RGBAAt(10, 30); got != white {
		t.Errorf("expected left half white, got %+v", got)
	}
	if got := bmp.Image.RGBAAt(90, 30); got != black {
		t.Errorf("expected right half black, got %+v", got)
	}
	if got := bmp.Image.RGBAAt(50, 30); got != red {
		t.Errorf("expected divider at center, got %+v", got)
	}
}

func TestStage_SizeMismatch(t *testing.T) {
	stage := NewStage(ggrenderer.New(), logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.SplitInput{
		Left:  solid(100, 60, color.RGBA{A: 255}),
		Right: solid(90, 60, color.RGBA{A: 255}),
	})
	if err == nil {
		t.Error("expected error for mismatched halves")
	}
}
