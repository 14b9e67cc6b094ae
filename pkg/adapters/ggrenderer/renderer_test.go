package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/wikipreview/pkg/ports"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 80, color.White)
	img := canvas.ToImage()
	bounds := img.Bounds()

	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("expected 100x80, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	if rr, g, b, _ := img.At(50, 40).RGBA(); rr != 0xffff || g != 0xffff || b != 0xffff {
		t.Error("expected canvas filled with background color")
	}
}

func TestRenderer_EncodeDecodePNG(t *testing.T) {
	r := New()
	img := solid(30, 20, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := r.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 30 || bounds.Dy() != 20 {
		t.Errorf("expected 30x20, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	got := color.RGBAModel.Convert(decoded.At(5, 5)).(color.RGBA)
	if got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("PNG is lossless, got %+v", got)
	}
}

func TestRenderer_DecodeCorrupt(t *testing.T) {
	r := New()
	if _, err := r.DecodeImage([]byte("not a png"), ports.FormatPNG); err == nil {
		t.Error("expected error for corrupt data")
	}
}

func TestRenderer_UnsupportedFormat(t *testing.T) {
	r := New()
	img := solid(4, 4, color.RGBA{A: 255})

	if _, err := r.EncodeImage(img, ports.ImageFormat(0), 0); err == nil {
		t.Error("expected encode error for an unknown format")
	}
	if _, err := r.DecodeImage([]byte{}, ports.ImageFormat(0)); err == nil {
		t.Error("expected decode error for an unknown format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()
	img := solid(100, 200, color.RGBA{G: 255, A: 255})

	resized := r.ResizeImage(img, 50, 37)

	bounds := resized.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 37 {
		t.Errorf("expected 50x37, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	got := color.RGBAModel.Convert(resized.At(25, 18)).(color.RGBA)
	if got.G < 250 || got.R > 5 {
		t.Errorf("expected solid green after resize, got %+v", got)
	}
}

func TestRenderer_CropImage(t *testing.T) {
	r := New()
	img := solid(100, 100, color.RGBA{R: 255, A: 255})
	for y := 50; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
		}
	}

	cropped := r.CropImage(img, image.Rect(10, 60, 40, 90))

	if cropped.Bounds() != image.Rect(0, 0, 30, 30) {
		t.Fatalf("expected bounds at origin 30x30, got %v", cropped.Bounds())
	}
	got := color.RGBAModel.Convert(cropped.At(0, 0)).(color.RGBA)
	if got.B != 255 {
		t.Errorf("expected blue from the lower half, got %+v", got)
	}
}

func TestRenderer_CropImage_ClampsToBounds(t *testing.T) {
	r := New()
	img := solid(20, 20, color.RGBA{A: 255})

	cropped := r.CropImage(img, image.Rect(10, 10, 50, 50))

	if cropped.Bounds().Dx() != 10 || cropped.Bounds().Dy() != 10 {
		t.Errorf("expected 10x10, got %v", cropped.Bounds())
	}
}

func TestCanvas_DrawRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawRect(10, 10, 30, 30, color.RGBA{R: 255, A: 255})

	img := canvas.ToImage()
	_, g, _, _ := img.At(20, 20).RGBA()
	if g != 0 {
		t.Error("expected red pixel inside rectangle")
	}
}

func TestCanvas_DrawImage(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawImage(solid(20, 20, color.RGBA{R: 255, A: 255}), 10, 10)

	_, g, _, _ := canvas.ToImage().At(15, 15).RGBA()
	if g != 0 {
		t.Error("expected red pixel from drawn image")
	}
}

func TestCanvas_DrawText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(200, 60, color.White)

	style := ports.TextStyle{FontSize: 24, Color: color.Black, Align: ports.AlignCenter}
	canvas.DrawText("Expanded", 100, 30, style)

	img := canvas.ToImage()
	dark := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 200; x++ {
			if rr, _, _, _ := img.At(x, y).RGBA(); rr < 0x8000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("expected text pixels on canvas")
	}
}

func TestCanvas_MeasureText_ScalesWithSize(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(10, 10, color.White)

	small, _ := canvas.MeasureText("Collapsed", ports.TextStyle{FontSize: 10})
	large, _ := canvas.MeasureText("Collapsed", ports.TextStyle{FontSize: 30})

	if large <= small {
		t.Errorf("expected larger font to measure wider: %v <= %v", large, small)
	}
}
