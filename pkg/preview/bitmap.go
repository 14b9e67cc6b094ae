package preview

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Dimensions is a size in device pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Empty reports whether either side is zero or negative.
func (d Dimensions) Empty() bool {
	return d.Width <= 0 || d.Height <= 0
}

// FromDp converts a size in density-independent pixels to device pixels.
func FromDp(widthDp, heightDp int, density float64) Dimensions {
	if density <= 0 {
		density = 1
	}
	return Dimensions{
		Width:  int(math.Round(float64(widthDp) * density)),
		Height: int(math.Round(float64(heightDp) * density)),
	}
}

// Bitmap is an immutable rendered preview tagged with its display density.
// Callers must not modify Image after the bitmap is created.
type Bitmap struct {
	Image   *image.RGBA
	Density float64
}

// NewBitmap wraps img, copying it into an RGBA buffer when it is not one already.
func NewBitmap(img image.Image, density float64) Bitmap {
	if img == nil {
		return Bitmap{Density: density}
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return Bitmap{Image: rgba, Density: density}
}

// SolidBitmap returns a bitmap of size filled with c. Empty sides are
// raised to one pixel.
func SolidBitmap(size Dimensions, c color.RGBA, density float64) Bitmap {
	img := image.NewRGBA(image.Rect(0, 0, max(1, size.Width), max(1, size.Height)))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return Bitmap{Image: img, Density: density}
}

// IsZero reports whether the bitmap holds no pixels.
func (b Bitmap) IsZero() bool {
	return b.Image == nil || b.Image.Bounds().Empty()
}

// Size returns the pixel dimensions.
func (b Bitmap) Size() Dimensions {
	if b.Image == nil {
		return Dimensions{}
	}
	r := b.Image.Bounds()
	return Dimensions{Width: r.Dx(), Height: r.Dy()}
}

// Width returns the pixel width.
func (b Bitmap) Width() int { return b.Size().Width }

// Height returns the pixel height.
func (b Bitmap) Height() int { return b.Size().Height }

// Bytes returns the size of the pixel buffer that the memory tier is charged for.
func (b Bitmap) Bytes() int64 {
	s := b.Size()
	return int64(s.Width) * int64(s.Height) * 4
}
