package ports

import (
	"image"
	"image/color"
)

// Renderer covers the image work of the pipeline: the PNG codec of the disk
// tier, crop and scale of captures, and canvases for placeholders and split
// composites.
type Renderer interface {
	CreateCanvas(width, height int, bg color.Color) Canvas

	DecodeImage(data []byte, format ImageFormat) (image.Image, error)

	// EncodeImage encodes img. Quality is ignored by lossless formats.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage scales img to exactly width x height.
	ResizeImage(img image.Image, width, height int) image.Image

	// CropImage returns the part of img inside rect, translated to the origin.
	CropImage(img image.Image, rect image.Rectangle) image.Image
}

// Canvas is a drawing surface for placeholders and composites.
type Canvas interface {
	DrawImage(img image.Image, x, y int)

	DrawRect(x, y, w, h int, c color.Color)

	// DrawText draws text vertically centered on y.
	DrawText(text string, x, y int, style TextStyle)

	// MeasureText returns the width and height text would take.
	MeasureText(text string, style TextStyle) (width, height float64)

	ToImage() image.Image
}

// TextStyle defines text rendering properties. Text uses the embedded Go
// Regular font.
type TextStyle struct {
	FontSize float64
	Color    color.Color
	Align    TextAlign
}

// TextAlign specifies horizontal text alignment.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
)

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	// FormatPNG is the disk tier and export format.
	FormatPNG ImageFormat = iota + 1
)
