package mocks

import (
	"image"
	"image/color"

	"github.com/user/wikipreview/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	DecodeImageFunc  func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image
	CropImageFunc    func(img image.Image, rect image.Rectangle) image.Image
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	return NewCanvas(width, height)
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func (m *Renderer) CropImage(img image.Image, rect image.Rectangle) image.Image {
	if m.CropImageFunc != nil {
		return m.CropImageFunc(img, rect)
	}
	return image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas that records text draws.
// MeasureText reports half the font size per rune.
type Canvas struct {
	width  int
	height int
	img    *image.RGBA

	Texts  []DrawnText
	Rects  int
	Images int
}

// DrawnText is one recorded DrawText call.
type DrawnText struct {
	Text  string
	X, Y  int
	Style ports.TextStyle
}

// NewCanvas creates a mock canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{width: width, height: height}
}

func (m *Canvas) DrawImage(img image.Image, x, y int) { m.Images++ }

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) { m.Rects++ }

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Texts = append(m.Texts, DrawnText{Text: text, X: x, Y: y, Style: style})
}

func (m *Canvas) MeasureText(text string, style ports.TextStyle) (float64, float64) {
	return float64(len([]rune(text))) * style.FontSize * 0.5, style.FontSize
}

func (m *Canvas) ToImage() image.Image {
	if m.img == nil {
		m.img = image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	}
	return m.img
}

var _ ports.Canvas = (*Canvas)(nil)
