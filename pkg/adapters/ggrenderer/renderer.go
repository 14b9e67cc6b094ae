// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/user/wikipreview/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct {
	encoder png.Encoder

	fontOnce sync.Once
	font     *truetype.Font
	fontErr  error
	faceMu   sync.Mutex
	faces    map[float64]font.Face
}

// New creates a new Renderer.
// PNG output favors speed since previews are re-encoded on every disk write.
func New() *Renderer {
	return &Renderer{
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
		faces:   make(map[float64]font.Face),
	}
}

// CreateCanvas creates a new drawing canvas.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc, r: r}
}

// DecodeImage decodes image data into an image.Image.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	reader := bytes.NewReader(data)

	switch format {
	case ports.FormatPNG:
		img, err := png.Decode(reader)
		if err != nil {
			return nil, fmt.Errorf("decode PNG: %w", err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}
}

// EncodeImage encodes an image to the specified format. PNG ignores quality.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatPNG:
		if err := r.encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage scales img to exactly width x height with Catmull-Rom resampling.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// CropImage copies the part of img inside rect into a new image at the origin.
func (r *Renderer) CropImage(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Add(img.Bounds().Min).Intersect(img.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)
	return dst
}

// face returns a Go Regular face of the given size, shared across canvases.
func (r *Renderer) face(size float64) (font.Face, error) {
	r.fontOnce.Do(func() {
		r.font, r.fontErr = truetype.Parse(goregular.TTF)
	})
	if r.fontErr != nil {
		return nil, r.fontErr
	}

	r.faceMu.Lock()
	defer r.faceMu.Unlock()
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f := truetype.NewFace(r.font, &truetype.Options{Size: size, Hinting: font.HintingFull})
	r.faces[size] = f
	return f, nil
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
	r  *Renderer
}

// DrawImage draws an image at the specified position.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	c.dc.DrawImage(img, x, y)
}

// DrawRect draws a filled rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// DrawText draws text vertically centered on y.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	c.setFont(style)
	c.dc.SetColor(style.Color)

	ax := 0.0
	if style.Align == ports.AlignCenter {
		ax = 0.5
	}

	c.dc.DrawStringAnchored(text, float64(x), float64(y), ax, 0.5)
}

// MeasureText returns the width and height of the text.
func (c *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	c.setFont(style)
	return c.dc.MeasureString(text)
}

// setFont selects the embedded Go font at the style's size, keeping gg's
// built-in face if the font cannot be parsed.
func (c *Canvas) setFont(style ports.TextStyle) {
	if style.FontSize <= 0 {
		return
	}
	if f, err := c.r.face(style.FontSize); err == nil {
		c.dc.SetFontFace(f)
	}
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
