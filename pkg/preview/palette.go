package preview

import (
	"fmt"
	"image/color"
)

// Palette holds the colors of a reading theme.
type Palette struct {
	Background color.RGBA
	Surface    color.RGBA
	Text       color.RGBA
	Muted      color.RGBA
	Accent     color.RGBA
	Border     color.RGBA
}

var palettes = map[string]Palette{
	ThemeLight: {
		Background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Surface:    color.RGBA{R: 248, G: 249, B: 250, A: 255},
		Text:       color.RGBA{R: 32, G: 33, B: 34, A: 255},
		Muted:      color.RGBA{R: 114, G: 119, B: 125, A: 255},
		Accent:     color.RGBA{R: 51, G: 102, B: 204, A: 255},
		Border:     color.RGBA{R: 200, G: 204, B: 209, A: 255},
	},
	ThemeDark: {
		Background: color.RGBA{R: 32, G: 33, B: 34, A: 255},
		Surface:    color.RGBA{R: 39, G: 41, B: 45, A: 255},
		Text:       color.RGBA{R: 234, G: 236, B: 240, A: 255},
		Muted:      color.RGBA{R: 162, G: 169, B: 177, A: 255},
		Accent:     color.RGBA{R: 105, G: 153, B: 255, A: 255},
		Border:     color.RGBA{R: 84, G: 89, B: 93, A: 255},
	},
	ThemeBlack: {
		Background: color.RGBA{R: 0, G: 0, B: 0, A: 255},
		Surface:    color.RGBA{R: 16, G: 16, B: 16, A: 255},
		Text:       color.RGBA{R: 234, G: 236, B: 240, A: 255},
		Muted:      color.RGBA{R: 162, G: 169, B: 177, A: 255},
		Accent:     color.RGBA{R: 105, G: 153, B: 255, A: 255},
		Border:     color.RGBA{R: 50, G: 50, B: 50, A: 255},
	},
	ThemeSepia: {
		Background: color.RGBA{R: 248, G: 241, B: 227, A: 255},
		Surface:    color.RGBA{R: 240, G: 230, B: 214, A: 255},
		Text:       color.RGBA{R: 51, G: 51, B: 51, A: 255},
		Muted:      color.RGBA{R: 100, G: 100, B: 100, A: 255},
		Accent:     color.RGBA{R: 51, G: 102, B: 204, A: 255},
		Border:     color.RGBA{R: 203, G: 196, B: 181, A: 255},
	},
}

// PaletteFor returns the palette of theme. Unknown themes and the system
// theme use the light palette.
func PaletteFor(theme string) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[ThemeLight]
}

// KnownTheme reports whether theme is one of the reading themes.
func KnownTheme(theme string) bool {
	if theme == ThemeSystem {
		return true
	}
	_, ok := palettes[theme]
	return ok
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
