// Package colorutil provides shared colors for editor overlays and chrome.
package colorutil

import (
	"image/color"
)

// Overlay colors used for the selection affordance.
var (
	Black     = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Selection = color.RGBA{R: 0, G: 113, B: 227, A: 255}  // Outline and connector
	Handle    = color.RGBA{R: 255, G: 255, B: 255, A: 255} // Handle fill
	Festive   = color.RGBA{R: 200, G: 30, B: 45, A: 255}   // Theme primary
	Backdrop  = color.RGBA{R: 245, G: 245, B: 247, A: 255} // Canvas letterbox
)

// WithAlpha returns c with its alpha replaced, keeping the straight color
// channels. The result is premultiplied as image/color expects.
func WithAlpha(c color.RGBA, alpha uint8) color.RGBA {
	scale := func(v uint8) uint8 {
		return uint8(uint16(v) * uint16(alpha) / 255)
	}
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: alpha}
}
