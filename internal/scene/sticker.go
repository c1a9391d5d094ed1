// Package scene holds the editable composition: the source photograph and
// the ordered stack of stickers placed on it.
package scene

import (
	"image"
	"math"

	"hat-editor/pkg/geometry"
)

// Hat describes a sticker offered by the catalog.
type Hat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Src  string `json:"src"` // Image reference (file path)
}

// Sticker is one placed instance of a catalog hat.
type Sticker struct {
	ID       string           // Unique instance id
	HatID    string           // Catalog hat it was created from
	Sprite   image.Image      // Native sticker pixels, shared and never mutated
	Position geometry.Point2D // Center, natural-space coordinates
	Scale    float64          // Multiplier of the sprite's native size
	Rotation float64          // Degrees in [0, 360)
	Mirrored bool             // Horizontal flip
}

// NativeSize returns the sprite's pixel dimensions.
func (s *Sticker) NativeSize() geometry.Size {
	if s.Sprite == nil {
		return geometry.Size{}
	}
	b := s.Sprite.Bounds()
	return geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Transform returns the matrix placing the sprite's centered native box on
// the canvas.
func (s *Sticker) Transform() geometry.AffineTransform {
	return geometry.StickerTransform(s.Position, s.Scale, s.Rotation, s.Mirrored)
}

// Footprint returns the sticker's four on-canvas corners.
func (s *Sticker) Footprint() [4]geometry.Point2D {
	size := s.NativeSize()
	return geometry.Footprint(s.Transform(), size.Width, size.Height)
}

// Contains reports whether a natural-space point lies on the sticker.
func (s *Sticker) Contains(p geometry.Point2D) bool {
	inv, ok := s.Transform().Inverse()
	if !ok {
		return false
	}
	size := s.NativeSize()
	return geometry.LocalBox(size.Width, size.Height).Contains(inv.Apply(p))
}

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	Position *geometry.Point2D
	Scale    *float64
	Rotation *float64
	Mirrored *bool
}

// Limits bounds sticker scale and sets default placement.
type Limits struct {
	MinScale        float64
	MaxScale        float64
	DefaultFraction float64 // Longer sprite edge as a share of the image's shorter edge
}

// DefaultLimits returns the stock scale range and placement fraction.
func DefaultLimits() Limits {
	return Limits{MinScale: 0.1, MaxScale: 10, DefaultFraction: 0.25}
}

// ClampScale forces a scale into the allowed range. Non-finite or
// non-positive values fall back to the minimum.
func (l Limits) ClampScale(scale float64) float64 {
	if math.IsNaN(scale) || scale <= 0 {
		return l.MinScale
	}
	return math.Max(l.MinScale, math.Min(l.MaxScale, scale))
}

// Handles describes the interactive affordance of a sticker in natural space.
type Handles struct {
	Corners [4]geometry.Point2D
	Scale   geometry.Point2D // Bottom-right corner of the native box
	Rotate  geometry.Point2D // Above the top edge, along the sticker's up axis
	TopMid  geometry.Point2D // Where the rotate connector meets the outline
	Radius  float64          // Hit and draw radius
}

// Affordance sizes, in display units.
const (
	HandleRadius       = 9.0
	RotateHandleOffset = 32.0
	OutlineWidth       = 2.0
)

// HandlesFor computes the affordance for s when the image is shown at
// displayScale display units per natural pixel. Sizes are divided by the
// display scale so they stay constant on screen.
func HandlesFor(s *Sticker, displayScale float64) Handles {
	if displayScale <= 0 {
		displayScale = 1
	}
	inv := 1 / displayScale
	size := s.NativeSize()
	m := s.Transform()
	corners := geometry.Footprint(m, size.Width, size.Height)

	topMid := m.Apply(geometry.Point2D{X: 0, Y: -size.Height / 2})
	up := geometry.Rotation(geometry.Radians(s.Rotation)).Apply(geometry.Point2D{X: 0, Y: -1})

	return Handles{
		Corners: corners,
		Scale:   corners[2],
		Rotate:  topMid.Add(up.Scale(RotateHandleOffset * inv)),
		TopMid:  topMid,
		Radius:  HandleRadius * inv,
	}
}
