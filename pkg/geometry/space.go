package geometry

import "math"

// Viewport maps display space (on-screen units as delivered by pointer
// events) onto natural space (the source image's own pixel grid).
type Viewport struct {
	Origin      Point2D // Display position of the image's top-left corner
	DisplaySize Size    // Size the image occupies on screen
	NaturalSize Size    // Intrinsic image size in pixels
}

// IdentityViewport returns a viewport showing the image 1:1 at the origin.
func IdentityViewport(natural Size) Viewport {
	return Viewport{DisplaySize: natural, NaturalSize: natural}
}

// FitViewport letterboxes an image of the given natural size into a
// container, preserving aspect ratio and centering the result.
func FitViewport(natural, container Size) Viewport {
	if natural.Empty() || container.Empty() {
		return IdentityViewport(natural)
	}
	scale := math.Min(container.Width/natural.Width, container.Height/natural.Height)
	display := Size{Width: natural.Width * scale, Height: natural.Height * scale}
	return Viewport{
		Origin: Point2D{
			X: (container.Width - display.Width) / 2,
			Y: (container.Height - display.Height) / 2,
		},
		DisplaySize: display,
		NaturalSize: natural,
	}
}

// Valid reports whether the viewport can convert coordinates.
func (v Viewport) Valid() bool {
	return !v.DisplaySize.Empty() && !v.NaturalSize.Empty()
}

// ratio returns natural pixels per display unit on each axis.
func (v Viewport) ratio() (float64, float64) {
	if !v.Valid() {
		return 1, 1
	}
	return v.NaturalSize.Width / v.DisplaySize.Width, v.NaturalSize.Height / v.DisplaySize.Height
}

// ToNatural converts a display-space point to natural space:
// natural = (display - origin) * (naturalSize / displaySize).
func (v Viewport) ToNatural(p Point2D) Point2D {
	rx, ry := v.ratio()
	return Point2D{
		X: (p.X - v.Origin.X) * rx,
		Y: (p.Y - v.Origin.Y) * ry,
	}
}

// ToDisplay converts a natural-space point to display space.
func (v Viewport) ToDisplay(p Point2D) Point2D {
	rx, ry := v.ratio()
	return Point2D{
		X: p.X/rx + v.Origin.X,
		Y: p.Y/ry + v.Origin.Y,
	}
}

// Scale returns display units per natural pixel. Non-uniform viewports use
// the horizontal axis.
func (v Viewport) Scale() float64 {
	rx, _ := v.ratio()
	return 1 / rx
}

// VisibleNatural returns the part of the image that lies inside a container
// of the given display size, in natural coordinates.
func (v Viewport) VisibleNatural(container Size) Rect {
	full := Rect{Width: v.NaturalSize.Width, Height: v.NaturalSize.Height}
	if container.Empty() || !v.Valid() {
		return full
	}
	tl := v.ToNatural(Point2D{})
	br := v.ToNatural(Point2D{X: container.Width, Y: container.Height})
	visible := Rect{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}.Intersect(full)
	if visible.Empty() {
		return full
	}
	return visible
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 mod 360 + 360 rounds to exactly 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Bearing returns the angle in degrees of the vector from -> to, measured
// clockwise from the positive x axis in y-down coordinates.
func Bearing(from, to Point2D) float64 {
	return Degrees(math.Atan2(to.Y-from.Y, to.X-from.X))
}

// StickerTransform builds the matrix that places a sprite's native box,
// centered on the origin, onto the canvas: translate to position, rotate,
// mirror horizontally, then scale.
func StickerTransform(position Point2D, scale, rotationDeg float64, mirrored bool) AffineTransform {
	t := Translation(position.X, position.Y).Compose(Rotation(Radians(rotationDeg)))
	if mirrored {
		t = t.Compose(MirrorX())
	}
	return t.Compose(Scale(scale, scale))
}

// LocalBox returns the native bounding box of a w x h sprite centered on the
// origin.
func LocalBox(w, h float64) Rect {
	return Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h}
}

// Footprint returns the four corners of a w x h sprite placed by t, in
// top-left, top-right, bottom-right, bottom-left order of the local box.
func Footprint(t AffineTransform, w, h float64) [4]Point2D {
	box := LocalBox(w, h)
	return [4]Point2D{
		t.Apply(Point2D{X: box.X, Y: box.Y}),
		t.Apply(Point2D{X: box.X + box.Width, Y: box.Y}),
		t.Apply(Point2D{X: box.X + box.Width, Y: box.Y + box.Height}),
		t.Apply(Point2D{X: box.X, Y: box.Y + box.Height}),
	}
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
