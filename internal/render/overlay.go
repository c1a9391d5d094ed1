package render

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"hat-editor/internal/scene"
	"hat-editor/pkg/colorutil"
	"hat-editor/pkg/geometry"

	"github.com/gogpu/gg"
)

// drawAffordance strokes the selection outline, the rotate connector and the
// two handles for st. Everything is drawn into a small gg context covering
// only the affordance and then composited over dst.
func drawAffordance(dst *image.RGBA, st *scene.Sticker, displayScale float64) error {
	if displayScale <= 0 {
		displayScale = 1
	}
	h := scene.HandlesFor(st, displayScale)
	lineWidth := scene.OutlineWidth / displayScale

	points := append(h.Corners[:], h.Rotate, h.Scale)
	box := geometry.BoundingBox(points)
	pad := h.Radius + lineWidth + 1
	region := image.Rect(
		int(math.Floor(box.X-pad)),
		int(math.Floor(box.Y-pad)),
		int(math.Ceil(box.X+box.Width+pad)),
		int(math.Ceil(box.Y+box.Height+pad)),
	).Intersect(dst.Bounds())
	if region.Empty() {
		return nil
	}

	dc := gg.NewContext(region.Dx(), region.Dy())
	dc.Translate(-float64(region.Min.X), -float64(region.Min.Y))
	dc.SetLineWidth(lineWidth)
	dc.SetColor(colorutil.Selection)

	c := h.Corners
	dc.MoveTo(c[0].X, c[0].Y)
	for _, p := range c[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.DrawLine(h.TopMid.X, h.TopMid.Y, h.Rotate.X, h.Rotate.Y)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("render: outline: %w", err)
	}

	for _, p := range []geometry.Point2D{h.Scale, h.Rotate} {
		dc.DrawCircle(p.X, p.Y, h.Radius)
		dc.SetColor(colorutil.Handle)
		if err := dc.FillPreserve(); err != nil {
			return fmt.Errorf("render: handle: %w", err)
		}
		dc.SetColor(colorutil.Selection)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("render: handle: %w", err)
		}
	}

	// The pixmap stores straight alpha and reports an NRGBA color model.
	draw.Draw(dst, region, dc.ResizeTarget(), image.Point{}, draw.Over)
	return nil
}
