// Package canvas provides the interactive editor surface: the composite
// letterboxed into the widget, with mouse and touch input routed to the
// editor's gesture handling.
package canvas

import (
	"image"
	"image/draw"
	"math"
	"sync"

	"hat-editor/pkg/colorutil"
	"hat-editor/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"
)

// mousePointer is the pointer id used for the mouse and the primary touch.
const mousePointer = 0

// Editor is the part of the editor the canvas drives.
type Editor interface {
	NaturalSize() geometry.Size
	SetViewport(v geometry.Viewport, container geometry.Size)
	PointerDown(pointer int, p geometry.Point2D) bool
	PointerMove(pointer int, p geometry.Point2D) bool
	PointerUp(pointer int)
	PointerCancel(pointer int)
	RenderInteractive() (*image.RGBA, error)
}

// EditorCanvas shows the editor's interactive render and forwards pointer
// input to it.
type EditorCanvas struct {
	widget.BaseWidget

	editor Editor
	raster *fynecanvas.Raster
	hint   *widget.Label

	mu       sync.Mutex
	viewport geometry.Viewport
	size     geometry.Size

	// Last rendered output, kept for inspection
	lastOutput *image.RGBA
}

var (
	_ fyne.Draggable    = (*EditorCanvas)(nil)
	_ desktop.Mouseable = (*EditorCanvas)(nil)
	_ mobile.Touchable  = (*EditorCanvas)(nil)
)

// NewEditorCanvas creates a canvas over editor. hint is shown while no
// image is loaded.
func NewEditorCanvas(editor Editor, hint string) *EditorCanvas {
	ec := &EditorCanvas{editor: editor}
	ec.raster = fynecanvas.NewRaster(ec.draw)
	ec.raster.ScaleMode = fynecanvas.ImageScaleSmooth
	ec.hint = widget.NewLabel(hint)
	ec.hint.Alignment = fyne.TextAlignCenter
	ec.ExtendBaseWidget(ec)
	return ec
}

// Viewport returns the display mapping last pushed to the editor.
func (ec *EditorCanvas) Viewport() geometry.Viewport {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.viewport
}

// syncViewport letterboxes the current image into the widget and pushes the
// mapping to the editor.
func (ec *EditorCanvas) syncViewport(size fyne.Size) {
	container := geometry.Size{Width: float64(size.Width), Height: float64(size.Height)}
	natural := ec.editor.NaturalSize()
	v := geometry.FitViewport(natural, container)

	ec.mu.Lock()
	ec.viewport = v
	ec.size = container
	ec.mu.Unlock()

	ec.editor.SetViewport(v, container)
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// ImageChanged re-fits the view after a new photo was loaded.
func (ec *EditorCanvas) ImageChanged() {
	ec.syncViewport(ec.Size())
	ec.Refresh()
}

func (ec *EditorCanvas) pointerDown(p fyne.Position) {
	if ec.editor.PointerDown(mousePointer, toPoint(p)) {
		ec.Refresh()
	}
}

func (ec *EditorCanvas) pointerUp() {
	ec.editor.PointerUp(mousePointer)
}

// MouseDown implements desktop.Mouseable.
func (ec *EditorCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	ec.pointerDown(ev.Position)
}

// MouseUp implements desktop.Mouseable.
func (ec *EditorCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	ec.pointerUp()
}

// TouchDown implements mobile.Touchable.
func (ec *EditorCanvas) TouchDown(ev *mobile.TouchEvent) {
	ec.pointerDown(ev.Position)
}

// TouchUp implements mobile.Touchable.
func (ec *EditorCanvas) TouchUp(*mobile.TouchEvent) {
	ec.pointerUp()
}

// TouchCancel implements mobile.Touchable.
func (ec *EditorCanvas) TouchCancel(*mobile.TouchEvent) {
	ec.editor.PointerCancel(mousePointer)
}

// Dragged implements fyne.Draggable.
func (ec *EditorCanvas) Dragged(ev *fyne.DragEvent) {
	if ec.editor.PointerMove(mousePointer, toPoint(ev.Position)) {
		ec.Refresh()
	}
}

// DragEnd implements fyne.Draggable.
func (ec *EditorCanvas) DragEnd() {
	ec.pointerUp()
}

// draw is the raster drawing function. w and h are in device pixels, which
// may differ from the widget size by the output scale.
func (ec *EditorCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(output, output.Bounds(), &image.Uniform{C: colorutil.Backdrop}, image.Point{}, draw.Src)

	composite, err := ec.editor.RenderInteractive()
	if err != nil {
		return output
	}

	cb := composite.Bounds()
	natural := geometry.Size{Width: float64(cb.Dx()), Height: float64(cb.Dy())}
	v := geometry.FitViewport(natural, geometry.Size{Width: float64(w), Height: float64(h)})
	dst := image.Rect(
		int(math.Round(v.Origin.X)),
		int(math.Round(v.Origin.Y)),
		int(math.Round(v.Origin.X+v.DisplaySize.Width)),
		int(math.Round(v.Origin.Y+v.DisplaySize.Height)),
	)
	xdraw.ApproxBiLinear.Scale(output, dst, composite, cb, xdraw.Over, nil)

	ec.mu.Lock()
	ec.lastOutput = output
	ec.mu.Unlock()
	return output
}

// RenderedOutput returns the last frame drawn, or nil.
func (ec *EditorCanvas) RenderedOutput() *image.RGBA {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.lastOutput
}

// CreateRenderer implements fyne.Widget.
func (ec *EditorCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &editorCanvasRenderer{canvas: ec}
}

type editorCanvasRenderer struct {
	canvas *EditorCanvas
}

func (r *editorCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
	hint := r.canvas.hint.MinSize()
	r.canvas.hint.Move(fyne.NewPos((size.Width-hint.Width)/2, (size.Height-hint.Height)/2))
	r.canvas.hint.Resize(hint)
	r.canvas.syncViewport(size)
}

func (r *editorCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *editorCanvasRenderer) Refresh() {
	if r.canvas.editor.NaturalSize().Empty() {
		r.canvas.hint.Show()
	} else {
		r.canvas.hint.Hide()
	}
	r.canvas.raster.Refresh()
}

func (r *editorCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster, r.canvas.hint}
}

func (r *editorCanvasRenderer) Destroy() {}
