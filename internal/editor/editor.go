// Package editor is the façade the host application drives: it owns the
// scene, routes pointer input to the gesture controller, renders the
// interactive view and forwards exports.
//
// All scene access is serialized by one mutex because input and painting
// arrive on different goroutines. Listeners are always invoked without the
// lock held, so they may call back into the editor.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"hat-editor/internal/gesture"
	pimage "hat-editor/internal/image"
	"hat-editor/internal/render"
	"hat-editor/internal/scene"
	"hat-editor/pkg/geometry"
)

// ErrClosed is returned by operations on a closed editor.
var ErrClosed = errors.New("editor closed")

// Exporter delivers composites. *export.Service implements it.
type Exporter interface {
	Copy(ctx context.Context, snap scene.Snapshot) bool
	Download(ctx context.Context, snap scene.Snapshot) (string, error)
}

// SpriteLoader resolves a hat to its pixels.
type SpriteLoader interface {
	LoadSprite(ctx context.Context, hat scene.Hat) (image.Image, error)
}

// SpriteLoaderFunc adapts a function to SpriteLoader.
type SpriteLoaderFunc func(ctx context.Context, hat scene.Hat) (image.Image, error)

// LoadSprite implements SpriteLoader.
func (f SpriteLoaderFunc) LoadSprite(ctx context.Context, hat scene.Hat) (image.Image, error) {
	return f(ctx, hat)
}

// FileSprites loads hat.Src from disk.
var FileSprites SpriteLoaderFunc = func(ctx context.Context, hat scene.Hat) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := pimage.Load(hat.Src)
	if err != nil {
		return nil, err
	}
	return src.Image, nil
}

// Options configures an Editor.
type Options struct {
	Limits   scene.Limits
	IDs      scene.IDGenerator
	Exporter Exporter
	Sprites  SpriteLoader
	Logger   *slog.Logger
}

// Editor is the hat editor controller.
type Editor struct {
	mu        sync.Mutex
	scene     *scene.Scene
	gestures  *gesture.Controller
	viewport  geometry.Viewport
	container geometry.Size
	sprites   map[string]image.Image // Decoded sprites by hat source
	closed    bool

	renderer *render.Renderer
	exporter Exporter
	loader   SpriteLoader
	logger   *slog.Logger

	lmu       sync.RWMutex
	listeners map[EventType][]EventListener
}

// New creates an editor in the Empty state.
func New(opts Options) *Editor {
	if opts.Limits == (scene.Limits{}) {
		opts.Limits = scene.DefaultLimits()
	}
	if opts.Sprites == nil {
		opts.Sprites = FileSprites
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	sc := scene.New(opts.Limits, opts.IDs)
	return &Editor{
		scene:     sc,
		gestures:  gesture.New(sc, opts.Logger),
		sprites:   make(map[string]image.Image),
		renderer:  render.New(),
		exporter:  opts.Exporter,
		loader:    opts.Sprites,
		logger:    opts.Logger,
		listeners: make(map[EventType][]EventListener),
	}
}

// HasImage reports whether the editor is in the Loaded state.
func (e *Editor) HasImage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.HasImage()
}

// NaturalSize returns the loaded image's pixel dimensions, or zero.
func (e *Editor) NaturalSize() geometry.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Source().Size()
}

// LoadImage decodes data and replaces the source image. On failure the
// scene is left exactly as it was.
func (e *Editor) LoadImage(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := pimage.Decode(data)
	if err != nil {
		e.logger.Warn("load image rejected", "bytes", len(data), "error", err)
		return err
	}
	return e.SetSource(src)
}

// SetSource replaces the source image with an already decoded one.
func (e *Editor) SetSource(src *pimage.Source) error {
	if src == nil || src.Image == nil {
		return fmt.Errorf("%w: no image", pimage.ErrDecode)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	wasLoaded := e.scene.HasImage()
	e.gestures.Reset()
	e.scene.SetSource(src)
	size := src.Size()
	if !e.container.Empty() {
		e.viewport = geometry.FitViewport(size, e.container)
	} else {
		e.viewport = geometry.IdentityViewport(size)
	}
	e.mu.Unlock()

	e.logger.Info("image loaded", "format", src.Format, "width", src.Width(), "height", src.Height())
	if !wasLoaded {
		e.Emit(EventImageStateChanged, true)
	}
	e.Emit(EventSceneChanged, nil)
	return nil
}

// RequestAddSticker places a new sticker for hat and then calls ack, which
// consumes the request. Nothing is added and ack is not called on error.
func (e *Editor) RequestAddSticker(ctx context.Context, hat scene.Hat, ack func(scene.Hat)) error {
	if !e.HasImage() {
		return scene.ErrNoImage
	}

	sprite, err := e.sprite(ctx, hat)
	if err != nil {
		e.logger.Warn("hat sprite unavailable", "hat", hat.ID, "src", hat.Src, "error", err)
		return fmt.Errorf("hat %s: %w", hat.ID, err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	visible := e.viewport.VisibleNatural(e.container)
	st, err := e.scene.Add(hat, sprite, visible)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.logger.Debug("sticker added", "sticker", st.ID, "hat", hat.ID, "scale", st.Scale)
	e.Emit(EventStickerAdded, st)
	e.Emit(EventSceneChanged, nil)
	if ack != nil {
		ack(hat)
	}
	return nil
}

// ForgetSprite drops the cached sprite for src so the next add reloads it.
// Stickers already placed keep the image they were created with.
func (e *Editor) ForgetSprite(src string) {
	e.mu.Lock()
	delete(e.sprites, src)
	e.mu.Unlock()
}

func (e *Editor) sprite(ctx context.Context, hat scene.Hat) (image.Image, error) {
	e.mu.Lock()
	cached, ok := e.sprites[hat.Src]
	e.mu.Unlock()
	if ok && hat.Src != "" {
		return cached, nil
	}

	img, err := e.loader.LoadSprite(ctx, hat)
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty sprite", pimage.ErrDecode)
	}

	if hat.Src != "" {
		e.mu.Lock()
		e.sprites[hat.Src] = img
		e.mu.Unlock()
	}
	return img, nil
}

// mutate runs fn under the lock and emits EventSceneChanged when it reports
// a change.
func (e *Editor) mutate(fn func() bool) bool {
	e.mu.Lock()
	changed := !e.closed && fn()
	e.mu.Unlock()
	if changed {
		e.Emit(EventSceneChanged, nil)
	}
	return changed
}

// Remove deletes a sticker. Removing the selected sticker clears the
// selection.
func (e *Editor) Remove(id string) bool {
	return e.mutate(func() bool {
		if e.gestures.StickerID() == id {
			e.gestures.Reset()
		}
		return e.scene.Remove(id)
	})
}

// RemoveSelected deletes the selected sticker, if any.
func (e *Editor) RemoveSelected() bool {
	return e.mutate(func() bool {
		id := e.scene.Selected()
		if id == "" {
			return false
		}
		e.gestures.Reset()
		return e.scene.Remove(id)
	})
}

// Select selects id, or clears the selection for "" or an unknown id.
func (e *Editor) Select(id string) {
	e.mutate(func() bool {
		before := e.scene.Selected()
		e.scene.Select(id)
		return before != e.scene.Selected()
	})
}

// Selected returns the selected sticker id, or "".
func (e *Editor) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Selected()
}

// BringToFront moves id to the top of the draw order.
func (e *Editor) BringToFront(id string) bool {
	return e.mutate(func() bool { return e.scene.BringToFront(id) })
}

// BringSelectedToFront raises the selected sticker.
func (e *Editor) BringSelectedToFront() bool {
	return e.mutate(func() bool { return e.scene.BringToFront(e.scene.Selected()) })
}

// ToggleMirror flips the selected sticker horizontally.
func (e *Editor) ToggleMirror() bool {
	return e.mutate(e.gestures.ToggleMirror)
}

// Snapshot returns a copy of the scene safe to use without the lock.
func (e *Editor) Snapshot() scene.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Snapshot()
}

// SetViewport records the display mapping used to interpret pointer input
// and to place new stickers. container is the widget size in display units.
func (e *Editor) SetViewport(v geometry.Viewport, container geometry.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = v
	e.container = container
}

// Viewport returns the current display mapping.
func (e *Editor) Viewport() geometry.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// PointerDown starts a gesture at display point p.
func (e *Editor) PointerDown(pointer int, p geometry.Point2D) bool {
	return e.mutate(func() bool {
		if !e.scene.HasImage() {
			return false
		}
		return e.gestures.PointerDown(pointer, p, e.viewport)
	})
}

// PointerMove continues the gesture owned by pointer.
func (e *Editor) PointerMove(pointer int, p geometry.Point2D) bool {
	return e.mutate(func() bool {
		return e.gestures.PointerMove(pointer, p, e.viewport)
	})
}

// PointerUp ends the gesture owned by pointer.
func (e *Editor) PointerUp(pointer int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gestures.PointerUp(pointer)
}

// PointerCancel aborts the gesture owned by pointer.
func (e *Editor) PointerCancel(pointer int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gestures.PointerCancel(pointer)
}

// GestureState returns the gesture controller's state.
func (e *Editor) GestureState() gesture.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gestures.State()
}

// RenderInteractive composites the scene with the selection affordance.
func (e *Editor) RenderInteractive() (*image.RGBA, error) {
	e.mu.Lock()
	if !e.scene.HasImage() {
		e.mu.Unlock()
		return nil, scene.ErrNoImage
	}
	snap := e.scene.Snapshot()
	scale := e.viewport.Scale()
	e.mu.Unlock()

	return e.renderer.Render(snap, render.Options{Mode: render.ModeInteractive, DisplayScale: scale})
}

// Copy places the export composite on the clipboard. It returns false when
// there is no image or the clipboard refuses.
func (e *Editor) Copy(ctx context.Context) bool {
	snap, ok := e.exportSnapshot()
	if !ok {
		return false
	}
	if !e.exporter.Copy(ctx, snap) {
		e.Emit(EventExportFailed, errors.New("copy to clipboard failed"))
		return false
	}
	return true
}

// Download writes the export composite to disk and returns the path.
func (e *Editor) Download(ctx context.Context) (string, error) {
	snap, ok := e.exportSnapshot()
	if !ok {
		return "", scene.ErrNoImage
	}
	path, err := e.exporter.Download(ctx, snap)
	if err != nil {
		e.Emit(EventExportFailed, err)
		return "", err
	}
	return path, nil
}

func (e *Editor) exportSnapshot() (scene.Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.scene.HasImage() || e.exporter == nil {
		return scene.Snapshot{}, false
	}
	return e.scene.Snapshot(), true
}

// Close releases the scene and sprite cache. Further mutations are ignored.
func (e *Editor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	wasLoaded := e.scene.HasImage()
	e.closed = true
	e.gestures.Reset()
	e.scene.SetSource(nil)
	e.sprites = make(map[string]image.Image)
	e.mu.Unlock()

	if wasLoaded {
		e.Emit(EventImageStateChanged, false)
	}
	return nil
}
