package editor

import (
	"bytes"
	"context"
	"errors"
	goimage "image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	pimage "hat-editor/internal/image"
	"hat-editor/internal/scene"
	"hat-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	copyOK    bool
	path      string
	err       error
	copies    int
	downloads int
	last      scene.Snapshot
}

func (f *fakeExporter) Copy(_ context.Context, snap scene.Snapshot) bool {
	f.copies++
	f.last = snap
	return f.copyOK
}

func (f *fakeExporter) Download(_ context.Context, snap scene.Snapshot) (string, error) {
	f.downloads++
	f.last = snap
	return f.path, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type spriteStub struct {
	mu    sync.Mutex
	loads int
	err   error
}

func (s *spriteStub) LoadSprite(_ context.Context, hat scene.Hat) (goimage.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return goimage.NewNRGBA(goimage.Rect(0, 0, 100, 100)), nil
}

func newEditor(t *testing.T) (*Editor, *fakeExporter, *spriteStub) {
	t.Helper()
	exp := &fakeExporter{copyOK: true, path: "/tmp/out.png"}
	sprites := &spriteStub{}
	e := New(Options{IDs: scene.Sequential("st"), Exporter: exp, Sprites: sprites})
	t.Cleanup(func() { e.Close() })
	return e, exp, sprites
}

var hat = scene.Hat{ID: "local-1", Name: "Style 1", Src: "1.png"}

func loaded(t *testing.T) (*Editor, *fakeExporter, *spriteStub) {
	t.Helper()
	e, exp, sprites := newEditor(t)
	require.NoError(t, e.LoadImage(context.Background(), pngBytes(t, 800, 600)))
	return e, exp, sprites
}

func TestEmptyState(t *testing.T) {
	e, exp, _ := newEditor(t)
	ctx := context.Background()

	assert.False(t, e.HasImage())
	assert.False(t, e.Copy(ctx))
	_, err := e.Download(ctx)
	assert.ErrorIs(t, err, scene.ErrNoImage)
	assert.Zero(t, exp.copies+exp.downloads)

	acked := false
	err = e.RequestAddSticker(ctx, hat, func(scene.Hat) { acked = true })
	assert.ErrorIs(t, err, scene.ErrNoImage)
	assert.False(t, acked)

	_, err = e.RenderInteractive()
	assert.ErrorIs(t, err, scene.ErrNoImage)
	assert.False(t, e.PointerDown(0, geometry.Point2D{X: 1, Y: 1}))
}

func TestLoadImageEmitsStateOnce(t *testing.T) {
	e, _, _ := newEditor(t)
	var states []bool
	e.OnImageStateChanged(func(loaded bool) { states = append(states, loaded) })
	repaints := 0
	e.On(EventSceneChanged, func(interface{}) { repaints++ })

	ctx := context.Background()
	require.NoError(t, e.LoadImage(ctx, pngBytes(t, 40, 30)))
	require.NoError(t, e.LoadImage(ctx, pngBytes(t, 50, 30)))

	assert.Equal(t, []bool{true}, states)
	assert.Equal(t, 2, repaints)
	assert.Equal(t, geometry.Size{Width: 50, Height: 30}, e.NaturalSize())

	require.NoError(t, e.Close())
	assert.Equal(t, []bool{true, false}, states)
}

func TestLoadImageRejectsGarbage(t *testing.T) {
	e, _, _ := loaded(t)
	require.NoError(t, e.RequestAddSticker(context.Background(), hat, nil))
	before := e.Snapshot()

	err := e.LoadImage(context.Background(), []byte("%PDF-1.4 not a photo"))
	require.ErrorIs(t, err, pimage.ErrDecode)

	after := e.Snapshot()
	assert.Same(t, before.Source, after.Source)
	assert.Len(t, after.Stickers, 1)
}

func TestReloadClearsStickers(t *testing.T) {
	e, _, _ := loaded(t)
	ctx := context.Background()
	require.NoError(t, e.RequestAddSticker(ctx, hat, nil))
	require.NoError(t, e.RequestAddSticker(ctx, hat, nil))
	require.Len(t, e.Snapshot().Stickers, 2)

	require.NoError(t, e.LoadImage(ctx, pngBytes(t, 200, 100)))
	snap := e.Snapshot()
	assert.Empty(t, snap.Stickers)
	assert.Equal(t, "", snap.Selected)
}

func TestRequestAddStickerAcksAfterAdd(t *testing.T) {
	e, _, sprites := loaded(t)
	var added *scene.Sticker
	e.On(EventStickerAdded, func(data interface{}) { added = data.(*scene.Sticker) })

	var acked []scene.Hat
	ack := func(h scene.Hat) {
		// The sticker is visible to the acknowledging caller.
		assert.Len(t, e.Snapshot().Stickers, len(acked)+1)
		acked = append(acked, h)
	}
	ctx := context.Background()
	require.NoError(t, e.RequestAddSticker(ctx, hat, ack))
	require.NoError(t, e.RequestAddSticker(ctx, hat, ack))

	assert.Equal(t, []scene.Hat{hat, hat}, acked)
	assert.Equal(t, 1, sprites.loads, "sprite decoded once per source")
	require.NotNil(t, added)
	assert.Equal(t, added.ID, e.Selected())
	assert.Equal(t, geometry.Point2D{X: 400, Y: 300}, added.Position)
	assert.InDelta(t, 1.5, added.Scale, 1e-12)
}

func TestForgetSpriteReloadsOnNextAdd(t *testing.T) {
	e, _, sprites := loaded(t)
	ctx := context.Background()

	require.NoError(t, e.RequestAddSticker(ctx, hat, nil))
	e.ForgetSprite("other.png")
	require.NoError(t, e.RequestAddSticker(ctx, hat, nil))
	assert.Equal(t, 1, sprites.loads)

	e.ForgetSprite(hat.Src)
	require.NoError(t, e.RequestAddSticker(ctx, hat, nil))
	assert.Equal(t, 2, sprites.loads, "rewritten sprite is decoded again")
	assert.Len(t, e.Snapshot().Stickers, 3)
}

func TestRequestAddStickerLoaderFailure(t *testing.T) {
	e, _, sprites := loaded(t)
	sprites.err = errors.New("missing")

	acked := false
	err := e.RequestAddSticker(context.Background(), hat, func(scene.Hat) { acked = true })
	require.Error(t, err)
	assert.False(t, acked)
	assert.Empty(t, e.Snapshot().Stickers)
}

func TestStickerCentersInVisibleRegion(t *testing.T) {
	e, _, _ := loaded(t)
	// Zoomed 2x and panned so natural (400..800, 300..600) fills the widget.
	v := geometry.Viewport{
		Origin:      geometry.Point2D{X: -800, Y: -600},
		DisplaySize: geometry.Size{Width: 1600, Height: 1200},
		NaturalSize: geometry.Size{Width: 800, Height: 600},
	}
	e.SetViewport(v, geometry.Size{Width: 800, Height: 600})

	require.NoError(t, e.RequestAddSticker(context.Background(), hat, nil))
	st := e.Snapshot().SelectedSticker()
	require.NotNil(t, st)
	assert.InDelta(t, 600, st.Position.X, 1e-9)
	assert.InDelta(t, 450, st.Position.Y, 1e-9)
}

func TestPointerDragThroughEditor(t *testing.T) {
	e, _, _ := loaded(t)
	require.NoError(t, e.RequestAddSticker(context.Background(), hat, nil))
	e.SetViewport(geometry.FitViewport(geometry.Size{Width: 800, Height: 600}, geometry.Size{Width: 400, Height: 300}),
		geometry.Size{Width: 400, Height: 300})

	require.True(t, e.PointerDown(0, geometry.Point2D{X: 200, Y: 150}))
	require.True(t, e.PointerMove(0, geometry.Point2D{X: 250, Y: 150}))
	e.PointerUp(0)

	st := e.Snapshot().SelectedSticker()
	require.NotNil(t, st)
	assert.InDelta(t, 500, st.Position.X, 1e-9)
	assert.InDelta(t, 300, st.Position.Y, 1e-9)
}

func TestRemoveSelected(t *testing.T) {
	e, _, _ := loaded(t)
	require.NoError(t, e.RequestAddSticker(context.Background(), hat, nil))
	id := e.Selected()

	require.True(t, e.RemoveSelected())
	assert.Equal(t, "", e.Selected())
	assert.False(t, e.PointerDown(0, geometry.Point2D{X: 400, Y: 300}), "removed sticker is not hit")
	assert.False(t, e.Remove(id))
	assert.False(t, e.RemoveSelected())
}

func TestMirrorAndFront(t *testing.T) {
	e, _, _ := loaded(t)
	ctx := context.Background()
	require.NoError(t, e.RequestAddSticker(ctx, hat, nil))
	first := e.Selected()
	require.NoError(t, e.RequestAddSticker(ctx, hat, nil))

	require.True(t, e.ToggleMirror())
	assert.True(t, e.Snapshot().SelectedSticker().Mirrored)

	e.Select(first)
	require.True(t, e.BringSelectedToFront())
	stickers := e.Snapshot().Stickers
	assert.Equal(t, first, stickers[len(stickers)-1].ID)
	assert.False(t, e.BringToFront("missing"))
}

func TestCopyDeniedLeavesSceneUnchanged(t *testing.T) {
	e, exp, _ := loaded(t)
	require.NoError(t, e.RequestAddSticker(context.Background(), hat, nil))
	exp.copyOK = false
	var failures []error
	e.On(EventExportFailed, func(data interface{}) { failures = append(failures, data.(error)) })
	before := e.Snapshot()

	assert.False(t, e.Copy(context.Background()))
	assert.Len(t, failures, 1)

	after := e.Snapshot()
	require.Len(t, after.Stickers, 1)
	assert.Equal(t, before.Selected, after.Selected)
	assert.Equal(t, before.Stickers[0].Position, after.Stickers[0].Position)
}

func TestCopyAndDownload(t *testing.T) {
	e, exp, _ := loaded(t)
	ctx := context.Background()

	assert.True(t, e.Copy(ctx))
	path, err := e.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.png", path)
	assert.NotNil(t, exp.last.Source)

	exp.err = errors.New("disk full")
	_, err = e.Download(ctx)
	assert.Error(t, err)
}

func TestRenderInteractiveNaturalSize(t *testing.T) {
	e, _, _ := loaded(t)
	require.NoError(t, e.RequestAddSticker(context.Background(), hat, nil))
	e.SetViewport(geometry.FitViewport(geometry.Size{Width: 800, Height: 600}, geometry.Size{Width: 200, Height: 200}),
		geometry.Size{Width: 200, Height: 200})

	img, err := e.RenderInteractive()
	require.NoError(t, err)
	assert.Equal(t, goimage.Rect(0, 0, 800, 600), img.Bounds())
}

func TestListenerMayReenter(t *testing.T) {
	e, _, _ := newEditor(t)
	var size geometry.Size
	e.OnImageStateChanged(func(bool) { size = e.NaturalSize() })

	require.NoError(t, e.LoadImage(context.Background(), pngBytes(t, 64, 48)))
	assert.Equal(t, geometry.Size{Width: 64, Height: 48}, size)
}

func TestConcurrentInputAndRender(t *testing.T) {
	e, _, _ := loaded(t)
	require.NoError(t, e.RequestAddSticker(context.Background(), hat, nil))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			e.PointerDown(0, geometry.Point2D{X: 400, Y: 300})
			e.PointerMove(0, geometry.Point2D{X: 400 + float64(i), Y: 300})
			e.PointerUp(0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			_, err := e.RenderInteractive()
			assert.NoError(t, err)
		}
	}()
	wg.Wait()
}

func TestClosedEditorIgnoresInput(t *testing.T) {
	e, _, _ := loaded(t)
	require.NoError(t, e.Close())
	assert.False(t, e.HasImage())
	assert.ErrorIs(t, e.LoadImage(context.Background(), pngBytes(t, 10, 10)), ErrClosed)
	assert.False(t, e.Copy(context.Background()))
}
