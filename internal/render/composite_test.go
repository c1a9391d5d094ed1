package render

import (
	goimage "image"
	"image/color"
	"image/draw"
	"testing"

	pimage "hat-editor/internal/image"
	"hat-editor/internal/scene"
	"hat-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	gray = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func solid(w, h int, c color.Color) *goimage.NRGBA {
	img := goimage.NewNRGBA(goimage.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &goimage.Uniform{C: c}, goimage.Point{}, draw.Src)
	return img
}

func photo(w, h int) *pimage.Source {
	img := goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &goimage.Uniform{C: gray}, goimage.Point{}, draw.Src)
	return &pimage.Source{Image: img, Format: "png"}
}

func newScene(t *testing.T, w, h int) *scene.Scene {
	t.Helper()
	s := scene.New(scene.DefaultLimits(), scene.Sequential("st"))
	s.SetSource(photo(w, h))
	return s
}

func ptr[T any](v T) *T { return &v }

func isColor(t *testing.T, img goimage.Image, x, y int, want color.Color) {
	t.Helper()
	wr, wg, wb, wa := want.RGBA()
	r, g, b, a := img.At(x, y).RGBA()
	assert.Equal(t, [4]uint32{wr >> 8, wg >> 8, wb >> 8, wa >> 8}, [4]uint32{r >> 8, g >> 8, b >> 8, a >> 8},
		"pixel (%d,%d)", x, y)
}

func TestRenderRequiresSource(t *testing.T) {
	_, err := New().Render(scene.Snapshot{}, Options{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestExportSizeIndependentOfDisplay(t *testing.T) {
	s := newScene(t, 800, 600)
	s.Add(scene.Hat{ID: "h"}, solid(64, 64, red), geometry.Rect{})

	for _, ds := range []float64{0.1, 0.5, 1, 3.7} {
		out, err := New().Render(s.Snapshot(), Options{Mode: ModeExport, DisplayScale: ds})
		require.NoError(t, err)
		assert.Equal(t, goimage.Rect(0, 0, 800, 600), out.Bounds())
	}
}

func TestExportScenarioScaledRotated(t *testing.T) {
	s := newScene(t, 800, 600)
	// 150px sprite: default scale is exactly 1 (25% of the 600px edge).
	st, err := s.Add(scene.Hat{ID: "h"}, solid(150, 150, red), geometry.Rect{})
	require.NoError(t, err)
	require.InDelta(t, 1.0, st.Scale, 1e-12)
	s.Update(st.ID, scene.Patch{Scale: ptr(2.0), Rotation: ptr(45.0)})

	out, err := New().Render(s.Snapshot(), Options{Mode: ModeExport})
	require.NoError(t, err)
	assert.Equal(t, 800, out.Bounds().Dx())
	assert.Equal(t, 600, out.Bounds().Dy())

	// A 300px square turned 45 degrees is a diamond reaching 212px along the
	// axes from its center.
	isColor(t, out, 400, 300, red)
	isColor(t, out, 600, 300, red)
	isColor(t, out, 400, 100, red)
	isColor(t, out, 630, 300, gray)
	// Inside the unrotated square, outside the diamond.
	isColor(t, out, 540, 160, gray)
	isColor(t, out, 260, 440, gray)
}

func TestExportHasNoAffordance(t *testing.T) {
	s := newScene(t, 400, 400)
	st, _ := s.Add(scene.Hat{ID: "h"}, solid(100, 100, red), geometry.Rect{})
	require.Equal(t, st.ID, s.Snapshot().Selected)

	h := scene.HandlesFor(st, 1)
	rx, ry := int(h.Rotate.X), int(h.Rotate.Y)

	export, err := New().Render(s.Snapshot(), Options{Mode: ModeExport, DisplayScale: 1})
	require.NoError(t, err)
	isColor(t, export, rx, ry, gray)

	interactive, err := New().Render(s.Snapshot(), Options{Mode: ModeInteractive, DisplayScale: 1})
	require.NoError(t, err)
	isColor(t, interactive, rx, ry, color.White)
	assert.Equal(t, export.Bounds(), interactive.Bounds())

	s.Select("")
	plain, err := New().Render(s.Snapshot(), Options{Mode: ModeInteractive, DisplayScale: 1})
	require.NoError(t, err)
	isColor(t, plain, rx, ry, gray)
}

func TestDrawOrder(t *testing.T) {
	s := newScene(t, 400, 400)
	a, _ := s.Add(scene.Hat{ID: "a"}, solid(100, 100, red), geometry.Rect{})
	s.Add(scene.Hat{ID: "b"}, solid(100, 100, blue), geometry.Rect{})

	out, err := New().Render(s.Snapshot(), Options{})
	require.NoError(t, err)
	isColor(t, out, 200, 200, blue)

	s.BringToFront(a.ID)
	out, err = New().Render(s.Snapshot(), Options{})
	require.NoError(t, err)
	isColor(t, out, 200, 200, red)
}

func TestMirroredSprite(t *testing.T) {
	s := newScene(t, 400, 400)
	sprite := solid(100, 100, red)
	draw.Draw(sprite, goimage.Rect(50, 0, 100, 100), &goimage.Uniform{C: blue}, goimage.Point{}, draw.Src)
	st, _ := s.Add(scene.Hat{ID: "h"}, sprite, geometry.Rect{})
	s.Update(st.ID, scene.Patch{Scale: ptr(1.0)})

	out, err := New().Render(s.Snapshot(), Options{})
	require.NoError(t, err)
	isColor(t, out, 170, 200, red)
	isColor(t, out, 230, 200, blue)

	s.Update(st.ID, scene.Patch{Mirrored: ptr(true)})
	out, err = New().Render(s.Snapshot(), Options{})
	require.NoError(t, err)
	isColor(t, out, 170, 200, blue)
	isColor(t, out, 230, 200, red)
}

func TestTransparentSpriteKeepsPhoto(t *testing.T) {
	s := newScene(t, 200, 200)
	s.Add(scene.Hat{ID: "h"}, goimage.NewNRGBA(goimage.Rect(0, 0, 50, 50)), geometry.Rect{})

	out, err := New().Render(s.Snapshot(), Options{})
	require.NoError(t, err)
	isColor(t, out, 100, 100, gray)
}

func TestSourceWithOffsetBounds(t *testing.T) {
	img := goimage.NewRGBA(goimage.Rect(10, 20, 110, 70))
	draw.Draw(img, img.Bounds(), &goimage.Uniform{C: gray}, goimage.Point{}, draw.Src)
	s := scene.New(scene.DefaultLimits(), nil)
	s.SetSource(&pimage.Source{Image: img})

	out, err := New().Render(s.Snapshot(), Options{})
	require.NoError(t, err)
	assert.Equal(t, goimage.Rect(0, 0, 100, 50), out.Bounds())
	isColor(t, out, 0, 0, gray)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "Interactive", ModeInteractive.String())
}
