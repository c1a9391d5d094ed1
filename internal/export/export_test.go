package export

import (
	"bytes"
	"context"
	"errors"
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	pimage "hat-editor/internal/image"
	"hat-editor/internal/scene"
	"hat-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClipboard struct {
	err  error
	data []byte
}

func (f *fakeClipboard) WriteImage(_ context.Context, png []byte) error {
	if f.err != nil {
		return f.err
	}
	f.data = png
	return nil
}

type failingSaver struct{ calls int }

func (f *failingSaver) Save(string, []byte) (string, error) {
	f.calls++
	return "", errors.New("read-only file system")
}

var fixedTime = time.Date(2024, 12, 24, 18, 30, 5, 0, time.UTC)

func snapshot(t *testing.T) scene.Snapshot {
	t.Helper()
	s := scene.New(scene.DefaultLimits(), scene.Sequential("st"))
	src := goimage.NewRGBA(goimage.Rect(0, 0, 320, 240))
	src.Set(0, 0, color.RGBA{R: 10, A: 255})
	s.SetSource(&pimage.Source{Image: src, Format: "png"})
	_, err := s.Add(scene.Hat{ID: "local-1"}, goimage.NewNRGBA(goimage.Rect(0, 0, 40, 40)), geometry.Rect{})
	require.NoError(t, err)
	return s.Snapshot()
}

func decode(t *testing.T, data []byte) goimage.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestRenderPNGNaturalSize(t *testing.T) {
	svc := NewService(Options{Clipboard: &fakeClipboard{}})
	data, err := svc.RenderPNG(snapshot(t))
	require.NoError(t, err)

	img := decode(t, data)
	assert.Equal(t, goimage.Rect(0, 0, 320, 240), img.Bounds())
}

func TestRenderPNGWithoutSource(t *testing.T) {
	svc := NewService(Options{Clipboard: &fakeClipboard{}})
	_, err := svc.RenderPNG(scene.Snapshot{})
	assert.ErrorIs(t, err, ErrExportFailure)
}

func TestCopy(t *testing.T) {
	clip := &fakeClipboard{}
	svc := NewService(Options{Clipboard: clip})

	require.True(t, svc.Copy(context.Background(), snapshot(t)))
	assert.Equal(t, 320, decode(t, clip.data).Bounds().Dx())
}

func TestCopyDenied(t *testing.T) {
	clip := &fakeClipboard{err: ErrClipboardUnavailable}
	svc := NewService(Options{Clipboard: clip})

	assert.False(t, svc.Copy(context.Background(), snapshot(t)))
	assert.False(t, svc.Copy(context.Background(), scene.Snapshot{}))
}

func TestDownloadWritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Options{
		Prefix:    "hat",
		Clipboard: &fakeClipboard{},
		Saver:     DirSaver{Dir: filepath.Join(dir, "out")},
		Now:       func() time.Time { return fixedTime },
	})

	path, err := svc.Download(context.Background(), snapshot(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "hat-20241224-183005.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 240, decode(t, data).Bounds().Dy())
}

func TestDownloadFallsBack(t *testing.T) {
	primary := &failingSaver{}
	dir := t.TempDir()
	svc := NewService(Options{
		Clipboard: &fakeClipboard{},
		Saver:     primary,
		Fallback:  DirSaver{Dir: dir},
		Now:       func() time.Time { return fixedTime },
	})

	path, err := svc.Download(context.Background(), snapshot(t))
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, filepath.Join(dir, "hat-photo-20241224-183005.png"), path)
	assert.FileExists(t, path)
}

func TestDownloadBothFail(t *testing.T) {
	svc := NewService(Options{
		Clipboard: &fakeClipboard{},
		Saver:     &failingSaver{},
		Fallback:  &failingSaver{},
	})

	_, err := svc.Download(context.Background(), snapshot(t))
	assert.ErrorIs(t, err, ErrExportFailure)
}

func TestDownloadCancelled(t *testing.T) {
	saver := &failingSaver{}
	svc := NewService(Options{Clipboard: &fakeClipboard{}, Saver: saver})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Download(ctx, snapshot(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, saver.calls)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "pic-20241224-183005.png", Filename("pic", fixedTime))
	assert.Equal(t, "hat-photo-20241224-183005.png", Filename("", fixedTime))
}
