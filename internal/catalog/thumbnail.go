package catalog

import (
	"image"
	"math"
	"sync"

	pimage "hat-editor/internal/image"
	"hat-editor/internal/scene"

	"github.com/anthonynsimon/bild/transform"
)

type thumbKey struct {
	src  string
	size int
}

type thumbCache struct {
	mu    sync.Mutex
	items map[thumbKey]image.Image
}

func newThumbCache() *thumbCache {
	return &thumbCache{items: make(map[thumbKey]image.Image)}
}

func (t *thumbCache) forget(src string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.items {
		if k.src == src {
			delete(t.items, k)
		}
	}
}

// Fit scales img to fit inside a size x size square, keeping its aspect
// ratio. Images already small enough are returned unchanged.
func Fit(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if size <= 0 || w <= 0 || h <= 0 || (w <= size && h <= size) {
		return img
	}
	f := float64(size) / float64(max(w, h))
	tw := max(1, int(math.Round(float64(w)*f)))
	th := max(1, int(math.Round(float64(h)*f)))
	return transform.Resize(img, tw, th, transform.Linear)
}

// Thumbnail returns a cached preview of hat no larger than size.
func (c *Catalog) Thumbnail(hat scene.Hat, size int) (image.Image, error) {
	key := thumbKey{src: hat.Src, size: size}
	c.thumbs.mu.Lock()
	img, ok := c.thumbs.items[key]
	c.thumbs.mu.Unlock()
	if ok {
		return img, nil
	}

	src, err := pimage.Load(hat.Src)
	if err != nil {
		return nil, err
	}
	img = Fit(src.Image, size)

	c.thumbs.mu.Lock()
	c.thumbs.items[key] = img
	c.thumbs.mu.Unlock()
	return img, nil
}
