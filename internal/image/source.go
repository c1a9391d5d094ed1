// Package image provides decoding of source photographs and sticker sprites.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hat-editor/pkg/geometry"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when bytes are not a readable raster image.
var ErrDecode = errors.New("image decode failed")

// Source is a decoded raster together with its format. It is never mutated
// after decoding; loading another image produces a new Source.
type Source struct {
	Image  image.Image // Decoded pixels
	Format string      // Registered decoder name, e.g. "png"
	Path   string      // Originating file, if any
}

// Decode sniffs and decodes an image from raw bytes.
func Decode(data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, fmt.Errorf("%w: unsupported content (%s)", ErrDecode, kindName(kind.MIME.Value))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecode)
	}

	return &Source{Image: img, Format: format}, nil
}

// Load reads and decodes the image at path.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	src, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	src.Path = path
	return src, nil
}

// Probe checks that the file at path is a decodable, non-empty image
// without decoding its pixels.
func Probe(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	head := make([]byte, 262)
	n, _ := io.ReadFull(f, head)
	if !filetype.IsImage(head[:n]) {
		return image.Config{}, fmt.Errorf("%s: %w: not an image", filepath.Base(path), ErrDecode)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return image.Config{}, fmt.Errorf("failed to rewind image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("%s: %w: %v", filepath.Base(path), ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, fmt.Errorf("%s: %w: zero-sized image", filepath.Base(path), ErrDecode)
	}
	return cfg, nil
}

func kindName(mime string) string {
	if mime == "" {
		return "unknown"
	}
	return mime
}

// Width returns the natural image width in pixels.
func (s *Source) Width() int {
	if s == nil || s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

// Height returns the natural image height in pixels.
func (s *Source) Height() int {
	if s == nil || s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// Size returns the natural image dimensions.
func (s *Source) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(s.Width()),
		Height: float64(s.Height()),
	}
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
