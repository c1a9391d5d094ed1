// Package export turns a scene snapshot into PNG bytes and delivers them to
// the clipboard or a file.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"hat-editor/internal/render"
	"hat-editor/internal/scene"
)

// ErrExportFailure is returned when a composite could not be produced or
// stored anywhere.
var ErrExportFailure = errors.New("export failed")

// Options configures a Service.
type Options struct {
	Prefix    string
	Clipboard Clipboard
	Saver     Saver
	Fallback  Saver // Tried once when Saver fails; nil disables the retry
	Now       func() time.Time
	Logger    *slog.Logger
}

// Service renders snapshots in export mode and hands them out.
type Service struct {
	renderer  *render.Renderer
	prefix    string
	clipboard Clipboard
	saver     Saver
	fallback  Saver
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates an export service. Missing options get OS-backed
// defaults.
func NewService(opts Options) *Service {
	s := &Service{
		renderer:  render.New(),
		prefix:    opts.Prefix,
		clipboard: opts.Clipboard,
		saver:     opts.Saver,
		fallback:  opts.Fallback,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if s.clipboard == nil {
		s.clipboard = NewSystemClipboard()
	}
	if s.saver == nil {
		s.saver = DirSaver{Dir: DefaultDownloadDir()}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RenderPNG composites snap at natural resolution and encodes it as PNG.
func (s *Service) RenderPNG(snap scene.Snapshot) ([]byte, error) {
	img, err := s.renderer.Render(snap, render.Options{Mode: render.ModeExport})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrExportFailure, err)
	}
	return buf.Bytes(), nil
}

// Copy places the composite on the clipboard. Every failure is logged and
// reported as false.
func (s *Service) Copy(ctx context.Context, snap scene.Snapshot) bool {
	data, err := s.RenderPNG(snap)
	if err != nil {
		s.logger.Warn("copy: render failed", "error", err)
		return false
	}
	if err := s.clipboard.WriteImage(ctx, data); err != nil {
		s.logger.Warn("copy: clipboard write failed", "error", err)
		return false
	}
	s.logger.Info("copy: image on clipboard", "bytes", len(data))
	return true
}

// Download writes the composite as a timestamped PNG and returns its path.
func (s *Service) Download(ctx context.Context, snap scene.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := s.RenderPNG(snap)
	if err != nil {
		s.logger.Warn("download: render failed", "error", err)
		return "", err
	}

	name := Filename(s.prefix, s.now())
	path, err := s.saver.Save(name, data)
	if err == nil {
		s.logger.Info("download: saved", "path", path)
		return path, nil
	}
	s.logger.Warn("download: save failed", "name", name, "error", err)

	if s.fallback == nil {
		return "", fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	path, ferr := s.fallback.Save(name, data)
	if ferr != nil {
		s.logger.Error("download: fallback failed", "name", name, "error", ferr)
		return "", fmt.Errorf("%w: %v; fallback: %v", ErrExportFailure, err, ferr)
	}
	s.logger.Info("download: saved to fallback", "path", path)
	return path, nil
}
