package export

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// ErrClipboardUnavailable is returned when the platform clipboard cannot be
// initialized or refuses image data.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Platform clipboard entry points, replaced in tests.
var (
	clipboardInit  = clipboard.Init
	clipboardWrite = clipboard.Write
)

// Clipboard accepts encoded PNG bytes.
type Clipboard interface {
	WriteImage(ctx context.Context, png []byte) error
}

// SystemClipboard writes to the OS clipboard. Initialization happens on
// first use and its outcome is remembered.
type SystemClipboard struct {
	once    sync.Once
	initErr error
}

// NewSystemClipboard returns a clipboard backed by the OS.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (c *SystemClipboard) init() error {
	c.once.Do(func() {
		if err := clipboardInit(); err != nil {
			c.initErr = fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
		}
	})
	return c.initErr
}

// WriteImage places png on the clipboard as image data.
func (c *SystemClipboard) WriteImage(ctx context.Context, png []byte) error {
	if err := c.init(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// A nil channel means the write was rejected. Otherwise the channel
	// fires later when another owner takes the clipboard.
	if clipboardWrite(clipboard.FmtImage, png) == nil {
		return fmt.Errorf("%w: write rejected", ErrClipboardUnavailable)
	}
	return nil
}
