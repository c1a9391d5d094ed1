package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	pimage "hat-editor/internal/image"

	"github.com/fsnotify/fsnotify"
)

// Watch adds hats that appear in the catalog directory until ctx is done.
// Rewrites of known hats are reported to OnChanged listeners.
// A file is picked up on create or write once it probes as a valid image,
// so a sprite copied in slowly is added when its last write lands.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}
	c.logger.Debug("catalog watching", "dir", c.dir)

	// Files that landed between the initial probe and the watch.
	c.Refresh()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			c.consider(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("catalog watcher error", "dir", c.dir, "error", err)
		}
	}
}

func (c *Catalog) consider(path string) {
	n, ok := ParseIndex(path)
	if !ok || n > c.maxIndex {
		return
	}
	hat := HatFor(c.dir, n)
	if filepath.Clean(path) != filepath.Clean(hat.Src) {
		return
	}
	if _, err := pimage.Probe(hat.Src); err != nil {
		c.logger.Debug("catalog skipped file", "path", path, "error", err)
		return
	}
	c.thumbs.forget(hat.Src)
	if !c.Add(hat) {
		c.notifyChanged(hat)
	}
}
