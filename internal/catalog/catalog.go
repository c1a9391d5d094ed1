// Package catalog discovers hat sprites in a directory of numbered PNG files
// (1.png, 2.png, ...) and keeps them in numeric order.
package catalog

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	pimage "hat-editor/internal/image"
	"hat-editor/internal/scene"
)

// Listener is called for each hat added after subscription.
type Listener func(hat scene.Hat)

type entry struct {
	index int
	hat   scene.Hat
}

// Catalog holds the discovered hats. It is safe for concurrent use.
type Catalog struct {
	dir      string
	maxIndex int
	logger   *slog.Logger

	mu        sync.RWMutex
	entries   []entry
	listeners []Listener
	changed   []Listener
	thumbs    *thumbCache
}

// New creates an empty catalog over dir. Call Refresh to populate it.
func New(dir string, maxIndex int, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		dir:      dir,
		maxIndex: maxIndex,
		logger:   logger,
		thumbs:   newThumbCache(),
	}
}

// Dir returns the directory the catalog reads from.
func (c *Catalog) Dir() string {
	return c.dir
}

// HatFor builds the hat record for index n.
func HatFor(dir string, n int) scene.Hat {
	return scene.Hat{
		ID:   fmt.Sprintf("local-%d", n),
		Name: fmt.Sprintf("Style %d", n),
		Src:  filepath.Join(dir, fmt.Sprintf("%d.png", n)),
	}
}

// ParseIndex extracts n from a file name "<n>.png". Only positive indices
// without leading zeros are accepted.
func ParseIndex(name string) (int, bool) {
	base := filepath.Base(name)
	stem, ok := strings.CutSuffix(strings.ToLower(base), ".png")
	if !ok || stem == "" || stem[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(stem)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Probe checks 1.png through <maxIndex>.png in dir and returns the readable
// ones in numeric order. Missing or broken files are skipped.
func Probe(dir string, maxIndex int) []scene.Hat {
	var hats []scene.Hat
	for n := 1; n <= maxIndex; n++ {
		hat := HatFor(dir, n)
		if _, err := pimage.Probe(hat.Src); err != nil {
			continue
		}
		hats = append(hats, hat)
	}
	return hats
}

// Refresh probes the directory and adds any hats not yet known. It returns
// the number added.
func (c *Catalog) Refresh() int {
	added := 0
	for _, hat := range Probe(c.dir, c.maxIndex) {
		if c.Add(hat) {
			added++
		}
	}
	c.logger.Debug("catalog refreshed", "dir", c.dir, "added", added, "total", c.Len())
	return added
}

// Hats returns the known hats in numeric order.
func (c *Catalog) Hats() []scene.Hat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hats := make([]scene.Hat, len(c.entries))
	for i, e := range c.entries {
		hats[i] = e.hat
	}
	return hats
}

// Len returns the number of known hats.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Subscribe registers fn for hats added from now on.
func (c *Catalog) Subscribe(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// OnChanged registers fn for known hats whose file was rewritten.
func (c *Catalog) OnChanged(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changed = append(c.changed, fn)
}

func (c *Catalog) notifyChanged(hat scene.Hat) {
	c.mu.RLock()
	changed := c.changed
	c.mu.RUnlock()

	c.logger.Debug("hat changed", "id", hat.ID, "src", hat.Src)
	for _, fn := range changed {
		fn(hat)
	}
}

// Add inserts hat if its source is new. Hats whose file name carries no
// index sort after the numbered ones.
func (c *Catalog) Add(hat scene.Hat) bool {
	index, ok := ParseIndex(hat.Src)
	if !ok {
		index = int(^uint(0) >> 1)
	}

	c.mu.Lock()
	for _, e := range c.entries {
		if e.hat.Src == hat.Src {
			c.mu.Unlock()
			return false
		}
	}
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].index > index })
	c.entries = append(c.entries, entry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = entry{index: index, hat: hat}
	listeners := c.listeners
	c.mu.Unlock()

	c.logger.Info("hat available", "id", hat.ID, "src", hat.Src)
	for _, fn := range listeners {
		fn(hat)
	}
	return true
}
