// Package panels provides the side panels of the main window.
package panels

import (
	"bytes"
	"image/png"
	"log/slog"
	"sync"

	"hat-editor/internal/catalog"
	"hat-editor/internal/scene"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// HatPanel is a grid of hat buttons fed by the catalog. Picking a hat marks
// it pending until the editor acknowledges the sticker was placed.
type HatPanel struct {
	catalog   *catalog.Catalog
	thumbSize int
	onPick    func(scene.Hat)
	logger    *slog.Logger

	grid    *fyne.Container
	loading *widget.Label
	box     fyne.CanvasObject

	mu      sync.Mutex
	buttons map[string]*widget.Button // By hat ID
	pending string
}

// NewHatPanel creates a panel listing cat's hats. onPick is called when a
// hat is tapped.
func NewHatPanel(cat *catalog.Catalog, thumbSize int, onPick func(scene.Hat), logger *slog.Logger) *HatPanel {
	if logger == nil {
		logger = slog.Default()
	}
	hp := &HatPanel{
		catalog:   cat,
		thumbSize: thumbSize,
		onPick:    onPick,
		logger:    logger,
		buttons:   make(map[string]*widget.Button),
	}

	cell := fyne.NewSize(float32(thumbSize)+24, float32(thumbSize)+48)
	hp.grid = container.NewGridWrap(cell)
	hp.loading = widget.NewLabel("Loading hats...")
	hp.loading.Alignment = fyne.TextAlignCenter

	hp.box = container.NewBorder(
		widget.NewLabelWithStyle("Hats", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		nil, nil, nil,
		container.NewVScroll(container.NewVBox(hp.loading, hp.grid)),
	)

	cat.Subscribe(func(scene.Hat) { hp.Sync() })
	hp.Sync()
	return hp
}

// Container returns the panel for embedding in layouts.
func (hp *HatPanel) Container() fyne.CanvasObject {
	return hp.box
}

// Sync rebuilds the grid from the catalog in its numeric order.
func (hp *HatPanel) Sync() {
	hats := hp.catalog.Hats()

	hp.mu.Lock()
	objects := make([]fyne.CanvasObject, 0, len(hats))
	for _, hat := range hats {
		btn, ok := hp.buttons[hat.ID]
		if !ok {
			btn = hp.newButton(hat)
			hp.buttons[hat.ID] = btn
		}
		objects = append(objects, btn)
	}
	hp.mu.Unlock()

	hp.grid.Objects = objects
	hp.grid.Refresh()
	if len(hats) == 0 {
		hp.loading.Show()
	} else {
		hp.loading.Hide()
	}
}

func (hp *HatPanel) newButton(hat scene.Hat) *widget.Button {
	btn := widget.NewButtonWithIcon(hat.Name, hp.icon(hat), func() {
		hp.pick(hat)
	})
	btn.IconPlacement = widget.ButtonIconTrailingText
	return btn
}

// icon renders hat's thumbnail into a resource, falling back to a generic
// image icon when the sprite cannot be read.
func (hp *HatPanel) icon(hat scene.Hat) fyne.Resource {
	thumb, err := hp.catalog.Thumbnail(hat, hp.thumbSize)
	if err != nil {
		hp.logger.Warn("hat thumbnail failed", "hat", hat.ID, "error", err)
		return theme.FileImageIcon()
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return theme.FileImageIcon()
	}
	return fyne.NewStaticResource(hat.ID+".png", buf.Bytes())
}

func (hp *HatPanel) pick(hat scene.Hat) {
	hp.SetPending(hat.ID)
	if hp.onPick != nil {
		hp.onPick(hat)
	}
}

// Pending returns the hat awaiting placement, or "".
func (hp *HatPanel) Pending() string {
	hp.mu.Lock()
	defer hp.mu.Unlock()
	return hp.pending
}

// SetPending highlights id as the requested hat.
func (hp *HatPanel) SetPending(id string) {
	hp.mu.Lock()
	prev := hp.buttons[hp.pending]
	hp.pending = id
	next := hp.buttons[id]
	hp.mu.Unlock()

	if prev != nil && prev != next {
		prev.Importance = widget.MediumImportance
		prev.Refresh()
	}
	if next != nil {
		next.Importance = widget.HighImportance
		next.Refresh()
	}
}

// Ack clears the pending highlight for hat once its sticker was placed.
func (hp *HatPanel) Ack(hat scene.Hat) {
	if hp.Pending() != hat.ID {
		return
	}
	hp.SetPending("")
}
