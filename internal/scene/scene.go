package scene

import (
	"errors"
	"fmt"
	"image"

	pimage "hat-editor/internal/image"
	"hat-editor/pkg/geometry"

	"github.com/google/uuid"
)

// ErrNoImage is returned when an operation needs a loaded source image.
var ErrNoImage = errors.New("no source image loaded")

// IDGenerator produces unique sticker instance ids.
type IDGenerator func() string

// UUIDs returns a generator of random UUID strings.
func UUIDs() IDGenerator {
	return uuid.NewString
}

// Sequential returns a generator of "<prefix><n>" ids starting at 1.
func Sequential(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// Scene owns the source image, the ordered stickers and the selection.
// It is not safe for concurrent use; the editor serializes access.
type Scene struct {
	source   *pimage.Source
	stickers []*Sticker // Draw order, last is topmost
	selected string

	limits Limits
	newID  IDGenerator
	issued map[string]bool
}

// New creates an empty scene.
func New(limits Limits, ids IDGenerator) *Scene {
	if ids == nil {
		ids = UUIDs()
	}
	return &Scene{
		limits: limits,
		newID:  ids,
		issued: make(map[string]bool),
	}
}

// Limits returns the scene's scale limits.
func (s *Scene) Limits() Limits {
	return s.limits
}

// Source returns the current source image, or nil.
func (s *Scene) Source() *pimage.Source {
	return s.source
}

// HasImage reports whether a source image is loaded.
func (s *Scene) HasImage() bool {
	return s.source != nil
}

// SetSource replaces the source image and clears all stickers and the
// selection. Natural coordinates of old stickers mean nothing on a new image.
func (s *Scene) SetSource(src *pimage.Source) {
	s.source = src
	s.stickers = nil
	s.selected = ""
}

// Add places a new sticker for hat using sprite as its pixels. It is
// centered in visible (natural space; the whole image when empty), sized so
// its longer edge is the default fraction of the image's shorter edge, and
// becomes topmost and selected.
func (s *Scene) Add(hat Hat, sprite image.Image, visible geometry.Rect) (*Sticker, error) {
	if s.source == nil {
		return nil, ErrNoImage
	}
	if sprite == nil || sprite.Bounds().Empty() {
		return nil, fmt.Errorf("hat %q: empty sprite", hat.ID)
	}

	natural := s.source.Size()
	full := geometry.Rect{Width: natural.Width, Height: natural.Height}
	if visible.Empty() {
		visible = full
	} else if clipped := visible.Intersect(full); !clipped.Empty() {
		visible = clipped
	} else {
		visible = full
	}

	st := &Sticker{
		ID:       s.uniqueID(),
		HatID:    hat.ID,
		Sprite:   sprite,
		Position: visible.Center(),
	}
	native := st.NativeSize()
	st.Scale = s.limits.ClampScale(s.limits.DefaultFraction * natural.ShorterEdge() / native.LongerEdge())

	s.stickers = append(s.stickers, st)
	s.selected = st.ID
	return st.clone(), nil
}

func (s *Scene) uniqueID() string {
	id := s.newID()
	for attempt := 0; id == "" || s.issued[id]; attempt++ {
		if attempt >= 16 {
			id = uuid.NewString()
			continue
		}
		id = s.newID()
	}
	s.issued[id] = true
	return id
}

// Update merges p into the sticker with the given id. Rotation is
// re-normalized and scale clamped. Returns false if the id is unknown.
func (s *Scene) Update(id string, p Patch) bool {
	st := s.find(id)
	if st == nil {
		return false
	}
	if p.Position != nil {
		st.Position = *p.Position
	}
	if p.Scale != nil {
		st.Scale = s.limits.ClampScale(*p.Scale)
	}
	if p.Rotation != nil {
		st.Rotation = geometry.NormalizeDegrees(*p.Rotation)
	}
	if p.Mirrored != nil {
		st.Mirrored = *p.Mirrored
	}
	return true
}

// Remove deletes a sticker, clearing the selection if it was selected.
func (s *Scene) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.stickers = append(s.stickers[:i], s.stickers[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	return true
}

// Select selects a sticker by id. An empty or unknown id clears the
// selection.
func (s *Scene) Select(id string) {
	if s.find(id) == nil {
		s.selected = ""
		return
	}
	s.selected = id
}

// Selected returns the selected sticker id, or "".
func (s *Scene) Selected() string {
	return s.selected
}

// BringToFront moves the sticker to the top of the stack.
func (s *Scene) BringToFront(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	st := s.stickers[i]
	s.stickers = append(s.stickers[:i], s.stickers[i+1:]...)
	s.stickers = append(s.stickers, st)
	return true
}

// HitTest returns the id of the topmost sticker under a natural-space point,
// or "" if none.
func (s *Scene) HitTest(p geometry.Point2D) string {
	for i := len(s.stickers) - 1; i >= 0; i-- {
		if s.stickers[i].Contains(p) {
			return s.stickers[i].ID
		}
	}
	return ""
}

// HitTestDisplay converts a display-space point through v and hit-tests it.
func (s *Scene) HitTestDisplay(v geometry.Viewport, p geometry.Point2D) string {
	return s.HitTest(v.ToNatural(p))
}

// Sticker returns a copy of the sticker with the given id.
func (s *Scene) Sticker(id string) (*Sticker, bool) {
	st := s.find(id)
	if st == nil {
		return nil, false
	}
	return st.clone(), true
}

// Stickers returns copies of all stickers in draw order.
func (s *Scene) Stickers() []*Sticker {
	out := make([]*Sticker, len(s.stickers))
	for i, st := range s.stickers {
		out[i] = st.clone()
	}
	return out
}

// Len returns the number of placed stickers.
func (s *Scene) Len() int {
	return len(s.stickers)
}

// Snapshot is an immutable copy of the scene for rendering.
type Snapshot struct {
	Source   *pimage.Source
	Stickers []*Sticker
	Selected string
}

// Snapshot copies the current state.
func (s *Scene) Snapshot() Snapshot {
	return Snapshot{
		Source:   s.source,
		Stickers: s.Stickers(),
		Selected: s.selected,
	}
}

// SelectedSticker returns the selected sticker of a snapshot, if any.
func (sn Snapshot) SelectedSticker() *Sticker {
	if sn.Selected == "" {
		return nil
	}
	for _, st := range sn.Stickers {
		if st.ID == sn.Selected {
			return st
		}
	}
	return nil
}

func (s *Scene) find(id string) *Sticker {
	if i := s.index(id); i >= 0 {
		return s.stickers[i]
	}
	return nil
}

func (s *Scene) index(id string) int {
	if id == "" {
		return -1
	}
	for i, st := range s.stickers {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func (st *Sticker) clone() *Sticker {
	c := *st
	return &c
}
