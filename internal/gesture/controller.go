// Package gesture turns pointer input into sticker manipulation.
//
// A single pointer owns a gesture from down to up or cancel; input from any
// other pointer meanwhile is ignored. The lifecycle is
//
//	Idle -> Selecting -> Dragging | Scaling | Rotating -> Idle
//
// Pointer positions arrive in display space and are converted to natural
// space through the viewport current at the time of each event.
package gesture

import (
	"log/slog"

	"hat-editor/internal/scene"
	"hat-editor/pkg/geometry"
)

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	Selecting
	Dragging
	Scaling
	Rotating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Selecting:
		return "Selecting"
	case Dragging:
		return "Dragging"
	case Scaling:
		return "Scaling"
	case Rotating:
		return "Rotating"
	default:
		return "Unknown"
	}
}

// minHandleDistance guards the scale ratio against a gesture that starts on
// the sticker's center.
const minHandleDistance = 1e-6

// Target is the scene surface the controller manipulates.
type Target interface {
	HitTest(p geometry.Point2D) string
	Select(id string)
	Selected() string
	Sticker(id string) (*scene.Sticker, bool)
	Update(id string, p scene.Patch) bool
}

// Controller is the gesture state machine. It is driven from one goroutine.
type Controller struct {
	target Target
	logger *slog.Logger

	state   State
	pointer int // Pointer owning the current gesture
	sticker string

	offset        geometry.Point2D // Pointer minus sticker position at grab
	center        geometry.Point2D
	startDist     float64
	startScale    float64
	startBearing  float64
	startRotation float64
}

// New creates a controller over target.
func New(target Target, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{target: target, logger: logger}
}

// State returns the current gesture state.
func (c *Controller) State() State {
	return c.state
}

// StickerID returns the sticker the current gesture acts on, or "".
func (c *Controller) StickerID() string {
	if c.state == Idle {
		return ""
	}
	return c.sticker
}

// PointerDown begins a gesture at display point p. It returns true if the
// scene changed (selection or handle grab).
func (c *Controller) PointerDown(pointer int, p geometry.Point2D, v geometry.Viewport) bool {
	if c.state != Idle {
		if pointer != c.pointer {
			c.logger.Debug("gesture: ignoring second pointer", "pointer", pointer, "owner", c.pointer)
			return false
		}
		// A repeated down from the owner means we missed its up.
		c.reset()
	}

	n := v.ToNatural(p)

	if sel := c.target.Selected(); sel != "" {
		if st, ok := c.target.Sticker(sel); ok {
			h := scene.HandlesFor(st, v.Scale())
			switch {
			case n.Distance(h.Rotate) <= h.Radius:
				c.begin(pointer, Rotating, st)
				c.startBearing = geometry.Bearing(st.Position, n)
				return true
			case n.Distance(h.Scale) <= h.Radius:
				c.begin(pointer, Scaling, st)
				c.startDist = st.Position.Distance(n)
				return true
			}
		}
	}

	id := c.target.HitTest(n)
	if id == "" {
		changed := c.target.Selected() != ""
		c.target.Select("")
		return changed
	}

	st, ok := c.target.Sticker(id)
	if !ok {
		return false
	}
	c.target.Select(id)
	c.begin(pointer, Selecting, st)
	c.offset = n.Sub(st.Position)
	return true
}

func (c *Controller) begin(pointer int, state State, st *scene.Sticker) {
	c.state = state
	c.pointer = pointer
	c.sticker = st.ID
	c.center = st.Position
	c.startScale = st.Scale
	c.startRotation = st.Rotation
	c.logger.Debug("gesture: begin", "state", state, "sticker", st.ID)
}

// PointerMove continues the gesture owned by pointer. It returns true if the
// scene changed.
func (c *Controller) PointerMove(pointer int, p geometry.Point2D, v geometry.Viewport) bool {
	if c.state == Idle || pointer != c.pointer {
		return false
	}
	n := v.ToNatural(p)

	var patch scene.Patch
	switch c.state {
	case Selecting, Dragging:
		c.state = Dragging
		pos := n.Sub(c.offset)
		patch.Position = &pos
	case Scaling:
		if c.startDist < minHandleDistance {
			return false
		}
		scale := c.startScale * c.center.Distance(n) / c.startDist
		patch.Scale = &scale
	case Rotating:
		rot := c.startRotation + geometry.Bearing(c.center, n) - c.startBearing
		patch.Rotation = &rot
	}

	if !c.target.Update(c.sticker, patch) {
		// The sticker went away underneath us (removed or image replaced).
		c.logger.Debug("gesture: target gone", "sticker", c.sticker)
		c.reset()
		return false
	}
	return true
}

// PointerUp ends the gesture owned by pointer, keeping applied changes.
func (c *Controller) PointerUp(pointer int) {
	if c.state == Idle || pointer != c.pointer {
		return
	}
	c.logger.Debug("gesture: end", "state", c.state, "sticker", c.sticker)
	c.reset()
}

// PointerCancel aborts the gesture owned by pointer. Changes already applied
// are kept.
func (c *Controller) PointerCancel(pointer int) {
	if c.state == Idle || pointer != c.pointer {
		return
	}
	c.logger.Debug("gesture: cancelled", "state", c.state, "sticker", c.sticker)
	c.reset()
}

// Reset returns to Idle regardless of the owning pointer.
func (c *Controller) Reset() {
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.sticker = ""
	c.offset = geometry.Point2D{}
	c.startDist = 0
}

// ToggleMirror flips the selected sticker horizontally. It returns false
// when nothing is selected.
func (c *Controller) ToggleMirror() bool {
	id := c.target.Selected()
	st, ok := c.target.Sticker(id)
	if !ok {
		return false
	}
	mirrored := !st.Mirrored
	return c.target.Update(id, scene.Patch{Mirrored: &mirrored})
}
