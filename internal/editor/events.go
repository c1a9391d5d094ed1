package editor

// EventType identifies editor events.
type EventType int

const (
	EventImageStateChanged EventType = iota // data: bool, true when an image is loaded
	EventSceneChanged                       // data: nil; the view should repaint
	EventStickerAdded                       // data: *scene.Sticker
	EventExportFailed                       // data: error
)

func (e EventType) String() string {
	switch e {
	case EventImageStateChanged:
		return "ImageStateChanged"
	case EventSceneChanged:
		return "SceneChanged"
	case EventStickerAdded:
		return "StickerAdded"
	case EventExportFailed:
		return "ExportFailed"
	default:
		return "Unknown"
	}
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// On registers an event listener for the specified event type.
func (e *Editor) On(event EventType, listener EventListener) {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// OnImageStateChanged registers fn for every Empty/Loaded transition.
func (e *Editor) OnImageStateChanged(fn func(loaded bool)) {
	e.On(EventImageStateChanged, func(data interface{}) {
		loaded, _ := data.(bool)
		fn(loaded)
	})
}

// Emit triggers all listeners for the specified event type. It must not be
// called with the scene lock held.
func (e *Editor) Emit(event EventType, data interface{}) {
	e.lmu.RLock()
	listeners := e.listeners[event]
	e.lmu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
