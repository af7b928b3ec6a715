package backend

import (
	"github.com/valerio/go-dotmatrix/dotmatrix/input/action"
	"github.com/valerio/go-dotmatrix/dotmatrix/input/event"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// Backend presents frames and collects input for one platform (terminal,
// SDL window, nothing at all).
type Backend interface {
	// Init configures the backend. It must be called before Update.
	Init(config BackendConfig) error

	// Update renders a finished frame and returns the input events collected
	// since the previous call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup releases platform resources.
	Cleanup() error
}

// InputEvent is a platform key event translated to an action.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title string
	Scale int // window scale factor, backends without windows ignore it
}
