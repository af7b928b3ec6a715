package action

// Action is something a backend key or button can be bound to.
type Action int

const (
	// console buttons
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// emulator controls
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorSnapshot
	EmulatorQuit
)

var names = [...]string{
	"A", "B", "Start", "Select", "Up", "Down", "Left", "Right",
	"PauseToggle", "StepFrame", "Snapshot", "Quit",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(names) {
		return names[a]
	}
	return "Unknown"
}

// IsGameboy reports whether the action maps onto a joypad key.
func (a Action) IsGameboy() bool {
	return a >= GBButtonA && a <= GBDPadRight
}
