package memory

import (
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

var joypadKeyNames = [...]string{"Right", "Left", "Up", "Down", "A", "B", "Select", "Start"}

func (k JoypadKey) String() string {
	if int(k) < len(joypadKeyNames) {
		return joypadKeyNames[k]
	}
	return "Unknown"
}

// Joypad owns the P1 register.
//
// In real hw, this register is just a selector (bits 4-5) that controls
// to which set of buttons the low bits (0-3) are mapped to:
//   - if bit 4 is clear, bits 0-3 are mapped to the 4 d-pad directions
//   - if bit 5 is clear, bits 0-3 are mapped to A, B, Select, Start
//   - if both are clear, hw does an AND of both button sets
//   - if neither is clear, the low bits read 0x0F
//
// Note that 1 -> button released, 0 -> button pressed.
// Bits 6-7 are unused, they always read as 1 on real hardware.
type Joypad struct {
	buttons uint8
	dpad    uint8
	sel     uint8

	irq InterruptRequester
}

// NewJoypad creates a joypad with all keys released.
func NewJoypad(irq InterruptRequester) *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
		sel:     0x30,
		irq:     irq,
	}
}

func (j *Joypad) lines() uint8 {
	selectDpad := !bit.IsSet(4, j.sel)
	selectButtons := !bit.IsSet(5, j.sel)

	switch {
	case selectButtons && selectDpad:
		return j.buttons & j.dpad & 0x0F
	case selectButtons:
		return j.buttons & 0x0F
	case selectDpad:
		return j.dpad & 0x0F
	}
	return 0x0F
}

// Read returns the P1 register.
func (j *Joypad) Read(address uint16) uint8 {
	if address != addr.P1 {
		return 0xFF
	}
	return 0xC0 | j.sel | j.lines()
}

// Write updates the selection bits, the only writable part of P1.
func (j *Joypad) Write(address uint16, value uint8) {
	if address != addr.P1 {
		return
	}
	j.update(func() { j.sel = value & 0x30 })
}

// Press marks a key as held.
func (j *Joypad) Press(key JoypadKey) {
	j.update(func() { j.setKey(key, false) })
}

// Release marks a key as released.
func (j *Joypad) Release(key JoypadKey) {
	j.update(func() { j.setKey(key, true) })
}

// update applies a change and raises the joypad interrupt if any P1 input
// line went from high to low.
func (j *Joypad) update(change func()) {
	before := j.lines()
	change()
	if before&^j.lines() != 0 && j.irq != nil {
		j.irq(addr.JoypadInterrupt)
	}
}

func (j *Joypad) setKey(key JoypadKey, released bool) {
	switch key {
	case JoypadRight, JoypadLeft, JoypadUp, JoypadDown:
		j.dpad = bit.SetTo(uint8(key-JoypadRight), j.dpad, released)
	case JoypadA, JoypadB, JoypadSelect, JoypadStart:
		j.buttons = bit.SetTo(uint8(key-JoypadA), j.buttons, released)
	}
}
