package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/input/action"
	"github.com/valerio/go-dotmatrix/dotmatrix/input/event"
	"github.com/valerio/go-dotmatrix/dotmatrix/memory"
)

func TestManager_JoypadActions(t *testing.T) {
	testCases := []struct {
		act    action.Action
		sel    uint8
		expect uint8
	}{
		{action.GBDPadRight, 0x20, 0xEE},
		{action.GBDPadLeft, 0x20, 0xED},
		{action.GBDPadUp, 0x20, 0xEB},
		{action.GBDPadDown, 0x20, 0xE7},
		{action.GBButtonA, 0x10, 0xDE},
		{action.GBButtonB, 0x10, 0xDD},
		{action.GBButtonSelect, 0x10, 0xDB},
		{action.GBButtonStart, 0x10, 0xD7},
	}
	for _, tC := range testCases {
		t.Run(tC.act.String(), func(t *testing.T) {
			j := memory.NewJoypad(nil)
			j.Write(addr.P1, tC.sel)
			m := NewManager(j)

			m.Trigger(tC.act, event.Press)
			assert.Equal(t, tC.expect, j.Read(addr.P1))

			m.Trigger(tC.act, event.Release)
			assert.Equal(t, 0xC0|tC.sel|0x0F, j.Read(addr.P1))
		})
	}
}

func TestManager_ButtonsNotDebounced(t *testing.T) {
	j := memory.NewJoypad(nil)
	j.Write(addr.P1, 0x10)
	m := NewManager(j)

	for range 3 {
		m.Trigger(action.GBButtonA, event.Press)
		m.Trigger(action.GBButtonA, event.Release)
	}
	m.Trigger(action.GBButtonA, event.Press)
	assert.Equal(t, uint8(0xDE), j.Read(addr.P1))
}

func TestManager_Callbacks(t *testing.T) {
	clock := time.Unix(0, 0)
	m := NewManager(nil)
	m.now = func() time.Time { return clock }

	var pauses, holds int
	m.On(action.EmulatorPauseToggle, event.Press, func() { pauses++ })
	m.On(action.EmulatorStepFrame, event.Hold, func() { holds++ })

	m.Trigger(action.EmulatorPauseToggle, event.Press)
	assert.Equal(t, 1, pauses)

	clock = clock.Add(100 * time.Millisecond)
	m.Trigger(action.EmulatorPauseToggle, event.Press)
	assert.Equal(t, 1, pauses, "rapid repeat is debounced")

	clock = clock.Add(debounceDuration)
	m.Trigger(action.EmulatorPauseToggle, event.Press)
	assert.Equal(t, 2, pauses)

	for range 5 {
		m.Trigger(action.EmulatorStepFrame, event.Hold)
	}
	assert.Equal(t, 5, holds, "hold events pass through")

	// no handler, no joypad: nothing to do
	m.Trigger(action.EmulatorSnapshot, event.Press)
	m.Trigger(action.GBButtonA, event.Press)
}

func TestDefaultKeyMap(t *testing.T) {
	act, ok := GetDefaultMapping("Escape")
	assert.True(t, ok)
	assert.Equal(t, action.EmulatorQuit, act)

	_, ok = GetDefaultMapping("F1")
	assert.False(t, ok)

	assert.True(t, action.GBDPadRight.IsGameboy())
	assert.False(t, action.EmulatorQuit.IsGameboy())
	assert.Equal(t, "Unknown", action.Action(99).String())
}
