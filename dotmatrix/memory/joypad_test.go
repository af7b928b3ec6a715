package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

func TestJoypadSelection(t *testing.T) {
	j := NewJoypad(nil)
	j.Press(JoypadA)
	j.Press(JoypadUp)

	testCases := []struct {
		desc string
		sel  uint8
		want uint8
	}{
		{"nothing selected", 0x30, 0xFF},
		{"buttons", 0x10, 0xDE},
		{"dpad", 0x20, 0xEB},
		{"both", 0x00, 0xCA},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			j.Write(addr.P1, tC.sel|0x0F)
			assert.Equal(t, tC.want, j.Read(addr.P1))
		})
	}
}

func TestJoypadRelease(t *testing.T) {
	j := NewJoypad(nil)
	j.Write(addr.P1, 0x10)

	j.Press(JoypadStart)
	assert.Equal(t, uint8(0xD7), j.Read(addr.P1))
	j.Release(JoypadStart)
	assert.Equal(t, uint8(0xDF), j.Read(addr.P1))
}

func TestJoypadInterrupt(t *testing.T) {
	t.Run("press on selected group", func(t *testing.T) {
		log := &irqLog{}
		j := NewJoypad(log.request)
		j.Write(addr.P1, 0x20) // d-pad

		j.Press(JoypadDown)
		assert.Equal(t, []addr.Interrupt{addr.JoypadInterrupt}, log.requests)

		j.Release(JoypadDown)
		assert.Len(t, log.requests, 1, "release is a low to high transition")
	})

	t.Run("press on unselected group", func(t *testing.T) {
		log := &irqLog{}
		j := NewJoypad(log.request)
		j.Write(addr.P1, 0x20)

		j.Press(JoypadB)
		assert.Empty(t, log.requests)

		// selecting the group with B held pulls a line low
		j.Write(addr.P1, 0x10)
		assert.Len(t, log.requests, 1)
	})
}

func TestJoypadKeyString(t *testing.T) {
	assert.Equal(t, "Select", JoypadSelect.String())
	assert.Equal(t, "Unknown", JoypadKey(42).String())
}
