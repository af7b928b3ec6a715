package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memory []byte

func (m memory) Read(address uint16) byte {
	if int(address) < len(m) {
		return m[address]
	}
	return 0xFF
}

func TestDisassembleAt(t *testing.T) {
	testCases := []struct {
		desc   string
		code   memory
		expect string
		length int
	}{
		{"no operands", memory{0x00}, "NOP", 1},
		{"d8", memory{0x3E, 0x42}, "LD A,$42", 2},
		{"d16", memory{0x21, 0x34, 0x12}, "LD HL,$1234", 3},
		{"a16", memory{0xC3, 0x50, 0x01}, "JP $0150", 3},
		{"a8", memory{0xE0, 0x40}, "LDH ($FF40),A", 2},
		{"jr backwards", memory{0x18, 0xFE}, "JR $0000", 2},
		{"jr conditional", memory{0x20, 0x05}, "JR NZ,$0007", 2},
		{"sp offset", memory{0xE8, 0xFE}, "ADD SP,-2", 2},
		{"sp relative load", memory{0xF8, 0x03}, "LD HL,SP+3", 2},
		{"cb prefix", memory{0xCB, 0x7C}, "BIT 7,H", 2},
		{"invalid", memory{0xD3}, "INVALID", 1},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			line := DisassembleAt(0, tC.code)
			assert.Equal(t, tC.expect, line.Instruction)
			assert.Equal(t, tC.length, line.Length)
		})
	}
}

func TestDisassembleRange(t *testing.T) {
	code := memory{0x00, 0x3E, 0x01, 0xC3, 0x00, 0x01}
	lines := DisassembleRange(0, 3, code)

	require.Len(t, lines, 3)
	assert.Equal(t, uint16(0x0000), lines[0].Address)
	assert.Equal(t, uint16(0x0001), lines[1].Address)
	assert.Equal(t, uint16(0x0003), lines[2].Address)
	assert.Equal(t, "0x0003: JP $0100", lines[2].String())
}
