package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

// flatBus is a 64KiB RAM with no devices behind it.
type flatBus struct {
	mem [0x10000]byte
}

func (b *flatBus) Read(address uint16) byte         { return b.mem[address] }
func (b *flatBus) Write(address uint16, value byte) { b.mem[address] = value }

func (b *flatBus) load(at uint16, program ...byte) {
	copy(b.mem[at:], program)
}

func newTestCPU(program ...byte) (*CPU, *flatBus) {
	bus := &flatBus{}
	bus.load(0xC000, program...)
	c := New()
	c.bus = bus
	c.pc = 0xC000
	c.sp = 0xFFF0
	return c, bus
}

// runInstruction steps until the in-flight instruction completes and returns the ticks taken.
func runInstruction(c *CPU, bus Bus) int {
	c.Step(bus)
	ticks := 1
	for !c.Idle() {
		c.Step(bus)
		ticks++
	}
	return ticks
}

func TestNOPScenario(t *testing.T) {
	bus := &flatBus{}
	c := New()
	c.f = 0xB0

	c.Step(bus)
	assert.Equal(t, uint16(0x0001), c.pc)
	assert.False(t, c.Idle())

	for i := 0; i < 3; i++ {
		c.Step(bus)
	}
	assert.True(t, c.Idle())
	assert.Equal(t, uint16(0x0001), c.pc)
	assert.Equal(t, uint8(0xB0), c.f)

	// fifth tick fetches the next NOP
	c.Step(bus)
	assert.Equal(t, uint16(0x0002), c.pc)
}

func TestTimingCounter(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		ticks   int
	}{
		{"NOP", []byte{0x00}, 4},
		{"LD BC,d16", []byte{0x01, 0x34, 0x12}, 12},
		{"LD (a16),SP", []byte{0x08, 0x00, 0xD0}, 20},
		{"CALL a16", []byte{0xCD, 0x00, 0xD0}, 24},
		{"SET 0,(HL)", []byte{0xCB, 0xC6}, 16},
		{"BIT 0,(HL)", []byte{0xCB, 0x46}, 12},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, bus := newTestCPU(tC.program...)
			c.setHL(0xD000)
			assert.Equal(t, tC.ticks, runInstruction(c, bus))
		})
	}
}

func TestOpcodeTablesAreComplete(t *testing.T) {
	invalid := map[uint8]bool{
		0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true, 0xEB: true,
		0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true,
	}

	for code := 0; code < 256; code++ {
		instr := Lookup(uint8(code))
		assert.True(t, instr.Implemented(), "opcode 0x%02X", code)
		assert.Equal(t, invalid[uint8(code)], instr.Invalid, "opcode 0x%02X", code)

		cb := LookupCB(uint8(code))
		assert.True(t, cb.Implemented(), "opcode 0xCB%02X", code)
		assert.False(t, cb.Invalid)
		assert.Equal(t, 2, cb.Length)
	}
}

func TestUnimplementedIsDistinctFromInvalid(t *testing.T) {
	c, bus := newTestCPU(0x00)
	saved := opcodes[0x00]
	opcodes[0x00] = Instruction{Mnemonic: "NOP", Length: 1, Cycles: 4}
	defer func() { opcodes[0x00] = saved }()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrUnimplementedOpcode)
	}()
	c.Step(bus)
}

// notTaken returns a flag register value for which the conditional encoded
// in the opcode does not hold. ok is false for unconditional opcodes.
func notTaken(code uint8) (f uint8, ok bool) {
	switch code {
	case 0x20, 0xC0, 0xC2, 0xC4: // NZ
		return uint8(zeroFlag), true
	case 0x28, 0xC8, 0xCA, 0xCC: // Z
		return 0, true
	case 0x30, 0xD0, 0xD2, 0xD4: // NC
		return uint8(carryFlag), true
	case 0x38, 0xD8, 0xDA, 0xDC: // C
		return 0, true
	}
	return 0, false
}

// jumps always move PC somewhere other than past their operands.
var jumps = map[uint8]bool{
	0x18: true, 0xC3: true, 0xC9: true, 0xCD: true, 0xD9: true, 0xE9: true,
	0xC7: true, 0xCF: true, 0xD7: true, 0xDF: true, 0xE7: true, 0xEF: true, 0xF7: true, 0xFF: true,
}

func TestOpcodeLengthAndCost(t *testing.T) {
	for code := 0; code < 256; code++ {
		op := uint8(code)
		if op == prefixCB || jumps[op] {
			continue
		}

		c, _ := newTestCPU(op)
		c.setHL(0xD000)
		if f, ok := notTaken(op); ok {
			c.f = f
		}

		instr := Lookup(op)
		cost := c.execute()
		assert.Equal(t, instr.Cycles, cost, "opcode 0x%02X (%s)", op, instr.Mnemonic)
		assert.Equal(t, uint16(0xC000+instr.Length), c.pc, "opcode 0x%02X (%s)", op, instr.Mnemonic)
	}

	for code := 0; code < 256; code++ {
		c, _ := newTestCPU(prefixCB, uint8(code))
		c.setHL(0xD000)

		instr := LookupCB(uint8(code))
		cost := c.execute()
		assert.Equal(t, instr.Cycles, cost, "opcode 0xCB%02X (%s)", code, instr.Mnemonic)
		assert.Equal(t, uint16(0xC002), c.pc, "opcode 0xCB%02X (%s)", code, instr.Mnemonic)
	}
}

// machineCycles is the published DMG cost of every primary opcode in machine
// cycles, with conditional branches not taken. 0 marks invalid opcodes and
// the CB prefix.
var machineCycles = [256]int{
	//     x0 x1 x2 x3 x4 x5 x6 x7 x8 x9 xA xB xC xD xE xF
	/* 0x */ 1, 3, 2, 2, 1, 1, 2, 1, 5, 2, 2, 2, 1, 1, 2, 1,
	/* 1x */ 1, 3, 2, 2, 1, 1, 2, 1, 3, 2, 2, 2, 1, 1, 2, 1,
	/* 2x */ 2, 3, 2, 2, 1, 1, 2, 1, 2, 2, 2, 2, 1, 1, 2, 1,
	/* 3x */ 2, 3, 2, 2, 3, 3, 3, 1, 2, 2, 2, 2, 1, 1, 2, 1,
	/* 4x */ 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	/* 5x */ 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	/* 6x */ 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	/* 7x */ 2, 2, 2, 2, 2, 2, 1, 2, 1, 1, 1, 1, 1, 1, 2, 1,
	/* 8x */ 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	/* 9x */ 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	/* Ax */ 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	/* Bx */ 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1,
	/* Cx */ 2, 3, 3, 4, 3, 4, 2, 4, 2, 4, 3, 0, 3, 6, 2, 4,
	/* Dx */ 2, 3, 3, 0, 3, 4, 2, 4, 2, 4, 3, 0, 3, 0, 2, 4,
	/* Ex */ 3, 3, 2, 0, 0, 4, 2, 4, 4, 1, 4, 0, 0, 0, 2, 4,
	/* Fx */ 3, 3, 2, 1, 0, 4, 2, 4, 3, 2, 4, 1, 0, 0, 2, 4,
}

// cbMachineCycles is the published cost of a 0xCB opcode, prefix included.
func cbMachineCycles(code uint8) int {
	if code&0x07 != 0x06 {
		return 2
	}
	if code >= 0x40 && code < 0x80 {
		return 3 // BIT b,(HL)
	}
	return 4
}

func TestOpcodeCostsMatchHardware(t *testing.T) {
	for code := range 256 {
		op := uint8(code)
		if op == prefixCB {
			continue
		}
		assert.Equal(t, machineCycles[op]*4, Lookup(op).Cycles, "opcode 0x%02X (%s)", op, Lookup(op).Mnemonic)
		assert.Equal(t, cbMachineCycles(op)*4, LookupCB(op).Cycles, "opcode 0xCB%02X (%s)", op, LookupCB(op).Mnemonic)
	}
}

func TestTakenBranchCost(t *testing.T) {
	testCases := []struct {
		desc  string
		codes []uint8
		ticks int
	}{
		{"JR cc", []uint8{0x20, 0x28, 0x30, 0x38}, 12},
		{"RET cc", []uint8{0xC0, 0xC8, 0xD0, 0xD8}, 20},
		{"JP cc", []uint8{0xC2, 0xCA, 0xD2, 0xDA}, 16},
		{"CALL cc", []uint8{0xC4, 0xCC, 0xD4, 0xDC}, 24},
	}
	// flags that satisfy NZ, Z, NC and C in order
	taken := []uint8{0x00, uint8(zeroFlag), 0x00, uint8(carryFlag)}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			for i, op := range tC.codes {
				c, _ := newTestCPU(op, 0x00, 0x00)
				c.f = taken[i]
				assert.Equal(t, tC.ticks, c.execute(), "opcode 0x%02X", op)
			}
		})
	}
}

func TestInvalidOpcodesConsumeNothing(t *testing.T) {
	for _, op := range []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD} {
		c, bus := newTestCPU(op, 0x3C) // followed by INC A
		c.a = 0x10
		c.f = 0x50

		assert.Equal(t, 0, c.execute())
		assert.Equal(t, uint16(0xC001), c.pc)
		assert.Equal(t, uint8(0x10), c.a)
		assert.Equal(t, uint8(0x50), c.f)

		// the next tick goes straight to the following instruction
		c.Step(bus)
		assert.Equal(t, uint8(0x11), c.a)
	}
}

func TestConditionalBranchCost(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		f       uint8
		cost    int
		pc      uint16
	}{
		{"JR NZ taken", []byte{0x20, 0x05}, 0, 12, 0xC007},
		{"JR NZ not taken", []byte{0x20, 0x05}, uint8(zeroFlag), 8, 0xC002},
		{"JR C backwards", []byte{0x38, 0xFC}, uint8(carryFlag), 12, 0xBFFE},
		{"JP Z taken", []byte{0xCA, 0x00, 0xD0}, uint8(zeroFlag), 16, 0xD000},
		{"JP Z not taken", []byte{0xCA, 0x00, 0xD0}, 0, 12, 0xC003},
		{"CALL NC taken", []byte{0xD4, 0x00, 0xD0}, 0, 24, 0xD000},
		{"CALL NC not taken", []byte{0xD4, 0x00, 0xD0}, uint8(carryFlag), 12, 0xC003},
		{"JR unconditional", []byte{0x18, 0x80}, 0, 12, 0xBF82},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _ := newTestCPU(tC.program...)
			c.f = tC.f
			assert.Equal(t, tC.cost, c.execute())
			assert.Equal(t, tC.pc, c.pc)
		})
	}
}

func TestConditionalReturn(t *testing.T) {
	c, bus := newTestCPU(0xC8) // RET Z
	c.sp = 0xFFF0
	bus.mem[0xFFF0] = 0x34
	bus.mem[0xFFF1] = 0x12

	c.f = 0
	assert.Equal(t, 8, c.execute())
	assert.Equal(t, uint16(0xC001), c.pc)

	c.pc = 0xC000
	c.f = uint8(zeroFlag)
	assert.Equal(t, 20, c.execute())
	assert.Equal(t, uint16(0x1234), c.pc)
	assert.Equal(t, uint16(0xFFF2), c.sp)
}

func TestOwnedRegisters(t *testing.T) {
	c := New()

	for address := addr.HRAMStart; address <= addr.HRAMEnd; address++ {
		c.Write(address, uint8(address))
		assert.Equal(t, uint8(address), c.Read(address))
	}

	c.Write(addr.IF, 0xFF)
	assert.Equal(t, uint8(0xFF), c.Read(addr.IF))
	c.Write(addr.IF, 0x01)
	assert.Equal(t, uint8(0xE1), c.Read(addr.IF), "upper IF bits always read 1")

	c.Write(addr.IE, 0x1F)
	assert.Equal(t, uint8(0x1F), c.Read(addr.IE))

	c.Write(addr.IF, 0)
	c.RequestInterrupt(addr.TimerInterrupt)
	assert.Equal(t, uint8(0xE4), c.Read(addr.IF))
}

func TestPostBootState(t *testing.T) {
	c := New()
	c.ResetToPostBoot()

	assert.Equal(t, uint16(0x01B0), c.getAF())
	assert.Equal(t, uint16(0x0013), c.getBC())
	assert.Equal(t, uint16(0x00D8), c.getDE())
	assert.Equal(t, uint16(0x014D), c.getHL())
	assert.Equal(t, uint16(0xFFFE), c.sp)
	assert.Equal(t, uint16(0x0100), c.pc)
	assert.Equal(t, "Z-HC", c.GetFlagString())
}
