package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func flagsOf(z, n, h, c bool) uint8 {
	var f uint8
	if z {
		f |= uint8(zeroFlag)
	}
	if n {
		f |= uint8(subFlag)
	}
	if h {
		f |= uint8(halfCarryFlag)
	}
	if c {
		f |= uint8(carryFlag)
	}
	return f
}

func TestALUFlagsExhaustive(t *testing.T) {
	c := New()

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			for carryIn := 0; carryIn < 2; carryIn++ {
				cin := carryIn == 1

				// ADC (ADD when carry in is zero)
				c.a, c.f = uint8(a), flagsOf(false, false, false, cin)
				c.add8(uint8(b), true)
				sum := a + b + carryIn
				want := flagsOf(uint8(sum) == 0, false, a&0xF+b&0xF+carryIn > 0xF, sum > 0xFF)
				if c.a != uint8(sum) || c.f != want {
					t.Fatalf("ADC %02X,%02X,%d: got a=%02X f=%02X want a=%02X f=%02X", a, b, carryIn, c.a, c.f, uint8(sum), want)
				}

				// SBC (SUB when carry in is zero)
				c.a, c.f = uint8(a), flagsOf(false, false, false, cin)
				c.sub8(uint8(b), true, true)
				diff := a - b - carryIn
				want = flagsOf(uint8(diff) == 0, true, a&0xF-b&0xF-carryIn < 0, diff < 0)
				if c.a != uint8(diff) || c.f != want {
					t.Fatalf("SBC %02X,%02X,%d: got a=%02X f=%02X want a=%02X f=%02X", a, b, carryIn, c.a, c.f, uint8(diff), want)
				}
			}

			// CP leaves A untouched
			c.a, c.f = uint8(a), 0
			c.sub8(uint8(b), false, false)
			want := flagsOf(a == b, true, a&0xF < b&0xF, a < b)
			if c.a != uint8(a) || c.f != want {
				t.Fatalf("CP %02X,%02X: got a=%02X f=%02X want f=%02X", a, b, c.a, c.f, want)
			}
		}

		for _, carry := range []bool{false, true} {
			c.f = flagsOf(false, false, false, carry)
			got := c.inc8(uint8(a))
			want := flagsOf(uint8(a+1) == 0, false, a&0xF == 0xF, carry)
			if got != uint8(a+1) || c.f != want {
				t.Fatalf("INC %02X: got %02X f=%02X want f=%02X", a, got, c.f, want)
			}

			c.f = flagsOf(false, false, false, carry)
			got = c.dec8(uint8(a))
			want = flagsOf(uint8(a-1) == 0, true, a&0xF == 0, carry)
			if got != uint8(a-1) || c.f != want {
				t.Fatalf("DEC %02X: got %02X f=%02X want f=%02X", a, got, c.f, want)
			}
		}
	}
}

func TestFlagLowNibbleAlwaysZero(t *testing.T) {
	c, _ := newTestCPU(0xF1) // POP AF
	c.bus.Write(0xFFF0, 0xFF)
	c.bus.Write(0xFFF1, 0x12)
	c.execute()
	assert.Equal(t, uint8(0x12), c.a)
	assert.Equal(t, uint8(0xF0), c.f)
}

func TestAddHL(t *testing.T) {
	testCases := []struct {
		desc      string
		hl, value uint16
		zeroIn    bool
		want      uint16
		flags     uint8
	}{
		{"no carry", 0x1000, 0x0234, false, 0x1234, 0},
		{"half carry from bit 11", 0x0800, 0x0800, false, 0x1000, flagsOf(false, false, true, false)},
		{"carry from bit 15", 0x8000, 0x8000, false, 0x0000, flagsOf(false, false, false, true)},
		{"zero flag untouched", 0xFFFF, 0x0001, true, 0x0000, flagsOf(true, false, true, true)},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c := New()
			c.setHL(tC.hl)
			c.f = flagsOf(tC.zeroIn, true, false, false)
			c.addHL(tC.value)
			assert.Equal(t, tC.want, c.getHL())
			assert.Equal(t, tC.flags, c.f)
		})
	}
}

func TestSPRelative(t *testing.T) {
	testCases := []struct {
		desc   string
		sp     uint16
		offset uint8
		want   uint16
		flags  uint8
	}{
		{"positive", 0xFFF0, 0x01, 0xFFF1, 0},
		{"negative", 0xFFF0, 0xFF, 0xFFEF, flagsOf(false, false, false, true)},
		{"half carry", 0x000F, 0x01, 0x0010, flagsOf(false, false, true, false)},
		{"both carries", 0x00FF, 0x01, 0x0100, flagsOf(false, false, true, true)},
		{"min offset", 0x1000, 0x80, 0x0F80, 0},
	}
	for _, tC := range testCases {
		t.Run("ADD SP "+tC.desc, func(t *testing.T) {
			c, _ := newTestCPU(0xE8, tC.offset)
			c.sp = tC.sp
			c.f = uint8(zeroFlag | subFlag)
			assert.Equal(t, 16, c.execute())
			assert.Equal(t, tC.want, c.sp)
			assert.Equal(t, tC.flags, c.f)
		})
		t.Run("LD HL,SP+r8 "+tC.desc, func(t *testing.T) {
			c, _ := newTestCPU(0xF8, tC.offset)
			c.sp = tC.sp
			assert.Equal(t, 12, c.execute())
			assert.Equal(t, tC.want, c.getHL())
			assert.Equal(t, tC.sp, c.sp)
			assert.Equal(t, tC.flags, c.f)
		})
	}
}

func TestDAA(t *testing.T) {
	testCases := []struct {
		desc  string
		a, b  uint8
		sub   bool
		want  uint8
		carry bool
	}{
		{"15+27", 0x15, 0x27, false, 0x42, false},
		{"99+01", 0x99, 0x01, false, 0x00, true},
		{"50+50", 0x50, 0x50, false, 0x00, true},
		{"42-15", 0x42, 0x15, true, 0x27, false},
		{"10-20", 0x10, 0x20, true, 0x90, true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c := New()
			c.a = tC.a
			if tC.sub {
				c.sub8(tC.b, false, true)
			} else {
				c.add8(tC.b, false)
			}
			c.daa()
			assert.Equal(t, tC.want, c.a)
			assert.Equal(t, tC.carry, c.isSetFlag(carryFlag))
			assert.Equal(t, tC.want == 0, c.isSetFlag(zeroFlag))
			assert.False(t, c.isSetFlag(halfCarryFlag))
		})
	}
}

func TestRotatesAndShifts(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		a       uint8
		carryIn bool
		want    uint8
		flags   uint8
	}{
		{"RLCA", []byte{0x07}, 0x80, false, 0x01, flagsOf(false, false, false, true)},
		{"RLCA clears Z", []byte{0x07}, 0x00, false, 0x00, 0},
		{"RRCA", []byte{0x0F}, 0x01, false, 0x80, flagsOf(false, false, false, true)},
		{"RLA", []byte{0x17}, 0x80, false, 0x00, flagsOf(false, false, false, true)},
		{"RRA", []byte{0x1F}, 0x00, true, 0x80, 0},
		{"RLC A", []byte{0xCB, 0x07}, 0x00, false, 0x00, flagsOf(true, false, false, false)},
		{"RL A", []byte{0xCB, 0x17}, 0x80, false, 0x00, flagsOf(true, false, false, true)},
		{"SLA A", []byte{0xCB, 0x27}, 0xC0, false, 0x80, flagsOf(false, false, false, true)},
		{"SRA A", []byte{0xCB, 0x2F}, 0x81, false, 0xC0, flagsOf(false, false, false, true)},
		{"SWAP A", []byte{0xCB, 0x37}, 0xAB, true, 0xBA, 0},
		{"SRL A", []byte{0xCB, 0x3F}, 0x01, false, 0x00, flagsOf(true, false, false, true)},
		{"RR A", []byte{0xCB, 0x1F}, 0x02, true, 0x81, 0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _ := newTestCPU(tC.program...)
			c.a = tC.a
			c.f = flagsOf(false, true, true, tC.carryIn)
			c.execute()
			assert.Equal(t, tC.want, c.a)
			assert.Equal(t, tC.flags, c.f)
		})
	}
}

func TestBitResSet(t *testing.T) {
	c, bus := newTestCPU(
		0xCB, 0x7E, // BIT 7,(HL)
		0xCB, 0xFE, // SET 7,(HL)
		0xCB, 0x7E, // BIT 7,(HL)
		0xCB, 0x86, // RES 0,(HL)
	)
	c.setHL(0xD000)
	bus.mem[0xD000] = 0x01
	c.f = uint8(carryFlag)

	c.execute()
	assert.Equal(t, flagsOf(true, false, true, true), c.f)

	c.execute()
	assert.Equal(t, uint8(0x81), bus.mem[0xD000])

	c.execute()
	assert.Equal(t, flagsOf(false, false, true, true), c.f)

	c.execute()
	assert.Equal(t, uint8(0x80), bus.mem[0xD000])
}

func TestPushPopRoundTrip(t *testing.T) {
	pushes := []uint8{0xC5, 0xD5, 0xE5}
	pops := []uint8{0xC1, 0xD1, 0xE1}
	values := []uint16{0x0000, 0x1234, 0xFFFF, 0xBEEF}

	for i := range pushes {
		for _, v := range values {
			c, _ := newTestCPU(pushes[i], pops[i])
			c.setPair(reg16(i), v)
			sp := c.sp

			c.execute()
			assert.Equal(t, sp-2, c.sp)
			c.setPair(reg16(i), 0)

			c.execute()
			assert.Equal(t, v, c.getPair(reg16(i)))
			assert.Equal(t, sp, c.sp)
		}
	}
}

func TestLoadIncrementDecrement(t *testing.T) {
	c, bus := newTestCPU(
		0x22, // LD (HL+),A
		0x32, // LD (HL-),A
		0x2A, // LD A,(HL+)
	)
	c.setHL(0xD000)
	c.a = 0x42

	c.execute()
	assert.Equal(t, uint8(0x42), bus.mem[0xD000])
	assert.Equal(t, uint16(0xD001), c.getHL())

	c.execute()
	assert.Equal(t, uint8(0x42), bus.mem[0xD001])
	assert.Equal(t, uint16(0xD000), c.getHL())

	c.a = 0
	c.execute()
	assert.Equal(t, uint8(0x42), c.a)
	assert.Equal(t, uint16(0xD001), c.getHL())
}

func TestSixteenBitIncDecLeavesFlags(t *testing.T) {
	for _, op := range []uint8{0x03, 0x0B, 0x13, 0x1B, 0x23, 0x2B, 0x33, 0x3B} {
		c, _ := newTestCPU(op)
		c.f = 0xF0
		c.setBC(0xFFFF)
		c.setDE(0x0000)
		c.setHL(0xFFFF)
		c.execute()
		assert.Equal(t, uint8(0xF0), c.f, "opcode 0x%02X", op)
	}
}
