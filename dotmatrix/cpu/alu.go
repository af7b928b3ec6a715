package cpu

import "github.com/valerio/go-dotmatrix/dotmatrix/bit"

// add8 implements ADD and ADC on the accumulator.
func (c *CPU) add8(value uint8, withCarry bool) {
	carry := uint8(0)
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	sum := uint16(c.a) + uint16(value) + uint16(carry)
	half := (c.a&0x0F)+(value&0x0F)+carry > 0x0F
	c.a = uint8(sum)
	c.setFlags(c.a == 0, false, half, sum > 0xFF)
}

// sub8 implements SUB, SBC and CP. The result is only stored when store is true.
func (c *CPU) sub8(value uint8, withCarry, store bool) {
	carry := uint8(0)
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	diff := int(c.a) - int(value) - int(carry)
	half := int(c.a&0x0F)-int(value&0x0F)-int(carry) < 0
	result := uint8(diff)
	c.setFlags(result == 0, true, half, diff < 0)
	if store {
		c.a = result
	}
}

func (c *CPU) and8(value uint8) {
	c.a &= value
	c.setFlags(c.a == 0, false, true, false)
}

func (c *CPU) xor8(value uint8) {
	c.a ^= value
	c.setFlags(c.a == 0, false, false, false)
}

func (c *CPU) or8(value uint8) {
	c.a |= value
	c.setFlags(c.a == 0, false, false, false)
}

// inc8 increments a value, carry is left untouched.
func (c *CPU) inc8(value uint8) uint8 {
	result := value + 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0x0F)
	return result
}

// dec8 decrements a value, carry is left untouched.
func (c *CPU) dec8(value uint8) uint8 {
	result := value - 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0)
	return result
}

// addHL adds a 16 bit value to HL. Zero is untouched, half carry comes from bit 11.
func (c *CPU) addHL(value uint16) {
	hl := c.getHL()
	sum := uint32(hl) + uint32(value)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlagToCondition(carryFlag, sum > 0xFFFF)
	c.setHL(uint16(sum))
}

// addSPSigned returns SP plus a signed offset. Flags are computed on the low
// byte as an unsigned addition, Z and N are cleared.
func (c *CPU) addSPSigned(offset uint8) uint16 {
	half := (c.sp&0x0F)+uint16(offset&0x0F) > 0x0F
	carry := (c.sp&0xFF)+uint16(offset) > 0xFF
	c.setFlags(false, false, half, carry)
	return bit.AddSigned(c.sp, offset)
}

// daa adjusts the accumulator to packed BCD after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	adjust := uint8(0)
	carry := c.isSetFlag(carryFlag)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			adjust |= 0x06
		}
		if carry {
			adjust |= 0x60
		}
		a -= adjust
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			adjust |= 0x06
		}
		if carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) cpl() {
	c.a = ^c.a
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) scf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlag(carryFlag)
}

func (c *CPU) ccf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
}

// shift and rotate family, used by both tables. The accumulator forms
// (RLCA, RLA, RRCA, RRA) clear Z afterwards.

func (c *CPU) rlc(value uint8) uint8 {
	out := value >> 7
	result := value<<1 | out
	c.setFlags(result == 0, false, false, out == 1)
	return result
}

func (c *CPU) rrc(value uint8) uint8 {
	out := value & 1
	result := value>>1 | out<<7
	c.setFlags(result == 0, false, false, out == 1)
	return result
}

func (c *CPU) rl(value uint8) uint8 {
	out := value >> 7
	result := value<<1 | c.flagToBit(carryFlag)
	c.setFlags(result == 0, false, false, out == 1)
	return result
}

func (c *CPU) rr(value uint8) uint8 {
	out := value & 1
	result := value>>1 | c.flagToBit(carryFlag)<<7
	c.setFlags(result == 0, false, false, out == 1)
	return result
}

func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setFlags(result == 0, false, false, value&1 != 0)
	return result
}

func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setFlags(result == 0, false, false, false)
	return result
}

func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setFlags(result == 0, false, false, value&1 != 0)
	return result
}

// testBit implements BIT n, carry is preserved.
func (c *CPU) testBit(index, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}
