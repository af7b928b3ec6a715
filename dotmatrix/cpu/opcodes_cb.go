package cpu

import "fmt"

// opcodesCB is indexed by the byte following the 0xCB prefix. The encoding is
// regular: bits 2-0 select the operand, bits 5-3 the operation (or the bit
// index for BIT/RES/SET) and bits 7-6 the group.
var opcodesCB [256]Instruction

var shiftNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

func init() {
	for code := 0; code < 256; code++ {
		r := reg8(code & 0x07)
		y := uint8(code>>3) & 0x07

		cost := 8
		if r == regHL {
			cost = 16
		}

		var instr Instruction
		switch code >> 6 {
		case 0:
			shift := cbShift(y)
			instr = Instruction{shiftNames[y] + " " + r.String(), 2, cost, false, func(c *CPU) int {
				c.store(r, shift(c, c.load(r)))
				return 0
			}}
		case 1:
			// BIT only reads (HL), so it is cheaper than the other memory forms
			if r == regHL {
				cost = 12
			}
			instr = Instruction{fmt.Sprintf("BIT %d,%s", y, r), 2, cost, false, func(c *CPU) int {
				c.testBit(y, c.load(r))
				return 0
			}}
		case 2:
			instr = Instruction{fmt.Sprintf("RES %d,%s", y, r), 2, cost, false, func(c *CPU) int {
				c.store(r, c.load(r)&^(1<<y))
				return 0
			}}
		default:
			instr = Instruction{fmt.Sprintf("SET %d,%s", y, r), 2, cost, false, func(c *CPU) int {
				c.store(r, c.load(r)|1<<y)
				return 0
			}}
		}
		opcodesCB[code] = instr
	}
}

func cbShift(op uint8) func(c *CPU, value uint8) uint8 {
	switch op {
	case 0:
		return (*CPU).rlc
	case 1:
		return (*CPU).rrc
	case 2:
		return (*CPU).rl
	case 3:
		return (*CPU).rr
	case 4:
		return (*CPU).sla
	case 5:
		return (*CPU).sra
	case 6:
		return (*CPU).swap
	default:
		return (*CPU).srl
	}
}
