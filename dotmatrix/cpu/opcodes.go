package cpu

import (
	"fmt"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// Instruction is one entry of an opcode table.
//
// Cycles is the base cost in ticks. For conditional jumps, calls and returns
// it is the cost when the condition does not hold, exec returns the extra
// ticks paid when the branch is taken.
type Instruction struct {
	Mnemonic string
	Length   int
	Cycles   int
	Invalid  bool

	exec func(c *CPU) int
}

// Implemented reports whether the entry has an implementation.
func (i Instruction) Implemented() bool { return i.exec != nil }

// Lookup returns the primary table entry for an opcode.
func Lookup(opcode uint8) Instruction { return opcodes[opcode] }

// LookupCB returns the 0xCB prefixed table entry for an opcode.
func LookupCB(opcode uint8) Instruction { return opcodesCB[opcode] }

// invalid is what the hardware does for the 11 undefined opcodes: nothing.
func invalid(_ *CPU) int { return 0 }

var invalidInstruction = Instruction{Mnemonic: "INVALID", Length: 1, Cycles: 0, Invalid: true, exec: invalid}

type condition uint8

const (
	condNZ condition = iota
	condZ
	condNC
	condC
)

var conditionNames = [4]string{"NZ", "Z", "NC", "C"}

func (c *CPU) check(cond condition) bool {
	switch cond {
	case condNZ:
		return !c.isSetFlag(zeroFlag)
	case condZ:
		return c.isSetFlag(zeroFlag)
	case condNC:
		return !c.isSetFlag(carryFlag)
	default:
		return c.isSetFlag(carryFlag)
	}
}

// 16 bit register pairs as encoded in bits 5-4 of the opcode.
type reg16 uint8

const (
	pairBC reg16 = iota
	pairDE
	pairHL
	pairSP // AF for PUSH/POP
)

func (c *CPU) getPair(p reg16) uint16 {
	switch p {
	case pairBC:
		return c.getBC()
	case pairDE:
		return c.getDE()
	case pairHL:
		return c.getHL()
	default:
		return c.sp
	}
}

func (c *CPU) setPair(p reg16, value uint16) {
	switch p {
	case pairBC:
		c.setBC(value)
	case pairDE:
		c.setDE(value)
	case pairHL:
		c.setHL(value)
	default:
		c.sp = value
	}
}

var pairNames = [4]string{"BC", "DE", "HL", "SP"}
var stackPairNames = [4]string{"BC", "DE", "HL", "AF"}

var opcodes [256]Instruction

func init() {
	for i := range opcodes {
		opcodes[i] = Instruction{Mnemonic: fmt.Sprintf("UNIMPLEMENTED 0x%02X", i), Length: 1}
	}

	for _, code := range []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD} {
		opcodes[code] = invalidInstruction
	}

	// the prefix byte itself is consumed by the fetch, it never dispatches
	opcodes[prefixCB] = Instruction{Mnemonic: "PREFIX CB", Length: 1, Cycles: 0, exec: invalid}

	for code, instr := range misc {
		opcodes[code] = instr
	}

	// 16 bit loads and arithmetic: 0x01, 0x03, 0x09, 0x0B + 0x10*pair
	for p := pairBC; p <= pairSP; p++ {
		base := uint8(p) << 4
		opcodes[0x01+base] = Instruction{"LD " + pairNames[p] + ",d16", 3, 12, false, func(c *CPU) int {
			c.setPair(p, c.readImmediateWord())
			return 0
		}}
		opcodes[0x03+base] = Instruction{"INC " + pairNames[p], 1, 8, false, func(c *CPU) int {
			c.setPair(p, c.getPair(p)+1)
			return 0
		}}
		opcodes[0x09+base] = Instruction{"ADD HL," + pairNames[p], 1, 8, false, func(c *CPU) int {
			c.addHL(c.getPair(p))
			return 0
		}}
		opcodes[0x0B+base] = Instruction{"DEC " + pairNames[p], 1, 8, false, func(c *CPU) int {
			c.setPair(p, c.getPair(p)-1)
			return 0
		}}

		opcodes[0xC1+base] = Instruction{"POP " + stackPairNames[p], 1, 12, false, func(c *CPU) int {
			value := c.popStack()
			if p == pairSP {
				c.setAF(value)
			} else {
				c.setPair(p, value)
			}
			return 0
		}}
		opcodes[0xC5+base] = Instruction{"PUSH " + stackPairNames[p], 1, 16, false, func(c *CPU) int {
			if p == pairSP {
				c.pushStack(c.getAF())
			} else {
				c.pushStack(c.getPair(p))
			}
			return 0
		}}
	}

	// 8 bit INC/DEC/LD r,d8: 0x04, 0x05, 0x06 + 0x08*r
	for r := regB; r <= regA; r++ {
		base := uint8(r) << 3
		cost := 4
		if r == regHL {
			cost = 12
		}
		opcodes[0x04+base] = Instruction{"INC " + r.String(), 1, cost, false, func(c *CPU) int {
			c.store(r, c.inc8(c.load(r)))
			return 0
		}}
		opcodes[0x05+base] = Instruction{"DEC " + r.String(), 1, cost, false, func(c *CPU) int {
			c.store(r, c.dec8(c.load(r)))
			return 0
		}}
		ldCost := 8
		if r == regHL {
			ldCost = 12
		}
		opcodes[0x06+base] = Instruction{"LD " + r.String() + ",d8", 2, ldCost, false, func(c *CPU) int {
			c.store(r, c.readImmediate())
			return 0
		}}
	}

	// LD r,r': 0x40-0x7F, 0x76 is HALT
	for dst := regB; dst <= regA; dst++ {
		for src := regB; src <= regA; src++ {
			code := 0x40 | uint8(dst)<<3 | uint8(src)
			if code == 0x76 {
				continue
			}
			cost := 4
			if dst == regHL || src == regHL {
				cost = 8
			}
			opcodes[code] = Instruction{"LD " + dst.String() + "," + src.String(), 1, cost, false, func(c *CPU) int {
				c.store(dst, c.load(src))
				return 0
			}}
		}
	}

	// ALU A,r: 0x80-0xBF, and the d8 forms at 0xC6 + 0x08*op
	for op := 0; op < 8; op++ {
		for src := regB; src <= regA; src++ {
			cost := 4
			if src == regHL {
				cost = 8
			}
			opcodes[0x80|uint8(op)<<3|uint8(src)] = Instruction{aluNames[op] + src.String(), 1, cost, false, func(c *CPU) int {
				c.alu(op, c.load(src))
				return 0
			}}
		}
		opcodes[0xC6+uint8(op)<<3] = Instruction{aluNames[op] + "d8", 2, 8, false, func(c *CPU) int {
			c.alu(op, c.readImmediate())
			return 0
		}}
	}

	// conditional control flow: JR cc 0x20, JP cc 0xC2, CALL cc 0xC4, RET cc 0xC0
	for cc := condNZ; cc <= condC; cc++ {
		base := uint8(cc) << 3
		opcodes[0x20+base] = Instruction{"JR " + conditionNames[cc] + ",r8", 2, 8, false, func(c *CPU) int {
			offset := c.readImmediate()
			if !c.check(cc) {
				return 0
			}
			c.pc = bit.AddSigned(c.pc, offset)
			return 4
		}}
		opcodes[0xC2+base] = Instruction{"JP " + conditionNames[cc] + ",a16", 3, 12, false, func(c *CPU) int {
			target := c.readImmediateWord()
			if !c.check(cc) {
				return 0
			}
			c.pc = target
			return 4
		}}
		opcodes[0xC4+base] = Instruction{"CALL " + conditionNames[cc] + ",a16", 3, 12, false, func(c *CPU) int {
			target := c.readImmediateWord()
			if !c.check(cc) {
				return 0
			}
			c.pushStack(c.pc)
			c.pc = target
			return 12
		}}
		opcodes[0xC0+base] = Instruction{"RET " + conditionNames[cc], 1, 8, false, func(c *CPU) int {
			if !c.check(cc) {
				return 0
			}
			c.pc = c.popStack()
			return 12
		}}
	}

	// RST: 0xC7 + 0x08*n jumps to n*8
	for n := uint8(0); n < 8; n++ {
		vector := uint16(n) * 8
		opcodes[0xC7+n<<3] = Instruction{fmt.Sprintf("RST %02XH", vector), 1, 16, false, func(c *CPU) int {
			c.pushStack(c.pc)
			c.pc = vector
			return 0
		}}
	}
}

var aluNames = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}

// alu dispatches the 8 accumulator operations in encoding order.
func (c *CPU) alu(op int, value uint8) {
	switch op {
	case 0:
		c.add8(value, false)
	case 1:
		c.add8(value, true)
	case 2:
		c.sub8(value, false, true)
	case 3:
		c.sub8(value, true, true)
	case 4:
		c.and8(value)
	case 5:
		c.xor8(value)
	case 6:
		c.or8(value)
	default:
		c.sub8(value, false, false)
	}
}

// misc holds the opcodes that do not fit a regular encoding pattern.
var misc = map[uint8]Instruction{
	0x00: {"NOP", 1, 4, false, func(_ *CPU) int { return 0 }},
	0x02: {"LD (BC),A", 1, 8, false, func(c *CPU) int {
		c.bus.Write(c.getBC(), c.a)
		return 0
	}},
	0x07: {"RLCA", 1, 4, false, func(c *CPU) int {
		c.a = c.rlc(c.a)
		c.resetFlag(zeroFlag)
		return 0
	}},
	0x08: {"LD (a16),SP", 3, 20, false, func(c *CPU) int {
		address := c.readImmediateWord()
		c.bus.Write(address, bit.Low(c.sp))
		c.bus.Write(address+1, bit.High(c.sp))
		return 0
	}},
	0x0A: {"LD A,(BC)", 1, 8, false, func(c *CPU) int {
		c.a = c.bus.Read(c.getBC())
		return 0
	}},
	0x0F: {"RRCA", 1, 4, false, func(c *CPU) int {
		c.a = c.rrc(c.a)
		c.resetFlag(zeroFlag)
		return 0
	}},
	0x10: {"STOP", 2, 4, false, func(c *CPU) int {
		c.readImmediate()
		// no low power mode, only the divider reset is observable
		c.bus.Write(addr.DIV, 0)
		return 0
	}},
	0x12: {"LD (DE),A", 1, 8, false, func(c *CPU) int {
		c.bus.Write(c.getDE(), c.a)
		return 0
	}},
	0x17: {"RLA", 1, 4, false, func(c *CPU) int {
		c.a = c.rl(c.a)
		c.resetFlag(zeroFlag)
		return 0
	}},
	0x18: {"JR r8", 2, 12, false, func(c *CPU) int {
		offset := c.readImmediate()
		c.pc = bit.AddSigned(c.pc, offset)
		return 0
	}},
	0x1A: {"LD A,(DE)", 1, 8, false, func(c *CPU) int {
		c.a = c.bus.Read(c.getDE())
		return 0
	}},
	0x1F: {"RRA", 1, 4, false, func(c *CPU) int {
		c.a = c.rr(c.a)
		c.resetFlag(zeroFlag)
		return 0
	}},
	0x22: {"LD (HL+),A", 1, 8, false, func(c *CPU) int {
		hl := c.getHL()
		c.bus.Write(hl, c.a)
		c.setHL(hl + 1)
		return 0
	}},
	0x27: {"DAA", 1, 4, false, func(c *CPU) int {
		c.daa()
		return 0
	}},
	0x2A: {"LD A,(HL+)", 1, 8, false, func(c *CPU) int {
		hl := c.getHL()
		c.a = c.bus.Read(hl)
		c.setHL(hl + 1)
		return 0
	}},
	0x2F: {"CPL", 1, 4, false, func(c *CPU) int {
		c.cpl()
		return 0
	}},
	0x32: {"LD (HL-),A", 1, 8, false, func(c *CPU) int {
		hl := c.getHL()
		c.bus.Write(hl, c.a)
		c.setHL(hl - 1)
		return 0
	}},
	0x37: {"SCF", 1, 4, false, func(c *CPU) int {
		c.scf()
		return 0
	}},
	0x3A: {"LD A,(HL-)", 1, 8, false, func(c *CPU) int {
		hl := c.getHL()
		c.a = c.bus.Read(hl)
		c.setHL(hl - 1)
		return 0
	}},
	0x3F: {"CCF", 1, 4, false, func(c *CPU) int {
		c.ccf()
		return 0
	}},
	0x76: {"HALT", 1, 4, false, func(c *CPU) int {
		if !c.interruptsEnabled && c.ie&c.iflg&0x1F != 0 {
			c.haltBug = true
			return 0
		}
		c.halted = true
		return 0
	}},
	0xC3: {"JP a16", 3, 16, false, func(c *CPU) int {
		c.pc = c.readImmediateWord()
		return 0
	}},
	0xC9: {"RET", 1, 16, false, func(c *CPU) int {
		c.pc = c.popStack()
		return 0
	}},
	0xCD: {"CALL a16", 3, 24, false, func(c *CPU) int {
		target := c.readImmediateWord()
		c.pushStack(c.pc)
		c.pc = target
		return 0
	}},
	0xD9: {"RETI", 1, 16, false, func(c *CPU) int {
		c.pc = c.popStack()
		c.interruptsEnabled = true
		return 0
	}},
	0xE0: {"LDH (a8),A", 2, 12, false, func(c *CPU) int {
		c.bus.Write(0xFF00+uint16(c.readImmediate()), c.a)
		return 0
	}},
	0xE2: {"LD (C),A", 1, 8, false, func(c *CPU) int {
		c.bus.Write(0xFF00+uint16(c.c), c.a)
		return 0
	}},
	0xE8: {"ADD SP,r8", 2, 16, false, func(c *CPU) int {
		c.sp = c.addSPSigned(c.readImmediate())
		return 0
	}},
	0xE9: {"JP (HL)", 1, 4, false, func(c *CPU) int {
		c.pc = c.getHL()
		return 0
	}},
	0xEA: {"LD (a16),A", 3, 16, false, func(c *CPU) int {
		c.bus.Write(c.readImmediateWord(), c.a)
		return 0
	}},
	0xF0: {"LDH A,(a8)", 2, 12, false, func(c *CPU) int {
		c.a = c.bus.Read(0xFF00 + uint16(c.readImmediate()))
		return 0
	}},
	0xF2: {"LD A,(C)", 1, 8, false, func(c *CPU) int {
		c.a = c.bus.Read(0xFF00 + uint16(c.c))
		return 0
	}},
	0xF3: {"DI", 1, 4, false, func(c *CPU) int {
		c.interruptsEnabled = false
		c.eiPending = false
		return 0
	}},
	0xF8: {"LD HL,SP+r8", 2, 12, false, func(c *CPU) int {
		c.setHL(c.addSPSigned(c.readImmediate()))
		return 0
	}},
	0xF9: {"LD SP,HL", 1, 8, false, func(c *CPU) int {
		c.sp = c.getHL()
		return 0
	}},
	0xFA: {"LD A,(a16)", 3, 16, false, func(c *CPU) int {
		c.a = c.bus.Read(c.readImmediateWord())
		return 0
	}},
	0xFB: {"EI", 1, 4, false, func(c *CPU) int {
		if !c.interruptsEnabled {
			c.eiPending = true
		}
		return 0
	}},
}
