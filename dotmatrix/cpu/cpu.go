package cpu

import (
	"errors"
	"fmt"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// Bus is the view of the address space the CPU needs to execute instructions.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// InterruptCycles is the cost of dispatching an interrupt to its vector.
const InterruptCycles = 20

const prefixCB = 0xCB

// ErrUnimplementedOpcode signals a table entry with no implementation, as
// opposed to the opcodes the hardware itself leaves undefined.
var ErrUnimplementedOpcode = errors.New("cpu: unimplemented opcode")

// UnimplementedOpcodeError carries the opcode that had no implementation.
type UnimplementedOpcodeError struct {
	Opcode uint16
}

func (e *UnimplementedOpcodeError) Error() string {
	return fmt.Sprintf("cpu: unimplemented opcode 0x%04X", e.Opcode)
}

func (e *UnimplementedOpcodeError) Unwrap() error {
	return ErrUnimplementedOpcode
}

// CPU is the SM83 core. It also owns high RAM and the two interrupt registers,
// the bus forwards those addresses here.
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	hram [addr.HRAMEnd - addr.HRAMStart + 1]byte
	ie   uint8
	iflg uint8

	// metadata
	interruptsEnabled bool
	eiPending         bool // EI delay: interrupts enable after the next instruction
	halted            bool

	// haltBug makes the next fetch read the opcode byte without advancing PC.
	haltBug bool

	// wait is the number of ticks left before the in-flight instruction completes.
	wait          int
	currentOpcode uint16
	cycles        uint64

	bus Bus
}

// New returns a CPU with every register cleared, as it is when a boot ROM
// takes control at 0x0000.
func New() *CPU {
	return &CPU{}
}

// ResetToPostBoot sets the register file to the values the DMG boot ROM
// leaves behind when it hands control to the cartridge.
func (c *CPU) ResetToPostBoot() {
	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100
	c.iflg = 0x01
	c.ie = 0x00
}

// Step advances the CPU by a single tick.
func (c *CPU) Step(bus Bus) {
	c.bus = bus
	c.cycles++

	if c.wait > 0 {
		c.wait--
		return
	}

	pending := c.ie&c.iflg&0x1F != 0

	if c.interruptsEnabled && pending {
		c.halted = false
		c.serviceInterrupt()
		c.wait = InterruptCycles - 1
		return
	}

	if c.halted {
		if !pending {
			return
		}
		// woken with IME=0: resume at the next instruction without servicing
		c.halted = false
	}

	cost := c.execute()
	if cost > 0 {
		c.wait = cost - 1
	}
}

// execute fetches, decodes and runs one instruction, returning its total cost in ticks.
func (c *CPU) execute() int {
	enableAfter := c.eiPending

	opcode := c.fetch()
	instr := &opcodes[opcode]
	c.currentOpcode = uint16(opcode)
	if opcode == prefixCB {
		cb := c.fetch()
		instr = &opcodesCB[cb]
		c.currentOpcode = bit.Combine(prefixCB, cb)
	}

	if instr.exec == nil {
		panic(&UnimplementedOpcodeError{Opcode: c.currentOpcode})
	}

	cost := instr.Cycles + instr.exec(c)

	if enableAfter && c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	return cost
}

// fetch reads the byte at PC and advances it. With the halt bug armed the PC
// increment is skipped once, so the same byte is fetched twice.
func (c *CPU) fetch() uint8 {
	value := c.bus.Read(c.pc)
	if c.haltBug {
		c.haltBug = false
		return value
	}
	c.pc++
	return value
}

// serviceInterrupt dispatches the highest priority pending interrupt.
func (c *CPU) serviceInterrupt() {
	for _, interrupt := range addr.Interrupts {
		mask := uint8(interrupt)
		if c.ie&c.iflg&mask == 0 {
			continue
		}

		c.iflg &^= mask
		c.interruptsEnabled = false
		c.eiPending = false

		// EI; HALT with a request pending arms the halt bug and dispatches
		// right away: the handler returns to the HALT instead of re-reading
		// its own first byte.
		ret := c.pc
		if c.haltBug {
			c.haltBug = false
			ret--
		}
		c.pushStack(ret)
		c.pc = interrupt.Vector()
		return
	}
}

// RequestInterrupt raises the request bit for the given interrupt.
func (c *CPU) RequestInterrupt(interrupt addr.Interrupt) {
	c.iflg |= uint8(interrupt)
}

// Read serves the addresses owned by the CPU: high RAM, IF and IE.
func (c *CPU) Read(address uint16) byte {
	switch {
	case address == addr.IF:
		return c.iflg | 0xE0
	case address == addr.IE:
		return c.ie
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		return c.hram[address-addr.HRAMStart]
	}
	panic(fmt.Sprintf("cpu: read from unowned address 0x%04X", address))
}

// Write serves the addresses owned by the CPU: high RAM, IF and IE.
func (c *CPU) Write(address uint16, value byte) {
	switch {
	case address == addr.IF:
		c.iflg = value & 0x1F
	case address == addr.IE:
		c.ie = value
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		c.hram[address-addr.HRAMStart] = value
	default:
		panic(fmt.Sprintf("cpu: write to unowned address 0x%04X", address))
	}
}

// Idle reports whether the CPU is between instructions.
func (c *CPU) Idle() bool { return c.wait == 0 }

// Debug getter methods for register display
func (c *CPU) GetA() uint8              { return c.a }
func (c *CPU) GetF() uint8              { return c.f }
func (c *CPU) GetB() uint8              { return c.b }
func (c *CPU) GetC() uint8              { return c.c }
func (c *CPU) GetD() uint8              { return c.d }
func (c *CPU) GetE() uint8              { return c.e }
func (c *CPU) GetH() uint8              { return c.h }
func (c *CPU) GetL() uint8              { return c.l }
func (c *CPU) GetSP() uint16            { return c.sp }
func (c *CPU) GetPC() uint16            { return c.pc }
func (c *CPU) GetCycles() uint64        { return c.cycles }
func (c *CPU) GetIME() bool             { return c.interruptsEnabled }
func (c *CPU) IsHalted() bool           { return c.halted }
func (c *CPU) GetCurrentOpcode() uint16 { return c.currentOpcode }

// SetPC moves the program counter, used by tests and tooling.
func (c *CPU) SetPC(pc uint16) { c.pc = pc }

// SetIME forces the master interrupt enable flag.
func (c *CPU) SetIME(enabled bool) { c.interruptsEnabled = enabled }

// GetFlagString returns a human-readable representation of the flag register
func (c *CPU) GetFlagString() string {
	flags := []byte("----")
	for i, fl := range []struct {
		flag Flag
		name byte
	}{{zeroFlag, 'Z'}, {subFlag, 'N'}, {halfCarryFlag, 'H'}, {carryFlag, 'C'}} {
		if c.isSetFlag(fl.flag) {
			flags[i] = fl.name
		}
	}
	return string(flags)
}
