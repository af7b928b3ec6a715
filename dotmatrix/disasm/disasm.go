package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
	"github.com/valerio/go-dotmatrix/dotmatrix/cpu"
)

// Reader is the memory the disassembler decodes from.
type Reader interface {
	Read(address uint16) byte
}

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      int
}

func (l DisassemblyLine) String() string {
	return fmt.Sprintf("0x%04X: %s", l.Address, l.Instruction)
}

// DisassembleAt decodes the instruction at pc using the CPU opcode tables.
// Operand placeholders in the mnemonic are replaced with the bytes that
// follow the opcode.
func DisassembleAt(pc uint16, mem Reader) DisassemblyLine {
	opcode := mem.Read(pc)
	if opcode == 0xCB {
		instr := cpu.LookupCB(mem.Read(pc + 1))
		return DisassemblyLine{Address: pc, Instruction: instr.Mnemonic, Length: instr.Length}
	}

	instr := cpu.Lookup(opcode)
	return DisassemblyLine{
		Address:     pc,
		Instruction: formatOperands(instr.Mnemonic, pc, mem),
		Length:      instr.Length,
	}
}

// DisassembleRange decodes count consecutive instructions starting at start.
func DisassembleRange(start uint16, count int, mem Reader) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := start
	for range count {
		line := DisassembleAt(pc, mem)
		lines = append(lines, line)
		pc += uint16(max(line.Length, 1))
	}
	return lines
}

func formatOperands(mnemonic string, pc uint16, mem Reader) string {
	n := mem.Read(pc + 1)
	nn := bit.Combine(mem.Read(pc+2), n)

	switch {
	case strings.Contains(mnemonic, "d16"):
		return strings.Replace(mnemonic, "d16", fmt.Sprintf("$%04X", nn), 1)
	case strings.Contains(mnemonic, "a16"):
		return strings.Replace(mnemonic, "a16", fmt.Sprintf("$%04X", nn), 1)
	case strings.Contains(mnemonic, "d8"):
		return strings.Replace(mnemonic, "d8", fmt.Sprintf("$%02X", n), 1)
	case strings.Contains(mnemonic, "a8"):
		return strings.Replace(mnemonic, "a8", fmt.Sprintf("$FF%02X", n), 1)
	case strings.HasPrefix(mnemonic, "JR"):
		// relative jumps show their absolute target
		target := bit.AddSigned(pc+2, n)
		return strings.Replace(mnemonic, "r8", fmt.Sprintf("$%04X", target), 1)
	case strings.Contains(mnemonic, "+r8"):
		return strings.Replace(mnemonic, "+r8", fmt.Sprintf("%+d", bit.Signed(n)), 1)
	case strings.Contains(mnemonic, "r8"):
		return strings.Replace(mnemonic, "r8", fmt.Sprintf("%d", bit.Signed(n)), 1)
	}
	return mnemonic
}
