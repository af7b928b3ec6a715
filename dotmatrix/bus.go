package dotmatrix

import (
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/cpu"
	"github.com/valerio/go-dotmatrix/dotmatrix/memory"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

type region uint8

const (
	regionROM region = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionOAM
	regionIO
)

// oamDMALength is the number of bytes an OAM DMA transfer copies.
const oamDMALength = 0xA0

// SerialPort is a device attached to SB/SC.
type SerialPort interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	Step()
	Reset()
}

// Bus maps every address to the single device that owns it. It holds no
// state of its own beyond the device handles.
type Bus struct {
	cpu    *cpu.CPU
	ppu    *video.PPU
	mbc    memory.MBC
	wram   *memory.WorkRAM
	boot   *memory.BootROM
	joypad *memory.Joypad
	timer  *memory.Timer
	serial SerialPort

	regions [256]region
}

func newBus() *Bus {
	b := &Bus{}
	for page := range b.regions {
		switch {
		case page <= 0x7F:
			b.regions[page] = regionROM
		case page <= 0x9F:
			b.regions[page] = regionVRAM
		case page <= 0xBF:
			b.regions[page] = regionExtRAM
		case page <= 0xFD:
			// work RAM and its echo
			b.regions[page] = regionWRAM
		case page == 0xFE:
			b.regions[page] = regionOAM
		default:
			b.regions[page] = regionIO
		}
	}
	return b
}

// RequestInterrupt sets an IF bit, the path every peripheral uses.
func (b *Bus) RequestInterrupt(interrupt addr.Interrupt) {
	b.cpu.RequestInterrupt(interrupt)
}

func (b *Bus) Read(address uint16) byte {
	switch b.regions[address>>8] {
	case regionROM:
		if address <= addr.BootROMEnd && b.boot.Mapped() {
			return b.boot.Read(address)
		}
		return b.mbc.Read(address)
	case regionVRAM:
		return b.ppu.Read(address)
	case regionExtRAM:
		return b.mbc.Read(address)
	case regionWRAM:
		return b.wram.Read(address)
	case regionOAM:
		if address <= addr.OAMEnd {
			return b.ppu.Read(address)
		}
		return 0x00
	}
	return b.readIO(address)
}

func (b *Bus) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return b.joypad.Read(address)
	case address == addr.SB || address == addr.SC:
		return b.serial.Read(address)
	case address >= addr.DIV && address <= addr.TAC:
		return b.timer.Read(address)
	case address == addr.IF:
		return b.cpu.Read(address)
	case address >= addr.LCDC && address <= addr.WX:
		return b.ppu.Read(address)
	case address == addr.BOOT:
		return 0xFF
	case address >= addr.HRAMStart:
		// HRAM and IE
		return b.cpu.Read(address)
	}
	return 0xFF
}

func (b *Bus) Write(address uint16, value byte) {
	switch b.regions[address>>8] {
	case regionROM, regionExtRAM:
		b.mbc.Write(address, value)
	case regionVRAM:
		b.ppu.Write(address, value)
	case regionWRAM:
		b.wram.Write(address, value)
	case regionOAM:
		if address <= addr.OAMEnd {
			b.ppu.Write(address, value)
		}
	default:
		b.writeIO(address, value)
	}
}

func (b *Bus) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		b.joypad.Write(address, value)
	case address == addr.SB || address == addr.SC:
		b.serial.Write(address, value)
	case address >= addr.DIV && address <= addr.TAC:
		b.timer.Write(address, value)
	case address == addr.IF:
		b.cpu.Write(address, value)
	case address == addr.DMA:
		b.ppu.Write(address, value)
		b.oamDMA(value)
	case address >= addr.LCDC && address <= addr.WX:
		b.ppu.Write(address, value)
	case address == addr.BOOT:
		if b.boot != nil {
			b.boot.Write(address, value)
		}
	case address >= addr.HRAMStart:
		b.cpu.Write(address, value)
	}
}

// oamDMA copies 160 bytes from value<<8 into OAM. The copy is immediate,
// the 160 M-cycle bus lockout is not modelled.
func (b *Bus) oamDMA(value byte) {
	source := uint16(value) << 8
	for i := range oamDMALength {
		b.ppu.WriteOAMDirect(i, b.Read(source+uint16(i)))
	}
}
