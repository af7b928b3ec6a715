package video

import (
	"fmt"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// Mode is the PPU state, as reported in the low two bits of STAT.
type Mode uint8

const (
	HBlank  Mode = 0
	VBlank  Mode = 1
	OAMScan Mode = 2
	Drawing Mode = 3
)

func (m Mode) String() string {
	switch m {
	case HBlank:
		return "HBlank"
	case VBlank:
		return "VBlank"
	case OAMScan:
		return "OAMScan"
	default:
		return "Drawing"
	}
}

const (
	oamScanCycles  = 80
	drawingCycles  = 172
	hblankCycles   = 204
	scanlineCycles = oamScanCycles + drawingCycles + hblankCycles

	// VisibleLines is the number of lines drawn to the screen.
	VisibleLines = 144
	// LastLine is the last line of vertical blank.
	LastLine = 153
)

// LCDC (LCD Control) bits
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ Size (0=8x8, 1=8x16)
// Bit 1 - OBJ Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (0=Off, 1=On)
const (
	lcdcBGEnable     uint8 = 0
	lcdcOBJEnable    uint8 = 1
	lcdcOBJSize      uint8 = 2
	lcdcBGTileMap    uint8 = 3
	lcdcTileData     uint8 = 4
	lcdcWindowEnable uint8 = 5
	lcdcWindowMap    uint8 = 6
	lcdcEnable       uint8 = 7
)

// STAT interrupt select bits.
const (
	statHBlankSelect uint8 = 3
	statVBlankSelect uint8 = 4
	statOAMSelect    uint8 = 5
	statLYCSelect    uint8 = 6

	statSelectMask uint8 = 0x78
)

// InterruptRequester is called when the PPU raises an interrupt.
type InterruptRequester func(interrupt addr.Interrupt)

// PPU owns video memory, OAM and the LCD registers, and runs the scanline
// state machine one tick at a time.
type PPU struct {
	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc       uint8
	statSelect uint8
	scy, scx   uint8
	ly, lyc    uint8
	dma        uint8
	bgp        uint8
	obp0, obp1 uint8
	wy, wx     uint8

	mode     Mode
	dot      int
	lycEqual bool

	// windowLine counts the window rows drawn so far this frame.
	windowLine int

	objects        []Sprite
	objectBuffer   [maxObjectsPerLine]Sprite
	priorityBuffer SpritePriorityBuffer
	bgIndices      [FramebufferWidth]uint8

	back  *FrameBuffer
	front *FrameBuffer
	frame uint64

	irq InterruptRequester
}

// New creates a PPU with the display disabled.
func New(irq InterruptRequester) *PPU {
	p := &PPU{
		back:  NewFrameBuffer(),
		front: NewFrameBuffer(),
		irq:   irq,
	}
	p.back.Fill(WhiteColor)
	p.front.Fill(WhiteColor)
	return p
}

// Step advances the PPU by one tick.
func (p *PPU) Step() {
	if !p.enabled() {
		return
	}

	p.dot++

	switch p.mode {
	case OAMScan:
		if p.dot == oamScanCycles {
			p.dot = 0
			p.setMode(Drawing)
		}
	case Drawing:
		if p.dot == drawingCycles {
			p.dot = 0
			p.setMode(HBlank)
		}
	case HBlank:
		if p.dot == hblankCycles {
			p.dot = 0
			p.ly++
			if p.ly == VisibleLines {
				p.setMode(VBlank)
			} else {
				p.setMode(OAMScan)
			}
		}
	case VBlank:
		if p.dot == scanlineCycles {
			p.dot = 0
			if p.ly == LastLine {
				p.ly = 0
				p.setMode(OAMScan)
			} else {
				p.ly++
			}
		}
	}

	p.compareLYC()
}

// setMode performs the entry effect of a mode and raises STAT if selected.
func (p *PPU) setMode(mode Mode) {
	p.mode = mode

	switch mode {
	case OAMScan:
		if p.ly == 0 {
			p.windowLine = 0
		}
		p.scanOAM()
		p.requestSTAT(statOAMSelect)
	case Drawing:
		p.renderScanline()
	case HBlank:
		p.requestSTAT(statHBlankSelect)
	case VBlank:
		p.front.CopyFrom(p.back)
		p.frame++
		p.irq(addr.VBlankInterrupt)
		p.requestSTAT(statVBlankSelect)
	}
}

func (p *PPU) requestSTAT(selectBit uint8) {
	if bit.IsSet(selectBit, p.statSelect) {
		p.irq(addr.LCDSTATInterrupt)
	}
}

// compareLYC raises STAT on the rising edge of LY == LYC.
func (p *PPU) compareLYC() {
	equal := p.ly == p.lyc
	if equal && !p.lycEqual {
		p.requestSTAT(statLYCSelect)
	}
	p.lycEqual = equal
}

func (p *PPU) enabled() bool {
	return bit.IsSet(lcdcEnable, p.lcdc)
}

func (p *PPU) setLCDC(value uint8) {
	wasEnabled := p.enabled()
	p.lcdc = value

	switch {
	case wasEnabled && !p.enabled():
		p.ly = 0
		p.dot = 0
		p.mode = HBlank
	case !wasEnabled && p.enabled():
		p.ly = 0
		p.dot = 0
		p.setMode(OAMScan)
		p.compareLYC()
	}
}

// vramAccessible reports whether the CPU can currently reach VRAM.
func (p *PPU) vramAccessible() bool {
	return !p.enabled() || p.mode != Drawing
}

// oamAccessible reports whether the CPU can currently reach OAM.
func (p *PPU) oamAccessible() bool {
	return !p.enabled() || (p.mode != OAMScan && p.mode != Drawing)
}

// Read serves VRAM, OAM and the LCD registers.
func (p *PPU) Read(address uint16) byte {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		if !p.vramAccessible() {
			return 0xFF
		}
		return p.vram[address-addr.VRAMStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		if !p.oamAccessible() {
			return 0xFF
		}
		return p.oam[address-addr.OAMStart]
	}

	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		stat := 0x80 | p.statSelect | uint8(p.mode)
		if p.lycEqual {
			stat |= 0x04
		}
		return stat
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.DMA:
		return p.dma
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	}
	panic(fmt.Sprintf("video: read from unowned address 0x%04X", address))
}

// Write serves VRAM, OAM and the LCD registers. Read-only fields are ignored.
func (p *PPU) Write(address uint16, value byte) {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		if p.vramAccessible() {
			p.vram[address-addr.VRAMStart] = value
		}
		return
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		if p.oamAccessible() {
			p.oam[address-addr.OAMStart] = value
		}
		return
	}

	switch address {
	case addr.LCDC:
		p.setLCDC(value)
	case addr.STAT:
		p.statSelect = value & statSelectMask
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LY:
		// read only
	case addr.LYC:
		p.lyc = value
		if p.enabled() {
			p.compareLYC()
		}
	case addr.DMA:
		p.dma = value
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	default:
		panic(fmt.Sprintf("video: write to unowned address 0x%04X", address))
	}
}

// WriteOAMDirect stores a byte in OAM bypassing mode gating, the path OAM
// DMA uses.
func (p *PPU) WriteOAMDirect(index int, value byte) {
	p.oam[index] = value
}

// Mode returns the current PPU mode.
func (p *PPU) Mode() Mode { return p.mode }

// LY returns the current line.
func (p *PPU) LY() uint8 { return p.ly }

// Dot returns the number of ticks spent in the current mode.
func (p *PPU) Dot() int { return p.dot }

// Frame returns the last completed frame.
func (p *PPU) Frame() *FrameBuffer { return p.front }

// FrameCount returns how many times VBlank has been entered.
func (p *PPU) FrameCount() uint64 { return p.frame }
