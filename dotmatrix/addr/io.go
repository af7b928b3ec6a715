package addr

// memory map boundaries
const (
	// BootROMEnd is the last address covered by the boot overlay while it is mapped.
	BootROMEnd uint16 = 0x00FF
	// ROMEnd is the last address of cartridge ROM space.
	ROMEnd uint16 = 0x7FFF

	// VRAMStart is the start of video memory.
	VRAMStart uint16 = 0x8000
	// VRAMEnd is the end of video memory.
	VRAMEnd uint16 = 0x9FFF

	// ExtRAMStart is the start of cartridge (external) RAM.
	ExtRAMStart uint16 = 0xA000
	// ExtRAMEnd is the end of cartridge (external) RAM.
	ExtRAMEnd uint16 = 0xBFFF

	// WRAMStart is the start of work RAM.
	WRAMStart uint16 = 0xC000
	// WRAMEnd is the end of work RAM.
	WRAMEnd uint16 = 0xDFFF

	// EchoStart is the start of the mirror of C000-DDFF.
	EchoStart uint16 = 0xE000
	// EchoEnd is the end of the echo region.
	EchoEnd uint16 = 0xFDFF

	// UnusableStart and UnusableEnd delimit the prohibited area after OAM.
	UnusableStart uint16 = 0xFEA0
	UnusableEnd   uint16 = 0xFEFF

	// HRAMStart is the start of high RAM, owned by the CPU.
	HRAMStart uint16 = 0xFF80
	// HRAMEnd is the end of high RAM.
	HRAMEnd uint16 = 0xFFFE
)

// gpu registers
const (
	// LCD Control register.
	LCDC uint16 = 0xFF40
	// LCDC Status register.
	STAT uint16 = 0xFF41
	// Scroll Y (SCY) register.
	SCY uint16 = 0xFF42
	// Scroll X (SCX) register.
	SCX uint16 = 0xFF43
	// LCDC Y-Coordinate (readonly) register.
	LY uint16 = 0xFF44
	// LY Compare register.
	LYC uint16 = 0xFF45
	// DMA Transfer and Start register.
	DMA uint16 = 0xFF46
	// BG Palette register.
	BGP uint16 = 0xFF47
	// Object Palette 0 register.
	OBP0 uint16 = 0xFF48
	// Object Palette 1 register.
	OBP1 uint16 = 0xFF49
	// Window Y Position register.
	WY uint16 = 0xFF4A
	// Window X Position register.
	WX uint16 = 0xFF4B
)

// OAM (Object Attribute Memory) - object data
const (
	// OAMStart is the start of OAM memory (40 objects * 4 bytes each)
	OAMStart uint16 = 0xFE00
	// OAMEnd is the end of OAM memory
	OAMEnd uint16 = 0xFE9F
)

// tile data and tile maps
const (
	// TileData0 is the start of unsigned tile data (tiles 0-255)
	TileData0 uint16 = 0x8000
	// TileData1 is the start of signed tile data region (tiles -128 to -1)
	TileData1 uint16 = 0x8800
	// TileData2 is the continuation of signed tile data (tiles 0-127)
	TileData2 uint16 = 0x9000

	// TileMap0 is background/window tile map 0
	TileMap0 uint16 = 0x9800
	// TileMap1 is background/window tile map 1
	TileMap1 uint16 = 0x9C00
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// joypad
const (
	// P1 is used to read the Joypad state.
	P1 uint16 = 0xFF00
)

// serial I/O
const (
	// SB (Serial transfer data, 0xFF01). After a transfer completes it holds the
	// byte received from the peer, 0xFF when nothing is connected.
	SB uint16 = 0xFF01
	// SC (Serial transfer control, 0xFF02)
	//  - Bit 7 (Start): writing 1 starts an 8-bit transfer, cleared when done.
	//  - Bit 0 (Clock): 1=internal clock, 0=external clock.
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the divider register. Incremented 16384 times/s, writing to it resets it.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter register. Generates an interrupt when it overflows.
	TIMA uint16 = 0xFF05
	// TMA is the timer modulo register. When TIMA overflows, this data will be loaded.
	TMA uint16 = 0xFF06
	// TAC is the timer control register. Used to start/stop and control the timer clock.
	TAC uint16 = 0xFF07
)

// BOOT unmaps the boot overlay when written with a non-zero value.
const BOOT uint16 = 0xFF50

// Interrupt is an enum that represents one of the possible interrupts.
// Values are the bit masks used in IE and IF.
type Interrupt uint8

const (
	// VBlankInterrupt is fired when the PPU enters vertical blank.
	VBlankInterrupt Interrupt = 1
	// LCDSTATInterrupt is fired based on one of the conditions in the LCDSTAT register.
	LCDSTATInterrupt Interrupt = 1 << 1
	// TimerInterrupt is fired when the timer register (TIMA) overflows (i.e. goes from 0xFF to 0x00).
	TimerInterrupt Interrupt = 1 << 2
	// SerialInterrupt is fired when a serial transfer has completed on the game link port.
	SerialInterrupt Interrupt = 1 << 3
	// JoypadInterrupt is fired when any of the keypad inputs goes from high to low.
	JoypadInterrupt Interrupt = 1 << 4
)

// Interrupts lists all interrupts in service priority order.
var Interrupts = [5]Interrupt{
	VBlankInterrupt,
	LCDSTATInterrupt,
	TimerInterrupt,
	SerialInterrupt,
	JoypadInterrupt,
}

// Vector returns the handler address for the interrupt.
func (i Interrupt) Vector() uint16 {
	switch i {
	case VBlankInterrupt:
		return 0x40
	case LCDSTATInterrupt:
		return 0x48
	case TimerInterrupt:
		return 0x50
	case SerialInterrupt:
		return 0x58
	case JoypadInterrupt:
		return 0x60
	}
	panic("addr: invalid interrupt")
}

func (i Interrupt) String() string {
	switch i {
	case VBlankInterrupt:
		return "VBlank"
	case LCDSTATInterrupt:
		return "STAT"
	case TimerInterrupt:
		return "Timer"
	case SerialInterrupt:
		return "Serial"
	case JoypadInterrupt:
		return "Joypad"
	}
	return "Unknown"
}
