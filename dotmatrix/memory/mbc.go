package memory

import (
	"fmt"
)

// MBC is a cartridge bank controller. It serves 0000-7FFF (ROM and control
// registers) and A000-BFFF (external RAM).
//
// The set of controllers is closed: NoMBC, MBC1, MBC2, MBC3 and MBC5.
type MBC interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// ROMSize returns the size of the ROM in bytes.
	ROMSize() int
	// RAMSize returns the size of the external (or built-in) RAM in bytes.
	RAMSize() int

	bankController()
}

// NewMBC builds the bank controller described by the cartridge header.
func NewMBC(cart *Cartridge) (MBC, error) {
	h := cart.Header()

	switch h.MBC {
	case NoMBCType:
		return NewNoMBC(cart.data, h.RAMBanks), nil
	case MBC1Type:
		return NewMBC1(cart.data, h.RAMBanks), nil
	case MBC2Type:
		return NewMBC2(cart.data), nil
	case MBC3Type:
		return NewMBC3(cart.data, h.RAMBanks, h.HasRTC, nil), nil
	case MBC5Type:
		return NewMBC5(cart.data, h.RAMBanks, h.HasRumble), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMBC, h.MBC)
}

// bankedMemory holds ROM and RAM and resolves bank-relative offsets, wrapping
// bank numbers that exceed the available memory as the hardware does by
// ignoring high address lines.
type bankedMemory struct {
	rom []uint8
	ram []uint8
}

func newBankedMemory(rom []uint8, ramBanks int) bankedMemory {
	return bankedMemory{
		rom: rom,
		ram: make([]uint8, ramBanks*ramBankSize),
	}
}

func (b *bankedMemory) readROM(bank int, address uint16) uint8 {
	banks := len(b.rom) / romBankSize
	if banks == 0 {
		return 0xFF
	}
	offset := (bank%banks)*romBankSize + int(address&0x3FFF)
	return b.rom[offset]
}

func (b *bankedMemory) ramOffset(bank int, address uint16) (int, bool) {
	if len(b.ram) == 0 {
		return 0, false
	}
	banks := len(b.ram) / ramBankSize
	return (bank%banks)*ramBankSize + int(address-0xA000), true
}

func (b *bankedMemory) readRAM(bank int, address uint16) uint8 {
	offset, ok := b.ramOffset(bank, address)
	if !ok {
		return 0xFF
	}
	return b.ram[offset]
}

func (b *bankedMemory) writeRAM(bank int, address uint16, value uint8) {
	if offset, ok := b.ramOffset(bank, address); ok {
		b.ram[offset] = value
	}
}

func (b *bankedMemory) ROMSize() int { return len(b.rom) }
func (b *bankedMemory) RAMSize() int { return len(b.ram) }

func ramEnableValue(value uint8) bool {
	return value&0x0F == 0x0A
}

// NoMBC represents cartridges with no memory banking capabilities.
// The cartridge ROM is directly mapped to 0x0000-0x7FFF. A few carts pair
// it with a single, always enabled, 8 KiB RAM.
type NoMBC struct {
	bankedMemory
}

// NewNoMBC creates a new NoMBC controller
func NewNoMBC(rom []uint8, ramBanks int) *NoMBC {
	return &NoMBC{bankedMemory: newBankedMemory(rom, min(ramBanks, 1))}
}

func (m *NoMBC) Read(address uint16) uint8 {
	switch {
	case address <= 0x7FFF:
		if int(address) >= len(m.rom) {
			return 0xFF
		}
		return m.rom[address]
	case address >= 0xA000 && address <= 0xBFFF:
		return m.readRAM(0, address)
	}
	return 0xFF
}

func (m *NoMBC) Write(address uint16, value uint8) {
	if address >= 0xA000 && address <= 0xBFFF {
		m.writeRAM(0, address, value)
	}
}

func (*NoMBC) bankController() {}

// MBC1 is the first and most common MBC chip. Features include:
//   - Supports up to 2MB ROM (125 16KB banks)
//   - Up to 32KB RAM (4 8KB banks)
//   - A 5 bit ROM bank register and a 2 bit register that either extends it
//     or selects the RAM bank
//   - Mode 1 also applies the 2 bit register to the 0000-3FFF area and RAM
type MBC1 struct {
	bankedMemory
	bank1      uint8
	bank2      uint8
	mode       uint8
	ramEnabled bool
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(rom []uint8, ramBanks int) *MBC1 {
	return &MBC1{
		bankedMemory: newBankedMemory(rom, ramBanks),
		bank1:        1,
	}
}

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		bank := 0
		if m.mode == 1 {
			bank = int(m.bank2) << 5
		}
		return m.readROM(bank, address)
	case address <= 0x7FFF:
		return m.readROM(int(m.bank2)<<5|int(m.bank1), address)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.readRAM(m.ramBank(), address)
	}
	return 0xFF
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case address <= 0x3FFF:
		m.bank1 = value & 0x1F
		if m.bank1 == 0 {
			m.bank1 = 1
		}
	case address <= 0x5FFF:
		m.bank2 = value & 0x03
	case address <= 0x7FFF:
		m.mode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled {
			m.writeRAM(m.ramBank(), address, value)
		}
	}
}

func (m *MBC1) ramBank() int {
	if m.mode == 1 {
		return int(m.bank2)
	}
	return 0
}

func (*MBC1) bankController() {}

// MBC2 is a simpler MBC chip with built-in RAM. Features include:
//   - Supports up to 256KB ROM (16 16KB banks)
//   - Built-in 512x4 bits RAM, mirrored across A000-BFFF
//   - Bit 8 of the address selects between the RAM enable and ROM bank
//     registers in 0000-3FFF
type MBC2 struct {
	bankedMemory
	ram        [512]uint8
	romBank    uint8
	ramEnabled bool
}

// NewMBC2 creates a new MBC2 controller
func NewMBC2(rom []uint8) *MBC2 {
	return &MBC2{
		bankedMemory: newBankedMemory(rom, 0),
		romBank:      1,
	}
}

func (m *MBC2) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.readROM(0, address)
	case address <= 0x7FFF:
		return m.readROM(int(m.romBank), address)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		// upper nibble is open bus
		return 0xF0 | m.ram[address&0x01FF]
	}
	return 0xFF
}

func (m *MBC2) Write(address uint16, value uint8) {
	switch {
	case address <= 0x3FFF:
		if address&0x0100 == 0 {
			m.ramEnabled = ramEnableValue(value)
			return
		}
		m.romBank = value & 0x0F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled {
			m.ram[address&0x01FF] = value & 0x0F
		}
	}
}

func (m *MBC2) RAMSize() int { return len(m.ram) }

func (*MBC2) bankController() {}

// MBC3 is an MBC chip with an optional real time clock. Features include:
//   - Supports up to 2MB ROM (128 16KB banks)
//   - Up to 32KB RAM (4 8KB banks)
//   - RTC registers mapped into A000-BFFF by selecting banks 08-0C
//   - Writing 0x00 then 0x01 to 6000-7FFF latches the clock registers
type MBC3 struct {
	bankedMemory
	romBank    uint8
	ramSelect  uint8
	ramEnabled bool
	latchArmed bool

	hasRTC bool
	rtc    *RTC
}

// NewMBC3 creates a new MBC3 controller. A nil clock uses the system time.
func NewMBC3(rom []uint8, ramBanks int, hasRTC bool, clock Clock) *MBC3 {
	m := &MBC3{
		bankedMemory: newBankedMemory(rom, ramBanks),
		romBank:      1,
		hasRTC:       hasRTC,
	}
	if hasRTC {
		m.rtc = NewRTC(clock)
	}
	return m
}

func (m *MBC3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.readROM(0, address)
	case address <= 0x7FFF:
		return m.readROM(int(m.romBank), address)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.ramSelect <= 0x03 {
			return m.readRAM(int(m.ramSelect), address)
		}
		if m.hasRTC && m.ramSelect >= 0x08 && m.ramSelect <= 0x0C {
			return m.rtc.Read(m.ramSelect - 0x08)
		}
	}
	return 0xFF
}

func (m *MBC3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case address <= 0x3FFF:
		m.romBank = value & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address <= 0x5FFF:
		m.ramSelect = value
	case address <= 0x7FFF:
		if m.latchArmed && value == 0x01 && m.hasRTC {
			m.rtc.Latch()
		}
		m.latchArmed = value == 0x00
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.ramSelect <= 0x03 {
			m.writeRAM(int(m.ramSelect), address, value)
		} else if m.hasRTC && m.ramSelect >= 0x08 && m.ramSelect <= 0x0C {
			m.rtc.Write(m.ramSelect-0x08, value)
		}
	}
}

func (*MBC3) bankController() {}

// MBC5 supports up to 8MB ROM through a 9 bit bank number and up to 128KB
// RAM. Unlike the earlier chips bank 0 can be mapped into 4000-7FFF.
// On rumble carts bit 3 of the RAM bank register drives the motor.
type MBC5 struct {
	bankedMemory
	romBank    uint16
	ramBank    uint8
	ramEnabled bool
	hasRumble  bool
	rumble     bool
}

// NewMBC5 creates a new MBC5 controller
func NewMBC5(rom []uint8, ramBanks int, hasRumble bool) *MBC5 {
	return &MBC5{
		bankedMemory: newBankedMemory(rom, ramBanks),
		romBank:      1,
		hasRumble:    hasRumble,
	}
}

func (m *MBC5) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.readROM(0, address)
	case address <= 0x7FFF:
		return m.readROM(int(m.romBank), address)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.readRAM(int(m.ramBank), address)
	}
	return 0xFF
}

func (m *MBC5) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case address <= 0x2FFF:
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case address <= 0x3FFF:
		m.romBank = (m.romBank & 0xFF) | uint16(value&0x01)<<8
	case address <= 0x5FFF:
		if m.hasRumble {
			m.rumble = value&0x08 != 0
			m.ramBank = value & 0x07
		} else {
			m.ramBank = value & 0x0F
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled {
			m.writeRAM(int(m.ramBank), address, value)
		}
	}
}

// Rumbling reports whether the rumble motor is currently driven.
func (m *MBC5) Rumbling() bool { return m.rumble }

func (*MBC5) bankController() {}
