package memory

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000

	titleLength = 16
)

const (
	titleAddress          = 0x134
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E

	headerEnd = 0x150
)

var (
	// ErrROMTooSmall is returned for images that cannot hold a cartridge header.
	ErrROMTooSmall = errors.New("rom image too small to contain a header")
	// ErrInvalidROMSize is returned when the image size is not a whole number of 16 KiB banks.
	ErrInvalidROMSize = errors.New("rom image size is not a multiple of the bank size")
	// ErrUnsupportedMBC is returned for cartridge types with no bank controller implementation.
	ErrUnsupportedMBC = errors.New("unsupported cartridge type")
)

// MBCType identifies the bank controller family of a cartridge.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC2Type
	MBC3Type
	MBC5Type
)

func (t MBCType) String() string {
	switch t {
	case NoMBCType:
		return "ROM"
	case MBC1Type:
		return "MBC1"
	case MBC2Type:
		return "MBC2"
	case MBC3Type:
		return "MBC3"
	case MBC5Type:
		return "MBC5"
	}
	return fmt.Sprintf("MBCType(%d)", uint8(t))
}

// cartridgeFeatures describes what a cartridge type byte at 0x147 maps to.
type cartridgeFeatures struct {
	mbc     MBCType
	ram     bool
	battery bool
	rtc     bool
	rumble  bool
}

var cartridgeTypes = map[uint8]cartridgeFeatures{
	0x00: {mbc: NoMBCType},
	0x01: {mbc: MBC1Type},
	0x02: {mbc: MBC1Type, ram: true},
	0x03: {mbc: MBC1Type, ram: true, battery: true},
	0x05: {mbc: MBC2Type},
	0x06: {mbc: MBC2Type, battery: true},
	0x08: {mbc: NoMBCType, ram: true},
	0x09: {mbc: NoMBCType, ram: true, battery: true},
	0x0F: {mbc: MBC3Type, battery: true, rtc: true},
	0x10: {mbc: MBC3Type, ram: true, battery: true, rtc: true},
	0x11: {mbc: MBC3Type},
	0x12: {mbc: MBC3Type, ram: true},
	0x13: {mbc: MBC3Type, ram: true, battery: true},
	0x19: {mbc: MBC5Type},
	0x1A: {mbc: MBC5Type, ram: true},
	0x1B: {mbc: MBC5Type, ram: true, battery: true},
	0x1C: {mbc: MBC5Type, rumble: true},
	0x1D: {mbc: MBC5Type, ram: true, rumble: true},
	0x1E: {mbc: MBC5Type, ram: true, battery: true, rumble: true},
}

// ramBanksBySizeCode maps the RAM size code at 0x149 to 8 KiB banks.
var ramBanksBySizeCode = map[uint8]int{
	0x00: 0,
	0x01: 1, // 2 KiB, rounded up to one bank
	0x02: 1,
	0x03: 4,
	0x04: 16,
	0x05: 8,
}

// Header holds the decoded cartridge header.
type Header struct {
	Title          string
	CartridgeType  uint8
	MBC            MBCType
	ROMSizeCode    uint8
	RAMSizeCode    uint8
	ROMBanks       int
	RAMBanks       int
	Version        uint8
	HeaderChecksum uint8
	GlobalChecksum uint16
	HasBattery     bool
	HasRTC         bool
	HasRumble      bool
}

// Cartridge is a ROM image together with its parsed header.
type Cartridge struct {
	data   []byte
	header Header
}

// NewCartridge validates a ROM image and decodes its header. The image must
// be a whole number of 16 KiB banks.
func NewCartridge(data []byte) (*Cartridge, error) {
	if len(data) < headerEnd {
		return nil, fmt.Errorf("%w: %d bytes", ErrROMTooSmall, len(data))
	}
	if len(data)%romBankSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidROMSize, len(data))
	}

	cartType := data[cartridgeTypeAddress]
	features, ok := cartridgeTypes[cartType]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedMBC, cartType)
	}

	header := Header{
		Title:          cleanGameboyTitle(data[titleAddress : titleAddress+titleLength]),
		CartridgeType:  cartType,
		MBC:            features.mbc,
		ROMSizeCode:    data[romSizeAddress],
		RAMSizeCode:    data[ramSizeAddress],
		ROMBanks:       len(data) / romBankSize,
		Version:        data[versionNumberAddress],
		HeaderChecksum: data[headerChecksumAddress],
		GlobalChecksum: bit.Combine(data[globalChecksumAddress], data[globalChecksumAddress+1]),
		HasBattery:     features.battery,
		HasRTC:         features.rtc,
		HasRumble:      features.rumble,
	}
	if features.ram {
		header.RAMBanks = ramBanksBySizeCode[header.RAMSizeCode]
	}

	c := &Cartridge{
		data:   make([]byte, len(data)),
		header: header,
	}
	copy(c.data, data)

	return c, nil
}

// Header returns the decoded header.
func (c *Cartridge) Header() Header {
	return c.header
}

// Data returns the raw ROM image.
func (c *Cartridge) Data() []byte {
	return c.data
}

// HeaderChecksumValid reports whether the header checksum at 0x14D matches
// the bytes 0x134-0x14C. The boot ROM locks up on a mismatch; without one we
// only warn.
func (c *Cartridge) HeaderChecksumValid() bool {
	var sum uint8
	for _, b := range c.data[titleAddress:headerChecksumAddress] {
		sum = sum - b - 1
	}
	return sum == c.header.HeaderChecksum
}

// cleanGameboyTitle turns the raw title bytes into a printable string.
// Newer cartridges reuse the tail of the title area for the manufacturer code
// and CGB flag, so decoding stops at the first NUL.
func cleanGameboyTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))

	for _, b := range titleBytes {
		if b == 0 {
			break
		}
		r := rune(b)
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
