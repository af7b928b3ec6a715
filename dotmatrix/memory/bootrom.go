package memory

import (
	"errors"
	"fmt"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

// BootROMSize is the size of the DMG boot program.
const BootROMSize = 0x100

// ErrInvalidBootROM is returned for boot images that are not exactly 256 bytes.
var ErrInvalidBootROM = errors.New("boot rom must be 256 bytes")

// BootROM overlays the first 256 bytes of the address space until the boot
// program writes a non-zero value to 0xFF50. The unmap is permanent.
type BootROM struct {
	data   [BootROMSize]byte
	mapped bool
}

// NewBootROM validates and maps a boot image.
func NewBootROM(data []byte) (*BootROM, error) {
	if len(data) != BootROMSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidBootROM, len(data))
	}
	b := &BootROM{mapped: true}
	copy(b.data[:], data)
	return b, nil
}

// Mapped reports whether the overlay still covers 0000-00FF.
func (b *BootROM) Mapped() bool {
	return b != nil && b.mapped
}

func (b *BootROM) Read(address uint16) byte {
	if address == addr.BOOT {
		return 0xFF
	}
	return b.data[address]
}

// Write handles the unmap register; the image itself is read only.
func (b *BootROM) Write(address uint16, value byte) {
	if address == addr.BOOT && value != 0 {
		b.mapped = false
	}
}
