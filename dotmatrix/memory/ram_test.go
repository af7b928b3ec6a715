package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

func TestWorkRAMReadWrite(t *testing.T) {
	w := NewWorkRAM()
	for address := uint32(addr.WRAMStart); address <= uint32(addr.WRAMEnd); address++ {
		w.Write(uint16(address), uint8(address*7))
	}
	for address := uint32(addr.WRAMStart); address <= uint32(addr.WRAMEnd); address++ {
		require.Equal(t, uint8(address*7), w.Read(uint16(address)))
	}
}

func TestWorkRAMEcho(t *testing.T) {
	w := NewWorkRAM()

	w.Write(0xC123, 0x42)
	assert.Equal(t, uint8(0x42), w.Read(0xE123))

	w.Write(0xFDFF, 0x99)
	assert.Equal(t, uint8(0x99), w.Read(0xDDFF))
}

func TestBootROM(t *testing.T) {
	_, err := NewBootROM(make([]byte, 255))
	assert.ErrorIs(t, err, ErrInvalidBootROM)

	image := make([]byte, BootROMSize)
	image[0] = 0x31
	image[0xFF] = 0x50
	boot, err := NewBootROM(image)
	require.NoError(t, err)

	assert.True(t, boot.Mapped())
	assert.Equal(t, uint8(0x31), boot.Read(0x0000))
	assert.Equal(t, uint8(0x50), boot.Read(0x00FF))
	assert.Equal(t, uint8(0xFF), boot.Read(addr.BOOT))

	boot.Write(addr.BOOT, 0x00)
	assert.True(t, boot.Mapped(), "writing zero keeps the overlay")

	boot.Write(addr.BOOT, 0x01)
	assert.False(t, boot.Mapped())

	var missing *BootROM
	assert.False(t, missing.Mapped())
}
