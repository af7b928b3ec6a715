package video

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
)

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// GBColor is a 32 bit ARGB value of one of the four DMG shades.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0xFF989898
	DarkGreyColor  GBColor = 0xFF4C4C4C
	BlackColor     GBColor = 0xFF000000
)

// shades maps a 2 bit shade (after palette lookup) to a display color.
var shades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// Shade returns the display color for a 2 bit shade value.
func Shade(shade uint8) GBColor {
	return shades[shade&0x03]
}

type FrameBuffer struct {
	width  uint
	height uint
	buffer []uint32
}

// NewFrameBuffer creates a frame buffer sized for the DMG screen.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferWidth*FramebufferHeight),
	}
}

func (fb *FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y uint, color GBColor) {
	fb.buffer[y*fb.width+x] = uint32(color)
}

// Fill sets every pixel to the same color.
func (fb *FrameBuffer) Fill(color GBColor) {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(color)
	}
}

// CopyFrom overwrites this buffer with the contents of other.
func (fb *FrameBuffer) CopyFrom(other *FrameBuffer) {
	copy(fb.buffer, other.buffer)
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

// Digest returns a 64 bit hash of the frame contents, used to compare frames
// without storing them.
func (fb *FrameBuffer) Digest() uint64 {
	raw := make([]byte, len(fb.buffer)*4)
	for i, px := range fb.buffer {
		binary.LittleEndian.PutUint32(raw[i*4:], px)
	}
	return xxhash.Sum64(raw)
}
