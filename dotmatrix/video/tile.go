package video

import "github.com/valerio/go-dotmatrix/dotmatrix/bit"

// TileRow represents one row of a tile pattern (8 pixels).
//
// Each tile row uses 2 bytes in a bit-plane format:
//
//	Byte 1 (Low):  Bit plane 0 - provides bit 0 of each pixel's color
//	Byte 2 (High): Bit plane 1 - provides bit 1 of each pixel's color
//
// Bit 7 represents the leftmost pixel, bit 0 the rightmost.
//
// Example: Bytes $3C and $7E represent a row:
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
//
// Reference: https://gbdev.io/pandocs/Tile_Data.html
type TileRow struct {
	Low  byte
	High byte
}

// GetPixel extracts a pixel color index (0-3) from the tile row.
// pixelX should be 0-7, where 0 is the leftmost pixel.
func (t TileRow) GetPixel(pixelX int) uint8 {
	index := uint8(7 - pixelX)
	return bit.Value(index, t.High)<<1 | bit.Value(index, t.Low)
}

// GetPixelFlipped extracts a pixel color index with horizontal flip.
func (t TileRow) GetPixelFlipped(pixelX int) uint8 {
	index := uint8(pixelX)
	return bit.Value(index, t.High)<<1 | bit.Value(index, t.Low)
}

// tileRow reads row `row` of a tile starting at a VRAM offset.
func (p *PPU) tileRow(tileOffset uint16, row int) TileRow {
	at := tileOffset + uint16(row*2)
	return TileRow{Low: p.vram[at], High: p.vram[at+1]}
}

// tileDataOffset resolves a tile index to its VRAM offset for background and
// window tiles. LCDC bit 4 selects unsigned addressing from 0x8000, otherwise
// the index is signed and relative to 0x9000.
func (p *PPU) tileDataOffset(tileIndex uint8) uint16 {
	if bit.IsSet(lcdcTileData, p.lcdc) {
		return uint16(tileIndex) * 16
	}
	return uint16(0x1000 + int(bit.Signed(tileIndex))*16)
}

// applyPalette maps a color index through one of the palette registers.
func applyPalette(palette, colorIndex uint8) uint8 {
	return (palette >> (colorIndex * 2)) & 0x03
}
