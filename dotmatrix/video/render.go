package video

import (
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

const (
	tileMap0Offset = 0x1800 // 0x9800
	tileMap1Offset = 0x1C00 // 0x9C00
)

// renderScanline draws the current line into the back buffer: background and
// window first, then objects on top.
func (p *PPU) renderScanline() {
	line := int(p.ly)
	if line >= FramebufferHeight {
		return
	}

	p.renderBackground(line)
	if bit.IsSet(lcdcOBJEnable, p.lcdc) {
		p.renderObjects(line)
	}
}

func (p *PPU) tileMapOffset(selectBit uint8) uint16 {
	if bit.IsSet(selectBit, p.lcdc) {
		return tileMap1Offset
	}
	return tileMap0Offset
}

// bgColorIndex returns the raw 2 bit color index of a background or window
// pixel at (x, y) in the 256x256 map selected by mapOffset.
func (p *PPU) bgColorIndex(mapOffset uint16, x, y int) uint8 {
	tileIndex := p.vram[mapOffset+uint16((y/8)*32+x/8)]
	row := p.tileRow(p.tileDataOffset(tileIndex), y%8)
	return row.GetPixel(x % 8)
}

func (p *PPU) renderBackground(line int) {
	if !bit.IsSet(lcdcBGEnable, p.lcdc) {
		// with BG disabled the DMG shows color 0 and objects always win
		for x := range FramebufferWidth {
			p.bgIndices[x] = 0
			p.back.SetPixel(uint(x), uint(line), WhiteColor)
		}
		return
	}

	bgMap := p.tileMapOffset(lcdcBGTileMap)
	winMap := p.tileMapOffset(lcdcWindowMap)
	windowX := int(p.wx) - 7
	window := bit.IsSet(lcdcWindowEnable, p.lcdc) && int(p.wy) <= line && windowX < FramebufferWidth

	for x := range FramebufferWidth {
		var colorIndex uint8
		if window && x >= windowX {
			colorIndex = p.bgColorIndex(winMap, x-windowX, p.windowLine)
		} else {
			bgX := (x + int(p.scx)) & 0xFF
			bgY := (line + int(p.scy)) & 0xFF
			colorIndex = p.bgColorIndex(bgMap, bgX, bgY)
		}

		p.bgIndices[x] = colorIndex
		p.back.SetPixel(uint(x), uint(line), Shade(applyPalette(p.bgp, colorIndex)))
	}

	if window {
		p.windowLine++
	}
}

func (p *PPU) renderObjects(line int) {
	p.priorityBuffer.Clear()

	for i := range p.objects {
		s := &p.objects[i]

		row := line - s.Y
		if s.FlipY {
			row = s.Height - 1 - row
		}

		tile := s.TileIndex
		if s.Height == 16 {
			tile &= 0xFE
		}
		tileRow := p.tileRow(uint16(tile)*16, row)

		palette := p.obp0
		if s.PaletteOBP1 {
			palette = p.obp1
		}

		for px := range 8 {
			var colorIndex uint8
			if s.FlipX {
				colorIndex = tileRow.GetPixelFlipped(px)
			} else {
				colorIndex = tileRow.GetPixel(px)
			}
			if colorIndex == 0 {
				continue
			}
			p.priorityBuffer.TryClaim(s.X+px, s.OAMIndex, s.X, applyPalette(palette, colorIndex), s.BehindBG)
		}
	}

	for x := range FramebufferWidth {
		if p.priorityBuffer.Owner(x) == -1 {
			continue
		}
		if p.priorityBuffer.BehindBG(x) && p.bgIndices[x] != 0 {
			continue
		}
		p.back.SetPixel(uint(x), uint(line), Shade(p.priorityBuffer.Color(x)))
	}
}
