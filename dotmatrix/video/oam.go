package video

import (
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

const (
	oamObjects        = 40
	maxObjectsPerLine = 10
)

// Sprite is one decoded OAM entry, with the hardware +16/+8 offsets removed.
type Sprite struct {
	Y         int
	X         int
	TileIndex uint8
	Flags     uint8
	OAMIndex  int
	Height    int

	PaletteOBP1 bool
	FlipX       bool
	FlipY       bool
	BehindBG    bool
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

func (p *PPU) objectHeight() int {
	if bit.IsSet(lcdcOBJSize, p.lcdc) {
		return 16
	}
	return 8
}

func (p *PPU) sprite(index int) Sprite {
	base := index * 4
	s := Sprite{
		Y:         int(p.oam[base]) - 16,
		X:         int(p.oam[base+1]) - 8,
		TileIndex: p.oam[base+2],
		Flags:     p.oam[base+3],
		OAMIndex:  index,
		Height:    p.objectHeight(),
	}
	s.parseFlags()
	return s
}

// scanOAM selects the first ten objects, in OAM order, whose vertical range
// covers the current line.
func (p *PPU) scanOAM() {
	line := int(p.ly)
	height := p.objectHeight()
	objects := p.objectBuffer[:0]

	for i := range oamObjects {
		y := int(p.oam[i*4]) - 16
		if y <= line && line < y+height {
			objects = append(objects, p.sprite(i))
			if len(objects) == maxObjectsPerLine {
				break
			}
		}
	}
	p.objects = objects
}

// Sprites returns all 40 decoded OAM entries.
func (p *PPU) Sprites() []Sprite {
	result := make([]Sprite, oamObjects)
	for i := range oamObjects {
		result[i] = p.sprite(i)
	}
	return result
}
