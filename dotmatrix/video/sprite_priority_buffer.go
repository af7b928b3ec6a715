package video

// SpritePriorityBuffer records which object owns each pixel of the line being
// drawn, see https://gbdev.io/pandocs/OAM.html#drawing-priority.
//
// On the DMG the object with the smaller X coordinate is drawn on top, and
// objects sharing an X coordinate are ordered by OAM index. Only opaque
// pixels are claimed, so a transparent pixel of a higher priority object
// lets a lower priority object show through.
//
//	Pixels:     0  1  2  3  4  5  6  7  8  9 10 11 12 13 14 15 16 17
//	Object 0:                  [-----A-----]                    (X=5, OAM=0)
//	Object 1:                           [-----B-----]           (X=10, OAM=1)
//	Result:                    [-----A-----]--B-----]
//
// Claims happen in any order; the final owner of a pixel is the same as if the
// objects had been sorted by (X, OAM index) and drawn back to front.
type SpritePriorityBuffer struct {
	owner  [FramebufferWidth]int
	ownerX [FramebufferWidth]int
	color  [FramebufferWidth]uint8
	behind [FramebufferWidth]bool
}

// Clear marks every pixel as unowned.
func (s *SpritePriorityBuffer) Clear() {
	for i := range FramebufferWidth {
		s.owner[i] = -1
		s.ownerX[i] = 0xFF
		s.color[i] = 0
		s.behind[i] = false
	}
}

// TryClaim gives the pixel to the object if it has priority over the current
// owner, storing the object's shaded color and BG priority attribute.
// Returns whether the claim won.
func (s *SpritePriorityBuffer) TryClaim(pixelX, oamIndex, spriteX int, color uint8, behindBG bool) bool {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return false
	}

	current := s.owner[pixelX]
	if current == -1 ||
		spriteX < s.ownerX[pixelX] ||
		(spriteX == s.ownerX[pixelX] && oamIndex < current) {
		s.owner[pixelX] = oamIndex
		s.ownerX[pixelX] = spriteX
		s.color[pixelX] = color
		s.behind[pixelX] = behindBG
		return true
	}
	return false
}

// Owner returns the OAM index owning the pixel, or -1.
func (s *SpritePriorityBuffer) Owner(pixelX int) int {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return -1
	}
	return s.owner[pixelX]
}

// Color returns the shade stored by the pixel's owner.
func (s *SpritePriorityBuffer) Color(pixelX int) uint8 {
	return s.color[pixelX]
}

// BehindBG reports whether the pixel's owner yields to non-zero BG colors.
func (s *SpritePriorityBuffer) BehindBG(pixelX int) bool {
	return s.behind[pixelX]
}
