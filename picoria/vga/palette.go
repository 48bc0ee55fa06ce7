package vga

import (
	"github.com/retrobus/picoria/picoria/bit"
	"github.com/retrobus/picoria/picoria/video"
)

// Colors cross the wire as 16-bit packed words in the scan-out format:
// bit 5 is a binary opacity flag, R5 sits at bits 4:0, G5 at 10:6 and B5 at
// 15:11. There is no partial alpha.
const packedAlphaBit = 5

// unpackColor expands a packed 16-bit color to a canvas RGBA word. Each
// 5-bit channel is widened to 8 bits by replicating its top bits into the
// low positions.
func unpackColor(raw uint16) uint32 {
	var alpha uint8
	if raw&(1<<packedAlphaBit) != 0 {
		alpha = 0xFF
	}
	r5 := uint8(raw & 0x1F)
	g5 := uint8(raw >> 6 & 0x1F)
	b5 := uint8(raw >> 11 & 0x1F)
	return video.RGBA(r5<<3|r5>>2, g5<<3|g5>>2, b5<<3|b5>>2, alpha)
}

// palette2 is the fixed 1bpp palette: index 0 transparent, index 1 opaque
// light grey. 1bpp planes always use it, ignoring any palette pointer.
var palette2 = [2]uint32{
	video.RGBA(0, 0, 0, 0),
	video.RGBA(192, 192, 192, 0xFF),
}

// palette256 is the built-in fallback table: the 16 ANSI colors (index 0
// transparent black), a 6x6x6 color cube, then a 24-step grey ramp.
var palette256 = buildPalette256()

func buildPalette256() [256]uint32 {
	var p [256]uint32

	ansi := [16][3]uint8{
		{0, 0, 0},       // black, transparent
		{205, 0, 0},     // red
		{0, 205, 0},     // green
		{205, 205, 0},   // yellow
		{0, 0, 238},     // blue
		{205, 0, 205},   // magenta
		{0, 205, 205},   // cyan
		{229, 229, 229}, // white
		{127, 127, 127}, // bright black
		{255, 0, 0},     // bright red
		{0, 255, 0},     // bright green
		{255, 255, 0},   // bright yellow
		{92, 92, 255},   // bright blue
		{255, 0, 255},   // bright magenta
		{0, 255, 255},   // bright cyan
		{255, 255, 255}, // bright white
	}
	for i, c := range ansi {
		a := uint8(0xFF)
		if i == 0 {
			a = 0
		}
		p[i] = video.RGBA(c[0], c[1], c[2], a)
	}

	levels := [6]uint8{0, 95, 135, 175, 215, 255}
	i := 16
	for _, r := range levels {
		for _, g := range levels {
			for _, b := range levels {
				p[i] = video.RGBA(r, g, b, 0xFF)
				i++
			}
		}
	}

	for g := 0; g < 24; g++ {
		v := uint8(8 + g*10)
		p[232+g] = video.RGBA(v, v, v, 0xFF)
	}

	return p
}

// resolvePalette produces the lookup table for an indexed depth. A non-zero,
// word-aligned pointer whose full table fits in XRAM selects a custom
// palette of packed colors; anything else falls back to the built-in table
// truncated to 2^bpp entries. 1bpp always uses the fixed two-entry palette
// and 16bpp has no palette at all.
func resolvePalette(xram *[xramSize]uint8, bpp int, ptr uint16) []uint32 {
	if bpp >= 16 {
		return nil
	}
	if bpp == 1 {
		return palette2[:]
	}

	count := 1 << bpp
	if ptr != 0 && ptr&1 == 0 && int(ptr)+count*2 <= xramSize {
		pal := make([]uint32, count)
		for i := range pal {
			off := int(ptr) + i*2
			pal[i] = unpackColor(bit.Combine(xram[off+1], xram[off]))
		}
		return pal
	}
	return palette256[:count]
}
