package vga

import "github.com/retrobus/picoria/picoria/video"

// bitmapFormat selects color depth and bit packing order for a bitmap
// plane. The attribute codes are part of the wire contract: 0-4 are the
// MSB-first depths 1/2/4/8/16, 8-10 the LSB-first depths 1/2/4.
type bitmapFormat uint8

const (
	bitmap1MSB bitmapFormat = iota
	bitmap2MSB
	bitmap4MSB
	bitmap8
	bitmap16
	bitmap1LSB
	bitmap2LSB
	bitmap4LSB
)

func bitmapFormatFromAttr(attr uint16) (bitmapFormat, bool) {
	switch attr {
	case 0:
		return bitmap1MSB, true
	case 1:
		return bitmap2MSB, true
	case 2:
		return bitmap4MSB, true
	case 3:
		return bitmap8, true
	case 4:
		return bitmap16, true
	case 8:
		return bitmap1LSB, true
	case 9:
		return bitmap2LSB, true
	case 10:
		return bitmap4LSB, true
	}
	return 0, false
}

func (f bitmapFormat) bpp() int {
	switch f {
	case bitmap1MSB, bitmap1LSB:
		return 1
	case bitmap2MSB, bitmap2LSB:
		return 2
	case bitmap4MSB, bitmap4LSB:
		return 4
	case bitmap8:
		return 8
	default:
		return 16
	}
}

// pixelIndex extracts the palette index for one column of a packed pixel
// row starting at rowBase. MSB-first formats put pixel 0 in the high bits
// of the first byte, LSB-first in the low bits.
func (f bitmapFormat) pixelIndex(xram *[xramSize]uint8, rowBase, col int) uint8 {
	switch f {
	case bitmap8:
		return xram[rowBase+col]
	case bitmap4MSB:
		b := xram[rowBase+col/2]
		if col%2 == 0 {
			return b >> 4
		}
		return b & 0x0F
	case bitmap4LSB:
		b := xram[rowBase+col/2]
		if col%2 == 0 {
			return b & 0x0F
		}
		return b >> 4
	case bitmap2MSB:
		return xram[rowBase+col/4] >> (6 - col%4*2) & 0x03
	case bitmap2LSB:
		return xram[rowBase+col/4] >> (col % 4 * 2) & 0x03
	case bitmap1MSB:
		return xram[rowBase+col/8] >> (7 - col%8) & 0x01
	default: // bitmap1LSB
		return xram[rowBase+col/8] >> (col % 8) & 0x01
	}
}

// bitmapConfig is the 14-byte layout chased from the config pointer:
// wrap flags, signed pixel position, content size in pixels, then the
// data and palette pointers.
type bitmapConfig struct {
	xWrap, yWrap  bool
	xPos, yPos    int
	width, height int
	dataPtr       uint16
	palettePtr    uint16
}

func readBitmapConfig(xram *[xramSize]uint8, ptr uint16) bitmapConfig {
	p := int(ptr)
	if p+14 > xramSize {
		return bitmapConfig{}
	}
	return bitmapConfig{
		xWrap:      xram[p] != 0,
		yWrap:      xram[p+1] != 0,
		xPos:       readI16(xram, p+2),
		yPos:       readI16(xram, p+4),
		width:      readI16(xram, p+6),
		height:     readI16(xram, p+8),
		dataPtr:    readU16(xram, p+10),
		palettePtr: readU16(xram, p+12),
	}
}

// renderBitmap draws a packed-pixel bitmap plane into the canvas. Pixels
// that resolve transparent, fall outside the content, or would read past
// the address space leave the canvas untouched.
func renderBitmap(p *plane, xram *[xramSize]uint8, canvas []uint32, canvasW, canvasH int) {
	cfg := readBitmapConfig(xram, p.configPtr)
	if cfg.width < 1 || cfg.height < 1 {
		return
	}

	bpp := p.bitmapFormat.bpp()
	rowStride := (cfg.width*bpp + 7) / 8
	if cfg.height*rowStride > xramSize-int(cfg.dataPtr) {
		return
	}

	palette := resolvePalette(xram, bpp, cfg.palettePtr)
	yStart, yEnd := p.scanlineRange(canvasH)

	for y := yStart; y < yEnd; y++ {
		if y < 0 || y >= canvasH {
			continue
		}
		row := y - cfg.yPos
		if cfg.yWrap {
			row = floorMod(row, cfg.height)
		}
		if row < 0 || row >= cfg.height {
			continue
		}
		rowBase := int(cfg.dataPtr) + row*rowStride

		for x := 0; x < canvasW; x++ {
			col := x - cfg.xPos
			if cfg.xWrap {
				col = floorMod(col, cfg.width)
			}
			if col < 0 || col >= cfg.width {
				continue
			}

			var rgba uint32
			if p.bitmapFormat == bitmap16 {
				off := rowBase + col*2
				if off+1 < xramSize {
					rgba = unpackColor(readU16(xram, off))
				}
			} else {
				idx := int(p.bitmapFormat.pixelIndex(xram, rowBase, col))
				if idx < len(palette) {
					rgba = palette[idx]
				}
			}
			if rgba&video.AMask != 0 {
				canvas[y*canvasW+x] = rgba
			}
		}
	}
}
