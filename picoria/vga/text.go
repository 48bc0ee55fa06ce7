package vga

// textFormat selects color depth and glyph height for a character plane.
// Attribute codes 0-4 use the 8x8 face, 8-12 the 8x16 face.
type textFormat uint8

const (
	text1bppFont8 textFormat = iota
	text4bppRevFont8
	text4bppFont8
	text8bppFont8
	text16bppFont8
	text1bppFont16
	text4bppRevFont16
	text4bppFont16
	text8bppFont16
	text16bppFont16
)

func textFormatFromAttr(attr uint16) (textFormat, bool) {
	switch attr {
	case 0:
		return text1bppFont8, true
	case 1:
		return text4bppRevFont8, true
	case 2:
		return text4bppFont8, true
	case 3:
		return text8bppFont8, true
	case 4:
		return text16bppFont8, true
	case 8:
		return text1bppFont16, true
	case 9:
		return text4bppRevFont16, true
	case 10:
		return text4bppFont16, true
	case 11:
		return text8bppFont16, true
	case 12:
		return text16bppFont16, true
	}
	return 0, false
}

func (f textFormat) fontHeight() int {
	if f <= text16bppFont8 {
		return 8
	}
	return 16
}

// cellSize is the byte width of one character cell in the data grid.
func (f textFormat) cellSize() int {
	switch f {
	case text1bppFont8, text1bppFont16:
		return 1
	case text4bppRevFont8, text4bppFont8, text4bppRevFont16, text4bppFont16:
		return 2
	case text8bppFont8, text8bppFont16:
		return 3
	default:
		return 6
	}
}

func (f textFormat) bpp() int {
	switch f {
	case text1bppFont8, text1bppFont16:
		return 1
	case text4bppRevFont8, text4bppFont8, text4bppRevFont16, text4bppFont16:
		return 4
	case text8bppFont8, text8bppFont16:
		return 8
	default:
		return 16
	}
}

// textConfig is the 16-byte layout chased from the config pointer. Width
// and height are in character cells, not pixels.
type textConfig struct {
	xWrap, yWrap  bool
	xPos, yPos    int
	width, height int
	dataPtr       uint16
	palettePtr    uint16
	fontPtr       uint16
}

func readTextConfig(xram *[xramSize]uint8, ptr uint16) textConfig {
	p := int(ptr)
	if p+16 > xramSize {
		return textConfig{}
	}
	return textConfig{
		xWrap:      xram[p] != 0,
		yWrap:      xram[p+1] != 0,
		xPos:       readI16(xram, p+2),
		yPos:       readI16(xram, p+4),
		width:      readI16(xram, p+6),
		height:     readI16(xram, p+8),
		dataPtr:    readU16(xram, p+10),
		palettePtr: readU16(xram, p+12),
		fontPtr:    readU16(xram, p+14),
	}
}

// resolveFont returns the row-major glyph table for a plane: the replica
// region at fontPtr when the full 256-glyph table fits there, else the
// built-in face of the right height.
func resolveFont(xram *[xramSize]uint8, fontPtr uint16, height int) []uint8 {
	size := 256 * height
	if int(fontPtr)+size <= xramSize {
		return xram[int(fontPtr) : int(fontPtr)+size]
	}
	if height == 8 {
		return font8[:]
	}
	return font16[:]
}

func paletteAt(palette []uint32, i int) uint32 {
	if i < len(palette) {
		return palette[i]
	}
	return 0
}

// cellColors returns the background and foreground colors for one cell.
// How they are encoded after the glyph byte depends on the format: packed
// index nibbles, separate index bytes, or two direct packed colors.
func cellColors(xram *[xramSize]uint8, f textFormat, cellOff int, palette []uint32) (bg, fg uint32) {
	switch f {
	case text1bppFont8, text1bppFont16:
		return paletteAt(palette, 0), paletteAt(palette, 1)
	case text4bppRevFont8, text4bppRevFont16:
		b := xram[cellOff+1]
		return paletteAt(palette, int(b&0x0F)), paletteAt(palette, int(b>>4))
	case text4bppFont8, text4bppFont16:
		b := xram[cellOff+1]
		return paletteAt(palette, int(b>>4)), paletteAt(palette, int(b&0x0F))
	case text8bppFont8, text8bppFont16:
		return paletteAt(palette, int(xram[cellOff+2])), paletteAt(palette, int(xram[cellOff+1]))
	default:
		// 16bpp: byte 1 holds unused attributes, then fg and bg as
		// direct packed colors.
		fg = unpackColor(readU16(xram, cellOff+2))
		bg = unpackColor(readU16(xram, cellOff+4))
		return bg, fg
	}
}

// renderText draws a character-cell plane into the canvas. Each glyph row
// is a byte from the font table, MSB first, each set bit selecting the
// cell's foreground color and each clear bit its background.
func renderText(p *plane, xram *[xramSize]uint8, canvas []uint32, canvasW, canvasH int) {
	cfg := readTextConfig(xram, p.configPtr)
	if cfg.width < 1 || cfg.height < 1 {
		return
	}

	fontHeight := p.textFormat.fontHeight()
	cellSize := p.textFormat.cellSize()
	rowCells := cfg.width * cellSize
	if cfg.height*rowCells > xramSize-int(cfg.dataPtr) {
		return
	}

	font := resolveFont(xram, cfg.fontPtr, fontHeight)
	palette := resolvePalette(xram, p.textFormat.bpp(), cfg.palettePtr)

	widthPx := cfg.width * 8
	heightPx := cfg.height * fontHeight
	yStart, yEnd := p.scanlineRange(canvasH)

	for y := yStart; y < yEnd; y++ {
		if y < 0 || y >= canvasH {
			continue
		}
		row := y - cfg.yPos
		if cfg.yWrap {
			row = floorMod(row, heightPx)
		}
		if row < 0 || row >= heightPx {
			continue
		}

		charRow := row / fontHeight
		fontRowBase := (row & (fontHeight - 1)) * 256
		rowDataBase := int(cfg.dataPtr) + charRow*rowCells

		for x := 0; x < canvasW; x++ {
			col := x - cfg.xPos
			if cfg.xWrap {
				col = floorMod(col, widthPx)
			}
			if col < 0 || col >= widthPx {
				continue
			}

			cellOff := rowDataBase + col/8*cellSize
			if cellOff+cellSize > xramSize {
				continue
			}

			glyph := int(xram[cellOff])
			fontByte := font[fontRowBase+glyph]
			bg, fg := cellColors(xram, p.textFormat, cellOff, palette)

			rgba := bg
			if fontByte>>(7-col%8)&1 == 1 {
				rgba = fg
			}
			if rgba&0xFF != 0 {
				canvas[y*canvasW+x] = rgba
			}
		}
	}
}
