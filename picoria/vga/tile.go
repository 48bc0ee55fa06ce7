package vga

// tileFormat selects color depth and tile size for a tile plane.
// Attribute codes 0-3 are 8x8 tiles at 1/2/4/8 bpp, 8-11 the same depths
// at 16x16.
type tileFormat uint8

const (
	tile1bpp8 tileFormat = iota
	tile2bpp8
	tile4bpp8
	tile8bpp8
	tile1bpp16
	tile2bpp16
	tile4bpp16
	tile8bpp16
)

func tileFormatFromAttr(attr uint16) (tileFormat, bool) {
	switch attr {
	case 0:
		return tile1bpp8, true
	case 1:
		return tile2bpp8, true
	case 2:
		return tile4bpp8, true
	case 3:
		return tile8bpp8, true
	case 8:
		return tile1bpp16, true
	case 9:
		return tile2bpp16, true
	case 10:
		return tile4bpp16, true
	case 11:
		return tile8bpp16, true
	}
	return 0, false
}

func (f tileFormat) tileSize() int {
	if f <= tile8bpp8 {
		return 8
	}
	return 16
}

func (f tileFormat) bpp() int {
	switch f {
	case tile1bpp8, tile1bpp16:
		return 1
	case tile2bpp8, tile2bpp16:
		return 2
	case tile4bpp8, tile4bpp16:
		return 4
	default:
		return 8
	}
}

// rowStride is the byte width of one pixel row inside a single tile's
// bitmap: bpp bytes for 8-wide tiles, twice that for 16-wide.
func (f tileFormat) rowStride() int {
	if f.tileSize() == 8 {
		return f.bpp()
	}
	return 2 * f.bpp()
}

// tileBytes is the size of one complete tile bitmap. Tiles are stored
// with their rows contiguous, one whole tile after another; this is not
// the font table layout, where all glyphs share each row band.
func (f tileFormat) tileBytes() int {
	return f.rowStride() * f.tileSize()
}

// pixelFormat maps a tile depth onto the matching MSB-first bitmap
// extraction.
func (f tileFormat) pixelFormat() bitmapFormat {
	switch f.bpp() {
	case 1:
		return bitmap1MSB
	case 2:
		return bitmap2MSB
	case 4:
		return bitmap4MSB
	default:
		return bitmap8
	}
}

// tileConfig is the 16-byte layout chased from the config pointer. Width
// and height are in tiles; dataPtr addresses the one-byte-per-cell tile
// map and tilePtr the tile bitmap region.
type tileConfig struct {
	xWrap, yWrap  bool
	xPos, yPos    int
	width, height int
	dataPtr       uint16
	palettePtr    uint16
	tilePtr       uint16
}

func readTileConfig(xram *[xramSize]uint8, ptr uint16) tileConfig {
	p := int(ptr)
	if p+16 > xramSize {
		return tileConfig{}
	}
	return tileConfig{
		xWrap:      xram[p] != 0,
		yWrap:      xram[p+1] != 0,
		xPos:       readI16(xram, p+2),
		yPos:       readI16(xram, p+4),
		width:      readI16(xram, p+6),
		height:     readI16(xram, p+8),
		dataPtr:    readU16(xram, p+10),
		palettePtr: readU16(xram, p+12),
		tilePtr:    readU16(xram, p+14),
	}
}

// renderTile draws a tile-map plane into the canvas. Each map cell is one
// tile index; a tile whose bitmap row would fall outside the address
// space contributes nothing for those pixels.
func renderTile(p *plane, xram *[xramSize]uint8, canvas []uint32, canvasW, canvasH int) {
	cfg := readTileConfig(xram, p.configPtr)
	if cfg.width < 1 || cfg.height < 1 {
		return
	}
	if cfg.width*cfg.height > xramSize-int(cfg.dataPtr) {
		return
	}

	f := p.tileFormat
	size := f.tileSize()
	rowStride := f.rowStride()
	tileBytes := f.tileBytes()
	pixFmt := f.pixelFormat()
	palette := resolvePalette(xram, f.bpp(), cfg.palettePtr)

	widthPx := cfg.width * size
	heightPx := cfg.height * size
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

		tileRow := row / size
		rowInTile := row % size
		mapRowBase := int(cfg.dataPtr) + tileRow*cfg.width

		for x := 0; x < canvasW; x++ {
			col := x - cfg.xPos
			if cfg.xWrap {
				col = floorMod(col, widthPx)
			}
			if col < 0 || col >= widthPx {
				continue
			}

			id := int(xram[mapRowBase+col/size])
			rowBase := int(cfg.tilePtr) + id*tileBytes + rowInTile*rowStride
			if rowBase+rowStride > xramSize {
				continue
			}

			idx := int(pixFmt.pixelIndex(xram, rowBase, col%size))
			if idx >= len(palette) {
				continue
			}
			rgba := palette[idx]
			if rgba&0xFF != 0 {
				canvas[y*canvasW+x] = rgba
			}
		}
	}
}
