package trace

import (
	"fmt"
	"sort"
)

// Canvas presets and modes, as the wire protocol numbers them.
const (
	canvasQVGA = 1
	canvasVGA  = 3

	modeText   = 1
	modeTile   = 2
	modeBitmap = 3
)

// Gradient builds the classic demo trace: a 320x200 8bpp diagonal
// gradient bitmap on plane 0 of a 640x480 canvas. The canvas and mode
// commands go in separate bursts; registers inside one burst arrive
// highest-first, so a combined burst would run the canvas command last
// and deprogram the plane it just set up.
func Gradient() *Builder {
	b := NewBuilder()

	const (
		configPtr = 0x0000
		dataPtr   = 0x0100
		width     = 320
		height    = 200
	)

	b.XRAM0Write(configPtr, surfaceConfig(width, height, dataPtr))

	b.SetAddr0(dataPtr)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b.Write(addrRW0, uint8((x+y)%256))
		}
	}

	b.XregVGACanvas(canvasVGA)
	b.XregVGAMode(modeBitmap, 3, configPtr, 0, 0, 0)
	b.WaitFrames(2)
	b.OpExit()
	return b
}

// Text builds a character-mode demo: a 40x15 grid of 8x16 glyphs cycling
// through the printable ASCII range with per-cell colors, on a 320x240
// canvas.
func Text() *Builder {
	b := NewBuilder()

	const (
		configPtr = 0x0000
		dataPtr   = 0x0100
		cols      = 40
		rows      = 15
	)

	b.XRAM0Write(configPtr, surfaceConfig(cols, rows, dataPtr))

	b.SetAddr0(dataPtr)
	for i := 0; i < cols*rows; i++ {
		b.Write(addrRW0, uint8(0x20+i%0x5F)) // glyph
		b.Write(addrRW0, uint8(1+i%15))      // foreground index
		b.Write(addrRW0, 0)                  // background index
	}

	b.XregVGACanvas(canvasQVGA)
	// Attribute 11: 8bpp cells with the 8x16 face.
	b.XregVGAMode(modeText, 11, configPtr, 0, 0, 0)
	b.WaitFrames(2)
	b.OpExit()
	return b
}

// Checker builds a tile-mode demo: a 16x16 map alternating two 8x8 8bpp
// tiles, wrapped across a 320x240 canvas.
func Checker() *Builder {
	b := NewBuilder()

	const (
		configPtr = 0x0000
		mapPtr    = 0x0100
		tilePtr   = 0x0300
		mapSize   = 16
	)

	cfg := surfaceConfig(mapSize, mapSize, mapPtr)
	cfg[CfgXWrap] = 1
	cfg[CfgYWrap] = 1
	b.XRAM0Write(configPtr, cfg)
	b.XRAM0SetU16(configPtr, CfgTilePtr, tilePtr)

	b.SetAddr0(mapPtr)
	for y := 0; y < mapSize; y++ {
		for x := 0; x < mapSize; x++ {
			b.Write(addrRW0, uint8((x+y)%2))
		}
	}

	// Tile 0: solid blue. Tile 1: solid bright white.
	b.SetAddr0(tilePtr)
	for i := 0; i < 64; i++ {
		b.Write(addrRW0, 4)
	}
	for i := 0; i < 64; i++ {
		b.Write(addrRW0, 15)
	}

	b.XregVGACanvas(canvasQVGA)
	b.XregVGAMode(modeTile, 3, configPtr, 0, 0, 0)
	b.WaitFrames(2)
	b.OpExit()
	return b
}

// surfaceConfig assembles the shared 16-byte config prefix: no wrap,
// origin position, the given size and data pointer, built-in palette.
func surfaceConfig(width, height int16, dataPtr uint16) []uint8 {
	cfg := make([]uint8, 16)
	cfg[CfgWidth] = uint8(width)
	cfg[CfgWidth+1] = uint8(uint16(width) >> 8)
	cfg[CfgHeight] = uint8(height)
	cfg[CfgHeight+1] = uint8(uint16(height) >> 8)
	cfg[CfgDataPtr] = uint8(dataPtr)
	cfg[CfgDataPtr+1] = uint8(dataPtr >> 8)
	return cfg
}

var patterns = map[string]func() *Builder{
	"gradient": Gradient,
	"text":     Text,
	"checker":  Checker,
}

// Pattern returns a named synthetic trace.
func Pattern(name string) (*Builder, error) {
	f, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q (have %v)", name, PatternNames())
	}
	return f(), nil
}

// PatternNames lists the available patterns in stable order.
func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
