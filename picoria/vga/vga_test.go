package vga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrobus/picoria/picoria/pix"
	"github.com/retrobus/picoria/picoria/video"
)

func newTestEngine() (*Engine, chan pix.Reply) {
	replies := make(chan pix.Reply, 16)
	return New(nil, replies, video.NewDisplayBuffer()), replies
}

func putU16(xram *[xramSize]uint8, p int, v uint16) {
	xram[p] = uint8(v)
	xram[p+1] = uint8(v >> 8)
}

// pokeSurface writes the shared 14-byte config prefix: wrap flags off,
// position zero, the given size and data pointer, palette pointer zero.
func pokeSurface(xram *[xramSize]uint8, ptr uint16, width, height int16, dataPtr uint16) {
	p := int(ptr)
	for i := 0; i < 16; i++ {
		xram[p+i] = 0
	}
	putU16(xram, p+6, uint16(width))
	putU16(xram, p+8, uint16(height))
	putU16(xram, p+10, dataPtr)
}

func TestBitmap1bppMSBOrder(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 8, 1, 0x100)
	xram[0x100] = 0b10100101

	p := &plane{kind: planeBitmap, bitmapFormat: bitmap1MSB, scanlineEnd: 1}
	canvas := make([]uint32, 8)
	renderBitmap(p, &xram, canvas, 8, 1)

	opaque := map[int]bool{0: true, 2: true, 5: true, 7: true}
	for x := 0; x < 8; x++ {
		if opaque[x] {
			assert.NotZero(t, canvas[x]&video.AMask, "column %d should be opaque", x)
		} else {
			assert.Zero(t, canvas[x], "column %d should stay transparent", x)
		}
	}
}

func TestBitmap1bppLSBOrder(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 8, 1, 0x100)
	xram[0x100] = 0b10100101

	p := &plane{kind: planeBitmap, bitmapFormat: bitmap1LSB, scanlineEnd: 1}
	canvas := make([]uint32, 8)
	renderBitmap(p, &xram, canvas, 8, 1)

	opaque := map[int]bool{0: true, 2: true, 5: true, 7: true}
	for x := 0; x < 8; x++ {
		if opaque[7-x] {
			assert.NotZero(t, canvas[x]&video.AMask, "column %d should be opaque", x)
		} else {
			assert.Zero(t, canvas[x], "column %d should stay transparent", x)
		}
	}
}

func TestBitmapYWrap(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 2, 0x100)
	xram[1] = 1 // y wrap
	xram[0x100] = 1
	xram[0x101] = 2

	p := &plane{kind: planeBitmap, bitmapFormat: bitmap8, scanlineEnd: 4}
	canvas := make([]uint32, 4)
	renderBitmap(p, &xram, canvas, 1, 4)

	assert.Equal(t, palette256[1], canvas[0])
	assert.Equal(t, palette256[2], canvas[1])
	assert.Equal(t, palette256[1], canvas[2])
	assert.Equal(t, palette256[2], canvas[3])
}

func TestBitmapNegativePositionWraps(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 2, 1, 0x100)
	xram[0] = 1               // x wrap
	putU16(&xram, 2, 0xFFFF) // x position -1
	xram[0x100] = 1
	xram[0x101] = 2

	p := &plane{kind: planeBitmap, bitmapFormat: bitmap8, scanlineEnd: 1}
	canvas := make([]uint32, 2)
	renderBitmap(p, &xram, canvas, 2, 1)

	// Column 0 shows source column 1, column 1 wraps back to column 0.
	assert.Equal(t, palette256[2], canvas[0])
	assert.Equal(t, palette256[1], canvas[1])
}

func TestBitmap16bppDirectColor(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 1, 0x100)
	// Opaque full red: alpha bit 5, all R5 bits.
	putU16(&xram, 0x100, 1<<5|0x1F)

	p := &plane{kind: planeBitmap, bitmapFormat: bitmap16, scanlineEnd: 1}
	canvas := make([]uint32, 1)
	renderBitmap(p, &xram, canvas, 1, 1)

	assert.Equal(t, video.RGBA(255, 0, 0, 255), canvas[0])
}

func TestBitmapOversizeContentRejected(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 640, 480, 0xFF00)
	xram[0xFF00] = 9

	p := &plane{kind: planeBitmap, bitmapFormat: bitmap8, scanlineEnd: 1}
	canvas := make([]uint32, 640)
	renderBitmap(p, &xram, canvas, 640, 1)

	for _, px := range canvas {
		assert.Zero(t, px)
	}
}

func TestTextFullBlockGlyph(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 1, 0x100)
	putU16(&xram, 12, 0xFFFF) // built-in palette
	putU16(&xram, 14, 0xFFFF) // built-in font
	xram[0x100] = 0xDB

	p := &plane{kind: planeText, textFormat: text1bppFont8, scanlineEnd: 8}
	canvas := make([]uint32, 8*8)
	renderText(p, &xram, canvas, 8, 8)

	for i, px := range canvas {
		assert.NotZero(t, px&video.AMask, "pixel %d should be opaque", i)
	}
}

func TestTextSpaceIsTransparent(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 1, 0x100)
	putU16(&xram, 12, 0xFFFF)
	putU16(&xram, 14, 0xFFFF)
	xram[0x100] = 0x20

	p := &plane{kind: planeText, textFormat: text1bppFont8, scanlineEnd: 8}
	canvas := make([]uint32, 8*8)
	renderText(p, &xram, canvas, 8, 8)

	for i, px := range canvas {
		assert.Zero(t, px, "pixel %d should stay transparent", i)
	}
}

func TestText8bppCellColors(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 1, 0x100)
	putU16(&xram, 12, 0xFFFF)
	putU16(&xram, 14, 0xFFFF)
	xram[0x100] = 0xDB // full block
	xram[0x101] = 9    // foreground index
	xram[0x102] = 12   // background index

	p := &plane{kind: planeText, textFormat: text8bppFont8, scanlineEnd: 8}
	canvas := make([]uint32, 8*8)
	renderText(p, &xram, canvas, 8, 8)

	for i, px := range canvas {
		assert.Equal(t, palette256[9], px, "pixel %d should be the foreground color", i)
	}
}

func TestText4bppNibbleOrders(t *testing.T) {
	render := func(f textFormat, colorByte uint8) uint32 {
		var xram [xramSize]uint8
		pokeSurface(&xram, 0, 1, 1, 0x100)
		putU16(&xram, 12, 0xFFFF)
		putU16(&xram, 14, 0xFFFF)
		xram[0x100] = 0xDB
		xram[0x101] = colorByte

		p := &plane{kind: planeText, textFormat: f, scanlineEnd: 8}
		canvas := make([]uint32, 8*8)
		renderText(p, &xram, canvas, 8, 8)
		return canvas[0]
	}

	// Reversed variant: high nibble foreground. Normal: low nibble.
	assert.Equal(t, palette256[9], render(text4bppRevFont8, 0x9C))
	assert.Equal(t, palette256[9], render(text4bppFont8, 0xC9))
}

func TestTextXRAMFont(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 1, 0x100)
	putU16(&xram, 12, 0xFFFF)
	putU16(&xram, 14, 0x1000) // custom font table
	xram[0x100] = 0x41

	// Glyph 0x41 row 0: leftmost pixel only.
	xram[0x1000+0x41] = 0x80

	p := &plane{kind: planeText, textFormat: text1bppFont8, scanlineEnd: 8}
	canvas := make([]uint32, 8*8)
	renderText(p, &xram, canvas, 8, 8)

	assert.NotZero(t, canvas[0]&video.AMask)
	for i := 1; i < 64; i++ {
		assert.Zero(t, canvas[i], "pixel %d should stay transparent", i)
	}
}

func TestTextGlyph16Height(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 1, 0x100)
	putU16(&xram, 12, 0xFFFF)
	putU16(&xram, 14, 0xFFFF)
	xram[0x100] = 0xDB

	p := &plane{kind: planeText, textFormat: text1bppFont16, scanlineEnd: 16}
	canvas := make([]uint32, 8*16)
	renderText(p, &xram, canvas, 8, 16)

	for i, px := range canvas {
		assert.NotZero(t, px&video.AMask, "pixel %d should be opaque", i)
	}
}

func TestTileAddressingBySize(t *testing.T) {
	assert.Equal(t, 64, tile8bpp8.tileBytes())
	assert.Equal(t, 256, tile8bpp16.tileBytes())

	render := func(f tileFormat, canvasSize int) []uint32 {
		var xram [xramSize]uint8
		pokeSurface(&xram, 0, 1, 1, 0x100)
		putU16(&xram, 14, 0x1000) // tile bitmap base
		xram[0x100] = 1           // tile ID 1

		// Distinct first pixel for tile 1 under each layout.
		xram[0x1000+64] = 9   // 8x8 layout
		xram[0x1000+256] = 12 // 16x16 layout

		p := &plane{kind: planeTile, tileFormat: f, scanlineEnd: uint16(canvasSize)}
		canvas := make([]uint32, canvasSize*canvasSize)
		renderTile(p, &xram, canvas, canvasSize, canvasSize)
		return canvas
	}

	assert.Equal(t, palette256[9], render(tile8bpp8, 8)[0])
	assert.Equal(t, palette256[12], render(tile8bpp16, 16)[0])
}

func TestTileRowLayoutWithinTile(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 1, 0x100)
	putU16(&xram, 14, 0x1000)
	xram[0x100] = 0

	// 8x8 8bpp tile: rows are 8 contiguous bytes. Pixel (3,2) lives at
	// base + 2*8 + 3.
	xram[0x1000+2*8+3] = 9

	p := &plane{kind: planeTile, tileFormat: tile8bpp8, scanlineEnd: 8}
	canvas := make([]uint32, 8*8)
	renderTile(p, &xram, canvas, 8, 8)

	assert.Equal(t, palette256[9], canvas[2*8+3])
	assert.Zero(t, canvas[0])
}

func TestTileOutOfRangeBitmapSkipped(t *testing.T) {
	var xram [xramSize]uint8
	pokeSurface(&xram, 0, 1, 1, 0x100)
	putU16(&xram, 14, 0xFFF0) // tile 1 would read past the address space
	xram[0x100] = 1

	p := &plane{kind: planeTile, tileFormat: tile8bpp8, scanlineEnd: 8}
	canvas := make([]uint32, 8*8)
	renderTile(p, &xram, canvas, 8, 8)

	for i, px := range canvas {
		assert.Zero(t, px, "pixel %d should stay transparent", i)
	}
}

func TestResolvePaletteFallbacks(t *testing.T) {
	var xram [xramSize]uint8

	// Pointer 0 and a misaligned pointer both select the built-in table.
	pal := resolvePalette(&xram, 8, 0)
	require.Len(t, pal, 256)
	assert.Equal(t, palette256[:], pal)

	pal = resolvePalette(&xram, 4, 0xFFFF)
	require.Len(t, pal, 16)
	assert.Equal(t, palette256[:16], pal)

	// 1bpp ignores the pointer entirely.
	putU16(&xram, 0x2000, 0xFFFF)
	pal = resolvePalette(&xram, 1, 0x2000)
	assert.Equal(t, palette2[:], pal)

	// 16bpp has no palette.
	assert.Nil(t, resolvePalette(&xram, 16, 0))
}

func TestResolvePaletteCustom(t *testing.T) {
	var xram [xramSize]uint8
	// Entry 1: opaque full blue.
	putU16(&xram, 0x2000+2, 1<<5|0x1F<<11)

	pal := resolvePalette(&xram, 2, 0x2000)
	require.Len(t, pal, 4)
	assert.Equal(t, video.RGBA(0, 0, 0, 0), pal[0])
	assert.Equal(t, video.RGBA(0, 0, 255, 255), pal[1])
}

func TestUnpackColor(t *testing.T) {
	assert.Equal(t, video.RGBA(255, 255, 255, 255), unpackColor(0xFFFF))
	assert.Equal(t, uint32(0), unpackColor(0)&video.AMask)
	// Channel expansion replicates the top bits: 5-bit 0x10 becomes 0x84.
	assert.Equal(t, video.RGBA(0x84, 0, 0, 255), unpackColor(1<<5|0x10))
}

func TestBuiltinPaletteContents(t *testing.T) {
	assert.Zero(t, palette256[0]&video.AMask, "index 0 is transparent")
	assert.Equal(t, video.RGBA(205, 0, 0, 255), palette256[1])
	assert.Equal(t, video.RGBA(0, 0, 0, 255), palette256[16])
	assert.Equal(t, video.RGBA(255, 0, 0, 255), palette256[196])
	assert.Equal(t, video.RGBA(8, 8, 8, 255), palette256[232])
	assert.Equal(t, video.RGBA(238, 238, 238, 255), palette256[255])
}

func TestUpscale2x(t *testing.T) {
	canvas := make([]uint32, 320*240)
	canvas[0] = video.RGBA(0, 0, 255, 255)
	canvas[1] = video.RGBA(255, 0, 0, 255)

	display := make([]uint8, video.DisplayBytes)
	upscale(canvas, 320, 240, display)

	for _, pos := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		i := (pos[1]*640 + pos[0]) * 4
		assert.Equal(t, []uint8{0, 0, 255, 255}, display[i:i+4], "at %v", pos)
	}
	for _, pos := range [][2]int{{2, 0}, {3, 0}, {2, 1}, {3, 1}} {
		i := (pos[1]*640 + pos[0]) * 4
		assert.Equal(t, []uint8{255, 0, 0, 255}, display[i:i+4], "at %v", pos)
	}
}

func TestUpscaleLetterbox(t *testing.T) {
	canvas := make([]uint32, 320*180)
	canvas[0] = video.RGBA(255, 0, 0, 255)

	display := make([]uint8, video.DisplayBytes)
	upscale(canvas, 320, 180, display)

	assert.Equal(t, uint8(255), display[0])
	// First scanline below the scaled content is all zero.
	row := display[360*640*4 : 361*640*4]
	for _, b := range row {
		require.Zero(t, b)
	}
}

func TestCanvasCommandResetsPlanes(t *testing.T) {
	e, replies := newTestEngine()
	e.planes[0] = &plane{kind: planeBitmap}
	e.xregs[2] = 3

	e.handleReg(pix.RegWrite{Channel: 0, Register: xregCanvas, Value: canvasQVGA})

	assert.Equal(t, 320, e.canvasW)
	assert.Equal(t, 240, e.canvasH)
	assert.Nil(t, e.planes[0])
	assert.Equal(t, [8]uint16{}, e.xregs)
	r := <-replies
	assert.Equal(t, pix.ReplyAck, r.Kind)
}

func TestCanvasUnknownPresetDefaults(t *testing.T) {
	e, _ := newTestEngine()
	e.canvasW, e.canvasH = 320, 240
	e.handleReg(pix.RegWrite{Channel: 0, Register: xregCanvas, Value: 99})
	assert.Equal(t, 640, e.canvasW)
	assert.Equal(t, 480, e.canvasH)
}

func TestModeCommandProgramsPlane(t *testing.T) {
	e, replies := newTestEngine()
	for reg, v := range map[uint8]uint16{2: 3, 3: 0x200, 4: 1, 5: 0, 6: 0} {
		e.handleReg(pix.RegWrite{Channel: 0, Register: reg, Value: v})
	}
	e.handleReg(pix.RegWrite{Channel: 0, Register: xregMode, Value: modeBitmap})

	require.NotNil(t, e.planes[1])
	assert.Equal(t, planeBitmap, e.planes[1].kind)
	assert.Equal(t, bitmap8, e.planes[1].bitmapFormat)
	assert.Equal(t, uint16(0x200), e.planes[1].configPtr)
	assert.Equal(t, [8]uint16{}, e.xregs, "arguments clear after programming")
	r := <-replies
	assert.Equal(t, pix.ReplyAck, r.Kind)
}

func TestModeCommandNaks(t *testing.T) {
	tests := []struct {
		name  string
		xregs map[uint8]uint16
		mode  uint16
	}{
		{"unknown mode", map[uint8]uint16{2: 0, 3: 0x200, 4: 0}, 7},
		{"bad attribute", map[uint8]uint16{2: 5, 3: 0x200, 4: 0}, modeBitmap},
		{"plane out of range", map[uint8]uint16{2: 0, 3: 0x200, 4: 3}, modeBitmap},
		{"odd config pointer", map[uint8]uint16{2: 0, 3: 0x201, 4: 0}, modeBitmap},
		{"config past memory end", map[uint8]uint16{2: 0, 3: 0xFFF8, 4: 0}, modeText},
		{"bitmap config past memory end", map[uint8]uint16{2: 3, 3: 0xFFF4, 4: 0}, modeBitmap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, replies := newTestEngine()
			for reg, v := range tt.xregs {
				e.handleReg(pix.RegWrite{Channel: 0, Register: reg, Value: v})
			}
			e.handleReg(pix.RegWrite{Channel: 0, Register: xregMode, Value: tt.mode})

			assert.Equal(t, [3]*plane{}, e.planes)
			r := <-replies
			assert.Equal(t, pix.ReplyNak, r.Kind)
		})
	}
}

func TestOtherChannelsIgnored(t *testing.T) {
	e, replies := newTestEngine()
	e.handleReg(pix.RegWrite{Channel: 15, Register: xregCanvas, Value: canvasQVGA})
	assert.Equal(t, 640, e.canvasW)
	assert.Empty(t, replies)
}

func TestFrameSyncRendersAndReplies(t *testing.T) {
	e, replies := newTestEngine()
	e.handleEvent(pix.Event{XRAM: &pix.XRAMWrite{Addr: 0x1234, Data: 0xAB}})
	assert.Equal(t, uint8(0xAB), e.xram[0x1234])

	e.handleEvent(pix.Event{Frame: true})
	r := <-replies
	assert.Equal(t, pix.ReplyVsync, r.Kind)
	assert.Equal(t, uint8(0x81), r.Frame)

	e.handleEvent(pix.Event{Frame: true})
	r = <-replies
	assert.Equal(t, uint8(0x82), r.Frame)
}

func TestFrameVsyncParityWraps(t *testing.T) {
	e, replies := newTestEngine()
	e.frameCount = 0x1F
	e.handleEvent(pix.Event{Frame: true})
	r := <-replies
	assert.Equal(t, uint8(0x80), r.Frame)
}

func TestRenderFrameEndToEnd(t *testing.T) {
	e, _ := newTestEngine()
	e.handleReg(pix.RegWrite{Channel: 0, Register: xregCanvas, Value: canvasQVGA})

	pokeSurface(&e.xram, 0x200, 320, 240, 0x1000)
	e.xram[0x1000] = 9

	for reg, v := range map[uint8]uint16{2: 3, 3: 0x200, 4: 0} {
		e.handleReg(pix.RegWrite{Channel: 0, Register: reg, Value: v})
	}
	e.handleReg(pix.RegWrite{Channel: 0, Register: xregMode, Value: modeBitmap})
	e.handleEvent(pix.Event{Frame: true})

	want := palette256[9]
	wantBytes := []uint8{
		uint8(want >> video.RShift),
		uint8(want >> video.GShift),
		uint8(want >> video.BShift),
		uint8(want & video.AMask),
	}
	snap := e.display.Snapshot()
	for _, pos := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		i := (pos[1]*640 + pos[0]) * 4
		assert.Equal(t, wantBytes, snap[i:i+4], "at %v", pos)
	}
}

func TestRenderReadsConfigFresh(t *testing.T) {
	e, _ := newTestEngine()
	e.handleReg(pix.RegWrite{Channel: 0, Register: xregCanvas, Value: canvasQVGA})

	pokeSurface(&e.xram, 0x200, 320, 240, 0x1000)
	e.xram[0x1000] = 9
	for reg, v := range map[uint8]uint16{2: 3, 3: 0x200, 4: 0} {
		e.handleReg(pix.RegWrite{Channel: 0, Register: reg, Value: v})
	}
	e.handleReg(pix.RegWrite{Channel: 0, Register: xregMode, Value: modeBitmap})

	// Scroll one pixel right after programming; the next frame must pick
	// it up from the replica.
	putU16(&e.xram, 0x200+2, 1)
	e.handleEvent(pix.Event{Frame: true})

	snap := e.display.Snapshot()
	assert.Zero(t, snap[3], "display origin is transparent after scroll")
	i := 2 * 4 // display x=2 maps to canvas x=1
	assert.NotZero(t, snap[i+3], "scrolled content lands one canvas pixel over")
}

func TestRunTerminatesOnClose(t *testing.T) {
	events := make(chan pix.Event)
	replies := make(chan pix.Reply, 16)
	e := New(events, replies, video.NewDisplayBuffer())

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	events <- pix.Event{XRAM: &pix.XRAMWrite{Addr: 1, Data: 2}}
	close(events)
	<-done
	assert.Equal(t, uint8(2), e.xram[1])
}
