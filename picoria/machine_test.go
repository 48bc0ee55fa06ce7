package picoria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrobus/picoria/picoria/backend"
	"github.com/retrobus/picoria/picoria/backend/headless"
	"github.com/retrobus/picoria/picoria/bus"
	"github.com/retrobus/picoria/picoria/trace"
	"github.com/retrobus/picoria/picoria/video"
)

func pixelAt(snap []uint8, x, y int) []uint8 {
	i := (y*video.DisplayWidth + x) * video.BytesPerPixel
	return snap[i : i+4]
}

func TestEndToEndBitmapPixel(t *testing.T) {
	b := trace.NewBuilder()

	// 8bpp bitmap plane on a 320x240 canvas, one pixel of palette index 9
	// at the data pointer.
	cfg := make([]uint8, 14)
	cfg[trace.CfgWidth] = 320 & 0xFF
	cfg[trace.CfgWidth+1] = 320 >> 8
	cfg[trace.CfgHeight] = 240
	cfg[trace.CfgDataPtr+1] = 0x10 // data at 0x1000
	b.XRAM0Write(0, cfg)
	b.XRAM0Write(0x1000, []uint8{9})

	b.XregVGACanvas(1)
	b.XregVGAMode(3, 3, 0, 0, 0, 0)
	b.WaitFrames(2)
	b.OpExit()

	m := New()
	m.Run(b.Trace())

	// Palette index 9 is bright red; the canvas pixel upscales to a 2x2
	// display block.
	snap := m.Display.Snapshot()
	want := []uint8{255, 0, 0, 255}
	for _, pos := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		assert.Equal(t, want, pixelAt(snap, pos[0], pos[1]), "at %v", pos)
	}
	assert.Equal(t, []uint8{0, 0, 0, 0}, pixelAt(snap, 2, 0))
}

func TestEndToEndGradientPattern(t *testing.T) {
	m := New()
	m.Run(trace.Gradient().Trace())

	snap := m.Display.Snapshot()
	// 640x480 canvas, 1x upscale: pixel (x,y) inside the 320x200 bitmap
	// shows built-in palette index (x+y)%256. Index 0 is transparent, so
	// probe a diagonal away from the origin.
	assert.NotEqual(t, uint8(0), pixelAt(snap, 10, 0)[3], "gradient content is opaque")
	assert.Equal(t, pixelAt(snap, 10, 0), pixelAt(snap, 0, 10), "same palette index along the anti-diagonal")
	assert.Equal(t, []uint8{0, 0, 0, 0}, pixelAt(snap, 330, 210), "outside the bitmap stays transparent")
}

func TestEndToEndHaltsOnExit(t *testing.T) {
	b := trace.NewBuilder()
	b.OpExit()
	b.Write(0xFFE4, 0x42) // never consumed

	m := New()
	n := m.Run(b.Trace())
	assert.Equal(t, 1, n)
	assert.False(t, m.RIA.Running())
}

func TestEndToEndVsyncCounter(t *testing.T) {
	m := New()

	// First frame boundary sends a sync; the VGA's reply sits in the
	// backchannel until the next boundary drains it into the VSYNC
	// register.
	m.RIA.Process(bus.Write(200_000, 0xFFE4, 0))
	time.Sleep(50 * time.Millisecond)
	v := m.RIA.Process(bus.Read(400_000, 0xFFE3, 0))
	m.Close()

	assert.Equal(t, uint8(0x81), v)
}

// A single burst that carries both the canvas and mode commands arrives
// highest register first, so the canvas command lands last and blanks
// the plane the mode command just programmed. Firmware must split the
// two commands; this pins the replay-order behavior down.
func TestCombinedCanvasModeBurstBlanksPlane(t *testing.T) {
	build := func(combined bool) []uint8 {
		b := trace.NewBuilder()
		cfg := make([]uint8, 14)
		cfg[trace.CfgWidth] = 320 & 0xFF
		cfg[trace.CfgWidth+1] = 320 >> 8
		cfg[trace.CfgHeight] = 240
		cfg[trace.CfgDataPtr+1] = 0x10
		b.XRAM0Write(0, cfg)
		b.XRAM0Write(0x1000, []uint8{9})

		if combined {
			b.Xreg(1, 0, 0, 1, 3, 3, 0, 0, 0, 0)
		} else {
			b.XregVGACanvas(1)
			b.XregVGAMode(3, 3, 0, 0, 0, 0)
		}
		b.WaitFrames(2)
		b.OpExit()

		m := New()
		m.Run(b.Trace())
		return m.Display.Snapshot()
	}

	split := build(false)
	require.Equal(t, uint8(255), pixelAt(split, 0, 0)[3], "split commands draw the pixel")

	combined := build(true)
	assert.Equal(t, []uint8{0, 0, 0, 0}, pixelAt(combined, 0, 0), "combined burst leaves the plane deprogrammed")
}

func TestPresentDrivesBackendPerFrame(t *testing.T) {
	b := headless.New(4, headless.SnapshotConfig{})

	m := New()
	err := m.Present(trace.Gradient().Trace(), b, backend.Config{TraceName: "gradient"})
	require.NoError(t, err)

	// The trace spans two frame boundaries; the remaining presentations
	// come from the post-shutdown loop until the budget is hit.
	assert.Equal(t, 4, b.FrameCount())

	snap := m.Display.Snapshot()
	assert.NotEqual(t, uint8(0), pixelAt(snap, 10, 0)[3], "final frame carries the gradient")
}
