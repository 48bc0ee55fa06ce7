package vga

import "github.com/retrobus/picoria/picoria/bit"

const xramSize = 0x10000

// Mode numbers accepted by the MODE command.
const (
	modeText   = 1
	modeTile   = 2
	modeBitmap = 3
)

type planeKind int

const (
	planeText planeKind = iota + 1
	planeTile
	planeBitmap
)

// plane is one programmed display layer. The format is fixed at program
// time; the config struct is chased afresh from the replica every frame,
// so scroll and pointer updates take effect without reprogramming.
type plane struct {
	kind          planeKind
	textFormat    textFormat
	tileFormat    tileFormat
	bitmapFormat  bitmapFormat
	configPtr     uint16
	scanlineBegin uint16
	scanlineEnd   uint16
}

// scanlineRange returns the plane's half-open scanline window. End 0
// selects the full canvas height.
func (p *plane) scanlineRange(canvasH int) (int, int) {
	end := int(p.scanlineEnd)
	if end == 0 {
		end = canvasH
	}
	return int(p.scanlineBegin), end
}

func readU16(x *[xramSize]uint8, p int) uint16 {
	return bit.Combine(x[p+1], x[p])
}

func readI16(x *[xramSize]uint8, p int) int {
	return int(int16(readU16(x, p)))
}

// floorMod reduces v into [0,m), staying non-negative for negative v.
func floorMod(v, m int) int {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}
