// Package trace produces and parses bus transaction sequences: a builder
// mirroring the firmware-side register idioms, a text file format, and
// the synthetic demo patterns used by the CLI and tests.
package trace

import "github.com/retrobus/picoria/picoria/bus"

// Register window addresses used by the builder.
const (
	addrRW0     = 0xFFE4
	addrStep0   = 0xFFE5
	addrAddr0Lo = 0xFFE6
	addrAddr0Hi = 0xFFE7
	addrRW1     = 0xFFE8
	addrStep1   = 0xFFE9
	addrAddr1Lo = 0xFFEA
	addrAddr1Hi = 0xFFEB
	addrXStack  = 0xFFEC
	addrOp      = 0xFFEF
)

const opXReg = 0x01

// Config struct field offsets, shared by all three plane kinds for the
// first 14 bytes.
const (
	CfgXWrap      = 0
	CfgYWrap      = 1
	CfgXPos       = 2
	CfgYPos       = 4
	CfgWidth      = 6
	CfgHeight     = 8
	CfgDataPtr    = 10
	CfgPalettePtr = 12
	// Character planes store a font pointer, tile planes a tile bitmap
	// pointer, in the same slot.
	CfgFontPtr = 14
	CfgTilePtr = 14
)

// Builder accumulates a bus trace, one transaction per cycle, using the
// same register idioms a firmware program would.
type Builder struct {
	trace []bus.Transaction
	cycle uint64
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Trace returns the accumulated transactions.
func (b *Builder) Trace() []bus.Transaction {
	return b.trace
}

// Write appends a single register write and advances one cycle.
func (b *Builder) Write(addr uint16, data uint8) {
	b.trace = append(b.trace, bus.Write(b.cycle, addr, data))
	b.cycle++
}

// SetAddr0 points XRAM portal 0 at addr.
func (b *Builder) SetAddr0(addr uint16) {
	b.Write(addrAddr0Lo, uint8(addr))
	b.Write(addrAddr0Hi, uint8(addr>>8))
}

// SetStep0 sets portal 0's signed auto-increment step.
func (b *Builder) SetStep0(step int8) {
	b.Write(addrStep0, uint8(step))
}

// SetAddr1 points XRAM portal 1 at addr.
func (b *Builder) SetAddr1(addr uint16) {
	b.Write(addrAddr1Lo, uint8(addr))
	b.Write(addrAddr1Hi, uint8(addr>>8))
}

// SetStep1 sets portal 1's signed auto-increment step.
func (b *Builder) SetStep1(step int8) {
	b.Write(addrStep1, uint8(step))
}

// XRAM0Write streams data into XRAM through portal 0, relying on the
// portal's auto-increment.
func (b *Builder) XRAM0Write(addr uint16, data []uint8) {
	b.SetAddr0(addr)
	for _, d := range data {
		b.Write(addrRW0, d)
	}
}

// XRAM0StructSet writes one struct field at base+offset through portal 0.
func (b *Builder) XRAM0StructSet(base, offset uint16, val []uint8) {
	b.XRAM0Write(base+offset, val)
}

// XRAM0SetU16 writes a little-endian 16-bit field at base+offset.
func (b *Builder) XRAM0SetU16(base, offset, val uint16) {
	b.XRAM0StructSet(base, offset, []uint8{uint8(val), uint8(val >> 8)})
}

// Xreg pushes an extended-register header and values onto the xstack and
// triggers the xreg operation. Each value pushes its high byte first so
// the downward-growing stack holds it little-endian.
func (b *Builder) Xreg(device, channel, start uint8, values ...uint16) {
	b.Write(addrXStack, device)
	b.Write(addrXStack, channel)
	b.Write(addrXStack, start)
	for _, v := range values {
		b.Write(addrXStack, uint8(v>>8))
		b.Write(addrXStack, uint8(v))
	}
	b.Write(addrOp, opXReg)
}

// XregVGACanvas selects a canvas preset on the video controller.
func (b *Builder) XregVGACanvas(preset uint16) {
	b.Xreg(1, 0, 0, preset)
}

// XregVGAMode programs a plane: mode, attribute, config pointer, plane
// index and scanline window, starting at register 1.
func (b *Builder) XregVGAMode(values ...uint16) {
	b.Xreg(1, 0, 1, values...)
}

// OpExit appends the exit operation that halts the feed loop.
func (b *Builder) OpExit() {
	b.Write(addrOp, 0xFF)
}

// WaitFrames advances the cycle counter far enough for n frame
// boundaries without emitting transactions.
func (b *Builder) WaitFrames(n int) {
	b.cycle += uint64(n) * 200_000
}
