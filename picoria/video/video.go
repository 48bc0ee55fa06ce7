// Package video holds the fixed-resolution display buffer shared between
// the VGA engine and the presentation layer, plus the RGBA pixel constants
// used across the renderers.
package video

import "sync"

const (
	// DisplayWidth is the fixed output width in pixels.
	DisplayWidth = 640
	// DisplayHeight is the fixed output height in pixels.
	DisplayHeight = 480
	// BytesPerPixel is the size of one RGBA pixel.
	BytesPerPixel = 4
	// DisplayBytes is the size of the whole display buffer.
	DisplayBytes = DisplayWidth * DisplayHeight * BytesPerPixel
)

// Canvas pixels travel through the renderers as packed RGBA words:
// R in bits 31:24, G in 23:16, B in 15:8, A in 7:0. Alpha is binary; a
// zero low byte means the pixel is transparent and must not overwrite
// whatever a lower plane drew.
const (
	RShift = 24
	GShift = 16
	BShift = 8
	AMask  = 0xFF
)

// RGBA packs four 8-bit channels into a canvas pixel.
func RGBA(r, g, b, a uint8) uint32 {
	return uint32(r)<<RShift | uint32(g)<<GShift | uint32(b)<<BShift | uint32(a)
}

// DisplayBuffer is the only state shared across the engine/presentation
// boundary. The VGA engine rewrites it wholesale once per frame; readers
// copy it out. The mutex is held only for whole-buffer copies.
type DisplayBuffer struct {
	mu  sync.Mutex
	pix [DisplayBytes]uint8
}

// NewDisplayBuffer returns a zeroed (all transparent black) buffer.
func NewDisplayBuffer() *DisplayBuffer {
	return &DisplayBuffer{}
}

// Publish replaces the entire buffer contents. The source must be exactly
// DisplayBytes long.
func (d *DisplayBuffer) Publish(rgba []uint8) {
	d.mu.Lock()
	copy(d.pix[:], rgba)
	d.mu.Unlock()
}

// Snapshot returns a copy of the current buffer contents.
func (d *DisplayBuffer) Snapshot() []uint8 {
	out := make([]uint8, DisplayBytes)
	d.mu.Lock()
	copy(out, d.pix[:])
	d.mu.Unlock()
	return out
}

// CopyTo copies the buffer into dst, which must be at least DisplayBytes
// long. Avoids an allocation for per-frame presentation reads.
func (d *DisplayBuffer) CopyTo(dst []uint8) {
	d.mu.Lock()
	copy(dst, d.pix[:])
	d.mu.Unlock()
}
