// Package vga implements the video controller: it consumes protocol
// events from the I/O controller, maintains its own extended-memory
// replica, and composites up to three graphics planes into the shared
// display buffer once per frame sync.
package vga

import (
	"log/slog"

	"github.com/retrobus/picoria/picoria/pix"
	"github.com/retrobus/picoria/picoria/video"
)

// Channel 0 extended registers.
const (
	xregCanvas = 0
	xregMode   = 1
)

// Canvas presets accepted by the CANVAS command.
const (
	canvasQVGA    = 1 // 320x240
	canvasWide320 = 2 // 320x180
	canvasVGA     = 3 // 640x480
	canvasWide640 = 4 // 640x360
)

// Engine is the video controller state machine. It owns its memory
// replica and plane table outright; the display buffer is the only state
// it shares, and only through whole-buffer publishes.
type Engine struct {
	xram    [xramSize]uint8
	planes  [3]*plane
	canvasW int
	canvasH int
	xregs   [8]uint16

	events  <-chan pix.Event
	replies chan<- pix.Reply
	display *video.DisplayBuffer

	frameCount uint8
	canvas     []uint32
	out        []uint8
}

// New returns an engine wired to the given event source and reply sink.
// The canvas starts at the full display resolution.
func New(events <-chan pix.Event, replies chan<- pix.Reply, display *video.DisplayBuffer) *Engine {
	return &Engine{
		canvasW: video.DisplayWidth,
		canvasH: video.DisplayHeight,
		events:  events,
		replies: replies,
		display: display,
		canvas:  make([]uint32, video.DisplayWidth*video.DisplayHeight),
		out:     make([]uint8, video.DisplayBytes),
	}
}

// Run consumes events until the channel closes. Call from a dedicated
// goroutine; closing the channel is the only stop signal.
func (e *Engine) Run() {
	for ev := range e.events {
		e.handleEvent(ev)
	}
}

func (e *Engine) handleEvent(ev pix.Event) {
	switch {
	case ev.XRAM != nil:
		e.xram[ev.XRAM.Addr] = ev.XRAM.Data
	case ev.Reg != nil:
		e.handleReg(*ev.Reg)
	case ev.Frame:
		e.renderFrame()
		e.frameCount++
		e.reply(pix.Reply{Kind: pix.ReplyVsync, Frame: 0x80 | e.frameCount&0x0F})
	}
}

// reply sends on the backchannel without blocking. A full channel drops
// the message; the consumer drains at frame pace and tolerates loss.
func (e *Engine) reply(r pix.Reply) {
	select {
	case e.replies <- r:
	default:
	}
}

// handleReg processes one extended-register write on channel 0. Registers
// 2-7 accumulate arguments; register 0 reconfigures the canvas and
// register 1 programs a plane from the accumulated arguments. Other
// channels carry display tweaks this model ignores.
func (e *Engine) handleReg(reg pix.RegWrite) {
	if reg.Channel != 0 {
		return
	}
	if int(reg.Register) < len(e.xregs) {
		e.xregs[reg.Register] = reg.Value
	}

	switch reg.Register {
	case xregCanvas:
		e.setCanvas(reg.Value)
		e.planes = [3]*plane{}
		e.xregs = [8]uint16{}
		e.reply(pix.Reply{Kind: pix.ReplyAck})
	case xregMode:
		if e.programPlane(reg.Value) {
			e.reply(pix.Reply{Kind: pix.ReplyAck})
		} else {
			e.reply(pix.Reply{Kind: pix.ReplyNak})
		}
		e.xregs = [8]uint16{}
	}
}

func (e *Engine) setCanvas(preset uint16) {
	switch preset {
	case canvasQVGA:
		e.canvasW, e.canvasH = 320, 240
	case canvasWide320:
		e.canvasW, e.canvasH = 320, 180
	case canvasVGA:
		e.canvasW, e.canvasH = 640, 480
	case canvasWide640:
		e.canvasW, e.canvasH = 640, 360
	default:
		e.canvasW, e.canvasH = 640, 480
	}
	slog.Debug("Canvas configured", "width", e.canvasW, "height", e.canvasH)
}

// programPlane installs a plane from the accumulated arguments: attribute
// code, config pointer, plane index, and scanline window. Reports whether
// the arguments formed a valid plane.
func (e *Engine) programPlane(mode uint16) bool {
	attr := e.xregs[2]
	configPtr := e.xregs[3]
	planeIdx := int(e.xregs[4])

	if planeIdx >= len(e.planes) || configPtr&1 != 0 {
		return false
	}

	p := &plane{
		configPtr:     configPtr,
		scanlineBegin: e.xregs[5],
		scanlineEnd:   e.xregs[6],
	}

	switch mode {
	case modeText:
		if int(configPtr)+16 > xramSize {
			return false
		}
		f, ok := textFormatFromAttr(attr)
		if !ok {
			return false
		}
		p.kind, p.textFormat = planeText, f
	case modeTile:
		if int(configPtr)+16 > xramSize {
			return false
		}
		f, ok := tileFormatFromAttr(attr)
		if !ok {
			return false
		}
		p.kind, p.tileFormat = planeTile, f
	case modeBitmap:
		if int(configPtr)+14 > xramSize {
			return false
		}
		f, ok := bitmapFormatFromAttr(attr)
		if !ok {
			return false
		}
		p.kind, p.bitmapFormat = planeBitmap, f
	default:
		slog.Warn("Unknown graphics mode requested", "mode", mode)
		return false
	}

	e.planes[planeIdx] = p
	return true
}

// renderFrame composites all live planes into the canvas and publishes
// the upscaled result. Plane configs are chased fresh from the replica
// inside each renderer, so writes since programming take effect here.
func (e *Engine) renderFrame() {
	w, h := e.canvasW, e.canvasH
	canvas := e.canvas[:w*h]
	for i := range canvas {
		canvas[i] = 0
	}

	for _, p := range e.planes {
		if p == nil {
			continue
		}
		switch p.kind {
		case planeText:
			renderText(p, &e.xram, canvas, w, h)
		case planeTile:
			renderTile(p, &e.xram, canvas, w, h)
		case planeBitmap:
			renderBitmap(p, &e.xram, canvas, w, h)
		}
	}

	upscale(canvas, w, h, e.out)
	e.display.Publish(e.out)
}
