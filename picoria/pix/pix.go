// Package pix implements the inter-controller message protocol between the
// RIA and VGA engines: the 32-bit wire codec, the event and backchannel
// types, and the unbounded FIFO queue that carries them.
//
// A hardware PIX frame packs into 32 bits:
//
//	[31:29] device  [28] framing  [27:24] channel  [23:16] register  [15:0] value
//
// Bit 28 is the valid-frame marker; a word with it clear is the idle frame
// and decodes to nothing.
package pix

// framingBit marks a valid PIX frame. The all-zero word is the bus idle
// state.
const framingBit = 0x10000000

// XRAMWrite mirrors one extended-memory store to the VGA replica
// (device 0, channel 0 broadcast).
type XRAMWrite struct {
	Addr uint16
	Data uint8
}

// RegWrite carries one extended-register value to a device channel.
type RegWrite struct {
	Channel  uint8
	Register uint8
	Value    uint16
}

// Event is one message on the RIA to VGA channel. Exactly one of the
// variants is active: an XRAM write, a register write, or a frame sync.
type Event struct {
	XRAM  *XRAMWrite
	Reg   *RegWrite
	Frame bool
}

// Backchannel reply kinds, VGA to RIA.
type ReplyKind int

const (
	ReplyVsync ReplyKind = iota
	ReplyAck
	ReplyNak
)

// Reply is one backchannel message. Vsync carries the frame parity byte.
type Reply struct {
	Kind  ReplyKind
	Frame uint8
}

// Pack encodes a PIX message into the 32-bit hardware format. Device and
// channel are masked to their field widths.
func Pack(device, channel, register uint8, value uint16) uint32 {
	return framingBit |
		uint32(device&0x7)<<29 |
		uint32(channel&0xF)<<24 |
		uint32(register)<<16 |
		uint32(value)
}

// Unpack decodes a 32-bit PIX word. ok is false exactly when the framing
// bit is clear (the idle frame).
func Unpack(raw uint32) (device, channel, register uint8, value uint16, ok bool) {
	if raw&framingBit == 0 {
		return 0, 0, 0, 0, false
	}
	device = uint8(raw >> 29 & 0x7)
	channel = uint8(raw >> 24 & 0xF)
	register = uint8(raw >> 16 & 0xFF)
	value = uint16(raw)
	return device, channel, register, value, true
}

// PackXRAM encodes an XRAM write. The hardware reuses the register field
// for the data byte and the value field for the 16-bit address; this field
// inversion is part of the wire contract.
func PackXRAM(addr uint16, data uint8) uint32 {
	return Pack(0, 0, data, addr)
}
