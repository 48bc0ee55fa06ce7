// Package ria emulates the RIA I/O controller. The engine consumes bus
// transactions in cycle order, owns the 32-byte register file, the 64KB
// extended RAM and the 512-byte xstack, and forwards every XRAM write and
// every accumulated extended-register write to the video controller over
// the PIX channel.
package ria

import (
	"log/slog"

	"github.com/retrobus/picoria/picoria/bit"
	"github.com/retrobus/picoria/picoria/bus"
	"github.com/retrobus/picoria/picoria/pix"
)

// Register indices within the $FFE0-$FFFF window.
const (
	regUARTStat = 0x00
	regUARTTx   = 0x01
	regUARTRx   = 0x02
	regVsync    = 0x03
	regRW0      = 0x04
	regStep0    = 0x05
	regAddr0Lo  = 0x06
	regAddr0Hi  = 0x07
	regRW1      = 0x08
	regStep1    = 0x09
	regAddr1Lo  = 0x0A
	regAddr1Hi  = 0x0B
	regXStack   = 0x0C
	regOp       = 0x0F
	regIRQ      = 0x10
	regA        = 0x14
	regX        = 0x16
)

// UART status register bits.
const (
	uartStatTxBit = 7 // TX ready
	uartStatRxBit = 6 // RX data available
)

// Operation opcodes written to the OP register.
const (
	OpZeroStack = 0x00
	OpXReg      = 0x01
	OpExit      = 0xFF
)

const (
	// xstackSize is the usable stack depth. One guard byte beyond it stays
	// zero so that popping an empty stack reads the zero sentinel.
	xstackSize = 0x200

	phi2Freq     = 8_000_000
	framesPerSec = 60

	// CyclesPerFrame is the PHI2 cycle count between frame syncs.
	CyclesPerFrame = phi2Freq / framesPerSec

	// errNotImplemented is the -1 result returned for unknown operations
	// and malformed xreg calls.
	errNotImplemented = 0xFFFF
)

// Engine is the RIA state machine. Not safe for concurrent use; a single
// goroutine feeds it transactions.
type Engine struct {
	regs   [32]uint8
	xram   [65536]uint8
	xstack [xstackSize + 1]uint8

	// xstackPtr starts at xstackSize (empty) and decrements on push.
	xstackPtr int

	irqEnabled uint8
	// irqPin is true when the line is high (inactive).
	irqPin bool

	cycleCount uint64
	nextFrame  uint64

	events  *pix.Queue
	replies <-chan pix.Reply

	running bool
}

// New creates an engine wired to the PIX event queue and the reply
// backchannel, reset to power-on defaults.
func New(events *pix.Queue, replies <-chan pix.Reply) *Engine {
	e := &Engine{
		events:    events,
		replies:   replies,
		nextFrame: CyclesPerFrame,
	}
	e.Reset()
	return e
}

// Reset restores the power-on register defaults. The VSYNC counter is the
// one register that survives reset.
func (e *Engine) Reset() {
	for i := 0; i < 16; i++ {
		if i != regVsync {
			e.regs[i] = 0
		}
	}
	e.regs[regStep0] = 1
	e.regs[regRW0] = e.xram[0]
	e.regs[regStep1] = 1
	e.regs[regRW1] = e.xram[0]
	e.xstackPtr = xstackSize
	e.irqEnabled = 0
	e.irqPin = true
	e.running = true
}

// Running reports whether the transaction feed should continue. It goes
// false after the exit operation or when the backchannel disconnects.
func (e *Engine) Running() bool {
	return e.running
}

// IRQAsserted reports whether the interrupt line is pulled low.
func (e *Engine) IRQAsserted() bool {
	return !e.irqPin
}

// XRAM returns the byte at addr in the engine's authoritative memory copy.
func (e *Engine) XRAM(addr uint16) uint8 {
	return e.xram[addr]
}

// Portal address/step accessors. ADDR registers hold little-endian 16-bit
// addresses; STEP registers are signed bytes.

func (e *Engine) addr0() uint16 {
	return bit.Combine(e.regs[regAddr0Hi], e.regs[regAddr0Lo])
}

func (e *Engine) setAddr0(v uint16) {
	e.regs[regAddr0Lo] = bit.Low(v)
	e.regs[regAddr0Hi] = bit.High(v)
}

func (e *Engine) step0() int8 {
	return int8(e.regs[regStep0])
}

func (e *Engine) addr1() uint16 {
	return bit.Combine(e.regs[regAddr1Hi], e.regs[regAddr1Lo])
}

func (e *Engine) setAddr1(v uint16) {
	e.regs[regAddr1Lo] = bit.Low(v)
	e.regs[regAddr1Hi] = bit.High(v)
}

func (e *Engine) step1() int8 {
	return int8(e.regs[regStep1])
}

// refreshPortals reloads RW0 and RW1 from XRAM. The hardware action loop
// does this continuously; here it happens once per transaction, before
// dispatch.
func (e *Engine) refreshPortals() {
	e.regs[regRW0] = e.xram[e.addr0()]
	e.regs[regRW1] = e.xram[e.addr1()]
}

// Process applies a single bus transaction and returns the byte a reader
// would observe on the data bus. Transactions outside the register window
// pass through unchanged.
func (e *Engine) Process(t bus.Transaction) uint8 {
	e.cycleCount = t.Cycle

	if e.cycleCount >= e.nextFrame {
		e.nextFrame += CyclesPerFrame
		e.events.Send(pix.Event{Frame: true})
		e.drainReplies()
	}

	e.refreshPortals()

	if !t.HitsRegisters() {
		return t.Data
	}

	if t.Read {
		return e.read(t.RegIndex())
	}
	e.write(t.RegIndex(), t.Data)
	return t.Data
}

// drainReplies empties the backchannel. Vsync updates the exposed counter
// and asserts the interrupt line when enabled; Ack and Nak are accepted
// without further effect. A closed backchannel stops the engine.
func (e *Engine) drainReplies() {
	for {
		select {
		case r, ok := <-e.replies:
			if !ok {
				e.running = false
				return
			}
			switch r.Kind {
			case pix.ReplyVsync:
				e.regs[regVsync] = r.Frame
				if bit.IsSet(0, e.irqEnabled) {
					e.irqPin = false
				}
			case pix.ReplyAck, pix.ReplyNak:
				// Programming replies are not tracked in this model; they
				// may arrive late or not at all before the next command.
			}
		default:
			return
		}
	}
}

func (e *Engine) write(reg, data uint8) {
	switch reg {
	case regUARTTx:
		// No UART behind the register; TX always reports ready.
		e.regs[regUARTStat] = bit.Set(uartStatTxBit, e.regs[regUARTStat])

	case regRW0:
		addr := e.addr0()
		e.xram[addr] = data
		e.events.Send(pix.Event{XRAM: &pix.XRAMWrite{Addr: addr, Data: data}})
		e.setAddr0(addr + uint16(int16(e.step0())))

	case regRW1:
		addr := e.addr1()
		e.xram[addr] = data
		e.events.Send(pix.Event{XRAM: &pix.XRAMWrite{Addr: addr, Data: data}})
		e.setAddr1(addr + uint16(int16(e.step1())))

	case regXStack:
		if e.xstackPtr > 0 {
			e.xstackPtr--
			e.xstack[e.xstackPtr] = data
		}
		e.regs[regXStack] = e.xstack[e.xstackPtr]

	case regOp:
		e.regs[regOp] = data
		e.op(data)

	case regIRQ:
		e.irqEnabled = data
		e.irqPin = true

	default:
		e.regs[reg] = data
	}
}

func (e *Engine) read(reg uint8) uint8 {
	switch reg {
	case regUARTStat:
		e.regs[regUARTStat] = bit.Set(uartStatTxBit, e.regs[regUARTStat])   // TX ready
		e.regs[regUARTStat] = bit.Clear(uartStatRxBit, e.regs[regUARTStat]) // no RX data
		return e.regs[regUARTStat]

	case regUARTRx:
		e.regs[regUARTStat] = bit.Clear(uartStatRxBit, e.regs[regUARTStat])
		e.regs[regUARTRx] = 0
		return 0

	case regRW0:
		// Value was refreshed before dispatch; advance after the read.
		v := e.regs[regRW0]
		e.setAddr0(e.addr0() + uint16(int16(e.step0())))
		return v

	case regRW1:
		v := e.regs[regRW1]
		e.setAddr1(e.addr1() + uint16(int16(e.step1())))
		return v

	case regXStack:
		// The bus sees the current register value; the pointer and the
		// register then move to the next entry. Popping empty repeatedly
		// returns the guard byte's zero sentinel.
		v := e.regs[regXStack]
		if e.xstackPtr < xstackSize {
			e.xstackPtr++
		}
		e.regs[regXStack] = e.xstack[e.xstackPtr]
		return v

	case regIRQ:
		e.irqPin = true
		return e.regs[regIRQ]

	default:
		return e.regs[reg]
	}
}

// op dispatches an operation opcode written to the OP register.
func (e *Engine) op(code uint8) {
	switch code {
	case OpZeroStack:
		e.regs[regXStack] = 0
		e.xstackPtr = xstackSize
		e.returnAX(0)

	case OpXReg:
		e.xreg()

	case OpExit:
		slog.Debug("exit operation, stopping transaction feed")
		e.running = false

	default:
		e.returnAX(errNotImplemented)
	}
}

// xreg sends the xstack contents to a PIX device as register writes.
//
// Stack layout, pushed top-down: device, channel, start register, then an
// even, nonzero number of bytes forming little-endian u16 values. The
// first-pushed value belongs to the lowest register. Values are emitted in
// descending register order so that the receiver sees every accompanying
// value before the specially-treated lowest register arrives.
func (e *Engine) xreg() {
	if e.xstackPtr >= xstackSize-3 {
		e.returnAX(errNotImplemented)
		return
	}

	device := e.xstack[xstackSize-1]
	channel := e.xstack[xstackSize-2]
	start := e.xstack[xstackSize-3]
	dataBytes := xstackSize - e.xstackPtr - 3

	if dataBytes < 2 || dataBytes%2 != 0 || device > 7 || channel > 15 {
		e.returnAX(errNotImplemented)
		return
	}

	count := dataBytes / 2
	for i := count - 1; i >= 0; i-- {
		off := e.xstackPtr + (count-1-i)*2
		value := bit.Combine(e.xstack[off+1], e.xstack[off])
		e.events.Send(pix.Event{Reg: &pix.RegWrite{
			Channel:  channel,
			Register: start + uint8(i),
			Value:    value,
		}})
	}

	e.xstackPtr = xstackSize
	e.returnAX(0)
}

// returnAX releases a blocked operation with a 16-bit result. The hardware
// patches the caller's register window with a code sequence (NOP, BRA +0,
// LDA #lo, LDX #hi, RTS); the pattern is reproduced so that traces recorded
// against real firmware observe identical register bytes.
func (e *Engine) returnAX(val uint16) {
	e.regs[regIRQ+0] = 0xEA
	e.regs[regIRQ+1] = 0x80
	e.regs[regIRQ+2] = 0x00
	e.regs[regIRQ+3] = 0xA9
	e.regs[regA] = uint8(val)
	e.regs[regA+1] = 0xA2
	e.regs[regX] = uint8(val >> 8)
	e.regs[regX+1] = 0x60
	e.regs[regXStack] = e.xstack[e.xstackPtr]
}
