// Package bus defines the bus transaction value type consumed by the RIA
// engine. Transactions are produced externally (a trace file or a synthetic
// generator) and replayed in cycle order; the emulator never executes code.
package bus

// RegWindowBase is the first address of the RIA register window. The 32
// registers occupy $FFE0-$FFFF.
const RegWindowBase = 0xFFE0

// Transaction is a single bus access: one byte moving to or from an address
// at a given PHI2 cycle. Immutable once created.
type Transaction struct {
	Cycle uint64
	Addr  uint16
	Data  uint8
	// Read is true when the host CPU is reading from the bus, false when
	// writing to it.
	Read bool
}

// Write creates a write transaction.
func Write(cycle uint64, addr uint16, data uint8) Transaction {
	return Transaction{Cycle: cycle, Addr: addr, Data: data}
}

// Read creates a read transaction.
func Read(cycle uint64, addr uint16, data uint8) Transaction {
	return Transaction{Cycle: cycle, Addr: addr, Data: data, Read: true}
}

// HitsRegisters reports whether the transaction targets the RIA register
// window.
func (t Transaction) HitsRegisters() bool {
	return t.Addr >= RegWindowBase
}

// RegIndex returns the register index (0-31) for a transaction inside the
// register window.
func (t Transaction) RegIndex() uint8 {
	return uint8(t.Addr & 0x1F)
}
