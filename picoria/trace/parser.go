package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/retrobus/picoria/picoria/bus"
)

// Parse reads a text trace: one transaction per line as
//
//	<cycle> R|W <addr-hex> <data-hex>
//
// Blank lines and lines starting with # are skipped. Cycles must be
// non-decreasing.
func Parse(r io.Reader) ([]bus.Transaction, error) {
	var (
		out     []bus.Transaction
		lastCyc uint64
		lineNum int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d", lineNum, len(fields))
		}

		cycle, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad cycle %q: %v", lineNum, fields[0], err)
		}
		if len(out) > 0 && cycle < lastCyc {
			return nil, fmt.Errorf("line %d: cycle %d goes backwards (previous %d)", lineNum, cycle, lastCyc)
		}
		lastCyc = cycle

		var read bool
		switch fields[1] {
		case "R":
			read = true
		case "W":
		default:
			return nil, fmt.Errorf("line %d: direction must be R or W, got %q", lineNum, fields[1])
		}

		addr, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 16)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad address %q: %v", lineNum, fields[2], err)
		}
		data, err := strconv.ParseUint(strings.TrimPrefix(fields[3], "0x"), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad data %q: %v", lineNum, fields[3], err)
		}

		t := bus.Transaction{Cycle: cycle, Addr: uint16(addr), Data: uint8(data), Read: read}
		out = append(out, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %v", err)
	}
	return out, nil
}

// ParseFile parses a trace file from disk.
func ParseFile(path string) ([]bus.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %v", err)
	}
	defer f.Close()
	return Parse(f)
}

// Format writes transactions in the text trace format.
func Format(w io.Writer, trace []bus.Transaction) error {
	for _, t := range trace {
		dir := "W"
		if t.Read {
			dir = "R"
		}
		if _, err := fmt.Fprintf(w, "%d %s %04X %02X\n", t.Cycle, dir, t.Addr, t.Data); err != nil {
			return err
		}
	}
	return nil
}
