package debug

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/retrobus/picoria/picoria/bus"
)

type dumpStyles struct {
	cycle  lipgloss.Style
	portal lipgloss.Style
	stack  lipgloss.Style
	op     lipgloss.Style
	mem    lipgloss.Style
}

func newDumpStyles() dumpStyles {
	return dumpStyles{
		cycle:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)),
		portal: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)),
		stack:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(5)),
		op:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3)),
		mem:    lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(7)),
	}
}

var regNames = map[uint8]string{
	0x00: "UART_STAT",
	0x01: "UART_TX",
	0x02: "UART_RX",
	0x03: "VSYNC",
	0x04: "RW0",
	0x05: "STEP0",
	0x06: "ADDR0_LO",
	0x07: "ADDR0_HI",
	0x08: "RW1",
	0x09: "STEP1",
	0x0A: "ADDR1_LO",
	0x0B: "ADDR1_HI",
	0x0C: "XSTACK",
	0x0D: "ERRNO_LO",
	0x0E: "ERRNO_HI",
	0x0F: "OP",
	0x10: "IRQ",
}

// DumpTrace writes a styled, annotated listing of a bus trace. Register
// window accesses get their register name; everything else is plain
// memory traffic.
func DumpTrace(w io.Writer, trace []bus.Transaction) {
	styles := newDumpStyles()

	for _, t := range trace {
		dir := "W"
		if t.Read {
			dir = "R"
		}
		line := fmt.Sprintf("%10d  %s $%04X %02X", t.Cycle, dir, t.Addr, t.Data)

		var annotated string
		if t.HitsRegisters() {
			reg := t.RegIndex()
			name, ok := regNames[reg]
			if !ok {
				name = fmt.Sprintf("REG_%02X", reg)
			}
			switch reg {
			case 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B:
				annotated = styles.portal.Render(fmt.Sprintf("%s  %s", line, name))
			case 0x0C:
				annotated = styles.stack.Render(fmt.Sprintf("%s  %s", line, name))
			case 0x0F:
				annotated = styles.op.Render(fmt.Sprintf("%s  %s %s", line, name, opName(t.Data)))
			default:
				annotated = styles.mem.Render(fmt.Sprintf("%s  %s", line, name))
			}
		} else {
			annotated = styles.cycle.Render(line)
		}
		fmt.Fprintln(w, annotated)
	}
}

func opName(code uint8) string {
	switch code {
	case 0x00:
		return "(zxstack)"
	case 0x01:
		return "(xreg)"
	case 0xFF:
		return "(exit)"
	default:
		return "(enosys)"
	}
}
