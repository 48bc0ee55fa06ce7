// Package picoria wires the two controller engines into a runnable
// machine: the RIA consumes bus transactions on the caller's goroutine,
// the VGA runs its event loop on its own, and the display buffer is the
// only state they share with the outside.
package picoria

import (
	"log/slog"

	"github.com/retrobus/picoria/picoria/backend"
	"github.com/retrobus/picoria/picoria/bus"
	"github.com/retrobus/picoria/picoria/pix"
	"github.com/retrobus/picoria/picoria/ria"
	"github.com/retrobus/picoria/picoria/vga"
	"github.com/retrobus/picoria/picoria/video"
)

// replyBuffer bounds the backchannel. The RIA drains it once per frame
// boundary and the VGA side drops rather than blocks, so a small buffer
// is enough.
const replyBuffer = 64

// Machine owns both engines and the channels between them.
type Machine struct {
	RIA     *ria.Engine
	Display *video.DisplayBuffer

	queue *pix.Queue
	vga   *vga.Engine
	done  chan struct{}
}

// New builds a machine and starts the VGA event loop goroutine.
func New() *Machine {
	queue := pix.NewQueue()
	replies := make(chan pix.Reply, replyBuffer)
	display := video.NewDisplayBuffer()

	m := &Machine{
		RIA:     ria.New(queue, replies),
		Display: display,
		queue:   queue,
		vga:     vga.New(queue.Events(), replies, display),
		done:    make(chan struct{}),
	}
	go func() {
		m.vga.Run()
		close(m.done)
	}()
	return m
}

// Feed processes transactions in order until the trace ends or the RIA
// halts. Returns the number of transactions consumed.
func (m *Machine) Feed(trace []bus.Transaction) int {
	n := 0
	for _, t := range trace {
		if !m.RIA.Running() {
			break
		}
		m.RIA.Process(t)
		n++
	}
	return n
}

// Close stops the event channel and waits for the VGA loop to drain the
// remaining events and exit. The display buffer keeps the last published
// frame.
func (m *Machine) Close() {
	m.queue.Close()
	<-m.done
}

// Run replays a whole trace and shuts the machine down.
func (m *Machine) Run(trace []bus.Transaction) int {
	n := m.Feed(trace)
	m.Close()
	slog.Debug("Trace replay finished", "consumed", n, "total", len(trace))
	return n
}

// Present replays the trace against a backend, presenting the display
// after every frame boundary. Once the trace is exhausted (or the RIA
// halts) the machine shuts down and the final frame keeps being presented
// until the backend signals done. The render pipeline is asynchronous, so
// each presentation trails the boundary that triggered it by up to one
// frame; the post-shutdown presentations always show the completed last
// frame.
func (m *Machine) Present(trace []bus.Transaction, b backend.Backend, cfg backend.Config) error {
	if err := b.Init(cfg); err != nil {
		return err
	}
	defer b.Cleanup()

	boundary := uint64(ria.CyclesPerFrame)
	for _, t := range trace {
		if !m.RIA.Running() {
			break
		}
		m.RIA.Process(t)
		if t.Cycle >= boundary {
			boundary += ria.CyclesPerFrame
			done, err := b.Update(m.Display)
			if err != nil || done {
				m.Close()
				return err
			}
		}
	}
	m.Close()

	for {
		done, err := b.Update(m.Display)
		if err != nil || done {
			return err
		}
	}
}
