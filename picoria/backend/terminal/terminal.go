// Package terminal renders the display in a terminal using tcell. Each
// character cell shows two vertically stacked pixels via the upper
// half-block rune, with true-color foreground and background.
package terminal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/retrobus/picoria/picoria/backend"
	"github.com/retrobus/picoria/picoria/debug"
	"github.com/retrobus/picoria/picoria/video"
)

const frameTime = time.Second / 60

// Backend implements the Backend interface using tcell for terminal
// rendering.
type Backend struct {
	screen    tcell.Screen
	running   bool
	config    backend.Config
	prevLog   *slog.Logger
	lastFrame time.Time
	frame     []uint8
}

// New creates a new terminal backend.
func New() *Backend {
	return &Backend{}
}

// Init sets up the tcell screen and silences the default logger; log lines
// written to stderr would corrupt the terminal UI.
func (t *Backend) Init(config backend.Config) error {
	t.config = config

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	t.screen = screen
	t.running = true
	t.frame = make([]uint8, video.DisplayBytes)

	t.prevLog = slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleSignals()

	return nil
}

// Update polls input, draws the current frame and paces to 60 Hz.
func (t *Backend) Update(display *video.DisplayBuffer) (bool, error) {
	for t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		t.processEvent(ev, display)
	}

	if !t.running {
		return true, nil
	}

	display.CopyTo(t.frame)
	t.drawFrame()
	t.drawHelp()
	t.screen.Show()

	elapsed := time.Since(t.lastFrame)
	if elapsed < frameTime {
		time.Sleep(frameTime - elapsed)
	}
	t.lastFrame = time.Now()

	return false, nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	if t.prevLog != nil {
		slog.SetDefault(t.prevLog)
	}
	return nil
}

func (t *Backend) processEvent(ev tcell.Event, display *video.DisplayBuffer) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		switch {
		case e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC:
			t.running = false
		case e.Key() == tcell.KeyF12:
			t.saveSnapshot(display)
		case e.Key() == tcell.KeyRune && (e.Rune() == 'q' || e.Rune() == 'Q'):
			t.running = false
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func (t *Backend) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	t.running = false
}

func (t *Backend) saveSnapshot(display *video.DisplayBuffer) {
	name := t.config.TraceName
	if name == "" {
		name = "frame"
	}
	// Errors are invisible here anyway with logging discarded.
	_, _ = debug.SavePNG(display, name, "")
}

// drawFrame samples the display down to the terminal size. Each cell row
// covers two sample rows, top pixel in the foreground of '▀' and bottom
// pixel in the background.
func (t *Backend) drawFrame() {
	termWidth, termHeight := t.screen.Size()
	if termHeight > 1 {
		termHeight-- // bottom line is the help bar
	}
	if termWidth <= 0 || termHeight <= 0 {
		return
	}

	rows := termHeight * 2
	for cy := 0; cy < termHeight; cy++ {
		topY := cy * 2 * video.DisplayHeight / rows
		botY := (cy*2 + 1) * video.DisplayHeight / rows
		for cx := 0; cx < termWidth; cx++ {
			sx := cx * video.DisplayWidth / termWidth
			style := tcell.StyleDefault.
				Foreground(t.pixelColor(sx, topY)).
				Background(t.pixelColor(sx, botY))
			t.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}
}

func (t *Backend) pixelColor(x, y int) tcell.Color {
	off := (y*video.DisplayWidth + x) * video.BytesPerPixel
	if t.frame[off+3] == 0 {
		return tcell.ColorBlack
	}
	return tcell.NewRGBColor(int32(t.frame[off]), int32(t.frame[off+1]), int32(t.frame[off+2]))
}

func (t *Backend) drawHelp() {
	termWidth, termHeight := t.screen.Size()
	helpText := " F12=snapshot ESC/q=exit "
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkBlue)
	for i, ch := range helpText {
		if i < termWidth {
			t.screen.SetContent(i, termHeight-1, ch, nil, style)
		}
	}
}
