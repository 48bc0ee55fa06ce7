// Package backend defines the presentation interface. A backend receives
// the shared display buffer once per frame sync and draws it somewhere: a
// window, a terminal, or PNG files on disk.
package backend

import "github.com/retrobus/picoria/picoria/video"

// Config holds presentation settings shared by all backends.
type Config struct {
	// Title is shown on windowed backends.
	Title string
	// TraceName labels snapshot files, usually the trace file's base name.
	TraceName string
}

// Backend presents display frames. Init is called once before the first
// Update and Cleanup once after the last.
type Backend interface {
	Init(config Config) error
	// Update presents the current frame. done reports that the backend
	// wants the run to stop (window closed, quit key, frame budget hit).
	Update(display *video.DisplayBuffer) (done bool, err error)
	Cleanup() error
}
