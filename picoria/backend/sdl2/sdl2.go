//go:build sdl2

package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/retrobus/picoria/picoria/backend"
	"github.com/retrobus/picoria/picoria/debug"
	"github.com/retrobus/picoria/picoria/video"
)

const pixelScale = 2

// Backend implements the Backend interface using SDL2 bindings.
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stubbed renderer, see build tags (sdl2)
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	running  bool
	config   backend.Config
	frame    []uint8
}

// New creates a new SDL2 backend.
func New() *Backend {
	return &Backend{}
}

// Init initializes the SDL2 backend.
func (s *Backend) Init(config backend.Config) error {
	s.config = config

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %v", err)
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		video.DisplayWidth*pixelScale,
		video.DisplayHeight*pixelScale,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %v", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create renderer: %v", err)
	}
	s.renderer = renderer

	// ABGR8888 matches the byte-wise RGBA layout the display buffer uses
	// on little-endian hosts.
	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.DisplayWidth,
		video.DisplayHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create texture: %v", err)
	}
	s.texture = texture

	s.frame = make([]uint8, video.DisplayBytes)
	s.running = true

	slog.Info("SDL2 backend initialized")
	return nil
}

// Update renders a frame and processes window events.
func (s *Backend) Update(display *video.DisplayBuffer) (bool, error) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		s.handleEvent(event, display)
	}

	if !s.running {
		return true, nil
	}

	display.CopyTo(s.frame)
	if err := s.texture.Update(nil, unsafe.Pointer(&s.frame[0]), video.DisplayWidth*video.BytesPerPixel); err != nil {
		return false, fmt.Errorf("failed to update texture: %v", err)
	}

	s.renderer.SetDrawColor(0, 0, 0, 255)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()

	return false, nil
}

// Cleanup releases SDL2 resources.
func (s *Backend) Cleanup() error {
	slog.Info("Cleaning up SDL2 backend")

	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()

	return nil
}

func (s *Backend) handleEvent(event sdl.Event, display *video.DisplayBuffer) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		s.running = false

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN {
			return
		}
		switch e.Keysym.Sym {
		case sdl.K_ESCAPE, sdl.K_q:
			s.running = false
		case sdl.K_F12:
			s.saveSnapshot(display)
		}
	}
}

func (s *Backend) saveSnapshot(display *video.DisplayBuffer) {
	name := s.config.TraceName
	if name == "" {
		name = "frame"
	}
	if _, err := debug.SavePNG(display, name, ""); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
}
