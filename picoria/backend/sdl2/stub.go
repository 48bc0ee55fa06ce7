//go:build !sdl2

package sdl2

import (
	"fmt"

	"github.com/retrobus/picoria/picoria/backend"
	"github.com/retrobus/picoria/picoria/video"
)

// Backend stub for when SDL2 is not available.
type Backend struct{}

// New creates a stub SDL2 backend that returns an error.
func New() *Backend {
	return &Backend{}
}

// Init returns an error indicating SDL2 is not available.
func (s *Backend) Init(config backend.Config) error {
	return fmt.Errorf("SDL2 backend not available - build with -tags sdl2 to enable")
}

// Update returns an error.
func (s *Backend) Update(display *video.DisplayBuffer) (bool, error) {
	return true, fmt.Errorf("SDL2 backend not available")
}

// Cleanup does nothing.
func (s *Backend) Cleanup() error {
	return nil
}
