// Package headless runs the display loop without any output device, for
// automated testing and batch trace replay. It can save PNG snapshots of
// the display at a fixed frame interval.
package headless

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/retrobus/picoria/picoria/backend"
	"github.com/retrobus/picoria/picoria/debug"
	"github.com/retrobus/picoria/picoria/video"
)

// SnapshotConfig holds configuration for periodic frame snapshots.
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save a snapshot every N frames
	Directory string // Directory to save snapshots into
}

// Backend implements the Backend interface with no presentation output.
type Backend struct {
	config     backend.Config
	frameCount int
	maxFrames  int
	snapshot   SnapshotConfig
}

func New(maxFrames int, snapshot SnapshotConfig) *Backend {
	return &Backend{
		maxFrames: maxFrames,
		snapshot:  snapshot,
	}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshot.Interval,
		"snapshot_dir", h.snapshot.Directory)

	return nil
}

// Update counts the frame, saves a snapshot when the interval is due and
// signals done once the frame budget is reached.
func (h *Backend) Update(display *video.DisplayBuffer) (bool, error) {
	h.frameCount++

	if h.snapshot.Enabled && h.frameCount%h.snapshot.Interval == 0 {
		h.saveSnapshot(display)
	}

	if h.frameCount%10 == 0 {
		slog.Info("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.frameCount >= h.maxFrames {
		// Save a final snapshot unless the interval just produced one.
		if h.snapshot.Enabled && h.frameCount%h.snapshot.Interval != 0 {
			h.saveSnapshot(display)
		}

		if h.snapshot.Enabled {
			slog.Info("Headless run completed", "frames", h.maxFrames, "snapshots_saved_to", h.snapshot.Directory)
		} else {
			slog.Info("Headless run completed", "frames", h.maxFrames)
		}
		return true, nil
	}

	return false, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// FrameCount returns the number of frames presented so far.
func (h *Backend) FrameCount() int {
	return h.frameCount
}

func (h *Backend) saveSnapshot(display *video.DisplayBuffer) {
	name := h.config.TraceName
	if name == "" {
		name = "frame"
	}
	baseName := fmt.Sprintf("%s_frame_%06d", name, h.frameCount)

	path, err := debug.SavePNG(display, baseName, h.snapshot.Directory)
	if err != nil {
		slog.Error("Failed to save snapshot", "frame", h.frameCount, "error", err)
		return
	}
	slog.Debug("Snapshot saved", "frame", h.frameCount, "path", path)
}

// CreateSnapshotConfig builds a snapshot configuration from CLI parameters,
// creating the target directory as needed. An interval of zero disables
// snapshots entirely.
func CreateSnapshotConfig(interval int, directory string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "picoria-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %v", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %v", err)
		}
		config.Directory = directory
	}

	return config, nil
}
