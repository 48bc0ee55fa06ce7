// Package debug holds inspection helpers: PNG snapshots of the display
// buffer and a styled trace listing for the terminal.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/retrobus/picoria/picoria/video"
)

// SavePNG writes the display buffer to a timestamped PNG in directory
// (the working directory when empty) and returns the file path.
func SavePNG(display *video.DisplayBuffer, baseName, directory string) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, video.DisplayWidth, video.DisplayHeight))
	display.CopyTo(img.Pix)

	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %v", err)
		}
		directory = cwd
	}

	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(directory, fmt.Sprintf("%s_%s.png", baseName, timestamp))

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %v", filePath, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %v", err)
	}

	slog.Info("Snapshot saved", "path", filePath,
		"size", fmt.Sprintf("%dx%d", video.DisplayWidth, video.DisplayHeight))
	return filePath, nil
}
