package vga

import "github.com/retrobus/picoria/picoria/video"

// upscale replicates the canvas into the fixed-size display byte buffer
// using integer nearest-neighbor factors derived from the canvas size:
// 2x per axis for the 320-wide presets, 1x for 640-wide. The buffer is
// cleared first, so 16:9 presets leave their letterbox region black.
func upscale(canvas []uint32, canvasW, canvasH int, display []uint8) {
	sx := video.DisplayWidth / canvasW
	sy := video.DisplayHeight / canvasH

	for i := range display {
		display[i] = 0
	}

	for cy := 0; cy < canvasH; cy++ {
		for cx := 0; cx < canvasW; cx++ {
			px := canvas[cy*canvasW+cx]
			r := uint8(px >> video.RShift)
			g := uint8(px >> video.GShift)
			b := uint8(px >> video.BShift)
			a := uint8(px & video.AMask)

			for dy := 0; dy < sy; dy++ {
				dispY := cy*sy + dy
				if dispY >= video.DisplayHeight {
					break
				}
				for dx := 0; dx < sx; dx++ {
					dispX := cx*sx + dx
					if dispX >= video.DisplayWidth {
						break
					}
					i := (dispY*video.DisplayWidth + dispX) * video.BytesPerPixel
					display[i] = r
					display[i+1] = g
					display[i+2] = b
					display[i+3] = a
				}
			}
		}
	}
}
