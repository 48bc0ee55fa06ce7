package video

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRGBAPacking(t *testing.T) {
	px := RGBA(0x12, 0x34, 0x56, 0xFF)
	assert.Equal(t, uint32(0x123456FF), px)
	assert.Equal(t, uint32(0), RGBA(0, 0, 0, 0))
}

func TestPublishSnapshot(t *testing.T) {
	d := NewDisplayBuffer()
	src := make([]uint8, DisplayBytes)
	src[0] = 0xAA
	src[DisplayBytes-1] = 0xBB
	d.Publish(src)

	got := d.Snapshot()
	assert.Equal(t, uint8(0xAA), got[0])
	assert.Equal(t, uint8(0xBB), got[DisplayBytes-1])

	// Snapshot is a copy, not an alias.
	got[0] = 0
	assert.Equal(t, uint8(0xAA), d.Snapshot()[0])
}

func TestConcurrentPublishAndRead(t *testing.T) {
	d := NewDisplayBuffer()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		buf := make([]uint8, DisplayBytes)
		for i := 0; i < 100; i++ {
			for j := range buf {
				buf[j] = uint8(i)
			}
			d.Publish(buf)
		}
	}()
	go func() {
		defer wg.Done()
		dst := make([]uint8, DisplayBytes)
		for i := 0; i < 100; i++ {
			d.CopyTo(dst)
			// Whole-buffer copies mean a reader never sees a torn frame.
			first := dst[0]
			assert.Equal(t, first, dst[DisplayBytes-1])
		}
	}()
	wg.Wait()
}
