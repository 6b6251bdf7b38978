package capture

import (
	"image"
	"sync/atomic"
	"time"
)

// Frame is one captured image with its capture time.
type Frame struct {
	Image      image.Image
	CapturedAt time.Time
	// Seq counts frames from the same camera, starting at 1.
	Seq uint64
}

// FrameSource returns the latest completed capture without blocking.
type FrameSource interface {
	TryGet() (Frame, bool)
}

// LatestFrame is a single-slot cell holding the most recent frame.
//
// Store replaces the frame atomically; TryGet never observes a partial write.
// The zero value is an empty cell ready to use.
type LatestFrame struct {
	p atomic.Pointer[Frame]
}

// Store publishes f as the latest frame.
func (l *LatestFrame) Store(f Frame) {
	l.p.Store(&f)
}

// TryGet returns the latest frame, or false if nothing has been stored.
func (l *LatestFrame) TryGet() (Frame, bool) {
	f := l.p.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}
