package capture

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrRunning is returned by Start when the rig's loops are already running.
var ErrRunning = errors.New("rig already running")

// Pair is a top frame and a side frame read together.
type Pair struct {
	Top  Frame
	Side Frame
}

// Skew returns the absolute difference between the two capture times.
func (p Pair) Skew() time.Duration {
	d := p.Top.CapturedAt.Sub(p.Side.CapturedAt)
	if d < 0 {
		return -d
	}
	return d
}

// Rig runs one acquisition loop per camera and keeps the latest frame of each.
//
// Both loops publish under the same mutex that Snapshot reads under, so a
// snapshot never mixes a frame with one that replaced its partner mid-read.
type Rig struct {
	top, side Camera

	// Interval is the delay between captures on each camera.
	Interval time.Duration

	// MaxSkew is the largest capture-time difference Snapshot accepts. Zero
	// accepts any pair.
	MaxSkew time.Duration

	log logrus.FieldLogger
	now func() time.Time

	mu       sync.Mutex
	topCell  LatestFrame
	sideCell LatestFrame
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// DefaultInterval is used when NewRig is given a non-positive interval.
const DefaultInterval = 100 * time.Millisecond

// NewRig builds a rig for the two cameras. A nil log discards output.
func NewRig(top, side Camera, interval, maxSkew time.Duration, log logrus.FieldLogger) *Rig {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Rig{
		top:      top,
		side:     side,
		Interval: interval,
		MaxSkew:  maxSkew,
		log:      log,
		now:      time.Now,
	}
}

// Top returns the top camera's latest-frame cell.
func (r *Rig) Top() FrameSource { return &r.topCell }

// Side returns the side camera's latest-frame cell.
func (r *Rig) Side() FrameSource { return &r.sideCell }

// Start launches both acquisition loops. They run until ctx is done or Stop is
// called.
func (r *Rig) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(2)
	go r.loop(ctx, "top", r.top, &r.topCell)
	go r.loop(ctx, "side", r.side, &r.sideCell)
	return nil
}

// Stop cancels both loops and waits for them to return. Once Stop returns no
// cell is written again until the next Start. Stop on a stopped rig is a no-op.
func (r *Rig) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
}

// Snapshot returns both latest frames read under one lock. ok is false when
// either camera has not delivered a frame yet or the pair is further apart in
// time than MaxSkew.
func (r *Rig) Snapshot() (Pair, bool) {
	r.mu.Lock()
	top, topOK := r.topCell.TryGet()
	side, sideOK := r.sideCell.TryGet()
	r.mu.Unlock()

	if !topOK || !sideOK {
		return Pair{}, false
	}
	p := Pair{Top: top, Side: side}
	if r.MaxSkew > 0 && p.Skew() > r.MaxSkew {
		return Pair{}, false
	}
	return p, true
}

func (r *Rig) loop(ctx context.Context, name string, cam Camera, cell *LatestFrame) {
	defer r.wg.Done()

	log := r.log.WithField("camera", name)
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	var seq uint64
	for {
		img, err := cam.Capture(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			log.WithError(err).Warn("capture failed, skipping tick")
		case img == nil:
			log.Debug("camera returned no frame, skipping tick")
		default:
			seq++
			r.publish(ctx, cell, Frame{Image: img, CapturedAt: r.now(), Seq: seq})
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// publish stores f unless the loop has been cancelled.
func (r *Rig) publish(ctx context.Context, cell *LatestFrame, f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	cell.Store(f)
}
