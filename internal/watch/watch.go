// Package watch drives continuous measurement from a running capture rig.
//
// Every tick the latest side frame is turned into a height-only preview. Full
// measurements run on request (Trigger) or on a fixed period, always from one
// consistent top/side snapshot.
package watch

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/capture"
	"github.com/ironsheep/box-measure/internal/measure"
	"github.com/ironsheep/box-measure/internal/sink"
)

// Watcher couples a Rig, a Session and a ResultSink.
type Watcher struct {
	rig     *capture.Rig
	session *measure.Session
	sink    sink.ResultSink
	log     logrus.FieldLogger

	// PreviewInterval is the period of the height-only preview.
	PreviewInterval time.Duration

	// MeasureInterval is the period of full measurements. Zero measures only
	// when Trigger is called.
	MeasureInterval time.Duration

	trigger chan struct{}

	// The last previewed side frame. Seq restarts with every Rig.Start, so the
	// capture time is part of the identity.
	lastSeq uint64
	lastAt  time.Time
}

// New creates a watcher. A non-positive preview interval falls back to the rig's
// capture interval. A nil log discards output.
func New(rig *capture.Rig, session *measure.Session, out sink.ResultSink, previewInterval, measureInterval time.Duration, log logrus.FieldLogger) *Watcher {
	if previewInterval <= 0 {
		previewInterval = rig.Interval
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Watcher{
		rig:             rig,
		session:         session,
		sink:            out,
		log:             log,
		PreviewInterval: previewInterval,
		MeasureInterval: measureInterval,
		trigger:         make(chan struct{}, 1),
	}
}

// Trigger requests a full measurement. Requests made while one is already
// pending are merged.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run starts the rig and measures until ctx is done. The rig is stopped before
// Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.rig.Start(ctx); err != nil {
		return err
	}
	defer w.rig.Stop()

	preview := time.NewTicker(w.PreviewInterval)
	defer preview.Stop()

	var periodic <-chan time.Time
	if w.MeasureInterval > 0 {
		t := time.NewTicker(w.MeasureInterval)
		defer t.Stop()
		periodic = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-preview.C:
			w.Preview()
		case <-periodic:
			w.MeasureOnce()
		case <-w.trigger:
			w.MeasureOnce()
		}
	}
}

// Preview publishes a height-only estimate from the newest side frame. Frames
// already previewed are skipped, including the one left over from a previous
// Run. Preview must not be called while Run is active.
func (w *Watcher) Preview() bool {
	f, ok := w.rig.Side().TryGet()
	if !ok || (f.Seq == w.lastSeq && f.CapturedAt.Equal(w.lastAt)) {
		return false
	}
	w.lastSeq, w.lastAt = f.Seq, f.CapturedAt

	h, err := w.session.PreviewHeight(f.Image)
	if err != nil {
		w.log.WithError(err).Debug("preview skipped")
		return false
	}
	w.sink.PublishHeightOnly(h)
	return true
}

// MeasureOnce measures the current snapshot and publishes the record. It
// reports false when no consistent pair was available or the measurement failed.
func (w *Watcher) MeasureOnce() (measure.Record, bool) {
	log := w.log.WithField("capture_id", uuid.New().String())

	pair, ok := w.rig.Snapshot()
	if !ok {
		log.Debug("no consistent frame pair yet")
		return measure.Record{}, false
	}

	rec, err := w.session.Measure(pair.Top.Image, pair.Side.Image)
	if err != nil {
		log.WithError(err).Warn("measurement failed")
		return measure.Record{}, false
	}

	log.WithFields(logrus.Fields{
		"top_seq":  pair.Top.Seq,
		"side_seq": pair.Side.Seq,
		"skew":     pair.Skew(),
	}).Debug("snapshot measured")
	w.sink.Publish(rec)
	return rec, true
}
