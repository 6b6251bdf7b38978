// Package sink delivers measurement results to their consumers.
package sink

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/measure"
)

// ResultSink receives measurement output. Implementations must be safe for
// concurrent use.
type ResultSink interface {
	// Publish delivers a full measurement.
	Publish(rec measure.Record)

	// PublishHeightOnly delivers a side-view-only live preview.
	PublishHeightOnly(h measure.Height)
}

// LogSink writes each result as a structured log entry.
type LogSink struct {
	Log logrus.FieldLogger
}

// Publish logs the record at Info.
func (s LogSink) Publish(rec measure.Record) {
	fields := logrus.Fields{
		"has_primary":     rec.HasPrimary,
		"primary":         rec.Primary.Kind.String(),
		"secondary":       len(rec.Secondary),
		"height_cm":       rec.Height.Cm,
		"height_valid":    rec.Height.Valid,
		"offset_cm":       rec.OffsetCm,
		"ratio_px_per_cm": rec.RatioPxPerCm,
	}
	if rec.HasPrimary {
		fields["shape"] = rec.Primary.Describe()
	}
	s.Log.WithFields(fields).Info("measurement")
}

// PublishHeightOnly logs the preview at Debug, since previews arrive every tick.
func (s LogSink) PublishHeightOnly(h measure.Height) {
	s.Log.WithFields(logrus.Fields{
		"height_cm": h.Cm,
		"valid":     h.Valid,
	}).Debug("height preview")
}

// Published is a stored result with the time it arrived.
type Published[T any] struct {
	Value T         `json:"value"`
	At    time.Time `json:"at"`
}

// LatestSink keeps the most recent record and preview for readers such as the
// HTTP API.
type LatestSink struct {
	mu      sync.RWMutex
	record  *Published[measure.Record]
	preview *Published[measure.Height]
	now     func() time.Time
}

// NewLatestSink returns an empty LatestSink.
func NewLatestSink() *LatestSink {
	return &LatestSink{now: time.Now}
}

// Publish replaces the stored record.
func (s *LatestSink) Publish(rec measure.Record) {
	p := &Published[measure.Record]{Value: rec, At: s.now()}
	s.mu.Lock()
	s.record = p
	s.mu.Unlock()
}

// PublishHeightOnly replaces the stored preview.
func (s *LatestSink) PublishHeightOnly(h measure.Height) {
	p := &Published[measure.Height]{Value: h, At: s.now()}
	s.mu.Lock()
	s.preview = p
	s.mu.Unlock()
}

// Record returns the last published record, if any.
func (s *LatestSink) Record() (Published[measure.Record], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return Published[measure.Record]{}, false
	}
	return *s.record, true
}

// Preview returns the last published height preview, if any.
func (s *LatestSink) Preview() (Published[measure.Height], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.preview == nil {
		return Published[measure.Height]{}, false
	}
	return *s.preview, true
}

// Multi fans results out to several sinks in order.
type Multi []ResultSink

// Publish forwards rec to every sink.
func (m Multi) Publish(rec measure.Record) {
	for _, s := range m {
		s.Publish(rec)
	}
}

// PublishHeightOnly forwards h to every sink.
func (m Multi) PublishHeightOnly(h measure.Height) {
	for _, s := range m {
		s.PublishHeightOnly(h)
	}
}
