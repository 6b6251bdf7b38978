package measure

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/detection"
)

// Session turns one top frame and one side frame into a Record.
//
// A Session holds only configuration; Measure with the same frames always yields
// the same Record.
type Session struct {
	Top    *TopViewAnalyzer
	Height *HeightEstimator

	// ReferenceStripCm is the known length of the side-view reference strip.
	ReferenceStripCm float64

	// OffsetSource selects how PositionOffset is computed.
	OffsetSource string

	log logrus.FieldLogger
}

// NewSession builds a Session from a validated configuration. A nil log discards output.
func NewSession(cfg *config.Config, log logrus.FieldLogger) (*Session, error) {
	log = orDiscard(log)

	top, err := NewTopViewAnalyzer(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := detection.CheckKnownSize(cfg.Calibration.ReferenceStripKnownSizeCm); err != nil {
		return nil, fmt.Errorf("reference strip: %w", err)
	}

	return &Session{
		Top:              top,
		Height:           NewHeightEstimator(cfg.Segmentation, log),
		ReferenceStripCm: cfg.Calibration.ReferenceStripKnownSizeCm,
		OffsetSource:     cfg.Calibration.OffsetSource,
		log:              log,
	}, nil
}

// Measure analyzes the top frame, derives the position offset from it, and
// estimates height in the side frame with that offset.
//
// A top frame without a usable primary shape does not stop the height estimate;
// the record then has HasPrimary false and the offset is treated as zero.
func (s *Session) Measure(top, side image.Image) (Record, error) {
	tv, err := s.Top.Analyze(top)
	if err != nil {
		return Record{}, fmt.Errorf("top view: %w", err)
	}
	return s.MeasureTopView(tv, side)
}

// MeasureTopView finishes a measurement from an existing top-view analysis.
func (s *Session) MeasureTopView(tv *TopView, side image.Image) (Record, error) {
	offset, offsetOK, err := PositionOffset(tv, s.OffsetSource)
	if err != nil {
		return Record{}, err
	}

	h, err := s.Height.Estimate(side, s.ReferenceStripCm, offset)
	if err != nil {
		return Record{}, fmt.Errorf("side view: %w", err)
	}

	rec := Record{
		HasPrimary:   tv.HasPrimary,
		Primary:      tv.Primary,
		Secondary:    tv.Secondary,
		Height:       h,
		OffsetCm:     offset,
		OffsetValid:  offsetOK,
		RatioPxPerCm: float64(tv.Ratio),
		RatioValid:   tv.RatioOK,
	}

	s.log.WithFields(logrus.Fields{
		"stage":       "session",
		"has_primary": rec.HasPrimary,
		"primary":     rec.Primary.Kind.String(),
		"height_cm":   h.Cm,
		"height_ok":   h.Valid,
		"offset_cm":   offset,
	}).Debug("measurement complete")

	return rec, nil
}

// PreviewHeight estimates height from a side frame alone with no offset, for live
// preview between full measurements.
func (s *Session) PreviewHeight(side image.Image) (Height, error) {
	return s.Height.Estimate(side, s.ReferenceStripCm, 0)
}
