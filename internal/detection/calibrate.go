package detection

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidKnownSize is returned when a calibration reference is configured with a
// physical size that is zero, negative or not finite.
var ErrInvalidKnownSize = errors.New("known size must be a positive finite number")

// Ratio is a pixels-per-centimeter scale factor.
//
// A Ratio only applies to the frame it was derived from. The zero value is not a
// usable ratio; check Valid before dividing by it.
type Ratio float64

// Valid reports whether r is strictly positive and finite.
func (r Ratio) Valid() bool {
	f := float64(r)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Cm converts a pixel length to centimeters.
func (r Ratio) Cm(px float64) float64 {
	return px / float64(r)
}

// Calibrator derives a Ratio from the known-size reference enclosure.
type Calibrator struct {
	KnownSizeCm float64
}

// NewCalibrator returns a Calibrator for a reference of the given physical size.
func NewCalibrator(knownSizeCm float64) (*Calibrator, error) {
	if err := CheckKnownSize(knownSizeCm); err != nil {
		return nil, err
	}
	return &Calibrator{KnownSizeCm: knownSizeCm}, nil
}

// CheckKnownSize returns ErrInvalidKnownSize unless size is positive and finite.
func CheckKnownSize(size float64) error {
	if !(size > 0) || math.IsInf(size, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidKnownSize, size)
	}
	return nil
}

// Calibrate picks the largest contour as the reference and divides the larger side
// of its bounding box by the known size. The larger side absorbs mild perspective
// skew of a nominally square reference.
//
// It returns the index of the reference contour, or ok=false when there are no
// contours or the ratio would not be usable.
func (c *Calibrator) Calibrate(contours []Contour) (ratio Ratio, reference int, ok bool) {
	reference = Largest(contours)
	if reference < 0 {
		return 0, -1, false
	}
	b := contours[reference].Bounds()
	side := math.Max(float64(b.Dx()), float64(b.Dy()))
	ratio = Ratio(side / c.KnownSizeCm)
	if !ratio.Valid() {
		return 0, reference, false
	}
	return ratio, reference, true
}
