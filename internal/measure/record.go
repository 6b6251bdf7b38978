package measure

import (
	"fmt"
	"strings"

	"github.com/ironsheep/box-measure/internal/detection"
)

// Record is the combined result of one top/side frame pair.
//
// Records are built fresh per measurement and never modified afterwards.
type Record struct {
	// HasPrimary is false for an empty enclosure. Primary may still be of kind
	// detection.ShapeNone when the object did not classify.
	HasPrimary bool            `json:"has_primary"`
	Primary    detection.Shape `json:"primary"`

	Secondary []detection.Shape `json:"secondary"`

	Height Height `json:"height"`

	// OffsetCm is the height correction carried over from the top view.
	OffsetCm    float64 `json:"offset_cm"`
	OffsetValid bool    `json:"offset_valid"`

	// RatioPxPerCm is the top-view calibration.
	RatioPxPerCm float64 `json:"ratio_px_per_cm"`
	RatioValid   bool    `json:"ratio_valid"`
}

// Summary renders the record as the three text blocks operators are used to:
// the overall shape, the shapes within, and the object height.
func (r Record) Summary() string {
	var b strings.Builder

	if r.HasPrimary && r.Primary.Kind != detection.ShapeNone {
		fmt.Fprintf(&b, "Overall Shape: %s\n", r.Primary.Describe())
	} else {
		b.WriteString("No overall shape detected\n")
	}

	b.WriteString("Shapes within:\n")
	for _, s := range r.Secondary {
		switch s.Kind {
		case detection.ShapeRectangle:
			fmt.Fprintf(&b, "Rectangle: %.2fcm x %.2fcm\n", s.WidthCm, s.HeightCm)
		case detection.ShapeCircle:
			fmt.Fprintf(&b, "Circle: Diameter %.2fcm\n", s.DiameterCm)
		}
	}

	switch {
	case r.Height.Valid && r.OffsetValid:
		fmt.Fprintf(&b, "Object Height: %.2f cm", r.Height.Cm)
	case r.Height.Valid:
		// Without an offset the height is the raw side-view reading.
		fmt.Fprintf(&b, "Object Height: %.2f cm (uncorrected)", r.Height.Cm)
	default:
		b.WriteString("Object Height: unavailable")
	}
	return b.String()
}
