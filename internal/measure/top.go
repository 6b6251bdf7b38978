package measure

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/imaging"
)

// TopView is the result of analyzing one top-camera frame.
type TopView struct {
	// Found reports whether any contour was found to use as the enclosure.
	Found bool

	// Enclosure is the enclosure's bounding box in frame-relative coordinates.
	Enclosure image.Rectangle

	// Ratio is the enclosure calibration, usable only when RatioOK is true.
	Ratio   detection.Ratio
	RatioOK bool

	// Cropped and CroppedMask are the frame and mask cut down to Enclosure.
	// Cropped is nil when the analysis was run on a mask alone.
	Cropped     image.Image
	CroppedMask *imaging.Mask

	// HasPrimary reports whether an interior contour survived filtering. The primary
	// may still classify as detection.ShapeNone.
	HasPrimary     bool
	Primary        detection.Shape
	PrimaryContour detection.Contour

	// Secondary holds the other interior contours that classified as a shape.
	Secondary []detection.Shape
}

// TopViewAnalyzer isolates the reference enclosure in a top-view frame and
// classifies the object inside it.
type TopViewAnalyzer struct {
	Segmenter  *imaging.Segmenter
	Calibrator *detection.Calibrator
	Classifier *detection.Classifier

	// Borders selects which crop borders are object candidates: one of
	// config.BordersOuter, config.BordersHoles or config.BordersAll.
	Borders string

	log logrus.FieldLogger
}

// innerWallFraction is the share of the enclosure area above which a hole directly
// inside the enclosure border is taken to be the enclosure's own inner wall.
const innerWallFraction = 0.5

// NewTopViewAnalyzer builds an analyzer from configuration. A nil log discards output.
func NewTopViewAnalyzer(cfg *config.Config, log logrus.FieldLogger) (*TopViewAnalyzer, error) {
	cal, err := detection.NewCalibrator(cfg.Calibration.EnclosureKnownSizeCm)
	if err != nil {
		return nil, fmt.Errorf("enclosure calibration: %w", err)
	}
	return &TopViewAnalyzer{
		Segmenter:  imaging.NewSegmenter(cfg.Segmentation),
		Calibrator: cal,
		Classifier: detection.NewClassifier(cfg.Shape),
		Borders:    cfg.Shape.CandidateBorders,
		log:        orDiscard(log),
	}, nil
}

// Analyze segments frame and runs AnalyzeMask on the result.
func (a *TopViewAnalyzer) Analyze(frame image.Image) (*TopView, error) {
	mask, err := a.Segmenter.Top(frame)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeMask(frame, mask), nil
}

// AnalyzeMask runs the top-view pipeline on an already segmented mask.
//
// # Algorithm
//
//  1. Extract contours; the largest is the enclosure and provides the ratio.
//  2. Crop the frame and mask to the enclosure's bounding box.
//  3. Re-extract contours inside the enclosure's bounding box and keep the
//     candidates, see candidates. The enclosure's own outer border reappears there
//     and is dropped by requiring an area strictly below the enclosure's.
//  4. The largest candidate is the primary; the rest are secondary and are kept
//     only when they classify as a shape.
//
// frame may be nil, in which case TopView.Cropped is nil.
func (a *TopViewAnalyzer) AnalyzeMask(frame image.Image, mask *imaging.Mask) *TopView {
	log := a.log.WithField("stage", "top")
	tv := &TopView{}

	contours := detection.Extract(mask)
	if len(contours) == 0 {
		log.Debug("no foreground in top view")
		return tv
	}

	ratio, ref, ok := a.Calibrator.Calibrate(contours)
	enclosure := contours[ref]
	tv.Found = true
	tv.Enclosure = enclosure.Bounds()
	tv.Ratio, tv.RatioOK = ratio, ok
	log = log.WithFields(logrus.Fields{
		"contours":        len(contours),
		"enclosure":       tv.Enclosure,
		"ratio_px_per_cm": float64(ratio),
	})

	tv.CroppedMask = mask.SubMask(tv.Enclosure)
	if frame != nil {
		cropped, err := imaging.Crop(frame, tv.Enclosure)
		if err != nil {
			// The enclosure comes from a mask of the same size as frame.
			log.WithError(err).Warn("frame and mask disagree in size")
		} else {
			tv.Cropped = cropped
		}
	}

	if !ok {
		log.Debug("invalid enclosure calibration")
		return tv
	}

	candidates := a.candidates(detection.ExtractRegion(mask, tv.Enclosure), enclosure.Area())
	if len(candidates) == 0 {
		log.Debug("no object inside enclosure")
		return tv
	}

	primary := detection.Largest(candidates)
	tv.HasPrimary = true
	tv.PrimaryContour = candidates[primary]
	tv.Primary = a.Classifier.Classify(tv.PrimaryContour, ratio)

	for i, c := range candidates {
		if i == primary {
			continue
		}
		if s := a.Classifier.Classify(c, ratio); s.Kind != detection.ShapeNone {
			tv.Secondary = append(tv.Secondary, s)
		}
	}

	log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"primary":    tv.Primary.Kind.String(),
		"secondary":  len(tv.Secondary),
	}).Debug("top view analyzed")

	return tv
}

// candidates filters the borders found inside the enclosure by a.Borders.
//
// Outer borders are dark objects on a light floor inside a ring enclosure. Hole
// borders are light objects on a filled dark base. The largest hole directly
// inside the enclosure border is the enclosure's inner wall when it covers more
// than innerWallFraction of the enclosure, and is never a candidate.
func (a *TopViewAnalyzer) candidates(inner []detection.Contour, limit float64) []detection.Contour {
	outer := a.Borders != config.BordersHoles
	holes := a.Borders == config.BordersHoles || a.Borders == config.BordersAll

	wall := -1
	if holes {
		wallArea := innerWallFraction * limit
		for i, c := range inner {
			if !c.Hole || c.Parent < 0 || inner[c.Parent].Area() < limit {
				continue
			}
			if area := c.Area(); area > wallArea {
				wall, wallArea = i, area
			}
		}
	}

	var out []detection.Contour
	for i, c := range inner {
		if i == wall || c.Area() >= limit {
			continue
		}
		if (c.Hole && holes) || (!c.Hole && outer) {
			out = append(out, c)
		}
	}
	return out
}
