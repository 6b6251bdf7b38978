package measure

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/imaging"
)

// Height is the side-view measurement of the object.
//
// When Valid is false the object or the reference strip was not seen and Cm must
// not be used; the pixel counts are still reported for diagnostics.
type Height struct {
	Cm          float64 `json:"cm"`
	RawCm       float64 `json:"raw_cm"`
	ReferencePx int     `json:"reference_px"`
	ObjectPx    int     `json:"object_px"`
	CmPerPx     float64 `json:"cm_per_px"`
	OffsetCm    float64 `json:"offset_cm"`
	Valid       bool    `json:"valid"`
}

// HeightEstimator measures object height in a side-view frame against the dark
// reference strip of known length.
type HeightEstimator struct {
	Segmenter *imaging.Segmenter

	log logrus.FieldLogger
}

// NewHeightEstimator builds an estimator from segmentation settings. A nil log
// discards output.
func NewHeightEstimator(cfg config.SegmentationConfig, log logrus.FieldLogger) *HeightEstimator {
	return &HeightEstimator{
		Segmenter: imaging.NewSegmenter(cfg),
		log:       orDiscard(log),
	}
}

// Estimate segments frame and measures the object height in centimeters, adding
// offsetCm to correct for where the object stands relative to the camera axis.
func (e *HeightEstimator) Estimate(frame image.Image, referenceSizeCm, offsetCm float64) (Height, error) {
	if err := detection.CheckKnownSize(referenceSizeCm); err != nil {
		return Height{}, fmt.Errorf("reference strip: %w", err)
	}
	masks, err := e.Segmenter.Side(frame)
	if err != nil {
		return Height{}, err
	}
	return e.EstimateMasks(masks, referenceSizeCm, offsetCm), nil
}

// EstimateMasks measures height from already segmented side-view masks.
//
// The reference length is the longest vertical run of strip pixels in any single
// column, so it is unaffected by how wide the strip is. The object is measured the
// same way on the object mask. A zero run on either mask yields an invalid Height.
func (e *HeightEstimator) EstimateMasks(masks *imaging.SideMasks, referenceSizeCm, offsetCm float64) Height {
	refRun, refCol := LongestVerticalRun(masks.Reference)
	objRun, objCol := LongestVerticalRun(masks.Object)

	h := Height{
		ReferencePx: refRun,
		ObjectPx:    objRun,
		OffsetCm:    offsetCm,
	}
	log := e.log.WithFields(logrus.Fields{
		"stage":         "side",
		"reference_px":  refRun,
		"reference_col": refCol,
		"object_px":     objRun,
		"object_col":    objCol,
	})

	if refRun == 0 {
		log.Debug("reference strip not found")
		return h
	}
	h.CmPerPx = referenceSizeCm / float64(refRun)

	if objRun == 0 {
		log.Debug("object not found in side view")
		return h
	}

	h.RawCm = float64(objRun) * h.CmPerPx
	h.Cm = h.RawCm + offsetCm
	h.Valid = true

	log.WithField("height_cm", h.Cm).Debug("height estimated")
	return h
}

// LongestVerticalRun returns the length of the longest contiguous vertical run of
// foreground pixels in any column of m, and the column it was found in. An empty
// mask gives (0, -1).
func LongestVerticalRun(m *imaging.Mask) (run, column int) {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return 0, -1
	}

	runs := make([]float64, m.Width)
	for x := 0; x < m.Width; x++ {
		best, cur := 0, 0
		for y := 0; y < m.Height; y++ {
			if m.Pix[y*m.Width+x] {
				cur++
				if cur > best {
					best = cur
				}
			} else {
				cur = 0
			}
		}
		runs[x] = float64(best)
	}

	column = floats.MaxIdx(runs)
	if runs[column] == 0 {
		return 0, -1
	}
	return int(floats.Max(runs)), column
}
