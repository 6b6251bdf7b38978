package measure

import (
	"fmt"

	"github.com/ironsheep/box-measure/internal/config"
)

// PositionOffset derives the side-view height correction from a top view.
//
// With config.OffsetFromObject the offset is how far the primary object's top edge
// sits below the enclosure's top edge. With config.OffsetFromEnclosure it is the
// enclosure's own distance from the top of the frame. Both are converted with the
// top-view ratio. ok is false when the needed contour or a valid ratio is missing.
func PositionOffset(tv *TopView, source string) (cm float64, ok bool, err error) {
	if tv == nil || !tv.RatioOK {
		return 0, false, nil
	}

	switch source {
	case config.OffsetFromObject, "":
		if !tv.HasPrimary {
			return 0, false, nil
		}
		top := tv.PrimaryContour.Bounds().Min.Y
		return tv.Ratio.Cm(float64(top)), true, nil
	case config.OffsetFromEnclosure:
		if !tv.Found {
			return 0, false, nil
		}
		return tv.Ratio.Cm(float64(tv.Enclosure.Min.Y)), true, nil
	default:
		return 0, false, fmt.Errorf("unknown offset source %q", source)
	}
}
