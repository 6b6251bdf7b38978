package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/imgio"
)

// SaveMask writes m to path as a PNG with foreground in white.
func SaveMask(path string, m *Mask) error {
	if err := imgio.Save(path, m.ToGray(), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save mask: %w", err)
	}
	return nil
}
