package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/box-measure/internal/config"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ColorResult contains a sampled color in the representations needed to tune
// the side-view object color band.
type ColorResult struct {
	Hex  string     `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGB  RGBColor   `json:"rgb"`  // RGB components
	HSV  config.HSV `json:"hsv"`  // H in degrees, S and V in [0,1]
	Gray uint8      `json:"gray"` // BT.601 luminance, compared against the floor range
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Coordinates are relative to the image bounds, so (0,0) is always the top-left
// pixel even for sub-images. The result is what an operator needs to configure
// segmentation.object_color_range and segmentation.floor_brightness_range.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < 0 || x >= bounds.Dx() || y < 0 || y >= bounds.Dy() {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
	r, g, b, _ := c.RGBA()
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)

	return &ColorResult{
		Hex:  fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB:  RGBColor{R: r8, G: g8, B: b8},
		HSV:  ToHSV(c),
		Gray: luminance(r8, g8, b8),
	}, nil
}

// ToHSV converts any color to hue (degrees), saturation and value.
// Fully transparent colors convert to black.
func ToHSV(c color.Color) config.HSV {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return config.HSV{}
	}
	h, s, v := cf.Hsv()
	return config.HSV{H: h, S: s, V: v}
}

// InHSVRange reports whether p lies inside r. When r.Lower.H > r.Upper.H the
// hue interval wraps through 0 degrees, which is how red bands are expressed.
func InHSVRange(p config.HSV, r config.HSVRange) bool {
	if p.S < r.Lower.S || p.S > r.Upper.S || p.V < r.Lower.V || p.V > r.Upper.V {
		return false
	}
	if r.Lower.H <= r.Upper.H {
		return p.H >= r.Lower.H && p.H <= r.Upper.H
	}
	return p.H >= r.Lower.H || p.H <= r.Upper.H
}

// luminance uses ITU-R BT.601 weights, the same weighting imaging.Grayscale applies.
func luminance(r, g, b uint8) uint8 {
	return uint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5)
}
