package detection

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/box-measure/internal/imaging"
)

// Contour is a closed boundary of a connected foreground region.
//
// Points are ordered along the border and only the end points of straight runs
// are kept, so a filled axis-aligned rectangle is described by its four corner
// pixels. The polyline closes from the last point back to the first.
type Contour struct {
	// Points are pixel centers on the border, in the coordinates of the mask
	// (or mask region) the contour was extracted from.
	Points []image.Point

	// Hole is true for the inner border of a region, such as the inside wall of a
	// ring-shaped enclosure.
	Hole bool

	// Parent is the index of the enclosing border in the same result slice, or -1
	// for borders that touch only the background.
	Parent int
}

// Area returns the absolute polygon area enclosed by the contour in square pixels.
//
// Like the area reported by OpenCV, this is measured between border pixel centers,
// so a filled w×h rectangle has area (w-1)×(h-1).
func (c Contour) Area() float64 {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		p := vec(c.Points[i])
		q := vec(c.Points[(i+1)%n])
		sum += r2.Cross(p, q)
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the closed arc length of the contour in pixels.
func (c Contour) Perimeter() float64 {
	n := len(c.Points)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 0; i < n; i++ {
		length += r2.Norm(r2.Sub(vec(c.Points[(i+1)%n]), vec(c.Points[i])))
	}
	return length
}

// Bounds returns the pixel extent of the contour. The rectangle is half-open, so
// Dx() and Dy() are the inclusive width and height in pixels.
func (c Contour) Bounds() image.Rectangle {
	if len(c.Points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := c.Points[0].X, c.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range c.Points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Extract finds every border in the mask, outer borders and hole borders alike,
// together with their nesting.
//
// Results are in discovery order (raster scan of each border's first pixel).
// An all-background mask yields an empty slice, never an error.
func Extract(m *imaging.Mask) []Contour {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return []Contour{}
	}
	return traceContours(m)
}

// ExtractRegion extracts contours from the part of m inside r. Points are relative
// to r.Min, and pixels outside r are treated as background, so a region that cuts
// through a shape closes it along the region edge.
func ExtractRegion(m *imaging.Mask, r image.Rectangle) []Contour {
	if m == nil {
		return []Contour{}
	}
	return Extract(m.SubMask(r))
}

// Largest returns the index of the contour with the greatest area, preferring the
// earliest on ties. It returns -1 for an empty slice.
func Largest(contours []Contour) int {
	best := -1
	bestArea := -1.0
	for i, c := range contours {
		if a := c.Area(); a > bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

func vec(p image.Point) r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}
