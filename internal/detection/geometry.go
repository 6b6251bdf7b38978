package detection

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ApproxPolygon simplifies a closed polyline with the Douglas-Peucker algorithm.
// Every input point lies within epsilon pixels of the returned polygon.
func ApproxPolygon(points []image.Point, epsilon float64) []image.Point {
	if len(points) < 3 || epsilon <= 0 {
		out := make([]image.Point, len(points))
		copy(out, points)
		return out
	}
	return approxPolygon(points, epsilon)
}

// MinEnclosingCircle returns the smallest circle containing every point.
// An empty input gives a zero circle.
func MinEnclosingCircle(points []image.Point) (center r2.Vec, radius float64) {
	switch len(points) {
	case 0:
		return r2.Vec{}, 0
	case 1:
		return vec(points[0]), 0
	}
	return minEnclosingCircle(points)
}

// Circularity returns 4π·area/perimeter², which is 1 for a perfect circle and
// smaller for everything else. A contour with no perimeter has circularity 0.
func Circularity(c Contour) float64 {
	p := c.Perimeter()
	if p == 0 {
		return 0
	}
	return 4 * math.Pi * c.Area() / (p * p)
}

// segmentDistance returns the distance from p to the segment a-b.
func segmentDistance(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := r2.Dot(r2.Sub(p, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Norm(r2.Sub(p, r2.Add(a, r2.Scale(t, ab))))
}
