//go:build !gocv

package detection

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// approxPolygon closes the curve at its first point and the point farthest from
// it, then simplifies both halves independently.
func approxPolygon(points []image.Point, epsilon float64) []image.Point {
	n := len(points)
	origin := vec(points[0])
	far, farDist := 0, 0.0
	for i := 1; i < n; i++ {
		if d := r2.Norm2(r2.Sub(vec(points[i]), origin)); d > farDist {
			far, farDist = i, d
		}
	}
	if far == 0 {
		return []image.Point{points[0]}
	}

	first := points[:far+1]
	second := make([]image.Point, 0, n-far+1)
	second = append(second, points[far:]...)
	second = append(second, points[0])

	out := douglasPeucker(first, epsilon)
	out = out[:len(out)-1]
	rest := douglasPeucker(second, epsilon)
	return append(out, rest[:len(rest)-1]...)
}

// douglasPeucker simplifies an open chain, keeping both end points.
func douglasPeucker(chain []image.Point, epsilon float64) []image.Point {
	n := len(chain)
	if n < 3 {
		return append([]image.Point(nil), chain...)
	}

	a, b := vec(chain[0]), vec(chain[n-1])
	split, maxDist := 0, 0.0
	for i := 1; i < n-1; i++ {
		if d := segmentDistance(vec(chain[i]), a, b); d > maxDist {
			split, maxDist = i, d
		}
	}

	if maxDist <= epsilon {
		return []image.Point{chain[0], chain[n-1]}
	}

	left := douglasPeucker(chain[:split+1], epsilon)
	right := douglasPeucker(chain[split:], epsilon)
	return append(left[:len(left)-1], right...)
}

// minEnclosingCircle is Welzl's algorithm in its iterative form.
func minEnclosingCircle(points []image.Point) (r2.Vec, float64) {
	pts := make([]r2.Vec, len(points))
	for i, p := range points {
		pts[i] = vec(p)
	}

	c, r := pts[0], 0.0
	for i := 1; i < len(pts); i++ {
		if inside(pts[i], c, r) {
			continue
		}
		c, r = pts[i], 0
		for j := 0; j < i; j++ {
			if inside(pts[j], c, r) {
				continue
			}
			c = r2.Scale(0.5, r2.Add(pts[i], pts[j]))
			r = r2.Norm(r2.Sub(pts[i], c))
			for k := 0; k < j; k++ {
				if inside(pts[k], c, r) {
					continue
				}
				c, r = circumcircle(pts[i], pts[j], pts[k])
			}
		}
	}
	return c, r
}

func inside(p, c r2.Vec, r float64) bool {
	return r2.Norm(r2.Sub(p, c)) <= r+1e-7
}

// circumcircle returns the circle through a, b and c. For collinear points it
// returns the circle on the two farthest apart.
func circumcircle(a, b, c r2.Vec) (r2.Vec, float64) {
	ab, ac := r2.Sub(b, a), r2.Sub(c, a)
	d := 2 * r2.Cross(ab, ac)
	if math.Abs(d) < 1e-12 {
		pairs := [3][2]r2.Vec{{a, b}, {a, c}, {b, c}}
		best := pairs[0]
		for _, p := range pairs[1:] {
			if r2.Norm2(r2.Sub(p[1], p[0])) > r2.Norm2(r2.Sub(best[1], best[0])) {
				best = p
			}
		}
		center := r2.Scale(0.5, r2.Add(best[0], best[1]))
		return center, r2.Norm(r2.Sub(best[0], center))
	}

	b2, c2 := r2.Norm2(ab), r2.Norm2(ac)
	off := r2.Vec{
		X: (ac.Y*b2 - ab.Y*c2) / d,
		Y: (ab.X*c2 - ac.X*b2) / d,
	}
	return r2.Add(a, off), r2.Norm(off)
}
