//go:build !gocv

package detection

import (
	"image"

	"github.com/ironsheep/box-measure/internal/imaging"
)

// Neighbor offsets, clockwise on screen starting east (y grows downward).
var neighbors = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const (
	dirEast = 0
	dirWest = 4
)

// traceContours implements Suzuki and Abe's border following ("Topological
// Structural Analysis of Digitized Binary Images by Border Following", 1985).
//
// The mask is copied into a label grid with a one-pixel background frame. Each
// border found gets a label NBD starting at 2; pixels on a border are relabeled
// with +NBD or -NBD (the latter when the pixel's east neighbor is background), which
// is what lets the raster scan tell new borders from already-followed ones.
func traceContours(m *imaging.Mask) []Contour {
	w, h := m.Width+2, m.Height+2
	f := make([]int32, w*h)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] {
				f[(y+1)*w+x+1] = 1
			}
		}
	}

	contours := []Contour{}

	// Per label: is it a hole border, and where is it in contours.
	// Label 1 is the frame, which behaves like a hole with no parent.
	hole := []bool{false, true}
	index := []int{-1, -1}

	nbd := int32(1)
	for y := 1; y < h-1; y++ {
		lnbd := int32(1)
		for x := 1; x < w-1; x++ {
			fij := f[y*w+x]
			if fij == 0 {
				continue
			}

			var from int
			var isHole bool
			switch {
			case fij == 1 && f[y*w+x-1] == 0:
				from = dirWest
			case fij >= 1 && f[y*w+x+1] == 0:
				from = dirEast
				isHole = true
				if fij > 1 {
					lnbd = fij
				}
			default:
				if fij != 1 {
					lnbd = abs32(fij)
				}
				continue
			}

			nbd++
			parent := -1
			if int(lnbd) < len(hole) {
				// Suzuki-Abe Table 1: an outer border's parent is the last border
				// if that was a hole, otherwise the last border's parent; the
				// reverse for a hole border.
				if isHole == hole[lnbd] {
					if p := index[lnbd]; p >= 0 {
						parent = contours[p].Parent
					}
				} else {
					parent = index[lnbd]
				}
			}

			pts := follow(f, w, x, y, from, nbd)
			contours = append(contours, Contour{
				Points: compress(pts),
				Hole:   isHole,
				Parent: parent,
			})
			hole = append(hole, isHole)
			index = append(index, len(contours)-1)

			if v := f[y*w+x]; v != 1 {
				lnbd = abs32(v)
			}
		}
	}

	return contours
}

// follow traces the border that starts at (x, y), entering from direction from,
// labels it with nbd and returns its pixels in frame-free coordinates.
func follow(f []int32, w, x, y, from int, nbd int32) []image.Point {
	at := func(p image.Point) int32 { return f[p.Y*w+p.X] }
	start := image.Point{x, y}

	// 3.1: clockwise search for the first nonzero neighbor.
	first := -1
	for k := 0; k < 8; k++ {
		d := (from + k) % 8
		if at(start.Add(neighbors[d])) != 0 {
			first = d
			break
		}
	}
	if first < 0 {
		f[y*w+x] = -nbd
		return []image.Point{{x - 1, y - 1}}
	}

	p1 := start.Add(neighbors[first])
	p2 := p1
	p3 := start
	pts := []image.Point{}

	for {
		pts = append(pts, image.Point{p3.X - 1, p3.Y - 1})

		// 3.3: counterclockwise search around p3 beginning just past p2.
		d2 := direction(p3, p2)
		eastZero := false
		var p4 image.Point
		for k := 1; k <= 8; k++ {
			d := (d2 - k + 16) % 8
			q := p3.Add(neighbors[d])
			if at(q) != 0 {
				p4 = q
				break
			}
			if d == dirEast {
				eastZero = true
			}
		}

		// 3.4
		i3 := p3.Y*w + p3.X
		if eastZero {
			f[i3] = -nbd
		} else if f[i3] == 1 {
			f[i3] = nbd
		}

		// 3.5
		if p4 == start && p3 == p1 {
			return pts
		}
		p2, p3 = p3, p4
	}
}

// direction returns the neighbor index that leads from p to its 8-neighbor q.
func direction(p, q image.Point) int {
	d := q.Sub(p)
	for i, n := range neighbors {
		if n == d {
			return i
		}
	}
	return 0
}

// compress drops points in the middle of straight horizontal, vertical or
// diagonal runs.
func compress(pts []image.Point) []image.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}
	out := make([]image.Point, 0, n/2+1)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		if pts[i].Sub(prev) != next.Sub(pts[i]) {
			out = append(out, pts[i])
		}
	}
	if len(out) == 0 {
		return pts[:1]
	}
	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
