//go:build gocv

package detection

import (
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/box-measure/internal/imaging"
)

// traceContours runs cv::findContours with the full hierarchy. OpenCV implements
// the same Suzuki-Abe border following as the pure Go build.
func traceContours(m *imaging.Mask) []Contour {
	src, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, m.ToGray().Pix)
	if err != nil {
		return []Contour{}
	}
	defer src.Close()

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	found := gocv.FindContoursWithParams(src, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([]Contour, found.Size())
	for i := range contours {
		// Each hierarchy entry is [next, previous, first child, parent].
		h := hierarchy.GetVeciAt(0, i)
		contours[i] = Contour{
			Points: found.At(i).ToPoints(),
			Parent: int(h[3]),
		}
	}

	// Borders alternate outer/hole with nesting depth.
	for i := range contours {
		depth := 0
		for p := contours[i].Parent; p >= 0; p = contours[p].Parent {
			depth++
		}
		contours[i].Hole = depth%2 == 1
	}

	return contours
}

func approxPolygon(points []image.Point, epsilon float64) []image.Point {
	pv := gocv.NewPointVectorFromPoints(points)
	defer pv.Close()

	approx := gocv.ApproxPolyDP(pv, epsilon, true)
	defer approx.Close()

	return approx.ToPoints()
}

func minEnclosingCircle(points []image.Point) (r2.Vec, float64) {
	pv := gocv.NewPointVectorFromPoints(points)
	defer pv.Close()

	x, y, radius := gocv.MinEnclosingCircle(pv)
	return r2.Vec{X: float64(x), Y: float64(y)}, float64(radius)
}
