// Package detection finds region borders in binary masks and turns them into
// calibrated shape measurements.
//
// The package covers the middle of the measurement pipeline:
//
//   - Contour extraction: Suzuki-Abe border following over an imaging.Mask, with
//     outer and hole borders and their nesting.
//   - Geometry: polygon area, arc length, Douglas-Peucker simplification and the
//     minimum enclosing circle.
//   - Calibration: a pixels-per-centimeter Ratio from the largest contour, which is
//     taken to be the known-size reference.
//   - Classification: Rectangle, Circle or None for a single contour.
//
// # Backends
//
// The default build is pure Go. Building with -tags gocv routes contour tracing,
// polygon simplification and the enclosing circle through OpenCV instead; both
// backends return compressed border points in the same order convention.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// Contour points are pixel centers on the border, so a w×h filled rectangle has
// Bounds() of exactly w×h but an Area() of (w-1)×(h-1).
//
// # Absent Results
//
// Nothing here treats an empty scene as an error. Extract returns an empty slice for
// an all-background mask, Calibrate reports ok=false, and Classify returns a Shape
// of kind ShapeNone.
package detection
