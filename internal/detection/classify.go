package detection

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/box-measure/internal/config"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// BoundsOf converts an image.Rectangle to Bounds.
func BoundsOf(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect converts b back to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// ShapeKind tags which dimensions of a Shape are meaningful.
type ShapeKind int

const (
	// ShapeNone means the contour was too small or matched neither test.
	ShapeNone ShapeKind = iota
	// ShapeRectangle carries WidthCm and HeightCm.
	ShapeRectangle
	// ShapeCircle carries DiameterCm.
	ShapeCircle
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRectangle:
		return "Rectangle"
	case ShapeCircle:
		return "Circle"
	default:
		return "None"
	}
}

// MarshalJSON encodes the kind by name.
func (k ShapeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name produced by MarshalJSON.
func (k *ShapeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Rectangle":
		*k = ShapeRectangle
	case "Circle":
		*k = ShapeCircle
	case "None", "":
		*k = ShapeNone
	default:
		return fmt.Errorf("unknown shape kind %q", s)
	}
	return nil
}

// Shape is the classification of one contour.
//
// Only the dimension fields that belong to Kind are set: a Rectangle has WidthCm and
// HeightCm, a Circle has DiameterCm, and None has neither. Use the constructors
// rather than filling the struct by hand.
type Shape struct {
	Kind ShapeKind `json:"kind"`

	// WidthCm and HeightCm are the axis-aligned extent of a rectangle.
	WidthCm  float64 `json:"width_cm,omitempty"`
	HeightCm float64 `json:"height_cm,omitempty"`

	// DiameterCm is twice the minimum enclosing circle radius of a circle.
	DiameterCm float64 `json:"diameter_cm,omitempty"`

	// Bounds is the contour's pixel extent in the coordinates it was extracted in.
	Bounds Bounds `json:"bounds"`

	// Center is the middle of Bounds.
	Center Point `json:"center"`

	// AreaPx is the contour area in square pixels.
	AreaPx float64 `json:"area_px"`

	// Vertices is the vertex count of the simplified polygon.
	Vertices int `json:"vertices"`

	// Circularity is 4π·area/perimeter² of the contour.
	Circularity float64 `json:"circularity"`
}

// Rectangle returns a Shape of kind ShapeRectangle.
func Rectangle(widthCm, heightCm float64) Shape {
	return Shape{Kind: ShapeRectangle, WidthCm: widthCm, HeightCm: heightCm}
}

// Circle returns a Shape of kind ShapeCircle.
func Circle(diameterCm float64) Shape {
	return Shape{Kind: ShapeCircle, DiameterCm: diameterCm}
}

// Describe renders the shape the way the measurement summary prints it.
func (s Shape) Describe() string {
	switch s.Kind {
	case ShapeRectangle:
		return fmt.Sprintf("Rectangle, %.2fcm x %.2fcm", s.WidthCm, s.HeightCm)
	case ShapeCircle:
		return fmt.Sprintf("Circle, Diameter: %.2fcm", s.DiameterCm)
	default:
		return "None"
	}
}

// Classifier decides whether a contour is a rectangle, a circle or neither.
//
// The quadrilateral test runs before the circularity test so that a near-square
// contour with a middling circularity still comes out as a Rectangle.
type Classifier struct {
	// MinArea is the noise floor in square pixels. Smaller contours are ShapeNone.
	MinArea float64

	// ApproxFraction is the polygon simplification tolerance as a fraction of the
	// contour perimeter.
	ApproxFraction float64

	// CircularityThreshold is the minimum circularity accepted as a circle.
	CircularityThreshold float64
}

// NewClassifier builds a Classifier from configuration.
func NewClassifier(cfg config.ShapeConfig) *Classifier {
	return &Classifier{
		MinArea:              cfg.MinContourArea,
		ApproxFraction:       cfg.PolygonApproxFraction,
		CircularityThreshold: cfg.CircularityThreshold,
	}
}

// Classify converts c into real-world dimensions using ratio.
//
// # Algorithm
//
//  1. Area gate: contours below MinArea are ShapeNone.
//  2. Quadrilateral test: simplify with tolerance ApproxFraction × perimeter; four
//     vertices make a Rectangle sized from the original contour's bounding box.
//  3. Circularity test: 4π·area/perimeter² at or above CircularityThreshold makes a
//     Circle sized from the minimum enclosing circle.
//  4. Anything else is ShapeNone.
//
// An invalid ratio also yields ShapeNone, since no dimension can be derived from it.
func (cl *Classifier) Classify(c Contour, ratio Ratio) Shape {
	area := c.Area()
	b := c.Bounds()
	base := Shape{
		Bounds: BoundsOf(b),
		Center: Point{X: (b.Min.X + b.Max.X - 1) / 2, Y: (b.Min.Y + b.Max.Y - 1) / 2},
		AreaPx: area,
	}

	if area < cl.MinArea || !ratio.Valid() {
		return base
	}

	perimeter := c.Perimeter()
	approx := ApproxPolygon(c.Points, cl.ApproxFraction*perimeter)
	base.Vertices = len(approx)
	base.Circularity = Circularity(c)

	if len(approx) == 4 {
		s := Rectangle(ratio.Cm(float64(b.Dx())), ratio.Cm(float64(b.Dy())))
		return s.with(base)
	}

	if base.Circularity >= cl.CircularityThreshold {
		_, radius := MinEnclosingCircle(c.Points)
		s := Circle(ratio.Cm(2 * radius))
		return s.with(base)
	}

	return base
}

// with copies the pixel-space details of base onto s.
func (s Shape) with(base Shape) Shape {
	s.Bounds = base.Bounds
	s.Center = base.Center
	s.AreaPx = base.AreaPx
	s.Vertices = base.Vertices
	s.Circularity = base.Circularity
	return s
}
