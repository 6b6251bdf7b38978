package imaging

import (
	"image"
)

// Mask is a binary foreground/background grid.
//
// Pix is stored row-major; the pixel at (x, y) is Pix[y*Width+x].
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask creates an all-background mask of the given size.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// Bounds returns the mask rectangle, always anchored at the origin.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At reports whether (x, y) is foreground. Coordinates outside the mask are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as foreground or background. Out-of-range writes are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Fill sets every pixel of r (clipped to the mask) to v.
func (m *Mask) Fill(r image.Rectangle, v bool) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = v
		}
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Empty reports whether the mask has no foreground pixels.
func (m *Mask) Empty() bool {
	for _, v := range m.Pix {
		if v {
			return false
		}
	}
	return true
}

// SubMask copies the region r into a new origin-anchored mask.
// r is clipped to the mask bounds; an empty intersection yields a 0x0 mask.
func (m *Mask) SubMask(r image.Rectangle) *Mask {
	r = r.Intersect(m.Bounds())
	sub := NewMask(r.Dx(), r.Dy())
	for y := 0; y < sub.Height; y++ {
		src := m.Pix[(y+r.Min.Y)*m.Width+r.Min.X : (y+r.Min.Y)*m.Width+r.Max.X]
		copy(sub.Pix[y*sub.Width:(y+1)*sub.Width], src)
	}
	return sub
}

// AndNot clears every pixel of m that is set in other. Both masks must have the same size.
func (m *Mask) AndNot(other *Mask) {
	for i := range m.Pix {
		if i < len(other.Pix) && other.Pix[i] {
			m.Pix[i] = false
		}
	}
}

// ToGray renders the mask as an 8-bit image with foreground at 255.
func (m *Mask) ToGray() *image.Gray {
	g := image.NewGray(m.Bounds())
	for i, v := range m.Pix {
		if v {
			g.Pix[i] = 255
		}
	}
	return g
}

// maskFromGray builds a mask from an origin-anchored gray image using keep as the
// foreground predicate.
func maskFromGray(g *image.Gray, keep func(v uint8) bool) *Mask {
	b := g.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if keep(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y) {
				m.Pix[y*m.Width+x] = true
			}
		}
	}
	return m
}
