package measure

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/box-measure/internal/imaging"
)

var (
	white  = color.RGBA{255, 255, 255, 255}
	black  = color.RGBA{0, 0, 0, 255}
	strip  = color.RGBA{20, 20, 20, 255}
	orange = color.RGBA{255, 100, 0, 255}
)

// newFrame returns a w×h frame filled with c.
func newFrame(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func paint(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// ringMask returns a mask with a square ring enclosure whose outer edge is r and
// whose walls are wall pixels thick.
func ringMask(w, h int, r image.Rectangle, wall int) *imaging.Mask {
	m := imaging.NewMask(w, h)
	m.Fill(r, true)
	m.Fill(r.Inset(wall), false)
	return m
}

// scenarioTop draws a 200×200 enclosure with 10 px walls at (50,20) and a 40×100
// dark rectangle whose top edge is 60 px below the enclosure's.
func scenarioTop() *image.RGBA {
	img := newFrame(300, 300, white)
	enclosure := image.Rect(50, 20, 250, 220)
	paint(img, enclosure, black)
	paint(img, enclosure.Inset(10), white)
	paint(img, image.Rect(80, 80, 120, 180), black)
	return img
}

// scenarioSide draws a 120 px reference strip and a 60 px tall orange object on a
// white floor.
func scenarioSide() *image.RGBA {
	img := newFrame(200, 200, white)
	paint(img, image.Rect(20, 40, 30, 160), strip)
	paint(img, image.Rect(100, 100, 140, 160), orange)
	return img
}
