package measure

import (
	"errors"
	"image"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/imaging"
)

func newTestAnalyzer(t *testing.T) *TopViewAnalyzer {
	t.Helper()
	a, err := NewTopViewAnalyzer(config.Default(), nil)
	if err != nil {
		t.Fatalf("NewTopViewAnalyzer failed: %v", err)
	}
	return a
}

func TestAnalyzeMask_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		interior image.Rectangle
		wantW    float64
		wantH    float64
	}{
		{"square", image.Rect(100, 100, 150, 150), 2.5, 2.5},
		{"rectangle", image.Rect(80, 60, 120, 160), 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ringMask(300, 300, image.Rect(40, 30, 240, 230), 10)
			m.Fill(tt.interior, true)

			tv := newTestAnalyzer(t).AnalyzeMask(nil, m)
			if !tv.Found || !tv.RatioOK {
				t.Fatalf("Found=%v RatioOK=%v, want both true", tv.Found, tv.RatioOK)
			}
			if tv.Ratio != 20 {
				t.Errorf("Ratio = %v, want 20", tv.Ratio)
			}
			if !tv.HasPrimary || tv.Primary.Kind != detection.ShapeRectangle {
				t.Fatalf("primary = %+v, want Rectangle", tv.Primary)
			}
			if !scalar.EqualWithinAbs(tv.Primary.WidthCm, tt.wantW, 1e-9) ||
				!scalar.EqualWithinAbs(tv.Primary.HeightCm, tt.wantH, 1e-9) {
				t.Errorf("size = %.3f x %.3f, want %.2f x %.2f",
					tv.Primary.WidthCm, tv.Primary.HeightCm, tt.wantW, tt.wantH)
			}
			if len(tv.Secondary) != 0 {
				t.Errorf("Secondary = %+v, want none", tv.Secondary)
			}
			if tv.Cropped != nil {
				t.Error("Cropped should be nil without a frame")
			}
			if tv.CroppedMask.Width != 200 || tv.CroppedMask.Height != 200 {
				t.Errorf("CroppedMask = %dx%d, want 200x200", tv.CroppedMask.Width, tv.CroppedMask.Height)
			}
		})
	}
}

func TestAnalyzeMask_PrimaryAndSecondary(t *testing.T) {
	m := ringMask(300, 300, image.Rect(40, 30, 240, 230), 10)
	m.Fill(image.Rect(60, 50, 140, 130), true)  // 80×80, primary
	m.Fill(image.Rect(160, 60, 200, 80), true)  // 40×20
	m.Fill(image.Rect(170, 170, 174, 174), true) // below min area, dropped

	tv := newTestAnalyzer(t).AnalyzeMask(nil, m)
	if !tv.HasPrimary || tv.Primary.Kind != detection.ShapeRectangle {
		t.Fatalf("primary = %+v, want Rectangle", tv.Primary)
	}
	if tv.Primary.WidthCm != 4 || tv.Primary.HeightCm != 4 {
		t.Errorf("primary size = %v x %v, want 4 x 4", tv.Primary.WidthCm, tv.Primary.HeightCm)
	}
	if len(tv.Secondary) != 1 {
		t.Fatalf("got %d secondary shapes, want 1", len(tv.Secondary))
	}
	if s := tv.Secondary[0]; s.WidthCm != 2 || s.HeightCm != 1 {
		t.Errorf("secondary size = %v x %v, want 2 x 1", s.WidthCm, s.HeightCm)
	}
}

func TestAnalyzeMask_EmptyOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		mask      *imaging.Mask
		wantFound bool
	}{
		{"no foreground", imaging.NewMask(100, 100), false},
		{"enclosure only", ringMask(300, 300, image.Rect(40, 30, 240, 230), 10), true},
		{"solid enclosure", func() *imaging.Mask {
			m := imaging.NewMask(100, 100)
			m.Fill(image.Rect(10, 10, 90, 90), true)
			return m
		}(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv := newTestAnalyzer(t).AnalyzeMask(nil, tt.mask)
			if tv.Found != tt.wantFound {
				t.Errorf("Found = %v, want %v", tv.Found, tt.wantFound)
			}
			if tv.HasPrimary {
				t.Errorf("unexpected primary %+v", tv.Primary)
			}
			if len(tv.Secondary) != 0 {
				t.Errorf("unexpected secondary shapes %+v", tv.Secondary)
			}
		})
	}
}

// filledBaseMask returns a solid base at r with a light object cut out of it.
func filledBaseMask(r, object image.Rectangle) *imaging.Mask {
	m := imaging.NewMask(300, 300)
	m.Fill(r, true)
	m.Fill(object, false)
	return m
}

func TestAnalyzeMask_CandidateBorders(t *testing.T) {
	base := image.Rect(50, 20, 250, 220)
	object := image.Rect(80, 80, 120, 180)
	ring := func() *imaging.Mask {
		m := ringMask(300, 300, base, 10)
		m.Fill(object, true)
		return m
	}

	tests := []struct {
		name        string
		borders     string
		mask        *imaging.Mask
		wantPrimary bool
		wantW       float64
		wantH       float64
	}{
		// A light object on a dark base is a hole in the base.
		{"filled base, outer", config.BordersOuter, filledBaseMask(base, object), false, 0, 0},
		{"filled base, holes", config.BordersHoles, filledBaseMask(base, object), true, 2.1, 5.1},
		{"filled base, all", config.BordersAll, filledBaseMask(base, object), true, 2.1, 5.1},
		// The ring's inner wall is never an object.
		{"ring, outer", config.BordersOuter, ring(), true, 2, 5},
		{"ring, holes", config.BordersHoles, ring(), false, 0, 0},
		{"ring, all", config.BordersAll, ring(), true, 2, 5},
		{"empty ring, all", config.BordersAll, ringMask(300, 300, base, 10), false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(t)
			a.Borders = tt.borders

			tv := a.AnalyzeMask(nil, tt.mask)
			if !tv.Found || tv.Ratio != 20 {
				t.Fatalf("Found=%v Ratio=%v, want enclosure at 20 px/cm", tv.Found, tv.Ratio)
			}
			if tv.HasPrimary != tt.wantPrimary {
				t.Fatalf("HasPrimary = %v, want %v (primary %+v)", tv.HasPrimary, tt.wantPrimary, tv.Primary)
			}
			if !tt.wantPrimary {
				return
			}
			if tv.Primary.Kind != detection.ShapeRectangle {
				t.Fatalf("primary = %+v, want Rectangle", tv.Primary)
			}
			// Hole borders run along the base pixels just outside the object, one
			// pixel either side.
			if !scalar.EqualWithinAbs(tv.Primary.WidthCm, tt.wantW, 0.06) ||
				!scalar.EqualWithinAbs(tv.Primary.HeightCm, tt.wantH, 0.06) {
				t.Errorf("size = %.3f x %.3f, want %.2f x %.2f",
					tv.Primary.WidthCm, tv.Primary.HeightCm, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestNewTopViewAnalyzer_Borders(t *testing.T) {
	if got := newTestAnalyzer(t).Borders; got != config.BordersOuter {
		t.Errorf("default Borders = %q, want %q", got, config.BordersOuter)
	}

	cfg := config.Default()
	cfg.Shape.CandidateBorders = config.BordersHoles
	a, err := NewTopViewAnalyzer(cfg, nil)
	if err != nil {
		t.Fatalf("NewTopViewAnalyzer failed: %v", err)
	}
	if a.Borders != config.BordersHoles {
		t.Errorf("Borders = %q, want %q", a.Borders, config.BordersHoles)
	}
}

func TestAnalyze_Frame(t *testing.T) {
	tv, err := newTestAnalyzer(t).Analyze(scenarioTop())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// The 5-tap blur pulls every dark edge in by about one pixel.
	if !scalar.EqualWithinAbs(float64(tv.Ratio), 20, 0.3) {
		t.Errorf("Ratio = %v, want ~20", tv.Ratio)
	}
	if tv.Primary.Kind != detection.ShapeRectangle {
		t.Fatalf("primary = %+v, want Rectangle", tv.Primary)
	}
	if !scalar.EqualWithinAbs(tv.Primary.WidthCm, 2, 0.15) || !scalar.EqualWithinAbs(tv.Primary.HeightCm, 5, 0.15) {
		t.Errorf("size = %.3f x %.3f, want ~2 x 5", tv.Primary.WidthCm, tv.Primary.HeightCm)
	}
	if tv.Cropped == nil {
		t.Fatal("Cropped is nil")
	}
	if tv.Cropped.Bounds().Size() != tv.Enclosure.Size() {
		t.Errorf("Cropped size %v, want enclosure size %v", tv.Cropped.Bounds().Size(), tv.Enclosure.Size())
	}
}

func TestAnalyze_EmptyFrame(t *testing.T) {
	_, err := newTestAnalyzer(t).Analyze(image.NewRGBA(image.Rectangle{}))
	if !errors.Is(err, imaging.ErrEmptyFrame) {
		t.Errorf("error = %v, want ErrEmptyFrame", err)
	}
}

func TestNewTopViewAnalyzer_InvalidSize(t *testing.T) {
	cfg := config.Default()
	cfg.Calibration.EnclosureKnownSizeCm = 0

	if _, err := NewTopViewAnalyzer(cfg, nil); !errors.Is(err, detection.ErrInvalidKnownSize) {
		t.Errorf("error = %v, want ErrInvalidKnownSize", err)
	}
}
