package capture

import (
	"image"
	"sync"
	"testing"
	"time"
)

func TestLatestFrame_Empty(t *testing.T) {
	var cell LatestFrame
	if _, ok := cell.TryGet(); ok {
		t.Error("TryGet on an empty cell should report false")
	}
}

func TestLatestFrame_StoreReplaces(t *testing.T) {
	var cell LatestFrame
	a := image.NewGray(image.Rect(0, 0, 1, 1))
	b := image.NewGray(image.Rect(0, 0, 2, 2))

	cell.Store(Frame{Image: a, Seq: 1})
	cell.Store(Frame{Image: b, Seq: 2})

	f, ok := cell.TryGet()
	if !ok {
		t.Fatal("TryGet reported no frame")
	}
	if f.Seq != 2 || f.Image != b {
		t.Errorf("got frame %d, want the second one", f.Seq)
	}
}

func TestLatestFrame_Concurrent(t *testing.T) {
	var cell LatestFrame
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				cell.Store(Frame{Seq: uint64(i), CapturedAt: time.Unix(int64(w), 0)})
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				cell.TryGet()
			}
		}()
	}
	wg.Wait()

	if _, ok := cell.TryGet(); !ok {
		t.Error("cell empty after concurrent stores")
	}
}

func TestPair_Skew(t *testing.T) {
	base := time.Unix(1000, 0)
	tests := []struct {
		top, side time.Time
		want      time.Duration
	}{
		{base, base, 0},
		{base.Add(30 * time.Millisecond), base, 30 * time.Millisecond},
		{base, base.Add(40 * time.Millisecond), 40 * time.Millisecond},
	}
	for _, tt := range tests {
		p := Pair{Top: Frame{CapturedAt: tt.top}, Side: Frame{CapturedAt: tt.side}}
		if got := p.Skew(); got != tt.want {
			t.Errorf("Skew() = %v, want %v", got, tt.want)
		}
	}
}
