package httpapi

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/measure"
	"github.com/ironsheep/box-measure/internal/sink"
)

var (
	white  = color.RGBA{255, 255, 255, 255}
	black  = color.RGBA{0, 0, 0, 255}
	strip  = color.RGBA{20, 20, 20, 255}
	orange = color.RGBA{255, 100, 0, 255}
)

func paint(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func topFrame(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))
	paint(img, img.Bounds(), white)
	enclosure := image.Rect(50, 20, 250, 220)
	paint(img, enclosure, black)
	paint(img, enclosure.Inset(10), white)
	paint(img, image.Rect(80, 80, 120, 180), black)
	return encodePNG(t, img)
}

func sideFrame(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	paint(img, img.Bounds(), white)
	paint(img, image.Rect(20, 40, 30, 160), strip)
	paint(img, image.Rect(100, 100, 140, 160), orange)
	return encodePNG(t, img)
}

// multipartBody builds a form with one file per entry in files.
func multipartBody(t *testing.T, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, data := range files {
		part, err := w.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func newTestRouter(t *testing.T) (*gin.Engine, *sink.LatestSink) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	session, err := measure.NewSession(config.Default(), logger)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	latest := sink.NewLatestSink()
	h := NewHandler(session, latest, nil, logger, "test")
	return NewRouter(h, logger), latest
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestLatestAndPreview_Empty(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/latest", "/api/v1/preview"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			if w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", w.Code)
			}
		})
	}
}

func TestMeasure(t *testing.T) {
	router, latest := newTestRouter(t)

	body, contentType := multipartBody(t, map[string][]byte{
		"top":  topFrame(t),
		"side": sideFrame(t),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/measure", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp MeasureResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CaptureID == "" {
		t.Error("missing capture_id")
	}
	if resp.Record.Primary.Kind != detection.ShapeRectangle {
		t.Errorf("primary kind = %v, want Rectangle", resp.Record.Primary.Kind)
	}
	if !resp.Record.Height.Valid || !scalar.EqualWithinAbs(resp.Record.Height.Cm, 7.5, 0.15) {
		t.Errorf("height = %+v, want ~7.5", resp.Record.Height)
	}
	if !strings.HasPrefix(resp.Summary, "Overall Shape: Rectangle") {
		t.Errorf("summary = %q", resp.Summary)
	}

	stored, ok := latest.Record()
	if !ok {
		t.Fatal("record was not published")
	}
	if stored.Value.Height.Cm != resp.Record.Height.Cm {
		t.Errorf("stored height %v != response %v", stored.Value.Height.Cm, resp.Record.Height.Cm)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/latest", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("latest status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Object Height:") {
		t.Errorf("latest body missing summary: %s", w.Body.String())
	}
}

func TestMeasure_BadRequests(t *testing.T) {
	router, latest := newTestRouter(t)

	tests := []struct {
		name  string
		files map[string][]byte
	}{
		{"missing side", map[string][]byte{"top": topFrame(t)}},
		{"missing top", map[string][]byte{"side": sideFrame(t)}},
		{"undecodable top", map[string][]byte{"top": []byte("nope"), "side": sideFrame(t)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/measure", body)
			req.Header.Set("Content-Type", contentType)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/measure", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	if _, ok := latest.Record(); ok {
		t.Error("failed requests must not publish")
	}
}

func TestUploadPreview(t *testing.T) {
	router, latest := newTestRouter(t)

	body, contentType := multipartBody(t, map[string][]byte{"side": sideFrame(t)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/preview", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	p, ok := latest.Preview()
	if !ok {
		t.Fatal("preview was not published")
	}
	// No offset is applied to previews.
	if !p.Value.Valid || !scalar.EqualWithinAbs(p.Value.Cm, 4.5, 1e-9) {
		t.Errorf("preview = %+v, want 4.5 cm", p.Value)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/preview", nil))
	if w.Code != http.StatusOK {
		t.Errorf("preview status = %d", w.Code)
	}
}
