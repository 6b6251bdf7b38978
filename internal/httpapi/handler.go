// Package httpapi exposes the measurement pipeline over HTTP with gin.
package httpapi

import (
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/imaging"
	"github.com/ironsheep/box-measure/internal/measure"
	"github.com/ironsheep/box-measure/internal/sink"
)

// maxUploadBytes bounds the multipart form held in memory.
const maxUploadBytes = 32 << 20

// Handler serves measurements and the latest published results.
type Handler struct {
	session *measure.Session
	latest  *sink.LatestSink
	publish sink.ResultSink
	logger  logrus.FieldLogger
	version string
}

// NewHandler creates a handler. Results of uploaded measurements go to publish,
// which should include latest so they are visible through /latest; a nil publish
// sends them to latest only.
func NewHandler(session *measure.Session, latest *sink.LatestSink, publish sink.ResultSink, logger logrus.FieldLogger, version string) *Handler {
	if publish == nil {
		publish = latest
	}
	return &Handler{
		session: session,
		latest:  latest,
		publish: publish,
		logger:  logger,
		version: version,
	}
}

// RegisterRoutes registers the API routes on router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/measure", h.Measure)
		api.POST("/preview", h.UploadPreview)
		api.GET("/latest", h.Latest)
		api.GET("/preview", h.Preview)
	}
	router.GET("/health", h.Health)
}

// MeasureResponse is the body returned for an uploaded frame pair.
type MeasureResponse struct {
	CaptureID string         `json:"capture_id"`
	Record    measure.Record `json:"record"`
	Summary   string         `json:"summary"`
}

// Measure runs a full measurement on the multipart files "top" and "side".
func (h *Handler) Measure(c *gin.Context) {
	id := uuid.New().String()
	log := h.logger.WithField("capture_id", id)

	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		log.WithError(err).Debug("bad multipart form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
		return
	}

	top, err := formFrame(c, "top")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	side, err := formFrame(c, "side")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.session.Measure(top, side)
	if err != nil {
		log.WithError(err).Warn("measurement failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "capture_id": id})
		return
	}

	h.publish.Publish(rec)
	log.WithField("summary", rec.Summary()).Debug("measurement published")

	c.JSON(http.StatusOK, MeasureResponse{
		CaptureID: id,
		Record:    rec,
		Summary:   rec.Summary(),
	})
}

// UploadPreview estimates height from the multipart file "side" alone and
// publishes it as a preview.
func (h *Handler) UploadPreview(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
		return
	}
	side, err := formFrame(c, "side")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	height, err := h.session.PreviewHeight(side)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	h.publish.PublishHeightOnly(height)
	c.JSON(http.StatusOK, height)
}

// Latest returns the last published record.
func (h *Handler) Latest(c *gin.Context) {
	rec, ok := h.latest.Record()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no measurement yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record":  rec.Value,
		"summary": rec.Value.Summary(),
		"at":      rec.At,
	})
}

// Preview returns the last published height preview.
func (h *Handler) Preview(c *gin.Context) {
	p, ok := h.latest.Preview()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview yet"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

func formFrame(c *gin.Context, field string) (image.Image, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s frame is required", field)
	}
	return openFrame(fh)
}

func openFrame(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return imaging.DecodeFrame(f)
}

// NewRouter builds a gin engine with recovery, request logging and the API routes.
func NewRouter(h *Handler, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	h.RegisterRoutes(router)
	return router
}

// requestLogger logs each request through logrus instead of gin's stdout logger.
func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("http request")
	}
}
