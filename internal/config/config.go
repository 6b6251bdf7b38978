// Package config holds the calibration constants and segmentation tunables of the
// measurement pipeline, loaded from a JSON file with environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped by every validation failure returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// Offset sources for the side-view height correction.
const (
	OffsetFromObject    = "object"
	OffsetFromEnclosure = "enclosure"
)

// Candidate border policies for objects inside the top-view enclosure.
const (
	BordersOuter = "outer"
	BordersHoles = "holes"
	BordersAll   = "all"
)

// Config holds the application configuration
type Config struct {
	Calibration  CalibrationConfig  `json:"calibration"`
	Segmentation SegmentationConfig `json:"segmentation"`
	Shape        ShapeConfig        `json:"shape"`
	Capture      CaptureConfig      `json:"capture"`
	HTTP         HTTPConfig         `json:"http"`
	Log          LogConfig          `json:"log"`
}

// CalibrationConfig holds the physical sizes of the two calibration references.
type CalibrationConfig struct {
	// EnclosureKnownSizeCm is the side length of the top-view reference enclosure.
	EnclosureKnownSizeCm float64 `json:"enclosure_known_size_cm"`

	// ReferenceStripKnownSizeCm is the length of the dark strip seen by the side camera.
	ReferenceStripKnownSizeCm float64 `json:"reference_strip_known_size_cm"`

	// OffsetSource selects where the height correction comes from: "object" uses how far
	// the primary object sits inside the enclosure, "enclosure" uses the enclosure's own
	// vertical position in the top frame.
	OffsetSource string `json:"offset_source"`
}

// HSV is a point in hue-saturation-value space.
// H is in degrees [0,360), S and V are in [0,1].
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// HSVRange is an inclusive box in HSV space.
type HSVRange struct {
	Lower HSV `json:"lower"`
	Upper HSV `json:"upper"`
}

// BrightnessRange is an inclusive grayscale interval (0-255).
type BrightnessRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// SegmentationConfig holds the thresholds used to turn frames into masks.
type SegmentationConfig struct {
	DarknessThreshold    int             `json:"darkness_threshold"`
	BlurRadius           float64         `json:"blur_radius"`
	ObjectColorRange     HSVRange        `json:"object_color_range"`
	FloorBrightnessRange BrightnessRange `json:"floor_brightness_range"`
}

// ShapeConfig holds the classifier heuristics.
type ShapeConfig struct {
	MinContourArea        float64 `json:"min_contour_area"`
	PolygonApproxFraction float64 `json:"polygon_approx_fraction"`
	CircularityThreshold  float64 `json:"circularity_threshold"`

	// CandidateBorders picks the object borders inside the enclosure: "outer" for
	// dark objects in a ring enclosure, "holes" for light objects on a filled dark
	// base, "all" for both.
	CandidateBorders string `json:"candidate_borders"`
}

// CaptureConfig describes the two frame sources used by the watch loop.
type CaptureConfig struct {
	TopDir     string `json:"top_dir"`
	SideDir    string `json:"side_dir"`
	IntervalMs int    `json:"interval_ms"`
	MaxSkewMs  int    `json:"max_skew_ms"`

	// MeasureIntervalMs runs a full measurement periodically. Zero measures only
	// on request.
	MeasureIntervalMs int `json:"measure_interval_ms"`
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Calibration: CalibrationConfig{
			EnclosureKnownSizeCm:      10,
			ReferenceStripKnownSizeCm: 9,
			OffsetSource:              OffsetFromObject,
		},
		Segmentation: SegmentationConfig{
			DarknessThreshold: 50,
			BlurRadius:        2,
			ObjectColorRange: HSVRange{
				Lower: HSV{H: 10, S: 0.59, V: 0.59},
				Upper: HSV{H: 30, S: 1, V: 1},
			},
			FloorBrightnessRange: BrightnessRange{Min: 200, Max: 255},
		},
		Shape: ShapeConfig{
			MinContourArea:        100,
			PolygonApproxFraction: 0.04,
			CircularityThreshold:  0.75,
			CandidateBorders:      BordersOuter,
		},
		Capture: CaptureConfig{
			IntervalMs: 100,
			MaxSkewMs:  250,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults,
// so a file only needs to name the values it changes.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides selected values from BOX_MEASURE_* environment variables.
// Unparseable numeric values are ignored.
func (c *Config) ApplyEnv() {
	c.Log.Level = getEnv("BOX_MEASURE_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("BOX_MEASURE_LOG_FORMAT", c.Log.Format)
	c.HTTP.Addr = getEnv("BOX_MEASURE_HTTP_ADDR", c.HTTP.Addr)
	c.Calibration.EnclosureKnownSizeCm = getEnvFloat("BOX_MEASURE_ENCLOSURE_CM", c.Calibration.EnclosureKnownSizeCm)
	c.Calibration.ReferenceStripKnownSizeCm = getEnvFloat("BOX_MEASURE_STRIP_CM", c.Calibration.ReferenceStripKnownSizeCm)
	c.Segmentation.DarknessThreshold = getEnvInt("BOX_MEASURE_DARKNESS_THRESHOLD", c.Segmentation.DarknessThreshold)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !(c.Calibration.EnclosureKnownSizeCm > 0) {
		return invalid("calibration.enclosure_known_size_cm must be positive")
	}
	if !(c.Calibration.ReferenceStripKnownSizeCm > 0) {
		return invalid("calibration.reference_strip_known_size_cm must be positive")
	}
	switch c.Calibration.OffsetSource {
	case OffsetFromObject, OffsetFromEnclosure:
	default:
		return invalid("calibration.offset_source must be %q or %q", OffsetFromObject, OffsetFromEnclosure)
	}

	seg := c.Segmentation
	if seg.DarknessThreshold < 0 || seg.DarknessThreshold > 255 {
		return invalid("segmentation.darkness_threshold must be between 0 and 255")
	}
	if seg.BlurRadius < 0 {
		return invalid("segmentation.blur_radius must not be negative")
	}
	if err := validateHSVRange(seg.ObjectColorRange); err != nil {
		return err
	}
	fl := seg.FloorBrightnessRange
	if fl.Min < 0 || fl.Max > 255 || fl.Min > fl.Max {
		return invalid("segmentation.floor_brightness_range must satisfy 0 <= min <= max <= 255")
	}

	if c.Shape.MinContourArea < 0 {
		return invalid("shape.min_contour_area must not be negative")
	}
	if c.Shape.PolygonApproxFraction <= 0 || c.Shape.PolygonApproxFraction >= 1 {
		return invalid("shape.polygon_approx_fraction must be between 0 and 1")
	}
	if c.Shape.CircularityThreshold < 0 || c.Shape.CircularityThreshold > 1 {
		return invalid("shape.circularity_threshold must be between 0 and 1")
	}
	switch c.Shape.CandidateBorders {
	case BordersOuter, BordersHoles, BordersAll:
	default:
		return invalid("shape.candidate_borders must be %q, %q or %q", BordersOuter, BordersHoles, BordersAll)
	}

	if c.Capture.IntervalMs <= 0 {
		return invalid("capture.interval_ms must be positive")
	}
	if c.Capture.MeasureIntervalMs < 0 {
		return invalid("capture.measure_interval_ms must not be negative")
	}
	if c.Capture.MaxSkewMs < 0 {
		return invalid("capture.max_skew_ms must not be negative")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return invalid("log.format must be \"text\" or \"json\"")
	}

	return nil
}

func validateHSVRange(r HSVRange) error {
	for _, p := range []HSV{r.Lower, r.Upper} {
		if p.H < 0 || p.H >= 360 {
			return invalid("segmentation.object_color_range hue must be in [0,360)")
		}
		if p.S < 0 || p.S > 1 || p.V < 0 || p.V > 1 {
			return invalid("segmentation.object_color_range saturation and value must be in [0,1]")
		}
	}
	if r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
		return invalid("segmentation.object_color_range lower bound exceeds upper bound")
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./box-measure.json"
	}
	return filepath.Join(home, ".config", "box-measure", "config.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
