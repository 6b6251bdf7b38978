package main

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/imaging"
	"github.com/ironsheep/box-measure/internal/measure"
)

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	data := []byte(`{"calibration":{"enclosure_known_size_cm":12}}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Calibration.EnclosureKnownSizeCm != 12 {
		t.Errorf("enclosure = %v, want 12", cfg.Calibration.EnclosureKnownSizeCm)
	}
	// Unset fields keep their defaults.
	if cfg.Calibration.ReferenceStripKnownSizeCm != 9 {
		t.Errorf("strip = %v, want default 9", cfg.Calibration.ReferenceStripKnownSizeCm)
	}
}

func TestLoadConfig_EnvAndValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BOX_MEASURE_STRIP_CM", "4.5")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Calibration.ReferenceStripKnownSizeCm != 4.5 {
		t.Errorf("strip = %v, want 4.5 from env", cfg.Calibration.ReferenceStripKnownSizeCm)
	}

	t.Setenv("BOX_MEASURE_ENCLOSURE_CM", "-1")
	if _, err := loadConfig(path); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestRunConfig_Write(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOX_MEASURE_STRIP_CM", "6")
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	if err := runConfig([]string{"-config", filepath.Join(t.TempDir(), "none.json"), "-write", path}); err == nil {
		t.Fatal("expected an error for a missing -config file")
	}
	if err := runConfig([]string{"-write", path}); err != nil {
		t.Fatalf("runConfig failed: %v", err)
	}

	// The written file round-trips through loadConfig with the env value baked in.
	t.Setenv("BOX_MEASURE_STRIP_CM", "")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Calibration.ReferenceStripKnownSizeCm != 6 {
		t.Errorf("strip = %v, want 6", cfg.Calibration.ReferenceStripKnownSizeCm)
	}
	if cfg.Shape.CandidateBorders != config.BordersOuter {
		t.Errorf("candidate_borders = %q, want %q", cfg.Shape.CandidateBorders, config.BordersOuter)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"text info", config.LogConfig{Level: "info", Format: "text"}, logrus.InfoLevel, false},
		{"json debug", config.LogConfig{Level: "debug", Format: "JSON"}, logrus.DebugLevel, true},
		{"bad level", config.LogConfig{Level: "loud", Format: "text"}, logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := newLogger(tt.cfg)
			if log.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.wantLevel)
			}
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			if isJSON != tt.wantJSON {
				t.Errorf("json formatter = %v, want %v", isJSON, tt.wantJSON)
			}
		})
	}
}

func TestDumpMasks(t *testing.T) {
	session, err := measure.NewSession(config.Default(), nil)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	frame := image.NewRGBA(image.Rect(0, 0, 40, 30))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(frame, image.Rect(5, 5, 15, 25), image.NewUniform(color.Black), image.Point{}, draw.Src)

	dir := filepath.Join(t.TempDir(), "dump")
	if err := dumpMasks(session, frame, frame, dir); err != nil {
		t.Fatalf("dumpMasks failed: %v", err)
	}

	for _, name := range []string{"top_mask.png", "side_reference.png", "side_object.png"} {
		img, err := imaging.LoadFrame(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if img.Bounds() != frame.Bounds() {
			t.Errorf("%s bounds = %v, want %v", name, img.Bounds(), frame.Bounds())
		}
	}
}
