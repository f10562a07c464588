package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/cv"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFromINI(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pilot.ini", `
[motion]
minDurationFactor = 0.9
maxDurationFactor = 1.1
minSteps = 5
maxSteps = 50

[vision]
ocrDataDir = /usr/share/tessdata
ocrLanguage = eng+deu
scoreMode = sqdiff_normed
caseSensitive = true

[host]
scriptsDir = routines
eventLogDir = logs/events
moveDuration = 650ms
minConfidence = 0.75
`)

	config, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI returned error: %v", err)
	}

	if config.Motion.MinDurationFactor != 0.9 || config.Motion.MaxSteps != 50 {
		t.Errorf("motion = %+v", config.Motion)
	}
	if config.Motion.CurvaturePixels != 60 {
		t.Errorf("unset curvature = %v, want default 60", config.Motion.CurvaturePixels)
	}
	if config.Vision.ScoreMode != cv.ScoreSqDiffNormed || !config.Vision.CaseSensitive {
		t.Errorf("vision = %+v", config.Vision)
	}
	if config.Vision.OCRLanguage != "eng+deu" || config.Vision.OCRDataDir != "/usr/share/tessdata" {
		t.Errorf("ocr settings = %q %q", config.Vision.OCRDataDir, config.Vision.OCRLanguage)
	}
	if config.Host.ScriptsDir != "routines" || config.Host.MoveDuration != 650*time.Millisecond {
		t.Errorf("host = %+v", config.Host)
	}
	if config.Host.JournalPath != "pilot.db" {
		t.Errorf("unset journal path = %q, want default", config.Host.JournalPath)
	}
	if config.Host.EventLogDir != "logs/events" {
		t.Errorf("event log dir = %q", config.Host.EventLogDir)
	}
}

func TestLoadFromINIRejectsUnknownScoreMode(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pilot.ini", "[vision]\nscoreMode = fuzzy\n")

	if _, err := LoadFromINI(path); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want invalid argument", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.ini"), ""); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "PILOT_OCR_DATA=/from/file\nPILOT_OCR_LANG=fra\nPILOT_JOURNAL=file.db\n")

	t.Setenv(EnvOCRLang, "jpn")
	t.Setenv(EnvLogLevel, "debug")

	config := NewDefaultConfig()
	if err := ApplyEnv(config, envFile); err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}

	if config.Vision.OCRDataDir != "/from/file" {
		t.Errorf("OCRDataDir = %q, want value from env file", config.Vision.OCRDataDir)
	}
	if config.Vision.OCRLanguage != "jpn" {
		t.Errorf("OCRLanguage = %q, want process env to win", config.Vision.OCRLanguage)
	}
	if config.Host.LogLevel != "debug" || config.Host.JournalPath != "file.db" {
		t.Errorf("host = %+v", config.Host)
	}
}

func TestApplyEnvMissingFileIgnored(t *testing.T) {
	config := NewDefaultConfig()
	if err := ApplyEnv(config, filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("ApplyEnv with missing file returned error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad motion", func(c *Config) { c.Motion.MinSteps = 0 }},
		{"bad vision", func(c *Config) { c.Vision.OCRLanguage = "" }},
		{"bad log level", func(c *Config) { c.Host.LogLevel = "chatty" }},
		{"bad log format", func(c *Config) { c.Host.LogFormat = "xml" }},
		{"bad confidence", func(c *Config) { c.Host.MinConfidence = 1.2 }},
		{"bad move duration", func(c *Config) { c.Host.MoveDuration = 0 }},
	}

	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveToINIRoundTrip(t *testing.T) {
	config := NewDefaultConfig()
	config.Motion.CurvaturePixels = 42.5
	config.Vision.ScoreMode = cv.ScoreCCorrNormed
	config.Vision.OCRReuseDistance = 4
	config.Host.PollInterval = time.Second

	path := filepath.Join(t.TempDir(), "saved.ini")
	if err := SaveToINI(config, path); err != nil {
		t.Fatalf("SaveToINI returned error: %v", err)
	}

	loaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI returned error: %v", err)
	}
	if *loaded != *config {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *config)
	}
}
