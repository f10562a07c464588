package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"jordanella.com/desktop-pilot/internal/cv"
	"jordanella.com/desktop-pilot/internal/logging"
	"jordanella.com/desktop-pilot/internal/motion"
)

// Environment variables that override the INI file
const (
	EnvOCRData  = "PILOT_OCR_DATA"
	EnvOCRLang  = "PILOT_OCR_LANG"
	EnvLogLevel = "PILOT_LOG_LEVEL"
	EnvJournal  = "PILOT_JOURNAL"
)

// Config is the full application configuration
type Config struct {
	Motion motion.Options
	Vision cv.Options
	Host   HostConfig
}

// HostConfig holds settings of the CLI host around the core
type HostConfig struct {
	ScriptsDir    string
	TemplatesFile string
	JournalPath   string
	EventLogDir   string // optional file log of run events
	LogLevel      string
	LogFormat     string // "text" or "json"

	MoveDuration  time.Duration // default for script steps that omit one
	MinConfidence float64       // default for script steps that omit one
	PollInterval  time.Duration // wait_image polling
}

// NewDefaultConfig creates a config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Motion: motion.DefaultOptions(),
		Vision: cv.DefaultOptions(),
		Host: HostConfig{
			ScriptsDir:    "scripts",
			TemplatesFile: "templates/templates.yaml",
			JournalPath:   "pilot.db",
			LogLevel:      "INFO",
			LogFormat:     "text",
			MoveDuration:  400 * time.Millisecond,
			MinConfidence: 0.8,
			PollInterval:  250 * time.Millisecond,
		},
	}
}

// Load reads the INI file at path (skipped when empty), then applies
// overrides from envFile and the process environment, then validates.
func Load(path, envFile string) (*Config, error) {
	config := NewDefaultConfig()
	if path != "" {
		loaded, err := LoadFromINI(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := ApplyEnv(config, envFile); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromINI loads configuration from an INI file
func LoadFromINI(path string) (*Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := NewDefaultConfig()

	// Motion
	section := cfg.Section("motion")
	m := &config.Motion
	m.MinDurationFactor = section.Key("minDurationFactor").MustFloat64(m.MinDurationFactor)
	m.MaxDurationFactor = section.Key("maxDurationFactor").MustFloat64(m.MaxDurationFactor)
	m.CurvaturePixels = section.Key("curvaturePixels").MustFloat64(m.CurvaturePixels)
	m.PathJitterPixels = section.Key("pathJitterPixels").MustFloat64(m.PathJitterPixels)
	m.MinSteps = section.Key("minSteps").MustInt(m.MinSteps)
	m.MaxSteps = section.Key("maxSteps").MustInt(m.MaxSteps)

	// Vision
	section = cfg.Section("vision")
	v := &config.Vision
	v.OCRDataDir = section.Key("ocrDataDir").MustString(v.OCRDataDir)
	v.OCRLanguage = section.Key("ocrLanguage").MustString(v.OCRLanguage)
	v.CaseSensitive = section.Key("caseSensitive").MustBool(v.CaseSensitive)
	v.OCRReuseDistance = section.Key("ocrReuseDistance").MustInt(v.OCRReuseDistance)
	if section.HasKey("scoreMode") {
		mode, err := cv.ParseScoreMode(section.Key("scoreMode").String())
		if err != nil {
			return nil, fmt.Errorf("invalid [vision] scoreMode: %w", err)
		}
		v.ScoreMode = mode
	}

	// Host
	section = cfg.Section("host")
	h := &config.Host
	h.ScriptsDir = section.Key("scriptsDir").MustString(h.ScriptsDir)
	h.TemplatesFile = section.Key("templatesFile").MustString(h.TemplatesFile)
	h.JournalPath = section.Key("journalPath").MustString(h.JournalPath)
	h.EventLogDir = section.Key("eventLogDir").MustString(h.EventLogDir)
	h.LogLevel = section.Key("logLevel").MustString(h.LogLevel)
	h.LogFormat = section.Key("logFormat").MustString(h.LogFormat)
	h.MoveDuration = section.Key("moveDuration").MustDuration(h.MoveDuration)
	h.MinConfidence = section.Key("minConfidence").MustFloat64(h.MinConfidence)
	h.PollInterval = section.Key("pollInterval").MustDuration(h.PollInterval)

	return config, nil
}

// ApplyEnv overrides config from envFile (ignored when absent) and the
// process environment. Process variables win over the file.
func ApplyEnv(config *Config, envFile string) error {
	values := map[string]string{}
	if envFile != "" {
		fileValues, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	for _, key := range []string{EnvOCRData, EnvOCRLang, EnvLogLevel, EnvJournal} {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	if v := values[EnvOCRData]; v != "" {
		config.Vision.OCRDataDir = v
	}
	if v := values[EnvOCRLang]; v != "" {
		config.Vision.OCRLanguage = v
	}
	if v := values[EnvLogLevel]; v != "" {
		config.Host.LogLevel = v
	}
	if v := values[EnvJournal]; v != "" {
		config.Host.JournalPath = v
	}
	return nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	if err := c.Vision.Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Host.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.Host.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Host.LogFormat)
	}
	if c.Host.MoveDuration <= 0 {
		return fmt.Errorf("moveDuration must be positive")
	}
	if c.Host.MinConfidence < 0 || c.Host.MinConfidence > 1 {
		return fmt.Errorf("minConfidence %.3f outside [0,1]", c.Host.MinConfidence)
	}
	if c.Host.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be positive")
	}
	return nil
}

// SaveToINI saves configuration to an INI file
func SaveToINI(config *Config, path string) error {
	cfg := ini.Empty()

	section := cfg.Section("motion")
	section.Key("minDurationFactor").SetValue(fmt.Sprintf("%g", config.Motion.MinDurationFactor))
	section.Key("maxDurationFactor").SetValue(fmt.Sprintf("%g", config.Motion.MaxDurationFactor))
	section.Key("curvaturePixels").SetValue(fmt.Sprintf("%g", config.Motion.CurvaturePixels))
	section.Key("pathJitterPixels").SetValue(fmt.Sprintf("%g", config.Motion.PathJitterPixels))
	section.Key("minSteps").SetValue(fmt.Sprintf("%d", config.Motion.MinSteps))
	section.Key("maxSteps").SetValue(fmt.Sprintf("%d", config.Motion.MaxSteps))

	section = cfg.Section("vision")
	section.Key("ocrDataDir").SetValue(config.Vision.OCRDataDir)
	section.Key("ocrLanguage").SetValue(config.Vision.OCRLanguage)
	section.Key("scoreMode").SetValue(config.Vision.ScoreMode.String())
	section.Key("caseSensitive").SetValue(fmt.Sprintf("%t", config.Vision.CaseSensitive))
	section.Key("ocrReuseDistance").SetValue(fmt.Sprintf("%d", config.Vision.OCRReuseDistance))

	section = cfg.Section("host")
	section.Key("scriptsDir").SetValue(config.Host.ScriptsDir)
	section.Key("templatesFile").SetValue(config.Host.TemplatesFile)
	section.Key("journalPath").SetValue(config.Host.JournalPath)
	section.Key("logLevel").SetValue(config.Host.LogLevel)
	section.Key("logFormat").SetValue(config.Host.LogFormat)
	section.Key("moveDuration").SetValue(config.Host.MoveDuration.String())
	section.Key("minConfidence").SetValue(fmt.Sprintf("%g", config.Host.MinConfidence))
	section.Key("pollInterval").SetValue(config.Host.PollInterval.String())

	return cfg.SaveTo(path)
}
