package cv

import (
	"strings"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/logging"
)

// Options is the immutable vision configuration, validated by NewEngine
type Options struct {
	OCRDataDir    string    // directory holding <lang>.traineddata
	OCRLanguage   string    // e.g. "eng", "eng+deu"
	ScoreMode     ScoreMode // template scoring formula
	CaseSensitive bool      // FindText comparison

	// OCRReuseDistance is the perceptual-hash distance within which a capture
	// of the same region reuses the previous recognition. -1 disables reuse.
	OCRReuseDistance int
}

// DefaultOptions returns recommended settings
func DefaultOptions() Options {
	return Options{
		OCRLanguage:      "eng",
		ScoreMode:        ScoreCCoeffNormed,
		OCRReuseDistance: -1,
	}
}

// Validate checks the options without touching the OCR data directory,
// which is only checked when OCR is first used.
func (o Options) Validate() error {
	if strings.TrimSpace(o.OCRLanguage) == "" {
		return apperr.InvalidArgument("cv.Options", "OCR language must not be empty")
	}
	if !o.ScoreMode.Valid() {
		return apperr.InvalidArgument("cv.Options", "unknown score mode %d", int(o.ScoreMode))
	}
	if o.OCRReuseDistance < -1 || o.OCRReuseDistance > 64 {
		return apperr.InvalidArgument("cv.Options", "OCR reuse distance %d outside [-1,64]", o.OCRReuseDistance)
	}
	return nil
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithMatcher replaces the pure Go matcher
func WithMatcher(m Matcher) EngineOption {
	return func(e *Engine) {
		e.matcher = m
	}
}

// WithRecognizerFactory replaces the Tesseract recognizer
func WithRecognizerFactory(f RecognizerFactory) EngineOption {
	return func(e *Engine) {
		e.ocr.factory = f
	}
}

// WithTemplateSource sets the source used by FindTemplate
func WithTemplateSource(source TemplateSource) EngineOption {
	return func(e *Engine) {
		e.templates = source
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}
