package cv

import (
	"context"
	"image"
	"time"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/logging"
)

// TemplateSource resolves named templates to decoded images
type TemplateSource interface {
	Get(name string) (*image.RGBA, Template, error)
}

// Engine handles all perception operations: capture, template matching and
// text recognition. The OCR engine is created on first use and released by
// Close.
type Engine struct {
	capturer  Capturer
	matcher   Matcher
	opts      Options
	ocr       *ocrHandle
	templates TemplateSource
	logger    *logging.Logger
}

// NewEngine validates opts and creates an engine reading from capturer
func NewEngine(capturer Capturer, opts Options, options ...EngineOption) (*Engine, error) {
	if capturer == nil {
		return nil, apperr.InvalidArgument("NewEngine", "capturer is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		capturer: capturer,
		matcher:  SurfaceMatcher{},
		opts:     opts,
		ocr:      newOCRHandle(opts),
	}
	for _, opt := range options {
		opt(e)
	}
	e.ocr.logger = e.logger.Named("ocr")

	return e, nil
}

// Options returns the validated options
func (e *Engine) Options() Options {
	return e.opts
}

// Capture grabs region (nil for the whole virtual desktop)
func (e *Engine) Capture(ctx context.Context, region *Rect) (*image.RGBA, Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, Rect{}, apperr.Canceled("Capture", err)
	}
	return e.capturer.Capture(region)
}

// FindImage locates the best match of template in region (nil for the whole
// virtual desktop). It returns nil without error when the best confidence is
// below minConfidence.
func (e *Engine) FindImage(ctx context.Context, template image.Image, minConfidence float64, region *Rect) (*ImageMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Canceled("FindImage", err)
	}
	if template == nil {
		return nil, apperr.InvalidArgument("FindImage", "template is required")
	}
	if minConfidence < 0 || minConfidence > 1 {
		return nil, apperr.OutOfRange("FindImage", "min confidence %.3f outside [0,1]", minConfidence)
	}

	needle := normalizeOrigin(toRGBA(template))
	tw, th := needle.Bounds().Dx(), needle.Bounds().Dy()
	if tw <= 0 || th <= 0 {
		return nil, apperr.InvalidArgument("FindImage", "template is empty")
	}
	if region != nil {
		if err := region.Validate(); err != nil {
			return nil, apperr.OutOfRange("FindImage", "invalid search region %v", *region)
		}
		if tw > region.Width || th > region.Height {
			return nil, apperr.InvalidArgument("FindImage", "template %dx%d larger than search region %dx%d",
				tw, th, region.Width, region.Height)
		}
	}

	haystack, captured, err := e.capturer.Capture(region)
	if err != nil {
		return nil, err
	}
	if tw > captured.Width || th > captured.Height {
		return nil, apperr.InvalidArgument("FindImage", "template %dx%d larger than search region %dx%d",
			tw, th, captured.Width, captured.Height)
	}

	score, err := e.matcher.Match(haystack, needle, e.opts.ScoreMode)
	if err != nil {
		return nil, err
	}

	e.logger.DebugWithContext("template scored", map[string]interface{}{
		"mode":       e.opts.ScoreMode.String(),
		"confidence": score.Confidence,
		"x":          score.Location.X,
		"y":          score.Location.Y,
	})

	if score.Confidence < minConfidence {
		return nil, nil
	}

	return &ImageMatch{
		Payload:      ImageHit{Confidence: score.Confidence},
		Bounds:       NewRect(score.Location.X, score.Location.Y, tw, th),
		SearchRegion: captured,
	}, nil
}

// FindTemplate loads a named template from the configured source and finds
// it using the template's own threshold and region
func (e *Engine) FindTemplate(ctx context.Context, name string) (*ImageMatch, error) {
	if e.templates == nil {
		return nil, apperr.MissingResource("FindTemplate", "template source", nil)
	}
	img, tmpl, err := e.templates.Get(name)
	if err != nil {
		return nil, err
	}
	return e.FindImage(ctx, img, tmpl.Threshold, tmpl.Region)
}

// WaitForImage polls FindImage every interval until a match is found or ctx
// ends
func (e *Engine) WaitForImage(ctx context.Context, template image.Image, minConfidence float64, region *Rect, interval time.Duration) (*ImageMatch, error) {
	if interval <= 0 {
		return nil, apperr.OutOfRange("WaitForImage", "poll interval must be positive")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		match, err := e.FindImage(ctx, template, minConfidence, region)
		if err != nil || match != nil {
			return match, err
		}

		select {
		case <-ctx.Done():
			return nil, apperr.Canceled("WaitForImage", ctx.Err())
		case <-ticker.C:
		}
	}
}

// ReadText recognizes all text in region (nil for the whole virtual desktop)
func (e *Engine) ReadText(ctx context.Context, region *Rect) (*TextResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Canceled("ReadText", err)
	}
	if region != nil {
		if err := region.Validate(); err != nil {
			return nil, apperr.OutOfRange("ReadText", "invalid search region %v", *region)
		}
	}

	img, captured, err := e.capturer.Capture(region)
	if err != nil {
		return nil, err
	}

	page, reused, err := e.ocr.recognize(img, captured)
	if err != nil {
		return nil, err
	}

	words := extractWords(page, captured)
	e.logger.DebugWithContext("text recognized", map[string]interface{}{
		"words":  len(words),
		"reused": reused,
	})

	return &TextResult{
		Text:         page.Text,
		Words:        words,
		SearchRegion: captured,
	}, nil
}

// FindText returns the recognized words in region that contain query and
// reach minConfidence. Comparison follows Options.CaseSensitive.
func (e *Engine) FindText(ctx context.Context, query string, minConfidence float64, region *Rect) ([]TextMatch, error) {
	if query == "" {
		return nil, apperr.InvalidArgument("FindText", "query must not be empty")
	}
	if minConfidence < 0 || minConfidence > 1 {
		return nil, apperr.OutOfRange("FindText", "min confidence %.3f outside [0,1]", minConfidence)
	}

	result, err := e.ReadText(ctx, region)
	if err != nil {
		return nil, err
	}
	return filterWords(result.Words, query, minConfidence, e.opts.CaseSensitive), nil
}

// Close releases the OCR engine. Later text operations fail.
func (e *Engine) Close() error {
	return e.ocr.close()
}
