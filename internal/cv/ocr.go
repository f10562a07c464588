package cv

import (
	"image"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/corona10/goimagehash"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/logging"
)

// RecognizedWord is one word segment as reported by the recognition engine.
// Box is relative to the recognized image; Confidence is 0..100.
type RecognizedWord struct {
	Text       string
	Box        image.Rectangle
	HasBox     bool
	Confidence float64
}

// Page is the raw result of one recognition pass
type Page struct {
	Text  string
	Words []RecognizedWord
}

// Recognizer runs text recognition. Implementations are not safe for
// concurrent use.
type Recognizer interface {
	Recognize(img *image.RGBA) (Page, error)
	Close() error
}

// RecognizerFactory constructs a Recognizer for a data directory and language
type RecognizerFactory func(dataDir, language string) (Recognizer, error)

// ocrHandle owns the lazily created recognizer. mu is held for the whole
// recognition call.
type ocrHandle struct {
	mu       sync.Mutex
	factory  RecognizerFactory
	dataDir  string
	language string
	rec      Recognizer
	closed   bool
	logger   *logging.Logger

	reuseDistance int
	lastRegion    Rect
	lastHash      *goimagehash.ImageHash
	lastPage      Page
}

func newOCRHandle(opts Options) *ocrHandle {
	return &ocrHandle{
		factory:       NewTesseractRecognizer,
		dataDir:       opts.OCRDataDir,
		language:      opts.OCRLanguage,
		reuseDistance: opts.OCRReuseDistance,
	}
}

// recognize runs one pass over img, captured from region. When reuse is
// enabled and img hashes close to the previous capture of the same region,
// the previous page is returned and reused is true.
func (h *ocrHandle) recognize(img *image.RGBA, region Rect) (page Page, reused bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return Page{}, false, apperr.OperationFailed("ReadText", nil, "perception engine already closed")
	}

	if h.rec == nil {
		if err := h.init(); err != nil {
			return Page{}, false, err
		}
	}

	var hash *goimagehash.ImageHash
	if h.reuseDistance >= 0 {
		hash, err = goimagehash.PerceptionHash(img)
		if err != nil {
			hash = nil
		} else if h.lastHash != nil && h.lastRegion == region {
			if dist, derr := h.lastHash.Distance(hash); derr == nil && dist <= h.reuseDistance {
				h.logger.DebugWithContext("reusing previous recognition", map[string]interface{}{
					"distance": dist,
				})
				return h.lastPage, true, nil
			}
		}
	}

	page, err = h.rec.Recognize(img)
	if err != nil {
		return Page{}, false, apperr.OperationFailed("ReadText", err, "text recognition failed")
	}

	if hash != nil {
		h.lastRegion, h.lastHash, h.lastPage = region, hash, page
	}
	return page, false, nil
}

// init validates the data directory and creates the recognizer. Caller holds mu.
func (h *ocrHandle) init() error {
	if strings.TrimSpace(h.dataDir) == "" {
		return apperr.MissingResource("ReadText", "OCR data directory (not configured)", nil)
	}
	info, err := os.Stat(h.dataDir)
	if err != nil || !info.IsDir() {
		return apperr.MissingResource("ReadText", h.dataDir, err)
	}

	rec, err := h.factory(h.dataDir, h.language)
	if err != nil {
		return apperr.OperationFailed("ReadText", err, "failed to create OCR engine for %q", h.language)
	}

	h.rec = rec
	h.logger.InfoWithContext("OCR engine created", map[string]interface{}{
		"data_dir": h.dataDir,
		"language": h.language,
	})
	return nil
}

func (h *ocrHandle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.lastHash = nil
	if h.rec == nil {
		return nil
	}
	err := h.rec.Close()
	h.rec = nil
	return err
}

// extractWords converts engine segments into matches local to region.
// Blank words and words without a bounding box are skipped.
func extractWords(page Page, region Rect) []TextMatch {
	words := make([]TextMatch, 0, len(page.Words))
	for _, w := range page.Words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if !w.HasBox || w.Box.Empty() {
			continue
		}

		words = append(words, TextMatch{
			Payload: Word{
				Text:       text,
				Confidence: math.Max(0, math.Min(1, w.Confidence/100)),
			},
			Bounds:       FromImageRectangle(w.Box),
			SearchRegion: region,
		})
	}
	return words
}

// filterWords keeps words containing query with confidence >= minConfidence
func filterWords(words []TextMatch, query string, minConfidence float64, caseSensitive bool) []TextMatch {
	if !caseSensitive {
		query = strings.ToLower(query)
	}

	var matches []TextMatch
	for _, w := range words {
		if w.Payload.Confidence < minConfidence {
			continue
		}
		text := w.Payload.Text
		if !caseSensitive {
			text = strings.ToLower(text)
		}
		if strings.Contains(text, query) {
			matches = append(matches, w)
		}
	}
	return matches
}
