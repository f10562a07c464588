package cv

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// tesseractRecognizer wraps a gosseract client
type tesseractRecognizer struct {
	client *gosseract.Client
}

// NewTesseractRecognizer creates a Tesseract client for dataDir and language
func NewTesseractRecognizer(dataDir, language string) (Recognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetTessdataPrefix(dataDir); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
	}
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return &tesseractRecognizer{client: client}, nil
}

func (t *tesseractRecognizer) Recognize(img *image.RGBA) (Page, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Page{}, fmt.Errorf("failed to encode capture: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Page{}, fmt.Errorf("failed to load capture: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return Page{}, err
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Page{}, err
	}

	page := Page{Text: text, Words: make([]RecognizedWord, 0, len(boxes))}
	for _, b := range boxes {
		page.Words = append(page.Words, RecognizedWord{
			Text:       b.Word,
			Box:        b.Box,
			HasBox:     true,
			Confidence: b.Confidence,
		})
	}
	return page, nil
}

func (t *tesseractRecognizer) Close() error {
	return t.client.Close()
}
