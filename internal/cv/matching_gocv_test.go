//go:build gocv

package cv

import (
	"image"
	"image/color"
	"testing"
)

func TestOpenCVMatcherFindsPattern(t *testing.T) {
	haystack := noisyImage(80, 60, 7)
	needle := CropRegion(haystack, image.Rect(30, 20, 42, 30))

	score, err := OpenCVMatcher{}.Match(haystack, needle, ScoreCCoeffNormed)
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if score.Location != (image.Point{X: 30, Y: 20}) {
		t.Errorf("Location = %v, want (30,20)", score.Location)
	}
	if score.Confidence < 0.99 {
		t.Errorf("Confidence = %.4f, want >= 0.99", score.Confidence)
	}
}

func TestOpenCVMatcherRejectsUnnormalizedModes(t *testing.T) {
	haystack := solidImage(10, 10, color.RGBA{255, 255, 255, 255})
	needle := solidImage(2, 2, color.RGBA{0, 0, 0, 255})

	if _, err := (OpenCVMatcher{}).Match(haystack, needle, ScoreAbsDiff); err == nil {
		t.Fatal("expected error for absdiff mode")
	}
}
