package cv

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"jordanella.com/desktop-pilot/internal/apperr"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

func TestSurfaceMatcherFlatTemplate(t *testing.T) {
	haystack := solidImage(100, 100, white)
	fillRect(haystack, image.Rect(10, 10, 12, 12), black)
	needle := solidImage(2, 2, black)

	modes := []ScoreMode{ScoreCCoeffNormed, ScoreCCorrNormed, ScoreSqDiffNormed, ScoreSqDiff, ScoreAbsDiff}
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			score, err := SurfaceMatcher{}.Match(haystack, needle, mode)
			if err != nil {
				t.Fatalf("Match returned error: %v", err)
			}
			if score.Location != (image.Point{X: 10, Y: 10}) {
				t.Errorf("Location = %v, want (10,10)", score.Location)
			}
			if math.Abs(score.Confidence-1) > 1e-9 {
				t.Errorf("Confidence = %.6f, want 1", score.Confidence)
			}
		})
	}
}

func TestSurfaceMatcherTexturedTemplate(t *testing.T) {
	haystack := noisyImage(80, 60, 42)
	needle := CropRegion(haystack, image.Rect(30, 20, 42, 30))

	modes := []ScoreMode{ScoreCCoeffNormed, ScoreCCorrNormed, ScoreSqDiffNormed, ScoreSqDiff, ScoreAbsDiff}
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			score, err := SurfaceMatcher{}.Match(haystack, needle, mode)
			if err != nil {
				t.Fatalf("Match returned error: %v", err)
			}
			if score.Location != (image.Point{X: 30, Y: 20}) {
				t.Errorf("Location = %v, want (30,20)", score.Location)
			}
			if score.Confidence < 0.999 {
				t.Errorf("Confidence = %.6f, want >= 0.999", score.Confidence)
			}
		})
	}
}

func TestSurfaceMatcherNonZeroOrigin(t *testing.T) {
	base := noisyImage(40, 40, 3)
	needle := CropRegion(base, image.Rect(5, 7, 13, 15))
	shifted := base.SubImage(image.Rect(2, 2, 40, 40)).(*image.RGBA)

	score, err := SurfaceMatcher{}.Match(shifted, needle, ScoreCCoeffNormed)
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if score.Location != (image.Point{X: 3, Y: 5}) {
		t.Errorf("Location = %v, want (3,5) relative to the sub-image", score.Location)
	}
}

func TestScoreSurfaceRejectsBadInput(t *testing.T) {
	haystack := solidImage(10, 10, white)

	tests := []struct {
		name   string
		needle *image.RGBA
		mode   ScoreMode
	}{
		{"template wider than haystack", solidImage(11, 2, black), ScoreCCoeffNormed},
		{"template taller than haystack", solidImage(2, 11, black), ScoreCCoeffNormed},
		{"empty template", image.NewRGBA(image.Rect(0, 0, 0, 0)), ScoreCCoeffNormed},
		{"unknown mode", solidImage(2, 2, black), ScoreMode(99)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScoreSurface(haystack, tt.needle, tt.mode)
			if !errors.Is(err, apperr.ErrInvalidArgument) {
				t.Errorf("err = %v, want invalid argument", err)
			}
		})
	}
}

func TestScoreSurfaceDimensions(t *testing.T) {
	surface, err := ScoreSurface(noisyImage(20, 15, 1), noisyImage(4, 5, 2), ScoreSqDiff)
	if err != nil {
		t.Fatalf("ScoreSurface returned error: %v", err)
	}
	if surface.Width != 17 || surface.Height != 11 {
		t.Errorf("surface = %dx%d, want 17x11", surface.Width, surface.Height)
	}
	if len(surface.Values) != 17*11 {
		t.Errorf("len(Values) = %d, want %d", len(surface.Values), 17*11)
	}
}

func TestSurfaceBestKeepsFirstTie(t *testing.T) {
	s := &Surface{Width: 3, Height: 2, Values: []float64{0.2, 0.9, 0.1, 0.9, 0.1, 0.1}}

	loc, v := s.Best(ScoreCCoeffNormed)
	if loc != (image.Point{X: 1, Y: 0}) || v != 0.9 {
		t.Errorf("higher-is-better best = %v %.1f, want (1,0) 0.9", loc, v)
	}

	loc, v = s.Best(ScoreSqDiffNormed)
	if loc != (image.Point{X: 2, Y: 0}) || v != 0.1 {
		t.Errorf("lower-is-better best = %v %.1f, want (2,0) 0.1", loc, v)
	}
}

func TestScoreModeConfidence(t *testing.T) {
	tests := []struct {
		mode  ScoreMode
		score float64
		want  float64
	}{
		{ScoreSqDiffNormed, 0, 1},
		{ScoreSqDiffNormed, 0.25, 0.75},
		{ScoreSqDiffNormed, 1.5, 0},
		{ScoreCCoeffNormed, 0.8, 0.8},
		{ScoreCCoeffNormed, -0.4, 0},
		{ScoreCCorrNormed, 1.0000001, 1},
		{ScoreAbsDiff, 0.1, 0.9},
	}

	for _, tt := range tests {
		got := tt.mode.Confidence(tt.score)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s.Confidence(%v) = %v, want %v", tt.mode, tt.score, got, tt.want)
		}
	}
}

func TestParseScoreMode(t *testing.T) {
	for mode, name := range scoreModeNames {
		got, err := ParseScoreMode(" " + name + " ")
		if err != nil {
			t.Errorf("ParseScoreMode(%q) error: %v", name, err)
			continue
		}
		if got != mode {
			t.Errorf("ParseScoreMode(%q) = %v, want %v", name, got, mode)
		}
	}

	if _, err := ParseScoreMode("fuzzy"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("ParseScoreMode(fuzzy) err = %v, want invalid argument", err)
	}
}

func TestDebugMatchOutlinesBounds(t *testing.T) {
	haystack := solidImage(20, 20, white)
	debug := DebugMatch(haystack, NewRect(5, 5, 4, 4))

	if got := debug.RGBAAt(5, 5); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("corner pixel = %v, want red", got)
	}
	if got := debug.RGBAAt(6, 6); got != white {
		t.Errorf("interior pixel = %v, want white", got)
	}
	if got := haystack.RGBAAt(5, 5); got != white {
		t.Errorf("source was modified: %v", got)
	}
}
