//go:build gocv

package cv

import (
	"image"

	"gocv.io/x/gocv"

	"jordanella.com/desktop-pilot/internal/apperr"
)

var gocvModes = map[ScoreMode]gocv.TemplateMatchMode{
	ScoreCCoeffNormed: gocv.TmCcoeffNormed,
	ScoreCCorrNormed:  gocv.TmCcorrNormed,
	ScoreSqDiffNormed: gocv.TmSqdiffNormed,
}

// OpenCVMatcher scores templates with cv::matchTemplate. Only the normalized
// modes are supported.
type OpenCVMatcher struct{}

// Match implements Matcher
func (OpenCVMatcher) Match(haystack, needle *image.RGBA, mode ScoreMode) (MatchScore, error) {
	method, ok := gocvModes[mode]
	if !ok {
		return MatchScore{}, apperr.InvalidArgument("OpenCVMatcher.Match", "score mode %s not supported", mode)
	}

	hb, nb := haystack.Bounds(), needle.Bounds()
	if nb.Dx() <= 0 || nb.Dy() <= 0 || nb.Dx() > hb.Dx() || nb.Dy() > hb.Dy() {
		return MatchScore{}, apperr.InvalidArgument("OpenCVMatcher.Match", "template %dx%d does not fit search area %dx%d",
			nb.Dx(), nb.Dy(), hb.Dx(), hb.Dy())
	}

	img, err := gocv.ImageToMatRGB(haystack)
	if err != nil {
		return MatchScore{}, apperr.OperationFailed("OpenCVMatcher.Match", err, "failed to convert haystack")
	}
	defer img.Close()

	tmpl, err := gocv.ImageToMatRGB(needle)
	if err != nil {
		return MatchScore{}, apperr.OperationFailed("OpenCVMatcher.Match", err, "failed to convert template")
	}
	defer tmpl.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(img, tmpl, &result, method, mask)

	minVal, maxVal, minLoc, maxLoc := gocv.MinMaxLoc(result)
	if mode.LowerIsBetter() {
		return MatchScore{Location: minLoc, Score: float64(minVal), Confidence: mode.Confidence(float64(minVal))}, nil
	}
	return MatchScore{Location: maxLoc, Score: float64(maxVal), Confidence: mode.Confidence(float64(maxVal))}, nil
}
