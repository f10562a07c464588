package cv

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// ScoreMode selects the correlation formula used to build the score surface
type ScoreMode int

const (
	// ScoreCCoeffNormed - mean-subtracted normalized correlation, higher is better
	ScoreCCoeffNormed ScoreMode = iota
	// ScoreCCorrNormed - normalized cross-correlation, higher is better
	ScoreCCorrNormed
	// ScoreSqDiffNormed - normalized squared difference, lower is better
	ScoreSqDiffNormed
	// ScoreSqDiff - mean squared difference scaled to [0,1], lower is better
	ScoreSqDiff
	// ScoreAbsDiff - mean absolute difference scaled to [0,1], lower is better
	ScoreAbsDiff
)

var scoreModeNames = map[ScoreMode]string{
	ScoreCCoeffNormed: "ccoeff_normed",
	ScoreCCorrNormed:  "ccorr_normed",
	ScoreSqDiffNormed: "sqdiff_normed",
	ScoreSqDiff:       "sqdiff",
	ScoreAbsDiff:      "absdiff",
}

func (m ScoreMode) String() string {
	if name, ok := scoreModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ScoreMode(%d)", int(m))
}

// LowerIsBetter reports the direction of the score
func (m ScoreMode) LowerIsBetter() bool {
	return m == ScoreSqDiffNormed || m == ScoreSqDiff || m == ScoreAbsDiff
}

// Valid reports whether m is a known mode
func (m ScoreMode) Valid() bool {
	_, ok := scoreModeNames[m]
	return ok
}

// ParseScoreMode converts a config name into a ScoreMode
func ParseScoreMode(s string) (ScoreMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for mode, n := range scoreModeNames {
		if n == name {
			return mode, nil
		}
	}
	return 0, apperr.InvalidArgument("ParseScoreMode", "unknown score mode %q", s)
}

// Confidence converts a raw score into [0,1] where 1 is a perfect match
func (m ScoreMode) Confidence(score float64) float64 {
	c := score
	if m.LowerIsBetter() {
		c = 1 - score
	}
	return math.Max(0, math.Min(1, c))
}

// MatchScore is the best location on a score surface
type MatchScore struct {
	Location   image.Point
	Score      float64
	Confidence float64
}

// Matcher finds the best placement of needle inside haystack
type Matcher interface {
	Match(haystack, needle *image.RGBA, mode ScoreMode) (MatchScore, error)
}

// Surface holds one score per candidate top-left position
type Surface struct {
	Width, Height int
	Values        []float64
}

// At returns the score for top-left position (x, y)
func (s *Surface) At(x, y int) float64 {
	return s.Values[y*s.Width+x]
}

// Best returns the location of the best score for mode. Ties keep the first
// position in row-major order.
func (s *Surface) Best(mode ScoreMode) (image.Point, float64) {
	bestIdx := 0
	for i, v := range s.Values {
		if mode.LowerIsBetter() {
			if v < s.Values[bestIdx] {
				bestIdx = i
			}
		} else if v > s.Values[bestIdx] {
			bestIdx = i
		}
	}
	return image.Point{X: bestIdx % s.Width, Y: bestIdx / s.Width}, s.Values[bestIdx]
}

// SurfaceMatcher is the pure Go matcher
type SurfaceMatcher struct{}

// Match implements Matcher
func (SurfaceMatcher) Match(haystack, needle *image.RGBA, mode ScoreMode) (MatchScore, error) {
	surface, err := ScoreSurface(haystack, needle, mode)
	if err != nil {
		return MatchScore{}, err
	}
	loc, score := surface.Best(mode)
	return MatchScore{Location: loc, Score: score, Confidence: mode.Confidence(score)}, nil
}

// ScoreSurface computes the 2D correlation surface of needle over haystack.
// Both images are read relative to their own Bounds().Min.
func ScoreSurface(haystack, needle *image.RGBA, mode ScoreMode) (*Surface, error) {
	if !mode.Valid() {
		return nil, apperr.InvalidArgument("ScoreSurface", "unknown score mode %d", int(mode))
	}

	hb, nb := haystack.Bounds(), needle.Bounds()
	nw, nh := nb.Dx(), nb.Dy()
	if nw <= 0 || nh <= 0 {
		return nil, apperr.InvalidArgument("ScoreSurface", "template %dx%d is empty", nw, nh)
	}
	if nw > hb.Dx() || nh > hb.Dy() {
		return nil, apperr.InvalidArgument("ScoreSurface", "template %dx%d larger than search area %dx%d",
			nw, nh, hb.Dx(), hb.Dy())
	}

	hay := newChannelPlane(haystack)
	tpl := newChannelPlane(needle)
	integral := newIntegralImage(hay)

	n := float64(nw * nh * 3)
	var sumT, sumT2 float64
	for _, v := range tpl.values {
		sumT += v
		sumT2 += v * v
	}

	surface := &Surface{
		Width:  hb.Dx() - nw + 1,
		Height: hb.Dy() - nh + 1,
	}
	surface.Values = make([]float64, surface.Width*surface.Height)

	for y := 0; y < surface.Height; y++ {
		for x := 0; x < surface.Width; x++ {
			var score float64
			switch mode {
			case ScoreAbsDiff:
				score = hay.absDiff(tpl, x, y) / (n * 255)
			case ScoreSqDiff:
				score = hay.sqDiff(tpl, x, y) / (n * 255 * 255)
			default:
				sumI, sumI2 := integral.window(x, y, nw, nh)
				sumTI := hay.cross(tpl, x, y)
				score = normedScore(mode, n, sumT, sumT2, sumI, sumI2, sumTI)
			}
			surface.Values[y*surface.Width+x] = score
		}
	}

	return surface, nil
}

// flatLevel is the per-sample energy (or variance) below which a template or
// window is treated as flat. Summed-area tables over a full desktop carry
// rounding noise well above zero.
const flatLevel = 1e-3

func normedScore(mode ScoreMode, n, sumT, sumT2, sumI, sumI2, sumTI float64) float64 {
	switch mode {
	case ScoreCCorrNormed:
		flatT, flatI := sumT2/n < flatLevel, sumI2/n < flatLevel
		if flatT || flatI {
			if flatT && flatI {
				return 1
			}
			return 0
		}
		return sumTI / math.Sqrt(sumT2*sumI2)

	case ScoreSqDiffNormed:
		num := math.Max(0, sumT2+sumI2-2*sumTI)
		if sumT2/n < flatLevel || sumI2/n < flatLevel {
			if num/n < flatLevel {
				return 0
			}
			return 1
		}
		return num / math.Sqrt(sumT2*sumI2)

	default: // ScoreCCoeffNormed
		varT := sumT2 - sumT*sumT/n
		varI := sumI2 - sumI*sumI/n
		flatT, flatI := varT/n < flatLevel, varI/n < flatLevel
		if flatT || flatI {
			// a flat template only correlates with a flat window of the same level
			if flatT && flatI && math.Abs(sumT-sumI)/n < 0.5 {
				return 1
			}
			return 0
		}
		return (sumTI - sumT*sumI/n) / math.Sqrt(varT*varI)
	}
}

// channelPlane stores RGB values as float64, three per pixel, origin (0,0)
type channelPlane struct {
	width, height int
	values        []float64
}

func newChannelPlane(img *image.RGBA) *channelPlane {
	b := img.Bounds()
	p := &channelPlane{width: b.Dx(), height: b.Dy()}
	p.values = make([]float64, p.width*p.height*3)

	for y := 0; y < p.height; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < p.width; x++ {
			dst := (y*p.width + x) * 3
			src := x * 4
			p.values[dst] = float64(row[src])
			p.values[dst+1] = float64(row[src+1])
			p.values[dst+2] = float64(row[src+2])
		}
	}
	return p
}

func (p *channelPlane) cross(t *channelPlane, x, y int) float64 {
	var sum float64
	rowLen := t.width * 3
	for ty := 0; ty < t.height; ty++ {
		h := p.values[((y+ty)*p.width+x)*3:]
		n := t.values[ty*rowLen:]
		for i := 0; i < rowLen; i++ {
			sum += h[i] * n[i]
		}
	}
	return sum
}

func (p *channelPlane) sqDiff(t *channelPlane, x, y int) float64 {
	var sum float64
	rowLen := t.width * 3
	for ty := 0; ty < t.height; ty++ {
		h := p.values[((y+ty)*p.width+x)*3:]
		n := t.values[ty*rowLen:]
		for i := 0; i < rowLen; i++ {
			d := h[i] - n[i]
			sum += d * d
		}
	}
	return sum
}

func (p *channelPlane) absDiff(t *channelPlane, x, y int) float64 {
	var sum float64
	rowLen := t.width * 3
	for ty := 0; ty < t.height; ty++ {
		h := p.values[((y+ty)*p.width+x)*3:]
		n := t.values[ty*rowLen:]
		for i := 0; i < rowLen; i++ {
			sum += math.Abs(h[i] - n[i])
		}
	}
	return sum
}

// integralImage holds summed-area tables of pixel values and squares across
// all three channels, sized (w+1)x(h+1)
type integralImage struct {
	stride int
	sum    []float64
	sumSq  []float64
}

func newIntegralImage(p *channelPlane) *integralImage {
	stride := p.width + 1
	ii := &integralImage{
		stride: stride,
		sum:    make([]float64, stride*(p.height+1)),
		sumSq:  make([]float64, stride*(p.height+1)),
	}

	for y := 0; y < p.height; y++ {
		var rowSum, rowSq float64
		for x := 0; x < p.width; x++ {
			i := (y*p.width + x) * 3
			for c := 0; c < 3; c++ {
				v := p.values[i+c]
				rowSum += v
				rowSq += v * v
			}
			idx := (y+1)*stride + x + 1
			ii.sum[idx] = ii.sum[idx-stride] + rowSum
			ii.sumSq[idx] = ii.sumSq[idx-stride] + rowSq
		}
	}
	return ii
}

func (ii *integralImage) window(x, y, w, h int) (sum, sumSq float64) {
	a := y*ii.stride + x
	b := y*ii.stride + x + w
	c := (y+h)*ii.stride + x
	d := (y+h)*ii.stride + x + w
	return ii.sum[d] - ii.sum[b] - ii.sum[c] + ii.sum[a],
		ii.sumSq[d] - ii.sumSq[b] - ii.sumSq[c] + ii.sumSq[a]
}

// DebugMatch returns a copy of haystack with the local bounds outlined in red
func DebugMatch(haystack *image.RGBA, bounds Rect) *image.RGBA {
	debug := CropRegion(haystack, haystack.Bounds())
	drawRect(debug, bounds.ToImageRectangle(), color.RGBA{255, 0, 0, 255})
	return debug
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetRGBA(x, rect.Min.Y, col)
		img.SetRGBA(x, rect.Max.Y-1, col)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetRGBA(rect.Min.X, y, col)
		img.SetRGBA(rect.Max.X-1, y, col)
	}
}
