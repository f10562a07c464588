package motion

import (
	"math"

	"jordanella.com/desktop-pilot/internal/cv"
)

// degenerateDistance is the length below which a path has no direction
const degenerateDistance = 1e-9

// ControlPoints picks the two inner control points of a cubic Bezier from
// start to end. The bend scales with distance, floored at 8 pixels and capped
// at curvaturePixels.
func ControlPoints(rng Source, start, end cv.Point, distance, curvaturePixels float64) (cv.Point, cv.Point) {
	if distance < degenerateDistance {
		return start, end
	}

	dx, dy := end.X-start.X, end.Y-start.Y
	dirX, dirY := dx/distance, dy/distance
	perpX, perpY := -dirY, dirX

	curvature := math.Min(curvaturePixels, math.Max(8, distance*0.35))

	perturb := func(fraction float64) cv.Point {
		side := uniform(rng, -curvature, curvature)
		along := uniform(rng, -0.2*curvature, 0.2*curvature)
		return cv.Point{
			X: start.X + dx*fraction + perpX*side + dirX*along,
			Y: start.Y + dy*fraction + perpY*side + dirY*along,
		}
	}

	c1 := perturb(1.0 / 3.0)
	c2 := perturb(2.0 / 3.0)
	return c1, c2
}

// Bezier evaluates the cubic curve at t
func Bezier(p0, p1, p2, p3 cv.Point, t float64) cv.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return cv.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// Distance is the Euclidean distance between two points
func Distance(a, b cv.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
