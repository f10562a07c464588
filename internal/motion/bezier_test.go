package motion

import (
	"math"
	"math/rand"
	"testing"

	"jordanella.com/desktop-pilot/internal/cv"
)

func TestControlPointsDegenerate(t *testing.T) {
	p := cv.Point{X: 42, Y: -7}
	c1, c2 := ControlPoints(rand.New(rand.NewSource(1)), p, p, 0, 60)
	if c1 != p || c2 != p {
		t.Errorf("ControlPoints for zero distance = %v, %v, want start and end", c1, c2)
	}
}

func TestControlPointsStraightWithoutCurvature(t *testing.T) {
	start, end := cv.Point{X: 0, Y: 0}, cv.Point{X: 90, Y: 0}
	c1, c2 := ControlPoints(rand.New(rand.NewSource(1)), start, end, 90, 0)

	if !near(c1, cv.Point{X: 30, Y: 0}) || !near(c2, cv.Point{X: 60, Y: 0}) {
		t.Errorf("control points = %v, %v, want thirds of the segment", c1, c2)
	}
}

func TestControlPointsStayWithinBend(t *testing.T) {
	tests := []struct {
		name          string
		end           cv.Point
		curvaturePx   float64
		wantCurvature float64
	}{
		{"short move uses floor", cv.Point{X: 10, Y: 0}, 60, 8},
		{"medium move scales", cv.Point{X: 0, Y: 100}, 60, 35},
		{"long move is capped", cv.Point{X: 600, Y: 800}, 60, 60},
	}

	start := cv.Point{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			distance := Distance(start, tt.end)
			dirX, dirY := tt.end.X/distance, tt.end.Y/distance

			for i := 0; i < 200; i++ {
				c1, c2 := ControlPoints(rng, start, tt.end, distance, tt.curvaturePx)
				for j, c := range []cv.Point{c1, c2} {
					frac := float64(j+1) / 3
					ox, oy := c.X-tt.end.X*frac, c.Y-tt.end.Y*frac
					along := ox*dirX + oy*dirY
					side := -ox*dirY + oy*dirX

					if math.Abs(side) > tt.wantCurvature+1e-9 {
						t.Fatalf("sideways offset %.3f exceeds %.3f", side, tt.wantCurvature)
					}
					if math.Abs(along) > 0.2*tt.wantCurvature+1e-9 {
						t.Fatalf("forward offset %.3f exceeds %.3f", along, 0.2*tt.wantCurvature)
					}
				}
			}
		})
	}
}

func TestBezierEndpoints(t *testing.T) {
	p0, p1 := cv.Point{X: 0, Y: 0}, cv.Point{X: 10, Y: 40}
	p2, p3 := cv.Point{X: 70, Y: -20}, cv.Point{X: 100, Y: 5}

	if got := Bezier(p0, p1, p2, p3, 0); !near(got, p0) {
		t.Errorf("B(0) = %v, want %v", got, p0)
	}
	if got := Bezier(p0, p1, p2, p3, 1); !near(got, p3) {
		t.Errorf("B(1) = %v, want %v", got, p3)
	}

	line := Bezier(cv.Point{}, cv.Point{X: 1}, cv.Point{X: 2}, cv.Point{X: 3}, 0.5)
	if !near(line, cv.Point{X: 1.5}) {
		t.Errorf("straight curve midpoint = %v, want (1.5,0)", line)
	}
}

func near(a, b cv.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}
