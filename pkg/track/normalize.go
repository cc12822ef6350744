package track

import (
	"errors"
	"math"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

// DefaultMargin is the padding added around the outline when computing
// display bounds.
const DefaultMargin = 2000.0

// tolerances for coincident points
const (
	relTol = 1e-5
	absTol = 1e-8
)

var ErrEmptyGeometry = errors.New("track outline needs at least 2 position samples")

type Bounds struct {
	XMin float64 `json:"xMin"`
	XMax float64 `json:"xMax"`
	YMin float64 `json:"yMin"`
	YMax float64 `json:"yMax"`
}

// NormalizeTrack closes the polyline given by positions (if needed) and
// rotates it by rotationDegrees into the display orientation.
// The input is not modified.
//
//nolint:whitespace // can't make both editor and linter happy
func NormalizeTrack(
	positions []model.PositionSample, rotationDegrees float64,
) ([]model.PositionSample, error) {
	if len(positions) < 2 {
		return nil, ErrEmptyGeometry
	}
	points := make([]model.PositionSample, len(positions), len(positions)+1)
	copy(points, positions)
	if !IsClosed(points) {
		points = append(points, points[0])
	}
	return Rotate(points, rotationDegrees), nil
}

// IsClosed reports whether the first and the last point coincide.
func IsClosed(points []model.PositionSample) bool {
	if len(points) == 0 {
		return false
	}
	first, last := points[0], points[len(points)-1]
	return isClose(first.X, last.X) && isClose(first.Y, last.Y)
}

func isClose(a, b float64) bool {
	return math.Abs(a-b) <= absTol+relTol*math.Abs(b)
}

// Rotate multiplies each point as row vector with the matrix
// [[cos θ, sin θ], [-sin θ, cos θ]].
func Rotate(points []model.PositionSample, degrees float64) []model.PositionSample {
	theta := degrees / 180 * math.Pi
	sin, cos := math.Sincos(theta)
	ret := make([]model.PositionSample, len(points))
	for i, p := range points {
		ret[i] = model.PositionSample{
			X: p.X*cos - p.Y*sin,
			Y: p.X*sin + p.Y*cos,
		}
	}
	return ret
}

// ComputeBounds returns the axis ranges of points widened by margin on each side.
func ComputeBounds(points []model.PositionSample, margin float64) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	for _, p := range points {
		b.XMin = math.Min(b.XMin, p.X)
		b.XMax = math.Max(b.XMax, p.X)
		b.YMin = math.Min(b.YMin, p.Y)
		b.YMax = math.Max(b.YMax, p.Y)
	}
	b.XMin -= margin
	b.XMax += margin
	b.YMin -= margin
	b.YMax += margin
	return b
}
