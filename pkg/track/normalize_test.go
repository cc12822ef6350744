//nolint:funlen // ok for tests
package track

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func pts(xy ...float64) []model.PositionSample {
	ret := make([]model.PositionSample, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		ret = append(ret, model.PositionSample{X: xy[i], Y: xy[i+1]})
	}
	return ret
}

func TestNormalizeTrack(t *testing.T) {
	tests := []struct {
		name     string
		input    []model.PositionSample
		rotation float64
		want     []model.PositionSample
		wantErr  error
	}{
		{name: "empty", input: nil, wantErr: ErrEmptyGeometry},
		{name: "single point", input: pts(1, 2), wantErr: ErrEmptyGeometry},
		{
			name:  "open polyline gets closed",
			input: pts(0, 0, 10, 0, 10, 10),
			want:  pts(0, 0, 10, 0, 10, 10, 0, 0),
		},
		{
			name:  "already closed",
			input: pts(0, 0, 10, 0, 10, 10, 0, 0),
			want:  pts(0, 0, 10, 0, 10, 10, 0, 0),
		},
		{
			name:  "closed within tolerance",
			input: pts(1000, 1000, 10, 0, 1000.000001, 1000),
			want:  pts(1000, 1000, 10, 0, 1000.000001, 1000),
		},
		{
			name:     "rotation by 90 degrees",
			input:    pts(1, 0, 0, 1),
			rotation: 90,
			want:     pts(0, 1, -1, 0, 0, 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTrack(tt.input, tt.rotation)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("NormalizeTrack() mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, IsClosed(got))
		})
	}
}

func TestNormalizeTrackAppendsExactlyOnePoint(t *testing.T) {
	input := pts(0, 0, 5, 5, 10, 0)
	orig := append([]model.PositionSample{}, input...)
	got, err := NormalizeTrack(input, 33)
	assert.NoError(t, err)
	assert.Len(t, got, len(input)+1)
	assert.Equal(t, orig, input, "input must not be modified")
}

func TestRotateIsInvertible(t *testing.T) {
	input := pts(1234.5, -987.25, 0, 0, -4000, 2500, 17, 3)
	for _, deg := range []float64{0, 12.5, 45, 90, 137, 180, 270, -61.3, 720} {
		got := Rotate(Rotate(input, deg), -deg)
		if diff := cmp.Diff(input, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("rotation by %v not inverted (-want +got):\n%s", deg, diff)
		}
	}
}

func TestRotateIsLinear(t *testing.T) {
	a := pts(3, 4)
	b := pts(-7, 2)
	sum := pts(a[0].X+b[0].X, a[0].Y+b[0].Y)
	ra, rb, rs := Rotate(a, 40), Rotate(b, 40), Rotate(sum, 40)
	assert.InDelta(t, ra[0].X+rb[0].X, rs[0].X, 1e-9)
	assert.InDelta(t, ra[0].Y+rb[0].Y, rs[0].Y, 1e-9)
	// rotation keeps the length
	assert.InDelta(t, 5.0, math.Hypot(ra[0].X, ra[0].Y), 1e-9)
}

func TestComputeBounds(t *testing.T) {
	got := ComputeBounds(pts(0, -100, 500, 300, -200, 50), DefaultMargin)
	assert.Equal(t, Bounds{XMin: -2200, XMax: 2500, YMin: -2100, YMax: 2300}, got)
	assert.Equal(t, Bounds{}, ComputeBounds(nil, DefaultMargin))
}
