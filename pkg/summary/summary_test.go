//nolint:funlen // ok for tests
package summary

import (
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

func lap(driver string, pos int, secs float64) model.LapRecord {
	ret := model.LapRecord{Driver: driver}
	if pos > 0 {
		ret.Position = null.From(pos)
	}
	if secs > 0 {
		ret.LapTime = null.From(time.Duration(secs * float64(time.Second)))
	}
	return ret
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		laps []model.LapRecord
		want []Entry
	}{
		{name: "no laps", laps: nil, want: []Entry{}},
		{
			name: "last non-missing position wins",
			laps: []model.LapRecord{
				lap("VER", 3, 95), lap("VER", 1, 93), lap("VER", 2, 94), lap("VER", 0, 96),
			},
			want: []Entry{
				{Driver: "VER", FinalPosition: null.From(2), BestLapSeconds: null.From(93.0)},
			},
		},
		{
			name: "out of order position updates",
			laps: []model.LapRecord{
				lap("HAM", 5, 0), lap("HAM", 1, 0), lap("HAM", 7, 0), lap("HAM", 4, 0),
			},
			want: []Entry{{Driver: "HAM", FinalPosition: null.From(4)}},
		},
		{
			name: "driver without lap times is kept",
			laps: []model.LapRecord{lap("SAR", 0, 0), lap("SAR", 18, 0)},
			want: []Entry{{Driver: "SAR", FinalPosition: null.From(18)}},
		},
		{
			name: "sorted by driver",
			laps: []model.LapRecord{lap("VER", 1, 90), lap("ALO", 2, 91), lap("", 3, 1)},
			want: []Entry{
				{Driver: "ALO", FinalPosition: null.From(2), BestLapSeconds: null.From(91.0)},
				{Driver: "VER", FinalPosition: null.From(1), BestLapSeconds: null.From(90.0)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.laps)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummarizeBestLapIgnoresOrder(t *testing.T) {
	a := []model.LapRecord{lap("A", 1, 80.1), lap("A", 1, 79.9), lap("A", 1, 81)}
	b := []model.LapRecord{lap("A", 1, 81), lap("A", 1, 80.1), lap("A", 1, 79.9)}
	ga, gb := Summarize(a), Summarize(b)
	assert.Equal(t, ga[0].BestLapSeconds, gb[0].BestLapSeconds)
	assert.InDelta(t, 79.9, ga[0].BestLapSeconds.MustGet(), 1e-9)
}

func TestPlottable(t *testing.T) {
	entries := Summarize([]model.LapRecord{
		lap("A", 1, 90), lap("B", 0, 91), lap("C", 3, 0),
	})
	got := Plottable(entries)
	assert.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Driver)
}
