package coordinator

import (
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/summary"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/telemetry"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/track"
)

type UpdateKind string

const (
	// UpdateFull replaces outline, summary, comparison and selection.
	UpdateFull UpdateKind = "full"
	// UpdateDetail replaces only the detail view.
	UpdateDetail UpdateKind = "detail"
	// UpdateNotice carries notices only, all views stay as they are.
	UpdateNotice UpdateKind = "notice"
)

type (
	TrackOutline struct {
		Points []model.PositionSample `json:"points"`
		Bounds track.Bounds           `json:"bounds"`
	}
	SpeedSeries struct {
		Driver   string    `json:"driver"`
		Distance []float64 `json:"distance"`
		Speed    []float64 `json:"speed"`
	}
	Detail struct {
		Driver  string                  `json:"driver"`
		Lap     int                     `json:"lap,omitempty"`
		Samples []model.TelemetrySample `json:"samples"`
	}

	// Update holds the artifacts to render after an input was processed.
	// All artifacts of one update are computed from the same session data.
	Update struct {
		Kind          UpdateKind             `json:"kind"`
		Identity      model.SessionIdentity  `json:"identity"`
		DriverOptions []string               `json:"driverOptions,omitempty"`
		Selection     []string               `json:"selection,omitempty"`
		Track         *TrackOutline          `json:"track,omitempty"`
		Summary       []summary.Entry        `json:"summary,omitempty"`
		Comparison    []SpeedSeries          `json:"comparison,omitempty"`
		Detail        *Detail                `json:"detail,omitempty"`
		ClearDetail   bool                   `json:"clearDetail,omitempty"`
		Diagnostics   []telemetry.Diagnostic `json:"diagnostics,omitempty"`
		Notices       []string               `json:"notices,omitempty"`
	}
)

func toSpeedSeries(s telemetry.Series) SpeedSeries {
	ret := SpeedSeries{
		Driver:   s.Driver,
		Distance: make([]float64, len(s.Samples)),
		Speed:    make([]float64, len(s.Samples)),
	}
	for i, sample := range s.Samples {
		ret.Distance[i] = sample.Distance
		ret.Speed[i] = sample.Speed
	}
	return ret
}
