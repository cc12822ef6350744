package telemetry

import (
	"errors"
	"fmt"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

var ErrTelemetryUnavailable = errors.New("driver telemetry unavailable")

// UnavailableError tells why no telemetry could be extracted for Driver.
type UnavailableError struct {
	Driver string
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("telemetry for %s unavailable: %s", e.Driver, e.Reason)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrTelemetryUnavailable
}

func unavailable(driver, reason string) error {
	return &UnavailableError{Driver: driver, Reason: reason}
}

type (
	// Series is the distance aligned telemetry of one driver.
	Series struct {
		Driver  string                  `json:"driver"`
		Lap     int                     `json:"lap"`
		Samples []model.TelemetrySample `json:"samples"`
	}
	Diagnostic struct {
		Driver string `json:"driver"`
		Reason string `json:"reason"`
	}
)

// FastestLap picks the lap of driver with the minimum lap time.
// On equal lap times the earlier record wins.
func FastestLap(laps []model.LapRecord, driver string) (model.LapRecord, error) {
	var (
		best  model.LapRecord
		found bool
		seen  bool
	)
	for _, l := range laps {
		if l.Driver != driver {
			continue
		}
		seen = true
		t, ok := l.LapTime.Get()
		if !ok {
			continue
		}
		if !found || t < best.LapTime.MustGet() {
			best = l
			found = true
		}
	}
	switch {
	case !seen:
		return model.LapRecord{}, unavailable(driver, "no laps recorded")
	case !found:
		return model.LapRecord{}, unavailable(driver, "no timed lap")
	}
	return best, nil
}

// ExtractFastestLapTelemetry returns the channel samples of the driver's
// fastest lap aligned by distance.
//
//nolint:whitespace // can't make both editor and linter happy
func ExtractFastestLapTelemetry(
	data *model.SessionData, driver string,
) ([]model.TelemetrySample, error) {
	s, err := extract(data, driver)
	if err != nil {
		return nil, err
	}
	return s.Samples, nil
}

func extract(data *model.SessionData, driver string) (*Series, error) {
	if data == nil {
		return nil, unavailable(driver, "no session loaded")
	}
	lap, err := FastestLap(data.Laps, driver)
	if err != nil {
		return nil, err
	}
	raw := data.CarData[lap.Key()]
	if len(raw) == 0 {
		return nil, unavailable(driver,
			fmt.Sprintf("no channel data for lap %d", lap.LapNumber))
	}
	distances := AddDistance(raw)
	samples := make([]model.TelemetrySample, len(raw))
	for i, c := range raw {
		samples[i] = model.TelemetrySample{
			Distance:    distances[i],
			Speed:       c.Speed,
			Throttle:    c.Throttle,
			BrakeActive: c.Brake,
			Gear:        c.Gear,
			RPM:         c.RPM,
		}
	}
	return &Series{Driver: driver, Lap: lap.LapNumber, Samples: samples}, nil
}

// ExtractBatch extracts the fastest lap telemetry for each driver.
// Drivers without telemetry are omitted from the result and reported as
// diagnostic instead.
//
//nolint:whitespace // can't make both editor and linter happy
func ExtractBatch(
	data *model.SessionData, drivers []string,
) (series []Series, diags []Diagnostic) {
	l := log.Default().Named("telemetry")
	series = make([]Series, 0, len(drivers))
	for _, d := range drivers {
		s, err := extract(data, d)
		if err != nil {
			var ue *UnavailableError
			reason := err.Error()
			if errors.As(err, &ue) {
				reason = ue.Reason
			}
			l.Warn("could not load telemetry",
				log.String("driver", d), log.String("reason", reason))
			diags = append(diags, Diagnostic{Driver: d, Reason: reason})
			continue
		}
		series = append(series, *s)
	}
	return series, diags
}
