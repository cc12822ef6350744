// Package sessiondata provides session fixtures for tests.
package sessiondata

import (
	"time"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

func Identity(location string) model.SessionIdentity {
	return model.SessionIdentity{Year: 2024, Location: location, Type: model.SessionTypeRace}
}

func SampleEvents() []model.Event {
	return []model.Event{
		{
			OfficialName: "FORMULA 1 LENOVO CHINESE GRAND PRIX 2024", Location: "China",
			Date: time.Date(2024, 4, 21, 7, 0, 0, 0, time.UTC), Round: 5,
		},
		{
			OfficialName: "FORMULA 1 CRYPTO.COM MIAMI GRAND PRIX 2024", Location: "Miami",
			Date: time.Date(2024, 5, 5, 20, 0, 0, 0, time.UTC), Round: 6,
		},
	}
}

// Lap creates a lap record; pos <= 0 and secs <= 0 mean missing values.
func Lap(driver string, num, pos int, secs float64) model.LapRecord {
	ret := model.LapRecord{Driver: driver, LapNumber: num}
	if pos > 0 {
		ret.Position = null.From(pos)
	}
	if secs > 0 {
		ret.LapTime = null.From(time.Duration(secs * float64(time.Second)))
	}
	return ret
}

// CarTrace creates n samples at 4Hz with constant speed.
func CarTrace(n int, speed float64) []model.CarSample {
	ret := make([]model.CarSample, n)
	for i := range ret {
		ret[i] = model.CarSample{
			SessionTime: time.Duration(i) * 250 * time.Millisecond,
			Speed:       speed,
			Throttle:    float64((i * 10) % 101),
			Brake:       i%5 == 4,
			Gear:        1 + i%8,
			RPM:         10000 + float64(i*10),
		}
	}
	return ret
}

// Square is a closed square outline with the given edge length.
func Square(edge float64) []model.PositionSample {
	return []model.PositionSample{{X: 0, Y: 0}, {X: edge, Y: 0}, {X: edge, Y: edge}, {X: 0, Y: edge}}
}

// Build assembles session data from laps. Every timed lap gets a car trace,
// the overall fastest lap additionally gets a square outline.
func Build(id model.SessionIdentity, laps []model.LapRecord) *model.SessionData {
	ret := &model.SessionData{
		Identity:  id,
		Laps:      laps,
		Positions: map[model.LapKey][]model.PositionSample{},
		CarData:   map[model.LapKey][]model.CarSample{},
		Circuit:   model.CircuitInfo{RotationDegrees: 90},
	}
	for _, l := range laps {
		if t, ok := l.LapTime.Get(); ok {
			ret.CarData[l.Key()] = CarTrace(8, 360-t.Seconds())
		}
	}
	if fastest, ok := ret.FastestLap(); ok {
		ret.Positions[fastest.Key()] = Square(1000)
	}
	return ret
}

// Sample creates a session where each driver drove two timed laps.
// Drivers are classified in the given order.
func Sample(id model.SessionIdentity, drivers ...string) *model.SessionData {
	laps := make([]model.LapRecord, 0, 2*len(drivers))
	for lap := 1; lap <= 2; lap++ {
		for i, d := range drivers {
			laps = append(laps, Lap(d, lap, i+1, 90+float64(i)+float64(lap)/10))
		}
	}
	return Build(id, laps)
}
