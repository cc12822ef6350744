package fake

import (
	"math"
	"sort"
	"time"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

const (
	demoLaps      = 5
	demoSampleHz  = 4
	demoTrackSize = 4000.0
)

var (
	demoDrivers = []string{"VER", "NOR", "LEC", "PIA", "SAI", "HAM"}
	demoEvents  = []struct {
		name     string
		location string
		month    time.Month
		day      int
		rotation float64
	}{
		{"FORMULA 1 DEMO GRAND PRIX OF BAHRAIN", "Sakhir", time.March, 2, 92},
		{"FORMULA 1 DEMO GRAND PRIX OF CHINA", "Shanghai", time.April, 21, -61},
		{"FORMULA 1 DEMO GRAND PRIX OF MIAMI", "Miami", time.May, 5, 2},
	}
)

// Demo creates a source with a synthetic schedule for year. Each event
// provides a session of type st.
func Demo(year int, st model.SessionType) *Source {
	events := make([]model.Event, 0, len(demoEvents))
	opts := []Option{}
	for i, e := range demoEvents {
		events = append(events, model.Event{
			OfficialName: e.name,
			Location:     e.location,
			Date:         time.Date(year, e.month, e.day, 15, 0, 0, 0, time.UTC),
			Round:        i + 1,
		})
		id := model.SessionIdentity{Year: year, Location: e.location, Type: st}
		opts = append(opts, WithSession(demoSession(id, float64(i), e.rotation)))
	}
	opts = append(opts, WithEvents(year, events))
	return New(opts...)
}

//nolint:mnd // demo values
func demoSession(id model.SessionIdentity, seed, rotation float64) *model.SessionData {
	ret := &model.SessionData{
		Identity:  id,
		Positions: map[model.LapKey][]model.PositionSample{},
		CarData:   map[model.LapKey][]model.CarSample{},
		Circuit:   model.CircuitInfo{RotationDegrees: rotation},
	}
	total := make(map[string]time.Duration, len(demoDrivers))
	for lap := 1; lap <= demoLaps; lap++ {
		lapTimes := make(map[string]time.Duration, len(demoDrivers))
		for i, d := range demoDrivers {
			secs := 90 + seed + 0.35*float64(i) + 0.4*math.Sin(float64(lap*(i+1))+seed)
			if lap == 1 {
				secs += 6
			}
			lt := time.Duration(secs * float64(time.Second)).Round(time.Millisecond)
			lapTimes[d] = lt
			total[d] += lt
			key := model.LapKey{Driver: d, LapNumber: lap}
			ret.CarData[key] = demoCarTrace(lt, float64(i)+seed)
			ret.Positions[key] = demoOutline(lt)
		}
		ranking := append([]string{}, demoDrivers...)
		sort.SliceStable(ranking, func(a, b int) bool {
			return total[ranking[a]] < total[ranking[b]]
		})
		for pos, d := range ranking {
			ret.Laps = append(ret.Laps, model.LapRecord{
				Driver:    d,
				LapNumber: lap,
				Position:  null.From(pos + 1),
				LapTime:   null.From(lapTimes[d]),
			})
		}
	}
	return ret
}

func demoCarTrace(lapTime time.Duration, phase float64) []model.CarSample {
	n := int(lapTime.Seconds() * demoSampleHz)
	ret := make([]model.CarSample, n)
	for i := range ret {
		t := float64(i) / demoSampleHz
		wave := math.Sin(2*math.Pi*t/lapTime.Seconds()*6 + phase)
		speed := 220 + 90*wave
		ret[i] = model.CarSample{
			SessionTime: time.Duration(t * float64(time.Second)),
			Speed:       speed,
			Throttle:    math.Max(0, math.Min(100, 50+60*wave)),
			Brake:       wave < -0.6,
			Gear:        int(math.Max(2, math.Min(8, speed/40))),
			RPM:         9000 + 25*speed,
		}
	}
	return ret
}

// demoOutline is a closed, slightly irregular loop sampled once per second
func demoOutline(lapTime time.Duration) []model.PositionSample {
	n := int(lapTime.Seconds())
	ret := make([]model.PositionSample, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		r := demoTrackSize * (1 + 0.25*math.Sin(3*a))
		ret = append(ret, model.PositionSample{X: r * math.Cos(a), Y: 0.6 * r * math.Sin(a)})
	}
	return append(ret, ret[0])
}
