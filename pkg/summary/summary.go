package summary

import (
	"sort"

	"github.com/aarondl/opt/null"
	"github.com/samber/lo"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

// Entry is the summary of one driver over a session.
type Entry struct {
	Driver         string            `json:"driver"`
	FinalPosition  null.Val[int]     `json:"finalPosition"`
	BestLapSeconds null.Val[float64] `json:"bestLapSeconds"`
}

// Summarize reduces laps to one entry per driver, ordered by driver.
//
// FinalPosition is the last non-missing position in recorded order, earlier
// values are considered provisional. BestLapSeconds is the minimum of all
// recorded lap times. Drivers without any lap time are kept with a null value.
func Summarize(laps []model.LapRecord) []Entry {
	groups := lo.GroupBy(
		lo.Filter(laps, func(l model.LapRecord, _ int) bool { return l.Driver != "" }),
		func(l model.LapRecord) string { return l.Driver })

	drivers := lo.Keys(groups)
	sort.Strings(drivers)

	return lo.Map(drivers, func(driver string, _ int) Entry {
		return reduce(driver, groups[driver])
	})
}

func reduce(driver string, laps []model.LapRecord) Entry {
	ret := Entry{Driver: driver}
	for _, l := range laps {
		if pos, ok := l.Position.Get(); ok {
			ret.FinalPosition = null.From(pos)
		}
		if t, ok := l.LapTime.Get(); ok {
			secs := t.Seconds()
			if cur, ok := ret.BestLapSeconds.Get(); !ok || secs < cur {
				ret.BestLapSeconds = null.From(secs)
			}
		}
	}
	return ret
}

// Plottable returns the entries having both a final position and a best lap.
func Plottable(entries []Entry) []Entry {
	return lo.Filter(entries, func(e Entry, _ int) bool {
		return e.FinalPosition.IsValue() && e.BestLapSeconds.IsValue()
	})
}
