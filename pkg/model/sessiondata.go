package model

import "github.com/samber/lo"

// SessionData is the complete data of one loaded session.
// It is never modified after construction; a reload creates a new instance.
type SessionData struct {
	Identity  SessionIdentity
	Laps      []LapRecord
	Positions map[LapKey][]PositionSample
	CarData   map[LapKey][]CarSample
	Circuit   CircuitInfo
}

// Drivers returns the distinct drivers in order of their first appearance
// within the lap records.
func (s *SessionData) Drivers() []string {
	return lo.Uniq(lo.FilterMap(s.Laps, func(l LapRecord, _ int) (string, bool) {
		return l.Driver, l.Driver != ""
	}))
}

func (s *SessionData) HasDriver(driver string) bool {
	return lo.ContainsBy(s.Laps, func(l LapRecord) bool { return l.Driver == driver })
}

// LapsOf returns the laps of driver in recorded order.
func (s *SessionData) LapsOf(driver string) []LapRecord {
	return lo.Filter(s.Laps, func(l LapRecord, _ int) bool { return l.Driver == driver })
}

// FastestLap returns the lap with the minimum lap time over all drivers.
// Ties are resolved by the earliest record.
func (s *SessionData) FastestLap() (LapRecord, bool) {
	var (
		best  LapRecord
		found bool
	)
	for _, l := range s.Laps {
		t, ok := l.LapTime.Get()
		if !ok {
			continue
		}
		if !found || t < best.LapTime.MustGet() {
			best = l
			found = true
		}
	}
	return best, found
}

// ReferencePositions returns the position samples of the overall fastest lap.
func (s *SessionData) ReferencePositions() []PositionSample {
	lap, ok := s.FastestLap()
	if !ok {
		return nil
	}
	return s.Positions[lap.Key()]
}
