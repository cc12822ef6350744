package model

import (
	"time"

	"github.com/aarondl/opt/null"
)

// LapRecord holds classification and timing of one lap of one driver.
// Position and LapTime may be missing in the timing data.
type LapRecord struct {
	Driver    string                  `json:"driver"`
	LapNumber int                     `json:"lapNumber"`
	Position  null.Val[int]           `json:"position"`
	LapTime   null.Val[time.Duration] `json:"lapTime"`
}

func (l LapRecord) Key() LapKey {
	return LapKey{Driver: l.Driver, LapNumber: l.LapNumber}
}

type LapKey struct {
	Driver    string
	LapNumber int
}

// PositionSample is a point in track-local, untransformed coordinates.
type PositionSample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CircuitInfo struct {
	RotationDegrees float64 `json:"rotationDegrees"`
}
