package model

import (
	"time"

	"github.com/aarondl/opt/null"
)

// CarSample is a raw channel sample as delivered by the timing source.
// Distance is only present if the source already computed it.
type CarSample struct {
	SessionTime time.Duration
	Speed       float64 // km/h
	Throttle    float64 // 0..100
	Brake       bool
	Gear        int
	RPM         float64
	Distance    null.Val[float64]
}

// TelemetrySample is a channel sample aligned by distance along the lap.
type TelemetrySample struct {
	Distance    float64 `json:"distance"`
	Speed       float64 `json:"speed"`
	Throttle    float64 `json:"throttle"`
	BrakeActive bool    `json:"brakeActive"`
	Gear        int     `json:"gear"`
	RPM         float64 `json:"rpm"`
}

// BrakeDisplayScale is the amplitude of an active brake when rendered next
// to continuous channels.
const BrakeDisplayScale = 100

func (t TelemetrySample) BrakeLevel() float64 {
	if t.BrakeActive {
		return BrakeDisplayScale
	}
	return 0
}
