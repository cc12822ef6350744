package model

import "time"

// Event is one entry of a season schedule.
type Event struct {
	OfficialName string    `json:"officialName"`
	Location     string    `json:"location"`
	Date         time.Time `json:"date"`
	Round        int       `json:"round"`
}
