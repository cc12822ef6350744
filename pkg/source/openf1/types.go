package openf1

import (
	"time"

	"github.com/shopspring/decimal"
)

// wire types of api.openf1.org, only the fields in use are declared

type (
	meeting struct {
		Key          int       `json:"meeting_key"`
		Name         string    `json:"meeting_name"`
		OfficialName string    `json:"meeting_official_name"`
		Location     string    `json:"location"`
		CountryName  string    `json:"country_name"`
		CircuitKey   int       `json:"circuit_key"`
		DateStart    time.Time `json:"date_start"`
		Year         int       `json:"year"`
	}
	session struct {
		Key        int       `json:"session_key"`
		MeetingKey int       `json:"meeting_key"`
		Name       string    `json:"session_name"`
		Type       string    `json:"session_type"`
		CircuitKey int       `json:"circuit_key"`
		DateStart  time.Time `json:"date_start"`
		DateEnd    time.Time `json:"date_end"`
		Year       int       `json:"year"`
	}
	driver struct {
		Number  int    `json:"driver_number"`
		Acronym string `json:"name_acronym"`
	}
	lap struct {
		Driver    int                 `json:"driver_number"`
		Number    int                 `json:"lap_number"`
		DateStart time.Time           `json:"date_start"`
		Duration  decimal.NullDecimal `json:"lap_duration"`
	}
	position struct {
		Driver   int       `json:"driver_number"`
		Date     time.Time `json:"date"`
		Position int       `json:"position"`
	}
	location struct {
		Date time.Time `json:"date"`
		X    float64   `json:"x"`
		Y    float64   `json:"y"`
	}
	carData struct {
		Date     time.Time `json:"date"`
		Speed    float64   `json:"speed"`
		Throttle float64   `json:"throttle"`
		Brake    float64   `json:"brake"`
		Gear     int       `json:"n_gear"`
		RPM      float64   `json:"rpm"`
	}
)

// lapDuration converts the lap time given in seconds to a duration with
// millisecond precision.
func (l *lap) lapDuration() (time.Duration, bool) {
	if !l.Duration.Valid || !l.Duration.Decimal.IsPositive() {
		return 0, false
	}
	ms := l.Duration.Decimal.Shift(3).Round(0).IntPart()
	return time.Duration(ms) * time.Millisecond, true
}

func (l *lap) end() (time.Time, bool) {
	d, ok := l.lapDuration()
	if !ok || l.DateStart.IsZero() {
		return time.Time{}, false
	}
	return l.DateStart.Add(d), true
}
