package model

import (
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/stretchr/testify/assert"
)

func lap(driver string, num int, secs float64) LapRecord {
	ret := LapRecord{Driver: driver, LapNumber: num}
	if secs > 0 {
		ret.LapTime = null.From(time.Duration(secs * float64(time.Second)))
	}
	return ret
}

func TestSessionData_Drivers(t *testing.T) {
	s := &SessionData{Laps: []LapRecord{
		lap("VER", 1, 90), lap("", 1, 0), lap("HAM", 1, 91), lap("VER", 2, 89), lap("ALO", 1, 0),
	}}
	assert.Equal(t, []string{"VER", "HAM", "ALO"}, s.Drivers())
	assert.True(t, s.HasDriver("ALO"))
	assert.False(t, s.HasDriver("LEC"))
	assert.Len(t, s.LapsOf("VER"), 2)
}

func TestSessionData_FastestLap(t *testing.T) {
	tests := []struct {
		name   string
		laps   []LapRecord
		want   LapKey
		wantOk bool
	}{
		{name: "no laps", laps: nil, wantOk: false},
		{name: "no lap times", laps: []LapRecord{lap("A", 1, 0)}, wantOk: false},
		{
			name:   "minimum wins",
			laps:   []LapRecord{lap("A", 1, 80.1), lap("B", 1, 79.9), lap("A", 2, 0)},
			want:   LapKey{Driver: "B", LapNumber: 1},
			wantOk: true,
		},
		{
			name:   "tie resolved by earliest",
			laps:   []LapRecord{lap("A", 3, 79.9), lap("B", 1, 79.9)},
			want:   LapKey{Driver: "A", LapNumber: 3},
			wantOk: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SessionData{Laps: tt.laps}
			got, ok := s.FastestLap()
			assert.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.want, got.Key())
			}
		})
	}
}

func TestParseSessionType(t *testing.T) {
	for in, want := range map[string]SessionType{
		"R": SessionTypeRace, "race": SessionTypeRace, "FP1": SessionTypePractice1,
		"Sprint Qualifying": SessionTypeSprintQualifying, "Q": SessionTypeQualifying,
	} {
		got, err := ParseSessionType(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSessionType("warmup")
	assert.Error(t, err)
}

func TestSessionIdentity(t *testing.T) {
	id := SessionIdentity{Year: 2024, Location: "China", Type: SessionTypeRace}
	assert.Equal(t, "2024/China/Race", id.String())
	assert.False(t, id.IsZero())
	assert.True(t, SessionIdentity{}.IsZero())
	assert.Equal(t, float64(BrakeDisplayScale), TelemetrySample{BrakeActive: true}.BrakeLevel())
}
