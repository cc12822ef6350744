package summary

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/testsupport/sessiondata"
)

func TestRender(t *testing.T) {
	laps := []model.LapRecord{
		sessiondata.Lap("VER", 1, 1, 91.5),
		sessiondata.Lap("SAR", 1, 2, 0),
	}
	var b bytes.Buffer
	Render(&b, sessiondata.Build(sessiondata.Identity("China"), laps))
	out := b.String()
	assert.Assert(t, is.Contains(out, "2024/China/Race"))
	assert.Assert(t, is.Contains(out, "1:31.500"))
	assert.Assert(t, is.Contains(out, "SAR: no timed lap"))
}

func TestFormatLap(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{91.5, "1:31.500"},
		{59.999, "0:59.999"},
		{125.04, "2:05.040"},
	}
	for _, tt := range tests {
		assert.Equal(t, formatLap(tt.secs), tt.want)
	}
}
