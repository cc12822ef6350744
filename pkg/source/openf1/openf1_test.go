//nolint:funlen // ok for tests
package openf1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/telemetry"
)

const (
	meetingsJSON = `[
 {"meeting_key":1228,"meeting_name":"Miami Grand Prix",
  "meeting_official_name":"FORMULA 1 CRYPTO.COM MIAMI GRAND PRIX 2024",
  "location":"Miami","country_name":"United States","circuit_key":151,
  "date_start":"2024-05-03T16:30:00+00:00","year":2024},
 {"meeting_key":1229,"meeting_name":"Pre-Season Testing",
  "meeting_official_name":"FORMULA 1 ARAMCO PRE-SEASON TESTING 2024",
  "location":"Sakhir","country_name":"Bahrain","circuit_key":63,
  "date_start":"2024-02-21T07:00:00+00:00","year":2024},
 {"meeting_key":1233,"meeting_name":"Chinese Grand Prix",
  "meeting_official_name":"FORMULA 1 LENOVO CHINESE GRAND PRIX 2024",
  "location":"Shanghai","country_name":"China","circuit_key":49,
  "date_start":"2024-04-19T03:30:00+00:00","year":2024}
]`
	sessionsJSON = `[
 {"session_key":9660,"meeting_key":1233,"session_name":"Sprint","session_type":"Race",
  "circuit_key":49,"year":2024},
 {"session_key":9673,"meeting_key":1233,"session_name":"Race","session_type":"Race",
  "circuit_key":49,"year":2024}
]`
	driversJSON = `[
 {"driver_number":1,"name_acronym":"VER"},
 {"driver_number":4,"name_acronym":"NOR"}
]`
	lapsJSON = `[
 {"driver_number":1,"lap_number":1,"date_start":null,"lap_duration":null},
 {"driver_number":1,"lap_number":2,"date_start":"2024-04-21T07:05:00+00:00","lap_duration":99.1234},
 {"driver_number":4,"lap_number":2,"date_start":"2024-04-21T07:05:01+00:00","lap_duration":100.5},
 {"driver_number":1,"lap_number":3,"date_start":"2024-04-21T07:06:39.123+00:00","lap_duration":98.5}
]`
	positionJSON = `[
 {"driver_number":4,"date":"2024-04-21T07:00:00+00:00","position":2},
 {"driver_number":1,"date":"2024-04-21T07:06:50+00:00","position":1},
 {"driver_number":1,"date":"2024-04-21T07:00:00+00:00","position":3}
]`
	carDataJSON = `[
 {"date":"2024-04-21T07:06:39.200+00:00","speed":280,"throttle":100,"brake":0,"n_gear":7,"rpm":11000},
 {"date":"2024-04-21T07:06:39.500+00:00","speed":200,"throttle":0,"brake":100,"n_gear":5,"rpm":9000}
]`
	locationJSON = `[
 {"date":"2024-04-21T07:06:39.200+00:00","x":100,"y":200,"z":0},
 {"date":"2024-04-21T07:06:39.400+00:00","x":150,"y":260,"z":0}
]`
)

type recordedServer struct {
	mu       sync.Mutex
	requests []string
	laps     string
}

func (rs *recordedServer) handler(circuit string) http.Handler {
	mux := http.NewServeMux()
	reply := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			rs.mu.Lock()
			rs.requests = append(rs.requests, r.URL.RequestURI())
			rs.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}
	reply("/v1/meetings", meetingsJSON)
	reply("/v1/sessions", sessionsJSON)
	reply("/v1/drivers", driversJSON)
	reply("/v1/laps", lo.Ternary(rs.laps != "", rs.laps, lapsJSON))
	reply("/v1/position", positionJSON)
	reply("/v1/car_data", carDataJSON)
	reply("/v1/location", locationJSON)
	if circuit != "" {
		reply("/circuits/49/2024", circuit)
	}
	return mux
}

func newClient(t *testing.T, circuit string) (*Client, *recordedServer) {
	t.Helper()
	rs := &recordedServer{}
	srv := httptest.NewServer(rs.handler(circuit))
	t.Cleanup(srv.Close)
	return New(
		WithBaseURL(srv.URL+"/v1/"),
		WithCircuitURL(srv.URL+"/circuits"),
		WithHTTPClient(srv.Client()),
	), rs
}

func TestClient_ListEvents(t *testing.T) {
	c, rs := newClient(t, "")
	events, err := c.ListEvents(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Sakhir", events[0].Location)
	assert.Equal(t, 0, events[0].Round)
	assert.Equal(t, "FORMULA 1 LENOVO CHINESE GRAND PRIX 2024", events[1].OfficialName)
	assert.Equal(t, 1, events[1].Round)
	assert.Equal(t, 2, events[2].Round)
	assert.Equal(t, []string{"/v1/meetings?year=2024"}, rs.requests)
}

func TestClient_LoadSession(t *testing.T) {
	c, rs := newClient(t, `{"circuitKey":49,"rotation":-61,"year":2024}`)
	id := model.SessionIdentity{Year: 2024, Location: "Shanghai", Type: model.SessionTypeRace}

	data, err := c.LoadSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, data.Identity)
	assert.InDelta(t, -61.0, data.Circuit.RotationDegrees, 1e-9)

	require.Len(t, data.Laps, 4)
	assert.Equal(t, model.LapRecord{Driver: "VER", LapNumber: 1}, data.Laps[0])
	assert.Equal(t, null.From(99123*time.Millisecond), data.Laps[1].LapTime)
	assert.Equal(t, null.From(3), data.Laps[1].Position, "position at end of lap 2")
	assert.Equal(t, null.From(1), data.Laps[3].Position)
	assert.Equal(t, null.From(2), data.Laps[2].Position)

	ver := model.LapKey{Driver: "VER", LapNumber: 3}
	require.Len(t, data.CarData[ver], 2)
	assert.Equal(t, 77*time.Millisecond, data.CarData[ver][0].SessionTime)
	assert.True(t, data.CarData[ver][1].Brake)
	assert.False(t, data.CarData[ver][0].Distance.IsValue())
	assert.Len(t, data.CarData[model.LapKey{Driver: "NOR", LapNumber: 2}], 2)
	assert.Len(t, data.CarData, 2, "only the fastest lap per driver")

	assert.Equal(t, []model.PositionSample{{X: 100, Y: 200}, {X: 150, Y: 260}},
		data.Positions[ver])
	assert.Len(t, data.Positions, 1)
	assert.Contains(t, rs.requests, "/v1/sessions?meeting_key=1233")
}

func TestClient_LoadSessionUndatedFastestLap(t *testing.T) {
	// NOR lap 3 is quicker than lap 2 but has no date_start
	rs := &recordedServer{laps: `[
 {"driver_number":4,"lap_number":2,"date_start":"2024-04-21T07:05:01+00:00","lap_duration":100.5},
 {"driver_number":4,"lap_number":3,"date_start":null,"lap_duration":97.0},
 {"driver_number":1,"lap_number":3,"date_start":"2024-04-21T07:06:39.123+00:00","lap_duration":98.5}
]`}
	srv := httptest.NewServer(rs.handler(""))
	t.Cleanup(srv.Close)
	c := New(
		WithBaseURL(srv.URL+"/v1/"),
		WithCircuitURL(srv.URL+"/circuits"),
		WithHTTPClient(srv.Client()),
	)
	data, err := c.LoadSession(context.Background(),
		model.SessionIdentity{Year: 2024, Location: "Shanghai", Type: model.SessionTypeRace})
	require.NoError(t, err)

	require.Len(t, data.Laps, 3)
	assert.False(t, data.Laps[1].LapTime.IsValue(), "undated lap has no lap time")
	best, err := telemetry.FastestLap(data.Laps, "NOR")
	require.NoError(t, err)
	assert.Equal(t, 2, best.LapNumber)
	samples, err := telemetry.ExtractFastestLapTelemetry(data, "NOR")
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	nor := model.LapKey{Driver: "NOR", LapNumber: 2}
	assert.Len(t, data.CarData[nor], 2, "car data keyed under the lap that was fetched")
	assert.NotContains(t, data.CarData, model.LapKey{Driver: "NOR", LapNumber: 3})

	ver := model.LapKey{Driver: "VER", LapNumber: 3}
	assert.Len(t, data.Positions[ver], 2)
	assert.Len(t, data.Positions, 1)
}

func TestToLapRecords(t *testing.T) {
	start := time.Date(2024, 4, 21, 7, 5, 0, 0, time.UTC)
	timed := func(secs string, date time.Time) lap {
		l := lap{Driver: 1, Number: 2, DateStart: date}
		if secs != "" {
			require.NoError(t, l.Duration.UnmarshalJSON([]byte(secs)))
		}
		return l
	}
	tests := []struct {
		name string
		lap  lap
		want null.Val[time.Duration]
	}{
		{"timed and dated", timed("90.5", start), null.From(90500 * time.Millisecond)},
		{"timed without date", timed("90.5", time.Time{}), null.Val[time.Duration]{}},
		{"untimed", timed("", start), null.Val[time.Duration]{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toLapRecords([]lap{tt.lap}, nil, map[int]string{1: "VER"})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].LapTime)
		})
	}
}

func TestClient_LoadSessionMissingCircuitInfo(t *testing.T) {
	c, _ := newClient(t, "")
	data, err := c.LoadSession(context.Background(),
		model.SessionIdentity{Year: 2024, Location: "Shanghai", Type: model.SessionTypeSprint})
	require.NoError(t, err)
	assert.Zero(t, data.Circuit.RotationDegrees)
}

func TestClient_LoadSessionNotFound(t *testing.T) {
	c, _ := newClient(t, "")
	tests := []struct {
		name string
		id   model.SessionIdentity
	}{
		{"unknown location", model.SessionIdentity{Year: 2024, Location: "Monza", Type: model.SessionTypeRace}},
		{"testing meeting", model.SessionIdentity{Year: 2024, Location: "Sakhir", Type: model.SessionTypeRace}},
		{"unknown session", model.SessionIdentity{Year: 2024, Location: "Shanghai", Type: model.SessionTypePractice1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.LoadSession(context.Background(), tt.id)
			assert.ErrorIs(t, err, source.ErrEventNotFound)
		})
	}
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.ListEvents(context.Background(), 2024)
	assert.ErrorContains(t, err, "429")
}

func TestExtractRotation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr bool
	}{
		{"int", `{"rotation":92}`, 92, false},
		{"float", `{"rotation":44.5,"corners":[]}`, 44.5, false},
		{"missing", `{"corners":[]}`, 0, true},
		{"wrong type", `{"rotation":"x"}`, 0, true},
		{"invalid json", `{`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractRotation([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLapDuration(t *testing.T) {
	var l lap
	require.NoError(t, l.Duration.UnmarshalJSON([]byte("91.2345")))
	d, ok := l.lapDuration()
	assert.True(t, ok)
	assert.Equal(t, 91235*time.Millisecond, d)
}
