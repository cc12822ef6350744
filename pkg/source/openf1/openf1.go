// Package openf1 implements source.DataAccess against the OpenF1 API.
package openf1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source"
)

const (
	DefaultBaseURL    = "https://api.openf1.org/v1"
	DefaultCircuitURL = "https://api.multiviewer.app/api/v1/circuits"
)

var (
	_ source.DataAccess = (*Client)(nil)

	rotationPath = jp.MustParseString("$.rotation")

	sessionNames = map[model.SessionType][]string{
		model.SessionTypePractice1:        {"Practice 1"},
		model.SessionTypePractice2:        {"Practice 2"},
		model.SessionTypePractice3:        {"Practice 3"},
		model.SessionTypeQualifying:       {"Qualifying"},
		model.SessionTypeSprintQualifying: {"Sprint Qualifying", "Sprint Shootout"},
		model.SessionTypeSprint:           {"Sprint"},
		model.SessionTypeRace:             {"Race"},
	}
)

type (
	Client struct {
		baseURL    string
		circuitURL string
		httpClient *http.Client
		timeout    time.Duration
		l          *log.Logger
	}
	Option func(*Client)
)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

func WithCircuitURL(u string) Option {
	return func(c *Client) {
		c.circuitURL = strings.TrimSuffix(u, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default http client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

func New(opts ...Option) *Client {
	ret := &Client{
		baseURL:    DefaultBaseURL,
		circuitURL: DefaultCircuitURL,
		timeout:    30 * time.Second,
		l:          log.Default().Named("openf1"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{
			Timeout:   ret.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return ret
}

// ListEvents returns the meetings of year ordered by date. Testing meetings
// are listed with round 0.
func (c *Client) ListEvents(ctx context.Context, year int) ([]model.Event, error) {
	meetings, err := c.meetings(ctx, year)
	if err != nil {
		return nil, err
	}
	ret := make([]model.Event, 0, len(meetings))
	round := 0
	for i := range meetings {
		m := &meetings[i]
		e := model.Event{
			OfficialName: m.OfficialName,
			Location:     m.Location,
			Date:         m.DateStart,
		}
		if !isTesting(m) {
			round++
			e.Round = round
		}
		ret = append(ret, e)
	}
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Client) LoadSession(
	ctx context.Context, id model.SessionIdentity,
) (*model.SessionData, error) {
	sess, err := c.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	c.l.Debug("loading session",
		log.Stringer("identity", id), log.Int("sessionKey", sess.Key))

	drivers, err := c.drivers(ctx, sess.Key)
	if err != nil {
		return nil, err
	}
	var laps []lap
	if err = c.get(ctx, "laps", query("session_key", sess.Key), &laps); err != nil {
		return nil, err
	}
	var positions []position
	if err = c.get(ctx, "position", query("session_key", sess.Key), &positions); err != nil {
		return nil, err
	}

	ret := &model.SessionData{
		Identity:  id,
		Laps:      toLapRecords(laps, positions, drivers),
		Positions: map[model.LapKey][]model.PositionSample{},
		CarData:   map[model.LapKey][]model.CarSample{},
	}
	if err = c.loadChannels(ctx, sess.Key, laps, drivers, ret); err != nil {
		return nil, err
	}
	ret.Circuit = c.circuitInfo(ctx, sess.CircuitKey, sess.Year)
	return ret, nil
}

func (c *Client) meetings(ctx context.Context, year int) ([]meeting, error) {
	var meetings []meeting
	if err := c.get(ctx, "meetings", query("year", year), &meetings); err != nil {
		return nil, err
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].DateStart.Before(meetings[j].DateStart)
	})
	return meetings, nil
}

func (c *Client) findSession(ctx context.Context, id model.SessionIdentity) (*session, error) {
	meetings, err := c.meetings(ctx, id.Year)
	if err != nil {
		return nil, err
	}
	m, ok := lo.Find(meetings, func(m meeting) bool {
		return !isTesting(&m) && strings.EqualFold(m.Location, id.Location)
	})
	if !ok {
		return nil, fmt.Errorf("%w: no meeting at %s in %d",
			source.ErrEventNotFound, id.Location, id.Year)
	}
	var sessions []session
	if err = c.get(ctx, "sessions", query("meeting_key", m.Key), &sessions); err != nil {
		return nil, err
	}
	names := sessionNames[id.Type]
	s, ok := lo.Find(sessions, func(s session) bool {
		return lo.Contains(names, s.Name)
	})
	if !ok {
		return nil, fmt.Errorf("%w: no session %s at %s in %d",
			source.ErrEventNotFound, id.Type, id.Location, id.Year)
	}
	return &s, nil
}

// drivers maps driver numbers to their acronym
func (c *Client) drivers(ctx context.Context, sessionKey int) (map[int]string, error) {
	var drivers []driver
	if err := c.get(ctx, "drivers", query("session_key", sessionKey), &drivers); err != nil {
		return nil, err
	}
	ret := make(map[int]string, len(drivers))
	for _, d := range drivers {
		ret[d.Number] = d.Acronym
	}
	return ret, nil
}

// loadChannels fetches car data for the fastest lap of each driver and the
// position samples of the overall fastest lap. Other laps are never read by
// the dashboard. Laps without date_start carry no lap time (see toLapRecords)
// so the selection here matches the one done on the model.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Client) loadChannels(
	ctx context.Context,
	sessionKey int,
	laps []lap,
	drivers map[int]string,
	data *model.SessionData,
) error {
	fastest := map[int]*lap{}
	for i := range laps {
		l := &laps[i]
		d, ok := l.lapDuration()
		if !ok || l.DateStart.IsZero() {
			continue
		}
		cur, ok := fastest[l.Driver]
		if !ok {
			fastest[l.Driver] = l
			continue
		}
		if best, _ := cur.lapDuration(); d < best {
			fastest[l.Driver] = l
		}
	}
	for num, l := range fastest {
		end, _ := l.end()
		var samples []carData
		if err := c.get(ctx, "car_data",
			rangeQuery(sessionKey, num, l.DateStart, end), &samples); err != nil {
			return err
		}
		key := model.LapKey{Driver: driverName(drivers, num), LapNumber: l.Number}
		data.CarData[key] = lo.Map(samples, func(s carData, _ int) model.CarSample {
			return model.CarSample{
				SessionTime: s.Date.Sub(l.DateStart),
				Speed:       s.Speed,
				Throttle:    s.Throttle,
				Brake:       s.Brake > 0,
				Gear:        s.Gear,
				RPM:         s.RPM,
			}
		})
	}

	ref, ok := data.FastestLap()
	if !ok {
		return nil
	}
	num, found := lo.FindKey(drivers, ref.Driver)
	if !found {
		num, _ = strconv.Atoi(ref.Driver)
	}
	l, ok := fastest[num]
	if !ok {
		return nil
	}
	end, _ := l.end()
	var locations []location
	if err := c.get(ctx, "location",
		rangeQuery(sessionKey, num, l.DateStart, end), &locations); err != nil {
		return err
	}
	data.Positions[ref.Key()] = lo.Map(locations, func(p location, _ int) model.PositionSample {
		return model.PositionSample{X: p.X, Y: p.Y}
	})
	return nil
}

// circuitInfo fetches the rotation of the circuit map. Errors are logged and
// yield a rotation of 0.
func (c *Client) circuitInfo(ctx context.Context, circuitKey, year int) model.CircuitInfo {
	u := fmt.Sprintf("%s/%d/%d", c.circuitURL, circuitKey, year)
	body, err := c.fetch(ctx, u)
	if err != nil {
		c.l.Warn("no circuit info, using rotation 0",
			log.Int("circuitKey", circuitKey), log.ErrorField(err))
		return model.CircuitInfo{}
	}
	rot, err := extractRotation(body)
	if err != nil {
		c.l.Warn("invalid circuit info, using rotation 0",
			log.Int("circuitKey", circuitKey), log.ErrorField(err))
		return model.CircuitInfo{}
	}
	return model.CircuitInfo{RotationDegrees: rot}
}

func extractRotation(body []byte) (float64, error) {
	doc, err := oj.Parse(body)
	if err != nil {
		return 0, err
	}
	res := rotationPath.Get(doc)
	if len(res) == 0 {
		return 0, fmt.Errorf("no rotation in circuit info")
	}
	switch v := res[0].(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected rotation value %v", v)
	}
}

func (c *Client) get(ctx context.Context, endpoint, q string, target any) error {
	body, err := c.fetch(ctx, fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, q))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func query(key string, value int) string {
	return url.Values{key: []string{strconv.Itoa(value)}}.Encode()
}

// rangeQuery builds the query for channel data of one driver within
// [from, to). The comparison operators are part of the key which is why
// url.Values can't be used.
func rangeQuery(sessionKey, driverNum int, from, to time.Time) string {
	return fmt.Sprintf("session_key=%d&driver_number=%d&date>=%s&date<%s",
		sessionKey, driverNum,
		url.QueryEscape(from.UTC().Format(time.RFC3339Nano)),
		url.QueryEscape(to.UTC().Format(time.RFC3339Nano)))
}

func isTesting(m *meeting) bool {
	return strings.Contains(strings.ToLower(m.Name), "testing")
}

func driverName(drivers map[int]string, num int) string {
	if name, ok := drivers[num]; ok && name != "" {
		return name
	}
	return strconv.Itoa(num)
}

// toLapRecords converts the laps. The position of a lap is the last
// position reported for the driver until the end of that lap.
func toLapRecords(laps []lap, positions []position, drivers map[int]string) []model.LapRecord {
	byDriver := lo.GroupBy(positions, func(p position) int { return p.Driver })
	for _, p := range byDriver {
		sort.SliceStable(p, func(i, j int) bool { return p[i].Date.Before(p[j].Date) })
	}
	ret := make([]model.LapRecord, 0, len(laps))
	for i := range laps {
		l := &laps[i]
		rec := model.LapRecord{
			Driver:    driverName(drivers, l.Driver),
			LapNumber: l.Number,
		}
		// car data can only be fetched for laps with a start time
		if d, ok := l.lapDuration(); ok && !l.DateStart.IsZero() {
			rec.LapTime = null.From(d)
		}
		if end, ok := l.end(); ok {
			if pos, ok := positionAt(byDriver[l.Driver], end); ok {
				rec.Position = null.From(pos)
			}
		}
		ret = append(ret, rec)
	}
	return ret
}

func positionAt(samples []position, at time.Time) (int, bool) {
	idx := sort.Search(len(samples), func(i int) bool { return samples[i].Date.After(at) })
	if idx == 0 {
		return 0, false
	}
	return samples[idx-1].Position, true
}
