// Package coordinator reconciles session, driver-set and hover inputs into
// consistent render updates.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/aarondl/opt/null"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/session"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/summary"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/telemetry"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/track"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/utils/cache/slotcache"
)

// DefaultSelectionSize is the number of drivers selected after a load.
const DefaultSelectionSize = 2

var ErrNotLoaded = errors.New("no session loaded")

type (
	Coordinator struct {
		store    *session.Store
		resolver *source.Resolver
		derived  *slotcache.SlotCache[model.SessionIdentity, derived]
		margin   float64
		metrics  *metrics
		tracer   trace.Tracer
		l        *log.Logger
		sub      <-chan model.SessionIdentity
		done     chan struct{}
	}
	Option func(*Coordinator)

	// derived holds the artifacts depending on the session only
	derived struct {
		outline  *TrackOutline
		trackErr error
		summary  []summary.Entry
		options  []string
		defaults []string
	}
)

func WithTrackMargin(margin float64) Option {
	return func(c *Coordinator) {
		c.margin = margin
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) {
		c.l = l
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = tracer
	}
}

func New(store *session.Store, resolver *source.Resolver, opts ...Option) *Coordinator {
	ret := &Coordinator{
		store:    store,
		resolver: resolver,
		margin:   track.DefaultMargin,
		l:        log.Default().Named("coordinator"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("ftd")
	}
	ret.metrics = newMetrics(ret.l)
	ret.derived = slotcache.New(
		slotcache.WithLoader[model.SessionIdentity, derived](ret.computeDerived),
		slotcache.WithLogger[model.SessionIdentity, derived](ret.l),
	)
	ret.sub = store.Subscribe()
	go ret.invalidateOnChange()
	return ret
}

// Close releases the subscription to the store. The store itself is not closed.
func (c *Coordinator) Close() {
	c.store.Unsubscribe(c.sub)
	<-c.done
}

func (c *Coordinator) invalidateOnChange() {
	defer close(c.done)
	for id := range c.sub {
		if key, _, ok := c.derived.Current(); ok && key != id {
			c.l.Debug("invalidating derived artifacts", log.Stringer("identity", key))
			c.derived.Invalidate(context.Background(), key)
		}
	}
}

// SessionChoice handles the selection of an event.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) SessionChoice(
	ctx context.Context, st State, choice SessionChoice,
) (State, *Update, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.sessionChoice",
		trace.WithAttributes(attribute.String("event", choice.Event)))
	defer span.End()

	id, err := c.resolver.Resolve(ctx, choice.Year, choice.Event)
	if err != nil {
		return st, nil, err
	}
	return c.selectSession(ctx, st, id)
}

// SelectSession handles the selection of an already resolved session.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) SelectSession(
	ctx context.Context, st State, id model.SessionIdentity,
) (State, *Update, error) {
	return c.selectSession(ctx, st, id)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) selectSession(
	ctx context.Context, st State, id model.SessionIdentity,
) (State, *Update, error) {
	data, changed, err := c.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrLoadInProgress) {
			return st, nil, err
		}
		c.metrics.loadFailed(ctx)
		c.l.Warn("session load failed, keeping previous state",
			log.Stringer("identity", id), log.ErrorField(err))
		next := st.clone()
		next.Phase = PhaseError
		next.LastError = err
		return next, &Update{
			Kind:     UpdateNotice,
			Identity: st.Identity,
			Notices:  []string{fmt.Sprintf("could not load %s: %v", id, err)},
		}, nil
	}
	if changed {
		c.metrics.loaded(ctx)
	}

	next := st.clone()
	sessionChanged := id != st.Identity
	next.Phase = PhaseLoaded
	next.Identity = id
	next.LastError = nil

	d, err := c.derived.Get(ctx, id)
	if err != nil {
		return st, nil, err
	}
	if sessionChanged || len(next.Selection) == 0 {
		next.Selection = slices.Clone(d.defaults)
	}
	if sessionChanged {
		next.Hover = null.Val[string]{}
	}
	upd := c.fullUpdate(ctx, data, d, next)
	upd.ClearDetail = sessionChanged
	return next, upd, nil
}

// DriverSetChoice replaces the driver selection. An empty choice selects
// the default drivers of the session. The hover is cleared since its
// detail view may refer to a driver no longer selected.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) DriverSetChoice(
	ctx context.Context, st State, drivers []string,
) (State, *Update, error) {
	if !st.HasSession() {
		return st, nil, ErrNotLoaded
	}
	ctx, span := c.tracer.Start(ctx, "coordinator.driverSetChoice",
		trace.WithAttributes(attribute.StringSlice("drivers", drivers)))
	defer span.End()

	data, d, err := c.ensureLoaded(ctx, st)
	if err != nil {
		return st, nil, err
	}
	next := st.clone()
	next.Phase = PhaseLoaded
	next.LastError = nil
	if len(drivers) == 0 {
		next.Selection = slices.Clone(d.defaults)
	} else {
		next.Selection = slices.Clone(drivers)
	}
	next.Hover = null.Val[string]{}
	upd := c.fullUpdate(ctx, data, d, next)
	upd.ClearDetail = true
	return next, upd, nil
}

// HoverChoice computes the detail view for the hovered driver. It returns a
// nil update if there is nothing to change: no hover target or a driver
// which is not part of the current selection.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) HoverChoice(
	ctx context.Context, st State, ev HoverEvent,
) (State, *Update, error) {
	if !st.HasSession() {
		return st, nil, ErrNotLoaded
	}
	if ev.Driver == "" {
		return st, nil, nil
	}
	if !st.isSelected(ev.Driver) {
		c.l.Debug("ignoring stale hover",
			log.String("driver", ev.Driver), log.Strings("selection", st.Selection))
		return st, nil, nil
	}
	ctx, span := c.tracer.Start(ctx, "coordinator.hoverChoice",
		trace.WithAttributes(attribute.String("driver", ev.Driver)))
	defer span.End()

	data, _, err := c.ensureLoaded(ctx, st)
	if err != nil {
		return st, nil, err
	}
	next := st.clone()
	next.Hover = null.From(ev.Driver)
	upd := &Update{
		Kind:     UpdateDetail,
		Identity: st.Identity,
		Detail:   &Detail{Driver: ev.Driver},
	}
	series, diags := telemetry.ExtractBatch(data, []string{ev.Driver})
	if len(series) == 1 {
		upd.Detail.Lap = series[0].Lap
		upd.Detail.Samples = series[0].Samples
	}
	c.recordDiagnostics(ctx, upd, diags)
	return next, upd, nil
}

// ensureLoaded makes sure the store holds the session of st. This is a
// no-op unless the store was switched to another session meanwhile.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) ensureLoaded(ctx context.Context, st State) (
	*model.SessionData, *derived, error,
) {
	data, _, err := c.store.Load(ctx, st.Identity)
	if err != nil {
		return nil, nil, err
	}
	d, err := c.derived.Get(ctx, st.Identity)
	if err != nil {
		return nil, nil, err
	}
	return data, d, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) fullUpdate(
	ctx context.Context, data *model.SessionData, d *derived, st State,
) *Update {
	upd := &Update{
		Kind:          UpdateFull,
		Identity:      st.Identity,
		DriverOptions: d.options,
		Selection:     slices.Clone(st.Selection),
		Track:         d.outline,
		Summary:       d.summary,
	}
	if d.trackErr != nil {
		upd.Notices = append(upd.Notices, d.trackErr.Error())
	}
	series, diags := telemetry.ExtractBatch(data, st.Selection)
	upd.Comparison = lo.Map(series, func(s telemetry.Series, _ int) SpeedSeries {
		return toSpeedSeries(s)
	})
	c.recordDiagnostics(ctx, upd, diags)
	return upd
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) recordDiagnostics(
	ctx context.Context, upd *Update, diags []telemetry.Diagnostic,
) {
	for range diags {
		c.metrics.telemetryUnavailable(ctx)
	}
	upd.Diagnostics = append(upd.Diagnostics, diags...)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Coordinator) computeDerived(
	_ context.Context, id model.SessionIdentity,
) (*derived, error) {
	data := c.store.Current()
	if data == nil || data.Identity != id {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	drivers := data.Drivers()
	ret := &derived{
		summary:  summary.Summarize(data.Laps),
		defaults: lo.Subset(drivers, 0, DefaultSelectionSize),
	}
	ret.options = slices.Clone(drivers)
	sort.Strings(ret.options)

	points, err := track.NormalizeTrack(data.ReferencePositions(), data.Circuit.RotationDegrees)
	if err != nil {
		c.l.Warn("no track outline", log.Stringer("identity", id), log.ErrorField(err))
		ret.trackErr = err
	} else {
		ret.outline = &TrackOutline{
			Points: points,
			Bounds: track.ComputeBounds(points, c.margin),
		}
	}
	return ret, nil
}
