// Package source defines the data-access capability the dashboard consumes
// and helpers to resolve user choices into session identities.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/utils/cache"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/utils/cache/loadercache"
)

// DataAccess is implemented by adapters to an upstream timing source.
type DataAccess interface {
	ListEvents(ctx context.Context, year int) ([]model.Event, error)
	LoadSession(ctx context.Context, id model.SessionIdentity) (*model.SessionData, error)
}

var ErrEventNotFound = errors.New("event not found")

type (
	Resolver struct {
		schedules   cache.Cache[int, []model.Event]
		sessionType model.SessionType
		l           *log.Logger
	}
	ResolverOption func(*resolverConfig)

	resolverConfig struct {
		ttl         time.Duration
		sessionType model.SessionType
	}
)

func WithScheduleTTL(d time.Duration) ResolverOption {
	return func(c *resolverConfig) {
		c.ttl = d
	}
}

// WithSessionType sets the session type used for resolved identities.
func WithSessionType(st model.SessionType) ResolverOption {
	return func(c *resolverConfig) {
		c.sessionType = st
	}
}

func NewResolver(da DataAccess, opts ...ResolverOption) *Resolver {
	cfg := &resolverConfig{ttl: time.Hour, sessionType: model.SessionTypeRace}
	for _, opt := range opts {
		opt(cfg)
	}
	l := log.Default().Named("source.resolver")
	return &Resolver{
		schedules: loadercache.New(
			loadercache.WithLoader[int, []model.Event](
				func(ctx context.Context, year int) (*[]model.Event, error) {
					events, err := da.ListEvents(ctx, year)
					if err != nil {
						return nil, err
					}
					return &events, nil
				}),
			loadercache.WithExpiration[int, []model.Event](cfg.ttl),
			loadercache.WithLogger[int, []model.Event](l),
		),
		sessionType: cfg.sessionType,
		l:           l,
	}
}

// Events returns the schedule of year.
func (r *Resolver) Events(ctx context.Context, year int) ([]model.Event, error) {
	events, err := r.schedules.Get(ctx, year)
	if err != nil {
		return nil, err
	}
	return *events, nil
}

// Resolve maps the official name of an event within year's schedule to the
// identity of the configured session type. The identity's year is taken
// from the event date.
//
//nolint:whitespace // can't make both editor and linter happy
func (r *Resolver) Resolve(
	ctx context.Context, year int, officialName string,
) (model.SessionIdentity, error) {
	events, err := r.Events(ctx, year)
	if err != nil {
		return model.SessionIdentity{}, err
	}
	for _, e := range events {
		if e.OfficialName == officialName {
			ret := model.SessionIdentity{
				Year:     e.Date.Year(),
				Location: e.Location,
				Type:     r.sessionType,
			}
			r.l.Debug("resolved event",
				log.String("event", officialName), log.Stringer("identity", ret))
			return ret, nil
		}
	}
	return model.SessionIdentity{}, fmt.Errorf("%w: %q in %d", ErrEventNotFound, officialName, year)
}
