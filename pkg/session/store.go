// Package session holds the currently loaded session of one interactive
// dashboard session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/utils/broadcast"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/utils/cache/slotcache"
)

var (
	ErrLoadFailure    = errors.New("session could not be loaded")
	ErrLoadInProgress = errors.New("session load already in progress")
)

type (
	Store struct {
		da      source.DataAccess
		slot    *slotcache.SlotCache[model.SessionIdentity, model.SessionData]
		loading sync.Mutex
		current atomic.Pointer[model.SessionData]
		changes chan model.SessionIdentity
		done    chan struct{}
		closed  sync.Once
		bcst    broadcast.BroadcastServer[model.SessionIdentity]
		tracer  trace.Tracer
		l       *log.Logger
	}
	Option func(*Store)
)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.l = l
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = tracer
	}
}

func NewStore(da source.DataAccess, opts ...Option) *Store {
	ret := &Store{
		da:      da,
		changes: make(chan model.SessionIdentity),
		done:    make(chan struct{}),
		l:       log.Default().Named("session"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("ftd")
	}
	ret.slot = slotcache.New(
		slotcache.WithLoader[model.SessionIdentity, model.SessionData](ret.fetch),
		slotcache.WithLogger[model.SessionIdentity, model.SessionData](ret.l),
	)
	ret.bcst = broadcast.NewBroadcastServer("session", ret.changes)
	return ret
}

// Load makes the session identified by id the current one.
// If id is already loaded no fetch happens and changed is false.
// On failure the previously loaded session stays current.
// Concurrent calls are rejected with ErrLoadInProgress.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Store) Load(ctx context.Context, id model.SessionIdentity) (
	data *model.SessionData, changed bool, err error,
) {
	if !s.loading.TryLock() {
		return nil, false, ErrLoadInProgress
	}
	defer s.loading.Unlock()

	if data, ok := s.slot.Lookup(id); ok {
		return data, false, nil
	}

	ctx, span := s.tracer.Start(ctx, "session.load",
		trace.WithAttributes(attribute.String("identity", id.String())))
	defer span.End()

	data, err = s.slot.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("%w: %s: %w", ErrLoadFailure, id, err)
	}
	s.current.Store(data)
	s.l.Info("session loaded",
		log.Stringer("identity", id),
		log.Int("laps", len(data.Laps)),
		log.Int("drivers", len(data.Drivers())))
	s.notify(ctx, id)
	return data, true, nil
}

func (s *Store) fetch(ctx context.Context, id model.SessionIdentity) (*model.SessionData, error) {
	data, err := s.da.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("source returned no data")
	}
	if data.Identity != id {
		// the source did not set or uses a different spelling, ours is authoritative
		cp := *data
		cp.Identity = id
		data = &cp
	}
	return data, nil
}

func (s *Store) notify(ctx context.Context, id model.SessionIdentity) {
	select {
	case s.changes <- id:
	case <-s.done:
		s.l.Debug("store closed, change not published", log.Stringer("identity", id))
	case <-ctx.Done():
		s.l.Warn("session change not published", log.Stringer("identity", id))
	}
}

// Current returns the loaded session or nil if nothing was loaded yet.
func (s *Store) Current() *model.SessionData {
	return s.current.Load()
}

// Subscribe returns a channel receiving the identity of each newly loaded
// session.
func (s *Store) Subscribe() <-chan model.SessionIdentity {
	return s.bcst.Subscribe()
}

func (s *Store) Unsubscribe(ch <-chan model.SessionIdentity) {
	s.bcst.CancelSubscription(ch)
}

// Close stops publishing changes. Loads after Close still succeed.
func (s *Store) Close() {
	s.closed.Do(func() {
		close(s.done)
		s.bcst.Close()
	})
}
