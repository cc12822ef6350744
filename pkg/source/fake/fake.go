// Package fake provides an in-memory data access used by tests and the
// demo mode of the server.
package fake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

var ErrUnavailable = errors.New("source unavailable")

type (
	Source struct {
		mu        sync.Mutex
		events    map[int][]model.Event
		sessions  map[model.SessionIdentity]*model.SessionData
		failing   bool
		loadCalls []model.SessionIdentity
		listCalls int
		loadHook  func(model.SessionIdentity)
	}
	Option func(*Source)
)

func WithEvents(year int, events []model.Event) Option {
	return func(s *Source) {
		s.events[year] = events
	}
}

func WithSession(data *model.SessionData) Option {
	return func(s *Source) {
		s.sessions[data.Identity] = data
	}
}

// WithLoadHook registers a function called at the start of each LoadSession.
func WithLoadHook(hook func(model.SessionIdentity)) Option {
	return func(s *Source) {
		s.loadHook = hook
	}
}

func New(opts ...Option) *Source {
	ret := &Source{
		events:   map[int][]model.Event{},
		sessions: map[model.SessionIdentity]*model.SessionData{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// SetFailing makes subsequent calls fail with ErrUnavailable.
func (s *Source) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

func (s *Source) LoadCalls() []model.SessionIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SessionIdentity{}, s.loadCalls...)
}

func (s *Source) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *Source) ListEvents(_ context.Context, year int) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.failing {
		return nil, ErrUnavailable
	}
	return s.events[year], nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Source) LoadSession(
	_ context.Context, id model.SessionIdentity,
) (*model.SessionData, error) {
	s.mu.Lock()
	hook := s.loadHook
	s.loadCalls = append(s.loadCalls, id)
	failing := s.failing
	data, ok := s.sessions[id]
	s.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if failing {
		return nil, ErrUnavailable
	}
	if !ok {
		return nil, fmt.Errorf("%w: no session %s", ErrUnavailable, id)
	}
	return data, nil
}
