package coordinator

import (
	"slices"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// State is the selection state of one interactive session. It is passed
// into and returned from every entry point of the Coordinator.
//
// In PhaseError Identity and Selection still describe the last good state,
// if there was one.
type State struct {
	Phase     Phase
	Identity  model.SessionIdentity
	Selection []string
	Hover     null.Val[string]
	LastError error
}

// HasSession reports whether a session was loaded successfully at some point.
func (s State) HasSession() bool {
	return !s.Identity.IsZero()
}

func (s State) isSelected(driver string) bool {
	return slices.Contains(s.Selection, driver)
}

func (s State) clone() State {
	s.Selection = slices.Clone(s.Selection)
	return s
}

type (
	// SessionChoice selects an event of a season schedule by its official name.
	SessionChoice struct {
		Year  int
		Event string
	}
	// HoverEvent is raised when the user hovers over a driver in the summary.
	// An empty Driver means no hover target.
	HoverEvent struct {
		Driver string
	}
)
