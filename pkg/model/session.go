package model

import (
	"fmt"
	"strings"
)

type SessionType string

const (
	SessionTypePractice1        SessionType = "Practice1"
	SessionTypePractice2        SessionType = "Practice2"
	SessionTypePractice3        SessionType = "Practice3"
	SessionTypeQualifying       SessionType = "Qualifying"
	SessionTypeSprintQualifying SessionType = "SprintQualifying"
	SessionTypeSprint           SessionType = "Sprint"
	SessionTypeRace             SessionType = "Race"
)

var sessionTypeAliases = map[string]SessionType{
	"fp1":               SessionTypePractice1,
	"practice1":         SessionTypePractice1,
	"practice 1":        SessionTypePractice1,
	"fp2":               SessionTypePractice2,
	"practice2":         SessionTypePractice2,
	"practice 2":        SessionTypePractice2,
	"fp3":               SessionTypePractice3,
	"practice3":         SessionTypePractice3,
	"practice 3":        SessionTypePractice3,
	"q":                 SessionTypeQualifying,
	"qualifying":        SessionTypeQualifying,
	"sq":                SessionTypeSprintQualifying,
	"sprintqualifying":  SessionTypeSprintQualifying,
	"sprint qualifying": SessionTypeSprintQualifying,
	"sprint shootout":   SessionTypeSprintQualifying,
	"s":                 SessionTypeSprint,
	"sprint":            SessionTypeSprint,
	"r":                 SessionTypeRace,
	"race":              SessionTypeRace,
}

// ParseSessionType accepts long names ("Race", "Practice 1") and the short
// codes used by timing sources ("R", "FP1", "SQ").
func ParseSessionType(s string) (SessionType, error) {
	if st, ok := sessionTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown session type %q", s)
}

// SessionIdentity identifies one session. Two identities are equal if and
// only if the same session data is meant.
type SessionIdentity struct {
	Year     int         `json:"year"`
	Location string      `json:"location"`
	Type     SessionType `json:"sessionType"`
}

func (s SessionIdentity) String() string {
	return fmt.Sprintf("%d/%s/%s", s.Year, s.Location, s.Type)
}

func (s SessionIdentity) IsZero() bool {
	return s == SessionIdentity{}
}
