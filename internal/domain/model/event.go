package model

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Session identifies one result session of a race weekend.
type Session string

// Known sessions.
const (
	SessionRace             Session = "race"
	SessionSprint           Session = "sprint-race"
	SessionQualifying       Session = "qualifying"
	SessionSprintQualifying Session = "sprint-qualifying"
)

// eventCodeLength is the number of circuit-name letters kept in an EventID.
const eventCodeLength = 3

// Suffix returns the short code appended to an EventID.
func (s Session) Suffix() string {
	switch s {
	case SessionRace:
		return "R"
	case SessionSprint:
		return "S"
	case SessionQualifying:
		return "Q"
	case SessionSprintQualifying:
		return "SQ"
	default:
		return strings.ToUpper(string(s))
	}
}

// FileName returns the result file holding this session inside a race directory.
func (s Session) FileName() string {
	return string(s) + "-results.yml"
}

// ParseSession accepts a session name or its results file name.
func ParseSession(v string) (Session, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "-results.yml")
	switch Session(v) {
	case SessionRace, SessionSprint, SessionQualifying, SessionSprintQualifying:
		return Session(v), true
	}
	return "", false
}

// EventID is the short column code of one session of one race, e.g. "MONR".
type EventID string

// DeriveEventID builds the column code from a race directory name such as
// "07-monaco": the first three letters of the circuit name, upper-cased,
// followed by the session suffix.
func DeriveEventID(raceDir string, session Session) EventID {
	name := filepath.Base(raceDir)
	if _, rest, ok := strings.Cut(name, "-"); ok {
		name = rest
	}
	runes := []rune(name)
	if len(runes) > eventCodeLength {
		runes = runes[:eventCodeLength]
	}
	code := strings.Map(unicode.ToUpper, string(runes))
	return EventID(code + session.Suffix())
}

// EventRegistry tracks which race directory produced each EventID within one
// work unit so that prefix collisions can be reported.
type EventRegistry struct {
	sources map[EventID]string
}

// NewEventRegistry returns an empty registry.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{sources: make(map[EventID]string)}
}

// Register records source as the origin of id. When a different source already
// claimed id, it returns that earlier source and true; the new source replaces it.
func (r *EventRegistry) Register(id EventID, source string) (string, bool) {
	prev, ok := r.sources[id]
	r.sources[id] = source
	if ok && prev != source {
		return prev, true
	}
	return "", false
}
