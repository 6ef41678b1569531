// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"
)

// Position is a finishing position: either a classified 1-based place or a
// non-finisher marker that keeps the raw text (DNF, DSQ, NC, ...).
type Position struct {
	place int
	text  string
}

// Classified returns a classified position. Places below 1 are treated as
// unclassified.
func Classified(place int) Position {
	if place < 1 {
		return Position{text: strconv.Itoa(place)}
	}
	return Position{place: place}
}

// Unclassified returns a non-finisher marker.
func Unclassified(text string) Position {
	return Position{text: text}
}

// ParsePosition converts a YAML scalar (int or string) into a Position.
// Strings that parse as positive integers are classified.
func ParsePosition(raw any) (Position, error) {
	switch v := raw.(type) {
	case int:
		return Classified(v), nil
	case int64:
		return Classified(int(v)), nil
	case uint64:
		return Classified(int(v)), nil
	case float64:
		if v != float64(int(v)) {
			return Position{}, fmt.Errorf("non-integral position %v", v)
		}
		return Classified(int(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Position{}, fmt.Errorf("empty position")
		}
		if n, err := strconv.Atoi(s); err == nil {
			return Classified(n), nil
		}
		return Unclassified(s), nil
	case nil:
		return Position{}, fmt.Errorf("missing position")
	default:
		return Position{}, fmt.Errorf("unsupported position type %T", raw)
	}
}

// IsClassified reports whether the position is a numeric place.
func (p Position) IsClassified() bool { return p.place > 0 }

// Place returns the numeric place, or 0 for non-finishers.
func (p Position) Place() int { return p.place }

func (p Position) String() string {
	if p.IsClassified() {
		return strconv.Itoa(p.place)
	}
	return p.text
}

// ParticipantResult is one entity's line in an event classification.
type ParticipantResult struct {
	EntityID  string                    // driver id
	TeamID    string                    // constructor id
	Position  Position                  // finishing position or non-finisher marker
	RawPoints omit.Val[decimal.Decimal] // points as recorded in the source, if any
	// TopSegment is set when the entity reached the top qualifying segment.
	TopSegment bool
}
