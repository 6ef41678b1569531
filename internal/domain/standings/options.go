package standings

import (
	"errors"
	"fmt"
	"strings"
)

// TieBreak orders entities with equal totals.
type TieBreak string

// Tie-break policies.
const (
	TieBreakInsertion TieBreak = "insertion" // first registered first
	TieBreakEntity    TieBreak = "entity"    // entity id ascending
)

// ColumnOrder orders the header columns.
type ColumnOrder string

// Column orders.
const (
	ColumnAppearance ColumnOrder = "appearance"
	ColumnLexical    ColumnOrder = "lexical"
)

// Sentinel errors.
var (
	ErrUnknownTieBreak    = errors.New("standings: unknown tie-break")
	ErrUnknownColumnOrder = errors.New("standings: unknown column order")
)

// ParseTieBreak parses a tie-break name; empty selects insertion order.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(strings.ToLower(strings.TrimSpace(s))) {
	case "", TieBreakInsertion:
		return TieBreakInsertion, nil
	case TieBreakEntity:
		return TieBreakEntity, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTieBreak, s)
}

// ParseColumnOrder parses a column order name; empty selects appearance order.
func ParseColumnOrder(s string) (ColumnOrder, error) {
	switch ColumnOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", ColumnAppearance:
		return ColumnAppearance, nil
	case ColumnLexical:
		return ColumnLexical, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumnOrder, s)
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithTieBreak sets the tie-break policy.
func WithTieBreak(t TieBreak) Option {
	return func(b *Builder) {
		if t != "" {
			b.tieBreak = t
		}
	}
}

// WithColumnOrder sets the header column order.
func WithColumnOrder(o ColumnOrder) Option {
	return func(b *Builder) {
		if o != "" {
			b.columnOrder = o
		}
	}
}
