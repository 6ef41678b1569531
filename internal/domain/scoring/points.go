package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PointTable maps a 1-based rank to the points it earns. Ranks not in the
// table earn zero.
type PointTable map[int]decimal.Decimal

// NewPointTable parses a table keyed by stringified rank, e.g. {"1": "25"}.
func NewPointTable(raw map[string]string) (PointTable, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyPointTable
	}
	t := make(PointTable, len(raw))
	for k, v := range raw {
		rank, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || rank < 1 {
			return nil, fmt.Errorf("%w: rank %q", ErrInvalidPointTable, k)
		}
		pts, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: rank %d: %w", ErrInvalidPointTable, rank, err)
		}
		if pts.IsNegative() {
			return nil, fmt.Errorf("%w: rank %d has negative points", ErrInvalidPointTable, rank)
		}
		t[rank] = pts
	}
	return t, nil
}

// Lookup returns the points for rank, zero when the rank is not listed.
func (t PointTable) Lookup(rank int) decimal.Decimal {
	if p, ok := t[rank]; ok {
		return p
	}
	return decimal.Zero
}
