package service

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Kind names a report family.
type Kind string

// Report kinds, in run order.
const (
	KindHistory           Kind = "history"
	KindQualifying        Kind = "qualifying"
	KindSecondDriver      Kind = "second-driver"
	KindSecondDriverRaces Kind = "second-driver-races"
)

// AllKinds lists every report kind in run order.
var AllKinds = []Kind{KindHistory, KindQualifying, KindSecondDriver, KindSecondDriverRaces}

// ParseKinds parses report kind names. No names selects every kind. The
// result follows run order without duplicates.
func ParseKinds(names []string) ([]Kind, error) {
	if len(names) == 0 {
		return AllKinds, nil
	}
	wanted := make(map[Kind]struct{}, len(names))
	for _, n := range names {
		k := Kind(strings.ToLower(strings.TrimSpace(n)))
		if !lo.Contains(AllKinds, k) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, n)
		}
		wanted[k] = struct{}{}
	}
	return lo.Filter(AllKinds, func(k Kind, _ int) bool {
		_, ok := wanted[k]
		return ok
	}), nil
}
