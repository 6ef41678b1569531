// Package aggregate groups one event's participant results by competing entity.
package aggregate

import (
	"sort"

	"github.com/samber/lo"

	"github.com/okian/podium/internal/domain/model"
)

// GroupKey selects the grouping key of a result.
type GroupKey func(model.ParticipantResult) string

// ByDriver groups by entity (driver) id.
func ByDriver(r model.ParticipantResult) string { return r.EntityID }

// ByTeam groups by team (constructor) id.
func ByTeam(r model.ParticipantResult) string { return r.TeamID }

// Group is the classified results sharing one key, best position first.
type Group struct {
	Key     string
	Results []model.ParticipantResult
}

// ByEntity groups the classified results by key. Groups come in order of the
// key's first appearance; members are sorted by position ascending, keeping
// input order for equal positions. Non-finishers are left out.
func ByEntity(results []model.ParticipantResult, key GroupKey) []Group {
	classified := Classified(results)
	grouped := lo.GroupBy(classified, func(r model.ParticipantResult) string { return key(r) })
	keys := lo.Uniq(lo.Map(classified, func(r model.ParticipantResult, _ int) string { return key(r) }))

	return lo.Map(keys, func(k string, _ int) Group {
		members := grouped[k]
		SortByPosition(members)
		return Group{Key: k, Results: members}
	})
}

// Classified returns the results with a numeric position, in input order.
func Classified(results []model.ParticipantResult) []model.ParticipantResult {
	return lo.Filter(results, func(r model.ParticipantResult, _ int) bool {
		return r.Position.IsClassified()
	})
}

// Participants returns the distinct entity ids present in a classification,
// non-finishers included, in order of first appearance.
func Participants(results []model.ParticipantResult) []string {
	return lo.Uniq(lo.Map(results, func(r model.ParticipantResult, _ int) string { return r.EntityID }))
}

// Duplicates returns entity ids listed more than once in a classification.
func Duplicates(results []model.ParticipantResult) []string {
	counts := lo.CountValues(lo.Map(results, func(r model.ParticipantResult, _ int) string { return r.EntityID }))
	dups := lo.Filter(Participants(results), func(id string, _ int) bool { return counts[id] > 1 })
	return dups
}

// KeepFirst splits a classification into the first listing of each entity
// and the later repeats, both in input order.
func KeepFirst(results []model.ParticipantResult) (kept, repeats []model.ParticipantResult) {
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, ok := seen[r.EntityID]; ok {
			repeats = append(repeats, r)
			continue
		}
		seen[r.EntityID] = struct{}{}
		kept = append(kept, r)
	}
	return kept, repeats
}

// MostFrequent returns the id listed most often, the earliest listed on a
// tie. It reports false for an empty list.
func MostFrequent(ids []string) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}
	counts := lo.CountValues(ids)
	return lo.MaxBy(lo.Uniq(ids), func(a, b string) bool { return counts[a] > counts[b] }), true
}

// SortByPosition sorts classified results by position ascending, in place
// and stable.
func SortByPosition(results []model.ParticipantResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Position.Place() < results[j].Position.Place()
	})
}
