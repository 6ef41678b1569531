// Package scoring converts one event's classification into point awards.
package scoring

import (
	"sort"

	"github.com/aarondl/opt/omit"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/okian/podium/internal/domain/aggregate"
	"github.com/okian/podium/internal/domain/model"
)

// Award is the points one entity earns from one event.
type Award struct {
	EntityID string          // driver id, or team id under SecondDriverRule
	Rank     int             // rank the points were looked up by; 0 for participation awards
	Points   decimal.Decimal // points earned
	// Lead is the entity's own result, or the best-placed team member.
	Lead model.ParticipantResult
	// Second is the second-placed team member, unset for sole-driver teams.
	Second omit.Val[model.ParticipantResult]
}

// Participation reports whether the award marks presence without a scored rank.
func (a Award) Participation() bool { return a.Rank == 0 }

// Rule scores one event.
type Rule interface {
	// Score returns the awards of one event, best rank first.
	Score(results []model.ParticipantResult) []Award
}

// DirectPositionRule awards each entity the table value of its own position.
type DirectPositionRule struct {
	table         PointTable
	recorded      bool
	participation bool
}

// NewDirectPositionRule creates a DirectPositionRule.
func NewDirectPositionRule(table PointTable, opts ...Option) *DirectPositionRule {
	r := &DirectPositionRule{table: table}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Score implements Rule. An entity listed more than once keeps its best place.
func (r *DirectPositionRule) Score(results []model.ParticipantResult) []Award {
	groups := aggregate.ByEntity(results, aggregate.ByDriver)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Results[0].Position.Place() < groups[j].Results[0].Position.Place()
	})

	awards := lo.Map(groups, func(g aggregate.Group, _ int) Award {
		best := g.Results[0]
		return Award{
			EntityID: g.Key,
			Rank:     best.Position.Place(),
			Points:   r.points(best),
			Lead:     best,
		}
	})

	if !r.participation {
		return awards
	}

	scored := lo.SliceToMap(awards, func(a Award) (string, struct{}) { return a.EntityID, struct{}{} })
	for _, res := range results {
		if _, ok := scored[res.EntityID]; ok {
			continue
		}
		scored[res.EntityID] = struct{}{}
		pts := decimal.Zero
		if r.recorded {
			pts = res.RawPoints.GetOr(decimal.Zero)
		}
		awards = append(awards, Award{EntityID: res.EntityID, Points: pts, Lead: res})
	}
	return awards
}

func (r *DirectPositionRule) points(res model.ParticipantResult) decimal.Decimal {
	if r.recorded {
		if v, ok := res.RawPoints.Get(); ok {
			return v
		}
	}
	return r.table.Lookup(res.Position.Place())
}

// SecondDriverRule ranks teams by their second-placed classified driver.
// Teams with a single classified driver are ranked by that driver and always
// come after every team with two or more. Points follow the merged rank.
type SecondDriverRule struct {
	table PointTable
}

// NewSecondDriverRule creates a SecondDriverRule.
func NewSecondDriverRule(table PointTable) *SecondDriverRule {
	return &SecondDriverRule{table: table}
}

// Score implements Rule. Awards are keyed by team id.
func (r *SecondDriverRule) Score(results []model.ParticipantResult) []Award {
	var pairs, soles []Award
	for _, g := range aggregate.ByEntity(results, aggregate.ByTeam) {
		a := Award{EntityID: g.Key, Lead: g.Results[0]}
		if len(g.Results) >= 2 {
			a.Second = omit.From(g.Results[1])
			pairs = append(pairs, a)
			continue
		}
		soles = append(soles, a)
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Second.MustGet().Position.Place() < pairs[j].Second.MustGet().Position.Place()
	})
	sort.SliceStable(soles, func(i, j int) bool {
		return soles[i].Lead.Position.Place() < soles[j].Lead.Position.Place()
	})

	merged := append(pairs, soles...)
	for i := range merged {
		merged[i].Rank = i + 1
		merged[i].Points = r.table.Lookup(i + 1)
	}
	return merged
}

// Representative returns the result that stands in for the team.
func (a Award) Representative() model.ParticipantResult {
	if s, ok := a.Second.Get(); ok {
		return s
	}
	return a.Lead
}

// BestSessionRule scores only the results that reached the top qualifying
// segment, or every result when nobody did.
type BestSessionRule struct {
	direct *DirectPositionRule
}

// NewBestSessionRule creates a BestSessionRule; opts configure the
// underlying DirectPositionRule.
func NewBestSessionRule(table PointTable, opts ...Option) *BestSessionRule {
	return &BestSessionRule{direct: NewDirectPositionRule(table, opts...)}
}

// Score implements Rule.
func (r *BestSessionRule) Score(results []model.ParticipantResult) []Award {
	return r.direct.Score(TopSegment(results))
}

// TopSegment returns the results marked as reaching the top segment, falling
// back to all results when none are marked.
func TopSegment(results []model.ParticipantResult) []model.ParticipantResult {
	top := lo.Filter(results, func(r model.ParticipantResult, _ int) bool { return r.TopSegment })
	if len(top) == 0 {
		return results
	}
	return top
}
