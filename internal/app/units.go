package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/okian/podium/internal/adapters/report"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/domain/aggregate"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/internal/domain/standings"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Artifact names below the output directory.
const (
	historyFile      = "history.csv"
	qualifyingFile   = "qualifying.csv"
	secondDriverFile = "second-driver.csv"
	detailDir        = "second-driver-races"
)

// Skip reasons reported for events left out of a build.
const (
	skipMissing    = "missing"
	skipEmpty      = "empty"
	skipUnreadable = "unreadable"
)

// emitFunc writes a built artifact to path.
type emitFunc func(ctx context.Context, path string) error

// buildFunc computes an artifact in memory. Nothing is written until the
// returned emitFunc runs.
type buildFunc func(ctx context.Context, log logger.Logger) (emitFunc, error)

// unit is one artifact and the inputs it is computed from.
type unit struct {
	kind     Kind
	name     string
	artifact string
	inputs   []string
	// settings are configuration values that change the artifact without
	// changing any input file.
	settings []string
	build    buildFunc
	// err is set when the unit could not be enumerated.
	err      error
}

func (s *Service) units(env *runEnv, k Kind) []unit {
	switch k {
	case KindHistory:
		return []unit{s.historyUnit(env)}
	case KindQualifying:
		return lo.Map(env.seasons, func(year string, _ int) unit { return s.qualifyingUnit(env, year) })
	case KindSecondDriver:
		return lo.Map(env.seasons, func(year string, _ int) unit { return s.secondDriverUnit(env, year) })
	case KindSecondDriverRaces:
		return lo.Map(env.seasons, func(year string, _ int) unit { return s.detailUnit(env, year) })
	default:
		return nil
	}
}

func (s *Service) newBuilder(rc config.ReportConfig) (*standings.Builder, error) {
	tie, err := standings.ParseTieBreak(rc.TieBreak)
	if err != nil {
		return nil, err
	}
	order, err := standings.ParseColumnOrder(rc.ColumnOrder)
	if err != nil {
		return nil, err
	}
	return standings.NewBuilder(standings.WithTieBreak(tie), standings.WithColumnOrder(order)), nil
}

func tableSettings(rc config.ReportConfig) []string {
	return []string{"column_order=" + rc.ColumnOrder, "tie_break=" + rc.TieBreak}
}

// historyUnit covers every configured period, or every season when the
// points file lists none.
func (s *Service) historyUnit(env *runEnv) unit {
	rc := s.cfg.History
	pf := env.points[KindHistory]
	periods := pf.periods
	if len(periods) == 0 {
		periods = env.seasons
	}

	return unit{
		kind:     KindHistory,
		name:     string(KindHistory),
		artifact: filepath.Join(s.cfg.OutputDir, historyFile),
		inputs:   lo.Map(periods, func(p string, _ int) string { return s.reader.StandingsPath(p) }),
		settings: append(tableSettings(rc.ReportConfig),
			"points_source="+rc.PointsSource,
			"periods="+strings.Join(periods, ","),
		),
		build: func(ctx context.Context, log logger.Logger) (emitFunc, error) {
			b, err := s.newBuilder(rc.ReportConfig)
			if err != nil {
				return nil, err
			}
			rule := scoring.NewDirectPositionRule(pf.table,
				scoring.WithRecordedPoints(rc.PointsSource == config.PointsFromRecorded),
				scoring.WithParticipation(true),
			)
			for _, p := range periods {
				b.DeclareColumn(p)
				res, ok := s.read(ctx, log, KindHistory, s.reader.StandingsPath(p), s.reader.ReadStandings)
				if !ok {
					continue
				}
				for _, a := range rule.Score(res.Records) {
					b.Record(a.EntityID, p, a.Points)
				}
			}
			return s.emitTable(report.LabelDriver, b.Build(), env.names.Driver), nil
		},
	}
}

// qualifyingUnit scores every race of a season on its qualifying session. A
// session override re-scores the race into the same column.
func (s *Service) qualifyingUnit(env *runEnv, year string) unit {
	rc := s.cfg.Qualifying
	pf := env.points[KindQualifying]
	u := unit{
		kind:     KindQualifying,
		name:     year,
		artifact: filepath.Join(s.cfg.OutputDir, year, qualifyingFile),
		settings: append(tableSettings(rc.ReportConfig), "top_segment_field="+rc.TopSegmentField),
	}

	races, err := s.reader.Races(year)
	if err != nil {
		u.err = err
		return u
	}

	sessions := make(map[string][]model.Session, len(races))
	for _, race := range races {
		list := []model.Session{model.SessionQualifying}
		if o, ok := rc.Override(year, race); ok && o != model.SessionQualifying {
			list = append(list, o)
			u.settings = append(u.settings, "override="+race+":"+string(o))
		}
		sessions[race] = list
		for _, session := range list {
			u.inputs = append(u.inputs, s.reader.SessionPath(year, race, session))
		}
	}

	u.build = func(ctx context.Context, log logger.Logger) (emitFunc, error) {
		b, err := s.newBuilder(rc.ReportConfig)
		if err != nil {
			return nil, err
		}
		rule := scoring.NewBestSessionRule(pf.table)
		events := model.NewEventRegistry()
		for _, race := range races {
			column := model.DeriveEventID(race, model.SessionQualifying)
			for _, session := range sessions[race] {
				res, ok := s.read(ctx, log, KindQualifying, s.reader.SessionPath(year, race, session), s.reader.ReadSession)
				if !ok {
					continue
				}
				s.claim(ctx, log, KindQualifying, events, b, column, race)
				recordWithPresence(b, string(column), rule.Score(res.Records), res.Records)
			}
		}
		return s.emitTable(report.LabelDriver, b.Build(), env.names.Driver), nil
	}
	return u
}

// secondDriverUnit ranks teams by their second driver over a season.
func (s *Service) secondDriverUnit(env *runEnv, year string) unit {
	rc := s.cfg.SecondDriver
	pf := env.points[KindSecondDriver]
	u := s.raceSessionsUnit(KindSecondDriver, year, filepath.Join(s.cfg.OutputDir, year, secondDriverFile))
	if u.err != nil {
		return u.unit
	}
	u.settings = append(u.settings, tableSettings(rc.ReportConfig)...)
	races := u.races

	u.build = func(ctx context.Context, log logger.Logger) (emitFunc, error) {
		b, err := s.newBuilder(rc.ReportConfig)
		if err != nil {
			return nil, err
		}
		rule := scoring.NewSecondDriverRule(pf.table)
		events := model.NewEventRegistry()
		seats := newSecondSeats()
		for _, race := range races {
			for _, session := range s.raceSessions() {
				res, ok := s.read(ctx, log, KindSecondDriver, s.reader.SessionPath(year, race, session), s.reader.ReadSession)
				if !ok {
					continue
				}
				column := string(model.DeriveEventID(race, session))
				s.claim(ctx, log, KindSecondDriver, events, b, model.EventID(column), race)
				seats.reset(column)
				for _, a := range rule.Score(res.Records) {
					b.Record(a.EntityID, column, a.Points)
					if second, ok := a.Second.Get(); ok {
						seats.add(column, a.EntityID, second.EntityID)
					}
				}
			}
		}

		usual := seats.usual()
		mainSecond := report.Column{
			Header: report.HeaderMainSecondDriver,
			Value: func(team string) string {
				if id, ok := usual[team]; ok {
					return env.names.Driver(id)
				}
				return ""
			},
		}
		return s.emitTable(report.LabelTeam, b.Build(), env.names.Constructor, mainSecond), nil
	}
	return u.unit
}

// secondSeats tracks who held each team's second seat, per column.
type secondSeats struct {
	columns []string
	byCol   map[string]map[string]string
}

func newSecondSeats() *secondSeats {
	return &secondSeats{byCol: make(map[string]map[string]string)}
}

// reset empties column, keeping its place in the column order.
func (s *secondSeats) reset(column string) {
	if _, ok := s.byCol[column]; !ok {
		s.columns = append(s.columns, column)
	}
	s.byCol[column] = make(map[string]string)
}

func (s *secondSeats) add(column, team, driver string) {
	s.byCol[column][team] = driver
}

// usual returns each team's most frequent second driver. Teams that never
// fielded two classified drivers are absent.
func (s *secondSeats) usual() map[string]string {
	held := make(map[string][]string)
	for _, c := range s.columns {
		for team, driver := range s.byCol[c] {
			held[team] = append(held[team], driver)
		}
	}
	out := make(map[string]string, len(held))
	for team, drivers := range held {
		if id, ok := aggregate.MostFrequent(drivers); ok {
			out[team] = id
		}
	}
	return out
}

// detailUnit lists, per race, each team's merged rank with both drivers.
func (s *Service) detailUnit(env *runEnv, year string) unit {
	pf := env.points[KindSecondDriverRaces]
	u := s.raceSessionsUnit(KindSecondDriverRaces, year, filepath.Join(s.cfg.OutputDir, detailDir, year+".csv"))
	if u.err != nil {
		return u.unit
	}
	races := u.races

	u.build = func(ctx context.Context, log logger.Logger) (emitFunc, error) {
		rule := scoring.NewSecondDriverRule(pf.table)
		var rows []report.DetailRow
		for _, race := range races {
			for _, session := range s.raceSessions() {
				res, ok := s.read(ctx, log, KindSecondDriverRaces, s.reader.SessionPath(year, race, session), s.reader.ReadSession)
				if !ok {
					continue
				}
				event := string(model.DeriveEventID(race, session))
				for _, a := range rule.Score(res.Records) {
					rows = append(rows, detailRow(event, a, env.names))
				}
			}
		}
		return func(ctx context.Context, path string) error {
			return s.writer.WriteDetail(ctx, path, rows)
		}, nil
	}
	return u.unit
}

func detailRow(event string, a scoring.Award, names *source.Names) report.DetailRow {
	row := report.DetailRow{
		Event:         event,
		Team:          names.Constructor(a.EntityID),
		Rank:          a.Rank,
		Points:        a.Points,
		FirstDriver:   names.Driver(a.Lead.EntityID),
		FirstPosition: a.Lead.Position.String(),
	}
	if second, ok := a.Second.Get(); ok {
		row.SecondDriver = names.Driver(second.EntityID)
		row.SecondPosition = second.Position.String()
	}
	return row
}

// raceUnit is a unit over the race sessions of one season.
type raceUnit struct {
	unit
	races []string
}

func (s *Service) raceSessions() []model.Session {
	if s.cfg.SecondDriver.IncludeSprints {
		return []model.Session{model.SessionRace, model.SessionSprint}
	}
	return []model.Session{model.SessionRace}
}

func (s *Service) raceSessionsUnit(k Kind, year, artifact string) raceUnit {
	u := raceUnit{unit: unit{
		kind:     k,
		name:     year,
		artifact: artifact,
		settings: []string{"include_sprints=" + strconv.FormatBool(s.cfg.SecondDriver.IncludeSprints)},
	}}
	races, err := s.reader.Races(year)
	if err != nil {
		u.err = err
		return u
	}
	u.races = races
	for _, race := range races {
		for _, session := range s.raceSessions() {
			u.inputs = append(u.inputs, s.reader.SessionPath(year, race, session))
		}
	}
	return u
}

func (s *Service) emitTable(label string, tbl standings.Table, name report.NameFunc, extra ...report.Column) emitFunc {
	return func(ctx context.Context, path string) error {
		return s.writer.WriteTable(ctx, path, label, tbl, name, extra...)
	}
}

// claim registers race as the source of column and clears the column so the
// scores that follow replace whatever it held. A column already claimed by
// another race is a collision: it is reported and the later race wins.
func (s *Service) claim(ctx context.Context, log logger.Logger, k Kind, events *model.EventRegistry, b *standings.Builder, column model.EventID, race string) {
	if prev, collision := events.Register(column, race); collision {
		metrics.RecordEventCollision(string(k))
		log.Warn(ctx, "event id collision",
			logger.String("event", string(column)),
			logger.String("replaced", prev),
			logger.String("by", race),
		)
	}
	b.ClearColumn(string(column))
}

// recordWithPresence records the awards of one event, then an explicit zero
// for every other entity present in the classification.
func recordWithPresence(b *standings.Builder, column string, awards []scoring.Award, results []model.ParticipantResult) {
	scored := make(map[string]struct{}, len(awards))
	for _, a := range awards {
		b.Record(a.EntityID, column, a.Points)
		scored[a.EntityID] = struct{}{}
	}
	for _, id := range aggregate.Participants(results) {
		if _, ok := scored[id]; !ok {
			b.Record(id, column, decimal.Zero)
		}
	}
}

type readFunc func(ctx context.Context, path string) (source.Results, error)

// read loads one event file. Missing, empty and unreadable files are skipped
// with a warning; malformed records are dropped and counted. A repeated
// listing of an entity is malformed and only its first listing is kept.
func (s *Service) read(ctx context.Context, log logger.Logger, k Kind, path string, fn readFunc) (source.Results, bool) {
	res, err := fn(ctx, path)
	if err != nil {
		reason := skipReason(err)
		metrics.RecordEventSkipped(string(k), reason)
		log.Warn(ctx, "event skipped",
			logger.String("path", path),
			logger.String("reason", reason),
			logger.Error(err),
		)
		return source.Results{}, false
	}
	if dups := aggregate.Duplicates(res.Records); len(dups) > 0 {
		kept, repeats := aggregate.KeepFirst(res.Records)
		res.Records = kept
		res.Skipped = append(res.Skipped, lo.Map(repeats, func(r model.ParticipantResult, _ int) error {
			return fmt.Errorf("%w: %s listed more than once", source.ErrMalformedRecord, r.EntityID)
		})...)
		log.Debug(ctx, "duplicate listings dropped", logger.String("path", path), logger.Any("entities", dups))
	}
	if n := len(res.Skipped); n > 0 {
		metrics.RecordRecordsSkipped(string(k), n)
		log.Warn(ctx, "records skipped",
			logger.String("path", path),
			logger.Int("count", n),
			logger.Error(res.Skipped[0]),
		)
	}
	return res, true
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, source.ErrMissingInput):
		return skipMissing
	case errors.Is(err, source.ErrEmptyInput):
		return skipEmpty
	default:
		return skipUnreadable
	}
}
