// Package service drives report builds: it enumerates the work units of each
// report kind, decides per unit whether its artifact is stale, and rebuilds
// only those that are.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/okian/podium/internal/adapters/report"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/domain/fingerprint"
	"github.com/okian/podium/internal/domain/freshness"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Service runs report builds against one configuration.
type Service struct {
	cfg *config.Config

	// Collaborators
	reader *source.Reader
	cache  freshness.Cache
	writer *report.Writer

	clock  func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache replaces the freshness cache.
func WithCache(c freshness.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithWriter replaces the report writer.
func WithWriter(w *report.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithClock sets the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// New creates a Service for cfg. The reader, cache and writer are derived
// from cfg unless replaced by options.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:   cfg,
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.reader = source.NewReader(cfg.DataDir,
		source.WithTopSegmentField(cfg.Qualifying.TopSegmentField),
		source.WithLogger(s.logger.Named("source")),
	)
	if s.cache == nil {
		s.cache = freshness.NewFileCache(freshness.WithLogger(s.logger.Named("freshness")))
	}
	if s.writer == nil {
		s.writer = report.NewWriter(report.WithLogger(s.logger.Named("report")))
	}

	return s
}

// UnitResult is the outcome of one work unit.
type UnitResult struct {
	Kind     Kind
	Unit     string
	Artifact string
	Outcome  string           // metrics.OutcomeBuilt, OutcomeFresh or OutcomeFailed
	Reason   freshness.Reason // why the unit was or was not rebuilt
	Duration time.Duration
	Err      error
}

// Summary reports one run.
type Summary struct {
	RunID  string
	Units  []UnitResult
	Built  int
	Fresh  int
	Failed int
}

func (s *Summary) add(r UnitResult) {
	s.Units = append(s.Units, r)
	switch r.Outcome {
	case metrics.OutcomeBuilt:
		s.Built++
	case metrics.OutcomeFresh:
		s.Fresh++
	default:
		s.Failed++
	}
}

// Errors returns the errors of the failed units.
func (s Summary) Errors() []error {
	return lo.FilterMap(s.Units, func(r UnitResult, _ int) (error, bool) {
		return r.Err, r.Err != nil
	})
}

// pointsFile is a loaded points file.
type pointsFile struct {
	table   scoring.PointTable
	periods []string
	digest  fingerprint.Fingerprint
}

// runEnv is the state shared by all units of one run.
type runEnv struct {
	log     logger.Logger
	logic   fingerprint.Fingerprint
	names   *source.Names
	refs    fingerprint.Fingerprint
	seasons []string
	points  map[Kind]pointsFile
}

// Run builds the stale artifacts of the given report kinds; disabled kinds
// are ignored. Preconditions are checked before any output or cache record is
// touched and fail with ErrPrecondition. Unit failures do not fail the run;
// they are reported in the Summary.
func (s *Service) Run(ctx context.Context, kinds []Kind) (Summary, error) {
	started := s.clock()
	sum := Summary{RunID: uuid.NewString()}
	log := s.logger.With(logger.String("run_id", sum.RunID))

	kinds = lo.Filter(kinds, func(k Kind, _ int) bool { return s.enabled(k) })
	env, err := s.prepare(ctx, log, kinds)
	if err != nil {
		log.Error(ctx, "run aborted", logger.Error(err))
		return sum, err
	}

	log.Info(ctx, "run started",
		logger.Any("reports", kinds),
		logger.Int("seasons", len(env.seasons)),
	)

	for _, k := range kinds {
		for _, u := range s.units(env, k) {
			if err := ctx.Err(); err != nil {
				log.Warn(ctx, "run cancelled", logger.Int("built", sum.Built))
				return sum, err
			}
			sum.add(s.process(ctx, env, u))
		}
	}

	finished := s.clock()
	took := finished.Sub(started)
	metrics.RecordRun(finished, took)
	if s.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			log.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}

	log.Info(ctx, "run finished",
		logger.Int("built", sum.Built),
		logger.Int("fresh", sum.Fresh),
		logger.Int("failed", sum.Failed),
		logger.Duration("took", took),
	)
	return sum, nil
}

func (s *Service) enabled(k Kind) bool {
	switch k {
	case KindHistory:
		return s.cfg.History.Enabled
	case KindQualifying:
		return s.cfg.Qualifying.Enabled
	case KindSecondDriver:
		return s.cfg.SecondDriver.Enabled
	case KindSecondDriverRaces:
		return s.cfg.SecondDriver.Enabled && s.cfg.SecondDriver.Detail
	default:
		return false
	}
}

func (s *Service) reportConfig(k Kind) config.ReportConfig {
	switch k {
	case KindHistory:
		return s.cfg.History.ReportConfig
	case KindQualifying:
		return s.cfg.Qualifying.ReportConfig
	default:
		return s.cfg.SecondDriver.ReportConfig
	}
}

// prepare checks every precondition of the run and loads what all units share.
func (s *Service) prepare(ctx context.Context, log logger.Logger, kinds []Kind) (*runEnv, error) {
	if err := s.reader.CheckLayout(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}

	env := &runEnv{log: log, points: make(map[Kind]pointsFile, len(kinds))}

	var err error
	if s.cfg.LogicIdentifier != "" {
		env.logic, err = fingerprint.Logic(s.cfg.LogicIdentifier)
	} else {
		env.logic, err = fingerprint.Executable()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}

	loaded := make(map[string]pointsFile)
	for _, k := range kinds {
		path := s.reportConfig(k).PointsFile
		pf, ok := loaded[path]
		if !ok {
			if pf, err = s.loadPoints(ctx, path); err != nil {
				return nil, err
			}
			loaded[path] = pf
		}
		env.points[k] = pf
	}

	if env.seasons, err = s.reader.Seasons(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	if env.names, err = s.reader.LoadNames(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	refs, err := s.reader.ReferenceFiles()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	if env.refs, err = fingerprint.Files(refs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	return env, nil
}

func (s *Service) loadPoints(ctx context.Context, path string) (pointsFile, error) {
	raw, err := config.LoadPoints(ctx, path)
	if err != nil {
		return pointsFile{}, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	table, err := scoring.NewPointTable(raw.PerPosition)
	if err != nil {
		return pointsFile{}, fmt.Errorf("%w: %s: %w", ErrPrecondition, path, err)
	}
	digest, err := fingerprint.Files([]string{path})
	if err != nil {
		return pointsFile{}, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	return pointsFile{table: table, periods: raw.Periods, digest: digest}, nil
}

// process runs one unit through fingerprint, freshness check, build,
// invalidate, write and commit.
func (s *Service) process(ctx context.Context, env *runEnv, u unit) UnitResult {
	res := UnitResult{Kind: u.kind, Unit: u.name, Artifact: u.artifact}
	label := string(u.kind)
	log := env.log.With(logger.String("report", label), logger.String("unit", u.name))

	fail := func(err error) UnitResult {
		res.Outcome = metrics.OutcomeFailed
		res.Err = fmt.Errorf("%w: %s/%s: %w", ErrUnit, u.kind, u.name, err)
		metrics.RecordUnit(label, res.Outcome)
		log.Error(ctx, "unit failed", logger.Error(err))
		return res
	}

	if u.err != nil {
		return fail(u.err)
	}

	inputs := append([]string(nil), u.inputs...)
	sort.Strings(inputs)
	src, err := fingerprint.Files(inputs)
	if err != nil {
		return fail(err)
	}
	current := freshness.Record{
		Source: src.With(env.points[u.kind].digest.String(), env.refs.String()),
		Logic:  env.logic.With(append([]string{s.reportConfig(u.kind).LogicVersion, label, u.name}, u.settings...)...),
	}

	record := s.cache.RecordPath(u.artifact)
	rebuild, reason := s.cache.ShouldRebuild(ctx, u.artifact, record, current)
	res.Reason = reason
	metrics.RecordCacheDecision(label, string(reason))
	if !rebuild {
		res.Outcome = metrics.OutcomeFresh
		metrics.RecordUnit(label, res.Outcome)
		log.Debug(ctx, "unit fresh")
		return res
	}

	started := s.clock()
	emit, err := u.build(ctx, log)
	if err != nil {
		return fail(err)
	}
	if err := s.cache.Invalidate(ctx, record); err != nil {
		return fail(err)
	}
	if err := emit(ctx, u.artifact); err != nil {
		return fail(err)
	}
	if err := s.cache.Commit(ctx, record, current); err != nil {
		return fail(err)
	}

	res.Duration = s.clock().Sub(started)
	res.Outcome = metrics.OutcomeBuilt
	metrics.RecordUnit(label, res.Outcome)
	metrics.RecordUnitBuildDuration(label, res.Duration)
	log.Info(ctx, "unit built",
		logger.String("reason", string(reason)),
		logger.String("artifact", u.artifact),
		logger.Duration("took", res.Duration),
	)
	return res
}
