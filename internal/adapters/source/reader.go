// Package source reads f1db-style YAML records from a data tree.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// Layout directory and file names.
const (
	seasonsDir      = "seasons"
	racesDir        = "races"
	driversDir      = "drivers"
	constructorsDir = "constructors"
	standingsFile   = "driver-standings.yml"
	recordExt       = ".yml"
)

// Record field names.
const (
	fieldDriver      = "driverId"
	fieldConstructor = "constructorId"
	fieldPosition    = "position"
	fieldPoints      = "points"
)

// Results is the outcome of reading one result file.
type Results struct {
	Records []model.ParticipantResult
	// Skipped holds one ErrMalformedRecord per record left out.
	Skipped []error
}

// Reader reads records below a data root.
type Reader struct {
	root            string
	topSegmentField string
	log             logger.Logger
}

// NewReader creates a Reader rooted at root.
func NewReader(root string, opts ...Option) *Reader {
	r := &Reader{
		root:            root,
		topSegmentField: "q3",
		log:             logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// CheckLayout verifies the data root and its seasons directory exist.
func (r *Reader) CheckLayout() error {
	for _, dir := range []string{r.root, filepath.Join(r.root, seasonsDir)} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLayout, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrLayout, dir)
		}
	}
	return nil
}

// Seasons lists the numeric season directories in ascending order.
func (r *Reader) Seasons() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.root, seasonsDir))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLayout, err)
	}
	var years []string
	for _, e := range entries {
		if e.IsDir() && isDigits(e.Name()) {
			years = append(years, e.Name())
		}
	}
	sort.Strings(years)
	return years, nil
}

// Races lists the race directories of a season in ascending order.
func (r *Reader) Races(year string) ([]string, error) {
	dir := filepath.Join(r.root, seasonsDir, year, racesDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableInput, err)
	}
	var races []string
	for _, e := range entries {
		if e.IsDir() {
			races = append(races, e.Name())
		}
	}
	sort.Strings(races)
	return races, nil
}

// SessionPath returns the results file of one session of a race.
func (r *Reader) SessionPath(year, race string, session model.Session) string {
	return filepath.Join(r.root, seasonsDir, year, racesDir, race, session.FileName())
}

// StandingsPath returns the season's driver standings file.
func (r *Reader) StandingsPath(year string) string {
	return filepath.Join(r.root, seasonsDir, year, standingsFile)
}

// ReadSession reads a race, sprint or qualifying results file. Records need
// a driver id, a constructor id and a position.
func (r *Reader) ReadSession(ctx context.Context, path string) (Results, error) {
	return r.read(ctx, path, true)
}

// ReadStandings reads a season's driver standings file. Records need a
// driver id and a position.
func (r *Reader) ReadStandings(ctx context.Context, path string) (Results, error) {
	return r.read(ctx, path, false)
}

func (r *Reader) read(_ context.Context, path string, needTeam bool) (Results, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Results{}, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if err != nil {
		return Results{}, fmt.Errorf("%w: %s: %w", ErrUnreadableInput, path, err)
	}

	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Results{}, fmt.Errorf("%w: %s: %w", ErrUnreadableInput, path, err)
	}
	if len(raw) == 0 {
		return Results{}, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}

	var out Results
	for i, rec := range raw {
		res, err := r.parse(rec, needTeam)
		if err != nil {
			out.Skipped = append(out.Skipped, fmt.Errorf("%s record %d: %w", path, i+1, err))
			continue
		}
		out.Records = append(out.Records, res)
	}
	return out, nil
}

func (r *Reader) parse(rec map[string]any, needTeam bool) (model.ParticipantResult, error) {
	driver := scalar(rec[fieldDriver])
	if driver == "" {
		return model.ParticipantResult{}, fmt.Errorf("%w: missing %s", ErrMalformedRecord, fieldDriver)
	}
	team := scalar(rec[fieldConstructor])
	if needTeam && team == "" {
		return model.ParticipantResult{}, fmt.Errorf("%w: %s: missing %s", ErrMalformedRecord, driver, fieldConstructor)
	}
	pos, err := model.ParsePosition(rec[fieldPosition])
	if err != nil {
		return model.ParticipantResult{}, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, driver, err)
	}

	res := model.ParticipantResult{
		EntityID:   driver,
		TeamID:     team,
		Position:   pos,
		TopSegment: scalar(rec[r.topSegmentField]) != "",
	}
	if v, ok := rec[fieldPoints]; ok && v != nil {
		pts, err := toDecimal(v)
		if err != nil {
			return model.ParticipantResult{}, fmt.Errorf("%w: %s: points: %w", ErrMalformedRecord, driver, err)
		}
		res.RawPoints = omit.From(pts)
	}
	return res, nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported type %T", v)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
