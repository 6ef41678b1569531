// Package report writes ranked tables as CSV files.
package report

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/renameio/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/okian/podium/internal/domain/standings"
	"github.com/okian/podium/pkg/logger"
)

// Fixed header cells.
const (
	headerRank   = "Rank"
	headerPoints = "Points"
)

// HeaderMainSecondDriver heads the column naming a team's usual second driver.
const HeaderMainSecondDriver = "MainSecondDriver"

// Entity labels for the first header cell.
const (
	LabelDriver = "Driver"
	LabelTeam   = "Team"
)

// DetailHeader is the header of the per-race second driver report.
var DetailHeader = []string{
	"Event", "Team", "Rank", "Points",
	"SecondDriver", "SecondDriverPosition", "FirstDriver", "FirstDriverPosition",
}

// DetailRow is one team's line for one race in the second driver detail report.
type DetailRow struct {
	Event          string
	Team           string
	Rank           int
	Points         decimal.Decimal
	SecondDriver   string // empty for sole-driver teams
	SecondPosition string
	FirstDriver    string
	FirstPosition  string
}

// NameFunc maps an entity id to its display name.
type NameFunc func(id string) string

// Column is a per-entity value rendered between Points and the event columns.
type Column struct {
	Header string
	Value  func(id string) string
}

// Writer writes report files, replacing each one atomically.
type Writer struct {
	mode fs.FileMode
	log  logger.Logger
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		mode: 0o644,
		log:  logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// TableRecords renders a ranked table: header [label, Rank, Points, ...extra,
// ...columns] then one row per entity. Absent cells are empty; present zeros
// render "0".
func TableRecords(label string, tbl standings.Table, name NameFunc, extra ...Column) [][]string {
	if name == nil {
		name = func(id string) string { return id }
	}
	header := []string{label, headerRank, headerPoints}
	header = append(header, lo.Map(extra, func(c Column, _ int) string { return c.Header })...)
	header = append(header, tbl.Columns...)
	out := make([][]string, 0, len(tbl.Rows)+1)
	out = append(out, header)
	for _, r := range tbl.Rows {
		row := make([]string, 0, len(header))
		row = append(row, name(r.EntityID), strconv.Itoa(r.Rank), r.Total.String())
		for _, c := range extra {
			row = append(row, c.Value(r.EntityID))
		}
		for _, col := range tbl.Columns {
			if v, ok := r.Cell(col); ok {
				row = append(row, v.String())
				continue
			}
			row = append(row, "")
		}
		out = append(out, row)
	}
	return out
}

// DetailRecords renders the per-race second driver report.
func DetailRecords(rows []DetailRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, DetailHeader)
	for _, r := range rows {
		out = append(out, []string{
			r.Event, r.Team, strconv.Itoa(r.Rank), r.Points.String(),
			r.SecondDriver, r.SecondPosition, r.FirstDriver, r.FirstPosition,
		})
	}
	return out
}

// WriteTable writes a ranked table to path.
func (w *Writer) WriteTable(ctx context.Context, path, label string, tbl standings.Table, name NameFunc, extra ...Column) error {
	return w.write(ctx, path, TableRecords(label, tbl, name, extra...))
}

// WriteDetail writes the per-race second driver report to path.
func (w *Writer) WriteDetail(ctx context.Context, path string, rows []DetailRow) error {
	return w.write(ctx, path, DetailRecords(rows))
}

// write encodes records into a pending file next to path and renames it
// over path.
func (w *Writer) write(ctx context.Context, path string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	pf, err := renameio.NewPendingFile(path, renameio.WithTempDir(dir), renameio.WithPermissions(w.mode))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() { _ = pf.Cleanup() }()

	bw := bufio.NewWriter(pf)
	if err := csv.NewWriter(bw).WriteAll(records); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	w.log.Debug(ctx, "report written", logger.String("path", path), logger.Int("rows", len(records)-1))
	return nil
}
