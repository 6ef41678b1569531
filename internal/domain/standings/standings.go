// Package standings folds per-column scores into a ranked table.
package standings

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Score is one entity's points in one column.
type Score struct {
	EntityID string
	Column   string
	Points   decimal.Decimal
}

// ScoredEntity accumulates one entity's cells during a build.
type ScoredEntity struct {
	EntityID string
	Cells    map[string]decimal.Decimal
	order    int
}

// Total sums the entity's cells.
func (e *ScoredEntity) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range e.Cells {
		total = total.Add(v)
	}
	return total
}

// RankedRow is one line of the final table.
type RankedRow struct {
	EntityID string
	Rank     int
	Total    decimal.Decimal
	Cells    map[string]decimal.Decimal
}

// Cell returns the entity's value in column and whether it has one.
func (r RankedRow) Cell(column string) (decimal.Decimal, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

// Table is a ranked table with its column header.
type Table struct {
	Columns []string
	Rows    []RankedRow
}

// Builder owns the entity registry of one table build. It is not safe for
// concurrent use.
type Builder struct {
	tieBreak    TieBreak
	columnOrder ColumnOrder

	index    map[string]int
	entities []*ScoredEntity
	columns  []string
	declared map[string]struct{}
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		tieBreak:    TieBreakInsertion,
		columnOrder: ColumnAppearance,
		index:       make(map[string]int),
		declared:    make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Builder) entity(id string) *ScoredEntity {
	if i, ok := b.index[id]; ok {
		return b.entities[i]
	}
	e := &ScoredEntity{EntityID: id, Cells: make(map[string]decimal.Decimal), order: len(b.entities)}
	b.index[id] = len(b.entities)
	b.entities = append(b.entities, e)
	return e
}

// DeclareColumn adds column to the header even if no entity scores in it.
func (b *Builder) DeclareColumn(column string) {
	if _, ok := b.declared[column]; ok {
		return
	}
	b.declared[column] = struct{}{}
	b.columns = append(b.columns, column)
}

// Record sets entity's value in column, replacing any earlier value.
func (b *Builder) Record(entity, column string, points decimal.Decimal) {
	b.DeclareColumn(column)
	b.entity(entity).Cells[column] = points
}

// ClearColumn drops every cell of column. The column keeps its header slot.
func (b *Builder) ClearColumn(column string) {
	for _, e := range b.entities {
		delete(e.Cells, column)
	}
}

// Build ranks the entities by total descending. Entities left without any
// cell are dropped. Ranks are strictly sequential; ties follow the
// configured tie-break.
func (b *Builder) Build() Table {
	type row struct {
		e     *ScoredEntity
		total decimal.Decimal
	}
	rows := make([]row, 0, len(b.entities))
	for _, e := range b.entities {
		if len(e.Cells) == 0 {
			continue
		}
		rows = append(rows, row{e: e, total: e.Total()})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].total.Cmp(rows[j].total); c != 0 {
			return c > 0
		}
		if b.tieBreak == TieBreakEntity {
			return rows[i].e.EntityID < rows[j].e.EntityID
		}
		return rows[i].e.order < rows[j].e.order
	})

	out := Table{Columns: b.header(), Rows: make([]RankedRow, 0, len(rows))}
	for i, r := range rows {
		cells := make(map[string]decimal.Decimal, len(r.e.Cells))
		for k, v := range r.e.Cells {
			cells[k] = v
		}
		out.Rows = append(out.Rows, RankedRow{
			EntityID: r.e.EntityID,
			Rank:     i + 1,
			Total:    r.total,
			Cells:    cells,
		})
	}
	return out
}

func (b *Builder) header() []string {
	cols := make([]string, len(b.columns))
	copy(cols, b.columns)
	if b.columnOrder == ColumnLexical {
		sort.Strings(cols)
	}
	return cols
}

// Build folds scores into a ranked table. A later score for the same
// (entity, column) replaces the earlier one.
func Build(scores []Score, opts ...Option) Table {
	b := NewBuilder(opts...)
	for _, s := range scores {
		b.Record(s.EntityID, s.Column, s.Points)
	}
	return b.Build()
}
