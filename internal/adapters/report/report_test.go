package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/podium/internal/domain/standings"
)

func sampleTable() standings.Table {
	b := standings.NewBuilder()
	b.DeclareColumn("2020")
	b.DeclareColumn("2021")
	b.Record("hamilton", "2020", decimal.NewFromInt(25))
	b.Record("hamilton", "2021", decimal.RequireFromString("12.50"))
	b.Record("latifi", "2021", decimal.Zero)
	return b.Build()
}

func TestTableRecords(t *testing.T) {
	names := map[string]string{"hamilton": "Lewis Hamilton"}
	recs := TableRecords(LabelDriver, sampleTable(), func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	})

	assert.Equal(t, [][]string{
		{"Driver", "Rank", "Points", "2020", "2021"},
		{"Lewis Hamilton", "1", "37.5", "25", "12.5"},
		{"latifi", "2", "0", "", "0"},
	}, recs)
}

func TestTableRecordsWithExtraColumn(t *testing.T) {
	seconds := map[string]string{"hamilton": "Valtteri Bottas"}
	recs := TableRecords(LabelTeam, sampleTable(), nil, Column{
		Header: HeaderMainSecondDriver,
		Value:  func(id string) string { return seconds[id] },
	})

	assert.Equal(t, [][]string{
		{"Team", "Rank", "Points", "MainSecondDriver", "2020", "2021"},
		{"hamilton", "1", "37.5", "Valtteri Bottas", "25", "12.5"},
		{"latifi", "2", "0", "", "", "0"},
	}, recs)
}

func TestTableRecordsWithoutNames(t *testing.T) {
	recs := TableRecords(LabelTeam, sampleTable(), nil)
	assert.Equal(t, "Team", recs[0][0])
	assert.Equal(t, "hamilton", recs[1][0])
}

func TestWriteTable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "2021", "qualifying.csv")
	w := NewWriter()

	require.NoError(t, w.WriteTable(ctx, path, LabelDriver, sampleTable(), nil))
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Driver,Rank,Points,2020,2021\nhamilton,1,37.5,25,12.5\nlatifi,2,0,,0\n", string(first))

	require.NoError(t, w.WriteTable(ctx, path, LabelDriver, sampleTable(), nil))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "temp file left behind: %s", e.Name())
	}
}

func TestWriteDetail(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "second-driver-races", "2021.csv")

	rows := []DetailRow{
		{Event: "BAHR", Team: "Mercedes", Rank: 1, Points: decimal.NewFromInt(25),
			SecondDriver: "Valtteri Bottas", SecondPosition: "3", FirstDriver: "Lewis Hamilton", FirstPosition: "1"},
		{Event: "BAHR", Team: "Williams", Rank: 2, Points: decimal.NewFromInt(18),
			FirstDriver: "George Russell", FirstPosition: "14"},
	}
	require.NoError(t, NewWriter(WithFileMode(0o600)).WriteDetail(ctx, path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Event,Team,Rank,Points,SecondDriver,SecondDriverPosition,FirstDriver,FirstDriverPosition\n"+
			"BAHR,Mercedes,1,25,Valtteri Bottas,3,Lewis Hamilton,1\n"+
			"BAHR,Williams,2,18,,,George Russell,14\n",
		string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewWriter().WriteTable(context.Background(), filepath.Join(blocker, "out.csv"), LabelDriver, standings.Table{}, nil)
	assert.ErrorIs(t, err, ErrWrite)
}
