package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Iron-Ham/cohort/internal/errors"
	"github.com/Iron-Ham/cohort/internal/testutil"
	"github.com/Iron-Ham/cohort/internal/usage"
)

func inventoryOptions(path string) Options {
	opts := DefaultOptions(path)
	opts.FirstResourceColumn = 2
	return opts
}

func TestRead_CSV(t *testing.T) {
	path := testutil.WriteFile(t, "inventory.csv", testutil.InventoryCSV)

	table, err := Read(inventoryOptions(path))
	require.NoError(t, err)

	assert.Equal(t, "Component Name", table.ComponentColumn)
	assert.Equal(t, []string{"F1", "F2", "F3", "F9"}, table.Resources)
	assert.Equal(t, []usage.Row{
		{Component: "A", Resources: []string{"F1", "F2"}},
		{Component: "B", Resources: []string{"F1", "F2"}},
		{Component: "C", Resources: []string{"F3"}},
		{Component: "D"},
	}, table.Rows)
	assert.Equal(t, 2, table.Dropped, "blank and total rows are dropped")

	rel, err := table.Relation()
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, rel.NoUsage())
	assert.Equal(t, []string{"F9"}, rel.Unused())
}

func TestRead_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.xlsx")
	writeWorkbook(t, path, map[string][][]any{
		"Online PGM": {
			{"Component Name", "F1", "F2", "F3"},
			{"PGM1", 1, 1, 0},
			{"PGM2", 0, nil, 2},
			{"Total", 1, 1, 1},
		},
		"Batch PGM": {
			{"Component Name", "B1"},
			{"JOB1", 1},
		},
	}, []string{"Online PGM", "Batch PGM"})

	t.Run("first sheet by default", func(t *testing.T) {
		table, err := Read(DefaultOptions(path))
		require.NoError(t, err)

		assert.Equal(t, []string{"F1", "F2", "F3"}, table.Resources)
		assert.Equal(t, []usage.Row{
			{Component: "PGM1", Resources: []string{"F1", "F2"}},
			{Component: "PGM2", Resources: []string{"F3"}},
		}, table.Rows)
	})

	t.Run("named sheet", func(t *testing.T) {
		opts := DefaultOptions(path)
		opts.Sheet = "Batch PGM"

		table, err := Read(opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"B1"}, table.Resources)
		assert.Equal(t, []usage.Row{{Component: "JOB1", Resources: []string{"B1"}}}, table.Rows)
	})

	t.Run("missing sheet", func(t *testing.T) {
		opts := DefaultOptions(path)
		opts.Sheet = "CNTL Card"

		_, err := Read(opts)
		require.Error(t, err)
		var nf *errors.NotFoundError
		assert.True(t, errors.As(err, &nf), "got %T", err)
		assert.ErrorIs(t, err, errors.ErrUnreadableInput)
	})
}

func TestRead_Errors(t *testing.T) {
	csvPath := testutil.WriteFile(t, "inventory.csv", testutil.InventoryCSV)

	tests := []struct {
		name   string
		opts   Options
		target error
	}{
		{
			name:   "missing file",
			opts:   DefaultOptions(filepath.Join(t.TempDir(), "absent.csv")),
			target: errors.ErrUnreadableInput,
		},
		{
			name:   "unknown extension",
			opts:   DefaultOptions("inventory.ods"),
			target: errors.ErrUnreadableInput,
		},
		{
			name:   "not a workbook",
			opts:   func() Options { o := DefaultOptions(csvPath); o.Format = FormatXLSX; return o }(),
			target: errors.ErrUnreadableInput,
		},
		{
			name:   "empty path",
			opts:   DefaultOptions(""),
			target: errors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParse(t *testing.T) {
	records := [][]string{
		{" Seq ", "Component Name", "F1", "F2 ", "F3"},
		{"1", " PGM1 ", "1", "0", "x"},
		{"2", "PGM2", "0.9", "3", "-1"},
		{"3", "PGM3", "1.5"},
		{"4", "subtotal", "1", "1", "1"},
		{"5", ""},
	}
	opts := DefaultOptions("unused")
	opts.FirstResourceColumn = 1

	table, err := Parse(records, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"F1", "F2", "F3"}, table.Resources, "header labels are trimmed")
	assert.Equal(t, []usage.Row{
		{Component: "PGM1", Resources: []string{"F1"}},
		{Component: "PGM2", Resources: []string{"F2"}},
		{Component: "PGM3", Resources: []string{"F1"}},
	}, table.Rows)
	assert.Equal(t, 2, table.Dropped)
}

func TestParse_LargeCounts(t *testing.T) {
	records := [][]string{
		{"Component Name", "F1", "F2", "F3", "F4"},
		{"A", "1e20", "1", "9223372036854775808", "Inf"},
	}

	table, err := Parse(records, DefaultOptions("unused"))
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"F1", "F2", "F3"}, table.Rows[0].Resources, "counts past the int64 range still register")
}

func TestParse_ColumnRange(t *testing.T) {
	records := [][]string{
		{"Component Name", "Type", "F1", "F2", "F3"},
		{"A", "PGM", "1", "1", "1"},
	}

	tests := []struct {
		name        string
		first, last int
		want        []string
		wantErr     bool
	}{
		{name: "open ended", first: 1, last: -1, want: []string{"F1", "F2", "F3"}},
		{name: "inclusive bounds", first: 1, last: 2, want: []string{"F1", "F2"}},
		{name: "single column", first: 3, last: 3, want: []string{"F3"}},
		{name: "first past the end", first: 4, last: -1, wantErr: true},
		{name: "last past the end", first: 1, last: 4, wantErr: true},
		{name: "last before first", first: 2, last: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions("unused")
			opts.FirstResourceColumn = tt.first
			opts.LastResourceColumn = tt.last

			table, err := Parse(records, opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrColumnRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.Resources)
		})
	}
}

func TestParse_ComponentColumn(t *testing.T) {
	t.Run("first header with every term", func(t *testing.T) {
		records := [][]string{
			{"Name", "Component", "Component Name", "Component Name (old)", "F1"},
			{"x", "y", "A", "B", "1"},
		}
		opts := DefaultOptions("unused")
		opts.FirstResourceColumn = 3

		table, err := Parse(records, opts)
		require.NoError(t, err)
		assert.Equal(t, "Component Name", table.ComponentColumn)
		assert.Equal(t, "A", table.Rows[0].Component)
	})

	t.Run("no matching header", func(t *testing.T) {
		_, err := Parse([][]string{{"Program", "F1"}}, DefaultOptions("unused"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrMissingColumn)
	})

	t.Run("no header row", func(t *testing.T) {
		_, err := Parse(nil, DefaultOptions("unused"))
		assert.ErrorIs(t, err, errors.ErrMissingColumn)
	})
}

func TestParse_EmptyMarkerKeepsTotals(t *testing.T) {
	records := [][]string{
		{"Component Name", "F1"},
		{"Grand Total", "1"},
	}
	opts := DefaultOptions("unused")
	opts.TotalMarker = ""

	table, err := Parse(records, opts)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

func TestReadCSV(t *testing.T) {
	data := "\ufeffComponent Name,F1,F1\nA,1,1\n"

	table, err := ReadCSV(strings.NewReader(data), DefaultOptions("stdin.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Component Name", table.ComponentColumn, "byte order mark is stripped")

	_, err = table.Relation()
	assert.ErrorIs(t, err, errors.ErrDuplicateResource)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr bool
	}{
		{"defaults", func(*Options) {}, false},
		{"missing path", func(o *Options) { o.Path = "" }, true},
		{"no component terms", func(o *Options) { o.ComponentColumn = nil }, true},
		{"blank component term", func(o *Options) { o.ComponentColumn = []string{""} }, true},
		{"negative first column", func(o *Options) { o.FirstResourceColumn = -1 }, true},
		{"unknown format", func(o *Options) { o.Format = "ods" }, true},
		{"explicit format", func(o *Options) { o.Format = FormatXLSX }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions("inventory.csv")
			tt.modify(&opts)

			err := opts.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.NotEmpty(t, verr.Field)
		})
	}
}

func writeWorkbook(t *testing.T, path string, sheets map[string][][]any, order []string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cellRef, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cellRef, &values), fmt.Sprintf("row %d", r))
		}
	}
	require.NoError(t, f.SaveAs(path))
}
