// Package ingest reads component × resource usage tables from CSV and XLSX
// exports and turns them into a usage relation.
//
// A table has a header row. One column holds component identifiers; a
// contiguous range of the remaining columns holds one resource each. A cell
// counts as "uses" when it holds a number of at least one; anything else,
// including text and blanks, counts as zero.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Iron-Ham/cohort/internal/errors"
	"github.com/Iron-Ham/cohort/internal/usage"
)

// Table is a cleaned usage table.
type Table struct {
	// ComponentColumn is the header of the identifier column.
	ComponentColumn string
	Resources       []string
	Rows            []usage.Row
	// Dropped counts rows discarded for a blank identifier or the total marker.
	Dropped int
}

// Relation validates the table and builds the usage relation.
func (t *Table) Relation() (*usage.Relation, error) {
	return usage.New(t.Resources, t.Rows)
}

// Read loads the table at opts.Path.
func Read(opts Options) (*Table, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	format, err := opts.format()
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatCSV:
		records, err = readCSVFile(opts.Path)
	case FormatXLSX:
		records, err = readXLSX(opts.Path, opts.Sheet)
	}
	if err != nil {
		return nil, err
	}
	return Parse(records, opts)
}

// ReadCSV parses CSV data from r.
func ReadCSV(r io.Reader, opts Options) (*Table, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return Parse(records, opts)
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("failed to open %s", path), errors.Join(errors.ErrUnreadableInput, err))
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.NewInputError("failed to parse CSV", errors.Join(errors.ErrUnreadableInput, err))
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("failed to open %s", path), errors.Join(errors.ErrUnreadableInput, err))
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewInputError("workbook has no sheets", errors.ErrUnreadableInput)
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.NewNotFoundError("sheet", sheet).WithCause(errors.ErrUnreadableInput)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("failed to read sheet %s", sheet), errors.Join(errors.ErrUnreadableInput, err))
	}
	return rows, nil
}

// Parse cleans raw records, header first, into a Table. Records may be ragged;
// missing cells read as blank.
func Parse(records [][]string, opts Options) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.NewInputError("table has no header row", errors.ErrMissingColumn)
	}

	header := make([]string, len(records[0]))
	for i, label := range records[0] {
		header[i] = strings.TrimSpace(label)
	}

	idCol := findColumn(header, opts.ComponentColumn)
	if idCol < 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("no header contains all of %q", opts.ComponentColumn), errors.ErrMissingColumn)
	}

	var others []int
	for i := range header {
		if i != idCol {
			others = append(others, i)
		}
	}
	first, last := opts.FirstResourceColumn, opts.LastResourceColumn
	if last < 0 {
		last = len(others) - 1
	}
	if first >= len(others) || last >= len(others) || first > last {
		return nil, errors.NewInputError(
			fmt.Sprintf("resource columns [%d, %d] not within the %d non-component columns", opts.FirstResourceColumn, opts.LastResourceColumn, len(others)),
			errors.ErrColumnRange)
	}
	resourceCols := others[first : last+1]

	t := &Table{
		ComponentColumn: header[idCol],
		Resources:       make([]string, len(resourceCols)),
	}
	for k, col := range resourceCols {
		t.Resources[k] = header[col]
	}

	marker := strings.ToLower(opts.TotalMarker)
	for _, record := range records[1:] {
		id := strings.TrimSpace(cell(record, idCol))
		if id == "" || (marker != "" && strings.Contains(strings.ToLower(id), marker)) {
			t.Dropped++
			continue
		}

		row := usage.Row{Component: id}
		for k, col := range resourceCols {
			if uses(cell(record, col)) {
				row.Resources = append(row.Resources, t.Resources[k])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// findColumn returns the first header containing every term, or -1.
func findColumn(header, terms []string) int {
	for i, label := range header {
		match := true
		for _, term := range terms {
			if !strings.Contains(label, term) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func cell(record []string, col int) string {
	if col < len(record) {
		return record[col]
	}
	return ""
}

// uses reports whether a cell holds a whole count of at least one. The
// comparison stays in float64 so counts beyond the int64 range still register.
func uses(raw string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= 1
}
