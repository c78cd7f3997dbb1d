// Package testutil provides testing utilities for cohort tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/cohort/internal/usage"
)

// Relation builds a usage relation from compact row specs of the form
// "COMPONENT:RES1,RES2". A spec with nothing after the colon is a component
// with no usage. The test fails immediately if the relation is rejected.
//
//	rel := testutil.Relation(t, []string{"F1", "F2", "F3"},
//		"A:F1,F2",
//		"B:F1,F2",
//		"C:F3",
//	)
func Relation(t *testing.T, resources []string, specs ...string) *usage.Relation {
	t.Helper()

	rel, err := usage.New(resources, Rows(t, specs...))
	if err != nil {
		t.Fatalf("failed to build relation: %v", err)
	}
	return rel
}

// Rows parses row specs (see Relation) without validating them against a
// resource list.
func Rows(t *testing.T, specs ...string) []usage.Row {
	t.Helper()

	rows := make([]usage.Row, 0, len(specs))
	for _, spec := range specs {
		component, list, ok := strings.Cut(spec, ":")
		if !ok {
			t.Fatalf("row spec %q is missing ':'", spec)
		}
		row := usage.Row{Component: component}
		if list != "" {
			row.Resources = strings.Split(list, ",")
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path. The directory is removed when the test completes.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", name, err)
	}
	return path
}

// InventoryCSV is a small usage table in the shape the ingest layer expects:
// an index column, a component name column, resource columns, a totals row
// and a blank-name row.
const InventoryCSV = `#, Component Name ,Type,F1,F2,F3,F9
1,A,PGM,1,1,0,0
2,B,PGM,1,1,0,
3,C,PGM,0,0,1,0
4,D,PGM,0,0,0,0
5,,PGM,1,1,1,1
6,Grand Total,,2,2,1,0
`
