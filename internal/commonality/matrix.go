// Package commonality computes how often pairs of resources are used by the
// same component.
package commonality

import (
	"slices"
	"sort"

	"github.com/Iron-Ham/cohort/internal/usage"
)

// Matrix is the square, resource-indexed co-usage matrix of a relation.
// Entry (i, j) is the number of components using both resource i and
// resource j. The diagonal is zero and the matrix is symmetric.
type Matrix struct {
	ids   []string
	index map[string]int
	cells [][]int
}

// Score is one resource's position in a ranking.
type Score struct {
	Resource string `json:"resource" yaml:"resource"`
	Index    int    `json:"-" yaml:"-"`
	Total    int    `json:"total" yaml:"total"`
}

// Build computes the commonality matrix of rel. Resources that no component
// uses are kept as all-zero rows.
func Build(rel *usage.Relation) *Matrix {
	n := rel.NumResources()
	m := &Matrix{
		ids:   rel.Resources(),
		index: make(map[string]int, n),
		cells: make([][]int, n),
	}
	for j, id := range m.ids {
		m.index[id] = j
	}
	for j := range m.cells {
		m.cells[j] = make([]int, n)
	}

	for i := 0; i < rel.NumComponents(); i++ {
		set := rel.ResourcesOf(i)
		for a, x := range set {
			for _, y := range set[a+1:] {
				m.cells[x][y]++
				m.cells[y][x]++
			}
		}
	}
	return m
}

// Len returns the number of resources in the matrix.
func (m *Matrix) Len() int { return len(m.ids) }

// ID returns the identifier of resource i.
func (m *Matrix) ID(i int) string { return m.ids[i] }

// Index returns the position of the resource with the given identifier.
func (m *Matrix) Index(id string) (int, bool) {
	i, ok := m.index[id]
	return i, ok
}

// At returns the co-usage count of resources i and j.
func (m *Matrix) At(i, j int) int { return m.cells[i][j] }

// Neighbors returns the resources sharing at least one component with
// resource i, in resource order.
func (m *Matrix) Neighbors(i int) []int {
	var out []int
	for j, v := range m.cells[i] {
		if v > 0 {
			out = append(out, j)
		}
	}
	return out
}

// Total returns the row sum for resource i.
func (m *Matrix) Total(i int) int {
	sum := 0
	for _, v := range m.cells[i] {
		sum += v
	}
	return sum
}

// Rows returns a copy of the matrix cells.
func (m *Matrix) Rows() [][]int {
	out := make([][]int, len(m.cells))
	for i, row := range m.cells {
		out[i] = slices.Clone(row)
	}
	return out
}

// Rank orders resources by descending row total. Ties keep resource order.
func (m *Matrix) Rank() []Score {
	scores := make([]Score, len(m.ids))
	for i, id := range m.ids {
		scores[i] = Score{Resource: id, Index: i, Total: m.Total(i)}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Total > scores[b].Total
	})
	return scores
}

// Sorted returns the matrix with rows and columns permuted into ranking order.
func (m *Matrix) Sorted(ranking []Score) [][]int {
	out := make([][]int, len(ranking))
	for r, row := range ranking {
		out[r] = make([]int, len(ranking))
		for c, col := range ranking {
			out[r][c] = m.cells[row.Index][col.Index]
		}
	}
	return out
}
