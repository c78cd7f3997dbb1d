package cluster

import (
	"github.com/Iron-Ham/cohort/internal/commonality"
)

// DisjointGroup is a connected set of resources sharing no co-usage edge with
// the largest cluster.
type DisjointGroup struct {
	Resources []string `json:"resources" yaml:"resources"`
}

// FindDisjoint returns the connected components, of more than one resource,
// of the commonality graph restricted to resources outside largest. Two
// resources are adjacent when some component uses both. Components are seeded
// in resource order and list their members in resource order.
func FindDisjoint(matrix *commonality.Matrix, largest []string) []DisjointGroup {
	n := matrix.Len()
	excluded := make([]bool, n)
	for _, id := range largest {
		if j, ok := matrix.Index(id); ok {
			excluded[j] = true
		}
	}

	visited := make([]bool, n)
	var out []DisjointGroup
	for start := 0; start < n; start++ {
		if excluded[start] || visited[start] {
			continue
		}

		inComponent := make([]bool, n)
		visited[start] = true
		inComponent[start] = true
		size := 1
		queue := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range matrix.Neighbors(cur) {
				if excluded[next] || visited[next] {
					continue
				}
				visited[next] = true
				inComponent[next] = true
				size++
				queue = append(queue, next)
			}
		}

		if size < 2 {
			continue
		}
		group := DisjointGroup{Resources: make([]string, 0, size)}
		for j, in := range inComponent {
			if in {
				group.Resources = append(group.Resources, matrix.ID(j))
			}
		}
		out = append(out, group)
	}
	return out
}
