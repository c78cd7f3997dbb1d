// Package grouping partitions the components of a usage relation into groups
// of the resources they depend on.
//
// The Grouper performs a greedy set cover: the component with the most
// resources seeds a group containing everything it uses that is not yet
// covered, and every component whose resources are then fully covered joins
// that group. The Merger optionally folds single-resource groups into the
// larger group their components overlap most.
package grouping

import (
	"slices"
	"sort"

	"github.com/Iron-Ham/cohort/internal/usage"
)

// Config controls group formation.
type Config struct {
	// ChunkSize bounds the number of resources in one group. A seed whose
	// uncovered resources exceed the bound opens several consecutive groups.
	// Zero or negative means unbounded.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`
}

// Group is a set of resources together with the components that depend only
// on resources covered so far.
type Group struct {
	Resources  []string `json:"resources" yaml:"resources"`
	Components []string `json:"components" yaml:"components"`
	// Seed is the component whose usage opened the group.
	Seed string `json:"seed" yaml:"seed"`
}

// Size returns the number of resources in the group.
func (g Group) Size() int { return len(g.Resources) }

// Grouper runs greedy covering over a relation.
type Grouper struct {
	rel *usage.Relation
	cfg Config

	formation []Group
	ran       bool
}

// NewGrouper creates a grouper for rel.
func NewGrouper(rel *usage.Relation, cfg Config) *Grouper {
	return &Grouper{rel: rel, cfg: cfg}
}

// Group returns the groups sorted by descending resource count. Groups of
// equal size keep the order they were formed in.
func (g *Grouper) Group() []Group {
	groups := slices.Clone(g.Formation())
	sort.SliceStable(groups, func(a, b int) bool {
		return len(groups[a].Resources) > len(groups[b].Resources)
	})
	return groups
}

// Formation returns the groups in the order they were formed. Each group's
// components use only resources of that group and of groups formed before it.
func (g *Grouper) Formation() []Group {
	if !g.ran {
		g.formation = g.run()
		g.ran = true
	}
	return g.formation
}

func (g *Grouper) run() []Group {
	rel := g.rel

	// Components with no usage never enter the working set.
	priority := make([]int, 0, rel.NumComponents())
	for i := 0; i < rel.NumComponents(); i++ {
		if len(rel.ResourcesOf(i)) > 0 {
			priority = append(priority, i)
		}
	}
	sort.SliceStable(priority, func(a, b int) bool {
		return len(rel.ResourcesOf(priority[a])) > len(rel.ResourcesOf(priority[b]))
	})

	live := make([]bool, len(priority))
	for k := range live {
		live[k] = true
	}
	covered := make([]bool, rel.NumResources())
	remaining := len(priority)

	var groups []Group
	cursor := 0
	for remaining > 0 {
		// Entries behind the cursor are retired or fully covered, and covered
		// only grows, so the scan never has to restart from the front.
		for cursor < len(priority) && (!live[cursor] || !hasUncovered(rel.ResourcesOf(priority[cursor]), covered)) {
			cursor++
		}
		if cursor == len(priority) {
			break
		}
		seed := priority[cursor]

		var pending []int
		for _, j := range rel.ResourcesOf(seed) {
			if !covered[j] {
				pending = append(pending, j)
			}
		}

		for _, chunk := range chunks(pending, g.cfg.ChunkSize) {
			inChunk := make(map[int]struct{}, len(chunk))
			for _, j := range chunk {
				inChunk[j] = struct{}{}
			}

			group := Group{
				Resources:  make([]string, len(chunk)),
				Components: []string{},
				Seed:       rel.ComponentID(seed),
			}
			for k, j := range chunk {
				group.Resources[k] = rel.ResourceID(j)
			}

			for k, i := range priority {
				if !live[k] || !coveredBy(rel.ResourcesOf(i), covered, inChunk) {
					continue
				}
				group.Components = append(group.Components, rel.ComponentID(i))
				live[k] = false
				remaining--
			}

			for _, j := range chunk {
				covered[j] = true
			}
			groups = append(groups, group)
		}
	}
	return groups
}

func hasUncovered(set []int, covered []bool) bool {
	for _, j := range set {
		if !covered[j] {
			return true
		}
	}
	return false
}

func coveredBy(set []int, covered []bool, chunk map[int]struct{}) bool {
	for _, j := range set {
		if covered[j] {
			continue
		}
		if _, ok := chunk[j]; !ok {
			return false
		}
	}
	return true
}

// chunks splits set into consecutive runs of at most size elements.
func chunks(set []int, size int) [][]int {
	if size <= 0 || len(set) <= size {
		return [][]int{set}
	}
	var out [][]int
	for len(set) > size {
		out = append(out, set[:size])
		set = set[size:]
	}
	return append(out, set)
}
