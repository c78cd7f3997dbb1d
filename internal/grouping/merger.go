package grouping

import (
	"slices"
	"sort"

	"github.com/Iron-Ham/cohort/internal/usage"
)

// Merger folds single-resource groups into larger groups.
type Merger struct {
	rel *usage.Relation
}

// NewMerger creates a merger that scores overlap using rel.
func NewMerger(rel *usage.Relation) *Merger {
	return &Merger{rel: rel}
}

type target struct {
	group     Group
	resources map[int]struct{}
}

// Merge returns groups with every single-resource group folded into the
// multi-resource group its components overlap most. The overlap with a target
// is the sum, over the singleton's components, of how many of each
// component's resources the target already holds; targets grow as singletons
// fold in. A tie goes to the target that appears first in groups. A singleton
// without any positive overlap is kept as it is and never becomes a target
// itself.
//
// groups is not modified. The result is sorted by descending resource count.
func (m *Merger) Merge(groups []Group) []Group {
	var targets []*target
	for _, g := range groups {
		if len(g.Resources) <= 1 {
			continue
		}
		t := &target{
			group: Group{
				Resources:  slices.Clone(g.Resources),
				Components: slices.Clone(g.Components),
				Seed:       g.Seed,
			},
			resources: make(map[int]struct{}, len(g.Resources)),
		}
		for _, id := range g.Resources {
			if j, ok := m.rel.ResourceIndex(id); ok {
				t.resources[j] = struct{}{}
			}
		}
		targets = append(targets, t)
	}

	var leftovers []Group
	for _, g := range groups {
		if len(g.Resources) != 1 {
			continue
		}

		best, bestOverlap := -1, 0
		for k, t := range targets {
			if overlap := m.overlap(g.Components, t.resources); overlap > bestOverlap {
				best, bestOverlap = k, overlap
			}
		}
		if best < 0 {
			leftovers = append(leftovers, g)
			continue
		}

		t := targets[best]
		t.group.Resources = append(t.group.Resources, g.Resources[0])
		t.group.Components = append(t.group.Components, g.Components...)
		if j, ok := m.rel.ResourceIndex(g.Resources[0]); ok {
			t.resources[j] = struct{}{}
		}
	}

	out := make([]Group, 0, len(targets)+len(leftovers))
	for _, t := range targets {
		t.group.Resources = m.resourceOrder(t.group.Resources)
		t.group.Components = dedupe(t.group.Components)
		out = append(out, t.group)
	}
	out = append(out, leftovers...)

	sort.SliceStable(out, func(a, b int) bool {
		return len(out[a].Resources) > len(out[b].Resources)
	})
	return out
}

func (m *Merger) overlap(components []string, resources map[int]struct{}) int {
	total := 0
	for _, id := range components {
		i, ok := m.rel.ComponentIndex(id)
		if !ok {
			continue
		}
		for _, j := range m.rel.ResourcesOf(i) {
			if _, hit := resources[j]; hit {
				total++
			}
		}
	}
	return total
}

// resourceOrder sorts resource identifiers into relation order.
func (m *Merger) resourceOrder(ids []string) []string {
	sort.SliceStable(ids, func(a, b int) bool {
		ja, _ := m.rel.ResourceIndex(ids[a])
		jb, _ := m.rel.ResourceIndex(ids[b])
		return ja < jb
	})
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
