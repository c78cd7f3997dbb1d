package analysis

import (
	"fmt"

	"github.com/Iron-Ham/cohort/internal/cluster"
	"github.com/Iron-Ham/cohort/internal/errors"
	"github.com/Iron-Ham/cohort/internal/grouping"
	"github.com/Iron-Ham/cohort/internal/usage"
)

// Pipeline names used in reconciliation errors and log entries.
const (
	PipelineGroups   = "groups"
	PipelineClusters = "clusters"
)

// GroupTotals is the bookkeeping of a grouping run.
type GroupTotals struct {
	Components       int `json:"components" yaml:"components"`
	ComponentsPlaced int `json:"components_in_groups" yaml:"components_in_groups"`
	NoUsage          int `json:"components_with_no_usage" yaml:"components_with_no_usage"`
	Resources        int `json:"resources" yaml:"resources"`
	ResourcesPlaced  int `json:"resources_in_groups" yaml:"resources_in_groups"`
	Unused           int `json:"unused_resources" yaml:"unused_resources"`
}

// ClusterTotals is the bookkeeping of a cluster run.
type ClusterTotals struct {
	Clusters          int `json:"clusters" yaml:"clusters"`
	ComponentsClaimed int `json:"components_in_clusters" yaml:"components_in_clusters"`
	ResourcesCovered  int `json:"resources_in_clusters" yaml:"resources_in_clusters"`
	LargestCluster    int `json:"largest_cluster" yaml:"largest_cluster"`
	DisjointGroups    int `json:"disjoint_groups" yaml:"disjoint_groups"`
}

// ReconcileGroups checks that every component is in exactly one group or has
// no usage, and every resource is in exactly one group or is unused.
func ReconcileGroups(rel *usage.Relation, groups []grouping.Group) (GroupTotals, error) {
	totals := GroupTotals{
		Components: rel.NumComponents(),
		NoUsage:    len(rel.NoUsage()),
		Resources:  rel.NumResources(),
		Unused:     len(rel.Unused()),
	}

	placed := make(map[string]struct{}, rel.NumComponents())
	for _, g := range groups {
		for _, id := range g.Components {
			i, ok := rel.ComponentIndex(id)
			if !ok {
				return totals, componentsMismatch(PipelineGroups, totals, len(placed), fmt.Sprintf("unknown component %s in a group", id))
			}
			if _, dup := placed[id]; dup {
				return totals, componentsMismatch(PipelineGroups, totals, len(placed), fmt.Sprintf("component %s placed in more than one group", id))
			}
			if len(rel.ResourcesOf(i)) == 0 {
				return totals, componentsMismatch(PipelineGroups, totals, len(placed), fmt.Sprintf("component %s has no usage but was placed in a group", id))
			}
			placed[id] = struct{}{}
		}
	}
	totals.ComponentsPlaced = len(placed)
	if totals.ComponentsPlaced+totals.NoUsage != totals.Components {
		return totals, errors.NewReconciliationError(PipelineGroups, "components",
			totals.Components, totals.ComponentsPlaced+totals.NoUsage)
	}

	covered := make(map[string]struct{}, rel.NumResources())
	for _, g := range groups {
		for _, id := range g.Resources {
			j, ok := rel.ResourceIndex(id)
			if !ok {
				return totals, resourcesMismatch(PipelineGroups, totals, len(covered), fmt.Sprintf("unknown resource %s in a group", id))
			}
			if _, dup := covered[id]; dup {
				return totals, resourcesMismatch(PipelineGroups, totals, len(covered), fmt.Sprintf("resource %s placed in more than one group", id))
			}
			if rel.UsageCount(j) == 0 {
				return totals, resourcesMismatch(PipelineGroups, totals, len(covered), fmt.Sprintf("unused resource %s placed in a group", id))
			}
			covered[id] = struct{}{}
		}
	}
	totals.ResourcesPlaced = len(covered)
	if totals.ResourcesPlaced+totals.Unused != totals.Resources {
		return totals, errors.NewReconciliationError(PipelineGroups, "resources",
			totals.Resources, totals.ResourcesPlaced+totals.Unused)
	}

	return totals, nil
}

// ReconcileClusters checks that components are claimed at most once, that the
// clusters together cover exactly the used resources, and that no disjoint
// group overlaps the largest cluster or another disjoint group.
func ReconcileClusters(rel *usage.Relation, clustering *cluster.Clustering, disjoint []cluster.DisjointGroup) (ClusterTotals, error) {
	var totals ClusterTotals
	if clustering == nil {
		clustering = &cluster.Clustering{Largest: -1}
	}
	totals.Clusters = len(clustering.Clusters)
	totals.DisjointGroups = len(disjoint)

	used := rel.UsedResourceCount()
	expectedComponents := rel.NumComponents() - len(rel.NoUsage())

	claimed := make(map[string]struct{}, rel.NumComponents())
	covered := make(map[string]struct{}, rel.NumResources())
	for _, c := range clustering.Clusters {
		for _, id := range c.Components {
			if _, dup := claimed[id]; dup {
				return totals, errors.NewReconciliationError(PipelineClusters, "components", expectedComponents, len(claimed)).
					WithDetail(fmt.Sprintf("component %s claimed by more than one cluster", id))
			}
			claimed[id] = struct{}{}
		}
		for _, id := range c.Resources {
			j, ok := rel.ResourceIndex(id)
			if !ok || rel.UsageCount(j) == 0 {
				return totals, errors.NewReconciliationError(PipelineClusters, "resources", used, len(covered)).
					WithDetail(fmt.Sprintf("unused resource %s placed in a cluster", id))
			}
			covered[id] = struct{}{}
		}
	}
	totals.ComponentsClaimed = len(claimed)
	totals.ResourcesCovered = len(covered)

	if totals.ComponentsClaimed != expectedComponents {
		return totals, errors.NewReconciliationError(PipelineClusters, "components", expectedComponents, totals.ComponentsClaimed)
	}
	if totals.ResourcesCovered != used {
		return totals, errors.NewReconciliationError(PipelineClusters, "resources", used, totals.ResourcesCovered)
	}

	largest := make(map[string]struct{})
	if lc := clustering.LargestCluster(); lc != nil {
		totals.LargestCluster = len(lc.Resources)
		for _, id := range lc.Resources {
			largest[id] = struct{}{}
		}
	}
	residual := rel.NumResources() - len(largest)
	seen := make(map[string]struct{})
	for _, g := range disjoint {
		for _, id := range g.Resources {
			if _, hit := largest[id]; hit {
				return totals, errors.NewReconciliationError(PipelineClusters, "disjoint resources", residual, len(seen)).
					WithDetail(fmt.Sprintf("resource %s is in the largest cluster", id))
			}
			if _, dup := seen[id]; dup {
				return totals, errors.NewReconciliationError(PipelineClusters, "disjoint resources", residual, len(seen)).
					WithDetail(fmt.Sprintf("resource %s is in more than one disjoint group", id))
			}
			seen[id] = struct{}{}
		}
	}

	return totals, nil
}

func componentsMismatch(pipeline string, totals GroupTotals, placed int, detail string) error {
	return errors.NewReconciliationError(pipeline, "components", totals.Components, placed+totals.NoUsage).
		WithDetail(detail)
}

func resourcesMismatch(pipeline string, totals GroupTotals, placed int, detail string) error {
	return errors.NewReconciliationError(pipeline, "resources", totals.Resources, placed+totals.Unused).
		WithDetail(detail)
}
