// Package cluster builds co-usage clusters of resources and finds the groups
// of resources that are disconnected from the largest cluster.
//
// The Clusterer is a heuristic: each cluster is one resource plus its direct
// co-usage neighbours, and it claims the components that fit inside it.
// FindDisjoint computes exact connectivity over whatever the largest cluster
// leaves behind. The two are kept separate on purpose and answer different
// questions.
package cluster

import (
	"github.com/Iron-Ham/cohort/internal/commonality"
	"github.com/Iron-Ham/cohort/internal/usage"
)

// Cluster is an anchor resource, its neighbours, and the components that use
// nothing outside that set.
type Cluster struct {
	Anchor string `json:"anchor" yaml:"anchor"`
	// Resources holds the anchor followed by its neighbours in resource order.
	Resources []string `json:"resources" yaml:"resources"`
	// NewResources are the members not present in any earlier cluster.
	NewResources []string `json:"new_resources" yaml:"new_resources"`
	Components   []string `json:"components" yaml:"components"`
}

// Clustering is the ordered output of a Clusterer run.
type Clustering struct {
	Clusters []Cluster `json:"clusters" yaml:"clusters"`
	// Largest indexes the cluster with the most resources, or -1 when there
	// are no clusters. The first cluster to reach a size wins ties.
	Largest int `json:"largest" yaml:"largest"`
}

// LargestCluster returns the largest cluster, or nil.
func (c *Clustering) LargestCluster() *Cluster {
	if c == nil || c.Largest < 0 || c.Largest >= len(c.Clusters) {
		return nil
	}
	return &c.Clusters[c.Largest]
}

// Clusterer expands resources into neighbour clusters.
type Clusterer struct {
	rel    *usage.Relation
	matrix *commonality.Matrix
}

// NewClusterer creates a clusterer. matrix must be built from rel.
func NewClusterer(rel *usage.Relation, matrix *commonality.Matrix) *Clusterer {
	return &Clusterer{rel: rel, matrix: matrix}
}

// Cluster visits resources in ranking order. Each visited resource forms a
// candidate cluster with its positive neighbours, which claims every
// unclaimed component whose resources all lie inside it. Candidates that claim
// nothing are dropped.
func (c *Clusterer) Cluster(ranking []commonality.Score) *Clustering {
	out := &Clustering{Clusters: []Cluster{}, Largest: -1}

	claimed := make([]bool, c.rel.NumComponents())
	seen := make([]bool, c.matrix.Len())

	for _, score := range ranking {
		anchor := score.Index
		members := make([]bool, c.matrix.Len())
		members[anchor] = true
		order := []int{anchor}
		for _, j := range c.matrix.Neighbors(anchor) {
			if !members[j] {
				members[j] = true
				order = append(order, j)
			}
		}

		var components []string
		for i := 0; i < c.rel.NumComponents(); i++ {
			if claimed[i] || !within(c.rel.ResourcesOf(i), members) {
				continue
			}
			claimed[i] = true
			components = append(components, c.rel.ComponentID(i))
		}
		if len(components) == 0 {
			continue
		}

		cl := Cluster{
			Anchor:       c.matrix.ID(anchor),
			Resources:    make([]string, len(order)),
			NewResources: []string{},
			Components:   components,
		}
		for k, j := range order {
			cl.Resources[k] = c.matrix.ID(j)
		}
		for j := range members {
			if members[j] && !seen[j] {
				seen[j] = true
				cl.NewResources = append(cl.NewResources, c.matrix.ID(j))
			}
		}

		out.Clusters = append(out.Clusters, cl)
		if out.Largest < 0 || len(cl.Resources) > len(out.Clusters[out.Largest].Resources) {
			out.Largest = len(out.Clusters) - 1
		}
	}
	return out
}

// within reports whether set is non-empty and every element is a member.
func within(set []int, members []bool) bool {
	if len(set) == 0 {
		return false
	}
	for _, j := range set {
		if !members[j] {
			return false
		}
	}
	return true
}
