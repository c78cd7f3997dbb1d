// Package report renders analysis results as styled text, JSON or YAML.
//
// Rendering happens in two steps. NewDocument flattens a Result and the
// relation it was computed from into a Document, a plain value with JSON and
// YAML tags; Render then writes a Document in the requested format. Keeping
// the Document separate means the machine-readable formats and the text report
// always describe the same data.
package report

import (
	"sort"

	"github.com/Iron-Ham/cohort/internal/analysis"
	"github.com/Iron-Ham/cohort/internal/cluster"
	"github.com/Iron-Ham/cohort/internal/commonality"
	"github.com/Iron-Ham/cohort/internal/grouping"
	"github.com/Iron-Ham/cohort/internal/usage"
)

// Document is the serializable view of one analysis run.
type Document struct {
	RunID      string `json:"run_id" yaml:"run_id"`
	Components int    `json:"components" yaml:"components"`
	Resources  int    `json:"resources" yaml:"resources"`

	Matrix  Matrix              `json:"matrix" yaml:"matrix"`
	Ranking []commonality.Score `json:"ranking" yaml:"ranking"`
	// Usage lists every component with its resources, most resources first.
	Usage []ComponentUsage `json:"usage" yaml:"usage"`

	Groups   []Group   `json:"groups,omitempty" yaml:"groups,omitempty"`
	Clusters *Clusters `json:"clusters,omitempty" yaml:"clusters,omitempty"`

	Unused  []string `json:"unused_resources" yaml:"unused_resources"`
	NoUsage []string `json:"components_with_no_usage" yaml:"components_with_no_usage"`

	Summary analysis.Summary `json:"summary" yaml:"summary"`
}

// Matrix is the commonality matrix permuted into ranking order.
type Matrix struct {
	Resources []string `json:"resources" yaml:"resources"`
	Cells     [][]int  `json:"cells" yaml:"cells"`
}

// ComponentUsage is a component and the resources it uses.
type ComponentUsage struct {
	Component string   `json:"component" yaml:"component"`
	Resources []string `json:"resources" yaml:"resources"`
}

// Group is a grouping.Group whose components carry their own resources.
type Group struct {
	Seed       string           `json:"seed" yaml:"seed"`
	Resources  []string         `json:"resources" yaml:"resources"`
	Components []ComponentUsage `json:"components" yaml:"components"`
}

// Clusters is the output of the cluster pipeline.
type Clusters struct {
	Clusters []cluster.Cluster       `json:"clusters" yaml:"clusters"`
	Largest  int                     `json:"largest" yaml:"largest"`
	Disjoint []cluster.DisjointGroup `json:"disjoint_groups" yaml:"disjoint_groups"`
}

// NewDocument builds the Document for res, which must have been computed
// from rel.
func NewDocument(res *analysis.Result, rel *usage.Relation) *Document {
	doc := &Document{
		RunID:      res.RunID,
		Components: rel.NumComponents(),
		Resources:  rel.NumResources(),
		Ranking:    res.Ranking,
		Unused:     nonNil(res.Unused),
		NoUsage:    nonNil(res.NoUsage),
		Summary:    res.Summary,
	}

	doc.Matrix.Resources = make([]string, len(res.Ranking))
	for k, s := range res.Ranking {
		doc.Matrix.Resources[k] = s.Resource
	}
	doc.Matrix.Cells = res.Matrix.Sorted(res.Ranking)

	all := rel.Components()
	doc.Usage = usageOf(rel, all)

	if res.Groups != nil {
		doc.Groups = groupsOf(rel, res.Groups)
	}
	if res.Clustering != nil {
		doc.Clusters = &Clusters{
			Clusters: res.Clustering.Clusters,
			Largest:  res.Clustering.Largest,
			Disjoint: res.Disjoint,
		}
		if doc.Clusters.Disjoint == nil {
			doc.Clusters.Disjoint = []cluster.DisjointGroup{}
		}
	}
	return doc
}

// HasGroups reports whether the grouping pipeline contributed to the document.
func (d *Document) HasGroups() bool { return d.Summary.Groups != nil }

// HasClusters reports whether the cluster pipeline contributed to the document.
func (d *Document) HasClusters() bool { return d.Clusters != nil }

func groupsOf(rel *usage.Relation, groups []grouping.Group) []Group {
	out := make([]Group, len(groups))
	for k, g := range groups {
		out[k] = Group{
			Seed:       g.Seed,
			Resources:  g.Resources,
			Components: usageOf(rel, g.Components),
		}
	}
	return out
}

// usageOf pairs components with their resources, ordered by descending
// resource count. Equal counts keep the given order.
func usageOf(rel *usage.Relation, components []string) []ComponentUsage {
	out := make([]ComponentUsage, 0, len(components))
	for _, id := range components {
		cu := ComponentUsage{Component: id, Resources: []string{}}
		if i, ok := rel.ComponentIndex(id); ok {
			cu.Resources = rel.ResourceIDsOf(i)
		}
		out = append(out, cu)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return len(out[a].Resources) > len(out[b].Resources)
	})
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
