// Package usage holds the component × resource usage relation every analysis
// runs over.
//
// A Relation is built once from cleaned rows and never changes afterwards.
// Components and resources keep the order they were supplied in; that order is
// the tie-break for every ranking and grouping computed from the relation, so
// two relations built from the same rows always produce the same results.
//
// Components without any resource ("no usage") and resources no component uses
// ("unused") are valid states. They are tracked explicitly rather than rejected.
package usage

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Iron-Ham/cohort/internal/errors"
)

// Row is one component together with the resources it uses.
type Row struct {
	Component string   `json:"component" yaml:"component"`
	Resources []string `json:"resources" yaml:"resources"`
}

// Relation is an immutable binary relation between components and resources.
// Methods taking indices expect values in [0, NumComponents) or
// [0, NumResources) and panic otherwise, like slice indexing.
type Relation struct {
	components []string
	resources  []string

	componentIndex map[string]int
	resourceIndex  map[string]int

	// uses[i] lists the resource indices of component i in ascending order.
	uses [][]int
	// usedBy[j] is the number of components using resource j.
	usedBy []int
}

// New validates rows against the resource list and builds a Relation.
//
// Identifiers are compared exactly after trimming surrounding whitespace.
// Listing the same resource twice for one component is collapsed. Every other
// shape problem is rejected with an *errors.InputError:
//   - a blank component or resource identifier
//   - two rows for the same component
//   - the same resource listed twice in resources
//   - a row referencing a resource that is not in resources
func New(resources []string, rows []Row) (*Relation, error) {
	r := &Relation{
		components:     make([]string, 0, len(rows)),
		resources:      make([]string, 0, len(resources)),
		componentIndex: make(map[string]int, len(rows)),
		resourceIndex:  make(map[string]int, len(resources)),
		uses:           make([][]int, 0, len(rows)),
		usedBy:         make([]int, len(resources)),
	}

	for pos, raw := range resources {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, errors.NewInputError("resource identifier is blank", errors.ErrEmptyIdentifier).
				WithColumn(columnLabel(pos))
		}
		if _, dup := r.resourceIndex[id]; dup {
			return nil, errors.NewInputError("resource listed more than once", errors.ErrDuplicateResource).
				WithResource(id)
		}
		r.resourceIndex[id] = len(r.resources)
		r.resources = append(r.resources, id)
	}

	for pos, row := range rows {
		id := strings.TrimSpace(row.Component)
		if id == "" {
			return nil, errors.NewInputError("component identifier is blank", errors.ErrEmptyIdentifier).
				WithRow(pos + 1)
		}
		if _, dup := r.componentIndex[id]; dup {
			return nil, errors.NewInputError("component listed more than once", errors.ErrDuplicateComponent).
				WithComponent(id).WithRow(pos + 1)
		}

		set := make([]int, 0, len(row.Resources))
		for _, rawRes := range row.Resources {
			resID := strings.TrimSpace(rawRes)
			j, ok := r.resourceIndex[resID]
			if !ok {
				return nil, errors.NewInputError("component references a resource outside the relation", errors.ErrUnknownResource).
					WithComponent(id).WithResource(resID).WithRow(pos + 1)
			}
			set = append(set, j)
		}
		slices.Sort(set)
		set = slices.Compact(set)
		for _, j := range set {
			r.usedBy[j]++
		}

		r.componentIndex[id] = len(r.components)
		r.components = append(r.components, id)
		r.uses = append(r.uses, set)
	}

	return r, nil
}

// NumComponents returns the number of components, including those with no usage.
func (r *Relation) NumComponents() int { return len(r.components) }

// NumResources returns the number of resources, including unused ones.
func (r *Relation) NumResources() int { return len(r.resources) }

// ComponentID returns the identifier of component i.
func (r *Relation) ComponentID(i int) string { return r.components[i] }

// ResourceID returns the identifier of resource j.
func (r *Relation) ResourceID(j int) string { return r.resources[j] }

// ComponentIndex returns the index of the component with the given identifier.
func (r *Relation) ComponentIndex(id string) (int, bool) {
	i, ok := r.componentIndex[id]
	return i, ok
}

// ResourceIndex returns the index of the resource with the given identifier.
func (r *Relation) ResourceIndex(id string) (int, bool) {
	j, ok := r.resourceIndex[id]
	return j, ok
}

// Components returns a copy of the component identifiers in relation order.
func (r *Relation) Components() []string { return slices.Clone(r.components) }

// Resources returns a copy of the resource identifiers in relation order.
func (r *Relation) Resources() []string { return slices.Clone(r.resources) }

// ResourcesOf returns the resource indices used by component i in ascending
// order. The slice is shared with the relation and must not be modified.
func (r *Relation) ResourcesOf(i int) []int { return r.uses[i] }

// ResourceIDsOf returns the identifiers of the resources used by component i.
func (r *Relation) ResourceIDsOf(i int) []string {
	ids := make([]string, len(r.uses[i]))
	for k, j := range r.uses[i] {
		ids[k] = r.resources[j]
	}
	return ids
}

// ComponentsOf returns the indices of the components using resource j, in
// component order. It is derived on each call.
func (r *Relation) ComponentsOf(j int) []int {
	out := make([]int, 0, r.usedBy[j])
	for i := range r.uses {
		if r.Uses(i, j) {
			out = append(out, i)
		}
	}
	return out
}

// UsageCount returns how many components use resource j.
func (r *Relation) UsageCount(j int) int { return r.usedBy[j] }

// Uses reports whether component i uses resource j.
func (r *Relation) Uses(i, j int) bool {
	_, found := slices.BinarySearch(r.uses[i], j)
	return found
}

// NoUsage returns the components that use no resource, in component order.
func (r *Relation) NoUsage() []string {
	var out []string
	for i, set := range r.uses {
		if len(set) == 0 {
			out = append(out, r.components[i])
		}
	}
	return out
}

// Unused returns the resources no component uses, in resource order.
func (r *Relation) Unused() []string {
	var out []string
	for j, n := range r.usedBy {
		if n == 0 {
			out = append(out, r.resources[j])
		}
	}
	return out
}

// UsedResourceCount returns the number of resources used by at least one component.
func (r *Relation) UsedResourceCount() int {
	n := 0
	for _, c := range r.usedBy {
		if c > 0 {
			n++
		}
	}
	return n
}

// Rows returns the relation as rows in component order.
func (r *Relation) Rows() []Row {
	rows := make([]Row, len(r.components))
	for i, id := range r.components {
		rows[i] = Row{Component: id, Resources: r.ResourceIDsOf(i)}
	}
	return rows
}

// columnLabel names a resource position for error messages.
func columnLabel(pos int) string {
	return "#" + strconv.Itoa(pos+1)
}
