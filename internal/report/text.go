package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/cohort/internal/util"
)

// maxLabelWidth caps the row label column of the matrix.
const maxLabelWidth = 16

type textRenderer struct {
	w     io.Writer
	opts  Options
	width int
	st    styles
	b     strings.Builder
}

func newTextRenderer(w io.Writer, opts Options) *textRenderer {
	return &textRenderer{
		w:     w,
		opts:  opts,
		width: reportWidth(w, opts.Width),
		st:    newStyles(lipgloss.NewRenderer(w), colorEnabled(w, opts.Color)),
	}
}

func (r *textRenderer) render(doc *Document) error {
	r.line(r.st.title.Render("Cohort report") + " " + r.st.muted.Render("run "+doc.RunID))
	r.line(fmt.Sprintf("%s, %s", util.Count(doc.Components, "component"), util.Count(doc.Resources, "resource")))

	if r.opts.ShowMatrix {
		r.matrix(doc)
	}
	r.ranking(doc)
	r.usage(doc)
	if doc.HasGroups() {
		r.groups(doc)
	}
	if doc.HasClusters() {
		r.clusters(doc)
	}
	r.idList("Unused resources", doc.Unused)
	r.idList("Components with no usage", doc.NoUsage)
	r.summary(doc)

	if _, err := io.WriteString(r.w, r.b.String()); err != nil {
		return formatErr(err)
	}
	return nil
}

func (r *textRenderer) line(s string) {
	r.b.WriteString(s)
	r.b.WriteByte('\n')
}

func (r *textRenderer) heading(title string, n int) {
	r.line("")
	if n < 0 {
		r.line(r.st.heading.Render(title))
		return
	}
	r.line(r.st.heading.Render(title) + " " + r.st.muted.Render("("+strconv.Itoa(n)+")"))
}

func (r *textRenderer) list(items []string, indent string) {
	for _, l := range util.WrapList(items, r.width, indent) {
		r.line(l)
	}
}

func (r *textRenderer) matrix(doc *Document) {
	r.heading("Commonality matrix", -1)
	ids := doc.Matrix.Resources
	if len(ids) == 0 {
		r.line(r.st.muted.Render("  (no resources)"))
		return
	}

	// Columns are as wide as the row labels so headers read in full.
	labelW := min(util.MaxWidth(ids), maxLabelWidth)
	cellW := max(3, labelW)
	for _, row := range doc.Matrix.Cells {
		for _, v := range row {
			cellW = max(cellW, len(strconv.Itoa(v)))
		}
	}

	cols := len(ids)
	if fit := (r.width - labelW) / (cellW + 1); fit < cols {
		cols = max(fit, 1)
	}

	var header strings.Builder
	header.WriteString(strings.Repeat(" ", labelW))
	for _, id := range ids[:cols] {
		header.WriteString(" " + util.PadLeft(id, cellW))
	}
	r.line(r.st.label.Render(header.String()))

	for k, row := range doc.Matrix.Cells {
		var b strings.Builder
		b.WriteString(r.st.label.Render(util.PadRight(ids[k], labelW)))
		for _, v := range row[:cols] {
			cell := util.PadLeft(strconv.Itoa(v), cellW)
			if v == 0 {
				cell = r.st.muted.Render(cell)
			}
			b.WriteString(" " + cell)
		}
		r.line(b.String())
	}
	if cols < len(ids) {
		r.line(r.st.muted.Render(fmt.Sprintf("  showing %d of %d columns", cols, len(ids))))
	}
}

func (r *textRenderer) ranking(doc *Document) {
	r.heading("Resource ranking", len(doc.Ranking))
	idW := util.MaxWidth(doc.Matrix.Resources)
	posW := len(strconv.Itoa(len(doc.Ranking)))
	for k, s := range doc.Ranking {
		r.line(fmt.Sprintf("  %s %s %s",
			util.PadLeft(strconv.Itoa(k+1)+".", posW+1),
			util.PadRight(s.Resource, idW),
			r.st.count.Render(strconv.Itoa(s.Total))))
	}
}

func (r *textRenderer) usage(doc *Document) {
	r.heading("Components by resource count", len(doc.Usage))
	ids := make([]string, len(doc.Usage))
	for k, cu := range doc.Usage {
		ids[k] = cu.Component
	}
	idW := util.MaxWidth(ids)
	for _, cu := range doc.Usage {
		head := fmt.Sprintf("  %s %s", util.PadRight(cu.Component, idW), r.st.count.Render(fmt.Sprintf("(%d)", len(cu.Resources))))
		if len(cu.Resources) == 0 {
			r.line(head)
			continue
		}
		r.line(head + " " + strings.Join(cu.Resources, ", "))
	}
}

func (r *textRenderer) groups(doc *Document) {
	r.heading("Groups", len(doc.Groups))
	for k, g := range doc.Groups {
		r.line(fmt.Sprintf("  %s %s %s",
			r.st.label.Render(fmt.Sprintf("Group %d", k+1)),
			r.st.muted.Render("seed "+g.Seed),
			r.st.count.Render(fmt.Sprintf("%s, %s", util.Count(len(g.Resources), "resource"), util.Count(len(g.Components), "component")))))
		r.list(g.Resources, "    ")
		if len(g.Components) == 0 {
			r.line(r.st.warning.Render("    no component depends only on these resources"))
			continue
		}
		for _, cu := range g.Components {
			entry := fmt.Sprintf("    - %s (%d)", cu.Component, len(cu.Resources))
			if r.opts.ListResources {
				entry += ": " + strings.Join(cu.Resources, ", ")
			}
			r.line(entry)
		}
	}
}

func (r *textRenderer) clusters(doc *Document) {
	cs := doc.Clusters
	r.heading("Clusters", len(cs.Clusters))
	for k, c := range cs.Clusters {
		title := r.st.label.Render(fmt.Sprintf("Cluster %d", k+1)) + " " + r.st.muted.Render("anchor "+c.Anchor)
		if k == cs.Largest {
			title += " " + r.st.ok.Render("largest")
		}
		r.line("  " + title + " " + r.st.count.Render(util.Count(len(c.Resources), "resource")))
		r.list(c.Resources, "    ")
		if k > 0 {
			if len(c.NewResources) == 0 {
				r.line(r.st.muted.Render("    new: none"))
			} else {
				r.list(c.NewResources, "    new: ")
			}
		}
		r.list(c.Components, "    components: ")
	}

	r.heading("Disjoint groups", len(cs.Disjoint))
	if len(cs.Disjoint) == 0 {
		r.line(r.st.muted.Render("  every co-used resource outside the largest cluster is isolated"))
	}
	for k, g := range cs.Disjoint {
		r.list(g.Resources, fmt.Sprintf("  %d. ", k+1))
	}
}

func (r *textRenderer) idList(title string, ids []string) {
	r.heading(title, len(ids))
	if len(ids) == 0 {
		r.line(r.st.muted.Render("  none"))
		return
	}
	r.list(ids, "  ")
}

func (r *textRenderer) summary(doc *Document) {
	r.heading("Summary", -1)
	if g := doc.Summary.Groups; g != nil {
		r.check("groups",
			fmt.Sprintf("%d components = %d in groups + %d with no usage", g.Components, g.ComponentsPlaced, g.NoUsage),
			g.Components == g.ComponentsPlaced+g.NoUsage)
		r.check("",
			fmt.Sprintf("%d resources = %d in groups + %d unused", g.Resources, g.ResourcesPlaced, g.Unused),
			g.Resources == g.ResourcesPlaced+g.Unused)
	}
	if c := doc.Summary.Clusters; c != nil {
		usedComponents := doc.Components - len(doc.NoUsage)
		usedResources := doc.Resources - len(doc.Unused)
		r.check("clusters",
			fmt.Sprintf("%d of %d used components claimed by %s", c.ComponentsClaimed, usedComponents, util.Count(c.Clusters, "cluster")),
			c.ComponentsClaimed == usedComponents)
		r.check("",
			fmt.Sprintf("%d of %d used resources covered, largest cluster %d, %s", c.ResourcesCovered, usedResources, c.LargestCluster, util.Count(c.DisjointGroups, "disjoint group")),
			c.ResourcesCovered == usedResources)
	}
	if doc.Summary.Groups == nil && doc.Summary.Clusters == nil {
		r.line(r.st.muted.Render("  no pipelines ran"))
	}
}

func (r *textRenderer) check(pipeline, text string, ok bool) {
	verdict := r.st.ok.Render("reconciled")
	if !ok {
		verdict = r.st.bad.Render("MISMATCH")
	}
	r.line(fmt.Sprintf("  %s %s  %s", util.PadRight(pipeline, len("clusters")), text, verdict))
}
