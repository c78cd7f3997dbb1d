package analysis

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/Iron-Ham/cohort/internal/logging"
	"github.com/Iron-Ham/cohort/internal/testutil"
	"github.com/Iron-Ham/cohort/internal/usage"
)

func scenarioRelation(t *testing.T) *usage.Relation {
	t.Helper()
	return testutil.Relation(t, []string{"F1", "F2", "F3", "F6", "F7", "F9"},
		"A:F1,F2",
		"B:F1,F2",
		"C:F3",
		"D:",
		"E:F6,F7",
	)
}

func TestAnalyze(t *testing.T) {
	rel := scenarioRelation(t)

	res, err := NewAnalyzer(DefaultConfig(), nil).Analyze(context.Background(), rel)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.Matrix.Len() != 6 || len(res.Ranking) != 6 {
		t.Errorf("matrix has %d resources and ranking %d, want 6", res.Matrix.Len(), len(res.Ranking))
	}
	if !slices.Equal(res.NoUsage, []string{"D"}) {
		t.Errorf("NoUsage = %v, want [D]", res.NoUsage)
	}
	if !slices.Equal(res.Unused, []string{"F9"}) {
		t.Errorf("Unused = %v, want [F9]", res.Unused)
	}

	if len(res.Groups) != 3 {
		t.Fatalf("got %d groups, want 3: %+v", len(res.Groups), res.Groups)
	}
	if !slices.Equal(res.Groups[0].Components, []string{"A", "B"}) {
		t.Errorf("first group components = %v, want [A B]", res.Groups[0].Components)
	}

	g := res.Summary.Groups
	if g == nil {
		t.Fatal("Summary.Groups is nil")
	}
	want := GroupTotals{Components: 5, ComponentsPlaced: 4, NoUsage: 1, Resources: 6, ResourcesPlaced: 5, Unused: 1}
	if *g != want {
		t.Errorf("Summary.Groups = %+v, want %+v", *g, want)
	}

	c := res.Summary.Clusters
	if c == nil {
		t.Fatal("Summary.Clusters is nil")
	}
	if c.ComponentsClaimed != 4 || c.ResourcesCovered != 5 {
		t.Errorf("Summary.Clusters = %+v, want 4 components and 5 resources", *c)
	}
	if res.Clustering.LargestCluster() == nil {
		t.Fatal("no largest cluster")
	}
	if len(res.Disjoint) != c.DisjointGroups {
		t.Errorf("DisjointGroups = %d, want %d", c.DisjointGroups, len(res.Disjoint))
	}
}

func TestAnalyze_PipelineSelection(t *testing.T) {
	rel := scenarioRelation(t)

	tests := []struct {
		name     string
		groups   bool
		clusters bool
	}{
		{"groups only", true, false},
		{"clusters only", false, true},
		{"matrix only", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Groups: tt.groups, Clusters: tt.clusters, Parallel: true}
			res, err := NewAnalyzer(cfg, nil).Analyze(context.Background(), rel)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if (res.Groups != nil) != tt.groups || (res.Summary.Groups != nil) != tt.groups {
				t.Errorf("groups present = %v, want %v", res.Groups != nil, tt.groups)
			}
			if (res.Clustering != nil) != tt.clusters || (res.Summary.Clusters != nil) != tt.clusters {
				t.Errorf("clustering present = %v, want %v", res.Clustering != nil, tt.clusters)
			}
			if res.Matrix == nil {
				t.Error("matrix should always be built")
			}
		})
	}
}

func TestAnalyze_MergeSingletons(t *testing.T) {
	rel := testutil.Relation(t, []string{"F1", "F2", "F3", "F4", "F5"},
		"A:F1,F2,F3,F4,F5",
		"B:F1,F5",
	)
	cfg := Config{ChunkSize: 2, MergeSingletons: true, Groups: true}

	res, err := NewAnalyzer(cfg, nil).Analyze(context.Background(), rel)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for _, g := range res.Groups {
		if len(g.Resources) == 1 {
			t.Errorf("singleton group %v survived merging", g.Resources)
		}
	}
	if res.Summary.Groups.ResourcesPlaced != 5 {
		t.Errorf("ResourcesPlaced = %d, want 5", res.Summary.Groups.ResourcesPlaced)
	}
}

// A singleton overlapping two targets equally joins the one formed first,
// even when a later target is larger.
func TestAnalyze_MergeTieFollowsFormationOrder(t *testing.T) {
	rel := testutil.Relation(t, []string{"A1", "A2", "A3", "A4", "B1", "B2", "C1", "C2", "C3", "S"},
		"A:A1,A2,A3,A4",
		"B:A1,A2,B1,B2",
		"C:C1,C2,C3",
		"D:B1,C1,S",
	)
	cfg := Config{Groups: true, MergeSingletons: true}

	res, err := NewAnalyzer(cfg, nil).Analyze(context.Background(), rel)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := []struct {
		resources  []string
		components []string
	}{
		{[]string{"A1", "A2", "A3", "A4"}, []string{"A"}},
		{[]string{"B1", "B2", "S"}, []string{"B", "D"}},
		{[]string{"C1", "C2", "C3"}, []string{"C"}},
	}
	if len(res.Groups) != len(want) {
		t.Fatalf("got %d groups, want %d: %+v", len(res.Groups), len(want), res.Groups)
	}
	for k, w := range want {
		g := res.Groups[k]
		if !slices.Equal(g.Resources, w.resources) || !slices.Equal(g.Components, w.components) {
			t.Errorf("group %d = %v %v, want %v %v", k, g.Resources, g.Components, w.resources, w.components)
		}
	}
}

func TestAnalyze_ParallelMatchesSequential(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rel := randomRelation(t, seed)
			ctx := context.Background()

			cfg := DefaultConfig()
			cfg.ChunkSize = 3
			cfg.MergeSingletons = seed%2 == 0

			parallel, err := NewAnalyzer(cfg, nil).Analyze(ctx, rel)
			if err != nil {
				t.Fatalf("parallel Analyze() error = %v", err)
			}
			again, err := NewAnalyzer(cfg, nil).Analyze(ctx, rel)
			if err != nil {
				t.Fatalf("repeated Analyze() error = %v", err)
			}
			cfg.Parallel = false
			sequential, err := NewAnalyzer(cfg, nil).Analyze(ctx, rel)
			if err != nil {
				t.Fatalf("sequential Analyze() error = %v", err)
			}

			assertSameResult(t, parallel, again)
			assertSameResult(t, parallel, sequential)
		})
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallel := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.Parallel = parallel
		if _, err := NewAnalyzer(cfg, nil).Analyze(ctx, scenarioRelation(t)); err == nil {
			t.Errorf("Analyze(parallel=%v) with a cancelled context should fail", parallel)
		}
	}
}

func TestAnalyze_LogsRun(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, logging.LevelDebug)

	res, err := NewAnalyzer(DefaultConfig(), logger).Analyze(context.Background(), scenarioRelation(t))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`"run_id":"` + res.RunID + `"`,
		`"msg":"groups reconciled"`,
		`"msg":"clusters reconciled"`,
		`"phase":"groups"`,
		`"phase":"clusters"`,
		`"msg":"analysis complete"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s", want)
		}
	}
}

func randomRelation(t *testing.T, seed uint64) *usage.Relation {
	t.Helper()

	r := rand.New(rand.NewPCG(seed, 99))
	ids := make([]string, 15)
	for j := range ids {
		ids[j] = fmt.Sprintf("F%d", j+1)
	}
	rows := make([]usage.Row, 40)
	for i := range rows {
		rows[i].Component = fmt.Sprintf("P%d", i+1)
		for _, id := range ids {
			if r.IntN(6) == 0 {
				rows[i].Resources = append(rows[i].Resources, id)
			}
		}
	}
	rel, err := usage.New(ids, rows)
	if err != nil {
		t.Fatalf("failed to build relation: %v", err)
	}
	return rel
}

func assertSameResult(t *testing.T, a, b *Result) {
	t.Helper()

	if !reflect.DeepEqual(a.Matrix.Rows(), b.Matrix.Rows()) {
		t.Error("matrices differ")
	}
	if !reflect.DeepEqual(a.Ranking, b.Ranking) {
		t.Error("rankings differ")
	}
	if !reflect.DeepEqual(a.Groups, b.Groups) {
		t.Errorf("groups differ:\n%+v\n%+v", a.Groups, b.Groups)
	}
	if !reflect.DeepEqual(a.Clustering, b.Clustering) {
		t.Error("clusterings differ")
	}
	if !reflect.DeepEqual(a.Disjoint, b.Disjoint) {
		t.Error("disjoint groups differ")
	}
	if !reflect.DeepEqual(a.Summary, b.Summary) {
		t.Errorf("summaries differ: %+v vs %+v", a.Summary, b.Summary)
	}
}
