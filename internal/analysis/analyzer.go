// Package analysis runs the grouping and cluster pipelines over a usage
// relation and checks that their output accounts for every component and
// resource.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/cohort/internal/cluster"
	"github.com/Iron-Ham/cohort/internal/commonality"
	"github.com/Iron-Ham/cohort/internal/grouping"
	"github.com/Iron-Ham/cohort/internal/logging"
	"github.com/Iron-Ham/cohort/internal/usage"
)

// Config selects the pipelines to run and how they behave.
type Config struct {
	// ChunkSize bounds group size; zero means unbounded.
	ChunkSize int
	// MergeSingletons folds single-resource groups into larger ones.
	MergeSingletons bool
	// Groups enables the greedy covering pipeline.
	Groups bool
	// Clusters enables the neighbour cluster and disjoint group pipeline.
	Clusters bool
	// Parallel runs the enabled pipelines concurrently.
	Parallel bool
}

// DefaultConfig returns a configuration that runs both pipelines in parallel.
func DefaultConfig() Config {
	return Config{
		Groups:   true,
		Clusters: true,
		Parallel: true,
	}
}

// Summary holds the reconciled totals of each pipeline that ran.
type Summary struct {
	Groups   *GroupTotals   `json:"groups,omitempty" yaml:"groups,omitempty"`
	Clusters *ClusterTotals `json:"clusters,omitempty" yaml:"clusters,omitempty"`
}

// Result is the outcome of one analysis run.
type Result struct {
	RunID   string
	Matrix  *commonality.Matrix
	Ranking []commonality.Score

	// Groups is nil when the grouping pipeline did not run.
	Groups []grouping.Group
	// Clustering and Disjoint are nil when the cluster pipeline did not run.
	Clustering *cluster.Clustering
	Disjoint   []cluster.DisjointGroup

	NoUsage []string
	Unused  []string
	Summary Summary
}

// Analyzer runs analyses. It holds no per-run state and is safe for
// concurrent use.
type Analyzer struct {
	cfg    Config
	logger *logging.Logger
}

// NewAnalyzer creates an analyzer. A nil logger discards output.
func NewAnalyzer(cfg Config, logger *logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// Analyze builds the commonality matrix of rel and runs the configured
// pipelines over it. A pipeline whose output fails reconciliation aborts the
// run with an *errors.ReconciliationError.
func (a *Analyzer) Analyze(ctx context.Context, rel *usage.Relation) (*Result, error) {
	runID := uuid.NewString()
	log := a.logger.WithRun(runID)
	start := time.Now()

	log.Info("analysis started",
		"components", rel.NumComponents(),
		"resources", rel.NumResources(),
		"groups", a.cfg.Groups,
		"clusters", a.cfg.Clusters,
		"parallel", a.cfg.Parallel,
	)

	matrix := commonality.Build(rel)
	res := &Result{
		RunID:   runID,
		Matrix:  matrix,
		Ranking: matrix.Rank(),
		NoUsage: rel.NoUsage(),
		Unused:  rel.Unused(),
	}
	log.Debug("commonality matrix built", "size", matrix.Len())

	// Each pipeline writes only its own fields of res.
	var pipelines []func(context.Context) error
	if a.cfg.Groups {
		pipelines = append(pipelines, func(ctx context.Context) error {
			return a.runGroups(ctx, log.WithPhase(PipelineGroups), rel, res)
		})
	}
	if a.cfg.Clusters {
		pipelines = append(pipelines, func(ctx context.Context) error {
			return a.runClusters(ctx, log.WithPhase(PipelineClusters), rel, res)
		})
	}

	if a.cfg.Parallel {
		g, gCtx := errgroup.WithContext(ctx)
		for _, p := range pipelines {
			g.Go(func() error { return p(gCtx) })
		}
		if err := g.Wait(); err != nil {
			log.Error("analysis failed", "error", err)
			return nil, err
		}
	} else {
		for _, p := range pipelines {
			if err := p(ctx); err != nil {
				log.Error("analysis failed", "error", err)
				return nil, err
			}
		}
	}

	log.Info("analysis complete", "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (a *Analyzer) runGroups(ctx context.Context, log *logging.Logger, rel *usage.Relation, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	grouper := grouping.NewGrouper(rel, grouping.Config{ChunkSize: a.cfg.ChunkSize})
	groups := grouper.Group()
	log.Debug("groups formed", "count", len(groups), "chunk_size", a.cfg.ChunkSize)

	if a.cfg.MergeSingletons {
		// Targets are offered in formation order; Merge sorts its own output.
		before := len(groups)
		groups = grouping.NewMerger(rel).Merge(grouper.Formation())
		log.Debug("singletons merged", "before", before, "after", len(groups))
	}

	totals, err := ReconcileGroups(rel, groups)
	if err != nil {
		return err
	}
	log.Info("groups reconciled",
		"groups", len(groups),
		"components_in_groups", totals.ComponentsPlaced,
		"resources_in_groups", totals.ResourcesPlaced,
	)

	res.Groups = groups
	res.Summary.Groups = &totals
	return nil
}

func (a *Analyzer) runClusters(ctx context.Context, log *logging.Logger, rel *usage.Relation, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clustering := cluster.NewClusterer(rel, res.Matrix).Cluster(res.Ranking)
	var largest []string
	if lc := clustering.LargestCluster(); lc != nil {
		largest = lc.Resources
	}
	disjoint := cluster.FindDisjoint(res.Matrix, largest)
	log.Debug("clusters formed", "count", len(clustering.Clusters), "disjoint", len(disjoint))

	totals, err := ReconcileClusters(rel, clustering, disjoint)
	if err != nil {
		return err
	}
	log.Info("clusters reconciled",
		"clusters", totals.Clusters,
		"largest_cluster", totals.LargestCluster,
		"disjoint_groups", totals.DisjointGroups,
	)

	res.Clustering = clustering
	res.Disjoint = disjoint
	res.Summary.Clusters = &totals
	return nil
}
