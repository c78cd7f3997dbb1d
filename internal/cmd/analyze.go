package cmd

import (
	"fmt"

	"github.com/Iron-Ham/cohort/internal/analysis"
	"github.com/Iron-Ham/cohort/internal/config"
	"github.com/Iron-Ham/cohort/internal/ingest"
	"github.com/Iron-Ham/cohort/internal/logging"
	"github.com/Iron-Ham/cohort/internal/report"
	"github.com/spf13/cobra"
)

// mode selects what an analysis command runs and prints.
type mode int

const (
	modeConfigured mode = iota // pipelines from analysis.pipelines
	modeGroups
	modeClusters
	modeCommonality
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <table>",
	Short: "Run every configured pipeline over a usage table",
	Long: `Run the configured pipelines (analysis.pipelines) over a usage table and
print the report.

The table is a CSV or XLSX file with a header row. One column holds
component identifiers (by default the first header containing both
"Component" and "Name"); the remaining columns hold one resource each, and
a positive number in a cell means the component uses that resource.

Examples:
  # Analyze the first sheet of a workbook
  cohort analyze inventory.xlsx

  # Skip two leading columns, cap group size, fold singletons
  cohort analyze inventory.csv --first-col 2 --chunk-size 25 --merge

  # Machine-readable output
  cohort analyze inventory.xlsx --sheet "Online PGM" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], modeConfigured)
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups <table>",
	Short: "Partition resources into groups by greedy covering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], modeGroups)
	},
}

var clustersCmd = &cobra.Command{
	Use:   "clusters <table>",
	Short: "Build neighbour clusters and disjoint resource groups",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], modeClusters)
	},
}

var commonalityCmd = &cobra.Command{
	Use:   "commonality <table>",
	Short: "Print the sorted commonality matrix and resource ranking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], modeCommonality)
	},
}

var (
	flagSheet         string
	flagFirstCol      int
	flagLastCol       int
	flagFormat        string
	flagChunkSize     int
	flagMerge         bool
	flagListResources bool
	flagMatrix        bool
)

func init() {
	for _, c := range []*cobra.Command{analyzeCmd, groupsCmd, clustersCmd, commonalityCmd} {
		addInputFlags(c)
		c.Flags().StringVarP(&flagFormat, "format", "o", "", "report format: text, json, yaml")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{analyzeCmd, groupsCmd} {
		c.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "maximum resources per group (0 = unbounded)")
		c.Flags().BoolVar(&flagMerge, "merge", false, "fold single-resource groups into the group they overlap most")
		c.Flags().BoolVar(&flagListResources, "list-resources", false, "list each grouped component's resources")
	}
	analyzeCmd.Flags().BoolVar(&flagMatrix, "matrix", false, "include the sorted commonality matrix")
}

func addInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagSheet, "sheet", "", "worksheet to read (default: first sheet)")
	c.Flags().IntVar(&flagFirstCol, "first-col", 0, "0-based index of the first resource column, not counting the component column")
	c.Flags().IntVar(&flagLastCol, "last-col", -1, "inclusive index of the last resource column (-1 = last column)")
}

// applyFlagOverrides applies CLI flag values to cfg.
// Flags only override config file values when explicitly set by the user.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("sheet") {
		cfg.Input.Sheet = flagSheet
	}
	if flags.Changed("first-col") {
		cfg.Input.FirstResourceColumn = flagFirstCol
	}
	if flags.Changed("last-col") {
		cfg.Input.LastResourceColumn = flagLastCol
	}
	if flags.Changed("format") {
		cfg.Output.Format = flagFormat
	}
	if flags.Changed("chunk-size") {
		cfg.Grouping.ChunkSize = flagChunkSize
	}
	if flags.Changed("merge") {
		cfg.Grouping.MergeSingletons = flagMerge
	}
	if flags.Changed("list-resources") {
		cfg.Output.ListResources = flagListResources
	}
}

func runAnalysis(cmd *cobra.Command, path string, m mode) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applyFlagOverrides(cmd, cfg)
	if errs := cfg.Validate(); len(errs) > 0 {
		return config.ValidationErrors(errs)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	table, err := ingest.Read(ingestOptions(path, cfg.Input))
	if err != nil {
		logger.Error("failed to read table", "path", path, "error", err)
		return err
	}
	rel, err := table.Relation()
	if err != nil {
		logger.Error("invalid usage table", "path", path, "error", err)
		return err
	}
	logger.Info("table loaded",
		"path", path,
		"component_column", table.ComponentColumn,
		"components", rel.NumComponents(),
		"resources", rel.NumResources(),
		"dropped_rows", table.Dropped,
	)

	acfg := analysisConfig(cfg, m)
	res, err := analysis.NewAnalyzer(acfg, logger).Analyze(cmd.Context(), rel)
	if err != nil {
		return err
	}

	opts := report.Options{
		Format:        cfg.Output.Format,
		Color:         cfg.Output.Color,
		ListResources: cfg.Output.ListResources,
		ShowMatrix:    m == modeCommonality || (cmd.Flags().Changed("matrix") && flagMatrix),
		Width:         cfg.Output.Width,
	}
	return report.Render(cmd.OutOrStdout(), report.NewDocument(res, rel), opts)
}

func ingestOptions(path string, in config.InputConfig) ingest.Options {
	return ingest.Options{
		Path:                path,
		Sheet:               in.Sheet,
		ComponentColumn:     in.ComponentColumn,
		FirstResourceColumn: in.FirstResourceColumn,
		LastResourceColumn:  in.LastResourceColumn,
		TotalMarker:         in.TotalMarker,
		Format:              in.Format,
	}
}

func analysisConfig(cfg *config.Config, m mode) analysis.Config {
	acfg := analysis.Config{
		ChunkSize:       cfg.Grouping.ChunkSize,
		MergeSingletons: cfg.Grouping.MergeSingletons,
		Parallel:        cfg.Analysis.Parallel,
	}
	switch m {
	case modeConfigured:
		acfg.Groups = cfg.Analysis.Runs(config.PipelineGroups)
		acfg.Clusters = cfg.Analysis.Runs(config.PipelineClusters)
	case modeGroups:
		acfg.Groups = true
	case modeClusters:
		acfg.Clusters = true
	}
	return acfg
}

// newLogger builds the run logger from the logging section. Disabled logging
// discards everything.
func newLogger(lc config.LoggingConfig) (*logging.Logger, error) {
	if !lc.Enabled {
		return logging.NopLogger(), nil
	}
	if lc.Dir == "" {
		return logging.NewLogger("", lc.Level)
	}
	logger, err := logging.NewLoggerWithRotation(lc.Dir, lc.Level, logging.RotationConfig{
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		Compress:   lc.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, nil
}
