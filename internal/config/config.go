package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete cohort configuration
type Config struct {
	Input    InputConfig    `mapstructure:"input" yaml:"input"`
	Grouping GroupingConfig `mapstructure:"grouping" yaml:"grouping"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// InputConfig describes how usage tables are read
type InputConfig struct {
	// Sheet is the worksheet to read from spreadsheet input (default: first sheet)
	Sheet string `mapstructure:"sheet" yaml:"sheet"`
	// ComponentColumn lists the terms that must all appear in the header of
	// the component identifier column (default: ["Component", "Name"])
	ComponentColumn []string `mapstructure:"component_column" yaml:"component_column"`
	// FirstResourceColumn is the 0-based index, among the non-component
	// columns, of the first resource column
	FirstResourceColumn int `mapstructure:"first_resource_column" yaml:"first_resource_column"`
	// LastResourceColumn is the inclusive index of the last resource column.
	// Negative means through the last column.
	LastResourceColumn int `mapstructure:"last_resource_column" yaml:"last_resource_column"`
	// TotalMarker drops rows whose identifier contains it, case-insensitively
	TotalMarker string `mapstructure:"total_marker" yaml:"total_marker"`
	// Format forces the table format. Empty means detect by extension.
	// Options: "csv", "xlsx"
	Format string `mapstructure:"format" yaml:"format"`
}

// GroupingConfig controls greedy covering
type GroupingConfig struct {
	// ChunkSize bounds the number of resources per group (0 = unbounded)
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`
	// MergeSingletons folds single-resource groups into the best overlapping group
	MergeSingletons bool `mapstructure:"merge_singletons" yaml:"merge_singletons"`
}

// AnalysisConfig selects which pipelines run
type AnalysisConfig struct {
	// Parallel runs the pipelines concurrently (default: true)
	Parallel bool `mapstructure:"parallel" yaml:"parallel"`
	// Pipelines to run. Options: "groups", "clusters"
	Pipelines []string `mapstructure:"pipelines" yaml:"pipelines"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	// Format of the report. Options: "text", "json", "yaml"
	Format string `mapstructure:"format" yaml:"format"`
	// Color of text reports. Options: "auto", "always", "never"
	Color string `mapstructure:"color" yaml:"color"`
	// ListResources prints each group component's resources
	ListResources bool `mapstructure:"list_resources" yaml:"list_resources"`
	// Width of text reports in columns (0 = terminal width)
	Width int `mapstructure:"width" yaml:"width"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is written (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum log level. Options: "debug", "info", "warn", "error"
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where cohort.log is written. Empty means stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the size at which the log file is rotated (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Pipeline names accepted in analysis.pipelines
const (
	PipelineGroups   = "groups"
	PipelineClusters = "clusters"
)

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Sheet:               "",
			ComponentColumn:     []string{"Component", "Name"},
			FirstResourceColumn: 0,
			LastResourceColumn:  -1,
			TotalMarker:         "total",
			Format:              "",
		},
		Grouping: GroupingConfig{
			ChunkSize:       0,
			MergeSingletons: false,
		},
		Analysis: AnalysisConfig{
			Parallel:  true,
			Pipelines: []string{PipelineGroups, PipelineClusters},
		},
		Output: OutputConfig{
			Format:        "text",
			Color:         "auto",
			ListResources: false,
			Width:         0,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("input.sheet", defaults.Input.Sheet)
	viper.SetDefault("input.component_column", defaults.Input.ComponentColumn)
	viper.SetDefault("input.first_resource_column", defaults.Input.FirstResourceColumn)
	viper.SetDefault("input.last_resource_column", defaults.Input.LastResourceColumn)
	viper.SetDefault("input.total_marker", defaults.Input.TotalMarker)
	viper.SetDefault("input.format", defaults.Input.Format)

	viper.SetDefault("grouping.chunk_size", defaults.Grouping.ChunkSize)
	viper.SetDefault("grouping.merge_singletons", defaults.Grouping.MergeSingletons)

	viper.SetDefault("analysis.parallel", defaults.Analysis.Parallel)
	viper.SetDefault("analysis.pipelines", defaults.Analysis.Pipelines)

	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)
	viper.SetDefault("output.list_resources", defaults.Output.ListResources)
	viper.SetDefault("output.width", defaults.Output.Width)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cohort")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cohort"
	}
	return filepath.Join(home, ".config", "cohort")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Runs reports whether the named pipeline is enabled
func (c *AnalysisConfig) Runs(pipeline string) bool {
	for _, p := range c.Pipelines {
		if p == pipeline {
			return true
		}
	}
	return false
}
