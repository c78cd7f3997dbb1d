package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/cohort/internal/config"
	"github.com/Iron-Ham/cohort/internal/errors"
	"github.com/Iron-Ham/cohort/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// executeCommand runs the root command with args and returns captured output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of c and its subcommands to its default so
// that values parsed by one test do not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolateConfig points the config directory at an empty temp dir.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "cohort")
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "cohort" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "cohort")
	}

	expectedCmds := []string{"analyze", "groups", "clusters", "commonality", "config"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteFile(t, "inventory.csv", testutil.InventoryCSV)

	output, err := executeCommand(t, "analyze", path, "--first-col", "2", "--format", "json")
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, output)
	}

	var doc struct {
		Components int      `json:"components"`
		Resources  int      `json:"resources"`
		Unused     []string `json:"unused_resources"`
		NoUsage    []string `json:"components_with_no_usage"`
		Groups     []struct {
			Resources []string `json:"resources"`
		} `json:"groups"`
		Clusters *struct{} `json:"clusters"`
	}
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}

	if doc.Components != 4 || doc.Resources != 4 {
		t.Errorf("components, resources = %d, %d, want 4, 4", doc.Components, doc.Resources)
	}
	if len(doc.Unused) != 1 || doc.Unused[0] != "F9" {
		t.Errorf("unused = %v, want [F9]", doc.Unused)
	}
	if len(doc.NoUsage) != 1 || doc.NoUsage[0] != "D" {
		t.Errorf("no usage = %v, want [D]", doc.NoUsage)
	}
	if len(doc.Groups) != 2 {
		t.Errorf("got %d groups, want 2", len(doc.Groups))
	}
	if doc.Clusters == nil {
		t.Error("clusters missing from default analysis")
	}
}

func TestPipelineCommands(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteFile(t, "inventory.csv", testutil.InventoryCSV)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "groups",
			args:     []string{"groups", path, "--first-col", "2", "--list-resources"},
			contains: []string{"Groups (2)", "- A (2): F1, F2"},
			excludes: []string{"Clusters (", "Commonality matrix"},
		},
		{
			name:     "clusters",
			args:     []string{"clusters", path, "--first-col", "2"},
			contains: []string{"Clusters (2)", "Disjoint groups (0)"},
			excludes: []string{"Groups ("},
		},
		{
			name:     "commonality",
			args:     []string{"commonality", path, "--first-col", "2"},
			contains: []string{"Commonality matrix", "Resource ranking (4)", "no pipelines ran"},
			excludes: []string{"Groups (", "Clusters ("},
		},
		{
			name:     "analyze with matrix",
			args:     []string{"analyze", path, "--first-col", "2", "--matrix"},
			contains: []string{"Commonality matrix", "Groups (2)", "Clusters (2)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := executeCommand(t, tt.args...)
			if err != nil {
				t.Fatalf("%s failed: %v\n%s", tt.name, err, output)
			}
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output missing %q:\n%s", want, output)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(output, unwanted) {
					t.Errorf("output should not contain %q:\n%s", unwanted, output)
				}
			}
		})
	}
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteFile(t, "inventory.csv", testutil.InventoryCSV)

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCommand(t, "analyze", filepath.Join(t.TempDir(), "absent.csv"))
		if !errors.Is(err, errors.ErrUnreadableInput) {
			t.Errorf("error = %v, want ErrUnreadableInput", err)
		}
	})

	t.Run("column range", func(t *testing.T) {
		_, err := executeCommand(t, "analyze", path, "--first-col", "9")
		if !errors.Is(err, errors.ErrColumnRange) {
			t.Errorf("error = %v, want ErrColumnRange", err)
		}
	})

	t.Run("invalid format flag", func(t *testing.T) {
		_, err := executeCommand(t, "analyze", path, "--format", "xml")
		var verrs config.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("error = %v, want config.ValidationErrors", err)
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		if _, err := executeCommand(t, "analyze"); err == nil {
			t.Error("analyze without a table should fail")
		}
	})
}

func TestAnalyzeCommand_ConfigFile(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteFile(t, "inventory.csv", testutil.InventoryCSV)
	cfgPath := testutil.WriteFile(t, "cohort.yaml", `input:
  first_resource_column: 2
analysis:
  pipelines: [groups]
output:
  format: yaml
`)

	output, err := executeCommand(t, "--config", cfgPath, "analyze", path)
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "run_id:") {
		t.Errorf("expected YAML output, got:\n%s", output)
	}
	if strings.Contains(output, "clusters:") {
		t.Errorf("clusters pipeline should be disabled by the config file:\n%s", output)
	}
}

func TestAnalyzeCommand_Logging(t *testing.T) {
	isolateConfig(t)
	logDir := t.TempDir()
	t.Setenv("COHORT_LOGGING_ENABLED", "true")
	t.Setenv("COHORT_LOGGING_DIR", logDir)
	path := testutil.WriteFile(t, "inventory.csv", testutil.InventoryCSV)

	if output, err := executeCommand(t, "analyze", path, "--first-col", "2"); err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, output)
	}

	data, err := os.ReadFile(filepath.Join(logDir, "cohort.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	for _, want := range []string{`"msg":"table loaded"`, `"msg":"analysis complete"`, `"run_id"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %s:\n%s", want, data)
		}
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addInputFlags(cmd)
	cmd.Flags().StringVar(&flagFormat, "format", "", "")
	cmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "")
	cmd.Flags().BoolVar(&flagMerge, "merge", false, "")

	if err := cmd.Flags().Parse([]string{"--sheet", "Batch", "--chunk-size", "25"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg := config.Default()
	cfg.Grouping.MergeSingletons = true
	cfg.Output.Format = "json"
	applyFlagOverrides(cmd, cfg)

	if cfg.Input.Sheet != "Batch" {
		t.Errorf("Sheet = %q, want %q", cfg.Input.Sheet, "Batch")
	}
	if cfg.Grouping.ChunkSize != 25 {
		t.Errorf("ChunkSize = %d, want 25", cfg.Grouping.ChunkSize)
	}
	if !cfg.Grouping.MergeSingletons {
		t.Error("MergeSingletons overridden by a flag that was not set")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Format = %q, want config value %q", cfg.Output.Format, "json")
	}
}

func TestAnalysisConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Pipelines = []string{config.PipelineClusters}

	tests := []struct {
		name     string
		mode     mode
		groups   bool
		clusters bool
	}{
		{"configured", modeConfigured, false, true},
		{"groups", modeGroups, true, false},
		{"clusters", modeClusters, false, true},
		{"commonality", modeCommonality, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analysisConfig(cfg, tt.mode)
			if got.Groups != tt.groups || got.Clusters != tt.clusters {
				t.Errorf("analysisConfig() groups, clusters = %v, %v, want %v, %v", got.Groups, got.Clusters, tt.groups, tt.clusters)
			}
		})
	}
}

func TestConfigCommands(t *testing.T) {
	dir := isolateConfig(t)

	output, err := executeCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(output, filepath.Join(dir, "config.yaml")) {
		t.Errorf("config path output missing %s:\n%s", dir, output)
	}

	if _, err := executeCommand(t, "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if _, err := executeCommand(t, "config", "init"); err == nil {
		t.Error("second config init should fail")
	}

	output, err = executeCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"Config file: " + filepath.Join(dir, "config.yaml"), "chunk_size: 0", "pipelines:"} {
		if !strings.Contains(output, want) {
			t.Errorf("config show output missing %q:\n%s", want, output)
		}
	}
}
