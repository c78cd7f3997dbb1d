package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/Iron-Ham/cohort/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Group components by the resources they share",
	Long: `Cohort reads a component × resource usage table (CSV or XLSX) and
partitions it for migration planning: resources are ranked by how often they
are used together, packed into groups that each carry the components depending
only on them, and expanded into neighbour clusters and disjoint groups.

Every run reconciles its output against the input so that no component or
resource is lost or counted twice.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. An interrupt cancels the running analysis.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/cohort/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("COHORT")
	// Replace dots with underscores for nested keys in env vars
	// e.g., COHORT_GROUPING_CHUNK_SIZE for grouping.chunk_size
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
