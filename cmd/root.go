package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/itsmostafa/icdtree/internal/config"
	"github.com/itsmostafa/icdtree/internal/version"
	"github.com/spf13/cobra"
)

var cfgFile string
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "icdtree",
	Short: "Build ICD-10-CM hierarchy tables from CMS code listings",
	Long: `icdtree reads a fixed-width ICD-10-CM code listing, reconstructs the parent
chain of every code from its length, classifies each code into a chapter and
section, and writes one flat row per code.

Chapters default to the built-in ICD-10-CM chapter table. Sections come from
a CSV, TSV, XLSX or YAML range table given with --sections.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version.Get().Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("icdtree %s\n", version.Get()))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./icdtree.yaml or ~/.icdtree/icdtree.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig reads configuration with cmd's flags bound on top.
func loadConfig(cmd *cobra.Command) (*config.Manager, error) {
	return config.NewManager(cfgFile, cmd.Flags())
}

// newLogger writes text logs to stderr so stdout stays clean for table output.
func newLogger(level string) (*slog.Logger, error) {
	l, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// Execute runs the root command
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
