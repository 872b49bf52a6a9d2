package cmd

import (
	"fmt"

	"github.com/itsmostafa/icdtree/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "icdtree %s\n", info.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Go:     %s\n", info.GoVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "  Commit: %s\n", info.Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  Date:   %s\n", info.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
