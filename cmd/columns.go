package cmd

import (
	"fmt"

	"github.com/itsmostafa/icdtree/internal/hierarchy"
	"github.com/itsmostafa/icdtree/internal/pipeline"
	"github.com/itsmostafa/icdtree/internal/record"
	"github.com/itsmostafa/icdtree/internal/table"
	"github.com/spf13/cobra"
)

var columnsMaxIndent int

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the columns a build can produce",
	Long: `List every column name available to --columns. The number of LEVEL_n
columns depends on the deepest code in the listing: pass --input to measure it,
or --max-indent to assume a depth.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg := cm.Get()
		layout, err := cfg.Layout()
		if err != nil {
			return err
		}

		maxIndent := columnsMaxIndent
		if cfg.Input.Path != "" && !cmd.Flags().Changed("max-indent") {
			parsed, err := pipeline.Parse(pipeline.Options{
				InputPath: cfg.Input.Path,
				Layout:    layout,
				EmptyCode: record.EmptyCodeMark,
				Malformed: record.MalformedSkip,
			})
			if err != nil {
				return err
			}
			maxIndent = hierarchy.MaxIndent(parsed.Records)
		}

		shape := table.Shape{
			MaxIndent:           maxIndent,
			HasHeader:           layout.HasHeader(),
			HasShortDescription: layout.HasShortDescription(),
		}
		for _, name := range table.Available(shape) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	columnsCmd.Flags().StringP("input", "i", "", "code listing to measure")
	columnsCmd.Flags().String("layout", "order", "input layout (order, codes)")
	columnsCmd.Flags().IntVar(&columnsMaxIndent, "max-indent", 4, "assumed deepest indent level")
	rootCmd.AddCommand(columnsCmd)
}
