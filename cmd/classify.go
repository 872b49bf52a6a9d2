package cmd

import (
	"strings"

	"github.com/itsmostafa/icdtree/internal/pipeline"
	"github.com/itsmostafa/icdtree/internal/ranges"
	"github.com/itsmostafa/icdtree/internal/report"
	"github.com/spf13/cobra"
)

var classifyExplain bool

var classifyCmd = &cobra.Command{
	Use:   "classify CODE...",
	Short: "Show the chapter and section of individual codes",
	Long: `Classify one or more codes against the chapter and section tables without
reading a code listing. Tables are searched in declared order and the first
matching row wins; --explain shows which row matched and by which rule.`,
	Example: `  icdtree classify A001 D001 --sections sections.csv --explain`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		tables, err := pipeline.LoadTables(pipeline.Options{
			ChaptersPath: cfg.Tables.Chapters.Path,
			Chapters:     ranges.LoadOptions{LabelColumn: cfg.Tables.Chapters.LabelColumn, Sheet: cfg.Tables.Chapters.Sheet},
			SectionsPath: cfg.Tables.Sections.Path,
			Sections:     ranges.LoadOptions{LabelColumn: cfg.Tables.Sections.LabelColumn, Sheet: cfg.Tables.Sections.Sheet},
		})
		if err != nil {
			return err
		}

		rows := make([]report.Classification, len(args))
		for i, arg := range args {
			code := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(arg, ".", "")))
			rows[i].Code = code
			rows[i].Chapter, rows[i].ChapterMatch = tables.Chapters.Lookup(code)
			rows[i].Section, rows[i].SectionMatch = tables.Sections.Lookup(code)
		}
		report.FormatClassification(cmd.OutOrStdout(), rows, classifyExplain)
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("chapters", "", "chapter range table (default: built-in ICD-10-CM chapters)")
	classifyCmd.Flags().String("sections", "", "section range table")
	classifyCmd.Flags().BoolVar(&classifyExplain, "explain", false, "show the matching row and rule")
	rootCmd.AddCommand(classifyCmd)
}
