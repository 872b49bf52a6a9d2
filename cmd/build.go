package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/itsmostafa/icdtree/internal/config"
	"github.com/itsmostafa/icdtree/internal/filter"
	"github.com/itsmostafa/icdtree/internal/pipeline"
	"github.com/itsmostafa/icdtree/internal/ranges"
	"github.com/itsmostafa/icdtree/internal/record"
	"github.com/itsmostafa/icdtree/internal/report"
	"github.com/itsmostafa/icdtree/internal/table"
	"github.com/itsmostafa/icdtree/internal/watch"
	"github.com/spf13/cobra"
)

var buildWatch bool
var buildQuiet bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the hierarchy table from a code listing",
	Long: `Parse a CMS order or codes file, reconstruct each code's ancestors, classify
it into a chapter and section, and write the composed table.

Requested columns that do not exist for this input (for example LEVEL_5_PARENT
when the deepest code has indent 3) are reported and left out. The column
name "hierarchy" selects the classic layout: chapter and section, four
ancestor levels, then ICD_CODE, DESCRIPTION, INDENT_LEVEL and HEADER_FLAG.`,
	Example: `  icdtree build -i icd10cm_order_2025.txt --sections sections.csv -o tree.csv
  icdtree build -i icd10cm_order_2025.txt --columns ICD_CODE,LEVEL_1_PARENT,CHAPTER_NAME -o out.csv
  icdtree build -i icd10cm_order_2025.txt --columns hierarchy -o hierarchy.xlsx
  icdtree build -i icd10cm_order_2025.txt --filter 'chapter_range == "C00-D49" && !header'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg := cm.Get()
		logger, err := newLogger(cfg.Log.Level)
		if err != nil {
			return err
		}

		if err := runBuild(cmd, cfg, logger); err != nil {
			if !buildWatch {
				return err
			}
			report.FormatError(cmd.ErrOrStderr(), err)
		}
		if !buildWatch {
			return nil
		}

		if cm.ConfigFile() != "" {
			cm.OnChange(func(*config.Config) {
				logger.Info("config reloaded", "file", cm.ConfigFile())
			})
			cm.WatchConfig(func(err error) {
				logger.Warn("config reload rejected", "error", err)
			})
		}
		w, err := watch.New([]string{cfg.Input.Path, cfg.Tables.Chapters.Path, cfg.Tables.Sections.Path, cm.ConfigFile()}, 0, logger)
		if err != nil {
			return err
		}
		logger.Info("watching for changes", "files", w.Files())
		return w.Run(cmd.Context(), func(ctx context.Context) error {
			return runBuild(cmd, cm.Get(), logger)
		})
	},
}

func init() {
	f := buildCmd.Flags()
	f.StringP("input", "i", "", "fixed-width code listing to read")
	f.String("layout", "order", "input layout (order, codes)")
	f.String("chapters", "", "chapter range table (default: built-in ICD-10-CM chapters)")
	f.String("sections", "", "section range table (csv, tsv, xlsx, yaml, json)")
	f.String("chapters-sheet", "", "worksheet to read when --chapters is an XLSX file")
	f.String("sections-sheet", "", "worksheet to read when --sections is an XLSX file")
	f.StringP("out", "o", "", "output file (default: stdout)")
	f.String("format", "", "output format (csv, tsv, xlsx, jsonl, tree); default from --out extension")
	f.String("delimiter", "", "field separator for csv output")
	f.StringSlice("columns", nil, "columns to output, comma separated (default: all)")
	f.String("filter", "", "keep only rows for which this expression is true (variables: "+strings.Join(filter.Variables, ", ")+")")
	f.String("filter-lang", "js", "filter language (js, tengo)")
	f.Int("workers", 0, "classification workers (0 = one per CPU)")
	f.String("on-malformed", "abort", "what to do with undecodable lines (abort, skip)")
	f.String("empty-code", "mark", "what to do with blank code fields (mark, drop, reject)")
	f.BoolVar(&buildWatch, "watch", false, "rebuild whenever an input, table or config file changes")
	f.BoolVarP(&buildQuiet, "quiet", "q", false, "do not print the build summary")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	opts, out, err := buildOptions(cfg, logger)
	if err != nil {
		return err
	}
	out.Stdout = cmd.OutOrStdout()

	if !buildQuiet {
		report.FormatHeader(cmd.ErrOrStderr(), report.Header{
			Input:    opts.InputPath,
			Layout:   opts.Layout.Name,
			Chapters: opts.ChaptersPath,
			Sections: opts.SectionsPath,
			Output:   out.Path,
			Format:   string(out.ResolveFormat()),
		})
	}

	res, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if err := pipeline.Emit(res, out); err != nil {
		return err
	}

	if !buildQuiet {
		report.FormatSummary(cmd.ErrOrStderr(), res)
	}
	return nil
}

// buildOptions turns a validated config into pipeline settings.
func buildOptions(cfg *config.Config, logger *slog.Logger) (pipeline.Options, pipeline.OutputOptions, error) {
	if cfg.Input.Path == "" {
		return pipeline.Options{}, pipeline.OutputOptions{}, fmt.Errorf("no input file: pass --input or set input.path")
	}

	layout, err := cfg.Layout()
	if err != nil {
		return pipeline.Options{}, pipeline.OutputOptions{}, err
	}
	// Validate has already accepted these.
	emptyCode, _ := record.ValidateEmptyCodePolicy(cfg.Input.EmptyCode)
	malformed, _ := record.ValidateMalformedPolicy(cfg.Input.OnMalformed)
	delim, _ := cfg.Delimiter()

	opts := pipeline.Options{
		InputPath:    cfg.Input.Path,
		Layout:       layout,
		EmptyCode:    emptyCode,
		Malformed:    malformed,
		ChaptersPath: cfg.Tables.Chapters.Path,
		Chapters: ranges.LoadOptions{
			LabelColumn: cfg.Tables.Chapters.LabelColumn,
			Sheet:       cfg.Tables.Chapters.Sheet,
		},
		SectionsPath: cfg.Tables.Sections.Path,
		Sections: ranges.LoadOptions{
			LabelColumn: cfg.Tables.Sections.LabelColumn,
			Sheet:       cfg.Tables.Sections.Sheet,
		},
		Columns: columnList(cfg.Output.Columns),
		Workers: cfg.Workers,
		Logger:  logger,
	}

	if cfg.Filter.Expr != "" {
		lang, _ := filter.ValidateLanguage(cfg.Filter.Lang)
		opts.Filter, err = filter.New(lang, cfg.Filter.Expr, cfg.FilterTimeout())
		if err != nil {
			return pipeline.Options{}, pipeline.OutputOptions{}, fmt.Errorf("invalid filter: %w", err)
		}
	}

	out := pipeline.OutputOptions{
		Path: cfg.Output.Path,
		WriteOptions: table.WriteOptions{
			Delimiter: delim,
			Sheet:     cfg.Output.Sheet,
		},
	}
	if cfg.Output.Format != "" {
		out.Format, _ = table.ValidateFormat(cfg.Output.Format)
	}
	return opts, out, nil
}

// columnList accepts both YAML lists and a single comma-separated string.
func columnList(cols []string) []string {
	var out []string
	for _, c := range cols {
		out = append(out, table.ParseColumns(c)...)
	}
	return out
}
