// Package pipeline runs a full build: parse the listing, reconstruct the
// hierarchy, resolve descriptions, classify, filter and compose.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itsmostafa/icdtree/internal/filter"
	"github.com/itsmostafa/icdtree/internal/hierarchy"
	"github.com/itsmostafa/icdtree/internal/ranges"
	"github.com/itsmostafa/icdtree/internal/record"
	"github.com/itsmostafa/icdtree/internal/table"
)

// Options configures a Run.
type Options struct {
	InputPath string
	Layout    record.Layout
	EmptyCode record.EmptyCodePolicy
	Malformed record.MalformedPolicy

	// ChaptersPath empty means the built-in chapter table.
	ChaptersPath string
	Chapters     ranges.LoadOptions

	// SectionsPath empty means every code is section-Unclassified.
	SectionsPath string
	Sections     ranges.LoadOptions

	Columns []string
	Filter  filter.Predicate
	Workers int
	Logger  *slog.Logger
}

// Result is everything a build produced.
type Result struct {
	RunID     string
	Table     *table.Composed
	Tree      []*hierarchy.TreeNode
	TreeNodes int
	Records   int
	Kept      int
	MaxIndent int
	Shape     table.Shape
	Skipped   []*record.MalformedRecordError

	UnclassifiedChapters int
	UnclassifiedSections int

	Duration time.Duration
}

// Missing lists requested columns that were dropped.
func (r *Result) Missing() []string {
	if r.Table == nil {
		return nil
	}
	return r.Table.Missing
}

// Tables holds the two classifiers for a build.
type Tables struct {
	Chapters *ranges.Table
	Sections *ranges.Table
}

// LoadTables reads the chapter and section tables named in opts.
func LoadTables(opts Options) (Tables, error) {
	var t Tables
	var err error

	if opts.ChaptersPath == "" {
		t.Chapters, err = ranges.BuiltinChapters()
	} else {
		co := opts.Chapters
		co.Kind = ranges.KindChapter
		t.Chapters, err = ranges.LoadFile(opts.ChaptersPath, co)
	}
	if err != nil {
		return Tables{}, fmt.Errorf("loading chapters: %w", err)
	}

	if opts.SectionsPath != "" {
		so := opts.Sections
		so.Kind = ranges.KindSection
		t.Sections, err = ranges.LoadFile(opts.SectionsPath, so)
		if err != nil {
			return Tables{}, fmt.Errorf("loading sections: %w", err)
		}
	}
	return t, nil
}

// Parse reads the code listing at opts.InputPath.
func Parse(opts Options) (*record.Result, error) {
	parser, err := record.NewParser(opts.Layout,
		record.WithEmptyCodePolicy(opts.EmptyCode),
		record.WithMalformedPolicy(opts.Malformed),
	)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	res, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", opts.InputPath, err)
	}
	return res, nil
}

// Run loads every input named in opts and builds the table.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	logger := opts.logger()

	tables, err := LoadTables(opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("range tables loaded",
		"chapters", tables.Chapters.Len(),
		"sections", tables.Sections.Len(),
	)

	parsed, err := Parse(opts)
	if err != nil {
		return nil, err
	}
	for _, s := range parsed.Skipped {
		logger.Warn("skipped malformed line", "line", s.Line, "reason", s.Reason)
	}

	res, err := Process(ctx, parsed.Records, tables, opts)
	if err != nil {
		return nil, err
	}
	res.Skipped = parsed.Skipped
	res.Duration = time.Since(start)
	return res, nil
}

// Process builds the composed table from already-parsed records.
func Process(ctx context.Context, records []record.CodeRecord, tables Tables, opts Options) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.New().String(), Records: len(records)}
	logger := opts.logger().With("run_id", res.RunID)

	// The resolver index does not depend on the fold, so build both at once.
	var resolver *hierarchy.Resolver
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resolver = hierarchy.NewResolver(records)
	}()
	h := hierarchy.Build(records)
	wg.Wait()
	resolver.Resolve(h)

	res.MaxIndent = h.MaxIndent
	res.Tree = hierarchy.Tree(h)
	res.TreeNodes = hierarchy.CountNodes(res.Tree)
	logger.Debug("hierarchy built",
		"nodes", len(h.Nodes),
		"tree_nodes", res.TreeNodes,
		"max_indent", h.MaxIndent,
		"codes", resolver.Len(),
	)

	rows, err := classify(ctx, h.Nodes, tables, opts.Workers)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Chapter.IsUnclassified() {
			res.UnclassifiedChapters++
		}
		if rows[i].Section.IsUnclassified() {
			res.UnclassifiedSections++
		}
	}

	if opts.Filter != nil {
		rows, err = filter.Apply(opts.Filter, rows)
		if err != nil {
			return nil, err
		}
	}
	res.Kept = len(rows)

	res.Shape = table.Shape{
		MaxIndent:           h.MaxIndent,
		HasHeader:           opts.Layout.HasHeader(),
		HasShortDescription: opts.Layout.HasShortDescription(),
	}
	res.Table = table.Compose(rows, res.Shape, opts.Columns)
	for _, name := range res.Table.Missing {
		logger.Warn("requested column not available", "column", name)
	}

	res.Duration = time.Since(start)
	logger.Info("build complete",
		"records", res.Records,
		"kept", res.Kept,
		"max_indent", res.MaxIndent,
		"unclassified_chapters", res.UnclassifiedChapters,
		"unclassified_sections", res.UnclassifiedSections,
		"duration", res.Duration,
	)
	return res, nil
}

// chunkSize is the number of rows a worker classifies per job.
const chunkSize = 512

// classify attaches chapter and section results to every node. Work is
// split into chunks over a fixed pool; each row is written to its own slot
// so output order matches input order.
func classify(ctx context.Context, nodes []hierarchy.Node, tables Tables, workers int) ([]table.Enriched, error) {
	rows := make([]table.Enriched, len(nodes))
	if len(nodes) == 0 {
		return rows, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lo := range jobs {
				hi := min(lo+chunkSize, len(nodes))
				for i := lo; i < hi; i++ {
					n := nodes[i]
					rows[i] = table.Enriched{
						Node:    n,
						Chapter: tables.Chapters.Classify(n.Code),
						Section: tables.Sections.Classify(n.Code),
					}
				}
			}
		}()
	}

	var err error
queue:
	for lo := 0; lo < len(nodes); lo += chunkSize {
		select {
		case jobs <- lo:
		case <-ctx.Done():
			err = ctx.Err()
			break queue
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
