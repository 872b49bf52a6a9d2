package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/itsmostafa/icdtree/internal/filter"
	"github.com/itsmostafa/icdtree/internal/record"
	"github.com/itsmostafa/icdtree/internal/table"
)

// Config is the full icdtree configuration.
type Config struct {
	Input   InputCfg  `mapstructure:"input" yaml:"input"`
	Tables  TablesCfg `mapstructure:"tables" yaml:"tables"`
	Output  OutputCfg `mapstructure:"output" yaml:"output"`
	Filter  FilterCfg `mapstructure:"filter" yaml:"filter"`
	Workers int       `mapstructure:"workers" yaml:"workers"` // 0 = one per CPU
	Log     LogCfg    `mapstructure:"log" yaml:"log"`
}

// InputCfg describes the fixed-width code listing.
type InputCfg struct {
	Path        string   `mapstructure:"path" yaml:"path"`
	Layout      string   `mapstructure:"layout" yaml:"layout"` // "order" or "codes"
	Spans       SpansCfg `mapstructure:"spans" yaml:"spans,omitempty"`
	EmptyCode   string   `mapstructure:"empty_code" yaml:"empty_code"`     // mark, drop, reject
	OnMalformed string   `mapstructure:"on_malformed" yaml:"on_malformed"` // abort, skip
}

// SpansCfg overrides individual field offsets of the chosen layout.
type SpansCfg struct {
	Order            *record.Span `mapstructure:"order" yaml:"order,omitempty"`
	Code             *record.Span `mapstructure:"code" yaml:"code,omitempty"`
	Header           *record.Span `mapstructure:"header" yaml:"header,omitempty"`
	ShortDescription *record.Span `mapstructure:"short_description" yaml:"short_description,omitempty"`
	Description      *record.Span `mapstructure:"description" yaml:"description,omitempty"`
}

// TablesCfg locates the chapter and section range tables.
type TablesCfg struct {
	Chapters TableCfg `mapstructure:"chapters" yaml:"chapters"`
	Sections TableCfg `mapstructure:"sections" yaml:"sections"`
}

// TableCfg locates one range table. An empty chapters path uses the
// built-in ICD-10-CM chapter table.
type TableCfg struct {
	Path        string `mapstructure:"path" yaml:"path"`
	LabelColumn string `mapstructure:"label_column" yaml:"label_column,omitempty"`
	Sheet       string `mapstructure:"sheet" yaml:"sheet,omitempty"`
}

// OutputCfg controls the composed table.
type OutputCfg struct {
	Path      string   `mapstructure:"path" yaml:"path"`     // "" or "-" = stdout
	Format    string   `mapstructure:"format" yaml:"format"` // "" = from the path extension
	Delimiter string   `mapstructure:"delimiter" yaml:"delimiter,omitempty"`
	Sheet     string   `mapstructure:"sheet" yaml:"sheet,omitempty"`
	Columns   []string `mapstructure:"columns" yaml:"columns,omitempty"`
}

// FilterCfg holds an optional row predicate.
type FilterCfg struct {
	Expr      string `mapstructure:"expr" yaml:"expr,omitempty"`
	Lang      string `mapstructure:"lang" yaml:"lang"`
	TimeoutMS int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
}

// LogCfg controls slog output.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Input: InputCfg{
			Layout:      "order",
			EmptyCode:   "mark",
			OnMalformed: "abort",
		},
		Output: OutputCfg{
			Sheet: table.DefaultSheet,
		},
		Filter: FilterCfg{
			Lang:      "js",
			TimeoutMS: 1000,
		},
		Log: LogCfg{
			Level: "info",
		},
	}
}

// Validate checks enumerated settings and span overrides.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Layout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := record.ValidateEmptyCodePolicy(c.Input.EmptyCode); err != nil {
		errs = append(errs, err)
	}
	if _, err := record.ValidateMalformedPolicy(c.Input.OnMalformed); err != nil {
		errs = append(errs, err)
	}
	if c.Output.Format != "" {
		if _, err := table.ValidateFormat(c.Output.Format); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.Delimiter(); err != nil {
		errs = append(errs, err)
	}
	if _, err := filter.ValidateLanguage(c.Filter.Lang); err != nil {
		errs = append(errs, err)
	}
	if c.Filter.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("filter.timeout_ms must not be negative: %d", c.Filter.TimeoutMS))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative: %d", c.Workers))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Layout resolves the preset layout and applies any span overrides.
func (c *Config) Layout() (record.Layout, error) {
	l, err := record.LayoutByName(c.Input.Layout)
	if err != nil {
		return record.Layout{}, err
	}
	sp := c.Input.Spans
	if sp.Order != nil {
		l.Order = sp.Order
	}
	if sp.Code != nil {
		l.Code = *sp.Code
	}
	if sp.Header != nil {
		l.Header = sp.Header
	}
	if sp.ShortDescription != nil {
		l.ShortDescription = sp.ShortDescription
	}
	if sp.Description != nil {
		l.Description = *sp.Description
	}
	if err := l.Validate(); err != nil {
		return record.Layout{}, err
	}
	return l, nil
}

// Delimiter returns the output separator rune. "tab" and `\t` mean a tab;
// empty means the format default.
func (c *Config) Delimiter() (rune, error) {
	d := c.Output.Delimiter
	switch strings.ToLower(d) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(d) != 1 {
		return 0, fmt.Errorf("output.delimiter must be a single character: %q", d)
	}
	r, _ := utf8.DecodeRuneInString(d)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("output.delimiter cannot be %q", d)
	}
	return r, nil
}

// FilterTimeout is the per-row predicate budget.
func (c *Config) FilterTimeout() time.Duration {
	return time.Duration(c.Filter.TimeoutMS) * time.Millisecond
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q (valid options: debug, info, warn, error)", s)
	}
}
