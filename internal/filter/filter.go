// Package filter evaluates user-supplied row predicates written in
// JavaScript (goja) or Tengo against enriched code records.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/itsmostafa/icdtree/internal/table"
)

// Language selects the scripting engine.
type Language string

const (
	LangJS    Language = "js"
	LangTengo Language = "tengo"
)

// ValidateLanguage parses a language name.
func ValidateLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(s)) {
	case LangJS, "javascript":
		return LangJS, nil
	case LangTengo:
		return LangTengo, nil
	default:
		return "", fmt.Errorf("unknown filter language: %q (valid options: js, tengo)", s)
	}
}

// DefaultTimeout bounds a single predicate evaluation.
const DefaultTimeout = time.Second

// Predicate decides whether a row is kept.
type Predicate interface {
	Match(row *table.Enriched) (bool, error)
}

// Variables lists the names bound for every evaluation.
var Variables = []string{
	"code", "description", "level", "header", "category", "top_level",
	"chapter", "chapter_range", "section", "section_range", "parents",
}

// New compiles expr for the given language. A zero timeout uses DefaultTimeout.
func New(lang Language, expr string, timeout time.Duration) (Predicate, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("filter expression is empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch lang {
	case LangJS, "":
		return newJSPredicate(expr, timeout)
	case LangTengo:
		return newTengoPredicate(expr, timeout)
	default:
		return nil, fmt.Errorf("unknown filter language: %q", lang)
	}
}

// vars returns the variable bindings for row, keyed by the names in Variables.
func vars(row *table.Enriched) map[string]any {
	parents := make([]any, 0, len(row.Parents))
	for _, p := range row.Parents {
		if p != "" {
			parents = append(parents, p)
		}
	}
	level := -1
	if row.Valid {
		level = row.IndentLevel()
	}
	return map[string]any{
		"code":          row.Code,
		"description":   row.Description,
		"level":         level,
		"header":        row.Header,
		"category":      row.Root(),
		"top_level":     row.TopLevel,
		"chapter":       row.Chapter.Name,
		"chapter_range": row.Chapter.Range,
		"section":       row.Section.Name,
		"section_range": row.Section.Range,
		"parents":       parents,
	}
}

// Apply keeps the rows p matches, preserving order.
func Apply(p Predicate, rows []table.Enriched) ([]table.Enriched, error) {
	kept := make([]table.Enriched, 0, len(rows))
	for i := range rows {
		ok, err := p.Match(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("filter failed on %q (order %d): %w", rows[i].Code, rows[i].Order, err)
		}
		if ok {
			kept = append(kept, rows[i])
		}
	}
	return kept, nil
}
