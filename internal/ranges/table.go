package ranges

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which table a set of definitions belongs to.
type Kind string

const (
	// KindChapter tables must use START-END ranges.
	KindChapter Kind = "chapter"
	// KindSection tables also accept a single code per row.
	KindSection Kind = "section"
)

// ValidateKind parses a kind name.
func ValidateKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindChapter:
		return KindChapter, nil
	case KindSection:
		return KindSection, nil
	default:
		return "", fmt.Errorf("unknown table kind: %q (valid options: chapter, section)", s)
	}
}

// AllowsSingle reports whether rows of this kind may name a single code.
func (k Kind) AllowsSingle() bool {
	return k == KindSection
}

// Result is a classification outcome.
type Result struct {
	Name  string `json:"name"`
	Range string `json:"range"`
}

// Unclassified is returned when no definition matches.
var Unclassified = Result{Name: "Unclassified", Range: "NA"}

// IsUnclassified reports whether r is the Unclassified sentinel.
func (r Result) IsUnclassified() bool {
	return r == Unclassified
}

// Rule names how a code matched a definition.
type Rule string

const (
	RuleNone     Rule = ""
	RuleExact    Rule = "exact"
	RuleInterval Rule = "interval"
	RulePrefix   Rule = "prefix"
)

// Match describes which definition a code matched and why.
type Match struct {
	Index int
	Rule  Rule
}

// Table is an ordered list of definitions. Order is significant.
type Table struct {
	Kind        Kind
	Source      string
	Definitions []Definition
}

// NewTable builds a table from label/range pairs in the given order.
func NewTable(kind Kind, source string, rows [][2]string) (*Table, error) {
	t := &Table{Kind: kind, Source: source}
	for i, row := range rows {
		if err := t.Add(row[0], row[1]); err != nil {
			var merr *MalformedRangeError
			if errors.As(err, &merr) {
				merr.Source = source
				merr.Row = i + 1
			}
			return nil, err
		}
	}
	return t, nil
}

// Add parses and appends one definition.
func (t *Table) Add(label, rangeText string) error {
	def, err := ParseDefinition(label, rangeText, t.Kind.AllowsSingle())
	if err != nil {
		return err
	}
	t.Definitions = append(t.Definitions, def)
	return nil
}

// Len is the number of definitions.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Definitions)
}

// Classify returns the first definition matching code, or Unclassified.
func (t *Table) Classify(code string) Result {
	res, _ := t.Lookup(code)
	return res
}

// Lookup is Classify plus the index and rule of the matching definition.
// The index is -1 when nothing matched.
func (t *Table) Lookup(code string) (Result, Match) {
	if t == nil || code == "" {
		return Unclassified, Match{Index: -1}
	}
	for i, def := range t.Definitions {
		if def.Start <= code && code <= def.End {
			rule := RuleInterval
			if def.Single() {
				rule = RuleExact
			}
			return Result{Name: def.Label, Range: def.RangeText}, Match{Index: i, Rule: rule}
		}
		if strings.HasPrefix(code, def.End) {
			return Result{Name: def.Label, Range: def.RangeText}, Match{Index: i, Rule: RulePrefix}
		}
	}
	return Unclassified, Match{Index: -1}
}
