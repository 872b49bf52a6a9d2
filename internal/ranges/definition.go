// Package ranges classifies codes against ordered chapter and section tables.
//
// Matching is first-match-wins in declared table order. A code matches a
// definition when Start <= code <= End, comparing strings byte-wise, or when
// the code starts with End. The second rule lets sub-codes of a range's
// closing category (B99 -> B991) fall inside the range, but it also lets an
// earlier definition capture a code whose prefix happens to equal that
// definition's End. Table order therefore changes results and must never be
// sorted.
package ranges

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRange is matched by every MalformedRangeError.
var ErrMalformedRange = errors.New("malformed range")

// MalformedRangeError describes a table row whose range cannot be used.
type MalformedRangeError struct {
	Source string
	Row    int
	Text   string
	Reason string
}

func (e *MalformedRangeError) Error() string {
	loc := e.Source
	if e.Row > 0 {
		loc = fmt.Sprintf("%s row %d", e.Source, e.Row)
	}
	if e.Text != "" {
		return fmt.Sprintf("malformed range in %s: %q: %s", loc, e.Text, e.Reason)
	}
	return fmt.Sprintf("malformed range in %s: %s", loc, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedRange) true.
func (e *MalformedRangeError) Is(target error) bool {
	return target == ErrMalformedRange
}

// Definition is one row of a chapter or section table.
type Definition struct {
	Label     string `json:"label"`
	RangeText string `json:"range"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// Single reports whether the definition names one code rather than an interval.
func (d Definition) Single() bool {
	return d.Start == d.End
}

var dashReplacer = strings.NewReplacer("\u2013", "-", "\u2014", "-")

// ParseDefinition splits rangeText into its boundaries. "A00-B99" yields
// Start A00 and End B99; a lone code is accepted as Start == End only when
// allowSingle is set. Boundaries are upper-cased with en and em dashes read
// as hyphens; RangeText keeps the trimmed text as written.
func ParseDefinition(label, rangeText string, allowSingle bool) (Definition, error) {
	raw := strings.TrimSpace(rangeText)
	text := dashReplacer.Replace(raw)
	def := Definition{Label: strings.TrimSpace(label), RangeText: raw}

	malformed := func(reason string) (Definition, error) {
		return Definition{}, &MalformedRangeError{Text: rangeText, Reason: reason}
	}

	if text == "" {
		return malformed("range is empty")
	}

	parts := strings.Split(text, "-")
	switch len(parts) {
	case 1:
		if !allowSingle {
			return malformed("expected START-END")
		}
		def.Start = strings.ToUpper(parts[0])
		def.End = def.Start
	case 2:
		def.Start = strings.ToUpper(strings.TrimSpace(parts[0]))
		def.End = strings.ToUpper(strings.TrimSpace(parts[1]))
		if def.Start == "" || def.End == "" {
			return malformed("missing start or end boundary")
		}
	default:
		return malformed("too many boundaries")
	}

	return def, nil
}
