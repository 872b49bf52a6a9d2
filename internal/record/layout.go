package record

import (
	"fmt"
	"strings"
)

// Span is a zero-based, half-open byte range within a line.
// An End of 0 means the field runs to the end of the line.
type Span struct {
	Start int `mapstructure:"start" yaml:"start"`
	End   int `mapstructure:"end" yaml:"end"`
}

// OpenEnded reports whether the span runs to the end of the line.
func (s Span) OpenEnded() bool {
	return s.End == 0
}

// extract returns the trimmed field text, or false if the line is too short.
func (s Span) extract(line string) (string, bool) {
	if s.OpenEnded() {
		if len(line) < s.Start {
			return "", false
		}
		return strings.TrimSpace(line[s.Start:]), true
	}
	if len(line) < s.End {
		return "", false
	}
	return strings.TrimSpace(line[s.Start:s.End]), true
}

// reach is the number of bytes a line must have for the span to be readable.
func (s Span) reach() int {
	if s.OpenEnded() {
		return s.Start
	}
	return s.End
}

func (s Span) validate(name string) error {
	if s.Start < 0 || s.End < 0 {
		return fmt.Errorf("%s span has negative offset: [%d, %d)", name, s.Start, s.End)
	}
	if !s.OpenEnded() && s.End <= s.Start {
		return fmt.Errorf("%s span is empty: [%d, %d)", name, s.Start, s.End)
	}
	return nil
}

// Layout declares where each field sits in a fixed-width line.
// Order, Header and ShortDescription are optional.
type Layout struct {
	Name             string
	Order            *Span
	Code             Span
	Header           *Span
	ShortDescription *Span
	Description      Span
}

// OrderFileLayout matches the CMS icd10cm_order_YYYY.txt listing.
var OrderFileLayout = Layout{
	Name:             "order",
	Order:            &Span{Start: 0, End: 5},
	Code:             Span{Start: 6, End: 13},
	Header:           &Span{Start: 14, End: 15},
	ShortDescription: &Span{Start: 16, End: 76},
	Description:      Span{Start: 77},
}

// CodesFileLayout matches the CMS icd10cm_codes_YYYY.txt listing,
// which has no order column and no header flag.
var CodesFileLayout = Layout{
	Name:        "codes",
	Code:        Span{Start: 0, End: 7},
	Description: Span{Start: 8},
}

// LayoutByName resolves a preset layout.
func LayoutByName(name string) (Layout, error) {
	switch strings.ToLower(name) {
	case "order", "":
		return OrderFileLayout, nil
	case "codes":
		return CodesFileLayout, nil
	default:
		return Layout{}, fmt.Errorf("unknown layout: %q (valid options: order, codes)", name)
	}
}

// HasHeader reports whether lines in this layout carry a header flag.
func (l Layout) HasHeader() bool {
	return l.Header != nil
}

// HasShortDescription reports whether lines carry a short description.
func (l Layout) HasShortDescription() bool {
	return l.ShortDescription != nil
}

// MinLength is the shortest line that still covers every configured field.
func (l Layout) MinLength() int {
	n := max(l.Code.reach(), l.Description.reach())
	for _, s := range []*Span{l.Order, l.Header, l.ShortDescription} {
		if s != nil {
			n = max(n, s.reach())
		}
	}
	return n
}

// Validate checks that every configured span is well formed.
func (l Layout) Validate() error {
	if err := l.Code.validate("code"); err != nil {
		return err
	}
	if err := l.Description.validate("description"); err != nil {
		return err
	}
	optional := map[string]*Span{
		"order":             l.Order,
		"header":            l.Header,
		"short description": l.ShortDescription,
	}
	for _, name := range []string{"order", "header", "short description"} {
		if s := optional[name]; s != nil {
			if err := s.validate(name); err != nil {
				return err
			}
		}
	}
	return nil
}
