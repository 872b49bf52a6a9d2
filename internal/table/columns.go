// Package table composes enriched code records into an output table and
// writes it as CSV, XLSX, JSON Lines or a nested JSON tree.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/itsmostafa/icdtree/internal/hierarchy"
	"github.com/itsmostafa/icdtree/internal/ranges"
)

// Enriched is a record with its ancestry and both classifications.
type Enriched struct {
	hierarchy.Node
	Chapter ranges.Result
	Section ranges.Result
}

// Column names produced by the composer.
const (
	ColOrder            = "ORDER"
	ColCode             = "ICD_CODE"
	ColDescription      = "DESCRIPTION"
	ColShortDescription = "SHORT_DESCRIPTION"
	ColHeader           = "HEADER_FLAG"
	ColIndentLevel      = "INDENT_LEVEL"
	ColTopLevelCode     = "TOP_LEVEL_CODE"
	ColTopLevelDesc     = "TOP_LEVEL_DESC"
	ColChapter          = "CHAPTER_NAME"
	ColChapterRange     = "CHAPTER_RANGE"
	ColSection          = "SECTION_NAME"
	ColSectionRange     = "SECTION_RANGE"
)

// aliases are short spellings accepted in a column request.
var aliases = map[string]string{
	"CODE":    ColCode,
	"HEADER":  ColHeader,
	"CHAPTER": ColChapter,
	"SECTION": ColSection,
}

// PresetHierarchy names the classic hierarchy workbook layout.
const PresetHierarchy = "HIERARCHY"

// hierarchyLevels is the fixed ancestor depth of the hierarchy layout.
const hierarchyLevels = 4

// HierarchyColumns is the column list of the hierarchy layout: both
// classifications, four ancestor levels, then the code itself.
func HierarchyColumns() []string {
	cols := []string{ColOrder, ColChapterRange, ColChapter, ColSectionRange, ColSection}
	for d := 1; d <= hierarchyLevels; d++ {
		cols = append(cols, ParentColumn(d), ParentDescColumn(d))
	}
	return append(cols, ColCode, ColDescription, ColIndentLevel, ColHeader)
}

// ExpandPresets replaces any preset name in requested with its columns.
func ExpandPresets(requested []string) []string {
	var out []string
	for _, name := range requested {
		if strings.EqualFold(strings.TrimSpace(name), PresetHierarchy) {
			out = append(out, HierarchyColumns()...)
			continue
		}
		out = append(out, name)
	}
	return out
}

// ParentColumn is the name of the level-d ancestor code column.
func ParentColumn(d int) string {
	return fmt.Sprintf("LEVEL_%d_PARENT", d)
}

// ParentDescColumn is the name of the level-d ancestor description column.
func ParentDescColumn(d int) string {
	return fmt.Sprintf("LEVEL_%d_DESC", d)
}

// Shape describes which optional fields a run produced.
type Shape struct {
	MaxIndent           int
	HasHeader           bool
	HasShortDescription bool
}

type column struct {
	name  string
	value func(*Enriched) string
}

// columns lists every column present for shape, in default order.
func columns(shape Shape) []column {
	cols := []column{
		{ColOrder, func(e *Enriched) string { return strconv.Itoa(e.Order) }},
		{ColCode, func(e *Enriched) string { return e.Code }},
		{ColDescription, func(e *Enriched) string { return e.Description }},
	}
	if shape.HasShortDescription {
		cols = append(cols, column{ColShortDescription, func(e *Enriched) string { return e.ShortDescription }})
	}
	if shape.HasHeader {
		cols = append(cols, column{ColHeader, func(e *Enriched) string { return boolFlag(e.Header) }})
	}
	cols = append(cols,
		column{ColIndentLevel, func(e *Enriched) string {
			if !e.Valid {
				return ""
			}
			return strconv.Itoa(e.IndentLevel())
		}},
		column{ColTopLevelCode, func(e *Enriched) string { return e.TopLevel }},
		column{ColTopLevelDesc, func(e *Enriched) string { return e.TopLevelDesc }},
	)
	for d := 1; d <= shape.MaxIndent; d++ {
		cols = append(cols,
			column{ParentColumn(d), func(e *Enriched) string { return e.Parent(d) }},
			column{ParentDescColumn(d), func(e *Enriched) string { return e.ParentDesc(d) }},
		)
	}
	cols = append(cols,
		column{ColChapter, func(e *Enriched) string { return e.Chapter.Name }},
		column{ColChapterRange, func(e *Enriched) string { return e.Chapter.Range }},
		column{ColSection, func(e *Enriched) string { return e.Section.Name }},
		column{ColSectionRange, func(e *Enriched) string { return e.Section.Range }},
	)
	return cols
}

// Available returns the names of every column present for shape.
func Available(shape Shape) []string {
	cols := columns(shape)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// ParseColumns splits a comma-separated column list, dropping blanks.
func ParseColumns(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
