package table

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/itsmostafa/icdtree/internal/hierarchy"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatXLSX  Format = "xlsx"
	FormatJSONL Format = "jsonl"
	FormatTree  Format = "tree"
)

// ValidateFormat parses a format name.
func ValidateFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatTSV:
		return FormatTSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatJSONL:
		return FormatJSONL, nil
	case FormatTree:
		return FormatTree, nil
	default:
		return "", fmt.Errorf("unknown output format: %q (valid options: csv, tsv, xlsx, jsonl, tree)", s)
	}
}

// FormatForPath guesses a format from a file extension, defaulting to CSV.
func FormatForPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tsv"):
		return FormatTSV
	case strings.HasSuffix(lower, ".xlsx"):
		return FormatXLSX
	case strings.HasSuffix(lower, ".jsonl"), strings.HasSuffix(lower, ".ndjson"):
		return FormatJSONL
	case strings.HasSuffix(lower, ".json"):
		return FormatTree
	default:
		return FormatCSV
	}
}

// DefaultSheet names the XLSX worksheet when none is configured.
const DefaultSheet = "ICD10 Hierarchy"

// WriteOptions tune the writers.
type WriteOptions struct {
	// Delimiter overrides the CSV separator. Zero means ',' (or tab for TSV).
	Delimiter rune

	// Sheet names the XLSX worksheet. Empty means DefaultSheet.
	Sheet string
}

// Write encodes t in the given format. FormatTree needs the hierarchy and
// is handled by WriteTree instead.
func Write(w io.Writer, t *Table, format Format, opts WriteOptions) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, t, opts.Delimiter)
	case FormatTSV:
		delim := opts.Delimiter
		if delim == 0 {
			delim = '\t'
		}
		return WriteCSV(w, t, delim)
	case FormatXLSX:
		return WriteXLSX(w, t, opts.Sheet)
	case FormatJSONL:
		return WriteJSONL(w, t)
	default:
		return fmt.Errorf("format %q cannot encode a flat table", format)
	}
}

// WriteCSV writes a header row followed by every row.
func WriteCSV(w io.Writer, t *Table, delim rune) error {
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// WriteJSONL writes one JSON object per row with keys in column order.
func WriteJSONL(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	keys := make([][]byte, len(t.Columns))
	for i, c := range t.Columns {
		k, err := json.Marshal(c)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	for _, row := range t.Rows {
		bw.WriteByte('{')
		for i, v := range row {
			if i > 0 {
				bw.WriteByte(',')
			}
			val, err := json.Marshal(v)
			if err != nil {
				return err
			}
			bw.Write(keys[i])
			bw.WriteByte(':')
			bw.Write(val)
		}
		bw.WriteString("}\n")
	}
	return bw.Flush()
}

// WriteXLSX writes t as a single-sheet workbook.
func WriteXLSX(w io.Writer, t *Table, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("opening sheet writer: %w", err)
	}

	writeRow := func(rowNum int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		return sw.SetRow(cell, values)
	}

	if err := writeRow(1, t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Rows {
		if err := writeRow(i+2, row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}

	return f.Write(w)
}

// WriteTree writes the nested code tree as indented JSON.
func WriteTree(w io.Writer, roots []*hierarchy.TreeNode) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if roots == nil {
		roots = []*hierarchy.TreeNode{}
	}
	return enc.Encode(roots)
}
