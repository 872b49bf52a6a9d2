package ranges

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RangeColumn is the header of the column holding range text.
const RangeColumn = "Range"

// labelCandidates are tried in order when no label column is configured.
var labelCandidates = []string{"Name", "Description", "Label", "Title", "Chapter", "Section"}

// LoadOptions controls how a table file is read.
type LoadOptions struct {
	Kind Kind

	// LabelColumn names the label header. Empty picks the first of
	// Name, Description, Label, Title, Chapter, Section that exists.
	LabelColumn string

	// Sheet selects the worksheet of an XLSX file. Empty means the first.
	Sheet string
}

// LoadFile reads a table from a CSV, TSV, XLSX, YAML or JSON file,
// chosen by extension.
func LoadFile(path string, opts LoadOptions) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadDelimited(path, ',', opts)
	case ".tsv", ".tab":
		return loadDelimited(path, '\t', opts)
	case ".xlsx", ".xlsm":
		return loadXLSX(path, opts)
	case ".yaml", ".yml", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading range table: %w", err)
		}
		return ParseYAML(path, data, opts.Kind)
	default:
		return nil, fmt.Errorf("unsupported range table format: %s", path)
	}
}

func loadDelimited(path string, comma rune, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading range table: %w", err)
	}
	defer f.Close()
	return ReadDelimited(path, f, comma, opts)
}

// ReadDelimited reads a header row followed by data rows from r.
func ReadDelimited(source string, r io.Reader, comma rune, opts LoadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading range table %s: %w", source, err)
	}
	return FromRows(source, rows, opts)
}

func loadXLSX(path string, opts LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &MalformedRangeError{Source: path, Reason: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return FromRows(path, rows, opts)
}

// FromRows builds a table from a header row and data rows. Row numbers in
// errors count the header as row 1. Entirely blank rows are ignored.
func FromRows(source string, rows [][]string, opts LoadOptions) (*Table, error) {
	if len(rows) == 0 {
		return nil, &MalformedRangeError{Source: source, Reason: "table has no header row"}
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rangeIdx := columnIndex(header, RangeColumn)
	if rangeIdx < 0 {
		return nil, &MalformedRangeError{Source: source, Reason: fmt.Sprintf("no %q column", RangeColumn)}
	}

	labelIdx := -1
	if opts.LabelColumn != "" {
		labelIdx = columnIndex(header, opts.LabelColumn)
	} else {
		for _, name := range labelCandidates {
			if labelIdx = columnIndex(header, name); labelIdx >= 0 {
				break
			}
		}
	}
	if labelIdx < 0 {
		return nil, &MalformedRangeError{Source: source, Reason: "no label column"}
	}

	t := &Table{Kind: opts.Kind, Source: source}
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		if err := t.Add(cell(row, labelIdx), cell(row, rangeIdx)); err != nil {
			var merr *MalformedRangeError
			if errors.As(err, &merr) {
				merr.Source = source
				merr.Row = i + 2
			}
			return nil, err
		}
	}
	return t, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
