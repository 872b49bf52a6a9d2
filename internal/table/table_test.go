package table

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/itsmostafa/icdtree/internal/hierarchy"
	"github.com/itsmostafa/icdtree/internal/ranges"
	"github.com/itsmostafa/icdtree/internal/record"
)

func sampleRows() []Enriched {
	recs := []record.CodeRecord{
		{Order: 1, Code: "A00", Description: "Cholera", Header: true, HasHeader: true, Valid: true},
		{Order: 2, Code: "A000", Description: "Cholera due to Vibrio cholerae 01, biovar cholerae", HasHeader: true, Valid: true},
	}
	h := hierarchy.Build(recs)
	hierarchy.NewResolver(recs).Resolve(h)

	chapter := ranges.Result{Name: "Certain infectious and parasitic diseases", Range: "A00-B99"}
	rows := make([]Enriched, len(h.Nodes))
	for i, n := range h.Nodes {
		rows[i] = Enriched{Node: n, Chapter: chapter, Section: ranges.Unclassified}
	}
	return rows
}

func TestAvailable(t *testing.T) {
	got := Available(Shape{MaxIndent: 2, HasHeader: true})
	want := []string{
		"ORDER", "ICD_CODE", "DESCRIPTION", "HEADER_FLAG", "INDENT_LEVEL",
		"TOP_LEVEL_CODE", "TOP_LEVEL_DESC",
		"LEVEL_1_PARENT", "LEVEL_1_DESC", "LEVEL_2_PARENT", "LEVEL_2_DESC",
		"CHAPTER_NAME", "CHAPTER_RANGE", "SECTION_NAME", "SECTION_RANGE",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Available() =\n%v\nwant\n%v", got, want)
	}

	flat := Available(Shape{})
	for _, c := range flat {
		if strings.HasPrefix(c, "LEVEL_") || c == ColHeader || c == ColShortDescription {
			t.Errorf("flat shape should not include %s", c)
		}
	}
}

func TestComposeReportsMissing(t *testing.T) {
	rows := sampleRows()
	requested := []string{"ICD_CODE", "LEVEL_1_PARENT", "LEVEL_5_PARENT", "CHAPTER_NAME", "SHORT_DESCRIPTION"}

	out := Compose(rows, Shape{MaxIndent: 3, HasHeader: true}, requested)

	if !reflect.DeepEqual(out.Missing, []string{"LEVEL_5_PARENT", "SHORT_DESCRIPTION"}) {
		t.Errorf("Missing = %v", out.Missing)
	}
	if !reflect.DeepEqual(out.Columns, []string{"ICD_CODE", "LEVEL_1_PARENT", "CHAPTER_NAME"}) {
		t.Errorf("Columns = %v", out.Columns)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out.Rows))
	}
	if !reflect.DeepEqual(out.Rows[1], []string{"A000", "A00", "Certain infectious and parasitic diseases"}) {
		t.Errorf("row 2 = %v", out.Rows[1])
	}
}

func TestComposeCaseAndDuplicates(t *testing.T) {
	out := Compose(sampleRows(), Shape{MaxIndent: 1}, []string{"icd_code", "Code", " section_range "})
	if !reflect.DeepEqual(out.Columns, []string{"ICD_CODE", "SECTION_RANGE"}) {
		t.Errorf("Columns = %v", out.Columns)
	}
	if len(out.Missing) != 0 {
		t.Errorf("unexpected missing columns: %v", out.Missing)
	}
	if out.Rows[0][1] != "NA" {
		t.Errorf("expected NA section range, got %q", out.Rows[0][1])
	}
}

func TestComposeAllColumns(t *testing.T) {
	shape := Shape{MaxIndent: 1, HasHeader: true}
	out := Compose(sampleRows(), shape, nil)
	if !reflect.DeepEqual(out.Columns, Available(shape)) {
		t.Errorf("empty request should select every column, got %v", out.Columns)
	}
	hdr := columnIndex(&out.Table, ColHeader)
	if hdr < 0 || out.Rows[0][hdr] != "1" || out.Rows[1][hdr] != "0" {
		t.Errorf("unexpected header flags in %v", out.Rows)
	}
	if desc := columnIndex(&out.Table, ParentDescColumn(1)); out.Rows[1][desc] != "Cholera" {
		t.Errorf("expected parent description Cholera, got %q", out.Rows[1][desc])
	}
}

func columnIndex(tbl *Table, name string) int {
	for i, c := range tbl.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func TestComposeAliases(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"CODE", ColCode},
		{"header", ColHeader},
		{"Chapter", ColChapter},
		{"SECTION", ColSection},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			out := Compose(sampleRows(), Shape{HasHeader: true}, []string{tt.alias, tt.want})
			if !reflect.DeepEqual(out.Columns, []string{tt.want}) {
				t.Errorf("Columns = %v, want [%s]", out.Columns, tt.want)
			}
			if len(out.Missing) != 0 {
				t.Errorf("unexpected missing columns: %v", out.Missing)
			}
		})
	}
}

func TestHierarchyPreset(t *testing.T) {
	want := []string{
		"ORDER", "CHAPTER_RANGE", "CHAPTER_NAME", "SECTION_RANGE", "SECTION_NAME",
		"LEVEL_1_PARENT", "LEVEL_1_DESC", "LEVEL_2_PARENT", "LEVEL_2_DESC",
		"LEVEL_3_PARENT", "LEVEL_3_DESC", "LEVEL_4_PARENT", "LEVEL_4_DESC",
		"ICD_CODE", "DESCRIPTION", "INDENT_LEVEL", "HEADER_FLAG",
	}
	if got := HierarchyColumns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("HierarchyColumns() =\n%v\nwant\n%v", got, want)
	}

	tests := []struct {
		name        string
		shape       Shape
		request     []string
		wantMissing []string
	}{
		{"full depth", Shape{MaxIndent: 4, HasHeader: true}, []string{"hierarchy"}, nil},
		{"explicit list", Shape{MaxIndent: 4, HasHeader: true}, want, nil},
		{"shallow input", Shape{MaxIndent: 2, HasHeader: true}, []string{"HIERARCHY"},
			[]string{"LEVEL_3_PARENT", "LEVEL_3_DESC", "LEVEL_4_PARENT", "LEVEL_4_DESC"}},
		{"codes layout", Shape{MaxIndent: 4}, []string{"hierarchy"}, []string{"HEADER_FLAG"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Compose(sampleRows(), tt.shape, tt.request)
			if !reflect.DeepEqual(out.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", out.Missing, tt.wantMissing)
			}
			if len(out.Columns)+len(out.Missing) != len(want) {
				t.Errorf("Columns = %v", out.Columns)
			}
			if out.Columns[0] != ColOrder || out.Columns[2] != ColChapter {
				t.Errorf("unexpected leading columns %v", out.Columns[:3])
			}
		})
	}
}

func TestParseColumns(t *testing.T) {
	got := ParseColumns(" ICD_CODE, ,DESCRIPTION ,")
	if !reflect.DeepEqual(got, []string{"ICD_CODE", "DESCRIPTION"}) {
		t.Errorf("ParseColumns = %v", got)
	}
	if ParseColumns("") != nil {
		t.Error("expected nil for empty list")
	}
}

func TestWriteCSV(t *testing.T) {
	out := Compose(sampleRows(), Shape{MaxIndent: 1}, []string{"ICD_CODE", "DESCRIPTION"})
	var buf bytes.Buffer
	if err := Write(&buf, &out.Table, FormatCSV, WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "ICD_CODE,DESCRIPTION\nA00,Cholera\nA000,\"Cholera due to Vibrio cholerae 01, biovar cholerae\"\n"
	if buf.String() != want {
		t.Errorf("CSV =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	if err := Write(&buf, &out.Table, FormatTSV, WriteOptions{}); err != nil {
		t.Fatalf("Write TSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "ICD_CODE\tDESCRIPTION\n") {
		t.Errorf("TSV header = %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}

func TestWriteJSONL(t *testing.T) {
	out := Compose(sampleRows(), Shape{MaxIndent: 1}, []string{"ICD_CODE", "LEVEL_1_PARENT"})
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, &out.Table); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != `{"ICD_CODE":"A000","LEVEL_1_PARENT":"A00"}` {
		t.Errorf("line 2 = %s", lines[1])
	}
	var obj map[string]string
	if err := json.Unmarshal([]byte(lines[0]), &obj); err != nil {
		t.Errorf("line 1 is not valid JSON: %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	out := Compose(sampleRows(), Shape{MaxIndent: 1}, []string{"ICD_CODE", "CHAPTER_RANGE"})
	var buf bytes.Buffer
	if err := Write(&buf, &out.Table, FormatXLSX, WriteOptions{Sheet: "Codes"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Codes")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	want := [][]string{{"ICD_CODE", "CHAPTER_RANGE"}, {"A00", "A00-B99"}, {"A000", "A00-B99"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestWriteXLSXDefaultSheet(t *testing.T) {
	out := Compose(sampleRows(), Shape{}, []string{"ICD_CODE"})
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, &out.Table, ""); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"ICD10 Hierarchy"}) {
		t.Errorf("sheets = %v", got)
	}
}

func TestWriteRejectsTreeForFlatTable(t *testing.T) {
	if err := Write(&bytes.Buffer{}, &Table{}, FormatTree, WriteOptions{}); err == nil {
		t.Error("expected error writing a flat table as a tree")
	}
}

func TestWriteTree(t *testing.T) {
	rows := sampleRows()
	h := &hierarchy.Hierarchy{MaxIndent: 1}
	for _, r := range rows {
		h.Nodes = append(h.Nodes, r.Node)
	}

	var buf bytes.Buffer
	if err := WriteTree(&buf, hierarchy.Tree(h)); err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	var roots []hierarchy.TreeNode
	if err := json.Unmarshal(buf.Bytes(), &roots); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(roots) != 1 || len(roots[0].Children) != 1 || roots[0].Children[0].Code != "A000" {
		t.Errorf("unexpected tree: %s", buf.String())
	}

	buf.Reset()
	if err := WriteTree(&buf, nil); err != nil || strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty tree = %q, %v", buf.String(), err)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, s := range []string{"csv", "TSV", "xlsx", "jsonl", "tree"} {
		if _, err := ValidateFormat(s); err != nil {
			t.Errorf("ValidateFormat(%q): %v", s, err)
		}
	}
	if _, err := ValidateFormat("parquet"); err == nil {
		t.Error("expected error for parquet")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"out.csv":    FormatCSV,
		"out.TSV":    FormatTSV,
		"out.xlsx":   FormatXLSX,
		"out.jsonl":  FormatJSONL,
		"out.json":   FormatTree,
		"out":        FormatCSV,
		"out.ndjson": FormatJSONL,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
