package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/itsmostafa/icdtree/internal/hierarchy"
	"github.com/itsmostafa/icdtree/internal/ranges"
	"github.com/itsmostafa/icdtree/internal/record"
	"github.com/itsmostafa/icdtree/internal/table"
)

func rows() []table.Enriched {
	recs := []record.CodeRecord{
		{Order: 1, Code: "A00", Description: "Cholera", Header: true, Valid: true},
		{Order: 2, Code: "A000", Description: "Cholera due to Vibrio cholerae 01, biovar cholerae", Valid: true},
		{Order: 3, Code: "C00", Description: "Malignant neoplasm of lip", Header: true, Valid: true},
		{Order: 4, Code: "C000", Description: "Malignant neoplasm of external upper lip", Valid: true},
	}
	chapters, _ := ranges.NewTable(ranges.KindChapter, "test", [][2]string{
		{"Infectious", "A00-B99"},
		{"Neoplasms", "C00-D49"},
	})
	h := hierarchy.Build(recs)
	out := make([]table.Enriched, len(h.Nodes))
	for i, n := range h.Nodes {
		out[i] = table.Enriched{Node: n, Chapter: chapters.Classify(n.Code), Section: ranges.Unclassified}
	}
	return out
}

func codes(rs []table.Enriched) string {
	var parts []string
	for _, r := range rs {
		parts = append(parts, r.Code)
	}
	return strings.Join(parts, ",")
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		lang Language
		expr string
		want string
	}{
		{"js level", LangJS, "level >= 1", "A000,C000"},
		{"js chapter", LangJS, `chapter == "Neoplasms" && !header`, "C000"},
		{"js parents", LangJS, `parents.indexOf("A00") >= 0`, "A000"},
		{"js regex helper", LangJS, `matches("^Malignant", description)`, "C00,C000"},
		{"tengo level", LangTengo, "level == 0", "A00,C00"},
		{"tengo chapter range", LangTengo, `chapter_range == "A00-B99" && top_level == "A00"`, "A00,A000"},
		{"tengo parents", LangTengo, "len(parents) > 0", "A000,C000"},
		{"js category", LangJS, `category == "C00"`, "C00,C000"},
		{"tengo category", LangTengo, `category == "A00" && level > 0`, "A000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.lang, tt.expr, 0)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			kept, err := Apply(p, rows())
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got := codes(kept); got != tt.want {
				t.Errorf("kept %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(LangJS, "   ", 0); err == nil {
		t.Error("expected error for empty expression")
	}
	if _, err := New(LangJS, "level >=", 0); err == nil {
		t.Error("expected JS compile error")
	}
	if _, err := New(LangTengo, "level >=", 0); err == nil {
		t.Error("expected Tengo compile error")
	}
	if _, err := New("lua", "true", 0); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestJSTimeout(t *testing.T) {
	p, err := New(LangJS, "while (true) {}", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = Apply(p, rows()[:1])
	if err == nil || !strings.Contains(err.Error(), "interrupted") {
		t.Fatalf("expected interrupt error, got %v", err)
	}

	// The runtime stays usable after an interrupt.
	p2, _ := New(LangJS, "true", 0)
	if kept, err := Apply(p2, rows()); err != nil || len(kept) != 4 {
		t.Errorf("expected all rows kept, got %d, %v", len(kept), err)
	}
}

func TestJSRuntimeError(t *testing.T) {
	p, err := New(LangJS, "undefinedFunction()", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := Apply(p, rows()); err == nil || !strings.Contains(err.Error(), `"A00"`) {
		t.Errorf("expected error naming the row, got %v", err)
	}
}

func TestValidateLanguage(t *testing.T) {
	for in, want := range map[string]Language{"js": LangJS, "JavaScript": LangJS, "tengo": LangTengo} {
		if got, err := ValidateLanguage(in); err != nil || got != want {
			t.Errorf("ValidateLanguage(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ValidateLanguage("python"); err == nil {
		t.Error("expected error for python")
	}
}
