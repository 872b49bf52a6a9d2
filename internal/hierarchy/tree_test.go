package hierarchy

import (
	"testing"

	"github.com/itsmostafa/icdtree/internal/record"
)

func TestTree(t *testing.T) {
	t.Run("nil hierarchy", func(t *testing.T) {
		if Tree(nil) != nil {
			t.Error("expected nil for nil input")
		}
	})

	t.Run("nested by code length", func(t *testing.T) {
		h := Build([]record.CodeRecord{
			rec(1, "A00", "Cholera"),
			rec(2, "A000", "biovar cholerae"),
			rec(3, "A001", "biovar eltor"),
			rec(4, "A01", "Typhoid"),
			rec(5, "A010", "Typhoid fever"),
			rec(6, "A0100", "Typhoid fever, unspecified"),
		})
		roots := Tree(h)
		if len(roots) != 2 {
			t.Fatalf("expected 2 roots, got %d", len(roots))
		}
		if len(roots[0].Children) != 2 {
			t.Errorf("expected A00 to have 2 children, got %d", len(roots[0].Children))
		}
		node := roots[1]
		if len(node.Children) != 1 || node.Children[0].Code != "A010" {
			t.Fatal("expected A010 under A01")
		}
		node = node.Children[0]
		if len(node.Children) != 1 || node.Children[0].Code != "A0100" {
			t.Error("expected A0100 under A010")
		}
		if CountNodes(roots) != 6 {
			t.Errorf("expected 6 nodes, got %d", CountNodes(roots))
		}
	})

	t.Run("invalid records skipped", func(t *testing.T) {
		h := Build([]record.CodeRecord{rec(1, "A00", ""), rec(2, "", "x")})
		if CountNodes(Tree(h)) != 1 {
			t.Error("expected invalid record to be left out")
		}
	})
}
