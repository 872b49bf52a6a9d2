// Package hierarchy reconstructs the ancestor chain of every code in an
// ordered listing, using code length as the only signal of depth.
package hierarchy

import (
	"github.com/itsmostafa/icdtree/internal/record"
)

// Node is a record together with its inferred ancestry.
type Node struct {
	record.CodeRecord

	// Parents[d-1] is the ancestor at level d, for d in [1, MaxIndent].
	Parents []string

	// ParentDescs mirrors Parents; filled in by Resolver.Resolve.
	ParentDescs []string

	TopLevel     string
	TopLevelDesc string
}

// Parent returns the level-d ancestor code, or "" when unset or out of range.
func (n Node) Parent(d int) string {
	if d < 1 || d > len(n.Parents) {
		return ""
	}
	return n.Parents[d-1]
}

// ParentDesc returns the description of the level-d ancestor.
func (n Node) ParentDesc(d int) string {
	if d < 1 || d > len(n.ParentDescs) {
		return ""
	}
	return n.ParentDescs[d-1]
}

// Hierarchy is the output of Build.
type Hierarchy struct {
	Nodes     []Node
	MaxIndent int
}

// MaxIndent returns the deepest indent level among valid records.
func MaxIndent(records []record.CodeRecord) int {
	maxIndent := 0
	for _, r := range records {
		if r.Valid && r.IndentLevel() > maxIndent {
			maxIndent = r.IndentLevel()
		}
	}
	return maxIndent
}

// Build folds over records in order, emitting each record's ancestor at every
// level from 1 to MaxIndent. Only ancestors strictly shallower than the
// current record survive each step. Records that are not Valid pass through
// with empty parents and never touch the open branches.
func Build(records []record.CodeRecord) *Hierarchy {
	maxIndent := MaxIndent(records)
	h := &Hierarchy{
		Nodes:     make([]Node, 0, len(records)),
		MaxIndent: maxIndent,
	}

	// stack[i] is the most recently opened code at indent i.
	stack := make(map[int]string, maxIndent+1)
	topLevel := ""

	for _, r := range records {
		node := Node{
			CodeRecord: r,
			Parents:    make([]string, maxIndent),
		}

		if !r.Valid {
			node.TopLevel = topLevel
			h.Nodes = append(h.Nodes, node)
			continue
		}

		indent := r.IndentLevel()
		for level := range stack {
			if level >= indent {
				delete(stack, level)
			}
		}

		for d := 1; d <= maxIndent; d++ {
			node.Parents[d-1] = stack[d-1]
		}

		stack[indent] = r.Code
		if indent == 0 {
			topLevel = r.Code
		}
		node.TopLevel = topLevel

		h.Nodes = append(h.Nodes, node)
	}

	return h
}
