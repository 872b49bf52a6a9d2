package hierarchy

import (
	"github.com/itsmostafa/icdtree/internal/record"
)

// Resolver maps codes back to their descriptions.
type Resolver struct {
	descs map[string]string
}

// NewResolver indexes every valid record by code. When a code appears more
// than once the last description wins.
func NewResolver(records []record.CodeRecord) *Resolver {
	descs := make(map[string]string, len(records))
	for _, r := range records {
		if r.Valid {
			descs[r.Code] = r.Description
		}
	}
	return &Resolver{descs: descs}
}

// Describe returns the description of code, or "" if it is unknown.
func (r *Resolver) Describe(code string) string {
	if code == "" {
		return ""
	}
	return r.descs[code]
}

// Len is the number of distinct codes indexed.
func (r *Resolver) Len() int {
	return len(r.descs)
}

// Resolve fills ParentDescs and TopLevelDesc for every node in h.
func (r *Resolver) Resolve(h *Hierarchy) {
	for i := range h.Nodes {
		n := &h.Nodes[i]
		n.ParentDescs = make([]string, len(n.Parents))
		for d, code := range n.Parents {
			n.ParentDescs[d] = r.Describe(code)
		}
		n.TopLevelDesc = r.Describe(n.TopLevel)
	}
}
