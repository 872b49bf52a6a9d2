package hierarchy

// TreeNode is a code with its nested children, for hierarchical output.
type TreeNode struct {
	Code        string      `json:"code"`
	Description string      `json:"description,omitempty"`
	Header      bool        `json:"header,omitempty"`
	Level       int         `json:"level"`
	Children    []*TreeNode `json:"children,omitempty"`
}

// Tree nests the nodes of h under their nearest shallower ancestor.
// Invalid records are left out.
func Tree(h *Hierarchy) []*TreeNode {
	if h == nil || len(h.Nodes) == 0 {
		return nil
	}

	type stackEntry struct {
		node  *TreeNode
		level int
	}

	var stack []stackEntry
	var roots []*TreeNode

	for _, n := range h.Nodes {
		if !n.Valid {
			continue
		}
		level := n.IndentLevel()
		tn := &TreeNode{
			Code:        n.Code,
			Description: n.Description,
			Header:      n.Header,
			Level:       level,
		}

		// Pop until the top of the stack is shallower than this node
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, tn)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, tn)
		}

		stack = append(stack, stackEntry{node: tn, level: level})
	}

	return roots
}

// Walk traverses the tree in depth-first order, calling fn for each node.
func (n *TreeNode) Walk(fn func(*TreeNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// CountNodes returns the total number of nodes in a forest.
func CountNodes(roots []*TreeNode) int {
	count := 0
	for _, r := range roots {
		r.Walk(func(*TreeNode) { count++ })
	}
	return count
}
