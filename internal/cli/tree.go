package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/matzehuels/wheelres/pkg/graph"
	"github.com/matzehuels/wheelres/pkg/resolve"
)

const (
	treeBranch = "├── "
	treeLast   = "└── "
	treePipe   = "│   "
	treeSpace  = "    "
	treeSeen   = "(*)"
)

// writeTree prints g as an indented dependency tree, one subtree per root.
// A project already expanded earlier is printed once more with a (*) mark
// and no children.
func writeTree(w io.Writer, g *graph.Graph) {
	seen := make(map[string]bool)
	roots := make([]string, 0, len(g.Roots))
	for _, r := range g.Roots {
		if !seen[r.To] {
			seen[r.To] = true
			roots = append(roots, r.To)
		}
	}
	sort.Strings(roots)

	expanded := make(map[string]bool)
	for _, id := range roots {
		fmt.Fprintln(w, nodeLabel(g, id, expanded[id]))
		if expanded[id] {
			continue
		}
		expanded[id] = true
		writeChildren(w, g, id, "", expanded)
	}
}

func writeChildren(w io.Writer, g *graph.Graph, id, prefix string, expanded map[string]bool) {
	children := g.Children(id)
	for i, child := range children {
		branch, indent := treeBranch, treePipe
		if i == len(children)-1 {
			branch, indent = treeLast, treeSpace
		}
		fmt.Fprintln(w, StyleDim.Render(prefix+branch)+nodeLabel(g, child, expanded[child]))
		if expanded[child] {
			continue
		}
		expanded[child] = true
		writeChildren(w, g, child, prefix+indent, expanded)
	}
}

func nodeLabel(g *graph.Graph, id string, repeated bool) string {
	n, ok := g.Node(id)
	if !ok {
		return id
	}
	parts := []string{StyleHighlight.Render(n.ID), StyleNumber.Render(n.Version)}
	if len(n.Extras) > 0 {
		parts[0] += StyleHighlight.Render("[" + strings.Join(n.Extras, ",") + "]")
	}
	if n.Tag != "" {
		parts = append(parts, StyleDim.Render(n.Tag))
	}
	if repeated {
		parts = append(parts, StyleDim.Render(treeSeen))
	}
	return strings.Join(parts, " ")
}

// writeStats prints the size of a resolved graph on a single line.
func writeStats(w io.Writer, res *resolve.Result) {
	d := res.Diagnostics
	parts := []string{
		fmt.Sprintf("%d nodes", len(res.Graph.Nodes)),
		fmt.Sprintf("%d edges", len(res.Graph.Edges)),
	}
	if d.Backtracks > 0 {
		parts = append(parts, fmt.Sprintf("%d backtracks", d.Backtracks))
	}

	status, statusStyle := iconFresh, styleComputed
	if d.GraphCached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(w, line)
}
