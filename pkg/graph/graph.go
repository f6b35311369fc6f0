package graph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Validate checks graph integrity and returns nil if valid.
//
// Returns ErrDuplicateNode if two nodes share an ID, ErrUnknownNode if an
// edge or root references a missing node, or ErrGraphHasCycle if a cycle is
// detected. Cycle detection runs in O(N+E) time.
func (g *Graph) Validate() error {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		if !ids[e.From] || !ids[e.To] {
			return fmt.Errorf("%w: edge %s -> %s", ErrUnknownNode, e.From, e.To)
		}
	}
	for _, r := range g.Roots {
		if !ids[r.To] {
			return fmt.Errorf("%w: root %q -> %s", ErrUnknownNode, r.Requirement, r.To)
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	outgoing := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		outgoing[e.From] = append(outgoing[e.From], e.To)
	}

	color := make(map[string]int, len(g.Nodes))
	var cycleAt string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		for _, child := range outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				cycleAt = child
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, n := range g.Nodes {
		if color[n.ID] == white && dfs(n.ID) {
			return fmt.Errorf("%w through %s", ErrGraphHasCycle, cycleAt)
		}
	}
	return nil
}

// Marshal encodes g as canonical JSON. Nil slices encode as empty arrays.
func (g *Graph) Marshal() ([]byte, error) {
	out := *g
	if out.Roots == nil {
		out.Roots = []Root{}
	}
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	canon, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return canon, nil
}

// Unmarshal decodes and validates a graph.
func Unmarshal(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.ensureIndex()
	return &g, nil
}

// WriteJSON writes g as indented JSON, for humans.
func (g *Graph) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteRequirements renders g as a requirements file. Each node becomes a
// block of comment lines describing the chosen file followed by a
// requirement line: "name @ uri --hash=alg:hex" when the file hash is known,
// otherwise "name==version". Blocks appear in node ID order.
func (g *Graph) WriteRequirements(w io.Writer) error {
	order := make([]*Node, len(g.Nodes))
	for i := range g.Nodes {
		order[i] = &g.Nodes[i]
	}
	sort.Slice(order, func(i, j int) bool { return order[i].ID < order[j].ID })

	bw := bufio.NewWriter(w)
	for i, n := range order {
		if i > 0 {
			bw.WriteString("\n")
		}
		for _, line := range g.commentLines(n) {
			bw.WriteString("# " + line + "\n")
		}
		bw.WriteString(requirementLine(n) + "\n")
	}
	return bw.Flush()
}

func (g *Graph) commentLines(n *Node) []string {
	lines := []string{n.Pin()}
	if n.Tag != "" {
		lines = append(lines, "tag: "+n.Tag)
	}
	if len(n.SatisfiedTags) > 0 {
		lines = append(lines, "satisfied tags: "+strings.Join(n.SatisfiedTags, ", "))
	}
	if n.RequiresPython != "" {
		lines = append(lines, "requires-python: "+n.RequiresPython)
	}
	if len(n.Extras) > 0 {
		lines = append(lines, "extras: "+strings.Join(n.Extras, ", "))
	}
	if deps := g.Children(n.ID); len(deps) > 0 {
		lines = append(lines, "dependencies: "+strings.Join(deps, ", "))
	}
	if n.URI != "" {
		lines = append(lines, "origin: "+n.URI)
	}
	return lines
}

func requirementLine(n *Node) string {
	if n.URI != "" && n.Hash != "" {
		return n.ID + " @ " + n.URI + " --hash=" + n.Hash
	}
	return n.Pin()
}
