package graph

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicateNode is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrUnknownNode is returned when an edge or root references a node that
	// does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is
	// detected. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Node is one resolved project.
type Node struct {
	ID             string   `json:"id"` // normalized project name
	Version        string   `json:"version"`
	Tag            string   `json:"tag"` // best accepted tag of the chosen file
	Filename       string   `json:"filename"`
	URI            string   `json:"uri"`
	Hash           string   `json:"hash,omitempty"` // "sha256:<hex>"
	SatisfiedTags  []string `json:"satisfied_tags,omitempty"`
	RequiresPython string   `json:"requires_python,omitempty"`
	Extras         []string `json:"extras,omitempty"`

	// Provenance of the metadata the dependencies were read from.
	MetadataOrigin string `json:"metadata_origin,omitempty"`
	MetadataDigest string `json:"metadata_digest,omitempty"`
	Strategy       string `json:"strategy,omitempty"`
}

// Pin returns "id==version".
func (n *Node) Pin() string { return n.ID + "==" + n.Version }

// Edge records that the requirement text declared by From resolved to To.
type Edge struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Requirement string `json:"requirement"`
}

// Root records that a root requirement resolved to To.
type Root struct {
	To          string `json:"to"`
	Requirement string `json:"requirement"`
}

// Graph is a resolved dependency graph.
type Graph struct {
	Roots []Root `json:"roots"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	byID map[string]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Roots: []Root{},
		Nodes: []Node{},
		Edges: []Edge{},
		byID:  make(map[string]int),
	}
}

// AddNode adds n. Returns ErrDuplicateNode if n.ID is taken.
func (g *Graph) AddNode(n Node) error {
	g.ensureIndex()
	if _, ok := g.byID[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.byID[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	return nil
}

// AddEdge adds e. Both endpoints must exist. Parallel edges are kept.
func (g *Graph) AddEdge(e Edge) error {
	g.ensureIndex()
	for _, id := range []string{e.From, e.To} {
		if _, ok := g.byID[id]; !ok {
			return fmt.Errorf("%w: edge %s -> %s references %q", ErrUnknownNode, e.From, e.To, id)
		}
	}
	g.Edges = append(g.Edges, e)
	return nil
}

// AddRoot adds r. The target node must exist.
func (g *Graph) AddRoot(r Root) error {
	g.ensureIndex()
	if _, ok := g.byID[r.To]; !ok {
		return fmt.Errorf("%w: root %q references %q", ErrUnknownNode, r.Requirement, r.To)
	}
	g.Roots = append(g.Roots, r)
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	g.ensureIndex()
	i, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// Children returns the distinct direct dependencies of id, sorted.
func (g *Graph) Children(id string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range g.Edges {
		if e.From == id && !seen[e.To] {
			seen[e.To] = true
			out = append(out, e.To)
		}
	}
	sort.Strings(out)
	return out
}

// Sort orders nodes by ID, edges by (from, to, requirement) and roots by
// (requirement, to), so the serialized form does not depend on insertion
// order.
func (g *Graph) Sort() {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Requirement < b.Requirement
	})
	sort.Slice(g.Roots, func(i, j int) bool {
		a, b := g.Roots[i], g.Roots[j]
		if a.Requirement != b.Requirement {
			return a.Requirement < b.Requirement
		}
		return a.To < b.To
	})
	g.byID = nil
	g.ensureIndex()
}

func (g *Graph) ensureIndex() {
	if g.byID != nil && len(g.byID) == len(g.Nodes) {
		return
	}
	g.byID = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.byID[n.ID] = i
	}
}
