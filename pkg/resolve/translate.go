package resolve

import (
	"fmt"
	"sort"

	"github.com/opencontainers/go-digest"

	"github.com/matzehuels/wheelres/pkg/graph"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/pep"
	"github.com/matzehuels/wheelres/pkg/solver"
)

// translate builds the output graph from a solver result. Every pinned
// candidate becomes a node; every dependency it declared becomes an edge.
// A project requiring itself (usually to pull in its own extras) adds no
// edge.
func translate(out *solver.Result[model.Requirement, *model.Candidate], roots []model.Requirement, f *Factory, p *Provider) (*graph.Graph, error) {
	ids := make([]string, 0, len(out.Mapping))
	for id := range out.Mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := graph.New()
	for _, id := range ids {
		c := enrich(out.Mapping[id], f)
		if err := g.AddNode(nodeFor(c, p.Extras(id))); err != nil {
			return nil, err
		}
	}
	for _, id := range ids {
		deps, loaded := out.Mapping[id].Dependencies()
		if !loaded {
			return nil, fmt.Errorf("%s was pinned without its dependencies", out.Mapping[id])
		}
		for _, d := range deps {
			if d.Name() == id {
				continue
			}
			if err := g.AddEdge(graph.Edge{From: id, To: d.Name(), Requirement: d.String()}); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range roots {
		if err := g.AddRoot(graph.Root{To: r.Name(), Requirement: r.String()}); err != nil {
			return nil, err
		}
	}

	g.Sort()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// enrich returns c carrying the provenance of the metadata its
// dependencies were read from.
func enrich(c *model.Candidate, f *Factory) *model.Candidate {
	f.mu.Lock()
	rec, ok := f.metadata[c.Key]
	f.mu.Unlock()
	if !ok || c.Metadata == nil {
		return c
	}
	md := c.Metadata.With(rec.Origin, digest.Digest(rec.Digest), rec.Strategy)
	if md.RequiresPython == "" && rec.parsed != nil {
		md.RequiresPython = rec.parsed.RequiresPython
	}
	return c.WithMetadata(md)
}

func nodeFor(c *model.Candidate, extras []string) graph.Node {
	n := graph.Node{
		ID:       c.Name(),
		Version:  c.Key.Version,
		Tag:      c.Key.Tag.String(),
		Filename: c.Key.Filename,
		URI:      c.Key.URI,
		Hash:     string(c.Key.Hash),
		Extras:   extras,
	}
	if md := c.Metadata; md != nil {
		n.SatisfiedTags = tagStrings(md.SatisfiedTags)
		n.RequiresPython = md.RequiresPython
		n.MetadataOrigin = md.Origin
		n.MetadataDigest = string(md.MetadataDigest)
		n.Strategy = md.Strategy
	}
	return n
}

func tagStrings(ts []pep.Tag) []string {
	if len(ts) == 0 {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}
