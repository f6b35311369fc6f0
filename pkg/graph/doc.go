// Package graph is the output model of a resolution.
//
// A [Graph] holds one [Node] per resolved project and one [Edge] per
// requirement that led from a parent to a child. Edges are never collapsed:
// two requirements from the same parent on the same child are two edges, so
// every edge can be traced back to the text that produced it. Root
// requirements are recorded separately in [Graph.Roots].
//
// # Invariants
//
// [Graph.Validate] checks that:
//   - node IDs are unique
//   - every edge and root points at existing nodes (no dangling edges)
//   - the graph is acyclic
//
// # Serialization
//
// Graphs serialize to canonical JSON (RFC 8785) so the same resolution always
// yields the same bytes:
//
//	{
//	  "edges": [{"from": "app", "requirement": "lib>=1", "to": "lib"}],
//	  "nodes": [{"id": "app", ...}, {"id": "lib", ...}],
//	  "roots": [{"requirement": "app", "to": "app"}]
//	}
//
// [Graph.WriteRequirements] renders a pip-style requirements file with one
// commented block per node.
//
// # Concurrency
//
// A Graph is safe for concurrent reads but not concurrent writes. Graphs
// returned by the resolver are never modified after they are returned.
package graph
