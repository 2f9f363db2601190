package graph

import "fmt"

// Subgraph restricts the graph to one goal target and its transitive
// prerequisites. Reverse edges are rebuilt so counters and scheduling stay
// consistent within the subgraph.
func (g *Graph) Subgraph(goal string) (*Graph, error) {
	rootTarget, ok := g.Targets[goal]
	if !ok {
		return nil, fmt.Errorf("unknown target %q", goal)
	}

	keep := make(map[string]*Target)
	var collect func(t *Target)
	collect = func(t *Target) {
		if _, ok := keep[t.Path]; ok {
			return
		}
		keep[t.Path] = t
		for _, dep := range t.Deps {
			collect(dep)
		}
	}
	collect(rootTarget)

	for _, t := range keep {
		pruned := make(map[string]*Target)
		for id, dependent := range t.Dependents {
			if _, ok := keep[id]; ok {
				pruned[id] = dependent
			}
		}
		t.Dependents = pruned
	}
	return &Graph{Targets: keep}, nil
}
