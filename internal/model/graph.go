package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DependencyGraph is the root model consumed by the inference core and
// serialized as the graph artifact. Components and edges are immutable once
// the builder seals the graph.
type DependencyGraph struct {
	Components   []Component  `json:"components"`
	Edges        []Edge       `json:"edges"`
	APIContracts APIContracts `json:"api_contracts"`
	Meta         Meta         `json:"meta"`
}

// Meta carries provenance and accuracy bookkeeping for a collected graph.
type Meta struct {
	Source                string             `json:"source"`
	RunID                 string             `json:"run_id"`
	CollectedAt           string             `json:"collected_at"`
	DependencyAccuracy    map[string]float64 `json:"dependency_accuracy,omitempty"`
	DecompositionAccuracy map[string]float64 `json:"decomposition_accuracy,omitempty"`
}

// NewMeta stamps a fresh meta block for one collection run.
func NewMeta(source string) Meta {
	return Meta{
		Source:      source,
		RunID:       uuid.NewString(),
		CollectedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// ComponentIndex builds an id -> component lookup. Each phase that needs
// random access builds its own index over the immutable slice.
func (g *DependencyGraph) ComponentIndex() map[string]*Component {
	idx := make(map[string]*Component, len(g.Components))
	for i := range g.Components {
		idx[g.Components[i].ID] = &g.Components[i]
	}
	return idx
}

// GraphBuilder registers components and dependency contributions during
// ingestion and seals them into an immutable DependencyGraph. It combines
// the component registry and edge accumulator so referential closure is
// enforced in one place.
type GraphBuilder struct {
	components map[string]*Component
	order      []string
	acc        *EdgeAccumulator
}

func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		components: make(map[string]*Component),
		acc:        NewEdgeAccumulator(),
	}
}

// Register adds a component or returns the already-registered one with the
// same id, so multiple passes over the source can enrich it.
func (b *GraphBuilder) Register(id string) *Component {
	if c, ok := b.components[id]; ok {
		return c
	}
	c := &Component{
		ID:          id,
		TablesUsed:  []string{},
		CallsOut:    []string{},
		CallsIn:     []string{},
		Annotations: []string{},
	}
	b.components[id] = c
	b.order = append(b.order, id)
	return c
}

// Lookup returns the registered component, if any.
func (b *GraphBuilder) Lookup(id string) (*Component, bool) {
	c, ok := b.components[id]
	return c, ok
}

// Size returns the number of registered components.
func (b *GraphBuilder) Size() int {
	return len(b.components)
}

// AddDependency records an atomic contribution. Contributions whose target
// is not a registered component are dropped: the producer contract
// guarantees referential closure, so unresolved targets never become edges.
func (b *GraphBuilder) AddDependency(from, to string, weight int, t EdgeType) {
	if _, ok := b.components[from]; !ok {
		return
	}
	if _, ok := b.components[to]; !ok {
		return
	}
	b.acc.Add(from, to, weight, t)
}

// Build seals the builder: edges are folded, calls_out/calls_in are derived
// from the edge list so both views stay mutually consistent, and every
// component is normalized.
func (b *GraphBuilder) Build(meta Meta) *DependencyGraph {
	edges := b.acc.Edges()

	for _, e := range edges {
		from := b.components[e.From]
		to := b.components[e.To]
		from.CallsOut = append(from.CallsOut, e.To)
		to.CallsIn = append(to.CallsIn, e.From)
	}

	ids := append([]string(nil), b.order...)
	sort.Strings(ids)

	components := make([]Component, 0, len(ids))
	for _, id := range ids {
		c := b.components[id]
		c.Normalize()
		components = append(components, *c)
	}

	return &DependencyGraph{
		Components: components,
		Edges:      edges,
		APIContracts: APIContracts{
			Endpoints: []APIEndpoint{},
			Schemas:   map[string]APISchema{},
		},
		Meta: meta,
	}
}
