package inference

import (
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"monoscope/internal/config"
	"monoscope/internal/model"
)

// ClusterPair keys an unordered cluster pair as (min id, max id).
type ClusterPair struct {
	A int
	B int
}

func NewClusterPair(a, b int) ClusterPair {
	if a > b {
		a, b = b, a
	}
	return ClusterPair{A: a, B: b}
}

// EdgeSignals are the four inter-cluster signals plus the weighted evidence
// score for one cluster pair.
type EdgeSignals struct {
	Pair            ClusterPair `json:"pair"`
	TableJaccard    float64     `json:"table_jaccard"`
	CallDensity     float64     `json:"call_density"`
	TokenSimilarity float64     `json:"token_similarity"`
	EventLinks      []string    `json:"event_links"`
	EvidenceScore   float64     `json:"evidence_score"`
}

// HasStrongEvidence reports whether this pair qualifies as a consolidation
// candidate: high evidence plus enough individually strong signals.
func (s *EdgeSignals) HasStrongEvidence(cfg config.Consolidation) bool {
	strong := 0
	if s.TableJaccard >= cfg.StrongTableJaccard {
		strong++
	}
	if s.CallDensity >= cfg.StrongCallDensity {
		strong++
	}
	if s.TokenSimilarity >= cfg.StrongTokenSimilarity {
		strong++
	}
	if len(s.EventLinks) >= 1 {
		strong++
	}
	return s.EvidenceScore >= cfg.EvidenceThreshold && strong >= cfg.MinStrongSignals
}

// InterClusterGraph holds the evidence edges between every cluster pair that
// clears the noise floor. Signal computation is embarrassingly parallel over
// immutable inputs; the edge order is made deterministic afterward.
type InterClusterGraph struct {
	clusters []*Cluster
	compIdx  map[string]*model.Component
	signals  config.Signals
	edges    map[ClusterPair]*EdgeSignals
}

func NewInterClusterGraph(clusters []*Cluster, components []model.Component, signals config.Signals) *InterClusterGraph {
	compIdx := make(map[string]*model.Component, len(components))
	for i := range components {
		compIdx[components[i].ID] = &components[i]
	}

	g := &InterClusterGraph{
		clusters: clusters,
		compIdx:  compIdx,
		signals:  signals,
		edges:    make(map[ClusterPair]*EdgeSignals),
	}
	g.build()
	return g
}

func (g *InterClusterGraph) build() {
	type pairJob struct {
		a, b *Cluster
	}
	jobs := make([]pairJob, 0, len(g.clusters)*(len(g.clusters)-1)/2)
	for i := 0; i < len(g.clusters); i++ {
		for j := i + 1; j < len(g.clusters); j++ {
			jobs = append(jobs, pairJob{g.clusters[i], g.clusters[j]})
		}
	}

	var mu sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for _, job := range jobs {
		job := job
		eg.Go(func() error {
			signals := g.calculateSignals(job.a, job.b)
			if signals.EvidenceScore > g.signals.NoiseFloor {
				mu.Lock()
				g.edges[signals.Pair] = signals
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
}

func (g *InterClusterGraph) calculateSignals(a, b *Cluster) *EdgeSignals {
	tableJaccard := g.tableJaccard(a, b)
	callDensity := g.callDensity(a, b)
	tokenSimilarity := g.tokenSimilarity(a, b)
	eventLinks := g.eventLinks(a, b)

	eventSignal := 0.0
	if len(eventLinks) > 0 {
		eventSignal = 1.0
	}

	score := g.signals.TableWeight*tableJaccard +
		g.signals.CallWeight*callDensity +
		g.signals.TokenWeight*tokenSimilarity +
		g.signals.EventWeight*eventSignal

	return &EdgeSignals{
		Pair:            NewClusterPair(a.ClusterID, b.ClusterID),
		TableJaccard:    tableJaccard,
		CallDensity:     callDensity,
		TokenSimilarity: tokenSimilarity,
		EventLinks:      eventLinks,
		EvidenceScore:   score,
	}
}

// tableJaccard is the Jaccard index over the clusters' shared-table sets.
func (g *InterClusterGraph) tableJaccard(a, b *Cluster) float64 {
	tablesA := stringSet(a.Metrics.TablesShared)
	tablesB := stringSet(b.Metrics.TablesShared)
	if len(tablesA) == 0 && len(tablesB) == 0 {
		return 0.0
	}
	return jaccard(tablesA, tablesB)
}

// callDensity relates cross-cluster call edges to internal call edges,
// counted as raw call occurrences rather than weights, capped at 1.
func (g *InterClusterGraph) callDensity(a, b *Cluster) float64 {
	cross := g.countCalls(a.Members, b.Members) + g.countCalls(b.Members, a.Members)
	if cross == 0 {
		return 0.0
	}
	internal := g.countInternalCalls(a.Members) + g.countInternalCalls(b.Members)
	if internal == 0 {
		return 0.0
	}
	density := float64(cross) / (float64(internal) * 0.5)
	if density > 1.0 {
		return 1.0
	}
	return density
}

func (g *InterClusterGraph) countCalls(from, to []string) int {
	toSet := make(map[string]bool, len(to))
	for _, id := range to {
		toSet[id] = true
	}
	calls := 0
	for _, id := range from {
		comp, ok := g.compIdx[id]
		if !ok {
			continue
		}
		for _, called := range comp.CallsOut {
			if toSet[called] {
				calls++
			}
		}
	}
	return calls
}

func (g *InterClusterGraph) countInternalCalls(members []string) int {
	set := make(map[string]bool, len(members))
	for _, id := range members {
		set[id] = true
	}
	calls := 0
	for _, id := range members {
		comp, ok := g.compIdx[id]
		if !ok {
			continue
		}
		for _, called := range comp.CallsOut {
			if set[called] {
				calls++
			}
		}
	}
	return calls
}

// tokenSimilarity is the Jaccard index over domain tokens extracted from
// the members' role-bearing names.
func (g *InterClusterGraph) tokenSimilarity(a, b *Cluster) float64 {
	tokensA := ExtractDomainTokens(a.Members, nil)
	tokensB := ExtractDomainTokens(b.Members, nil)
	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 0.0
	}
	return jaccard(tokensA, tokensB)
}

// eventLinks intersects published event names with consumed event names,
// symmetrically in both directions.
func (g *InterClusterGraph) eventLinks(a, b *Cluster) []string {
	links := make([]string, 0)
	for published := range publishedEvents(a.Members) {
		if consumedEvents(b.Members)[published] {
			links = append(links, published)
		}
	}
	for published := range publishedEvents(b.Members) {
		if consumedEvents(a.Members)[published] {
			links = append(links, published)
		}
	}
	sort.Strings(links)
	return links
}

func publishedEvents(members []string) map[string]bool {
	events := make(map[string]bool)
	for _, id := range members {
		lower := strings.ToLower(id)
		if strings.Contains(lower, "publisher") || strings.Contains(lower, "event") {
			events[model.SimpleName(id)] = true
		}
	}
	return events
}

func consumedEvents(members []string) map[string]bool {
	events := make(map[string]bool)
	for _, id := range members {
		lower := strings.ToLower(id)
		if strings.Contains(lower, "listener") || strings.Contains(lower, "consumer") {
			events[model.SimpleName(id)] = true
		}
	}
	return events
}

// SortedEdges returns all edges ordered by evidence score descending, with
// the (min, max) pair key as a deterministic tie-break.
func (g *InterClusterGraph) SortedEdges() []*EdgeSignals {
	edges := make([]*EdgeSignals, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].EvidenceScore != edges[j].EvidenceScore {
			return edges[i].EvidenceScore > edges[j].EvidenceScore
		}
		if edges[i].Pair.A != edges[j].Pair.A {
			return edges[i].Pair.A < edges[j].Pair.A
		}
		return edges[i].Pair.B < edges[j].Pair.B
	})
	return edges
}

// Edge returns the signals for a cluster pair, or nil when the pair fell
// below the noise floor.
func (g *InterClusterGraph) Edge(idA, idB int) *EdgeSignals {
	return g.edges[NewClusterPair(idA, idB)]
}

func stringSet(in []string) map[string]bool {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		set[s] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	intersection := 0
	for s := range a {
		if b[s] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
