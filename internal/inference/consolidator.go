package inference

import (
	"log/slog"
	"sort"
	"strings"

	"monoscope/internal/config"
	"monoscope/internal/model"
	"monoscope/internal/shared/util"
)

// Hard floors below which the strong-candidate protection guardrail refuses
// a merge: two healthy clusters stay apart unless they demonstrably talk to
// each other or share data.
const (
	protectionCallDensity  = 0.15
	protectionTableJaccard = 0.2
)

// Infrastructure keywords used for support/business classification during
// consolidation and orchestration.
var consolidationInfraKeywords = []string{
	"application", "config", "configuration", "security", "auth", "swagger",
	"main", "exception", "error", "filter", "interceptor", "aspect", "openapi",
}

// Generic placeholder names that never drive a name-collision merge.
var genericNames = map[string]bool{
	NameBusiness:                  true,
	NameUnknown:                   true,
	NameInfrastructure:            true,
	"Componente de Configuración": true,
}

// ClusterConsolidator greedily unions clusters along strong evidence edges,
// guarded so that support and business groups stay apart, oversized merges
// require high token similarity, and strong candidates are protected. The
// union-find is single-owner mutable state for the duration of this phase.
type ClusterConsolidator struct {
	clusters []*Cluster
	byID     map[int]*Cluster
	graph    *InterClusterGraph
	names    *NameGenerator
	cfg      config.Consolidation
	groups   map[int]map[int]bool
}

func NewClusterConsolidator(clusters []*Cluster, components []model.Component,
	inf config.Inference) *ClusterConsolidator {

	groups := make(map[int]map[int]bool, len(clusters))
	for _, c := range clusters {
		groups[c.ClusterID] = map[int]bool{c.ClusterID: true}
	}

	return &ClusterConsolidator{
		clusters: clusters,
		byID:     clusterByID(clusters),
		graph:    NewInterClusterGraph(clusters, components, inf.Signals),
		names:    NewNameGenerator(inf.Naming.ExcludeTokens, inf.Consolidation.SupportRatio),
		cfg:      inf.Consolidation,
		groups:   groups,
	}
}

// Graph exposes the inter-cluster evidence graph built for this pass.
func (cc *ClusterConsolidator) Graph() *InterClusterGraph {
	return cc.graph
}

// Consolidate runs both merge phases and returns the non-empty groups of
// cluster ids, ordered by smallest member id.
func (cc *ClusterConsolidator) Consolidate() [][]int {
	cc.mergeByName()

	for _, candidate := range cc.strongCandidates() {
		rootA := cc.findRoot(candidate.Pair.A)
		rootB := cc.findRoot(candidate.Pair.B)
		if rootA == rootB {
			continue
		}
		if cc.canMerge(rootA, rootB, candidate) {
			cc.merge(rootA, rootB)
		}
	}

	out := make([][]int, 0, len(cc.groups))
	for _, root := range util.SortedIntKeys(cc.groups) {
		group := cc.groups[root]
		if len(group) == 0 {
			continue
		}
		ids := make([]int, 0, len(group))
		for id := range group {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// mergeByName is the pre-pass: singleton prospective names that collide
// merge under the same-domain rule before evidence is considered.
func (cc *ClusterConsolidator) mergeByName() {
	nameToIDs := make(map[string][]int)
	for _, cluster := range cc.clusters {
		name := cc.names.Generate([]int{cluster.ClusterID}, cc.byID)
		if genericNames[name] {
			continue
		}
		nameToIDs[name] = append(nameToIDs[name], cluster.ClusterID)
	}

	for _, name := range util.SortedStringKeys(nameToIDs) {
		ids := nameToIDs[name]
		if len(ids) < 2 {
			continue
		}
		sort.Ints(ids)
		firstRoot := cc.findRoot(ids[0])
		for _, id := range ids[1:] {
			nextRoot := cc.findRoot(id)
			if firstRoot == nextRoot {
				continue
			}
			if cc.canMergeSameDomain(firstRoot, nextRoot) {
				slog.Debug("merging clusters by generated name", "name", name, "roots", []int{firstRoot, nextRoot})
				cc.merge(firstRoot, nextRoot)
				firstRoot = cc.findRoot(firstRoot)
			}
		}
	}
}

func (cc *ClusterConsolidator) strongCandidates() []*EdgeSignals {
	candidates := make([]*EdgeSignals, 0)
	for _, edge := range cc.graph.SortedEdges() {
		if edge.HasStrongEvidence(cc.cfg) {
			candidates = append(candidates, edge)
		}
	}
	return candidates
}

// canMerge applies the three evidence-phase guardrails.
func (cc *ClusterConsolidator) canMerge(rootA, rootB int, signals *EdgeSignals) bool {
	supportA := cc.isSupportGroup(rootA)
	supportB := cc.isSupportGroup(rootB)
	if supportA != supportB {
		return false
	}

	combined := cc.groupSize(rootA) + cc.groupSize(rootB)
	if combined > cc.cfg.MaxSizeWithoutHighSimilarity &&
		signals.TokenSimilarity < cc.cfg.HighTokenSimilarity {
		return false
	}

	if cc.hasStrongCandidate(rootA) && cc.hasStrongCandidate(rootB) &&
		signals.CallDensity < protectionCallDensity &&
		signals.TableJaccard < protectionTableJaccard {
		return false
	}

	return true
}

// canMergeSameDomain guards the name-collision pre-pass.
func (cc *ClusterConsolidator) canMergeSameDomain(rootA, rootB int) bool {
	if cc.isSupportGroup(rootA) != cc.isSupportGroup(rootB) {
		return false
	}
	if cc.hasSignificantInfrastructure(rootA) != cc.hasSignificantInfrastructure(rootB) {
		return false
	}
	return cc.groupSize(rootA)+cc.groupSize(rootB) <= cc.cfg.SameDomainMaxSize
}

// isSupportGroup reports whether infra-named members reach the support
// ratio across the whole group under the given root.
func (cc *ClusterConsolidator) isSupportGroup(root int) bool {
	total, infra := cc.groupInfraCounts(root)
	return total > 0 && float64(infra)/float64(total) >= cc.cfg.SupportRatio
}

// hasSignificantInfrastructure applies the looser same-domain bar.
func (cc *ClusterConsolidator) hasSignificantInfrastructure(root int) bool {
	total, infra := cc.groupInfraCounts(root)
	return total > 0 && float64(infra)/float64(total) >= cc.cfg.SignificantInfraRatio
}

func (cc *ClusterConsolidator) groupInfraCounts(root int) (total, infra int) {
	group := cc.groups[root]
	for id := range group {
		cluster, ok := cc.byID[id]
		if !ok {
			continue
		}
		for _, member := range cluster.Members {
			total++
			if IsInfrastructureComponent(member) {
				infra++
			}
		}
	}
	return total, infra
}

func (cc *ClusterConsolidator) groupSize(root int) int {
	size := 0
	for id := range cc.groups[root] {
		if cluster, ok := cc.byID[id]; ok {
			size += cluster.Size()
		}
	}
	return size
}

func (cc *ClusterConsolidator) hasStrongCandidate(root int) bool {
	for id := range cc.groups[root] {
		cluster, ok := cc.byID[id]
		if !ok {
			continue
		}
		if cluster.Metrics.Cohesion >= cc.cfg.StrongCohesion &&
			cluster.Metrics.Coupling < cc.cfg.StrongCouplingMax &&
			cluster.Size() >= cc.cfg.StrongMinSize {
			return true
		}
	}
	return false
}

// findRoot returns the canonical group id owning the given cluster id.
// Roots are scanned in sorted order so lookups are deterministic.
func (cc *ClusterConsolidator) findRoot(clusterID int) int {
	for _, root := range util.SortedIntKeys(cc.groups) {
		if cc.groups[root][clusterID] {
			return root
		}
	}
	return clusterID
}

// merge unites two groups and clears the absorbed entry.
func (cc *ClusterConsolidator) merge(rootA, rootB int) {
	for id := range cc.groups[rootB] {
		cc.groups[rootA][id] = true
	}
	cc.groups[rootB] = map[int]bool{}
}

// IsInfrastructureComponent checks the simple class name (never the package
// path, which would false-positive on hexagonal "application" packages) for
// infrastructure keywords.
func IsInfrastructureComponent(id string) bool {
	simple := strings.ToLower(model.SimpleName(id))
	for _, keyword := range consolidationInfraKeywords {
		if strings.Contains(simple, keyword) {
			return true
		}
	}
	return false
}
