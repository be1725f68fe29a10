package inference

import (
	"sort"

	"monoscope/internal/model"
)

// MetricsCalculator annotates clusters with structure metrics derived from
// the full dependency graph. The graph is read-only from this phase onward.
type MetricsCalculator struct{}

func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// Calculate fills in all metrics for one cluster.
func (mc *MetricsCalculator) Calculate(cluster *Cluster, graph *model.DependencyGraph) ClusterMetrics {
	idx := graph.ComponentIndex()
	members := componentsOf(cluster.Members, idx)

	return ClusterMetrics{
		Cohesion:     mc.cohesion(cluster, graph),
		Coupling:     mc.coupling(cluster, graph),
		TablesShared: mc.sharedTables(members),
		Sensitive:    mc.hasSensitiveData(members),
		LOC:          mc.totalLOC(members),
	}
}

// cohesion is the weight fraction of a cluster's outgoing edges that stays
// inside the cluster. Singletons have no internal cohesion.
func (mc *MetricsCalculator) cohesion(cluster *Cluster, graph *model.DependencyGraph) float64 {
	members := make(map[string]bool, len(cluster.Members))
	for _, m := range cluster.Members {
		members[m] = true
	}
	if len(members) <= 1 {
		return 0.0
	}

	internal := 0
	outgoing := 0
	for i := range graph.Edges {
		e := &graph.Edges[i]
		if !members[e.From] {
			continue
		}
		outgoing += e.Weight
		if members[e.To] {
			internal += e.Weight
		}
	}

	if outgoing == 0 {
		return 0.0
	}
	return float64(internal) / float64(outgoing)
}

// coupling is the weight fraction of a cluster's outgoing edges whose target
// lies outside the cluster.
func (mc *MetricsCalculator) coupling(cluster *Cluster, graph *model.DependencyGraph) float64 {
	members := make(map[string]bool, len(cluster.Members))
	for _, m := range cluster.Members {
		members[m] = true
	}

	external := 0
	outgoing := 0
	for i := range graph.Edges {
		e := &graph.Edges[i]
		if !members[e.From] {
			continue
		}
		outgoing += e.Weight
		if !members[e.To] {
			external += e.Weight
		}
	}

	if outgoing == 0 {
		return 0.0
	}
	return float64(external) / float64(outgoing)
}

// sharedTables returns tables used by at least two members.
func (mc *MetricsCalculator) sharedTables(members []*model.Component) []string {
	counts := make(map[string]int)
	for _, comp := range members {
		for _, table := range comp.TablesUsed {
			counts[table]++
		}
	}

	shared := make([]string, 0)
	for table, n := range counts {
		if n >= 2 {
			shared = append(shared, table)
		}
	}
	sort.Strings(shared)
	return shared
}

func (mc *MetricsCalculator) hasSensitiveData(members []*model.Component) bool {
	for _, comp := range members {
		if comp.SensitiveData {
			return true
		}
	}
	return false
}

func (mc *MetricsCalculator) totalLOC(members []*model.Component) int {
	total := 0
	for _, comp := range members {
		total += comp.LOC
	}
	return total
}
