package inference

import (
	"monoscope/internal/model"
)

// Cluster is a group of components produced by the initial partitioning
// phase. It is mutated only inside a single pipeline pass: the clustering
// algorithm creates it, the metrics calculator annotates it, and the rule
// engine appends to RulesFired.
type Cluster struct {
	ClusterID  int            `json:"cluster_id"`
	Members    []string       `json:"members"`
	Metrics    ClusterMetrics `json:"metrics"`
	RulesFired []string       `json:"rules_fired"`
	FinalScore float64        `json:"final_score"`
}

func NewCluster(id int) *Cluster {
	return &Cluster{
		ClusterID:  id,
		Members:    []string{},
		RulesFired: []string{},
		Metrics:    ClusterMetrics{TablesShared: []string{}},
	}
}

func (c *Cluster) AddMember(id string) {
	for _, m := range c.Members {
		if m == id {
			return
		}
	}
	c.Members = append(c.Members, id)
}

func (c *Cluster) Size() int {
	return len(c.Members)
}

// ClusterMetrics are the per-cluster structure metrics. Cohesion and
// coupling partition the same denominator, so cohesion + coupling <= 1 for
// any cluster with outgoing edges.
type ClusterMetrics struct {
	Cohesion     float64  `json:"cohesion"`
	Coupling     float64  `json:"coupling"`
	TablesShared []string `json:"tables_shared"`
	Sensitive    bool     `json:"sensitive"`
	LOC          int      `json:"loc"`
}

// clusterByID builds an id -> cluster lookup over one partition.
func clusterByID(clusters []*Cluster) map[int]*Cluster {
	idx := make(map[int]*Cluster, len(clusters))
	for _, c := range clusters {
		idx[c.ClusterID] = c
	}
	return idx
}

// memberSet collects the member ids of a set of clusters.
func memberSet(clusters []*Cluster) map[string]bool {
	set := make(map[string]bool)
	for _, c := range clusters {
		for _, m := range c.Members {
			set[m] = true
		}
	}
	return set
}

// resolveClusters maps cluster ids to clusters, skipping unknown ids.
func resolveClusters(ids []int, byID map[int]*Cluster) []*Cluster {
	out := make([]*Cluster, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// componentsOf resolves member ids against the component index.
func componentsOf(members []string, idx map[string]*model.Component) []*model.Component {
	out := make([]*model.Component, 0, len(members))
	for _, id := range members {
		if c, ok := idx[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
