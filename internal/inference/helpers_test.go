package inference

import (
	"monoscope/internal/config"
	"monoscope/internal/model"
)

// buildGraph assembles a sealed dependency graph from component specs and
// call edges, mirroring what the ingester produces.
type testComponent struct {
	id     string
	tables []string
	loc    int
	opts   func(*model.Component)
}

func buildGraph(comps []testComponent, calls [][2]string) *model.DependencyGraph {
	b := model.NewGraphBuilder()
	for _, tc := range comps {
		c := b.Register(tc.id)
		c.TablesUsed = tc.tables
		c.LOC = tc.loc
		if tc.opts != nil {
			tc.opts(c)
		}
	}
	for _, call := range calls {
		b.AddDependency(call[0], call[1], model.CallWeight, model.EdgeCall)
	}
	return b.Build(model.NewMeta("test"))
}

func defaultInference() config.Inference {
	cfg := config.Default()
	return cfg.Inference
}

// makeCluster builds a cluster with members, for phases past clustering.
func makeCluster(id int, members ...string) *Cluster {
	c := NewCluster(id)
	for _, m := range members {
		c.AddMember(m)
	}
	return c
}

// annotateClusters runs the metrics phase over a cluster set.
func annotateClusters(clusters []*Cluster, graph *model.DependencyGraph) {
	mc := NewMetricsCalculator()
	for _, c := range clusters {
		c.Metrics = mc.Calculate(c, graph)
	}
}
