package inference

import (
	"math"
	"strings"
	"testing"

	"monoscope/internal/config"
	"monoscope/internal/model"
)

func scorerFor(clusters []*Cluster, graph *model.DependencyGraph) *ViabilityScorer {
	return NewViabilityScorer(clusters, graph.Components, config.Default().Inference.Viability)
}

func TestScore_EmptyGroupIsBaja(t *testing.T) {
	graph := buildGraph(nil, nil)
	scorer := scorerFor(nil, graph)

	result := scorer.Score([]int{99})
	if result.Viability != ViabilityLow || result.Score != 0.0 {
		t.Fatalf("empty group scored %s/%f", result.Viability, result.Score)
	}
	if len(result.Rationale) != 1 || result.Rationale[0] != "No se encontraron clusters válidos" {
		t.Fatalf("rationale = %v", result.Rationale)
	}
}

func TestScore_SmallGroupPenalty(t *testing.T) {
	// Two tightly coupled members: weighted cohesion 1.0, density 1.0 so
	// cohesionAdj = 1.0; coupling 0; no tables so data cohesion 0.5.
	graph := buildGraph([]testComponent{
		{id: "a.A"},
		{id: "a.B"},
	}, [][2]string{{"a.A", "a.B"}, {"a.B", "a.A"}})

	clusters := []*Cluster{makeCluster(0, "a.A", "a.B")}
	annotateClusters(clusters, graph)

	result := scorerFor(clusters, graph).Score([]int{0})

	// Base 0.5*1.0 + 0.35*1.0 + 0.15*0.5 = 0.925, then ×0.6 for size < 3.
	if math.Abs(result.Score-0.555) > 1e-9 {
		t.Fatalf("score = %f, want 0.555", result.Score)
	}
	if result.Viability != ViabilityMedium {
		t.Fatalf("viability = %s, want Media", result.Viability)
	}
}

func TestScore_MonotoneInCoupling(t *testing.T) {
	build := func(external int) float64 {
		comps := []testComponent{{id: "a.A"}, {id: "a.B"}, {id: "a.C"}}
		calls := [][2]string{{"a.A", "a.B"}, {"a.B", "a.C"}, {"a.C", "a.A"}}
		for i := 0; i < external; i++ {
			out := testComponent{id: "x.Out" + string(rune('A'+i))}
			comps = append(comps, out)
			calls = append(calls, [2]string{"a.A", out.id})
		}
		graph := buildGraph(comps, calls)
		clusters := []*Cluster{makeCluster(0, "a.A", "a.B", "a.C")}
		annotateClusters(clusters, graph)
		return scorerFor(clusters, graph).Score([]int{0}).Score
	}

	none := build(0)
	some := build(2)
	lots := build(5)
	if !(none >= some && some >= lots) {
		t.Fatalf("score not monotone non-increasing in coupling: %f, %f, %f", none, some, lots)
	}
}

func TestScore_RationaleCoversMetricBands(t *testing.T) {
	cbo := 12
	lcom := 0.8
	graph := buildGraph([]testComponent{
		{id: "a.A", opts: func(c *model.Component) { c.CBO = &cbo; c.LCOM = &lcom }},
		{id: "x.B"},
	}, [][2]string{{"a.A", "x.B"}})

	clusters := []*Cluster{makeCluster(0, "a.A")}
	annotateClusters(clusters, graph)

	result := scorerFor(clusters, graph).Score([]int{0})
	joined := strings.Join(result.Rationale, "\n")

	if !strings.Contains(joined, "Métricas de Calidad") {
		t.Fatal("missing quality metrics summary")
	}
	if !strings.Contains(joined, "CBO alto") {
		t.Fatal("missing high-CBO band line")
	}
	if !strings.Contains(joined, "LCOM alto") {
		t.Fatal("missing high-LCOM band line")
	}
	if result.Viability != ViabilityLow {
		t.Fatalf("viability = %s, want Baja", result.Viability)
	}
	if !strings.Contains(joined, "RAZONES POR LAS QUE ESTA DESCOMPOSICIÓN NO ES VIABLE") {
		t.Fatal("Baja verdict must include the failure-reasons block")
	}
	if !strings.Contains(joined, "RECOMENDACIÓN") {
		t.Fatal("Baja verdict must end with a recommendation")
	}
}

func TestScore_QualityMetricsDoNotAlterScore(t *testing.T) {
	build := func(withQuality bool) float64 {
		cbo := 50
		lcom := 0.99
		opts := func(c *model.Component) {}
		if withQuality {
			opts = func(c *model.Component) { c.CBO = &cbo; c.LCOM = &lcom }
		}
		graph := buildGraph([]testComponent{
			{id: "a.A", opts: opts},
			{id: "a.B"},
			{id: "a.C"},
		}, [][2]string{{"a.A", "a.B"}, {"a.B", "a.C"}})
		clusters := []*Cluster{makeCluster(0, "a.A", "a.B", "a.C")}
		annotateClusters(clusters, graph)
		return scorerFor(clusters, graph).Score([]int{0}).Score
	}

	if build(false) != build(true) {
		t.Fatal("CBO/LCOM must inform rationale only, never the score")
	}
}

func TestScore_DataCohesionNeutralWithoutTables(t *testing.T) {
	graph := buildGraph([]testComponent{{id: "a.A"}, {id: "a.B"}, {id: "a.C"}}, nil)
	clusters := []*Cluster{makeCluster(0, "a.A", "a.B", "a.C")}
	annotateClusters(clusters, graph)

	vs := scorerFor(clusters, graph)
	if got := vs.dataCohesion(clusters); got != 0.5 {
		t.Fatalf("data cohesion without tables = %f, want 0.5", got)
	}
}
