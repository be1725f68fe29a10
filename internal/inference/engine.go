package inference

import (
	"context"
	"log/slog"
	"time"

	"monoscope/internal/model"
	"monoscope/internal/shared/observability"
)

// Candidates is the output of the candidate phase: the annotated clusters
// plus per-cluster explanations.
type Candidates struct {
	Clusters     []*Cluster           `json:"candidates"`
	Explanations []ClusterExplanation `json:"explanations"`
}

// Engine runs the candidate half of the pipeline: layer classification,
// initial clustering, metrics, and rule scoring. Phases execute strictly in
// order; each cluster is owned by exactly one phase at a time.
type Engine struct {
	classifier *LayerClassifier
	clustering *ClusteringAlgorithm
	metrics    *MetricsCalculator
	rules      []Rule
}

func NewEngine() *Engine {
	return &Engine{
		classifier: NewLayerClassifier(),
		clustering: NewClusteringAlgorithm(),
		metrics:    NewMetricsCalculator(),
		rules:      RuleVector(),
	}
}

// Analyze produces the microservice candidates for a dependency graph.
func (e *Engine) Analyze(ctx context.Context, graph *model.DependencyGraph) *Candidates {
	ctx, span := observability.Tracer.Start(ctx, "inference.Analyze")
	defer span.End()

	e.phase(ctx, "layer_classify", func() {
		e.classifier.ClassifyAll(graph.Components)
	})

	var clusters []*Cluster
	e.phase(ctx, "cluster", func() {
		clusters = e.clustering.CreateClusters(graph)
	})
	slog.Info("clusters formed", "count", len(clusters))
	observability.ClustersFormed.Set(float64(len(clusters)))

	e.phase(ctx, "metrics", func() {
		for _, cluster := range clusters {
			cluster.Metrics = e.metrics.Calculate(cluster, graph)
		}
	})

	e.phase(ctx, "rules", func() {
		for _, cluster := range clusters {
			e.applyRules(cluster)
		}
	})

	result := &Candidates{
		Clusters:     clusters,
		Explanations: make([]ClusterExplanation, 0, len(clusters)),
	}
	for _, cluster := range clusters {
		result.Explanations = append(result.Explanations, explain(cluster))
	}
	return result
}

func (e *Engine) applyRules(cluster *Cluster) {
	total := 0.0
	for _, rule := range e.rules {
		if rule.Fires(cluster) {
			cluster.RulesFired = append(cluster.RulesFired, rule.Name)
			total += rule.Score
		}
	}
	if total > 1.0 {
		total = 1.0
	}
	cluster.FinalScore = total
}

func (e *Engine) phase(ctx context.Context, name string, fn func()) {
	_, span := observability.Tracer.Start(ctx, "phase."+name)
	defer span.End()

	start := time.Now()
	fn()
	observability.PhaseDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
