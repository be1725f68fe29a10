package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "monoscope_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "monoscope_phase_seconds",
		Help:    "Time spent in an inference pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	GraphComponents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monoscope_graph_components_total",
		Help: "Total number of components in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monoscope_graph_edges_total",
		Help: "Total number of edges in the dependency graph.",
	})

	ClustersFormed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monoscope_clusters_total",
		Help: "Number of initial clusters produced by the partitioning phase.",
	})

	ProposalsEmitted = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monoscope_proposals_total",
		Help: "Number of consolidated proposals, labeled by viability tier.",
	}, []string{"viability"})

	SupportLibraries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monoscope_support_libraries_total",
		Help: "Number of support-library groups in the last analysis.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monoscope_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	AnalysisRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monoscope_analysis_runs_total",
		Help: "Total number of completed analysis runs.",
	})
)
