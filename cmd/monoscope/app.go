package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"monoscope/internal/config"
	"monoscope/internal/history"
	"monoscope/internal/inference"
	"monoscope/internal/ingest"
	"monoscope/internal/model"
	"monoscope/internal/output"
	"monoscope/internal/shared/observability"
	"monoscope/internal/watcher"
)

// App wires the pipeline: ingest → inference → recommendation → artifacts.
type App struct {
	cfg     *config.Config
	engine  *inference.Engine
	recom   *inference.RecommendationEngine
	writer  *output.Writer
	history *history.Store
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{
		cfg:    cfg,
		engine: inference.NewEngine(),
		recom:  inference.NewRecommendationEngine(cfg.Inference),
		writer: output.NewWriter(cfg.Output.GraphFile),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		app.history = store
	}

	return app, nil
}

func (a *App) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}
}

// RunOnce executes one full analysis pass.
func (a *App) RunOnce(ctx context.Context) error {
	ingester := ingest.NewIngester(a.cfg)
	graph, err := ingester.Run(ctx)
	if err != nil {
		return err
	}

	candidates := a.engine.Analyze(ctx, graph)
	arch := a.recom.AnalyzeConsolidated(ctx, candidates, graph.Components,
		ingester.Resolver().Dependencies())

	return a.emit(graph, candidates, arch)
}

// RunWatch performs an initial analysis and then re-runs on changes until
// the context is cancelled.
func (a *App) RunWatch(ctx context.Context) error {
	if err := a.RunOnce(ctx); err != nil {
		return err
	}

	if a.cfg.Metrics.Enabled {
		a.serveMetrics(ctx)
	}

	w, err := watcher.New(a.cfg.Watch.Debounce, a.cfg.Watch.RateLimit,
		a.cfg.Exclude.Dirs, func(paths []string) {
			slog.Info("re-running analysis", "changed", len(paths))
			if runErr := a.RunOnce(ctx); runErr != nil {
				slog.Error("re-analysis failed", "error", runErr)
			}
		})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(ctx, []string{a.cfg.Project.Root}); err != nil {
		return err
	}

	slog.Info("watching for changes", "root", a.cfg.Project.Root)
	<-ctx.Done()
	return nil
}

func (a *App) emit(graph *model.DependencyGraph, candidates *inference.Candidates,
	arch *inference.ConsolidatedArchitecture) error {

	attachAccuracyMeta(graph, candidates, arch)

	artifacts := output.Artifacts{Graph: graph, Candidates: candidates, Architecture: arch}
	if err := a.writer.WriteAll(artifacts); err != nil {
		return err
	}
	slog.Info("artifacts written",
		"graph", a.cfg.Output.GraphFile,
		"architecture", a.writer.ArchitecturePath(),
		"entrypoints", a.writer.EntrypointsPath())

	if a.cfg.Output.Mermaid != "" {
		diagram := output.NewMermaidGenerator(arch).Generate()
		if err := os.MkdirAll(filepath.Dir(a.cfg.Output.Mermaid), 0o755); err == nil {
			if err := os.WriteFile(a.cfg.Output.Mermaid, []byte(diagram), 0o644); err != nil {
				slog.Warn("failed to write mermaid diagram", "error", err)
			}
		}
	}

	if a.history != nil {
		if err := a.history.RecordRun(a.cfg.Project.Root, graph, candidates, arch); err != nil {
			slog.Warn("failed to record analysis run", "error", err)
		}
	}

	observability.AnalysisRunsTotal.Inc()

	if a.cfg.Output.Summary {
		fmt.Println(output.RenderSummary(arch))
	} else {
		fmt.Println(arch.Summary)
	}
	return nil
}

// attachAccuracyMeta fills the graph meta accuracy maps from what this run
// actually resolved and decided.
func attachAccuracyMeta(graph *model.DependencyGraph, candidates *inference.Candidates,
	arch *inference.ConsolidatedArchitecture) {

	componentCount := len(graph.Components)
	linked := 0
	for i := range graph.Components {
		if len(graph.Components[i].CallsOut) > 0 || len(graph.Components[i].CallsIn) > 0 {
			linked++
		}
	}
	linkedRatio := 0.0
	if componentCount > 0 {
		linkedRatio = float64(linked) / float64(componentCount)
	}
	graph.Meta.DependencyAccuracy = map[string]float64{
		"components":             float64(componentCount),
		"edges":                  float64(len(graph.Edges)),
		"linked_component_ratio": linkedRatio,
	}

	alta := 0
	for _, proposal := range arch.Proposals {
		if proposal.Viability == inference.ViabilityHigh {
			alta++
		}
	}
	graph.Meta.DecompositionAccuracy = map[string]float64{
		"clusters":          float64(len(candidates.Clusters)),
		"proposals":         float64(len(arch.Proposals)),
		"support_libraries": float64(len(arch.SupportLibraries)),
		"alta_proposals":    float64(alta),
	}
}

func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: a.cfg.Metrics.Address, Handler: mux}
	slog.Info("metrics server starting", "addr", a.cfg.Metrics.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
}
