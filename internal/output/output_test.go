package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"monoscope/internal/config"
	"monoscope/internal/inference"
	"monoscope/internal/model"
)

func sampleArtifacts(t *testing.T) Artifacts {
	t.Helper()
	b := model.NewGraphBuilder()
	for _, id := range []string{
		"com.shop.item.ItemService",
		"com.shop.item.ItemRepository",
		"com.shop.order.OrderService",
		"com.shop.order.OrderRepository",
	} {
		b.Register(id)
	}
	b.AddDependency("com.shop.item.ItemService", "com.shop.item.ItemRepository",
		model.CallWeight, model.EdgeCall)
	graph := b.Build(model.NewMeta("monoscope"))

	candidates := inference.NewEngine().Analyze(context.Background(), graph)
	arch := inference.NewRecommendationEngine(config.Default().Inference).
		AnalyzeConsolidated(context.Background(), candidates, graph.Components, nil)

	return Artifacts{Graph: graph, Candidates: candidates, Architecture: arch}
}

func TestWriter_WriteAll(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "output.json")

	artifacts := sampleArtifacts(t)
	w := NewWriter(graphPath)
	if err := w.WriteAll(artifacts); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	var graph model.DependencyGraph
	data, err := os.ReadFile(graphPath)
	if err != nil {
		t.Fatalf("read graph artifact: %v", err)
	}
	if err := json.Unmarshal(data, &graph); err != nil {
		t.Fatalf("graph artifact is not valid JSON: %v", err)
	}
	if len(graph.Components) != 4 {
		t.Fatalf("graph artifact has %d components, want 4", len(graph.Components))
	}

	var arch inference.ConsolidatedArchitecture
	data, err = os.ReadFile(w.ArchitecturePath())
	if err != nil {
		t.Fatalf("read architecture artifact: %v", err)
	}
	if err := json.Unmarshal(data, &arch); err != nil {
		t.Fatalf("architecture artifact is not valid JSON: %v", err)
	}
	if arch.ProjectMetadata.TotalComponents != 4 {
		t.Fatalf("total_components = %d, want 4", arch.ProjectMetadata.TotalComponents)
	}

	if _, err := os.Stat(w.EntrypointsPath()); err != nil {
		t.Fatalf("entrypoints artifact missing: %v", err)
	}
}

func TestDerivePath(t *testing.T) {
	if got := derivePath("out/output.json", "_architecture"); got != "out/output_architecture.json" {
		t.Fatalf("derivePath = %q", got)
	}
	if got := derivePath("output", "_entrypoints"); got != "output_entrypoints.json" {
		t.Fatalf("derivePath without extension = %q", got)
	}
}

func TestMermaid_Generate(t *testing.T) {
	artifacts := sampleArtifacts(t)
	diagram := NewMermaidGenerator(artifacts.Architecture).Generate()

	if !strings.HasPrefix(diagram, "%%{init:") {
		t.Fatal("missing mermaid init header")
	}
	if !strings.Contains(diagram, "flowchart LR") {
		t.Fatal("missing flowchart directive")
	}
	for _, proposal := range artifacts.Architecture.Proposals {
		if !strings.Contains(diagram, proposal.Name) {
			t.Fatalf("proposal %q missing from diagram", proposal.Name)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	artifacts := sampleArtifacts(t)
	summary := RenderSummary(artifacts.Architecture)

	if !strings.Contains(summary, "Propuesta de descomposición") {
		t.Fatal("missing summary title")
	}
	if !strings.Contains(summary, "componentes") {
		t.Fatal("missing component counts")
	}
}
