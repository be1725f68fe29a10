package inference

import (
	"context"
	"strings"
	"testing"

	"monoscope/internal/model"
)

func runPipeline(t *testing.T, graph *model.DependencyGraph,
	projectDeps map[string]string) *ConsolidatedArchitecture {
	t.Helper()
	candidates := NewEngine().Analyze(context.Background(), graph)
	engine := NewRecommendationEngine(defaultInference())
	return engine.AnalyzeConsolidated(context.Background(), candidates, graph.Components, projectDeps)
}

func scenarioOneGraph() *model.DependencyGraph {
	return buildGraph([]testComponent{
		{id: "com.shop.item.ItemService", tables: []string{"item"}, loc: 120},
		{id: "com.shop.item.ItemRepository", tables: []string{"item"}, loc: 40},
		{id: "com.shop.item.ItemController", tables: []string{"item"}, loc: 80},
		{id: "com.shop.item.ItemDto", tables: []string{"item"}, loc: 20},
		{id: "com.shop.order.OrderService", tables: []string{"order"}, loc: 150},
		{id: "com.shop.order.OrderRepository", tables: []string{"order"}, loc: 30},
		{id: "com.shop.security.SecurityConfig", loc: 25},
		{id: "com.shop.security.AuthFilter", loc: 35},
	}, [][2]string{
		{"com.shop.item.ItemService", "com.shop.item.ItemRepository"},
		{"com.shop.item.ItemController", "com.shop.item.ItemDto"},
		{"com.shop.item.ItemController", "com.shop.item.ItemService"},
		{"com.shop.order.OrderService", "com.shop.order.OrderRepository"},
	})
}

func TestAnalyzeConsolidated_EndToEndScenario(t *testing.T) {
	arch := runPipeline(t, scenarioOneGraph(), nil)

	names := make([]string, 0)
	for _, p := range arch.Proposals {
		names = append(names, p.Name)
	}
	joined := strings.Join(names, "; ")
	if !strings.Contains(joined, "Componente de Item") {
		t.Fatalf("missing item proposal, got %q", joined)
	}
	if !strings.Contains(joined, "Componente de Order") {
		t.Fatalf("missing order proposal, got %q", joined)
	}

	foundSupport := false
	for _, lib := range arch.SupportLibraries {
		if strings.Contains(lib.Name, "Seguridad") && strings.Contains(lib.Name, "Autenticación") {
			foundSupport = true
		}
	}
	if !foundSupport {
		t.Fatalf("missing security support library: %+v", arch.SupportLibraries)
	}
}

func TestAnalyzeConsolidated_MetadataTotals(t *testing.T) {
	graph := scenarioOneGraph()
	arch := runPipeline(t, graph, map[string]string{
		"org.springframework:spring-core": "org.springframework:spring-core:5.3.0",
	})

	meta := arch.ProjectMetadata
	if meta.TotalComponents != len(graph.Components) {
		t.Fatalf("total_components = %d, want %d", meta.TotalComponents, len(graph.Components))
	}

	wantLOC := 0
	for _, comp := range graph.Components {
		wantLOC += comp.LOC
	}
	if meta.TotalLOC != wantLOC {
		t.Fatalf("total_loc = %d, want %d", meta.TotalLOC, wantLOC)
	}

	if _, ok := meta.ExternalDependencies["org.springframework:spring-core"]; !ok {
		t.Fatal("caller-supplied dependency missing from metadata")
	}

	if meta.SharedDomain != "com.shop" {
		t.Fatalf("shared_domain = %q, want com.shop", meta.SharedDomain)
	}
}

func TestAnalyzeConsolidated_ComponentsSubsetOfClusters(t *testing.T) {
	graph := scenarioOneGraph()
	candidates := NewEngine().Analyze(context.Background(), graph)
	arch := NewRecommendationEngine(defaultInference()).
		AnalyzeConsolidated(context.Background(), candidates, graph.Components, nil)

	byID := clusterByID(candidates.Clusters)
	for _, proposal := range arch.Proposals {
		allowed := make(map[string]bool)
		for _, clusterID := range proposal.Clusters {
			if cluster, ok := byID[clusterID]; ok {
				for _, member := range cluster.Members {
					allowed[member] = true
				}
			}
		}
		for _, member := range proposal.Components {
			if !allowed[member] {
				t.Fatalf("proposal %d lists %s outside its clusters", proposal.ID, member)
			}
			if IsInfrastructureComponent(member) {
				t.Fatalf("proposal %d retains infrastructure member %s", proposal.ID, member)
			}
		}
	}
}

func TestAnalyzeConsolidated_SensitivePropagation(t *testing.T) {
	graph := buildGraph([]testComponent{
		{id: "com.bank.account.AccountService", tables: []string{"account"}},
		{id: "com.bank.account.AccountRepository", tables: []string{"account"},
			opts: func(c *model.Component) { c.SensitiveData = true }},
		{id: "com.bank.account.AccountController", tables: []string{"account"}},
	}, [][2]string{
		{"com.bank.account.AccountService", "com.bank.account.AccountRepository"},
		{"com.bank.account.AccountController", "com.bank.account.AccountService"},
		{"com.bank.account.AccountRepository", "com.bank.account.AccountService"},
	})

	arch := runPipeline(t, graph, nil)
	if len(arch.Proposals) == 0 {
		t.Fatal("expected at least one proposal")
	}

	proposal := arch.Proposals[0]
	if !proposal.Metrics.Sensitive {
		t.Fatal("sensitive member must set group metrics.sensitive")
	}
	if proposal.Viability == ViabilityHigh {
		joined := strings.Join(proposal.RecommendedActions, "\n")
		if !strings.Contains(joined, "auditoría") {
			t.Fatal("Alta proposal with sensitive data must carry the audit action")
		}
	}
}

func TestAnalyzeConsolidated_DataJaccardProxy(t *testing.T) {
	arch := runPipeline(t, scenarioOneGraph(), nil)
	for _, p := range arch.Proposals {
		if len(p.Metrics.Tables) > 0 && p.Metrics.DataJaccard != dataJaccardProxy {
			t.Fatalf("data_jaccard = %f with tables present, want %f", p.Metrics.DataJaccard, dataJaccardProxy)
		}
		if len(p.Metrics.Tables) == 0 && p.Metrics.DataJaccard != 0.0 {
			t.Fatalf("data_jaccard = %f without tables, want 0", p.Metrics.DataJaccard)
		}
	}
}

func TestAnalyzeConsolidated_SecretsCount(t *testing.T) {
	graph := buildGraph([]testComponent{
		{id: "a.x.FooService", opts: func(c *model.Component) {
			c.SecretsReferences = []string{"db.password"}
		}},
		{id: "a.x.FooRepository"},
		{id: "a.y.BarService"},
	}, nil)

	arch := runPipeline(t, graph, nil)
	if arch.ProjectMetadata.ComponentsWithSecrets != 1 {
		t.Fatalf("components_with_secrets = %d, want 1", arch.ProjectMetadata.ComponentsWithSecrets)
	}
}

func TestSummary_CountsTiers(t *testing.T) {
	arch := runPipeline(t, scenarioOneGraph(), nil)
	if !strings.Contains(arch.Summary, "ANÁLISIS DE ARQUITECTURA") {
		t.Fatal("summary header missing")
	}
	if !strings.Contains(arch.Summary, "Análisis de Cohesión") {
		t.Fatal("summary cohesion section missing")
	}
}
