package inference

import (
	"math"
	"testing"

	"monoscope/internal/config"
)

// scenarioClusters builds the two Item clusters and one Order cluster used
// across the signal tests, metrics annotated from the graph.
func scenarioClusters(t *testing.T) ([]*Cluster, *InterClusterGraph) {
	t.Helper()
	graph := buildGraph([]testComponent{
		{id: "com.shop.item.ItemService", tables: []string{"item"}},
		{id: "com.shop.item.ItemRepository", tables: []string{"item"}},
		{id: "com.shop.item.ItemController", tables: []string{"item"}},
		{id: "com.shop.item.ItemDto", tables: []string{"item"}},
		{id: "com.shop.order.OrderService", tables: []string{"order"}},
		{id: "com.shop.order.OrderRepository", tables: []string{"order"}},
	}, [][2]string{
		{"com.shop.item.ItemService", "com.shop.item.ItemRepository"},
		{"com.shop.item.ItemController", "com.shop.item.ItemDto"},
		{"com.shop.item.ItemController", "com.shop.item.ItemService"},
		{"com.shop.order.OrderService", "com.shop.order.OrderRepository"},
	})

	clusters := []*Cluster{
		makeCluster(0, "com.shop.item.ItemService", "com.shop.item.ItemRepository"),
		makeCluster(1, "com.shop.item.ItemController", "com.shop.item.ItemDto"),
		makeCluster(2, "com.shop.order.OrderService", "com.shop.order.OrderRepository"),
	}
	annotateClusters(clusters, graph)

	g := NewInterClusterGraph(clusters, graph.Components, config.Default().Inference.Signals)
	return clusters, g
}

func TestSignals_WeightsSumToOne(t *testing.T) {
	s := config.Default().Inference.Signals
	sum := s.TableWeight + s.CallWeight + s.TokenWeight + s.EventWeight
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("signal weights sum to %f", sum)
	}
}

func TestInterCluster_ItemPairHasStrongEvidence(t *testing.T) {
	_, g := scenarioClusters(t)

	edge := g.Edge(0, 1)
	if edge == nil {
		t.Fatal("expected an edge between the two item clusters")
	}
	if edge.TableJaccard != 1.0 {
		t.Fatalf("table jaccard = %f, want 1.0", edge.TableJaccard)
	}
	if edge.TokenSimilarity != 1.0 {
		t.Fatalf("token similarity = %f, want 1.0", edge.TokenSimilarity)
	}
	if edge.CallDensity <= 0 {
		t.Fatalf("call density = %f, want > 0", edge.CallDensity)
	}
	if edge.EvidenceScore < 0.65 {
		t.Fatalf("evidence = %f, want >= 0.65", edge.EvidenceScore)
	}
	if !edge.HasStrongEvidence(config.Default().Inference.Consolidation) {
		t.Fatal("item pair should qualify as a strong merge candidate")
	}
}

func TestInterCluster_UnrelatedPairBelowThreshold(t *testing.T) {
	_, g := scenarioClusters(t)

	edge := g.Edge(0, 2)
	if edge != nil && edge.EvidenceScore >= 0.65 {
		t.Fatalf("item/order evidence = %f, should stay below threshold", edge.EvidenceScore)
	}
	if edge != nil && edge.HasStrongEvidence(config.Default().Inference.Consolidation) {
		t.Fatal("item/order pair must not be a merge candidate")
	}
}

func TestInterCluster_EvidenceInUnitRange(t *testing.T) {
	_, g := scenarioClusters(t)
	for _, edge := range g.SortedEdges() {
		if edge.EvidenceScore < 0 || edge.EvidenceScore > 1 {
			t.Fatalf("evidence %f outside [0,1]", edge.EvidenceScore)
		}
	}
}

func TestInterCluster_SortedEdgesDeterministic(t *testing.T) {
	_, g1 := scenarioClusters(t)
	_, g2 := scenarioClusters(t)

	edges1 := g1.SortedEdges()
	edges2 := g2.SortedEdges()
	if len(edges1) != len(edges2) {
		t.Fatalf("edge counts differ: %d vs %d", len(edges1), len(edges2))
	}
	for i := range edges1 {
		if edges1[i].Pair != edges2[i].Pair {
			t.Fatalf("edge order differs at %d: %v vs %v", i, edges1[i].Pair, edges2[i].Pair)
		}
		if edges1[i].EvidenceScore != edges2[i].EvidenceScore {
			t.Fatalf("evidence differs at %d", i)
		}
	}
	for i := 1; i < len(edges1); i++ {
		if edges1[i].EvidenceScore > edges1[i-1].EvidenceScore {
			t.Fatal("edges not sorted by descending evidence")
		}
	}
}

func TestInterCluster_EventLinks(t *testing.T) {
	graph := buildGraph([]testComponent{
		{id: "com.shop.stock.StockEventPublisher"},
		{id: "com.shop.stock.StockService"},
		{id: "com.shop.audit.StockEventPublisherListener"},
	}, nil)

	clusters := []*Cluster{
		makeCluster(0, "com.shop.stock.StockEventPublisher", "com.shop.stock.StockService"),
		makeCluster(1, "com.shop.audit.StockEventPublisherListener"),
	}
	annotateClusters(clusters, graph)

	g := NewInterClusterGraph(clusters, graph.Components, config.Default().Inference.Signals)
	signals := g.calculateSignals(clusters[0], clusters[1])
	if len(signals.EventLinks) != 0 {
		// Published and consumed names only link on exact simple-name match.
		t.Fatalf("unexpected event links: %v", signals.EventLinks)
	}

	// A simple name that is both published (event) and consumed (listener)
	// links when it appears on both sides.
	graph2 := buildGraph([]testComponent{
		{id: "com.shop.stock.StockEventListener"},
		{id: "com.shop.audit.StockEventListener"},
	}, nil)
	clusters2 := []*Cluster{
		makeCluster(0, "com.shop.stock.StockEventListener"),
		makeCluster(1, "com.shop.audit.StockEventListener"),
	}
	annotateClusters(clusters2, graph2)
	g2 := NewInterClusterGraph(clusters2, graph2.Components, config.Default().Inference.Signals)
	signals2 := g2.calculateSignals(clusters2[0], clusters2[1])
	if len(signals2.EventLinks) == 0 {
		t.Fatal("matching event names across clusters should link")
	}
}
