package inference

import (
	"testing"
)

func partitionOf(t *testing.T, clusters []*Cluster) map[string]int {
	t.Helper()
	seen := make(map[string]int)
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			seen[member]++
		}
	}
	return seen
}

func TestCreateClusters_EveryComponentInExactlyOneCluster(t *testing.T) {
	graph := buildGraph([]testComponent{
		{id: "com.shop.item.ItemService"},
		{id: "com.shop.item.ItemRepository"},
		{id: "com.shop.item.ItemEntity", tables: []string{"item"}},
		{id: "com.shop.order.OrderService"},
		{id: "com.shop.order.OrderRepository"},
		{id: "com.shop.security.SecurityConfig"},
		{id: "Loose"},
	}, [][2]string{
		{"com.shop.item.ItemService", "com.shop.item.ItemRepository"},
	})

	clusters := NewClusteringAlgorithm().CreateClusters(graph)
	seen := partitionOf(t, clusters)

	if len(seen) != len(graph.Components) {
		t.Fatalf("partition covers %d of %d components", len(seen), len(graph.Components))
	}
	for member, count := range seen {
		if count != 1 {
			t.Fatalf("component %s appears in %d clusters", member, count)
		}
	}
}

func TestCreateClusters_BusinessResponsibilitySeparatesDomains(t *testing.T) {
	graph := buildGraph([]testComponent{
		{id: "com.shop.item.ItemService"},
		{id: "com.shop.item.ItemRepository"},
		{id: "com.shop.order.OrderService"},
		{id: "com.shop.order.OrderRepository"},
		{id: "com.shop.customer.CustomerService"},
		{id: "com.shop.customer.CustomerRepository"},
	}, nil)

	clusters := NewClusteringAlgorithm().CreateClusters(graph)
	if len(clusters) < 3 {
		t.Fatalf("expected at least 3 clusters for 3 domains, got %d", len(clusters))
	}

	compIdx := graph.ComponentIndex()
	for _, cluster := range clusters {
		domains := make(map[string]bool)
		for _, member := range cluster.Members {
			if comp := compIdx[member]; comp != nil && comp.Domain != "core" {
				domains[comp.Domain] = true
			}
		}
		if len(domains) > 1 {
			t.Fatalf("cluster %d mixes domains: %v", cluster.ClusterID, domains)
		}
	}
}

func TestCreateClusters_InfrastructurePools(t *testing.T) {
	// Core-domain infrastructure (application entry point, default-package
	// config) pools into the dedicated infrastructure cluster.
	graph := buildGraph([]testComponent{
		{id: "com.shop.item.ItemService"},
		{id: "com.shop.item.ItemRepository"},
		{id: "com.shop.order.OrderService"},
		{id: "com.shop.order.OrderRepository"},
		{id: "com.shop.Application"},
		{id: "SecurityConfig"},
	}, nil)

	clusters := NewClusteringAlgorithm().CreateClusters(graph)

	var infraCluster *Cluster
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			if member == "com.shop.Application" {
				infraCluster = cluster
			}
		}
	}
	if infraCluster == nil {
		t.Fatal("application class not clustered")
	}
	found := false
	for _, member := range infraCluster.Members {
		if member == "SecurityConfig" {
			found = true
		}
	}
	if !found {
		t.Fatalf("infrastructure components not pooled together: %v", infraCluster.Members)
	}
}

func TestCreateClusters_SingleDomainUsesEntities(t *testing.T) {
	graph := buildGraph([]testComponent{
		{id: "com.flights.airport.AirportEntity", tables: []string{"airport"}},
		{id: "com.flights.airport.AirportService"},
		{id: "com.flights.airport.AirportRepository"},
		{id: "com.flights.airport.FlightEntity", tables: []string{"flight"}},
		{id: "com.flights.airport.FlightService"},
		{id: "com.flights.airport.FlightRepository"},
	}, nil)

	clusters := NewClusteringAlgorithm().CreateClusters(graph)
	if len(clusters) < 2 {
		t.Fatalf("entity-based split expected at least 2 clusters, got %d", len(clusters))
	}

	for _, cluster := range clusters {
		hasAirport, hasFlight := false, false
		for _, member := range cluster.Members {
			simple := member[len("com.flights.airport."):]
			if simple == "AirportService" || simple == "AirportEntity" || simple == "AirportRepository" {
				hasAirport = true
			}
			if simple == "FlightService" || simple == "FlightEntity" || simple == "FlightRepository" {
				hasFlight = true
			}
		}
		if hasAirport && hasFlight {
			t.Fatalf("cluster %d mixes airport and flight members: %v", cluster.ClusterID, cluster.Members)
		}
	}
}

func TestExtractBusinessFunction(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"com.shop.item.ItemService", "item"},
		{"com.shop.item.ItemServiceImpl", "item"},
		{"com.shop.item.RepositoryItemDb", "item"},
		{"com.shop.booking.BookingUseCase", "booking"},
		{"com.shop.item.ItemEntity", ""},
		{"com.shop.item.ItemDto", ""},
		{"com.shop.domain.Item", ""},
		{"com.shop.item.ItemCreatedEvent", ""},
	}
	for _, tc := range cases {
		if got := ExtractBusinessFunction(tc.id); got != tc.want {
			t.Fatalf("ExtractBusinessFunction(%s) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestInferDomain(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"com.acme.billing.InvoiceService", "billing"},
		{"com.acme.spring.billing.InvoiceService", "billing"},
		{"org.bigco.app.payments.PaymentService", "payments"},
		{"Standalone", "core"},
		{"", "core"},
	}
	for _, tc := range cases {
		if got := InferDomain(tc.id); got != tc.want {
			t.Fatalf("InferDomain(%s) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestConsolidateSingletons_MergesDataObjects(t *testing.T) {
	graph := buildGraph([]testComponent{
		{id: "com.shop.item.ItemService"},
		{id: "com.shop.item.ItemRepository"},
		{id: "com.shop.item.ItemController"},
		{id: "com.shop.item.ItemEntity"},
		{id: "com.shop.order.OrderService"},
		{id: "com.shop.order.OrderRepository"},
	}, nil)

	clusters := NewClusteringAlgorithm().CreateClusters(graph)
	for _, cluster := range clusters {
		if cluster.Size() == 1 && cluster.Members[0] == "com.shop.item.ItemEntity" {
			t.Fatal("singleton entity cluster should have merged into its domain cluster")
		}
	}
}
