package inference

import (
	"testing"

	"monoscope/internal/model"
)

func TestClassify_RestControllerAnnotation(t *testing.T) {
	lc := NewLayerClassifier()
	comp := &model.Component{
		ID:          "com.acme.billing.controller.InvoiceController",
		Annotations: []string{"RestController"},
	}
	if got := lc.Classify(comp); got != model.LayerController {
		t.Fatalf("expected Controller, got %s", got)
	}
}

func TestClassify_ProviderWithTablesIsPersistence(t *testing.T) {
	lc := NewLayerClassifier()
	comp := &model.Component{
		ID:         "com.acme.afi.AfiProvider",
		TablesUsed: []string{"afiliado"},
	}
	if got := lc.Classify(comp); got != model.LayerPersistence {
		t.Fatalf("expected Persistence for provider with tables, got %s", got)
	}
}

func TestClassify_EntityAnnotationZeroesDomain(t *testing.T) {
	lc := NewLayerClassifier()
	comp := &model.Component{
		ID:          "com.acme.billing.domain.InvoiceModel",
		Annotations: []string{"Entity", "Table"},
	}
	if got := lc.Classify(comp); got != model.LayerPersistence {
		t.Fatalf("expected Persistence for @Entity, got %s", got)
	}
}

func TestClassify_ConsumerIsNeverController(t *testing.T) {
	lc := NewLayerClassifier()
	comp := &model.Component{
		ID: "com.acme.billing.rest.InvoiceRestClient",
	}
	if got := lc.Classify(comp); got == model.LayerController {
		t.Fatalf("rest clients must not classify as controllers, got %s", got)
	}
}

func TestClassify_WebRoleWins(t *testing.T) {
	lc := NewLayerClassifier()
	comp := &model.Component{
		ID:      "com.acme.billing.InvoicePage",
		WebRole: "jsp",
	}
	if got := lc.Classify(comp); got != model.LayerWeb {
		t.Fatalf("expected Web when web_role is set, got %s", got)
	}
}

func TestClassify_DTONearControllerIsTransfer(t *testing.T) {
	lc := NewLayerClassifier()
	comp := &model.Component{
		ID: "com.acme.billing.controller.InvoiceRequest",
	}
	if got := lc.Classify(comp); got != model.LayerTransfer {
		t.Fatalf("expected Transfer for request object in controller package, got %s", got)
	}
}

func TestClassify_RepositoryInterface(t *testing.T) {
	lc := NewLayerClassifier()
	comp := &model.Component{
		ID:          "com.acme.billing.InvoiceRepository",
		IsInterface: true,
	}
	if got := lc.Classify(comp); got != model.LayerPersistence {
		t.Fatalf("expected Persistence for repository interface, got %s", got)
	}
}

func TestClassify_NoSignalsIsShared(t *testing.T) {
	lc := NewLayerClassifier()
	comp := &model.Component{ID: "Xyz"}
	if got := lc.Classify(comp); got != model.LayerShared {
		t.Fatalf("expected Shared fallback, got %s", got)
	}
}

func TestClassifyAll_AssignsEveryComponent(t *testing.T) {
	graph := buildGraph([]testComponent{
		{id: "com.acme.billing.InvoiceService"},
		{id: "com.acme.billing.InvoiceRepository"},
		{id: "Standalone"},
	}, nil)

	NewLayerClassifier().ClassifyAll(graph.Components)
	for _, comp := range graph.Components {
		if comp.Layer == "" {
			t.Fatalf("component %s has no layer", comp.ID)
		}
	}
}
