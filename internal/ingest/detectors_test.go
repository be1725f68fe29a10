package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTables_FromSQLLiterals(t *testing.T) {
	jc := &JavaClass{
		Name: "ReportDao",
		StringLiterals: []string{
			"SELECT * FROM invoices WHERE id = ?",
			"update payments set status = ?",
			"not sql at all",
		},
	}
	tables := ExtractTables(jc)
	require.Contains(t, tables, "invoices")
	require.Contains(t, tables, "payments")
	require.NotContains(t, tables, "not")
}

func TestExtractTables_EntityDefaultsToClassName(t *testing.T) {
	jc := &JavaClass{
		Name:        "Customer",
		Annotations: []Annotation{{Name: "Entity"}},
	}
	require.Contains(t, ExtractTables(jc), "customer")
}

func TestHasSensitiveData(t *testing.T) {
	cases := []struct {
		name string
		jc   *JavaClass
		want bool
	}{
		{"password field", &JavaClass{Name: "User", Fields: []Field{{Name: "passwordHash"}}}, true},
		{"pii annotation", &JavaClass{Name: "Person", Annotations: []Annotation{{Name: "PII"}}}, true},
		{"credit card class", &JavaClass{Name: "CreditCardVault"}, true},
		{"plain class", &JavaClass{Name: "Widget", Fields: []Field{{Name: "color"}}}, false},
	}
	for _, tc := range cases {
		if got := HasSensitiveData(tc.jc); got != tc.want {
			t.Fatalf("%s: HasSensitiveData = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDetectSecretReferences(t *testing.T) {
	jc := &JavaClass{
		Name: "MailConfig",
		Fields: []Field{
			{Name: "smtpPassword", Annotations: []Annotation{{Name: "Value", Args: `("${mail.password}")`}}},
		},
		StringLiterals: []string{"${mail.password}"},
	}
	refs := DetectSecretReferences(jc)
	require.Contains(t, refs, "@Value")
	require.Contains(t, refs, "property placeholder")
}

func TestDetectMessaging(t *testing.T) {
	producer := &JavaClass{
		Name:            "StockPublisher",
		Imports:         map[string]string{"KafkaTemplate": "org.springframework.kafka.core.KafkaTemplate"},
		ReferencedTypes: []string{"KafkaTemplate"},
	}
	kind, role := DetectMessaging(producer)
	require.Equal(t, "kafka", kind)
	require.Equal(t, "producer", role)

	consumer := &JavaClass{
		Name: "StockListener",
		Methods: []Method{
			{Name: "onMessage", Annotations: []Annotation{{Name: "KafkaListener"}}},
		},
	}
	kind, role = DetectMessaging(consumer)
	require.Equal(t, "consumer", role)
	require.NotEmpty(t, kind)

	plain := &JavaClass{Name: "Widget"}
	kind, role = DetectMessaging(plain)
	require.Empty(t, kind)
	require.Empty(t, role)
}

func TestDetectEJBType(t *testing.T) {
	jc := &JavaClass{Name: "BillingBean", Annotations: []Annotation{{Name: "Stateless"}}}
	require.Equal(t, "Stateless", DetectEJBType(jc))
	require.Empty(t, DetectEJBType(&JavaClass{Name: "Widget"}))
}

func TestDetectWeb(t *testing.T) {
	servlet := &JavaClass{Name: "LoginServlet", Annotations: []Annotation{{Name: "WebServlet"}}}
	webType, webRole := DetectWeb(servlet)
	require.Equal(t, "servlet", webType)
	require.Equal(t, "servlet", webRole)

	legacy := &JavaClass{Name: "ReportServlet", Extends: "HttpServlet"}
	webType, webRole = DetectWeb(legacy)
	require.Equal(t, "servlet", webType)
	require.Equal(t, "servlet", webRole)
}
