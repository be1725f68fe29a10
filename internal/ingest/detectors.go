package ingest

import (
	"regexp"
	"strings"
)

// --- database detection ---

var (
	sqlTableRe     = regexp.MustCompile(`(?i)(?:FROM|INTO|UPDATE|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	sqlStatementRe = regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE|FROM|JOIN)`)
	tableNameArgRe = regexp.MustCompile(`(?i)name\s*=\s*"([a-zA-Z_][a-zA-Z0-9_]*)"`)
)

var springRepoInterfaces = map[string]bool{
	"JpaRepository":              true,
	"CrudRepository":             true,
	"PagingAndSortingRepository": true,
	"Repository":                 true,
	"ReactiveCrudRepository":     true,
	"MongoRepository":            true,
}

// ExtractTables pulls lowercase table names from a class: @Table(name=...)
// arguments and SQL keywords inside string literals.
func ExtractTables(jc *JavaClass) []string {
	tables := make([]string, 0)

	for _, ann := range jc.Annotations {
		if strings.EqualFold(ann.Name, "Table") {
			if m := tableNameArgRe.FindStringSubmatch(ann.Args); m != nil {
				tables = append(tables, strings.ToLower(m[1]))
			}
		}
		// @Entity without @Table maps to the lowercased class name, the
		// JPA default table naming.
		if strings.EqualFold(ann.Name, "Entity") {
			tables = append(tables, strings.ToLower(jc.Name))
		}
	}

	for _, literal := range jc.StringLiterals {
		if !sqlStatementRe.MatchString(literal) {
			continue
		}
		for _, m := range sqlTableRe.FindAllStringSubmatch(literal, -1) {
			tables = append(tables, strings.ToLower(m[1]))
		}
	}

	for _, ann := range annotationsOf(jc) {
		if strings.EqualFold(ann.Name, "Query") {
			for _, m := range sqlTableRe.FindAllStringSubmatch(ann.Args, -1) {
				tables = append(tables, strings.ToLower(m[1]))
			}
		}
	}

	return tables
}

// IsRepositoryInterface recognizes Spring Data style repositories by their
// supertypes.
func IsRepositoryInterface(jc *JavaClass) bool {
	if !jc.IsInterface {
		return false
	}
	for _, iface := range jc.Implements {
		if springRepoInterfaces[iface] {
			return true
		}
	}
	return false
}

// --- sensitive data detection ---

var sensitiveKeywords = []string{
	"password", "passwd", "pwd", "secret", "token",
	"ssn", "socialsecurity", "social_security",
	"creditcard", "credit_card", "cardnumber", "card_number",
	"bankaccount", "bank_account", "routing", "swift",
	"cvv", "cvc",
	"api_key", "apikey", "private_key", "privatekey",
	"keystore", "oauth", "bearer", "jwt",
	"passport", "salary",
}

var sensitiveAnnotations = []string{
	"Sensitive", "Secret", "Confidential", "Encrypted",
	"Password", "PersonalData", "PII",
}

// HasSensitiveData checks class name, field names and types, and string
// literals for sensitive-data markers.
func HasSensitiveData(jc *JavaClass) bool {
	for _, ann := range jc.Annotations {
		for _, marker := range sensitiveAnnotations {
			if strings.EqualFold(ann.Name, marker) {
				return true
			}
		}
	}

	lowerName := strings.ToLower(jc.Name)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerName, keyword) {
			return true
		}
	}

	for _, field := range jc.Fields {
		lowerField := strings.ToLower(field.Name)
		for _, keyword := range sensitiveKeywords {
			if strings.Contains(lowerField, keyword) {
				return true
			}
		}
	}

	for _, literal := range jc.StringLiterals {
		lower := strings.ToLower(literal)
		for _, keyword := range sensitiveKeywords {
			if strings.Contains(lower, keyword) && len(lower) < 80 {
				return true
			}
		}
	}

	return false
}

// --- secrets references ---

// DetectSecretReferences reports WHERE secrets are read, never their values:
// environment lookups, @Value placeholders, property getters.
func DetectSecretReferences(jc *JavaClass) []string {
	refs := make([]string, 0)
	seen := make(map[string]bool)
	add := func(ref string) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	for _, method := range jc.Methods {
		for _, invoked := range method.Invoked {
			if invoked == "System" {
				add("System.getenv()")
				break
			}
		}
	}

	for _, ann := range annotationsOf(jc) {
		if strings.EqualFold(ann.Name, "Value") {
			add("@Value")
		}
	}

	for _, literal := range jc.StringLiterals {
		if strings.HasPrefix(literal, "${") && strings.HasSuffix(literal, "}") {
			add("property placeholder")
			break
		}
	}

	return refs
}

// --- messaging detection ---

var publisherIndicators = map[string]bool{
	"MessageProducer": true, "QueueSender": true, "TopicPublisher": true,
	"KafkaTemplate": true, "KafkaProducer": true,
	"RabbitTemplate": true, "AmqpTemplate": true,
	"JmsTemplate": true, "JmsMessagingTemplate": true,
}

var consumerIndicators = map[string]bool{
	"MessageConsumer": true, "QueueReceiver": true, "TopicSubscriber": true,
	"KafkaConsumer": true,
	"MessageDriven": true, "JmsListener": true, "KafkaListener": true, "RabbitListener": true,
}

var messagingImportPrefixes = []struct {
	prefix string
	kind   string
}{
	{"javax.jms", "jms"},
	{"jakarta.jms", "jms"},
	{"org.apache.kafka", "kafka"},
	{"org.springframework.kafka", "kafka"},
	{"org.springframework.amqp", "rabbitmq"},
	{"com.rabbitmq", "rabbitmq"},
	{"org.apache.activemq", "activemq"},
	{"org.springframework.jms", "spring-jms"},
}

// DetectMessaging returns the messaging technology and role of a class, or
// empty strings when it does not participate in messaging.
func DetectMessaging(jc *JavaClass) (messagingType, role string) {
	isPublisher := false
	isConsumer := false

	for _, fq := range jc.Imports {
		for _, entry := range messagingImportPrefixes {
			if strings.HasPrefix(fq, entry.prefix) {
				messagingType = entry.kind
				break
			}
		}
	}

	for _, ref := range jc.ReferencedTypes {
		if publisherIndicators[ref] {
			isPublisher = true
		}
		if consumerIndicators[ref] {
			isConsumer = true
		}
	}
	for _, ann := range annotationsOf(jc) {
		if consumerIndicators[ann.Name] {
			isConsumer = true
		}
	}

	switch {
	case isPublisher && isConsumer:
		role = "both"
	case isPublisher:
		role = "producer"
	case isConsumer:
		role = "consumer"
	}
	if role != "" && messagingType == "" {
		messagingType = "jms"
	}
	return messagingType, role
}

// --- EJB detection ---

// DetectEJBType maps EJB annotations to their type tag.
func DetectEJBType(jc *JavaClass) string {
	for _, ann := range jc.Annotations {
		switch ann.Name {
		case "Stateless":
			return "Stateless"
		case "Stateful":
			return "Stateful"
		case "Singleton":
			return "Singleton"
		case "MessageDriven":
			return "MessageDriven"
		}
	}
	return ""
}

// --- web detection ---

// DetectWeb tags servlet-era web components.
func DetectWeb(jc *JavaClass) (webType, webRole string) {
	for _, ann := range jc.Annotations {
		switch ann.Name {
		case "WebServlet":
			return "servlet", "servlet"
		case "WebFilter":
			return "servlet", "filter"
		case "WebListener":
			return "servlet", "listener"
		}
	}
	if jc.Extends == "HttpServlet" {
		return "servlet", "servlet"
	}
	return "", ""
}

// annotationsOf flattens class, field, and method annotations.
func annotationsOf(jc *JavaClass) []Annotation {
	out := make([]Annotation, 0, len(jc.Annotations))
	out = append(out, jc.Annotations...)
	for _, field := range jc.Fields {
		out = append(out, field.Annotations...)
	}
	for _, method := range jc.Methods {
		out = append(out, method.Annotations...)
	}
	return out
}
