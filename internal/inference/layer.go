package inference

import (
	"log/slog"
	"regexp"
	"strings"

	"monoscope/internal/model"
)

// Score multipliers for the three classification sources.
const (
	annotationWeight = 10
	nameWeight       = 5
	packageWeight    = 3
)

var (
	controllerAnnotations = []string{
		"RestController", "Controller", "Resource", "Path", "WebServlet",
		"GET", "POST", "PUT", "DELETE", "PATCH",
	}
	businessAnnotations = []string{
		"Service", "Component", "Stateless", "Stateful", "MessageDriven", "Singleton",
		"Facade", "ApplicationScoped", "SessionScoped", "RequestScoped",
	}
	persistenceAnnotations = []string{
		"Repository", "Entity", "Table", "Dao", "Embeddable", "MappedSuperclass",
		"NamedQuery", "NamedQueries", "Column", "JoinColumn", "OneToMany", "ManyToOne",
		"ManyToMany", "OneToOne",
	}
	domainAnnotations = []string{
		"ValueObject", "DomainModel", "Immutable",
	}
	transferAnnotations = []string{
		"JsonSerialize", "JsonDeserialize", "XmlRootElement", "XmlElement",
		"ApiModel", "Schema",
	}

	controllerNamePatterns = []string{
		"Controller", "Endpoint", "Resource", "API", "Rest", "Servlet",
	}
	// Simple names that must never classify as controllers.
	nonControllerNamePatterns = []string{
		"Consumer", "Client", "RestClient", "HttpClient", "FeignClient", "WebClient",
	}
	businessNamePatterns = []string{
		"Service", "Business", "Manager", "Facade", "UseCase", "Handler", "Processor",
		"Bean", "Mdb", "Ejb",
	}
	persistenceNamePatterns = []string{
		"Repository", "Dao", "DAO", "Entity", "Mapper", "Persistence", "DataAccess", "Provider",
	}
	domainNamePatterns = []string{
		"VO", "Vo", "ValueObject", "DomainModel", "DomainObject", "Model", "Domain",
	}
	transferNamePatterns = []string{
		"DTO", "Dto", "Request", "Response", "Payload", "Message", "Command", "Query", "Event",
	}
	sharedNamePatterns = []string{
		"Config", "Configuration", "Util", "Utils", "Helper", "Constants", "Exception",
		"Security", "Filter", "Interceptor", "Aspect", "Validator", "Consumer", "Client", "Factory",
	}

	controllerPackagePatterns = []string{
		".controller.", ".rest.", ".endpoint.", ".web.", ".servlet.",
		".resource.", ".services.",
	}
	businessPackagePatterns = []string{
		".service.", ".business.", ".usecase.", ".facade.", ".application.", ".handler.",
		".bean.", ".ejb.", ".mdb.", ".api.",
	}
	persistencePackagePatterns = []string{
		".repository.", ".dao.", ".persistence.", ".mapper.", ".entity.", ".entities.",
		".domain.entity.", ".jpa.",
	}
	domainPackagePatterns = []string{
		".domain.", ".vo.", ".valueobject.", ".model.", ".core.",
	}
	transferPackagePatterns = []string{
		".dto.", ".request.", ".response.", ".payload.", ".api.model.", ".contract.",
		".message.", ".command.", ".query.", ".event.",
	}
	sharedPackagePatterns = []string{
		".config.", ".util.", ".utils.", ".common.", ".shared.", ".security.",
		".exception.", ".filter.", ".interceptor.", ".aspect.", ".validation.",
		".provider.",
	}

	restAnnotations = []string{
		"Path", "GET", "POST", "PUT", "DELETE", "PATCH",
		"RestController", "Controller", "WebServlet",
		"RequestMapping", "GetMapping", "PostMapping", "PutMapping",
		"DeleteMapping", "PatchMapping",
	}

	transferNameRe     = regexp.MustCompile(`(dto|request|response|payload)`)
	persistenceIfaceRe = regexp.MustCompile(`(repository|dao|mapper)`)
)

// LayerClassifier assigns exactly one architectural layer per component via a
// weighted vote over annotations, name patterns, and package patterns,
// followed by disambiguation rules. Ties resolve in fixed priority order:
// Web > Controller > Business > Persistence > Domain > Transfer > Shared.
type LayerClassifier struct{}

func NewLayerClassifier() *LayerClassifier {
	return &LayerClassifier{}
}

// ClassifyAll assigns a layer to every component in place.
func (lc *LayerClassifier) ClassifyAll(components []model.Component) {
	for i := range components {
		components[i].Layer = lc.Classify(&components[i])
	}
}

func (lc *LayerClassifier) Classify(comp *model.Component) model.Layer {
	id := strings.ToLower(comp.ID)
	simpleName := model.SimpleName(comp.ID)
	lowerSimple := strings.ToLower(simpleName)

	var controller, business, persistence, domain, transfer, web, shared int

	// web_role is the strongest single signal.
	if comp.WebRole != "" {
		web += 20
	}

	controller += countAnnotations(comp, controllerAnnotations) * annotationWeight
	business += countAnnotations(comp, businessAnnotations) * annotationWeight
	persistence += countAnnotations(comp, persistenceAnnotations) * annotationWeight
	domain += countAnnotations(comp, domainAnnotations) * annotationWeight
	transfer += countAnnotations(comp, transferAnnotations) * annotationWeight

	controller += countNameHits(simpleName, controllerNamePatterns) * nameWeight
	business += countNameHits(simpleName, businessNamePatterns) * nameWeight
	persistence += countNameHits(simpleName, persistenceNamePatterns) * nameWeight
	domain += countNameHits(simpleName, domainNamePatterns) * nameWeight
	transfer += countNameHits(simpleName, transferNamePatterns) * nameWeight
	shared += countNameHits(simpleName, sharedNamePatterns) * nameWeight

	// .services. is ambiguous, handled by a disambiguation rule instead.
	controller += countPackageHits(id, controllerPackagePatterns, ".services.") * packageWeight
	business += countPackageHits(id, businessPackagePatterns, "") * packageWeight
	persistence += countPackageHits(id, persistencePackagePatterns, "") * packageWeight
	domain += countPackageHits(id, domainPackagePatterns, "") * packageWeight
	transfer += countPackageHits(id, transferPackagePatterns, "") * packageWeight
	shared += countPackageHits(id, sharedPackagePatterns, "") * packageWeight

	// Rule 0: consumers and clients are never controllers.
	for _, pattern := range nonControllerNamePatterns {
		if strings.Contains(simpleName, pattern) {
			controller = 0
			shared += 8
			break
		}
	}

	usesDatabase := len(comp.TablesUsed) > 0

	// Rule 1: database access pulls toward persistence, away from domain.
	if usesDatabase {
		persistence += 15
		domain = max(0, domain-10)
	}

	// Rule 1.5: a provider that touches tables is a persistence adapter.
	if strings.Contains(lowerSimple, "provider") && usesDatabase {
		persistence += 20
		shared = max(0, shared-10)
		business = max(0, business-5)
	}

	// Rule 2: @Entity / @Table is persistence, not domain.
	if comp.HasAnnotation("Entity") || comp.HasAnnotation("Table") {
		persistence += 10
		domain = 0
	}

	// Rule 3: repository/dao interfaces are persistence.
	if comp.IsInterface &&
		(strings.Contains(lowerSimple, "repository") || strings.Contains(lowerSimple, "dao")) {
		persistence += 10
		business = max(0, business-5)
	}

	// Rule 4: DTO-shaped names next to controllers are transfer objects.
	if transferNameRe.MatchString(lowerSimple) &&
		(strings.Contains(id, ".controller.") || strings.Contains(id, ".rest.") ||
			strings.Contains(id, ".api.")) {
		transfer += 8
		domain = max(0, domain-5)
	}

	// Rule 5: model/domain names without tables are domain objects.
	if (strings.Contains(lowerSimple, "model") || strings.Contains(lowerSimple, "domain") ||
		strings.Contains(id, ".domain.")) && !usesDatabase {
		domain += 5
	}

	// Rule 6: .services. and .api. packages without REST annotations lean business.
	if strings.Contains(id, ".services.") && !hasRESTAnnotations(comp) {
		controller -= 3
		business += 3
	}
	if strings.Contains(id, ".api.") && !hasRESTAnnotations(comp) {
		business += 3
	}

	// Rule 7: non-persistence interfaces without REST annotations default to business.
	if comp.IsInterface && !hasRESTAnnotations(comp) {
		isPersistenceIface := persistenceIfaceRe.MatchString(lowerSimple) ||
			strings.Contains(id, ".repository.") || strings.Contains(id, ".dao.")
		if !isPersistenceIface {
			business += 5
			controller = max(0, controller-5)
		}
	}

	maxScore := max(web, controller, business, persistence, domain, transfer, shared)
	if maxScore == 0 {
		slog.Debug("component has no layer signals", "component", comp.ID)
		return model.LayerShared
	}

	switch {
	case web == maxScore && web > 0:
		return model.LayerWeb
	case controller == maxScore:
		return model.LayerController
	case business == maxScore:
		return model.LayerBusiness
	case persistence == maxScore:
		return model.LayerPersistence
	case domain == maxScore:
		return model.LayerDomain
	case transfer == maxScore:
		return model.LayerTransfer
	default:
		return model.LayerShared
	}
}

func countAnnotations(comp *model.Component, targets []string) int {
	score := 0
	for _, target := range targets {
		if comp.HasAnnotation(target) {
			score++
		}
	}
	return score
}

func countNameHits(simpleName string, patterns []string) int {
	lower := strings.ToLower(simpleName)
	score := 0
	for _, pattern := range patterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			score++
		}
	}
	return score
}

func countPackageHits(id string, patterns []string, skip string) int {
	score := 0
	for _, pattern := range patterns {
		if skip != "" && pattern == skip {
			continue
		}
		if strings.Contains(id, pattern) {
			score++
		}
	}
	return score
}

func hasRESTAnnotations(comp *model.Component) bool {
	for _, target := range restAnnotations {
		if comp.HasAnnotation(target) {
			return true
		}
	}
	return false
}
