package inference

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"monoscope/internal/model"
	"monoscope/internal/shared/util"
)

// A domain holding more than this share of components marks a single-domain
// (layered) project, which clusters around entities instead of domains.
const singleDomainRatio = 0.75

// A cluster holding more than this share of components marks a failed
// business-responsibility partition.
const dominantClusterRatio = 0.5

var (
	// Role-bearing suffixes, longest alternatives first so ServiceImpl wins
	// over Service when both match.
	businessFunctionRe = regexp.MustCompile(
		`^(?:Repository)?(.*?)(?:ServiceImpl|Service|UseCase|Repository|Repo|Controller|Api|API|Operations?|Listener|Publisher|Adapter|Factory|Handler|Db)$`)

	dataObjectSuffixRe = regexp.MustCompile(`(Entity|Model|Data|Dto|DTO|Event|Command|Query)$`)

	roleBearingSuffixRe = regexp.MustCompile(
		`(Service|UseCase|Repository|Repo|Db|Publisher|Factory|Handler|Operations?|Listener|Adapter|Controller)$`)

	domainRoleSuffixRe = regexp.MustCompile(`(Service|UseCase|Repository|Repo|Db|Publisher|Factory|Handler)$`)

	orgPrefixRe        = regexp.MustCompile(`^(com|org|net|io|edu|gov)$`)
	frameworkTokenRe   = regexp.MustCompile(`^(spring|boot|jakarta|javax|hibernate|jpa|monolith)$`)
	genericSegmentRe   = regexp.MustCompile(`^(main|app|application|common|config|configuration|dto|api|rest|web)$`)
	technicalSegmentRe = regexp.MustCompile(
		`^(service|services|util|utils|helper|helpers|model|models|entity|entities|controller|controllers|repository|repositories|dao)$`)

	entitySuffixRe = regexp.MustCompile(`(Entity|Model|Data)$`)

	camelBoundaryRe = regexp.MustCompile(`([a-z])([A-Z])`)
)

// ClusteringAlgorithm produces the initial partition of components into
// clusters, choosing a strategy by project shape.
type ClusteringAlgorithm struct{}

func NewClusteringAlgorithm() *ClusteringAlgorithm {
	return &ClusteringAlgorithm{}
}

// CreateClusters partitions every component into exactly one cluster.
func (ca *ClusteringAlgorithm) CreateClusters(graph *model.DependencyGraph) []*Cluster {
	byDomain := ca.groupByDomain(graph.Components)
	total := len(graph.Components)

	if ca.isSingleDomainProject(byDomain, total) {
		slog.Debug("single-domain project detected, using entity-based clustering")
		return ca.entityBasedClusters(graph)
	}

	clusters := ca.businessResponsibilityClusters(graph, byDomain)

	if ca.hasCrossDomainMixing(clusters, graph.Components) || len(clusters) < 2 ||
		ca.hasDominantCluster(clusters, total) {
		slog.Debug("business-responsibility partition rejected, falling back to domain-based")
		clusters = ca.domainBasedClusters(graph, byDomain)
	}

	if len(clusters) < 2 {
		slog.Debug("domain-based partition too coarse, falling back to entity-based")
		clusters = ca.entityBasedClusters(graph)
	}

	return clusters
}

// groupByDomain buckets components by their inferred domain, assigning the
// Domain field as a side effect when the ingester left it empty.
func (ca *ClusteringAlgorithm) groupByDomain(components []model.Component) map[string][]*model.Component {
	groups := make(map[string][]*model.Component)
	for i := range components {
		comp := &components[i]
		if comp.Domain == "" {
			comp.Domain = InferDomain(comp.ID)
		}
		groups[comp.Domain] = append(groups[comp.Domain], comp)
	}
	return groups
}

func (ca *ClusteringAlgorithm) isSingleDomainProject(byDomain map[string][]*model.Component, total int) bool {
	if len(byDomain) == 0 || total == 0 {
		return false
	}
	maxSize := 0
	for _, comps := range byDomain {
		if len(comps) > maxSize {
			maxSize = len(comps)
		}
	}
	return float64(maxSize) > float64(total)*singleDomainRatio
}

// InferDomain derives a domain name from a fully-qualified id by skipping
// organizational prefixes, the organization segment, framework tokens, and
// generic technical segments. Classes without meaningful segments land in
// "core".
func InferDomain(id string) string {
	if id == "" {
		return "core"
	}

	parts := strings.Split(id, ".")
	if len(parts) <= 1 {
		return "core"
	}

	start := 0
	if orgPrefixRe.MatchString(parts[0]) {
		start = 1
	}
	// The segment after the org prefix is usually the company name.
	if len(parts) > start+1 {
		start++
	}
	for start < len(parts) && frameworkTokenRe.MatchString(parts[start]) {
		start++
	}

	if start < len(parts) {
		candidate := strings.ToLower(parts[start])
		if genericSegmentRe.MatchString(candidate) {
			start++
			if start < len(parts) {
				candidate = strings.ToLower(parts[start])
				if !technicalSegmentRe.MatchString(candidate) {
					return candidate
				}
			}
		} else {
			return candidate
		}
	}

	return "core"
}

// --- entity-based strategy ---

func (ca *ClusteringAlgorithm) entityBasedClusters(graph *model.DependencyGraph) []*Cluster {
	clusters := make([]*Cluster, 0)
	entityClusters := make(map[string]*Cluster)
	entityNames := make([]string, 0)
	clusterID := 0

	for i := range graph.Components {
		comp := &graph.Components[i]
		if !isEntityComponent(comp) {
			continue
		}
		entityName := entityBaseName(comp.ID)
		cluster := NewCluster(clusterID)
		clusterID++
		cluster.AddMember(comp.ID)
		clusters = append(clusters, cluster)
		if _, exists := entityClusters[entityName]; !exists {
			entityClusters[entityName] = cluster
			entityNames = append(entityNames, entityName)
		}
	}
	sort.Strings(entityNames)

	assigned := make(map[string]bool)
	for _, cluster := range clusters {
		for _, m := range cluster.Members {
			assigned[m] = true
		}
	}

	for i := range graph.Components {
		comp := &graph.Components[i]
		if assigned[comp.ID] {
			continue
		}
		for _, entityName := range entityNames {
			if isRelatedToEntity(comp.ID, entityName) {
				entityClusters[entityName].AddMember(comp.ID)
				assigned[comp.ID] = true
				break
			}
		}
	}

	for i := range graph.Components {
		comp := &graph.Components[i]
		if assigned[comp.ID] {
			continue
		}
		if len(clusters) > 0 {
			clusters[0].AddMember(comp.ID)
		} else {
			cluster := NewCluster(clusterID)
			clusterID++
			cluster.AddMember(comp.ID)
			clusters = append(clusters, cluster)
		}
		assigned[comp.ID] = true
	}

	if len(clusters) == 0 {
		return []*Cluster{ca.singleCluster(graph)}
	}
	return clusters
}

// isEntityComponent recognizes JPA-style entities: an Entity-suffixed name,
// or table usage without a repository/service role.
func isEntityComponent(comp *model.Component) bool {
	simple := model.SimpleName(comp.ID)
	if strings.HasSuffix(simple, "Entity") {
		return true
	}
	lower := strings.ToLower(simple)
	return len(comp.TablesUsed) > 0 &&
		!strings.Contains(lower, "repository") &&
		!strings.Contains(lower, "service")
}

func entityBaseName(id string) string {
	simple := model.SimpleName(id)
	return strings.ToLower(entitySuffixRe.ReplaceAllString(simple, ""))
}

func isRelatedToEntity(id, entityName string) bool {
	simple := strings.ToLower(model.SimpleName(id))
	return strings.HasPrefix(simple, entityName) || strings.Contains(simple, entityName)
}

// --- business-responsibility strategy ---

func (ca *ClusteringAlgorithm) businessResponsibilityClusters(graph *model.DependencyGraph,
	byDomain map[string][]*model.Component) []*Cluster {

	functions := identifyBusinessFunctions(graph.Components)
	keyed := make(map[string]*Cluster)
	keys := make([]string, 0)
	assigned := make(map[string]bool)
	clusterID := 0

	addCluster := func(key string) *Cluster {
		if c, ok := keyed[key]; ok {
			return c
		}
		c := NewCluster(clusterID)
		clusterID++
		keyed[key] = c
		keys = append(keys, key)
		return c
	}

	for _, domain := range util.SortedStringKeys(byDomain) {
		if domain == "core" {
			continue
		}
		domainComponents := byDomain[domain]

		domainFunctions := make(map[string]bool)
		for _, comp := range domainComponents {
			if fn, ok := functions[comp.ID]; ok {
				domainFunctions[fn] = true
			}
		}

		switch {
		case len(domainFunctions) == 1:
			var fn string
			for f := range domainFunctions {
				fn = f
			}
			cluster := addCluster(domain + "_" + fn)
			for _, comp := range domainComponents {
				cluster.AddMember(comp.ID)
				assigned[comp.ID] = true
			}

		case len(domainFunctions) > 1:
			for _, fn := range util.SortedStringKeys(domainFunctions) {
				addCluster(domain + "_" + fn)
			}
			for _, comp := range domainComponents {
				if fn, ok := functions[comp.ID]; ok {
					keyed[domain+"_"+fn].AddMember(comp.ID)
					assigned[comp.ID] = true
				}
			}
			// Route the function-less remainder by word-boundary token match.
			for _, comp := range domainComponents {
				if assigned[comp.ID] {
					continue
				}
				if match := bestFunctionMatch(comp.ID, functions); match != "" {
					cluster := keyed[domain+"_"+functions[match]]
					if cluster != nil {
						cluster.AddMember(comp.ID)
						assigned[comp.ID] = true
						continue
					}
				}
				for _, key := range keys {
					if strings.HasPrefix(key, domain+"_") {
						keyed[key].AddMember(comp.ID)
						assigned[comp.ID] = true
						break
					}
				}
			}

		default:
			cluster := addCluster(domain)
			for _, comp := range domainComponents {
				cluster.AddMember(comp.ID)
				assigned[comp.ID] = true
			}
		}
	}

	// Shared infrastructure pools into its own cluster.
	infra := NewCluster(clusterID)
	clusterID++
	for i := range graph.Components {
		comp := &graph.Components[i]
		if !assigned[comp.ID] && isSharedInfrastructure(comp.ID) {
			infra.AddMember(comp.ID)
			assigned[comp.ID] = true
		}
	}
	if infra.Size() > 0 {
		keyed["infrastructure"] = infra
		keys = append(keys, "infrastructure")
	}

	// Remaining core components route by function, else into a misc pool.
	for i := range graph.Components {
		comp := &graph.Components[i]
		if assigned[comp.ID] {
			continue
		}
		if fn, ok := functions[comp.ID]; ok {
			matched := ""
			for _, key := range keys {
				if strings.Contains(key, fn) {
					matched = key
					break
				}
			}
			if matched != "" {
				keyed[matched].AddMember(comp.ID)
			} else {
				cluster := addCluster("misc_" + fn)
				cluster.AddMember(comp.ID)
			}
			assigned[comp.ID] = true
			continue
		}
		misc := addCluster("misc")
		misc.AddMember(comp.ID)
		assigned[comp.ID] = true
	}

	clusters := make([]*Cluster, 0, len(keys))
	for _, key := range keys {
		if keyed[key].Size() > 0 {
			clusters = append(clusters, keyed[key])
		}
	}

	clusters = ca.consolidateSingletons(clusters, graph.Components)

	if len(clusters) == 0 {
		return []*Cluster{ca.singleCluster(graph)}
	}
	return clusters
}

func identifyBusinessFunctions(components []model.Component) map[string]string {
	functions := make(map[string]string)
	for i := range components {
		if fn := ExtractBusinessFunction(components[i].ID); fn != "" {
			functions[components[i].ID] = fn
		}
	}
	return functions
}

// ExtractBusinessFunction returns the business token of a role-bearing
// class name, or "" for data objects (entities, DTOs, events) and plain
// domain objects that would over-fragment the partition.
func ExtractBusinessFunction(id string) string {
	simple := model.SimpleName(id)
	pkg := model.PackageOf(id)

	if dataObjectSuffixRe.MatchString(simple) {
		return ""
	}

	// Plain objects in domain/port packages carry no role.
	if isDomainPortPackage(pkg) && !domainRoleSuffixRe.MatchString(simple) {
		return ""
	}

	m := businessFunctionRe.FindStringSubmatch(simple)
	if m == nil || m[1] == "" {
		return ""
	}
	return strings.ToLower(m[1])
}

func isDomainPortPackage(pkg string) bool {
	return strings.Contains(pkg, ".domain.") || strings.Contains(pkg, ".primaryports.") ||
		strings.Contains(pkg, ".secondaryports.") || strings.HasSuffix(pkg, ".domain") ||
		strings.HasSuffix(pkg, ".primaryports") || strings.HasSuffix(pkg, ".secondaryports")
}

// bestFunctionMatch finds a function-bearing component whose token appears
// as a whole word in the candidate's simple name.
func bestFunctionMatch(id string, functions map[string]string) string {
	simple := strings.ToLower(model.SimpleName(id))
	for _, existing := range util.SortedStringKeys(functions) {
		if containsAsWord(simple, functions[existing]) {
			return existing
		}
	}
	return ""
}

// containsAsWord checks for a word-boundary match after splitting camelCase.
func containsAsWord(text, word string) bool {
	normalized := strings.ToLower(camelBoundaryRe.ReplaceAllString(text, "$1 $2"))
	word = strings.ToLower(word)
	return strings.HasPrefix(normalized, word+" ") ||
		strings.HasSuffix(normalized, " "+word) ||
		strings.Contains(normalized, " "+word+" ") ||
		normalized == word
}

func isSharedInfrastructure(id string) bool {
	simple := model.SimpleName(id)
	return strings.Contains(id, "Config") ||
		strings.Contains(id, "Security") ||
		strings.Contains(id, "Application") ||
		strings.Contains(id, "Exception") ||
		strings.Contains(id, "Error") ||
		strings.Contains(id, "Jwt") ||
		strings.Contains(id, "Swagger") ||
		strings.Contains(id, "Seeder") ||
		simple == "ErrorHandler" ||
		strings.Contains(id, "Filter") ||
		strings.Contains(id, ".config.") ||
		strings.Contains(id, ".exception.")
}

// consolidateSingletons merges singleton data-object clusters into the
// largest cluster of the same domain, preventing fragmentation from plain
// entities and DTOs.
func (ca *ClusteringAlgorithm) consolidateSingletons(clusters []*Cluster, components []model.Component) []*Cluster {
	compIdx := make(map[string]*model.Component, len(components))
	for i := range components {
		compIdx[components[i].ID] = &components[i]
	}

	byDomain := make(map[string][]*Cluster)
	for _, cluster := range clusters {
		domain := "core"
		for _, memberID := range cluster.Members {
			if comp, ok := compIdx[memberID]; ok && comp.Domain != "" && comp.Domain != "core" {
				domain = comp.Domain
				break
			}
		}
		byDomain[domain] = append(byDomain[domain], cluster)
	}

	consolidated := make([]*Cluster, 0, len(clusters))
	for _, domain := range util.SortedStringKeys(byDomain) {
		domainClusters := byDomain[domain]
		if len(domainClusters) <= 1 {
			consolidated = append(consolidated, domainClusters...)
			continue
		}

		largest := domainClusters[0]
		for _, cluster := range domainClusters[1:] {
			if cluster.Size() > largest.Size() {
				largest = cluster
			}
		}

		for _, cluster := range domainClusters {
			if cluster == largest {
				continue
			}
			if cluster.Size() != 1 {
				consolidated = append(consolidated, cluster)
				continue
			}
			memberID := cluster.Members[0]
			member := compIdx[memberID]
			merge := (member != nil && isMergeableDataObject(member)) || largest.Size() >= 3
			if merge {
				largest.AddMember(memberID)
			} else {
				consolidated = append(consolidated, cluster)
			}
		}
		consolidated = append(consolidated, largest)
	}

	sort.Slice(consolidated, func(i, j int) bool {
		return consolidated[i].ClusterID < consolidated[j].ClusterID
	})
	return consolidated
}

// isMergeableDataObject recognizes non-role-bearing data objects: entities,
// DTOs, events, and plain objects in domain/ports packages.
func isMergeableDataObject(comp *model.Component) bool {
	simple := model.SimpleName(comp.ID)
	pkg := model.PackageOf(comp.ID)
	if pkg == "" {
		return false
	}
	if dataObjectSuffixRe.MatchString(simple) {
		return true
	}
	if isDomainPortPackage(pkg) && !roleBearingSuffixRe.MatchString(simple) {
		return true
	}
	return false
}

// --- domain-based strategy (fallback) ---

func (ca *ClusteringAlgorithm) domainBasedClusters(graph *model.DependencyGraph,
	byDomain map[string][]*model.Component) []*Cluster {

	clusters := make([]*Cluster, 0)
	used := make(map[string]bool)
	clusterID := 0

	type domainEntry struct {
		domain string
		comps  []*model.Component
	}
	entries := make([]domainEntry, 0, len(byDomain))
	for _, domain := range util.SortedStringKeys(byDomain) {
		if domain == "core" || len(byDomain[domain]) < 2 {
			continue
		}
		entries = append(entries, domainEntry{domain, byDomain[domain]})
	}
	// Larger domains first; name order breaks ties deterministically.
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].comps) > len(entries[j].comps)
	})

	for _, entry := range entries {
		cluster := NewCluster(clusterID)
		clusterID++
		for _, comp := range entry.comps {
			if !used[comp.ID] {
				cluster.AddMember(comp.ID)
				used[comp.ID] = true
			}
		}
		if cluster.Size() > 0 {
			clusters = append(clusters, cluster)
		}
	}

	// Core components ride along with the first cluster.
	for _, comp := range byDomain["core"] {
		if used[comp.ID] {
			continue
		}
		if len(clusters) > 0 {
			clusters[0].AddMember(comp.ID)
		} else {
			cluster := NewCluster(clusterID)
			clusterID++
			cluster.AddMember(comp.ID)
			clusters = append(clusters, cluster)
		}
		used[comp.ID] = true
	}

	// Route the remainder by package similarity.
	for i := range graph.Components {
		comp := &graph.Components[i]
		if used[comp.ID] {
			continue
		}
		if len(clusters) > 0 {
			best := ca.bestClusterByPackage(comp, clusters)
			clusters[best].AddMember(comp.ID)
		} else {
			cluster := NewCluster(clusterID)
			clusterID++
			cluster.AddMember(comp.ID)
			clusters = append(clusters, cluster)
		}
		used[comp.ID] = true
	}

	return clusters
}

func (ca *ClusteringAlgorithm) bestClusterByPackage(comp *model.Component, clusters []*Cluster) int {
	pkg := model.PackageOf(comp.ID)
	for i, cluster := range clusters {
		for _, memberID := range cluster.Members {
			if model.PackageOf(memberID) == pkg {
				return i
			}
		}
	}
	return 0
}

// --- validation helpers ---

func (ca *ClusteringAlgorithm) hasDominantCluster(clusters []*Cluster, total int) bool {
	if len(clusters) == 0 || total == 0 {
		return false
	}
	maxSize := 0
	for _, cluster := range clusters {
		if cluster.Size() > maxSize {
			maxSize = cluster.Size()
		}
	}
	return float64(maxSize)/float64(total) > dominantClusterRatio
}

func (ca *ClusteringAlgorithm) hasCrossDomainMixing(clusters []*Cluster, components []model.Component) bool {
	compIdx := make(map[string]*model.Component, len(components))
	for i := range components {
		compIdx[components[i].ID] = &components[i]
	}

	for _, cluster := range clusters {
		domains := make(map[string]bool)
		for _, memberID := range cluster.Members {
			if comp, ok := compIdx[memberID]; ok && comp.Domain != "" && comp.Domain != "core" {
				domains[comp.Domain] = true
			}
		}
		if len(domains) > 1 {
			return true
		}
	}
	return false
}

func (ca *ClusteringAlgorithm) singleCluster(graph *model.DependencyGraph) *Cluster {
	cluster := NewCluster(0)
	for i := range graph.Components {
		cluster.AddMember(graph.Components[i].ID)
	}
	return cluster
}
