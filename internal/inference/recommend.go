package inference

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"monoscope/internal/config"
	"monoscope/internal/model"
	"monoscope/internal/shared/observability"
	"monoscope/internal/shared/util"
)

// FilteredInfraLibraryName labels the synthetic support library holding the
// infrastructure components filtered out of business proposals.
const FilteredInfraLibraryName = "Infraestructura y Configuración Filtrada"

// data_jaccard in proposal metrics is a fixed proxy, not a true Jaccard:
// 0.8 whenever the group touches any shared table, 0.0 otherwise. Kept
// verbatim from the original reporting format.
const dataJaccardProxy = 0.8

// Proposal is one candidate microservice after consolidation.
type Proposal struct {
	ID                 int                 `json:"id"`
	Name               string              `json:"name"`
	Viability          string              `json:"viability"`
	Clusters           []int               `json:"clusters"`
	Components         []string            `json:"components"`
	Metrics            ConsolidatedMetrics `json:"metrics"`
	Signals            GroupSignals        `json:"signals"`
	Rationale          []string            `json:"rationale"`
	RecommendedActions []string            `json:"recommended_actions"`
}

type ConsolidatedMetrics struct {
	Size                int      `json:"size"`
	CohesionAvg         float64  `json:"cohesion_avg"`
	ExternalCoupling    float64  `json:"external_coupling"`
	InternalEdgeDensity float64  `json:"internal_edge_density"`
	DataJaccard         float64  `json:"data_jaccard"`
	Tables              []string `json:"tables"`
	Sensitive           bool     `json:"sensitive"`
}

type GroupSignals struct {
	ClusterCount    int     `json:"cluster_count"`
	TotalComponents int     `json:"total_components"`
	AvgClusterSize  float64 `json:"avg_cluster_size"`
}

// SupportLibrary is a consolidated group dominated by infrastructure.
type SupportLibrary struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Clusters   []int    `json:"clusters"`
	Components []string `json:"components"`
}

type PackageDependencyInfo struct {
	ComponentsCount      int      `json:"components_count"`
	TotalDependenciesOut int      `json:"total_dependencies_out"`
	DependsOnPackages    []string `json:"depends_on_packages"`
}

type ProjectMetadata struct {
	ExternalDependencies  map[string]string                `json:"external_dependencies"`
	PackageDependencies   map[string]PackageDependencyInfo `json:"package_dependencies"`
	TotalComponents       int                              `json:"total_components"`
	TotalLOC              int                              `json:"total_loc"`
	ComponentsWithSecrets int                              `json:"components_with_secrets"`
	SharedDomain          string                           `json:"shared_domain"`
}

// ConsolidatedArchitecture is the architecture artifact.
type ConsolidatedArchitecture struct {
	ProjectMetadata  ProjectMetadata  `json:"project_metadata"`
	Proposals        []Proposal       `json:"proposals"`
	SupportLibraries []SupportLibrary `json:"support_libraries"`
	Summary          string           `json:"summary"`
}

// RecommendationEngine consolidates candidate clusters and assembles the
// final architecture proposal.
type RecommendationEngine struct {
	cfg config.Inference
}

func NewRecommendationEngine(cfg config.Inference) *RecommendationEngine {
	return &RecommendationEngine{cfg: cfg}
}

// AnalyzeConsolidated runs consolidation, naming, and scoring over the
// candidates and attaches project metadata. projectDeps is the
// external-coordinate map supplied by the build-file resolver.
func (re *RecommendationEngine) AnalyzeConsolidated(ctx context.Context, candidates *Candidates,
	components []model.Component, projectDeps map[string]string) *ConsolidatedArchitecture {

	_, span := observability.Tracer.Start(ctx, "inference.AnalyzeConsolidated")
	defer span.End()

	clusters := candidates.Clusters
	byID := clusterByID(clusters)

	consolidator := NewClusterConsolidator(clusters, components, re.cfg)
	groups := consolidator.Consolidate()

	scorer := NewViabilityScorer(clusters, components, re.cfg.Viability)
	names := NewNameGenerator(re.cfg.Naming.ExcludeTokens, re.cfg.Consolidation.SupportRatio)

	compIdx := make(map[string]*model.Component, len(components))
	for i := range components {
		compIdx[components[i].ID] = &components[i]
	}

	proposals := make([]Proposal, 0)
	supportLibraries := make([]SupportLibrary, 0)
	filteredInfra := make(map[string]bool)

	nextID := 0
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		groupClusters := resolveClusters(group, byID)

		if re.isSupportGroup(groupClusters) {
			supportLibraries = append(supportLibraries,
				re.buildSupportLibrary(nextID, group, groupClusters, names, byID))
			nextID++
			continue
		}

		proposals = append(proposals,
			re.buildProposal(nextID, group, groupClusters, names, scorer, compIdx, byID))
		nextID++

		for _, cluster := range groupClusters {
			for _, member := range cluster.Members {
				if IsInfrastructureComponent(member) {
					filteredInfra[member] = true
				}
			}
		}
	}

	if len(filteredInfra) > 0 {
		members := make([]string, 0, len(filteredInfra))
		for member := range filteredInfra {
			members = append(members, member)
		}
		sort.Strings(members)
		supportLibraries = append(supportLibraries, SupportLibrary{
			ID:         nextID,
			Name:       FilteredInfraLibraryName,
			Clusters:   []int{},
			Components: members,
		})
		nextID++
	}

	observability.SupportLibraries.Set(float64(len(supportLibraries)))
	for _, tier := range []string{ViabilityHigh, ViabilityMedium, ViabilityLow} {
		count := 0
		for _, p := range proposals {
			if p.Viability == tier {
				count++
			}
		}
		observability.ProposalsEmitted.WithLabelValues(tier).Set(float64(count))
	}

	return &ConsolidatedArchitecture{
		ProjectMetadata:  re.projectMetadata(components, projectDeps),
		Proposals:        proposals,
		SupportLibraries: supportLibraries,
		Summary:          re.summary(proposals, supportLibraries),
	}
}

// isSupportGroup applies the strict support bar over the whole group.
func (re *RecommendationEngine) isSupportGroup(clusters []*Cluster) bool {
	total := 0
	infra := 0
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			total++
			if IsInfrastructureComponent(member) {
				infra++
			}
		}
	}
	return total > 0 && float64(infra)/float64(total) >= re.cfg.Consolidation.SupportRatio
}

func (re *RecommendationEngine) buildProposal(id int, group []int, clusters []*Cluster,
	names *NameGenerator, scorer *ViabilityScorer, compIdx map[string]*model.Component,
	byID map[int]*Cluster) Proposal {

	name := names.Generate(group, byID)
	verdict := scorer.Score(group)
	metrics := re.consolidatedMetrics(clusters, compIdx)

	members := make([]string, 0)
	seen := make(map[string]bool)
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			if seen[member] || IsInfrastructureComponent(member) {
				continue
			}
			seen[member] = true
			members = append(members, member)
		}
	}
	sort.Strings(members)

	totalComponents := 0
	for _, cluster := range clusters {
		totalComponents += cluster.Size()
	}
	avgSize := 0.0
	if len(clusters) > 0 {
		avgSize = float64(totalComponents) / float64(len(clusters))
	}

	return Proposal{
		ID:         id,
		Name:       name,
		Viability:  verdict.Viability,
		Clusters:   group,
		Components: members,
		Metrics:    metrics,
		Signals: GroupSignals{
			ClusterCount:    len(clusters),
			TotalComponents: totalComponents,
			AvgClusterSize:  avgSize,
		},
		Rationale:          verdict.Rationale,
		RecommendedActions: re.actions(verdict.Viability, metrics),
	}
}

func (re *RecommendationEngine) buildSupportLibrary(id int, group []int, clusters []*Cluster,
	names *NameGenerator, byID map[int]*Cluster) SupportLibrary {

	members := make([]string, 0)
	seen := make(map[string]bool)
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			if !seen[member] {
				seen[member] = true
				members = append(members, member)
			}
		}
	}
	sort.Strings(members)

	return SupportLibrary{
		ID:         id,
		Name:       names.Generate(group, byID),
		Clusters:   group,
		Components: members,
	}
}

// consolidatedMetrics computes group metrics with infrastructure members
// filtered out of the size and call accounting.
func (re *RecommendationEngine) consolidatedMetrics(clusters []*Cluster,
	compIdx map[string]*model.Component) ConsolidatedMetrics {

	members := make(map[string]bool)
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			if !IsInfrastructureComponent(member) {
				members[member] = true
			}
		}
	}
	size := len(members)

	// Each member inherits the best cohesion among its clusters.
	memberCohesion := make(map[string]float64)
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			if !members[member] {
				continue
			}
			if cluster.Metrics.Cohesion > memberCohesion[member] {
				memberCohesion[member] = cluster.Metrics.Cohesion
			}
		}
	}
	cohesionAvg := 0.0
	if len(memberCohesion) > 0 {
		sum := 0.0
		for _, c := range memberCohesion {
			sum += c
		}
		cohesionAvg = sum / float64(len(memberCohesion))
	}

	internal := 0
	external := 0
	for member := range members {
		comp, ok := compIdx[member]
		if !ok {
			continue
		}
		for _, called := range comp.CallsOut {
			if members[called] {
				internal++
			} else {
				external++
			}
		}
	}

	externalCoupling := 0.0
	if internal+external > 0 {
		externalCoupling = float64(external) / float64(internal+external)
	}

	density := 0.0
	if possible := size * (size - 1); possible > 0 {
		density = float64(internal) / float64(possible)
	}

	tables := make([]string, 0)
	tableSet := make(map[string]bool)
	sensitive := false
	for _, cluster := range clusters {
		for _, table := range cluster.Metrics.TablesShared {
			if !tableSet[table] {
				tableSet[table] = true
				tables = append(tables, table)
			}
		}
		sensitive = sensitive || cluster.Metrics.Sensitive
	}
	sort.Strings(tables)

	dataJaccard := 0.0
	if len(tables) > 0 {
		dataJaccard = dataJaccardProxy
	}

	return ConsolidatedMetrics{
		Size:                size,
		CohesionAvg:         cohesionAvg,
		ExternalCoupling:    externalCoupling,
		InternalEdgeDensity: density,
		DataJaccard:         dataJaccard,
		Tables:              tables,
		Sensitive:           sensitive,
	}
}

func (re *RecommendationEngine) actions(viability string, metrics ConsolidatedMetrics) []string {
	actions := make([]string, 0, 5)

	switch viability {
	case ViabilityHigh:
		actions = append(actions, "✅ Diseñar como microservicio independiente")
		actions = append(actions, "✅ Definir API pública con contratos claros (OpenAPI/gRPC)")
		if len(metrics.Tables) > 0 {
			actions = append(actions, "✅ Asignar base de datos exclusiva con ownership de: "+strings.Join(metrics.Tables, ", "))
		}
		actions = append(actions, "✅ Implementar patrones de resiliencia (circuit breaker, retry, timeout)")
		if metrics.Sensitive {
			actions = append(actions, "⚠️ Implementar encriptación, auditoría y controles de acceso por datos sensibles")
		}
	case ViabilityMedium:
		actions = append(actions, "🔧 Refactorizar para mejorar cohesión y reducir acoplamiento")
		actions = append(actions, "🔧 Aplicar principios SOLID (SRP, DIP) para separación de responsabilidades")
		actions = append(actions, "🔧 Considerar eventos asíncronos para reducir acoplamiento síncrono")
		actions = append(actions, "📋 Re-evaluar después de refactorización")
	default:
		actions = append(actions, "❌ NO implementar como microservicio en estado actual")
		actions = append(actions, "🔧 Requiere refactorización profunda o fusión con otros dominios")
		actions = append(actions, "💡 Evaluar si debe ser librería compartida o módulo interno")
	}

	if metrics.Size > 0 && metrics.Size <= re.cfg.Viability.NanoMaxSize {
		actions = append(actions, fmt.Sprintf(
			"⚠️ Nano-servicio (%d componentes): el costo operativo puede superar el beneficio", metrics.Size))
	}

	return actions
}

func (re *RecommendationEngine) projectMetadata(components []model.Component,
	projectDeps map[string]string) ProjectMetadata {

	totalLOC := 0
	withSecrets := 0
	for i := range components {
		totalLOC += components[i].LOC
		if len(components[i].SecretsReferences) > 0 {
			withSecrets++
		}
	}

	deps := make(map[string]string, len(projectDeps))
	for coord, full := range projectDeps {
		deps[coord] = full
	}
	for i := range components {
		for _, dep := range components[i].ExternalDependencies {
			parts := strings.Split(dep, ":")
			if len(parts) >= 2 {
				deps[parts[0]+":"+parts[1]] = dep
			}
		}
	}

	return ProjectMetadata{
		ExternalDependencies:  deps,
		PackageDependencies:   aggregatePackageDependencies(components),
		TotalComponents:       len(components),
		TotalLOC:              totalLOC,
		ComponentsWithSecrets: withSecrets,
		SharedDomain:          identifySharedDomain(components),
	}
}

func aggregatePackageDependencies(components []model.Component) map[string]PackageDependencyInfo {
	dependsOn := make(map[string]map[string]bool)
	componentCount := make(map[string]int)
	depsOut := make(map[string]int)

	for i := range components {
		pkg := model.PackageOf(components[i].ID)
		if pkg == "" {
			continue
		}
		componentCount[pkg]++
		for _, group := range components[i].PackageDependencies {
			if dependsOn[pkg] == nil {
				dependsOn[pkg] = make(map[string]bool)
			}
			dependsOn[pkg][group.PackageName] = true
			depsOut[pkg] += group.Count
		}
	}

	result := make(map[string]PackageDependencyInfo, len(componentCount))
	for _, pkg := range util.SortedStringKeys(componentCount) {
		result[pkg] = PackageDependencyInfo{
			ComponentsCount:      componentCount[pkg],
			TotalDependenciesOut: depsOut[pkg],
			DependsOnPackages:    util.SortedStringKeys(dependsOn[pkg]),
		}
	}
	return result
}

// identifySharedDomain finds the dotted package prefix of length 2 to 4 that
// covers the most components.
func identifySharedDomain(components []model.Component) string {
	counts := make(map[string]int)
	for i := range components {
		pkg := model.PackageOf(components[i].ID)
		if pkg == "" {
			continue
		}
		parts := strings.Split(pkg, ".")
		for depth := 2; depth <= 4 && depth <= len(parts); depth++ {
			counts[strings.Join(parts[:depth], ".")]++
		}
	}

	best := "unknown"
	bestCount := 0
	for _, domain := range util.SortedStringKeys(counts) {
		if counts[domain] > bestCount {
			best = domain
			bestCount = counts[domain]
		}
	}
	return best
}

func (re *RecommendationEngine) summary(proposals []Proposal, libraries []SupportLibrary) string {
	var b strings.Builder

	b.WriteString("ANÁLISIS DE ARQUITECTURA - COMPONENTES AGRUPADOS\n")
	b.WriteString("═════════════════════════════════════════════════\n\n")

	high, medium, low := 0, 0, 0
	for _, p := range proposals {
		switch p.Viability {
		case ViabilityHigh:
			high++
		case ViabilityMedium:
			medium++
		default:
			low++
		}
	}

	if len(proposals) > 0 {
		b.WriteString("📋 Módulos Identificados por Cohesión/Acoplamiento:\n")
		b.WriteString("───────────────────────────────────────────────────\n")
		for _, p := range proposals {
			b.WriteString(fmt.Sprintf("• %s → Clusters %s (%d componentes)\n",
				p.Name, joinInts(p.Clusters), len(p.Components)))
		}
		b.WriteString("\n")
	}

	if len(libraries) > 0 {
		b.WriteString("📚 Librerías de Soporte:\n")
		b.WriteString("────────────────────────\n")
		for _, lib := range libraries {
			b.WriteString(fmt.Sprintf("• %s → Clusters %s\n", lib.Name, joinInts(lib.Clusters)))
		}
		b.WriteString("\n")
	}

	b.WriteString("📌 Análisis de Cohesión:\n")
	b.WriteString("────────────────────────\n")
	b.WriteString(fmt.Sprintf("✅ Alta cohesión: %d módulo(s) - Componentes fuertemente relacionados\n", high))
	b.WriteString(fmt.Sprintf("⚠️ Media cohesión: %d módulo(s) - Cohesión moderada\n", medium))
	b.WriteString(fmt.Sprintf("❌ Baja cohesión: %d módulo(s) - Componentes débilmente relacionados\n", low))

	return b.String()
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
