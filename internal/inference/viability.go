package inference

import (
	"fmt"

	"monoscope/internal/config"
	"monoscope/internal/model"
)

// Viability tiers.
const (
	ViabilityHigh   = "Alta"
	ViabilityMedium = "Media"
	ViabilityLow    = "Baja"
)

// Minimum and maximum group sizes outside which the size penalties apply.
const (
	smallGroupSize = 3
	largeGroupSize = 50
)

// CBO and LCOM threshold bands. These inform the rationale text only and
// never alter the score.
const (
	cboGood  = 5.0
	cboWarn  = 10.0
	lcomGood = 0.3
	lcomWarn = 0.6
)

// ViabilityResult is the scored verdict for one consolidated group.
type ViabilityResult struct {
	Viability string   `json:"viability"`
	Score     float64  `json:"score"`
	Rationale []string `json:"rationale"`
}

type qualityMetrics struct {
	avgCBO   float64
	avgLCOM  float64
	withCBO  int
	withLCOM int
}

// ViabilityScorer rates consolidated groups on adjusted cohesion, external
// coupling, and data cohesion, with multiplicative size penalties.
type ViabilityScorer struct {
	byID    map[int]*Cluster
	compIdx map[string]*model.Component
	cfg     config.Viability
}

func NewViabilityScorer(clusters []*Cluster, components []model.Component, cfg config.Viability) *ViabilityScorer {
	compIdx := make(map[string]*model.Component, len(components))
	for i := range components {
		compIdx[components[i].ID] = &components[i]
	}
	return &ViabilityScorer{
		byID:    clusterByID(clusters),
		compIdx: compIdx,
		cfg:     cfg,
	}
}

// Score rates the group formed by the given cluster ids.
func (vs *ViabilityScorer) Score(clusterIDs []int) ViabilityResult {
	clusters := resolveClusters(clusterIDs, vs.byID)
	if len(clusters) == 0 {
		return ViabilityResult{
			Viability: ViabilityLow,
			Score:     0.0,
			Rationale: []string{"No se encontraron clusters válidos"},
		}
	}

	cohesionAdj := vs.adjustedCohesion(clusters)
	externalCoupling := vs.externalCoupling(clusters)
	dataCohesion := vs.dataCohesion(clusters)

	totalSize := 0
	for _, cluster := range clusters {
		totalSize += cluster.Size()
	}

	quality := vs.codeQuality(clusters)

	score := vs.cfg.CohesionWeight*cohesionAdj +
		vs.cfg.CouplingWeight*(1-externalCoupling) +
		vs.cfg.DataWeight*dataCohesion

	if totalSize < smallGroupSize {
		score *= vs.cfg.SmallSizePenalty
	} else if totalSize > largeGroupSize {
		if vs.internalEdgeDensity(clusters) < vs.cfg.LargeSizeDensityMax {
			score *= vs.cfg.LargeSizePenalty
		}
	}

	viability := ViabilityLow
	switch {
	case score >= vs.cfg.HighViability:
		viability = ViabilityHigh
	case score >= vs.cfg.MediumViability:
		viability = ViabilityMedium
	}

	rationale := vs.rationale(cohesionAdj, externalCoupling, dataCohesion, totalSize, quality, viability)
	return ViabilityResult{Viability: viability, Score: score, Rationale: rationale}
}

// adjustedCohesion blends the member-size-weighted cohesion average with the
// internal edge density of the whole group.
func (vs *ViabilityScorer) adjustedCohesion(clusters []*Cluster) float64 {
	weightedSum := 0.0
	totalSize := 0
	for _, cluster := range clusters {
		weightedSum += cluster.Metrics.Cohesion * float64(cluster.Size())
		totalSize += cluster.Size()
	}

	avg := 0.0
	if totalSize > 0 {
		avg = weightedSum / float64(totalSize)
	}

	return 0.7*avg + 0.3*vs.internalEdgeDensity(clusters)
}

// internalEdgeDensity counts internal call edges against the n·(n−1)
// possible directed pairs over all members of the group.
func (vs *ViabilityScorer) internalEdgeDensity(clusters []*Cluster) float64 {
	members := memberSet(clusters)

	internal := 0
	for member := range members {
		comp, ok := vs.compIdx[member]
		if !ok {
			continue
		}
		for _, called := range comp.CallsOut {
			if members[called] {
				internal++
			}
		}
	}

	possible := len(members) * (len(members) - 1)
	if possible <= 0 {
		return 0.0
	}
	return float64(internal) / float64(possible)
}

func (vs *ViabilityScorer) externalCoupling(clusters []*Cluster) float64 {
	members := memberSet(clusters)

	internal := 0
	external := 0
	for member := range members {
		comp, ok := vs.compIdx[member]
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

	total := internal + external
	if total == 0 {
		return 0.0
	}
	return float64(external) / float64(total)
}

// dataCohesion is the share of the group's tables that at least two
// clusters use. Groups with no tables score the neutral 0.5.
func (vs *ViabilityScorer) dataCohesion(clusters []*Cluster) float64 {
	counts := make(map[string]int)
	for _, cluster := range clusters {
		for _, table := range cluster.Metrics.TablesShared {
			counts[table]++
		}
	}

	if len(counts) == 0 {
		return 0.5
	}

	shared := 0
	for _, n := range counts {
		if n > 1 {
			shared++
		}
	}
	return float64(shared) / float64(len(counts))
}

func (vs *ViabilityScorer) codeQuality(clusters []*Cluster) qualityMetrics {
	seen := make(map[string]bool)
	var q qualityMetrics
	cboSum := 0
	lcomSum := 0.0

	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			if seen[member] {
				continue
			}
			seen[member] = true
			comp, ok := vs.compIdx[member]
			if !ok {
				continue
			}
			if comp.CBO != nil {
				cboSum += *comp.CBO
				q.withCBO++
			}
			if comp.LCOM != nil {
				lcomSum += *comp.LCOM
				q.withLCOM++
			}
		}
	}

	if q.withCBO > 0 {
		q.avgCBO = float64(cboSum) / float64(q.withCBO)
	}
	if q.withLCOM > 0 {
		q.avgLCOM = lcomSum / float64(q.withLCOM)
	}
	return q
}

func (vs *ViabilityScorer) rationale(cohesionAdj, externalCoupling, dataCohesion float64,
	totalSize int, quality qualityMetrics, viability string) []string {

	rationale := make([]string, 0, 8)

	if quality.withCBO > 0 {
		rationale = append(rationale, fmt.Sprintf(
			"📊 Métricas de Calidad: CBO promedio %.1f (acoplamiento entre objetos), LCOM promedio %.2f (cohesión de métodos: 0=alta, 1=baja)",
			quality.avgCBO, quality.avgLCOM))
	}

	cohesionPct := cohesionAdj * 100
	switch {
	case cohesionAdj >= 0.7:
		rationale = append(rationale, fmt.Sprintf(
			"✅ Alta cohesión interna (%.0f%%) - componentes bien relacionados que trabajan juntos hacia un objetivo común", cohesionPct))
	case cohesionAdj >= 0.5:
		rationale = append(rationale, fmt.Sprintf(
			"⚠️ Cohesión moderada (%.0f%%) - componentes parcialmente relacionados; considerar refactorización para agrupar responsabilidades más claramente", cohesionPct))
	default:
		rationale = append(rationale, fmt.Sprintf(
			"❌ Baja cohesión (%.0f%%) - componentes poco relacionados que no comparten un propósito claro", cohesionPct))
	}

	couplingPct := externalCoupling * 100
	switch {
	case externalCoupling < 0.3:
		rationale = append(rationale, fmt.Sprintf(
			"✅ Bajo acoplamiento externo (%.0f%%) - buena independencia y facilidad de mantenimiento", couplingPct))
	case externalCoupling < 0.5:
		rationale = append(rationale, fmt.Sprintf(
			"⚠️ Acoplamiento moderado (%.0f%%) - algunas dependencias externas; considerar aplicar patrones como facades o abstracciones para reducir acoplamiento", couplingPct))
	default:
		rationale = append(rationale, fmt.Sprintf(
			"❌ Alto acoplamiento externo (%.0f%%) - fuertemente acoplado a otros módulos, dificultando la extracción independiente", couplingPct))
	}

	if quality.withCBO > 0 {
		switch {
		case quality.avgCBO <= cboGood:
			rationale = append(rationale, fmt.Sprintf(
				"✅ CBO bajo (%.1f) - acoplamiento entre clases controlado, fácil de mantener", quality.avgCBO))
		case quality.avgCBO <= cboWarn:
			rationale = append(rationale, fmt.Sprintf(
				"⚠️ CBO moderado (%.1f) - acoplamiento moderado; revisar dependencias innecesarias entre clases", quality.avgCBO))
		default:
			rationale = append(rationale, fmt.Sprintf(
				"❌ CBO alto (%.1f) - acoplamiento excesivo entre clases, dificulta mantenimiento y testing", quality.avgCBO))
		}
	}

	if quality.withLCOM > 0 {
		switch {
		case quality.avgLCOM <= lcomGood:
			rationale = append(rationale, fmt.Sprintf(
				"✅ LCOM bajo (%.2f) - alta cohesión de métodos, clases con responsabilidad única bien definida", quality.avgLCOM))
		case quality.avgLCOM <= lcomWarn:
			rationale = append(rationale, fmt.Sprintf(
				"⚠️ LCOM moderado (%.2f) - cohesión de métodos moderada; algunas clases podrían dividirse en clases más pequeñas", quality.avgLCOM))
		default:
			rationale = append(rationale, fmt.Sprintf(
				"❌ LCOM alto (%.2f) - baja cohesión de métodos, clases con múltiples responsabilidades que deberían dividirse", quality.avgLCOM))
		}
	}

	if dataCohesion >= 0.6 {
		rationale = append(rationale, "✅ Datos cohesivos - tablas de base de datos bien agrupadas por dominio")
	} else if dataCohesion >= 0.3 {
		rationale = append(rationale, "⚠️ Datos parcialmente cohesivos - revisar si las tablas compartidas realmente pertenecen al mismo dominio")
	}

	switch {
	case totalSize < smallGroupSize:
		rationale = append(rationale, fmt.Sprintf(
			"⚠️ Tamaño muy pequeño (%d componentes) - considerar fusionar con otro módulo relacionado para evitar sobrefragmentación", totalSize))
	case totalSize > largeGroupSize:
		rationale = append(rationale, fmt.Sprintf(
			"⚠️ Tamaño muy grande (%d componentes) - considerar dividir en submódulos más manejables", totalSize))
	default:
		rationale = append(rationale, fmt.Sprintf(
			"✅ Tamaño adecuado (%d componentes) - módulo de tamaño manejable", totalSize))
	}

	if viability == ViabilityLow {
		rationale = append(rationale, vs.lowViabilityReasons(
			cohesionAdj, externalCoupling, dataCohesion, couplingPct, totalSize, quality)...)
	}

	return rationale
}

// lowViabilityReasons explains which metrics sank a Baja group, one line per
// failed metric, ending with the keep-in-monolith recommendation.
func (vs *ViabilityScorer) lowViabilityReasons(cohesionAdj, externalCoupling, dataCohesion,
	couplingPct float64, totalSize int, quality qualityMetrics) []string {

	out := []string{"", "⛔ RAZONES POR LAS QUE ESTA DESCOMPOSICIÓN NO ES VIABLE:"}

	reasons := make([]string, 0, 4)
	if cohesionAdj < 0.5 {
		reasons = append(reasons,
			"• Los componentes no comparten suficiente funcionalidad ni datos como para formar un módulo coherente. Extraerlos juntos crearía un módulo artificial sin un propósito de negocio claro.")
	}
	if externalCoupling >= 0.5 {
		reasons = append(reasons, fmt.Sprintf(
			"• El alto acoplamiento externo (%.0f%%) significa que este módulo depende fuertemente de otros componentes del sistema. Extraerlo como módulo independiente requeriría replicar o exponer demasiada funcionalidad de otros módulos, creando interfaces complejas y frágiles.", couplingPct))
	}
	if quality.withCBO > 0 && quality.avgCBO > cboWarn {
		reasons = append(reasons, fmt.Sprintf(
			"• CBO promedio alto (%.1f) indica que las clases están acopladas a muchas otras clases del sistema. Esto dificulta definir límites claros del módulo y aumenta el riesgo de cambios en cascada.", quality.avgCBO))
	}
	if quality.withLCOM > 0 && quality.avgLCOM > lcomWarn {
		reasons = append(reasons, fmt.Sprintf(
			"• LCOM promedio alto (%.2f) sugiere que las clases tienen múltiples responsabilidades no relacionadas. Antes de extraer como módulo, se debería refactorizar para separar estas responsabilidades.", quality.avgLCOM))
	}
	if totalSize < smallGroupSize {
		reasons = append(reasons, fmt.Sprintf(
			"• Con solo %d componente(s), no justifica crear un módulo separado. El overhead de gestionar un módulo adicional (interfaces, versionado, deployment) superaría los beneficios.", totalSize))
	}
	if dataCohesion < 0.3 && dataCohesion > 0 {
		reasons = append(reasons,
			"• La baja cohesión de datos indica que los componentes acceden a tablas diferentes sin un patrón claro. Esto sugiere que pertenecen a dominios de negocio distintos y deberían agruparse de otra manera.")
	}
	if len(reasons) == 0 {
		reasons = append(reasons,
			"• La combinación de métricas sugiere que estos componentes no forman una unidad funcional coherente que justifique su extracción como módulo independiente.")
	}

	out = append(out, reasons...)
	out = append(out, "",
		"💡 RECOMENDACIÓN: Mantener estos componentes en el monolito actual o reagrupar con otros componentes con los que compartan más funcionalidad y datos. Enfocarse primero en extraer módulos con viabilidad Alta o Media.")
	return out
}
