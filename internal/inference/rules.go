package inference

import "fmt"

// Rule names are reported verbatim in the candidates artifact.
const (
	RuleHighCohesion = "Alta Cohesión Interna"
	RuleLowCoupling  = "Bajo Acoplamiento Externo"
	RuleSharedData   = "Consistencia de Datos (Tablas Compartidas)"
)

const (
	highCohesionThreshold = 0.7
	lowCouplingThreshold  = 0.3
)

// Rule scores a cluster property. Polymorphism is data-level: the engine
// iterates a fixed vector of rule records and sums the contributions of the
// ones that fire.
type Rule struct {
	Name    string
	Score   float64
	Fires   func(c *Cluster) bool
	Explain func(c *Cluster) string
}

// RuleVector is the fixed evaluation order for cluster scoring.
func RuleVector() []Rule {
	return []Rule{
		{
			Name:  RuleHighCohesion,
			Score: 0.4,
			Fires: func(c *Cluster) bool {
				return c.Metrics.Cohesion >= highCohesionThreshold
			},
			Explain: func(c *Cluster) string {
				return fmt.Sprintf("Alta Cohesión (%.0f%%): Las clases de este clúster se llaman mucho entre sí.",
					c.Metrics.Cohesion*100)
			},
		},
		{
			Name:  RuleLowCoupling,
			Score: 0.4,
			Fires: func(c *Cluster) bool {
				return c.Metrics.Coupling <= lowCouplingThreshold
			},
			Explain: func(c *Cluster) string {
				return fmt.Sprintf("Bajo Acoplamiento (%.0f%%): El grupo tiene pocas dependencias externas, facilitando su aislamiento.",
					c.Metrics.Coupling*100)
			},
		},
		{
			Name:  RuleSharedData,
			Score: 0.2,
			Fires: func(c *Cluster) bool {
				return len(c.Metrics.TablesShared) > 0
			},
			Explain: func(c *Cluster) string {
				tables := c.Metrics.TablesShared
				if len(tables) == 0 {
					return ""
				}
				return fmt.Sprintf("Regla 'Datos Comunes': Los miembros comparten %d tablas (ej. '%s'). Agruparlos mantiene la consistencia de datos.",
					len(tables), tables[0])
			},
		},
	}
}

// ClusterExplanation holds the human-readable reasoning for one cluster.
type ClusterExplanation struct {
	ClusterID int      `json:"cluster_id"`
	Reasoning []string `json:"reasoning"`
}

// explain synthesizes the reasoning lines from the fired rules.
func explain(cluster *Cluster) ClusterExplanation {
	exp := ClusterExplanation{ClusterID: cluster.ClusterID, Reasoning: []string{}}

	fired := make(map[string]bool, len(cluster.RulesFired))
	for _, name := range cluster.RulesFired {
		fired[name] = true
	}

	m := cluster.Metrics
	if fired[RuleHighCohesion] && fired[RuleLowCoupling] {
		exp.Reasoning = append(exp.Reasoning, fmt.Sprintf(
			"Alta Cohesión (%.0f%%): Las clases de este clúster se llaman mucho entre sí. Bajo Acoplamiento (%.0f%%): El grupo tiene pocas dependencias externas, facilitando su aislamiento.",
			m.Cohesion*100, m.Coupling*100))
		if fired[RuleSharedData] && len(m.TablesShared) > 0 {
			exp.Reasoning = append(exp.Reasoning, fmt.Sprintf(
				"Regla 'Datos Comunes': Los miembros comparten %d tablas (ej. '%s'). Agruparlos mantiene la consistencia de datos.",
				len(m.TablesShared), m.TablesShared[0]))
		}
	} else {
		exp.Reasoning = append(exp.Reasoning, fmt.Sprintf(
			"Métricas de estructura: Cohesión interna del %.0f%% y Acoplamiento externo del %.0f%%.",
			m.Cohesion*100, m.Coupling*100))
	}

	return exp
}
