package inference

import (
	"sort"
	"strings"
)

// Fallback names for groups that yield no usable tokens.
const (
	NameUnknown        = "Componente Desconocido"
	NameBusiness       = "Componente de Negocio"
	NameInfrastructure = "Componente de Infraestructura"
)

// infraKeyword pairs a lowercase member-name keyword with its display label.
// The slice is ordered so keyword counting and tie-breaking stay stable.
type infraKeyword struct {
	key     string
	display string
}

var infraKeywords = []infraKeyword{
	{"config", "Configuración"},
	{"security", "Seguridad"},
	{"auth", "Autenticación"},
	{"swagger", "Documentación"},
	{"email", "Notificaciones por Email"},
	{"notification", "Notificaciones"},
	{"log", "Logging"},
	{"audit", "Auditoría"},
	{"application", "Aplicación Principal"},
}

// NameGenerator emits one display name per consolidated group. It is
// deterministic: the name depends only on the member ids and the exclusion
// dictionary.
type NameGenerator struct {
	exclude    map[string]bool
	infraRatio float64
}

func NewNameGenerator(excludeTokens []string, infraRatio float64) *NameGenerator {
	exclude := make(map[string]bool, len(excludeTokens))
	for _, t := range excludeTokens {
		exclude[strings.ToLower(t)] = true
	}
	return &NameGenerator{exclude: exclude, infraRatio: infraRatio}
}

// Generate names the group formed by the given cluster ids.
func (ng *NameGenerator) Generate(clusterIDs []int, byID map[int]*Cluster) string {
	clusters := resolveClusters(clusterIDs, byID)
	if len(clusters) == 0 {
		return NameUnknown
	}

	if ng.isInfrastructureGroup(clusters) {
		return ng.infrastructureName(clusters)
	}
	return ng.businessName(clusters)
}

// isInfrastructureGroup checks whether the infra-keyword member share meets
// the support ratio.
func (ng *NameGenerator) isInfrastructureGroup(clusters []*Cluster) bool {
	total := 0
	infra := 0
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			total++
			lower := strings.ToLower(member)
			for _, kw := range infraKeywords {
				if strings.Contains(lower, kw.key) {
					infra++
					break
				}
			}
		}
	}
	return total > 0 && float64(infra)/float64(total) >= ng.infraRatio
}

func (ng *NameGenerator) infrastructureName(clusters []*Cluster) string {
	counts := make(map[string]int)
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			lower := strings.ToLower(member)
			for _, kw := range infraKeywords {
				if strings.Contains(lower, kw.key) {
					counts[kw.key]++
				}
			}
		}
	}

	if len(counts) == 0 {
		return NameInfrastructure
	}

	top := topKeys(counts, 2)
	displays := make([]string, 0, len(top))
	for _, key := range top {
		for _, kw := range infraKeywords {
			if kw.key == key {
				displays = append(displays, kw.display)
				break
			}
		}
	}

	if len(displays) == 1 {
		return "Componente de " + displays[0]
	}
	return "Componente de " + strings.Join(displays, " & ")
}

func (ng *NameGenerator) businessName(clusters []*Cluster) string {
	frequency := make(map[string]int)
	for _, cluster := range clusters {
		for token := range ExtractDomainTokens(cluster.Members, ng.exclude) {
			frequency[token]++
		}
	}

	if len(frequency) == 0 {
		return NameBusiness
	}

	top := topKeys(frequency, 2)
	names := make([]string, 0, len(top))
	for _, token := range top {
		names = append(names, capitalize(token))
	}

	if len(names) == 1 {
		return "Componente de " + names[0]
	}
	return "Componente de " + strings.Join(names, " y ")
}

// topKeys returns up to n keys ordered by count descending, key ascending.
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
