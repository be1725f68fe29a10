package output

import (
	"fmt"
	"strings"
	"unicode"

	"monoscope/internal/inference"
)

// MermaidGenerator renders the consolidated architecture as a flowchart:
// one node per proposal, one per support library, edges where groups share
// database tables.
type MermaidGenerator struct {
	arch *inference.ConsolidatedArchitecture
}

func NewMermaidGenerator(arch *inference.ConsolidatedArchitecture) *MermaidGenerator {
	return &MermaidGenerator{arch: arch}
}

func (m *MermaidGenerator) Generate() string {
	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 60, 'rankSpacing': 90}}}%%\n")
	b.WriteString("flowchart LR\n")

	for _, proposal := range m.arch.Proposals {
		id := nodeID("p", proposal.ID)
		label := fmt.Sprintf("%s<br/>%s · %d componentes",
			escape(proposal.Name), proposal.Viability, len(proposal.Components))
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))
		b.WriteString(fmt.Sprintf("    class %s %s\n", id, tierClass(proposal.Viability)))
	}

	for _, lib := range m.arch.SupportLibraries {
		id := nodeID("s", lib.ID)
		label := fmt.Sprintf("%s<br/>%d componentes", escape(lib.Name), len(lib.Components))
		b.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", id, label))
		b.WriteString(fmt.Sprintf("    class %s support\n", id))
	}

	// Shared tables draw dashed edges between proposals.
	for i := 0; i < len(m.arch.Proposals); i++ {
		for j := i + 1; j < len(m.arch.Proposals); j++ {
			shared := sharedTables(m.arch.Proposals[i], m.arch.Proposals[j])
			if len(shared) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("    %s -. %s .- %s\n",
				nodeID("p", m.arch.Proposals[i].ID),
				escape(strings.Join(shared, ", ")),
				nodeID("p", m.arch.Proposals[j].ID)))
		}
	}

	b.WriteString("    classDef alta fill:#e8f5e9,stroke:#2e7d32\n")
	b.WriteString("    classDef media fill:#fff8e1,stroke:#f9a825\n")
	b.WriteString("    classDef baja fill:#ffebee,stroke:#c62828\n")
	b.WriteString("    classDef support fill:#eceff1,stroke:#546e7a\n")
	return b.String()
}

func sharedTables(a, b inference.Proposal) []string {
	set := make(map[string]bool, len(a.Metrics.Tables))
	for _, table := range a.Metrics.Tables {
		set[table] = true
	}
	shared := make([]string, 0)
	for _, table := range b.Metrics.Tables {
		if set[table] {
			shared = append(shared, table)
		}
	}
	return shared
}

func tierClass(viability string) string {
	switch viability {
	case inference.ViabilityHigh:
		return "alta"
	case inference.ViabilityMedium:
		return "media"
	default:
		return "baja"
	}
}

func nodeID(prefix string, id int) string {
	return fmt.Sprintf("%s%d", prefix, id)
}

func escape(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r == '"':
			b.WriteString("&quot;")
		case r == '[' || r == ']' || r == '{' || r == '}':
			b.WriteRune(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
