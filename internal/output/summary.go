package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"monoscope/internal/inference"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	altaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	mediaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	bajaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// RenderSummary produces the styled terminal report for one analysis run.
func RenderSummary(arch *inference.ConsolidatedArchitecture) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Propuesta de descomposición"))
	b.WriteString("\n\n")

	for _, proposal := range arch.Proposals {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			tierStyle(proposal.Viability).Render(tierBadge(proposal.Viability)),
			proposal.Name,
			dimStyle.Render(fmt.Sprintf("(%d componentes, clusters %v)",
				len(proposal.Components), proposal.Clusters))))
	}

	if len(arch.SupportLibraries) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Librerías de soporte"))
		b.WriteString("\n")
		for _, lib := range arch.SupportLibraries {
			b.WriteString(fmt.Sprintf("  • %s %s\n", lib.Name,
				dimStyle.Render(fmt.Sprintf("(%d componentes)", len(lib.Components)))))
		}
	}

	meta := arch.ProjectMetadata
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"%d componentes · %d LOC · %d con secretos · dominio %s",
		meta.TotalComponents, meta.TotalLOC, meta.ComponentsWithSecrets, meta.SharedDomain)))
	b.WriteString("\n")

	return b.String()
}

func tierBadge(viability string) string {
	return "[" + strings.ToUpper(viability) + "]"
}

func tierStyle(viability string) lipgloss.Style {
	switch viability {
	case inference.ViabilityHigh:
		return altaStyle
	case inference.ViabilityMedium:
		return mediaStyle
	default:
		return bajaStyle
	}
}
