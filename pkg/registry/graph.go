package registry

import (
	"fmt"
	"sort"
	"strings"
)

// RenderLegalBasisGraph emits a Graphviz DOT document of the legal-basis
// relationships among every currently loaded regulation: one node per
// regulation (clustered by regulatory layer) and one edge per legal_basis
// declaration, from implementer to the article it implements. This is a
// diagnostic/operational feature; it never participates in golden-fixture
// comparisons.
func (r *Registry) RenderLegalBasisGraph() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("digraph LegalBasis {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  fontname=\"Helvetica\";\n")
	sb.WriteString("  node [fontname=\"Helvetica\" fontsize=10];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\" fontsize=8];\n\n")

	byLayer := make(map[RegulatoryLayer][]string)
	for _, lawID := range r.loadOrder {
		reg := r.byID[lawID]
		byLayer[reg.RegulatoryLayer] = append(byLayer[reg.RegulatoryLayer], lawID)
	}

	layers := make([]string, 0, len(byLayer))
	for layer := range byLayer {
		layers = append(layers, string(layer))
	}
	sort.Strings(layers)

	for clusterIdx, layer := range layers {
		sb.WriteString(fmt.Sprintf("  subgraph cluster_%d {\n", clusterIdx))
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOTLabel(layer)))
		sb.WriteString("    style=filled;\n    color=lightgrey;\n    node [style=filled fillcolor=lightyellow shape=box];\n\n")
		for _, lawID := range byLayer[RegulatoryLayer(layer)] {
			sb.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\"];\n", sanitizeDOTID(lawID), escapeDOTLabel(lawID)))
		}
		sb.WriteString("  }\n\n")
	}

	for _, lawID := range r.loadOrder {
		reg := r.byID[lawID]
		for _, lb := range reg.LegalBasis {
			targetID := sanitizeDOTID(lb.LawID)
			if _, ok := r.byID[lb.LawID]; !ok {
				sb.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" shape=hexagon style=filled fillcolor=mistyrose];\n",
					targetID, escapeDOTLabel(lb.LawID)))
			}
			sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"article %s\" color=blue];\n",
				sanitizeDOTID(lawID), targetID, escapeDOTLabel(lb.Article)))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func sanitizeDOTID(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			sb.WriteRune(c)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func escapeDOTLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
