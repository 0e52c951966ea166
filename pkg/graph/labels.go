package graph

import (
	"strings"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
)

const articleColor = "#add8e6"

// Tableau 10
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// targetColors assigns palette colors to distinct targets in order of first
// appearance, cycling once the palette runs out.
func targetColors(pairs []common.Pair) map[string]string {
	colors := make(map[string]string)
	for _, p := range pairs {
		if _, ok := colors[p.Target]; ok {
			continue
		}
		colors[p.Target] = palette[len(colors)%len(palette)]
	}
	return colors
}

func nodeColor(colors map[string]string, name string) string {
	if c, ok := colors[name]; ok {
		return c
	}
	return articleColor
}

// splitLabel wraps labels longer than maxLen onto two lines, breaking at the
// last space within the first maxLen characters. A second line longer than
// maxLen is cut and suffixed with "...".
func splitLabel(label string, maxLen int) string {
	runes := []rune(label)
	if len(runes) <= maxLen {
		return label
	}

	split := maxLen
	for i := maxLen - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			split = i
			break
		}
	}

	first := string(runes[:split])
	second := []rune(strings.TrimSpace(string(runes[split:])))
	if len(second) > maxLen {
		second = append(second[:maxLen:maxLen], []rune("...")...)
	}
	return first + "\n" + string(second)
}
