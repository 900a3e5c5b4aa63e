package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dragonsim/internal/fractal"
)

// GrowthPlot charts the active pixel count per round.
func GrowthPlot(rounds []fractal.RoundStat, width, height int) string {
	if len(rounds) == 0 {
		return ""
	}
	data := make([]float64, len(rounds))
	for i, r := range rounds {
		data[i] = float64(r.Active)
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("active pixels over %d rounds", len(rounds))),
	)
}

// ScalePlot charts the logical width each round needed.
func ScalePlot(rounds []fractal.RoundStat, width, height int) string {
	if len(rounds) < 2 {
		return ""
	}
	data := make([]float64, len(rounds))
	for i, r := range rounds {
		data[i] = r.Scale
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("required scale"),
	)
}
