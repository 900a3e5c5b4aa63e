package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/dragonsim/internal/fractal"
	"github.com/san-kum/dragonsim/internal/frame"
)

// BufferToSVG emits one rect per horizontal run of active pixels, coloured
// by marker. Rows are flipped so the top of the buffer is the top of the
// drawing.
func BufferToSVG(buf *frame.Buffer, cell float64) string {
	if buf == nil {
		return ""
	}
	if cell <= 0 {
		cell = 1
	}

	width := float64(buf.W) * cell
	height := float64(buf.H) * cell

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" shape-rendering="crispEdges">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height))

	for y := 0; y < buf.H; y++ {
		row := buf.Row(y)
		top := float64(buf.H-1-y) * cell
		for x := 0; x < len(row); {
			p := row[x]
			if !p.Active() {
				x++
				continue
			}
			end := x + 1
			for end < len(row) && row[end] == p {
				end++
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%g" y="%g" width="%g" height="%g" fill="%s"/>
`, float64(x)*cell, top, float64(end-x)*cell, cell, hex(p)))
			x = end
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func hex(p frame.Pixel) string {
	c := p.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// PivotPathToSVG plots the pivot of every committed round as a polyline.
// Each round is in its own zoom, so the path shows the pivot's on-screen
// drift rather than absolute positions.
func PivotPathToSVG(rounds []fractal.RoundStat, width, height int, strokeColor string) string {
	if len(rounds) < 2 {
		return ""
	}

	minX, maxX := rounds[0].PivotX, rounds[0].PivotX
	minY, maxY := rounds[0].PivotY, rounds[0].PivotY
	for _, r := range rounds {
		if r.PivotX < minX {
			minX = r.PivotX
		}
		if r.PivotX > maxX {
			maxX = r.PivotX
		}
		if r.PivotY < minY {
			minY = r.PivotY
		}
		if r.PivotY > maxY {
			maxY = r.PivotY
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, r := range rounds {
		x := (r.PivotX - minX) / rangeX * float64(width)
		y := float64(height) - (r.PivotY-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
