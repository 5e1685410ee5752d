// Package export renders recorded episode series as standalone SVG charts.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrTooFewPoints = errors.New("series needs at least two points")

// Series is one polyline of a chart.
type Series struct {
	Label  string
	Color  string
	Values []float64
}

// Chart lays out one or more series sampled every Dt seconds.
type Chart struct {
	Title  string
	Width  int
	Height int
	Dt     float64
	Series []Series
}

const pad = 40

// WriteSVG renders the chart. Series share the time axis and one y range.
func (c *Chart) WriteSVG(w io.Writer) error {
	n := 0
	for _, s := range c.Series {
		n = max(n, len(s.Values))
	}
	if n < 2 {
		return ErrTooFewPoints
	}
	width, height := c.Width, c.Height
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 300
	}
	dt := c.Dt
	if dt <= 0 {
		dt = 1
	}

	minY, maxY := c.Series[0].Values[0], c.Series[0].Values[0]
	for _, s := range c.Series {
		for _, v := range s.Values {
			minY = min(minY, v)
			maxY = max(maxY, v)
		}
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	rangeX := float64(n-1) * dt

	plotW := float64(width - 2*pad)
	plotH := float64(height - 2*pad)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
	if c.Title != "" {
		fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="#cccccc" font-family="monospace" font-size="14">%s</text>
`, pad, pad/2+5, escape(c.Title))
	}
	fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%.0f" height="%.0f" fill="none" stroke="#444444"/>
`, pad, pad, plotW, plotH)
	fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="#888888" font-family="monospace" font-size="10" text-anchor="end">%.3g</text>
`, pad-4, pad+4, maxY)
	fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="#888888" font-family="monospace" font-size="10" text-anchor="end">%.3g</text>
`, pad-4, height-pad, minY)
	fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="#888888" font-family="monospace" font-size="10" text-anchor="end">%.3gs</text>
`, width-pad, height-pad+14, rangeX)

	for i, s := range c.Series {
		if len(s.Values) < 2 {
			continue
		}
		color := s.Color
		if color == "" {
			color = palette[i%len(palette)]
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
		for j, v := range s.Values {
			x := float64(pad) + float64(j)*dt/rangeX*plotW
			y := float64(pad) + plotH - (v-minY)/rangeY*plotH
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
		if s.Label != "" {
			fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="%s" font-family="monospace" font-size="11">%s</text>
`, pad+8, pad+16+14*i, color, escape(s.Label))
		}
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

var palette = []string{"#00ff88", "#ffaa00", "#44aaff", "#ff4466"}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return xmlEscaper.Replace(s) }
