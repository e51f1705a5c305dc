package charts

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

// Palette of the chart canvas.
const (
	colorFigure = "#080812"
	colorPlot   = "#12122a"
	colorGrid   = "#2a2a45"
	colorText   = "#f4f4ff"
	colorTick   = "#e0e0f0"
	colorEdge   = "#ffffff"
)

const fontFamily = "Inter, DejaVu Sans, Arial, sans-serif"

type point struct{ X, Y float64 }

// canvas accumulates SVG elements.
type canvas struct {
	b    strings.Builder
	w, h float64
}

func newCanvas(w, h float64) *canvas {
	c := &canvas{w: w, h: h}
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" font-family="%s">`+"\n",
		w, h, w, h, fontFamily)
	c.rect(0, 0, w, h, colorFigure, 1)
	return c
}

func (c *canvas) rect(x, y, w, h float64, fill string, opacity float64) {
	fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"`, x, y, math.Max(w, 0), math.Max(h, 0), fill)
	if opacity < 1 {
		fmt.Fprintf(&c.b, ` fill-opacity="%.2f"`, opacity)
	}
	c.b.WriteString("/>\n")
}

func (c *canvas) outlinedRect(x, y, w, h float64, fill, stroke string) {
	fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="0.5"/>`+"\n",
		x, y, math.Max(w, 0), math.Max(h, 0), fill, stroke)
}

func (c *canvas) line(x1, y1, x2, y2 float64, stroke string, width float64, dashed bool) {
	fmt.Fprintf(&c.b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g"`, x1, y1, x2, y2, stroke, width)
	if dashed {
		c.b.WriteString(` stroke-dasharray="4 4" stroke-opacity="0.35"`)
	}
	c.b.WriteString("/>\n")
}

func (c *canvas) polyline(pts []point, stroke string, width, opacity float64) {
	if len(pts) == 0 {
		return
	}
	if len(pts) == 1 {
		fmt.Fprintf(&c.b, `<circle cx="%.2f" cy="%.2f" r="%g" fill="%s" fill-opacity="%.2f"/>`+"\n",
			pts[0].X, pts[0].Y, width+1, stroke, opacity)
		return
	}
	fmt.Fprintf(&c.b, `<polyline fill="none" stroke="%s" stroke-width="%g" stroke-opacity="%.2f" stroke-linejoin="round" points="%s"/>`+"\n",
		stroke, width, opacity, pointList(pts))
}

// area fills the region between pts and the horizontal baseline.
func (c *canvas) area(pts []point, baseline float64, fill string, opacity float64) {
	if len(pts) < 2 {
		return
	}
	closed := make([]point, 0, len(pts)+2)
	closed = append(closed, point{pts[0].X, baseline})
	closed = append(closed, pts...)
	closed = append(closed, point{pts[len(pts)-1].X, baseline})
	fmt.Fprintf(&c.b, `<polygon fill="%s" fill-opacity="%.2f" points="%s"/>`+"\n", fill, opacity, pointList(closed))
}

func (c *canvas) text(x, y float64, s, anchor string, size float64, fill string) {
	fmt.Fprintf(&c.b, `<text x="%.2f" y="%.2f" text-anchor="%s" font-size="%g" fill="%s">%s</text>`+"\n",
		x, y, anchor, size, fill, html.EscapeString(s))
}

func (c *canvas) rotatedText(x, y float64, s string, size float64, fill string) {
	fmt.Fprintf(&c.b, `<text x="%.2f" y="%.2f" text-anchor="middle" font-size="%g" fill="%s" transform="rotate(-90 %.2f %.2f)">%s</text>`+"\n",
		x, y, size, fill, x, y, html.EscapeString(s))
}

func (c *canvas) title(s string) {
	fmt.Fprintf(&c.b, `<text x="%.2f" y="44" text-anchor="middle" font-size="24" font-weight="600" fill="%s">%s</text>`+"\n",
		c.w/2, colorText, html.EscapeString(s))
}

func (c *canvas) bytes() []byte {
	c.b.WriteString("</svg>\n")
	return []byte(c.b.String())
}

func pointList(pts []point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// placeholder is the canvas drawn for an empty table.
func placeholder(w, h float64) []byte {
	c := newCanvas(w, h)
	c.rect(60, 60, w-120, h-120, colorPlot, 1)
	c.text(w/2, h/2, "No data", "middle", 20, colorText)
	return c.bytes()
}

// plotArea is the inner rectangle data is drawn in.
type plotArea struct {
	left, top, width, height float64
}

func newPlotArea(c *canvas) plotArea {
	return plotArea{left: 90, top: 80, width: c.w - 90 - 40, height: c.h - 80 - 90}
}

func (p plotArea) bottom() float64 { return p.top + p.height }
func (p plotArea) right() float64  { return p.left + p.width }

// linear maps a data domain onto a pixel range.
type linear struct {
	d0, d1, r0, r1 float64
}

func (s linear) at(v float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (v-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}

// frame draws the plot background, the y grid with ticks and the axis labels,
// and returns the y scale.
func frame(c *canvas, p plotArea, maxY float64, xLabel, yLabel string) linear {
	c.rect(p.left, p.top, p.width, p.height, colorPlot, 1)

	ticks := niceTicks(maxY)
	top := ticks[len(ticks)-1]
	y := linear{d0: 0, d1: top, r0: p.bottom(), r1: p.top}
	for _, t := range ticks {
		py := y.at(t)
		c.line(p.left, py, p.right(), py, colorGrid, 1, true)
		c.text(p.left-10, py+4, formatTick(t), "end", 12, colorTick)
	}
	c.line(p.left, p.bottom(), p.right(), p.bottom(), colorEdge, 1, false)
	c.line(p.left, p.top, p.left, p.bottom(), colorEdge, 1, false)

	if xLabel != "" {
		c.text(p.left+p.width/2, c.h-24, xLabel, "middle", 14, colorText)
	}
	if yLabel != "" {
		c.rotatedText(26, p.top+p.height/2, yLabel, 14, colorText)
	}
	return y
}

type legendEntry struct {
	label, color string
}

func legend(c *canvas, p plotArea, entries []legendEntry) {
	y := p.top + 16
	for _, e := range entries {
		x := p.right() - 130
		c.rect(x, y-10, 14, 4, e.color, 1)
		c.text(x+22, y-4, e.label, "start", 12, colorText)
		y += 20
	}
}

// tickStep picks a 1/2/5 interval giving about five ticks up to maxVal.
func tickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// niceTicks returns ticks from 0 through the first step at or above maxVal.
func niceTicks(maxVal float64) []float64 {
	step := tickStep(maxVal)
	n := int(math.Ceil(maxVal / step))
	if n < 1 {
		n = 1
	}
	ticks := make([]float64, n+1)
	for i := range ticks {
		ticks[i] = float64(i) * step
	}
	return ticks
}

func formatTick(v float64) string {
	switch {
	case v >= 1e6:
		if v == math.Trunc(v/1e6)*1e6 {
			return fmt.Sprintf("%.0fM", v/1e6)
		}
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		if v == math.Trunc(v/1e3)*1e3 {
			return fmt.Sprintf("%.0fk", v/1e3)
		}
		return fmt.Sprintf("%.1fk", v/1e3)
	case v == math.Trunc(v):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

func hexColor(rgb [3]int) string {
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}

func itoa(n int) string { return strconv.Itoa(n) }
