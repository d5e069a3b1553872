package glimpse

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

const chartWidth, chartHeight = 240.0, 120.0

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Page.Name}}</title>
<style>
body { font-family: sans-serif; margin: 1rem; background: #14161a; color: #d8dce2; }
.columns { display: flex; gap: 1rem; align-items: flex-start; }
.column { flex: 1; display: flex; flex-direction: column; gap: 1rem; }
.widget { background: #1c1f26; border-radius: 6px; padding: 0.75rem; }
.widget h2 { margin: 0 0 0.5rem; font-size: 0.85rem; text-transform: uppercase; letter-spacing: 0.05em; color: #8a93a2; }
.stale-badge { color: #d9a13c; font-size: 0.7rem; margin-left: 0.5rem; text-transform: none; }
.unavailable { color: #6a7383; font-style: italic; }
.age { color: #6a7383; font-size: 0.7rem; margin-top: 0.4rem; }
</style>
</head>
<body>
<h1>{{.Page.Name}}</h1>
<div class="columns">
{{- range .Columns}}
<div class="column">
{{- range .}}
<div class="widget">
<h2>{{.Spec.ID}}{{if eq .State "stale"}}<span class="stale-badge">stale</span>{{end}}</h2>
{{- if eq .State "unavailable"}}
<p class="unavailable">no data</p>
{{- else}}
{{chart .Payload}}
<p class="age">updated {{ago .UpdatedAt}}</p>
{{- end}}
</div>
{{- end}}
</div>
{{- end}}
</div>
</body>
</html>
`

// Renderer is the render gateway: a pure function from page snapshots to
// markup. It never touches the cache.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"ago":   humanize.Time,
		"chart": chartSVG,
	}).Parse(pageTemplate)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderPage writes the markup for one snapshot.
func (r *Renderer) RenderPage(w io.Writer, snap PageSnapshot) error {
	return r.tmpl.Execute(w, snap)
}

// chartSVG dispatches on the payload's shape tag to build its inline SVG.
func chartSVG(p Payload) template.HTML {
	switch p.Shape {
	case ShapeLine:
		return seriesSVG(p.Points, false)
	case ShapeArea:
		return seriesSVG(p.Points, true)
	case ShapeBar:
		return barSVG(p.Bars)
	case ShapePie:
		return pieSVG(p.Slices)
	}
	return ""
}

func seriesSVG(points []Point, filled bool) template.HTML {
	maxV := maxValue(pointValues(points))
	var b strings.Builder
	svgOpen(&b)

	step := chartWidth
	if len(points) > 1 {
		step = chartWidth / float64(len(points)-1)
	}
	var coords []string
	for i, p := range points {
		x := float64(i) * step
		y := chartHeight - scaleY(p.Value, maxV)
		coords = append(coords, fmt.Sprintf("%.1f,%.1f", x, y))
	}
	if filled {
		area := append([]string{fmt.Sprintf("0,%.1f", chartHeight)}, coords...)
		area = append(area, fmt.Sprintf("%.1f,%.1f", chartWidth, chartHeight))
		fmt.Fprintf(&b, `<polygon points="%s" fill="#3a6ea544" stroke="none"/>`, strings.Join(area, " "))
	}
	fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="#5a9bd5" stroke-width="2"/>`, strings.Join(coords, " "))
	writeXLabels(&b, pointLabels(points))
	b.WriteString("</svg>")
	return template.HTML(b.String())
}

func barSVG(bars []Point) template.HTML {
	maxV := maxValue(pointValues(bars))
	var b strings.Builder
	svgOpen(&b)

	slot := chartWidth / float64(len(bars))
	barW := slot * 0.7
	for i, p := range bars {
		h := scaleY(p.Value, maxV)
		x := float64(i)*slot + (slot-barW)/2
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#5a9bd5"/>`,
			x, chartHeight-h, barW, h)
	}
	writeXLabels(&b, pointLabels(bars))
	b.WriteString("</svg>")
	return template.HTML(b.String())
}

func pieSVG(slices []Slice) template.HTML {
	var total float64
	for _, s := range slices {
		total += s.Value
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<svg viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`,
		chartHeight, chartHeight, chartHeight, chartHeight)

	cx, cy, r := chartHeight/2, chartHeight/2, chartHeight/2-4
	if total <= 0 {
		b.WriteString("</svg>")
		return template.HTML(b.String())
	}

	angle := -math.Pi / 2
	for _, s := range slices {
		frac := s.Value / total
		end := angle + frac*2*math.Pi
		x1, y1 := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
		x2, y2 := cx+r*math.Cos(end), cy+r*math.Sin(end)
		large := 0
		if frac > 0.5 {
			large = 1
		}
		fmt.Fprintf(&b,
			`<path d="M %.1f %.1f L %.1f %.1f A %.1f %.1f 0 %d 1 %.1f %.1f Z" fill="%s"><title>%s</title></path>`,
			cx, cy, x1, y1, r, r, large, x2, y2,
			template.HTMLEscapeString(s.Color), template.HTMLEscapeString(s.Label))
		angle = end
	}
	b.WriteString("</svg>")
	return template.HTML(b.String())
}

func svgOpen(b *strings.Builder) {
	fmt.Fprintf(b, `<svg viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`,
		chartWidth, chartHeight+16, chartWidth, chartHeight+16)
}

func writeXLabels(b *strings.Builder, labels []string) {
	if len(labels) == 0 {
		return
	}
	slot := chartWidth / float64(len(labels))
	for i, l := range labels {
		x := float64(i)*slot + slot/2
		fmt.Fprintf(b, `<text x="%.1f" y="%.0f" font-size="9" fill="#8a93a2" text-anchor="middle">%s</text>`,
			x, chartHeight+12, template.HTMLEscapeString(l))
	}
}

func pointValues(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func pointLabels(points []Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}

func maxValue(vs []float64) float64 {
	max := 0.0
	for _, v := range vs {
		if v > max {
			max = v
		}
	}
	return max
}

func scaleY(v, max float64) float64 {
	if max <= 0 || v <= 0 {
		return 0
	}
	return v / max * (chartHeight - 8)
}
