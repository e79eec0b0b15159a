package dashboard

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"labelme/pkg/models"
)

const (
	chartWidth  = 640.0
	chartHeight = 220.0
)

var palette = []string{"#1DB954", "#667eea", "#ff7043", "#ffb300", "#26c6da", "#ab47bc", "#8d6e63"}

// Page is the data behind one HTML render
type Page struct {
	Info   models.Dashboard
	Tabs   []Tab
	Active ViewID
	Views  *Views
}

// IsActive reports whether id is the selected tab
func (p *Page) IsActive(id ViewID) bool {
	return p.Active == id
}

// Renderer renders the dashboard page
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the page template
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Funcs(templateFuncs).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page as HTML
func (r *Renderer) Render(w io.Writer, page *Page) error {
	return r.tmpl.Execute(w, page)
}

var templateFuncs = template.FuncMap{
	"barWidth": barWidth,
	"comma":    comma,
	"color":    color,
	"points":   points,
	"chartW":   func() float64 { return chartWidth },
	"chartH":   func() float64 { return chartHeight },
	"percent":  func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"when":     func(t time.Time) string { return t.Format("2006-01-02 15:04:05 MST") },
	"last": func(s []string) string {
		if len(s) == 0 {
			return ""
		}
		return s[len(s)-1]
	},
}

// barWidth returns v as a percentage of max for CSS widths
func barWidth(v, max float64) float64 {
	if max <= 0 || v <= 0 {
		return 0
	}
	return math.Min(100, v/max*100)
}

func comma(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func color(i int) string {
	return palette[i%len(palette)]
}

// points lays values out as an SVG polyline spanning the chart area
func points(values []float64, max float64) string {
	if len(values) == 0 {
		return ""
	}
	var b strings.Builder
	step := 0.0
	if len(values) > 1 {
		step = chartWidth / float64(len(values)-1)
	}
	for i, v := range values {
		x := step * float64(i)
		if len(values) == 1 {
			x = chartWidth / 2
		}
		y := chartHeight
		if max > 0 {
			y = chartHeight - v/max*chartHeight
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, y)
	}
	return b.String()
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Info.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 0; display: flex; color: #222; }
aside { width: 240px; background: #f5f6fa; padding: 1.5rem; min-height: 100vh; box-sizing: border-box; }
main { flex: 1; padding: 1.5rem 2rem; }
.main-header { font-size: 2.2rem; font-weight: 700; color: #1DB954; margin: 0 0 .3rem; }
.sub-header { color: #666; margin-bottom: 1.5rem; }
nav a { margin-right: 1.5rem; padding: .5rem 0; text-decoration: none; color: #555; }
nav a.active { color: #1DB954; border-bottom: 2px solid #1DB954; }
.cards { display: flex; gap: 1rem; margin: 1rem 0; flex-wrap: wrap; }
.card { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: #fff; border-radius: 10px; padding: 1rem 1.5rem; min-width: 160px; }
.card .value { font-size: 1.6rem; font-weight: 600; }
.card .delta { font-size: .85rem; opacity: .85; }
table { border-collapse: collapse; width: 100%; margin: .5rem 0 1.5rem; font-size: .9rem; }
th, td { border-bottom: 1px solid #e3e3e3; padding: .35rem .6rem; text-align: left; }
.bar { background: #1DB954; height: 14px; border-radius: 3px; }
.bar-row { display: flex; align-items: center; gap: .5rem; margin: .2rem 0; }
.bar-row .label { width: 180px; overflow: hidden; white-space: nowrap; text-overflow: ellipsis; }
.progress { background: #eee; border-radius: 3px; width: 120px; height: 10px; }
.progress div { background: #00C853; height: 10px; border-radius: 3px; }
.notice { padding: .8rem 1rem; border-radius: 6px; margin: 1rem 0; }
.error { background: #ffebee; color: #b71c1c; }
.info { background: #e3f2fd; color: #0d47a1; }
.success { background: #e8f5e9; color: #1b5e20; }
.columns { display: flex; gap: 2rem; }
.columns > div { flex: 1; }
pre { background: #f5f5f5; padding: .8rem; border-radius: 6px; }
footer { text-align: center; color: #666; font-size: .8rem; margin-top: 2rem; }
</style>
</head>
<body>
<aside>
  <h3>Dashboard Info</h3>
  <p><strong>Author:</strong> {{.Info.Author}}<br>
  <strong>Expires:</strong> {{.Info.Expires}}<br>
  <strong>Version:</strong> {{.Info.Version}}</p>
  <form method="post" action="/refresh"><button type="submit">Refresh Data</button></form>
  {{with .Views}}<p><small>Rendered {{when .RenderedAt}}</small></p>{{end}}
</aside>
<main>
  <p class="main-header">{{.Info.Title}}</p>
  <p class="sub-header">AI-Powered Music Data Quality Monitoring | {{.Info.Author}} Demo</p>
  <nav>{{range .Tabs}}<a href="/?tab={{.ID}}"{{if $.IsActive .ID}} class="active"{{end}}>{{.Title}}</a>{{end}}</nav>

  <section{{if not (.IsActive "quality")}} hidden{{end}}>{{template "quality" .Views.Quality}}</section>
  <section{{if not (.IsActive "artists")}} hidden{{end}}>{{template "artists" .Views.Artists}}</section>
  <section{{if not (.IsActive "streaming")}} hidden{{end}}>{{template "streaming" .Views.Streaming}}</section>
  <section{{if not (.IsActive "pipeline")}} hidden{{end}}>{{template "pipeline" .Views.Pipeline}}</section>
  <section{{if not (.IsActive "before-after")}} hidden{{end}}>{{template "before-after" .Views.BeforeAfter}}</section>

  <footer>
    <p>LabelMe Demo | Author: {{.Info.Author}} | Expires: {{.Info.Expires}}</p>
    <p>Powered by Snowflake</p>
  </footer>
</main>
</body>
</html>

{{define "status"}}
  {{if .Error}}<div class="notice error">{{.Error}}</div>{{if .Hint}}<div class="notice info">{{.Hint}}</div>{{end}}{{end}}
  {{if .Placeholder}}<div class="notice info">{{.Placeholder}}</div>{{end}}
{{end}}

{{define "cards"}}<div class="cards">{{range .}}<div class="card"><div>{{.Label}}</div><div class="value">{{.Value}}</div>{{if .Delta}}<div class="delta">{{.Delta}}</div>{{end}}</div>{{end}}</div>{{end}}

{{define "table"}}<table><thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead><tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody></table>{{end}}

{{define "bars"}}{{$max := .Max}}{{range .Bars}}<div class="bar-row"><span class="label">{{.Label}}</span><div class="bar" style="width: {{barWidth .Value $max}}%"></div><span>{{comma .Value}}</span></div>{{end}}{{end}}

{{define "quality"}}
  <h3>Data Quality Scorecard</h3>
  {{template "status" .Status}}
  {{if not .Failed}}
    {{template "cards" .Cards}}
    <h3>Quality Breakdown by Entity</h3>
    {{template "table" .Breakdown}}
  {{end}}
{{end}}

{{define "artists"}}
  <h3>Top Artists by Streams</h3>
  {{template "status" .Status}}
  {{if and (not .Failed) (not .Placeholder)}}
    {{template "bars" .TopArtists}}
    <div class="columns">
      <div><h3>Contract Status</h3>{{template "bars" .ContractStatus}}</div>
      <div><h3>Genre Distribution</h3>{{template "bars" .Genres}}</div>
    </div>
    <h3>Artist Details</h3>
    {{template "table" .Details}}
  {{end}}
{{end}}

{{define "streaming"}}
  <h3>Streaming Platform Analysis</h3>
  {{template "status" .Status}}
  {{if and (not .Failed) (not .Placeholder)}}
    <div class="columns">
      <div><h3>Streams by Platform</h3>{{template "bars" .Platforms}}</div>
      <div><h3>Platform Market Share</h3>{{range .Shares}}<p><strong>{{.Platform}}:</strong> {{.Percent}}%</p>{{end}}</div>
    </div>
    <h3>Streaming Trends Over Time</h3>
    {{$max := .Trends.Max}}
    <svg viewBox="-10 -10 {{chartW}} {{chartH}}" width="100%" height="260" preserveAspectRatio="none" role="img">
      {{range $i, $s := .Trends.Series}}<polyline fill="none" stroke="{{color $i}}" stroke-width="2" points="{{points $s.Values $max}}"><title>{{$s.Name}}</title></polyline>{{end}}
    </svg>
    <p>{{range $i, $s := .Trends.Series}}<span style="color: {{color $i}}">&#9632; {{$s.Name}}</span> {{end}}</p>
    {{with .Trends.Labels}}<p><small>{{index . 0}} to {{last .}}</small></p>{{end}}
  {{end}}
{{end}}

{{define "pipeline"}}
  <h3>Pipeline Status</h3>
  {{template "status" .Status}}
  {{if .Cards}}
    {{template "cards" .Cards}}
    <div class="columns">
      <div><h3>Content Analysis</h3>{{range .Content}}<p>{{.}}</p>{{end}}</div>
      <div><h3>Pipeline Info</h3>{{range .PipelineInfo}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>{{end}}</div>
    </div>
  {{end}}
  {{if not .Failed}}
    <h3>Contract Alerts</h3>
    {{if .Success}}<div class="notice success">{{.Success}}</div>{{else}}{{template "table" .Alerts}}{{end}}
  {{end}}
{{end}}

{{define "before-after"}}
  <h3>Data Cleaning Comparison</h3>
  <p>See how the cleaning pipeline standardizes dirty data:</p>
  {{template "status" .Status}}
  {{if .Rows}}
    <table><thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead><tbody>
    {{range .Rows}}<tr><td>{{.ID}}</td><td>{{.RawName}}</td><td>{{.CleanName}}</td><td>{{.RawCountry}}</td><td>{{.CleanCountry}}</td><td>{{.RawGenre}}</td><td>{{.CleanGenre}}</td>
      <td>{{if .HasQuality}}<div class="progress"><div style="width: {{.QualityBar}}%"></div></div> {{percent .Quality}}{{end}}</td></tr>{{end}}
    </tbody></table>
  {{end}}
  <h3>Transformation Examples</h3>
  <div class="columns">
    {{range .Examples}}<div><h4>{{.Title}}</h4><pre>{{range .Examples}}Before: "{{.Before}}"  →  After: "{{.After}}"
{{end}}</pre></div>{{end}}
  </div>
{{end}}
`
