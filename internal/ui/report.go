package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"labelme/internal/dashboard"
	"labelme/pkg/models"
)

const barCells = 30

// Report prints the dashboard views as terminal tables
type Report struct {
	w        io.Writer
	useColor bool
}

// NewReport creates a report writing to w
func NewReport(w io.Writer, useColor bool) *Report {
	return &Report{w: w, useColor: useColor}
}

// Render prints every tab in navigation order
func (r *Report) Render(info models.Dashboard, views *dashboard.Views) {
	fmt.Fprintf(r.w, "%s\n", r.paint(info.Title, color.FgGreen, color.Bold))
	fmt.Fprintf(r.w, "Author: %s | Expires: %s | Version: %s\n", info.Author, info.Expires, info.Version)
	if !views.RenderedAt.IsZero() {
		fmt.Fprintf(r.w, "Rendered %s\n", views.RenderedAt.Format("2006-01-02 15:04:05 MST"))
	}

	for _, tab := range dashboard.Tabs {
		r.RenderView(tab, views.View(tab.ID))
	}
}

// RenderView prints a single tab
func (r *Report) RenderView(tab dashboard.Tab, view interface{}) {
	r.section(tab.Title)

	switch v := view.(type) {
	case *dashboard.QualityOverview:
		r.quality(v)
	case *dashboard.ArtistAnalytics:
		r.artists(v)
	case *dashboard.StreamingInsights:
		r.streaming(v)
	case *dashboard.PipelineMonitor:
		r.pipeline(v)
	case *dashboard.BeforeAfter:
		r.beforeAfter(v)
	}
}

func (r *Report) quality(v *dashboard.QualityOverview) {
	if !r.status(v.Status) {
		return
	}
	r.cards(v.Cards)
	r.heading("Quality Breakdown by Entity")
	r.table(v.Breakdown.Columns, v.Breakdown.Rows)
}

func (r *Report) artists(v *dashboard.ArtistAnalytics) {
	if !r.status(v.Status) || v.Placeholder != "" {
		return
	}
	r.heading("Top Artists by Streams")
	r.bars(v.TopArtists)
	r.heading("Contract Status")
	r.bars(v.ContractStatus)
	r.heading("Genre Distribution")
	r.bars(v.Genres)
	r.heading("Artist Details")
	r.table(v.Details.Columns, v.Details.Rows)
}

func (r *Report) streaming(v *dashboard.StreamingInsights) {
	if !r.status(v.Status) || v.Placeholder != "" {
		return
	}
	r.heading("Streams by Platform")
	r.bars(v.Platforms)

	r.heading("Platform Market Share")
	rows := make([][]string, 0, len(v.Shares))
	for _, share := range v.Shares {
		rows = append(rows, []string{share.Platform, humanize.Comma(int64(share.Streams)), share.Percent + "%"})
	}
	r.table([]string{"Platform", "Streams", "Share"}, rows)

	if labels := v.Trends.Labels; len(labels) > 0 {
		r.heading(fmt.Sprintf("Streaming Trends %s to %s", labels[0], labels[len(labels)-1]))
		rows = rows[:0]
		for _, series := range v.Trends.Series {
			var total float64
			for _, value := range series.Values {
				total += value
			}
			last := 0.0
			if n := len(series.Values); n > 0 {
				last = series.Values[n-1]
			}
			rows = append(rows, []string{series.Name, humanize.Comma(int64(total)), humanize.Comma(int64(last))})
		}
		r.table([]string{"Platform", "Total", "Latest Day"}, rows)
	}
}

func (r *Report) pipeline(v *dashboard.PipelineMonitor) {
	r.status(v.Status)
	if len(v.Cards) > 0 {
		r.cards(v.Cards)
		r.heading("Content Analysis")
		for _, line := range v.Content {
			fmt.Fprintf(r.w, "  %s\n", line)
		}
		r.heading("Pipeline Info")
		for _, item := range v.PipelineInfo {
			fmt.Fprintf(r.w, "  %-14s %s\n", item.Label+":", item.Value)
		}
	}
	if v.Failed() {
		return
	}

	r.heading("Contract Alerts")
	if v.Success != "" {
		fmt.Fprintf(r.w, "%s\n", r.paint(v.Success, color.FgGreen))
		return
	}
	r.table(v.Alerts.Columns, v.Alerts.Rows)
}

func (r *Report) beforeAfter(v *dashboard.BeforeAfter) {
	r.status(v.Status)
	if len(v.Rows) > 0 {
		rows := make([][]string, 0, len(v.Rows))
		for _, row := range v.Rows {
			quality := ""
			if row.HasQuality {
				quality = fmt.Sprintf("%.0f", row.Quality)
			}
			rows = append(rows, []string{
				row.ID, row.RawName, row.CleanName, row.RawCountry, row.CleanCountry, row.RawGenre, row.CleanGenre, quality,
			})
		}
		r.table(v.Columns, rows)
	}

	r.heading("Transformation Examples")
	for _, group := range v.Examples {
		fmt.Fprintf(r.w, "  %s\n", group.Title)
		for _, example := range group.Examples {
			fmt.Fprintf(r.w, "    %q -> %q\n", example.Before, example.After)
		}
	}
}

// status prints the notices of a view and reports whether its content should follow
func (r *Report) status(s dashboard.Status) bool {
	if s.Error != "" {
		fmt.Fprintf(r.w, "%s\n", r.paint(s.Error, color.FgRed))
		if s.Hint != "" {
			fmt.Fprintf(r.w, "%s\n", r.paint(s.Hint, color.FgCyan))
		}
		return false
	}
	if s.Placeholder != "" {
		fmt.Fprintf(r.w, "%s\n", r.paint(s.Placeholder, color.FgCyan))
	}
	return true
}

func (r *Report) cards(cards []dashboard.MetricCard) {
	rows := make([][]string, 0, len(cards))
	for _, card := range cards {
		rows = append(rows, []string{card.Label, card.Value, card.Delta})
	}
	r.table([]string{"Metric", "Value", "Detail"}, rows)
}

func (r *Report) bars(chart dashboard.BarChart) {
	rows := make([][]string, 0, len(chart.Bars))
	for _, bar := range chart.Bars {
		cells := 0
		if chart.Max > 0 && bar.Value > 0 {
			cells = int(bar.Value / chart.Max * barCells)
			if cells == 0 {
				cells = 1
			}
		}
		rows = append(rows, []string{
			bar.Label,
			humanize.Comma(int64(bar.Value)),
			r.paint(strings.Repeat("█", cells), color.FgGreen),
		})
	}
	r.table([]string{"", "Value", ""}, rows)
}

func (r *Report) table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(r.w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

func (r *Report) section(title string) {
	fmt.Fprintf(r.w, "\n%s\n%s\n", r.paint(title, color.Bold), strings.Repeat("─", 50))
}

func (r *Report) heading(title string) {
	fmt.Fprintf(r.w, "\n%s\n", r.paint(title, color.FgCyan))
}

func (r *Report) paint(text string, attrs ...color.Attribute) string {
	if !r.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}
