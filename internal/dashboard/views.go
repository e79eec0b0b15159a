package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"labelme/internal/snowflake"
)

// ViewID names one dashboard tab
type ViewID string

const (
	ViewQuality     ViewID = "quality"
	ViewArtists     ViewID = "artists"
	ViewStreaming   ViewID = "streaming"
	ViewPipeline    ViewID = "pipeline"
	ViewBeforeAfter ViewID = "before-after"
)

// Tab describes a view in navigation order
type Tab struct {
	ID    ViewID `json:"id"`
	Title string `json:"title"`
	// Subject is used in "Error loading <subject> data" messages.
	Subject string `json:"-"`
	Empty   string `json:"-"`
}

// Tabs lists the views in display order
var Tabs = []Tab{
	{ID: ViewQuality, Title: "Quality Overview", Subject: "quality", Empty: NoQualityData},
	{ID: ViewArtists, Title: "Artist Analytics", Subject: "artist", Empty: NoArtistData},
	{ID: ViewStreaming, Title: "Streaming Insights", Subject: "streaming", Empty: NoStreamingData},
	{ID: ViewPipeline, Title: "Pipeline Monitor", Subject: "pipeline", Empty: NoCatalogData},
	{ID: ViewBeforeAfter, Title: "Before/After", Subject: "comparison", Empty: NoComparisonData},
}

// LookupTab returns the tab with the given id
func LookupTab(id ViewID) (Tab, bool) {
	for _, t := range Tabs {
		if t.ID == id {
			return t, true
		}
	}
	return Tab{}, false
}

// Placeholder and hint texts
const (
	ErrorHint             = "Make sure the demo is fully deployed and tables contain data."
	NoQualityData         = "No quality data available yet."
	NoArtistData          = "No artist data available yet."
	NoCatalogData         = "No catalog data available yet."
	NoStreamingData       = "No streaming data available yet."
	NoContractAlerts      = "No contract alerts at this time."
	NoComparisonData      = "No comparison data available. The cleaning process may not have found differences."
	PipelineSchedule      = "Daily at 2:00 AM PT"
	PipelineWarehouse     = "SFE_LABELME_WH (X-SMALL)"
	PipelineStatus        = "Active"
	topArtistLimit        = 15
	topGenreLimit         = 10
	qualityPercentColumn  = "HIGH_QUALITY_PCT"
	qualityRecordsColumn  = "TOTAL_RECORDS"
	qualityEntityColumn   = "ENTITY"
	artistNameColumn      = "ARTIST_NAME"
	artistStreamsColumn   = "TOTAL_STREAMS"
	daysUntilExpiryColumn = "DAYS_UNTIL_EXPIRY"
)

// Status carries the non-data state of a view
type Status struct {
	Error       string `json:"error,omitempty"`
	Hint        string `json:"hint,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Success     string `json:"success,omitempty"`
}

// Failed reports whether the view could not be built
func (s Status) Failed() bool {
	return s.Error != ""
}

// MetricCard is a headline number with an optional delta line
type MetricCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}

// DataTable is a rendered table of display strings
type DataTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Bar is one labelled value of a bar chart
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BarChart is a horizontal bar chart
type BarChart struct {
	Bars []Bar   `json:"bars"`
	Max  float64 `json:"max"`
}

func newBarChart(bars []Bar) BarChart {
	chart := BarChart{Bars: bars}
	for _, b := range bars {
		chart.Max = math.Max(chart.Max, b.Value)
	}
	return chart
}

// Series is one line of a line chart, aligned with LineChart.Labels
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// LineChart is a multi-series time chart
type LineChart struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
	Max    float64  `json:"max"`
}

// QualityOverview is the data quality scorecard view
type QualityOverview struct {
	Status
	Cards     []MetricCard `json:"cards"`
	Breakdown DataTable    `json:"breakdown"`
}

var qualityCategories = []struct {
	entity string
	label  string
}{
	{"Artists", "Artist Quality"},
	{"Songs", "Song Quality"},
	{"Streaming Metrics", "Metrics Quality"},
}

// BuildQualityOverview derives the headline cards and breakdown table from
// the scorecard. Categories without a row are omitted.
func BuildQualityOverview(scorecard *snowflake.Table) *QualityOverview {
	view := &QualityOverview{}

	for _, category := range qualityCategories {
		row, ok := findRow(scorecard, qualityEntityColumn, category.entity)
		if !ok {
			continue
		}
		view.Cards = append(view.Cards, MetricCard{
			Label: category.label,
			Value: formatPercent(row.Float(qualityPercentColumn)),
			Delta: formatRecords(row),
		})
	}

	var total, pctSum float64
	var pctCount int
	scorecard.Each(func(row snowflake.Row) {
		if n, ok := row.Float(qualityRecordsColumn); ok {
			total += n
		}
		if pct, ok := row.Float(qualityPercentColumn); ok {
			pctSum += pct
			pctCount++
		}
	})
	avg := 0.0
	if pctCount > 0 {
		avg = pctSum / float64(pctCount)
	}
	view.Cards = append(view.Cards, MetricCard{
		Label: "Total Records",
		Value: humanize.Comma(int64(math.Round(total))),
		Delta: fmt.Sprintf("Avg Quality: %.1f%%", avg),
	})

	view.Breakdown = toDataTable(scorecard.Project(
		qualityEntityColumn, qualityRecordsColumn, "HIGH_QUALITY_COUNT", qualityPercentColumn, "STANDARDIZED_COUNT",
	))
	return view
}

func formatPercent(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func formatRecords(row snowflake.Row) string {
	n, ok := row.Int(qualityRecordsColumn)
	if !ok {
		return "no records"
	}
	return fmt.Sprintf("%d records", n)
}

// ArtistAnalytics is the artist performance view
type ArtistAnalytics struct {
	Status
	TopArtists     BarChart  `json:"top_artists"`
	ContractStatus BarChart  `json:"contract_status"`
	Genres         BarChart  `json:"genres"`
	Details        DataTable `json:"details"`
}

var artistDetailColumns = []string{
	artistNameColumn, "COUNTRY_CODE", "GENRE_PRIMARY", artistStreamsColumn,
	"ALBUM_COUNT", "SONG_COUNT", "QUALITY_SCORE", "CONTRACT_STATUS",
}

// BuildArtistAnalytics charts the leading artists by streams and tallies
// contract status and genre
func BuildArtistAnalytics(artists *snowflake.Table) *ArtistAnalytics {
	view := &ArtistAnalytics{}
	if artists.Empty() {
		view.Placeholder = NoArtistData
		return view
	}

	var top []Bar
	for i := 0; i < artists.Len() && i < topArtistLimit; i++ {
		row := artists.Row(i)
		name, nameOK := row.String(artistNameColumn)
		streams, streamsOK := row.Float(artistStreamsColumn)
		if !nameOK || !streamsOK {
			continue
		}
		top = append(top, Bar{Label: name, Value: streams})
	}
	view.TopArtists = newBarChart(top)

	view.ContractStatus = newBarChart(valueCounts(artists, "CONTRACT_STATUS", 0))
	view.Genres = newBarChart(valueCounts(artists, "GENRE_PRIMARY", topGenreLimit))
	view.Details = toDataTable(artists.Project(artistDetailColumns...))
	return view
}

// valueCounts counts non-null values of column, most frequent first with
// ties ordered by label. limit <= 0 keeps every value.
func valueCounts(table *snowflake.Table, column string, limit int) []Bar {
	counts := make(map[string]float64)
	table.Each(func(row snowflake.Row) {
		if v, ok := row.String(column); ok {
			counts[v]++
		}
	})

	bars := make([]Bar, 0, len(counts))
	for label, n := range counts {
		bars = append(bars, Bar{Label: label, Value: n})
	}
	sortBars(bars)

	if limit > 0 && len(bars) > limit {
		bars = bars[:limit]
	}
	return bars
}

func sortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Label < bars[j].Label
	})
}

// PlatformShare is one platform's portion of all streams
type PlatformShare struct {
	Platform string  `json:"platform"`
	Streams  float64 `json:"streams"`
	Percent  string  `json:"percent"`
}

// StreamingInsights is the platform analysis view
type StreamingInsights struct {
	Status
	Platforms BarChart        `json:"platforms"`
	Shares    []PlatformShare `json:"shares"`
	Trends    LineChart       `json:"trends"`
}

// BuildStreamingInsights totals streams per platform, computes market share
// and pivots the daily series into one line per platform
func BuildStreamingInsights(trends *snowflake.Table) *StreamingInsights {
	view := &StreamingInsights{}
	if trends.Empty() {
		view.Placeholder = NoStreamingData
		return view
	}

	totals := make(map[string]float64)
	type point struct {
		label string
		at    time.Time
	}
	dates := make(map[string]point)
	cells := make(map[string]map[string]float64)

	trends.Each(func(row snowflake.Row) {
		platform, ok := row.String("PLATFORM")
		if !ok {
			return
		}
		streams, _ := row.Float("STREAMS")
		totals[platform] += streams

		date, ok := row.String("METRIC_DATE")
		if !ok {
			return
		}
		if _, seen := dates[date]; !seen {
			at, _ := row.Time("METRIC_DATE")
			dates[date] = point{label: date, at: at}
		}
		if cells[date] == nil {
			cells[date] = make(map[string]float64)
		}
		cells[date][platform] += streams
	})

	bars := make([]Bar, 0, len(totals))
	for platform, streams := range totals {
		bars = append(bars, Bar{Label: platform, Value: streams})
	}
	sortBars(bars)
	view.Platforms = newBarChart(bars)
	view.Shares = marketShares(bars)

	ordered := make([]point, 0, len(dates))
	for _, p := range dates {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].at.Equal(ordered[j].at) {
			return ordered[i].at.Before(ordered[j].at)
		}
		return ordered[i].label < ordered[j].label
	})

	platforms := make([]string, 0, len(totals))
	for platform := range totals {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)

	chart := LineChart{}
	for _, p := range ordered {
		chart.Labels = append(chart.Labels, p.label)
	}
	for _, platform := range platforms {
		series := Series{Name: platform, Values: make([]float64, len(ordered))}
		for i, p := range ordered {
			series.Values[i] = cells[p.label][platform]
			chart.Max = math.Max(chart.Max, series.Values[i])
		}
		chart.Series = append(chart.Series, series)
	}
	view.Trends = chart
	return view
}

// marketShares converts platform totals into percentages of the grand
// total, rounded to one decimal. A zero total yields 0 for every platform.
func marketShares(totals []Bar) []PlatformShare {
	grand := decimal.Zero
	for _, b := range totals {
		grand = grand.Add(decimal.NewFromFloat(b.Value))
	}

	shares := make([]PlatformShare, 0, len(totals))
	hundred := decimal.NewFromInt(100)
	for _, b := range totals {
		pct := decimal.Zero
		if grand.GreaterThan(decimal.Zero) {
			pct = decimal.NewFromFloat(b.Value).Div(grand).Mul(hundred)
		}
		shares = append(shares, PlatformShare{
			Platform: b.Label,
			Streams:  b.Value,
			Percent:  pct.StringFixed(1),
		})
	}
	return shares
}

// PipelineMonitor is the catalog and pipeline status view
type PipelineMonitor struct {
	Status
	Cards        []MetricCard `json:"cards"`
	Content      []string     `json:"content"`
	PipelineInfo []MetricCard `json:"pipeline_info"`
	Alerts       DataTable    `json:"alerts"`
}

// BuildPipelineMonitor summarises the catalog health row
func BuildPipelineMonitor(catalog *snowflake.Table) *PipelineMonitor {
	view := &PipelineMonitor{}
	if catalog.Empty() {
		return view
	}

	row := catalog.Row(0)
	view.Cards = []MetricCard{
		{Label: "Total Artists", Value: formatCount(row.Float("TOTAL_ARTISTS"))},
		{Label: "Total Albums", Value: formatCount(row.Float("TOTAL_ALBUMS"))},
		{Label: "Total Songs", Value: formatCount(row.Float("TOTAL_SONGS"))},
		{Label: "Languages", Value: formatWhole(row.Float("LANGUAGE_COUNT"))},
	}

	explicitPct, ok := row.Float("EXPLICIT_PERCENTAGE")
	explicit := formatCount(row.Float("EXPLICIT_SONGS"))
	if ok {
		explicit = fmt.Sprintf("%s (%.1f%%)", explicit, explicitPct)
	}
	view.Content = []string{
		"Explicit Songs: " + explicit,
		"Non-English Songs: " + formatCount(row.Float("NON_ENGLISH_SONGS")),
		"Translated Songs: " + formatCount(row.Float("TRANSLATED_SONGS")),
		"Collaboration Songs: " + formatCount(row.Float("COLLABORATION_SONGS")),
	}

	view.PipelineInfo = []MetricCard{
		{Label: "Schedule", Value: PipelineSchedule},
		{Label: "Warehouse", Value: PipelineWarehouse},
		{Label: "Status", Value: PipelineStatus},
		{Label: "Avg Duration", Value: formatWhole(row.Float("AVG_DURATION_SECONDS")) + " seconds"},
	}
	return view
}

// AddAlerts attaches the contract alerts, most urgent first. Rows keep their
// relative order when the days until expiry are equal; rows without a value
// go last.
func (v *PipelineMonitor) AddAlerts(alerts *snowflake.Table) {
	if alerts.Empty() {
		v.Success = NoContractAlerts
		return
	}

	order := make([]int, alerts.Len())
	days := make([]float64, alerts.Len())
	for i := range order {
		order[i] = i
		d, ok := alerts.Row(i).Float(daysUntilExpiryColumn)
		if !ok {
			d = math.Inf(1)
		}
		days[i] = d
	}
	sort.SliceStable(order, func(a, b int) bool {
		return days[order[a]] < days[order[b]]
	})

	sorted := &snowflake.Table{Name: alerts.Name, Columns: alerts.Columns}
	for _, i := range order {
		sorted.Rows = append(sorted.Rows, alerts.Rows[i])
	}
	v.Alerts = toDataTable(sorted)
}

func formatCount(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return humanize.Comma(int64(math.Round(v)))
}

func formatWhole(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// ComparisonRow is one raw vs cleaned artist record
type ComparisonRow struct {
	ID           string  `json:"id"`
	RawName      string  `json:"raw_name"`
	CleanName    string  `json:"clean_name"`
	RawCountry   string  `json:"raw_country"`
	CleanCountry string  `json:"clean_country"`
	RawGenre     string  `json:"raw_genre"`
	CleanGenre   string  `json:"clean_genre"`
	Quality      float64 `json:"quality"`
	HasQuality   bool    `json:"has_quality"`
}

// QualityBar returns the score clamped to the 0-100 progress range
func (r ComparisonRow) QualityBar() float64 {
	return clamp(r.Quality, 0, 100)
}

// Example is a before/after pair used for illustration
type Example struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// ExampleGroup is a titled set of examples
type ExampleGroup struct {
	Title    string    `json:"title"`
	Examples []Example `json:"examples"`
}

// ComparisonColumns are the display labels of the comparison table
var ComparisonColumns = []string{
	"ID", "Raw Name", "Clean Name", "Raw Country", "ISO Code", "Raw Genre", "Clean Genre", "Quality",
}

// TransformationExamples are shown regardless of live data
var TransformationExamples = []ExampleGroup{
	{
		Title: "Name Corrections",
		Examples: []Example{
			{Before: "TAYLOR swift", After: "Taylor Swift"},
			{Before: "Bettles", After: "Beatles"},
			{Before: "ed SHEERAN", After: "Ed Sheeran"},
		},
	},
	{
		Title: "Country Standardization",
		Examples: []Example{
			{Before: "United States", After: "US"},
			{Before: "U.K.", After: "GB"},
			{Before: "canada", After: "CA"},
		},
	},
}

// BeforeAfter is the data cleaning comparison view
type BeforeAfter struct {
	Status
	Columns  []string        `json:"columns"`
	Rows     []ComparisonRow `json:"rows"`
	Examples []ExampleGroup  `json:"examples"`
}

// BuildBeforeAfter lays out the raw vs clean sample
func BuildBeforeAfter(sample *snowflake.Table) *BeforeAfter {
	view := &BeforeAfter{
		Columns:  ComparisonColumns,
		Examples: TransformationExamples,
	}
	if sample.Empty() {
		view.Placeholder = NoComparisonData
		return view
	}

	sample.Each(func(row snowflake.Row) {
		r := ComparisonRow{}
		r.ID, _ = row.String("ARTIST_ID")
		r.RawName, _ = row.String("RAW_NAME")
		r.CleanName, _ = row.String("CLEAN_NAME")
		r.RawCountry, _ = row.String("RAW_COUNTRY")
		r.CleanCountry, _ = row.String("CLEAN_COUNTRY")
		r.RawGenre, _ = row.String("RAW_GENRE")
		r.CleanGenre, _ = row.String("CLEAN_GENRE")
		r.Quality, r.HasQuality = row.Float("QUALITY_SCORE")
		view.Rows = append(view.Rows, r)
	})
	return view
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func findRow(table *snowflake.Table, column, value string) (snowflake.Row, bool) {
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		if v, ok := row.String(column); ok && v == value {
			return row, true
		}
	}
	return snowflake.Row{}, false
}

func toDataTable(table *snowflake.Table) DataTable {
	dt := DataTable{Columns: table.Columns, Rows: make([][]string, 0, table.Len())}
	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = snowflake.FormatValue(v)
		}
		dt.Rows = append(dt.Rows, cells)
	}
	return dt
}
