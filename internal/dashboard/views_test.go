package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelme/internal/snowflake"
	"labelme/internal/testutil"
)

func TestBuildQualityOverview(t *testing.T) {
	view := BuildQualityOverview(testutil.ScorecardTable())

	want := []MetricCard{
		{Label: "Artist Quality", Value: "85.0%", Delta: "1200 records"},
		{Label: "Song Quality", Value: "90.0%", Delta: "8000 records"},
		{Label: "Metrics Quality", Value: "95.0%", Delta: "50000 records"},
		{Label: "Total Records", Value: "59,200", Delta: "Avg Quality: 90.0%"},
	}
	if diff := cmp.Diff(want, view.Cards); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"ENTITY", "TOTAL_RECORDS", "HIGH_QUALITY_COUNT", "HIGH_QUALITY_PCT", "STANDARDIZED_COUNT"},
		view.Breakdown.Columns)
	assert.Len(t, view.Breakdown.Rows, 3)
	assert.False(t, view.Failed())
}

func TestBuildQualityOverviewMissingSongs(t *testing.T) {
	scorecard := snowflake.NewTable("quality_scorecard", testutil.ScorecardColumns,
		[]interface{}{"Artists", "1200", "1020", "85.0", "1100"},
		[]interface{}{"Streaming Metrics", "50000", "47500", "95.0", "49000"},
	)

	var view *QualityOverview
	require.NotPanics(t, func() { view = BuildQualityOverview(scorecard) })

	labels := make([]string, 0, len(view.Cards))
	for _, c := range view.Cards {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"Artist Quality", "Metrics Quality", "Total Records"}, labels)
	assert.Equal(t, "51,200", view.Cards[2].Value)
	assert.Equal(t, "Avg Quality: 90.0%", view.Cards[2].Delta)
}

func TestBuildQualityOverviewEmpty(t *testing.T) {
	view := BuildQualityOverview(snowflake.NewTable("quality_scorecard", testutil.ScorecardColumns))

	want := []MetricCard{{Label: "Total Records", Value: "0", Delta: "Avg Quality: 0.0%"}}
	if diff := cmp.Diff(want, view.Cards); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, view.Breakdown.Rows)
}

func TestBuildQualityOverviewNullPercent(t *testing.T) {
	scorecard := snowflake.NewTable("quality_scorecard", testutil.ScorecardColumns,
		[]interface{}{"Songs", "10", nil, nil, nil},
	)
	view := BuildQualityOverview(scorecard)
	require.Len(t, view.Cards, 2)
	assert.Equal(t, "n/a", view.Cards[0].Value)
	assert.Equal(t, "10 records", view.Cards[0].Delta)
	assert.Equal(t, "Avg Quality: 0.0%", view.Cards[1].Delta)
}

func TestBuildArtistAnalytics(t *testing.T) {
	view := BuildArtistAnalytics(testutil.ArtistTable())

	// The artist without a stream count is dropped from the chart only.
	wantTop := []Bar{
		{Label: "Taylor Swift", Value: 9500000},
		{Label: "Ed Sheeran", Value: 7200000},
		{Label: "Bad Bunny", Value: 6100000},
		{Label: "Beatles", Value: 3000000},
	}
	if diff := cmp.Diff(wantTop, view.TopArtists.Bars); diff != "" {
		t.Errorf("top artists mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 9500000.0, view.TopArtists.Max)

	wantContracts := []Bar{
		{Label: "Active", Value: 3},
		{Label: "Expired", Value: 1},
		{Label: "Expiring", Value: 1},
	}
	if diff := cmp.Diff(wantContracts, view.ContractStatus.Bars); diff != "" {
		t.Errorf("contract status mismatch (-want +got):\n%s", diff)
	}

	wantGenres := []Bar{
		{Label: "Pop", Value: 2},
		{Label: "Latin", Value: 1},
		{Label: "Rock", Value: 1},
	}
	if diff := cmp.Diff(wantGenres, view.Genres.Bars); diff != "" {
		t.Errorf("genres mismatch (-want +got):\n%s", diff)
	}

	assert.Len(t, view.Details.Columns, 8)
	assert.Len(t, view.Details.Rows, 5)
	assert.Empty(t, view.Placeholder)
}

func TestBuildArtistAnalyticsTopLimits(t *testing.T) {
	t.Run("fewer than fifteen rows render as-is", func(t *testing.T) {
		table := snowflake.NewTable("artist_performance", testutil.ArtistColumns)
		for i := 0; i < 7; i++ {
			table.Rows = append(table.Rows, []interface{}{
				fmt.Sprintf("Artist %d", i), "US", "Pop", fmt.Sprint(1000 - i), "1", "1", "90", "Active",
			})
		}
		view := BuildArtistAnalytics(table)
		assert.Len(t, view.TopArtists.Bars, 7)
	})

	t.Run("only the first fifteen rows are charted", func(t *testing.T) {
		table := snowflake.NewTable("artist_performance", testutil.ArtistColumns)
		for i := 0; i < 40; i++ {
			table.Rows = append(table.Rows, []interface{}{
				fmt.Sprintf("Artist %02d", i), "US", fmt.Sprintf("Genre %02d", i), fmt.Sprint(5000 - i), "1", "1", "90", "Active",
			})
		}
		view := BuildArtistAnalytics(table)
		assert.Len(t, view.TopArtists.Bars, 15)
		assert.Equal(t, "Artist 00", view.TopArtists.Bars[0].Label)
		assert.Len(t, view.Genres.Bars, 10)
		assert.Equal(t, "Genre 00", view.Genres.Bars[0].Label)
		assert.Len(t, view.Details.Rows, 40)
	})
}

func TestBuildArtistAnalyticsEmpty(t *testing.T) {
	view := BuildArtistAnalytics(snowflake.NewTable("artist_performance", testutil.ArtistColumns))
	assert.Equal(t, NoArtistData, view.Placeholder)
	assert.Empty(t, view.TopArtists.Bars)
}

func TestBuildStreamingInsightsMarketShare(t *testing.T) {
	trends := snowflake.NewTable("streaming_trends", testutil.TrendColumns,
		[]interface{}{testutil.Date(2025, time.March, 1), "A", "400"},
		[]interface{}{testutil.Date(2025, time.March, 1), "B", "300"},
		[]interface{}{testutil.Date(2025, time.March, 2), "A", "300"},
	)

	view := BuildStreamingInsights(trends)

	wantShares := []PlatformShare{
		{Platform: "A", Streams: 700, Percent: "70.0"},
		{Platform: "B", Streams: 300, Percent: "30.0"},
	}
	if diff := cmp.Diff(wantShares, view.Shares); diff != "" {
		t.Errorf("shares mismatch (-want +got):\n%s", diff)
	}

	wantTrends := LineChart{
		Labels: []string{"2025-03-01", "2025-03-02"},
		Series: []Series{
			{Name: "A", Values: []float64{400, 300}},
			{Name: "B", Values: []float64{300, 0}},
		},
		Max: 400,
	}
	if diff := cmp.Diff(wantTrends, view.Trends); diff != "" {
		t.Errorf("trends mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStreamingInsightsOrdering(t *testing.T) {
	view := BuildStreamingInsights(testutil.TrendTable())

	wantPlatforms := []Bar{
		{Label: "Spotify", Value: 700},
		{Label: "Apple Music", Value: 300},
	}
	if diff := cmp.Diff(wantPlatforms, view.Platforms.Bars); diff != "" {
		t.Errorf("platforms mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, view.Trends.Labels)
	assert.Equal(t, "Apple Music", view.Trends.Series[0].Name)
	assert.Equal(t, []float64{100, 0, 200}, view.Trends.Series[0].Values)
}

func TestBuildStreamingInsightsZeroTotal(t *testing.T) {
	trends := snowflake.NewTable("streaming_trends", testutil.TrendColumns,
		[]interface{}{"2025-03-01", "A", "0"},
		[]interface{}{"2025-03-01", "B", nil},
	)
	view := BuildStreamingInsights(trends)
	require.Len(t, view.Shares, 2)
	for _, s := range view.Shares {
		assert.Equal(t, "0.0", s.Percent)
	}
}

func TestBuildStreamingInsightsEmpty(t *testing.T) {
	view := BuildStreamingInsights(snowflake.NewTable("streaming_trends", testutil.TrendColumns))
	assert.Equal(t, NoStreamingData, view.Placeholder)
}

func TestBuildPipelineMonitor(t *testing.T) {
	view := BuildPipelineMonitor(testutil.CatalogTable())

	wantCards := []MetricCard{
		{Label: "Total Artists", Value: "1,200"},
		{Label: "Total Albums", Value: "3,400"},
		{Label: "Total Songs", Value: "8,000"},
		{Label: "Languages", Value: "12"},
	}
	if diff := cmp.Diff(wantCards, view.Cards); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{
		"Explicit Songs: 640 (8.0%)",
		"Non-English Songs: 2,100",
		"Translated Songs: 350",
		"Collaboration Songs: 900",
	}, view.Content)

	wantInfo := []MetricCard{
		{Label: "Schedule", Value: "Daily at 2:00 AM PT"},
		{Label: "Warehouse", Value: "SFE_LABELME_WH (X-SMALL)"},
		{Label: "Status", Value: "Active"},
		{Label: "Avg Duration", Value: "212 seconds"},
	}
	if diff := cmp.Diff(wantInfo, view.PipelineInfo); diff != "" {
		t.Errorf("pipeline info mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineAlertsSortedStable(t *testing.T) {
	alerts := snowflake.NewTable("contract_alerts", testutil.AlertColumns,
		[]interface{}{"C", "2025-06-01", "30", "LOW", "1"},
		[]interface{}{"A", "2025-04-01", "5", "HIGH", "2"},
		[]interface{}{"D", "2025-07-01", nil, "LOW", "3"},
		[]interface{}{"B", "2025-04-01", "5", "HIGH", "4"},
	)

	view := BuildPipelineMonitor(testutil.CatalogTable())
	view.AddAlerts(alerts)

	names := make([]string, 0, len(view.Alerts.Rows))
	for _, r := range view.Alerts.Rows {
		names = append(names, r[0])
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, names)
	assert.Equal(t, testutil.AlertColumns, view.Alerts.Columns)
	assert.Empty(t, view.Success)
}

func TestPipelineNoAlerts(t *testing.T) {
	view := BuildPipelineMonitor(snowflake.NewTable("catalog_health", testutil.CatalogColumns))
	view.AddAlerts(snowflake.NewTable("contract_alerts", testutil.AlertColumns))

	assert.Empty(t, view.Cards)
	assert.Equal(t, NoContractAlerts, view.Success)
}

func TestBuildBeforeAfter(t *testing.T) {
	view := BuildBeforeAfter(testutil.ComparisonTable())

	require.Len(t, view.Rows, 3)
	want := ComparisonRow{
		ID:           "A001",
		RawName:      "TAYLOR swift",
		CleanName:    "Taylor Swift",
		RawCountry:   "United States",
		CleanCountry: "US",
		RawGenre:     "pop",
		CleanGenre:   "Pop",
		Quality:      97,
		HasQuality:   true,
	}
	if diff := cmp.Diff(want, view.Rows[0]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 97.0, view.Rows[0].QualityBar())
	assert.Equal(t, 100.0, view.Rows[2].QualityBar())
	assert.Equal(t, 0.0, ComparisonRow{Quality: -5}.QualityBar())

	assert.Equal(t, []string{"ID", "Raw Name", "Clean Name", "Raw Country", "ISO Code", "Raw Genre", "Clean Genre", "Quality"},
		view.Columns)
	assert.Equal(t, TransformationExamples, view.Examples)
	assert.Empty(t, view.Placeholder)
}

func TestBuildBeforeAfterEmpty(t *testing.T) {
	var view *BeforeAfter
	require.NotPanics(t, func() {
		view = BuildBeforeAfter(snowflake.NewTable("raw_vs_clean_sample", testutil.ComparisonColumns))
	})

	assert.Equal(t, NoComparisonData, view.Placeholder)
	assert.Empty(t, view.Rows)
	require.Len(t, view.Examples, 2)
	assert.Equal(t, "Name Corrections", view.Examples[0].Title)
	assert.Equal(t, Example{Before: "U.K.", After: "GB"}, view.Examples[1].Examples[1])
}
