package testutil

import (
	"database/sql/driver"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"labelme/internal/snowflake"
)

// Column sets returned by the dashboard queries
var (
	ScorecardColumns = []string{
		"ENTITY", "TOTAL_RECORDS", "HIGH_QUALITY_COUNT", "HIGH_QUALITY_PCT", "STANDARDIZED_COUNT",
	}
	ArtistColumns = []string{
		"ARTIST_NAME", "COUNTRY_CODE", "GENRE_PRIMARY", "TOTAL_STREAMS",
		"ALBUM_COUNT", "SONG_COUNT", "QUALITY_SCORE", "CONTRACT_STATUS",
	}
	TrendColumns   = []string{"METRIC_DATE", "PLATFORM", "STREAMS"}
	CatalogColumns = []string{
		"TOTAL_ARTISTS", "TOTAL_ALBUMS", "TOTAL_SONGS", "LANGUAGE_COUNT",
		"EXPLICIT_SONGS", "EXPLICIT_PERCENTAGE", "NON_ENGLISH_SONGS",
		"TRANSLATED_SONGS", "COLLABORATION_SONGS", "AVG_DURATION_SECONDS",
	}
	ComparisonColumns = []string{
		"ARTIST_ID", "RAW_NAME", "CLEAN_NAME", "RAW_COUNTRY",
		"CLEAN_COUNTRY", "RAW_GENRE", "CLEAN_GENRE", "QUALITY_SCORE",
	}
	AlertColumns = []string{
		"ARTIST_NAME", "CONTRACT_END_DATE", "DAYS_UNTIL_EXPIRY", "ALERT_LEVEL", "MONTHLY_LISTENERS",
	}
)

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ScorecardTable mirrors V_DATA_QUALITY_SCORECARD. Numbers are strings the
// way gosnowflake returns fixed-point NUMBER columns.
func ScorecardTable() *snowflake.Table {
	return snowflake.NewTable("quality_scorecard", ScorecardColumns,
		[]interface{}{"Artists", "1200", "1020", "85.0", "1100"},
		[]interface{}{"Songs", "8000", "7200", "90.0", "7900"},
		[]interface{}{"Streaming Metrics", "50000", "47500", "95.0", "49000"},
	)
}

// ArtistTable mirrors V_ARTIST_PERFORMANCE
func ArtistTable() *snowflake.Table {
	return snowflake.NewTable("artist_performance", ArtistColumns,
		[]interface{}{"Taylor Swift", "US", "Pop", "9500000", "10", "120", "98", "Active"},
		[]interface{}{"Ed Sheeran", "GB", "Pop", "7200000", "6", "80", "95", "Active"},
		[]interface{}{"Bad Bunny", "PR", "Latin", "6100000", "5", "70", "91", "Expiring"},
		[]interface{}{"Beatles", "GB", "Rock", "3000000", "13", "210", "88", "Expired"},
		[]interface{}{"Unknown Artist", nil, nil, nil, "1", "3", "40", "Active"},
	)
}

// TrendTable mirrors the grouped V_STREAMING_TRENDS query
func TrendTable() *snowflake.Table {
	return snowflake.NewTable("streaming_trends", TrendColumns,
		[]interface{}{Date(2025, time.March, 1), "Spotify", "400"},
		[]interface{}{Date(2025, time.March, 1), "Apple Music", "100"},
		[]interface{}{Date(2025, time.March, 2), "Spotify", "300"},
		[]interface{}{Date(2025, time.March, 3), "Apple Music", "200"},
	)
}

// CatalogTable mirrors V_CATALOG_HEALTH
func CatalogTable() *snowflake.Table {
	return snowflake.NewTable("catalog_health", CatalogColumns,
		[]interface{}{"1200", "3400", "8000", "12", "640", "8.0", "2100", "350", "900", "212.4"},
	)
}

// ComparisonTable mirrors the RAW_ARTISTS/STG_ARTISTS comparison
func ComparisonTable() *snowflake.Table {
	return snowflake.NewTable("raw_vs_clean_sample", ComparisonColumns,
		[]interface{}{"A001", "TAYLOR swift", "Taylor Swift", "United States", "US", "pop", "Pop", "97"},
		[]interface{}{"A002", "Bettles", "Beatles", "U.K.", "GB", "ROCK", "Rock", "88"},
		[]interface{}{"A003", "ed SHEERAN", "Ed Sheeran", "england", "GB", "Pop ", "Pop", "140"},
	)
}

// AlertTable mirrors V_CONTRACT_ALERTS
func AlertTable() *snowflake.Table {
	return snowflake.NewTable("contract_alerts", AlertColumns,
		[]interface{}{"Bad Bunny", Date(2025, time.April, 10), "12", "HIGH", "52000000"},
		[]interface{}{"Beatles", Date(2025, time.June, 1), "64", "MEDIUM", "31000000"},
	)
}

// Fixtures returns one canned table per query id
func Fixtures() map[string]*snowflake.Table {
	return map[string]*snowflake.Table{
		"quality_scorecard":   ScorecardTable(),
		"artist_performance":  ArtistTable(),
		"streaming_trends":    TrendTable(),
		"catalog_health":      CatalogTable(),
		"raw_vs_clean_sample": ComparisonTable(),
		"contract_alerts":     AlertTable(),
	}
}

// SQLMockRows converts a table into sqlmock rows
func SQLMockRows(table *snowflake.Table) *sqlmock.Rows {
	rows := sqlmock.NewRows(table.Columns)
	for _, r := range table.Rows {
		values := make([]driver.Value, len(r))
		for i, v := range r {
			values[i] = v
		}
		rows.AddRow(values...)
	}
	return rows
}
