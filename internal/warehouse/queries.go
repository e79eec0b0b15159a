package warehouse

import (
	"fmt"
	"regexp"

	"labelme/pkg/errors"
)

// Query ids, also used as cache keys
const (
	QueryQualityScorecard  = "quality_scorecard"
	QueryArtistPerformance = "artist_performance"
	QueryStreamingTrends   = "streaming_trends"
	QueryCatalogHealth     = "catalog_health"
	QueryRawVsCleanSample  = "raw_vs_clean_sample"
	QueryContractAlerts    = "contract_alerts"
)

// QueryIDs lists every dashboard query in render order
var QueryIDs = []string{
	QueryQualityScorecard,
	QueryArtistPerformance,
	QueryStreamingTrends,
	QueryCatalogHealth,
	QueryRawVsCleanSample,
	QueryContractAlerts,
}

// Default location of the dashboard views
const (
	DefaultDatabase = "SNOWFLAKE_EXAMPLE"
	DefaultSchema   = "LABELME"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ValidIdentifier reports whether name can be spliced into SQL unquoted
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Templates take the fully qualified schema prefix, e.g.
// SNOWFLAKE_EXAMPLE.LABELME.
var queryTemplates = map[string]string{
	QueryQualityScorecard: `SELECT * FROM %[1]s.V_DATA_QUALITY_SCORECARD`,

	QueryArtistPerformance: `SELECT artist_name, country_code, genre_primary, total_streams,
       album_count, song_count, quality_score, contract_status
FROM %[1]s.V_ARTIST_PERFORMANCE
ORDER BY total_streams DESC NULLS LAST
LIMIT 50`,

	QueryStreamingTrends: `SELECT metric_date, platform, SUM(total_streams) AS streams
FROM %[1]s.V_STREAMING_TRENDS
GROUP BY 1, 2
ORDER BY metric_date`,

	QueryCatalogHealth: `SELECT * FROM %[1]s.V_CATALOG_HEALTH`,

	QueryRawVsCleanSample: `SELECT
    r.artist_id,
    r.artist_name AS raw_name,
    s.artist_name AS clean_name,
    r.country_of_origin AS raw_country,
    s.country_code AS clean_country,
    r.genre_primary AS raw_genre,
    s.genre_primary AS clean_genre,
    s.quality_score
FROM %[1]s.RAW_ARTISTS r
JOIN %[1]s.STG_ARTISTS s ON r.artist_id = s.artist_id
WHERE r.artist_name != s.artist_name
   OR r.country_of_origin != s.country_code
LIMIT 20`,

	QueryContractAlerts: `SELECT artist_name, contract_end_date, days_until_expiry, alert_level, monthly_listeners
FROM %[1]s.V_CONTRACT_ALERTS
ORDER BY days_until_expiry
LIMIT 20`,
}

// BuildQueries renders the SQL for every query id against database.schema
func BuildQueries(database, schema string) (map[string]string, error) {
	if !ValidIdentifier(database) {
		return nil, errors.ConfigError(fmt.Sprintf("invalid database identifier %q", database), "snowflake.database")
	}
	if !ValidIdentifier(schema) {
		return nil, errors.ConfigError(fmt.Sprintf("invalid schema identifier %q", schema), "snowflake.schema")
	}

	prefix := database + "." + schema
	queries := make(map[string]string, len(queryTemplates))
	for id, tmpl := range queryTemplates {
		queries[id] = fmt.Sprintf(tmpl, prefix)
	}
	return queries, nil
}
