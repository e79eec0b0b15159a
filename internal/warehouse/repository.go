package warehouse

import (
	"context"
	"fmt"
	"time"

	"labelme/internal/cache"
	"labelme/internal/observability"
	"labelme/internal/snowflake"
)

// Querier runs a read-only statement. *snowflake.Service satisfies it.
type Querier interface {
	Query(ctx context.Context, name, query string) (*snowflake.Table, error)
}

// Repository exposes the dashboard queries. Every call goes through the
// result cache.
type Repository struct {
	querier Querier
	cache   *cache.ResultCache
	queries map[string]string
	metrics *observability.Metrics
	logger  *observability.Logger
}

// Options configures a Repository
type Options struct {
	Database string
	Schema   string
	Metrics  *observability.Metrics
	Logger   *observability.Logger
}

// NewRepository validates the schema location and prepares the queries
func NewRepository(querier Querier, resultCache *cache.ResultCache, opts Options) (*Repository, error) {
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Schema == "" {
		opts.Schema = DefaultSchema
	}
	if opts.Logger == nil {
		opts.Logger = observability.GetDefaultLogger()
	}

	queries, err := BuildQueries(opts.Database, opts.Schema)
	if err != nil {
		return nil, err
	}

	return &Repository{
		querier: querier,
		cache:   resultCache,
		queries: queries,
		metrics: opts.Metrics,
		logger:  opts.Logger.WithField("component", "warehouse"),
	}, nil
}

// SQL returns the statement behind a query id
func (r *Repository) SQL(id string) (string, bool) {
	q, ok := r.queries[id]
	return q, ok
}

// Cache returns the result cache backing the repository
func (r *Repository) Cache() *cache.ResultCache {
	return r.cache
}

// Fetch runs the query with the given id through the cache
func (r *Repository) Fetch(ctx context.Context, id string) (*snowflake.Table, error) {
	query, ok := r.queries[id]
	if !ok {
		return nil, fmt.Errorf("unknown query %q", id)
	}

	return r.cache.Fetch(ctx, id, func(ctx context.Context) (*snowflake.Table, error) {
		start := time.Now()
		table, err := r.querier.Query(ctx, id, query)
		r.metrics.RecordQuery(id, err, time.Since(start))
		if err != nil {
			return nil, err
		}
		r.logger.DebugWithFields("Loaded query result", map[string]interface{}{
			"query": id,
			"rows":  table.Len(),
		})
		return table, nil
	})
}

// QualityScorecard returns one row per entity with record and quality counts
func (r *Repository) QualityScorecard(ctx context.Context) (*snowflake.Table, error) {
	return r.Fetch(ctx, QueryQualityScorecard)
}

// ArtistPerformance returns the top 50 artists by total streams
func (r *Repository) ArtistPerformance(ctx context.Context) (*snowflake.Table, error) {
	return r.Fetch(ctx, QueryArtistPerformance)
}

// StreamingTrends returns streams per date and platform, ordered by date
func (r *Repository) StreamingTrends(ctx context.Context) (*snowflake.Table, error) {
	return r.Fetch(ctx, QueryStreamingTrends)
}

// CatalogHealth returns the single-row catalog summary
func (r *Repository) CatalogHealth(ctx context.Context) (*snowflake.Table, error) {
	return r.Fetch(ctx, QueryCatalogHealth)
}

// RawVsCleanSample returns up to 20 artists whose cleaned name or country
// differs from the raw record
func (r *Repository) RawVsCleanSample(ctx context.Context) (*snowflake.Table, error) {
	return r.Fetch(ctx, QueryRawVsCleanSample)
}

// ContractAlerts returns up to 20 expiring contracts, most urgent first
func (r *Repository) ContractAlerts(ctx context.Context) (*snowflake.Table, error) {
	return r.Fetch(ctx, QueryContractAlerts)
}
