package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"labelme/internal/observability"
	"labelme/internal/snowflake"
	"labelme/internal/warehouse"
	"labelme/pkg/errors"
)

// Source fetches a query result by id. *warehouse.Repository satisfies it.
type Source interface {
	Fetch(ctx context.Context, id string) (*snowflake.Table, error)
}

// viewQueries lists the queries each view reads
var viewQueries = map[ViewID][]string{
	ViewQuality:     {warehouse.QueryQualityScorecard},
	ViewArtists:     {warehouse.QueryArtistPerformance},
	ViewStreaming:   {warehouse.QueryStreamingTrends},
	ViewPipeline:    {warehouse.QueryCatalogHealth, warehouse.QueryContractAlerts},
	ViewBeforeAfter: {warehouse.QueryRawVsCleanSample},
}

// Views holds every view model of one render
type Views struct {
	Quality     *QualityOverview   `json:"quality"`
	Artists     *ArtistAnalytics   `json:"artists"`
	Streaming   *StreamingInsights `json:"streaming"`
	Pipeline    *PipelineMonitor   `json:"pipeline"`
	BeforeAfter *BeforeAfter       `json:"before_after"`
	RenderedAt  time.Time          `json:"rendered_at"`
}

// View returns the model of one view
func (v *Views) View(id ViewID) interface{} {
	switch id {
	case ViewQuality:
		return v.Quality
	case ViewArtists:
		return v.Artists
	case ViewStreaming:
		return v.Streaming
	case ViewPipeline:
		return v.Pipeline
	case ViewBeforeAfter:
		return v.BeforeAfter
	}
	return nil
}

// Composer turns query results into view models
type Composer struct {
	source      Source
	concurrency int
	metrics     *observability.Metrics
	logger      *observability.Logger
}

// NewComposer creates a composer reading from source
func NewComposer(source Source, metrics *observability.Metrics, logger *observability.Logger) *Composer {
	if logger == nil {
		logger = observability.GetDefaultLogger()
	}
	return &Composer{
		source:      source,
		concurrency: len(warehouse.QueryIDs),
		metrics:     metrics,
		logger:      logger.WithField("component", "composer"),
	}
}

type result struct {
	table *snowflake.Table
	err   error
}

// results maps query ids to their outcome
type results map[string]result

// prefetch loads the given queries concurrently. Failures are recorded per
// query and never abort the other fetches.
func (c *Composer) prefetch(ctx context.Context, ids []string) results {
	out := make([]result, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			out[i].err = errors.Guard("fetch "+id, func() error {
				table, err := c.source.Fetch(ctx, id)
				out[i].table = table
				return err
			})
			return nil
		})
	}
	_ = g.Wait()

	res := make(results, len(ids))
	for i, id := range ids {
		res[id] = out[i]
	}
	return res
}

// Compose fetches every query and builds all five views
func (c *Composer) Compose(ctx context.Context) *Views {
	res := c.prefetch(ctx, warehouse.QueryIDs)
	return &Views{
		Quality:     c.buildQuality(res),
		Artists:     c.buildArtists(res),
		Streaming:   c.buildStreaming(res),
		Pipeline:    c.buildPipeline(res),
		BeforeAfter: c.buildBeforeAfter(res),
		RenderedAt:  time.Now(),
	}
}

// ComposeView fetches only the queries one view needs and builds it
func (c *Composer) ComposeView(ctx context.Context, id ViewID) (interface{}, error) {
	queries, ok := viewQueries[id]
	if !ok {
		return nil, fmt.Errorf("unknown view %q", id)
	}
	res := c.prefetch(ctx, queries)

	switch id {
	case ViewQuality:
		return c.buildQuality(res), nil
	case ViewArtists:
		return c.buildArtists(res), nil
	case ViewStreaming:
		return c.buildStreaming(res), nil
	case ViewPipeline:
		return c.buildPipeline(res), nil
	default:
		return c.buildBeforeAfter(res), nil
	}
}

func (c *Composer) buildQuality(res results) *QualityOverview {
	view := &QualityOverview{}
	status := c.guard(ViewQuality, func() error {
		r := res[warehouse.QueryQualityScorecard]
		if r.err != nil {
			return r.err
		}
		view = BuildQualityOverview(r.table)
		return nil
	})
	if status.Failed() || status.Placeholder != "" {
		view.Status = status
	}
	return view
}

func (c *Composer) buildArtists(res results) *ArtistAnalytics {
	view := &ArtistAnalytics{}
	status := c.guard(ViewArtists, func() error {
		r := res[warehouse.QueryArtistPerformance]
		if r.err != nil {
			return r.err
		}
		view = BuildArtistAnalytics(r.table)
		return nil
	})
	if status.Failed() || status.Placeholder != "" {
		view.Status = status
	}
	return view
}

func (c *Composer) buildStreaming(res results) *StreamingInsights {
	view := &StreamingInsights{}
	status := c.guard(ViewStreaming, func() error {
		r := res[warehouse.QueryStreamingTrends]
		if r.err != nil {
			return r.err
		}
		view = BuildStreamingInsights(r.table)
		return nil
	})
	if status.Failed() || status.Placeholder != "" {
		view.Status = status
	}
	return view
}

// buildPipeline keeps the catalog section when only the alerts fail
func (c *Composer) buildPipeline(res results) *PipelineMonitor {
	view := &PipelineMonitor{}
	status := c.guard(ViewPipeline, func() error {
		catalog := res[warehouse.QueryCatalogHealth]
		if catalog.err != nil {
			return catalog.err
		}
		view = BuildPipelineMonitor(catalog.table)

		alerts := res[warehouse.QueryContractAlerts]
		if alerts.err != nil {
			return alerts.err
		}
		view.AddAlerts(alerts.table)
		return nil
	})
	if status.Failed() || status.Placeholder != "" {
		view.Status = status
	}
	return view
}

func (c *Composer) buildBeforeAfter(res results) *BeforeAfter {
	view := &BeforeAfter{Columns: ComparisonColumns, Examples: TransformationExamples}
	status := c.guard(ViewBeforeAfter, func() error {
		r := res[warehouse.QueryRawVsCleanSample]
		if r.err != nil {
			return r.err
		}
		view = BuildBeforeAfter(r.table)
		return nil
	})
	if status.Failed() || status.Placeholder != "" {
		view.Status = status
	}
	return view
}

// guard runs build under a panic guard and converts a failure into the
// inline error shown in place of the view. An empty result is informational.
func (c *Composer) guard(id ViewID, build func() error) Status {
	tab, _ := LookupTab(id)
	err := errors.Guard(string(id), build)
	if err == nil {
		return Status{}
	}
	if errors.IsEmptyResult(err) {
		return Status{Placeholder: tab.Empty}
	}

	c.metrics.RecordViewError(string(id))
	c.logger.WarnWithFields("View failed", map[string]interface{}{
		"view":  string(id),
		"code":  string(errors.GetErrorCode(err)),
		"error": errors.Summary(err),
	})
	return Status{
		Error: fmt.Sprintf("Error loading %s data: %s", tab.Subject, errors.Summary(err)),
		Hint:  ErrorHint,
	}
}
