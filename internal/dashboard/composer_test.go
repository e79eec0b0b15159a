package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelme/internal/cache"
	"labelme/internal/observability"
	"labelme/internal/snowflake"
	"labelme/internal/testutil"
	"labelme/internal/warehouse"
	apperrors "labelme/pkg/errors"
)

func newTestComposer(t *testing.T, querier *testutil.MockQuerier) (*Composer, *warehouse.Repository) {
	t.Helper()
	logger := observability.NewNopLogger()
	resultCache := cache.New(time.Minute, nil, logger)
	t.Cleanup(func() { _ = resultCache.Close() })

	repo, err := warehouse.NewRepository(querier, resultCache, warehouse.Options{Logger: logger})
	require.NoError(t, err)
	return NewComposer(repo, observability.NewMetrics(), logger), repo
}

func TestComposeAllViews(t *testing.T) {
	querier := testutil.NewMockQuerier()
	composer, _ := newTestComposer(t, querier)

	views := composer.Compose(context.Background())

	assert.False(t, views.Quality.Failed())
	assert.Len(t, views.Quality.Cards, 4)
	assert.Len(t, views.Artists.TopArtists.Bars, 4)
	assert.Len(t, views.Streaming.Shares, 2)
	assert.Len(t, views.Pipeline.Cards, 4)
	assert.Len(t, views.Pipeline.Alerts.Rows, 2)
	assert.Len(t, views.BeforeAfter.Rows, 3)
	assert.False(t, views.RenderedAt.IsZero())

	for _, id := range warehouse.QueryIDs {
		assert.Equal(t, 1, querier.CallCount(id), id)
	}

	// A second render is served from the cache.
	composer.Compose(context.Background())
	assert.Equal(t, len(warehouse.QueryIDs), querier.TotalCalls())
}

func TestComposeIsolatesFailures(t *testing.T) {
	querier := testutil.NewMockQuerier()
	querier.SetError(warehouse.QueryStreamingTrends,
		apperrors.DataAccessError(warehouse.QueryStreamingTrends, errors.New("Object 'V_STREAMING_TRENDS' does not exist")))
	composer, _ := newTestComposer(t, querier)

	views := composer.Compose(context.Background())

	require.True(t, views.Streaming.Failed())
	assert.True(t, strings.HasPrefix(views.Streaming.Error, "Error loading streaming data: "), views.Streaming.Error)
	assert.Contains(t, views.Streaming.Error, "does not exist")
	assert.Equal(t, ErrorHint, views.Streaming.Hint)

	assert.False(t, views.Quality.Failed())
	assert.False(t, views.Artists.Failed())
	assert.False(t, views.Pipeline.Failed())
	assert.False(t, views.BeforeAfter.Failed())
	assert.Len(t, views.Quality.Cards, 4)
}

func TestComposeRecoversPanics(t *testing.T) {
	source := sourceFunc(func(ctx context.Context, id string) (*snowflake.Table, error) {
		if id == warehouse.QueryArtistPerformance {
			panic("driver exploded")
		}
		return testutil.Fixtures()[id], nil
	})
	composer := NewComposer(source, nil, observability.NewNopLogger())

	var views *Views
	require.NotPanics(t, func() { views = composer.Compose(context.Background()) })

	require.True(t, views.Artists.Failed())
	assert.Contains(t, views.Artists.Error, "Error loading artist data")
	assert.Contains(t, views.Artists.Error, "driver exploded")
	assert.False(t, views.Quality.Failed())
}

func TestComposePipelineKeepsCatalogWhenAlertsFail(t *testing.T) {
	querier := testutil.NewMockQuerier()
	querier.SetError(warehouse.QueryContractAlerts, errors.New("warehouse suspended"))
	composer, _ := newTestComposer(t, querier)

	view, err := composer.ComposeView(context.Background(), ViewPipeline)
	require.NoError(t, err)

	pipeline := view.(*PipelineMonitor)
	assert.Len(t, pipeline.Cards, 4)
	require.True(t, pipeline.Failed())
	assert.Contains(t, pipeline.Error, "Error loading pipeline data")
	assert.Empty(t, pipeline.Success)
}

func TestComposeBeforeAfterFailureKeepsExamples(t *testing.T) {
	querier := testutil.NewMockQuerier()
	querier.SetError(warehouse.QueryRawVsCleanSample, errors.New("boom"))
	composer, _ := newTestComposer(t, querier)

	view, err := composer.ComposeView(context.Background(), ViewBeforeAfter)
	require.NoError(t, err)

	beforeAfter := view.(*BeforeAfter)
	assert.True(t, beforeAfter.Failed())
	assert.Equal(t, TransformationExamples, beforeAfter.Examples)
}

func TestComposeEmptyResultIsPlaceholder(t *testing.T) {
	querier := testutil.NewMockQuerier()
	querier.SetError(warehouse.QueryQualityScorecard, apperrors.EmptyResult(warehouse.QueryQualityScorecard))
	composer, _ := newTestComposer(t, querier)

	view, err := composer.ComposeView(context.Background(), ViewQuality)
	require.NoError(t, err)

	quality := view.(*QualityOverview)
	assert.False(t, quality.Failed())
	assert.Equal(t, NoQualityData, quality.Placeholder)
}

func TestComposeViewFetchesOnlyItsQueries(t *testing.T) {
	querier := testutil.NewMockQuerier()
	composer, _ := newTestComposer(t, querier)

	_, err := composer.ComposeView(context.Background(), ViewPipeline)
	require.NoError(t, err)

	assert.Equal(t, 1, querier.CallCount(warehouse.QueryCatalogHealth))
	assert.Equal(t, 1, querier.CallCount(warehouse.QueryContractAlerts))
	assert.Equal(t, 2, querier.TotalCalls())

	_, err = composer.ComposeView(context.Background(), "nope")
	assert.Error(t, err)
}

func TestComposeAfterClearRequeriesOnce(t *testing.T) {
	querier := testutil.NewMockQuerier()
	composer, repo := newTestComposer(t, querier)
	ctx := context.Background()

	composer.Compose(ctx)
	repo.Cache().ClearAll()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			composer.Compose(ctx)
		}()
	}
	wg.Wait()

	for _, id := range warehouse.QueryIDs {
		assert.Equal(t, 2, querier.CallCount(id), id)
	}
}

type sourceFunc func(ctx context.Context, id string) (*snowflake.Table, error)

func (f sourceFunc) Fetch(ctx context.Context, id string) (*snowflake.Table, error) {
	return f(ctx, id)
}
