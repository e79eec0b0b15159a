package cmd

import (
	"context"
	"time"

	"labelme/internal/cache"
	"labelme/internal/config"
	"labelme/internal/dashboard"
	"labelme/internal/observability"
	"labelme/internal/snowflake"
	"labelme/internal/warehouse"
	"labelme/pkg/models"
)

// warehouseSession is the live connection every command queries through
type warehouseSession interface {
	warehouse.Querier
	Version(ctx context.Context) (string, error)
	Close() error
}

// openSession connects to Snowflake. Tests replace it with a fake session.
var openSession = func(ctx context.Context, cfg *models.Config, logger *observability.Logger) (warehouseSession, error) {
	service := snowflake.NewService(snowflake.ConfigFromModel(cfg.Snowflake), logger)
	if err := service.Connect(ctx); err != nil {
		return nil, err
	}
	return service, nil
}

// application wires the session, cache, repository and composer together
type application struct {
	config   *models.Config
	obs      *observability.Observability
	session  warehouseSession
	cache    *cache.ResultCache
	repo     *warehouse.Repository
	composer *dashboard.Composer
}

func newApplication(ctx context.Context, cfg *models.Config, obs *observability.Observability) (*application, error) {
	if err := config.ResolvePassword(cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	session, err := openSession(ctx, cfg, obs.Logger)
	if err != nil {
		return nil, err
	}

	resultCache := cache.New(cfg.Cache.TTL, obs.Metrics, obs.Logger)
	repo, err := warehouse.NewRepository(session, resultCache, warehouse.Options{
		Database: cfg.Snowflake.Database,
		Schema:   cfg.Snowflake.Schema,
		Metrics:  obs.Metrics,
		Logger:   obs.Logger,
	})
	if err != nil {
		_ = resultCache.Close()
		_ = session.Close()
		return nil, err
	}

	pingTimeout := cfg.Snowflake.Timeout
	if pingTimeout <= 0 {
		pingTimeout = 10 * time.Second
	}
	obs.Health.RegisterCheck(observability.NewWarehouseCheck("warehouse", pingTimeout, session.Version))

	return &application{
		config:   cfg,
		obs:      obs,
		session:  session,
		cache:    resultCache,
		repo:     repo,
		composer: dashboard.NewComposer(repo, obs.Metrics, obs.Logger),
	}, nil
}

func (a *application) Close() error {
	_ = a.cache.Close()
	return a.session.Close()
}
