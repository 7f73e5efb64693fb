package main

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/internal/config"
	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/terrain"
)

// newTerrainProvider builds the provider selected by cfg. It returns nil
// when terrain following is not backed by any source.
func newTerrainProvider(cfg config.TerrainConfig, log logging.Logger) (core.TerrainProvider, error) {
	var provider core.TerrainProvider
	switch cfg.Source {
	case "", config.TerrainNone:
		log.Info(context.Background(), "terrain source disabled; terrain following falls back to flat altitude")
		return nil, nil
	case config.TerrainStatic:
		return terrain.Static{Elevation: cfg.StaticElevation}, nil
	case config.TerrainGrid:
		pyramid := &terrain.Pyramid{}
		for _, path := range cfg.GridPaths {
			grid, err := terrain.LoadASCIIGrid(path)
			if err != nil {
				return nil, fmt.Errorf("load terrain grid: %w", err)
			}
			pyramid.Levels = append(pyramid.Levels, grid)
		}
		log.Info(context.Background(), "loaded terrain pyramid",
			logging.Int("levels", len(pyramid.Levels)),
			logging.Int("sampled_level", pyramid.MostDetailedLevel()),
		)
		provider = pyramid
	case config.TerrainHTTP:
		client := &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		provider = terrain.NewHTTPProvider(cfg.URL,
			terrain.WithHTTPClient(client),
			terrain.WithBatchSize(cfg.BatchSize),
			terrain.WithConcurrency(cfg.Concurrency),
			terrain.WithHTTPLogger(log),
		)
		log.Info(context.Background(), "using elevation API", logging.String("url", cfg.URL))
	default:
		return nil, fmt.Errorf("%w: unknown terrain source %q", config.ErrInvalidConfig, cfg.Source)
	}

	if cfg.CacheSize <= 0 {
		return provider, nil
	}
	cached, err := terrain.NewCached(provider, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
