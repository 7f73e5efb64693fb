// Command coverage-plan plans a lawnmower path over a GeoJSON polygon and
// writes the result as GeoJSON or as a JSON mission record.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/export"
	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/kb"
	"github.com/signalsfoundry/coverage-planner/model"
	"github.com/signalsfoundry/coverage-planner/terrain"
)

type options struct {
	polygonPath  string
	name         string
	format       string
	output       string
	params       model.PlanningParameters
	cruiseSpeed  float64
	terrainURL   string
	gridPaths    []string
	staticHeight float64
	useStatic    bool
	snapshotPath string
}

type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	defaults := model.DefaultPlanningParameters()
	var opts options
	var grids stringList

	flag.StringVar(&opts.polygonPath, "polygon", "", "GeoJSON file holding the survey polygon (required)")
	flag.StringVar(&opts.name, "name", "Untitled Mission", "mission name")
	flag.StringVar(&opts.format, "format", export.FormatGeoJSON, "output format: geojson or json")
	flag.StringVar(&opts.output, "o", "", "output file; defaults to <name>_path.<format>, '-' writes to stdout")
	flag.Float64Var(&opts.params.LineSpacingMeters, "spacing", defaults.LineSpacingMeters, "distance between survey lines in metres")
	flag.Float64Var(&opts.params.AltitudeMeters, "altitude", defaults.AltitudeMeters, "flight altitude in metres (above terrain when following it)")
	flag.BoolVar(&opts.params.FollowTerrain, "follow-terrain", defaults.FollowTerrain, "drape the path over terrain")
	flag.BoolVar(&opts.params.SmoothPath, "smooth", defaults.SmoothPath, "round corners with bezier curves")
	flag.IntVar(&opts.params.SmoothingFactor, "smoothing-factor", defaults.SmoothingFactor, "points inserted per corner")
	flag.Float64Var(&opts.cruiseSpeed, "speed", core.DefaultCruiseSpeedMps, "cruise speed in m/s for time estimates")
	flag.StringVar(&opts.terrainURL, "terrain-url", "", "Open-Elevation compatible API base URL")
	flag.Var(&grids, "grid", "ESRI ASCII grid file; repeat from coarse to fine to build a pyramid")
	flag.Float64Var(&opts.staticHeight, "static-elevation", 0, "constant terrain elevation, used with -static")
	flag.BoolVar(&opts.useStatic, "static", false, "use a constant terrain elevation")
	flag.StringVar(&opts.snapshotPath, "snapshot", "", "mission snapshot file to save the planned mission into")
	flag.Parse()
	opts.gridPaths = grids

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, log, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "coverage-plan: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log logging.Logger, stdout io.Writer) error {
	if opts.polygonPath == "" {
		return fmt.Errorf("-polygon is required")
	}
	data, err := os.ReadFile(opts.polygonPath)
	if err != nil {
		return err
	}
	poly, err := export.ReadPolygonGeoJSON(data)
	if err != nil {
		return err
	}

	plannerOpts := []core.PlannerOption{core.WithLogger(log), core.WithCruiseSpeed(opts.cruiseSpeed)}
	provider, err := terrainFor(opts, log)
	if err != nil {
		return err
	}
	if provider != nil {
		plannerOpts = append(plannerOpts, core.WithTerrainProvider(provider))
	}

	plan, err := core.NewPlanner(plannerOpts...).Plan(ctx, poly, opts.params)
	if err != nil {
		return err
	}
	for _, w := range plan.WarningStrings() {
		log.Warn(ctx, "plan degraded", logging.String("warning", w))
	}

	mission := &model.Mission{
		ID:          uuid.NewString(),
		Name:        opts.name,
		Polygon:     poly,
		Parameters:  opts.params,
		Orientation: plan.Orientation,
		Waypoints:   plan.Waypoints,
		Metrics:     plan.Metrics,
		Warnings:    plan.WarningStrings(),
		CreatedAt:   time.Now().UTC(),
	}

	enc, err := export.Encode(mission, opts.format, mission.CreatedAt)
	if err != nil {
		return err
	}

	if opts.snapshotPath != "" {
		store := kb.NewMissionStore()
		if err := store.LoadFile(opts.snapshotPath); err != nil {
			return err
		}
		if err := store.Save(mission); err != nil {
			return err
		}
		if err := store.SaveFile(opts.snapshotPath); err != nil {
			return err
		}
	}

	log.Info(ctx, "planned coverage path",
		logging.String("mission", mission.Name),
		logging.Int("waypoints", mission.Metrics.WaypointCount),
		logging.Float64("path_length_km", mission.Metrics.PathLengthKm),
		logging.Float64("estimated_time_min", mission.Metrics.EstimatedTimeMin),
		logging.Float64("area_km2", mission.Metrics.AreaKm2),
	)

	switch out := opts.output; out {
	case "-":
		_, err = stdout.Write(enc.Body)
		return err
	case "":
		out = enc.Filename
		fallthrough
	default:
		return os.WriteFile(out, enc.Body, 0o644)
	}
}

func terrainFor(opts options, log logging.Logger) (core.TerrainProvider, error) {
	switch {
	case opts.useStatic:
		return terrain.Static{Elevation: opts.staticHeight}, nil
	case len(opts.gridPaths) > 0:
		pyramid := &terrain.Pyramid{}
		for _, path := range opts.gridPaths {
			grid, err := terrain.LoadASCIIGrid(path)
			if err != nil {
				return nil, err
			}
			pyramid.Levels = append(pyramid.Levels, grid)
		}
		return pyramid, nil
	case opts.terrainURL != "":
		return terrain.NewCached(terrain.NewHTTPProvider(opts.terrainURL, terrain.WithHTTPLogger(log)), terrain.DefaultCacheSize)
	}
	return nil, nil
}
