package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/internal/archive"
	"github.com/signalsfoundry/coverage-planner/internal/config"
	"github.com/signalsfoundry/coverage-planner/internal/events"
	"github.com/signalsfoundry/coverage-planner/internal/httpapi"
	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/internal/observability"
	"github.com/signalsfoundry/coverage-planner/internal/plannersvc"
	"github.com/signalsfoundry/coverage-planner/kb"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	grpcAddr := flag.String("grpc-addr", "", "TCP address the gRPC server listens on (overrides config)")
	httpAddr := flag.String("http-addr", "", "TCP address of the JSON/HTTP API (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides config)")
	snapshotPath := flag.String("snapshot", "", "Mission snapshot file loaded at start, rewritten after changes and on shutdown (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "planner-server: %v\n", err)
		os.Exit(1)
	}
	overrideString(&cfg.Server.GRPCAddress, *grpcAddr)
	overrideString(&cfg.Server.HTTPAddress, *httpAddr)
	overrideString(&cfg.Server.MetricsAddress, *metricsAddr)
	overrideString(&cfg.Store.SnapshotPath, *snapshotPath)

	log := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddress), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "planner server exited", logging.Err(err))
		os.Exit(1)
	}
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// run serves gRPC on lis plus the configured HTTP listeners until ctx is
// cancelled, then drains them and persists the mission store.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener) error {
	if log == nil {
		log = logging.Noop()
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := observability.NewPlannerCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	terrainProvider, err := newTerrainProvider(cfg.Terrain, log)
	if err != nil {
		return err
	}

	store := kb.NewMissionStore()
	if path := cfg.Store.SnapshotPath; path != "" {
		if err := store.LoadFile(path); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		log.Info(ctx, "loaded mission snapshot", logging.String("path", path), logging.Int("missions", store.Len()))
	}

	archiver, err := archive.New(cfg.Archive, log)
	if err != nil {
		return err
	}
	publisher, err := events.New(cfg.Events)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn(context.Background(), "closing event publisher", logging.Err(err))
		}
	}()

	plannerOpts := []core.PlannerOption{
		core.WithLogger(log),
		core.WithMetricsRecorder(collector),
		core.WithCruiseSpeed(cfg.Planner.CruiseSpeedMps),
	}
	if terrainProvider != nil {
		plannerOpts = append(plannerOpts, core.WithTerrainProvider(terrainProvider))
	}

	svc := plannersvc.NewService(
		core.NewPlanner(plannerOpts...),
		store,
		log,
		plannersvc.WithDefaults(cfg.Planner.Defaults),
		plannersvc.WithArchiver(archiver),
		plannersvc.WithEventPublisher(publisher),
		plannersvc.WithMissionCountRecorder(collector),
	)

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			plannersvc.RequestIDUnaryServerInterceptor(log),
			collector.UnaryServerInterceptor(),
			plannersvc.TracingUnaryServerInterceptor(),
		),
	)
	plannersvc.RegisterPlannerServer(server, plannersvc.NewGRPCServer(svc))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(plannersvc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthSrv)

	api, err := httpapi.New(svc, httpapi.WithLogger(log), httpapi.WithRequestObserver(collector))
	if err != nil {
		return err
	}

	var httpServers []*http.Server
	if addr := cfg.Server.HTTPAddress; addr != "" {
		httpServers = append(httpServers, &http.Server{Addr: addr, Handler: api.Handler(), ReadHeaderTimeout: 10 * time.Second})
	}
	if addr := cfg.Server.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		httpServers = append(httpServers, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}

	g, gctx := errgroup.WithContext(ctx)
	if path := cfg.Store.SnapshotPath; path != "" {
		saver := newSnapshotSaver(store, path, cfg.Store.SaveDelay, log)
		g.Go(func() error { return saver.run(gctx) })
	}
	g.Go(func() error {
		log.Info(ctx, "starting planner gRPC server", logging.String("addr", lis.Addr().String()))
		return server.Serve(lis)
	})
	for _, srv := range httpServers {
		srv := srv
		g.Go(func() error {
			log.Info(ctx, "starting HTTP listener", logging.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down planner server")
		healthSrv.Shutdown()
		server.GracefulStop()

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		for _, srv := range httpServers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn(shutdownCtx, "http shutdown", logging.String("addr", srv.Addr), logging.Err(err))
			}
		}
		return nil
	})

	err = g.Wait()

	if path := cfg.Store.SnapshotPath; path != "" {
		if saveErr := store.SaveFile(path); saveErr != nil {
			log.Error(context.Background(), "saving mission snapshot", logging.String("path", path), logging.Err(saveErr))
			if err == nil {
				err = saveErr
			}
		} else {
			log.Info(context.Background(), "saved mission snapshot", logging.String("path", path), logging.Int("missions", store.Len()))
		}
	}
	return err
}
