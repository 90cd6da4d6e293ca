package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/szibis/spans-governor/internal/config"
	"github.com/szibis/spans-governor/internal/health"
	"github.com/szibis/spans-governor/internal/logging"
	"github.com/szibis/spans-governor/internal/processor"
	"github.com/szibis/spans-governor/internal/receiver"
	"github.com/szibis/spans-governor/internal/sink"
	"github.com/szibis/spans-governor/internal/stats"
	"github.com/szibis/spans-governor/internal/telemetry"
)

func main() {
	cfg := config.ParseFlags()

	if cfg.ShowHelp {
		config.PrintUsage()
		os.Exit(0)
	}

	if cfg.ShowVersion {
		config.PrintVersion()
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Derive GOMEMLIMIT from the container memory limit when one is set.
	_, _ = memlimit.SetGoMemLimitWithOpts(memlimit.WithRatio(cfg.MemoryLimitRatio))

	logging.SetResource(map[string]string{
		"service.name":    "spans-governor",
		"service.version": config.Version(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Self-monitoring telemetry (if configured)
	tel, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:     cfg.TelemetryEndpoint,
		Protocol:     cfg.TelemetryProtocol,
		Insecure:     cfg.TelemetryInsecure,
		PushInterval: cfg.TelemetryPushInterval,
	}, "spans-governor", config.Version())
	if err != nil {
		logging.Fatal("failed to initialize telemetry", logging.F("error", err.Error()))
	}
	if tel.Enabled() {
		logging.SetHook(tel.NewLogHook())
	}

	// Create sink
	snk, err := sink.New(ctx, cfg.SinkConfig())
	if err != nil {
		logging.Fatal("failed to create sink", logging.F("error", err.Error()))
	}

	// Create stats collector
	statsCollector := stats.NewCollector()

	// Create batch processor; starts the worker immediately
	proc := processor.New(snk, cfg.ProcessorConfig(), processor.WithObserver(statsCollector))

	// Health checker
	healthChecker := health.New()
	healthChecker.RegisterReadiness("queue", func() error {
		if depth, capacity := proc.QueueDepth(), proc.QueueCapacity(); depth >= capacity {
			return fmt.Errorf("queue saturated: %d/%d", depth, capacity)
		}
		return nil
	})

	// Receivers
	grpcReceiver := receiver.NewGRPCWithConfig(cfg.GRPCReceiverConfig(), proc, statsCollector)
	httpReceiver := receiver.NewHTTPWithConfig(cfg.HTTPReceiverConfig(), proc, statsCollector)

	// Stats HTTP server: Prometheus metrics, JSON stats, health probes
	statsMux := http.NewServeMux()
	statsMux.Handle("/metrics", promhttp.Handler())
	statsMux.Handle("/stats", statsCollector)
	statsMux.HandleFunc("/live", healthChecker.LiveHandler())
	statsMux.HandleFunc("/ready", healthChecker.ReadyHandler())

	statsServer := &http.Server{
		Addr:    cfg.StatsAddr,
		Handler: statsMux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := grpcReceiver.Start(); err != nil {
			return fmt.Errorf("gRPC receiver: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := httpReceiver.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP receiver: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logging.Info("stats endpoint started", logging.F("addr", cfg.StatsAddr))
		if err := statsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("stats server: %w", err)
		}
		return nil
	})

	if cfg.StatsLogInterval > 0 {
		go statsCollector.StartPeriodicLogging(ctx, cfg.StatsLogInterval)
	}

	logging.Info("spans-governor started", logging.F(
		"grpc_addr", cfg.GRPCListenAddr,
		"http_addr", cfg.HTTPListenAddr,
		"sink_endpoint", cfg.SinkEndpoint,
		"sink_protocol", cfg.SinkProtocol,
		"stats_addr", cfg.StatsAddr,
		"queue_size", cfg.QueueSize,
		"max_batch_size", cfg.MaxExportBatchSize,
	))

	// Wait for shutdown signal or server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logging.Info("shutting down", logging.F("signal", sig.String()))
	case <-gctx.Done():
		logging.Error("server failed, shutting down")
	}

	healthChecker.SetShuttingDown()

	// Stop accepting new spans, then drain the queue through the processor.
	grpcReceiver.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	_ = httpReceiver.Stop(shutdownCtx)

	if ok := proc.Shutdown(shutdownCtx).Wait(cfg.ShutdownTimeout); !ok {
		logging.Error("processor shutdown incomplete, spans may have been lost")
	}

	_ = statsServer.Shutdown(shutdownCtx)
	cancel()
	_ = g.Wait()

	if tel.Enabled() {
		telCtx, telCancel := context.WithTimeout(context.Background(), tel.ShutdownTimeout())
		if err := tel.Shutdown(telCtx); err != nil {
			logging.Error("telemetry shutdown error", logging.F("error", err.Error()))
		}
		telCancel()
	}

	logging.Info("shutdown complete")
}
