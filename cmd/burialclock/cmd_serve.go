package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/burial-clock/internal/api"
	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/internal/observability"
	"github.com/signalsfoundry/burial-clock/internal/sim/state"
	"github.com/signalsfoundry/burial-clock/timectrl"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scenario API over gRPC and HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			for flag, dst := range map[string]*string{
				"grpc-addr":    &rt.cfg.GRPCAddr,
				"http-addr":    &rt.cfg.HTTPAddr,
				"metrics-addr": &rt.cfg.MetricsAddr,
			} {
				if cmd.Flags().Changed(flag) {
					*dst, _ = cmd.Flags().GetString(flag)
				}
			}
			autoplay, _ := cmd.Flags().GetBool("autoplay")
			return serve(cmd.Context(), rt, autoplay)
		},
	}
	cmd.Flags().String("grpc-addr", "", "gRPC listen address (overrides BURIALCLOCK_GRPC_ADDR)")
	cmd.Flags().String("http-addr", "", "HTTP API listen address (overrides BURIALCLOCK_HTTP_ADDR)")
	cmd.Flags().String("metrics-addr", "", "Prometheus listen address; empty serves /metrics on the HTTP API only")
	cmd.Flags().Bool("autoplay", false, "Start playback of the current scenario immediately")
	return cmd
}

func serve(ctx context.Context, rt *runtimeEnv, autoplay bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := rt.log

	shutdownTracing, err := observability.InitTracing(ctx, rt.cfg.TracingSettings(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return err
	}
	playbackCollector, err := observability.NewPlaybackCollector(nil)
	if err != nil {
		return err
	}

	st := state.NewScenarioState(log,
		state.WithMetricsRecorder(collector),
		state.WithCacheSize(rt.cfg.CacheSize),
		state.WithInitialSettings(rt.settings),
	)
	playback := timectrl.NewPlayback(st.Current(), timectrl.DefaultTick, timectrl.WithRecorder(playbackCollector))
	st.Subscribe(playback.SetScenario)
	if autoplay {
		playback.Play()
	}
	go playback.Drive(ctx)

	grpcServer, healthServer := api.NewGRPCServer(st, collector, log)
	lis, err := net.Listen("tcp", rt.cfg.GRPCAddr)
	if err != nil {
		return err
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Error(ctx, "gRPC server exited", logging.Err(err))
		}
	}()
	log.Info(ctx, "serving gRPC API", logging.String("addr", lis.Addr().String()))

	router := api.NewRouter(st, collector, log)
	api.MountPlayback(router, playback, log)
	httpSrv := startHTTP(ctx, log, "HTTP API", rt.cfg.HTTPAddr, router)

	var metricsSrv *http.Server
	if rt.cfg.MetricsAddr != "" && rt.cfg.MetricsAddr != rt.cfg.HTTPAddr {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		metricsSrv = startHTTP(ctx, log, "Prometheus metrics", rt.cfg.MetricsAddr, mux)
	}

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{httpSrv, metricsSrv} {
		if srv != nil {
			_ = srv.Shutdown(shutdownCtx)
		}
	}
	return nil
}

func startHTTP(ctx context.Context, log logging.Logger, name, addr string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, name+" server exited", logging.Err(err))
		}
	}()
	log.Info(ctx, "serving "+name, logging.String("addr", addr))
	return srv
}
