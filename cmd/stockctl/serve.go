package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/stock-transfer/internal/adapter/handler"
	"github.com/rl1809/stock-transfer/internal/app"
	"github.com/rl1809/stock-transfer/internal/core/service"
	"github.com/rl1809/stock-transfer/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve transfer commands over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logCfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, logCfg.Service)
			if err != nil {
				logger.Error("tracing_setup_failed", zap.Error(err))
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdownTracing(sctx); err != nil {
					logger.Warn("tracing_shutdown_failed", zap.Error(err))
				}
			}()

			reg := registry()
			a, err := app.New(ctx, cfg, logger, reg)
			if err != nil {
				return err
			}
			defer closeApp(a)

			httpLis, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				return fmt.Errorf("listen http: %w", err)
			}
			grpcLis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				httpLis.Close()
				return fmt.Errorf("listen grpc: %w", err)
			}

			return newServer(a, reg).Serve(ctx, httpLis, grpcLis)
		},
	}
}

type server struct {
	dispatcher *service.Dispatcher
	http       *http.Server
	grpc       *grpc.Server
	logger     *zap.Logger
}

func newServer(a *app.App, reg *prometheus.Registry) *server {
	logger := a.Logger()
	d := service.NewDispatcher(a.Service())

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	handler.NewGRPCHandler(d, a.Vocabulary(), logger).Register(grpcServer)

	mux := http.NewServeMux()
	handler.NewHTTPHandler(d, a.Vocabulary(), a.JournalReader(), logger).Routes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &server{
		dispatcher: d,
		http: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpc:   grpcServer,
		logger: logger,
	}
}

// Serve runs both servers until ctx is done or one of them fails, then shuts
// both down. In-flight commands finish before the dispatcher stops.
func (s *server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	s.dispatcher.Start()

	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("grpc_server_start", zap.String("addr", grpcLis.Addr().String()))
		if err := s.grpc.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	go func() {
		s.logger.Info("http_server_start", zap.String("addr", httpLis.Addr().String()))
		if err := s.http.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting_down")
	case serveErr = <-errCh:
		s.logger.Error("server_failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http_shutdown_failed", zap.Error(err))
	}
	s.logger.Info("http_server_stopped")

	s.grpc.GracefulStop()
	s.logger.Info("grpc_server_stopped")

	s.dispatcher.Close()
	s.logger.Info("dispatcher_stopped")

	return serveErr
}
