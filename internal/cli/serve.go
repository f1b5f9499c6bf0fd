package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/handler"
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lending engine over HTTP and gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := openEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			if migrate {
				if _, err := eng.migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}
			return serve(ctx, eng)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the store schema before serving")
	return cmd
}

// serve runs both servers until ctx is cancelled or one of them fails, then
// shuts both down.
func serve(ctx context.Context, eng *engine) error {
	logger := eng.logger

	grpcServer := grpc.NewServer()
	handler.RegisterLendingServer(grpcServer, handler.NewGRPCHandler(eng.svc, logger))

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	httpHandler := handler.NewHTTPHandler(eng.svc, handler.HTTPOptions{
		RateLimit: cfg.HTTP.RateLimit,
		Burst:     cfg.HTTP.RateBurst,
	}, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httpHandler.Routes(),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	return serveErr
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the books and borrow_records tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			applied, err := eng.migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if !applied {
				warn("storage driver %q has no schema", cfg.Storage.Driver)
				return nil
			}
			ok("schema applied to %s", cfg.Storage.Driver)
			return nil
		},
	}
}
