package cli

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/gateway"
)

func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run the simulated payment gateway",
	}
	cmd.AddCommand(newGatewayServeCmd())
	return cmd
}

func newGatewayServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulated gateway as payment.Gateway over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = cfg.Gateway.Addr
			}
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}

			logger := cfg.Log.NewLogger()
			srv := grpc.NewServer()
			gateway.RegisterGatewayServer(srv, gateway.NewServer(gateway.NewSimulated()))

			go func() {
				<-ctx.Done()
				logger.Info("shutting down payment gateway")
				srv.GracefulStop()
			}()

			logger.Info("payment gateway listening", "addr", addr)
			return srv.Serve(lis)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: gateway.addr)")
	return cmd
}
