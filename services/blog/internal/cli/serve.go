package cli

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/httpserver"
	"github.com/example/blog-platform/internal/platform/run"
	"github.com/example/blog-platform/services/blog/internal/app"
)

var errServeFailed = errors.New("server exited with error")

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = c.log.Sync() }()
			return c.withApp(cmd.Context(), func(a *app.App) error {
				lis, err := net.Listen("tcp", c.cfg.GRPC.Addr)
				if err != nil {
					return err
				}
				srv := httpserver.New(httpserver.Options{
					Addr:        c.cfg.HTTP.Addr,
					ServiceName: c.cfg.ServiceName,
					Logger:      c.log,
					Router:      a.Router(),
				})
				grpcSrv := a.GRPCServer()

				code := run.New(c.log).WithSignals(
					srv.Serve,
					func(ctx context.Context) error {
						go func() {
							<-ctx.Done()
							stopped := make(chan struct{})
							go func() {
								grpcSrv.GracefulStop()
								close(stopped)
							}()
							select {
							case <-stopped:
							case <-time.After(10 * time.Second):
								grpcSrv.Stop()
							}
						}()
						c.log.Info("grpc server starting", zap.String("addr", c.cfg.GRPC.Addr))
						return grpcSrv.Serve(lis)
					},
				)
				c.log.Info("exit", zap.Int("code", code))
				if code != 0 {
					return errServeFailed
				}
				return nil
			})
		},
	}
}
