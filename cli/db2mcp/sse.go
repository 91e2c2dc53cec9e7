package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kaz/db2mcp/internal/event"
	"github.com/kaz/db2mcp/internal/libmcp"
	"github.com/kaz/db2mcp/internal/logging"
	"github.com/kaz/db2mcp/internal/mcp"
)

const shutdownTimeout = 5 * time.Second

func newSSECmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sse",
		Short: "Serve MCP over HTTP with server-sent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if host, _ := cmd.Flags().GetString("host"); host != "" {
				a.cfg.SSE.Host = host
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				a.cfg.SSE.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := event.NewHub(logging.Std(a.logger, "event: "))

			ms := a.registry(mcp.WithPublisher(hub)).MCPServer()
			srv := libmcp.NewSSEServer(ms, libmcp.SSEOptions{
				BaseURL:   a.cfg.SSE.URL(),
				Logger:    a.logger,
				Connected: a.client.Connected,
			})
			hub.RegisterHandlers(srv.Group("/api/event"))

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return srv.Start(a.cfg.SSE.Addr())
			})
			eg.Go(func() error {
				<-ctx.Done()
				a.logger.Infof("Shutting down MCP SSE server")
				hub.Close()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return eg.Wait()
		},
	}

	cmd.Flags().String("host", "", "listen host (overrides DB2MCP_SSE_HOST)")
	cmd.Flags().Int("port", 0, "listen port (overrides DB2MCP_SSE_PORT)")
	return cmd
}
