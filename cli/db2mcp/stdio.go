package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kaz/db2mcp/internal/libmcp"
	"github.com/kaz/db2mcp/internal/logging"
)

func newStdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over standard input and output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Infof("Serving MCP over stdio")
			ms := a.registry().MCPServer()
			return libmcp.ServeStdio(ctx, ms, logging.Std(a.logger, "stdio: "), os.Stdin, os.Stdout)
		},
	}
}
