package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "db2mcp",
		Short:        "Expose a DB2 database to MCP agents",
		Long:         "db2mcp serves the connect_db, run_sql and call_sp tools and the resource://tablespace resource over stdio or HTTP+SSE.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "path to a YAML config file (default $DB2MCP_CONFIG)")

	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf("db2mcp version %s\n", version))

	cmd.AddCommand(newStdioCmd())
	cmd.AddCommand(newSSECmd())
	return cmd
}
