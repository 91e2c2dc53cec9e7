package main

import (
	"io"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/kaz/db2mcp/internal/config"
	"github.com/kaz/db2mcp/internal/db2"
	"github.com/kaz/db2mcp/internal/logging"
	"github.com/kaz/db2mcp/internal/mcp"
	"github.com/kaz/db2mcp/internal/tablespace"
)

// app is the state shared by both entry points. Each process owns its own
// client and therefore its own connection.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	client *db2.Client
	probe  *tablespace.Probe

	logCloser io.Closer
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	dialect, err := db2.LookupDialect(cfg.Driver)
	if err != nil {
		closer.Close()
		return nil, err
	}

	client := db2.NewClient(dialect,
		db2.WithConnectTimeout(cfg.ConnectTimeout),
		db2.WithQueryTimeout(cfg.QueryTimeout),
		db2.WithLogger(logger),
	)

	logger.Infof("Using %s driver (%s)", dialect.Label, dialect.Driver)

	return &app{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		probe:     tablespace.NewProbe(client, cfg.DefaultConnection(), dialect.TablespaceQuery),
		logCloser: closer,
	}, nil
}

func (a *app) registry(opts ...mcp.Option) *mcp.Server {
	opts = append([]mcp.Option{mcp.WithLogger(a.logger)}, opts...)
	return mcp.New(a.client, a.probe, opts...)
}

func (a *app) Close() {
	if err := a.client.Close(); err != nil {
		a.logger.Warnf("Failed to close database connection: %v", err)
	}
	a.logCloser.Close()
}
