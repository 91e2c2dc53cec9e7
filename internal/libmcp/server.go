// Package libmcp runs an MCP server over its transports.
package libmcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/mark3labs/mcp-go/server"
)

const (
	SSEEndpoint     = "/sse"
	MessageEndpoint = "/messages/"
	HealthEndpoint  = "/healthz"
)

// ServeStdio serves ms on in and out until the input ends or ctx is done.
func ServeStdio(ctx context.Context, ms *server.MCPServer, errLogger *stdlog.Logger, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(ms)
	stdio.SetErrorLogger(errLogger)

	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("stdio transport: %w", err)
}

type SSEOptions struct {
	// BaseURL is advertised to clients in the endpoint event.
	BaseURL string
	Logger  *log.Logger
	// Connected reports database state on the health endpoint.
	Connected func() bool
}

// SSEServer hosts the MCP SSE transport on echo.
type SSEServer struct {
	echo *echo.Echo
	sse  *server.SSEServer

	// streams is cancelled on shutdown; every request context is tied to it
	// so open event streams end instead of holding the listener open.
	streams    context.Context
	stopStream context.CancelFunc
}

func NewSSEServer(ms *server.MCPServer, opts SSEOptions) *SSEServer {
	sseServer := server.NewSSEServer(ms,
		server.WithBaseURL(opts.BaseURL),
		server.WithSSEEndpoint(SSEEndpoint),
		server.WithMessageEndpoint(MessageEndpoint),
	)

	s := &SSEServer{sse: sseServer}
	s.streams, s.stopStream = context.WithCancel(context.Background())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if opts.Logger != nil {
		e.Logger = opts.Logger
	}
	e.Use(middleware.Recover())
	e.Use(s.endOnShutdown)
	s.echo = e

	h := echo.WrapHandler(sseServer)
	e.GET(SSEEndpoint, h)
	e.POST(MessageEndpoint, h)
	e.POST("/messages", h)

	connected := opts.Connected
	if connected == nil {
		connected = func() bool { return false }
	}
	e.GET(HealthEndpoint, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"connected": connected(),
		})
	})

	return s
}

func (s *SSEServer) endOnShutdown(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithCancel(c.Request().Context())
		defer cancel()
		stop := context.AfterFunc(s.streams, cancel)
		defer stop()

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// Group returns a route group for additional endpoints.
func (s *SSEServer) Group(prefix string) *echo.Group {
	return s.echo.Group(prefix, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Cache-Control", "no-store")
			return next(c)
		}
	})
}

func (s *SSEServer) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and blocks until the server is shut down.
func (s *SSEServer) Start(addr string) error {
	s.echo.Logger.Infof("Starting MCP SSE server on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("sse transport: %w", err)
	}
	return nil
}

// Shutdown ends open streams, then stops the listener.
func (s *SSEServer) Shutdown(ctx context.Context) error {
	s.stopStream()
	// Only acts when mcp-go owns the http.Server, which it does not here.
	sseErr := s.sse.Shutdown(ctx)
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	return sseErr
}
