package db2

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/gommon/log"
)

// DefaultConnectTimeout bounds the ping that verifies a new connection.
const DefaultConnectTimeout = 10 * time.Second

// Client owns at most one database connection and exposes the gateway
// operations on it. Every operation returns an Envelope; driver failures are
// reported in it and never returned as Go errors.
//
// Operations are serialised: the SSE transport dispatches tool calls
// concurrently and they all share the one session.
type Client struct {
	mu      sync.Mutex
	dialect Dialect
	conn    *Connection

	// connected mirrors conn != nil without taking mu, which a running
	// statement holds until it finishes.
	connected atomic.Bool

	connectTimeout time.Duration
	queryTimeout   time.Duration
	logger         *log.Logger
}

type Option func(*Client)

func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

// WithQueryTimeout bounds each statement. Zero means statements run to completion.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.queryTimeout = d
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client in the absent state.
func NewClient(dialect Dialect, opts ...Option) *Client {
	c := &Client{
		dialect:        dialect,
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New("db2")
		c.logger.SetOutput(os.Stderr)
	}
	return c
}

func (c *Client) Dialect() Dialect {
	return c.dialect
}

// Connected reports whether a connection has been established.
// It never waits for an operation in progress.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Current returns the parameters of the live connection.
func (c *Client) Current() (ConnInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ConnInfo{}, false
	}
	return c.conn.ConnInfo, true
}

// Connect opens a new connection and replaces the current one.
// The superseded connection is closed once the new one is verified;
// on failure the current connection is left untouched.
func (c *Client) Connect(ctx context.Context, host, port, username, password, database string) Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connectLocked(ctx, ConnInfo{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		Database: database,
	})
}

// EnsureConnected connects with info only when no connection exists yet.
func (c *Client) EnsureConnected(ctx context.Context, info ConnInfo) Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return successEnvelope("Database connection already established", nil)
	}
	c.logger.Infof("No active connection, connecting with configured defaults")
	return c.connectLocked(ctx, info)
}

func (c *Client) connectLocked(ctx context.Context, info ConnInfo) Envelope {
	c.logger.Infof("Connecting to %s database %s on %s:%s as %s",
		c.dialect.Label, info.Database, info.Host, info.Port, info.Username)

	db, err := c.open(ctx, info)
	if err != nil {
		c.logger.Errorf("Connection to %s:%s failed: %v", info.Host, info.Port, err)
		return errorEnvelope("Connection error: %v", err)
	}

	prev := c.conn
	c.conn = &Connection{ConnInfo: info, db: db}
	c.connected.Store(true)
	if prev != nil {
		if err := prev.db.Close(); err != nil {
			c.logger.Warnf("Failed to close previous connection to %s: %v", prev.Database, err)
		}
	}

	return successEnvelope(c.connectedMessage(info), nil)
}

func (c *Client) connectedMessage(info ConnInfo) string {
	return "Successfully connected to " + c.dialect.Label + " database " + info.Database +
		" on " + info.Host + ":" + info.Port
}

func (c *Client) open(ctx context.Context, info ConnInfo) (*sql.DB, error) {
	db, err := sql.Open(c.dialect.Driver, c.dialect.DSN(info, c.connectTimeout))
	if err != nil {
		return nil, err
	}

	// One session, never pooled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx = context.WithoutCancel(ctx)
	if c.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// statementContext detaches ctx from caller cancellation: a submitted
// statement runs to completion unless the query timeout expires.
func (c *Client) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.queryTimeout > 0 {
		return context.WithTimeout(ctx, c.queryTimeout)
	}
	return ctx, func() {}
}

// IsQuery reports whether statement is fetched as a result set.
// The check is lexical: trimmed, upper-cased text starting with SELECT.
func IsQuery(statement string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(statement)), "SELECT")
}

// Execute runs statement verbatim. SELECT statements return every row;
// anything else reports success without data.
func (c *Client) Execute(ctx context.Context, statement string) Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errorEnvelope(NotConnectedMessage)
	}

	ctx, cancel := c.statementContext(ctx)
	defer cancel()

	if !IsQuery(statement) {
		if _, err := c.conn.db.ExecContext(ctx, statement); err != nil {
			c.logger.Errorf("SQL statement failed: %v", err)
			return errorEnvelope("SQL execution error: %v", err)
		}
		return successEnvelope("SQL statement executed successfully", nil)
	}

	rows, err := c.conn.db.QueryContext(ctx, statement)
	if err != nil {
		c.logger.Errorf("SQL query failed: %v", err)
		return errorEnvelope("SQL execution error: %v", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return errorEnvelope("SQL execution error: %v", err)
	}

	result, err := scanRows(rows, columns)
	if err != nil {
		c.logger.Errorf("SQL query fetch failed: %v", err)
		return errorEnvelope("SQL execution error: %v", err)
	}

	c.logger.Debugf("SQL query returned %d rows", len(result.Rows))
	return successEnvelope("SQL query executed successfully", result)
}

// CallProcedure invokes procedure name with args bound by position.
//
// A procedure that produces no result set succeeds with empty data. StatusWarning
// means the call itself succeeded but its result set failed while rows were
// being fetched (a scan error or a driver error on the result stream); no
// rows are returned in that case.
func (c *Client) CallProcedure(ctx context.Context, name string, args ...interface{}) Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errorEnvelope(NotConnectedMessage)
	}

	ctx, cancel := c.statementContext(ctx)
	defer cancel()

	statement := c.dialect.BuildCall(name, len(args))
	c.logger.Debugf("Calling stored procedure: %s with %d parameters", statement, len(args))

	stmt, err := c.conn.db.PrepareContext(ctx, statement)
	if err != nil {
		c.logger.Errorf("Failed to prepare %s: %v", statement, err)
		return errorEnvelope("Stored procedure execution error: %v", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		c.logger.Errorf("Stored procedure %s failed: %v", name, err)
		return errorEnvelope("Stored procedure execution error: %v", err)
	}
	defer rows.Close()

	message := "Stored procedure " + name + " executed successfully"

	columns, err := rows.Columns()
	if err != nil || len(columns) == 0 {
		return successEnvelope(message, &ResultSet{Rows: []Row{}})
	}

	result, err := scanRows(rows, columns)
	if err != nil {
		c.logger.Warnf("Stored procedure %s result could not be fetched: %v", name, err)
		return Envelope{
			Status:  StatusWarning,
			Message: "Stored procedure " + name + " called, but returned no results or errors",
		}
	}
	return successEnvelope(message, result)
}

// Close releases the current connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.db.Close()
	c.conn = nil
	c.connected.Store(false)
	return err
}
