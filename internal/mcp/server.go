package mcp

import (
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "DB2 MCP Server"
	ServerVersion = "1.0.0"

	TablespaceURI = "resource://tablespace"
)

// Instructions is sent to clients on initialize.
const Instructions = `You are an assistant that helps users interact with a DB2 for LUW database.
You can establish connections, run SQL queries, and call stored procedures.
Always provide helpful responses and explain what you're doing.`

// Server binds the database tools and the tablespace resource to an MCP
// server.
type Server struct {
	db          Database
	tablespaces TablespaceReader
	events      Publisher
	logger      *log.Logger
	validate    *validator.Validate
}

type Option func(*Server)

func WithPublisher(p Publisher) Option {
	return func(s *Server) {
		s.events = p
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(db Database, tablespaces TablespaceReader, opts ...Option) *Server {
	s := &Server{
		db:          db,
		tablespaces: tablespaces,
		validate:    newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New("mcp")
		s.logger.SetOutput(os.Stderr)
	}
	return s
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// MCPServer returns a protocol server with every tool and the resource
// registered.
func (s *Server) MCPServer() *server.MCPServer {
	ms := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithInstructions(Instructions),
	)
	s.Register(ms)
	return ms
}

func (s *Server) Register(ms *server.MCPServer) {
	connectTool := mcp.NewTool("connect_db",
		mcp.WithDescription("Connect to a DB2 database. The connection is kept for subsequent calls and replaces any previous one."),
		mcp.WithString("host",
			mcp.Description("Database server hostname or IP address"),
			mcp.Required(),
		),
		mcp.WithString("port",
			mcp.Description("Database server port"),
			mcp.Required(),
		),
		mcp.WithString("username",
			mcp.Description("Database user"),
			mcp.Required(),
		),
		mcp.WithString("password",
			mcp.Description("Password of the database user"),
			mcp.Required(),
		),
		mcp.WithString("database",
			mcp.Description("Database name"),
			mcp.Required(),
		),
	)

	runSQLTool := mcp.NewTool("run_sql",
		mcp.WithDescription("Execute a SQL statement. Statements starting with SELECT return their rows; anything else returns a status only."),
		mcp.WithString("sql",
			mcp.Description("The SQL statement to execute"),
			mcp.Required(),
		),
	)

	callSPTool := mcp.NewTool("call_sp",
		mcp.WithDescription("Call a stored procedure with positional parameters"),
		mcp.WithObject("params",
			mcp.Description("Procedure name and its parameters"),
			mcp.Required(),
			mcp.Properties(map[string]interface{}{
				"sp_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the stored procedure, optionally schema qualified",
				},
				"parameters": map[string]interface{}{
					"type":        "array",
					"description": "Positional parameters bound in order",
					"items":       map[string]interface{}{},
				},
			}),
		),
	)

	ms.AddTool(connectTool, s.handleConnect)
	ms.AddTool(runSQLTool, s.handleRunSQL)
	ms.AddTool(callSPTool, s.handleCallSP)

	resource := mcp.NewResource(TablespaceURI, "tablespace",
		mcp.WithResourceDescription("Names of the tablespaces of the configured database"),
		mcp.WithMIMEType("application/json"),
	)
	ms.AddResource(resource, s.handleTablespace)
}
