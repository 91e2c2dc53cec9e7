package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kaz/db2mcp/internal/db2"
	"github.com/kaz/db2mcp/internal/event"
	"github.com/kaz/db2mcp/internal/libmcp"
)

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	host, _ := request.Params.Arguments["host"].(string)
	port, _ := request.Params.Arguments["port"].(string)
	username, _ := request.Params.Arguments["username"].(string)
	password, _ := request.Params.Arguments["password"].(string)
	database, _ := request.Params.Arguments["database"].(string)

	s.logger.Infof("connect_db: %s on %s:%s as %s", database, host, port, username)
	env := s.db.Connect(ctx, host, port, username, password, database)
	return s.respond("connect_db", start, env)
}

func (s *Server) handleRunSQL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	statement, _ := request.Params.Arguments["sql"].(string)

	s.logger.Debugf("run_sql: %s", statement)
	env := s.db.Execute(ctx, statement)
	return s.respond("run_sql", start, env)
}

func (s *Server) handleCallSP(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	call, args, err := s.decodeProcedureCall(request.Params.Arguments)
	if err != nil {
		return s.respond("call_sp", start, db2.Errorf("Invalid call_sp parameters: %v", err))
	}

	s.logger.Debugf("call_sp: %s with %d parameters", call.Name, len(args))
	env := s.db.CallProcedure(ctx, call.Name, args...)
	return s.respond("call_sp", start, env)
}

func (s *Server) handleTablespace(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	start := time.Now()

	report := s.tablespaces.Read(ctx)

	status, message := db2.StatusSuccess, fmt.Sprintf("%d tablespaces", report.Count)
	if report.Error != "" {
		status, message = db2.StatusError, report.Error
	}
	s.record("tablespace", status, message, start)

	jsonData, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tablespace report: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TablespaceURI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func (s *Server) respond(tool string, start time.Time, env db2.Envelope) (*mcp.CallToolResult, error) {
	s.record(tool, env.Status, env.Message, start)
	return libmcp.NewToolResultJSON(env)
}

func (s *Server) record(name string, status db2.Status, message string, start time.Time) {
	elapsed := time.Since(start)

	if status == db2.StatusSuccess {
		s.logger.Infof("%s: %s (%s)", name, message, elapsed)
	} else {
		s.logger.Warnf("%s: %s: %s (%s)", name, status, message, elapsed)
	}

	if s.events != nil {
		s.events.Publish(event.Event{
			Tool:      name,
			Status:    string(status),
			Message:   message,
			ElapsedMS: elapsed.Milliseconds(),
			Time:      start,
		})
	}
}

// decodeProcedureCall reads the call_sp payload from the "params" argument,
// falling back to the top-level arguments. Numbers are decoded as
// json.Number so integral values bind as integers.
func (s *Server) decodeProcedureCall(arguments map[string]interface{}) (*procedureCall, []interface{}, error) {
	payload, ok := arguments["params"]
	if !ok {
		payload = arguments
	}

	var raw []byte
	switch p := payload.(type) {
	case string:
		raw = []byte(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, nil, err
		}
		raw = b
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var call procedureCall
	if err := dec.Decode(&call); err != nil {
		return nil, nil, err
	}
	call.Name = strings.TrimSpace(call.Name)

	if err := s.validate.Struct(call); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, nil, fmt.Errorf("%s is %s", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, nil, err
	}

	args := make([]interface{}, 0, len(call.Parameters))
	for i, p := range call.Parameters {
		v, err := bindValue(p)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		args = append(args, v)
	}
	return &call, args, nil
}

// bindValue converts a decoded JSON scalar into a driver argument.
func bindValue(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil, string, bool:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		return v.Float64()
	default:
		return nil, fmt.Errorf("unsupported type %s", reflect.TypeOf(v))
	}
}
