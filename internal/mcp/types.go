package mcp

import (
	"context"

	"github.com/kaz/db2mcp/internal/db2"
	"github.com/kaz/db2mcp/internal/event"
	"github.com/kaz/db2mcp/internal/tablespace"
)

// Database is the client the tools drive.
type Database interface {
	Connect(ctx context.Context, host, port, username, password, database string) db2.Envelope
	Execute(ctx context.Context, statement string) db2.Envelope
	CallProcedure(ctx context.Context, name string, args ...interface{}) db2.Envelope
}

// TablespaceReader produces the tablespace resource.
type TablespaceReader interface {
	Read(ctx context.Context) tablespace.Report
}

// Publisher receives one event per finished call.
type Publisher interface {
	Publish(e event.Event)
}

// procedureCall is the call_sp payload.
type procedureCall struct {
	Name       string        `json:"sp_name" validate:"required"`
	Parameters []interface{} `json:"parameters"`
}
