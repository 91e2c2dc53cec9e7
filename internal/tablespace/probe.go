// Package tablespace implements the read-only tablespace resource.
//
// The report is recomputed on every read; nothing is cached.
package tablespace

import (
	"context"
	"fmt"
	"strings"

	"github.com/kaz/db2mcp/internal/db2"
)

// Gateway is the part of the database client the probe needs.
type Gateway interface {
	EnsureConnected(ctx context.Context, info db2.ConnInfo) db2.Envelope
	Execute(ctx context.Context, statement string) db2.Envelope
}

// Report is the resource value.
type Report struct {
	Tablespaces   []string `json:"tablespaces"`
	Count         int      `json:"count"`
	Error         string   `json:"error,omitempty"`
	AvailableKeys []string `json:"available_keys,omitempty"`
}

// keyMatcher resolves the tablespace name column.
type keyMatcher struct {
	key  string
	fold bool
}

func (m keyMatcher) match(column string) bool {
	if m.fold {
		return strings.EqualFold(m.key, column)
	}
	return m.key == column
}

// Tried in order. The first entry is the DB2 catalog column.
var defaultMatchers = []keyMatcher{
	{key: "TBSPACE"},
	{key: "tbspace"},
	{key: "Tbspace"},
	{key: "TBSPACE", fold: true},
	{key: "TBSPACE_NAME", fold: true},
	{key: "TABLESPACE_NAME", fold: true},
}

// KeyNotFoundError is reported when no matcher resolves a column.
type KeyNotFoundError struct {
	AvailableKeys []string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("tablespace name column not found in result (available keys: %s)",
		strings.Join(e.AvailableKeys, ", "))
}

type Probe struct {
	gateway  Gateway
	defaults db2.ConnInfo
	query    string
	matchers []keyMatcher
}

// NewProbe returns a probe that runs query through gateway, connecting with
// defaults first when no connection exists.
func NewProbe(gateway Gateway, defaults db2.ConnInfo, query string) *Probe {
	return &Probe{
		gateway:  gateway,
		defaults: defaults,
		query:    query,
		matchers: defaultMatchers,
	}
}

func (p *Probe) Query() string {
	return p.query
}

// Read lists the tablespaces. Failures are reported in Report.Error.
func (p *Probe) Read(ctx context.Context) Report {
	if env := p.gateway.EnsureConnected(ctx, p.defaults); !env.OK() {
		return failed("Failed to connect to database: " + env.Message)
	}

	env := p.gateway.Execute(ctx, p.query)
	if !env.OK() {
		return failed(env.Message)
	}
	if env.Result == nil || len(env.Result.Rows) == 0 {
		return Report{Tablespaces: []string{}, Count: 0}
	}

	column, err := p.resolve(env.Result)
	if err != nil {
		report := failed(err.Error())
		report.AvailableKeys = err.AvailableKeys
		return report
	}

	names := make([]string, 0, len(env.Result.Rows))
	for _, row := range env.Result.Rows {
		v, _ := row.Get(column)
		names = append(names, nameOf(v))
	}
	return Report{Tablespaces: names, Count: len(names)}
}

func (p *Probe) resolve(result *db2.ResultSet) (string, *KeyNotFoundError) {
	keys := result.Columns
	if len(keys) == 0 {
		keys = result.Rows[0].Columns()
	}

	for _, m := range p.matchers {
		for _, key := range keys {
			if m.match(key) {
				return key, nil
			}
		}
	}
	return "", &KeyNotFoundError{AvailableKeys: append([]string{}, keys...)}
}

func nameOf(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func failed(msg string) Report {
	return Report{Tablespaces: []string{}, Count: 0, Error: msg}
}
