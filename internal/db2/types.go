package db2

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
)

// Status is the outcome reported in every Envelope.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
)

// NotConnectedMessage is returned by Execute and CallProcedure before the first Connect.
const NotConnectedMessage = "Database connection not established. Use connect_db first."

// Storage for connection information
type ConnInfo struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	Database string `json:"database"`
}

// Connection is the single live session owned by a Client.
type Connection struct {
	ConnInfo
	db *sql.DB
}

// ResultSet holds an eagerly fetched result set. Rows is never nil.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Envelope is the uniform response of every adapter operation.
// Result is nil when the statement produced no result set.
type Envelope struct {
	Status  Status
	Message string
	Result  *ResultSet
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Result == nil {
		return json.Marshal(struct {
			Status  Status `json:"status"`
			Message string `json:"message"`
		}{e.Status, e.Message})
	}

	rows := e.Result.Rows
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(struct {
		Status  Status   `json:"status"`
		Message string   `json:"message"`
		Data    []Row    `json:"data"`
		Columns []string `json:"columns,omitempty"`
	}{e.Status, e.Message, rows, e.Result.Columns})
}

// OK reports whether the envelope carries StatusSuccess.
func (e Envelope) OK() bool {
	return e.Status == StatusSuccess
}

func successEnvelope(message string, result *ResultSet) Envelope {
	return Envelope{Status: StatusSuccess, Message: message, Result: result}
}

func errorEnvelope(format string, args ...interface{}) Envelope {
	return Envelope{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Errorf returns an error envelope for failures detected before the
// database is reached.
func Errorf(format string, args ...interface{}) Envelope {
	return errorEnvelope(format, args...)
}
