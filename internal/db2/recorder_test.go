package db2

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"time"
)

// recorder is a database/sql driver that records prepared statements and
// bound arguments. The DSN selects how statements behave:
//
//	noresult      statements produce no result set
//	rows          statements produce a two-row result set
//	fetcherror    the result set fails on the first fetch
//	prepareerror  preparing any statement fails
type recorder struct {
	mu         sync.Mutex
	opens      int
	statements []string
	args       [][]driver.Value
}

var testRecorder = &recorder{}

func init() {
	sql.Register("recorder", testRecorder)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens = 0
	r.statements = nil
	r.args = nil
}

func (r *recorder) snapshot() (int, []string, [][]driver.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens, append([]string(nil), r.statements...), append([][]driver.Value(nil), r.args...)
}

func (r *recorder) Open(name string) (driver.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens++
	return &recorderConn{r: r, mode: name}, nil
}

type recorderConn struct {
	r    *recorder
	mode string
}

func (c *recorderConn) Prepare(query string) (driver.Stmt, error) {
	if c.mode == "prepareerror" {
		return nil, errors.New("SQL0440N No authorized routine named PROC of type PROCEDURE")
	}
	c.r.mu.Lock()
	c.r.statements = append(c.r.statements, query)
	c.r.mu.Unlock()
	return &recorderStmt{conn: c}, nil
}

func (c *recorderConn) Close() error {
	return nil
}

func (c *recorderConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

type recorderStmt struct {
	conn *recorderConn
}

func (s *recorderStmt) Close() error {
	return nil
}

func (s *recorderStmt) NumInput() int {
	return -1
}

func (s *recorderStmt) record(args []driver.Value) {
	s.conn.r.mu.Lock()
	s.conn.r.args = append(s.conn.r.args, append([]driver.Value(nil), args...))
	s.conn.r.mu.Unlock()
}

func (s *recorderStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.record(args)
	return driver.RowsAffected(0), nil
}

func (s *recorderStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.record(args)
	switch s.conn.mode {
	case "rows":
		return &recorderRows{
			columns: []string{"OUT_ID", "OUT_NAME"},
			data:    [][]driver.Value{{int64(1), []byte("first")}, {int64(2), []byte("second")}},
		}, nil
	case "fetcherror":
		return &recorderRows{columns: []string{"OUT_ID"}, fetchErr: errors.New("SQL0501N cursor not open")}, nil
	default:
		return &recorderRows{}, nil
	}
}

type recorderRows struct {
	columns  []string
	data     [][]driver.Value
	fetchErr error
	pos      int
}

func (r *recorderRows) Columns() []string {
	return r.columns
}

func (r *recorderRows) Close() error {
	return nil
}

func (r *recorderRows) Next(dest []driver.Value) error {
	if r.fetchErr != nil {
		return r.fetchErr
	}
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

func recorderDialect() Dialect {
	return Dialect{
		Name:   "recorder",
		Label:  "Recorder",
		Driver: "recorder",
		DSN: func(info ConnInfo, _ time.Duration) string {
			return info.Database
		},
	}
}
