package db2

import (
	"bytes"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
)

// Row is one result row. It behaves like a column name to value mapping
// whose iteration and JSON key order follow the column order of the result.
type Row struct {
	columns []string
	values  []interface{}
}

// NewRow pairs columns with values by position.
func NewRow(columns []string, values []interface{}) Row {
	return Row{columns: columns, values: values}
}

func (r Row) Columns() []string {
	return r.columns
}

// Get returns the value of the first column named column.
func (r Row) Get(column string) (interface{}, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return nil, false
}

func (r Row) Len() int {
	return len(r.columns)
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal column %s: %w", column, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// scanRows fetches every remaining row of rows.
func scanRows(rows *sql.Rows, columns []string) (*ResultSet, error) {
	result := &ResultSet{Columns: columns, Rows: []Row{}}

	// Buffer for scanning row data
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("data scan error: %w", err)
		}

		row := make([]interface{}, len(columns))
		for i := range columns {
			row[i] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, NewRow(columns, row))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Convert byte array to string
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
