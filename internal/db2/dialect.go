package db2

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Dialect describes how to reach one kind of database through database/sql.
// The driver itself must be registered by the binary (see cli/db2mcp).
type Dialect struct {
	Name   string
	Label  string
	Driver string

	// DSN builds the driver connection string from the connect_db arguments.
	// A positive timeout is passed to the driver as its login timeout, for
	// drivers that do not honour the context while connecting.
	DSN func(info ConnInfo, timeout time.Duration) string

	// Placeholder returns the bind marker for the 1-based position. Nil means "?".
	Placeholder func(position int) string

	// CallStatement builds the procedure call. Nil means CALL name(p1, p2, ...).
	CallStatement func(name string, placeholders []string) string

	// TablespaceQuery lists tablespaces in a column the probe can resolve.
	TablespaceQuery string
}

// BuildCall returns the statement invoking procedure name with argc positional parameters.
func (d Dialect) BuildCall(name string, argc int) string {
	placeholders := make([]string, argc)
	for i := range placeholders {
		if d.Placeholder != nil {
			placeholders[i] = d.Placeholder(i + 1)
		} else {
			placeholders[i] = "?"
		}
	}

	if d.CallStatement != nil {
		return d.CallStatement(name, placeholders)
	}
	return fmt.Sprintf("CALL %s(%s)", name, strings.Join(placeholders, ", "))
}

// DefaultDialect is used when no driver is configured.
const DefaultDialect = "db2"

var dialects = map[string]Dialect{
	"db2": {
		Name:   "db2",
		Label:  "DB2",
		Driver: "go_ibm_db",
		DSN: func(info ConnInfo, timeout time.Duration) string {
			dsn := fmt.Sprintf("DATABASE=%s;HOSTNAME=%s;PORT=%s;PROTOCOL=TCPIP;UID=%s;PWD=%s;",
				info.Database, info.Host, info.Port, info.Username, info.Password)
			// go_ibm_db has no Connector, so the CLI keyword is the only bound on login.
			if timeout > 0 {
				dsn += "ConnectTimeout=" + timeoutSeconds(timeout) + ";"
			}
			return dsn
		},
		TablespaceQuery: "SELECT TBSPACE FROM SYSCAT.TABLESPACES",
	},
	"mysql": {
		Name:   "mysql",
		Label:  "MySQL",
		Driver: "mysql",
		DSN: func(info ConnInfo, timeout time.Duration) string {
			cfg := mysql.NewConfig()
			cfg.User = info.Username
			cfg.Passwd = info.Password
			cfg.Net = "tcp"
			cfg.Addr = net.JoinHostPort(info.Host, info.Port)
			cfg.DBName = info.Database
			cfg.Timeout = timeout
			return cfg.FormatDSN()
		},
		TablespaceQuery: "SELECT NAME AS TBSPACE FROM INFORMATION_SCHEMA.INNODB_TABLESPACES",
	},
	"postgres": {
		Name:   "postgres",
		Label:  "PostgreSQL",
		Driver: "pgx",
		DSN: func(info ConnInfo, timeout time.Duration) string {
			u := url.URL{
				Scheme: "postgres",
				User:   url.UserPassword(info.Username, info.Password),
				Host:   net.JoinHostPort(info.Host, info.Port),
				Path:   "/" + info.Database,
			}
			if timeout > 0 {
				u.RawQuery = url.Values{"connect_timeout": {timeoutSeconds(timeout)}}.Encode()
			}
			return u.String()
		},
		Placeholder: func(position int) string {
			return fmt.Sprintf("$%d", position)
		},
		TablespaceQuery: "SELECT spcname AS tbspace FROM pg_tablespace",
	},
	"sqlserver": {
		Name:   "sqlserver",
		Label:  "SQL Server",
		Driver: "sqlserver",
		DSN: func(info ConnInfo, timeout time.Duration) string {
			query := url.Values{"database": {info.Database}}
			if timeout > 0 {
				query.Set("dial timeout", timeoutSeconds(timeout))
			}
			u := url.URL{
				Scheme:   "sqlserver",
				User:     url.UserPassword(info.Username, info.Password),
				Host:     net.JoinHostPort(info.Host, info.Port),
				RawQuery: query.Encode(),
			}
			return u.String()
		},
		Placeholder: func(position int) string {
			return fmt.Sprintf("@p%d", position)
		},
		CallStatement: func(name string, placeholders []string) string {
			if len(placeholders) == 0 {
				return "EXEC " + name
			}
			return fmt.Sprintf("EXEC %s %s", name, strings.Join(placeholders, ", "))
		},
		TablespaceQuery: "SELECT name AS TBSPACE FROM sys.filegroups",
	},
	"sqlite": {
		Name:   "sqlite",
		Label:  "SQLite",
		Driver: "sqlite",
		// Only the database argument is meaningful: it is the file path.
		DSN: func(info ConnInfo, _ time.Duration) string {
			return info.Database
		},
		TablespaceQuery: "SELECT name AS TBSPACE FROM pragma_database_list",
	},
}

// timeoutSeconds renders d as whole seconds, rounded up.
func timeoutSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	return strconv.FormatInt(secs, 10)
}

// LookupDialect returns the dialect registered under name.
func LookupDialect(name string) (Dialect, error) {
	if name == "" {
		name = DefaultDialect
	}
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("unknown driver %q, must be one of %s", name, strings.Join(DialectNames(), ", "))
	}
	return d, nil
}

// DialectNames lists the registered dialect names in sorted order.
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
