// Package mysql runs SQL against the XAMPP MySQL server, either through the
// bundled mysql client binary or through go-sql-driver/mysql.
package mysql

import (
	"context"
	"strings"
	"time"

	"github.com/hurou927/xampp-tools/internal/config"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

// Session settings applied to every statement.
const (
	CharacterSet = "utf8mb4"
	Collation    = "utf8mb4_unicode_ci"
)

// Default timeouts per operation.
const (
	QueryTimeout  = 30 * time.Second
	ExportTimeout = 120 * time.Second
	ImportTimeout = 180 * time.Second
)

// Connection is a resolved MySQL endpoint.
type Connection struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Overrides carries optional per-call connection values. Zero values mean
// "use the configured default".
type Overrides struct {
	Host     string
	Port     int
	User     string
	Password *string
}

// Resolve merges o over the configured defaults.
func Resolve(defaults config.MySQL, o Overrides) Connection {
	c := Connection{
		Host:     defaults.Host,
		Port:     defaults.Port,
		User:     defaults.User,
		Password: defaults.Password,
	}
	if o.Host != "" {
		c.Host = o.Host
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.User != "" {
		c.User = o.User
	}
	if o.Password != nil {
		c.Password = *o.Password
	}
	return c
}

// Request is one SQL execution.
type Request struct {
	Conn     Connection
	Database string // optional default schema
	SQL      string
	Timeout  time.Duration
}

// Executor runs SQL and returns the result sets as tab-delimited text with
// a header line, the way `mysql --batch` prints them. Statements without a
// result set produce empty output.
type Executor interface {
	Execute(ctx context.Context, req Request) (string, error)
}

// Terminate appends a trailing semicolon when sql has none. Trailing
// whitespace after an existing semicolon is kept as is.
func Terminate(sql string) string {
	if strings.HasSuffix(strings.TrimRight(sql, " \t\r\n"), ";") {
		return sql
	}
	return sql + ";"
}

var unreachableSignatures = []string{
	"can't connect to mysql server",
	"cannot connect to mysql server",
	"connection refused",
	"actively refused",
	"error 2002",
	"errno 2002",
}

// IsUnreachable reports whether detail looks like a refused connection.
func IsUnreachable(detail string) bool {
	d := strings.ToLower(detail)
	for _, sig := range unreachableSignatures {
		if strings.Contains(d, sig) {
			return true
		}
	}
	return false
}

// Unreachable is the error returned when the server cannot be reached. The
// message asks the operator to start MySQL by hand.
func Unreachable(c Connection, cause error) error {
	return toolerr.Wrap(toolerr.ErrUnreachable, cause,
		"MySQL is not reachable at %s:%d. Ask the user to open XAMPP Control Panel, start MySQL, and confirm when done before retrying this operation. Do not run mysql_start.bat automatically.",
		c.Host, c.Port)
}

// Source adapts an Executor to schema.MetadataSource.
type Source struct {
	Exec Executor
	Conn Connection
}

// Query implements schema.MetadataSource.
func (s *Source) Query(ctx context.Context, sql string) (string, error) {
	return s.Exec.Execute(ctx, Request{Conn: s.Conn, SQL: sql})
}
