package mysql

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/hurou927/xampp-tools/internal/tabular"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

// Driver runs statements over the MySQL wire protocol. Result sets are
// rendered in the same tab-delimited form the CLI prints.
type Driver struct {
	// Open opens a database handle for dsn. Defaults to sql.Open("mysql", dsn).
	Open func(dsn string) (*sql.DB, error)
}

// DSN builds the driver connection string for c and an optional schema.
func DSN(c Connection, database string) string {
	cfg := gomysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = database
	cfg.Collation = Collation
	cfg.MultiStatements = true
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": CharacterSet}
	return cfg.FormatDSN()
}

func (d *Driver) open(dsn string) (*sql.DB, error) {
	if d.Open != nil {
		return d.Open(dsn)
	}
	return sql.Open("mysql", dsn)
}

// Execute implements Executor.
func (d *Driver) Execute(ctx context.Context, req Request) (string, error) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = QueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := d.open(DSN(req.Conn, req.Database))
	if err != nil {
		return "", toolerr.Wrap(toolerr.ErrCommandFailed, err, "failed to open MySQL connection: %v", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, req.SQL)
	if err != nil {
		return "", classify(ctx, req.Conn, err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	for {
		if err := writeResultSet(&buf, rows); err != nil {
			return "", classify(ctx, req.Conn, err)
		}
		if !rows.NextResultSet() {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return "", classify(ctx, req.Conn, err)
	}
	return string(bytes.TrimSpace(buf.Bytes())), nil
}

func writeResultSet(buf *bytes.Buffer, rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	var data [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return tabular.Encode(buf, cols, data)
}

func classify(ctx context.Context, conn Connection, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return toolerr.Wrap(toolerr.ErrTimeout, err, "MySQL query timed out: %v", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) || IsUnreachable(err.Error()) {
		return Unreachable(conn, err)
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return toolerr.Wrap(toolerr.ErrCommandFailed, err, "MySQL query failed (%d): %s", myErr.Number, myErr.Message)
	}
	return toolerr.Wrap(toolerr.ErrCommandFailed, err, "MySQL query failed: %v", err)
}

// Version returns the server version via SELECT VERSION().
func Version(ctx context.Context, exec Executor, conn Connection) (string, error) {
	out, err := exec.Execute(ctx, Request{Conn: conn, SQL: "SELECT VERSION() AS version"})
	if err != nil {
		return "", err
	}
	rows := tabular.Parse(out)
	if len(rows) == 0 || rows[0].Get("version") == "" {
		return "", fmt.Errorf("server returned no version")
	}
	return rows[0].Get("version"), nil
}
