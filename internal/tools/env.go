package tools

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"

	"github.com/hurou927/xampp-tools/internal/config"
	"github.com/hurou927/xampp-tools/internal/db"
	"github.com/hurou927/xampp-tools/internal/mysql"
	"github.com/hurou927/xampp-tools/internal/render"
	"github.com/hurou927/xampp-tools/internal/runner"
	"github.com/hurou927/xampp-tools/internal/schema"
	"github.com/hurou927/xampp-tools/internal/ui"
)

// Dumper exports a database to a file.
type Dumper interface {
	Dump(ctx context.Context, req mysql.DumpRequest) error
}

// PostgresOpener connects the Postgres catalog source. The returned func
// releases the connection.
type PostgresOpener func(ctx context.Context, conn *config.Connection) (schema.MetadataSource, func(), error)

// Dialer opens a network connection; used for port probes.
type Dialer func(ctx context.Context, network, address string) (net.Conn, error)

// Env holds everything tools reach outside the process through. Tests swap
// individual fields for fakes.
type Env struct {
	Config   *config.Config
	Fs       afero.Fs
	Runner   runner.Runner
	MySQL    mysql.Executor
	Dumper   Dumper
	Renderer render.Renderer
	Postgres PostgresOpener
	Dial     Dialer
	Now      func() time.Time
	WorkDir  string
	Logger   *pterm.Logger
}

// NewEnv wires the production collaborators for cfg. The MySQL executor
// follows cfg.MySQL.Backend; exports always go through mysqldump.
func NewEnv(cfg *config.Config) *Env {
	cli := mysql.NewCLI(cfg.Paths.MySQLExe, cfg.Paths.MySQLDumpExe)
	cli.Fs = config.AppFs

	var exec mysql.Executor = cli
	if cfg.MySQL.Backend == config.BackendDriver {
		exec = &mysql.Driver{}
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	dialer := &net.Dialer{Timeout: 2 * time.Second}
	return &Env{
		Config:   cfg,
		Fs:       config.AppFs,
		Runner:   runner.Exec{},
		MySQL:    exec,
		Dumper:   cli,
		Renderer: render.NewKroki(cfg.KrokiURL),
		Postgres: openPostgres,
		Dial:     dialer.DialContext,
		Now:      time.Now,
		WorkDir:  wd,
		Logger:   ui.Logger,
	}
}

func openPostgres(ctx context.Context, conn *config.Connection) (schema.MetadataSource, func(), error) {
	pool, err := db.NewPool(ctx, conn)
	if err != nil {
		return nil, nil, err
	}
	return &db.PgxSource{Pool: pool}, pool.Close, nil
}

// connParams are accepted by every tool that talks to a database server.
var connParams = []Param{
	{Name: "host", Type: String, Description: "Server host (defaults to configuration)"},
	{Name: "port", Type: Number, Description: "Server port (defaults to configuration)"},
	{Name: "user", Type: String, Description: "Server user (defaults to configuration)"},
	{Name: "password", Type: String, Description: "Server password (defaults to configuration)"},
}

func withConn(params ...Param) []Param {
	return append(params, connParams...)
}

// connOverrides reads the connection arguments of one call. A password
// argument that is present replaces the configured one even when empty.
func connOverrides(args Args) (mysql.Overrides, error) {
	var o mysql.Overrides
	var err error
	if o.Host, err = args.OptionalString("host"); err != nil {
		return o, err
	}
	if o.Port, err = args.Int("port", 0); err != nil {
		return o, err
	}
	if o.User, err = args.OptionalString("user"); err != nil {
		return o, err
	}
	if _, ok := args["password"]; ok {
		pw, err := args.OptionalString("password")
		if err != nil {
			return o, err
		}
		o.Password = &pw
	}
	return o, nil
}

// connection resolves the per-call MySQL connection.
func (e *Env) connection(args Args) (mysql.Connection, error) {
	o, err := connOverrides(args)
	if err != nil {
		return mysql.Connection{}, err
	}
	return mysql.Resolve(e.Config.MySQL, o), nil
}

// postgresConnection applies the call's connection arguments over the
// configured catalog connection. The configuration itself is not modified.
func (e *Env) postgresConnection(args Args) (config.Connection, error) {
	conn := e.Config.Postgres
	o, err := connOverrides(args)
	if err != nil {
		return conn, err
	}
	if o.Host != "" {
		conn.Host = o.Host
	}
	if o.Port != 0 {
		conn.Port = o.Port
	}
	if o.User != "" {
		conn.User = o.User
	}
	if o.Password != nil {
		conn.Password = *o.Password
	}
	return conn, nil
}

func (e *Env) logger() *pterm.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return ui.Logger
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
