package mysql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/hurou927/xampp-tools/internal/runner"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

// CLI runs statements through the mysql client binary in batch mode.
type CLI struct {
	MySQLPath string
	DumpPath  string
	Runner    runner.Runner
	Fs        afero.Fs
}

// NewCLI returns a CLI over the given binaries using os/exec and the OS
// filesystem.
func NewCLI(mysqlPath, dumpPath string) *CLI {
	return &CLI{
		MySQLPath: mysqlPath,
		DumpPath:  dumpPath,
		Runner:    runner.Exec{},
		Fs:        afero.NewOsFs(),
	}
}

func connectionArgs(c Connection) []string {
	args := []string{
		"--protocol=tcp",
		"--default-character-set=" + CharacterSet,
		"--host", c.Host,
		"--port", strconv.Itoa(c.Port),
		"--user", c.User,
	}
	if c.Password != "" {
		args = append(args, "--password="+c.Password)
	}
	return args
}

// Execute implements Executor. The statement is fed on stdin after a
// SET NAMES header.
func (m *CLI) Execute(ctx context.Context, req Request) (string, error) {
	args := connectionArgs(req.Conn)
	if req.Database != "" {
		args = append(args, req.Database)
	}
	timeout := req.Timeout
	if timeout == 0 {
		timeout = QueryTimeout
	}

	res, err := m.Runner.Run(ctx, runner.Command{
		Name:    m.MySQLPath,
		Args:    args,
		Stdin:   fmt.Sprintf("SET NAMES %s COLLATE %s;\n%s\n", CharacterSet, Collation, Terminate(req.SQL)),
		Timeout: timeout,
	})
	if err != nil {
		return "", toolerr.Wrap(toolerr.ErrCommandFailed, err, "MySQL query failed: %v", err)
	}
	if err := checkResult(res, "MySQL query", req.Conn); err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// DumpRequest describes one mysqldump run.
type DumpRequest struct {
	Conn                  Connection
	Database              string
	OutputPath            string
	IncludeCreateDatabase bool
	AddDropTable          bool
	Timeout               time.Duration
}

// Dump exports a database with mysqldump and writes it to req.OutputPath.
func (m *CLI) Dump(ctx context.Context, req DumpRequest) error {
	args := connectionArgs(req.Conn)
	if req.IncludeCreateDatabase {
		args = append(args, "--databases")
	}
	if req.AddDropTable {
		args = append(args, "--add-drop-table")
	}
	args = append(args, req.Database)

	timeout := req.Timeout
	if timeout == 0 {
		timeout = ExportTimeout
	}
	res, err := m.Runner.Run(ctx, runner.Command{Name: m.DumpPath, Args: args, Timeout: timeout})
	if err != nil {
		return toolerr.Wrap(toolerr.ErrCommandFailed, err, "MySQL export failed: %v", err)
	}
	if err := checkResult(res, "MySQL export", req.Conn); err != nil {
		return err
	}
	if err := afero.WriteFile(m.Fs, req.OutputPath, []byte(res.Stdout+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	return nil
}

// ReadScript loads a SQL file for import.
func ReadScript(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return "", toolerr.Wrap(toolerr.ErrNotFound, err, "SQL file not found: %s", path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func checkResult(res *runner.Result, what string, conn Connection) error {
	if res.TimedOut {
		return toolerr.New(toolerr.ErrTimeout, "%s timed out after %dms", what, res.Duration.Milliseconds())
	}
	if res.ExitCode != 0 {
		detail := res.Detail()
		if IsUnreachable(detail) {
			return Unreachable(conn, errors.New(detail))
		}
		return toolerr.New(toolerr.ErrCommandFailed, "%s failed (%d): %s", what, res.ExitCode, detail)
	}
	return nil
}
