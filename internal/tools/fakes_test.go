package tools

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/hurou927/xampp-tools/internal/config"
	"github.com/hurou927/xampp-tools/internal/mysql"
	"github.com/hurou927/xampp-tools/internal/runner"
	"github.com/hurou927/xampp-tools/internal/ui"
)

// fakeExec answers Execute calls from a queue, in order. When the queue is
// exhausted it returns "".
type fakeExec struct {
	outputs []string
	err     error
	reqs    []mysql.Request
}

func (f *fakeExec) Execute(_ context.Context, req mysql.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.outputs) == 0 {
		return "", nil
	}
	out := f.outputs[0]
	f.outputs = f.outputs[1:]
	return out, nil
}

// fakeRunner answers by "name arg0 arg1 ..." key. Unknown commands fail to
// start.
type fakeRunner struct {
	results map[string]*runner.Result

	mu    sync.Mutex
	calls []runner.Command
}

func (f *fakeRunner) Run(_ context.Context, c runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	key := strings.Join(append([]string{c.Name}, c.Args...), " ")
	if r, ok := f.results[key]; ok {
		return r, nil
	}
	return nil, errors.New("exec: " + c.Name + ": not found")
}

type fakeDumper struct {
	reqs []mysql.DumpRequest
	err  error
}

func (f *fakeDumper) Dump(_ context.Context, req mysql.DumpRequest) error {
	f.reqs = append(f.reqs, req)
	return f.err
}

type fakeRenderer struct {
	svg   string
	err   error
	codes []string
}

func (f *fakeRenderer) RenderSVG(_ context.Context, code string) (string, error) {
	f.codes = append(f.codes, code)
	return f.svg, f.err
}

// openPorts returns a Dialer that accepts the listed 127.0.0.1 ports.
func openPorts(ports ...string) Dialer {
	open := make(map[string]bool)
	for _, p := range ports {
		open[net.JoinHostPort("127.0.0.1", p)] = true
	}
	return func(_ context.Context, _, addr string) (net.Conn, error) {
		if !open[addr] {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		}
		client, server := net.Pipe()
		server.Close()
		return client, nil
	}
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 123000000, time.UTC)

func newTestEnv(t *testing.T) (*Env, *fakeExec) {
	t.Helper()
	dir := `C:\xampp`
	cfg := &config.Config{
		XamppDir:      dir,
		DefaultMode:   config.ModeConsole,
		ApacheService: "Apache2.4",
		MySQLService:  "mysql",
		MySQL:         config.MySQL{Host: "127.0.0.1", Port: 3306, User: "root", Backend: config.BackendCLI},
		KrokiURL:      "http://kroki.invalid",
		Paths:         config.NewPaths(dir),
	}
	exec := &fakeExec{}
	env := &Env{
		Config:   cfg,
		Fs:       afero.NewMemMapFs(),
		Runner:   &fakeRunner{},
		MySQL:    exec,
		Dumper:   &fakeDumper{},
		Renderer: &fakeRenderer{},
		Dial:     openPorts(),
		Now:      func() time.Time { return fixedNow },
		WorkDir:  "/work",
		Logger:   ui.NewLogger(io.Discard, true),
	}
	return env, exec
}
