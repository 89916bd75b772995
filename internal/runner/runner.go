// Package runner executes external programs with a timeout and captures
// their output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a command when Command.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Command describes one process invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string
	Stdin   string
	Timeout time.Duration
}

// Result is the outcome of a finished (or killed) process. Stdout and
// Stderr are trimmed.
type Result struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Detail returns stderr, or stdout when stderr is empty.
func (r *Result) Detail() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner runs commands. An error is returned only when the process could not
// be started; a non-zero exit is reported through Result.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Exec runs commands with os/exec.
type Exec struct{}

// Run implements Runner.
func (Exec) Run(ctx context.Context, c Command) (*Result, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name := Normalize(c.Name)
	file, args := spawnCommand(name, c.Args)

	cmd := exec.CommandContext(ctx, file, args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.WaitDelay = time.Second
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Command:  name,
		Args:     c.Args,
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		Duration: time.Since(start),
	}
	if err != nil && !res.TimedOut {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("starting %s: %w", name, err)
		}
	}
	return res, nil
}

// spawnCommand wraps batch scripts in cmd.exe so they can be started directly.
func spawnCommand(name string, args []string) (string, []string) {
	if !IsBatchScript(name) {
		return name, args
	}
	return "cmd.exe", append([]string{"/d", "/c", "call", name}, args...)
}

// IsBatchScript reports whether path names a Windows .bat or .cmd file.
func IsBatchScript(path string) bool {
	ext := strings.ToLower(filepath.Ext(Normalize(path)))
	return ext == ".bat" || ext == ".cmd"
}
