package tools

import (
	"context"
	"strings"
	"time"

	"github.com/hurou927/xampp-tools/internal/runner"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

const phpTimeout = 60 * time.Second

func phpCLIRun(env *Env) *Tool {
	return &Tool{
		Name:        "php_cli_run",
		Title:       "PHP CLI Run",
		Description: "Executes a PHP script using XAMPP PHP CLI",
		Params: []Param{
			{Name: "scriptPath", Type: String, Required: true},
			{Name: "args", Type: String, Description: "Arguments as a single string"},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			scriptPath, err := args.String("scriptPath")
			if err != nil {
				return nil, err
			}
			raw, err := args.OptionalString("args")
			if err != nil {
				return nil, err
			}
			cliArgs := []string{scriptPath}
			for _, a := range strings.Split(raw, " ") {
				if a != "" {
					cliArgs = append(cliArgs, a)
				}
			}

			res, err := env.Runner.Run(ctx, runner.Command{
				Name:    env.Config.Paths.PHPExe,
				Args:    cliArgs,
				Timeout: phpTimeout,
			})
			if err != nil {
				return nil, toolerr.Wrap(toolerr.ErrCommandFailed, err, "PHP CLI failed: %v", err)
			}
			if res.TimedOut {
				return nil, toolerr.New(toolerr.ErrTimeout, "PHP CLI timed out after %dms", res.Duration.Milliseconds())
			}
			if res.ExitCode != 0 {
				msg := res.Stderr
				if msg == "" {
					msg = res.Stdout
				}
				if msg == "" {
					msg = "PHP CLI failed"
				}
				return nil, toolerr.New(toolerr.ErrCommandFailed, "%s", msg)
			}

			text := res.Stdout
			if text == "" {
				text = "PHP script executed successfully"
			}
			return textResult(text, map[string]any{"stdout": res.Stdout, "stderr": res.Stderr}), nil
		},
	}
}
