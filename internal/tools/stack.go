package tools

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"golang.org/x/sync/errgroup"

	"github.com/hurou927/xampp-tools/internal/config"
	"github.com/hurou927/xampp-tools/internal/mysql"
	"github.com/hurou927/xampp-tools/internal/runner"
)

// MinimumMySQLVersion is the oldest server the tools are tested against.
var MinimumMySQLVersion = version.Must(version.NewVersion("5.7"))

const (
	probeTimeout = 5 * time.Second
	probeHost    = "127.0.0.1"
)

func preflightCheck(env *Env) *Tool {
	return &Tool{
		Name:        "preflight_check",
		Title:       "Preflight Check",
		Description: "Checks XAMPP binaries/scripts and common ports before operations",
		Params: []Param{
			{Name: "apachePort", Type: Number, Default: 80},
			{Name: "mysqlPort", Type: Number, Default: 3306},
			{Name: "checkVersion", Type: Boolean, Default: false, Description: "Also query the MySQL server version on mysqlPort"},
		},
		ReadOnly: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			apachePort, err := args.Int("apachePort", 80)
			if err != nil {
				return nil, err
			}
			mysqlPort, err := args.Int("mysqlPort", 3306)
			if err != nil {
				return nil, err
			}
			checkVersion, err := args.Bool("checkVersion", false)
			if err != nil {
				return nil, err
			}

			var apacheBusy, mysqlBusy bool
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				apacheBusy = env.portInUse(gctx, apachePort)
				return nil
			})
			g.Go(func() error {
				mysqlBusy = env.portInUse(gctx, mysqlPort)
				return nil
			})
			_ = g.Wait()

			paths := env.Config.PathAvailability(env.Fs)
			allPaths := config.AllAvailable(paths)

			lines := []string{
				"Path checks: " + choose(allPaths, "ok", "missing files"),
				fmt.Sprintf("Apache port %d: %s", apachePort, choose(apacheBusy, "in use", "free")),
				fmt.Sprintf("MySQL port %d: %s", mysqlPort, choose(mysqlBusy, "in use", "free")),
			}
			data := map[string]any{
				"allPathsAvailable": allPaths,
				"ports": map[string]any{
					"apache": map[string]any{"port": apachePort, "inUse": apacheBusy},
					"mysql":  map[string]any{"port": mysqlPort, "inUse": mysqlBusy},
				},
				"paths": paths,
			}

			if checkVersion {
				conn := mysql.Resolve(env.Config.MySQL, mysql.Overrides{Port: mysqlPort})
				v, supported, err := env.serverVersion(ctx, conn)
				if err != nil {
					lines = append(lines, "MySQL version: unavailable ("+err.Error()+")")
					data["version"] = map[string]any{"error": err.Error()}
				} else {
					lines = append(lines, fmt.Sprintf("MySQL version: %s (%s)", v,
						choose(supported, "ok", "older than "+MinimumMySQLVersion.String())))
					data["version"] = map[string]any{"server": v, "supported": supported}
				}
			}

			return textResult(strings.Join(lines, "\n"), data), nil
		},
	}
}

// portInUse reports whether something accepts TCP connections on port.
func (e *Env) portInUse(ctx context.Context, port int) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	conn, err := e.Dial(ctx, "tcp", net.JoinHostPort(probeHost, strconv.Itoa(port)))
	if err != nil {
		e.logger().Debug("port probe", e.logger().Args("port", port, "error", err))
		return false
	}
	conn.Close()
	return true
}

// serverVersion returns the server version and whether its release is at
// least MinimumMySQLVersion. Suffixes such as "-MariaDB" are ignored for the
// comparison.
func (e *Env) serverVersion(ctx context.Context, conn mysql.Connection) (string, bool, error) {
	raw, err := mysql.Version(ctx, e.MySQL, conn)
	if err != nil {
		return "", false, err
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return raw, false, fmt.Errorf("unrecognised server version %q: %w", raw, err)
	}
	return raw, v.Core().GreaterThanOrEqual(MinimumMySQLVersion), nil
}

const (
	apacheAdvice = "Apache is stopped. Ask the user to start Apache from XAMPP Control Panel and confirm when ready before continuing. Do not run apache_start.bat automatically."
	mysqlAdvice  = "MySQL is stopped. Ask the user to start MySQL from XAMPP Control Panel and confirm when ready before continuing. Do not run mysql_start.bat automatically."
)

func stackStatus(env *Env) *Tool {
	return &Tool{
		Name:        "stack_status",
		Title:       "Stack Status",
		Description: "Shows XAMPP path checks and Apache/MySQL process or service state",
		ReadOnly:    true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			cfg := env.Config

			var apacheRunning, mysqlRunning bool
			var apacheState, mysqlState string
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				apacheRunning = env.processRunning(gctx, "httpd.exe")
				return nil
			})
			g.Go(func() error {
				mysqlRunning = env.processRunning(gctx, "mysqld.exe")
				return nil
			})
			g.Go(func() error {
				apacheState = env.serviceState(gctx, cfg.ApacheService)
				return nil
			})
			g.Go(func() error {
				mysqlState = env.serviceState(gctx, cfg.MySQLService)
				return nil
			})
			_ = g.Wait()

			advice := []string{}
			if !apacheRunning {
				advice = append(advice, apacheAdvice)
			}
			if !mysqlRunning {
				advice = append(advice, mysqlAdvice)
			}

			text := strings.Join([]string{
				"XAMPP dir: " + cfg.XamppDir,
				"Apache process: " + choose(apacheRunning, "running", "stopped"),
				"MySQL process: " + choose(mysqlRunning, "running", "stopped"),
				fmt.Sprintf("Apache service (%s): %s", cfg.ApacheService, apacheState),
				fmt.Sprintf("MySQL service (%s): %s", cfg.MySQLService, mysqlState),
			}, "\n")
			if len(advice) > 0 {
				text += "\n\nAdvice:\n" + strings.Join(advice, "\n")
			}

			nextStep := "No action needed."
			if len(advice) > 0 {
				nextStep = "Wait for user confirmation after modules are started in XAMPP Control Panel, then retry the requested tool."
			}

			return textResult(text, map[string]any{
				"xamppDir":           cfg.XamppDir,
				"mode":               string(cfg.DefaultMode),
				"paths":              cfg.PathAvailability(env.Fs),
				"processes":          map[string]any{"apache": apacheRunning, "mysql": mysqlRunning},
				"services":           map[string]any{"apache": apacheState, "mysql": mysqlState},
				"requiresUserAction": len(advice) > 0,
				"nextStep":           nextStep,
				"advice":             advice,
			}), nil
		},
	}
}

func (e *Env) processRunning(ctx context.Context, image string) bool {
	res, err := e.Runner.Run(ctx, runner.Command{
		Name:    "tasklist.exe",
		Args:    []string{"/FI", "IMAGENAME eq " + image},
		Timeout: probeTimeout,
	})
	if err != nil {
		e.logger().Debug("process probe failed", e.logger().Args("image", image, "error", err))
		return false
	}
	return strings.Contains(strings.ToLower(res.Stdout), strings.ToLower(image))
}

func (e *Env) serviceState(ctx context.Context, service string) string {
	res, err := e.Runner.Run(ctx, runner.Command{
		Name:    "sc.exe",
		Args:    []string{"query", service},
		Timeout: probeTimeout,
	})
	if err != nil || res.ExitCode != 0 {
		return "not-found-or-no-access"
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if !strings.Contains(line, "STATE") {
			continue
		}
		parts := strings.Split(line, ":")
		if s := strings.TrimSpace(parts[len(parts)-1]); s != "" {
			return s
		}
		return "unknown"
	}
	return "unknown"
}

func choose(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
