package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/hurou927/xampp-tools/internal/runner"
)

// AppFs is the filesystem used for config discovery and path checks.
var AppFs = afero.NewOsFs()

// RunMode selects how the XAMPP stack is expected to run.
type RunMode string

const (
	ModeConsole RunMode = "console"
	ModeService RunMode = "service"
)

// MySQL backends.
const (
	BackendCLI    = "cli"
	BackendDriver = "driver"
)

// Config is the resolved application configuration.
type Config struct {
	XamppDir      string
	DefaultMode   RunMode
	ApacheService string
	MySQLService  string
	MySQL         MySQL
	Postgres      Connection
	KrokiURL      string
	ServerAddr    string
	Paths         Paths
}

// MySQL holds the default connection used by every MySQL tool.
type MySQL struct {
	Host     string
	Port     int
	User     string
	Password string
	Backend  string // BackendCLI or BackendDriver
}

// Connection holds PostgreSQL connection parameters for the catalog source.
type Connection struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// DSN builds a PostgreSQL connection string.
func (c *Connection) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode,
	)
}

// envBindings maps config keys to the environment variables that override
// them.
var envBindings = map[string]string{
	"xampp.dir":            "XAMPP_DIR",
	"xampp.mode":           "XAMPP_DEFAULT_MODE",
	"xampp.apache_service": "XAMPP_APACHE_SERVICE",
	"xampp.mysql_service":  "XAMPP_MYSQL_SERVICE",
	"mysql.host":           "MYSQL_HOST",
	"mysql.port":           "MYSQL_PORT",
	"mysql.user":           "MYSQL_USER",
	"mysql.password":       "MYSQL_PASSWORD",
	"mysql.backend":        "MYSQL_BACKEND",
	"kroki.url":            "KROKI_URL",
	"server.addr":          "XAMPP_TOOLS_ADDR",
}

const (
	defaultXamppDir   = `C:\xampp`
	defaultMySQLPort  = 3306
	defaultKrokiURL   = "https://kroki.io"
	defaultServerAddr = ":8787"
)

// Load resolves configuration from .env files, an optional YAML file and
// the environment. path may be empty, in which case xamppctl.yaml is searched
// in the working directory and $HOME/.config/xamppctl. Finding no file while
// searching is fine; an explicit path must exist and parse.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("xamppctl")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "xamppctl"))
		}
	}
	v.SetFs(AppFs)

	v.SetDefault("xampp.dir", defaultXamppDir)
	v.SetDefault("xampp.mode", string(ModeConsole))
	v.SetDefault("xampp.apache_service", "Apache2.4")
	v.SetDefault("xampp.mysql_service", "mysql")
	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", strconv.Itoa(defaultMySQLPort))
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.backend", BackendCLI)
	v.SetDefault("kroki.url", defaultKrokiURL)
	v.SetDefault("server.addr", defaultServerAddr)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		XamppDir:      runner.Normalize(str(v, "xampp.dir", defaultXamppDir)),
		DefaultMode:   parseMode(str(v, "xampp.mode", "")),
		ApacheService: str(v, "xampp.apache_service", "Apache2.4"),
		MySQLService:  str(v, "xampp.mysql_service", "mysql"),
		MySQL: MySQL{
			Host:     str(v, "mysql.host", "127.0.0.1"),
			Port:     parsePort(str(v, "mysql.port", ""), defaultMySQLPort),
			User:     str(v, "mysql.user", "root"),
			Password: str(v, "mysql.password", ""),
			Backend:  parseBackend(str(v, "mysql.backend", "")),
		},
		Postgres: Connection{
			Host:     str(v, "postgres.host", ""),
			Port:     v.GetInt("postgres.port"),
			Database: str(v, "postgres.database", ""),
			User:     str(v, "postgres.user", ""),
			Password: str(v, "postgres.password", ""),
			SSLMode:  str(v, "postgres.sslmode", ""),
		},
		KrokiURL:   str(v, "kroki.url", defaultKrokiURL),
		ServerAddr: str(v, "server.addr", defaultServerAddr),
	}
	cfg.Paths = NewPaths(cfg.XamppDir)
	cfg.applyEnv()

	return cfg, nil
}

// loadDotEnv loads .env and then .env.local, the latter overriding. Neither
// file is required.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// str reads key, unwraps surrounding quotes and falls back when the result
// is blank.
func str(v *viper.Viper, key, fallback string) string {
	if s := runner.Unquote(v.GetString(key)); s != "" {
		return s
	}
	return fallback
}

func parseMode(s string) RunMode {
	if s == string(ModeService) {
		return ModeService
	}
	return ModeConsole
}

func parseBackend(s string) string {
	if s == BackendDriver {
		return BackendDriver
	}
	return BackendCLI
}

func parsePort(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	p, err := strconv.Atoi(s)
	if err != nil || p <= 0 || p > 65535 {
		return fallback
	}
	return p
}

// applyEnv fills in empty Postgres fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	conn := &c.Postgres
	if conn.Host == "" {
		conn.Host = envOr("PGHOST", "POSTGRES_HOST", "")
	}
	if conn.Port == 0 {
		if s := envOr("PGPORT", "POSTGRES_PORT", ""); s != "" {
			if p, err := strconv.Atoi(s); err == nil {
				conn.Port = p
			}
		}
	}
	if conn.Database == "" {
		conn.Database = envOr("PGDATABASE", "POSTGRES_DB", "")
	}
	if conn.User == "" {
		conn.User = envOr("PGUSER", "POSTGRES_USER", "")
	}
	if conn.Password == "" {
		conn.Password = envOr("PGPASSWORD", "POSTGRES_PASSWORD", "")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = envOr("PGSSLMODE", "", "")
	}
}

// envOr returns the first non-empty value from the given env var names, or fallback.
func envOr(names ...string) string {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// ValidatePostgres checks the catalog connection and fills defaults. It is
// only needed when the Postgres dialect is selected.
func (c *Config) ValidatePostgres() error {
	conn := &c.Postgres
	if conn.Host == "" {
		return fmt.Errorf("postgres.host is required")
	}
	if conn.Port == 0 {
		conn.Port = 5432
	}
	if conn.Database == "" {
		return fmt.Errorf("postgres.database is required")
	}
	if conn.User == "" {
		return fmt.Errorf("postgres.user is required")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = "disable"
	}
	return nil
}
