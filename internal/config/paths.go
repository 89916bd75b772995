package config

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// Paths are the XAMPP scripts and binaries derived from the install dir.
type Paths struct {
	ApacheStart  string `json:"apacheStart" yaml:"apacheStart"`
	ApacheStop   string `json:"apacheStop" yaml:"apacheStop"`
	ApacheExe    string `json:"apacheExe" yaml:"apacheExe"`
	MySQLStart   string `json:"mysqlStart" yaml:"mysqlStart"`
	MySQLStop    string `json:"mysqlStop" yaml:"mysqlStop"`
	MySQLdExe    string `json:"mysqldExe" yaml:"mysqldExe"`
	MySQLIni     string `json:"mysqlIni" yaml:"mysqlIni"`
	MySQLExe     string `json:"mysqlExe" yaml:"mysqlExe"`
	MySQLDumpExe string `json:"mysqldumpExe" yaml:"mysqldumpExe"`
	PHPExe       string `json:"phpExe" yaml:"phpExe"`
}

// NewPaths derives every path from dir.
func NewPaths(dir string) Paths {
	return Paths{
		ApacheStart:  filepath.Join(dir, "apache_start.bat"),
		ApacheStop:   filepath.Join(dir, "apache_stop.bat"),
		ApacheExe:    filepath.Join(dir, "apache", "bin", "httpd.exe"),
		MySQLStart:   filepath.Join(dir, "mysql_start.bat"),
		MySQLStop:    filepath.Join(dir, "mysql_stop.bat"),
		MySQLdExe:    filepath.Join(dir, "mysql", "bin", "mysqld.exe"),
		MySQLIni:     filepath.Join(dir, "mysql", "bin", "my.ini"),
		MySQLExe:     filepath.Join(dir, "mysql", "bin", "mysql.exe"),
		MySQLDumpExe: filepath.Join(dir, "mysql", "bin", "mysqldump.exe"),
		PHPExe:       filepath.Join(dir, "php", "php.exe"),
	}
}

// PathStatus reports whether one derived path exists.
type PathStatus struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Exists bool   `json:"exists" yaml:"exists"`
}

// Named lists the paths with their stable names, in a fixed order.
func (p Paths) Named() []PathStatus {
	return []PathStatus{
		{Name: "apacheStart", Path: p.ApacheStart},
		{Name: "apacheStop", Path: p.ApacheStop},
		{Name: "apacheExe", Path: p.ApacheExe},
		{Name: "mysqlStart", Path: p.MySQLStart},
		{Name: "mysqlStop", Path: p.MySQLStop},
		{Name: "mysqldExe", Path: p.MySQLdExe},
		{Name: "mysqlIni", Path: p.MySQLIni},
		{Name: "mysqlExe", Path: p.MySQLExe},
		{Name: "mysqldumpExe", Path: p.MySQLDumpExe},
		{Name: "phpExe", Path: p.PHPExe},
	}
}

// PathAvailability checks every derived path on fs.
func (c *Config) PathAvailability(fs afero.Fs) []PathStatus {
	out := c.Paths.Named()
	for i := range out {
		_, err := fs.Stat(out[i].Path)
		out[i].Exists = err == nil
	}
	return out
}

// AllAvailable reports whether every status exists.
func AllAvailable(statuses []PathStatus) bool {
	for _, s := range statuses {
		if !s.Exists {
			return false
		}
	}
	return true
}
