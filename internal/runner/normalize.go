package runner

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var drivePath = regexp.MustCompile(`^/[A-Za-z]:`)

// Unquote trims value and strips one pair of matching surrounding quotes.
func Unquote(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 2 {
		return v
	}
	if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
		return strings.TrimSpace(v[1 : len(v)-1])
	}
	return v
}

// FromFileURL converts a file:// URL to a local path. Anything else,
// including a malformed URL, is returned unchanged.
func FromFileURL(value string) string {
	if !strings.HasPrefix(strings.ToLower(value), "file://") {
		return value
	}
	u, err := url.Parse(value)
	if err != nil || u.Path == "" {
		return value
	}
	p := u.Path
	if drivePath.MatchString(p) {
		p = p[1:] // file:///C:/xampp
	}
	if u.Host != "" && u.Host != "localhost" {
		p = "//" + u.Host + p
	}
	return filepath.FromSlash(p)
}

// Normalize unquotes value and resolves file:// URLs.
func Normalize(value string) string {
	return FromFileURL(Unquote(value))
}
