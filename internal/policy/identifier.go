// Package policy guards every value that flows from user input into SQL text.
//
// Identifiers (database, table and filter names) must match a fixed
// allow-list. Values that are interpolated as literals or quoted identifiers
// go through QuoteLiteral and QuoteIdentifier. Nothing else may build query
// text from untrusted input.
package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hurou927/xampp-tools/internal/toolerr"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9._$-]+$`)
	hostPattern       = regexp.MustCompile(`^[A-Za-z0-9.%_-]+$`)
)

// IdentifierError reports a value rejected by the identifier allow-list.
type IdentifierError struct {
	Field      string
	Value      string
	Suggestion string // set only when the value contains a hyphen
}

// Error implements the error interface.
func (e *IdentifierError) Error() string {
	msg := fmt.Sprintf("Invalid %s. Use snake_case with letters, numbers and underscore only; it must start with a letter or underscore.", e.Field)
	if e.Suggestion == "" {
		return msg
	}
	return fmt.Sprintf("%s Hyphen (-) is not allowed by policy. Suggested %s: %q.", msg, e.Field, e.Suggestion)
}

// Is matches toolerr.ErrInvalidIdentifier.
func (e *IdentifierError) Is(target error) bool {
	return target == toolerr.ErrInvalidIdentifier
}

// IsIdentifier reports whether name passes the allow-list.
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// ValidateIdentifier checks name against the allow-list. field names the
// input in the error message.
func ValidateIdentifier(name, field string) error {
	if IsIdentifier(name) {
		return nil
	}
	e := &IdentifierError{Field: field, Value: name}
	if strings.Contains(name, "-") {
		e.Suggestion = strings.ReplaceAll(name, "-", "_")
	}
	return e
}

// ValidateUsername checks a MySQL account name.
func ValidateUsername(name string) error {
	if usernamePattern.MatchString(name) {
		return nil
	}
	return toolerr.New(toolerr.ErrInvalidUsername, "Invalid username. Allowed chars: letters, numbers, . _ $ -")
}

// ValidateHost checks a MySQL account host scope.
func ValidateHost(host string) error {
	if hostPattern.MatchString(host) {
		return nil
	}
	return toolerr.New(toolerr.ErrInvalidHost, "Invalid host. Allowed chars: letters, numbers, %%, ., _, -")
}

// RequireConfirmation fails unless the caller explicitly confirmed action.
func RequireConfirmation(confirmed bool, action string) error {
	if confirmed {
		return nil
	}
	return toolerr.New(toolerr.ErrConfirmationRequired,
		"%s requires explicit confirmation. Set \"confirmed\": true to proceed.", action)
}

// ParseTableFilter splits a comma-separated table list. Every entry must be
// an identifier; duplicates are dropped keeping the first occurrence.
func ParseTableFilter(csv string) ([]string, error) {
	var tables []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(csv, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if err := ValidateIdentifier(item, "tables"); err != nil {
			return nil, err
		}
		if seen[item] {
			continue
		}
		seen[item] = true
		tables = append(tables, item)
	}
	return tables, nil
}
