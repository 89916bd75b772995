package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hurou927/xampp-tools/internal/mysql"
	"github.com/hurou927/xampp-tools/internal/policy"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

func dbCreate(env *Env) *Tool {
	return &Tool{
		Name:        "db_create",
		Title:       "Create Database",
		Description: "Creates a MySQL database",
		Params: withConn(
			Param{Name: "database", Type: String, Required: true},
			Param{Name: "ifNotExists", Type: Boolean, Default: true},
			Param{Name: "confirmed", Type: Boolean, Required: true},
		),
		Destructive: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			database, err := args.String("database")
			if err != nil {
				return nil, err
			}
			confirmed, err := args.Bool("confirmed", false)
			if err != nil {
				return nil, err
			}
			ifNotExists, err := args.Bool("ifNotExists", true)
			if err != nil {
				return nil, err
			}
			if err := policy.RequireConfirmation(confirmed, "db_create"); err != nil {
				return nil, err
			}
			if err := policy.ValidateIdentifier(database, "database"); err != nil {
				return nil, err
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			sql := fmt.Sprintf("CREATE DATABASE %s%s CHARACTER SET %s COLLATE %s",
				ifNotExistsClause(ifNotExists), policy.QuoteIdentifier(database), mysql.CharacterSet, mysql.Collation)
			if _, err := env.MySQL.Execute(ctx, mysql.Request{Conn: conn, SQL: sql}); err != nil {
				return nil, err
			}
			return textResult("Database "+database+" created", map[string]any{
				"database":     database,
				"ifNotExists":  ifNotExists,
				"characterSet": mysql.CharacterSet,
				"collation":    mysql.Collation,
			}), nil
		},
	}
}

// CheckCreateStatement requires statement to be a CREATE TABLE mentioning
// table, compared case-insensitively. It returns the trimmed statement.
func CheckCreateStatement(statement, table string) (string, error) {
	compact := strings.TrimSpace(statement)
	upper := strings.ToUpper(compact)
	if !strings.HasPrefix(upper, "CREATE TABLE") {
		return "", toolerr.New(toolerr.ErrInvalidInput, "createStatement must start with CREATE TABLE")
	}
	if !strings.Contains(upper, strings.ToUpper(table)) {
		return "", toolerr.New(toolerr.ErrInvalidInput, "createStatement must target the provided table")
	}
	return compact, nil
}

func tableCreate(env *Env) *Tool {
	return &Tool{
		Name:        "table_create",
		Title:       "Create Table",
		Description: "Creates a table using a CREATE TABLE statement",
		Params: withConn(
			Param{Name: "database", Type: String, Required: true},
			Param{Name: "table", Type: String, Required: true},
			Param{Name: "createStatement", Type: String, Required: true},
			Param{Name: "confirmed", Type: Boolean, Required: true},
		),
		Destructive: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			database, err := args.String("database")
			if err != nil {
				return nil, err
			}
			table, err := args.String("table")
			if err != nil {
				return nil, err
			}
			statement, err := args.String("createStatement")
			if err != nil {
				return nil, err
			}
			confirmed, err := args.Bool("confirmed", false)
			if err != nil {
				return nil, err
			}
			if err := policy.RequireConfirmation(confirmed, "table_create"); err != nil {
				return nil, err
			}
			if err := policy.ValidateIdentifier(database, "database"); err != nil {
				return nil, err
			}
			if err := policy.ValidateIdentifier(table, "table"); err != nil {
				return nil, err
			}
			sql, err := CheckCreateStatement(statement, table)
			if err != nil {
				return nil, err
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			if _, err := env.MySQL.Execute(ctx, mysql.Request{Conn: conn, Database: database, SQL: sql}); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("Table %s.%s created", database, table), map[string]any{
				"database": database,
				"table":    table,
			}), nil
		},
	}
}

func userCreate(env *Env) *Tool {
	return &Tool{
		Name:        "user_create",
		Title:       "Create User",
		Description: "Creates a MySQL user",
		Params: []Param{
			{Name: "username", Type: String, Required: true},
			{Name: "hostScope", Type: String, Default: "%", Description: "Host scope for the user. Example: localhost or %"},
			{Name: "userPassword", Type: String, Required: true, Description: "Password for the user being created"},
			{Name: "ifNotExists", Type: Boolean, Default: true},
			{Name: "confirmed", Type: Boolean, Required: true},
			{Name: "host", Type: String, Description: "MySQL host (defaults to configuration)"},
			{Name: "port", Type: Number, Description: "MySQL port (defaults to configuration)"},
			{Name: "user", Type: String, Description: "Admin user used to run CREATE USER"},
			{Name: "password", Type: String, Description: "Admin password used to run CREATE USER"},
		},
		Destructive: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			username, err := args.String("username")
			if err != nil {
				return nil, err
			}
			userPassword, err := args.String("userPassword")
			if err != nil {
				return nil, err
			}
			hostScope, err := args.OptionalString("hostScope")
			if err != nil {
				return nil, err
			}
			if hostScope == "" {
				hostScope = "%"
			}
			ifNotExists, err := args.Bool("ifNotExists", true)
			if err != nil {
				return nil, err
			}
			confirmed, err := args.Bool("confirmed", false)
			if err != nil {
				return nil, err
			}
			if err := policy.RequireConfirmation(confirmed, "user_create"); err != nil {
				return nil, err
			}
			if err := policy.ValidateUsername(username); err != nil {
				return nil, err
			}
			if err := policy.ValidateHost(hostScope); err != nil {
				return nil, err
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			sql := fmt.Sprintf("CREATE USER %s%s@%s IDENTIFIED BY %s",
				ifNotExistsClause(ifNotExists),
				policy.QuoteLiteral(username), policy.QuoteLiteral(hostScope), policy.QuoteLiteral(userPassword))
			if _, err := env.MySQL.Execute(ctx, mysql.Request{Conn: conn, SQL: sql}); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("User %s@%s created", username, hostScope), map[string]any{
				"username":    username,
				"hostScope":   hostScope,
				"ifNotExists": ifNotExists,
			}), nil
		},
	}
}

// NormalizePrivileges turns "*" into ALL PRIVILEGES and otherwise
// upper-cases a comma-separated privilege list.
func NormalizePrivileges(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", toolerr.New(toolerr.ErrInvalidInput, "privileges cannot be empty")
	}
	if trimmed == "*" {
		return "ALL PRIVILEGES", nil
	}
	parts := strings.Split(trimmed, ",")
	for i, p := range parts {
		parts[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	return strings.Join(parts, ", "), nil
}

func grantManage(env *Env) *Tool {
	return &Tool{
		Name:        "grant_manage",
		Title:       "Grant Privileges",
		Description: "Grants privileges to a MySQL user on a database",
		Params: withConn(
			Param{Name: "database", Type: String, Required: true},
			Param{Name: "username", Type: String, Required: true},
			Param{Name: "hostScope", Type: String, Default: "%"},
			Param{Name: "privileges", Type: String, Required: true, Description: "Comma-separated list or * for all"},
			Param{Name: "withGrantOption", Type: Boolean, Default: false},
			Param{Name: "confirmed", Type: Boolean, Required: true},
		),
		Destructive: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			database, err := args.String("database")
			if err != nil {
				return nil, err
			}
			username, err := args.String("username")
			if err != nil {
				return nil, err
			}
			hostScope, err := args.OptionalString("hostScope")
			if err != nil {
				return nil, err
			}
			if hostScope == "" {
				hostScope = "%"
			}
			rawPrivileges, err := args.String("privileges")
			if err != nil {
				return nil, err
			}
			privileges, err := NormalizePrivileges(rawPrivileges)
			if err != nil {
				return nil, err
			}
			withGrantOption, err := args.Bool("withGrantOption", false)
			if err != nil {
				return nil, err
			}
			confirmed, err := args.Bool("confirmed", false)
			if err != nil {
				return nil, err
			}
			if err := policy.RequireConfirmation(confirmed, "grant_manage"); err != nil {
				return nil, err
			}
			if err := policy.ValidateIdentifier(database, "database"); err != nil {
				return nil, err
			}
			if err := policy.ValidateUsername(username); err != nil {
				return nil, err
			}
			if err := policy.ValidateHost(hostScope); err != nil {
				return nil, err
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			sql := fmt.Sprintf("GRANT %s ON %s.* TO %s@%s", privileges,
				policy.QuoteIdentifier(database), policy.QuoteLiteral(username), policy.QuoteLiteral(hostScope))
			if withGrantOption {
				sql += " WITH GRANT OPTION"
			}
			if _, err := env.MySQL.Execute(ctx, mysql.Request{Conn: conn, SQL: sql}); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("Granted %s on %s to %s@%s", privileges, database, username, hostScope), map[string]any{
				"database":        database,
				"username":        username,
				"hostScope":       hostScope,
				"privileges":      privileges,
				"withGrantOption": withGrantOption,
			}), nil
		},
	}
}

func ifNotExistsClause(on bool) string {
	if on {
		return "IF NOT EXISTS "
	}
	return ""
}
