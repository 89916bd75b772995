package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hurou927/xampp-tools/internal/mysql"
	"github.com/hurou927/xampp-tools/internal/policy"
)

// DefaultExportPath is <dir>/<database>-<UTC timestamp>.sql with ':' and '.'
// in the timestamp replaced by '-'.
func DefaultExportPath(dir, database string, now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return filepath.Join(dir, fmt.Sprintf("%s-%s.sql", database, stamp))
}

func dbExport(env *Env) *Tool {
	return &Tool{
		Name:        "db_export",
		Title:       "Database Export",
		Description: "Exports a MySQL database to a SQL file",
		Params: withConn(
			Param{Name: "database", Type: String, Required: true},
			Param{Name: "outputPath", Type: String},
			Param{Name: "includeCreateDatabase", Type: Boolean, Default: true},
			Param{Name: "addDropTable", Type: Boolean, Default: true},
			Param{Name: "confirmed", Type: Boolean, Required: true},
		),
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			database, err := args.String("database")
			if err != nil {
				return nil, err
			}
			outputPath, err := args.OptionalString("outputPath")
			if err != nil {
				return nil, err
			}
			if outputPath == "" {
				outputPath = DefaultExportPath(env.WorkDir, database, env.now())
			}
			includeCreate, err := args.Bool("includeCreateDatabase", true)
			if err != nil {
				return nil, err
			}
			addDropTable, err := args.Bool("addDropTable", true)
			if err != nil {
				return nil, err
			}
			confirmed, err := args.Bool("confirmed", false)
			if err != nil {
				return nil, err
			}
			if err := policy.RequireConfirmation(confirmed, "db_export"); err != nil {
				return nil, err
			}
			if err := policy.ValidateIdentifier(database, "database"); err != nil {
				return nil, err
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			env.logger().Debug("exporting database", env.logger().Args("database", database, "path", outputPath))
			if err := env.Dumper.Dump(ctx, mysql.DumpRequest{
				Conn:                  conn,
				Database:              database,
				OutputPath:            outputPath,
				IncludeCreateDatabase: includeCreate,
				AddDropTable:          addDropTable,
			}); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("Database %s exported to %s", database, outputPath), map[string]any{
				"database":   database,
				"outputPath": outputPath,
			}), nil
		},
	}
}

func dbImport(env *Env) *Tool {
	return &Tool{
		Name:        "db_import",
		Title:       "Database Import",
		Description: "Imports SQL file into a MySQL database",
		Params: withConn(
			Param{Name: "database", Type: String, Required: true},
			Param{Name: "inputPath", Type: String, Required: true},
			Param{Name: "confirmed", Type: Boolean, Required: true},
		),
		Destructive: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			database, err := args.String("database")
			if err != nil {
				return nil, err
			}
			inputPath, err := args.String("inputPath")
			if err != nil {
				return nil, err
			}
			confirmed, err := args.Bool("confirmed", false)
			if err != nil {
				return nil, err
			}
			if err := policy.RequireConfirmation(confirmed, "db_import"); err != nil {
				return nil, err
			}
			if err := policy.ValidateIdentifier(database, "database"); err != nil {
				return nil, err
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			sql, err := mysql.ReadScript(env.Fs, inputPath)
			if err != nil {
				return nil, err
			}
			env.logger().Debug("importing script", env.logger().Args("database", database, "path", inputPath, "bytes", len(sql)))
			if _, err := env.MySQL.Execute(ctx, mysql.Request{
				Conn:     conn,
				Database: database,
				SQL:      sql,
				Timeout:  mysql.ImportTimeout,
			}); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("Imported %s into %s", inputPath, database), map[string]any{
				"database":  database,
				"inputPath": inputPath,
			}), nil
		},
	}
}
