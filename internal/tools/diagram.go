package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/hurou927/xampp-tools/internal/config"
	"github.com/hurou927/xampp-tools/internal/graph"
	"github.com/hurou927/xampp-tools/internal/mysql"
	"github.com/hurou927/xampp-tools/internal/policy"
	"github.com/hurou927/xampp-tools/internal/render"
	"github.com/hurou927/xampp-tools/internal/schema"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

// Diagram output formats.
const (
	FormatMermaid = "mermaid"
	FormatText    = "text"
)

func diagramER(env *Env) *Tool {
	return &Tool{
		Name:        "diagram_er",
		Title:       "Generate ER Diagram",
		Description: "Generates a Mermaid ER diagram from the real database schema",
		Params: withConn(
			Param{Name: "database", Type: String, Required: true, Description: "Database (MySQL) or schema (PostgreSQL) to diagram"},
			Param{Name: "tables", Type: String, Description: "Optional comma-separated table filter"},
			Param{Name: "show_columns", Type: Boolean, Default: true},
			Param{Name: "show_types", Type: Boolean, Default: true},
			Param{Name: "dialect", Type: String, Default: string(policy.MySQL), Enum: []string{string(policy.MySQL), string(policy.Postgres)}},
			Param{Name: "format", Type: String, Default: FormatMermaid, Enum: []string{FormatMermaid, FormatText}},
		),
		ReadOnly:  true,
		OpenWorld: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			database, err := args.String("database")
			if err != nil {
				return nil, err
			}
			tablesCSV, err := args.OptionalString("tables")
			if err != nil {
				return nil, err
			}
			showColumns, err := args.Bool("show_columns", true)
			if err != nil {
				return nil, err
			}
			showTypes, err := args.Bool("show_types", true)
			if err != nil {
				return nil, err
			}
			dialectName, err := args.Enum("dialect", []string{string(policy.MySQL), string(policy.Postgres)}, string(policy.MySQL))
			if err != nil {
				return nil, err
			}
			format, err := args.Enum("format", []string{FormatMermaid, FormatText}, FormatMermaid)
			if err != nil {
				return nil, err
			}
			if err := policy.ValidateIdentifier(database, "database"); err != nil {
				return nil, err
			}
			filter, err := policy.ParseTableFilter(tablesCSV)
			if err != nil {
				return nil, err
			}

			dialect, _ := policy.ParseDialect(dialectName)
			src, release, err := env.metadataSource(ctx, dialect, args)
			if err != nil {
				return nil, err
			}
			defer release()

			in, err := schema.Introspect(ctx, src, schema.CatalogFor(dialect), database, filter)
			if err != nil {
				return nil, err
			}
			for _, st := range in.Stages {
				env.logger().Debug("catalog stage", env.logger().Args("stage", string(st.Stage), "bytes", len(st.Raw)))
			}
			g, err := graph.Build(in.Rows, filter)
			if err != nil {
				return nil, err
			}

			diagram := graph.Mermaid(g, graph.MermaidOptions{ShowColumns: showColumns, ShowTypes: showTypes})

			var text string
			if format == FormatText {
				var buf bytes.Buffer
				if err := graph.WriteText(&buf, g); err != nil {
					return nil, err
				}
				text = strings.TrimRight(buf.String(), "\n")
			} else {
				text = strings.Join([]string{
					"ER diagram generated for database: " + database,
					"To get an SVG file, call diagram_render with renderRequest.args.code.",
					"",
					"```mermaid",
					diagram,
					"```",
				}, "\n")
			}

			return textResult(text, map[string]any{
				"database":          database,
				"dialect":           string(dialect),
				"tables":            g.TableNames(),
				"tableCount":        len(g.TableNames()),
				"relationshipCount": len(g.Edges()),
				"mermaid":           diagram,
				"renderRequest": map[string]any{
					"tool": "diagram_render",
					"args": map[string]any{"code": diagram},
				},
			}), nil
		},
	}
}

// metadataSource picks the catalog source for dialect. MySQL goes through
// the configured executor; PostgreSQL opens a pool from the configuration.
// Connection arguments override either.
func (e *Env) metadataSource(ctx context.Context, dialect policy.Dialect, args Args) (schema.MetadataSource, func(), error) {
	if dialect == policy.Postgres {
		conn, err := e.postgresConnection(args)
		if err != nil {
			return nil, nil, err
		}
		cfg := config.Config{Postgres: conn}
		if err := cfg.ValidatePostgres(); err != nil {
			return nil, nil, toolerr.Wrap(toolerr.ErrInvalidInput, err, "postgres catalog: %v", err)
		}
		src, release, err := e.Postgres(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, toolerr.Upstream(fmt.Errorf("connecting to postgres: %w", err))
		}
		return src, release, nil
	}

	conn, err := e.connection(args)
	if err != nil {
		return nil, nil, err
	}
	return &mysql.Source{Exec: e.MySQL, Conn: conn}, func() {}, nil
}

func diagramRender(env *Env) *Tool {
	return &Tool{
		Name:        "diagram_render",
		Title:       "Render Mermaid Diagram",
		Description: "Validates Mermaid code and returns a rendered SVG image when possible",
		Params: []Param{
			{Name: "code", Type: String, Required: true, Description: "Mermaid diagram source"},
			{Name: "title", Type: String},
			{Name: "database", Type: String, Description: "Database name for default output file naming"},
			{Name: "render_image", Type: Boolean, Default: true, Description: "Render remote SVG image"},
			{Name: "save_file", Type: Boolean, Default: true, Description: "Save SVG to disk"},
			{Name: "outputPath", Type: String, Description: "Optional absolute or relative SVG output path"},
		},
		OpenWorld: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			code, err := args.String("code")
			if err != nil {
				return nil, err
			}
			title, err := args.OptionalString("title")
			if err != nil {
				return nil, err
			}
			database, err := args.OptionalString("database")
			if err != nil {
				return nil, err
			}
			if database == "" {
				database = render.DatabaseHint(code)
			}
			renderImage, err := args.Bool("render_image", true)
			if err != nil {
				return nil, err
			}
			saveFile, err := args.Bool("save_file", true)
			if err != nil {
				return nil, err
			}
			outputPath, err := args.OptionalString("outputPath")
			if err != nil {
				return nil, err
			}
			diagramType, err := render.DetectDiagramType(code)
			if err != nil {
				return nil, err
			}

			text := render.Describe(code, diagramType, title)
			data := map[string]any{
				"title":       title,
				"diagramType": diagramType,
				"mermaid":     code,
				"rendered":    false,
			}
			if !renderImage {
				return textResult(text, data), nil
			}

			path := render.OutputPath(outputPath, database, title, env.WorkDir)
			svg, err := env.renderAndSave(ctx, code, path, saveFile)
			if err != nil {
				env.logger().Warn("svg render failed", env.logger().Args("error", err))
				data["renderError"] = err.Error()
				return textResult(text+"\n\nSVG render fallback: "+err.Error(), data), nil
			}

			data["rendered"] = true
			data["mimeType"] = "image/svg+xml"
			data["saved"] = saveFile
			data["image"] = base64.StdEncoding.EncodeToString([]byte(svg))
			if saveFile {
				data["outputPath"] = path
				text += "\nSaved SVG: " + path
			} else {
				text += "\nSVG file was not saved (save_file=false)."
			}
			return textResult(text, data), nil
		},
	}
}

func (e *Env) renderAndSave(ctx context.Context, code, path string, save bool) (string, error) {
	svg, err := e.Renderer.RenderSVG(ctx, code)
	if err != nil {
		return "", err
	}
	if !save {
		return svg, nil
	}
	if err := e.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(e.Fs, path, []byte(svg), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return svg, nil
}
