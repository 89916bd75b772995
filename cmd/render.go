package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hurou927/xampp-tools/internal/render"
	"github.com/hurou927/xampp-tools/internal/toolerr"
	"github.com/hurou927/xampp-tools/internal/tools"
	"github.com/hurou927/xampp-tools/internal/ui"
)

var (
	renderWatch      bool
	renderOutputPath string
	renderNoSave     bool
	renderTitle      string
	renderDatabase   string
)

var renderCmd = &cobra.Command{
	Use:   "render <file.mmd>",
	Short: "Render a Mermaid file to SVG, optionally re-rendering on change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		once := func(ctx context.Context) error {
			return renderFile(ctx, file)
		}
		if !renderWatch {
			return once(cmd.Context())
		}

		w, err := render.NewWatcher(file, once, func(err error) {
			ui.PrintError(errorCode(err), err.Error())
		})
		if err != nil {
			return err
		}
		ui.Logger.Info("watching for changes", ui.Logger.Args("file", file))
		if err := w.Run(cmd.Context()); err != nil && cmd.Context().Err() == nil {
			return err
		}
		return nil
	},
}

func renderFile(ctx context.Context, file string) error {
	code, err := afero.ReadFile(env.Fs, file)
	if err != nil {
		return toolerr.Wrap(toolerr.ErrNotFound, err, "reading %s: %v", file, err)
	}
	args := tools.Args{"code": string(code)}
	if renderOutputPath != "" {
		args["outputPath"] = renderOutputPath
	}
	if renderNoSave {
		args["save_file"] = false
	}
	if renderTitle != "" {
		args["title"] = renderTitle
	}
	if renderDatabase != "" {
		args["database"] = renderDatabase
	}

	res, err := registry.Call(ctx, "diagram_render", args)
	if err != nil {
		return reportError(ui.Out, err)
	}
	if outputFormat != outputText {
		return printResult(ui.Out, res)
	}
	if msg, ok := res.Data["renderError"].(string); ok {
		ui.PrintWarning("SVG render failed: %s", msg)
		return nil
	}
	if path, ok := res.Data["outputPath"].(string); ok {
		ui.PrintSuccess("Saved SVG: %s", path)
		return nil
	}
	_, err = fmt.Fprintln(ui.Out, res.Text)
	return err
}

func init() {
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "re-render whenever the file changes")
	renderCmd.Flags().StringVar(&renderOutputPath, "output-path", "", "SVG output path (default: diagrams/<name>.svg)")
	renderCmd.Flags().BoolVar(&renderNoSave, "no-save", false, "render without saving the SVG")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "diagram title, also used for the file name")
	renderCmd.Flags().StringVar(&renderDatabase, "database", "", "database name for the default file name")
	rootCmd.AddCommand(renderCmd)
}
