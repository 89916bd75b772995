package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurou927/xampp-tools/internal/tools"
	"github.com/hurou927/xampp-tools/internal/ui"
)

var (
	analyzeFormat    string
	analyzeDialect   string
	analyzeTables    string
	analyzeNoColumns bool
	analyzeNoTypes   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <database>",
	Short: "Print the ER diagram of a database",
	Long: `Introspects the database schema, builds the FK graph and prints it as raw
Mermaid (pipe it to a .mmd file) or as an indented text tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolArgs := tools.Args{
			"database":     args[0],
			"format":       analyzeFormat,
			"dialect":      analyzeDialect,
			"show_columns": !analyzeNoColumns,
			"show_types":   !analyzeNoTypes,
		}
		if analyzeTables != "" {
			toolArgs["tables"] = analyzeTables
		}

		res, err := registry.Call(cmd.Context(), "diagram_er", toolArgs)
		if err != nil {
			return reportError(ui.Out, err)
		}
		if outputFormat != outputText {
			return printResult(ui.Out, res)
		}

		out := res.Text
		if analyzeFormat == tools.FormatMermaid {
			out, _ = res.Data["mermaid"].(string)
		}
		_, err = fmt.Fprintln(ui.Out, out)
		return err
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", tools.FormatMermaid, "output format: mermaid or text")
	analyzeCmd.Flags().StringVar(&analyzeDialect, "dialect", "mysql", "catalog dialect: mysql or postgres")
	analyzeCmd.Flags().StringVar(&analyzeTables, "tables", "", "comma-separated table filter")
	analyzeCmd.Flags().BoolVar(&analyzeNoColumns, "no-columns", false, "omit column lines")
	analyzeCmd.Flags().BoolVar(&analyzeNoTypes, "no-types", false, "omit column types")
	rootCmd.AddCommand(analyzeCmd)
}
