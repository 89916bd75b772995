package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hurou927/xampp-tools/internal/tools"
	"github.com/hurou927/xampp-tools/internal/ui"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available tools and their parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := registry.List()
		switch outputFormat {
		case outputJSON:
			return writeJSON(ui.Out, list)
		case outputYAML:
			return writeYAML(ui.Out, list)
		}

		rows := make([][]string, 0, len(list))
		for _, t := range list {
			rows = append(rows, []string{
				commandName(t.Name),
				hints(t),
				strconv.Itoa(len(t.Params)),
				t.Description,
			})
		}
		return ui.PrintTable([]string{"command", "hints", "params", "description"}, rows)
	},
}

func hints(t *tools.Tool) string {
	var h []string
	if t.ReadOnly {
		h = append(h, "read-only")
	}
	if t.Destructive {
		h = append(h, "destructive")
	}
	if t.NeedsConfirmation() {
		h = append(h, "confirm")
	}
	if t.OpenWorld {
		h = append(h, "open-world")
	}
	return strings.Join(h, ",")
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
