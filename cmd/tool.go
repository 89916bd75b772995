package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/hurou927/xampp-tools/internal/toolerr"
	"github.com/hurou927/xampp-tools/internal/tools"
	"github.com/hurou927/xampp-tools/internal/ui"
)

// errReported marks a failure that was already written in the selected
// output format.
var errReported = errors.New("reported")

var (
	stdinIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
	stdoutIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd())
	}
	askConfirm = func(message string) (bool, error) {
		ok := false
		err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
		return ok, err
	}
)

// flagName turns a parameter name into its flag: show_columns and
// showColumns both become show-columns.
func flagName(param string) string {
	var b strings.Builder
	for i, r := range param {
		switch {
		case r == '_':
			b.WriteByte('-')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// commandName is the subcommand for a tool: query_readonly becomes
// query-readonly.
func commandName(tool string) string {
	return strings.ReplaceAll(tool, "_", "-")
}

func newToolCommand(t *tools.Tool) *cobra.Command {
	c := &cobra.Command{
		Use:   commandName(t.Name),
		Short: t.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := argsFromFlags(t, cmd.Flags())
			if err != nil {
				return err
			}
			if err := confirmIfNeeded(t, args); err != nil {
				return err
			}
			res, err := registry.Call(cmd.Context(), t.Name, args)
			if err != nil {
				return reportError(ui.Out, err)
			}
			return printResult(ui.Out, res)
		},
	}
	if t.Title != "" {
		c.Long = t.Title + "\n\n" + t.Description
	}
	if t.Destructive {
		c.Short += " (destructive)"
	}
	addParamFlags(c.Flags(), t.Params)
	return c
}

func addParamFlags(fs *pflag.FlagSet, params []tools.Param) {
	for _, p := range params {
		name := flagName(p.Name)
		usage := p.Description
		if len(p.Enum) > 0 {
			usage = strings.TrimSpace(usage + " (" + strings.Join(p.Enum, ", ") + ")")
		}
		if p.Required {
			usage = strings.TrimSpace(usage + " [required]")
		}
		switch p.Type {
		case tools.Boolean:
			def, _ := p.Default.(bool)
			fs.Bool(name, def, usage)
		case tools.Number:
			def, _ := p.Default.(int)
			fs.Float64(name, float64(def), usage)
		default:
			def, _ := p.Default.(string)
			fs.String(name, def, usage)
		}
	}
}

// argsFromFlags keeps only the flags the user set, so tool defaults stay
// with the tool.
func argsFromFlags(t *tools.Tool, fs *pflag.FlagSet) (tools.Args, error) {
	args := tools.Args{}
	for _, p := range t.Params {
		name := flagName(p.Name)
		if !fs.Changed(name) {
			continue
		}
		var (
			v   any
			err error
		)
		switch p.Type {
		case tools.Boolean:
			v, err = fs.GetBool(name)
		case tools.Number:
			v, err = fs.GetFloat64(name)
		default:
			v, err = fs.GetString(name)
		}
		if err != nil {
			return nil, fmt.Errorf("reading --%s: %w", name, err)
		}
		args[p.Name] = v
	}
	return args, nil
}

// confirmIfNeeded asks before a guarded tool runs without --confirmed. With
// no terminal attached the tool is left to refuse on its own.
func confirmIfNeeded(t *tools.Tool, args tools.Args) error {
	if !t.NeedsConfirmation() {
		return nil
	}
	if ok, _ := args["confirmed"].(bool); ok {
		return nil
	}
	if !stdinIsTerminal() {
		return nil
	}
	ok, err := askConfirm(fmt.Sprintf("Run %s? This changes data or files.", t.Name))
	if err != nil {
		return fmt.Errorf("confirmation prompt: %w", err)
	}
	if ok {
		args["confirmed"] = true
	}
	return nil
}

type errorOutput struct {
	IsError bool   `json:"isError" yaml:"isError"`
	Code    string `json:"code" yaml:"code"`
	Content string `json:"content" yaml:"content"`
}

// reportError writes tool failures in structured form for json and yaml
// output. Text output leaves the error to Execute.
func reportError(w io.Writer, err error) error {
	out := errorOutput{IsError: true, Code: toolerr.Code(err), Content: err.Error()}
	switch outputFormat {
	case outputJSON:
		if encErr := writeJSON(w, out); encErr != nil {
			return encErr
		}
		return errReported
	case outputYAML:
		if encErr := writeYAML(w, out); encErr != nil {
			return encErr
		}
		return errReported
	}
	return err
}

func printResult(w io.Writer, res *tools.Result) error {
	switch outputFormat {
	case outputJSON:
		return writeJSON(w, res)
	case outputYAML:
		return writeYAML(w, res)
	}
	if strings.Contains(res.Text, "```") && stdoutIsTerminal() {
		ui.PrintMarkdown(res.Text)
		return nil
	}
	_, err := fmt.Fprintln(w, res.Text)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	for _, t := range registry.List() {
		rootCmd.AddCommand(newToolCommand(t))
	}
}
