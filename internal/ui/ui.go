// Package ui renders terminal output for the CLI.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	keyColor  = color.New(color.FgCyan, color.Bold)
	codeColor = color.New(color.FgYellow)
)

// Out and Err are where printers write. Tests may replace them.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...any) {
	fmt.Fprintln(Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintError prints an error message to Err, with its wire code when set.
func PrintError(code, message string) {
	line := "✗ " + message
	if code != "" {
		line = fmt.Sprintf("✗ [%s] %s", codeColor.Sprint(code), message)
	}
	fmt.Fprintln(Err, ErrorStyle.Render(line))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(Out, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintTitle prints a bold heading followed by a dim subtitle.
func PrintTitle(title, subtitle string) {
	fmt.Fprintln(Out, TitleStyle.Render(title))
	if subtitle != "" {
		fmt.Fprintln(Out, SecondaryStyle.Render(subtitle))
	}
}

// PrintKV prints an aligned key/value line.
func PrintKV(key string, value any) {
	fmt.Fprintf(Out, "  %s %v\n", keyColor.Sprintf("%-14s", key+":"), value)
}

// PrintTable prints a table using pterm
func PrintTable(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(Out).WithData(data).Render()
}

// PrintMarkdown renders markdown content, falling back to the raw text when
// the renderer cannot be built.
func PrintMarkdown(content string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprintln(Out, content)
		return
	}
	out, err := r.Render(content)
	if err != nil {
		fmt.Fprintln(Out, content)
		return
	}
	fmt.Fprint(Out, out)
}

// DisableColor turns off styling, e.g. for --no-color or non-TTY output.
func DisableColor() {
	color.NoColor = true
	pterm.DisableStyling()
}
