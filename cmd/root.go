package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hurou927/xampp-tools/internal/config"
	"github.com/hurou927/xampp-tools/internal/toolerr"
	"github.com/hurou927/xampp-tools/internal/tools"
	"github.com/hurou927/xampp-tools/internal/ui"
)

// Output formats for tool results.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	cfgPath      string
	verbose      bool
	outputFormat string
	noColor      bool

	cfg *config.Config

	// env is filled in once config is loaded. Tool handlers only read it at
	// call time, so the registry can be built up front for flag parsing.
	env      = &tools.Env{}
	registry = tools.Default(env)
)

var rootCmd = &cobra.Command{
	Use:   "xamppctl",
	Short: "Operate a local XAMPP stack and diagram its MySQL schemas",
	Long: `xamppctl checks and operates a local XAMPP stack (Apache, MySQL, PHP),
runs guarded SQL against MySQL, and introspects a schema into a Mermaid ER
diagram. Every operation is also served over HTTP by "xamppctl serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case outputText, outputJSON, outputYAML:
		default:
			return fmt.Errorf("unknown output format: %s (supported: text, json, yaml)", outputFormat)
		}
		if noColor {
			ui.DisableColor()
		}
		ui.SetVerbose(verbose)

		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		*env = *tools.NewEnv(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default: ./xamppctl.yaml or ~/.config/xamppctl/xamppctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			ui.PrintError(errorCode(err), err.Error())
		}
		os.Exit(1)
	}
}

// errorCode is the wire code for tool failures and empty for usage errors.
func errorCode(err error) string {
	var te *toolerr.Error
	if errors.As(err, &te) {
		return toolerr.Code(err)
	}
	return ""
}
