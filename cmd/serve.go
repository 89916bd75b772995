package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hurou927/xampp-tools/internal/server"
	"github.com/hurou927/xampp-tools/internal/ui"
)

const shutdownTimeout = 5 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve every tool over HTTP",
	Long: `Starts an HTTP server exposing GET /tools and POST /tools/:name.
The listen address comes from --addr, else server.addr / XAMPP_TOOLS_ADDR.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		srv := server.New(registry, addr)

		errCh := make(chan error, 1)
		go func() {
			ui.Logger.Info("server listening", ui.Logger.Args("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		case <-cmd.Context().Done():
		}

		ui.Logger.Info("shutting down server gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		ui.Logger.Info("server exiting")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8787)")
	rootCmd.AddCommand(serveCmd)
}
