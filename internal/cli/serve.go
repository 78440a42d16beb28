package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/romangod6/sitemap-gen/internal/api"
	"github.com/spf13/cobra"
)

var serveCmd = LeafCommand{
	Use:   "serve",
	Short: "Serve the sitemap and the configuration API over HTTP",
	IntFlags: []IntFlag{
		{Name: "port", Usage: "port to listen on (default: server.port from the configuration)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cmd, readOptions(cmd), port)
	},
}.Build()

// runServe blocks until ctx is done, then shuts the server down gracefully.
func runServe(ctx context.Context, cmd *cobra.Command, opts options, port int) error {
	a, err := newApp(cmd, opts, "serve")
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.manager.Settings().Server.Port
	}
	server := api.NewServer(port, a.gen, a.store, a.logger)

	errCh := make(chan error, 1)
	go func() {
		a.logger.LogInfo("Starting API server on port %d", port)
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start API server: %w", err)
	case <-ctx.Done():
	}

	a.logger.LogInfo("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.logger.LogInfo("Server shut down gracefully")
	return nil
}
