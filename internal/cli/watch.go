package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/romangod6/sitemap-gen/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = LeafCommand{
	Use:   "watch",
	Short: "Regenerate the sitemap whenever pages or blog posts change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd, readOptions(cmd))
	},
}.Build()

// runWatch writes the sitemap once and then again after every batch of
// changes, until ctx is done. Failed regenerations are reported and the
// watch goes on.
func runWatch(ctx context.Context, cmd *cobra.Command, opts options) error {
	a, err := newApp(cmd, opts, "watch")
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	regenerate := func(ctx context.Context) {
		stats, err := a.gen.GenerateAndWrite(ctx)
		if err != nil {
			_, _ = fmt.Fprintln(out, Error("Generation failed: "+err.Error()))
			return
		}
		_, _ = fmt.Fprintf(out, "%s %d URLs (%s)\n", Success("Sitemap updated:"), stats.TotalEntries, a.gen.ErrorSummary())
	}

	regenerate(ctx)

	paths := a.manager.Settings().Paths
	w := watcher.New([]string{paths.AppPath(), paths.BlogPath()}, func(ctx context.Context, changed []string) {
		a.logger.LogInfo("%d file(s) changed, regenerating", len(changed))
		for _, name := range changed {
			a.logger.LogDebug("  %s", name)
		}
		regenerate(ctx)
	}, a.logger)

	_, _ = fmt.Fprintln(out, Silent("Watching "+paths.AppPath()+" and "+paths.BlogPath()+" (Ctrl+C to stop)"))
	return w.Run(ctx)
}
