package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/spf13/cobra"
)

// runGenerate is the root command. With --verbose the setup is validated
// first and any issue aborts before generation starts.
func runGenerate(cmd *cobra.Command, opts options, dryRun bool) error {
	a, err := newApp(cmd, opts, "")
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)

	if opts.Verbose {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), a.manager.Summary())
		if err := checkSetup(cmd, a); err != nil {
			return err
		}
	}

	if dryRun {
		xml, stats, err := a.gen.GenerateWithStats(ctx)
		printSummary(cmd.ErrOrStderr(), a.gen.ErrorSummary())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, xml)
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), Silent("Dry run: nothing was written."))
		printStats(cmd.ErrOrStderr(), stats)
		return nil
	}

	stats, err := a.gen.GenerateAndWrite(ctx)
	printSummary(cmd.ErrOrStderr(), a.gen.ErrorSummary())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%s %s\n", Success("Sitemap written to"), Primary(a.manager.Config().OutputPath))
	printStats(out, stats)
	return nil
}

// checkSetup prints the setup validation and fails on issues.
func checkSetup(cmd *cobra.Command, a *app) error {
	v := a.gen.ValidateSetup()
	for _, w := range v.Warnings {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), Warning("warning: "+w))
	}
	if v.IsValid {
		return nil
	}
	for _, issue := range v.Issues {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), Error("error: "+issue))
	}
	return fmt.Errorf("setup validation failed with %d issue(s)", len(v.Issues))
}

// printSummary prints the error and warning counts of the last run. The
// individual messages have already been logged.
func printSummary(w io.Writer, summary string) {
	if summary == errhandler.NoIssues {
		return
	}
	_, _ = fmt.Fprintln(w, Warning(summary))
}

func printStats(w io.Writer, stats models.Stats) {
	_, _ = fmt.Fprintf(w, "  Total URLs:     %d\n", stats.TotalEntries)
	_, _ = fmt.Fprintf(w, "  Static routes:  %d\n", stats.StaticRoutes)
	_, _ = fmt.Fprintf(w, "  Dynamic routes: %d\n", stats.DynamicRoutes)
	_, _ = fmt.Fprintf(w, "  Blog posts:     %d\n", stats.BlogEntries)
	if stats.Duplicates > 0 {
		_, _ = fmt.Fprintf(w, "  Duplicates:     %d\n", stats.Duplicates)
	}
	_, _ = fmt.Fprintf(w, "  Generated in:   %dms\n", stats.GenerationTimeMs)
}

// commandContext is the command's context, or Background when the command is
// run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
