package cli

import (
	"errors"
	"fmt"

	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/spf13/cobra"
)

var historyCmd = LeafCommand{
	Use:   "history",
	Short: "List recorded generation runs",
	IntFlags: []IntFlag{
		{Name: "limit", Usage: "number of runs to show", Default: 10},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runHistory(cmd, readOptions(cmd), limit)
	},
}.Build()

var errHistoryDisabled = errors.New("run history is disabled: set database.url in the configuration")

func runHistory(cmd *cobra.Command, opts options, limit int) error {
	a, err := newApp(cmd, opts, "")
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store == nil {
		return errHistoryDisabled
	}
	if limit < 1 {
		limit = 10
	}

	runs, err := a.store.ListRuns(commandContext(cmd), limit, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, Silent("No generation runs recorded."))
		return nil
	}

	for _, run := range runs {
		status := Success(run.Status)
		if run.Status == models.RunFailed {
			status = Error(run.Status)
		}
		written := ""
		if run.Written {
			written = " written"
		}
		_, _ = fmt.Fprintf(out, "%s  %s  %-9s %4d URLs%s  %s\n",
			Silent(run.ID.String()[:8]),
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			run.Stats.TotalEntries,
			written,
			Silent(fmt.Sprintf("%d errors, %d warnings", len(run.Errors), len(run.Warnings))),
		)
	}
	return nil
}
