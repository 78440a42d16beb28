package cli

import (
	"fmt"

	"github.com/romangod6/sitemap-gen/internal/crawler"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/spf13/cobra"
)

var verifyCmd = LeafCommand{
	Use:   "verify",
	Short: "Visit every URL of a sitemap and report broken or noindex pages",
	StrFlags: []StringFlag{
		{Name: "sitemap", Usage: "sitemap file or http(s) URL (default: the configured output path)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("sitemap")
		return runVerify(cmd, readOptions(cmd), source)
	},
}.Build()

func runVerify(cmd *cobra.Command, opts options, source string) error {
	a, err := newApp(cmd, opts, "")
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	if source == "" {
		source = a.manager.Config().OutputPath
	}

	var sitemap *models.Sitemap
	if models.IsValidSitemapURL(source) {
		sitemap, err = crawler.FetchSitemap(ctx, source)
	} else {
		sitemap, err = crawler.ParseSitemapFile(source)
	}
	if err != nil {
		return fmt.Errorf("failed to load sitemap %s: %w", source, err)
	}

	urls := make([]string, 0, len(sitemap.URLs))
	for _, u := range sitemap.URLs {
		urls = append(urls, u.Loc)
	}

	vc := a.manager.Settings().Verify
	verifier := crawler.NewVerifier(crawler.VerifierConfig{
		UserAgent:   vc.UserAgent,
		Parallelism: vc.Parallelism,
		Timeout:     vc.GetTimeout(),
	}, a.logger)

	report, err := verifier.Verify(ctx, urls)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range report.Results {
		switch {
		case !r.OK:
			_, _ = fmt.Fprintf(out, "%s %s %s\n", Error("BROKEN "), r.URL, Silent(describeFailure(r)))
		case r.Meta != nil && r.Meta.NoIndex:
			_, _ = fmt.Fprintf(out, "%s %s\n", Warning("NOINDEX"), r.URL)
		default:
			if opts.Verbose {
				_, _ = fmt.Fprintf(out, "%s %s\n", Success("OK     "), r.URL)
			}
		}
	}
	_, _ = fmt.Fprintf(out, "Checked %d URLs: %d ok, %d broken, %d noindex\n",
		report.Checked, report.OK, report.Broken, report.NoIndex)

	if report.Broken > 0 {
		return fmt.Errorf("%d of %d URLs are broken", report.Broken, report.Checked)
	}
	return nil
}

func describeFailure(r crawler.Result) string {
	if r.StatusCode != 0 {
		return fmt.Sprintf("(%d %s)", r.StatusCode, r.Error)
	}
	return "(" + r.Error + ")"
}
