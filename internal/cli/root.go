package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sitemap-gen",
	Short: "Generate sitemap.xml from a Next.js app directory and blog content",
	Long: `sitemap-gen scans the page tree and the blog content directory, builds a
sitemap following the configured priorities and change frequencies, and
writes it to the output path (keeping a backup of the previous file).`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runGenerate(cmd, readOptions(cmd), dryRun)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "configuration file (default: sitemap.config.yaml in . or ./config)")
	pf.BoolP("verbose", "v", false, "validate the setup before generating and log debug output")
	pf.StringP("output", "o", "", "output path for sitemap.xml")
	pf.StringP("url", "u", "", "base URL of the site")

	rootCmd.Flags().Bool("dry-run", false, "generate the sitemap but don't write it")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(historyCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
