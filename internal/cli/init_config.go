package cli

import (
	"fmt"

	"github.com/romangod6/sitemap-gen/config"
	"github.com/spf13/cobra"
)

var initConfigCmd = LeafCommand{
	Use:   "init-config",
	Short: "Write the default configuration to sitemap.config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInitConfig(cmd, readOptions(cmd))
	},
}.Build()

func runInitConfig(cmd *cobra.Command, opts options) error {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultConfigFile
	}

	cfg := config.Default()
	cfg.ConfigFile = path
	manager, err := config.NewManagerFromConfig(cfg)
	if err != nil {
		return err
	}
	if err := manager.CreateDefaultConfigFile(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Success("Created"), Primary(path))
	return nil
}
