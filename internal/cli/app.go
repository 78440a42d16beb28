package cli

import (
	"fmt"

	"github.com/romangod6/sitemap-gen/config"
	"github.com/romangod6/sitemap-gen/internal/sitemap"
	"github.com/romangod6/sitemap-gen/internal/storage"
	"github.com/romangod6/sitemap-gen/internal/utils"
	"github.com/spf13/cobra"
)

// options are the global flags shared by every command.
type options struct {
	ConfigPath string
	Verbose    bool
	Output     string
	BaseURL    string
}

func readOptions(cmd *cobra.Command) options {
	var o options
	o.ConfigPath, _ = cmd.Flags().GetString("config")
	o.Verbose, _ = cmd.Flags().GetBool("verbose")
	o.Output, _ = cmd.Flags().GetString("output")
	o.BaseURL, _ = cmd.Flags().GetString("url")
	return o
}

// app is everything a command needs to run the generator.
type app struct {
	manager *config.Manager
	logger  *utils.Logger
	store   storage.Store
	gen     *sitemap.Generator
}

// newApp loads the configuration, applies the flag overrides and builds the
// generator. Long running commands pass a logName to also log to a file under
// the logs directory.
func newApp(cmd *cobra.Command, opts options, logName string) (*app, error) {
	manager, err := config.NewManager(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	var update config.Update
	if opts.Output != "" {
		update.OutputPath = &opts.Output
	}
	if opts.BaseURL != "" {
		update.BaseURL = &opts.BaseURL
	}
	if err := manager.UpdateConfig(update); err != nil {
		return nil, err
	}

	settings := manager.Settings()
	a := &app{manager: manager}

	if logName != "" {
		logger, err := utils.NewFileLogger(settings.Paths.LogsPath(), logName, opts.Verbose)
		if err != nil {
			a.logger = utils.NewLogger(cmd.ErrOrStderr(), opts.Verbose)
			a.logger.LogWarn("Logging to the console only: %v", err)
		} else {
			a.logger = logger
		}
	} else {
		a.logger = utils.NewLogger(cmd.ErrOrStderr(), opts.Verbose)
	}

	genOpts := []sitemap.Option{sitemap.WithLogger(a.logger)}
	if settings.Database.URL != "" {
		store, err := storage.Open(settings.Database.Driver, settings.Database.URL)
		if err != nil {
			a.logger.Close()
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		a.store = store
		genOpts = append(genOpts, sitemap.WithHistory(store))
	}

	a.gen = sitemap.New(manager, genOpts...)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.LogError("Failed to close history database: %v", err)
		}
	}
	a.logger.Close()
}
