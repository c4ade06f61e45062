package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-importer/internal/buildinfo"
	"github.com/insightdelivered/statement-importer/internal/config"
	"github.com/insightdelivered/statement-importer/internal/ingest"
	"github.com/insightdelivered/statement-importer/internal/logging"
)

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "statement-importer",
		Short:   "Import Brazilian bank statements into a personal ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(newParseCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// load reads the configuration and builds the logger. Logs go to the
// command's stderr so stdout stays clean for table and JSON output.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, logging.New(cmd.ErrOrStderr(), cfg.Log.Level), nil
}

func newParser(cfg *config.Config, logger *log.Logger) *ingest.Service {
	return ingest.New(logger, ingest.Options{StrictDates: cfg.Import.StrictDates})
}
