package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/internal/config"
	"github.com/crimson-sun/timber/internal/logging"
)

// rootOptions is shared by all subcommands.
type rootOptions struct {
	cfgFile  string
	logLevel string
	logJSON  bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "timber",
		Short: "Concurrent memory-based classification",
		Long: `Timber trains a memory-based (k-nearest-neighbor) classifier from labeled
instances and classifies instance lines with many workers in parallel. Each
worker owns a private clone of the trained experiment.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "log as JSON")

	cmd.AddCommand(newClassifyCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// load reads the config file and environment, then applies the persistent
// flags and sets up logging.
func (o *rootOptions) load(cmd *cobra.Command) error {
	if o.cfgFile != "" {
		cfg, err := config.LoadFile(o.cfgFile)
		if err != nil {
			return err
		}
		o.cfg = cfg
	} else {
		o.cfg = config.Load()
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		o.cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-json") {
		o.cfg.Log.JSON = o.logJSON
	}

	o.logger = logging.New(cmd.ErrOrStderr(), o.cfg.Log.JSON, logging.ParseLevel(o.cfg.Log.Level))
	slog.SetDefault(o.logger)
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "timber:", err)
		os.Exit(1)
	}
}
