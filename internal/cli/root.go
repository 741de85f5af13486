// Package cli implements the onlyonce command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luhtaf/onlyonce/internal/config"
	"github.com/luhtaf/onlyonce/internal/log"
)

// RootOptions holds global flags and the configuration they resolve to.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	Config config.Config
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "onlyonce",
		Short: "Render templates that emit values only once",
		Long: `onlyonce renders text/template files with onlyOnce and onlyOnceWhenOccurs
available to templates, so output can suppress repeated values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", os.Getenv("ONLYONCE_CONFIG"), "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "override logging.format (json|console)")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewKeyCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// load resolves configuration and initializes logging on the command's
// error stream.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	if err := log.InitWithWriter(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr()); err != nil {
		return err
	}
	o.Config = cfg
	return nil
}
