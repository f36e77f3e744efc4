package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/config"
	logpkg "github.com/surfcat/gasdb/internal/logger"
)

// rootOptions holds global flags.
type rootOptions struct {
	Format     string
	Env        string
	ConfigPath string
	LogLevel   string
}

var validFormats = []string{FormatText, FormatJSON}

// newRootCommand builds the gasdb command tree.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gasdb",
		Short: "Reconcile adsorption simulation results",
		Long: `gasdb reconciles simulated adsorption energies with surrogate-model
estimates and with the catalog of candidate sites.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return commandError(fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats))
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return commandError(err) })

	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Env, "env", config.GetEnv(), "environment selecting config/<env>.yaml")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (overrides --env)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(
		newServeCommand(opts),
		newUnsimulatedCommand(opts),
		newLowCoverageCommand(opts),
		newDocumentsCommand(opts),
		newPurgeCommand(opts),
		newFingerprintCommand(opts),
		newSnapshotCommand(opts),
		newVersionCommand(opts),
	)
	return cmd
}

// session is the per-invocation context shared by commands.
type session struct {
	ctx    context.Context
	cfg    config.Config
	logger *zap.Logger
	out    *formatter
}

// loadConfig reads the configuration the flags select.
func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.ConfigPath != "" {
		return config.LoadFile(o.ConfigPath)
	}
	return config.Load(o.Env)
}

// start loads configuration, builds the logger and tags it with a fresh run id.
func (o *rootOptions) start(cmd *cobra.Command, needConfig bool) (*session, error) {
	var cfg config.Config
	if needConfig {
		var err error
		if cfg, err = o.loadConfig(); err != nil {
			return nil, commandError(err)
		}
	}

	level := o.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	env := o.Env
	if env != "prod" {
		env = "local"
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, commandError(err)
	}

	runID := uuid.NewString()
	ctx := logpkg.WithRunID(logpkg.ContextWithLogger(cmd.Context(), logger), runID)
	return &session{
		ctx:    ctx,
		cfg:    cfg,
		logger: logpkg.FromContext(ctx),
		out:    &formatter{format: o.Format, runID: runID, w: cmd.OutOrStdout()},
	}, nil
}

// finish reports err through the formatter and flushes the logger.
func (s *session) finish(err error) error {
	_ = s.logger.Sync()
	if err == nil {
		return nil
	}
	s.out.failure(err)
	return &ExitError{Code: exitCode(err), Err: err, Reported: true}
}

// usageArgs marks the errors of an argument validator as command errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return commandError(validate(cmd, args))
	}
}
