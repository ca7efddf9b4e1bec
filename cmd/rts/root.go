package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/metrics"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath  string
	logLevel    string
	metricsFile string

	cfg     *config.Config
	metrics *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "rts",
		Short:         "Select the regression tests affected by a source change",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.writeMetrics()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")

	root.AddCommand(
		newSelectCmd(a),
		newIndexCmd(a),
		newSearchCmd(a),
		newCompareCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return errors.New(errors.ErrInvalidInput, errors.ExitUsage, err.Error())
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = a.metricsFile
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	a.cfg = cfg
	a.metrics = metrics.New(nil)
	slog.Debug("configuration loaded",
		"config", a.configPath,
		"data_dir", cfg.Index.DataDir,
		"lines", cfg.Query.Lines,
		"limit", cfg.Selection.Limit,
	)
	return nil
}

func (a *app) writeMetrics() error {
	if a.cfg == nil || !a.cfg.Metrics.Enabled || a.cfg.Metrics.Textfile == "" {
		return nil
	}
	return a.metrics.WriteTextfile(a.cfg.Metrics.Textfile)
}

// limit resolves the per-query hit count, falling back to the config.
func (a *app) limit(n int) int {
	if n > 0 {
		return n
	}
	return a.cfg.Selection.Limit
}
