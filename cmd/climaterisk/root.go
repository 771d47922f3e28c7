package main

import (
	"io"
	"log/slog"

	"github.com/couchcryptid/climate-risk-dashboard/internal/config"
	"github.com/couchcryptid/climate-risk-dashboard/internal/observability"
	"github.com/spf13/cobra"
)

// newMetrics is swapped for observability.NewMetricsForTesting in tests, where
// several commands run in one process.
var newMetrics = observability.NewMetrics

// app carries what every subcommand needs once bootstrap has run.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	progress io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "climaterisk",
		Short: "Climate risk scoring and dashboard",
		Long: `Compute a composite climate risk score per country and year from
temperature anomaly, CO2 growth and sea level indicators, then explore it in a
web dashboard.

Typical workflow:
  climaterisk fetch        # download the raw dataset from Kaggle
  climaterisk transform    # write data/processed/processed_data.csv
  climaterisk serve        # open http://localhost:8501

Settings come from environment variables (see README); flags override them.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bootstrap(cmd)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().String("artifact", "", "processed artifact path (env ARTIFACT_PATH)")
	root.PersistentFlags().String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	root.PersistentFlags().String("log-format", "", "json or text (env LOG_FORMAT)")

	root.AddCommand(
		newTransformCmd(a),
		newServeCmd(a),
		newFetchCmd(a),
		newExportCmd(a),
	)
	return root
}

// bootstrap loads the environment config, applies persistent flag overrides
// and builds the logger.
func (a *app) bootstrap(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("artifact") {
		cfg.ArtifactPath, _ = flags.GetString("artifact")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}

	a.cfg = cfg
	a.logger = observability.NewLogger(cfg)
	a.progress = cmd.ErrOrStderr()
	return nil
}
