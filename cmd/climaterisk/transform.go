package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/artifact"
	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/csvsource"
	kafkaadapter "github.com/couchcryptid/climate-risk-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/climate-risk-dashboard/internal/config"
	"github.com/couchcryptid/climate-risk-dashboard/internal/pipeline"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type transformOptions struct {
	fetch bool
}

func newTransformCmd(a *app) *cobra.Command {
	var opts transformOptions

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Score the raw dataset and write the processed artifact",
		Long: `Read the raw dataset, compute z-scores, normalized CO2 growth and the
weighted risk score, and write the artifact with its JSON manifest.

Rows that cannot be parsed are skipped with a warning; rows with missing
indicators follow missing_policy in the scoring config (default drop).

Examples:
  climaterisk transform
  climaterisk transform --input data/raw/climate_risk_index.csv
  climaterisk transform --fetch --scoring configs/scoring.yaml
  climaterisk transform --kafka`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("input") {
				a.cfg.DatasetPath, _ = flags.GetString("input")
			}
			if flags.Changed("scoring") {
				a.cfg.ScoringConfig, _ = flags.GetString("scoring")
			}
			if flags.Changed("kafka") {
				a.cfg.KafkaEnabled, _ = flags.GetBool("kafka")
			}
			return a.runTransform(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().String("input", "", "raw CSV file or directory (env DATASET_PATH)")
	cmd.Flags().String("scoring", "", "scoring config YAML (env SCORING_CONFIG)")
	cmd.Flags().Bool("kafka", false, "also publish scored records to Kafka (env KAFKA_ENABLED)")
	cmd.Flags().BoolVar(&opts.fetch, "fetch", false, "download the dataset from Kaggle first")
	return cmd
}

func (a *app) runTransform(ctx context.Context, out io.Writer, opts transformOptions) error {
	if opts.fetch {
		if _, err := a.fetchDataset(ctx, out); err != nil {
			return err
		}
	}

	scoring, err := config.LoadScoring(a.cfg.ScoringConfig)
	if err != nil {
		return err
	}

	metrics := newMetrics()
	var pipelineOpts []pipeline.Option
	if a.cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(a.cfg, metrics, a.logger)
		defer func() {
			if err := w.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}()
		pipelineOpts = append(pipelineOpts, pipeline.WithOptional(w))
		a.logger.Info("kafka publishing enabled", "brokers", a.cfg.KafkaBrokers, "topic", a.cfg.KafkaTopic)
	}

	p := pipeline.New(
		csvsource.NewReader(a.cfg.DatasetPath, scoring.BaseYear, a.logger),
		pipeline.NewTransformer(scoring, a.logger),
		artifact.NewWriter(a.cfg.ArtifactPath, a.logger),
		a.logger,
		metrics,
		pipelineOpts...,
	)
	summary, runErr := p.Run(ctx)

	if a.cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := metrics.Push(pushCtx, a.cfg.PushgatewayURL); err != nil {
			a.logger.Warn("metrics push failed", "error", err)
		}
		cancel()
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(out, "Wrote %s records from %s to %s in %s\n",
		humanize.Comma(int64(summary.Records)), summary.Source, a.cfg.ArtifactPath,
		summary.Duration.Round(time.Millisecond))
	if line := formatSkipped(summary.Skipped); line != "" {
		fmt.Fprintf(out, "Skipped rows: %s\n", line)
	}
	return nil
}

func formatSkipped[K ~string](skipped map[K]int) string {
	parts := make([]string, 0, len(skipped))
	for reason, n := range skipped {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
