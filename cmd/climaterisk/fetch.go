package main

import (
	"context"
	"fmt"
	"io"

	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/kaggle"
	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the raw dataset from Kaggle",
		Long: `Download the dataset archive from the Kaggle API and extract it into the
raw data directory. Requires KAGGLE_USERNAME and KAGGLE_KEY.

Examples:
  climaterisk fetch
  climaterisk fetch --dataset owner/slug --dest data/raw`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("dataset") {
				a.cfg.KaggleDataset, _ = flags.GetString("dataset")
			}
			if flags.Changed("dest") {
				a.cfg.RawDir, _ = flags.GetString("dest")
			}
			_, err := a.fetchDataset(cmd.Context(), cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().String("dataset", "", "Kaggle dataset as owner/slug (env KAGGLE_DATASET)")
	cmd.Flags().String("dest", "", "directory to extract into (env RAW_DIR)")
	return cmd
}

func (a *app) fetchDataset(ctx context.Context, out io.Writer) ([]string, error) {
	client := kaggle.NewClient(a.cfg.KaggleUsername, a.cfg.KaggleKey, a.cfg.KaggleTimeout, a.progress, a.logger)
	files, err := client.Fetch(ctx, a.cfg.KaggleDataset, a.cfg.RawDir)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	return files, nil
}
