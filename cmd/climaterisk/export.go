package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/artifact"
	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/export"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert the processed artifact to Excel or SQLite",
		Long: `Write the processed artifact and its manifest to an Excel workbook
(sheets Scores and Manifest) or a SQLite database (tables scores and manifest).

Examples:
  climaterisk export --format xlsx
  climaterisk export --format sqlite --out scores.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.runExport(cmd.Context(), cmd.OutOrStdout(), f, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "xlsx or sqlite")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default next to the artifact)")
	return cmd
}

func (a *app) runExport(ctx context.Context, w io.Writer, f export.Format, out string) error {
	records, err := artifact.Read(a.cfg.ArtifactPath)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactMissing) {
			return errors.New(domain.ArtifactMissingMessage(a.cfg.ArtifactPath))
		}
		return err
	}

	manifest, err := artifact.ReadManifest(a.cfg.ArtifactPath)
	if err != nil {
		a.logger.Warn("exporting without manifest", "path", a.cfg.ArtifactPath, "error", err)
		manifest = domain.NewManifest(domain.ScoredDataset{Source: a.cfg.ArtifactPath, Records: records})
	}

	if out == "" {
		out = export.DefaultPath(a.cfg.ArtifactPath, f)
	}
	if err := export.Write(ctx, f, out, records, manifest); err != nil {
		return err
	}

	a.logger.Info("artifact exported", "format", f, "path", out, "records", len(records))
	fmt.Fprintln(w, out)
	return nil
}
