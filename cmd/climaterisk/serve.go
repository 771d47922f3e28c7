package main

import (
	"context"
	"errors"
	"net/http"

	httpadapter "github.com/couchcryptid/climate-risk-dashboard/internal/adapter/http"
	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/climate-risk-dashboard/internal/dashboard"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Long: `Serve the dashboard, its JSON API and charts from the processed artifact.
The artifact is reloaded when it changes on disk. Without an artifact every
view explains how to produce one.

Examples:
  climaterisk serve
  climaterisk serve --addr :8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTPAddr, _ = cmd.Flags().GetString("addr")
			}
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (env HTTP_ADDR)")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	metrics := newMetrics()

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	store := dashboard.NewStore(cfg.ArtifactPath, metrics, logger)
	if _, err := store.Snapshot(); errors.Is(err, domain.ErrArtifactMissing) {
		logger.Warn(domain.ArtifactMissingMessage(cfg.ArtifactPath))
	} else if err != nil {
		logger.Error("artifact unreadable", "path", cfg.ArtifactPath, "error", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, httpadapter.Options{
		Geocoder: geocoder,
		TopK:     cfg.LeaderboardTopK,
	}, metrics, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("shutdown complete")
		return nil
	})
	return g.Wait()
}
