package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cfgpkg "github.com/local/pdfextract/internal/config"
	"github.com/local/pdfextract/internal/metrics"
	"github.com/local/pdfextract/internal/pdfinfo"
	"github.com/local/pdfextract/internal/web"
)

func newServeCmd(cfg *cfgpkg.Config) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the PDF upload form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = cfg.Web.Port
			}
			return serve(cmd.Context(), *cfg, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (defaults to $PORT or 7860)")
	return cmd
}

func serve(ctx context.Context, cfg cfgpkg.Config, port string) error {
	metrics.Init()

	orch := newOrchestrator(cfg)
	w := web.New(orch, pdfinfo.New(), web.Options{
		Title:       cfg.Web.Title,
		Username:    cfg.Web.Username,
		Password:    cfg.Web.Password,
		MaxUploadMB: cfg.Web.MaxUploadMB,
	})
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           w.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("output_dir", orch.OutputDir()).Msg("Starting PDF upload server...")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			log.Error().Err(err).Msg("http server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}
