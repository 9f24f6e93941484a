package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/genhoi/unit/internal/configdoc"
	"github.com/genhoi/unit/internal/logging"
	"github.com/genhoi/unit/internal/server"
	"github.com/genhoi/unit/pkg/config"
)

func serveCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP/1.x engine and config document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(env)
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment overlay to merge on top of the default config")
	return cmd
}

func runServe(env string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging.Level)

	router := chi.NewRouter()
	srv, err := server.New(cfg, router, log)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	if cfg.ConfigFile.Path != "" {
		if _, statErr := fs.Stat(cfg.ConfigFile.Path); statErr == nil {
			doc, err := configdoc.Open(fs, cfg.ConfigFile.Path, log)
			if err != nil {
				return err
			}
			srv.MountConfig("/config", doc)

			if cfg.ConfigFile.WatchEnabled {
				watchCtx, cancel := context.WithCancel(context.Background())
				defer cancel()
				go func() {
					if err := doc.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
						log.WithError(err).Warn("config watch stopped")
					}
				}()
			}
		} else {
			log.WithField("path", cfg.ConfigFile.Path).Warn("config file not found, /config routes disabled")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("addr", srv.Addr().String()).Info("listening")
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
