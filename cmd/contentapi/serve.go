package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tributo.band/site/internal/contentapi"
	"tributo.band/site/internal/notify"
	"tributo.band/site/internal/observability"
	"tributo.band/site/internal/upload"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the content API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	uploadCfg, err := upload.Load(a.cfg.ContentAPI.UploadConfigFile)
	if err != nil {
		return err
	}
	local, err := upload.NewLocal(a.cfg.ContentAPI.UploadsDir, "/uploads", uploadCfg)
	if err != nil {
		return err
	}

	mailer, err := notify.NewMailer(a.cfg.Mail, a.logger)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(mailer, a.cfg.Mail, a.logger)
	defer dispatcher.Close()

	handlers := contentapi.NewHandlers(store,
		contentapi.WithNotifier(dispatcher),
		contentapi.WithUploads(local, uploadCfg),
		contentapi.WithPublicOrigin(a.cfg.ContentAPI.PublicOrigin),
	)

	server := &http.Server{
		Addr:              ":" + a.cfg.ContentAPI.Port,
		Handler:           newRouter(a.logger, handlers),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
	}

	serverLogger := a.logger.Named("http").With(zap.String("addr", server.Addr))
	errCh := make(chan error, 1)
	go func() {
		serverLogger.Info("content api listening", zap.String("uploads", local.Dir()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

func newRouter(logger *zap.Logger, handlers *contentapi.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.InjectLoggerMiddleware(logger))
	r.Use(observability.RequestLoggerMiddleware)
	r.Use(observability.RecoveryMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	handlers.Routes(r)
	return r
}
