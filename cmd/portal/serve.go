package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/RigelNana/vitalicio/auth"
	"github.com/RigelNana/vitalicio/config"
	"github.com/RigelNana/vitalicio/database"
	"github.com/RigelNana/vitalicio/events"
	httphandler "github.com/RigelNana/vitalicio/handler/http"
	"github.com/RigelNana/vitalicio/notify"
	"github.com/RigelNana/vitalicio/pkg/metrics"
	"github.com/RigelNana/vitalicio/repository"
	"github.com/RigelNana/vitalicio/service"
	"github.com/RigelNana/vitalicio/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the metrics server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Auth.RequireSigning(); err != nil {
			return err
		}
		logger := newLogger(cfg.Log.Level)
		if logger.GetLevel() < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		logger.Info("数据库连接成功")

		store, err := storage.NewMinIOStore(ctx, &cfg.MinIO, logger)
		if err != nil {
			return err
		}

		var publisher events.Publisher = events.Nop{}
		if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
			publisher = events.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
			logger.WithField("brokers", brokers).Info("publishing catalog events to kafka")
		}
		defer publisher.Close()

		provider, err := auth.NewLocalProvider(repository.NewAccountRepository(db), auth.LocalProviderArgs{
			Secret:    []byte(cfg.Auth.JWTSecret),
			Expiry:    time.Duration(cfg.Auth.JWTExpireMins) * time.Minute,
			TokenFile: cfg.Auth.TokenFile,
		}, logger)
		if err != nil {
			return err
		}

		tokens, err := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.JWTExpireMins)*time.Minute)
		if err != nil {
			return err
		}

		toasts := notify.NewQueue(notify.Options{TTL: cfg.Notify.TTL, MaxVisible: cfg.Notify.MaxVisible})
		opts := service.SessionOptions{AdminEmail: cfg.Auth.AdminEmail}
		if cfg.Auth.BypassEnabled {
			opts.Bypass = &service.BypassCredentials{Email: cfg.Auth.BypassEmail, Password: cfg.Auth.BypassPassword}
			logger.Warn("admin bypass credentials are enabled")
		}

		portal := service.NewPortal(
			service.NewSessionManager(provider, toasts, opts, logger),
			service.NewCatalogStore(repository.NewMaterialRepository(db), repository.NewCommentRepository(db), publisher, toasts, logger),
			service.NewSettingsStore(repository.NewSettingsRepository(db), publisher, toasts, logger),
			service.NewUploadPipeline(store, publisher, toasts, service.UploadOptions{Bucket: cfg.MinIO.BucketName, MaxBytes: cfg.Upload.MaxBytes}, logger),
			toasts,
			logger,
		)
		defer portal.Close()

		if u, err := portal.Start(ctx); err != nil {
			logger.WithError(err).Warn("session restore failed")
		} else if u != nil {
			logger.WithField("user_id", u.ID).Info("session restored")
		}

		metricsServer := metrics.StartMetricsServer(cfg.Metrics.Port)
		logger.Infof("Prometheus metrics server started on :%s", cfg.Metrics.Port)

		server := &http.Server{
			Addr:    ":" + cfg.HTTP.Port,
			Handler: httphandler.Setup(httphandler.NewHandler(portal, tokens, logger)),
		}
		errCh := make(chan error, 1)
		go func() {
			logger.Infof("HTTP server listening on :%s", cfg.HTTP.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("http shutdown")
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("metrics shutdown")
		}
		return nil
	},
}
