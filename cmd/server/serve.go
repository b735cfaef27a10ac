package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/database"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/router"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/ws"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/cloudinary"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/mailer"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the SLA monitor",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run AutoMigrate on startup")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("invalid configuration", zap.Error(e))
		}
		return errors.New("configuration is invalid; run check-env for details")
	}
	if !skipMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if _, err := database.SeedConfig(db, database.DefaultSystemConfig); err != nil {
			return fmt.Errorf("seed config: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	mail, err := newMailer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	fcm := service.NewFCMService(ctx, cfg.Firebase.ServiceAccountPath, logger)
	if fcm != nil {
		logger.Info("push notifications enabled")
	}
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limits fail open", zap.Error(err))
		}
	}

	app := router.Setup(router.Deps{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Store:   store,
		Mailer:  mail,
		FCM:     fcm,
		Hub:     ws.NewHub(),
		Logger:  logger,
		Version: version,
	})
	defer app.Close()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		app.Monitor.Run(ctx)
	}()

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Total-Rows"},
		AllowCredentials: true,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      c.Handler(app.Engine),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
			zap.String("storage", store.Name()),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		stop()
		<-monitorDone
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	<-monitorDone
	logger.Info("server stopped")
	return nil
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.CDNURL)
	case "cloudinary":
		cl := cfg.Storage.Cloudinary
		client, err := cloudinary.NewClientFromParams(cl.CloudName, cl.APIKey, cl.APISecret)
		if err != nil {
			return nil, err
		}
		return storage.NewCloudinary(client, cl.Folder), nil
	default:
		return storage.NewLocal(cfg.Storage.LocalDir)
	}
}

func newMailer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (mailer.Mailer, error) {
	if !cfg.Mail.Enabled {
		logger.Info("email disabled, messages are logged only")
		return mailer.NewLog(logger), nil
	}
	return mailer.NewSES(ctx, cfg.Mail.Region, cfg.Mail.From)
}
