package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/credential-relay/internal/application/credential"
	"github.com/credential-relay/internal/application/notification"
	"github.com/credential-relay/internal/config"
	"github.com/credential-relay/internal/infrastructure/dynamo"
	jwtinfra "github.com/credential-relay/internal/infrastructure/jwt"
	"github.com/credential-relay/internal/infrastructure/memory"
	s3infra "github.com/credential-relay/internal/infrastructure/s3"
	"github.com/credential-relay/internal/infrastructure/smtp"
	"github.com/credential-relay/internal/infrastructure/sns"
	"github.com/credential-relay/internal/infrastructure/templates"
	"github.com/credential-relay/internal/observability/metrics"
	"github.com/credential-relay/internal/pkg/logger"
	transporthttp "github.com/credential-relay/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	logger.New(cfg.LogLevel)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	metrics.MustRegister()

	ctx := context.Background()

	src, err := templateSource(cfg)
	if err != nil {
		slog.Error("template source", "err", err)
		os.Exit(1)
	}

	router := notification.Router{Email: smtp.NewMailer(cfg)}
	if cfg.SNSEnabled {
		if sender, err := sns.NewSender(cfg); err == nil {
			router.SMS = sender
		} else {
			slog.Warn("sns sender not available, sms disabled", "err", err)
		}
	}

	dispatcher := notification.NewDispatcher(&router, notification.Config{
		MaxAttempts:    cfg.DeliveryMaxAttempts,
		InitialBackoff: cfg.DeliveryInitialBackoff,
		AttemptTimeout: cfg.DeliveryAttemptTimeout,
	})

	deps := credential.ServiceDeps{
		Store: memory.NewCredentialStore(memory.StoreConfig{
			TTL:      cfg.CredentialTTL,
			HashCost: cfg.CredentialHashCost,
		}),
		Cooldown:   memory.NewCooldown(cfg.SendCooldown, nil),
		Renderer:   templates.NewRenderer(src),
		Deliverer:  dispatcher,
		Brand:      cfg.BrandName,
		SMSEnabled: router.SupportsSMS(),
	}

	if cfg.AuditEnabled {
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			slog.Error("dynamodb client", "err", err)
			os.Exit(1)
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTableDeliveries)
		deps.Audit = dynamo.NewDeliveryRepo(client, cfg.DynamoTableDeliveries)
	}

	// JWT provider (optional, session tokens are skipped without keys).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		slog.Warn("jwt provider not available", "err", err)
	}

	handler, closeRouter := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		CredentialSvc: credential.NewService(deps),
		JWTProvider:   jwtProvider,
	})
	defer closeRouter()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: deliveryBudget(cfg) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "sms", router.SupportsSMS(), "audit", cfg.AuditEnabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}

// templateSource picks S3, then a local directory, then the embedded defaults.
func templateSource(cfg *config.Config) (templates.Source, error) {
	switch {
	case cfg.TemplateS3Bucket != "":
		client, err := s3infra.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("loading templates from s3", "bucket", cfg.TemplateS3Bucket, "prefix", cfg.TemplateS3Prefix)
		return s3infra.NewTemplateSource(client, cfg.TemplateS3Bucket, cfg.TemplateS3Prefix), nil
	case cfg.TemplateDir != "":
		slog.Info("loading templates from directory", "dir", cfg.TemplateDir)
		return templates.Dir(cfg.TemplateDir), nil
	}
	return templates.Defaults(), nil
}

// deliveryBudget is the worst-case time a single dispatch can take.
func deliveryBudget(cfg *config.Config) time.Duration {
	total := time.Duration(cfg.DeliveryMaxAttempts) * cfg.DeliveryAttemptTimeout
	backoff := cfg.DeliveryInitialBackoff
	for i := 1; i < cfg.DeliveryMaxAttempts; i++ {
		total += backoff
		backoff *= 2
	}
	return total
}
