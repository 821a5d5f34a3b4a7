package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"staybook/internal/app/availability"
	appbooking "staybook/internal/app/booking"
	appoutbox "staybook/internal/app/outbox"
	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
	domainproperty "staybook/internal/domain/property"
	domainreview "staybook/internal/domain/review"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	mongostore "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	outboxworker "staybook/internal/infra/outbox"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
	"staybook/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("starting staybook", "env", cfg.Env, "addr", cfg.HTTPAddr)

	clk := clock.System()

	var (
		bookings   domainbooking.Repository
		properties domainproperty.Repository
		reviews    domainreview.Repository
		payments   domainpayment.Repository
		readyCheck func() error
	)

	users := memory.NewUserRepository()
	messages := memory.NewMessageRepository()

	if cfg.MongoURI != "" {
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Error("mongo connect failed", "error", err)
			os.Exit(1)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Error("mongo ping failed", "error", err)
			os.Exit(1)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			logger.Error("mongo index setup failed", "error", err)
			os.Exit(1)
		}
		bookings = mongostore.NewBookingRepository(client.DB)
		properties = mongostore.NewPropertyRepository(client.DB)
		reviews = mongostore.NewReviewRepository(client.DB)
		payments = mongostore.NewPaymentRepository(client.DB)
		readyCheck = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		logger.Info("storage: mongo", "db", cfg.MongoDB)
	} else {
		bookingRepo := memory.NewBookingRepository()
		bookingRepo.Clock = clk
		bookingRepo.HoldTTL = cfg.PendingHoldTTL
		reviewRepo := memory.NewReviewRepository()
		propertyRepo := memory.NewPropertyRepository()
		propertyRepo.Bookings = bookingRepo
		propertyRepo.Reviews = reviewRepo

		bookings = bookingRepo
		properties = propertyRepo
		reviews = reviewRepo
		payments = memory.NewPaymentRepository()
		logger.Warn("storage: in-memory, data will not survive a restart")
	}

	outbox := memory.NewOutbox()
	availabilitySvc := availability.NewService(bookings, properties, clk, availability.HoldPolicy{
		PendingHoldTTL: cfg.PendingHoldTTL,
	})
	orchestrator := appbooking.NewOrchestrator(appbooking.Params{
		Bookings:     bookings,
		Properties:   properties,
		Availability: availabilitySvc,
		Payments:     memory.NewPaymentsLedger(payments, clk),
		Outbox:       outbox,
		Encoder:      appoutbox.JSONEventEncoder{},
		Clock:        clk,
		Policy: appbooking.Policy{
			AllowRetroactiveStart: cfg.AllowRetroactiveStart,
			PendingHoldTTL:        cfg.PendingHoldTTL,
		},
		Logger: logger,
	})

	var publisher outboxworker.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
		logger.Info("events: kafka", "brokers", cfg.KafkaBrokers)
	} else {
		publisher = logPublisher{logger: logger}
		logger.Warn("events: kafka brokers not configured, logging events instead")
	}

	worker := &outboxworker.Worker{
		Queue:       outbox,
		Producer:    publisher,
		Interval:    cfg.OutboxPollInterval,
		Backoff:     cfg.RetryBackoff,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Logger:      logger,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	var uploader s3.Uploader
	s3Client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	if err != nil {
		logger.Warn("s3 uploader unavailable, photo uploads disabled", "error", err)
		uploader = s3.NoopUploader{}
	} else {
		uploader = s3Client
	}

	registry := prometheus.NewRegistry()
	metrics := obs.NewMetrics(registry)
	middleware := obs.Middleware{Logger: logger, Metrics: metrics}
	limiter := obs.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	health := obs.HealthHandlers{Ready: readyCheck}

	handlers := ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Orchestrator: orchestrator,
			Bookings:     bookings,
			Metrics:      metrics,
		},
		Availability: ginserver.AvailabilityHandler{Service: availabilitySvc},
		Property: ginserver.PropertyHandler{
			Properties: properties,
			Users:      users,
			Uploader:   uploader,
			Clock:      clk,
		},
		Review: ginserver.ReviewHandler{
			Reviews:    reviews,
			Properties: properties,
			Clock:      clk,
		},
		Message: ginserver.MessageHandler{
			Messages: messages,
			Users:    users,
			Clock:    clk,
		},
		Auth: ginserver.AuthHandler{
			Users:  users,
			Hasher: security.BcryptHasher{},
			Clock:  clk,
		},
	}

	srv := ginserver.NewServer(cfg, middleware, health, limiter, registry, handlers)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("staybook stopped")
}

// logPublisher stands in for Kafka during local runs.
type logPublisher struct {
	logger *slog.Logger
}

func (p logPublisher) Publish(_ context.Context, topic string, key string, payload []byte, _ map[string]string) error {
	p.logger.Info("event published", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}
