package main

import (
	"context"
	"fmt"
	"log/slog"

	analyticsService "verigate/internal/analytics/service"
	handshakeService "verigate/internal/handshake/service"
	handshakeStore "verigate/internal/handshake/store"
	"verigate/internal/handshake/workers/cleanup"
	"verigate/internal/platform/config"
	"verigate/internal/platform/database"
	"verigate/internal/platform/health"
	"verigate/internal/platform/kafka"
	"verigate/internal/platform/kafka/producer"
	"verigate/internal/platform/redis"
	statusService "verigate/internal/status/service"
	statusStore "verigate/internal/status/store"
	submissionService "verigate/internal/submission/service"
	submissionStore "verigate/internal/submission/store"
	"verigate/migrations"
)

type handshakeBackend interface {
	handshakeService.Store
	cleanup.ExpiringStore
}

type ledgerBackend interface {
	statusService.Ledger
	analyticsService.LedgerReader
}

type subjectBackend interface {
	statusService.SubjectStore
	analyticsService.SubjectCounter
}

type submissionBackend interface {
	submissionService.Store
	analyticsService.SubmissionReader
}

type ledgerProducer interface {
	ProduceAsync(msg *producer.Message) error
	Close() error
}

// infra holds the storage and messaging backends selected from config.
// Every external system is optional and falls back to an in-process version.
type infra struct {
	storage     string
	subjects    subjectBackend
	ledger      ledgerBackend
	submissions submissionBackend
	handshakes  handshakeBackend
	producer    ledgerProducer

	pool  *database.Pool
	redis *redis.Client
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger, h *health.Handler) (*infra, error) {
	in := &infra{storage: "memory"}

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if pool != nil {
		in.pool = pool
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			in.Close(log)
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		in.storage = "postgres"
		in.subjects = statusStore.NewPostgresSubjects(pool.DB())
		in.ledger = statusStore.NewPostgresLedger(pool.DB())
		in.submissions = submissionStore.NewPostgres(pool.DB())
		h.RegisterCheck("database", pool.Health)
	} else {
		log.Warn("DATABASE_URL not set; using in-memory stores, data is lost on restart")
		in.subjects = statusStore.NewInMemorySubjects()
		in.ledger = statusStore.NewInMemoryLedger()
		in.submissions = submissionStore.NewInMemory()
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close(log)
		return nil, fmt.Errorf("init redis: %w", err)
	}
	if rc != nil {
		in.redis = rc
		in.handshakes = handshakeStore.NewRedis(rc.Client)
		h.RegisterCheck("redis", rc.Health)
	} else {
		in.handshakes = handshakeStore.NewInMemory(cfg.Handshake.Capacity)
	}

	in.producer = producer.NoopProducer{}
	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(cfg.Kafka, log)
		if err != nil {
			in.Close(log)
			return nil, fmt.Errorf("init kafka: %w", err)
		}
		if err := kafka.EnsureTopic(ctx, p.Client(), cfg.Kafka.LedgerTopic, 3, 1); err != nil {
			log.Warn("ledger topic not ensured", "topic", cfg.Kafka.LedgerTopic, "error", err)
		}
		in.producer = p
		h.RegisterCheck("kafka", p.Health)
	}

	return in, nil
}

// Close releases backends in reverse order of creation.
func (in *infra) Close(log *slog.Logger) {
	if in.producer != nil {
		if err := in.producer.Close(); err != nil {
			log.Warn("kafka close failed", "error", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if err := in.pool.Close(); err != nil {
		log.Warn("database close failed", "error", err)
	}
}
