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

	analyticsHandler "verigate/internal/analytics/handler"
	analyticsService "verigate/internal/analytics/service"
	"verigate/internal/decision/adapters"
	decisionHandler "verigate/internal/decision/handler"
	decisionMetrics "verigate/internal/decision/metrics"
	decisionService "verigate/internal/decision/service"
	handshakeHandler "verigate/internal/handshake/handler"
	handshakeMetrics "verigate/internal/handshake/metrics"
	handshakeService "verigate/internal/handshake/service"
	"verigate/internal/handshake/workers/cleanup"
	httpapi "verigate/internal/http"
	"verigate/internal/keyset"
	"verigate/internal/platform/config"
	"verigate/internal/platform/health"
	"verigate/internal/platform/httpserver"
	"verigate/internal/platform/logger"
	"verigate/internal/platform/metrics"
	"verigate/internal/session"
	statusHandler "verigate/internal/status/handler"
	statusService "verigate/internal/status/service"
	"verigate/internal/status/stream"
	submissionService "verigate/internal/submission/service"
	"verigate/internal/verifier"
	"verigate/pkg/platform/circuit"
	"verigate/pkg/platform/middleware/ratelimit"
	"verigate/pkg/platform/middleware/request"
)

const version = "0.1.0"

// main wires dependencies, exposes the router and drains in-flight work on
// shutdown. Business logic lives in the internal service packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	healthHandler := health.New(cfg.Environment, health.WithVersion(version))

	infra, err := buildInfra(ctx, cfg, log, healthHandler)
	if err != nil {
		return err
	}
	defer infra.Close(log)

	provider, err := verifier.New(cfg, log)
	if err != nil {
		return err
	}
	metrics.New(version, string(provider.Kind()))

	keys := keyset.New(cfg.AdminAPIKeys)
	if keys.Len() == 0 {
		log.Warn("no admin API keys configured; privileged routes are unreachable")
	}
	sessions := session.NewIssuer(cfg.Session.SigningKey, cfg.Session.TTL)

	statusSvc := statusService.New(infra.subjects, infra.ledger, log,
		statusService.WithPublisher(stream.NewPublisher(infra.producer, cfg.Kafka.LedgerTopic, log)),
	)

	hsMetrics := handshakeMetrics.New()
	handshakeSvc := handshakeService.New(infra.handshakes, provider, statusSvc, log,
		handshakeService.WithTTL(cfg.Handshake.TTL),
		handshakeService.WithFallbackBase(cfg.PublicAPIOrigin),
		handshakeService.WithSessionIssuer(sessions),
		handshakeService.WithMetrics(hsMetrics),
	)
	sweeper, err := cleanup.New(infra.handshakes,
		cleanup.WithLogger(log),
		cleanup.WithMetrics(hsMetrics),
	)
	if err != nil {
		return err
	}

	tracker := submissionService.NewTracker(infra.submissions, log)

	httpClient := &http.Client{}
	scorer := adapters.NewHTTPScorer(adapters.ScorerConfig{
		BaseURL:    cfg.Scorer.BaseURL,
		TopK:       cfg.Scorer.TopK,
		HTTPClient: httpClient,
	})
	sink := adapters.NewHTTPSink(adapters.SinkConfig{
		VerifiedURL:    cfg.Sink.VerifiedURL,
		NonVerifiedURL: cfg.Sink.NonVerifiedURL,
		Timeout:        cfg.Sink.Timeout,
		HTTPClient:     httpClient,
		Logger:         log,
		BreakerOptions: []circuit.Option{
			circuit.WithFailureThreshold(5),
			circuit.WithCooldown(30 * time.Second),
		},
	})
	decisionSvc := decisionService.New(keys, scorer, statusSvc, tracker, log,
		decisionService.WithScorerTimeout(cfg.Scorer.Timeout),
		decisionService.WithSessionProof(sessions, statusSvc),
		decisionService.WithSink(sink),
		decisionService.WithMetrics(decisionMetrics.New()),
	)

	analyticsSvc := analyticsService.New(infra.subjects, infra.ledger, infra.submissions, log)

	limiter := ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, log)
	portal := decisionHandler.New(decisionSvc, log)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
		RequestMetrics: request.NewMetrics(),
		Health:         healthHandler,
		Handshake:      handshakeHandler.New(handshakeSvc, log, cfg.PublicWebOrigin),
		Status:         statusHandler.New(statusSvc, log),
		Portal:         portal,
		Analytics:      analyticsHandler.New(analyticsSvc, keys, log),
		Submit:         portal.HandleSubmit,
		SubmitLimiter:  limiter,
	})

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	go func() {
		if err := sweeper.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("handshake cleanup stopped", "error", err)
		}
	}()
	go limiter.Run(workerCtx, time.Minute)

	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting verigate",
			"addr", cfg.Addr,
			"environment", cfg.Environment,
			"provider", provider.Kind(),
			"storage", infra.storage,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	cancelWorkers()
	if err := decisionSvc.Drain(shutdownCtx); err != nil {
		log.Warn("pending sink forwards abandoned", "error", err)
	}
	return nil
}
