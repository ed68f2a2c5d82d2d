// Command server runs the learning progress engine: consent-gated event
// ingestion, the progress ledger, anonymous cohort aggregates, and adaptation
// recommendations behind one HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pathway/internal/aggregate"
	aggmetrics "pathway/internal/aggregate/metrics"
	"pathway/internal/consent"
	"pathway/internal/course"
	"pathway/internal/engine"
	engmetrics "pathway/internal/engine/metrics"
	"pathway/internal/event"
	"pathway/internal/ledger"
	ledgermetrics "pathway/internal/ledger/metrics"
	"pathway/internal/mastery"
	"pathway/internal/platform/config"
	"pathway/internal/platform/httpserver"
	"pathway/internal/platform/logger"
	procmetrics "pathway/internal/platform/metrics"
	"pathway/internal/platform/middleware"
	platformredis "pathway/internal/platform/redis"
	"pathway/internal/platform/token"
	httptransport "pathway/internal/transport/http"
	audit "pathway/pkg/platform/audit"
	auditkafka "pathway/pkg/platform/audit/sink/kafka"
	auditmem "pathway/pkg/platform/audit/store/memory"
	auditworker "pathway/pkg/platform/audit/worker"
	"pathway/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Course catalog. Lookups fail with unknown_objective until one is loaded.
	defs := course.Definitions(course.NewInMemoryDefinitions())
	if cfg.CatalogPath != "" {
		loaded, err := course.LoadFile(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		defs = loaded
		log.Info("catalog loaded", "path", cfg.CatalogPath)
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
	}

	// Audit trail. Kafka when brokers are configured, in-process otherwise.
	// EmitSync and the async worker share the store so compliance and
	// operational events land in the same place.
	var auditStore audit.Store = auditmem.NewInMemoryStore()
	if cfg.KafkaBrokers != "" {
		sink, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer sink.Close()
		auditStore = sink
		log.Info("audit sink", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	auditor := audit.NewPublisher(auditStore, 1024, log)
	go func() {
		if err := auditworker.NewWorker(auditStore, auditor.Inbox(), log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	// Consent store sits behind a circuit breaker so a flapping backend
	// degrades to the fail-closed path.
	var consentStore consent.Store = consent.NewInMemoryStore()
	if redisClient != nil {
		consentStore = consent.NewRedisStore(redisClient.Client)
	}
	consentStore = consent.NewBreakerStore(consentStore, circuit.New("consent-store"), log)
	consents := consent.NewService(consentStore, auditor, log)

	var ledgerStore ledger.Store = ledger.NewInMemoryStore()
	if db != nil {
		pg := ledger.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate progress store: %w", err)
		}
		ledgerStore = pg
	}

	var aggStore aggregate.Store = aggregate.NewInMemoryStore()
	if redisClient != nil {
		aggStore = aggregate.NewRedisStore(redisClient.Client)
	}

	scorer := mastery.NewScorer()
	ledgerSvc := ledger.NewService(ledgerStore, defs, scorer, ledger.Thresholds{
		MinSectionTime:          cfg.Engine.MinSectionTime,
		MinInteractions:         cfg.Engine.MinInteractions,
		MinInteractionsBeginner: cfg.Engine.MinInteractionsBeginner,
	}, auditor, ledgermetrics.New(), log)

	aggregates := aggregate.NewService(aggStore, aggregate.Config{
		KThreshold: cfg.Privacy.KThreshold,
		NoiseScale: cfg.Privacy.NoiseScale,
		NoiseEpoch: cfg.Privacy.NoiseEpoch,
	}, aggmetrics.New(), log)

	// Withdrawal purges run in order; the ledger purge must land before the
	// aggregate purge is attempted.
	consents.OnWithdrawal(ledgerSvc.PurgeStudent)
	consents.OnWithdrawal(aggregates.PurgeStudent)

	engineSvc := engine.NewService(
		event.NewValidator(cfg.Engine.ClockSkew, cfg.Engine.RetentionHorizon),
		consents,
		consent.NewGate(cfg.Privacy.ConsentGracePeriod),
		ledgerSvc,
		aggregates,
		defs,
		scorer,
		auditor,
		cfg.Engine.ReinforceAttempts,
		engmetrics.New(),
		log,
	)

	tokens := token.NewService(cfg.JWTSigningKey, "pathway")
	handler := httptransport.New(engineSvc, ledgerSvc, aggregates, consents, tokens, procmetrics.New(), log)
	if cfg.Engine.RateLimit > 0 {
		handler = handler.WithRateLimit(middleware.NewLimiter(cfg.Engine.RateLimit, cfg.Engine.RateWindow))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Routes())

	srv := httpserver.New(cfg.Addr, mux)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
