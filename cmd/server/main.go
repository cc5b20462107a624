package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	delegationservice "trustgate/internal/delegation/service"
	delegationstore "trustgate/internal/delegation/store"
	delegationmemory "trustgate/internal/delegation/store/memory"
	delegationpostgres "trustgate/internal/delegation/store/postgres"
	"trustgate/internal/platform/config"
	"trustgate/internal/platform/httpserver"
	"trustgate/internal/platform/logger"
	platformredis "trustgate/internal/platform/redis"
	"trustgate/internal/platform/token"
	httptransport "trustgate/internal/transport/http"
	"trustgate/internal/trust/metrics"
	trustservice "trustgate/internal/trust/service"
	truststore "trustgate/internal/trust/store"
	directorystore "trustgate/internal/trust/store/directory"
	policystore "trustgate/internal/trust/store/policy"
	trustrecords "trustgate/internal/trust/store/trust"
	"trustgate/pkg/platform/audit"
	kafkaaudit "trustgate/pkg/platform/audit/publishers/kafka"
	auditmemory "trustgate/pkg/platform/audit/store/memory"
)

// main wires stores, services, and the HTTP surface, then runs the server
// until interrupted. Persistence backends attach based on configuration:
// memory stores by default, Redis and Postgres when configured.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx := context.Background()
	checkers := map[string]httptransport.Checker{}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checkers["redis"] = redisClient
	}

	var pool *pgxpool.Pool
	var sqlDB *sql.DB
	if cfg.Postgres.DSN != "" {
		pool, err = pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres pool init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		checkers["postgres"] = pgxChecker{pool: pool}

		sqlDB, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()
	}

	var trustRecords truststore.TrustStore
	switch {
	case redisClient != nil:
		trustRecords = trustrecords.NewRedisStore(redisClient.Client)
		log.Info("trust store backend", "backend", "redis")
	case pool != nil:
		trustRecords = trustrecords.NewPostgresStore(pool)
		log.Info("trust store backend", "backend", "postgres")
	default:
		trustRecords = trustrecords.NewInMemoryStore()
		log.Info("trust store backend", "backend", "memory")
	}

	var policies truststore.PolicyStore
	if pool != nil {
		policies = policystore.NewPostgresStore(pool)
	} else {
		policies = policystore.NewInMemoryStore()
	}

	directory := directorystore.NewInMemoryDirectory()
	directory.Seed(defaultRoles())

	var permissions delegationstore.PermissionStore
	if sqlDB != nil {
		permissions = delegationpostgres.New(sqlDB)
	} else {
		permissions = delegationmemory.New()
	}

	auditor := buildAuditor(cfg, log)

	m := metrics.New()

	trustSvc, err := trustservice.New(trustRecords, policies, directory,
		trustservice.WithLogger(log),
		trustservice.WithAuditor(auditor),
		trustservice.WithMetrics(m),
	)
	if err != nil {
		log.Error("trust service init failed", "error", err)
		os.Exit(1)
	}

	delegationSvc, err := delegationservice.New(permissions,
		delegationservice.WithLogger(log),
		delegationservice.WithAuditor(auditor),
	)
	if err != nil {
		log.Error("delegation service init failed", "error", err)
		os.Exit(1)
	}

	tokens := token.NewService(cfg.Auth.JWTSigningKey, "trustgate")

	router := httptransport.NewRouter(httptransport.Deps{
		Trust:        httptransport.NewTrustHandler(trustSvc, log),
		Delegation:   httptransport.NewDelegationHandler(delegationSvc, log),
		Admin:        httptransport.NewAdminHandler(policies, auditor, log),
		Validator:    tokens,
		AdminKeyHash: cfg.Auth.AdminKeyHash,
		Logger:       log,
		Checkers:     checkers,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("trustgate listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildAuditor assembles the audit publisher: local store always, Kafka sink
// when brokers are configured.
func buildAuditor(cfg config.Config, log *slog.Logger) *audit.Publisher {
	opts := []audit.PublisherOption{}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafkaaudit.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, kafkaaudit.WithLogger(log))
		if err != nil {
			log.Warn("kafka audit sink unavailable, continuing with local store only", "error", err)
		} else {
			opts = append(opts, audit.WithSink(sink))
			log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
		}
	}
	return audit.NewPublisher(auditmemory.New(), opts...)
}

// defaultRoles seeds the directory with development identities so the
// user_role condition has data to evaluate out of the box.
func defaultRoles() map[string]string {
	return map[string]string{
		"admin@local":    "admin",
		"creator@local":  "creator",
		"reviewer@local": "moderator",
	}
}

type pgxChecker struct {
	pool *pgxpool.Pool
}

func (c pgxChecker) Health(ctx context.Context) error {
	return c.pool.Ping(ctx)
}
