package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"certitrack/internal/effects"
	"certitrack/internal/history"
	historykafka "certitrack/internal/history/kafka"
	historymem "certitrack/internal/history/store/memory"
	historypg "certitrack/internal/history/store/postgres"
	jwttoken "certitrack/internal/jwt_token"
	"certitrack/internal/linked"
	linkedmem "certitrack/internal/linked/store/memory"
	linkedpg "certitrack/internal/linked/store/postgres"
	"certitrack/internal/notify"
	notifyredis "certitrack/internal/notify/redis"
	"certitrack/internal/platform/config"
	"certitrack/internal/platform/httpserver"
	"certitrack/internal/platform/logger"
	"certitrack/internal/platform/middleware"
	"certitrack/internal/platform/postgres"
	platformredis "certitrack/internal/platform/redis"
	httptransport "certitrack/internal/transport/http"
	"certitrack/internal/workflow"
	workflowmetrics "certitrack/internal/workflow/metrics"
	workflowmem "certitrack/internal/workflow/store/memory"
	workflowpg "certitrack/internal/workflow/store/postgres"
)

// main wires the persistence capabilities, the workflow engine, and the HTTP
// transport once at process start. Empty config values fall back to
// in-memory implementations so the server runs standalone in development.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		requestStore  workflow.RequestStore
		historyStore  history.Store
		documentStore linked.DocumentStore
	)
	if db != nil {
		defer db.Close()
		requestStore = workflowpg.New(db)
		historyStore = historypg.New(db)
		documentStore = linkedpg.New(db)
		log.Info("using postgres stores")
	} else {
		requestStore = workflowmem.New()
		historyStore = historymem.New()
		documentStore = linkedmem.New()
		log.Warn("no postgres DSN configured; using in-memory stores")
	}

	var notifier notify.Notifier
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		notifier = notifyredis.NewQueue(redisClient.Client, "")
		log.Info("using redis notification queue")
	} else {
		notifier = notify.NewMemoryNotifier()
		log.Warn("no redis URL configured; notifications stay in memory")
	}

	ledgerOpts := []history.Option{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := historykafka.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka client failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := publisher.Close(ctx); err != nil {
				log.Error("kafka flush on shutdown failed", "error", err)
			}
		}()
		ledgerOpts = append(ledgerOpts, history.WithPublisher(publisher))
		log.Info("publishing history events to kafka", "topic", cfg.KafkaTopic)
	}
	ledger := history.NewLedger(historyStore, log, ledgerOpts...)

	metrics := workflowmetrics.New()
	dispatcher := effects.NewDispatcher(notifier, documentStore, log, metrics)
	engine := workflow.NewService(requestStore, ledger, dispatcher, log, metrics)

	var validator middleware.TokenValidator
	if cfg.JWTSigningKey != "" {
		validator = jwttoken.NewService(cfg.JWTSigningKey, "certitrack")
	} else {
		log.Warn("no JWT signing key configured; actor identity comes from request bodies")
	}

	handler := httptransport.NewHandler(engine, log)
	router := httptransport.NewRouter(handler, log, validator)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting certitrack", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Let in-flight side effects finish before the stores go away.
		dispatcher.Wait()
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
