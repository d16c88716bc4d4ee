package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/api/rest"
	"github.com/fortuna/gridiron/internal/api/websocket"
	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/config"
	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/ingest"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/logger"
	"github.com/fortuna/gridiron/internal/metrics"
	"github.com/fortuna/gridiron/internal/publisher"
	"github.com/fortuna/gridiron/internal/scheduler"
	"github.com/fortuna/gridiron/internal/service"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/repository"
)

const (
	serviceName    = "gridiron"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithService(serviceName)
	log.WithField("version", serviceVersion).Info("starting")

	db, err := store.NewDatabase(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.WithError(err).Fatal("failed to run database migrations")
	}
	log.Info("database migrations applied")

	redisCache := connectRedis(cfg.RedisURL, log)
	defer redisCache.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	repos := repository.New(db)
	teams := service.NewTeamService(repos, redisCache, log)

	eng := engine.New(engine.Config{
		Analyzer: cfg.AnalyzerOptions(),
		Workers:  cfg.PlayerWorkers,
	}, log)
	ingestSvc := ingest.NewService(eng, repos,
		cache.NewRedisLocker(redisCache.Client(), cfg.GameLockTTL),
		log,
		ingest.WithPublisher(publisher.NewRedisStreamPublisher(redisCache.Client(), cfg.StreamName, log)),
		ingest.WithBroadcaster(hub),
		ingest.WithBroadcaster(teams),
		ingest.WithMetrics(m),
	)

	jobSvc := jobs.NewService(jobs.NewRepository(db), ingestSvc, cfg.JobPollInterval, log)
	if cfg.EnableWorker {
		jobSvc.Start()
		log.Info("job worker started")
	}

	if cfg.EnableScheduler {
		schedCfg := scheduler.DefaultConfig()
		schedCfg.StuckJobSchedule = cfg.StuckJobSchedule
		schedCfg.AuditSchedule = cfg.AuditSchedule
		schedCfg.Analyzer = cfg.AnalyzerOptions()

		sched, err := scheduler.NewOrchestrator(jobSvc, schedCfg, m, log)
		if err != nil {
			log.WithError(err).Fatal("failed to create scheduler")
		}
		go sched.Start(ctx)
	}

	handler := rest.NewHandler(
		service.NewPlayerService(repos),
		service.NewGameService(repos),
		teams,
		map[string]rest.HealthCheck{
			"postgres": func(context.Context) error { return db.HealthCheck() },
			"redis":    redisCache.HealthCheck,
		},
	)
	router := rest.NewRouter(handler, rest.NewJobsHandler(ingestSvc, jobSvc, m), reg, cfg.CorsOrigins, log)

	restServer := rest.NewServer(cfg.RestPort, router, log)
	go func() {
		if err := restServer.Start(); err != nil {
			log.WithError(err).Error("rest server error")
		}
	}()

	wsServer := websocket.NewServer(hub, cfg.CorsOrigins, log)
	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil {
			log.WithError(err).Error("websocket server error")
		}
	}()

	log.WithFields(logrus.Fields{"rest_port": cfg.RestPort, "ws_port": cfg.WSPort}).Info("started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("rest server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("websocket server shutdown error")
	}
	if cfg.EnableWorker {
		if err := jobSvc.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("job worker did not stop in time")
		}
	}

	log.Info("stopped")
}

// connectRedis retries until Redis answers, for containers that start
// before their Redis does.
func connectRedis(url string, log *logrus.Entry) *cache.RedisCache {
	const maxRetries = 30
	retryDelay := 2 * time.Second

	for i := 1; ; i++ {
		rc, err := cache.NewRedisCache(url)
		if err == nil {
			log.Info("connected to redis")
			return rc
		}
		if i == maxRetries {
			log.WithError(err).Fatalf("failed to connect to redis after %d attempts", maxRetries)
		}
		log.WithError(err).Warnf("redis connection attempt %d/%d failed, retrying in %v", i, maxRetries, retryDelay)
		time.Sleep(retryDelay)
	}
}
