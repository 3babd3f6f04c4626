package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/linknest/linknest/internal/classifier"
	"github.com/linknest/linknest/internal/config"
	"github.com/linknest/linknest/internal/engine"
	"github.com/linknest/linknest/internal/feed"
	"github.com/linknest/linknest/internal/httpserver"
	"github.com/linknest/linknest/internal/httpserver/deps"
	"github.com/linknest/linknest/internal/logger"
	"github.com/linknest/linknest/internal/redis"
	"github.com/linknest/linknest/internal/scheduler"
	"github.com/linknest/linknest/internal/sources/domainrules"
	redisstore "github.com/linknest/linknest/internal/store/redis"
	"github.com/linknest/linknest/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	manager     *engine.Manager
	resyncer    *scheduler.Resyncer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient, loggerClient)
	feedClient := feed.NewClient(redisClient, loggerClient)

	// Load optional domain→category override rules
	var rules map[string]string
	if cfg.DomainRulesFile != "" {
		rules, err = domainrules.NewLoader(cfg.DomainRulesFile).Load()
		if err != nil {
			loggerClient.Errorf("Failed to load domain rules: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("domain rules loaded",
			logger.String("file", cfg.DomainRulesFile),
			logger.Int("domains", len(rules)))
	}

	classifierGateway := classifier.New(classifier.Options{
		BaseURL:         cfg.ClassifierBaseURL,
		APIKey:          cfg.ClassifierAPIKey,
		Model:           cfg.ClassifierModel,
		Timeout:         cfg.ClassifierTimeout,
		MetadataTimeout: cfg.MetadataTimeout,
		Rules:           rules,
		Logger:          loggerClient,
	})
	if cfg.ClassifierBaseURL == "" {
		loggerClient.Info("classifier endpoint not configured, using domain fallback only")
	}

	manager := engine.NewManager(engine.ManagerOptions{
		Store:      store,
		Classifier: classifierGateway,
		Feed:       feedClient,
		Logger:     loggerClient,
		Grace:      cfg.GraceWindow,
	})

	// Rules file is re-read on every resync sweep so rule edits land
	// without a restart.
	var refreshRules func()
	if cfg.DomainRulesFile != "" {
		rulesLoader := domainrules.NewLoader(cfg.DomainRulesFile)
		refreshRules = func() {
			fresh, err := rulesLoader.Load()
			if err != nil {
				loggerClient.Warnf("domain rules reload failed, keeping previous rules: %v", err)
				return
			}
			classifierGateway.SetRules(fresh)
		}
	}

	// Manual resync trigger channel
	resyncTrigger := make(chan struct{}, 1)
	resyncer := scheduler.NewResyncer(manager, loggerClient, cfg.ResyncInterval, resyncTrigger, refreshRules)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		Manager:         manager,
		RedisClient:     redisClient,
		ResyncTrigger:   resyncTrigger,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		TrustProxy:      cfg.TrustProxy,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		manager:     manager,
		resyncer:    resyncer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting LinkNest v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("LinkNest %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the resync scheduler (heals feed drift for open sessions)
	if err := a.resyncer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start resync scheduler: %w", err)
	}
	a.logger.Info("resync scheduler started",
		logger.Duration("interval", a.cfg.ResyncInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.resyncer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Sessions flush their pending deletes before the client closes.
	a.manager.CloseAll()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ LinkNest stopped cleanly")
	return nil
}
