package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"guardwars/cache"
	"guardwars/config"
	"guardwars/database"
	"guardwars/events"
	"guardwars/metrics"
	"guardwars/notify"
	"guardwars/repository"
	"guardwars/service"
	"guardwars/worker"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Engine holds the services exposed to external collaborators
type Engine struct {
	Accounts service.AccountService
	Combat   service.CombatService
	Wars     service.ClanWarService
	Items    service.ItemEffectService
	Economy  service.EconomyService
	Ratings  service.RatingService
	History  *service.EventRecorder
}

// NewEngine wires every service on top of the unit of work factory
func NewEngine(uowFactory service.UnitOfWorkFactory, listCache service.ListCache) *Engine {
	cooldowns := service.NewCooldownPolicy()
	boosts := service.NewBoostLedger()
	recorder := service.NewEventRecorder(uowFactory)
	ledger := service.NewResourceTransferLedger(uowFactory, service.NewKeyedMutex(), cooldowns, boosts, recorder)
	resolver := service.NewCombatResolver(service.NewRandom(time.Now().UnixNano()))
	pipeline := service.NewAttackPipeline(uowFactory, cooldowns, resolver, ledger)

	return &Engine{
		Accounts: service.NewAccountService(uowFactory),
		Combat:   service.NewCombatService(pipeline),
		Wars:     service.NewClanWarService(uowFactory, pipeline),
		Items:    service.NewItemEffectService(uowFactory, boosts),
		Economy:  service.NewEconomyService(uowFactory, cooldowns, boosts, recorder),
		Ratings:  service.NewRatingService(uowFactory, listCache),
		History:  recorder,
	}
}

// Run initializes and starts the engine
func Run(ctx context.Context) error {
	log.Info("Starting guard wars engine...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	listCache, closeCache := newListCache(ctx, cfg)
	defer closeCache()
	service.SubscribeRatingInvalidation(eventBus, listCache)

	engine := NewEngine(uowFactory, listCache)
	log.Info("Services initialized successfully")

	if cfg.NATSServers != "" {
		natsClient := notify.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer natsClient.Close()
		if err := natsClient.EnsureStream(notify.Subjects()); err != nil {
			return err
		}
		notify.NewForwarder(natsClient).Subscribe(eventBus)
		log.Info("Event notifications enabled")
	} else {
		log.Warn("NATS_SERVERS not set, event notifications disabled")
	}

	metrics.Subscribe(eventBus)
	metricsServer := startMetricsServer(cfg.MetricsAddr)

	stopSweeper, err := worker.NewWarSweeper(engine.Wars, cfg.WarSweepInterval).Start(ctx)
	if err != nil {
		return err
	}

	log.WithField("environment", cfg.Environment).Info("Engine is running")
	<-ctx.Done()

	log.Info("Shutting down engine...")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Metrics server shutdown failed")
	}

	log.Info("Shutdown completed")
	return nil
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("Serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()
	return server
}

// newListCache connects to Redis, falling back to an uncached pass-through when it
// is unreachable. Lists are never authoritative, so the engine runs either way.
func newListCache(ctx context.Context, cfg *config.Config) (service.ListCache, func()) {
	log.WithField("addr", cfg.RedisAddr).Info("Connecting to Redis...")
	redisClient, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.WithFields(log.Fields{
			"addr":  cfg.RedisAddr,
			"error": err,
		}).Warn("Redis unavailable, serving lists without a cache")
		return cache.NewPassthroughListCache(), func() {}
	}
	return cache.NewRedisListCache(redisClient, cfg.CacheTTL), func() { closeRedis(redisClient) }
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		log.WithError(err).Warn("Failed to close Redis client")
	}
}
