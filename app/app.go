// Package app wires the gatekeeper components together and owns their
// lifetime.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Santhosh121805/based.credit/adapters/events"
	"github.com/Santhosh121805/based.credit/adapters/repository"
	"github.com/Santhosh121805/based.credit/adapters/store"
	"github.com/Santhosh121805/based.credit/adapters/tokenizer"
	"github.com/Santhosh121805/based.credit/cache"
	"github.com/Santhosh121805/based.credit/config"
	"github.com/Santhosh121805/based.credit/ports"
	"github.com/Santhosh121805/based.credit/service"
	transporthttp "github.com/Santhosh121805/based.credit/transport/http"
)

const startupPingTimeout = 5 * time.Second

// App is a fully wired gatekeeper instance
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	kv       ports.KVStore
	pool     *pgxpool.Pool
	users    ports.UserRepository
	tracker  *service.ActivityTracker
	wmRouter *message.Router
	closers  []func() error
	started  bool

	engine *gin.Engine
	server *http.Server
}

// New connects to every dependency and builds the HTTP handler. Resources
// opened before a failure are released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		if cerr := a.close(); cerr != nil {
			logger.Error("cleanup after failed start", slog.Any("error", cerr))
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.cfg

	redisClient, err := a.initStore(ctx)
	if err != nil {
		return err
	}
	if err := a.initUsers(ctx); err != nil {
		return err
	}

	publisher, subscriber, err := a.initPubSub(redisClient)
	if err != nil {
		return err
	}

	wmLogger := watermill.NewSlogLogger(a.logger)
	a.wmRouter, err = message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, wmLogger)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}
	events.NewActivityConsumer(a.users, a.logger).Register(a.wmRouter, subscriber)

	eventPub := events.NewWatermillPublisher(publisher)
	a.tracker = service.NewActivityTracker(eventPub, a.logger, cfg.Events.QueueSize)

	c := cache.New(a.kv, cfg.CacheNamespace(), a.logger)
	tokens := tokenizer.NewJWTTokenizer([]byte(cfg.Auth.JWTSecret))
	challenges := service.NewChallengeService(c, service.ChallengeConfig{
		Domain:  cfg.Auth.Domain,
		URI:     cfg.Auth.URI,
		ChainID: cfg.Auth.ChainID,
	}, a.logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.engine = transporthttp.SetupRouter(transporthttp.RouterConfig{
		Production:      cfg.IsProduction(),
		RateLimitWindow: cfg.RateLimit.Window,
		RateLimitMax:    cfg.RateLimit.Max,
	}, transporthttp.Dependencies{
		AuthService: service.NewAuthService(challenges, tokens, a.users, c, eventPub, a.logger, cfg.Auth.TokenTTL),
		Pipeline:    service.NewPipeline(tokens, c, a.users, a.tracker, a.logger),
		RateLimiter: service.NewRateLimiter(c, a.logger),
		Logger:      a.logger,
		Health: map[string]transporthttp.Pinger{
			"redis":    c,
			"database": a.users,
		},
	})

	a.server = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Server.Port)),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

func (a *App) initStore(ctx context.Context) (*redis.Client, error) {
	if a.cfg.Redis.Backend == "memory" {
		a.kv = store.NewMemoryStore()
		a.logger.Warn("Using in-memory cache store")
		return nil, nil
	}

	opts, err := redis.ParseURL(a.cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = a.cfg.Redis.DialTimeout
	opts.ReadTimeout = a.cfg.Redis.ReadTimeout
	opts.WriteTimeout = a.cfg.Redis.WriteTimeout
	opts.MaxRetries = a.cfg.Redis.MaxRetries

	rs := store.NewRedisStore(redis.NewClient(opts))
	a.kv = rs

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.logger.Info("Redis connected")
	return rs.Client(), nil
}

func (a *App) initUsers(ctx context.Context) error {
	if a.cfg.Database.Driver == "memory" {
		a.users = repository.NewMemoryUserRepository()
		a.logger.Warn("Using in-memory user repository")
		return nil
	}

	pool, err := pgxpool.New(ctx, a.cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	a.pool = pool
	a.users = repository.NewPostgresUserRepository(pool)

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err := a.users.Ping(pingCtx); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.logger.Info("Database connected")
	return nil
}

func (a *App) initPubSub(client *redis.Client) (message.Publisher, message.Subscriber, error) {
	wmLogger := watermill.NewSlogLogger(a.logger)

	if a.cfg.Events.Transport == "memory" {
		ps := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(a.cfg.Events.QueueSize),
		}, wmLogger)
		a.closers = append(a.closers, ps.Close)
		return ps, ps, nil
	}

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, wmLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis stream publisher: %w", err)
	}
	a.closers = append(a.closers, publisher.Close)

	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: a.cfg.Events.ConsumerGroup,
	}, wmLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis stream subscriber: %w", err)
	}
	a.closers = append(a.closers, subscriber.Close)

	return publisher, subscriber, nil
}

// Handler returns the HTTP handler
func (a *App) Handler() http.Handler {
	return a.engine
}

// Run serves HTTP and consumes events until ctx is cancelled or the server
// fails, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	a.tracker.Start()
	a.started = true

	routerErr := make(chan error, 1)
	go func() {
		routerErr <- a.wmRouter.Run(context.Background())
	}()
	select {
	case <-a.wmRouter.Running():
	case err := <-routerErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(fmt.Errorf("event router: %w", err), a.Shutdown(shutdownCtx))
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Gatekeeper listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case err := <-routerErr:
		if err != nil {
			runErr = fmt.Errorf("event router: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.Shutdown(shutdownCtx))
}

// Shutdown stops the HTTP server, drains background work and releases
// every connection
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if a.started {
		if err := a.tracker.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("activity tracker: %w", err))
		}
	}
	errs = append(errs, a.close())

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.logger.Info("Shutdown complete")
	return nil
}

// close releases connections in reverse order of creation
func (a *App) close() error {
	var errs []error

	if a.wmRouter != nil {
		if err := a.wmRouter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event router: %w", err))
		}
		a.wmRouter = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache store: %w", err))
		}
		a.kv = nil
	}

	return errors.Join(errs...)
}
