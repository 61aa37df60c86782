package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/events"
	"tokenregistry/internal/events/store/memory"
	eventspg "tokenregistry/internal/events/store/postgres"
	jwttoken "tokenregistry/internal/jwt_token"
	"tokenregistry/internal/node"
	"tokenregistry/internal/platform/config"
	"tokenregistry/internal/platform/httpserver"
	"tokenregistry/internal/platform/logger"
	"tokenregistry/internal/platform/metrics"
	"tokenregistry/internal/platform/postgres"
	platformredis "tokenregistry/internal/platform/redis"
	"tokenregistry/internal/ratelimit"
	httptransport "tokenregistry/internal/transport/http"
	"tokenregistry/internal/tunnel"
)

const (
	eventQueueSize  = 1024
	shutdownTimeout = 10 * time.Second
	jwtAudience     = "tokenregistry"
)

// main wires the two chains, relayers and HTTP API, and runs them until
// SIGINT or SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("node stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("postgres connected")
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	store := eventStore(db)
	queue := events.NewQueue(eventQueueSize, events.WithLogger(log), events.WithMetrics(m))

	netCfg, err := networkConfig(cfg)
	if err != nil {
		return err
	}
	net, err := node.Deploy(ctx, netCfg,
		[]tunnel.BridgeOption{tunnel.WithBridgeLogger(log)},
		chain.WithLogger(log), chain.WithEventSink(queue),
	)
	if err != nil {
		return fmt.Errorf("deploy network: %w", err)
	}
	log.Info("network deployed",
		"root_chain", cfg.Root.ID,
		"root_registry", net.Root.Registry.Address(),
		"child_chain", cfg.Child.ID,
		"child_registry", net.Child.Registry.Address(),
	)

	relays, err := newRelays(ctx, cfg, net, db, redisClient, m, log)
	if err != nil {
		return err
	}
	defer relays.close()

	service := node.NewService(net,
		node.WithLogger(log),
		node.WithMetrics(m),
		node.WithHistory(store),
	)
	limiter, err := newRateLimiter(cfg.RateLimit, redisClient, m, log)
	if err != nil {
		return err
	}
	checks := map[string]func(context.Context) error{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, jwtAudience)
	router := httptransport.NewRouter(httptransport.NewHandler(service, log), httptransport.RouterConfig{
		Logger:      log,
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
		Validator:   jwttoken.NewJWTServiceAdapter(jwtService),
		RateLimiter: limiter,
		ReadyChecks: checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(events.NewWorker(store, queue).Run(gctx))
	})
	for _, r := range relays.relayers {
		g.Go(func() error {
			log.Info("relayer started", "route", r.Route())
			return ignoreCanceled(r.Run(gctx))
		})
	}
	g.Go(func() error {
		log.Info("starting tokenregistry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func eventStore(db *sql.DB) events.Store {
	if db == nil {
		return memory.NewInMemoryStore()
	}
	return eventspg.New(db)
}

// newRateLimiter counts in Redis when it is configured, falling back to
// process memory while Redis is unreachable.
func newRateLimiter(cfg config.RateLimitConfig, redisClient *platformredis.Client, m *metrics.Metrics, log *slog.Logger) (*ratelimit.Limiter, error) {
	if cfg.Requests <= 0 {
		return nil, nil
	}
	opts := []ratelimit.Option{ratelimit.WithLogger(log), ratelimit.WithMetrics(m)}
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		store = ratelimit.NewRedisStore(redisClient)
		opts = append(opts, ratelimit.WithFallback(ratelimit.NewMemoryStore()))
	}
	return ratelimit.New(store, cfg.Requests, cfg.Window, opts...)
}

func networkConfig(cfg config.Server) (node.Config, error) {
	rootAdmin, err := chain.ParseAddress(cfg.Root.Admin)
	if err != nil {
		return node.Config{}, fmt.Errorf("ROOT_ADMIN: %w", err)
	}
	childAdmin, err := chain.ParseAddress(cfg.Child.Admin)
	if err != nil {
		return node.Config{}, fmt.Errorf("CHILD_ADMIN: %w", err)
	}
	return node.Config{
		Root:  node.ChainSpec{ID: cfg.Root.ID, Name: cfg.Root.Name, Admin: rootAdmin, Token: cfg.Root.Token, Symbol: cfg.Root.Symbol},
		Child: node.ChainSpec{ID: cfg.Child.ID, Name: cfg.Child.Name, Admin: childAdmin, Token: cfg.Child.Token, Symbol: cfg.Child.Symbol},
	}, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
