package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/supporthub/internal/accounts"
	"github.com/geocoder89/supporthub/internal/auth"
	"github.com/geocoder89/supporthub/internal/cache"
	"github.com/geocoder89/supporthub/internal/config"
	"github.com/geocoder89/supporthub/internal/dashboard"
	"github.com/geocoder89/supporthub/internal/db"
	httpx "github.com/geocoder89/supporthub/internal/http"
	"github.com/geocoder89/supporthub/internal/http/handlers"
	"github.com/geocoder89/supporthub/internal/inbox"
	"github.com/geocoder89/supporthub/internal/ledger"
	"github.com/geocoder89/supporthub/internal/moderation"
	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/geocoder89/supporthub/internal/repo/memory"
	"github.com/geocoder89/supporthub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type donationStore interface {
	ledger.DonationStore
	dashboard.LatestDonations
}

type categoryStore interface {
	ledger.CategoryStore
	db.CategorySeeder
}

// stores is the storage backend picked by STORAGE.
type stores struct {
	users        accounts.UserStore
	sessions     accounts.SessionStore
	testimonials moderation.Store
	latest       dashboard.LatestTestimonials
	donations    donationStore
	categories   categoryStore
	dashboard    dashboard.Store
	contact      inbox.Store
	ping         handlers.Check
	close        func()
}

func main() {
	// Load the config set up
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	if cfg.OtelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.OtelServiceName, cfg.Env, cfg.OtelEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				tctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(tctx)
			}()
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	s, err := openStores(ctx, cfg, prom)
	if err != nil {
		log.Error("storage init failed", "storage", cfg.Storage, "err", err)
		os.Exit(1)
	}
	defer s.close()

	checks := map[string]handlers.Check{"database": s.ping}

	var publicCache cache.Store
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		defer func() {
			_ = rc.Close()
		}()
		publicCache = rc
		rdb = rc.Client()
		checks["cache"] = rc.Ping
	} else {
		publicCache = cache.New(cfg.CacheTTL)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Validate only lets an empty secret through in dev
		secret = "dev-only-insecure-secret"
		log.Warn("JWT_SECRET not set, using the development secret")
	}

	acc := accounts.NewService(s.users, s.sessions, auth.NewManager(secret, cfg.TokenTTL), log)
	engine := moderation.NewEngine(s.testimonials, log,
		moderation.WithCache(publicCache),
		moderation.WithObserver(prom),
	)
	led := ledger.New(s.donations, s.categories, log)
	dash := dashboard.NewService(s.dashboard, s.donations, s.latest)
	box := inbox.NewService(s.contact, log)

	seedCtx, cancelSeed := config.WithTimeout(10 * time.Second)
	if err := db.EnsureAdminUser(seedCtx, acc, cfg, log); err != nil {
		log.Error("admin seed failed", "err", err)
	}
	if n, err := db.SeedCategories(seedCtx, s.categories); err != nil {
		log.Error("category seed failed", "err", err)
	} else if n > 0 {
		log.Info("seeded donation categories", "count", n)
	}
	cancelSeed()

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:                log,
		Accounts:           acc,
		Moderation:         engine,
		Ledger:             led,
		Dashboard:          dash,
		Inbox:              box,
		Prom:               prom,
		Gatherer:           prometheus.DefaultGatherer,
		Checks:             checks,
		ServiceName:        cfg.OtelServiceName,
		Tracing:            cfg.OtelEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitRedis:     rdb,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		HSTS:               cfg.Env == "prod",
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom) (stores, error) {
	if cfg.Storage == config.StorageMemory {
		mem := memory.NewDB()
		testimonials := memory.NewTestimonialsRepo(mem)

		return stores{
			users:        memory.NewUsersRepo(mem),
			sessions:     memory.NewSessionsRepo(mem),
			testimonials: testimonials,
			latest:       testimonials,
			donations:    memory.NewDonationsRepo(mem),
			categories:   memory.NewCategoriesRepo(mem),
			dashboard:    memory.NewDashboardRepo(mem),
			contact:      memory.NewContactRepo(mem),
			ping:         func(context.Context) error { return mem.Ping() },
			close:        func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, 10)
	if err != nil {
		return stores{}, err
	}

	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.EnsureSchema(schemaCtx, pool); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("ensure schema: %w", err)
	}

	testimonials := postgres.NewTestimonialsRepo(pool, prom)

	return stores{
		users:        postgres.NewUsersRepo(pool, prom),
		sessions:     postgres.NewSessionsRepo(pool, prom),
		testimonials: testimonials,
		latest:       testimonials,
		donations:    postgres.NewDonationsRepo(pool, prom),
		categories:   postgres.NewCategoriesRepo(pool, prom),
		dashboard:    postgres.NewDashboardRepo(pool, prom),
		contact:      postgres.NewContactRepo(pool, prom),
		ping:         pool.Ping,
		close:        pool.Close,
	}, nil
}
