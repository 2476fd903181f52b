package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"hrrecords/internal/domain/auth"
	"hrrecords/internal/domain/hr"
	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/platform/config"
	cryptoutil "hrrecords/internal/platform/crypto"
	"hrrecords/internal/platform/db"
	"hrrecords/internal/platform/jobs"
	"hrrecords/internal/platform/metrics"
	"hrrecords/internal/platform/sqlite"
	"hrrecords/internal/transport/http/api"
	authhandler "hrrecords/internal/transport/http/handlers/auth"
	recordshandler "hrrecords/internal/transport/http/handlers/records"
	"hrrecords/internal/transport/http/middleware"
)

// backend is everything the services need from storage, whichever driver
// provides it.
type backend struct {
	records  hr.StoreAPI
	gateway  permissions.Gateway
	grants   db.GrantSeeder
	identity interface {
		auth.StoreAPI
		db.AccountSeeder
	}
	ping  func(context.Context) error
	close func()
}

type App struct {
	Config  config.Config
	Router  http.Handler
	Auth    *auth.Service
	Records *hr.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	store  backend
	seeder *db.Seeder
}

// New opens storage, applies migrations and the grants file, and builds the
// router. Close releases storage.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
		slog.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}

	secrets, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	roles := permissions.DefaultRoleTable()
	runner := jobs.New()
	var seeder *db.Seeder
	if cfg.RunSeed && cfg.GrantsFile != "" {
		seeder = newSeeder(store, roles, secrets)
		_, err := runner.RunNow(ctx, jobs.JobGrantsSeed, func(ctx context.Context) (any, error) {
			return cfg.GrantsFile, seed(ctx, cfg.GrantsFile, seeder)
		})
		if err != nil {
			store.close()
			return nil, err
		}
	}

	collector := metrics.New()
	policy := permissions.ContinueOnFailure
	if cfg.AbortOnLookupError {
		policy = permissions.AbortOnFailure
	}
	engine := permissions.NewEngine(store.gateway, roles,
		permissions.WithFailurePolicy(policy),
		permissions.WithObserver(collector.RecordAuthorization),
	)

	app := &App{
		Config:  cfg,
		Auth:    auth.NewService(store.identity, roles, cfg.JWTSecret, cfg.SessionTTL),
		Records: hr.NewService(store.records, engine),
		Jobs:    runner,
		Metrics: collector,
		store:   store,
		seeder:  seeder,
	}
	app.Auth.MFASecrets = secrets
	app.Jobs.Every(jobs.JobSessionPurge, cfg.SessionPurgeInterval, func(ctx context.Context) (any, error) {
		purged, err := app.Auth.PurgeExpiredSessions(ctx)
		return map[string]int64{"purged": purged}, err
	})
	app.Router = app.routes()
	return app, nil
}

func openBackend(ctx context.Context, cfg config.Config) (backend, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return backend{}, fmt.Errorf("sqlite open failed: %w", err)
		}
		return backend{
			records:  store,
			gateway:  store,
			grants:   store,
			identity: store,
			ping:     store.Ping,
			close: func() {
				if err := store.Close(); err != nil {
					slog.Warn("sqlite close failed", "err", err)
				}
			},
		}, nil
	default:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return backend{}, fmt.Errorf("db connect failed: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, db.Migrations()); err != nil {
				pool.Close()
				return backend{}, fmt.Errorf("migrations failed: %w", err)
			}
		}
		grants := permissions.NewStore(pool)
		return backend{
			records:  hr.NewStore(pool),
			gateway:  grants,
			grants:   grants,
			identity: auth.NewStore(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil
	}
}

func newSeeder(store backend, roles *permissions.RoleTable, secrets *cryptoutil.Service) *db.Seeder {
	return &db.Seeder{
		Grants:   store.grants,
		Accounts: store.identity,
		Records:  store.records,
		Roles:    roles,

		MFASecrets: secrets,
	}
}

func seed(ctx context.Context, path string, seeder *db.Seeder) error {
	grants, err := config.LoadGrants(path)
	if err != nil {
		return err
	}
	if err := seeder.Seed(ctx, grants); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	return nil
}

func (a *App) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Logger(slog.Default(), a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(a.Config.IsProduction()))
	router.Use(middleware.BodyLimit(a.Config.MaxBodyBytes))
	router.Use(middleware.Auth(a.Config.JWTSecret, a.Auth))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.store.ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if a.Config.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(a.Config.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(a.Config.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(a.Auth).RegisterRoutes(r)
		recordshandler.NewHandler(a.Records).RegisterRoutes(r)
	})

	return router
}

// Run serves HTTP and background jobs until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("hr records server listening", "addr", a.Config.Addr, "storage", a.Config.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.Jobs.Run(gctx)
	})
	if a.Config.GrantsWatch && a.seeder != nil {
		// Reloads are additive: grants removed from the file stay in storage.
		g.Go(func() error {
			return config.WatchGrants(gctx, a.Config.GrantsFile, 500*time.Millisecond, a.reseed)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// reseed queues a reload behind any running job so seeding never overlaps
// itself.
func (a *App) reseed(_ context.Context, grants config.Grants) error {
	if !a.Jobs.Enqueue(jobs.JobGrantsSeed, func(ctx context.Context) (any, error) {
		return a.Config.GrantsFile, a.seeder.Seed(ctx, grants)
	}) {
		return errors.New("job queue full")
	}
	return nil
}

func (a *App) Close() {
	if a.store.close != nil {
		a.store.close()
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
