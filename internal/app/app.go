package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/jrg-tools/short-url/internal/api/http"
	"github.com/jrg-tools/short-url/internal/cache"
	"github.com/jrg-tools/short-url/internal/config"
	"github.com/jrg-tools/short-url/internal/database/postgres"
	"github.com/jrg-tools/short-url/internal/service"
	pkgpostgres "github.com/jrg-tools/short-url/pkg/postgres"
)

// Run wires the application together and serves HTTP until ctx is
// canceled. The database pool and the cache client are process-wide and
// shared across requests.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := httplog.NewLogger("short-url", httplog.Options{
		JSON:    cfg.Env == config.EnvProd,
		Concise: cfg.Env != config.EnvProd,
	})

	db, err := pkgpostgres.New(
		ctx,
		cfg.Postgres.DSN(),
		pkgpostgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pkgpostgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pkgpostgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pkgpostgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pkgpostgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	redirectCache, closeCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize cache: %w", op, err)
	}
	defer closeCache() //nolint:errcheck

	urlRepo := postgres.NewShortURLRepository(db)
	shortenSvc := service.NewShortenService(urlRepo, redirectCache, cfg.SecretKey, cfg.AliasLength)
	redirectSvc := service.NewRedirectService(urlRepo, redirectCache, logger.Logger, cfg.TrackHits)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        myhttp.NewRouter(logger, shortenSvc, redirectSvc, cfg.AliasLength),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// newCache builds the configured cache backend. The returned close
// function releases the backend's connections, if it holds any.
func newCache(ctx context.Context, cfg *config.Config, logger *httplog.Logger) (cache.Cache, func() error, error) {
	const op = "app.newCache"

	noop := func() error { return nil }

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		return cache.NewRedis(client, cfg.Cache.TTL, logger.Logger), client.Close, nil
	case config.CacheMemory, "":
		return cache.NewMemory(cfg.Cache.TTL), noop, nil
	default:
		return nil, nil, fmt.Errorf("%s: unknown cache backend: %q", op, cfg.Cache.Backend)
	}
}
