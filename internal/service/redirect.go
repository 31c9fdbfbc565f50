package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jrg-tools/short-url/internal/cache"
)

const defaultHitTimeout = 5 * time.Second

// RedirectService resolves aliases on the latency-critical redirect path.
// Resolution reads through the cache; hit recording happens off the
// request path and is best-effort.
type RedirectService struct {
	repo       URLRepository
	cache      cache.Cache
	logger     *slog.Logger
	trackHits  bool
	hitTimeout time.Duration
}

func NewRedirectService(repo URLRepository, cache cache.Cache, logger *slog.Logger, trackHits bool) *RedirectService {
	return &RedirectService{
		repo:       repo,
		cache:      cache,
		logger:     logger,
		trackHits:  trackHits,
		hitTimeout: defaultHitTimeout,
	}
}

// Resolve returns the origin URL for alias. On a cache hit the store is
// never touched on the request path. On a miss the record is fetched,
// the cache is populated and, with hit tracking enabled, the counter is
// bumped in the background.
func (s *RedirectService) Resolve(ctx context.Context, alias string) (string, error) {
	const op = "service.RedirectService.Resolve"

	if origin, ok := s.cache.Get(ctx, alias); ok {
		if s.trackHits {
			s.recordCachedHit(alias)
		}

		return origin, nil
	}

	url, err := s.repo.GetByAlias(ctx, alias)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve alias: %w", op, err)
	}

	s.cache.Set(ctx, url.Alias, url.Origin)

	if s.trackHits {
		s.recordHit(url.Alias, url.Hits)
	}

	return url.Origin, nil
}

// recordHit bumps the hit counter using the count observed at fetch time.
// It runs detached from the request so a slow or failed increment never
// delays the redirect; concurrent redirects may under-count.
func (s *RedirectService) recordHit(alias string, observed int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.hitTimeout)
		defer cancel()

		if err := s.repo.IncrementHits(ctx, alias, observed); err != nil {
			s.logger.Warn("failed to record hit",
				slog.String("alias", alias),
				slog.Any("err", err))
		}
	}()
}

// recordCachedHit re-reads the current count first, since the cache only
// holds the origin.
func (s *RedirectService) recordCachedHit(alias string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.hitTimeout)
		defer cancel()

		url, err := s.repo.GetByAlias(ctx, alias)
		if err != nil {
			s.logger.Warn("failed to record hit",
				slog.String("alias", alias),
				slog.Any("err", err))
			return
		}

		if err := s.repo.IncrementHits(ctx, alias, url.Hits); err != nil {
			s.logger.Warn("failed to record hit",
				slog.String("alias", alias),
				slog.Any("err", err))
		}
	}()
}
