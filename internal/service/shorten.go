package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrg-tools/short-url/internal/alias"
	"github.com/jrg-tools/short-url/internal/cache"
	"github.com/jrg-tools/short-url/internal/database"
	"github.com/jrg-tools/short-url/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrMaxRetriesExceeded is returned when repeated alias collisions exhaust
// the retry limit for a single origin.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating alias")

// Pagination bounds shared by search and list.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// URLRepository defines the persistence surface the services depend on.
type URLRepository interface {
	// CreateIfAbsent inserts a new mapping unless one exists for the origin.
	// The bool reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, alias, origin string) (*models.ShortURL, bool, error)

	// GetByAlias retrieves a record by its alias.
	GetByAlias(ctx context.Context, alias string) (*models.ShortURL, error)

	// GetByOrigin retrieves a record by its origin URL.
	GetByOrigin(ctx context.Context, origin string) (*models.ShortURL, error)

	// Search returns matching records and the total match count.
	Search(ctx context.Context, query string, page, size int) ([]models.ShortURL, int64, error)

	// ListAll returns all records, newest first, and the total count.
	ListAll(ctx context.Context, page, size int) ([]models.ShortURL, int64, error)

	// IncrementHits sets the hit counter to observed+1 for the alias.
	IncrementHits(ctx context.Context, alias string, observed int64) error

	// Delete removes a record. Deleting an absent alias is not an error.
	Delete(ctx context.Context, alias string) error
}

// ShortenService implements idempotent URL shortening: the alias is a
// deterministic function of the origin and the secret key, so shortening
// the same origin twice yields the same record.
type ShortenService struct {
	repo        URLRepository
	cache       cache.Cache
	secretKey   string
	aliasLength int
}

func NewShortenService(repo URLRepository, cache cache.Cache, secretKey string, aliasLength int) *ShortenService {
	if aliasLength <= 0 {
		aliasLength = alias.DefaultLength
	}

	return &ShortenService{
		repo:        repo,
		cache:       cache,
		secretKey:   secretKey,
		aliasLength: aliasLength,
	}
}

// Shorten derives an alias for origin and stores the mapping. The bool
// reports whether a new record was created; callers that already shortened
// the same origin get the existing record back.
//
// If the derived alias is already held by a different origin (a hash
// collision), the derivation input is salted with a random suffix and
// retried. Derivation failures are fatal and never retried.
func (s *ShortenService) Shorten(ctx context.Context, origin string) (*models.ShortURL, bool, error) {
	const op = "service.ShortenService.Shorten"
	const maxRetries = 3

	seed := origin

	for i := 0; i < maxRetries; i++ {
		a, err := alias.Generate(seed, s.secretKey, s.aliasLength)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to generate alias: %w", op, err)
		}

		url, created, err := s.repo.CreateIfAbsent(ctx, a, origin)
		if err != nil {
			if errors.Is(err, database.ErrAliasTaken) {
				salt, err := gonanoid.New(8)
				if err != nil {
					return nil, false, fmt.Errorf("%s: failed to generate salt: %w", op, err)
				}

				seed = origin + "#" + salt
				continue
			}

			return nil, false, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, created, nil
	}

	return nil, false, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// Delete removes the mapping and evicts the cached entry so the alias
// stops resolving immediately. Deleting an absent alias is a no-op.
func (s *ShortenService) Delete(ctx context.Context, aliasStr string) error {
	const op = "service.ShortenService.Delete"

	if err := s.repo.Delete(ctx, aliasStr); err != nil {
		return fmt.Errorf("%s: failed to delete url: %w", op, err)
	}

	s.cache.Delete(ctx, aliasStr)

	return nil
}

// Search returns records whose origin or alias contains query, plus the
// total match count for pagination.
func (s *ShortenService) Search(ctx context.Context, query string, page, size int) ([]models.ShortURL, int64, error) {
	const op = "service.ShortenService.Search"

	page, size = normalizePagination(page, size)

	urls, total, err := s.repo.Search(ctx, query, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to search urls: %w", op, err)
	}

	return urls, total, nil
}

// List returns all records, newest first, plus the total count.
func (s *ShortenService) List(ctx context.Context, page, size int) ([]models.ShortURL, int64, error) {
	const op = "service.ShortenService.List"

	page, size = normalizePagination(page, size)

	urls, total, err := s.repo.ListAll(ctx, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return urls, total, nil
}

func normalizePagination(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	return page, size
}
