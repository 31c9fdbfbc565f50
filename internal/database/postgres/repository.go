package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/jrg-tools/short-url/internal/database"
	"github.com/jrg-tools/short-url/internal/models"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type shortURLRecord struct {
	Alias     string    `db:"alias"`
	Origin    string    `db:"origin"`
	Hits      int64     `db:"hits"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *shortURLRecord) toModel() *models.ShortURL {
	return &models.ShortURL{
		Alias:     r.Alias,
		Origin:    r.Origin,
		Hits:      r.Hits,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const (
	selectByAliasQuery = `SELECT alias, origin, hits, created_at, updated_at
		FROM short_urls
		WHERE alias = $1`

	selectByOriginQuery = `SELECT alias, origin, hits, created_at, updated_at
		FROM short_urls
		WHERE origin = $1
		ORDER BY created_at DESC
		LIMIT 1`

	insertQuery = `INSERT INTO short_urls(alias, origin)
		VALUES ($1, $2)
		RETURNING alias, origin, hits, created_at, updated_at`
)

// ShortURLRepository provides durable storage of alias → origin mappings
// on top of a shared connection pool.
type ShortURLRepository struct {
	db *sqlx.DB
}

func NewShortURLRepository(db *sqlx.DB) *ShortURLRepository {
	return &ShortURLRepository{db: db}
}

// GetByAlias retrieves a record by its alias. The alias is the primary
// key, so this is a point lookup.
func (r *ShortURLRepository) GetByAlias(ctx context.Context, alias string) (*models.ShortURL, error) {
	const op = "database.postgres.ShortURLRepository.GetByAlias"

	var rec shortURLRecord

	if err := r.db.GetContext(ctx, &rec, selectByAliasQuery, alias); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get short url: %w", op, database.Classify(err))
	}

	return rec.toModel(), nil
}

// GetByOrigin retrieves a record via the secondary index on origin.
func (r *ShortURLRepository) GetByOrigin(ctx context.Context, origin string) (*models.ShortURL, error) {
	const op = "database.postgres.ShortURLRepository.GetByOrigin"

	var rec shortURLRecord

	if err := r.db.GetContext(ctx, &rec, selectByOriginQuery, origin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get short url: %w", op, database.Classify(err))
	}

	return rec.toModel(), nil
}

// CreateIfAbsent inserts a new mapping unless one already exists for the
// origin, in which case the existing record is returned unchanged. The
// second return value reports whether a row was inserted.
//
// A unique violation on the alias means a concurrent creator won the race:
// if the stored origin matches, the existing row is returned; if it
// belongs to a different origin, database.ErrAliasTaken is returned and
// the caller re-derives the alias.
func (r *ShortURLRepository) CreateIfAbsent(ctx context.Context, alias, origin string) (*models.ShortURL, bool, error) {
	const op = "database.postgres.ShortURLRepository.CreateIfAbsent"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to begin transaction: %w", op, database.Classify(err))
	}
	defer tx.Rollback() //nolint:errcheck

	var rec shortURLRecord

	err = tx.GetContext(ctx, &rec, selectByOriginQuery, origin)
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("%s: failed to commit transaction: %w", op, database.Classify(err))
		}

		return rec.toModel(), false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("%s: failed to get short url: %w", op, database.Classify(err))
	}

	if err := tx.GetContext(ctx, &rec, insertQuery, alias, origin); err != nil {
		if isUniqueViolationError(err) {
			_ = tx.Rollback()
			return r.resolveAliasConflict(ctx, op, alias, origin)
		}

		return nil, false, fmt.Errorf("%s: failed to insert short url: %w", op, database.Classify(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: failed to commit transaction: %w", op, database.Classify(err))
	}

	return rec.toModel(), true, nil
}

func (r *ShortURLRepository) resolveAliasConflict(ctx context.Context, op, alias, origin string) (*models.ShortURL, bool, error) {
	var rec shortURLRecord

	if err := r.db.GetContext(ctx, &rec, selectByAliasQuery, alias); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The conflicting row vanished between the insert and the
			// re-read (concurrent delete). Treat as a plain conflict so
			// the caller retries.
			return nil, false, fmt.Errorf("%s: %w", op, database.ErrAliasTaken)
		}

		return nil, false, fmt.Errorf("%s: failed to get short url: %w", op, database.Classify(err))
	}

	if rec.Origin != origin {
		return nil, false, fmt.Errorf("%s: %w", op, database.ErrAliasTaken)
	}

	return rec.toModel(), false, nil
}

// Search returns records whose origin contains query (case-insensitive)
// or whose alias contains query (case-sensitive), plus the total match
// count. Count and page are read in one read-only transaction, so the
// count is consistent as of the count query.
func (r *ShortURLRepository) Search(ctx context.Context, query string, page, size int) ([]models.ShortURL, int64, error) {
	const op = "database.postgres.ShortURLRepository.Search"

	const countQuery = `SELECT count(*)
		FROM short_urls
		WHERE lower(origin) LIKE lower($1) OR alias LIKE $1`

	const pageQuery = `SELECT alias, origin, hits, created_at, updated_at
		FROM short_urls
		WHERE lower(origin) LIKE lower($1) OR alias LIKE $1
		ORDER BY created_at DESC, alias
		LIMIT $2 OFFSET $3`

	pattern := "%" + query + "%"

	return r.page(ctx, op, countQuery, pageQuery, []any{pattern}, page, size)
}

// ListAll returns all records ordered by creation time descending, plus
// the total count, under the same pagination contract as Search.
func (r *ShortURLRepository) ListAll(ctx context.Context, page, size int) ([]models.ShortURL, int64, error) {
	const op = "database.postgres.ShortURLRepository.ListAll"

	const countQuery = `SELECT count(*) FROM short_urls`

	const pageQuery = `SELECT alias, origin, hits, created_at, updated_at
		FROM short_urls
		ORDER BY created_at DESC, alias
		LIMIT $1 OFFSET $2`

	return r.page(ctx, op, countQuery, pageQuery, nil, page, size)
}

func (r *ShortURLRepository) page(ctx context.Context, op, countQuery, pageQuery string, args []any, page, size int) ([]models.ShortURL, int64, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to begin transaction: %w", op, database.Classify(err))
	}
	defer tx.Rollback() //nolint:errcheck

	var total int64

	if err := tx.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count short urls: %w", op, database.Classify(err))
	}

	offset := (page - 1) * size

	var recs []shortURLRecord

	if err := tx.SelectContext(ctx, &recs, pageQuery, append(args, size, offset)...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to select short urls: %w", op, database.Classify(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to commit transaction: %w", op, database.Classify(err))
	}

	urls := make([]models.ShortURL, 0, len(recs))
	for i := range recs {
		urls = append(urls, *recs[i].toModel())
	}

	return urls, total, nil
}

// IncrementHits sets the hit counter to observed+1 for the given alias.
// The read happens at fetch time on the redirect path, so concurrent
// redirects may lose updates; the guard on the current value keeps the
// counter from ever going backwards. A missing row is not an error.
func (r *ShortURLRepository) IncrementHits(ctx context.Context, alias string, observed int64) error {
	const op = "database.postgres.ShortURLRepository.IncrementHits"

	const query = `UPDATE short_urls
		SET hits = $1, updated_at = now()
		WHERE alias = $2 AND hits < $1`

	if _, err := r.db.ExecContext(ctx, query, observed+1, alias); err != nil {
		return fmt.Errorf("%s: failed to update hit count: %w", op, database.Classify(err))
	}

	return nil
}

// Delete removes the record with the given alias. Deleting an alias that
// doesn't exist is a no-op.
func (r *ShortURLRepository) Delete(ctx context.Context, alias string) error {
	const op = "database.postgres.ShortURLRepository.Delete"

	const query = `DELETE FROM short_urls WHERE alias = $1`

	if _, err := r.db.ExecContext(ctx, query, alias); err != nil {
		return fmt.Errorf("%s: failed to delete short url: %w", op, database.Classify(err))
	}

	return nil
}
