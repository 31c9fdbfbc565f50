// Package database defines the closed error set surfaced by the storage
// layer. Every raw driver error is classified here so that upstream
// components only ever match against these sentinels.
package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrURLNotFound is returned when an attempt is made to retrieve
	// a URL using an alias that doesn't exist.
	ErrURLNotFound = errors.New("url not found")
	// ErrAliasTaken is returned when an alias already maps to a different
	// origin. This is the residual hash-collision case, resolved by the
	// caller through re-derivation.
	ErrAliasTaken = errors.New("alias taken by another origin")
	// ErrConnection is returned when the store is unreachable. Callers may
	// treat the failed operation as retryable.
	ErrConnection = errors.New("store connection failed")
	// ErrTimeout is returned when an operation exceeded its deadline.
	// Surfaced separately from ErrConnection so callers can apply
	// different backoff.
	ErrTimeout = errors.New("store operation timed out")
	// ErrQuery is returned for any other store failure. Not retryable.
	ErrQuery = errors.New("store query failed")
)

// SQLSTATE class 08 covers connection exceptions, 57014 is query_canceled
// (a server-side statement timeout).
const (
	connExceptionClass = "08"
	queryCanceledCode  = "57014"
)

var connectionErrPatterns = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"broken pipe",
	"no such host",
	"bad connection",
}

// Classify maps a raw driver error onto the closed error set, preserving
// the original error text. Matching on the driver's message is the
// fallback when no structured cause is available.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.SQLState() == queryCanceledCode:
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		case strings.HasPrefix(pgErr.SQLState(), connExceptionClass):
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionErrPatterns {
		if strings.Contains(msg, pattern) {
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
	}

	return fmt.Errorf("%w: %v", ErrQuery, err)
}
