package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/jrg-tools/short-url/internal/models"
)

// ShortenService defines the administrative surface behind the /api/ops
// routes. The router assumes authorization happened upstream.
type ShortenService interface {
	// Shorten creates a shortened version of the provided origin URL, or
	// returns the existing record. The bool reports whether a record was
	// created.
	Shorten(ctx context.Context, origin string) (*models.ShortURL, bool, error)

	// Delete removes the URL by its alias. Idempotent.
	Delete(ctx context.Context, alias string) error

	// Search returns records matching the query plus the total match count.
	Search(ctx context.Context, query string, page, size int) ([]models.ShortURL, int64, error)

	// List returns all records, newest first, plus the total count.
	List(ctx context.Context, page, size int) ([]models.ShortURL, int64, error)
}

// RedirectService resolves an alias to its origin URL on the hot path.
type RedirectService interface {
	Resolve(ctx context.Context, alias string) (string, error)
}

// getValidate initializes a validator instance for incoming request
// payloads, extracting field names from JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes the HTTP router with all routes and middleware
// configured. aliasLength is the fixed alias length accepted on the
// redirect path.
func NewRouter(logger *httplog.Logger, shortenSvc ShortenService, redirectSvc RedirectService, aliasLength int) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Get("/ping", handlePing)
	r.Get("/{alias}", handleRedirect(redirectSvc, aliasLength))

	r.Route("/api/ops", func(r chi.Router) {
		r.Post("/new", handleCreateShortURL(shortenSvc, validate))
		r.Get("/search", handleSearchShortURLs(shortenSvc, validate))
		r.Get("/list", handleListShortURLs(shortenSvc, validate))
		r.Delete("/{alias}", handleDeleteShortURL(shortenSvc, aliasLength))
	})

	return r
}
