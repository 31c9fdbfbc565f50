package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/jrg-tools/short-url/internal/database"
	"github.com/jrg-tools/short-url/internal/models"
	"github.com/jrg-tools/short-url/pkg/response"
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func validAlias(alias string, length int) bool {
	return len(alias) == length && aliasPattern.MatchString(alias)
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// createRequest is the payload for creating a shortened URL.
type createRequest struct {
	OriginURL string `json:"originUrl" validate:"required,url"`
}

// thinShortURLResponse is the create-endpoint payload: just the pair a
// caller needs to build the short link.
type thinShortURLResponse struct {
	Alias  string `json:"Alias"`
	Origin string `json:"Origin"`
}

type shortURLResponse struct {
	Alias     string    `json:"Alias"`
	Origin    string    `json:"Origin"`
	Hits      int64     `json:"Hits"`
	CreatedAt time.Time `json:"CreatedAt"`
	UpdatedAt time.Time `json:"UpdatedAt"`
}

// listResponse carries one page of records plus the total match count for
// pagination UI purposes.
type listResponse struct {
	List  []shortURLResponse `json:"list"`
	Count int64              `json:"count"`
}

func toListResponse(urls []models.ShortURL, count int64) listResponse {
	list := make([]shortURLResponse, 0, len(urls))
	for _, url := range urls {
		list = append(list, shortURLResponse{
			Alias:     url.Alias,
			Origin:    url.Origin,
			Hits:      url.Hits,
			CreatedAt: url.CreatedAt,
			UpdatedAt: url.UpdatedAt,
		})
	}

	return listResponse{List: list, Count: count}
}

// paginationQuery holds the parsed page/size query parameters.
type paginationQuery struct {
	Query string `json:"q"`
	Page  int    `json:"page" validate:"min=1"`
	Size  int    `json:"size" validate:"min=1,max=100"`
}

func parsePagination(r *http.Request) (paginationQuery, error) {
	q := paginationQuery{
		Query: r.URL.Query().Get("q"),
		Page:  1,
		Size:  10,
	}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("invalid page parameter: %w", err)
		}
		q.Page = page
	}

	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("invalid size parameter: %w", err)
		}
		q.Size = size
	}

	return q, nil
}

// renderStoreError maps the storage error taxonomy onto HTTP statuses.
// Only the generic envelope leaves the process; the full error goes to
// the request log.
func renderStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, database.ErrURLNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
		return
	}

	httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

	switch {
	case errors.Is(err, database.ErrTimeout):
		render.Status(r, http.StatusGatewayTimeout)
		render.JSON(w, r, response.GatewayTimeoutResponse)
	case errors.Is(err, database.ErrConnection):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.ServiceUnavailableResponse)
	default:
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}

// handleRedirect handles GET requests for an alias, replying with a
// permanent redirect to the origin URL.
func handleRedirect(svc RedirectService, aliasLength int) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		alias := chi.URLParam(r, "alias")

		if !validAlias(alias, aliasLength) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		origin, err := svc.Resolve(r.Context(), alias)
		if err != nil {
			renderStoreError(w, r, op, err)
			return
		}

		http.Redirect(w, r, origin, http.StatusMovedPermanently)
	}
}

// handleCreateShortURL handles POST requests to shorten an origin URL.
// Shortening is idempotent: a repeated origin returns the existing alias
// with a 200 instead of a 201.
func handleCreateShortURL(svc ShortenService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleCreateShortURL"

	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, created, err := svc.Shorten(r.Context(), req.OriginURL)
		if err != nil {
			renderStoreError(w, r, op, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}

		render.Status(r, status)
		render.JSON(w, r, thinShortURLResponse{
			Alias:  url.Alias,
			Origin: url.Origin,
		})
	}
}

// handleDeleteShortURL handles DELETE requests by alias. Removal is
// idempotent, so deleting an unknown alias still succeeds.
func handleDeleteShortURL(svc ShortenService, aliasLength int) http.HandlerFunc {
	const op = "api.http.handleDeleteShortURL"

	return func(w http.ResponseWriter, r *http.Request) {
		alias := chi.URLParam(r, "alias")

		if !validAlias(alias, aliasLength) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := svc.Delete(r.Context(), alias); err != nil {
			renderStoreError(w, r, op, err)
			return
		}

		render.NoContent(w, r)
	}
}

// handleSearchShortURLs handles GET requests to search stored URLs by a
// substring of the origin or the alias.
func handleSearchShortURLs(svc ShortenService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleSearchShortURLs"

	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parsePagination(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(q); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		urls, count, err := svc.Search(r.Context(), q.Query, q.Page, q.Size)
		if err != nil {
			renderStoreError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toListResponse(urls, count))
	}
}

// handleListShortURLs handles GET requests for the paginated, unfiltered
// listing, newest first.
func handleListShortURLs(svc ShortenService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleListShortURLs"

	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parsePagination(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(q); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		urls, count, err := svc.List(r.Context(), q.Page, q.Size)
		if err != nil {
			renderStoreError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toListResponse(urls, count))
	}
}
