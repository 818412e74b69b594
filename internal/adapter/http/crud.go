package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/crm/internal/domain/record"
	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/middleware"
)

// recordService is the slice of service.RecordService the handlers use.
type recordService[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, actor *user.Identity, in record.Input) (*T, error)
	Update(ctx context.Context, id int64, in record.Input) (*T, error)
	Delete(ctx context.Context, id int64) error
}

const notFoundMsg = "Not found"

// ---------------------------------------------------------------------------
// Generic CRUD handler factories
// ---------------------------------------------------------------------------

// handleList creates a handler that lists every row, newest first.
func handleList[T any](svc recordService[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeInternalError(w, r, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// handleGet creates a handler that retrieves a single row by URL param "id".
func handleGet[T any](svc recordService[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleCreate creates a handler that inserts a row owned by the caller.
func handleCreate[T any](bodyLimit int64, svc recordService[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := readJSON[record.Input](w, r, bodyLimit)
		if !ok {
			return
		}
		item, err := svc.Create(r.Context(), middleware.IdentityFromContext(r.Context()), in)
		if err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

// handleUpdate creates a handler that replaces every mutable field of a row.
// A missing row yields 200 with a JSON null body.
func handleUpdate[T any](bodyLimit int64, svc recordService[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		in, ok := readJSON[record.Input](w, r, bodyLimit)
		if !ok {
			return
		}
		item, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleDelete creates a handler that removes a row by URL param "id".
func handleDelete[T any](svc recordService[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeDomainError(w, r, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

// mountResource registers the five CRUD routes for one entity under r.
func mountResource[T any](r chi.Router, path string, bodyLimit int64, svc recordService[T]) {
	r.Get(path, handleList(svc))
	r.Post(path, handleCreate(bodyLimit, svc))
	r.Get(path+"/{id}", handleGet(svc))
	r.Put(path+"/{id}", handleUpdate(bodyLimit, svc))
	r.Delete(path+"/{id}", handleDelete(svc))
}
