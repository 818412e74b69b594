package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Strob0t/crm/internal/domain/activity"
	"github.com/Strob0t/crm/internal/domain/company"
	"github.com/Strob0t/crm/internal/domain/contact"
	"github.com/Strob0t/crm/internal/domain/deal"
)

// Resource is the CRUD surface of one CRM collection.
type Resource[T any] struct {
	c    *Client
	path string
}

// Companies returns the /companies collection.
func (c *Client) Companies() *Resource[company.Company] {
	return &Resource[company.Company]{c: c, path: "/companies"}
}

// Contacts returns the /contacts collection.
func (c *Client) Contacts() *Resource[contact.Contact] {
	return &Resource[contact.Contact]{c: c, path: "/contacts"}
}

// Deals returns the /deals collection.
func (c *Client) Deals() *Resource[deal.Deal] {
	return &Resource[deal.Deal]{c: c, path: "/deals"}
}

// Activities returns the /activities collection.
func (c *Client) Activities() *Resource[activity.Activity] {
	return &Resource[activity.Activity]{c: c, path: "/activities"}
}

func (r *Resource[T]) item(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

// List returns every row, newest first.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, http.MethodGet, r.path, nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one row. A missing row is an *APIError with status 404.
func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodGet, r.item(id), nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create inserts a row. body is any JSON-encodable object of field values.
func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPost, r.path, body, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces every mutable field of a row. It returns nil when the row
// does not exist.
func (r *Resource[T]) Update(ctx context.Context, id int64, body any) (*T, error) {
	var out *T
	if err := r.c.do(ctx, http.MethodPut, r.item(id), body, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a row. Deleting a missing row succeeds.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, r.item(id), nil, true, nil)
}
