// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/crm/internal/domain/record"
	"github.com/Strob0t/crm/internal/domain/user"
)

// UserStore is the port interface for account storage.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) (*user.User, error)
	GetUser(ctx context.Context, id int64) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUserRole(ctx context.Context, id int64, role user.Role) error
}

// RecordStore is the port interface for one CRM table. Values are aligned
// with the table's record.Definition fields.
type RecordStore[T any] interface {
	// List returns every row, newest id first.
	List(ctx context.Context) ([]T, error)
	// Get returns domain.ErrNotFound when no row matches.
	Get(ctx context.Context, id int64) (*T, error)
	// Create inserts a row, stamping owner (nil for NULL), and returns it as persisted.
	Create(ctx context.Context, vals record.Values, owner *int64) (*T, error)
	// Update overwrites every mutable field. It returns nil, nil when id does not exist.
	Update(ctx context.Context, id int64, vals record.Values) (*T, error)
	// Delete removes the row if present. Deleting a missing id is not an error.
	Delete(ctx context.Context, id int64) error
}

// Pinger reports backing store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
