package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/crm/internal/adapter/otel"
	"github.com/Strob0t/crm/internal/domain/user"
)

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// CreateUser inserts u and returns the stored row. A duplicate email yields
// domain.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *user.User) (_ *user.User, err error) {
	ctx, span := otel.StartStoreSpan(ctx, "insert", "users")
	defer func() { otel.EndSpan(span, err) }()

	role := u.Role
	if role == "" {
		role = user.RoleUser
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, role,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, wrapErr(err, "create user %s", u.Email)
	}
	return &created, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (_ *user.User, err error) {
	ctx, span := otel.StartStoreSpan(ctx, "select", "users")
	defer func() { otel.EndSpan(span, err) }()

	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "get user %d", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (_ *user.User, err error) {
	ctx, span := otel.StartStoreSpan(ctx, "select", "users")
	defer func() { otel.EndSpan(span, err) }()

	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, wrapErr(err, "get user by email")
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) (_ []user.User, err error) {
	ctx, span := otel.StartStoreSpan(ctx, "select", "users")
	defer func() { otel.EndSpan(span, err) }()

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return orEmpty(users), rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) (err error) {
	ctx, span := otel.StartStoreSpan(ctx, "update", "users")
	defer func() { otel.EndSpan(span, err) }()

	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return expectOne(tag, err, "update password for user %d", id)
}

func (s *Store) UpdateUserRole(ctx context.Context, id int64, role user.Role) (err error) {
	ctx, span := otel.StartStoreSpan(ctx, "update", "users")
	defer func() { otel.EndSpan(span, err) }()

	tag, err := s.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	return expectOne(tag, err, "update role for user %d", id)
}
