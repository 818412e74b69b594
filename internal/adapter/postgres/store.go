package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/crm/internal/adapter/otel"
	"github.com/Strob0t/crm/internal/domain/activity"
	"github.com/Strob0t/crm/internal/domain/company"
	"github.com/Strob0t/crm/internal/domain/contact"
	"github.com/Strob0t/crm/internal/domain/deal"
)

// Store implements the database ports using PostgreSQL. It does not own the
// pool; the caller that created the pool closes it.
type Store struct {
	pool *pgxpool.Pool

	Companies  *Table[company.Company]
	Contacts   *Table[contact.Contact]
	Deals      *Table[deal.Deal]
	Activities *Table[activity.Activity]
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:       pool,
		Companies:  NewTable[company.Company](pool, &company.Definition),
		Contacts:   NewTable[contact.Contact](pool, &contact.Definition),
		Deals:      NewTable[deal.Deal](pool, &deal.Definition),
		Activities: NewTable[activity.Activity](pool, &activity.Definition),
	}
}

// Ping checks connectivity with a trivial round trip.
func (s *Store) Ping(ctx context.Context) (err error) {
	ctx, span := otel.StartStoreSpan(ctx, "ping", "")
	defer func() { otel.EndSpan(span, err) }()

	var one int
	if err := s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// CurrentDatabase returns the name of the connected database.
func (s *Store) CurrentDatabase(ctx context.Context) (string, error) {
	var name string
	if err := s.pool.QueryRow(ctx, `SELECT current_database()`).Scan(&name); err != nil {
		return "", fmt.Errorf("current database: %w", err)
	}
	return name, nil
}

// ListTables returns the tables in the public schema, sorted by name.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return orEmpty(tables), rows.Err()
}
