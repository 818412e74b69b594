package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/Strob0t/crm/internal/domain"
	"github.com/Strob0t/crm/internal/domain/record"
	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/port/database"
)

var _ database.UserStore = (*memUsers)(nil)

// memUsers is an in-memory database.UserStore.
type memUsers struct {
	mu     sync.Mutex
	users  []user.User
	nextID int64
}

func (m *memUsers) CreateUser(_ context.Context, u *user.User) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == u.Email {
			return nil, domain.ErrConflict
		}
	}
	m.nextID++
	stored := *u
	stored.ID = m.nextID
	if stored.Role == "" {
		stored.Role = user.RoleUser
	}
	stored.CreatedAt = time.Now().UTC()
	m.users = append(m.users, stored)
	return &stored, nil
}

func (m *memUsers) find(match func(*user.User) bool) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if match(&m.users[i]) {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetUser(_ context.Context, id int64) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.ID == id })
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.Email == email })
}

func (m *memUsers) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.users)
	slices.Reverse(out)
	return out, nil
}

func (m *memUsers) UpdateUserPassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].PasswordHash = hash
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memUsers) UpdateUserRole(_ context.Context, id int64, role user.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].Role = role
			return nil
		}
	}
	return domain.ErrNotFound
}

// memTable is an in-memory database.RecordStore. Rows are held as JSON
// objects keyed by column name and decoded into T on read, so one
// implementation serves every entity.
type memTable[T any] struct {
	mu     sync.Mutex
	def    *record.Definition
	rows   map[int64]map[string]any
	nextID int64

	listErr error
}

func newMemTable[T any](def *record.Definition) *memTable[T] {
	return &memTable[T]{def: def, rows: make(map[int64]map[string]any)}
}

func (m *memTable[T]) decode(row map[string]any) (*T, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *memTable[T]) List(_ context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	slices.Reverse(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		item, err := m.decode(m.rows[id])
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

func (m *memTable[T]) Get(_ context.Context, id int64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.decode(row)
}

func (m *memTable[T]) Create(_ context.Context, vals record.Values, owner *int64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(vals) != len(m.def.Fields) {
		return nil, errors.New("value count mismatch")
	}
	m.nextID++
	row := map[string]any{
		"id":              m.nextID,
		"created_at":      time.Now().UTC(),
		m.def.OwnerColumn: owner,
	}
	for i, f := range m.def.Fields {
		row[f.Name] = vals[i]
	}
	m.rows[m.nextID] = row
	return m.decode(row)
}

func (m *memTable[T]) Update(_ context.Context, id int64, vals record.Values) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	for i, f := range m.def.Fields {
		row[f.Name] = vals[i]
	}
	return m.decode(row)
}

func (m *memTable[T]) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// stubDiagnostics implements the handlers' database diagnostics.
type stubDiagnostics struct {
	pingErr error
}

func (s *stubDiagnostics) Ping(context.Context) error { return s.pingErr }

func (s *stubDiagnostics) CurrentDatabase(context.Context) (string, error) { return "crm_test", nil }

func (s *stubDiagnostics) ListTables(context.Context) ([]string, error) {
	return []string{"activities", "companies", "contacts", "deals", "goose_db_version", "users"}, nil
}
