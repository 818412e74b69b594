package service

import (
	"context"
	"sync"
	"time"

	"github.com/Strob0t/crm/internal/domain"
	"github.com/Strob0t/crm/internal/domain/company"
	"github.com/Strob0t/crm/internal/domain/record"
	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/port/database"
)

// Ensure the mocks implement the ports at compile time.
var _ database.UserStore = (*mockUserStore)(nil)

var _ database.RecordStore[company.Company] = (*mockCompanies)(nil)

// mockUserStore is a minimal in-memory implementation of database.UserStore.
type mockUserStore struct {
	mu     sync.Mutex
	users  []user.User
	nextID int64

	// Error hooks: set these to inject failures.
	getByEmailErr error
	createErr     error
}

func (m *mockUserStore) CreateUser(_ context.Context, u *user.User) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
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

func (m *mockUserStore) GetUser(_ context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]user.User, 0, len(m.users))
	for i := len(m.users) - 1; i >= 0; i-- {
		out = append(out, m.users[i])
	}
	return out, nil
}

func (m *mockUserStore) UpdateUserPassword(_ context.Context, id int64, hash string) error {
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

func (m *mockUserStore) UpdateUserRole(_ context.Context, id int64, role user.Role) error {
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

// mockCompanies is an in-memory companies table.
type mockCompanies struct {
	rows    []company.Company
	nextID  int64
	inserts int

	listErr error
}

func fromValues(c *company.Company, vals record.Values) {
	c.Name = vals[0].(string)
	c.Domain, c.Phone = optString(vals[1]), optString(vals[2])
}

func optString(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func (m *mockCompanies) List(_ context.Context) ([]company.Company, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]company.Company, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

func (m *mockCompanies) Get(_ context.Context, id int64) (*company.Company, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			c := m.rows[i]
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCompanies) Create(ctx context.Context, vals record.Values, owner *int64) (*company.Company, error) {
	m.inserts++
	m.nextID++
	c := company.Company{ID: m.nextID, OwnerID: owner, CreatedAt: time.Now().UTC()}
	fromValues(&c, vals)
	m.rows = append(m.rows, c)
	return m.Get(ctx, c.ID)
}

func (m *mockCompanies) Update(ctx context.Context, id int64, vals record.Values) (*company.Company, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			fromValues(&m.rows[i], vals)
			return m.Get(ctx, id)
		}
	}
	return nil, nil
}

func (m *mockCompanies) Delete(_ context.Context, id int64) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}
