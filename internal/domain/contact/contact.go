// Package contact defines the Contact entity.
package contact

import (
	"time"

	"github.com/Strob0t/crm/internal/domain/record"
)

// Contact is a person, optionally linked to a company. The company reference
// is not checked for existence.
type Contact struct {
	ID        int64     `json:"id"`
	CompanyID *int64    `json:"company_id"`
	FirstName string    `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	OwnerID   *int64    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Definition describes the contacts table.
var Definition = record.Definition{
	Entity:  "contact",
	Table:   "contacts",
	Columns: []string{"id", "company_id", "first_name", "last_name", "email", "phone", "owner_id", "created_at"},
	Fields: []record.Field{
		{Name: "company_id", Kind: record.Reference},
		{Name: "first_name", Kind: record.Text, Required: true},
		{Name: "last_name", Kind: record.Text},
		{Name: "email", Kind: record.Text},
		{Name: "phone", Kind: record.Text},
	},
	OwnerColumn: "owner_id",
}

// ScanTargets returns pointers matching Definition.Columns.
func (c *Contact) ScanTargets() []any {
	return []any{&c.ID, &c.CompanyID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.OwnerID, &c.CreatedAt}
}
