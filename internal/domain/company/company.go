// Package company defines the Company entity.
package company

import (
	"time"

	"github.com/Strob0t/crm/internal/domain/record"
)

// Company is an organisation tracked in the CRM.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Domain    *string   `json:"domain"`
	Phone     *string   `json:"phone"`
	OwnerID   *int64    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Definition describes the companies table.
var Definition = record.Definition{
	Entity:  "company",
	Table:   "companies",
	Columns: []string{"id", "name", "domain", "phone", "owner_id", "created_at"},
	Fields: []record.Field{
		{Name: "name", Kind: record.Text, Required: true},
		{Name: "domain", Kind: record.Text},
		{Name: "phone", Kind: record.Text},
	},
	OwnerColumn: "owner_id",
}

// ScanTargets returns pointers matching Definition.Columns.
func (c *Company) ScanTargets() []any {
	return []any{&c.ID, &c.Name, &c.Domain, &c.Phone, &c.OwnerID, &c.CreatedAt}
}
