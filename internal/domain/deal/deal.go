// Package deal defines the Deal entity.
package deal

import (
	"time"

	"github.com/Strob0t/crm/internal/domain/record"
)

// Stage values offered by the client. The server stores any string.
const (
	StageNew       = "New"
	StageQualified = "Qualified"
	StageProposal  = "Proposal"
	StageWon       = "Won"
	StageLost      = "Lost"
)

// Stages lists the pipeline stages in display order.
var Stages = []string{StageNew, StageQualified, StageProposal, StageWon, StageLost}

// Deal is a sales opportunity.
type Deal struct {
	ID        int64      `json:"id"`
	CompanyID *int64     `json:"company_id"`
	ContactID *int64     `json:"contact_id"`
	Title     string     `json:"title"`
	Amount    float64    `json:"amount"`
	Stage     string     `json:"stage"`
	CloseDate *time.Time `json:"close_date"`
	OwnerID   *int64     `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// Definition describes the deals table.
var Definition = record.Definition{
	Entity:  "deal",
	Table:   "deals",
	Columns: []string{"id", "company_id", "contact_id", "title", "amount", "stage", "close_date", "owner_id", "created_at"},
	Fields: []record.Field{
		{Name: "company_id", Kind: record.Reference},
		{Name: "contact_id", Kind: record.Reference},
		{Name: "title", Kind: record.Text, Required: true},
		{Name: "amount", Kind: record.Decimal, Default: float64(0)},
		{Name: "stage", Kind: record.Text, Default: StageNew},
		{Name: "close_date", Kind: record.Date},
	},
	OwnerColumn: "owner_id",
}

// ScanTargets returns pointers matching Definition.Columns.
func (d *Deal) ScanTargets() []any {
	return []any{&d.ID, &d.CompanyID, &d.ContactID, &d.Title, &d.Amount, &d.Stage, &d.CloseDate, &d.OwnerID, &d.CreatedAt}
}
