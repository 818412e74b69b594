// Package activity defines the Activity entity: notes, calls, emails, and
// meetings logged against a deal or contact.
package activity

import (
	"time"

	"github.com/Strob0t/crm/internal/domain/record"
)

// Activity types offered by the client. The server stores any string.
const (
	TypeNote    = "Note"
	TypeCall    = "Call"
	TypeEmail   = "Email"
	TypeMeeting = "Meeting"
)

// Types lists the activity types in display order.
var Types = []string{TypeNote, TypeCall, TypeEmail, TypeMeeting}

// Activity is a timeline entry.
type Activity struct {
	ID        int64      `json:"id"`
	DealID    *int64     `json:"deal_id"`
	ContactID *int64     `json:"contact_id"`
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	DueAt     *time.Time `json:"due_at"`
	CreatedBy *int64     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// Definition describes the activities table.
var Definition = record.Definition{
	Entity:  "activity",
	Table:   "activities",
	Columns: []string{"id", "deal_id", "contact_id", "type", "content", "due_at", "created_by", "created_at"},
	Fields: []record.Field{
		{Name: "deal_id", Kind: record.Reference},
		{Name: "contact_id", Kind: record.Reference},
		{Name: "type", Kind: record.Text, Default: TypeNote},
		{Name: "content", Kind: record.Text, Required: true},
		{Name: "due_at", Kind: record.Timestamp},
	},
	OwnerColumn: "created_by",
}

// ScanTargets returns pointers matching Definition.Columns.
func (a *Activity) ScanTargets() []any {
	return []any{&a.ID, &a.DealID, &a.ContactID, &a.Type, &a.Content, &a.DueAt, &a.CreatedBy, &a.CreatedAt}
}
