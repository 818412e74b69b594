package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/crm/internal/domain/activity"
	"github.com/Strob0t/crm/internal/domain/company"
	"github.com/Strob0t/crm/internal/domain/contact"
	"github.com/Strob0t/crm/internal/domain/deal"
	"github.com/Strob0t/crm/internal/service"
)

// Diagnostics reports on the backing database.
type Diagnostics interface {
	Ping(ctx context.Context) error
	CurrentDatabase(ctx context.Context) (string, error)
	ListTables(ctx context.Context) ([]string, error)
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth       *service.AuthService
	Companies  *service.RecordService[company.Company]
	Contacts   *service.RecordService[contact.Contact]
	Deals      *service.RecordService[deal.Deal]
	Activities *service.RecordService[activity.Activity]
	DB         Diagnostics

	ServiceName string
	BodyLimit   int64
	StartedAt   time.Time
}

type statusResponse struct {
	OK      bool     `json:"ok"`
	Service string   `json:"service"`
	Uptime  *float64 `json:"uptime,omitempty"`
	DB      string   `json:"db,omitempty"`
}

// Root handles GET /
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	uptime := time.Since(h.StartedAt).Seconds()
	writeJSON(w, http.StatusOK, statusResponse{OK: true, Service: h.ServiceName, Uptime: &uptime})
}

// Health handles GET /health. It answers 503 when the database is unreachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		slog.Warn("health check: database unreachable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{OK: false, Service: h.ServiceName, DB: "down"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{OK: true, Service: h.ServiceName, DB: "up"})
}

type pingResponse struct {
	OK     bool            `json:"ok"`
	Method string          `json:"method"`
	Got    json.RawMessage `json:"got"`
}

// Ping handles POST /ping by echoing the decoded body.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	got, ok := readJSON[json.RawMessage](w, r, h.BodyLimit)
	if !ok {
		return
	}
	if len(got) == 0 {
		got = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, pingResponse{OK: true, Method: r.Method, Got: got})
}

type debugDBResponse struct {
	DB     *string  `json:"db"`
	Tables []string `json:"tables"`
}

// DebugDB handles GET /_debug/db
func (h *Handlers) DebugDB(w http.ResponseWriter, r *http.Request) {
	name, err := h.DB.CurrentDatabase(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	tables, err := h.DB.ListTables(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	resp := debugDBResponse{Tables: tables}
	if name != "" {
		resp.DB = &name
	}
	writeJSON(w, http.StatusOK, resp)
}
