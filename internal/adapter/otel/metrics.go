package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "crm"

// Metrics holds all CRM metric instruments.
type Metrics struct {
	RecordsCreated metric.Int64Counter
	RecordsUpdated metric.Int64Counter
	RecordsDeleted metric.Int64Counter
	Registrations  metric.Int64Counter
	Logins         metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RecordsCreated, err = meter.Int64Counter("crm.records.created",
		metric.WithDescription("Number of records created"))
	if err != nil {
		return nil, err
	}

	m.RecordsUpdated, err = meter.Int64Counter("crm.records.updated",
		metric.WithDescription("Number of records updated"))
	if err != nil {
		return nil, err
	}

	m.RecordsDeleted, err = meter.Int64Counter("crm.records.deleted",
		metric.WithDescription("Number of delete requests"))
	if err != nil {
		return nil, err
	}

	m.Registrations, err = meter.Int64Counter("crm.auth.registrations",
		metric.WithDescription("Number of registration attempts by outcome"))
	if err != nil {
		return nil, err
	}

	m.Logins, err = meter.Int64Counter("crm.auth.logins",
		metric.WithDescription("Number of login attempts by outcome"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCreated counts one created row of entity. Safe on a nil receiver.
func (m *Metrics) RecordCreated(ctx context.Context, entity string) {
	if m != nil {
		m.RecordsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity)))
	}
}

// RecordUpdated counts one update of entity.
func (m *Metrics) RecordUpdated(ctx context.Context, entity string) {
	if m != nil {
		m.RecordsUpdated.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity)))
	}
}

// RecordDeleted counts one delete request for entity.
func (m *Metrics) RecordDeleted(ctx context.Context, entity string) {
	if m != nil {
		m.RecordsDeleted.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity)))
	}
}

// Registration counts a registration attempt with the given outcome.
func (m *Metrics) Registration(ctx context.Context, outcome string) {
	if m != nil {
		m.Registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// Login counts a login attempt with the given outcome.
func (m *Metrics) Login(ctx context.Context, outcome string) {
	if m != nil {
		m.Logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
