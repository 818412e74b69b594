package service

import (
	"context"

	cfotel "github.com/Strob0t/crm/internal/adapter/otel"
	"github.com/Strob0t/crm/internal/domain/record"
	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/port/database"
)

// RecordService implements list/get/create/update/delete for one CRM entity.
// Create and Update share the definition's Normalize pass.
type RecordService[T any] struct {
	def     *record.Definition
	store   database.RecordStore[T]
	metrics *cfotel.Metrics
}

// NewRecordService creates a service for the entity described by def.
func NewRecordService[T any](def *record.Definition, store database.RecordStore[T]) *RecordService[T] {
	return &RecordService[T]{def: def, store: store}
}

// SetMetrics attaches metric instruments. Nil disables counting.
func (s *RecordService[T]) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// Entity returns the singular entity name.
func (s *RecordService[T]) Entity() string { return s.def.Entity }

// List returns every row, newest first.
func (s *RecordService[T]) List(ctx context.Context) ([]T, error) {
	return s.store.List(ctx)
}

// Get returns one row or domain.ErrNotFound.
func (s *RecordService[T]) Get(ctx context.Context, id int64) (*T, error) {
	return s.store.Get(ctx, id)
}

// Create validates in, stamps the actor as owner (NULL when actor is nil),
// and returns the row as persisted.
func (s *RecordService[T]) Create(ctx context.Context, actor *user.Identity, in record.Input) (*T, error) {
	vals, err := s.def.Normalize(in)
	if err != nil {
		return nil, err
	}
	var owner *int64
	if actor != nil {
		id := actor.UserID
		owner = &id
	}
	item, err := s.store.Create(ctx, vals, owner)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCreated(ctx, s.def.Entity)
	return item, nil
}

// Update replaces every mutable field of id. Omitted fields revert to their
// defaults. A missing id returns nil with no error.
func (s *RecordService[T]) Update(ctx context.Context, id int64, in record.Input) (*T, error) {
	vals, err := s.def.Normalize(in)
	if err != nil {
		return nil, err
	}
	item, err := s.store.Update(ctx, id, vals)
	if err != nil {
		return nil, err
	}
	if item != nil {
		s.metrics.RecordUpdated(ctx, s.def.Entity)
	}
	return item, nil
}

// Delete removes id. Deleting a missing id succeeds.
func (s *RecordService[T]) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordDeleted(ctx, s.def.Entity)
	return nil
}
