package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/crm/internal/adapter/otel"
	"github.com/Strob0t/crm/internal/domain"
	"github.com/Strob0t/crm/internal/domain/record"
)

// Row is implemented by pointers to entity structs that can scan themselves
// from a select list in record.Definition.Columns order.
type Row[T any] interface {
	*T
	ScanTargets() []any
}

// Table implements database.RecordStore for one CRM table described by a
// record.Definition. All SQL is built once at construction.
type Table[T any] struct {
	pool *pgxpool.Pool
	def  *record.Definition
	scan func(scannable) (*T, error)

	listSQL   string
	getSQL    string
	insertSQL string
	updateSQL string
	deleteSQL string
}

// NewTable builds a Table for def. The type parameter P is inferred from T.
func NewTable[T any, P Row[T]](pool *pgxpool.Pool, def *record.Definition) *Table[T] {
	table := pgx.Identifier{def.Table}.Sanitize()
	selectList := quoteList(def.Columns)

	fields := def.ColumnNames()
	insertCols := append(append([]string{}, fields...), def.OwnerColumn)
	placeholders := make([]string, len(insertCols))
	for i := range insertCols {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	assignments := make([]string, len(fields))
	for i, f := range fields {
		assignments[i] = pgx.Identifier{f}.Sanitize() + " = $" + strconv.Itoa(i+1)
	}

	return &Table[T]{
		pool: pool,
		def:  def,
		scan: func(row scannable) (*T, error) {
			var v T
			if err := row.Scan(P(&v).ScanTargets()...); err != nil {
				return nil, err
			}
			return &v, nil
		},
		listSQL: fmt.Sprintf(`SELECT %s FROM %s ORDER BY id DESC`, selectList, table),
		getSQL:  fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectList, table),
		insertSQL: fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
			table, quoteList(insertCols), strings.Join(placeholders, ", ")),
		updateSQL: fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`,
			table, strings.Join(assignments, ", "), len(fields)+1),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table),
	}
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pgx.Identifier{n}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

// List returns every row, newest id first.
func (t *Table[T]) List(ctx context.Context) (_ []T, err error) {
	ctx, span := otel.StartStoreSpan(ctx, "select", t.def.Table)
	defer func() { otel.EndSpan(span, err) }()

	rows, err := t.pool.Query(ctx, t.listSQL)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.def.Table, err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.def.Entity, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.def.Table, err)
	}
	return orEmpty(items), nil
}

// Get returns the row with id or domain.ErrNotFound.
func (t *Table[T]) Get(ctx context.Context, id int64) (_ *T, err error) {
	ctx, span := otel.StartStoreSpan(ctx, "select", t.def.Table)
	defer func() { otel.EndSpan(span, err) }()

	item, err := t.scan(t.pool.QueryRow(ctx, t.getSQL, id))
	if err != nil {
		return nil, wrapErr(err, "get %s %d", t.def.Entity, id)
	}
	return item, nil
}

// Create inserts vals with owner stamped into the owner column, then re-reads
// the row so database defaults are reflected. The two statements are not in
// one transaction; a concurrent delete in between yields domain.ErrNotFound.
func (t *Table[T]) Create(ctx context.Context, vals record.Values, owner *int64) (_ *T, err error) {
	if len(vals) != len(t.def.Fields) {
		return nil, fmt.Errorf("create %s: got %d values for %d fields", t.def.Entity, len(vals), len(t.def.Fields))
	}

	insertCtx, span := otel.StartStoreSpan(ctx, "insert", t.def.Table)
	args := append(append(make([]any, 0, len(vals)+1), vals...), owner)
	var id int64
	err = t.pool.QueryRow(insertCtx, t.insertSQL, args...).Scan(&id)
	otel.EndSpan(span, err)
	if err != nil {
		return nil, wrapErr(err, "create %s", t.def.Entity)
	}

	return t.Get(ctx, id)
}

// Update overwrites every mutable field of id and re-reads the row. A missing
// id is not an error: it returns nil, nil.
func (t *Table[T]) Update(ctx context.Context, id int64, vals record.Values) (_ *T, err error) {
	if len(vals) != len(t.def.Fields) {
		return nil, fmt.Errorf("update %s: got %d values for %d fields", t.def.Entity, len(vals), len(t.def.Fields))
	}

	updateCtx, span := otel.StartStoreSpan(ctx, "update", t.def.Table)
	args := append(append(make([]any, 0, len(vals)+1), vals...), id)
	tag, err := t.pool.Exec(updateCtx, t.updateSQL, args...)
	otel.EndSpan(span, err)
	if err != nil {
		return nil, wrapErr(err, "update %s %d", t.def.Entity, id)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}

	item, err := t.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return item, err
}

// Delete removes id unconditionally.
func (t *Table[T]) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := otel.StartStoreSpan(ctx, "delete", t.def.Table)
	defer func() { otel.EndSpan(span, err) }()

	if _, err := t.pool.Exec(ctx, t.deleteSQL, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", t.def.Entity, id, err)
	}
	return nil
}
