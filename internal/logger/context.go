package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type fieldsKey struct{}

// fields is the per-request logging metadata carried by a context. One value
// is shared by every context derived within a request, so the user id set by
// auth also reaches records logged against the outer request context.
type fields struct {
	requestID string
	userID    atomic.Int64
}

func fieldsFrom(ctx context.Context) *fields {
	f, _ := ctx.Value(fieldsKey{}).(*fields)
	return f
}

// WithRequestID returns a context whose log records carry request_id. It
// starts a new request scope; a user id already in ctx is carried over.
func WithRequestID(ctx context.Context, id string) context.Context {
	f := &fields{requestID: id}
	if prev := fieldsFrom(ctx); prev != nil {
		f.userID.Store(prev.userID.Load())
	}
	return context.WithValue(ctx, fieldsKey{}, f)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if f := fieldsFrom(ctx); f != nil {
		return f.requestID
	}
	return ""
}

// WithUserID records the user id in the request scope of ctx, creating one
// when ctx has none. Every context sharing that scope sees the id.
func WithUserID(ctx context.Context, id int64) context.Context {
	if f := fieldsFrom(ctx); f != nil {
		f.userID.Store(id)
		return ctx
	}
	f := &fields{}
	f.userID.Store(id)
	return context.WithValue(ctx, fieldsKey{}, f)
}

// UserID returns the authenticated user ID stored in ctx, or 0.
func UserID(ctx context.Context) int64 {
	if f := fieldsFrom(ctx); f != nil {
		return f.userID.Load()
	}
	return 0
}

// ContextHandler adds the request_id and user_id found in the record's
// context before passing it on.
type ContextHandler struct {
	slog.Handler
}

// Handle implements slog.Handler.
func (h ContextHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if rid := RequestID(ctx); rid != "" {
		rec.AddAttrs(slog.String("request_id", rid))
	}
	if uid := UserID(ctx); uid != 0 {
		rec.AddAttrs(slog.Int64("user_id", uid))
	}
	return h.Handler.Handle(ctx, rec)
}

// WithAttrs implements slog.Handler.
func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{h.Handler.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{h.Handler.WithGroup(name)}
}
