package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer flushes buffered log output on shutdown.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler hands records to a fixed set of writer goroutines so request
// handlers never wait on stdout. When the queue is full the record is dropped
// and counted. Handlers derived with WithAttrs or WithGroup share the queue.
type AsyncHandler struct {
	inner slog.Handler
	q     *queue
}

type entry struct {
	h   slog.Handler
	rec slog.Record
}

type queue struct {
	mu      sync.RWMutex
	closed  bool
	entries chan entry
	wg      sync.WaitGroup
	dropped atomic.Int64
	root    slog.Handler
}

// NewAsyncHandler starts workers goroutines draining a queue of size capacity.
func NewAsyncHandler(inner slog.Handler, capacity, workers int) *AsyncHandler {
	q := &queue{entries: make(chan entry, capacity), root: inner}
	for range max(workers, 1) {
		q.wg.Add(1)
		go q.drain()
	}
	return &AsyncHandler{inner: inner, q: q}
}

func (q *queue) drain() {
	defer q.wg.Done()
	for e := range q.entries {
		_ = e.h.Handle(context.Background(), e.rec)
	}
}

// Enabled implements slog.Handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle queues the record. After Close it writes through synchronously.
func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	h.q.mu.RLock()
	defer h.q.mu.RUnlock()
	if h.q.closed {
		return h.inner.Handle(ctx, rec)
	}
	select {
	case h.q.entries <- entry{h: h.inner, rec: rec.Clone()}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), q: h.q}
}

// WithGroup implements slog.Handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), q: h.q}
}

// DroppedCount returns how many records were discarded because the queue was full.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.q.dropped.Load()
}

// Close drains the queue and stops the workers. If records were dropped a
// single warning reporting the count is written last. Close is idempotent.
func (h *AsyncHandler) Close() {
	h.q.mu.Lock()
	if h.q.closed {
		h.q.mu.Unlock()
		return
	}
	h.q.closed = true
	close(h.q.entries)
	h.q.mu.Unlock()

	h.q.wg.Wait()

	if n := h.q.dropped.Load(); n > 0 {
		rec := slog.NewRecord(time.Now(), slog.LevelWarn, "async log records dropped", 0)
		rec.AddAttrs(slog.Int64("dropped", n))
		_ = h.q.root.Handle(context.Background(), rec)
	}
}
