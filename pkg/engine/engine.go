// Package engine resolves observed requests against an ordered handler
// list and owns the list's runtime mutations. One Engine is created per
// setup call and torn down with Close; there is no process-wide
// registry.
package engine

import (
	"log/slog"
	"sync"

	"github.com/mockwire/mockwire/pkg/handler"
	"github.com/mockwire/mockwire/pkg/logging"
	"github.com/mockwire/mockwire/pkg/requestlog"
)

// Engine owns the initial and current handler lists. The current list is
// the only shared mutable state between in-flight resolutions; all
// mutations are happens-before boundaries guarded by the mutex.
type Engine struct {
	mu      sync.Mutex
	initial []handler.Handler
	current []handler.Handler
	warned  map[handler.Handler]bool
	closed  bool

	log    *slog.Logger
	reqLog requestlog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured diagnostics logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithRequestLog sets the collaborator receiving one entry per resolved
// request.
func WithRequestLog(l requestlog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.reqLog = l
		}
	}
}

// New creates an Engine over the initially declared handlers. The given
// order is significant: the first handler wins ties. Nil handlers are a
// programmer error and panic at setup time.
func New(handlers []handler.Handler, opts ...Option) *Engine {
	e := &Engine{
		log:    logging.Nop(),
		reqLog: requestlog.Nop(),
		warned: map[handler.Handler]bool{},
	}
	for _, opt := range opts {
		opt(e)
	}
	validate(handlers)
	e.initial = append([]handler.Handler(nil), handlers...)
	e.current = append([]handler.Handler(nil), handlers...)
	for _, h := range handlers {
		e.warnMask(h)
	}
	return e
}

// Use prepends handlers to the current list, in the given order: the
// first of the new handlers ends up at the very front.
func (e *Engine) Use(handlers ...handler.Handler) {
	validate(handlers)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	next := make([]handler.Handler, 0, len(handlers)+len(e.current))
	next = append(next, handlers...)
	next = append(next, e.current...)
	e.current = next
	for _, h := range handlers {
		e.warnMask(h)
	}
}

// RestoreHandlers clears one-shot consumption on every handler currently
// in the list.
func (e *Engine) RestoreHandlers() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range e.current {
		h.Usage().Restore()
	}
}

// ResetHandlers replaces the current list with the given handlers, or
// with a fresh copy of the initially declared set when none are given.
// One-shot flags are cleared in both cases.
func (e *Engine) ResetHandlers(handlers ...handler.Handler) {
	validate(handlers)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if len(handlers) > 0 {
		e.current = append([]handler.Handler(nil), handlers...)
	} else {
		e.current = append([]handler.Handler(nil), e.initial...)
	}
	// Prune warn dedup state for handlers that left the list, so the
	// map stays bounded by the list size across reset cycles.
	kept := make(map[handler.Handler]bool, len(e.current))
	for _, h := range e.current {
		if e.warned[h] {
			kept[h] = true
		}
	}
	e.warned = kept
	for _, h := range e.current {
		h.Usage().Restore()
		e.warnMask(h)
	}
}

// Handlers returns a snapshot of the current list, front first.
func (e *Engine) Handlers() []handler.Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]handler.Handler(nil), e.current...)
}

// Close tears the engine down. Subsequent resolutions report no match
// and mutations are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.current = nil
	e.initial = nil
}

func (e *Engine) snapshot() ([]handler.Handler, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, false
	}
	return append([]handler.Handler(nil), e.current...), true
}

// warnMask surfaces the once-per-handler query-string mask diagnostic.
// Callers hold the mutex, except New, which is single-threaded.
func (e *Engine) warnMask(h handler.Handler) {
	w, ok := h.(interface{ Warning() string })
	if !ok || e.warned[h] {
		return
	}
	if msg := w.Warning(); msg != "" {
		e.warned[h] = true
		e.log.Warn("handler mask diagnostic", "handler", h.Describe(), "warning", msg)
	}
}

func validate(handlers []handler.Handler) {
	for _, h := range handlers {
		if h == nil {
			panic("engine: nil handler in declaration; pass individual handlers, not a nil or nested collection")
		}
	}
}
