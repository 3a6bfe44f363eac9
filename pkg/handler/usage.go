package handler

import "sync/atomic"

// UsageState tracks the mutable usage flags of a handler: whether it has
// ever produced a response, and, for one-shot handlers, whether it has
// been consumed. All operations are safe for concurrent resolutions.
type UsageState struct {
	once     bool
	used     atomic.Bool
	consumed atomic.Bool
}

// NewUsageState builds the usage state for a handler. once marks the
// handler as eligible to match only until its first successful
// resolution.
func NewUsageState(once bool) *UsageState {
	return &UsageState{once: once}
}

// OneShot reports whether the handler was declared use-once.
func (u *UsageState) OneShot() bool {
	return u.once
}

// Used reports whether the handler has produced a response at least once.
func (u *UsageState) Used() bool {
	return u.used.Load()
}

// Consumed reports whether a one-shot handler is currently ineligible
// for matching. Always false for repeatable handlers.
func (u *UsageState) Consumed() bool {
	return u.once && u.consumed.Load()
}

// Reserve claims the handler for one resolution. For one-shot handlers
// this is an atomic check-and-set, so two concurrent resolutions racing
// on the same handler cannot both succeed. Repeatable handlers always
// reserve.
func (u *UsageState) Reserve() bool {
	if !u.once {
		return true
	}
	return u.consumed.CompareAndSwap(false, true)
}

// Release undoes a reservation after a resolution that produced no
// value (a resolver fault or passthrough), so the handler can be
// retried.
func (u *UsageState) Release() {
	if u.once {
		u.consumed.Store(false)
	}
}

// Commit records a value-producing success. A reserved one-shot handler
// stays consumed.
func (u *UsageState) Commit() {
	u.used.Store(true)
}

// Restore clears one-shot consumption, making the handler matchable
// again. The used flag is kept as a historical record.
func (u *UsageState) Restore() {
	u.consumed.Store(false)
}
