package apiclient

import (
	"context"
	"sync"
)

// Latest hands out contexts where starting a new call cancels the previous
// one. A result is applied only while its Ticket is still current.
type Latest struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Ticket identifies one call started by Latest.Begin.
type Ticket struct {
	owner *Latest
	seq   uint64
}

// Begin cancels the previous call and returns a context for the new one.
// The caller must call the returned CancelFunc when done.
func (l *Latest) Begin(parent context.Context) (context.Context, Ticket, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	l.cancel = cancel
	t := Ticket{owner: l, seq: l.seq}
	l.mu.Unlock()

	return ctx, t, cancel
}

// Cancel aborts the in-flight call, if any, and invalidates its ticket.
func (l *Latest) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
}

// Current reports whether no newer call has begun since t.
func (t Ticket) Current() bool {
	if t.owner == nil {
		return false
	}
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.owner.seq == t.seq
}
