package storage

import "sync"

// recordingSink collects published events for assertions.
type recordingSink struct {
	mu   sync.Mutex
	msgs []any
}

func (r *recordingSink) Cast(msg any) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recordingSink) messages() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.msgs...)
}
