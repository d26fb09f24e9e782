package tables

import "sync"

// Notifier fans committed-write events out to per-table subscriptions. Both
// backends embed one and call Publish after commit. The memory backend does
// so while still holding the mutex that serializes its commits, so its
// subscribers observe events in commit order; the sqlite backend publishes
// after Commit returns, without holding a lock.
type Notifier struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewNotifier returns an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[*Subscription]struct{})}
}

// Subscribe opens a write stream for one table.
func (n *Notifier) Subscribe(table string) (*Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrClosed
	}
	s := &Subscription{
		notifier: n,
		table:    table,
		wake:     make(chan struct{}, 1),
		out:      make(chan Event),
		done:     make(chan struct{}),
	}
	n.subs[s] = struct{}{}
	go s.pump()
	return s, nil
}

// Publish appends events to every subscription of a matching table. It
// buffers without blocking, so it is safe to call from a commit path.
func (n *Notifier) Publish(events []Event) {
	if len(events) == 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for s := range n.subs {
		for _, ev := range events {
			if ev.Table == s.table {
				s.enqueue(ev)
			}
		}
	}
}

// Close terminates every open subscription.
func (n *Notifier) Close() {
	n.mu.Lock()
	subs := make([]*Subscription, 0, len(n.subs))
	for s := range n.subs {
		subs = append(subs, s)
	}
	n.closed = true
	n.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
}

func (n *Notifier) remove(s *Subscription) {
	n.mu.Lock()
	delete(n.subs, s)
	n.mu.Unlock()
}

// Subscription is one caller's view of a table's write stream. Events are
// queued without bound between Publish and the consumer, so a slow reader
// delays delivery but never loses a write.
type Subscription struct {
	notifier *Notifier
	table    string

	mu    sync.Mutex
	queue []Event

	wake chan struct{}
	out  chan Event
	done chan struct{}
	once sync.Once
}

// Events returns the stream of committed writes. The channel is closed when
// the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Close detaches the subscription and drops any undelivered events.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.notifier.remove(s)
		close(s.done)
	})
}

func (s *Subscription) enqueue(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		var next Event
		have := len(s.queue) > 0
		if have {
			next = s.queue[0]
			s.queue = s.queue[1:]
		}
		s.mu.Unlock()

		if !have {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
