package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// echoHandler replies to calls with the message and records casts.
type echoHandler struct {
	mu    sync.Mutex
	casts []any
}

func (h *echoHandler) HandleCall(ctx context.Context, msg any) (any, error) {
	return msg, nil
}

func (h *echoHandler) HandleCast(msg any) {
	h.mu.Lock()
	h.casts = append(h.casts, msg)
	h.mu.Unlock()
}

func (h *echoHandler) recorded() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]any(nil), h.casts...)
}

func TestCallRoundTrip(t *testing.T) {
	r := New()
	defer r.Shutdown()
	if err := r.Spawn("echo", &echoHandler{}); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	got, err := r.Call(context.Background(), "echo", "ping")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got != "ping" {
		t.Fatalf("Call = %v, want ping", got)
	}
}

func TestCallUnknownActor(t *testing.T) {
	r := New()
	defer r.Shutdown()
	if _, err := r.Call(context.Background(), "ghost", "x"); !errors.Is(err, ErrNoActor) {
		t.Fatalf("Call = %v, want ErrNoActor", err)
	}
	if err := r.Cast("ghost", "x"); !errors.Is(err, ErrNoActor) {
		t.Fatalf("Cast = %v, want ErrNoActor", err)
	}
}

func TestCastsProcessedInOrder(t *testing.T) {
	r := New()
	defer r.Shutdown()
	h := &echoHandler{}
	if err := r.Spawn("sink", h); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	for i := 0; i < 100; i++ {
		if err := r.Cast("sink", i); err != nil {
			t.Fatalf("Cast failed: %v", err)
		}
	}
	// A call after the casts flushes the mailbox: FIFO means it is handled
	// only after every cast before it.
	if _, err := r.Call(context.Background(), "sink", "flush"); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	casts := h.recorded()
	if len(casts) != 100 {
		t.Fatalf("recorded %d casts, want 100", len(casts))
	}
	for i, v := range casts {
		if v != i {
			t.Fatalf("casts[%d] = %v, out of order", i, v)
		}
	}
}

func TestCallContextCancel(t *testing.T) {
	r := New()
	defer r.Shutdown()
	block := make(chan struct{})
	h := handlerFunc(func(ctx context.Context, msg any) (any, error) {
		<-block
		return nil, nil
	})
	if err := r.Spawn("slow", h); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := r.Call(ctx, "slow", "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Call = %v, want deadline exceeded", err)
	}
}

func TestStopRejectsNewMessages(t *testing.T) {
	r := New()
	defer r.Shutdown()
	if err := r.Spawn("tmp", &echoHandler{}); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	r.Stop("tmp")
	if _, err := r.Call(context.Background(), "tmp", "x"); !errors.Is(err, ErrNoActor) {
		t.Fatalf("Call after stop = %v, want ErrNoActor", err)
	}
}

func TestTopicPubSub(t *testing.T) {
	r := New()
	defer r.Shutdown()
	topic := r.Topic("events")

	sub := topic.Subscribe(8)
	defer sub.Close()

	topic.Cast("hello")
	select {
	case msg := <-sub.C():
		if msg != "hello" {
			t.Fatalf("received %v, want hello", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestTopicClosedSubscriberIgnored(t *testing.T) {
	r := New()
	defer r.Shutdown()
	topic := r.Topic("events")

	sub := topic.Subscribe(1)
	sub.Close()
	topic.Cast("after-close") // must not panic

	if _, ok := <-sub.C(); ok {
		t.Fatal("closed subscription delivered a message")
	}
}

func TestTopicSameInstance(t *testing.T) {
	r := New()
	defer r.Shutdown()
	if r.Topic("a") != r.Topic("a") {
		t.Fatal("Topic(\"a\") returned distinct instances")
	}
}

// handlerFunc adapts a function to Handler for tests.
type handlerFunc func(ctx context.Context, msg any) (any, error)

func (f handlerFunc) HandleCall(ctx context.Context, msg any) (any, error) { return f(ctx, msg) }
func (f handlerFunc) HandleCast(msg any)                                   {}
