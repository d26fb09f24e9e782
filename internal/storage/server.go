package storage

import (
	"context"
	"fmt"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/router"
)

// Operation names for the facade surface. Calls return a result; casts are
// fire-and-forget.
const (
	// Calls.
	OpState       = "state"
	OpGet         = "get"
	OpGetKeyspace = "get_keyspace"
	OpReadOrderTx = "read_order_tx"
	OpReadAtOrder = "read_at_order_tx"
	OpSnapshot    = "snapshot_order"

	// Casts.
	OpSetup        = "setup"
	OpRemove       = "remove"
	OpEnsureNew    = "ensure_new"
	OpPut          = "put"
	OpDeleteKey    = "delete_key"
	OpWriteAtOrder = "write_at_order_tx"
	OpPutSnapshot  = "put_snapshot"
)

// Request is the facade's message type. Only the fields an operation needs
// are consulted.
type Request struct {
	Op      string
	Key     noun.Noun
	Value   noun.Noun
	Version uint64
	Prefix  []noun.Noun
}

// Keyspace is the reply to OpGetKeyspace. Absent reports the all-or-nothing
// tombstone case.
type Keyspace struct {
	Pairs  []KeyValue
	Absent bool
}

// Server is the storage facade actor. One mailbox serializes its requests,
// so a call issued after a cast observes the cast's effects. Snapshots and
// blocking reads still run against the shared table manager directly and
// may overlap facade operations freely.
type Server struct {
	store *Storage
}

// NewServer wraps a storage handle for spawning on a router.
func NewServer(store *Storage) *Server {
	return &Server{store: store}
}

// HandleCall serves the synchronous operations.
func (sv *Server) HandleCall(ctx context.Context, msg any) (any, error) {
	req, ok := msg.(Request)
	if !ok {
		return nil, fmt.Errorf("unexpected message type %T", msg)
	}
	switch req.Op {
	case OpState:
		return sv.store, nil
	case OpGet:
		return sv.store.Get(ctx, req.Key), nil
	case OpGetKeyspace:
		pairs, ok := sv.store.GetKeyspace(ctx, req.Prefix)
		return Keyspace{Pairs: pairs, Absent: !ok}, nil
	case OpReadOrderTx:
		return sv.store.ReadOrderTx(ctx, req.Key)
	case OpReadAtOrder:
		return sv.store.ReadAtOrderTx(ctx, req.Key, req.Version)
	case OpSnapshot:
		return sv.store.SnapshotOrder(ctx)
	default:
		return nil, fmt.Errorf("unknown call operation %q", req.Op)
	}
}

// HandleCast serves the asynchronous operations. Writes and table drops
// publish their own outcome on the topic; every failure is logged here.
func (sv *Server) HandleCast(msg any) {
	req, ok := msg.(Request)
	if !ok {
		sv.store.log.Warn("dropping unexpected cast", "type", fmt.Sprintf("%T", msg))
		return
	}
	ctx := context.Background()
	var err error
	switch req.Op {
	case OpSetup:
		err = sv.store.Setup(ctx)
	case OpRemove:
		err = sv.store.Remove(ctx)
	case OpEnsureNew:
		err = sv.store.EnsureNew(ctx)
	case OpPut:
		err = sv.store.Put(ctx, req.Key, req.Value)
	case OpDeleteKey:
		err = sv.store.Delete(ctx, req.Key)
	case OpWriteAtOrder:
		err = sv.store.WriteAtOrder(ctx, req.Key, req.Value, req.Version)
	case OpPutSnapshot:
		err = sv.store.PutSnapshot(ctx, req.Key)
	default:
		sv.store.log.Warn("dropping unknown cast operation", "op", req.Op)
		return
	}
	if err != nil {
		sv.store.log.Error("cast operation failed", "op", req.Op, "error", err)
	}
}

// BlockingRead resolves the storage handle behind the named facade actor
// with a synchronous state call, then reads directly against the table
// manager. It bypasses the mailbox because the wait is unbounded and must
// not stall other requests.
func BlockingRead(ctx context.Context, r *router.Router, name string, qkey noun.Noun) (Result, error) {
	v, err := r.Call(ctx, name, Request{Op: OpState})
	if err != nil {
		return Absent, err
	}
	store, ok := v.(*Storage)
	if !ok {
		return Absent, fmt.Errorf("state call returned %T", v)
	}
	return store.BlockingRead(ctx, qkey)
}
