package resource

import (
	"context"
	"sync"

	"github.com/Sternrassler/catalog-storefront/pkg/logging"
	"github.com/rs/zerolog"
)

// State is the view state of a query.
type State int

const (
	// Idle means no load has been started.
	Idle State = iota
	// Loading means a fetch is in flight.
	Loading
	// Error means the last fetch failed.
	Error
	// Ready means the last fetch succeeded.
	Ready
)

// String returns the lower-case state name used in logs and metrics.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// FetchFunc fetches the resource. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is a consistent copy of a query's state.
type Snapshot[T any] struct {
	State State

	// Data is the last successful result. It is kept while a newer load is
	// in flight and zeroed when a load fails.
	Data T

	// Err is set only in the Error state.
	Err error

	// Generation identifies the load that produced this snapshot.
	Generation uint64

	// Loaded reports whether Data holds the result of a completed load.
	Loaded bool
}

// Message returns the error text, or "" outside the Error state.
func (s Snapshot[T]) Message() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Option configures a Query.
type Option[T any] func(*Query[T])

// WithObserver registers fn to receive every committed snapshot,
// including the Loading transition.
func WithObserver[T any](fn func(Snapshot[T])) Option[T] {
	return func(q *Query[T]) {
		q.observer = fn
	}
}

// WithLogger replaces the default component logger.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(q *Query[T]) {
		q.logger = logger
	}
}

// Query holds the tri-state of one resource.
// It is safe for concurrent use.
type Query[T any] struct {
	name     string
	mu       sync.Mutex
	snap     Snapshot[T]
	fetch    FetchFunc[T]
	cancel   context.CancelFunc
	observer func(Snapshot[T])
	logger   zerolog.Logger
}

// New creates an idle query. name identifies the resource in logs.
func New[T any](name string, opts ...Option[T]) *Query[T] {
	q := &Query[T]{
		name:   name,
		logger: logging.NewLogger("resource"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Load starts a new load with fetch and blocks until it settles.
// Any load already in flight is cancelled and its result discarded.
//
// The returned snapshot is the one committed for this load. If a newer
// load started meanwhile, the current snapshot is returned instead.
func (q *Query[T]) Load(ctx context.Context, fetch FetchFunc[T]) Snapshot[T] {
	fetchCtx, gen, loading := q.begin(ctx, fetch)
	q.notify(loading)

	data, err := fetch(fetchCtx)

	snap, committed := q.commit(gen, data, err)
	if !committed {
		q.logger.Debug().
			Str("resource", q.name).
			Uint64("generation", gen).
			Uint64("current", snap.Generation).
			Msg("Discarding stale result")
		return snap
	}

	q.notify(snap)
	return snap
}

// Retry re-issues the last fetch. On a query that never loaded it
// returns the idle snapshot.
func (q *Query[T]) Retry(ctx context.Context) Snapshot[T] {
	q.mu.Lock()
	fetch := q.fetch
	snap := q.snap
	q.mu.Unlock()

	if fetch == nil {
		return snap
	}
	return q.Load(ctx, fetch)
}

// Snapshot returns the current state.
func (q *Query[T]) Snapshot() Snapshot[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snap
}

// Cancel aborts the in-flight load, if any. Its result will be discarded
// and a query caught loading falls back to Idle.
func (q *Query[T]) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cancel == nil {
		return
	}
	q.cancel()
	q.cancel = nil
	q.snap.Generation++
	if q.snap.State == Loading {
		q.snap.State = Idle
	}
}

func (q *Query[T]) begin(ctx context.Context, fetch FetchFunc[T]) (context.Context, uint64, Snapshot[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cancel != nil {
		q.cancel()
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.fetch = fetch

	q.snap.Generation++
	q.snap.State = Loading
	q.snap.Err = nil

	return fetchCtx, q.snap.Generation, q.snap
}

func (q *Query[T]) commit(gen uint64, data T, err error) (Snapshot[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if gen != q.snap.Generation {
		return q.snap, false
	}

	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}

	if err != nil {
		var zero T
		q.snap.State = Error
		q.snap.Data = zero
		q.snap.Err = err
		q.snap.Loaded = false
	} else {
		q.snap.State = Ready
		q.snap.Data = data
		q.snap.Err = nil
		q.snap.Loaded = true
	}

	return q.snap, true
}

func (q *Query[T]) notify(snap Snapshot[T]) {
	if q.observer != nil {
		q.observer(snap)
	}
}
