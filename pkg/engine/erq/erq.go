// Package erq provides the single serialisation point for all access to the UCI engine
// subprocess. Exactly one background worker goroutine owns the engine handle; every other
// goroutine in the process talks to the engine only by submitting a Request and waiting on
// the returned Future. This is the teacher's single-worker-goroutine actor idiom
// (pkg/search/searchctl's Iterative.Launch) generalized from "deepen one line to completion"
// to "serve a FIFO queue of independent analysis requests for as long as the process runs."
package erq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"github.com/seekerror/stdlib/pkg/util/iox"
	"go.uber.org/atomic"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/engine"
)

// Engine is the subset of *engine.Handle that the queue depends on. Defined as an interface
// so tests can drive the worker loop without a real UCI subprocess.
type Engine interface {
	Analyse(ctx context.Context, pos *board.Position, budget engine.Budget, multipv int) ([]engine.ScoredLine, error)
	Ping(ctx context.Context) error
	State() engine.State
	Close() error
}

// SpawnFunc produces a fresh, Ready Engine. The queue calls it once at construction and again
// every time the worker observes the current Engine has died.
type SpawnFunc func(ctx context.Context) (Engine, error)

// Request describes one analysis call to make against the shared engine.
type Request struct {
	Position *board.Position
	Budget   engine.Budget
	MultiPV  int
}

// Result is what a Future resolves to.
type Result struct {
	Lines []engine.ScoredLine
	Err   error
}

// Future is a single-value, single-reader promise for the outcome of a submitted Request.
type Future struct {
	ch chan Result
}

// Wait blocks until the worker has served the request or ctx is done, whichever comes first.
// If ctx is done first, the request itself is not cancelled: once dispatched to the engine it
// always runs to completion, per the queue's ordering guarantee.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case r := <-f.ch:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Metrics is a snapshot of queue-wide counters, suitable for JSON serialization.
type Metrics struct {
	QueueDepth     int64
	TotalRequests  int64
	FailedRequests int64
	AvgWaitMs      float64
	SuccessRate    float64
}

// Health reports whether the underlying engine subprocess is believed alive.
type Health struct {
	Alive               bool
	LastResponseAt      time.Time
	ConsecutiveFailures int
}

type envelope struct {
	req      Request
	queuedAt time.Time
	fut      *Future
}

// Queue serialises every call to the shared engine subprocess through one background worker.
// Submit is non-blocking; Wait on the returned Future suspends until the worker replies.
type Queue struct {
	iox.AsyncCloser

	spawn     SpawnFunc
	heartbeat time.Duration

	mu      sync.Mutex
	pending []*envelope
	signal  chan struct{}

	total, failed, respawns atomic.Int64
	waitNanos               atomic.Int64

	healthMu sync.Mutex
	health   Health
}

// Option configures a Queue at construction.
type Option func(*Queue)

// WithHeartbeat sets the idle interval after which the worker pings the engine to keep Health
// current even when nothing has been submitted. Default 30s; zero disables heartbeats.
func WithHeartbeat(d time.Duration) Option {
	return func(q *Queue) { q.heartbeat = d }
}

// New spawns the initial engine and starts the worker goroutine.
func New(ctx context.Context, spawn SpawnFunc, opts ...Option) (*Queue, error) {
	q := &Queue{
		AsyncCloser: iox.NewAsyncCloser(),
		spawn:       spawn,
		heartbeat:   30 * time.Second,
		signal:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}

	eng, err := spawn(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial engine spawn failed: %w", err)
	}
	q.healthMu.Lock()
	q.health = Health{Alive: true, LastResponseAt: time.Now()}
	q.healthMu.Unlock()

	go q.run(ctx, eng)
	return q, nil
}

// Submit enqueues req and returns immediately with a Future for its eventual result.
func (q *Queue) Submit(req Request) *Future {
	fut := &Future{ch: make(chan Result, 1)}
	env := &envelope{req: req, queuedAt: time.Now(), fut: fut}

	q.mu.Lock()
	q.pending = append(q.pending, env)
	depth := int64(len(q.pending))
	q.mu.Unlock()

	queueDepthGauge.Set(float64(depth))
	requestsTotal.Inc()
	q.total.Inc()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return fut
}

// Metrics returns a snapshot of the queue's counters.
func (q *Queue) Metrics() Metrics {
	q.mu.Lock()
	depth := int64(len(q.pending))
	q.mu.Unlock()

	total := q.total.Load()
	failed := q.failed.Load()

	var avgWait, success float64
	if total > 0 {
		avgWait = float64(q.waitNanos.Load()) / float64(total) / float64(time.Millisecond)
		success = float64(total-failed) / float64(total)
	}
	return Metrics{
		QueueDepth:     depth,
		TotalRequests:  total,
		FailedRequests: failed,
		AvgWaitMs:      avgWait,
		SuccessRate:    success,
	}
}

// Health returns the queue's current view of the engine subprocess's liveness.
func (q *Queue) Health() Health {
	q.healthMu.Lock()
	defer q.healthMu.Unlock()

	return q.health
}

func (q *Queue) run(ctx context.Context, eng Engine) {
	defer func() {
		eng.Close()
	}()

	wctx, cancel := contextx.WithQuitCancel(ctx, q.Closed())
	defer cancel()

	for {
		env, ok := q.pop()
		if !ok {
			switch q.awaitWork(wctx) {
			case stopWait:
				return // quit closed or parent context done.
			case heartbeatWait:
				if err := eng.Ping(wctx); err != nil {
					q.recordHealth(err)
					if eng.State() == engine.Dead {
						eng.Close()
						if eng = q.respawn(ctx); eng == nil {
							return
						}
					}
				} else {
					q.recordHealth(nil)
				}
			}
			continue
		}

		waited := time.Since(env.queuedAt)
		q.waitNanos.Add(int64(waited))
		waitSeconds.Observe(waited.Seconds())

		lines, err := eng.Analyse(wctx, env.req.Position, env.req.Budget, env.req.MultiPV)
		if err != nil {
			q.failed.Inc()
			requestsFailedTotal.Inc()
			logw.Errorf(ctx, "Engine analysis failed: %v", err)
		}
		q.recordHealth(err)

		env.fut.ch <- Result{Lines: lines, Err: err}

		if eng.State() == engine.Dead {
			eng.Close()
			eng = q.respawn(ctx)
			if eng == nil {
				return // parent context done during respawn backoff.
			}
		}
	}
}

type waitOutcome int

const (
	stopWait waitOutcome = iota
	workWait
	heartbeatWait
)

// awaitWork blocks until a request is submitted, the heartbeat interval elapses, or the queue
// is told to quit.
func (q *Queue) awaitWork(ctx context.Context) waitOutcome {
	var tick <-chan time.Time
	if q.heartbeat > 0 {
		timer := time.NewTimer(q.heartbeat)
		defer timer.Stop()
		tick = timer.C
	}

	select {
	case <-q.signal:
		return workWait
	case <-tick:
		return heartbeatWait
	case <-ctx.Done():
		return stopWait
	}
}

func (q *Queue) pop() (*envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, false
	}
	env := q.pending[0]
	q.pending = q.pending[1:]
	queueDepthGauge.Set(float64(len(q.pending)))
	return env, true
}

func (q *Queue) recordHealth(err error) {
	q.healthMu.Lock()
	defer q.healthMu.Unlock()

	if err == nil {
		q.health.Alive = true
		q.health.LastResponseAt = time.Now()
		q.health.ConsecutiveFailures = 0
		return
	}
	q.health.ConsecutiveFailures++
	if q.health.ConsecutiveFailures >= 2 {
		q.health.Alive = false
	}
}

// respawn replaces a dead engine, retrying with backoff until it succeeds or ctx is done. A
// pinged-but-idle heartbeat never calls this directly: only a failed Analyse/Ping does, via
// State() returning Dead.
func (q *Queue) respawn(ctx context.Context) Engine {
	backoff := 500 * time.Millisecond
	for {
		eng, err := q.spawn(ctx)
		if err == nil {
			respawnsTotal.Inc()
			q.respawns.Inc()
			q.healthMu.Lock()
			q.health.Alive = true
			q.health.ConsecutiveFailures = 0
			q.health.LastResponseAt = time.Now()
			q.healthMu.Unlock()
			return eng
		}
		logw.Errorf(ctx, "Engine respawn failed, retrying in %v: %v", backoff, err)

		select {
		case <-time.After(backoff):
			if backoff < 10*time.Second {
				backoff *= 2
			}
		case <-ctx.Done():
			return nil
		}
	}
}
