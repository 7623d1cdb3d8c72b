package taskpool

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	srvErrors "github.com/kubev2v/inkcore/pkg/errors"
	"github.com/kubev2v/inkcore/pkg/log"
	"github.com/kubev2v/inkcore/pkg/queue"
)

// task is the type-erased form of a submitted Work. Exactly one of run or
// abort is called, once.
type task struct {
	run   func() error
	abort func(err error)
}

type Pool struct {
	tasks *queue.Queue[*task]

	_        cpu.CacheLinePad
	stopping atomic.Bool
	_        cpu.CacheLinePad
	active   atomic.Int32
	_        cpu.CacheLinePad

	// mu guards pending, the number of tasks queued or executing. Wait blocks
	// on idle until it drops to zero.
	mu      sync.Mutex
	idle    *sync.Cond
	pending int

	workers int
	wg      sync.WaitGroup
	log     log.Logger
}

type Option func(*Pool)

func WithLogger(l log.Logger) Option {
	return func(p *Pool) {
		p.log = l
	}
}

// New starts a pool of nbWorkers workers. A pool with zero workers is legal:
// submitted work stays queued until Close drops it, and Wait blocks until then.
func New(nbWorkers int, opts ...Option) *Pool {
	if nbWorkers < 0 {
		nbWorkers = 0
	}
	p := &Pool{
		tasks:   queue.New[*task](),
		workers: nbWorkers,
		log:     log.Default().Named("task_pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.idle = sync.NewCond(&p.mu)

	for id := range nbWorkers {
		p.wg.Add(1)
		go p.worker(id)
	}
	return p
}

// Submit enqueues w and returns a Future for its result. It fails with a
// PoolStoppedError once Shutdown or Close has been called.
func Submit[T any](p *Pool, w Work[T]) (*Future[T], error) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFuture[T](cancel)
	t := &task{
		run: func() error {
			r := execute(ctx, w)
			f.resolve(r)
			return r.Err
		},
		abort: func(err error) {
			f.resolve(Result[T]{Err: err})
		},
	}

	p.mu.Lock()
	if p.stopping.Load() {
		p.mu.Unlock()
		cancel()
		return nil, srvErrors.NewPoolStoppedError()
	}
	p.pending++
	p.tasks.Push(t)
	p.mu.Unlock()

	return f, nil
}

// Submit is the untyped form of the package-level Submit.
func (p *Pool) Submit(w Work[any]) (*Future[any], error) {
	return Submit(p, w)
}

// Wait blocks until no task is queued or executing. It returns immediately on
// an idle pool.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.pending > 0 {
		p.idle.Wait()
	}
}

// Shutdown stops accepting work, lets the workers drain everything already
// queued and waits for them to exit.
func (p *Pool) Shutdown() {
	p.stop(false)
}

// Close stops accepting work, drops every task still queued (their futures
// resolve with a PoolDestroyedError) and waits for the workers to finish the
// tasks they already picked up.
func (p *Pool) Close() {
	p.stop(true)
}

func (p *Pool) stop(drop bool) {
	p.mu.Lock()
	if p.stopping.CompareAndSwap(false, true) {
		p.log.Debugw("stopping", "workers", p.workers, "queued", p.tasks.Len(), "drop", drop)
	}
	p.mu.Unlock()

	if drop {
		p.dropQueued()
	}
	p.tasks.Shutdown()
	p.wg.Wait()

	// Only reachable with zero workers: nobody drained the queue.
	p.dropQueued()
}

func (p *Pool) dropQueued() {
	dropped := 0
	for {
		t, ok := p.tasks.TryPop()
		if !ok {
			break
		}
		t.abort(srvErrors.NewPoolDestroyedError())
		dropped++
	}
	if dropped > 0 {
		p.log.Infow("dropped queued tasks", "count", dropped)
		p.finish(dropped)
	}
}

func (p *Pool) finish(n int) {
	p.mu.Lock()
	p.pending -= n
	log.Assert(p.log, p.pending >= 0, "pending task count went negative", "pending", p.pending)
	if p.pending == 0 {
		p.idle.Broadcast()
	}
	p.mu.Unlock()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		t, ok := p.tasks.WaitAndPop()
		if !ok {
			return
		}

		p.active.Add(1)
		err := t.run()
		p.active.Add(-1)

		if srvErrors.IsTaskPanickedError(err) {
			p.log.Warnw("task panicked", "worker", id, "error", err)
		}
		p.finish(1)
	}
}

func execute[T any](ctx context.Context, w Work[T]) (r Result[T]) {
	if err := ctx.Err(); err != nil {
		return Result[T]{Err: err}
	}
	defer func() {
		if rec := recover(); rec != nil {
			r = Result[T]{Err: srvErrors.NewTaskPanickedError(rec, debug.Stack())}
		}
	}()

	v, err := w(ctx)
	return Result[T]{Data: v, Err: err}
}

type Stats struct {
	Workers  int
	Queued   int
	Active   int
	Pending  int
	Stopping bool
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	pending := p.pending
	p.mu.Unlock()
	return Stats{
		Workers:  p.workers,
		Queued:   p.tasks.Len(),
		Active:   int(p.active.Load()),
		Pending:  pending,
		Stopping: p.stopping.Load(),
	}
}

// ActiveWorkers returns the number of workers currently executing a task.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}
