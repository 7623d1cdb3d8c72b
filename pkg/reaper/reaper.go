// Package reaper expires idle sessions.
//
// A Reaper keeps one timer wheel node per session id. A managed worker wakes
// once per tick, advances the wheel for every tick that is due and removes the
// expired sessions from its index. The expiry callback of each removed
// session is then submitted to a task pool, so slow callbacks never hold up
// the wheel.
//
//	Touch(id) ──► wheel.Update ──┐
//	                             ▼
//	                    ┌─────────────────┐  tick   ┌────────┐  expired ids  ┌──────┐
//	                    │  Timer Wheel    │ ◄────── │ Worker │ ────────────► │ Pool │ ──► onExpire(ctx, id)
//	                    └─────────────────┘         └────────┘               └──────┘
//
// Touch and Remove run any due ticks before they place or unlink a node, so a
// node is always placed relative to the current tick even when the worker is
// stopped or running late. A session expires no sooner than Timeout after its
// last Touch, and no later than Timeout plus two ticks while the reaper runs.
// The pool is owned by the caller; Stop does not close it.
package reaper

import (
	"context"
	"sync"
	"time"

	"github.com/kubev2v/inkcore/pkg/log"
	"github.com/kubev2v/inkcore/pkg/taskpool"
	"github.com/kubev2v/inkcore/pkg/timerwheel"
	"github.com/kubev2v/inkcore/pkg/worker"
)

const (
	DefaultSlots = 60
	DefaultTick  = time.Second
)

// ExpireFunc is called on a pool worker for every expired session.
type ExpireFunc func(ctx context.Context, id string) error

type session struct {
	id    string
	timer timerwheel.Node[*session]
}

type Reaper struct {
	mu       sync.Mutex
	wheel    *timerwheel.Wheel[*session]
	sessions map[string]*session

	pool     *taskpool.Pool
	worker   *worker.Worker
	onExpire ExpireFunc
	log      log.Logger
}

type Option func(*options)

type options struct {
	slots int
	tick  time.Duration
	log   log.Logger
}

// WithSlots sets the number of wheel slots. Values below one are ignored.
func WithSlots(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.slots = n
		}
	}
}

// WithTick sets the wheel's tick duration. Non-positive values are ignored.
func WithTick(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tick = d
		}
	}
}

func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// New creates a stopped reaper submitting expiry callbacks to pool.
func New(pool *taskpool.Pool, onExpire ExpireFunc, opts ...Option) (*Reaper, error) {
	o := options{
		slots: DefaultSlots,
		tick:  DefaultTick,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = log.Default().Named("reaper")
	}

	r := &Reaper{
		wheel:    timerwheel.New[*session](o.slots, timerwheel.WithTick(o.tick)),
		sessions: make(map[string]*session),
		pool:     pool,
		onExpire: onExpire,
		log:      o.log,
	}

	w, err := worker.New(r.reap,
		worker.WithName("reaper"),
		worker.WithPolicy(worker.WaitForProcessToFinish),
		worker.WithTimeout(o.tick),
		worker.WithLogger(o.log.Named("worker")),
	)
	if err != nil {
		return nil, err
	}
	r.worker = w

	return r, nil
}

func (r *Reaper) Start(ctx context.Context) {
	r.worker.Start(ctx)
}

// Stop stops the background ticking. Sessions stay tracked. The wheel keeps
// wall-clock time: sessions that run out while stopped are expired by the
// next Touch, Remove or Start.
func (r *Reaper) Stop() {
	r.worker.Stop()
}

// Touch starts tracking id, or refreshes it if it is already tracked. It
// reports whether id was new.
func (r *Reaper) Touch(id string) bool {
	r.mu.Lock()
	expired := r.advance()
	s, found := r.sessions[id]
	if !found {
		s = &session{id: id}
		s.timer.Value = s
		r.sessions[id] = s
	}
	r.wheel.Update(&s.timer)
	r.mu.Unlock()

	r.submit(expired)
	return !found
}

// Remove stops tracking id without calling the expiry callback. It reports
// whether id was tracked.
func (r *Reaper) Remove(id string) bool {
	r.mu.Lock()
	expired := r.advance()
	s, found := r.sessions[id]
	if found {
		r.wheel.Unlink(&s.timer)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	r.submit(expired)
	return found
}

func (r *Reaper) IsRunning() bool {
	return r.worker.IsRunning()
}

func (r *Reaper) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, found := r.sessions[id]
	return found
}

func (r *Reaper) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Timeout returns the minimum idle time before a session expires.
func (r *Reaper) Timeout() time.Duration {
	return r.wheel.Timeout()
}

func (r *Reaper) reap(ctx context.Context) error {
	r.mu.Lock()
	expired := r.advance()
	r.mu.Unlock()

	r.submit(expired)
	return nil
}

// submit hands the expiry callbacks of ids to the pool.
func (r *Reaper) submit(ids []string) {
	for _, id := range ids {
		if _, err := taskpool.Submit(r.pool, r.expireTask(id)); err != nil {
			r.log.Warnw("failed to submit expiry", "id", id, "error", err)
		}
	}
	if len(ids) > 0 {
		r.log.Debugw("sessions expired", "count", len(ids))
	}
}

// advance runs every tick that is due and returns the ids it removed. The
// caller holds r.mu.
func (r *Reaper) advance() []string {
	var ids []string
	for r.wheel.TimeToNextTick() == 0 {
		r.wheel.ProcessExpired(func(n *timerwheel.Node[*session]) {
			delete(r.sessions, n.Value.id)
			ids = append(ids, n.Value.id)
		})
	}
	return ids
}

func (r *Reaper) expireTask(id string) taskpool.Work[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		if err := r.onExpire(ctx, id); err != nil {
			r.log.Warnw("expiry callback failed", "id", id, "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}
}
