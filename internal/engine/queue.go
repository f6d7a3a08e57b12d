package engine

import (
	"context"
	"sync"
	"time"
)

// DefaultWriteTimeout bounds a single persistence job.
const DefaultWriteTimeout = 5 * time.Second

// job is one persistence command. fn runs on the writer goroutine with a
// context bounded by the queue's timeout.
type job struct {
	op   string
	fn   func(ctx context.Context) error
	done chan struct{}
}

// writeQueue runs jobs one at a time in the order they were pushed. push
// never blocks, so it is safe to call with the engine lock held; that is
// what keeps queue order equal to mutation order.
type writeQueue struct {
	timeout time.Duration
	report  func(op string, err error)

	mu      sync.Mutex
	pending []job
	closed  bool
	wake    chan struct{}
	exited  chan struct{}
}

func newWriteQueue(timeout time.Duration, report func(op string, err error)) *writeQueue {
	q := &writeQueue{
		timeout: timeout,
		report:  report,
		wake:    make(chan struct{}, 1),
		exited:  make(chan struct{}),
	}
	go q.run()
	return q
}

// push appends a job. Jobs pushed after close are dropped.
func (q *writeQueue) push(op string, fn func(ctx context.Context) error) {
	q.enqueue(job{op: op, fn: fn})
}

func (q *writeQueue) enqueue(j job) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, j)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// flush blocks until every job pushed before the call has run, or ctx ends.
func (q *writeQueue) flush(ctx context.Context) error {
	barrier := job{op: "flush", done: make(chan struct{})}
	if !q.enqueue(barrier) {
		select {
		case <-q.exited:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case <-barrier.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting jobs and waits for the queued ones to finish.
func (q *writeQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
	q.mu.Unlock()
	<-q.exited
}

func (q *writeQueue) next() (job, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return job{}, false, q.closed
	}
	j := q.pending[0]
	q.pending[0] = job{}
	q.pending = q.pending[1:]
	return j, true, false
}

func (q *writeQueue) run() {
	defer close(q.exited)
	for {
		j, ok, closed := q.next()
		if !ok {
			if closed {
				return
			}
			<-q.wake
			continue
		}
		q.exec(j)
	}
}

func (q *writeQueue) exec(j job) {
	if j.done != nil {
		defer close(j.done)
	}
	if j.fn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	err := j.fn(ctx)
	if q.report != nil {
		q.report(j.op, err)
	}
}
