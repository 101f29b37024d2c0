package folderkit

import (
	"sync"
)

// Dispatcher decides which execution context runs progress and completion
// callbacks. It plays the role a UI main thread plays in a desktop app.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Inline runs callbacks on the goroutine that produced them.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// MainQueue runs callbacks one at a time, in submission order, on a single
// goroutine. The queue is unbounded so Dispatch never blocks the producer.
type MainQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []func()
	closed bool
	done   chan struct{}
}

// NewMainQueue starts a serial callback queue.
func NewMainQueue() *MainQueue {
	q := &MainQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Dispatch enqueues fn. Callbacks submitted after Close are dropped.
func (q *MainQueue) Dispatch(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.jobs = append(q.jobs, fn)
	q.cond.Signal()
}

// Close stops accepting callbacks and waits until queued ones have run.
func (q *MainQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *MainQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		job()
	}
}
