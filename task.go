package folderkit

// Task is the handle of an operation running on its own goroutine.
//
// There is deliberately no way to cancel a Task or bound it with a
// timeout: once started it runs to completion or failure. A caller that
// no longer cares simply stops waiting.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on a new goroutine. When fn returns, the result is published
// to Wait and, if callback is non-nil, callback is handed to d.
func Go[T any](d Dispatcher, fn func() (T, error), callback func(T, error)) *Task[T] {
	if d == nil {
		d = Inline
	}
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		t.value, t.err = fn()
		close(t.done)
		if callback != nil {
			value, err := t.value, t.err
			d.Dispatch(func() { callback(value, err) })
		}
	}()
	return t
}

// Done is closed once the result is available.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the operation finishes and returns its result.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.value, t.err
}
