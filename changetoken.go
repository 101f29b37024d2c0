package folderkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ============================================================================
// Callback list
// ============================================================================

// callbackList fires its callbacks once, the first time signal is called.
type callbackList struct {
	mu        sync.RWMutex
	changed   atomic.Bool
	callbacks []func()
}

func (l *callbackList) register(callback func()) (unregister func()) {
	l.mu.Lock()
	l.callbacks = append(l.callbacks, callback)
	index := len(l.callbacks) - 1
	l.mu.Unlock()

	if l.changed.Load() {
		l.fire(index)
	}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if index < len(l.callbacks) {
			// nil instead of removing keeps other indexes stable
			l.callbacks[index] = nil
		}
	}
}

// fire runs the callback at index once, for callbacks registered after the
// token already changed.
func (l *callbackList) fire(index int) {
	l.mu.Lock()
	cb := l.callbacks[index]
	l.callbacks[index] = nil
	l.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (l *callbackList) signal() {
	if l.changed.Swap(true) {
		return
	}

	l.mu.Lock()
	callbacks := l.callbacks
	l.callbacks = make([]func(), len(callbacks))
	l.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb()
		}
	}
}

// ============================================================================
// Callback token
// ============================================================================

// CallbackChangeToken is signalled by a host that has native change events.
type CallbackChangeToken struct {
	list callbackList
}

// NewCallbackChangeToken creates an unsignalled token.
func NewCallbackChangeToken() *CallbackChangeToken {
	return &CallbackChangeToken{}
}

func (t *CallbackChangeToken) HasChanged() bool { return t.list.changed.Load() }

func (t *CallbackChangeToken) ActiveChangeCallbacks() bool { return true }

func (t *CallbackChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	return t.list.register(callback)
}

// SignalChange marks the token changed and runs the registered callbacks.
// Later calls do nothing.
func (t *CallbackChangeToken) SignalChange() { t.list.signal() }

// ============================================================================
// Polling token
// ============================================================================

// PollingConfig configures a polling change token.
type PollingConfig struct {
	// Interval between polls (default: 5 seconds)
	Interval time.Duration
	// CheckFunc returns true once a change is detected
	CheckFunc func() bool
}

// PollingChangeToken checks for a change on a ticker until it sees one or
// its context ends. Stop or cancel the context to release the goroutine.
type PollingChangeToken struct {
	list   callbackList
	cancel context.CancelFunc
}

// NewPollingChangeToken starts polling config.CheckFunc.
func NewPollingChangeToken(ctx context.Context, config PollingConfig) *PollingChangeToken {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &PollingChangeToken{cancel: cancel}
	go t.poll(ctx, config)
	return t
}

func (t *PollingChangeToken) poll(ctx context.Context, config PollingConfig) {
	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if config.CheckFunc != nil && config.CheckFunc() {
				t.list.signal()
				return
			}
		}
	}
}

func (t *PollingChangeToken) HasChanged() bool { return t.list.changed.Load() }

func (t *PollingChangeToken) ActiveChangeCallbacks() bool { return true }

func (t *PollingChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	return t.list.register(callback)
}

// Stop ends polling. It is safe to call more than once.
func (t *PollingChangeToken) Stop() { t.cancel() }

// ============================================================================
// Static tokens
// ============================================================================

// NeverChangeToken never fires.
type NeverChangeToken struct{}

func (NeverChangeToken) HasChanged() bool { return false }

func (NeverChangeToken) ActiveChangeCallbacks() bool { return false }

func (NeverChangeToken) RegisterChangeCallback(func()) func() { return func() {} }

// ============================================================================
// OnChange
// ============================================================================

// OnChange runs changeAction every time a token from tokenProducer fires,
// asking for a fresh token after each change. It stops when tokenProducer
// fails or the returned cancel is called.
//
//	folder, _ := ws.Folder("Inbox", folderkit.RootDocuments)
//	cancel := folderkit.OnChange(
//	    func() (folderkit.ChangeToken, error) { return folder.Watch(ctx) },
//	    func() { refresh(folder) },
//	)
//	defer cancel()
func OnChange(tokenProducer func() (ChangeToken, error), changeAction func()) (cancel func()) {
	ctx, cancelFunc := context.WithCancel(context.Background())

	go func() {
		for {
			token, err := tokenProducer()
			if err != nil {
				return
			}

			done := make(chan struct{})
			var once sync.Once
			unregister := token.RegisterChangeCallback(func() {
				once.Do(func() { close(done) })
			})

			select {
			case <-ctx.Done():
				unregister()
				return
			case <-done:
				unregister()
				changeAction()
			}
		}
	}()

	return cancelFunc
}

var (
	_ ChangeToken = (*CallbackChangeToken)(nil)
	_ ChangeToken = (*PollingChangeToken)(nil)
	_ ChangeToken = NeverChangeToken{}
)
