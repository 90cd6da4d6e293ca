// Package result provides a one-shot completion handle for asynchronous
// operations such as flush and shutdown.
package result

import (
	"sync"
	"time"
)

// Outcome is a tri-state result: pending until resolved, then success or
// failure. It is resolved at most once; later resolutions are ignored.
type Outcome struct {
	mu        sync.Mutex
	done      chan struct{}
	resolved  bool
	success   bool
	callbacks []func(success bool)
}

// New returns a pending Outcome.
func New() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

// Success returns an Outcome already resolved to success.
func Success() *Outcome {
	o := New()
	o.Resolve(true)
	return o
}

// Failure returns an Outcome already resolved to failure.
func Failure() *Outcome {
	o := New()
	o.Resolve(false)
	return o
}

// Resolve completes the outcome. Only the first call has effect.
// Registered callbacks run synchronously on the resolving goroutine.
func (o *Outcome) Resolve(success bool) {
	o.mu.Lock()
	if o.resolved {
		o.mu.Unlock()
		return
	}
	o.resolved = true
	o.success = success
	callbacks := o.callbacks
	o.callbacks = nil
	close(o.done)
	o.mu.Unlock()

	for _, fn := range callbacks {
		fn(success)
	}
}

// Succeed resolves the outcome to success.
func (o *Outcome) Succeed() { o.Resolve(true) }

// Fail resolves the outcome to failure.
func (o *Outcome) Fail() { o.Resolve(false) }

// Done returns a channel closed when the outcome is resolved.
func (o *Outcome) Done() <-chan struct{} {
	return o.done
}

// IsResolved reports whether the outcome has been resolved.
func (o *Outcome) IsResolved() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the outcome resolved to success.
// A pending outcome reports false.
func (o *Outcome) IsSuccess() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resolved && o.success
}

// Wait blocks until the outcome resolves or the timeout elapses.
// It returns true only if the outcome resolved to success in time.
// A timeout of zero or less waits without bound.
func (o *Outcome) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-o.done
		return o.IsSuccess()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-o.done:
		return o.IsSuccess()
	case <-timer.C:
		return false
	}
}

// OnComplete registers fn to run when the outcome resolves. If the outcome
// is already resolved, fn runs immediately on the calling goroutine.
func (o *Outcome) OnComplete(fn func(success bool)) {
	o.mu.Lock()
	if !o.resolved {
		o.callbacks = append(o.callbacks, fn)
		o.mu.Unlock()
		return
	}
	success := o.success
	o.mu.Unlock()
	fn(success)
}
