package session

import "sync"

// flag is a boolean in-flight guard for one action kind. acquire fails with
// ErrOperationInFlight instead of queueing; the second trigger is a no-op
// from the UI's point of view.
type flag struct {
	mu   sync.Mutex
	busy bool
}

func (f *flag) acquire() (release func(), err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return nil, ErrOperationInFlight
	}
	f.busy = true
	return func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}, nil
}

// Busy reports whether an operation of this kind is pending.
func (f *flag) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}
