package store

import "sync"

// writeQueue serializes writes per logical key and coalesces bursts:
// at most one write is in flight per key, and while it runs only the
// most recent waiting request survives — anything it superseded is
// dropped without executing. Only the final state matters.
type writeQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	busy    map[string]bool
	pending map[string]*pendingWrite
}

type pendingWrite struct {
	superseded bool
}

func newWriteQueue() *writeQueue {
	q := &writeQueue{
		busy:    make(map[string]bool),
		pending: make(map[string]*pendingWrite),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Do runs write under the key's serialization lock. A caller that
// arrives while another write is in flight waits; if a newer request
// for the same key arrives before the waiter gets to run, the older
// waiter is dropped and returns nil — the newer value owns the final
// state.
func (q *writeQueue) Do(key string, write func() error) error {
	q.mu.Lock()
	// A newcomer is always newer than a parked waiter, whether or not
	// a write is currently in flight: a waiter that has not started by
	// the time we arrive must never run after us.
	if prev := q.pending[key]; prev != nil {
		prev.superseded = true
		delete(q.pending, key)
		q.cond.Broadcast()
	}
	if q.busy[key] {
		me := &pendingWrite{}
		q.pending[key] = me

		for q.busy[key] && !me.superseded {
			q.cond.Wait()
		}
		if me.superseded {
			q.mu.Unlock()
			return nil
		}
		if q.pending[key] == me {
			delete(q.pending, key)
		}
	}
	q.busy[key] = true
	q.mu.Unlock()

	err := write()

	q.mu.Lock()
	q.busy[key] = false
	q.cond.Broadcast()
	q.mu.Unlock()
	return err
}
