package resilience

import "sync"

// InFlightGuard tracks keys with work currently running. Unlike
// SingleFlight it never waits: a second caller for the same key is
// rejected immediately so it can report "already running" upstream.
type InFlightGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{keys: make(map[string]struct{})}
}

// TryAcquire claims the key. It returns false when the key is already
// held; the caller must not start the work in that case.
func (g *InFlightGuard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.keys == nil {
		g.keys = make(map[string]struct{})
	}
	if _, held := g.keys[key]; held {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

// Release frees the key. Releasing a key that is not held is a no-op.
func (g *InFlightGuard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
}

// Held reports whether the key is currently claimed.
func (g *InFlightGuard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.keys[key]
	return held
}
