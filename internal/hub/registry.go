package hub

import "sync"

// Registry guards the process-wide rule that one session runs at a time.
type Registry struct {
	mu     sync.Mutex
	active string
}

func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry is shared by every Session built without WithRegistry.
var DefaultRegistry = NewRegistry()

// TryAcquire marks id active if no other session is.
func (r *Registry) TryAcquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != "" {
		return false
	}
	r.active = id
	return true
}

// Release frees the slot if id holds it.
func (r *Registry) Release(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != id {
		return false
	}
	r.active = ""
	return true
}

// Active returns the id of the running session, if any.
func (r *Registry) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != ""
}
