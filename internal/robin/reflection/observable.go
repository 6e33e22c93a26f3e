package reflection

import "sync"

// TypeExistenceObservable lets callers lazily wait for the matching const
// variant of a type to be created, instead of creating it eagerly or
// failing when it does not exist yet. NotifyTypeCreated fires observers
// queued by Observe exactly once.
type TypeExistenceObservable struct {
	mu        sync.Mutex
	resolved  *RobinType
	observers []func(*RobinType)
}

// Observe registers a callback to run when the observed type is created. If
// the type already exists, the callback runs immediately (synchronously).
func (o *TypeExistenceObservable) Observe(cb func(*RobinType)) {
	o.mu.Lock()
	if o.resolved != nil {
		t := o.resolved
		o.mu.Unlock()
		cb(t)
		return
	}
	o.observers = append(o.observers, cb)
	o.mu.Unlock()
}

// NotifyTypeCreated fires every queued observer exactly once. Subsequent
// calls are no-ops: a const variant, once created, cannot be replaced.
func (o *TypeExistenceObservable) NotifyTypeCreated(t *RobinType) {
	o.mu.Lock()
	if o.resolved != nil {
		o.mu.Unlock()
		return
	}
	o.resolved = t
	pending := o.observers
	o.observers = nil
	o.mu.Unlock()

	for _, cb := range pending {
		cb(t)
	}
}

// TypeIfExists is an instant query returning the observed type, or nil if it
// has not been created yet.
func (o *TypeExistenceObservable) TypeIfExists() *RobinType {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resolved
}
