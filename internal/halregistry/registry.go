// Package halregistry holds the dual-indexed pin registry: every bound pin
// is reachable by its local name and, once a handle has been assigned by
// the remote, by that handle too.
package halregistry

import (
	"fmt"
	"log"
	"sync"

	"github.com/kay54068/halremote-go/internal/halpin"
)

// Registry indexes a session's pin descriptors by name and by server-
// assigned handle. The zero value is not usable; use New.
type Registry struct {
	mu       sync.RWMutex
	log      *log.Logger
	byName   map[string]halpin.Descriptor
	byHandle map[uint32]halpin.Descriptor
	order    []string // stable enumeration order, insertion order
}

// New creates an empty Registry. logger may be nil, in which case
// log.Default() is used.
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		log:      logger,
		byName:   make(map[string]halpin.Descriptor),
		byHandle: make(map[uint32]halpin.Descriptor),
	}
}

// Add inserts d into the name index and subscribes to its change
// notifications, binding them to onLocalChange. Pins with an empty name or
// Enabled() == false are silently ignored, per spec.
func (r *Registry) Add(d halpin.Descriptor, onLocalChange halpin.ChangeFunc) {
	if d.Name() == "" || !d.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[d.Name()]; !exists {
		r.order = append(r.order, d.Name())
	}
	r.byName[d.Name()] = d
	d.OnChange(onLocalChange)
}

// BindHandle assigns handle to the pin named name and indexes it by handle.
// If name is unknown (a wire/local shape mismatch), the call is a no-op
// beyond a log entry.
func (r *Registry) BindHandle(name string, handle uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byName[name]
	if !ok {
		r.log.Printf("halregistry: bindHandle: unknown pin %q for handle %d", name, handle)
		return
	}
	d.SetHandle(handle)
	r.byHandle[handle] = d
}

// LookupByName returns the pin registered under name, if any.
func (r *Registry) LookupByName(name string) (halpin.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// LookupByHandle returns the pin bound to handle, if any.
func (r *Registry) LookupByHandle(handle uint32) (halpin.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byHandle[handle]
	return d, ok
}

// All returns every registered pin in stable enumeration order.
func (r *Registry) All() []halpin.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]halpin.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		if d, ok := r.byName[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

// MarkAllUnsynced clears the synced flag on every registered pin. Called on
// any departure from Connected so consumers can observe staleness.
func (r *Registry) MarkAllUnsynced() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if d, ok := r.byName[name]; ok {
			d.SetSynced(false)
		}
	}
}

// Clear unsubscribes every pin's change callback and drops both indices.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		if d, ok := r.byName[name]; ok {
			d.OnChange(nil)
		}
	}
	r.byName = make(map[string]halpin.Descriptor)
	r.byHandle = make(map[uint32]halpin.Descriptor)
	r.order = nil
}

// QualifiedName returns "<component>.<local-name>".
func QualifiedName(component, local string) string {
	return fmt.Sprintf("%s.%s", component, local)
}

// Len reports the number of registered pins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
