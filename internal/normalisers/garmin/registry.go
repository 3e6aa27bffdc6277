package garmin

import (
	"sync"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps record kinds to normalisers.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.RecordKind]driven.Normaliser
}

// NewRegistry creates a registry with the Garmin normalisers registered.
func NewRegistry() *Registry {
	r := &Registry{normalisers: make(map[domain.RecordKind]driven.Normaliser)}
	r.Register(NewActivity())
	r.Register(NewDailyStat())
	r.Register(NewSleep())
	r.Register(NewWeight())
	r.Register(NewGeneric(domain.KindHydration, domain.TableHydration))
	r.Register(NewRestingHR())
	return r
}

// Register adds a normaliser, replacing any previous one for the same kind.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers[n.Kind()] = n
}

// Get returns the normaliser for kind. Unknown kinds get a generic
// normaliser writing to a table named after the kind.
func (r *Registry) Get(kind domain.RecordKind) driven.Normaliser {
	r.mu.RLock()
	n, ok := r.normalisers[kind]
	r.mu.RUnlock()
	if ok {
		return n
	}
	return NewGeneric(kind, string(kind))
}
