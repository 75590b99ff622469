package provider

import (
	"fmt"
	"sync"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/signal"
)

// Registry holds the registered providers in registration order.
//
// Registry is safe for concurrent use. Added and Removed fire after the
// registry has been updated.
//
// Example:
//
//	reg := provider.NewRegistry()
//	if err := reg.Register(localfs.New(dirs)); err != nil {
//	    return err
//	}
//	p, ok := reg.Get("local")
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string

	Added   signal.Signal[Provider]
	Removed signal.Signal[Provider]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds p. It fails with ErrProviderAlreadyRegistered when the
// identifier is taken and with ErrInconsistentCapability when a declared
// flag has no implementation.
func (r *Registry) Register(p Provider) error {
	if err := Validate(p); err != nil {
		return err
	}
	id := p.Identifier()

	r.mu.Lock()
	if _, ok := r.providers[id]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrProviderAlreadyRegistered, id)
	}
	r.providers[id] = p
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.Added.Emit(p)
	return nil
}

// Remove unregisters the provider with the given identifier.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	p, ok := r.providers[id]
	if ok {
		delete(r.providers, id)
		for i, v := range r.order {
			if v == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if ok {
		r.Removed.Emit(p)
	}
	return ok
}

func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// Has implements uri.SourceLookup.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns the providers in registration order.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// Validate checks that every declared flag is backed by its interface.
func Validate(p Provider) error {
	caps := p.Capabilities()
	for _, req := range requirements {
		if caps.Has(req.typ, req.flag) && !req.check(p) {
			return fmt.Errorf("%w: %s declares %s.%s but does not implement %s",
				ErrInconsistentCapability, p.Identifier(), req.typ, req.flag, req.protocol)
		}
	}
	for typ, declared := range caps {
		if extra := declaredUnbound(typ, declared); extra != FlagNone {
			return fmt.Errorf("%w: %s declares unknown %s.%s",
				ErrInconsistentCapability, p.Identifier(), typ, extra)
		}
	}
	return nil
}

// Lookup returns the provider registered for source as T, after checking
// that it declares flag for typ. It never panics on a missing capability:
// the result is ErrProviderNotFound or a *NotSupportedError.
//
// Example:
//
//	getter, err := provider.Lookup[provider.SongGetter](reg, song.Source, model.TypeSong, provider.FlagGet)
//	if err != nil {
//	    return nil, err
//	}
//	return getter.SongGet(ctx, song.Identifier)
func Lookup[T any](r *Registry, source string, typ model.ModelType, flag Flag) (T, error) {
	var zero T
	p, ok := r.Get(source)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrProviderNotFound, source)
	}
	impl, ok := p.(T)
	if !ok || !p.Capabilities().Has(typ, flag) {
		return zero, &NotSupportedError{Provider: source, Protocol: ProtocolName(typ, flag)}
	}
	return impl, nil
}
