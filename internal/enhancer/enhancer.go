package enhancer

import (
	"context"
	"fmt"

	"WallabagEnhancer/internal/domain"
)

// Fetcher retrieves the raw body of a page. Enhancers never build their own
// transport; the caller supplies one.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Enhancer recognizes a class of articles and contributes update fields.
type Enhancer interface {
	Name() string
	// Applies must not fail; an empty or malformed URL simply does not apply.
	Applies(article domain.Article) bool
	// Enrich is best effort per field: missing data yields an omitted field,
	// transport failures yield an error.
	Enrich(ctx context.Context, article domain.Article, fetcher Fetcher) (domain.Enrichment, error)
}

// Registry keeps enhancers in registration order.
type Registry struct {
	enhancers []Enhancer
}

// NewRegistry builds a registry holding the given enhancers in order.
func NewRegistry(enhancers ...Enhancer) *Registry {
	r := &Registry{}
	for _, e := range enhancers {
		r.Register(e)
	}
	return r
}

// Register appends an enhancer, or replaces one with the same name in place.
func (r *Registry) Register(e Enhancer) {
	for i, existing := range r.enhancers {
		if existing.Name() == e.Name() {
			r.enhancers[i] = e
			return
		}
	}
	r.enhancers = append(r.enhancers, e)
}

// Resolve returns an enhancer by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Enhancer, error) {
	for _, e := range r.enhancers {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("enhancer %s is not registered", name)
}

// Select returns the named enhancers in the order given.
func (r *Registry) Select(names []string) ([]Enhancer, error) {
	selected := make([]Enhancer, 0, len(names))
	for _, name := range names {
		e, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, e)
	}
	return selected, nil
}

// All returns every registered enhancer in registration order.
func (r *Registry) All() []Enhancer {
	return append([]Enhancer(nil), r.enhancers...)
}
