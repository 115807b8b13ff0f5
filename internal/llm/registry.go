package llm

import (
	"sort"
	"strings"
)

// Registry stores providers by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	if r == nil {
		panic("llm: register on nil registry")
	}
	if p == nil {
		panic("llm: register nil provider")
	}
	name := strings.ToLower(strings.TrimSpace(p.Name()))
	if name == "" {
		panic("llm: provider has empty name")
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[name] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	if r == nil || r.providers == nil {
		return nil, false
	}
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
