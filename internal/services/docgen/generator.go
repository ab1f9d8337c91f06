package docgen

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"docpress/internal/release"
	"docpress/internal/services"
)

// Request carries everything a generator needs to render one document.
// Attachments and images on the document already hold resolved paths when
// asset resolution ran.
type Request struct {
	Doc      *release.Document
	Template Template
}

// Generator renders a validated release document into PDF bytes.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// Registry maps engine names to generators.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry builds a registry from the given generators, keyed by Name().
func NewRegistry(gens ...Generator) *Registry {
	r := &Registry{generators: make(map[string]Generator, len(gens))}
	for _, g := range gens {
		r.generators[g.Name()] = g
	}
	return r
}

// Lookup resolves an engine name. Unknown names are a configuration error.
func (r *Registry) Lookup(name string) (Generator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if g, ok := r.generators[name]; ok {
		return g, nil
	}
	return nil, services.NewError(services.ErrConfiguration,
		"ENGINE_UNKNOWN",
		fmt.Sprintf("unknown generation engine %q", name),
		fmt.Sprintf("Configured engines: %s.", strings.Join(r.Names(), ", ")))
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
