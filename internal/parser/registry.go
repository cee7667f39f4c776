package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSource is returned by Registry.Get for unregistered identifiers.
var ErrUnknownSource = errors.New("no parser registered for source")

// Source identifies one registered import source.
type Source struct {
	ID   string
	Name string
}

// Registry holds the parser for each supported source. Parsers are stateless
// singletons, so one registry can serve concurrent imports.
type Registry struct {
	order   []string
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on a duplicate source ID; registries are
// assembled once at startup.
func (r *Registry) Register(p Parser) {
	id := strings.ToLower(p.ID())
	if _, ok := r.parsers[id]; ok {
		panic("duplicate parser for source: " + id)
	}
	r.order = append(r.order, id)
	r.parsers[id] = p
}

// Get returns the parser for a source identifier.
func (r *Registry) Get(id string) (Parser, error) {
	p, ok := r.parsers[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, id)
	}
	return p, nil
}

// Sources lists every registered source in registration order. The order is
// stable but carries no meaning beyond presentation.
func (r *Registry) Sources() []Source {
	out := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		p := r.parsers[id]
		out = append(out, Source{ID: p.ID(), Name: p.Name()})
	}
	return out
}

// DefaultRegistry returns a registry with all built-in parsers. The document
// extraction parser needs an Extractor for the AI call.
func DefaultRegistry(extractor Extractor) *Registry {
	r := NewRegistry()
	r.Register(&CSVParser{})
	r.Register(&XLSXParser{})
	r.Register(NewPDFParser(extractor))
	return r
}
