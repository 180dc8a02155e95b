package parser

import (
	"errors"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
)

// ErrNoParser is returned by Resolve when no registered parser supports the input
var ErrNoParser = errors.New("no parser supports this input")

// Registry holds extractors in dispatch order, most specific first.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	parsers        []statement.Parser
	legacyFallback bool
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithLegacyFallback makes GetBestParser return the first registered parser
// when nothing matches, instead of nil.
func WithLegacyFallback(enabled bool) RegistryOption {
	return func(r *Registry) {
		r.legacyFallback = enabled
	}
}

// NewRegistry creates a registry over parsers in the given order
func NewRegistry(parsers []statement.Parser, opts ...RegistryOption) *Registry {
	r := &Registry{parsers: append([]statement.Parser(nil), parsers...)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultParsers returns the built-in extractors in dispatch order: the Itau
// invoice extractor ahead of the generic PDF text one, then the
// format-exclusive CSV, OFX and XLSX extractors.
func DefaultParsers(opts ...Option) []statement.Parser {
	return []statement.Parser{
		NewItauParser(opts...),
		NewPDFTextParser(opts...),
		NewCSVParser(opts...),
		NewOFXParser(opts...),
		NewXLSXParser(opts...),
	}
}

// NewDefaultRegistry creates a registry over DefaultParsers
func NewDefaultRegistry(opts []Option, regOpts ...RegistryOption) *Registry {
	return NewRegistry(DefaultParsers(opts...), regOpts...)
}

// Resolve returns the first parser whose Supports reports true
func (r *Registry) Resolve(input statement.ParserInput) (statement.Parser, error) {
	for _, p := range r.parsers {
		if p.Supports(input) {
			return p, nil
		}
	}
	return nil, ErrNoParser
}

// GetBestParser returns the first matching parser. Without a match it
// returns nil, or the first registered parser in legacy fallback mode; that
// parser may legitimately return no transactions for the input.
func (r *Registry) GetBestParser(input statement.ParserInput) statement.Parser {
	p, err := r.Resolve(input)
	if err == nil {
		return p
	}
	if r.legacyFallback && len(r.parsers) > 0 {
		return r.parsers[0]
	}
	return nil
}

// LegacyFallback reports whether unmatched inputs fall back to the first parser
func (r *Registry) LegacyFallback() bool {
	return r.legacyFallback
}

// IDs lists registered parser IDs in dispatch order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		ids[i] = p.ID()
	}
	return ids
}

// Parser looks a registered parser up by ID
func (r *Registry) Parser(id string) (statement.Parser, bool) {
	for _, p := range r.parsers {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}
