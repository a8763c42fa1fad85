// SPDX-License-Identifier: MIT

// Package registry catalogs the extraction engines. A Builder collects
// processors during startup and Build seals the set into an immutable
// Registry; all lookups afterwards are plain map and slice reads, safe for
// concurrent use without locking. Availability of each engine is probed
// lazily on first demand and memoized for the process lifetime.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ManuGH/ccore/internal/content"
)

// Capabilities declares what a processor can handle. MIME patterns are exact
// types or trailing wildcards such as "image/*". Priority runs 0-100 with
// higher preferred when several engines claim the same type. Requires lists
// the external capabilities an engine depends on (binaries, credentials,
// peer services) for diagnostics; Available is the authoritative gate.
type Capabilities struct {
	MIMETypes  []string
	Extensions []string
	Priority   int
	Requires   []string
	Category   content.Category
}

// Processor is a single extraction engine.
type Processor interface {
	Name() string
	Capabilities() Capabilities

	// Available reports whether the engine can run in this environment.
	// The registry calls it at most once per process.
	Available() bool

	Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error)
}

type entry struct {
	proc  Processor
	caps  Capabilities
	index int

	availOnce sync.Once
	avail     bool
}

func (e *entry) available() bool {
	e.availOnce.Do(func() { e.avail = e.proc.Available() })
	return e.avail
}

// Builder accumulates processors before the registry is sealed.
type Builder struct {
	entries []*entry
	names   map[string]struct{}
}

func NewBuilder() *Builder {
	return &Builder{names: map[string]struct{}{}}
}

// Register adds a processor. Registering the same name twice is an error.
func (b *Builder) Register(p Processor) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("registry: processor with empty name")
	}
	if _, dup := b.names[name]; dup {
		return fmt.Errorf("registry: processor %q already registered", name)
	}
	b.names[name] = struct{}{}
	b.entries = append(b.entries, &entry{proc: p, caps: p.Capabilities(), index: len(b.entries)})
	return nil
}

// MustRegister is Register for static engine sets assembled at startup.
func (b *Builder) MustRegister(p Processor) {
	if err := b.Register(p); err != nil {
		panic(err)
	}
}

// Build seals the collected set. The Builder must not be reused afterwards.
func (b *Builder) Build() *Registry {
	r := &Registry{
		entries: b.entries,
		byName:  make(map[string]*entry, len(b.entries)),
	}
	for _, e := range b.entries {
		r.byName[e.proc.Name()] = e
	}
	return r
}

// Registry is the sealed engine catalog.
type Registry struct {
	entries []*entry
	byName  map[string]*entry
}

// Get returns the processor registered under name.
func (r *Registry) Get(name string) (Processor, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.proc, true
}

// IsAvailable reports the memoized availability of name. Unknown names are
// unavailable.
func (r *Registry) IsAvailable(name string) bool {
	e, ok := r.byName[name]
	return ok && e.available()
}

// FindByMIME returns the engines claiming mime. Exact claims rank ahead of
// wildcard claims; within each group available engines come first, then
// priority descending, then registration order.
func (r *Registry) FindByMIME(mime string) []Processor {
	type ranked struct {
		e        *entry
		wildcard bool
	}
	var matches []ranked
	for _, e := range r.entries {
		exact, wild := false, false
		for _, pat := range e.caps.MIMETypes {
			if pat == mime {
				exact = true
				break
			}
			if content.MatchesMime(pat, mime) {
				wild = true
			}
		}
		switch {
		case exact:
			matches = append(matches, ranked{e: e})
		case wild:
			matches = append(matches, ranked{e: e, wildcard: true})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.wildcard != b.wildcard {
			return !a.wildcard
		}
		return entryLess(a.e, b.e)
	})
	out := make([]Processor, len(matches))
	for i, m := range matches {
		out[i] = m.e.proc
	}
	return out
}

// FindByCategory returns the engines of a category, available first, then
// priority descending, then registration order.
func (r *Registry) FindByCategory(cat content.Category) []Processor {
	return r.collect(func(e *entry) bool { return e.caps.Category == cat })
}

// FindByExtension matches a file extension hint; the leading dot is optional.
func (r *Registry) FindByExtension(ext string) []Processor {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return r.collect(func(e *entry) bool {
		for _, known := range e.caps.Extensions {
			if strings.EqualFold(known, ext) {
				return true
			}
		}
		return false
	})
}

// AvailableEngines returns the sorted names of all engines reporting
// available.
func (r *Registry) AvailableEngines() []string {
	var names []string
	for _, e := range r.entries {
		if e.available() {
			names = append(names, e.proc.Name())
		}
	}
	sort.Strings(names)
	return names
}

// All returns every registered processor in registration order.
func (r *Registry) All() []Processor {
	out := make([]Processor, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.proc
	}
	return out
}

func (r *Registry) collect(keep func(*entry) bool) []Processor {
	var matched []*entry
	for _, e := range r.entries {
		if keep(e) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return entryLess(matched[i], matched[j]) })
	out := make([]Processor, len(matched))
	for i, e := range matched {
		out[i] = e.proc
	}
	return out
}

// entryLess orders by availability, then priority, then registration order.
func entryLess(a, b *entry) bool {
	if av, bv := a.available(), b.available(); av != bv {
		return av
	}
	if a.caps.Priority != b.caps.Priority {
		return a.caps.Priority > b.caps.Priority
	}
	return a.index < b.index
}
