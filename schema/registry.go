// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// Registry collects schema sources as they become available and
// compiles them into a Context on demand. The Context is rebuilt only
// when the set of registered sources changed since the last build.
type Registry struct {
	log *slog.Logger

	mu      sync.Mutex
	sources map[string]*Source
	version atomic.Uint64

	cached        *Context
	cachedVersion uint64
}

// RegistryNew creates an empty Registry. A nil logger uses slog.Default.
func RegistryNew(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{log: log, sources: make(map[string]*Source)}
}

// Register adds or replaces the source of a module.
func (r *Registry) Register(src *Source) {
	r.mu.Lock()
	r.sources[src.Module] = src
	v := r.version.Add(1)
	r.mu.Unlock()
	r.log.Debug("schema source registered", "module", src.Module, "version", v)
}

// RegisterYAML parses and registers a YAML source.
func (r *Registry) RegisterYAML(b []byte) (*Source, error) {
	src, err := ParseSource(b)
	if err != nil {
		return nil, err
	}
	r.Register(src)
	return src, nil
}

// Unregister removes the source of a module. It reports whether the
// module was registered.
func (r *Registry) Unregister(module string) bool {
	r.mu.Lock()
	_, ok := r.sources[module]
	if ok {
		delete(r.sources, module)
		r.version.Add(1)
	}
	r.mu.Unlock()
	if ok {
		r.log.Debug("schema source unregistered", "module", module)
	}
	return ok
}

// Version returns a counter that changes whenever the set of sources
// changes.
func (r *Registry) Version() uint64 { return r.version.Load() }

// Modules returns the names of the registered modules.
func (r *Registry) Modules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.sources))
}

// Context returns a Context compiled from the registered sources.
// Compilation runs without holding the registry lock; if sources change
// while it runs the result is discarded and compilation starts over
// from the new set, so the returned Context always matches a single
// consistent set of sources.
func (r *Registry) Context() (*Context, error) {
	for {
		r.mu.Lock()
		v := r.version.Load()
		if r.cached != nil && r.cachedVersion == v {
			ctx := r.cached
			r.mu.Unlock()
			return ctx, nil
		}
		srcs := slices.Collect(maps.Values(r.sources))
		r.mu.Unlock()

		ctx, err := ContextNew(srcs...)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.version.Load() == v {
			r.cached, r.cachedVersion = ctx, v
			r.mu.Unlock()
			r.log.Debug("schema context built",
				"modules", ctx.Modules(), "version", v)
			return ctx, nil
		}
		r.mu.Unlock()
		r.log.Debug("schema sources changed during build, retrying",
			"version", v)
	}
}
