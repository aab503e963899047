// Package sigreg implements the process-wide shared signature registry and
// the per-engine trampoline table spec.md section 5 calls out as the
// engine's one piece of shared mutable state: registration is additive and
// idempotent, and the registry serializes its own concurrent access rather
// than requiring callers to hold any lock.
package sigreg

import (
	"fmt"
	"sync"
)

// FuncType is the subset of a function signature the registry keys on:
// callers pass nativewasm.FunctionType values, but this package stays
// independent of the root package to avoid an import cycle, so it re-keys
// on a string built from the caller-supplied param/result encoding.
type FuncType struct {
	Params  []byte
	Results []byte
}

func (f FuncType) key() string {
	return fmt.Sprintf("%x|%x", f.Params, f.Results)
}

// Index is the id a Registry assigns a signature the first time it's seen.
type Index uint32

// Registry is the default, process-wide SignatureRegistry implementation:
// a mutex-guarded map from signature to index, growing monotonically and
// never forgetting a signature once registered.
type Registry struct {
	mu      sync.Mutex
	indices map[string]Index
	next    Index
}

// NewRegistry returns an empty Registry. Most programs want exactly one,
// shared across every Engine they create (spec.md section 5): a single
// package-level Default is provided for that common case.
func NewRegistry() *Registry {
	return &Registry{indices: make(map[string]Index)}
}

// Register returns sig's index, assigning it the next available one the
// first time sig is seen and returning the same index on every later call
// with an equal sig.
func (r *Registry) Register(sig FuncType) Index {
	key := sig.key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.indices[key]; ok {
		return idx
	}
	idx := r.next
	r.indices[key] = idx
	r.next++
	return idx
}

// Default is the process-wide registry new Engines share unless a caller
// builds their own with NewRegistry.
var Default = NewRegistry()

// Trampoline is the address of a compiled call trampoline for a signature.
type Trampoline uintptr

// Table is the default TrampolineTable implementation: an engine-owned,
// mutex-guarded map from signature to trampoline address. Unlike Registry
// it is not meant to be process-wide — each Engine owns one, since
// different artifacts may (in principle) compile different trampoline code
// for the same signature.
type Table struct {
	mu    sync.RWMutex
	table map[string]Trampoline
}

// NewTable returns an empty trampoline table.
func NewTable() *Table {
	return &Table{table: make(map[string]Trampoline)}
}

// AddTrampoline records trampoline as sig's call trampoline, overwriting
// any previous entry for the same signature.
func (t *Table) AddTrampoline(sig FuncType, trampoline Trampoline) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.table[sig.key()] = trampoline
}

// Trampoline looks up sig's call trampoline.
func (t *Table) Trampoline(sig FuncType) (Trampoline, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.table[sig.key()]
	return v, ok
}
