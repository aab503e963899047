package nativewasm

import (
	"github.com/xyproto/nativewasm/internal/sigreg"
	"github.com/xyproto/nativewasm/internal/target"
)

// Engine bundles everything a compiled Artifact needs beyond its own
// metadata and shared library: the target it compiles for, the process-wide
// signature registry, and its own trampoline table (spec.md section 4.5's
// "engine handle").
type Engine struct {
	Target      target.Triple
	Features    Features
	Signatures  SignatureRegistry
	Trampolines TrampolineTable
}

// NewEngine returns an Engine for t, sharing the package-wide default
// signature registry (spec.md section 5: registration is process-wide) and
// owning a fresh trampoline table.
func NewEngine(t target.Triple) *Engine {
	return &Engine{
		Target:      t,
		Signatures:  registryAdapter{sigreg.Default},
		Trampolines: tableAdapter{sigreg.NewTable()},
	}
}

// HostEngine returns an Engine targeting the current process's own triple —
// the common case for compiling something you intend to hydrate and run
// immediately.
func HostEngine() *Engine {
	return NewEngine(target.HostTriple())
}

// registryAdapter satisfies SignatureRegistry on top of sigreg.Registry,
// translating between the root package's FunctionType/VMSharedSignatureIndex
// and sigreg's format-agnostic key encoding.
type registryAdapter struct{ r *sigreg.Registry }

func (a registryAdapter) Register(sig FunctionType) VMSharedSignatureIndex {
	idx := a.r.Register(sigreg.FuncType{Params: sig.Params, Results: sig.Results})
	return VMSharedSignatureIndex(idx)
}

// tableAdapter satisfies TrampolineTable on top of sigreg.Table.
type tableAdapter struct{ t *sigreg.Table }

func (a tableAdapter) AddTrampoline(sig FunctionType, trampoline VMTrampoline) {
	a.t.AddTrampoline(sigreg.FuncType{Params: sig.Params, Results: sig.Results}, sigreg.Trampoline(trampoline))
}

func (a tableAdapter) Trampoline(sig FunctionType) (VMTrampoline, bool) {
	v, ok := a.t.Trampoline(sigreg.FuncType{Params: sig.Params, Results: sig.Results})
	return VMTrampoline(v), ok
}
