package nativewasm

import (
	"os"

	"github.com/xyproto/nativewasm/internal/nativelib"
)

// Artifact is a compiled WebAssembly module backed by a native shared
// library: the library file itself is the serialization format (Serialize
// just reads it back off disk), and every function pointer this artifact
// exposes is an address resolved from that library's own symbol table.
type Artifact struct {
	engine *Engine

	metadata         *ModuleMetadata
	sharedObjectPath string
	library          nativelib.NativeLibrary // nil for a cross-compiled artifact

	finishedFunctions                  []VMFunctionBody
	finishedDynamicFunctionTrampolines []VMFunctionBody
	signatures                         []VMSharedSignatureIndex
}

// Module returns the compiled module's description.
func (a *Artifact) Module() *ModuleInfo { return a.metadata.CompileInfo.Module }

// ModuleMut returns the same module description as Module, for callers that
// need to mutate it in place. Go pointers carry no borrow tracking, so
// unlike the engine this was grounded on there is no runtime check that no
// other referent exists; callers mutate at their own risk, same as any
// other shared *ModuleInfo.
func (a *Artifact) ModuleMut() *ModuleInfo { return a.metadata.CompileInfo.Module }

// Features returns the WebAssembly proposal flags the module was compiled
// with.
func (a *Artifact) Features() Features { return a.metadata.CompileInfo.Features }

// DataInitializers returns the module's data segments.
func (a *Artifact) DataInitializers() []DataInitializer { return a.metadata.DataInitializers }

// MemoryPlans returns the host memory plan for each of the module's memories.
func (a *Artifact) MemoryPlans() map[MemoryIndex]MemoryPlan {
	return a.metadata.CompileInfo.MemoryPlans
}

// TablePlans returns the host table plan for each of the module's tables.
func (a *Artifact) TablePlans() map[TableIndex]TablePlan {
	return a.metadata.CompileInfo.TablePlans
}

// FinishedFunctions returns every local function's fat pointer, in local
// function index order. Empty for a cross-compiled artifact.
func (a *Artifact) FinishedFunctions() []VMFunctionBody { return a.finishedFunctions }

// FinishedDynamicFunctionTrampolines returns every imported function's
// dynamic-call trampoline address, in function index order. Their Length is
// always 0 (spec.md section 3): the runtime treats these as opaque
// addresses, never sized code ranges.
func (a *Artifact) FinishedDynamicFunctionTrampolines() []VMFunctionBody {
	return a.finishedDynamicFunctionTrampolines
}

// Signatures returns the process-wide shared signature index for each of
// the module's signatures, in signature index order.
func (a *Artifact) Signatures() []VMSharedSignatureIndex { return a.signatures }

// Preinstantiate reports whether this artifact can be instantiated. Only a
// cross-compiled artifact (no library opened on this host) fails.
func (a *Artifact) Preinstantiate() error {
	if a.library == nil {
		return linkTrapError("Cross compiled artifacts can't be instantiated.")
	}
	return nil
}

// Serialize returns the artifact's on-disk shared library bytes verbatim —
// the shared library file is this engine's entire serialization format.
func (a *Artifact) Serialize() ([]byte, error) {
	return os.ReadFile(a.sharedObjectPath)
}

// RegisterFrameInfo is a no-op: frame-info registration was never
// implemented in the engine this was grounded on either (see the
// commented-out block in the original compile path), so there is nothing
// for this engine to wire it to.
func (a *Artifact) RegisterFrameInfo() {}

// Close unloads the backing shared library, if one was opened. Safe to call
// on a cross-compiled artifact (a no-op).
func (a *Artifact) Close() error {
	if a.library == nil {
		return nil
	}
	return a.library.Close()
}

// fromPartsCrossCompiled builds an Artifact for a target that differs from
// the host: the shared library was produced but is never opened, so every
// function-pointer-bearing field stays empty and Preinstantiate always
// fails (spec.md section 4.6 / Scenario S4).
func fromPartsCrossCompiled(metadata *ModuleMetadata, sharedObjectPath string) (*Artifact, error) {
	return &Artifact{
		metadata:         metadata,
		sharedObjectPath: sharedObjectPath,
		library:          nil,
	}, nil
}

// fromParts hydrates an Artifact from an already-opened native library,
// following spec.md section 4.5 steps 1-5 exactly: resolve every local
// function and call trampoline symbol, register signatures with the
// engine's shared registry, and resolve every imported function's dynamic
// trampoline symbol.
func fromParts(engine *Engine, metadata *ModuleMetadata, sharedObjectPath string, lib nativelib.NativeLibrary) (*Artifact, error) {
	module := metadata.CompileInfo.Module

	numLocalFuncs := len(metadata.FunctionBodyLengths)
	finishedFunctions := make([]VMFunctionBody, numLocalFuncs)
	for i := 0; i < numLocalFuncs; i++ {
		idx := LocalFunctionIndex(i)
		name := metadata.FunctionSymbol(idx)
		addr, err := lib.Lookup(name)
		if err != nil {
			return nil, codegenErrorf("missing function symbol %q: %v", name, err)
		}
		finishedFunctions[i] = VMFunctionBody{Address: addr, Length: metadata.FunctionBodyLengths[idx]}
	}

	signatures := make([]VMSharedSignatureIndex, len(module.Signatures))
	for i, sig := range module.Signatures {
		name := metadata.TrampolineSymbol(SignatureIndex(i))
		addr, err := lib.Lookup(name)
		if err != nil {
			return nil, codegenErrorf("missing call trampoline symbol %q: %v", name, err)
		}
		engine.Trampolines.AddTrampoline(sig, VMTrampoline(addr))
		signatures[i] = engine.Signatures.Register(sig)
	}

	finishedDynamicTrampolines := make([]VMFunctionBody, module.NumImportedFuncs)
	for i := 0; i < module.NumImportedFuncs; i++ {
		idx := FunctionIndex(i)
		name := metadata.DynamicTrampolineSymbol(idx)
		addr, err := lib.Lookup(name)
		if err != nil {
			return nil, codegenErrorf("missing dynamic trampoline symbol %q: %v", name, err)
		}
		finishedDynamicTrampolines[i] = VMFunctionBody{Address: addr, Length: 0}
	}

	return &Artifact{
		engine:                             engine,
		metadata:                           metadata,
		sharedObjectPath:                   sharedObjectPath,
		library:                            lib,
		finishedFunctions:                  finishedFunctions,
		finishedDynamicFunctionTrampolines: finishedDynamicTrampolines,
		signatures:                         signatures,
	}, nil
}
