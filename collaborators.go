package nativewasm

// This file defines the boundary types for the engine's external
// collaborators: the WebAssembly decoder (Environment), the compiler back
// end (Compiler), the runtime's memory/table planner (Tunables) and the process-wide
// signature registry. spec.md section 1 treats all of these as "external
// collaborators" outside this engine's scope — they are modeled here as
// plain Go interfaces and data structures so the engine can be built,
// typed, and tested against them without depending on any concrete WASM
// toolchain implementation.

// SignatureIndex, LocalFunctionIndex, FunctionIndex, MemoryIndex and
// TableIndex mirror the entity-indexing style used throughout the
// WebAssembly tooling ecosystem: small integer handles into per-module
// tables, never raw offsets.
type (
	SignatureIndex     uint32
	LocalFunctionIndex uint32
	FunctionIndex      uint32
	MemoryIndex        uint32
	TableIndex         uint32
)

// FunctionType is a minimal WebAssembly function signature: parameter and
// result value types, encoded as single bytes matching the WebAssembly
// binary format's type tags (0x7f = i32, 0x7e = i64, 0x7d = f32, 0x7c = f64).
type FunctionType struct {
	Params  []byte
	Results []byte
}

// ModuleInfo is the module-wide description produced by Environment.Translate.
// It is referenced from ModuleMetadata and, after instantiation, potentially
// aliased by the Runtime — hence the shared (pointer) ownership called out
// in spec.md section 3.
type ModuleInfo struct {
	Name             string
	Signatures       []FunctionType
	NumImportedFuncs int
	// Functions maps every function index (imports first) to its
	// signature index.
	Functions []SignatureIndex
	Memories  map[MemoryIndex]MemoryType
	Tables    map[TableIndex]TableType
}

// Features is the set of WebAssembly proposal feature flags the module was
// compiled with (e.g. bulk-memory, reference-types). The concrete flags are
// owned by the Compiler collaborator; this engine only carries the value
// through unmodified.
type Features struct {
	Flags map[string]bool
}

// MemoryType and TableType are the WebAssembly-level limits a memory or
// table import/definition declares; MemoryPlan/TablePlan are what Tunables
// turns those into for this host (initial/maximum pages, whether the
// memory is shared, etc).
type MemoryType struct {
	Minimum uint32
	Maximum *uint32
	Shared  bool
}

type TableType struct {
	Minimum uint32
	Maximum *uint32
}

// MemoryPlan and TablePlan are produced by Tunables from a MemoryType or
// TableType. Their internal shape is owned by the Runtime collaborator;
// this engine persists and returns them as opaque values.
type MemoryPlan struct {
	Memory MemoryType
	Style  string
}

type TablePlan struct {
	Table TableType
}

// Tunables converts WebAssembly-level memory/table types into host plans.
type Tunables interface {
	MemoryPlan(MemoryType) MemoryPlan
	TablePlan(TableType) TablePlan
}

// DataInitializer is an owned copy of a data segment: the (possibly
// memory-index-qualified) offset expression plus the raw initializer bytes.
type DataInitializer struct {
	MemoryIndex MemoryIndex
	Offset      []byte // constant-expression encoding, opaque to this engine
	Data        []byte
}

// ModuleTranslation is Environment.Translate's result.
type ModuleTranslation struct {
	Module           *ModuleInfo
	DataInitializers []DataInitializer
	FunctionBodyInputs []FunctionBodyInput
}

// FunctionBodyInput is the raw per-function input the Compiler consumes;
// its contents (wasm bytecode, locals) are opaque to this engine.
type FunctionBodyInput struct {
	Index LocalFunctionIndex
	Bytes []byte
}

// Environment is the WebAssembly decoder/translator collaborator.
type Environment interface {
	Translate(wasmBytes []byte) (*ModuleTranslation, error)
}

// CustomSectionProtection is the memory protection a compiler-emitted
// custom section (DWARF, constant pools, ...) should have once loaded.
type CustomSectionProtection int

const (
	// SectionReadExecute sections are emitted as Text symbols in the text
	// section.
	SectionReadExecute CustomSectionProtection = iota
	// SectionReadOnly sections are conceptually data but, per the
	// documented quirk in spec.md section 9, are also emitted into the
	// text section (with a Data symbol kind) rather than a true data
	// section.
	SectionReadOnly
)

// CustomSection is one auxiliary byte blob emitted by the compiler.
type CustomSection struct {
	Protection CustomSectionProtection
	Bytes      []byte
}

// FunctionBody is one compiled function's machine code.
type FunctionBody struct {
	Body []byte
}

// RelocationTargetKind distinguishes what a Relocation resolves against.
type RelocationTargetKind int

const (
	RelocationLocalFunc RelocationTargetKind = iota
	RelocationLibCall
	RelocationCustomSection
	RelocationJumpTable
)

// RelocationTarget identifies what a Relocation points at.
type RelocationTarget struct {
	Kind          RelocationTargetKind
	LocalFuncIdx  LocalFunctionIndex
	LibCallName   string
	SectionIdx    int
	JumpTableFunc LocalFunctionIndex
	JumpTableIdx  int
}

// Relocation is one fixup the Compiler reports against a function body or
// custom section's machine code, to be applied against the final object's
// symbol table.
type Relocation struct {
	Offset      uint64
	RelocTarget RelocationTarget
	Addend      int64
}

// CompileModuleInfo bundles the module description with the plans Tunables
// derived from it — this is the "compile_info" field of ModuleMetadata.
type CompileModuleInfo struct {
	Module      *ModuleInfo
	Features    Features
	MemoryPlans map[MemoryIndex]MemoryPlan
	TablePlans  map[TableIndex]TablePlan
}

// CompilationResult is everything Compiler.CompileModule produces for one
// module: function bodies (keyed by local function index), call
// trampolines (keyed by signature), dynamic-import trampolines (keyed by
// function index, imports only), custom sections, and the two relocation
// streams.
type CompilationResult struct {
	FunctionBodies               map[LocalFunctionIndex]FunctionBody
	FunctionCallTrampolines      map[SignatureIndex]FunctionBody
	DynamicFunctionTrampolines   map[FunctionIndex]FunctionBody
	CustomSections               map[int]CustomSection
	Relocations                  map[LocalFunctionIndex][]Relocation
	CustomSectionRelocations     map[int][]Relocation
}

// Compiler is the compiler back end collaborator.
type Compiler interface {
	CompileModule(info *CompileModuleInfo, bodies []FunctionBodyInput) (*CompilationResult, error)
}

// VMFunctionBody is a fat pointer into a loaded library's text segment:
// start address plus byte length. Dynamic-import trampolines always carry
// Length == 0 (spec.md section 3): the runtime treats those as opaque
// addresses rather than sized code ranges.
type VMFunctionBody struct {
	Address uintptr
	Length  uint64
}

// VMTrampoline is the address of a per-signature call trampoline.
type VMTrampoline uintptr

// VMSharedSignatureIndex is the id a SignatureRegistry assigns a signature;
// stable and shared across every artifact registered against the same
// registry instance.
type VMSharedSignatureIndex uint32

// SignatureRegistry is the process-wide shared mutable resource from
// spec.md section 5: registration is additive and idempotent per
// signature, and the registry serializes its own concurrent access.
type SignatureRegistry interface {
	Register(sig FunctionType) VMSharedSignatureIndex
}

// TrampolineTable is the engine-owned table mapping a signature to its call
// trampoline address, mutated during hydration under the engine's own
// exclusive access.
type TrampolineTable interface {
	AddTrampoline(sig FunctionType, trampoline VMTrampoline)
	Trampoline(sig FunctionType) (VMTrampoline, bool)
}
