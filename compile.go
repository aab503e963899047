package nativewasm

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"sort"

	"github.com/xyproto/nativewasm/internal/linker"
	"github.com/xyproto/nativewasm/internal/nativelib"
	"github.com/xyproto/nativewasm/internal/objwriter"
	"github.com/xyproto/nativewasm/internal/target"
)

// Compile runs the full pipeline from raw WebAssembly bytes to a hydrated
// Artifact: translate, plan, compile, write a relocatable object, link it
// into a shared library, and (unless cross-compiling) load that library
// back into this process to recover function pointers (spec.md sections
// 4.1-4.5).
func Compile(ctx context.Context, engine *Engine, env Environment, compiler Compiler, tunables Tunables, wasmBytes []byte) (*Artifact, error) {
	translation, err := env.Translate(wasmBytes)
	if err != nil {
		return nil, wasmError(err)
	}
	module := translation.Module

	memoryPlans := make(map[MemoryIndex]MemoryPlan, len(module.Memories))
	for idx, memType := range module.Memories {
		memoryPlans[idx] = tunables.MemoryPlan(memType)
	}
	tablePlans := make(map[TableIndex]TablePlan, len(module.Tables))
	for idx, tableType := range module.Tables {
		tablePlans[idx] = tunables.TablePlan(tableType)
	}

	compileInfo := &CompileModuleInfo{
		Module:      module,
		Features:    engine.Features,
		MemoryPlans: memoryPlans,
		TablePlans:  tablePlans,
	}

	compilation, err := compiler.CompileModule(compileInfo, translation.FunctionBodyInputs)
	if err != nil {
		return nil, codegenError("compile module", err)
	}

	obj, err := objwriter.New(engine.Target)
	if err != nil {
		return nil, codegenError(err.Error(), nil)
	}

	functionBodyLengths := make(map[LocalFunctionIndex]uint64, len(compilation.FunctionBodies))
	for idx, body := range compilation.FunctionBodies {
		functionBodyLengths[idx] = uint64(len(body.Body))
	}

	metadata := &ModuleMetadata{
		CompileInfo:         *compileInfo,
		Prefix:              modulePrefix(wasmBytes),
		DataInitializers:    translation.DataInitializers,
		FunctionBodyLengths: functionBodyLengths,
	}

	blob, err := metadata.Encode()
	if err != nil {
		return nil, codegenError("encode module metadata", err)
	}
	obj.AddMetadata(MetadataSymbolName, blob)

	// Custom sections, in index order, before functions — matches the
	// original engine's emission order, which matters only for output
	// determinism, not correctness.
	for _, idx := range sortedIntKeys(compilation.CustomSections) {
		section := compilation.CustomSections[idx]
		protection := objwriter.ReadExecute
		if section.Protection == SectionReadOnly {
			protection = objwriter.ReadOnly
		}
		obj.AddCustomSection(metadata.SectionSymbol(idx), protection, section.Bytes)
	}

	for _, idx := range sortedLocalFuncKeys(compilation.FunctionBodies) {
		obj.AddFunctionBody(metadata.FunctionSymbol(idx), compilation.FunctionBodies[idx].Body)
	}
	for _, idx := range sortedSigKeys(compilation.FunctionCallTrampolines) {
		obj.AddFunctionBody(metadata.TrampolineSymbol(idx), compilation.FunctionCallTrampolines[idx].Body)
	}
	for _, idx := range sortedFuncKeys(compilation.DynamicFunctionTrampolines) {
		obj.AddFunctionBody(metadata.DynamicTrampolineSymbol(idx), compilation.DynamicFunctionTrampolines[idx].Body)
	}

	if err := addRelocations(obj, metadata, compilation); err != nil {
		return nil, err
	}

	objBytes, err := obj.Write()
	if err != nil {
		return nil, codegenError("write object", err)
	}

	objFile, err := os.CreateTemp("", "wasmer_native*.o")
	if err != nil {
		return nil, codegenError("create temp object file", err)
	}
	objPath := objFile.Name()
	if _, err := objFile.Write(objBytes); err != nil {
		objFile.Close()
		return nil, codegenError("write temp object file", err)
	}
	objFile.Close()

	sharedFile, err := os.CreateTemp("", "wasmer_native*."+engine.Target.DefaultExtension())
	if err != nil {
		return nil, codegenError("create temp shared library file", err)
	}
	sharedPath := sharedFile.Name()
	sharedFile.Close()

	cross := target.IsCrossCompiling(target.HostTriple(), engine.Target)
	overrides := linker.Overrides{Native: LinkerOverride(), Cross: CrossLinkerOverride()}
	if err := linker.Link(ctx, objPath, sharedPath, engine.Target, cross, overrides); err != nil {
		return nil, codegenError("link shared library", err)
	}

	if cross {
		return fromPartsCrossCompiled(metadata, sharedPath)
	}

	lib, err := nativelib.Open(sharedPath)
	if err != nil {
		return nil, codegenError("open compiled library", err)
	}
	return fromParts(engine, metadata, sharedPath, lib)
}

// modulePrefix derives a short, stable per-module symbol prefix from the
// raw WebAssembly bytes, the way the engine's own prefix hasher does (the
// exact hash is an implementation detail — any short deterministic string
// keeps symbol names collision-free across modules loaded into the same
// process).
func modulePrefix(wasmBytes []byte) string {
	h := fnv.New32a()
	h.Write(wasmBytes)
	return fmt.Sprintf("%08x", h.Sum32())
}

func sortedIntKeys(m map[int]CustomSection) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedLocalFuncKeys(m map[LocalFunctionIndex]FunctionBody) []LocalFunctionIndex {
	keys := make([]LocalFunctionIndex, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedSigKeys(m map[SignatureIndex]FunctionBody) []SignatureIndex {
	keys := make([]SignatureIndex, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedFuncKeys(m map[FunctionIndex]FunctionBody) []FunctionIndex {
	keys := make([]FunctionIndex, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// addRelocations applies every function and custom-section relocation
// against the symbols objwriter has already laid out. JumpTable
// relocations are silently skipped, matching the original engine (they
// were never implemented there either).
func addRelocations(obj *objwriter.Object, metadata *ModuleMetadata, compilation *CompilationResult) error {
	apply := func(ownerSymbol string, relocs []Relocation) error {
		for _, r := range relocs {
			var targetSymbol string
			switch r.RelocTarget.Kind {
			case RelocationLocalFunc:
				targetSymbol = metadata.FunctionSymbol(r.RelocTarget.LocalFuncIdx)
			case RelocationLibCall:
				targetSymbol = r.RelocTarget.LibCallName
			case RelocationCustomSection:
				targetSymbol = metadata.SectionSymbol(r.RelocTarget.SectionIdx)
			case RelocationJumpTable:
				continue
			default:
				return codegenErrorf("unknown relocation target kind %d", r.RelocTarget.Kind)
			}
			if err := obj.AddRelocation(ownerSymbol, r.Offset, targetSymbol, r.Addend); err != nil {
				return codegenError("add relocation", err)
			}
		}
		return nil
	}

	for _, idx := range sortedLocalFuncKeys(compilation.FunctionBodies) {
		if err := apply(metadata.FunctionSymbol(idx), compilation.Relocations[idx]); err != nil {
			return err
		}
	}
	for _, idx := range sortedIntKeys(compilation.CustomSections) {
		if err := apply(metadata.SectionSymbol(idx), compilation.CustomSectionRelocations[idx]); err != nil {
			return err
		}
	}
	return nil
}
