// Package testfixture provides minimal Environment/Compiler/Tunables
// doubles sufficient to drive the compile pipeline end to end in tests,
// without depending on any real WebAssembly decoder or code generator —
// both are external collaborators per spec.md section 1, out of scope for
// this engine to implement or to import for its own test suite.
package testfixture

import "github.com/xyproto/nativewasm"

// i32Const42 is "mov eax, 42; ret" — x86_64 machine code for a function
// that returns the constant 42, used by the ConstantFunction fixture.
var i32Const42 = []byte{0xb8, 0x2a, 0x00, 0x00, 0x00, 0xc3}

// retVoid is "ret" — the trivial trampoline/import body used wherever the
// fixture needs *some* non-empty code but the actual bytes don't matter.
var retVoid = []byte{0xc3}

// Environment is a stub nativewasm.Environment that returns a
// pre-canned ModuleTranslation regardless of the WASM bytes it's given —
// the "WASM bytes" in these fixtures are just a scenario tag.
type Environment struct {
	Translation *nativewasm.ModuleTranslation
	Err         error
}

func (e *Environment) Translate(wasmBytes []byte) (*nativewasm.ModuleTranslation, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Translation, nil
}

// Compiler is a stub nativewasm.Compiler that returns a pre-canned
// CompilationResult.
type Compiler struct {
	Result *nativewasm.CompilationResult
	Err    error
}

func (c *Compiler) CompileModule(info *nativewasm.CompileModuleInfo, bodies []nativewasm.FunctionBodyInput) (*nativewasm.CompilationResult, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Result, nil
}

// Tunables is a stub nativewasm.Tunables that passes memory/table types
// through unchanged, tagging the plan with a fixed style name.
type Tunables struct{}

func (Tunables) MemoryPlan(t nativewasm.MemoryType) nativewasm.MemoryPlan {
	return nativewasm.MemoryPlan{Memory: t, Style: "static"}
}

func (Tunables) TablePlan(t nativewasm.TableType) nativewasm.TablePlan {
	return nativewasm.TablePlan{Table: t}
}

// Empty returns the Environment/Compiler pair for scenario S1: a module
// with no functions, memories, tables or data.
func Empty() (*Environment, *Compiler) {
	env := &Environment{Translation: &nativewasm.ModuleTranslation{
		Module: &nativewasm.ModuleInfo{Name: "empty"},
	}}
	compiler := &Compiler{Result: &nativewasm.CompilationResult{
		FunctionBodies:             map[nativewasm.LocalFunctionIndex]nativewasm.FunctionBody{},
		FunctionCallTrampolines:    map[nativewasm.SignatureIndex]nativewasm.FunctionBody{},
		DynamicFunctionTrampolines: map[nativewasm.FunctionIndex]nativewasm.FunctionBody{},
		CustomSections:             map[int]nativewasm.CustomSection{},
		Relocations:                map[nativewasm.LocalFunctionIndex][]nativewasm.Relocation{},
		CustomSectionRelocations:   map[int][]nativewasm.Relocation{},
	}}
	return env, compiler
}

// ConstantFunction returns the Environment/Compiler pair for scenario S2:
// one local function, signature () -> i32, whose body always computes 42.
func ConstantFunction() (*Environment, *Compiler) {
	sig := nativewasm.FunctionType{Results: []byte{0x7f}} // i32
	module := &nativewasm.ModuleInfo{
		Name:       "constant",
		Signatures: []nativewasm.FunctionType{sig},
		Functions:  []nativewasm.SignatureIndex{0},
	}
	env := &Environment{Translation: &nativewasm.ModuleTranslation{
		Module: module,
		FunctionBodyInputs: []nativewasm.FunctionBodyInput{
			{Index: 0, Bytes: []byte{0x41, 0x2a, 0x0b}}, // i32.const 42; end
		},
	}}
	compiler := &Compiler{Result: &nativewasm.CompilationResult{
		FunctionBodies: map[nativewasm.LocalFunctionIndex]nativewasm.FunctionBody{
			0: {Body: i32Const42},
		},
		FunctionCallTrampolines: map[nativewasm.SignatureIndex]nativewasm.FunctionBody{
			0: {Body: retVoid},
		},
		DynamicFunctionTrampolines: map[nativewasm.FunctionIndex]nativewasm.FunctionBody{},
		CustomSections:             map[int]nativewasm.CustomSection{},
		Relocations:                map[nativewasm.LocalFunctionIndex][]nativewasm.Relocation{},
		CustomSectionRelocations:   map[int][]nativewasm.Relocation{},
	}}
	return env, compiler
}

// ImportedFunction returns the Environment/Compiler pair for scenario S3:
// one imported function and nothing else, exercising the dynamic-function
// trampoline path rather than a local function body.
func ImportedFunction() (*Environment, *Compiler) {
	sig := nativewasm.FunctionType{Params: []byte{0x7f}, Results: []byte{0x7f}}
	module := &nativewasm.ModuleInfo{
		Name:             "imported",
		Signatures:       []nativewasm.FunctionType{sig},
		NumImportedFuncs: 1,
		Functions:        []nativewasm.SignatureIndex{0},
	}
	env := &Environment{Translation: &nativewasm.ModuleTranslation{
		Module: module,
	}}
	compiler := &Compiler{Result: &nativewasm.CompilationResult{
		FunctionBodies:          map[nativewasm.LocalFunctionIndex]nativewasm.FunctionBody{},
		FunctionCallTrampolines: map[nativewasm.SignatureIndex]nativewasm.FunctionBody{0: {Body: retVoid}},
		DynamicFunctionTrampolines: map[nativewasm.FunctionIndex]nativewasm.FunctionBody{
			0: {Body: retVoid},
		},
		CustomSections:           map[int]nativewasm.CustomSection{},
		Relocations:              map[nativewasm.LocalFunctionIndex][]nativewasm.Relocation{},
		CustomSectionRelocations: map[int][]nativewasm.Relocation{},
	}}
	return env, compiler
}
