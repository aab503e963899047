// Package objwriter builds an in-memory relocatable object file (ELF,
// Mach-O or PE-COFF) from a set of named symbols and relocations against
// them. It is the Go-native analogue of what the original engine used
// Rust's `object` crate for: no comparable write-capable object-file
// library exists in the Go ecosystem (the standard library's debug/elf,
// debug/macho and debug/pe packages are read-only), so construction is
// hand-rolled the same way the teacher's own ELF/Mach-O/PE executable
// writers are (see codegen_elf_writer.go, macho.go, pe.go in the retrieval
// pack this engine was grounded on), generalized from "emit one fixed
// executable" to "emit a relocatable object with an arbitrary symbol and
// relocation set".
package objwriter

import (
	"fmt"

	"github.com/xyproto/nativewasm/internal/target"
)

// Protection mirrors spec.md's CustomSectionProtection: whether a custom
// section should be mapped executable or read-only once loaded.
type Protection int

const (
	ReadExecute Protection = iota
	ReadOnly
)

// symbolKind distinguishes how a symbol's bytes are classified in the
// emitted object. It does not necessarily match which section the bytes
// physically land in — see the ReadOnly quirk below.
type symbolKind int

const (
	kindText symbolKind = iota
	kindData
	kindUnknown // undefined external symbol (libcalls)
)

type symbol struct {
	name   string
	kind   symbolKind
	data   []byte // nil for undefined (kindUnknown) symbols
	offset uint64 // offset within its owning section, assigned on add
}

// relocation is one fixup recorded against the text section, expressed as
// an absolute offset from the start of the text blob.
type relocation struct {
	offset     uint64
	targetName string
	addend     int64
}

// Object accumulates symbols and relocations for one compiled module and
// knows how to serialize itself into a target-appropriate relocatable
// object file.
type Object struct {
	triple target.Triple

	order   []string // symbol insertion order, preserved in the output
	symbols map[string]*symbol

	textBuf []byte
	dataBuf []byte

	relocations []relocation
}

// New validates the target triple against the set of binary
// formats/architectures this writer supports and returns an empty Object
// for it. The error messages match spec.md section 4.3 step 1 exactly,
// since callers surface them verbatim as CompileError.Codegen.
func New(triple target.Triple) (*Object, error) {
	switch triple.Format() {
	case target.FormatELF, target.FormatMachO, target.FormatCOFF:
	default:
		return nil, fmt.Errorf("Binary format %s not supported", triple.Format())
	}
	switch triple.Arch {
	case target.ArchX86_64, target.ArchARM64:
	default:
		return nil, fmt.Errorf("Architecture %s not supported", triple.Arch)
	}
	if _, err := triple.Endianness(); err != nil {
		return nil, fmt.Errorf("Can't detect endianness")
	}
	return &Object{
		triple:  triple,
		symbols: make(map[string]*symbol),
	}, nil
}

// addSymbol reserves a symbol slot (step one of the original engine's
// two-step add_symbol / add_symbol_data) and immediately binds it to data,
// since this writer never needs the split the original kept for the
// metadata placeholder.
func (o *Object) addSymbol(name string, kind symbolKind, data []byte) {
	s := &symbol{name: name, kind: kind, data: data}
	switch kind {
	case kindText:
		s.offset = uint64(len(o.textBuf))
		o.textBuf = append(o.textBuf, data...)
	case kindData:
		s.offset = uint64(len(o.dataBuf))
		o.dataBuf = append(o.dataBuf, data...)
	case kindUnknown:
		// undefined: no bytes, no section offset
	}
	o.symbols[name] = s
	o.order = append(o.order, name)
}

// AddMetadata emits the WASMER_METADATA symbol: a Data symbol in the
// object's data section whose contents are exactly the caller-supplied
// blob (the 10-byte length prefix followed by the encoded ModuleMetadata).
func (o *Object) AddMetadata(name string, blob []byte) {
	o.addSymbol(name, kindData, blob)
}

// AddFunctionBody emits a function body, call trampoline, or dynamic
// trampoline as a Text symbol — all three are indistinguishable at the
// object-file level, differing only in the deterministic name the caller
// derives from ModuleMetadata.
func (o *Object) AddFunctionBody(name string, code []byte) {
	o.addSymbol(name, kindText, code)
}

// AddCustomSection emits a compiler-produced custom section. Read-execute
// sections are ordinary Text symbols. Read-only sections are, per the
// documented quirk in spec.md section 9, *also* placed in the text section
// — only their symbol kind says Data. This is preserved rather than fixed:
// the loader never inspects symbol kind, only symbol presence, so the
// quirk is harmless but deliberately not "corrected" here.
func (o *Object) AddCustomSection(name string, protection Protection, data []byte) {
	kind := kindText
	if protection == ReadOnly {
		kind = kindData
	}
	s := &symbol{name: name, kind: kind, data: data}
	s.offset = uint64(len(o.textBuf))
	o.textBuf = append(o.textBuf, data...)
	o.symbols[name] = s
	o.order = append(o.order, name)
}

// HasSymbol reports whether name has already been added.
func (o *Object) HasSymbol(name string) bool {
	_, ok := o.symbols[name]
	return ok
}

// AddRelocation records a fixup at offset bytes into owningSymbol's code,
// targeting targetSymbol. If targetSymbol hasn't been added yet it is
// created lazily as an undefined (kindUnknown) symbol — this is how
// LibCall relocations pick up their target the first time they're
// referenced (spec.md section 4.3 step 5), the host dynamic linker
// resolves it at shared-library load time.
func (o *Object) AddRelocation(owningSymbol string, offset uint64, targetSymbol string, addend int64) error {
	owner, ok := o.symbols[owningSymbol]
	if !ok {
		return fmt.Errorf("relocation against unknown owning symbol %q", owningSymbol)
	}
	if !o.HasSymbol(targetSymbol) {
		o.addSymbol(targetSymbol, kindUnknown, nil)
	}
	o.relocations = append(o.relocations, relocation{
		offset:     owner.offset + offset,
		targetName: targetSymbol,
		addend:     addend,
	})
	return nil
}

// Write serializes the accumulated symbols and relocations into a
// relocatable object file for the Object's target triple.
func (o *Object) Write() ([]byte, error) {
	switch o.triple.Format() {
	case target.FormatELF:
		return o.writeELF()
	case target.FormatMachO:
		return o.writeMachO()
	case target.FormatCOFF:
		return o.writeCOFF()
	default:
		return nil, fmt.Errorf("binary format %s not supported", o.triple.Format())
	}
}
