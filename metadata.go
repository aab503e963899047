package nativewasm

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/xyproto/nativewasm/internal/objwriter"
)

// MetadataSymbolName is the fixed exported symbol name every artifact's
// metadata blob is stored under (spec.md section 3).
const MetadataSymbolName = "WASMER_METADATA"

// ModuleMetadata is the only state persisted into the compiled object: the
// module's compile-time description plus just enough bookkeeping (prefix,
// data initializers, function body lengths) for a loader to rehydrate an
// Artifact from nothing but this blob and a shared library.
type ModuleMetadata struct {
	CompileInfo         CompileModuleInfo
	Prefix              string
	DataInitializers    []DataInitializer
	FunctionBodyLengths map[LocalFunctionIndex]uint64
}

// FunctionSymbol derives the exported symbol name for a local function
// body: deterministic given (prefix, index), so a loader can reconstruct
// it from metadata alone.
func (m *ModuleMetadata) FunctionSymbol(idx LocalFunctionIndex) string {
	return fmt.Sprintf("wasm_function_%s_%d", m.Prefix, idx)
}

// TrampolineSymbol derives the exported symbol name for a signature's call
// trampoline.
func (m *ModuleMetadata) TrampolineSymbol(idx SignatureIndex) string {
	return fmt.Sprintf("wasm_trampoline_%s_%d", m.Prefix, idx)
}

// DynamicTrampolineSymbol derives the exported symbol name for an imported
// function's dynamic-call trampoline.
func (m *ModuleMetadata) DynamicTrampolineSymbol(idx FunctionIndex) string {
	return fmt.Sprintf("wasm_dyn_trampoline_%s_%d", m.Prefix, idx)
}

// SectionSymbol derives the exported symbol name for a custom section.
func (m *ModuleMetadata) SectionSymbol(idx int) string {
	return fmt.Sprintf("wasm_section_%s_%d", m.Prefix, idx)
}

// Encode serializes the metadata with gob (a stable, self-describing
// format built into the standard library — any compact self-describing
// codec satisfies spec.md section 4.2's requirement) and prepends the
// fixed 10-byte unsigned-LEB128 length prefix the loader expects.
func (m *ModuleMetadata) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("encode module metadata: %w", err)
	}
	payload := buf.Bytes()
	prefix := objwriter.EncodeMetadataLength(uint64(len(payload)))
	out := make([]byte, 0, len(prefix)+len(payload))
	out = append(out, prefix[:]...)
	out = append(out, payload...)
	return out, nil
}

// DecodeModuleMetadata reads the fixed-width length prefix from blob, then
// decodes exactly that many following bytes as a ModuleMetadata. It is the
// counterpart to Encode and to the loader's "read 10, then read N more"
// framing (spec.md section 4.5, deserialize_from_file_unchecked).
func DecodeModuleMetadata(blob []byte) (*ModuleMetadata, error) {
	if len(blob) < 10 {
		return nil, fmt.Errorf("metadata blob shorter than the length prefix (%d bytes)", len(blob))
	}
	var prefix [10]byte
	copy(prefix[:], blob[:10])
	length, err := objwriter.DecodeMetadataLength(prefix)
	if err != nil {
		return nil, err
	}
	if uint64(len(blob)-10) < length {
		return nil, fmt.Errorf("metadata blob truncated: want %d bytes after prefix, have %d", length, len(blob)-10)
	}
	payload := blob[10 : 10+length]
	var m ModuleMetadata
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode module metadata: %w", err)
	}
	return &m, nil
}
