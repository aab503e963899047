package nativewasm

import "testing"

func TestSymbolNamesAreDeterministic(t *testing.T) {
	m := &ModuleMetadata{Prefix: "abc123"}

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"function", m.FunctionSymbol(2), "wasm_function_abc123_2"},
		{"trampoline", m.TrampolineSymbol(1), "wasm_trampoline_abc123_1"},
		{"dynamic trampoline", m.DynamicTrampolineSymbol(0), "wasm_dyn_trampoline_abc123_0"},
		{"section", m.SectionSymbol(3), "wasm_section_abc123_3"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s symbol = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestModuleMetadataEncodeDecodeRoundTrip(t *testing.T) {
	original := &ModuleMetadata{
		Prefix: "deadbeef",
		CompileInfo: CompileModuleInfo{
			Module: &ModuleInfo{
				Name:             "roundtrip",
				Signatures:       []FunctionType{{Results: []byte{0x7f}}},
				NumImportedFuncs: 1,
				Functions:        []SignatureIndex{0},
			},
			Features: Features{Flags: map[string]bool{"bulk-memory": true}},
		},
		DataInitializers: []DataInitializer{
			{MemoryIndex: 0, Offset: []byte{0x41, 0x00, 0x0b}, Data: []byte{1, 2, 3}},
		},
		FunctionBodyLengths: map[LocalFunctionIndex]uint64{0: 6},
	}

	blob, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodeModuleMetadata(blob)
	if err != nil {
		t.Fatalf("DecodeModuleMetadata: %v", err)
	}

	if decoded.Prefix != original.Prefix {
		t.Errorf("Prefix = %q, want %q", decoded.Prefix, original.Prefix)
	}
	if decoded.CompileInfo.Module.Name != "roundtrip" {
		t.Errorf("Module.Name = %q, want %q", decoded.CompileInfo.Module.Name, "roundtrip")
	}
	if !decoded.CompileInfo.Features.Flags["bulk-memory"] {
		t.Error("Features.Flags[\"bulk-memory\"] lost across encode/decode")
	}
	if len(decoded.DataInitializers) != 1 || decoded.DataInitializers[0].Data[2] != 3 {
		t.Errorf("DataInitializers mismatch: %+v", decoded.DataInitializers)
	}
	if decoded.FunctionBodyLengths[0] != 6 {
		t.Errorf("FunctionBodyLengths[0] = %d, want 6", decoded.FunctionBodyLengths[0])
	}
}

func TestDecodeModuleMetadataRejectsTruncatedBlob(t *testing.T) {
	if _, err := DecodeModuleMetadata([]byte{1, 2, 3}); err == nil {
		t.Fatal("DecodeModuleMetadata: want error for a blob shorter than the length prefix, got nil")
	}
}
