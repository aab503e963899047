package objwriter

import (
	"bytes"
	"debug/macho"
	"testing"

	"github.com/xyproto/nativewasm/internal/target"
)

func TestWriteMachORoundTripsThroughStdlibReader(t *testing.T) {
	tr := target.NewTriple(target.ArchX86_64, target.OSDarwin)
	o, err := New(tr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	code := []byte{0x48, 0x31, 0xc0, 0xc3}
	o.AddFunctionBody("wasm_function_abc_0", code)
	o.AddMetadata("WASMER_METADATA", []byte{10, 0, 0, 0, 0, 0, 0, 0, 0, 0, 9})

	out, err := o.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := macho.NewFile(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("macho.NewFile: %v", err)
	}
	defer f.Close()

	if f.Type != macho.TypeObj {
		t.Errorf("Type = %v, want MH_OBJECT", f.Type)
	}
	if f.Cpu != macho.CpuAmd64 {
		t.Errorf("Cpu = %v, want CpuAmd64", f.Cpu)
	}

	text := f.Section("__text")
	if text == nil {
		t.Fatal("missing __text section")
	}
	gotCode, err := text.Data()
	if err != nil {
		t.Fatalf("__text data: %v", err)
	}
	if !bytes.Equal(gotCode, code) {
		t.Errorf("__text = %v, want %v", gotCode, code)
	}

	if f.Symtab == nil {
		t.Fatal("missing symtab")
	}
	names := map[string]macho.Symbol{}
	for _, s := range f.Symtab.Syms {
		names[s.Name] = s
	}
	if _, ok := names["wasm_function_abc_0"]; !ok {
		t.Error("missing wasm_function_abc_0 symbol")
	}
	if _, ok := names["WASMER_METADATA"]; !ok {
		t.Error("missing WASMER_METADATA symbol")
	}
}

func TestWriteMachOARM64Cpu(t *testing.T) {
	tr := target.NewTriple(target.ArchARM64, target.OSDarwin)
	o, err := New(tr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	o.AddFunctionBody("f", []byte{0, 0, 0, 0})
	out, err := o.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := macho.NewFile(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("macho.NewFile: %v", err)
	}
	defer f.Close()
	if f.Cpu != macho.CpuArm64 {
		t.Errorf("Cpu = %v, want CpuArm64", f.Cpu)
	}
}
