package objwriter

import (
	"bytes"
	"debug/pe"
	"testing"

	"github.com/xyproto/nativewasm/internal/target"
)

func TestWriteCOFFRoundTripsThroughStdlibReader(t *testing.T) {
	tr := target.NewTriple(target.ArchX86_64, target.OSWindows)
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

	f, err := pe.NewFile(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("pe.NewFile: %v", err)
	}
	defer f.Close()

	if f.Machine != pe.IMAGE_FILE_MACHINE_AMD64 {
		t.Errorf("Machine = %#x, want IMAGE_FILE_MACHINE_AMD64", f.Machine)
	}

	text := f.Section(".text")
	if text == nil {
		t.Fatal("missing .text section")
	}
	gotCode, err := text.Data()
	if err != nil {
		t.Fatalf(".text data: %v", err)
	}
	if !bytes.Equal(gotCode, code) {
		t.Errorf(".text = %v, want %v", gotCode, code)
	}

	names := map[string]*pe.Symbol{}
	for _, s := range f.Symbols {
		names[s.Name] = s
	}
	if _, ok := names["wasm_function_abc_0"]; !ok {
		t.Error("missing wasm_function_abc_0 symbol")
	}
	if _, ok := names["WASMER_METADATA"]; !ok {
		t.Error("missing WASMER_METADATA symbol")
	}
}

func TestWriteCOFFARM64Machine(t *testing.T) {
	tr := target.NewTriple(target.ArchARM64, target.OSWindows)
	o, err := New(tr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	o.AddFunctionBody("f", []byte{0, 0, 0, 0})
	out, err := o.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := pe.NewFile(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("pe.NewFile: %v", err)
	}
	defer f.Close()
	if f.Machine != pe.IMAGE_FILE_MACHINE_ARM64 {
		t.Errorf("Machine = %#x, want IMAGE_FILE_MACHINE_ARM64", f.Machine)
	}
}
