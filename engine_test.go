package nativewasm

import (
	"testing"

	"github.com/xyproto/nativewasm/internal/target"
)

func TestNewEngineTargetsRequestedTriple(t *testing.T) {
	triple := target.NewTriple(target.ArchARM64, target.OSLinux)
	engine := NewEngine(triple)
	if engine.Target != triple {
		t.Errorf("Target = %v, want %v", engine.Target, triple)
	}
}

func TestHostEngineTargetsHostTriple(t *testing.T) {
	engine := HostEngine()
	if engine.Target != target.HostTriple() {
		t.Errorf("Target = %v, want host triple %v", engine.Target, target.HostTriple())
	}
}

func TestRegistryAdapterIsIdempotent(t *testing.T) {
	engine := NewEngine(target.HostTriple())
	sig := FunctionType{Params: []byte{0x7f}, Results: []byte{0x7e}}

	first := engine.Signatures.Register(sig)
	second := engine.Signatures.Register(sig)
	if first != second {
		t.Errorf("Register is not idempotent: got %d then %d for the same signature", first, second)
	}

	other := FunctionType{Params: []byte{0x7d}}
	if third := engine.Signatures.Register(other); third == first {
		t.Errorf("Register assigned the same index %d to two different signatures", first)
	}
}

func TestTableAdapterRoundTrips(t *testing.T) {
	engine := NewEngine(target.HostTriple())
	sig := FunctionType{Results: []byte{0x7f}}

	if _, ok := engine.Trampolines.Trampoline(sig); ok {
		t.Fatal("Trampoline: found an entry before any AddTrampoline call")
	}

	engine.Trampolines.AddTrampoline(sig, VMTrampoline(0x1000))
	got, ok := engine.Trampolines.Trampoline(sig)
	if !ok {
		t.Fatal("Trampoline: want entry after AddTrampoline, found none")
	}
	if got != VMTrampoline(0x1000) {
		t.Errorf("Trampoline = %#x, want %#x", got, 0x1000)
	}
}

func TestTwoEnginesShareTheDefaultSignatureRegistry(t *testing.T) {
	a := NewEngine(target.HostTriple())
	b := NewEngine(target.HostTriple())
	sig := FunctionType{Params: []byte{0x7c, 0x7c}, Results: []byte{0x7c}}

	idxA := a.Signatures.Register(sig)
	idxB := b.Signatures.Register(sig)
	if idxA != idxB {
		t.Errorf("two engines disagree on the shared registry's index for the same signature: %d vs %d", idxA, idxB)
	}
}
