package target

import "testing"

func TestHostTripleIsSelfCompatible(t *testing.T) {
	host := HostTriple()
	if IsCrossCompiling(host, host) {
		t.Errorf("IsCrossCompiling(host, host) = true, want false")
	}
}

func TestIsCrossCompilingDiffersOnArchOrOS(t *testing.T) {
	a := NewTriple(ArchX86_64, OSLinux)
	b := NewTriple(ArchARM64, OSLinux)
	if !IsCrossCompiling(a, b) {
		t.Errorf("IsCrossCompiling(%v, %v) = false, want true", a, b)
	}

	c := NewTriple(ArchX86_64, OSDarwin)
	if !IsCrossCompiling(a, c) {
		t.Errorf("IsCrossCompiling(%v, %v) = false, want true", a, c)
	}

	d := NewTriple(ArchX86_64, OSLinux)
	if IsCrossCompiling(a, d) {
		t.Errorf("IsCrossCompiling(%v, %v) = true, want false", a, d)
	}
}

func TestFormatPerOS(t *testing.T) {
	cases := []struct {
		os   OS
		want BinaryFormat
	}{
		{OSLinux, FormatELF},
		{OSDarwin, FormatMachO},
		{OSWindows, FormatCOFF},
		{OSUnknown, FormatUnknown},
	}
	for _, c := range cases {
		tr := NewTriple(ArchX86_64, c.os)
		if got := tr.Format(); got != c.want {
			t.Errorf("Triple{OS: %v}.Format() = %v, want %v", c.os, got, c.want)
		}
	}
}

func TestDefaultExtensionPerOS(t *testing.T) {
	cases := []struct {
		os   OS
		want string
	}{
		{OSWindows, "dll"},
		{OSDarwin, "dylib"},
		{OSLinux, "so"},
	}
	for _, c := range cases {
		tr := NewTriple(ArchX86_64, c.os)
		if got := tr.DefaultExtension(); got != c.want {
			t.Errorf("Triple{OS: %v}.DefaultExtension() = %q, want %q", c.os, got, c.want)
		}
	}
}

func TestEndiannessRejectsUnknownArch(t *testing.T) {
	if _, err := NewTriple(ArchX86_64, OSLinux).Endianness(); err != nil {
		t.Errorf("Endianness for x86_64: %v", err)
	}
	if _, err := NewTriple(ArchARM64, OSLinux).Endianness(); err != nil {
		t.Errorf("Endianness for aarch64: %v", err)
	}
	if _, err := NewTriple(ArchUnknown, OSLinux).Endianness(); err == nil {
		t.Error("Endianness for ArchUnknown: want error, got nil")
	}
}

func TestIsDeserializableMatchesHostMagicOnly(t *testing.T) {
	if IsDeserializable([]byte{0, 1, 2, 3, 4}) {
		t.Error("IsDeserializable: arbitrary bytes matched host magic")
	}
	if IsDeserializable(nil) {
		t.Error("IsDeserializable(nil) = true, want false")
	}

	magic := hostMagic()
	if len(magic) == 0 {
		t.Skip("host OS not recognized by this package, nothing to assert")
	}
	if !IsDeserializable(magic) {
		t.Errorf("IsDeserializable(%v) = false, want true for this host's own magic", magic)
	}
}

func TestTripleStringIsCompilerTargetShaped(t *testing.T) {
	tr := NewTriple(ArchX86_64, OSLinux)
	if got, want := tr.String(), "x86_64-linux"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
