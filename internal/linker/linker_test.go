package linker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xyproto/nativewasm/internal/target"
)

// fakeLinker writes its own argv to argFile and exits 0, standing in for
// gcc/clang-10 so these tests can inspect the exact flag set Link builds
// without needing a real toolchain on PATH.
func fakeLinker(t *testing.T, argFile string) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-linker.sh")
	body := "#!/bin/sh\nprintf '%s\\n' \"$@\" > \"" + argFile + "\"\nexit 0\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write fake linker: %v", err)
	}
	return script
}

func TestLinkNativeLinuxFlags(t *testing.T) {
	dir := t.TempDir()
	argFile := filepath.Join(dir, "args.txt")
	script := fakeLinker(t, argFile)

	tr := target.NewTriple(target.ArchX86_64, target.OSLinux)
	err := Link(context.Background(), "in.o", "out.so", tr, false, Overrides{Native: script})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	got, err := os.ReadFile(argFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	args := string(got)
	for _, want := range []string{"in.o", "-o", "out.so", "-shared", "-v", "-nostartfiles", "-Wl,-undefined,dynamic_lookup"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if strings.Contains(args, "--target=") {
		t.Errorf("native link should not pass --target, got %q", args)
	}
}

func TestLinkCrossFlags(t *testing.T) {
	dir := t.TempDir()
	argFile := filepath.Join(dir, "args.txt")
	script := fakeLinker(t, argFile)

	tr := target.NewTriple(target.ArchARM64, target.OSLinux)
	err := Link(context.Background(), "in.o", "out.so", tr, true, Overrides{Cross: script})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	got, _ := os.ReadFile(argFile)
	args := string(got)
	for _, want := range []string{"--target=" + tr.String(), "-fuse-ld=lld", "-nodefaultlibs", "-nostdlib"} {
		if !strings.Contains(args, want) {
			t.Errorf("cross args %q missing %q", args, want)
		}
	}
}

func TestLinkWindowsFlags(t *testing.T) {
	dir := t.TempDir()
	argFile := filepath.Join(dir, "args.txt")
	script := fakeLinker(t, argFile)

	tr := target.NewTriple(target.ArchX86_64, target.OSWindows)
	if err := Link(context.Background(), "in.o", "out.dll", tr, false, Overrides{Native: script}); err != nil {
		t.Fatalf("Link: %v", err)
	}
	got, _ := os.ReadFile(argFile)
	if !strings.Contains(string(got), "-Wl,-undefined,dynamic_lookup") {
		t.Errorf("windows native missing dynamic_lookup flag: %q", got)
	}

	argFile2 := filepath.Join(dir, "args2.txt")
	script2 := fakeLinker(t, argFile2)
	if err := Link(context.Background(), "in.o", "out.dll", tr, true, Overrides{Cross: script2}); err != nil {
		t.Fatalf("Link cross: %v", err)
	}
	got2, _ := os.ReadFile(argFile2)
	if !strings.Contains(string(got2), "/force:unresolved") {
		t.Errorf("windows cross missing force:unresolved flag: %q", got2)
	}
}

func TestLinkFailurePropagatesOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fail-linker.sh")
	body := "#!/bin/sh\necho 'undefined reference to foo' 1>&2\nexit 1\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write fail linker: %v", err)
	}

	tr := target.NewTriple(target.ArchX86_64, target.OSLinux)
	err := Link(context.Background(), "in.o", "out.so", tr, false, Overrides{Native: script})
	if err == nil {
		t.Fatal("expected error from failing linker")
	}
	if !strings.Contains(err.Error(), "undefined reference to foo") {
		t.Errorf("error %q does not embed linker stderr", err)
	}
}
