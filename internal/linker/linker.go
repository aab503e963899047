// Package linker drives an external C compiler toolchain as the engine's
// linker, exactly as spec.md section 4.4 describes: this engine never links
// objects itself, it shells out to a host compiler driver the way the
// teacher's own cli.go shells out to external tools (its test subcommand
// invokes go test; here the invoked tool is gcc/clang-10).
package linker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/xyproto/nativewasm/internal/target"
)

const (
	defaultNativeLinker = "gcc"
	defaultCrossLinker  = "clang-10"
)

// Overrides lets a caller substitute the linker program normally picked by
// OS/cross-compilation status (nativewasm.LinkerOverride/CrossLinkerOverride
// wire these from NATIVEWASM_LINKER/NATIVEWASM_CROSS_LINKER).
type Overrides struct {
	Native string
	Cross  string
}

func (o Overrides) native() string {
	if o.Native != "" {
		return o.Native
	}
	return defaultNativeLinker
}

func (o Overrides) cross() string {
	if o.Cross != "" {
		return o.Cross
	}
	return defaultCrossLinker
}

// Link invokes the appropriate compiler driver to turn objPath (a
// relocatable object written by internal/objwriter) into a shared library
// at outPath, per the flag sets in spec.md section 4.4.
func Link(ctx context.Context, objPath, outPath string, t target.Triple, cross bool, overrides Overrides) error {
	program := overrides.native()
	if cross {
		program = overrides.cross()
	}

	args := []string{objPath, "-o", outPath, "-shared", "-v"}

	switch t.OS {
	case target.OSWindows:
		if cross {
			args = append(args, "-Wl,/force:unresolved")
		} else {
			args = append(args, "-Wl,-undefined,dynamic_lookup")
		}
	default:
		args = append(args, "-nostartfiles", "-Wl,-undefined,dynamic_lookup")
	}

	if cross {
		args = append(args,
			fmt.Sprintf("--target=%s", t.String()),
			"-fuse-ld=lld",
			"-nodefaultlibs",
			"-nostdlib",
		)
	}

	cmd := exec.CommandContext(ctx, program, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("link with %s: %w: %s", program, err, trim(stdout.String()+stderr.String()))
	}
	return nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
