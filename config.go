package nativewasm

import "github.com/xyproto/env/v2"

// Verbose is a package-level verbosity switch, mirroring the teacher's own
// package-level VerboseMode switch (main.go). It defaults to false and is
// seeded once from NATIVEWASM_VERBOSE at package init, but callers may also
// flip it directly (e.g. from a -v flag in their own CLI). Nothing in this
// module reads it: the package writes no stderr trace output whatever
// its value.
var Verbose = env.Bool("NATIVEWASM_VERBOSE")

// LinkerOverride, if set, replaces the default native linker program ("gcc").
func LinkerOverride() string {
	return env.Str("NATIVEWASM_LINKER", "")
}

// CrossLinkerOverride, if set, replaces the default cross-compilation linker
// program ("clang-10").
func CrossLinkerOverride() string {
	return env.Str("NATIVEWASM_CROSS_LINKER", "")
}
