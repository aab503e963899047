//go:build !windows && !cgo

package nativelib

import "fmt"

// Open is unavailable without cgo on non-Windows hosts: there is no pure-Go
// dlopen in this engine's dependency stack. Builds without cgo can still
// compile and cross-compile artifacts (internal/linker, internal/objwriter)
// — they just can't hydrate a native artifact on this host afterward.
func Open(path string) (NativeLibrary, error) {
	return nil, fmt.Errorf("loading a native library requires cgo on this platform")
}
