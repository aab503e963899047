// Package nativelib loads a freshly-linked shared library back into the
// current process and resolves exported symbols to raw addresses — the
// "Loader / hydrator" half of spec.md section 4.5. There is no pure-Go,
// cross-platform dlopen library in the retrieval pack (or, so far as this
// engine's author could tell, the wider ecosystem); the unix implementation
// is grounded on the one genuine cgo dlopen/dlsym/dlclose shim found there
// (blacktop/go-macho's pkg/swift/engine_darwin.go, generalized from loading
// one fixed Swift runtime library to loading an arbitrary compiled object).
// Windows needs no cgo: golang.org/x/sys/windows — already part of the
// dependency stack this engine inherited — wraps LoadLibrary/GetProcAddress
// directly.
package nativelib

import "unsafe"

// NativeLibrary is a shared library opened into the current process.
type NativeLibrary interface {
	// Lookup resolves name to its address in the library's own address
	// space. It returns an error the caller should surface as a Codegen
	// error naming the missing symbol (spec.md section 4.5 step 2/3).
	Lookup(name string) (uintptr, error)
	// ReadBytesAt copies n bytes starting at a live address in this
	// process's own address space (typically one Lookup just returned) —
	// used to read the WASMER_METADATA blob directly rather than through a
	// typed symbol, the same way the engine this was grounded on
	// dereferences a dlsym'd pointer by hand.
	ReadBytesAt(addr uintptr, n int) ([]byte, error)
	// Close unloads the library. Safe to call more than once.
	Close() error
}

// readBytesAt is shared by every platform implementation: once dlopen or
// LoadLibrary has mapped a library into this process, any address it hands
// back already lives in this process's own address space, so reading it is
// a plain unsafe slice conversion — no further syscall needed on any
// platform.
func readBytesAt(addr uintptr, n int) ([]byte, error) {
	if addr == 0 {
		return nil, errNilAddress
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
	return out, nil
}

// OpenError distinguishes "library failed to load at all" (CorruptedBinary,
// per spec.md section 4.5 step 1) from anything that happens afterward.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return "Library loading failed: " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }

var errNilAddress = &nilAddressError{}

type nilAddressError struct{}

func (*nilAddressError) Error() string { return "nil address" }
