//go:build (linux || darwin) && cgo

package nativelib

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// unixLibrary wraps a dlopen handle. Generalized from the one-fixed-path
// cgo shim this package is grounded on: the path is caller-supplied (the
// shared object this engine's own linker step just produced), not a
// hard-coded system library.
type unixLibrary struct {
	handle unsafe.Pointer
}

// Open dlopen()s path with RTLD_NOW so every symbol is resolved eagerly —
// a bad relocation surfaces here rather than on first call through a
// trampoline.
func Open(path string) (NativeLibrary, error) {
	// dlopen's own error strings rarely name the path when the problem is
	// simply "file doesn't exist" or "not readable"; checking access up
	// front gives a clearer error than whatever dlerror() would otherwise
	// produce.
	if err := unix.Access(path, unix.R_OK); err != nil {
		return nil, &OpenError{Path: path, Err: fmt.Errorf("access %s: %w", path, err)}
	}

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.dlopen(cpath, C.RTLD_NOW)
	if handle == nil {
		errmsg := C.GoString(C.dlerror())
		return nil, &OpenError{Path: path, Err: fmt.Errorf("%s", errmsg)}
	}
	return &unixLibrary{handle: handle}, nil
}

func (l *unixLibrary) Lookup(name string) (uintptr, error) {
	if l.handle == nil {
		return 0, fmt.Errorf("library already closed")
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror() // clear any pending error
	sym := C.dlsym(l.handle, cname)
	if sym == nil {
		if errmsg := C.dlerror(); errmsg != nil {
			return 0, fmt.Errorf("symbol %q not found: %s", name, C.GoString(errmsg))
		}
	}
	return uintptr(sym), nil
}

func (l *unixLibrary) ReadBytesAt(addr uintptr, n int) ([]byte, error) {
	return readBytesAt(addr, n)
}

func (l *unixLibrary) Close() error {
	if l.handle == nil {
		return nil
	}
	if C.dlclose(l.handle) != 0 {
		errmsg := C.GoString(C.dlerror())
		l.handle = nil
		return fmt.Errorf("dlclose: %s", errmsg)
	}
	l.handle = nil
	return nil
}
