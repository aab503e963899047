//go:build windows

package nativelib

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// windowsLibrary wraps an HMODULE. No cgo needed here: golang.org/x/sys
// already carries direct LoadLibrary/GetProcAddress/FreeLibrary bindings.
// The teacher never imports golang.org/x/sys/windows, so this use has no
// teacher precedent.
type windowsLibrary struct {
	handle windows.Handle
}

// Open loads path as a DLL into the current process.
func Open(path string) (NativeLibrary, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return &windowsLibrary{handle: handle}, nil
}

func (l *windowsLibrary) Lookup(name string) (uintptr, error) {
	if l.handle == 0 {
		return 0, fmt.Errorf("library already closed")
	}
	addr, err := windows.GetProcAddress(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("symbol %q not found: %w", name, err)
	}
	return addr, nil
}

func (l *windowsLibrary) ReadBytesAt(addr uintptr, n int) ([]byte, error) {
	return readBytesAt(addr, n)
}

func (l *windowsLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := windows.FreeLibrary(l.handle)
	l.handle = 0
	return err
}
