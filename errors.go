package nativewasm

import "fmt"

// CompileErrorKind distinguishes the two ways compilation can fail.
type CompileErrorKind int

const (
	// CompileErrorWasm means the WebAssembly decoder/translator rejected
	// the input before the engine ever touched it.
	CompileErrorWasm CompileErrorKind = iota
	// CompileErrorCodegen covers everything from an unsupported target
	// triple through a failed linker subprocess to a missing symbol
	// during hydration.
	CompileErrorCodegen
)

// CompileError is returned whenever Compile fails.
type CompileError struct {
	Kind CompileErrorKind
	Msg  string
	Err  error
}

func (e *CompileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *CompileError) Unwrap() error { return e.Err }

func wasmError(err error) *CompileError {
	return &CompileError{Kind: CompileErrorWasm, Msg: "wasm translation failed", Err: err}
}

func codegenErrorf(format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: CompileErrorCodegen, Msg: fmt.Sprintf(format, args...)}
}

func codegenError(msg string, err error) *CompileError {
	return &CompileError{Kind: CompileErrorCodegen, Msg: msg, Err: err}
}

// DeserializeErrorKind distinguishes the ways deserialization can fail.
type DeserializeErrorKind int

const (
	// DeserializeIncompatible means the leading magic bytes didn't match
	// the host's expected format.
	DeserializeIncompatible DeserializeErrorKind = iota
	// DeserializeCorruptedBinary means the input file could not be
	// written, read or opened as a library, or the library opened but its
	// metadata symbol, length prefix, or payload could not be read.
	DeserializeCorruptedBinary
	// DeserializeCompiler means hydration failed after the library was
	// already open and the metadata already decoded (shares CompileError
	// with the compile path).
	DeserializeCompiler
)

// DeserializeError is returned whenever Deserialize* fails.
type DeserializeError struct {
	Kind DeserializeErrorKind
	Msg  string
	Err  error
}

func (e *DeserializeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DeserializeError) Unwrap() error { return e.Err }

func incompatibleError(msg string) *DeserializeError {
	return &DeserializeError{Kind: DeserializeIncompatible, Msg: msg}
}

func corruptedBinaryError(msg string, err error) *DeserializeError {
	return &DeserializeError{Kind: DeserializeCorruptedBinary, Msg: msg, Err: err}
}

func compilerDeserializeError(err *CompileError) *DeserializeError {
	return &DeserializeError{Kind: DeserializeCompiler, Msg: "hydration failed", Err: err}
}

// InstantiationError is returned by Artifact.Preinstantiate.
type InstantiationError struct {
	Msg string
}

func (e *InstantiationError) Error() string { return e.Msg }

func linkTrapError(msg string) *InstantiationError {
	return &InstantiationError{Msg: msg}
}
