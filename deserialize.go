package nativewasm

import (
	"fmt"
	"os"

	"github.com/xyproto/nativewasm/internal/nativelib"
	"github.com/xyproto/nativewasm/internal/objwriter"
	"github.com/xyproto/nativewasm/internal/target"
)

// Deserialize rehydrates an Artifact from a byte slice produced earlier by
// Artifact.Serialize — dumping it to a temp file first, since the platform
// dynamic loader needs a path, not a buffer.
func Deserialize(engine *Engine, bytes []byte) (*Artifact, error) {
	if !target.IsDeserializable(bytes) {
		return nil, incompatibleError("the provided bytes are not in any native format this engine understands")
	}
	f, err := os.CreateTemp("", "wasmer_native*")
	if err != nil {
		return nil, corruptedBinaryError("create temp file for deserialize", err)
	}
	path := f.Name()
	if _, err := f.Write(bytes); err != nil {
		f.Close()
		return nil, corruptedBinaryError("write temp file for deserialize", err)
	}
	f.Close()
	return deserializeFromFileUnchecked(engine, path)
}

// DeserializeFromFile rehydrates an Artifact from a file path, checking
// only the leading magic bytes before handing off to
// deserializeFromFileUnchecked.
func DeserializeFromFile(engine *Engine, path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, corruptedBinaryError("open file", err)
	}
	defer f.Close()

	var head [5]byte
	if _, err := f.Read(head[:]); err != nil {
		return nil, corruptedBinaryError("read file header", err)
	}
	if !target.IsDeserializable(head[:]) {
		return nil, incompatibleError("the provided bytes are not in any native format this engine understands")
	}
	return deserializeFromFileUnchecked(engine, path)
}

// DeserializeFromFileUnchecked rehydrates an Artifact from a file path
// without checking the magic bytes first — the caller attests the file is
// already known to be a compatible shared library.
func DeserializeFromFileUnchecked(engine *Engine, path string) (*Artifact, error) {
	return deserializeFromFileUnchecked(engine, path)
}

func deserializeFromFileUnchecked(engine *Engine, path string) (*Artifact, error) {
	lib, err := nativelib.Open(path)
	if err != nil {
		return nil, corruptedBinaryError(fmt.Sprintf("library loading failed: %v", err), err)
	}

	addr, err := lib.Lookup(MetadataSymbolName)
	if err != nil {
		lib.Close()
		return nil, corruptedBinaryError("the provided object file doesn't seem to be generated by this engine", err)
	}

	// The metadata symbol's bytes aren't reachable through Lookup alone —
	// Lookup only resolves an address. ReadBytesAt reads raw bytes starting
	// at that address directly, the way the original engine dereferences
	// the dlsym'd pointer by hand.
	prefix, err := lib.ReadBytesAt(addr, 10)
	if err != nil {
		lib.Close()
		return nil, corruptedBinaryError("can't read metadata size", err)
	}
	var prefixArr [10]byte
	copy(prefixArr[:], prefix)

	metadataLen, lenErr := objwriter.DecodeMetadataLength(prefixArr)
	if lenErr != nil {
		lib.Close()
		return nil, corruptedBinaryError("can't read metadata size", lenErr)
	}

	full, err := lib.ReadBytesAt(addr, 10+int(metadataLen))
	if err != nil {
		lib.Close()
		return nil, corruptedBinaryError("can't read metadata payload", err)
	}

	metadata, err := DecodeModuleMetadata(full)
	if err != nil {
		lib.Close()
		return nil, corruptedBinaryError(err.Error(), err)
	}

	artifact, err := fromParts(engine, metadata, path, lib)
	if err != nil {
		lib.Close()
		if ce, ok := err.(*CompileError); ok {
			return nil, compilerDeserializeError(ce)
		}
		return nil, compilerDeserializeError(codegenError("hydrate artifact", err))
	}
	return artifact, nil
}
