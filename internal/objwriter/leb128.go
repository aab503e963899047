package objwriter

import "fmt"

// metadataLengthPrefixSize is the fixed width of the length prefix that
// precedes the serialized ModuleMetadata blob inside the WASMER_METADATA
// symbol. It is always exactly this many bytes regardless of how small the
// LEB128-encoded length actually is, so a loader can read it without first
// knowing the metadata's length (spec.md section 4.2).
const metadataLengthPrefixSize = 10

// EncodeMetadataLength encodes n as unsigned LEB128, forcing every byte
// except the last of the fixed-width prefix to carry its continuation bit
// — even once n's significant bits are exhausted — so the prefix always
// occupies exactly metadataLengthPrefixSize bytes regardless of n's
// magnitude, and a loader can always read a fixed 10 bytes before decoding.
func EncodeMetadataLength(n uint64) [metadataLengthPrefixSize]byte {
	var out [metadataLengthPrefixSize]byte
	for i := 0; i < metadataLengthPrefixSize; i++ {
		b := byte(n & 0x7f)
		n >>= 7
		if i != metadataLengthPrefixSize-1 {
			b |= 0x80
		}
		out[i] = b
	}
	return out
}

// DecodeMetadataLength reads an unsigned LEB128 value from the fixed-width
// prefix. It returns an error if a continuation bit is still set on the
// final byte, which can only happen if the prefix was corrupted (the value
// it originally encoded no longer fits the fixed width) — the corrupted-
// metadata scenario.
func DecodeMetadataLength(prefix [metadataLengthPrefixSize]byte) (uint64, error) {
	var result uint64
	var shift uint
	for i, b := range prefix {
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		if i == metadataLengthPrefixSize-1 {
			return 0, fmt.Errorf("unsigned LEB128 length prefix never terminated within %d bytes", metadataLengthPrefixSize)
		}
		shift += 7
	}
	return 0, fmt.Errorf("unsigned LEB128 length prefix never terminated within %d bytes", metadataLengthPrefixSize)
}
