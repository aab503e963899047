package objwriter

import "testing"

func TestEncodeDecodeMetadataLengthRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40} {
		prefix := EncodeMetadataLength(n)
		if len(prefix) != metadataLengthPrefixSize {
			t.Fatalf("prefix length = %d, want %d", len(prefix), metadataLengthPrefixSize)
		}
		got, err := DecodeMetadataLength(prefix)
		if err != nil {
			t.Fatalf("decode(%d): %v", n, err)
		}
		if got != n {
			t.Errorf("round trip %d -> %v -> %d", n, prefix, got)
		}
	}
}

func TestEncodeMetadataLengthAlwaysFixedWidth(t *testing.T) {
	prefix := EncodeMetadataLength(0)
	for i := 0; i < metadataLengthPrefixSize-1; i++ {
		if prefix[i]&0x80 == 0 {
			t.Errorf("byte %d of zero-length prefix missing continuation bit: %v", i, prefix)
		}
	}
	if prefix[metadataLengthPrefixSize-1]&0x80 != 0 {
		t.Errorf("final byte of prefix must not carry a continuation bit: %v", prefix)
	}
}

func TestDecodeMetadataLengthCorrupted(t *testing.T) {
	var prefix [metadataLengthPrefixSize]byte
	for i := range prefix {
		prefix[i] = 0xff // continuation bit set all the way through
	}
	if _, err := DecodeMetadataLength(prefix); err == nil {
		t.Fatal("expected error decoding a prefix that never terminates")
	}
}
