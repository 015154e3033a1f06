package vector

import "testing"

func TestEncodeDecodeEmbedding_RoundTrip(t *testing.T) {
	orig := []float32{0.0, 1.5, -2.25, 3.75}

	decoded, err := DecodeEmbedding(EncodeEmbedding(orig))
	if err != nil {
		t.Fatalf("DecodeEmbedding failed: %v", err)
	}
	if len(decoded) != len(orig) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(orig))
	}
	for i := range orig {
		if got, want := decoded[i], orig[i]; got != want {
			t.Fatalf("decoded[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestDecodeEmbedding_Invalid(t *testing.T) {
	if _, err := DecodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for 3-byte blob")
	}
	vec, err := DecodeEmbedding(nil)
	if err != nil || len(vec) != 0 {
		t.Fatalf("DecodeEmbedding(nil) = %v, %v; want empty, nil", vec, err)
	}
}
