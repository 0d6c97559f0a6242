package encoding

import (
	"math"
	"testing"
)

func TestFloat32Bytes_PreservesBitPatterns(t *testing.T) {
	negZero := float32(math.Copysign(0, -1))
	nan := math.Float32frombits(0x7fc00123)
	in := []float32{0, negZero, 0.2, 1, nan, float32(math.Inf(-1))}

	out, err := BytesToFloat32s(Float32sToBytes(in))
	if err != nil {
		t.Fatalf("BytesToFloat32s: %v", err)
	}
	for i := range in {
		if math.Float32bits(out[i]) != math.Float32bits(in[i]) {
			t.Fatalf("bit mismatch at %d: got %08x want %08x", i, math.Float32bits(out[i]), math.Float32bits(in[i]))
		}
	}
	if _, err := BytesToFloat32s([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error on ragged payload")
	}
}

func TestXORBits_SelfInverse(t *testing.T) {
	before := []float32{0.2, 0.5, float32(math.Copysign(0, -1))}
	after := []float32{0.7, 0.5, 0}

	delta, err := XORBits(after, before)
	if err != nil {
		t.Fatalf("XORBits: %v", err)
	}
	cur := append([]float32(nil), after...)
	if err := ApplyXOR(cur, delta); err != nil {
		t.Fatalf("ApplyXOR: %v", err)
	}
	for i := range before {
		if math.Float32bits(cur[i]) != math.Float32bits(before[i]) {
			t.Fatalf("restore mismatch at %d", i)
		}
	}
	if err := ApplyXOR(cur[:1], delta); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestCompressRoundTrip(t *testing.T) {
	in := Float32sToBytes(make([]float32, 129*129))
	c, err := Compress(in)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(c) >= len(in) {
		t.Fatalf("expected zero buffer to compress: %d >= %d", len(c), len(in))
	}
	out, err := Decompress(c)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d want %d", len(out), len(in))
	}
	if _, err := Decompress([]byte("not zstd")); err == nil {
		t.Fatalf("expected error decoding garbage")
	}
}
