package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float32sToBytes packs values as little-endian IEEE-754 bit patterns.
func Float32sToBytes(vals []float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// BytesToFloat32s is the inverse of Float32sToBytes. Bit patterns (NaN
// payloads, signed zeros) are preserved exactly.
func BytesToFloat32s(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("float32 payload length %d not a multiple of 4", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}

// XORBits returns the little-endian bytes of bits(a[i]) ^ bits(b[i]).
func XORBits(a, b []float32) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("xor length mismatch: %d vs %d", len(a), len(b))
	}
	out := make([]byte, 4*len(a))
	for i := range a {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(a[i])^math.Float32bits(b[i]))
	}
	return out, nil
}

// ApplyXOR xors a delta produced by XORBits into vals in place.
func ApplyXOR(vals []float32, delta []byte) error {
	if len(delta) != 4*len(vals) {
		return fmt.Errorf("xor delta length %d does not match %d values", len(delta), len(vals))
	}
	for i := range vals {
		bits := math.Float32bits(vals[i]) ^ binary.LittleEndian.Uint32(delta[4*i:])
		vals[i] = math.Float32frombits(bits)
	}
	return nil
}
