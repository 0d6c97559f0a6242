package terraindb

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/encoding"
)

func encodeFloats(vals []float32) ([]byte, error) {
	return encoding.Compress(encoding.Float32sToBytes(vals))
}

func decodeFloats(blob []byte, want int, what string) ([]float32, error) {
	raw, err := encoding.Decompress(blob)
	if err != nil {
		return nil, protocol.Wrap(protocol.ErrCorruption, err, "decompress %s", what)
	}
	vals, err := encoding.BytesToFloat32s(raw)
	if err != nil {
		return nil, protocol.Wrap(protocol.ErrCorruption, err, "decode %s", what)
	}
	if len(vals) != want {
		return nil, protocol.Errorf(protocol.ErrCorruption, "%s: %d samples, want %d", what, len(vals), want)
	}
	return vals, nil
}

func encodeBiomes(ids []uint8) ([]byte, error) {
	return encoding.Compress(encoding.EncodeRLE(ids))
}

func decodeBiomes(blob []byte, want int) ([]uint8, error) {
	raw, err := encoding.Decompress(blob)
	if err != nil {
		return nil, protocol.Wrap(protocol.ErrCorruption, err, "decompress biomes")
	}
	ids, err := encoding.DecodeRLE(raw, want)
	if err != nil {
		return nil, protocol.Wrap(protocol.ErrCorruption, err, "decode biomes")
	}
	if len(ids) != want {
		return nil, protocol.Errorf(protocol.ErrCorruption, "biomes: %d ids, want %d", len(ids), want)
	}
	return ids, nil
}

// encodePath writes a uvarint point count followed by LE float32 x,z pairs.
func encodePath(path []mgl32.Vec2) []byte {
	out := binary.AppendUvarint(make([]byte, 0, binary.MaxVarintLen64+8*len(path)), uint64(len(path)))
	for _, p := range path {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(p.X()))
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(p.Y()))
	}
	return out
}

func decodePath(blob []byte) ([]mgl32.Vec2, error) {
	n, k := binary.Uvarint(blob)
	if k <= 0 {
		return nil, protocol.Errorf(protocol.ErrCorruption, "river path: bad point count")
	}
	rest := blob[k:]
	if n > uint64(len(rest))/8 || uint64(len(rest)) != n*8 {
		return nil, protocol.Errorf(protocol.ErrCorruption, "river path: %d bytes for %d points", len(rest), n)
	}
	path := make([]mgl32.Vec2, n)
	for i := range path {
		x := math.Float32frombits(binary.LittleEndian.Uint32(rest[i*8:]))
		z := math.Float32frombits(binary.LittleEndian.Uint32(rest[i*8+4:]))
		path[i] = mgl32.Vec2{x, z}
	}
	return path, nil
}
