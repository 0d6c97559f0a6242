package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/logic/mathx"
)

type Theme string

const (
	ThemeFantasy Theme = "FANTASY"
	ThemeModern  Theme = "MODERN"
	ThemeSciFi   Theme = "SCIFI"
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToUpper(strings.TrimSpace(s))); t {
	case ThemeFantasy, ThemeModern, ThemeSciFi:
		return t, nil
	case "":
		return ThemeFantasy, nil
	default:
		return "", protocol.Errorf(protocol.ErrInvalidArgument, "unknown theme %q", s)
	}
}

// Config describes a generated world. It is immutable once a world exists.
type Config struct {
	ChunkSize      int     `json:"chunk_size"`
	VertexCount    int     `json:"vertex_count"`
	WorldWidth     int     `json:"world_width"`
	WorldHeight    int     `json:"world_height"`
	CellSizeMeters float32 `json:"cell_size_meters"`
	MaxElevation   float32 `json:"max_elevation"`
	SeaLevel       float32 `json:"sea_level"`
	Seed           uint32  `json:"seed"`
	Theme          Theme   `json:"theme"`
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:      128,
		VertexCount:    129,
		WorldWidth:     2048,
		WorldHeight:    2048,
		CellSizeMeters: 100,
		MaxElevation:   4000,
		SeaLevel:       0.2,
		Seed:           12345,
		Theme:          ThemeFantasy,
	}
}

func NewConfig(width, height int, seed uint32, theme Theme) Config {
	c := DefaultConfig()
	c.WorldWidth = width
	c.WorldHeight = height
	c.Seed = seed
	c.Theme = theme
	return c
}

func (c Config) Validate() error {
	switch {
	case c.ChunkSize <= 0:
		return protocol.Errorf(protocol.ErrInvalidArgument, "chunk_size must be > 0")
	case c.VertexCount != c.ChunkSize+1:
		return protocol.Errorf(protocol.ErrInvalidArgument, "vertex_count %d != chunk_size+1 (%d)", c.VertexCount, c.ChunkSize+1)
	case c.WorldWidth <= 0 || c.WorldHeight <= 0:
		return protocol.Errorf(protocol.ErrInvalidArgument, "world dimensions must be > 0 (got %dx%d)", c.WorldWidth, c.WorldHeight)
	case !(c.SeaLevel >= 0 && c.SeaLevel <= 1):
		return protocol.Errorf(protocol.ErrInvalidArgument, "sea_level %v outside [0,1]", c.SeaLevel)
	case !(c.CellSizeMeters > 0) || !(c.MaxElevation > 0):
		return protocol.Errorf(protocol.ErrInvalidArgument, "cell size and max elevation must be > 0")
	}
	if _, err := ParseTheme(string(c.Theme)); err != nil {
		return err
	}
	return nil
}

func (c Config) ChunkCountX() int { return (c.WorldWidth + c.ChunkSize - 1) / c.ChunkSize }
func (c Config) ChunkCountZ() int { return (c.WorldHeight + c.ChunkSize - 1) / c.ChunkSize }

// WorldToChunk maps a world position in meters to its chunk coordinate.
func (c Config) WorldToChunk(wx, wz float32) (int, int) {
	span := float64(c.ChunkSize) * float64(c.CellSizeMeters)
	return int(math.Floor(float64(wx) / span)), int(math.Floor(float64(wz) / span))
}

func (c Config) InBounds(cx, cz int) bool {
	return cx >= 0 && cz >= 0 && cx < c.ChunkCountX() && cz < c.ChunkCountZ()
}

type ChunkKey struct {
	CX int
	CZ int
}

func (k ChunkKey) String() string { return fmt.Sprintf("(%d,%d)", k.CX, k.CZ) }

// Chunk is a square grid of VertexCount² normalized heights, row-major by z.
// A chunk published to a ChunkStore must not be mutated; edit a Clone and Put it.
type Chunk struct {
	CX, CZ      int
	LOD         uint8
	VertexCount int

	Heights []float32
	Flow    []float32 // nil when absent
	Biomes  []uint8   // nil when absent
}

// NewChunk returns a chunk filled with fill.
func NewChunk(cx, cz, vertexCount int, fill float32) *Chunk {
	h := make([]float32, vertexCount*vertexCount)
	for i := range h {
		h[i] = fill
	}
	return &Chunk{CX: cx, CZ: cz, VertexCount: vertexCount, Heights: h}
}

func (c *Chunk) Key() ChunkKey { return ChunkKey{CX: c.CX, CZ: c.CZ} }

func (c *Chunk) index(x, z int) int {
	return x + z*c.VertexCount
}

func (c *Chunk) inside(x, z int) bool {
	return x >= 0 && z >= 0 && x < c.VertexCount && z < c.VertexCount
}

// Get returns 0 for coordinates outside the chunk.
func (c *Chunk) Get(x, z int) float32 {
	if !c.inside(x, z) {
		return 0
	}
	return c.Heights[c.index(x, z)]
}

func (c *Chunk) Set(x, z int, h float32) {
	if !c.inside(x, z) {
		return
	}
	c.Heights[c.index(x, z)] = h
}

// Sample is a nearest-neighbor lookup with clamped local coordinates.
func (c *Chunk) Sample(lx, lz float32) float32 {
	last := float32(c.VertexCount - 1)
	ix := int(clampf(float32(math.Round(float64(lx))), 0, last))
	iz := int(clampf(float32(math.Round(float64(lz))), 0, last))
	return c.Heights[c.index(ix, iz)]
}

func (c *Chunk) SampleBilinear(lx, lz float32) float32 {
	if c.VertexCount < 2 {
		return c.Heights[0]
	}
	x0 := int(clampf(float32(math.Floor(float64(lx))), 0, float32(c.VertexCount-2)))
	z0 := int(clampf(float32(math.Floor(float64(lz))), 0, float32(c.VertexCount-2)))
	x1 := mathx.ClampInt(x0+1, 0, c.VertexCount-1)
	z1 := mathx.ClampInt(z0+1, 0, c.VertexCount-1)
	fx := mathx.Clamp01(lx - float32(x0))
	fz := mathx.Clamp01(lz - float32(z0))

	h0 := mathx.Lerp(c.Heights[c.index(x0, z0)], c.Heights[c.index(x1, z0)], fx)
	h1 := mathx.Lerp(c.Heights[c.index(x0, z1)], c.Heights[c.index(x1, z1)], fx)
	return mathx.Lerp(h0, h1, fz)
}

// Gradient is the forward difference (dx, dz); zero on the far edges.
func (c *Chunk) Gradient(x, z int) (float32, float32) {
	h := c.Get(x, z)
	hx, hz := h, h
	if x < c.VertexCount-1 {
		hx = c.Get(x+1, z)
	}
	if z < c.VertexCount-1 {
		hz = c.Get(x, z+1)
	}
	return hx - h, hz - h
}

func (c *Chunk) Clone() *Chunk {
	out := *c
	out.Heights = append([]float32(nil), c.Heights...)
	if c.Flow != nil {
		out.Flow = append([]float32(nil), c.Flow...)
	}
	if c.Biomes != nil {
		out.Biomes = append([]uint8(nil), c.Biomes...)
	}
	return &out
}

// Digest hashes coordinates and the raw bit patterns of every array.
func (c *Chunk) Digest() uint64 {
	h := xxhash.New()
	var tmp [8]byte
	binary.LittleEndian.PutUint32(tmp[:4], uint32(int32(c.CX)))
	binary.LittleEndian.PutUint32(tmp[4:], uint32(int32(c.CZ)))
	_, _ = h.Write(tmp[:])
	_, _ = h.Write([]byte{c.LOD})
	writeFloats(h, c.Heights)
	if c.Flow != nil {
		_, _ = h.Write([]byte{'f'})
		writeFloats(h, c.Flow)
	}
	if c.Biomes != nil {
		_, _ = h.Write([]byte{'b'})
		_, _ = h.Write(c.Biomes)
	}
	return h.Sum64()
}

func writeFloats(h *xxhash.Digest, vals []float32) {
	var tmp [4]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
		_, _ = h.Write(tmp[:])
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rect is an inclusive vertex rectangle inside one chunk.
type Rect struct {
	MinX, MinZ, MaxX, MaxZ int
}

// EmptyRect has Min > Max, so Empty reports true until something is added.
func EmptyRect() Rect { return Rect{MinX: 1, MinZ: 1, MaxX: 0, MaxZ: 0} }

func (r Rect) Empty() bool { return r.MinX > r.MaxX || r.MinZ > r.MaxZ }

// Add grows r to cover (x, z).
func (r Rect) Add(x, z int) Rect {
	if r.Empty() {
		return Rect{MinX: x, MinZ: z, MaxX: x, MaxZ: z}
	}
	r.MinX = min(r.MinX, x)
	r.MinZ = min(r.MinZ, z)
	r.MaxX = max(r.MaxX, x)
	r.MaxZ = max(r.MaxZ, z)
	return r
}
