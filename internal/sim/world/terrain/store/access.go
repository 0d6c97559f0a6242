package store

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"worldweaver.ai/internal/protocol"
)

// ChunkStore owns the published chunks of one world. Readers get immutable
// chunk pointers; writers replace a chunk wholesale via Put.
type ChunkStore struct {
	mu     sync.RWMutex
	cfg    Config
	chunks map[ChunkKey]*Chunk
	dirty  map[ChunkKey]struct{}
}

func NewChunkStore(cfg Config) *ChunkStore {
	return &ChunkStore{
		cfg:    cfg,
		chunks: map[ChunkKey]*Chunk{},
		dirty:  map[ChunkKey]struct{}{},
	}
}

func (s *ChunkStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *ChunkStore) Get(cx, cz int) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.chunks[ChunkKey{CX: cx, CZ: cz}]
	return ch, ok
}

// MustGet is Get with a NotFound error.
func (s *ChunkStore) MustGet(cx, cz int) (*Chunk, error) {
	ch, ok := s.Get(cx, cz)
	if !ok {
		return nil, protocol.Errorf(protocol.ErrNotFound, "chunk (%d,%d) not found", cx, cz)
	}
	return ch, nil
}

// Put publishes ch, replacing any chunk at the same key, and marks it dirty.
func (s *ChunkStore) Put(ch *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := ch.Key()
	s.chunks[k] = ch
	s.dirty[k] = struct{}{}
}

// PutAll publishes every chunk under one lock acquisition.
func (s *ChunkStore) PutAll(chs []*Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range chs {
		k := ch.Key()
		s.chunks[k] = ch
		s.dirty[k] = struct{}{}
	}
}

// ReplaceAll swaps in a new config and chunk set. Nothing is left dirty.
func (s *ChunkStore) ReplaceAll(cfg Config, chs []*Chunk) {
	m := make(map[ChunkKey]*Chunk, len(chs))
	for _, ch := range chs {
		m[ch.Key()] = ch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.chunks = m
	s.dirty = map[ChunkKey]struct{}{}
}

// LoadedChunkKeys returns keys sorted by (CZ, CX).
func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	s.mu.RLock()
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sortKeys(keys)
	return keys
}

// Chunks returns the published chunks in LoadedChunkKeys order.
func (s *ChunkStore) Chunks() []*Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sortKeys(keys)
	out := make([]*Chunk, len(keys))
	for i, k := range keys {
		out[i] = s.chunks[k]
	}
	return out
}

func (s *ChunkStore) DirtyKeys() []ChunkKey {
	s.mu.RLock()
	keys := make([]ChunkKey, 0, len(s.dirty))
	for k := range s.dirty {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sortKeys(keys)
	return keys
}

func (s *ChunkStore) ClearDirty() {
	s.mu.Lock()
	s.dirty = map[ChunkKey]struct{}{}
	s.mu.Unlock()
}

// SampleHeight bilinearly samples the height at a world position in meters.
func (s *ChunkStore) SampleHeight(wx, wz float32) (float32, bool) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()
	cx, cz := cfg.WorldToChunk(wx, wz)
	ch, ok := s.Get(cx, cz)
	if !ok {
		return 0, false
	}
	lx := wx/cfg.CellSizeMeters - float32(cx*cfg.ChunkSize)
	lz := wz/cfg.CellSizeMeters - float32(cz*cfg.ChunkSize)
	return ch.SampleBilinear(lx, lz), true
}

// Digest combines every chunk digest in key order.
func (s *ChunkStore) Digest() uint64 {
	return DigestChunks(s.Chunks())
}

func DigestChunks(chs []*Chunk) uint64 {
	sorted := append([]*Chunk(nil), chs...)
	sort.Slice(sorted, func(i, j int) bool { return keyLess(sorted[i].Key(), sorted[j].Key()) })
	h := xxhash.New()
	var tmp [8]byte
	for _, ch := range sorted {
		d := ch.Digest()
		for i := 0; i < 8; i++ {
			tmp[i] = byte(d >> (8 * i))
		}
		_, _ = h.Write(tmp[:])
	}
	return h.Sum64()
}

func sortKeys(keys []ChunkKey) {
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
}

func keyLess(a, b ChunkKey) bool {
	if a.CZ != b.CZ {
		return a.CZ < b.CZ
	}
	return a.CX < b.CX
}
