package world

import (
	"math"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/encoding"
	"worldweaver.ai/internal/sim/world/terrain/brush"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

type BrushRequest struct {
	ChunkX, ChunkZ int

	// Chunk-local vertex coordinates.
	CenterX, CenterZ float32
	Radius           float32
	Strength         float32

	Op string

	// Target is the flatten height; nil selects brush.DefaultFlattenTarget.
	Target *float32
}

// GetChunkHeights returns the chunk heights as little-endian float32 bytes.
func (s *Session) GetChunkHeights(cx, cz int) ([]byte, error) {
	ch, err := s.chunks.MustGet(cx, cz)
	if err != nil {
		return nil, err
	}
	return encoding.Float32sToBytes(ch.Heights), nil
}

// ApplyBrush edits one chunk, records the undo delta in the current stroke
// group and returns the new heights as little-endian float32 bytes.
func (s *Session) ApplyBrush(req BrushRequest) ([]byte, error) {
	op, err := brush.ParseOp(req.Op)
	if err != nil {
		return nil, s.reject("brush", err)
	}
	target := float32(brush.DefaultFlattenTarget)
	if req.Target != nil {
		target = *req.Target
	}
	if !finite(req.CenterX, req.CenterZ, req.Radius, req.Strength, target) {
		return nil, s.reject("brush", protocol.Errorf(protocol.ErrInvalidArgument,
			"brush center, radius, strength and target must be finite"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.chunks.MustGet(req.ChunkX, req.ChunkZ)
	if err != nil {
		return nil, s.reject("brush", err)
	}
	s.strokes++
	next := cur.Clone()
	rect := brush.Apply(next, brush.Stroke{
		Op:        op,
		CenterX:   req.CenterX,
		CenterZ:   req.CenterZ,
		Radius:    req.Radius,
		Strength:  req.Strength,
		Target:    target,
		NoiseSeed: int64(s.Config().Seed)<<32 | int64(s.strokes&0xffffffff),
	})
	if err := s.undo.Record(cur, next, rect); err != nil {
		return nil, s.reject("brush", err)
	}
	s.chunks.Put(next)
	s.markModified()

	e := EditEntry{
		Action:   "BRUSH",
		Chunks:   [][2]int{{req.ChunkX, req.ChunkZ}},
		Op:       op.String(),
		Center:   [2]float32{req.CenterX, req.CenterZ},
		Radius:   req.Radius,
		Strength: req.Strength,
	}
	if !rect.Empty() {
		e.Rect = &[4]int{rect.MinX, rect.MinZ, rect.MaxX, rect.MaxZ}
	}
	s.auditEdit(e)
	return encoding.Float32sToBytes(next.Heights), nil
}

// BeginStroke starts a new undo group; brush calls until the next
// BeginStroke are undone together by UndoStroke.
func (s *Session) BeginStroke() uint64 { return s.undo.BeginGroup() }

func (s *Session) CanUndo() bool { return s.undo.CanUndo() }

func (s *Session) lookup(k store.ChunkKey) (*store.Chunk, bool) {
	return s.chunks.Get(k.CX, k.CZ)
}

// Undo reverts the most recent brush application.
func (s *Session) Undo() (store.ChunkKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	restored, err := s.undo.Undo(s.lookup)
	if err != nil {
		return store.ChunkKey{}, s.reject("undo", err)
	}
	s.chunks.Put(restored)
	s.auditEdit(EditEntry{Action: "UNDO", Chunks: [][2]int{{restored.CX, restored.CZ}}})
	return restored.Key(), nil
}

// UndoStroke reverts every brush application of the latest stroke group and
// publishes the restored chunks together.
func (s *Session) UndoStroke() ([]store.ChunkKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	restored, err := s.undo.UndoGroup(s.lookup)
	if err != nil {
		return nil, s.reject("undo stroke", err)
	}
	s.chunks.PutAll(restored)
	keys := make([]store.ChunkKey, len(restored))
	coords := make([][2]int, len(restored))
	for i, ch := range restored {
		keys[i] = ch.Key()
		coords[i] = [2]int{ch.CX, ch.CZ}
	}
	s.auditEdit(EditEntry{Action: "UNDO_STROKE", Chunks: coords})
	return keys, nil
}

func finite(vals ...float32) bool {
	for _, v := range vals {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

func (s *Session) markModified() {
	s.stateMu.Lock()
	s.modified = true
	s.stateMu.Unlock()
}
