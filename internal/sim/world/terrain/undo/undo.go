// Package undo records brush edits as compressed XOR deltas of the raw
// height bits, so undoing restores the exact prior bit pattern.
package undo

import (
	"sync"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/encoding"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

const DefaultMaxEntries = 1000

type Entry struct {
	Key   store.ChunkKey
	Delta []byte // zstd(LE uint32 of before^after bits)
	Count int    // number of height samples the delta covers
	Rect  store.Rect
	Group uint64
}

// Stack is a bounded LIFO of entries. The oldest entries are evicted once
// the cap is exceeded.
type Stack struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	group   uint64
}

func New(maxEntries int) *Stack {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Stack{max: maxEntries}
}

// BeginGroup starts a new gesture; later records share its id.
func (s *Stack) BeginGroup() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.group++
	return s.group
}

func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Stack) CanUndo() bool { return s.Len() > 0 }

func (s *Stack) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Record pushes the delta between before and after, tagged with the
// current group.
func (s *Stack) Record(before, after *store.Chunk, rect store.Rect) error {
	if before.Key() != after.Key() {
		return protocol.Errorf(protocol.ErrInvalidArgument, "undo record: chunk %v vs %v", before.Key(), after.Key())
	}
	x, err := encoding.XORBits(after.Heights, before.Heights)
	if err != nil {
		return protocol.Wrap(protocol.ErrInvalidArgument, err, "undo record %v", before.Key())
	}
	delta, err := encoding.Compress(x)
	if err != nil {
		return protocol.Wrap(protocol.ErrInternal, err, "undo compress %v", before.Key())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{
		Key:   before.Key(),
		Delta: delta,
		Count: len(before.Heights),
		Rect:  rect,
		Group: s.group,
	})
	if over := len(s.entries) - s.max; over > 0 {
		s.entries = append(s.entries[:0:0], s.entries[over:]...)
	}
	return nil
}

// Lookup resolves the live chunk for a key.
type Lookup func(store.ChunkKey) (*store.Chunk, bool)

// Undo reverts the newest entry onto a clone of the live chunk and returns
// the restored clone for the caller to publish. On error the entry stays
// on the stack.
func (s *Stack) Undo(live Lookup) (*store.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil, protocol.Errorf(protocol.ErrPrecondition, "nothing to undo")
	}
	e := s.entries[len(s.entries)-1]
	cur, ok := live(e.Key)
	if !ok {
		return nil, protocol.Errorf(protocol.ErrNotFound, "undo: chunk %v not found", e.Key)
	}
	out := cur.Clone()
	if err := apply(out, e); err != nil {
		return nil, err
	}
	s.entries = s.entries[:len(s.entries)-1]
	return out, nil
}

// UndoGroup reverts every top entry sharing the newest entry's group. All
// restored chunks are returned together; on error nothing is popped.
func (s *Stack) UndoGroup(live Lookup) ([]*store.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil, protocol.Errorf(protocol.ErrPrecondition, "nothing to undo")
	}
	g := s.entries[len(s.entries)-1].Group
	restored := map[store.ChunkKey]*store.Chunk{}
	var order []store.ChunkKey
	i := len(s.entries) - 1
	for ; i >= 0 && s.entries[i].Group == g; i-- {
		e := s.entries[i]
		ch, ok := restored[e.Key]
		if !ok {
			cur, found := live(e.Key)
			if !found {
				return nil, protocol.Errorf(protocol.ErrNotFound, "undo: chunk %v not found", e.Key)
			}
			ch = cur.Clone()
			restored[e.Key] = ch
			order = append(order, e.Key)
		}
		if err := apply(ch, e); err != nil {
			return nil, err
		}
	}
	s.entries = s.entries[:i+1]

	out := make([]*store.Chunk, len(order))
	for j, k := range order {
		out[j] = restored[k]
	}
	return out, nil
}

func apply(ch *store.Chunk, e Entry) error {
	if len(ch.Heights) != e.Count {
		return protocol.Errorf(protocol.ErrPrecondition, "undo: chunk %v has %d samples, delta covers %d", e.Key, len(ch.Heights), e.Count)
	}
	raw, err := encoding.Decompress(e.Delta)
	if err != nil {
		return protocol.Wrap(protocol.ErrCorruption, err, "undo: decompress delta for %v", e.Key)
	}
	if err := encoding.ApplyXOR(ch.Heights, raw); err != nil {
		return protocol.Wrap(protocol.ErrCorruption, err, "undo: apply delta for %v", e.Key)
	}
	return nil
}
