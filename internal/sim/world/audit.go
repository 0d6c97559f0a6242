package world

import "time"

// EditAuditor receives every committed brush stroke and undo.
type EditAuditor interface {
	WriteEdit(entry EditEntry) error
}

type EditEntry struct {
	SessionID string     `json:"session_id"`
	TimeMs    int64      `json:"ts_ms"`
	Action    string     `json:"action"` // BRUSH, UNDO, UNDO_STROKE
	Chunks    [][2]int   `json:"chunks"`
	Op        string     `json:"op,omitempty"`
	Center    [2]float32 `json:"center,omitempty"`
	Radius    float32    `json:"radius,omitempty"`
	Strength  float32    `json:"strength,omitempty"`
	Rect      *[4]int    `json:"rect,omitempty"` // min_x, min_z, max_x, max_z
}

func (s *Session) auditEdit(e EditEntry) {
	if s.audit == nil {
		return
	}
	e.SessionID = s.id
	e.TimeMs = time.Now().UnixMilli()
	if err := s.audit.WriteEdit(e); err != nil {
		s.log.Printf("edit audit: %v", err)
	}
}
