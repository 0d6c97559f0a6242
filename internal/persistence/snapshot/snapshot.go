package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version   int    `json:"version"`
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`
	CreatedAt int64  `json:"created_at"`

	// Eroded is set when the chunks were mutated after noise generation
	// (erosion, weathering, hydrology or brush edits). Such snapshots cannot
	// be verified by regenerating from the config.
	Eroded bool `json:"eroded"`
}

// NewHeader stamps a fresh snapshot id.
func NewHeader(sessionID string, eroded bool) Header {
	return Header{
		Version:   Version,
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: time.Now().Unix(),
		Eroded:    eroded,
	}
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Config ConfigV1  `json:"config"`
	Noise  *NoiseV1  `json:"noise,omitempty"`
	Chunks []ChunkV1 `json:"chunks"`
	Rivers []RiverV1 `json:"rivers"`
}

type ConfigV1 struct {
	ChunkSize      int     `json:"chunk_size"`
	VertexCount    int     `json:"vertex_count"`
	WorldWidth     int     `json:"world_width"`
	WorldHeight    int     `json:"world_height"`
	CellSizeMeters float32 `json:"cell_size_meters"`
	MaxElevation   float32 `json:"max_elevation"`
	SeaLevel       float32 `json:"sea_level"`
	Seed           uint32  `json:"seed"`
	Theme          string  `json:"theme"`
}

type NoiseV1 struct {
	ContinentFrequency float64 `json:"continent_frequency"`
	ContinentOctaves   int     `json:"continent_octaves"`
	MountainFrequency  float64 `json:"mountain_frequency"`
	MountainOctaves    int     `json:"mountain_octaves"`
	HillFrequency      float64 `json:"hill_frequency"`
	HillOctaves        int     `json:"hill_octaves"`
	DetailFrequency    float64 `json:"detail_frequency"`
	DetailOctaves      int     `json:"detail_octaves"`
	LandCoverage       float64 `json:"land_coverage"`
}

type ChunkV1 struct {
	CX      int       `json:"cx"`
	CZ      int       `json:"cz"`
	LOD     uint8     `json:"lod"`
	Heights []float32 `json:"heights"`
	Flow    []float32 `json:"flow,omitempty"`
	Biomes  []uint8   `json:"biomes,omitempty"`
}

type RiverV1 struct {
	ID          uint32       `json:"id"`
	Path        [][2]float32 `json:"path"`
	Order       uint8        `json:"order"`
	WidthMeters float32      `json:"width_meters"`
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
