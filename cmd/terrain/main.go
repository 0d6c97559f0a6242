package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	persistlog "worldweaver.ai/internal/persistence/log"
	"worldweaver.ai/internal/persistence/terraindb"
	"worldweaver.ai/internal/sim/tuning"
	"worldweaver.ai/internal/sim/world"
	"worldweaver.ai/internal/sim/world/terrain/gen"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/terrain.yaml", "path to terrain.yaml (empty for compiled-in defaults)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		width      = flag.Int("width", 0, "world width in cells (default: tuning)")
		height     = flag.Int("height", 0, "world height in cells (default: tuning)")
		seed       = flag.Int64("seed", -1, "world seed (default: tuning)")
		theme      = flag.String("theme", "", "theme: FANTASY, MODERN or SCIFI (default: tuning)")
		erode      = flag.Bool("erosion", true, "run hydraulic erosion during generation")
		iterations = flag.Int("iterations", 3, "erosion iterations during generation")
		weathering = flag.Int("weathering", 0, "extra weathering iterations after generation")
		thermal    = flag.Float64("thermal", 0, "talus angle in degrees for a thermal relaxation pass (0 to skip)")
		thermalIt  = flag.Int("thermal_iterations", 10, "thermal relaxation iterations")
		dbPath     = flag.String("db", "", "sqlite path (default: <data>/terrain.sqlite, \"-\" to disable)")
		snapPath   = flag.String("snapshot", "", "snapshot output path (default: <data>/snapshots/<session>.snap.zst)")
		flat       = flag.Bool("flat", false, "generate a flat world at sea level")
		quiet      = flag.Bool("quiet", false, "suppress progress output")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[terrain] ", log.LstdFlags|log.Lmicroseconds)

	tun, err := tuning.Load(strings.TrimSpace(*configPath))
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	opts := world.Options{Tuning: tun, Logger: logger}

	dp := strings.TrimSpace(*dbPath)
	if dp == "" {
		dp = filepath.Join(*dataDir, "terrain.sqlite")
	}
	if dp != "-" {
		db, err := terraindb.Open(dp)
		if err != nil {
			logger.Fatalf("open db: %v", err)
		}
		defer db.Close()
		opts.Store = db
	}

	edits := persistlog.NewEditLogger(*dataDir)
	defer edits.Close()
	opts.Auditor = edits

	s, err := world.NewSession(opts)
	if err != nil {
		logger.Fatalf("session: %v", err)
	}

	req := world.GenerateRequest{
		Width:             tun.Terrain.WorldWidth,
		Height:            tun.Terrain.WorldHeight,
		Seed:              tun.Terrain.Seed,
		Theme:             tun.Terrain.Theme,
		UseErosion:        *erode,
		ErosionIterations: *iterations,
	}
	if *width > 0 {
		req.Width = *width
	}
	if *height > 0 {
		req.Height = *height
	}
	if *seed >= 0 {
		req.Seed = uint32(*seed)
	}
	if t := strings.TrimSpace(*theme); t != "" {
		req.Theme = t
	}
	if *flat {
		np := gen.FlatNoiseParams()
		req.Noise = &np
	}

	var progress world.Progress
	if !*quiet {
		progress = func(stage world.Stage, f float32) {
			logger.Printf("%-10s %3.0f%%", stage, f*100)
		}
	}

	start := time.Now()
	res, err := s.Generate(req, progress)
	if err != nil {
		logger.Fatalf("generate: %v", err)
	}
	logger.Printf("generated %dx%d seed=%d theme=%s in %s", res.Config.WorldWidth, res.Config.WorldHeight, res.Config.Seed, res.Config.Theme, time.Since(start))

	if *weathering > 0 {
		if _, err := s.ApplyWeathering(*weathering, progress); err != nil {
			logger.Fatalf("weathering: %v", err)
		}
	}
	if *thermal > 0 {
		if _, err := s.RelaxSlopes(float32(*thermal), *thermalIt); err != nil {
			logger.Fatalf("thermal: %v", err)
		}
	}

	if opts.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		err := s.Save(ctx)
		cancel()
		if err != nil {
			logger.Fatalf("save: %v", err)
		}
	}

	sp := strings.TrimSpace(*snapPath)
	if sp == "" {
		sp = filepath.Join(*dataDir, "snapshots", s.ID()+".snap.zst")
	}
	if err := s.ExportSnapshot(sp); err != nil {
		logger.Fatalf("snapshot: %v", err)
	}

	fmt.Printf("session=%s chunks=%d rivers=%d digest=%016x snapshot=%s\n",
		s.ID(), s.ChunkCount(), len(s.Rivers()), s.Digest(), sp)
}
