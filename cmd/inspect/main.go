package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"worldweaver.ai/internal/persistence/snapshot"
	"worldweaver.ai/internal/sim/tuning"
	"worldweaver.ai/internal/sim/world"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

func main() {
	var (
		snapPath = flag.String("snapshot", "", "path to .snap.zst")
		verify   = flag.Bool("verify", false, "regenerate from the snapshot config and compare digests")
		verbose  = flag.Bool("v", false, "log regeneration progress")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	cfg, err := store.ImportConfig(snap.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, "snapshot config:", err)
		os.Exit(1)
	}
	chs, err := store.ImportChunks(cfg, snap.Chunks)
	if err != nil {
		fmt.Fprintln(os.Stderr, "snapshot chunks:", err)
		os.Exit(1)
	}
	digest := store.DigestChunks(chs)

	lo, hi := heightRange(chs)
	fmt.Printf("snapshot v%d id=%s session=%s created=%s eroded=%t\n",
		snap.Header.Version, snap.Header.ID, snap.Header.SessionID,
		time.Unix(snap.Header.CreatedAt, 0).UTC().Format(time.RFC3339), snap.Header.Eroded)
	fmt.Printf("world %dx%d chunk=%d seed=%d theme=%s sea=%.3f max_elev=%.0fm cell=%.0fm\n",
		cfg.WorldWidth, cfg.WorldHeight, cfg.ChunkSize, cfg.Seed, cfg.Theme,
		cfg.SeaLevel, cfg.MaxElevation, cfg.CellSizeMeters)
	fmt.Printf("chunks=%d rivers=%d heights=[%.4f, %.4f] digest=%016x\n",
		len(chs), len(snap.Rivers), lo, hi, digest)

	if !*verify {
		return
	}
	if snap.Header.Eroded {
		fmt.Fprintln(os.Stderr, "snapshot was modified after generation; it cannot be verified by regeneration")
		os.Exit(1)
	}
	if snap.Noise == nil {
		fmt.Fprintln(os.Stderr, "snapshot carries no noise parameters")
		os.Exit(1)
	}

	tun := tuning.Defaults()
	tun.Terrain.ChunkSize = cfg.ChunkSize
	tun.Terrain.WorldWidth = cfg.WorldWidth
	tun.Terrain.WorldHeight = cfg.WorldHeight
	tun.Terrain.CellSizeMeters = cfg.CellSizeMeters
	tun.Terrain.MaxElevation = cfg.MaxElevation
	tun.Terrain.SeaLevel = cfg.SeaLevel
	tun.Terrain.Seed = cfg.Seed
	tun.Terrain.Theme = string(cfg.Theme)

	opts := world.Options{Tuning: tun}
	if *verbose {
		opts.Logger = log.New(os.Stderr, "[inspect] ", log.LstdFlags|log.Lmicroseconds)
	}
	s, err := world.NewSession(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "session:", err)
		os.Exit(1)
	}
	np := world.NoiseFromSnapshot(*snap.Noise)
	res, err := s.Generate(world.GenerateRequest{
		Width:  cfg.WorldWidth,
		Height: cfg.WorldHeight,
		Seed:   cfg.Seed,
		Theme:  string(cfg.Theme),
		Noise:  &np,
	}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "regenerate:", err)
		os.Exit(1)
	}
	if res.Digest != digest {
		fmt.Fprintf(os.Stderr, "verify failed: snapshot digest=%016x regenerated=%016x\n", digest, res.Digest)
		os.Exit(1)
	}
	fmt.Printf("verify ok: digest=%016x\n", digest)
}

func heightRange(chs []*store.Chunk) (float32, float32) {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, c := range chs {
		for _, h := range c.Heights {
			lo = min(lo, h)
			hi = max(hi, h)
		}
	}
	if len(chs) == 0 {
		return 0, 0
	}
	return lo, hi
}
