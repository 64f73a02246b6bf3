// Command vtexinfo loads images as virtual textures, makes their tiles
// resident and prints residency statistics. It is a smoke-test harness
// for the vtex residency pipeline.
//
// Usage:
//
//	vtexinfo -tile-size 256 -max-pages 1024 texture1.png texture2.jpg
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/vtex"
	"github.com/gogpu/vtex/backend"
	"github.com/gogpu/vtex/texsrc"

	// Register the GPU backend; InitDefault falls back to software
	// when no GPU is available.
	_ "github.com/gogpu/vtex/backend/native"
)

func main() {
	var (
		tileSize = flag.Int("tile-size", vtex.DefaultTileSize, "tile edge length in texels")
		maxPages = flag.Int("max-pages", vtex.DefaultMaxPhysicalPages, "physical page pool size")
		backendN = flag.String("backend", "", "backend name (default: best available)")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: vtexinfo [flags] image...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	vtex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	dev, err := openDevice(*backendN)
	if err != nil {
		log.Fatalf("vtexinfo: %v", err)
	}
	defer dev.Close()

	mgr, err := vtex.NewManager(dev,
		vtex.WithTileSize(*tileSize),
		vtex.WithMaxPhysicalPages(*maxPages),
	)
	if err != nil {
		log.Fatalf("vtexinfo: create manager: %v", err)
	}
	defer mgr.Close()

	loader := texsrc.NewLoader(16)
	for _, path := range flag.Args() {
		src, err := loader.Load(path)
		if err != nil {
			log.Fatalf("vtexinfo: load %s: %v", path, err)
		}
		id, err := mgr.AddVirtualTexture(src)
		if err != nil {
			log.Fatalf("vtexinfo: register %s: %v", path, err)
		}
		info, _ := mgr.TextureInfo(id)
		fmt.Printf("texture %d: %s %dx%d, %dx%d tiles of %dpx\n",
			id, path, info.Width, info.Height, info.TilesX, info.TilesY, info.TileSize)
	}

	if err := mgr.UploadAllTiles(); err != nil {
		log.Fatalf("vtexinfo: upload: %v", err)
	}
	if err := mgr.BuildIndirectionTable(); err != nil {
		log.Fatalf("vtexinfo: indirection: %v", err)
	}

	s := mgr.Statistics()
	fmt.Printf("\nbackend:          %s\n", dev.Name())
	fmt.Printf("textures:         %d\n", s.TotalTextures)
	fmt.Printf("tiles:            %d (%d resident)\n", s.TotalTiles, s.ResidentTiles)
	fmt.Printf("physical pages:   %d used, %d free of %d\n", s.UsedPages, s.FreePages, s.TotalPages)
	fmt.Printf("physical memory:  %.2f MB\n", s.PhysicalMemoryMB)
	fmt.Printf("virtual memory:   %.2f MB\n", s.TotalVirtualMemoryMB)
}

func openDevice(name string) (backend.Device, error) {
	if name == "" {
		return backend.InitDefault()
	}
	dev := backend.Get(name)
	if dev == nil {
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, backend.Available())
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("init backend %q: %w", name, err)
	}
	return dev, nil
}
