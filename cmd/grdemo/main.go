// Command grdemo renders a TOML scene through the gr pipeline and writes
// the result as PNG.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/gr"
	"github.com/gogpu/gr/backend"
)

func main() {
	var (
		scenePath = flag.String("scene", "", "scene file (TOML); built-in scene when empty")
		output    = flag.String("output", "grdemo.png", "output file")
		name      = flag.String("backend", "", "backend name (software, native); best available when empty")
		cacheMB   = flag.Uint64("cache", 0, "resource cache budget in MB (0 for default)")
		verbose   = flag.Bool("v", false, "debug logging")
		list      = flag.Bool("list", false, "list registered backends and exit")
	)
	flag.Parse()

	if *list {
		for _, n := range backend.Available() {
			fmt.Println(n)
		}
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	gr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*scenePath, *output, *name, *cacheMB<<20); err != nil {
		log.Fatalf("grdemo: %v", err)
	}
}

func run(scenePath, output, name string, cacheLimit uint64) error {
	sc, err := loadScene(scenePath)
	if err != nil {
		return err
	}

	b, err := openBackend(name)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, err := gr.NewContext(b, gr.WithResourceCacheLimit(cacheLimit))
	if err != nil {
		return err
	}
	defer ctx.Release()

	img, err := render(ctx, sc, filepath.Dir(scenePath))
	if err != nil {
		return fmt.Errorf("render (%v): %w", gr.ClassifyError(err), err)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	count, bytes := ctx.ResourceCacheUsage()
	gr.Logger().Info("grdemo: saved", "output", output, "backend", b.Name(),
		"size", fmt.Sprintf("%dx%d", sc.Width, sc.Height),
		"resources", count, "cache_bytes", bytes)
	return nil
}

func openBackend(name string) (backend.Backend, error) {
	if name == "" {
		return backend.Default()
	}
	return backend.Get(name)
}
