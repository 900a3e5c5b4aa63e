package export

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WriteFrames saves frames as numbered PNGs in dir, encoding up to workers
// files at once. It returns the paths in frame order.
func WriteFrames(ctx context.Context, dir string, frames []image.Image, workers int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	paths := make([]string, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, img := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame_%05d.png", i))
		paths[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return SavePNG(path, img, 1)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
