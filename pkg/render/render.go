// Package render drives a tile-based worker pool across a scene, calling
// an integrator once per pixel sample and accumulating the result into a
// final image.
package render

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/pathtrace/nori-go/pkg/integrator"
	"github.com/pathtrace/nori-go/pkg/sampler"
	"github.com/pathtrace/nori-go/pkg/scene"
)

// Logger is the minimal structured-logging surface Render needs to report
// progress without depending on a concrete logging package.
type Logger interface {
	Printf(format string, args ...any)
}

// Options configures a render pass.
type Options struct {
	TileSize        int // pixels per tile edge, default 32
	SamplesPerPixel int // samples taken per pixel
	NumWorkers      int // parallel tile workers, 0 = runtime.NumCPU()
	Gamma           float64
}

func (o Options) withDefaults() Options {
	if o.TileSize <= 0 {
		o.TileSize = 32
	}
	if o.SamplesPerPixel <= 0 {
		o.SamplesPerPixel = 16
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = runtime.NumCPU()
	}
	if o.Gamma <= 0 {
		o.Gamma = 2.2
	}
	return o
}

// tile is one independently-scheduled rectangular region of the output
// image, addressed by its grid coordinates for deterministic seeding.
type tile struct {
	gx, gy int
	bounds image.Rectangle
}

func tileGrid(width, height, tileSize int) []tile {
	var tiles []tile
	for y, gy := 0, 0; y < height; y, gy = y+tileSize, gy+1 {
		for x, gx := 0, 0; x < width; x, gx = x+tileSize, gx+1 {
			maxX := min(x+tileSize, width)
			maxY := min(y+tileSize, height)
			tiles = append(tiles, tile{gx: gx, gy: gy, bounds: image.Rect(x, y, maxX, maxY)})
		}
	}
	return tiles
}

// Render traces every pixel of sc.Camera's output at opts.SamplesPerPixel
// samples, splitting the image into tiles processed concurrently by
// opts.NumWorkers goroutines. Each tile seeds its own sampler
// deterministically from its grid coordinates (via sampler.SeedForTile),
// so the resulting image is bit-identical across runs regardless of
// goroutine scheduling order.
func Render(sc *scene.Scene, integ integrator.Integrator, opts Options, logger Logger) (*image.RGBA, RenderStats) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = noopLogger{}
	}

	width, height := sc.Camera.OutputW, sc.Camera.OutputH
	pixels := make([][]PixelStats, height)
	for y := range pixels {
		pixels[y] = make([]PixelStats, width)
	}

	tiles := tileGrid(width, height, opts.TileSize)
	logger.Printf("render: %dx%d, %d spp, %d tile(s), %d worker(s)", width, height, opts.SamplesPerPixel, len(tiles), opts.NumWorkers)

	start := time.Now()
	tileChan := make(chan tile, len(tiles))
	for _, tl := range tiles {
		tileChan <- tl
	}
	close(tileChan)

	var wg sync.WaitGroup
	for w := 0; w < opts.NumWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tl := range tileChan {
				renderTile(sc, integ, tl, pixels, opts.SamplesPerPixel)
			}
		}()
	}
	wg.Wait()

	img := toImage(pixels, width, height, opts.Gamma)
	stats := RenderStats{
		TotalPixels:  width * height,
		TotalSamples: width * height * opts.SamplesPerPixel,
		Elapsed:      time.Since(start).Seconds(),
	}
	logger.Printf("render: done in %.2fs", stats.Elapsed)
	return img, stats
}

func renderTile(sc *scene.Scene, integ integrator.Integrator, tl tile, pixels [][]PixelStats, spp int) {
	seed := sampler.SeedForTile(tl.gx, tl.gy, 0)
	rng := sampler.NewIndependent(seed)

	for y := tl.bounds.Min.Y; y < tl.bounds.Max.Y; y++ {
		for x := tl.bounds.Min.X; x < tl.bounds.Max.X; x++ {
			ps := &pixels[y][x]
			for s := 0; s < spp; s++ {
				offset := sc.Camera.SampleFilterOffset(rng.Get2D())
				ray := sc.Camera.GenerateRay(float64(x)+offset.X, float64(y)+offset.Y)
				color := integ.Li(ray, sc, rng)
				if color.HasNaN() {
					continue
				}
				ps.AddSample(color)
			}
		}
	}
}

func toImage(pixels [][]PixelStats, width, height int, gamma float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := pixels[y][x].Mean().Clamp(0, 1).GammaCorrect(gamma)
			img.Set(x, y, color.RGBA{
				R: uint8(math.Round(c.X * 255)),
				G: uint8(math.Round(c.Y * 255)),
				B: uint8(math.Round(c.Z * 255)),
				A: 255,
			})
		}
	}
	return img
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}
