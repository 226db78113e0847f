package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/pathtrace/nori-go/pkg/config"
	"github.com/pathtrace/nori-go/pkg/render"
)

// Config holds all the command-line configuration for the raytracer.
type Config struct {
	ScenePath  string
	OutputPath string
	TileSize   int
	NumWorkers int
	Help       bool
	CPUProfile string
}

func main() {
	cfg := parseFlags()
	if cfg.Help {
		showHelp()
		return
	}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	fmt.Println("Starting raytracer...")
	startTime := time.Now()

	result, err := config.Load(cfg.ScenePath)
	if err != nil {
		fmt.Printf("error loading scene %q: %v\n", cfg.ScenePath, err)
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	opts := render.Options{
		TileSize:        cfg.TileSize,
		SamplesPerPixel: result.SampleCount,
		NumWorkers:      cfg.NumWorkers,
	}
	img, stats := render.Render(result.Scene, result.Integrator, opts, logger)

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = defaultOutputPath(cfg.ScenePath)
	}
	if err := saveImageToFile(img, outputPath); err != nil {
		fmt.Printf("error saving image: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("render completed in %v (%d samples over %d pixels)\n", time.Since(startTime), stats.TotalSamples, stats.TotalPixels)
	fmt.Printf("image saved to %s\n", outputPath)
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() Config {
	cfg := Config{}
	flag.StringVar(&cfg.ScenePath, "scene", "", "Path to a YAML scene description (required)")
	flag.StringVar(&cfg.OutputPath, "out", "", "Output PNG path (default: output/<scene-name>.png)")
	flag.IntVar(&cfg.TileSize, "tile-size", 32, "Tile edge length in pixels")
	flag.IntVar(&cfg.NumWorkers, "workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	flag.BoolVar(&cfg.Help, "help", false, "Show help information")
	flag.StringVar(&cfg.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.Parse()

	if !cfg.Help && cfg.ScenePath == "" {
		fmt.Println("error: -scene is required")
		showHelp()
		os.Exit(1)
	}
	return cfg
}

// showHelp displays help information.
func showHelp() {
	fmt.Println("Raytracer")
	fmt.Println("Usage: raytracer -scene scenes/cornell.yaml [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  raytracer -scene scenes/cornell.yaml")
	fmt.Println("  raytracer -scene scenes/cornell.yaml -out renders/cornell.png -workers 8")
}

// defaultOutputPath derives an output PNG path from the scene file's base
// name when -out is not given.
func defaultOutputPath(scenePath string) string {
	base := filepath.Base(scenePath)
	name := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join("output", name+".png")
}

// saveImageToFile saves an image to the specified file path, creating its
// parent directory if necessary.
func saveImageToFile(img *image.RGBA, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}
