package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"warp/cmd"
	"warp/internal/analysis"
	"warp/internal/audio"
	"warp/internal/build"
	"warp/internal/commit"
	"warp/internal/config"
	"warp/internal/log"
	"warp/internal/storage"
	"warp/internal/stretch"
	"warp/internal/transport"
	"warp/internal/warp"
)

// main is the entry point for the warp engine CLI and worker.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Load configuration (YAML file plus environment overrides)
//   - Parse command line arguments
//
// 2. Execution Phase:
//   - One-off commands (probe, detect, quantize, render, preview,
//     commit, status) run to completion and exit
//   - The worker command blocks, consuming jobs until interrupted
//
// 3. Shutdown Phase (worker only):
//   - Handle termination signals
//   - Drain the in-flight job and close the event transport
func main() {
	// ==================== STARTUP PHASE ====================

	build.Initialize()

	cfg, err := config.Load(os.Getenv("WARP_CONFIG"))
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	if err := cmd.ParseArgs(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config: %v", err)
	}

	// ==================== EXECUTION PHASE ====================

	if cfg.CLI.Command == "" {
		// Help or version output was already printed by the parser.
		return
	}

	if err := executeCommand(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func executeCommand(cfg *config.Config) error {
	switch cfg.CLI.Command {
	case "probe":
		return runProbe(cfg)
	case "detect":
		return runDetect(cfg)
	case "quantize":
		return runQuantize(cfg)
	case "render":
		return runRender(cfg)
	case "preview":
		return runPreview(cfg)
	case "commit":
		return runCommit(cfg)
	case "status":
		return runStatus(cfg)
	case "worker":
		return runWorker(cfg)
	default:
		return fmt.Errorf("unknown command %q", cfg.CLI.Command)
	}
}

func runProbe(cfg *config.Config) error {
	info, err := audio.Probe(cfg.CLI.InputFile)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func detectionOptions(cfg *config.Config) analysis.Options {
	opts := analysis.DefaultOptions()
	opts.Sensitivity = cfg.Engine.Sensitivity
	opts.MinGap = cfg.Engine.MinGap
	return opts
}

func runDetect(cfg *config.Config) error {
	result, err := analysis.DetectFile(cfg.CLI.InputFile, detectionOptions(cfg))
	if err != nil {
		return err
	}
	return printJSON(result)
}

// runQuantize chains detection, tempo mapping and quantization to emit a
// marker set ready for render.
func runQuantize(cfg *config.Config) error {
	result, err := analysis.DetectFile(cfg.CLI.InputFile, detectionOptions(cfg))
	if err != nil {
		return err
	}
	if result.DetectedBPM <= 0 {
		return fmt.Errorf("no plausible tempo detected in %s", cfg.CLI.InputFile)
	}

	targetBPM := cfg.CLI.TargetBPM
	if targetBPM <= 0 {
		targetBPM = result.DetectedBPM
	}

	mapping, err := warp.MapTempo(result.DetectedBPM, targetBPM, result.Duration)
	if err != nil {
		return err
	}

	markers := warp.Quantize(result.Transients, mapping.BeatGrid, cfg.CLI.Strength)
	return printJSON(markers)
}

func stretchOptions(cfg *config.Config) (stretch.Options, error) {
	algorithm, err := stretch.ParseAlgorithm(cfg.Engine.Algorithm)
	if err != nil {
		return stretch.Options{}, err
	}
	quality, err := stretch.ParseQuality(cfg.Engine.Quality)
	if err != nil {
		return stretch.Options{}, err
	}
	return stretch.Options{
		PitchShiftSemitones: cfg.CLI.PitchShift,
		PreserveFormants:    cfg.CLI.Formants,
		Algorithm:           algorithm,
		Quality:             quality,
	}, nil
}

func loadMarkers(path string) ([]warp.Marker, error) {
	if path == "" {
		return nil, fmt.Errorf("no markers file: pass one with --markers")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var markers []warp.Marker
	if err := json.Unmarshal(data, &markers); err != nil {
		return nil, fmt.Errorf("markers file %s: %w", path, err)
	}
	warp.SortMarkers(markers)
	return markers, nil
}

func runRender(cfg *config.Config) error {
	opts, err := stretchOptions(cfg)
	if err != nil {
		return err
	}
	markers, err := loadMarkers(cfg.CLI.MarkersFile)
	if err != nil {
		return err
	}
	buf, err := audio.Decode(cfg.CLI.InputFile)
	if err != nil {
		return err
	}

	out, err := stretch.Stretch(context.Background(), buf, markers, opts)
	if err != nil {
		return err
	}
	if err := audio.Encode(cfg.CLI.OutputFile, out, cfg.Engine.BitDepth); err != nil {
		return err
	}

	log.Infof("Rendered %s: %.3fs -> %.3fs", cfg.CLI.OutputFile, buf.Duration(), out.Duration())
	return nil
}

func runPreview(cfg *config.Config) error {
	opts, err := stretchOptions(cfg)
	if err != nil {
		return err
	}
	markers, err := loadMarkers(cfg.CLI.MarkersFile)
	if err != nil {
		return err
	}
	buf, err := audio.Decode(cfg.CLI.InputFile)
	if err != nil {
		return err
	}

	out, err := stretch.Preview(context.Background(), buf, markers,
		cfg.CLI.PreviewStart, cfg.CLI.PreviewEnd, opts)
	if err != nil {
		return err
	}
	return audio.Encode(cfg.CLI.OutputFile, out, cfg.Engine.BitDepth)
}

func runCommit(cfg *config.Config) error {
	algorithm, err := stretch.ParseAlgorithm(cfg.Engine.Algorithm)
	if err != nil {
		return err
	}

	backend := commit.NewRedisBackend(cfg.Commit.RedisAddr, cfg.Commit.RedisPassword, cfg.Commit.RedisDB)
	defer backend.Close()

	pipeline := commit.NewPipeline(backend, backend, backend, algorithm)
	jobID, err := pipeline.Commit(context.Background(), cfg.CLI.ClipID)
	if err != nil {
		return err
	}

	fmt.Println(jobID)
	return nil
}

func runStatus(cfg *config.Config) error {
	backend := commit.NewRedisBackend(cfg.Commit.RedisAddr, cfg.Commit.RedisPassword, cfg.Commit.RedisDB)
	defer backend.Close()

	pipeline := commit.NewPipeline(backend, backend, backend, stretch.AlgorithmHighQuality)
	task, err := pipeline.Status(context.Background(), cfg.CLI.JobID)
	if err != nil {
		return err
	}
	return printJSON(task)
}

func runWorker(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := commit.NewRedisBackend(cfg.Commit.RedisAddr, cfg.Commit.RedisPassword, cfg.Commit.RedisDB)
	defer backend.Close()

	store, err := storage.NewDiskStore(cfg.Commit.StorageRoot)
	if err != nil {
		return err
	}

	var events transport.Transport
	if cfg.Transport.WebsocketEnabled {
		events = transport.NewWebSocketTransport(cfg.Transport.WebsocketPort)
	} else {
		events = transport.NewLoggingTransport()
	}
	defer events.Close()

	worker := commit.NewWorker(backend, backend, store, events)
	worker.BitDepth = cfg.Engine.BitDepth

	// ==================== SHUTDOWN PHASE ====================

	// Run blocks until the signal context cancels; the in-flight job, if
	// any, finishes before Run returns.
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Infof("Commit worker: stopped")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
