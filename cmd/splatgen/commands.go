package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/splatgen/internal/config"
	"github.com/Faultbox/splatgen/internal/converter"
	"github.com/Faultbox/splatgen/internal/export"
	"github.com/Faultbox/splatgen/internal/logger"
	"github.com/Faultbox/splatgen/internal/source"
	"github.com/Faultbox/splatgen/internal/watch"
	"github.com/Faultbox/splatgen/pkg/splat"
)

// fail prints err and exits.
func fail(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// setup loads the config and starts logging.
func setup(flags *config.Flags) *config.Config {
	cfg, err := config.Load(flags)
	if err != nil {
		fail(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fail(err)
	}
	return cfg
}

func modelOptions(cfg *config.Config) source.Options {
	return source.Options{
		FPS:      cfg.Animation.FPS,
		GRF:      cfg.Source.GRF,
		Textures: cfg.Bake.Enabled,
	}
}

func openModel(cfg *config.Config, name string) *source.Model {
	model, err := source.Open(name, modelOptions(cfg))
	if err != nil {
		fail(err)
	}
	return model
}

// newExporter wires the converter queue and the exporter for model. The
// caller closes the queue.
func newExporter(cfg *config.Config, model *source.Model) (*export.Exporter, *converter.Queue, error) {
	cmd, err := converter.ParseCommand(cfg.Converter.Command, cfg.Converter.Overwrite)
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.SplatOptions()
	if err != nil {
		return nil, nil, err
	}
	queue := converter.NewQueue(cmd)
	exp := export.New(queue, export.Options{
		Splat:        opts,
		Bake:         cfg.BakeOptions(model.Sun),
		FrameNumbers: cfg.Animation.FrameNumbers,
	})
	return exp, queue, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	frame := fs.Int("frame", 0, "Frame to export")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: splatgen export [options] <model> <out.ply>")
		os.Exit(1)
	}

	cfg := setup(flags)
	defer logger.Sync()

	model := openModel(cfg, fs.Arg(0))
	defer model.Close()
	model.SetFrame(*frame)

	exp, queue, err := newExporter(cfg, model)
	if err != nil {
		fail(err)
	}
	defer queue.Close()

	ctx, stop := signalContext()
	defer stop()

	res, err := exp.ExportFrame(ctx, model, fs.Arg(1))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Exported: %s (%d splats)\n", res.Output, res.Splats)
}

func cmdBatch(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	start := fs.Int("start", 0, "First frame")
	end := fs.Int("end", -1, "Last frame (-1 = last frame of the model)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: splatgen batch [options] <model> <out.ply>")
		os.Exit(1)
	}

	cfg := setup(flags)
	defer logger.Sync()

	model := openModel(cfg, fs.Arg(0))
	defer model.Close()
	if *end < 0 {
		*end = model.Frames - 1
	}

	exp, queue, err := newExporter(cfg, model)
	if err != nil {
		fail(err)
	}
	defer queue.Close()

	ctx, stop := signalContext()
	defer stop()

	res, err := exp.ExportBatch(ctx, model, fs.Arg(1), *start, *end)
	if res != nil {
		for _, fr := range res.Frames {
			fmt.Printf("Exported: %s (%d splats)\n", fr.Output, fr.Splats)
		}
		for _, fe := range res.Failures {
			fmt.Fprintf(os.Stderr, "Failed:   %v\n", fe)
		}
		fmt.Fprintf(os.Stderr, "\n(%d succeeded, %d failed)\n", res.Succeeded, res.Failed)
	}
	if err != nil {
		fail(err)
	}
	if res.Failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

func cmdScript(args []string) {
	fs := flag.NewFlagSet("script", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	frame := fs.Int("frame", 0, "Frame to export")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: splatgen script [options] <model> <out.mjs>")
		os.Exit(1)
	}

	cfg := setup(flags)
	defer logger.Sync()

	model := openModel(cfg, fs.Arg(0))
	defer model.Close()
	model.SetFrame(*frame)

	opts, err := cfg.SplatOptions()
	if err != nil {
		fail(err)
	}
	exp := export.New(nil, export.Options{Splat: opts, Bake: cfg.BakeOptions(model.Sun)})
	res, err := exp.ExportScript(model, fs.Arg(1))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Written: %s (%d splats)\n", res.Output, res.Splats)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	frame := fs.Int("frame", 0, "Frame to sample")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: splatgen info [options] <model>")
		os.Exit(1)
	}

	cfg := setup(flags)
	defer logger.Sync()

	model := openModel(cfg, fs.Arg(0))
	defer model.Close()
	model.SetFrame(*frame)

	scene, err := model.Snapshot()
	if err != nil {
		fail(err)
	}
	opts, err := cfg.SplatOptions()
	if err != nil {
		fail(err)
	}

	fmt.Printf("Model:   %s\n", model.Path)
	fmt.Printf("Format:  %s\n", model.Format)
	fmt.Printf("Frames:  %d\n", model.Frames)
	fmt.Printf("Meshes:  %d\n", len(scene.Meshes))
	fmt.Printf("Mode:    %s (density %g)\n", opts.Mode, opts.Density)
	if model.Sun != nil {
		fmt.Printf("Sun:     %g° longitude, %g° latitude\n", model.Sun.Longitude, model.Sun.Latitude)
	}
	if d := model.Details; d != nil {
		printDetails(d)
	}

	res, err := splat.Generate(scene, opts)
	if errors.Is(err, splat.ErrNoInputGeometry) {
		fmt.Println("\nNo geometry.")
		return
	}
	if err != nil {
		fail(err)
	}

	fmt.Printf("Splats:  %d\n\n", len(res.Records))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  MESH\tVERTICES\tFACES\tSPLATS\tSKIPPED")
	for _, m := range res.Meshes {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%d\n", m.Name, m.Vertices, m.Faces, m.Samples, m.SkippedElements)
	}
	tw.Flush()
}

func printDetails(d *source.Details) {
	fmt.Printf("Version: %s\n", d.Version)
	fmt.Printf("Source:  %d vertices, %d faces, %d textures\n", d.Vertices, d.Faces, d.Textures)
	if d.Animated {
		fmt.Println("Animated: yes")
	}
	if g := d.Ground; g != nil {
		fmt.Printf("Ground:  %dx%d tiles, %d textures used, altitude %g to %g\n",
			g.Width, g.Height, g.UsedTextures, g.MinAltitude, g.MaxAltitude)
	}
	if d.Props > 0 {
		fmt.Printf("Props:   %d\n", d.Props)
	}
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	frame := fs.Int("frame", 0, "Frame to export")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: splatgen watch [options] <model> <out.ply>")
		os.Exit(1)
	}
	modelPath, output := fs.Arg(0), fs.Arg(1)
	if _, err := os.Stat(modelPath); err != nil {
		fail(fmt.Errorf("watch needs a model on disk: %w", err))
	}

	cfg := setup(flags)
	defer logger.Sync()

	paths := []string{modelPath}
	if flags.Config != "" {
		paths = append(paths, flags.Config)
	}
	w, err := watch.New(paths, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond)
	if err != nil {
		fail(err)
	}
	defer w.Close()

	ctx, stop := signalContext()
	defer stop()

	exportOnce := func() {
		model, err := source.Open(modelPath, modelOptions(cfg))
		if err != nil {
			logger.Error("model load failed", zap.Error(err))
			return
		}
		defer model.Close()
		model.SetFrame(*frame)

		exp, queue, err := newExporter(cfg, model)
		if err != nil {
			logger.Error("exporter setup failed", zap.Error(err))
			return
		}
		defer queue.Close()

		res, err := exp.ExportFrame(ctx, model, output)
		if err != nil {
			logger.Error("export failed", zap.Error(err))
			return
		}
		fmt.Printf("Exported: %s (%d splats)\n", res.Output, res.Splats)
	}

	exportOnce()
	logger.Info("watching", zap.Strings("paths", paths))

	err = w.Run(ctx, func(changed string) {
		if flags.Config != "" && sameFile(changed, flags.Config) {
			next, err := config.Load(flags)
			if err != nil {
				logger.Error("config reload failed", zap.Error(err))
				return
			}
			cfg = next
			logger.Info("config reloaded", zap.String("path", changed))
		}
		exportOnce()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fail(err)
	}
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
