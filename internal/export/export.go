// Package export drives one or more frames of a Source through the splat
// pipeline and the external converter.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/splatgen/internal/bake"
	"github.com/Faultbox/splatgen/internal/converter"
	"github.com/Faultbox/splatgen/internal/logger"
	"github.com/Faultbox/splatgen/pkg/mesh"
	"github.com/Faultbox/splatgen/pkg/splat"
)

// ErrInvalidFrameRange is returned by ExportBatch when end < start.
var ErrInvalidFrameRange = errors.New("invalid frame range")

// ScriptName is the intermediate generator file inside the run directory.
const ScriptName = "mesh-generator.mjs"

// Source provides scene snapshots at a movable current frame.
type Source interface {
	CurrentFrame() int
	SetFrame(frame int)
	Snapshot() (*mesh.Scene, error)
}

// Converter turns a generator script into an output file.
type Converter interface {
	Do(ctx context.Context, job converter.Job) error
}

// Options configures an Exporter.
type Options struct {
	Splat splat.Options
	// Bake, when set, bakes textures into corner colors before sampling.
	Bake *bake.Options
	// FrameNumbers inserts _NNNN before the extension in batch mode.
	FrameNumbers bool
	// TempDir is where run directories are created; "" uses os.TempDir.
	TempDir string
}

// FrameResult describes one exported frame.
type FrameResult struct {
	Frame  int
	Output string
	Splats int
	Meshes []splat.MeshStats
}

// FrameError is a failed frame of a batch.
type FrameError struct {
	Frame int
	Err   error
}

func (e FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Err)
}

func (e FrameError) Unwrap() error {
	return e.Err
}

// BatchResult summarizes a batch export.
type BatchResult struct {
	Succeeded int
	Failed    int
	Frames    []FrameResult
	Failures  []FrameError
}

// Exporter runs exports with fixed options.
type Exporter struct {
	opts Options
	conv Converter
}

// New returns an Exporter using conv for the final conversion step.
func New(conv Converter, opts Options) *Exporter {
	return &Exporter{opts: opts, conv: conv}
}

// OutputPath forces the .ply extension and, when numbered, inserts the
// zero-padded frame before it: scene.ply -> scene_0003.ply.
func OutputPath(path string, frame int, numbered bool) string {
	ext := filepath.Ext(path)
	base := path
	if strings.EqualFold(ext, ".ply") {
		base = strings.TrimSuffix(path, ext)
	}
	if numbered {
		base = fmt.Sprintf("%s_%04d", base, frame)
	}
	return base + ".ply"
}

// generate snapshots src and runs the pipeline.
func (e *Exporter) generate(src Source) (*splat.Result, error) {
	scene, err := src.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if e.opts.Bake != nil {
		scene = bake.Bake(scene, *e.opts.Bake)
	}
	res, err := splat.Generate(scene, e.opts.Splat)
	if err != nil {
		return nil, err
	}
	for _, m := range res.Meshes {
		if m.SkippedElements > 0 {
			logger.Debug("color attribute elements out of range",
				zap.String("mesh", m.Name),
				zap.Int("skipped", m.SkippedElements),
				zap.Error(splat.ErrAttributeOutOfRange))
		}
	}
	return res, nil
}

// ExportScript writes the generator script for the current frame without
// running the converter.
func (e *Exporter) ExportScript(src Source, path string) (*FrameResult, error) {
	res, err := e.generate(src)
	if err != nil {
		return nil, err
	}
	if err := splat.WriteScriptFile(path, res.Records); err != nil {
		return nil, err
	}
	return &FrameResult{Frame: res.Frame, Output: path, Splats: len(res.Records), Meshes: res.Meshes}, nil
}

// ExportFrame exports the source's current frame to output. The script
// lives in a per-run temporary directory that is removed afterwards.
func (e *Exporter) ExportFrame(ctx context.Context, src Source, output string) (*FrameResult, error) {
	return e.exportFrame(ctx, src, OutputPath(output, 0, false))
}

func (e *Exporter) exportFrame(ctx context.Context, src Source, output string) (*FrameResult, error) {
	run := uuid.NewString()
	log := logger.With(zap.String("run", run), zap.Int("frame", src.CurrentFrame()))

	res, err := e.generate(src)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(e.opts.TempDir, "splatgen-"+run+"-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", splat.ErrIntermediateWriteFailed, err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, ScriptName)
	if err := splat.WriteScriptFile(script, res.Records); err != nil {
		return nil, err
	}
	log.Debug("script written", zap.String("path", script), zap.Int("splats", len(res.Records)))

	if err := e.conv.Do(ctx, converter.Job{Script: script, Output: output}); err != nil {
		return nil, err
	}

	log.Info("frame exported",
		zap.String("output", output),
		zap.Int("splats", len(res.Records)),
		zap.Int("meshes", len(res.Meshes)))
	return &FrameResult{Frame: res.Frame, Output: output, Splats: len(res.Records), Meshes: res.Meshes}, nil
}

// ExportBatch exports frames start..end inclusive. Failed frames are
// recorded and the loop continues. The source's current frame is restored
// when the batch ends. A canceled context stops the batch and is returned
// along with the partial result.
func (e *Exporter) ExportBatch(ctx context.Context, src Source, output string, start, end int) (*BatchResult, error) {
	if end < start {
		return nil, fmt.Errorf("%w: %d..%d", ErrInvalidFrameRange, start, end)
	}

	original := src.CurrentFrame()
	defer src.SetFrame(original)

	result := &BatchResult{}
	for frame := start; frame <= end; frame++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		src.SetFrame(frame)
		path := OutputPath(output, frame, e.opts.FrameNumbers)

		fr, err := e.exportFrame(ctx, src, path)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, FrameError{Frame: frame, Err: err})
			logger.Warn("frame failed", zap.Int("frame", frame), zap.Error(err))
			continue
		}
		result.Succeeded++
		result.Frames = append(result.Frames, *fr)
	}

	logger.Info("batch finished",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}
