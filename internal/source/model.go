// Package source loads model files into mesh scenes the splat pipeline can
// consume. A Model plays the role of the host application: it owns a
// current frame and evaluates its geometry there on every Snapshot.
package source

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/splatgen/internal/logger"
	"github.com/Faultbox/splatgen/internal/texture"
	"github.com/Faultbox/splatgen/pkg/grf"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

// ErrUnsupportedFormat is returned by Open for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Format identifies a model file format.
type Format string

const (
	FormatGLTF Format = "gltf"
	FormatRSM  Format = "rsm"
	FormatGND  Format = "gnd"
	FormatRSW  Format = "rsw"
)

// DetectFormat maps a file name to its format by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(path.Ext(filepath.ToSlash(name))) {
	case ".gltf", ".glb":
		return FormatGLTF, nil
	case ".rsm":
		return FormatRSM, nil
	case ".gnd":
		return FormatGND, nil
	case ".rsw":
		return FormatRSW, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// Options controls how models are opened.
type Options struct {
	// FPS converts frame numbers to keyframe time for animated formats.
	FPS float64
	// GRF is an optional archive searched for the model and its textures.
	GRF string
	// Textures loads texture images for baking.
	Textures bool
}

// evaluator produces the meshes of a model at a frame.
type evaluator interface {
	evaluate(frame int) ([]*mesh.Mesh, error)
}

// Sun is a directional light carried by the model file, in degrees.
type Sun struct {
	Longitude float64
	Latitude  float64
}

// Details describes a parsed RO file for display. Vertex and face counts
// are those of the file itself; grounds report their tessellated mesh.
type Details struct {
	Version  string
	Vertices int
	Faces    int
	Animated bool
	Textures int
	Ground   *GroundDetails // set for GND and RSW
	Props    int            // placed props that loaded, RSW only
}

// GroundDetails describes GND terrain. Altitudes are raw RO values, which
// grow downwards.
type GroundDetails struct {
	Width, Height int
	UsedTextures  int
	MinAltitude   float64
	MaxAltitude   float64
}

// Model is an opened model file.
type Model struct {
	Path   string
	Format Format
	// Frames is the animation length in frames; 1 for static models.
	Frames int
	// Sun is set for maps, which define their own light.
	Sun *Sun
	// Details is nil for glTF.
	Details *Details

	frame  int
	eval   evaluator
	closer io.Closer
}

// Open loads the model at name. When name does not exist on disk and a GRF
// archive is configured, the model is read from the archive instead.
func Open(name string, opts Options) (*Model, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if opts.FPS <= 0 {
		opts.FPS = 24
	}

	res, err := newResolver(name, opts.GRF)
	if err != nil {
		return nil, err
	}

	m := &Model{Path: name, Format: format, Frames: 1, closer: res}
	switch format {
	case FormatGLTF:
		m.eval, err = loadGLTF(res, opts)
	case FormatRSM:
		var r *rsmModel
		r, err = loadRSM(res, opts)
		if err == nil {
			m.eval, m.Frames, m.Details = r, r.frameCount(), r.details()
		}
	case FormatGND:
		var g *gndModel
		g, err = loadGND(res, opts)
		if err == nil {
			m.eval, m.Details = g, g.info
		}
	case FormatRSW:
		var w *worldModel
		w, err = loadRSW(res, opts)
		if err == nil {
			m.eval, m.Frames, m.Sun, m.Details = w, w.frameCount(), w.sun, w.info
		}
	}
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	logger.Debug("model opened",
		zap.String("path", name),
		zap.String("format", string(format)),
		zap.Int("frames", m.Frames))
	return m, nil
}

// CurrentFrame returns the frame Snapshot evaluates at.
func (m *Model) CurrentFrame() int {
	return m.frame
}

// SetFrame moves the current frame.
func (m *Model) SetFrame(frame int) {
	m.frame = frame
}

// Snapshot evaluates the model at the current frame.
func (m *Model) Snapshot() (*mesh.Scene, error) {
	meshes, err := m.eval.evaluate(m.frame)
	if err != nil {
		return nil, err
	}
	return &mesh.Scene{Frame: m.frame, Meshes: meshes}, nil
}

// Close releases the archive, if any.
func (m *Model) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// resolver finds the model file and its textures across the local disk and
// an optional GRF archive.
type resolver struct {
	name    string // model path within fsys
	fsys    fs.FS
	local   string // directory of a model on disk, "" for archive models
	archive *grf.Archive
}

func newResolver(name, grfPath string) (*resolver, error) {
	r := &resolver{}
	if grfPath != "" {
		a, err := grf.Open(grfPath)
		if err != nil {
			return nil, err
		}
		r.archive = a
	}

	if _, err := os.Stat(name); err == nil || r.archive == nil {
		abs, err := filepath.Abs(name)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.local = filepath.Dir(abs)
		r.fsys = os.DirFS(r.local)
		r.name = filepath.Base(abs)
		return r, nil
	}

	r.fsys = r.archive
	r.name = strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/")
	return r, nil
}

// siblingFS locates a file referenced by the model, relative to its
// directory. Archive models also look under data/.
func (r *resolver) siblingFS(name string) (fs.FS, string) {
	rel := strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/")
	p := path.Join(path.Dir(r.name), rel)
	if r.archive != nil {
		if _, err := fs.Stat(r.fsys, p); err != nil {
			return r.archive, path.Join("data", rel)
		}
	}
	return r.fsys, p
}

// candidates lists where an RO resource under data/<dir> may live, in
// order: a data tree above a model on disk, next to the model, then the
// archive.
func (r *resolver) candidates(dir, name string) []candidate {
	rel := strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/")
	var out []candidate
	if r.local != "" {
		for d := r.local; ; d = filepath.Dir(d) {
			if strings.EqualFold(filepath.Base(d), "data") {
				out = append(out, candidate{os.DirFS(d), path.Join(dir, rel)})
				break
			}
			if filepath.Dir(d) == d {
				break
			}
		}
		out = append(out,
			candidate{os.DirFS(r.local), rel},
			candidate{os.DirFS(r.local), path.Base(rel)},
		)
	}
	if r.archive != nil {
		out = append(out, candidate{r.archive, path.Join("data", dir, rel)})
	}
	return out
}

// readResource returns the first candidate of name under data/<dir> that
// exists.
func (r *resolver) readResource(dir, name string) ([]byte, error) {
	err := fs.ErrNotExist
	for _, c := range r.candidates(dir, name) {
		var data []byte
		if data, err = fs.ReadFile(c.fsys, c.name); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%s %q: %w", dir, name, err)
}

// loadTexture loads an RO texture with the magenta color key applied. It
// returns nil and logs a warning when no candidate exists or decodes.
func (r *resolver) loadTexture(texName string) image.Image {
	var lastErr error
	for _, c := range r.candidates("texture", texName) {
		img, err := texture.Load(c.fsys, c.name, true)
		if err == nil {
			return img
		}
		lastErr = err
	}
	logger.Warn("texture not found", zap.String("texture", texName), zap.Error(lastErr))
	return nil
}

// Close releases the archive.
func (r *resolver) Close() error {
	if r.archive != nil {
		return r.archive.Close()
	}
	return nil
}

type candidate struct {
	fsys fs.FS
	name string
}
