package source

import (
	"fmt"
	"image"
	gomath "math"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/splatgen/internal/logger"
	"github.com/Faultbox/splatgen/pkg/formats"
	"github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

// worldModel is a map: its ground plus every placed RSM prop. Props
// animate on their own clocks.
type worldModel struct {
	ground *mesh.Mesh
	props  []prop
	fps    float64
	sun    *Sun
	info   *Details
}

// prop is one placement of a shared RSM model.
type prop struct {
	name  string
	model *rsmModel
	base  math.Mat4 // RO model space to the pipeline basis
	speed float64
}

func loadRSW(res *resolver, opts Options) (*worldModel, error) {
	rsw, err := formats.ParseRSWFS(res.fsys, res.name)
	if err != nil {
		return nil, err
	}

	gnd, err := formats.ParseGNDFS(res.siblingFS(rsw.GndFile))
	if err != nil {
		return nil, fmt.Errorf("ground %s: %w", rsw.GndFile, err)
	}

	var images []image.Image
	if opts.Textures {
		images = make([]image.Image, len(gnd.Textures))
		for i, name := range gnd.Textures {
			images[i] = res.loadTexture(name)
		}
	}

	w := &worldModel{
		ground: buildGround(gnd, images),
		fps:    opts.FPS,
		sun:    &Sun{Longitude: float64(rsw.Light.Longitude), Latitude: float64(rsw.Light.Latitude)},
	}

	// RSW positions are relative to the map center.
	offX := float64(gnd.Width) * float64(gnd.Zoom) / 2
	offZ := float64(gnd.Height) * float64(gnd.Zoom) / 2

	cache := make(map[string]*rsmModel)
	for i, ref := range rsw.Models {
		key := strings.ToLower(ref.ModelName)
		model, ok := cache[key]
		if !ok {
			model, err = loadProp(res, ref.ModelName, opts)
			if err != nil {
				logger.Warn("prop skipped", zap.String("model", ref.ModelName), zap.Error(err))
				continue
			}
			cache[key] = model
		}

		name := ref.Name
		if name == "" {
			name = path.Base(strings.ReplaceAll(ref.ModelName, "\\", "/"))
		}
		speed := float64(ref.AnimSpeed)
		if speed <= 0 {
			speed = 1
		}
		w.props = append(w.props, prop{
			name:  fmt.Sprintf("%s[%d]/", name, i),
			model: model,
			base:  mesh.YUpToZUp().Mul(placement(&ref, model, offX, offZ)),
			speed: speed,
		})
	}

	w.info = groundDetails(gnd, w.ground)
	w.info.Version = rsw.Version.String()
	w.info.Props = len(w.props)
	w.info.Animated = w.frameCount() > 1

	logger.Debug("map loaded",
		zap.String("ground", rsw.GndFile),
		zap.Int("props", len(w.props)),
		zap.Int("models", len(cache)))
	return w, nil
}

func loadProp(res *resolver, name string, opts Options) (*rsmModel, error) {
	data, err := res.readResource("model", name)
	if err != nil {
		return nil, err
	}
	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return nil, err
	}
	return newRSMModel(res, rsm, opts), nil
}

// placement puts a Y-flipped, X/Z-centered model at its map position in
// Y-up ground space. Rotation is applied Y, X, then Z.
func placement(ref *formats.RSWModel, model *rsmModel, offX, offZ float64) math.Mat4 {
	const deg = gomath.Pi / 180
	cx, cz := model.center()

	m := math.Translate(float64(ref.Position[0])+offX, -float64(ref.Position[1]), float64(ref.Position[2])+offZ)
	m = m.Mul(math.RotateAxis(math.V3(0, 1, 0), float64(ref.Rotation[1])*deg))
	m = m.Mul(math.RotateAxis(math.V3(1, 0, 0), float64(ref.Rotation[0])*deg))
	m = m.Mul(math.RotateAxis(math.V3(0, 0, 1), float64(ref.Rotation[2])*deg))
	m = m.Mul(math.Scale(float64(ref.Scale[0]), float64(ref.Scale[1]), float64(ref.Scale[2])))
	m = m.Mul(math.Translate(-cx, 0, -cz))
	return m.Mul(math.Scale(1, -1, 1))
}

// frameCount is the longest prop animation at its playback speed.
func (w *worldModel) frameCount() int {
	frames := 1
	for _, p := range w.props {
		if !p.model.animated() {
			continue
		}
		n := int(gomath.Ceil(float64(p.model.rsm.AnimLength) / p.speed * w.fps / 1000))
		frames = max(frames, n)
	}
	return frames
}

func (w *worldModel) evaluate(frame int) ([]*mesh.Mesh, error) {
	meshes := []*mesh.Mesh{w.ground}
	t := float64(frame) * 1000 / w.fps
	for _, p := range w.props {
		meshes = append(meshes, p.model.meshesAt(p.model.loopTime(t*p.speed), p.base, p.name)...)
	}
	return meshes, nil
}
